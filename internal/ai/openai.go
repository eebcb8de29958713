package ai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	altai "github.com/sashabaranov/go-openai"

	"grocerydesk/internal/model"
)

var ErrDisabled = errors.New("openai disabled")

// OpenAIClient proposes column schemas for datasets the heuristics do not
// recognise.
type OpenAIClient struct {
	apiKey  string
	baseURL string
	model   string
	timeout time.Duration
}

func NewOpenAIClient(apiKey, baseURL, model string, timeout time.Duration) *OpenAIClient {
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &OpenAIClient{apiKey: apiKey, baseURL: baseURL, model: model, timeout: timeout}
}

type aiResponse struct {
	Dataset    string           `json:"dataset"`
	IDKey      string           `json:"idKey"`
	Currency   string           `json:"currency"`
	Fields     []model.FieldDef `json:"fields"`
	Confidence float64          `json:"confidence"`
}

func (c *OpenAIClient) InferSchema(ctx context.Context, lines []string) (model.Schema, error) {
	if c == nil || c.apiKey == "" {
		return model.Schema{}, ErrDisabled
	}
	ctx2, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()
	resp, err := c.call(ctx2, buildSchemaPrompt(lines))
	if err != nil {
		return model.Schema{}, fmt.Errorf("infer schema: %w", err)
	}
	var out aiResponse
	if err := json.Unmarshal([]byte(resp), &out); err != nil {
		return model.Schema{}, fmt.Errorf("decode schema response: %w", err)
	}
	return toSchema(out), nil
}

func (c *OpenAIClient) call(ctx context.Context, prompt string) (string, error) {
	cfg := altai.DefaultConfig(c.apiKey)
	if c.baseURL != "" {
		cfg.BaseURL = c.baseURL
	}
	cli := altai.NewClientWithConfig(cfg)
	resp, err := cli.CreateChatCompletion(ctx, altai.ChatCompletionRequest{
		Model: c.model,
		Messages: []altai.ChatCompletionMessage{
			{Role: altai.ChatMessageRoleSystem, Content: "You describe tabular grocery store data as table columns and return ONLY strict JSON following the given contract. No prose, no code fences."},
			{Role: altai.ChatMessageRoleUser, Content: prompt},
		},
		Temperature:    0.2,
		ResponseFormat: &altai.ChatCompletionResponseFormat{Type: altai.ChatCompletionResponseFormatTypeJSONObject},
	})
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("empty choices")
	}
	return resp.Choices[0].Message.Content, nil
}

func buildSchemaPrompt(lines []string) string {
	max := 50
	if len(lines) < max {
		max = len(lines)
	}
	var b strings.Builder
	b.WriteString("Describe the rows below as table columns. Return ONLY strict JSON matching this contract: ")
	b.WriteString(`{dataset, idKey, currency, confidence, fields:[{name, label, type, badges, hideBelow}]}. `)
	b.WriteString("type is one of text|number|integer|currency|date|badge|bool; badges maps a value to one of muted|info|success|warning|danger; hideBelow is sm|md|lg|xl for less important columns.\n")
	b.WriteString("Rows:\n")
	for i := 0; i < max; i++ {
		b.WriteString(lines[i])
		b.WriteByte('\n')
	}
	return b.String()
}

var validTypes = map[string]bool{
	model.TypeText: true, model.TypeNumber: true, model.TypeInteger: true, model.TypeCurrency: true,
	model.TypeDate: true, model.TypeBadge: true, model.TypeBool: true,
}

func toSchema(a aiResponse) model.Schema {
	s := model.Schema{Dataset: a.Dataset, IDKey: a.IDKey, Currency: a.Currency, Confidence: a.Confidence}
	if s.Dataset == "" {
		s.Dataset = "inferred"
	}
	for _, f := range a.Fields {
		if strings.TrimSpace(f.Name) == "" {
			continue
		}
		if !validTypes[f.Type] {
			f.Type = model.TypeText
		}
		s.Fields = append(s.Fields, f)
	}
	return s
}
