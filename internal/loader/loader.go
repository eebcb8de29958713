// Package loader turns the configured input into parsed rows and the
// schema that describes them.
package loader

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"grocerydesk/internal/ai"
	"grocerydesk/internal/config"
	"grocerydesk/internal/datatable"
	"grocerydesk/internal/detect"
	"grocerydesk/internal/ingest"
	"grocerydesk/internal/model"
	"grocerydesk/internal/parse"
	"grocerydesk/internal/util/logx"
)

// DemoRows is how many seeded rows each demo dataset starts with.
const DemoRows = 120

type Batch struct {
	Schema  model.Schema
	Rows    []datatable.Row
	Lines   []string
	Invalid int
	Source  string // how the schema was found
}

// Source picks stdin, the file or demo data, in that order.
func Source(cfg *config.Config) ingest.SourceKind {
	switch {
	case cfg.UseStdin:
		return ingest.SourceStdin
	case strings.TrimSpace(cfg.FilePath) != "":
		return ingest.SourceFile
	default:
		return ingest.SourceDemo
	}
}

// DemoDataset is the dataset demo mode seeds when nothing is forced.
func DemoDataset(cfg *config.Config) string {
	if cfg.Dataset == "" || cfg.Dataset == "auto" {
		return "orders"
	}
	return cfg.Dataset
}

// Inferer returns the OpenAI client, or nil when offline or without a key.
func Inferer(cfg *config.Config) detect.Inferer {
	if cfg.Offline || cfg.OpenAIKey() == "" {
		return nil
	}
	timeout := time.Duration(cfg.OpenAITimeoutSec) * time.Second
	return ai.NewOpenAIClient(cfg.OpenAIKey(), cfg.OpenAIBase, cfg.OpenAIModel, timeout)
}

func ResolveOptions(cfg *config.Config) detect.Options {
	return detect.Options{
		Dataset:    cfg.Dataset,
		SchemaFile: cfg.SchemaPath,
		Path:       cfg.FilePath,
		NoCache:    cfg.NoCache,
		Inferer:    Inferer(cfg),
	}
}

// Parser returns the parser for a stream starting with first, honouring a
// forced input format.
func Parser(cfg *config.Config, first string) (parse.Parser, error) {
	format := cfg.InputFormat
	if format == "" {
		format = parse.DetectFormat(first)
	}
	return parse.NewParser(format)
}

// Rows parses lines with p. Header lines yield nothing; lines that fail to
// parse are counted and skipped.
func Rows(p parse.Parser, lines []string) ([]datatable.Row, int) {
	rows := make([]datatable.Row, 0, len(lines))
	invalid := 0
	for _, l := range lines {
		r, err := p.Parse(l)
		if err != nil {
			if !errors.Is(err, parse.ErrEmptyLine) {
				invalid++
				logx.Debugf("parse: skipped line: %v", err)
			}
			continue
		}
		if r != nil {
			rows = append(rows, r)
		}
	}
	return rows, invalid
}

// Load reads the whole input once, never following, and resolves its
// schema.
func Load(ctx context.Context, cfg *config.Config) (Batch, error) {
	src := Source(cfg)
	opt := ingest.Options{
		Source:      src,
		Path:        cfg.FilePath,
		DemoDataset: DemoDataset(cfg),
		DemoRows:    DemoRows,
	}
	if cfg.BlockSizeMB > 0 {
		opt.BlockSizeBytes = int64(cfg.BlockSizeMB) * 1024 * 1024
	}
	lines, errs := ingest.Read(ctx, opt)
	var texts []string
	for l := range lines {
		texts = append(texts, l.Text)
	}
	for err := range errs {
		if err != nil {
			return Batch{}, fmt.Errorf("read %s: %w", src, err)
		}
	}
	if err := ctx.Err(); err != nil {
		return Batch{}, err
	}
	if len(texts) == 0 {
		return Batch{}, fmt.Errorf("read %s: no rows", src)
	}
	p, err := Parser(cfg, texts[0])
	if err != nil {
		return Batch{}, err
	}
	rows, invalid := Rows(p, texts)
	dopt := ResolveOptions(cfg)
	if src == ingest.SourceDemo {
		dopt.Dataset = DemoDataset(cfg)
	}
	g, err := detect.Resolve(ctx, dopt, sample(texts, 50), sampleRows(rows, 200))
	if err != nil {
		return Batch{}, fmt.Errorf("resolve schema: %w", err)
	}
	logx.Infof("loader: %d rows (%d invalid) from %s as %s", len(rows), invalid, src, g.Schema.Dataset)
	return Batch{Schema: g.Schema, Rows: rows, Lines: texts, Invalid: invalid, Source: g.Source}, nil
}

func sample(lines []string, n int) []string {
	if len(lines) > n {
		return lines[:n]
	}
	return lines
}

func sampleRows(rows []datatable.Row, n int) []datatable.Row {
	if len(rows) > n {
		return rows[:n]
	}
	return rows
}
