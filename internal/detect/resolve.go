package detect

import (
	"context"

	"grocerydesk/internal/datatable"
	"grocerydesk/internal/model"
	"grocerydesk/internal/util/logx"
)

// Inferer asks a remote model for a schema given raw sample lines.
type Inferer interface {
	InferSchema(ctx context.Context, lines []string) (model.Schema, error)
}

type Options struct {
	Dataset    string // forced dataset, "" or "auto" to detect
	SchemaFile string
	Path       string // file being read; keys the cache
	NoCache    bool
	Inferer    Inferer // nil when offline
}

// Resolve picks the schema for a sample: a forced dataset, then a schema
// file, then the cache, then heuristics. A generic heuristic guess is
// refined by the Inferer when one is configured.
func Resolve(ctx context.Context, opt Options, lines []string, rows []datatable.Row) (Guess, error) {
	if opt.Dataset != "" && opt.Dataset != "auto" {
		if s, ok := Builtin(opt.Dataset); ok {
			return Guess{Schema: s, Confidence: 1, Source: "builtin"}, nil
		}
	}
	if opt.SchemaFile != "" {
		s, err := LoadSchemaFile(opt.SchemaFile)
		if err != nil {
			return Guess{}, err
		}
		return Guess{Schema: s, Confidence: 1, Source: "file"}, nil
	}
	if !opt.NoCache && opt.Path != "" {
		if s, ok := LoadSchemaFromCache(opt.Path); ok {
			return Guess{Schema: s, Confidence: s.Confidence, Source: "cache"}, nil
		}
	}
	g := Heuristics(rows)
	if g.Schema.Dataset == Generic && opt.Inferer != nil && len(lines) > 0 {
		s, err := opt.Inferer.InferSchema(ctx, lines)
		if err != nil {
			logx.Warnf("detect: openai inference failed, keeping heuristics: %v", err)
		} else if len(s.Fields) > 0 {
			g = Guess{Schema: s, Confidence: s.Confidence, Source: "openai"}
		}
	}
	if !opt.NoCache && opt.Path != "" && g.Schema.Dataset != Generic {
		if err := SaveSchemaToCache(opt.Path, g.Schema); err != nil {
			logx.Warnf("detect: save schema cache: %v", err)
		}
	}
	logx.Infof("detect: dataset=%s source=%s confidence=%.2f", g.Schema.Dataset, g.Source, g.Confidence)
	return g, nil
}
