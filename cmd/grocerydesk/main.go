package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"grocerydesk/internal/config"
	"grocerydesk/internal/export"
	"grocerydesk/internal/loader"
	"grocerydesk/internal/store"
	"grocerydesk/internal/ui"
	"grocerydesk/internal/util/logx"
	"grocerydesk/internal/version"
)

func main() {
	logx.SetLevelFromEnv()
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "config error:", err)
		os.Exit(1)
	}

	if cfg.ShowVersion {
		fmt.Println(version.Banner())
		return
	}

	// Setup cancellation on SIGINT/SIGTERM
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	logx.Infof("starting %s: %s", version.Banner(), cfg.String())
	if cfg.Headless {
		if err := headless(ctx, cfg); err != nil {
			fmt.Fprintln(os.Stderr, "error:", err)
			os.Exit(1)
		}
		return
	}
	if err := ui.Run(ctx, cfg); err != nil {
		logx.Errorf("%s exited with error: %v", version.Name, err)
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

// headless loads the input once, then imports it into the store and/or
// exports it, whichever is configured.
func headless(ctx context.Context, cfg *config.Config) error {
	b, err := loader.Load(ctx, cfg)
	if err != nil {
		return err
	}
	fmt.Fprintf(os.Stderr, "loaded %d %s rows (schema: %s, invalid: %d)\n", len(b.Rows), b.Schema.Dataset, b.Source, b.Invalid)

	if cfg.ServerSide() {
		st, err := store.Open(cfg.DBPath)
		if err != nil {
			return err
		}
		defer st.Close()
		if err := st.Import(ctx, b.Schema.Dataset, b.Rows, b.Schema.IDKey); err != nil {
			return err
		}
		fmt.Fprintf(os.Stderr, "imported %s into %s\n", b.Schema.Dataset, cfg.DBPath)
	}
	if cfg.ExportFormat != "" {
		opt := export.Options{Redact: cfg.Redact}
		if err := export.Write(cfg.ExportFormat, cfg.ExportOut, b.Schema.Columns(), b.Rows, opt); err != nil {
			return err
		}
		fmt.Fprintf(os.Stderr, "exported %d rows to %s\n", len(b.Rows), cfg.ExportOut)
	}
	return nil
}
