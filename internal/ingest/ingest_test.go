package ingest

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"go.uber.org/goleak"
)

func drain(t *testing.T, lines <-chan Line, errs <-chan error) ([]string, error) {
	t.Helper()
	var out []string
	var firstErr error
	for lines != nil || errs != nil {
		select {
		case l, ok := <-lines:
			if !ok {
				lines = nil
				continue
			}
			out = append(out, l.Text)
		case err, ok := <-errs:
			if !ok {
				errs = nil
				continue
			}
			if firstErr == nil {
				firstErr = err
			}
		case <-time.After(5 * time.Second):
			t.Fatalf("timed out draining ingest")
		}
	}
	return out, firstErr
}

func TestReadFile(t *testing.T) {
	defer goleak.VerifyNone(t)
	path := filepath.Join(t.TempDir(), "products.csv")
	if err := os.WriteFile(path, []byte("id,name\n1,Apples\n2,Pears\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	lines, errs := Read(context.Background(), Options{Source: SourceFile, Path: path})
	got, err := drain(t, lines, errs)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if strings.Join(got, "|") != "id,name|1,Apples|2,Pears" {
		t.Fatalf("lines: %v", got)
	}
	if h, _ := Header(path); h != "id,name" {
		t.Fatalf("header: %q", h)
	}
}

func TestReadFileBlockDropsPartialLine(t *testing.T) {
	defer goleak.VerifyNone(t)
	path := filepath.Join(t.TempDir(), "orders.ndjson")
	content := `{"id":1,"total":10}` + "\n" + `{"id":2,"total":20}` + "\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	lines, errs := Read(context.Background(), Options{Source: SourceFile, Path: path, BlockSizeBytes: 25})
	got, err := drain(t, lines, errs)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if len(got) != 1 || got[0] != `{"id":2,"total":20}` {
		t.Fatalf("block lines: %v", got)
	}
}

func TestMissingFileReportsError(t *testing.T) {
	defer goleak.VerifyNone(t)
	lines, errs := Read(context.Background(), Options{Source: SourceFile, Path: filepath.Join(t.TempDir(), "nope")})
	_, err := drain(t, lines, errs)
	if err == nil {
		t.Fatalf("expected open error")
	}
}

func TestDemoSeedsThenStopsOnCancel(t *testing.T) {
	defer goleak.VerifyNone(t)
	ctx, cancel := context.WithCancel(context.Background())
	lines, errs := Read(ctx, Options{Source: SourceDemo, DemoDataset: "orders", DemoRows: 5, DemoSeed: 1, DemoInterval: 10 * time.Millisecond})
	var got int
	for l := range lines {
		if !strings.Contains(l.Text, `"trackingNumber"`) {
			t.Fatalf("demo line: %s", l.Text)
		}
		got++
		if got == 7 {
			cancel()
		}
	}
	cancel()
	if err := <-errs; err != nil {
		t.Fatalf("demo error: %v", err)
	}
	if got < 7 {
		t.Fatalf("expected seeded rows plus live orders, got %d", got)
	}
}

func TestUnknownSource(t *testing.T) {
	defer goleak.VerifyNone(t)
	lines, errs := Read(context.Background(), Options{Source: "ftp"})
	_, err := drain(t, lines, errs)
	if err != ErrUnknownSource {
		t.Fatalf("err = %v", err)
	}
}
