package ingest

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/nxadm/tail"

	"grocerydesk/internal/seed"
	"grocerydesk/internal/util/logx"
)

type SourceKind string

const (
	SourceStdin SourceKind = "stdin"
	SourceFile  SourceKind = "file"
	SourceDemo  SourceKind = "demo"
)

var ErrUnknownSource = errors.New("unknown source kind")

type Options struct {
	Source         SourceKind
	Path           string
	Follow         bool
	ScanBufSize    int   // per-line max (bytes)
	BlockSizeBytes int64 // only for non-follow file read; 0 = all

	// Demo mode: DemoRows seeded rows of DemoDataset, then one new order
	// per DemoInterval while the dataset is "orders".
	DemoDataset  string
	DemoRows     int
	DemoSeed     int64
	DemoInterval time.Duration
}

type Line struct {
	Text   string
	Source string
	When   time.Time
}

func Read(ctx context.Context, opt Options) (<-chan Line, <-chan error) {
	out := make(chan Line, 1024)
	errs := make(chan error, 1)
	if opt.ScanBufSize <= 0 {
		opt.ScanBufSize = 1024 * 1024
	}

	go func() {
		defer close(out)
		defer close(errs)

		switch opt.Source {
		case SourceStdin:
			readFromReader(ctx, os.Stdin, "stdin", opt.ScanBufSize, out, errs)
		case SourceFile:
			if opt.Follow {
				readFromTail(ctx, opt.Path, out, errs)
			} else if opt.BlockSizeBytes > 0 {
				readFromFileBlock(ctx, opt.Path, opt.BlockSizeBytes, opt.ScanBufSize, out, errs)
			} else {
				f, err := os.Open(opt.Path)
				if err != nil {
					errs <- fmt.Errorf("open %s: %w", opt.Path, err)
					return
				}
				defer f.Close()
				readFromReader(ctx, f, opt.Path, opt.ScanBufSize, out, errs)
			}
		case SourceDemo:
			if err := demo(ctx, opt, out); err != nil {
				errs <- err
			}
		default:
			errs <- ErrUnknownSource
		}
	}()

	return out, errs
}

func emit(ctx context.Context, out chan<- Line, l Line) bool {
	select {
	case <-ctx.Done():
		return false
	case out <- l:
		return true
	}
}

func readFromReader(ctx context.Context, r io.Reader, src string, maxBuf int, out chan<- Line, errs chan<- error) {
	scanner := bufio.NewScanner(r)
	buf := make([]byte, 0, 1024*64)
	scanner.Buffer(buf, maxBuf)
	for scanner.Scan() {
		if !emit(ctx, out, Line{Text: scanner.Text(), Source: src, When: time.Now()}) {
			return
		}
	}
	if err := scanner.Err(); err != nil {
		errs <- fmt.Errorf("read %s: %w", src, err)
	}
}

// readFromTail follows path from its current end, so only rows appended
// after start arrive.
func readFromTail(ctx context.Context, path string, out chan<- Line, errs chan<- error) {
	t, err := tail.TailFile(path, tail.Config{
		Follow:    true,
		ReOpen:    true,
		MustExist: true,
		Logger:    tail.DiscardingLogger,
		Poll:      true,
		Location:  &tail.SeekInfo{Offset: 0, Whence: io.SeekEnd},
	})
	if err != nil {
		errs <- fmt.Errorf("tail %s: %w", path, err)
		return
	}
	defer t.Cleanup()
	defer func() { _ = t.Stop() }()
	for {
		select {
		case <-ctx.Done():
			return
		case l, ok := <-t.Lines:
			if !ok {
				return
			}
			if l.Err != nil {
				logx.Warnf("ingest: tail %s: %v", path, l.Err)
				continue
			}
			if !emit(ctx, out, Line{Text: l.Text, Source: path, When: time.Now()}) {
				return
			}
		}
	}
}

func readFromFileBlock(ctx context.Context, path string, blockBytes int64, maxBuf int, out chan<- Line, errs chan<- error) {
	f, err := os.Open(path)
	if err != nil {
		errs <- fmt.Errorf("open %s: %w", path, err)
		return
	}
	defer f.Close()
	var start int64
	if st, err := f.Stat(); err == nil && st.Size() > blockBytes {
		start = st.Size() - blockBytes
	}
	if start == 0 {
		readFromReader(ctx, f, path, maxBuf, out, errs)
		return
	}
	if _, err := f.Seek(start, io.SeekStart); err != nil {
		errs <- fmt.Errorf("seek %s: %w", path, err)
		return
	}
	// Drop partial first line
	br := bufio.NewReader(f)
	if _, err := br.ReadString('\n'); err != nil && err != io.EOF {
		errs <- fmt.Errorf("read %s: %w", path, err)
		return
	}
	readFromReader(ctx, br, path, maxBuf, out, errs)
}

// Header returns the first line of a file, used to keep the CSV header
// when only the tail of a file is read.
func Header(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()
	line, err := bufio.NewReader(f).ReadString('\n')
	if err != nil && err != io.EOF {
		return "", err
	}
	return trimEOL(line), nil
}

func trimEOL(s string) string {
	for len(s) > 0 && (s[len(s)-1] == '\n' || s[len(s)-1] == '\r') {
		s = s[:len(s)-1]
	}
	return s
}

func demo(ctx context.Context, opt Options, out chan<- Line) error {
	dataset := opt.DemoDataset
	if dataset == "" {
		dataset = "orders"
	}
	n := opt.DemoRows
	if n <= 0 {
		n = 60
	}
	g := seed.New(opt.DemoSeed)
	rows, err := g.Dataset(dataset, n)
	if err != nil {
		return err
	}
	for _, r := range rows {
		b, _ := json.Marshal(r)
		if !emit(ctx, out, Line{Text: string(b), Source: "demo", When: time.Now()}) {
			return nil
		}
	}
	if dataset != "orders" || opt.DemoInterval <= 0 {
		return nil
	}
	ticker := time.NewTicker(opt.DemoInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case now := <-ticker.C:
			b, _ := json.Marshal(g.NextOrder(now.UTC()))
			if !emit(ctx, out, Line{Text: string(b), Source: "demo", When: now}) {
				return nil
			}
		}
	}
}
