package detect

import (
	"crypto/sha1"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"grocerydesk/internal/model"
	"grocerydesk/internal/util/logx"
)

// cacheBase is overridden in tests.
var cacheBase = os.TempDir

func cacheDir() string {
	return filepath.Join(cacheBase(), "grocerydesk-schema-cache")
}

// cachePath names the cache entry for a data file. Entries are keyed by
// absolute path and size, so a rewritten file is detected again.
func cachePath(dataPath string) (string, error) {
	if strings.TrimSpace(dataPath) == "" {
		return "", errors.New("empty path")
	}
	abs, err := filepath.Abs(dataPath)
	if err != nil {
		return "", err
	}
	size := int64(-1)
	if fi, err := os.Stat(abs); err == nil {
		size = fi.Size()
	}
	sum := sha1.Sum([]byte(fmt.Sprintf("%s\x00%d", abs, size)))
	return filepath.Join(cacheDir(), hex.EncodeToString(sum[:8])+".yaml"), nil
}

func LoadSchemaFromCache(dataPath string) (model.Schema, bool) {
	p, err := cachePath(dataPath)
	if err != nil {
		return model.Schema{}, false
	}
	s, err := decodeSchema(p)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			logx.Debugf("detect: ignoring cache entry %s: %v", p, err)
		}
		return model.Schema{}, false
	}
	return s, true
}

// SaveSchemaToCache stores s for dataPath. The entry is written to a temp
// file and renamed into place.
func SaveSchemaToCache(dataPath string, s model.Schema) error {
	p, err := cachePath(dataPath)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return fmt.Errorf("create cache dir: %w", err)
	}
	b, err := yaml.Marshal(s)
	if err != nil {
		return fmt.Errorf("encode schema: %w", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(p), "schema-*.tmp")
	if err != nil {
		return fmt.Errorf("create cache entry: %w", err)
	}
	if _, err := tmp.Write(b); err != nil {
		tmp.Close()
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("write cache entry: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmp.Name())
		return err
	}
	if err := os.Rename(tmp.Name(), p); err != nil {
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("install cache entry: %w", err)
	}
	logx.Infof("detect: cached %s schema at %s", s.Dataset, p)
	return nil
}

// LoadSchemaFile reads a hand-written schema in YAML (or JSON, which YAML
// accepts). The dataset name defaults to the file's base name.
func LoadSchemaFile(path string) (model.Schema, error) {
	s, err := decodeSchema(path)
	if err != nil {
		return model.Schema{}, err
	}
	if s.Dataset == "" {
		s.Dataset = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	s.Confidence = 1
	return s, nil
}

func decodeSchema(path string) (model.Schema, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return model.Schema{}, fmt.Errorf("read schema: %w", err)
	}
	var s model.Schema
	if err := yaml.Unmarshal(b, &s); err != nil {
		return model.Schema{}, fmt.Errorf("decode schema %s: %w", path, err)
	}
	if len(s.Fields) == 0 {
		return model.Schema{}, fmt.Errorf("schema %s has no fields", path)
	}
	return s, nil
}
