// Package seed builds the initial tab list from files on disk.
package seed

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"

	"github.com/bmatcuk/doublestar/v4"

	"pkt.systems/codepane/internal/logx"
	"pkt.systems/codepane/schema"
)

// DefaultMaxBytes skips files larger than this.
const DefaultMaxBytes = 1 << 20

// Options selects the files to load.
type Options struct {
	// BaseDir anchors the globs; empty means the working directory.
	BaseDir string
	// Globs are doublestar patterns relative to BaseDir, e.g. "src/**/*.html".
	Globs    []string
	MaxBytes int64
}

// Load returns one tab request per matched file in glob order. A file matched
// by several globs is loaded once. Files whose extension maps to no language
// are skipped.
func Load(ctx context.Context, opts Options) ([]schema.AddTabRequest, error) {
	base := opts.BaseDir
	if base == "" {
		base = "."
	}
	return LoadFS(ctx, os.DirFS(base), opts)
}

// LoadFS is Load over an arbitrary file system.
func LoadFS(ctx context.Context, fsys fs.FS, opts Options) ([]schema.AddTabRequest, error) {
	log := logx.Ctx(ctx)
	maxBytes := opts.MaxBytes
	if maxBytes <= 0 {
		maxBytes = DefaultMaxBytes
	}
	seen := make(map[string]struct{})
	var out []schema.AddTabRequest
	for _, pattern := range opts.Globs {
		pattern = filepath.ToSlash(pattern)
		if !doublestar.ValidatePattern(pattern) {
			return nil, fmt.Errorf("seed glob %q: %w", pattern, doublestar.ErrBadPattern)
		}
		matches, err := doublestar.Glob(fsys, pattern, doublestar.WithFilesOnly())
		if err != nil {
			return nil, fmt.Errorf("seed glob %q: %w", pattern, err)
		}
		sort.Strings(matches)
		for _, name := range matches {
			if _, dup := seen[name]; dup {
				continue
			}
			seen[name] = struct{}{}
			lang, ok := schema.LanguageForExtension(path.Ext(name))
			if !ok {
				log.Debug("seed file skipped", "path", name, "reason", "unknown extension")
				continue
			}
			info, err := fs.Stat(fsys, name)
			if err != nil {
				return nil, fmt.Errorf("seed stat %s: %w", name, err)
			}
			if info.Size() > maxBytes {
				log.Warn("seed file skipped", "path", name, "reason", "too large", "bytes", info.Size())
				continue
			}
			data, err := fs.ReadFile(fsys, name)
			if err != nil {
				return nil, fmt.Errorf("seed read %s: %w", name, err)
			}
			out = append(out, schema.AddTabRequest{
				Name:     schema.TabName(name),
				Language: lang,
				Content:  string(data),
			})
		}
	}
	log.Info("seed files loaded", "count", len(out), "globs", len(opts.Globs))
	return out, nil
}
