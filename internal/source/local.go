package source

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

type localConfig struct {
	Dir       string `json:"dir"`
	Recursive bool   `json:"recursive"`
}

type localSource struct {
	dir       string
	recursive bool
}

func createLocalSource(args interface{}) (Source, error) {
	cfg := &localConfig{}
	if err := decodeConfig(args, cfg); err != nil {
		return nil, err
	}
	if strings.TrimSpace(cfg.Dir) == "" {
		return nil, fmt.Errorf("local source dir is required")
	}
	info, err := os.Stat(cfg.Dir)
	if err != nil {
		return nil, fmt.Errorf("stat source dir: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("source path is not a directory: %s", cfg.Dir)
	}
	return &localSource{dir: cfg.Dir, recursive: cfg.Recursive}, nil
}

func (s *localSource) Label() string {
	return "local:" + s.dir
}

func (s *localSource) List(_ context.Context) ([]string, error) {
	var names []string
	err := filepath.WalkDir(s.dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if path != s.dir && (!s.recursive || strings.HasPrefix(d.Name(), ".")) {
				return fs.SkipDir
			}
			return nil
		}
		if strings.HasPrefix(d.Name(), ".") {
			return nil
		}
		rel, rerr := filepath.Rel(s.dir, path)
		if rerr != nil {
			return rerr
		}
		names = append(names, filepath.ToSlash(rel))
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", s.dir, err)
	}
	sort.Strings(names)
	return names, nil
}

func (s *localSource) Fetch(_ context.Context, name string) (string, func(), error) {
	path := filepath.Join(s.dir, filepath.FromSlash(name))
	if _, err := os.Stat(path); err != nil {
		return "", noopCleanup, fmt.Errorf("fetch %s: %w", name, err)
	}
	return path, noopCleanup, nil
}

func init() {
	Register("local", createLocalSource)
}
