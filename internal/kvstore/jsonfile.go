package kvstore

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"
)

// JSONFileStore keeps one JSON file per key under a root directory. When the
// requested root is not writable it degrades to a process-temporary directory:
// the store stays available but nothing survives a restart, and the switch is
// logged loudly so operators notice.
type JSONFileStore struct {
	root     string
	degraded bool
}

func NewJSONFileStore(ctx context.Context, root string) (*JSONFileStore, error) {
	if strings.TrimSpace(root) == "" {
		return nil, fmt.Errorf("kvstore root directory is required")
	}
	if err := ensureWritable(root); err != nil {
		fallback := filepath.Join(os.TempDir(), "localai-knowledge-ledger")
		if ferr := ensureWritable(fallback); ferr != nil {
			return nil, fmt.Errorf("kvstore root %s unusable (%v) and fallback failed: %w", root, err, ferr)
		}
		logutil.GetLogger(ctx).Warn("ledger storage root not writable, using temporary directory; data will NOT survive restart",
			zap.String("root", root),
			zap.String("fallback", fallback),
			zap.Error(err))
		return &JSONFileStore{root: fallback, degraded: true}, nil
	}
	return &JSONFileStore{root: root}, nil
}

// Degraded reports whether the store fell back to temporary storage.
func (s *JSONFileStore) Degraded() bool {
	return s.degraded
}

// Root returns the directory actually in use.
func (s *JSONFileStore) Root() string {
	return s.root
}

func (s *JSONFileStore) Get(ctx context.Context, key string, dst interface{}) (bool, error) {
	data, err := os.ReadFile(s.path(key))
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, fmt.Errorf("read %s: %w", key, err)
	}
	if err := json.Unmarshal(data, dst); err != nil {
		// A malformed file is treated as absent rather than fatal; favour
		// availability over perfect audit history.
		logutil.GetLogger(ctx).Warn("discarding unparsable ledger file",
			zap.String("key", key), zap.Error(err))
		return false, nil
	}
	return true, nil
}

func (s *JSONFileStore) Put(ctx context.Context, key string, value interface{}) error {
	_ = ctx
	data, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	tmp := s.path(key) + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", key, err)
	}
	return os.Rename(tmp, s.path(key))
}

func (s *JSONFileStore) Delete(ctx context.Context, key string) error {
	_ = ctx
	if err := os.Remove(s.path(key)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("delete %s: %w", key, err)
	}
	return nil
}

func (s *JSONFileStore) path(key string) string {
	return filepath.Join(s.root, key+".json")
}

func ensureWritable(dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	probe := filepath.Join(dir, ".write_probe")
	if err := os.WriteFile(probe, []byte("ok"), 0o644); err != nil {
		return err
	}
	return os.Remove(probe)
}
