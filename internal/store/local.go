// Package store persists the conversation transcript: always to a local
// cache, and best-effort to a single named Google Drive document once the
// user has signed in.
package store

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/csheth/nexus/internal/chat"
)

const localCacheFile = "nexus_omni_memory_v1.json"

// DefaultLocalPath places the cache under the user config dir, falling back
// to the working directory when that cannot be resolved.
func DefaultLocalPath() string {
	base, err := os.UserConfigDir()
	if err != nil {
		return filepath.Join(".", localCacheFile)
	}
	return filepath.Join(base, "nexus", localCacheFile)
}

// Local is the durable transcript cache. Losing it must never interrupt a
// chat session, so every failure here is logged and absorbed.
type Local struct {
	path   string
	logger *zap.Logger
}

// NewLocal returns a cache rooted at path.
func NewLocal(path string, logger *zap.Logger) *Local {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Local{path: path, logger: logger}
}

// Load reads the cached transcript. A missing or corrupt cache yields an
// empty transcript; corruption is logged, not returned.
func (l *Local) Load() []chat.Message {
	data, err := os.ReadFile(l.path)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			l.logger.Warn("local cache unreadable", zap.String("path", l.path), zap.Error(err))
		}
		return nil
	}
	var messages []chat.Message
	if err := json.Unmarshal(data, &messages); err != nil {
		l.logger.Warn("local cache corrupt, starting empty", zap.String("path", l.path), zap.Error(err))
		return nil
	}
	return messages
}

// Save overwrites the cache with the full transcript. Write failures (for
// example a full disk) are logged and swallowed.
func (l *Local) Save(messages []chat.Message) {
	data, err := json.Marshal(messages)
	if err != nil {
		l.logger.Warn("serialize transcript", zap.Error(err))
		return
	}
	if err := os.MkdirAll(filepath.Dir(l.path), 0o755); err != nil {
		l.logger.Warn("create cache dir", zap.Error(err))
		return
	}
	if err := os.WriteFile(l.path, data, 0o644); err != nil {
		l.logger.Warn("write local cache", zap.String("path", l.path), zap.Error(err))
	}
}

// Clear removes the cache file.
func (l *Local) Clear() {
	if err := os.Remove(l.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		l.logger.Warn("clear local cache", zap.Error(err))
	}
}
