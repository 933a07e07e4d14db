package vision

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"go.uber.org/zap"

	"cultivai/cropvision/croplabel"
)

// CachedClassifier memoizes another classifier's candidates per image. Entries
// live in memory and, when dir is set, as JSON files keyed by content hash.
type CachedClassifier struct {
	next   Classifier
	dir    string
	logger *zap.Logger

	mu sync.RWMutex
	m  map[string][]croplabel.Candidate
}

// NewCachedClassifier wraps next. An empty dir keeps the cache in memory only.
func NewCachedClassifier(next Classifier, dir string, logger *zap.Logger) (*CachedClassifier, error) {
	if next == nil {
		return nil, errors.New("classifier is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create cache dir: %w", err)
		}
	}
	return &CachedClassifier{
		next:   next,
		dir:    dir,
		logger: logger,
		m:      make(map[string][]croplabel.Candidate),
	}, nil
}

// ModelID returns the wrapped classifier's identifier.
func (c *CachedClassifier) ModelID() string {
	return c.next.ModelID()
}

// Classify returns cached candidates for the image or asks the wrapped
// classifier. Disk cache failures are logged and otherwise ignored.
func (c *CachedClassifier) Classify(ctx context.Context, image []byte) ([]croplabel.Candidate, error) {
	if len(image) == 0 {
		return nil, ErrEmptyImage
	}
	key := cacheKey(image, c.next.ModelID())
	if v, ok := c.get(key); ok {
		return v, nil
	}
	if v, ok, err := c.load(key); err != nil {
		c.logger.Warn("classification cache unreadable", zap.String("key", key), zap.Error(err))
	} else if ok {
		c.put(key, v)
		return cloneCandidates(v), nil
	}
	v, err := c.next.Classify(ctx, image)
	if err != nil {
		return nil, err
	}
	c.put(key, v)
	if err := c.save(key, v); err != nil {
		c.logger.Warn("classification cache not written", zap.String("key", key), zap.Error(err))
	}
	return cloneCandidates(v), nil
}

func (c *CachedClassifier) get(key string) ([]croplabel.Candidate, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	v, ok := c.m[key]
	if !ok {
		return nil, false
	}
	return cloneCandidates(v), true
}

func (c *CachedClassifier) put(key string, v []croplabel.Candidate) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.m[key] = cloneCandidates(v)
}

func (c *CachedClassifier) load(key string) ([]croplabel.Candidate, bool, error) {
	if c.dir == "" {
		return nil, false, nil
	}
	data, err := os.ReadFile(filepath.Join(c.dir, key+".json"))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, false, nil
		}
		return nil, false, err
	}
	var v []croplabel.Candidate
	if err := json.Unmarshal(data, &v); err != nil {
		return nil, false, fmt.Errorf("cache file broken: %w", err)
	}
	return v, true, nil
}

func (c *CachedClassifier) save(key string, v []croplabel.Candidate) error {
	if c.dir == "" {
		return nil
	}
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	path := filepath.Join(c.dir, key+".json")
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}

func cacheKey(image []byte, model string) string {
	h := sha1.New()
	_, _ = h.Write([]byte(model))
	_, _ = h.Write([]byte("|"))
	_, _ = h.Write(image)
	return hex.EncodeToString(h.Sum(nil))
}

func cloneCandidates(v []croplabel.Candidate) []croplabel.Candidate {
	out := make([]croplabel.Candidate, len(v))
	copy(out, v)
	return out
}
