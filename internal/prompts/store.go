// Package prompts reads role prompt templates from disk.
package prompts

import (
	"os"
	"path/filepath"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"github.com/freema/agentlink/internal/apperror"
)

// Store is a file-backed template reader. Template contents are cached
// with a TTL so hot roles do not hit the filesystem on every invocation.
type Store struct {
	baseDir string
	cache   *gocache.Cache
}

// NewStore creates a template store rooted at baseDir. A non-positive TTL
// disables caching.
func NewStore(baseDir string, ttl time.Duration) *Store {
	s := &Store{baseDir: baseDir}
	if ttl > 0 {
		s.cache = gocache.New(ttl, 2*ttl)
	}
	return s
}

// ReadTemplate returns the template text for ref. Relative refs are
// resolved against the store's base directory.
func (s *Store) ReadTemplate(ref string) (string, error) {
	path := ref
	if !filepath.IsAbs(path) {
		path = filepath.Join(s.baseDir, path)
	}

	if s.cache != nil {
		if v, ok := s.cache.Get(path); ok {
			return v.(string), nil
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return "", apperror.Internal("reading prompt template %s: %v", path, err)
	}

	text := string(data)
	if s.cache != nil {
		s.cache.Set(path, text, gocache.DefaultExpiration)
	}
	return text, nil
}
