package file

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/pelletier/go-toml/v2"

	"github.com/custodia-labs/apiforge/internal/core/ports/driven"
)

// Ensure ConfigStore implements the interface.
var _ driven.ConfigStore = (*ConfigStore)(nil)

const (
	defaultDirName  = ".apiforge"
	defaultFileName = "config.toml"
)

// ConfigStore keeps apiforge settings in a TOML file. Tables are exposed as
// dotted keys, so [llm] provider is read as "llm.provider", and written
// back as tables.
type ConfigStore struct {
	mu   sync.RWMutex
	path string
	keys map[string]any
}

// NewConfigStore opens config.toml inside dir, creating dir if needed.
// An empty dir means ~/.apiforge.
func NewConfigStore(dir string) (*ConfigStore, error) {
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("locate home directory: %w", err)
		}
		dir = filepath.Join(home, defaultDirName)
	}
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, fmt.Errorf("create config directory: %w", err)
	}
	return NewConfigStoreAt(filepath.Join(dir, defaultFileName))
}

// NewConfigStoreAt opens the config file at path. A missing file is not an
// error; its directory is created on first save.
func NewConfigStoreAt(path string) (*ConfigStore, error) {
	s := &ConfigStore{path: path, keys: make(map[string]any)}
	if err := s.Load(); err != nil {
		return nil, err
	}
	return s, nil
}

// Get returns the raw value stored under key.
func (s *ConfigStore) Get(key string) (any, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.keys[key]
	return v, ok
}

// GetString returns the string under key, or "".
func (s *ConfigStore) GetString(key string) string {
	v, _ := lookup[string](s, key)
	return v
}

// GetInt returns the integer under key, or 0. The decoder yields int64.
func (s *ConfigStore) GetInt(key string) int {
	raw, _ := s.Get(key)
	switch v := raw.(type) {
	case int64:
		return int(v)
	case int:
		return v
	}
	return 0
}

// GetFloat returns the number under key, or 0. Integers are widened.
func (s *ConfigStore) GetFloat(key string) float64 {
	raw, _ := s.Get(key)
	switch v := raw.(type) {
	case float64:
		return v
	case float32:
		return float64(v)
	case int64:
		return float64(v)
	case int:
		return float64(v)
	}
	return 0
}

// GetBool returns the boolean under key, or false.
func (s *ConfigStore) GetBool(key string) bool {
	v, _ := lookup[bool](s, key)
	return v
}

// GetStringSlice returns the string array under key. Non-string items of a
// decoded array are dropped.
func (s *ConfigStore) GetStringSlice(key string) []string {
	raw, _ := s.Get(key)
	switch v := raw.(type) {
	case []string:
		return v
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			if str, ok := item.(string); ok {
				out = append(out, str)
			}
		}
		return out
	}
	return nil
}

func lookup[T any](s *ConfigStore, key string) (T, bool) {
	raw, ok := s.Get(key)
	if !ok {
		var zero T
		return zero, false
	}
	v, ok := raw.(T)
	return v, ok
}

// Set stores value under key and writes the file.
func (s *ConfigStore) Set(key string, value any) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	prev, had := s.keys[key]
	s.keys[key] = value
	if err := s.write(); err != nil {
		if had {
			s.keys[key] = prev
		} else {
			delete(s.keys, key)
		}
		return err
	}
	return nil
}

// Save writes the current keys to the file.
func (s *ConfigStore) Save() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.write()
}

// write encodes the keys as nested tables. Caller holds the lock.
func (s *ConfigStore) write() error {
	data, err := toml.Marshal(nest(s.keys))
	if err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0700); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}
	if err := os.WriteFile(s.path, data, 0600); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

// Load re-reads the file. A missing file leaves the store empty.
func (s *ConfigStore) Load() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		s.keys = make(map[string]any)
		return nil
	}
	if err != nil {
		return fmt.Errorf("read config: %w", err)
	}

	var tree map[string]any
	if err := toml.Unmarshal(data, &tree); err != nil {
		return fmt.Errorf("parse %s: %w", s.path, err)
	}
	s.keys = make(map[string]any)
	flatten(tree, "", s.keys)
	return nil
}

// Path returns the config file path.
func (s *ConfigStore) Path() string {
	return s.path
}

// flatten copies tree into out with dotted keys: {"a": {"b": 1}} becomes
// {"a.b": 1}.
func flatten(tree map[string]any, prefix string, out map[string]any) {
	for k, v := range tree {
		if prefix != "" {
			k = prefix + "." + k
		}
		if table, ok := v.(map[string]any); ok {
			flatten(table, k, out)
			continue
		}
		out[k] = v
	}
}

// nest is the inverse of flatten. A key whose prefix already holds a plain
// value stays dotted at the top level.
func nest(keys map[string]any) map[string]any {
	// Sorted so that "a" is placed before "a.b".
	names := make([]string, 0, len(keys))
	for key := range keys {
		names = append(names, key)
	}
	sort.Strings(names)

	tree := make(map[string]any)
	for _, key := range names {
		v := keys[key]
		parts := strings.Split(key, ".")
		node := tree
		ok := true
		for _, p := range parts[:len(parts)-1] {
			child, exists := node[p]
			if !exists {
				next := make(map[string]any)
				node[p] = next
				node = next
				continue
			}
			table, isTable := child.(map[string]any)
			if !isTable {
				ok = false
				break
			}
			node = table
		}
		if !ok {
			tree[key] = v
			continue
		}
		node[parts[len(parts)-1]] = v
	}
	return tree
}
