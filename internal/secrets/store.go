// Package secrets loads named sets of secret values from a local file.
package secrets

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"

	json "github.com/goccy/go-json"
	"gopkg.in/yaml.v3"
)

var ErrUnknownSet = errors.New("unknown secrets set")

// Store reads the secrets-sets file on first use and keeps the result for
// the life of the process. A missing file holds no sets.
type Store struct {
	path string

	once sync.Once
	sets map[string]map[string]any
	err  error
}

func NewStore(path string) *Store {
	return &Store{path: path}
}

func (s *Store) load() (map[string]map[string]any, error) {
	s.once.Do(func() {
		s.sets, s.err = readFile(s.path)
	})
	return s.sets, s.err
}

func readFile(path string) (map[string]map[string]any, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return map[string]map[string]any{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read secrets sets: %w", err)
	}

	sets := map[string]map[string]any{}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &sets)
	default:
		err = json.Unmarshal(data, &sets)
	}
	if err != nil {
		return nil, fmt.Errorf("parse secrets sets %s: %w", path, err)
	}
	return sets, nil
}

// Names lists the set names in lexical order.
func (s *Store) Names() ([]string, error) {
	sets, err := s.load()
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(sets))
	for name := range sets {
		names = append(names, name)
	}
	slices.Sort(names)
	return names, nil
}

// Get returns the named set. An empty name selects no secrets.
func (s *Store) Get(name string) (map[string]any, error) {
	if name == "" {
		return map[string]any{}, nil
	}
	sets, err := s.load()
	if err != nil {
		return nil, err
	}
	set, ok := sets[name]
	if !ok {
		return nil, fmt.Errorf("%w %q", ErrUnknownSet, name)
	}
	if set == nil {
		set = map[string]any{}
	}
	return set, nil
}
