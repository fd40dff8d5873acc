package datacontext

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

// Fixture keys. A row's "$id" names it within its collection; a navigation value
// of the form {"$ref": "collection/id"} links to another row.
const (
	idKey  = "$id"
	refKey = "$ref"
)

// Store is an in-memory Context. Rows are map[string]any and navigations hold
// the linked row maps directly, so cyclic relationships share instances.
type Store struct {
	name string

	mu          sync.RWMutex
	collections map[string][]map[string]interface{}
}

// NewStore creates an empty store.
func NewStore(name string) *Store {
	return &Store{
		name:        name,
		collections: make(map[string][]map[string]interface{}),
	}
}

// Name implements Context.
func (s *Store) Name() string {
	return s.name
}

// Add appends rows to a collection, creating it if needed.
func (s *Store) Add(collection string, rows ...map[string]interface{}) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.collections[collection] = append(s.collections[collection], rows...)
}

// Collection implements Context. The returned slice is a copy; rows are shared.
func (s *Store) Collection(_ context.Context, name string) (interface{}, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, ok := s.collections[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownCollection, name)
	}
	out := make([]interface{}, len(rows))
	for i, row := range rows {
		out[i] = row
	}
	return out, nil
}

type fixtureFile struct {
	Name        string                              `yaml:"name"`
	Collections map[string][]map[string]interface{} `yaml:"collections"`
}

// LoadFixtureFile reads a YAML fixture file into a new Store.
func LoadFixtureFile(path string) (*Store, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open fixture file: %w", err)
	}
	defer f.Close()

	store, err := LoadFixtures(f)
	if err != nil {
		return nil, fmt.Errorf("load fixture file %s: %w", path, err)
	}
	return store, nil
}

// LoadFixtures parses a YAML fixture document and links "$ref" navigations.
func LoadFixtures(r io.Reader) (*Store, error) {
	var file fixtureFile
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&file); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("decode fixtures: %w", err)
	}

	store := NewStore(file.Name)
	index := make(map[string]map[string]interface{})
	for collection, rows := range file.Collections {
		for i, row := range rows {
			if row == nil {
				return nil, fmt.Errorf("fixture %s[%d] is empty", collection, i)
			}
			if id, ok := row[idKey]; ok {
				key := collection + "/" + fmt.Sprint(id)
				if _, dup := index[key]; dup {
					return nil, fmt.Errorf("duplicate fixture id %s", key)
				}
				index[key] = row
				delete(row, idKey)
			}
		}
		store.collections[collection] = rows
	}

	for collection, rows := range store.collections {
		for i, row := range rows {
			for member, value := range row {
				linked, err := link(value, index)
				if err != nil {
					return nil, fmt.Errorf("fixture %s[%d].%s: %w", collection, i, member, err)
				}
				row[member] = linked
			}
		}
	}
	return store, nil
}

func link(value interface{}, index map[string]map[string]interface{}) (interface{}, error) {
	switch v := value.(type) {
	case map[string]interface{}:
		ref, ok := refOf(v)
		if !ok {
			return v, nil
		}
		row, found := index[ref]
		if !found {
			return nil, fmt.Errorf("unresolved reference %q", ref)
		}
		return row, nil
	case []interface{}:
		out := make([]interface{}, len(v))
		for i, item := range v {
			linked, err := link(item, index)
			if err != nil {
				return nil, err
			}
			out[i] = linked
		}
		return out, nil
	default:
		return value, nil
	}
}

func refOf(m map[string]interface{}) (string, bool) {
	if len(m) != 1 {
		return "", false
	}
	ref, ok := m[refKey].(string)
	if !ok || !strings.Contains(ref, "/") {
		return "", false
	}
	return ref, true
}
