package metadata

import (
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// Document is a parsed model file.
type Document struct {
	Model *Model
	// Context is nil when the file does not declare a data context.
	Context *ContextType
}

type modelFile struct {
	Context  *contextSpec `yaml:"context"`
	Enums    []enumSpec   `yaml:"enums"`
	Entities []entitySpec `yaml:"entities"`
}

type contextSpec struct {
	Name        string           `yaml:"name"`
	Collections []collectionSpec `yaml:"collections"`
}

type collectionSpec struct {
	Name string `yaml:"name"`
	Type string `yaml:"type"`
}

type enumSpec struct {
	Name   string   `yaml:"name"`
	Values []string `yaml:"values"`
}

type entitySpec struct {
	Type        string           `yaml:"type"`
	Properties  []propertySpec   `yaml:"properties"`
	Navigations []navigationSpec `yaml:"navigations"`
}

type propertySpec struct {
	Name     string `yaml:"name"`
	Type     string `yaml:"type"`
	Nullable bool   `yaml:"nullable"`
}

type navigationSpec struct {
	Name       string `yaml:"name"`
	Target     string `yaml:"target"`
	Collection bool   `yaml:"collection"`
	Nullable   *bool  `yaml:"nullable"`
}

// LoadModelFile reads a YAML model file from disk.
func LoadModelFile(path string) (*Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open model file: %w", err)
	}
	defer f.Close()

	doc, err := LoadModel(f)
	if err != nil {
		return nil, fmt.Errorf("load model file %s: %w", path, err)
	}
	return doc, nil
}

// LoadModel parses a YAML model document. Property types naming a declared enum
// become enum properties. Single navigations are nullable unless stated otherwise.
func LoadModel(r io.Reader) (*Document, error) {
	var file modelFile
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&file); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("%w: empty model document", ErrInvalidModel)
		}
		return nil, fmt.Errorf("decode model: %w", err)
	}

	enums := make(map[string]*Enum, len(file.Enums))
	for _, spec := range file.Enums {
		if _, dup := enums[spec.Name]; dup {
			return nil, fmt.Errorf("%w: enum %s is declared twice", ErrInvalidModel, spec.Name)
		}
		enums[spec.Name] = &Enum{Name: spec.Name, Values: spec.Values}
	}

	entities := make([]*Entity, 0, len(file.Entities))
	for _, spec := range file.Entities {
		entity := &Entity{Type: spec.Type}
		for _, p := range spec.Properties {
			if p.Type == "" {
				return nil, fmt.Errorf("%w: property %s.%s has no type", ErrInvalidModel, spec.Type, p.Name)
			}
			entity.Properties = append(entity.Properties, Property{
				Name:     p.Name,
				Type:     p.Type,
				Nullable: p.Nullable,
				Enum:     enums[p.Type],
			})
		}
		for _, n := range spec.Navigations {
			nullable := true
			if n.Nullable != nil {
				nullable = *n.Nullable
			}
			entity.Navigations = append(entity.Navigations, Navigation{
				Name:       n.Name,
				Target:     n.Target,
				Collection: n.Collection,
				Nullable:   nullable,
			})
		}
		entities = append(entities, entity)
	}

	model, err := NewModel(entities...)
	if err != nil {
		return nil, err
	}

	doc := &Document{Model: model}
	if file.Context != nil {
		ctxType := ContextType{Name: file.Context.Name}
		for _, c := range file.Context.Collections {
			if c.Name == "" || c.Type == "" {
				return nil, fmt.Errorf("%w: context collection requires name and type", ErrInvalidModel)
			}
			ctxType.Collections = append(ctxType.Collections, Collection{Name: c.Name, ElementType: c.Type})
		}
		doc.Context = &ctxType
	}
	return doc, nil
}
