package gqlrequest

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"

	"github.com/graphql-go/graphql/language/ast"
	"github.com/graphql-go/graphql/language/parser"
	"github.com/graphql-go/graphql/language/printer"
	"github.com/graphql-go/graphql/language/source"
)

// AnonymousOperation names operations declared without a name.
const AnonymousOperation = "<anonymous>"

// Analysis is the operation metadata derived from an envelope. Err is set when
// the request could not be decoded or parsed, or names no single operation; the
// GraphQL handler reports those failures to the client itself.
type Analysis struct {
	Envelope Envelope

	OperationName string
	OperationType string
	// Hash identifies the printed operation and the fragments it uses, so
	// formatting and comments do not change it.
	Hash string

	FieldCount    int
	Depth         int
	VariableCount int

	Err error
}

// AnalyzeRequest decodes and analyzes r.
func AnalyzeRequest(r *http.Request) *Analysis {
	env, err := DecodeEnvelope(r)
	if err != nil {
		return &Analysis{Envelope: env, Err: fmt.Errorf("decode request: %w", err)}
	}
	return Analyze(env)
}

// Analyze parses the envelope's document and selects its operation.
func Analyze(env Envelope) *Analysis {
	a := &Analysis{Envelope: env}
	if strings.TrimSpace(env.Query) == "" {
		return a
	}

	doc, err := parser.Parse(parser.ParseParams{
		Source: source.NewSource(&source.Source{Body: []byte(env.Query), Name: "graphql"}),
	})
	if err != nil {
		a.Err = err
		return a
	}

	fragments := map[string]*ast.FragmentDefinition{}
	var operations []*ast.OperationDefinition
	for _, def := range doc.Definitions {
		switch d := def.(type) {
		case *ast.FragmentDefinition:
			if d.Name != nil && d.Name.Value != "" {
				fragments[d.Name.Value] = d
			}
		case *ast.OperationDefinition:
			operations = append(operations, d)
		}
	}

	op, err := selectOperation(operations, env.OperationName)
	if err != nil {
		a.Err = err
		return a
	}

	a.OperationName = operationName(op)
	a.OperationType = string(op.Operation)
	a.VariableCount = len(op.VariableDefinitions)

	w := &walker{fragments: fragments, used: map[string]bool{}}
	a.FieldCount, a.Depth = w.walk(op.SelectionSet, 1)
	a.Hash = w.hash(op, a.OperationName)
	return a
}

func selectOperation(operations []*ast.OperationDefinition, name string) (*ast.OperationDefinition, error) {
	if name != "" {
		for _, op := range operations {
			if op.Name != nil && op.Name.Value == name {
				return op, nil
			}
		}
		return nil, fmt.Errorf("unknown operation named %q", name)
	}
	switch len(operations) {
	case 0:
		return nil, errors.New("request does not include an operation")
	case 1:
		return operations[0], nil
	}
	return nil, errors.New("operationName is required when request has multiple operations")
}

func operationName(op *ast.OperationDefinition) string {
	if op.Name == nil || op.Name.Value == "" {
		return AnonymousOperation
	}
	return op.Name.Value
}

// walker counts fields and nesting. Each fragment is expanded once, which also
// stops spread cycles.
type walker struct {
	fragments map[string]*ast.FragmentDefinition
	used      map[string]bool
}

func (w *walker) walk(set *ast.SelectionSet, depth int) (fields, maxDepth int) {
	if set == nil {
		return 0, depth - 1
	}
	maxDepth = depth
	merge := func(f, d int) {
		fields += f
		if d > maxDepth {
			maxDepth = d
		}
	}
	for _, selection := range set.Selections {
		switch sel := selection.(type) {
		case *ast.Field:
			fields++
			if sel.SelectionSet != nil {
				merge(w.walk(sel.SelectionSet, depth+1))
			}
		case *ast.InlineFragment:
			merge(w.walk(sel.SelectionSet, depth))
		case *ast.FragmentSpread:
			if sel.Name == nil || w.used[sel.Name.Value] {
				continue
			}
			w.used[sel.Name.Value] = true
			if frag, ok := w.fragments[sel.Name.Value]; ok {
				merge(w.walk(frag.SelectionSet, depth))
			}
		}
	}
	return fields, maxDepth
}

// hash prints op followed by the fragments reached from it in name order.
func (w *walker) hash(op *ast.OperationDefinition, name string) string {
	names := make([]string, 0, len(w.used))
	for n := range w.used {
		if _, ok := w.fragments[n]; ok {
			names = append(names, n)
		}
	}
	sort.Strings(names)

	defs := []ast.Node{op}
	for _, n := range names {
		defs = append(defs, w.fragments[n])
	}
	printed, _ := printer.Print(ast.NewDocument(&ast.Document{Definitions: defs})).(string)
	return framedSHA256(printed, name)
}

// framedSHA256 hashes length-prefixed parts so ("ab","c") and ("a","bc") differ.
func framedSHA256(parts ...string) string {
	h := sha256.New()
	for _, part := range parts {
		_, _ = fmt.Fprintf(h, "%d:%s|", len(part), part)
	}
	return hex.EncodeToString(h.Sum(nil))
}

type analysisContextKey struct{}

// WithAnalysis stores the request analysis in ctx.
func WithAnalysis(ctx context.Context, a *Analysis) context.Context {
	return context.WithValue(ctx, analysisContextKey{}, a)
}

// AnalysisFromContext returns the request analysis stored in ctx, if any.
func AnalysisFromContext(ctx context.Context) *Analysis {
	if ctx == nil {
		return nil
	}
	a, _ := ctx.Value(analysisContextKey{}).(*Analysis)
	return a
}
