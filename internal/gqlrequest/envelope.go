// Package gqlrequest decodes incoming GraphQL HTTP requests and derives the
// operation metadata used for logging, tracing and metrics.
package gqlrequest

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"mime"
	"net/http"
	"strings"
)

// Envelope is the GraphQL payload of one HTTP request.
type Envelope struct {
	Method        string
	Query         string
	OperationName string
	// Size is the document length in bytes.
	Size int
}

// DecodeEnvelope reads the GraphQL payload from r. POST bodies are restored so
// the GraphQL handler can read them again.
func DecodeEnvelope(r *http.Request) (Envelope, error) {
	if r == nil {
		return Envelope{}, errors.New("request is nil")
	}
	env := Envelope{Method: r.Method}

	switch r.Method {
	case http.MethodGet:
		q := r.URL.Query()
		env.Query = q.Get("query")
		env.OperationName = q.Get("operationName")
	case http.MethodPost:
		if r.Body == nil {
			break
		}
		body, err := io.ReadAll(r.Body)
		if err != nil {
			return env, err
		}
		r.Body = io.NopCloser(bytes.NewReader(body))

		if err := decodeBody(&env, r.Header.Get("Content-Type"), body); err != nil {
			return env, err
		}
	}
	env.Size = len(env.Query)
	return env, nil
}

func decodeBody(env *Envelope, contentType string, body []byte) error {
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		mediaType = strings.TrimSpace(contentType)
	}
	if mediaType == "application/graphql" {
		env.Query = string(body)
		return nil
	}

	body = bytes.TrimSpace(body)
	if len(body) == 0 {
		return nil
	}
	var payload struct {
		Query         string `json:"query"`
		OperationName string `json:"operationName"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return err
	}
	env.Query = payload.Query
	env.OperationName = payload.OperationName
	return nil
}
