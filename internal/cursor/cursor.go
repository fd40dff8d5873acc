// Package cursor encodes and decodes Relay-style connection cursors.
// Cursors are opaque base64-encoded JSON objects carrying the connection's
// element type and the zero-based offset of the edge.
package cursor

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"math"
)

const version = 1

type payload struct {
	Version  int    `json:"v"`
	TypeName string `json:"t"`
	Offset   int    `json:"o"`
}

// EncodeCursor builds an opaque cursor for the edge at offset.
func EncodeCursor(typeName string, offset int) string {
	data, err := json.Marshal(payload{Version: version, TypeName: typeName, Offset: offset})
	if err != nil {
		return ""
	}
	return base64.StdEncoding.EncodeToString(data)
}

// DecodeCursor parses a cursor produced by EncodeCursor.
func DecodeCursor(raw string) (typeName string, offset int, err error) {
	data, err := base64.StdEncoding.DecodeString(raw)
	if err != nil {
		return "", 0, fmt.Errorf("invalid cursor: %w", err)
	}
	var p payload
	if err := json.Unmarshal(data, &p); err != nil {
		return "", 0, fmt.Errorf("invalid cursor format")
	}
	if p.Version != version {
		return "", 0, fmt.Errorf("invalid cursor format: unsupported version %d", p.Version)
	}
	if p.TypeName == "" {
		return "", 0, fmt.Errorf("invalid cursor: missing type")
	}
	if p.Offset < 0 {
		return "", 0, fmt.Errorf("invalid cursor: negative offset")
	}
	return p.TypeName, p.Offset, nil
}

// ValidateCursor confirms the cursor was issued for the expected type.
func ValidateCursor(expectedType, actualType string) error {
	if actualType != expectedType {
		return fmt.Errorf("cursor type mismatch: expected %s, got %s", expectedType, actualType)
	}
	return nil
}

// OffsetAfter decodes an "after" cursor for expectedType and returns the offset
// of the first edge following it. An empty cursor starts at zero.
func OffsetAfter(expectedType, after string) (int, error) {
	if after == "" {
		return 0, nil
	}
	typeName, offset, err := DecodeCursor(after)
	if err != nil {
		return 0, err
	}
	if err := ValidateCursor(expectedType, typeName); err != nil {
		return 0, err
	}
	if offset == math.MaxInt {
		return 0, fmt.Errorf("invalid cursor: offset out of range")
	}
	return offset + 1, nil
}
