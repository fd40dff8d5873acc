package introspection

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseEnumValues(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    []string
		wantErr bool
	}{
		{name: "simple", input: "enum('a','b','c')", want: []string{"a", "b", "c"}},
		{name: "escapes", input: "ENUM('in\\'progress','it''s','back\\\\slash','a,b')", want: []string{"in'progress", "it's", "back\\slash", "a,b"}},
		{name: "empty value", input: "ENUM('')", want: []string{""}},
		{name: "whitespace", input: "ENUM( 'a' , 'b' )", want: []string{"a", "b"}},
		{name: "not an enum", input: "varchar(10)", wantErr: true},
		{name: "no values", input: "enum()", wantErr: true},
		{name: "unquoted", input: "enum(a)", wantErr: true},
		{name: "unterminated", input: "enum('a)", wantErr: true},
		{name: "missing comma", input: "enum('a' 'b')", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			values, err := parseEnumValues(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, tt.want, values)
		})
	}
}
