package introspection

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPrimaryKeyColumns(t *testing.T) {
	tests := []struct {
		name  string
		table Table
		want  []string
	}{
		{
			name: "single primary key",
			table: Table{Name: "users", Columns: []Column{
				{Name: "id", DataType: "int", IsPrimaryKey: true},
				{Name: "name", DataType: "varchar"},
			}},
			want: []string{"id"},
		},
		{
			name: "composite primary key",
			table: Table{Name: "order_items", Columns: []Column{
				{Name: "order_id", DataType: "int", IsPrimaryKey: true},
				{Name: "product_id", DataType: "int", IsPrimaryKey: true},
				{Name: "quantity", DataType: "int"},
			}},
			want: []string{"order_id", "product_id"},
		},
		{
			name: "no primary key",
			table: Table{Name: "logs", Columns: []Column{
				{Name: "message", DataType: "text"},
			}},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, PrimaryKeyColumns(tt.table))
		})
	}
}
