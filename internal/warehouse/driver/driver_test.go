package driver

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDialect(t *testing.T) {
	tests := []struct {
		in      string
		want    Dialect
		wantErr bool
	}{
		{"sqlite", DialectSQLite, false},
		{"sqlite3", DialectSQLite, false},
		{"postgres", DialectPostgres, false},
		{"postgresql", DialectPostgres, false},
		{"pg", DialectPostgres, false},
		{"mysql", "", true},
		{"", "", true},
	}
	for _, tt := range tests {
		got, err := ParseDialect(tt.in)
		if tt.wantErr {
			assert.Error(t, err, "input %q", tt.in)
			continue
		}
		require.NoError(t, err, "input %q", tt.in)
		assert.Equal(t, tt.want, got)
	}
}

func TestPlaceholders(t *testing.T) {
	sq := NewSQLite()
	assert.Equal(t, "?", sq.Placeholder(1))
	assert.Equal(t, "?", sq.Placeholder(7))

	pg := NewPostgres()
	assert.Equal(t, "$1", pg.Placeholder(1))
	assert.Equal(t, "$7", pg.Placeholder(7))
}

func TestExtractVersion(t *testing.T) {
	assert.Equal(t, 1, extractVersion("warehouse_001.sql", "warehouse_"))
	assert.Equal(t, 12, extractVersion("warehouse_012.sql", "warehouse_"))
	assert.Equal(t, 0, extractVersion("warehouse_junk.sql", "warehouse_"))
}

func TestNew(t *testing.T) {
	d, err := New(DialectSQLite)
	require.NoError(t, err)
	assert.Equal(t, DialectSQLite, d.Dialect())

	d, err = New(DialectPostgres)
	require.NoError(t, err)
	assert.Equal(t, DialectPostgres, d.Dialect())

	_, err = New(Dialect("oracle"))
	assert.Error(t, err)
}
