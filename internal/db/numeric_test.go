package db

import (
	"testing"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNumeric(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		want    string
		wantErr bool
	}{
		{"plain", "250.00", "250.00", false},
		{"dollar sign", "$1,250.50", "1250.50", false},
		{"parenthesized negative", "($45.00)", "-45.00", false},
		{"whitespace", " 10 ", "10", false},
		{"empty", "", "", true},
		{"garbage", "N/A", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n, err := Numeric(tt.in)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.True(t, n.Valid)
			var want pgtype.Numeric
			require.NoError(t, want.Scan(tt.want))
			assert.Equal(t, want, n)
		})
	}
}

func TestNullNumeric(t *testing.T) {
	n, err := NullNumeric("  ")
	require.NoError(t, err)
	assert.False(t, n.Valid)

	n, err = NullNumeric("99.99")
	require.NoError(t, err)
	assert.True(t, n.Valid)

	_, err = NullNumeric("not a number")
	require.Error(t, err)
}
