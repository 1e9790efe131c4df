package service

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCSVRows(t *testing.T) {
	rows, err := ParseCSVRows(strings.NewReader("\ufefffirst_name, email ,\nAda,ada@example.com,x\nAlan\n"))
	require.NoError(t, err)
	assert.Equal(t, []map[string]string{
		{"first_name": "Ada", "email": "ada@example.com"},
		{"first_name": "Alan", "email": ""},
	}, rows)
}

func TestParseCSVRows_Empty(t *testing.T) {
	rows, err := ParseCSVRows(strings.NewReader(""))
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestParseCSVRows_Malformed(t *testing.T) {
	_, err := ParseCSVRows(strings.NewReader("a,b\n\"unterminated,1\n"))
	assert.ErrorIs(t, err, ErrInvalidInput)
}
