package sqlstore

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRebind(t *testing.T) {
	pg := &Store{dialect: Dollar}
	lite := &Store{dialect: Question}

	query := `SELECT 1 FROM t WHERE a = ? AND b IN (?, ?)`
	assert.Equal(t, `SELECT 1 FROM t WHERE a = $1 AND b IN ($2, $3)`, pg.q(query))
	assert.Equal(t, query, lite.q(query))
}

func TestPlaceholders(t *testing.T) {
	assert.Equal(t, "", placeholders(0))
	assert.Equal(t, "?", placeholders(1))
	assert.Equal(t, "?, ?, ?", placeholders(3))
}

func TestNullable(t *testing.T) {
	assert.Nil(t, nullable(""))
	assert.Equal(t, "g1", nullable("g1"))
}
