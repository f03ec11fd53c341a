package ratfs

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCalcLevel(t *testing.T) {
	assert.Equal(t, 0, CalcLevel("/"))
	assert.Equal(t, 1, CalcLevel("/a"))
	assert.Equal(t, 3, CalcLevel("/a/b/c"))
	// Trailing slashes are a literal preserved quirk (spec.md section 9):
	// CalcLevel counts '/' characters, not path components.
	assert.Equal(t, 2, CalcLevel("/a/"))
}

func TestGetBaseName(t *testing.T) {
	assert.Equal(t, "c", GetBaseName("/a/b/c"))
	assert.Equal(t, "x", GetBaseName("/x"))
}
