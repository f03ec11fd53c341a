package ratfs

import (
	"testing"

	"github.com/hour01/EXT2like-Naive-File-System/ratferr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestBitmapAllocationIsMonotonicAndBounded exercises the universal
// invariant from spec.md section 8: without frees, allocated indices
// strictly increase and stay within range.
func TestBitmapAllocationIsMonotonicAndBounded(t *testing.T) {
	b := newBitmaps(8, 8)

	lastIno := -1
	for i := 0; i < 8; i++ {
		ino, err := b.allocInode()
		require.NoError(t, err)
		assert.Greater(t, ino, lastIno)
		assert.GreaterOrEqual(t, ino, 0)
		assert.Less(t, ino, 8)
		lastIno = ino
	}
	_, err := b.allocInode()
	assert.ErrorIs(t, err, ratferr.ErrNoSpace)

	lastBlk := -1
	for i := 0; i < 8; i++ {
		blk, err := b.allocDataBlock()
		require.NoError(t, err)
		assert.Greater(t, blk, lastBlk)
		lastBlk = blk
	}
	_, err = b.allocDataBlock()
	require.Error(t, err)
}
