package ratfs

import (
	"github.com/boljen/go-bitmap"
	"github.com/hour01/EXT2like-Naive-File-System/ratferr"
)

// bitmaps owns the two on-disk allocation bitmaps: one bit per inode, one
// bit per data block. Bit ordering is (byteIndex*8 + bitInByte), counted
// from the least-significant bit, which is exactly how github.com/boljen/go-bitmap
// represents a Bitmap, so no translation is needed at the boundary.
//
// Search order is always ascending byte, then ascending bit, so that
// allocation is deterministic: the smallest free index is always returned.
// This matches nfs_alloc_inode/nfs_alloc_data_blk in the original source,
// which scan byte-by-byte, bit-by-bit from the start of the map every time.
type bitmaps struct {
	inodeMap bitmap.Bitmap
	dataMap  bitmap.Bitmap
	maxIno   int
	dataBlks int
}

func newBitmaps(maxIno, dataBlks int) *bitmaps {
	return &bitmaps{
		inodeMap: bitmap.New(maxIno),
		dataMap:  bitmap.New(dataBlks),
		maxIno:   maxIno,
		dataBlks: dataBlks,
	}
}

// firstClearBit returns the smallest index in [0, limit) whose bit in m is
// clear, or -1 if every bit in that range is set.
func firstClearBit(m bitmap.Bitmap, limit int) int {
	for i := 0; i < limit; i++ {
		if !m.Get(i) {
			return i
		}
	}
	return -1
}

// allocInode finds and marks the first free inode number.
func (b *bitmaps) allocInode() (int, error) {
	ino := firstClearBit(b.inodeMap, b.maxIno)
	if ino < 0 {
		return 0, ratferr.ErrNoSpace.WithMessage("no free inode")
	}
	b.inodeMap.Set(ino, true)
	return ino, nil
}

// allocDataBlock finds and marks the first free data block number.
func (b *bitmaps) allocDataBlock() (int, error) {
	blk := firstClearBit(b.dataMap, b.dataBlks)
	if blk < 0 {
		return 0, ratferr.ErrNoSpace.WithMessage("no free data block")
	}
	b.dataMap.Set(blk, true)
	return blk, nil
}
