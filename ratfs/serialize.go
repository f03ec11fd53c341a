package ratfs

import (
	"bytes"
	"encoding/binary"
)

// Binary sizes of the fixed-width on-disk records. Computed once via
// binary.Size rather than hand counted, so layout.go stays the single
// source of truth for field order and widths.
var (
	superblockSize = mustBinarySize(onDiskSuperblock{})
	inodeSize      = mustBinarySize(onDiskInode{})
	direntSize     = mustBinarySize(onDiskDirent{})
)

func mustBinarySize(v any) int {
	n := binary.Size(v)
	if n < 0 {
		panic("ratfs: on-disk record contains a type with no fixed binary size")
	}
	return n
}

func decodeSuperblock(data []byte) onDiskSuperblock {
	var sb onDiskSuperblock
	_ = binary.Read(bytes.NewReader(data), binary.LittleEndian, &sb)
	return sb
}

func encodeInode(inode onDiskInode) []byte {
	buf := new(bytes.Buffer)
	buf.Grow(inodeSize)
	_ = binary.Write(buf, binary.LittleEndian, &inode)
	return buf.Bytes()
}

func decodeInode(data []byte) onDiskInode {
	var inode onDiskInode
	_ = binary.Read(bytes.NewReader(data), binary.LittleEndian, &inode)
	return inode
}

func encodeDirent(d onDiskDirent) []byte {
	buf := new(bytes.Buffer)
	buf.Grow(direntSize)
	_ = binary.Write(buf, binary.LittleEndian, &d)
	return buf.Bytes()
}

func decodeDirent(data []byte) onDiskDirent {
	var d onDiskDirent
	_ = binary.Read(bytes.NewReader(data), binary.LittleEndian, &d)
	return d
}

// nameBytes copies name into a fixed MaxNameLen array without a mandatory
// terminator, mirroring new_dentry's use of memcpy with strlen(name) in the
// original source: bytes past the name's length are left as whatever the
// buffer already held (callers always start from a zeroed array, so in
// practice that's zero, but this must not be relied on).
func nameBytes(name string) [MaxNameLen]byte {
	var out [MaxNameLen]byte
	copy(out[:], name)
	return out
}

// namesEqual compares a fixed-size on-disk name field against a query name
// using length-bounded byte equality, matching the original's
// memcmp(dentry->name, fname, strlen(fname)): only the query's length is
// compared, so a stored name that is a longer superstring of the query
// would incorrectly match. This quirk is preserved.
func namesEqual(stored [MaxNameLen]byte, query string) bool {
	if len(query) > MaxNameLen {
		return false
	}
	return bytes.Equal(stored[:len(query)], []byte(query))
}
