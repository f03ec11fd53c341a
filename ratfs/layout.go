// Package ratfs implements the core of a small educational block-based
// filesystem: on-disk layout, mount/format/unmount, inode and dentry
// management, path resolution, and block-granular file I/O, all mounted
// over a blockdev.BlockDevice.
//
// The on-disk magic number 0x52415453 reads as the ASCII bytes "RATS",
// which gives the package its name.
package ratfs

// Fixed numeric parameters. These must match exactly across any two builds
// of ratfs that are meant to read each other's images.
const (
	// MagicNumber identifies a formatted ratfs superblock.
	MagicNumber = 0x52415453

	// MaxNameLen is the size, in bytes, of a directory entry's name field.
	// Names are NUL-padded; comparisons are length-bounded byte comparisons,
	// not NUL-terminated string comparisons.
	MaxNameLen = 128

	// MaxInodes is the total number of inodes a ratfs volume can hold.
	MaxInodes = 1024

	// InodeDirectBlocks is the number of direct block pointers every inode
	// has. There are no indirect blocks, so this also bounds the maximum
	// file size to InodeDirectBlocks * IOBlock.
	InodeDirectBlocks = 6

	// NoBlock is the sentinel stored in a direct block pointer slot that has
	// not been allocated yet.
	NoBlock = -1

	// RootIno is the inode number of the root directory. It is always the
	// first inode allocated, by a fresh Format.
	RootIno = 0
)

// FileType identifies what kind of object an inode or directory entry
// represents.
type FileType int32

const (
	FtypeFile FileType = iota
	FtypeDir
	FtypeSymlink
)

func (t FileType) String() string {
	switch t {
	case FtypeFile:
		return "file"
	case FtypeDir:
		return "dir"
	case FtypeSymlink:
		return "symlink"
	default:
		return "unknown"
	}
}

// onDiskSuperblock is the persisted form of the superblock, laid out
// little-endian with no padding. It always fits in the first IOBlock of the
// volume.
type onDiskSuperblock struct {
	Magic uint32
	// SzUsage is carried through from the original source's sz_usage field
	// (always written as 0 and never incremented there either); ratfs has no
	// quota accounting, per spec.md's Non-goals, so this stays zero too.
	SzUsage        int32
	MaxIno         int32
	MapInodeBlks   int32
	MapInodeOffset int32
	MapDataBlks    int32
	MapDataOffset  int32
	DataBlks       int32
}

// onDiskInode is the persisted form of a single inode record. Every inode
// occupies exactly one IOBlock in the inode table, regardless of how much
// of that block the record actually uses.
type onDiskInode struct {
	Ino          uint32
	Size         int32
	Ftype        int32
	DirCnt       int32
	BlockPointer [InodeDirectBlocks]int32
	TargetPath   [MaxNameLen]byte
}

// onDiskDirentSize is sizeof(onDiskDirent): MaxNameLen bytes of name plus
// three int32 fields (ftype, ino, valid).
const onDiskDirentSize = MaxNameLen + 4 + 4 + 4

// onDiskDirent is the persisted form of one directory entry, packed
// contiguously (dir_cnt of them) starting at file offset 0 of a directory
// inode's data.
type onDiskDirent struct {
	FName [MaxNameLen]byte
	Ftype int32
	Ino   int32
	Valid int32
}
