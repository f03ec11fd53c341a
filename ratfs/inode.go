package ratfs

import (
	"bytes"

	"github.com/hour01/EXT2like-Naive-File-System/ratferr"
)

// Inode is the in-memory representation of a persistent file, directory, or
// symlink record: size, direct block pointers, and (for directories) the
// head of a lazily-populated child dentry chain.
type Inode struct {
	Ino          int
	Size         int
	DirCnt       int
	BlockPointer [InodeDirectBlocks]int
	TargetPath   string

	// SelfDentry is the dentry that owns this inode. It is used to recover
	// the inode's file type (ratfs has no separate type field on Inode
	// itself, matching the original's NFS_IS_DIR(inode) macro, which reads
	// inode->dentry->ftype rather than storing type redundantly).
	SelfDentry *Dentry

	// Children is the head of this inode's child dentry chain, built only
	// through AllocDentry: readInode adds a directory's on-disk entries when
	// it hydrates the directory, and callers add new entries afterwards. It
	// is nil for files and for empty directories.
	Children *Dentry
}

func (inode *Inode) IsDir() bool {
	return inode.SelfDentry != nil && inode.SelfDentry.Ftype == FtypeDir
}

func (inode *Inode) IsFile() bool {
	return inode.SelfDentry != nil && inode.SelfDentry.Ftype == FtypeFile
}

// SetSymlinkTarget records the path a symlink inode points to. It has no
// effect on block allocation: symlink content is stored in the inode record
// itself (TargetPath), not in a data block, matching the original's
// target_path field on nfs_inode/nfs_inode_d.
func (inode *Inode) SetSymlinkTarget(target string) {
	inode.TargetPath = target
}

func trimNulls(b []byte) string {
	if idx := bytes.IndexByte(b, 0); idx >= 0 {
		return string(b[:idx])
	}
	return string(b)
}

// AllocInode allocates the first free inode number and binds it to dentry.
// dentry's Ftype must already be set by the caller.
func (fs *FileSystem) AllocInode(dentry *Dentry) (*Inode, error) {
	ino, err := fs.bitmaps.allocInode()
	if err != nil {
		return nil, err
	}

	inode := &Inode{
		Ino:        ino,
		SelfDentry: dentry,
	}
	for i := range inode.BlockPointer {
		inode.BlockPointer[i] = NoBlock
	}

	dentry.Inode = inode
	dentry.Ino = ino
	return inode, nil
}

// allocDataBlock allocates the first free data block and records it in
// inode's direct pointer slot `slot`. Preserves the original's literal
// quirk of returning NoSpace (rather than, say, Invalid) for an
// out-of-range slot.
func (fs *FileSystem) allocDataBlock(inode *Inode, slot int) error {
	if slot < 0 || slot >= InodeDirectBlocks {
		return ratferr.ErrNoSpace.WithMessage("direct block slot out of range")
	}
	blk, err := fs.bitmaps.allocDataBlock()
	if err != nil {
		return err
	}
	inode.BlockPointer[slot] = blk
	return nil
}

// readInode loads the on-disk inode record numbered ino into a fresh
// in-memory Inode bound to dentry. If dentry.Ftype is FtypeDir, its on-disk
// directory entries are loaded as child dentries too, but their inodes are
// left unloaded (nil) until something such as Lookup reads them — lazy
// hydration stops one level deep.
func (fs *FileSystem) readInode(dentry *Dentry, ino int) (*Inode, error) {
	block := make([]byte, fs.ioBlock)
	if err := fs.adapter.ReadAt(fs.inodeOffset+int64(ino)*int64(fs.ioBlock), block); err != nil {
		return nil, ratferr.ErrIO.Wrap(err)
	}
	raw := decodeInode(block[:inodeSize])

	inode := &Inode{
		Ino:        ino,
		Size:       int(raw.Size),
		TargetPath: trimNulls(raw.TargetPath[:]),
		SelfDentry: dentry,
	}
	for i := 0; i < InodeDirectBlocks; i++ {
		inode.BlockPointer[i] = int(raw.BlockPointer[i])
	}

	dentry.Inode = inode
	dentry.Ino = ino

	if dentry.Ftype == FtypeDir {
		rawDirCnt := int(raw.DirCnt)
		direntBuf := make([]byte, direntSize)
		for i := 0; i < rawDirCnt; i++ {
			if _, err := fs.InodeRead(inode, direntBuf, direntSize, i*direntSize); err != nil {
				return nil, err
			}
			d := decodeDirent(direntBuf)
			child := newDentry(trimNulls(d.FName[:]), FileType(d.Ftype))
			child.Parent = dentry
			child.Ino = int(d.Ino)
			fs.AllocDentry(inode, child)
		}
	}

	return inode, nil
}

// SyncInode recursively flushes inode and all of its hydrated descendants
// back to disk. For a directory, every child's directory-entry record is
// (re)written into the directory's own data first, then any hydrated child
// inode is synced in turn, and finally this inode's own record is written.
// For a file, only the inode record is written: file data was written
// through to the driver on every InodeWrite already.
func (fs *FileSystem) SyncInode(inode *Inode) error {
	if inode.IsDir() {
		offset := 0
		for cursor := inode.Children; cursor != nil; cursor = cursor.NextSibling {
			d := onDiskDirent{
				FName: nameBytes(cursor.Name),
				Ftype: int32(cursor.Ftype),
				Ino:   int32(cursor.Ino),
				Valid: 1,
			}
			if err := fs.InodeWrite(inode, encodeDirent(d), direntSize, offset); err != nil {
				return ratferr.ErrIO.Wrap(err)
			}
			if cursor.Inode != nil {
				if err := fs.SyncInode(cursor.Inode); err != nil {
					return err
				}
			}
			offset += direntSize
		}
	}

	raw := onDiskInode{
		Ino:    uint32(inode.Ino),
		Size:   int32(inode.Size),
		Ftype:  int32(inode.SelfDentry.Ftype),
		DirCnt: int32(inode.DirCnt),
	}
	for i := 0; i < InodeDirectBlocks; i++ {
		raw.BlockPointer[i] = int32(inode.BlockPointer[i])
	}
	raw.TargetPath = nameBytes(inode.TargetPath)

	if err := fs.adapter.WriteAt(fs.inodeOffset+int64(inode.Ino)*int64(fs.ioBlock), encodeInode(raw)); err != nil {
		return ratferr.ErrIO.Wrap(err)
	}
	return nil
}

// InodeWrite writes size bytes from buf into inode's data at fileOffset,
// allocating direct blocks on demand. fileOffset must not exceed the
// inode's current size, and the write must not extend past
// InodeDirectBlocks*IOBlock; either violation fails Unsupported. A failing
// write may leave the inode in a partially-updated state (a newly allocated
// block's bitmap bit stays set even if a later chunk in the same call
// fails): the original never rolls back, and this is preserved.
func (fs *FileSystem) InodeWrite(inode *Inode, buf []byte, size int, fileOffset int) error {
	if fileOffset > inode.Size || fileOffset+size > InodeDirectBlocks*fs.ioBlock {
		return ratferr.ErrUnsupported.WithMessage("write out of bounds")
	}

	slot := fileOffset / fs.ioBlock
	offInBlock := fileOffset % fs.ioBlock
	srcOffset := 0

	for remaining := size; remaining > 0; {
		if slot >= InodeDirectBlocks {
			return ratferr.ErrUnsupported.WithMessage("write out of bounds")
		}
		if inode.BlockPointer[slot] == NoBlock {
			if err := fs.allocDataBlock(inode, slot); err != nil {
				return err
			}
		}

		chunk := fs.ioBlock - offInBlock
		if chunk > remaining {
			chunk = remaining
		}

		absOffset := fs.dataOffset + int64(inode.BlockPointer[slot])*int64(fs.ioBlock) + int64(offInBlock)
		if err := fs.adapter.WriteAt(absOffset, buf[srcOffset:srcOffset+chunk]); err != nil {
			return ratferr.ErrIO.Wrap(err)
		}

		slot++
		offInBlock = 0
		srcOffset += chunk
		remaining -= chunk
	}

	if fileOffset+size > inode.Size {
		inode.Size = fileOffset + size
	}
	return nil
}

// InodeRead reads up to size bytes from inode's data at fileOffset into
// buf, returning the number of bytes actually read. Per spec.md section
// 4.3.2, size is clamped against inode.Size unconditionally, not against
// inode.Size-fileOffset: a read starting mid-file can therefore return more
// bytes than remain between fileOffset and the end of the file. This is a
// verbatim-preserved quirk of the original source, not a bug introduced
// here.
func (fs *FileSystem) InodeRead(inode *Inode, buf []byte, size int, fileOffset int) (int, error) {
	if fileOffset > inode.Size || (fileOffset == inode.Size && size > 0) {
		return 0, ratferr.ErrUnsupported.WithMessage("read out of bounds")
	}
	if size == 0 {
		return 0, nil
	}

	slot := fileOffset / fs.ioBlock
	offInBlock := fileOffset % fs.ioBlock
	if slot >= InodeDirectBlocks || inode.BlockPointer[slot] == NoBlock {
		return 0, ratferr.ErrUnsupported.WithMessage("read of unallocated block")
	}

	if size > inode.Size {
		size = inode.Size
	}

	dstOffset := 0
	for remaining := size; remaining > 0; {
		if slot >= InodeDirectBlocks || inode.BlockPointer[slot] == NoBlock {
			return dstOffset, ratferr.ErrUnsupported.WithMessage("read of unallocated block")
		}

		chunk := fs.ioBlock - offInBlock
		if chunk > remaining {
			chunk = remaining
		}

		absOffset := fs.dataOffset + int64(inode.BlockPointer[slot])*int64(fs.ioBlock) + int64(offInBlock)
		if err := fs.adapter.ReadAt(absOffset, buf[dstOffset:dstOffset+chunk]); err != nil {
			return dstOffset, ratferr.ErrIO.Wrap(err)
		}

		slot++
		offInBlock = 0
		dstOffset += chunk
		remaining -= chunk
	}

	return size, nil
}
