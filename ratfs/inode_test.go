package ratfs

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestInodeRoundTrip exercises the universal invariant from spec.md section
// 8: sync_inode followed by read_inode reproduces every field byte-for-byte.
func TestInodeRoundTrip(t *testing.T) {
	device := newTestDevice(t, 4*1024*1024)
	fs := mustMount(t, device)
	defer fs.Unmount()

	root, _, _ := fs.Lookup("/")
	linkDentry := newDentry("link", FtypeSymlink)
	linkDentry.Parent = root
	linkInode, err := fs.AllocInode(linkDentry)
	require.NoError(t, err)
	fs.AllocDentry(root.Inode, linkDentry)

	linkInode.SetSymlinkTarget("/a/b/c")
	linkInode.BlockPointer[0] = 5
	linkInode.Size = 42

	require.NoError(t, fs.SyncInode(linkInode))

	reread := newDentry("link", FtypeSymlink)
	got, err := fs.readInode(reread, linkInode.Ino)
	require.NoError(t, err)

	assert.Equal(t, linkInode.Ino, got.Ino)
	assert.Equal(t, linkInode.Size, got.Size)
	assert.Equal(t, linkInode.DirCnt, got.DirCnt)
	assert.Equal(t, linkInode.BlockPointer, got.BlockPointer)
	assert.Equal(t, linkInode.TargetPath, got.TargetPath)
}

// TestFilePayloadRoundTrip exercises the universal invariant from spec.md
// section 8 for arbitrary payloads up to the maximum file size.
func TestFilePayloadRoundTrip(t *testing.T) {
	device := newTestDevice(t, 4*1024*1024)
	fs := mustMount(t, device)
	defer fs.Unmount()

	root, _, _ := fs.Lookup("/")
	dentry := newDentry("payload", FtypeFile)
	dentry.Parent = root
	inode, err := fs.AllocInode(dentry)
	require.NoError(t, err)
	fs.AllocDentry(root.Inode, dentry)

	buf := make([]byte, InodeDirectBlocks*fs.ioBlock)
	for i := range buf {
		buf[i] = byte(i % 256)
	}

	require.NoError(t, fs.InodeWrite(inode, buf, len(buf), 0))

	out := make([]byte, len(buf))
	n, err := fs.InodeRead(inode, out, len(buf), 0)
	require.NoError(t, err)
	assert.Equal(t, buf, out[:n])
}
