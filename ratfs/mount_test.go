package ratfs

import (
	"testing"

	"github.com/hour01/EXT2like-Naive-File-System/blockdev"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testDriverIOSize = 512

func newTestDevice(t *testing.T, sizeBytes int64) blockdev.BlockDevice {
	t.Helper()
	device := blockdev.NewMemoryBlockDevice(sizeBytes, testDriverIOSize)
	require.NoError(t, device.Open("test"))
	return device
}

func mustMount(t *testing.T, device blockdev.BlockDevice) *FileSystem {
	t.Helper()
	fs, err := Mount(device, MountOptions{Device: "test"})
	require.NoError(t, err)
	return fs
}

// TestFormatAndRemount exercises scenario 1 of spec.md section 8: a fresh
// 4 MiB device with a 512-byte driver I/O unit formats to the exact layout
// the original source derives, and remounting doesn't reformat it.
func TestFormatAndRemount(t *testing.T) {
	device := newTestDevice(t, 4*1024*1024)
	fs := mustMount(t, device)

	assert.Equal(t, 1024, fs.ioBlock)
	assert.Equal(t, MaxInodes, fs.maxIno)
	assert.Equal(t, 1, fs.mapInodeBlks)
	assert.Equal(t, 1, fs.mapDataBlks)
	assert.Equal(t, 3069, fs.dataBlks)

	root, found, isRoot := fs.Lookup("/")
	require.True(t, found)
	require.True(t, isRoot)
	require.NotNil(t, root.Inode)
	assert.Equal(t, RootIno, root.Inode.Ino)
	assert.Equal(t, 0, root.Inode.Size)
	assert.Equal(t, 0, root.Inode.DirCnt)
	assert.True(t, root.Inode.IsDir())

	require.NoError(t, fs.Unmount())

	fs2 := mustMount(t, newDeviceFromSameBacking(t, device))
	root2, found2, isRoot2 := fs2.Lookup("/")
	require.True(t, found2)
	require.True(t, isRoot2)
	assert.Equal(t, 0, root2.Inode.DirCnt)
	require.NoError(t, fs2.Unmount())
}

// TestCreateFileUnderRoot exercises scenario 2 of spec.md section 8.
func TestCreateFileUnderRoot(t *testing.T) {
	device := newTestDevice(t, 4*1024*1024)
	fs := mustMount(t, device)

	root, _, _ := fs.Lookup("/")
	helloDentry := newDentry("hello", FtypeFile)
	helloDentry.Parent = root
	_, err := fs.AllocInode(helloDentry)
	require.NoError(t, err)
	fs.AllocDentry(root.Inode, helloDentry)

	require.NoError(t, fs.Unmount())

	fs2 := mustMount(t, newDeviceFromSameBacking(t, device))
	dentry, found, isRoot := fs2.Lookup("/hello")
	require.True(t, found)
	assert.False(t, isRoot)
	require.NotNil(t, dentry.Inode)
	assert.True(t, dentry.Inode.IsFile())
	assert.Equal(t, 0, dentry.Inode.Size)
	require.NoError(t, fs2.Unmount())
}

// newDeviceFromSameBacking reopens device for a remount. The in-memory device
// survives an Unmount's Close() call: MemoryBlockDevice.Close doesn't
// release its backing buffer, only clears the opened flag, so reopening the
// same *MemoryBlockDevice value is enough to simulate a remount without a
// real file on disk.
func newDeviceFromSameBacking(t *testing.T, device blockdev.BlockDevice) blockdev.BlockDevice {
	t.Helper()
	require.NoError(t, device.Open("test"))
	return device
}

// TestWriteAcrossBlockBoundary exercises scenario 3 of spec.md section 8.
func TestWriteAcrossBlockBoundary(t *testing.T) {
	device := newTestDevice(t, 4*1024*1024)
	fs := mustMount(t, device)
	defer fs.Unmount()

	root, _, _ := fs.Lookup("/")
	xDentry := newDentry("x", FtypeFile)
	xDentry.Parent = root
	xInode, err := fs.AllocInode(xDentry)
	require.NoError(t, err)
	fs.AllocDentry(root.Inode, xDentry)

	buf := make([]byte, 1500)
	for i := range buf {
		buf[i] = 0xAB
	}
	require.NoError(t, fs.InodeWrite(xInode, buf, len(buf), 0))
	assert.Equal(t, 1500, xInode.Size)
	assert.NotEqual(t, NoBlock, xInode.BlockPointer[0])
	assert.NotEqual(t, NoBlock, xInode.BlockPointer[1])

	out := make([]byte, 1500)
	n, err := fs.InodeRead(xInode, out, 1500, 0)
	require.NoError(t, err)
	assert.Equal(t, 1500, n)
	for _, b := range out {
		assert.Equal(t, byte(0xAB), b)
	}
}

// TestOverfill exercises scenario 4 of spec.md section 8.
func TestOverfill(t *testing.T) {
	device := newTestDevice(t, 4*1024*1024)
	fs := mustMount(t, device)
	defer fs.Unmount()

	root, _, _ := fs.Lookup("/")
	bigDentry := newDentry("big", FtypeFile)
	bigDentry.Parent = root
	bigInode, err := fs.AllocInode(bigDentry)
	require.NoError(t, err)
	fs.AllocDentry(root.Inode, bigDentry)

	full := make([]byte, InodeDirectBlocks*fs.ioBlock)
	require.NoError(t, fs.InodeWrite(bigInode, full, len(full), 0))
	for _, ptr := range bigInode.BlockPointer {
		assert.NotEqual(t, NoBlock, ptr)
	}

	err = fs.InodeWrite(bigInode, []byte{0x01}, 1, len(full))
	require.Error(t, err)
}

// TestDirectoryPersistence exercises scenario 5 of spec.md section 8.
func TestDirectoryPersistence(t *testing.T) {
	device := newTestDevice(t, 4*1024*1024)
	fs := mustMount(t, device)

	root, _, _ := fs.Lookup("/")
	aDentry := newDentry("a", FtypeDir)
	aDentry.Parent = root
	aInode, err := fs.AllocInode(aDentry)
	require.NoError(t, err)
	fs.AllocDentry(root.Inode, aDentry)

	bDentry := newDentry("b", FtypeFile)
	bDentry.Parent = aDentry
	bInode, err := fs.AllocInode(bDentry)
	require.NoError(t, err)
	fs.AllocDentry(aInode, bDentry)

	payload := []byte("0123456789")
	require.NoError(t, fs.InodeWrite(bInode, payload, len(payload), 0))

	require.NoError(t, fs.Unmount())

	fs2 := mustMount(t, newDeviceFromSameBacking(t, device))
	dentry, found, _ := fs2.Lookup("/a/b")
	require.True(t, found)
	require.NotNil(t, dentry.Inode)

	out := make([]byte, len(payload))
	n, err := fs2.InodeRead(dentry.Inode, out, len(payload), 0)
	require.NoError(t, err)
	assert.Equal(t, payload, out[:n])
	require.NoError(t, fs2.Unmount())
}

// TestPathMiss exercises scenario 6 of spec.md section 8.
func TestPathMiss(t *testing.T) {
	device := newTestDevice(t, 4*1024*1024)
	fs := mustMount(t, device)
	defer fs.Unmount()

	root, _, _ := fs.Lookup("/")
	aDentry := newDentry("a", FtypeDir)
	aDentry.Parent = root
	aInode, err := fs.AllocInode(aDentry)
	require.NoError(t, err)
	fs.AllocDentry(root.Inode, aDentry)

	dentry, found, isRoot := fs.Lookup("/a/c")
	assert.False(t, found)
	assert.False(t, isRoot)
	assert.Equal(t, aDentry, dentry)
	_ = aInode
}
