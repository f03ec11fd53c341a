package ratfs

import (
	"encoding/binary"

	"github.com/hashicorp/go-multierror"
	"github.com/noxer/bytewriter"

	"github.com/hour01/EXT2like-Naive-File-System/blockdev"
	"github.com/hour01/EXT2like-Naive-File-System/ratferr"
)

// FileSystem is a mounted ratfs volume. Unlike the original source's single
// process-wide `struct nfs_super`, every mount gets its own FileSystem value
// with no shared global state, so more than one volume can be mounted in the
// same process at once (spec.md section 9).
type FileSystem struct {
	adapter *blockdev.Adapter
	ioBlock int

	maxIno         int
	mapInodeBlks   int
	mapInodeOffset int
	mapDataBlks    int
	mapDataOffset  int
	dataBlks       int

	inodeOffset int64
	dataOffset  int64

	bitmaps *bitmaps
	root    *Dentry
	mounted bool
}

// MountOptions configures Mount. Device is informational only (the
// blockdev.BlockDevice passed to Mount is already open): Mount does not read
// or store it, it only gives callers such as a companion CLI a place to name
// the device path.
type MountOptions struct {
	Device string
}

// layoutSizes are the region sizes and offsets derived from ioBlock and the
// fixed parameters in layout.go. Mount computes them from the device's size
// and IOSize; format lays out a fresh volume with exactly these values, while
// an existing volume's region sizes and offsets are taken from its persisted
// superblock instead.
//
// The region order and sizing formula are ported directly from nfs_mount's
// is_init branch in the original source: one block for the superblock, then
// the inode bitmap, then the (fixed-size, single-block) data bitmap, then
// the inode table, then everything left over is data blocks.
type layoutSizes struct {
	ioBlock        int
	superBlks      int
	mapInodeBlks   int
	mapInodeOffset int
	mapDataBlks    int
	mapDataOffset  int
	inodeOffset    int64
	dataBlks       int
	dataOffset     int64
}

func computeLayout(adapter *blockdev.Adapter, deviceSize int64) layoutSizes {
	ioBlock := 2 * adapter.IOSize()

	blkNum := int(deviceSize / int64(ioBlock))
	superBlks := roundUpDiv(superblockSize, ioBlock)
	mapInodeBlks := roundUpDiv(roundUpDiv(MaxInodes, 8), ioBlock)
	mapDataBlks := 1

	mapInodeOffset := superBlks * ioBlock
	mapDataOffset := mapInodeOffset + mapInodeBlks*ioBlock
	inodeOffset := int64(mapDataOffset + mapDataBlks*ioBlock)
	dataOffset := inodeOffset + int64(MaxInodes*ioBlock)

	dataBlks := blkNum - superBlks - mapInodeBlks - MaxInodes - mapDataBlks
	if dataBlks < 0 {
		dataBlks = 0
	}

	return layoutSizes{
		ioBlock:        ioBlock,
		superBlks:      superBlks,
		mapInodeBlks:   mapInodeBlks,
		mapInodeOffset: mapInodeOffset,
		mapDataBlks:    mapDataBlks,
		mapDataOffset:  mapDataOffset,
		inodeOffset:    inodeOffset,
		dataBlks:       dataBlks,
		dataOffset:     dataOffset,
	}
}

func roundUpDiv(n, d int) int {
	if d <= 0 {
		return 0
	}
	return (n + d - 1) / d
}

// Mount reads the superblock of device, which the caller has already
// opened, and brings up a FileSystem. If
// the superblock's magic number doesn't match MagicNumber, the device is
// formatted fresh first (spec.md section 4.7): this mirrors nfs_mount's
// format-on-missing-magic behavior, there is no separate "mkfs" step the
// caller must remember to run.
func Mount(device blockdev.BlockDevice, options MountOptions) (fs *FileSystem, err error) {
	adapter, err := blockdev.NewAdapter(device)
	if err != nil {
		return nil, err
	}

	deviceSize, err := device.DeviceSize()
	if err != nil {
		return nil, ratferr.ErrIO.Wrap(err)
	}

	layout := computeLayout(adapter, deviceSize)

	sbBlock := make([]byte, layout.ioBlock)
	if err := adapter.ReadAt(0, sbBlock); err != nil {
		return nil, ratferr.ErrIO.Wrap(err)
	}
	sb := decodeSuperblock(sbBlock[:superblockSize])

	fs = &FileSystem{
		adapter:        adapter,
		ioBlock:        layout.ioBlock,
		maxIno:         MaxInodes,
		mapInodeBlks:   layout.mapInodeBlks,
		mapInodeOffset: layout.mapInodeOffset,
		mapDataBlks:    layout.mapDataBlks,
		mapDataOffset:  layout.mapDataOffset,
		dataBlks:       layout.dataBlks,
		inodeOffset:    layout.inodeOffset,
		dataOffset:     layout.dataOffset,
	}

	if sb.Magic != MagicNumber {
		if err := fs.format(layout); err != nil {
			return nil, err
		}
		return fs, nil
	}

	// An existing volume's layout is authoritative from its own persisted
	// superblock, not from whatever computeLayout derives fresh: this
	// matches nfs_mount, which only computes layout parameters in the
	// is_init branch and otherwise trusts the on-disk record.
	fs.maxIno = int(sb.MaxIno)
	fs.mapInodeBlks = int(sb.MapInodeBlks)
	fs.mapInodeOffset = int(sb.MapInodeOffset)
	fs.mapDataBlks = int(sb.MapDataBlks)
	fs.mapDataOffset = int(sb.MapDataOffset)
	fs.dataBlks = int(sb.DataBlks)
	fs.inodeOffset = int64(fs.mapDataOffset + fs.mapDataBlks*fs.ioBlock)
	fs.dataOffset = fs.inodeOffset + int64(fs.maxIno*fs.ioBlock)
	fs.bitmaps = newBitmaps(fs.maxIno, fs.dataBlks)

	if err := fs.loadBitmaps(); err != nil {
		return nil, err
	}

	fs.root = newDentry("/", FtypeDir)
	if _, err := fs.readInode(fs.root, RootIno); err != nil {
		return nil, err
	}

	fs.mounted = true
	return fs, nil
}

// format validates the computed layout and writes a fresh, empty volume:
// zeroed bitmaps, a superblock, and a single root directory inode with
// dir_cnt == 0. Parameter validation is accumulated with go-multierror so a
// caller sees every problem with an undersized device at once rather than
// one at a time.
func (fs *FileSystem) format(layout layoutSizes) error {
	var result *multierror.Error
	if layout.dataBlks <= 0 {
		result = multierror.Append(result, ratferr.ErrNoSpace.WithMessage("device too small for any data blocks"))
	}
	if layout.mapInodeBlks <= 0 || layout.mapDataBlks <= 0 {
		result = multierror.Append(result, ratferr.ErrInvalid.WithMessage("device too small to hold allocation bitmaps"))
	}
	if result.ErrorOrNil() != nil {
		return result
	}

	fs.maxIno = MaxInodes
	fs.dataBlks = layout.dataBlks
	fs.bitmaps = newBitmaps(fs.maxIno, fs.dataBlks)

	zeroInode := make([]byte, fs.ioBlock)
	for i := 0; i < MaxInodes; i++ {
		if err := fs.adapter.WriteAt(fs.inodeOffset+int64(i)*int64(fs.ioBlock), zeroInode); err != nil {
			return ratferr.ErrIO.Wrap(err)
		}
	}

	fs.root = newDentry("/", FtypeDir)
	rootInode, err := fs.AllocInode(fs.root)
	if err != nil {
		return err
	}
	rootInode.Size = 0
	rootInode.DirCnt = 0

	if err := fs.writeSuperblock(); err != nil {
		return err
	}
	if err := fs.SyncInode(rootInode); err != nil {
		return err
	}
	if err := fs.storeBitmaps(); err != nil {
		return err
	}

	fs.mounted = true
	return nil
}

func (fs *FileSystem) writeSuperblock() error {
	sb := onDiskSuperblock{
		Magic:          MagicNumber,
		MaxIno:         int32(fs.maxIno),
		MapInodeBlks:   int32(fs.mapInodeBlks),
		MapInodeOffset: int32(fs.mapInodeOffset),
		MapDataBlks:    int32(fs.mapDataBlks),
		MapDataOffset:  int32(fs.mapDataOffset),
		DataBlks:       int32(fs.dataBlks),
	}
	// The superblock occupies one whole IOBlock on disk even though the
	// struct itself is smaller; bytewriter.New bounds writes to the
	// pre-sized buffer the same way format.go's boot-block builder does,
	// leaving the remainder of the block zeroed.
	buf := make([]byte, fs.ioBlock)
	writer := bytewriter.New(buf)
	if err := binary.Write(writer, binary.LittleEndian, &sb); err != nil {
		return ratferr.ErrIO.Wrap(err)
	}
	if err := fs.adapter.WriteAt(0, buf); err != nil {
		return ratferr.ErrIO.Wrap(err)
	}
	return nil
}

// loadBitmaps reads the persisted inode and data bitmaps back into memory,
// mirroring nfs_mount's two bitmap reads in the original source.
func (fs *FileSystem) loadBitmaps() error {
	inodeMapBytes := make([]byte, fs.mapInodeBlks*fs.ioBlock)
	if err := fs.adapter.ReadAt(int64(fs.mapInodeOffset), inodeMapBytes); err != nil {
		return ratferr.ErrIO.Wrap(err)
	}
	dataMapBytes := make([]byte, fs.mapDataBlks*fs.ioBlock)
	if err := fs.adapter.ReadAt(int64(fs.mapDataOffset), dataMapBytes); err != nil {
		return ratferr.ErrIO.Wrap(err)
	}

	copy(fs.bitmaps.inodeMap, inodeMapBytes)
	copy(fs.bitmaps.dataMap, dataMapBytes)
	return nil
}

// storeBitmaps writes the in-memory inode and data bitmaps back to their
// on-disk regions, mirroring nfs_umount's two bitmap writes in the original
// source.
func (fs *FileSystem) storeBitmaps() error {
	inodeMapBytes := make([]byte, fs.mapInodeBlks*fs.ioBlock)
	copy(inodeMapBytes, fs.bitmaps.inodeMap)
	if err := fs.adapter.WriteAt(int64(fs.mapInodeOffset), inodeMapBytes); err != nil {
		return ratferr.ErrIO.Wrap(err)
	}

	dataMapBytes := make([]byte, fs.mapDataBlks*fs.ioBlock)
	copy(dataMapBytes, fs.bitmaps.dataMap)
	if err := fs.adapter.WriteAt(int64(fs.mapDataOffset), dataMapBytes); err != nil {
		return ratferr.ErrIO.Wrap(err)
	}
	return nil
}

// Unmount flushes the whole dentry/inode tree back to disk, starting from
// the root, then releases the underlying device handle. Calling it on an
// already-unmounted (or never-mounted) FileSystem is a no-op, matching
// nfs_umount's own not-mounted check in the original source.
func (fs *FileSystem) Unmount() error {
	if !fs.mounted {
		return nil
	}

	syncErr := fs.SyncInode(fs.root)

	var sbErr error
	if syncErr == nil {
		sbErr = fs.writeSuperblock()
	}

	var bitmapErr error
	if syncErr == nil && sbErr == nil {
		bitmapErr = fs.storeBitmaps()
	}

	closeErr := fs.adapter.Device.Close()

	fs.mounted = false

	switch {
	case syncErr != nil:
		return syncErr
	case sbErr != nil:
		return sbErr
	case bitmapErr != nil:
		return bitmapErr
	case closeErr != nil:
		return ratferr.ErrIO.Wrap(closeErr)
	}
	return nil
}
