package blockdev

import (
	"github.com/hour01/EXT2like-Naive-File-System/ratferr"
)

// Adapter exposes byte-addressable ReadAt/WriteAt over a BlockDevice whose
// raw Read/Write calls must always transfer exactly one IOSize()-sized unit
// at an IOSize()-aligned offset.
//
// This is a direct port of nfs_driver_read/nfs_driver_write from the
// original C source: round the offset down to the nearest unit boundary,
// round the transfer size up (accounting for the bias introduced by
// rounding down), and for writes, read-modify-write the aligned window so
// bytes outside the requested range are preserved.
type Adapter struct {
	Device BlockDevice
	ioSize int
}

// NewAdapter wraps device, querying its I/O unit size once up front.
func NewAdapter(device BlockDevice) (*Adapter, error) {
	ioSize, err := device.IOSize()
	if err != nil {
		return nil, ratferr.ErrIO.Wrap(err)
	}
	if ioSize <= 0 {
		return nil, ratferr.ErrIO.WithMessage("driver reports non-positive I/O size")
	}
	return &Adapter{Device: device, ioSize: ioSize}, nil
}

// IOSize returns the underlying driver's fixed I/O unit size.
func (a *Adapter) IOSize() int {
	return a.ioSize
}

func roundDown(value, round int64) int64 {
	if value%round == 0 {
		return value
	}
	return (value / round) * round
}

func roundUp(value, round int64) int64 {
	if value%round == 0 {
		return value
	}
	return (value/round + 1) * round
}

// readAligned reads an IOSize()-aligned, IOSize()-multiple window starting
// at alignedOffset, one driver unit at a time after a single seek.
func (a *Adapter) readAligned(alignedOffset int64, size int64) ([]byte, error) {
	scratch := make([]byte, size)

	if err := a.Device.Seek(alignedOffset); err != nil {
		return nil, ratferr.ErrIO.Wrap(err)
	}

	cursor := int64(0)
	unit := int64(a.ioSize)
	for remaining := size; remaining > 0; remaining -= unit {
		if err := a.Device.Read(scratch[cursor : cursor+unit]); err != nil {
			return nil, ratferr.ErrIO.Wrap(err)
		}
		cursor += unit
	}
	return scratch, nil
}

// ReadAt fills buf from offset, which need not be aligned to the driver's
// I/O unit.
func (a *Adapter) ReadAt(offset int64, buf []byte) error {
	unit := int64(a.ioSize)
	alignedOffset := roundDown(offset, unit)
	bias := offset - alignedOffset
	alignedSize := roundUp(int64(len(buf))+bias, unit)

	scratch, err := a.readAligned(alignedOffset, alignedSize)
	if err != nil {
		return err
	}
	copy(buf, scratch[bias:bias+int64(len(buf))])
	return nil
}

// WriteAt writes buf at offset, which need not be aligned to the driver's
// I/O unit. Any bytes in the affected aligned window that fall outside
// [offset, offset+len(buf)) are preserved via a read-modify-write.
func (a *Adapter) WriteAt(offset int64, buf []byte) error {
	unit := int64(a.ioSize)
	alignedOffset := roundDown(offset, unit)
	bias := offset - alignedOffset
	alignedSize := roundUp(int64(len(buf))+bias, unit)

	scratch, err := a.readAligned(alignedOffset, alignedSize)
	if err != nil {
		return err
	}
	copy(scratch[bias:bias+int64(len(buf))], buf)

	if err := a.Device.Seek(alignedOffset); err != nil {
		return ratferr.ErrIO.Wrap(err)
	}

	cursor := int64(0)
	for remaining := alignedSize; remaining > 0; remaining -= unit {
		if err := a.Device.Write(scratch[cursor : cursor+unit]); err != nil {
			return ratferr.ErrIO.Wrap(err)
		}
		cursor += unit
	}
	return nil
}
