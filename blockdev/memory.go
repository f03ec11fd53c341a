package blockdev

import (
	"io"

	"github.com/xaionaro-go/bytesextra"
)

// MemoryBlockDevice is a BlockDevice backed by an in-memory byte slice. It
// exists for tests: it lets ratfs be exercised against a deterministic,
// disposable "disk" without touching the file system, the same role
// testing.LoadDiskImage plays for the teacher's driver tests.
type MemoryBlockDevice struct {
	stream io.ReadWriteSeeker
	size   int64
	ioSize int
	opened bool
}

// NewMemoryBlockDevice creates a device of the given size backed by a zeroed
// buffer, with the given fixed driver I/O unit size.
func NewMemoryBlockDevice(size int64, ioSize int) *MemoryBlockDevice {
	return &MemoryBlockDevice{
		stream: bytesextra.NewReadWriteSeeker(make([]byte, size)),
		size:   size,
		ioSize: ioSize,
	}
}

func (d *MemoryBlockDevice) Open(path string) error {
	d.opened = true
	return nil
}

func (d *MemoryBlockDevice) DeviceSize() (int64, error) {
	return d.size, nil
}

func (d *MemoryBlockDevice) IOSize() (int, error) {
	return d.ioSize, nil
}

func (d *MemoryBlockDevice) Seek(offset int64) error {
	_, err := d.stream.Seek(offset, io.SeekStart)
	return err
}

func (d *MemoryBlockDevice) Read(buf []byte) error {
	_, err := io.ReadFull(d.stream, buf)
	return err
}

func (d *MemoryBlockDevice) Write(buf []byte) error {
	_, err := d.stream.Write(buf)
	return err
}

func (d *MemoryBlockDevice) Close() error {
	d.opened = false
	return nil
}
