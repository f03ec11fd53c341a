package blockdev

import (
	"os"

	"github.com/hour01/EXT2like-Naive-File-System/ratferr"
)

// FileBlockDevice is a BlockDevice backed by a regular file, for the
// ratfsctl command line tool: ratfs is usually exercised against an
// in-memory device in tests, but a real image file needs a real driver.
type FileBlockDevice struct {
	file   *os.File
	size   int64
	ioSize int
}

// NewFileBlockDevice returns a FileBlockDevice of size bytes with the given
// fixed driver I/O unit. The backing file is created (or truncated to size,
// if it already exists) the first time Open is called.
func NewFileBlockDevice(size int64, ioSize int) *FileBlockDevice {
	return &FileBlockDevice{size: size, ioSize: ioSize}
}

func (d *FileBlockDevice) Open(path string) error {
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0o644)
	if err != nil {
		return ratferr.ErrIO.Wrap(err)
	}
	if err := f.Truncate(d.size); err != nil {
		f.Close()
		return ratferr.ErrIO.Wrap(err)
	}
	d.file = f
	return nil
}

func (d *FileBlockDevice) DeviceSize() (int64, error) {
	return d.size, nil
}

func (d *FileBlockDevice) IOSize() (int, error) {
	return d.ioSize, nil
}

func (d *FileBlockDevice) Seek(offset int64) error {
	_, err := d.file.Seek(offset, SeekSet)
	if err != nil {
		return ratferr.ErrSeek.Wrap(err)
	}
	return nil
}

func (d *FileBlockDevice) Read(buf []byte) error {
	_, err := d.file.Read(buf)
	if err != nil {
		return ratferr.ErrIO.Wrap(err)
	}
	return nil
}

func (d *FileBlockDevice) Write(buf []byte) error {
	_, err := d.file.Write(buf)
	if err != nil {
		return ratferr.ErrIO.Wrap(err)
	}
	return nil
}

func (d *FileBlockDevice) Close() error {
	if d.file == nil {
		return nil
	}
	err := d.file.Close()
	d.file = nil
	if err != nil {
		return ratferr.ErrIO.Wrap(err)
	}
	return nil
}
