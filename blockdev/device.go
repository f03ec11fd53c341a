// Package blockdev models the external block-device driver that the ratfs
// core is mounted on top of (spec.md section 4.1), and the adapter that lets
// the file system perform arbitrary-offset, arbitrary-size reads and writes
// over a driver whose I/O unit is fixed.
package blockdev

import "io"

// SeekSet is the whence value, io.Seeker's SEEK_SET, that a BlockDevice
// implementation over an io.Seeker uses for Seek: BlockDevice.Seek takes no
// whence argument and always seeks to an absolute offset.
const SeekSet = io.SeekStart

// BlockDevice is the contract the ratfs core assumes of its driver: open a
// device, learn its size and I/O unit, and perform whole-unit reads/writes
// at an absolute offset. Every Read/Write call here transfers exactly one
// IOSize() worth of bytes, never more, never less; splitting an arbitrary
// byte range into aligned, whole-unit transfers is the Adapter's job, not
// the driver's.
type BlockDevice interface {
	// Open prepares the device backing path for I/O. It must be called
	// before any other method.
	Open(path string) error

	// DeviceSize returns the total addressable size of the device, in bytes.
	DeviceSize() (int64, error)

	// IOSize returns the fixed number of bytes transferred by each Read or
	// Write call.
	IOSize() (int, error)

	// Seek repositions the device's cursor to an absolute byte offset.
	Seek(offset int64) error

	// Read fills buf, which must be exactly IOSize() bytes, from the
	// device's current cursor position and advances the cursor.
	Read(buf []byte) error

	// Write writes buf, which must be exactly IOSize() bytes, at the
	// device's current cursor position and advances the cursor.
	Write(buf []byte) error

	// Close releases the device. It is safe to call on an unopened device.
	Close() error
}
