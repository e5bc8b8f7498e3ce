package btre

import "os"
import "path/filepath"

import "golang.org/x/sys/unix"


//============================================= BTre Block Device


// blockDevice owns the store file handle and exposes fixed offset reads and
// writes against it. An exclusive advisory lock is held for the lifetime of
// the device since the engine is single writer.
type blockDevice struct {
	file *os.File
	path string
}

// openBlockDevice
//	Create or open the named store file and take the advisory lock.
//	Parent directories are created as needed.
func openBlockDevice(path string) (*blockDevice, error) {
	mkdirErr := os.MkdirAll(filepath.Dir(path), 0755)
	if mkdirErr != nil { return nil, wrapIO(mkdirErr, "creating store directory") }

	file, openErr := os.OpenFile(path, os.O_RDWR | os.O_CREATE, 0600)
	if openErr != nil { return nil, wrapIO(openErr, "opening store file") }

	flockErr := unix.Flock(int(file.Fd()), unix.LOCK_EX | unix.LOCK_NB)
	if flockErr != nil {
		file.Close()
		return nil, wrapIO(flockErr, "locking store file")
	}

	return &blockDevice{ file: file, path: path }, nil
}

// read
//	Read length bytes at the given offset. Reads past the end of file fail.
func (device *blockDevice) read(offset uint64, length int) ([]byte, error) {
	data := make([]byte, length)
	_, readErr := device.file.ReadAt(data, int64(offset))
	if readErr != nil { return nil, wrapIO(readErr, "reading store file") }

	return data, nil
}

// write
//	Write bytes at the given offset, extending the file if the range lies
//	past the current end.
func (device *blockDevice) write(offset uint64, data []byte) error {
	_, writeErr := device.file.WriteAt(data, int64(offset))
	if writeErr != nil { return wrapIO(writeErr, "writing store file") }

	return nil
}

// truncate
//	Cut or extend the file to the given length.
func (device *blockDevice) truncate(length uint64) error {
	truncateErr := device.file.Truncate(int64(length))
	if truncateErr != nil { return wrapIO(truncateErr, "truncating store file") }

	return nil
}

// flush
//	Make previously written bytes durable.
func (device *blockDevice) flush() error {
	syncErr := device.file.Sync()
	if syncErr != nil { return wrapIO(syncErr, "flushing store file") }

	return nil
}

// size
//	The current physical length of the store file.
func (device *blockDevice) size() (uint64, error) {
	stat, statErr := device.file.Stat()
	if statErr != nil { return 0, wrapIO(statErr, "stat store file") }

	return uint64(stat.Size()), nil
}

// close
//	Release the advisory lock and close the file handle.
func (device *blockDevice) close() error {
	unix.Flock(int(device.file.Fd()), unix.LOCK_UN)

	closeErr := device.file.Close()
	if closeErr != nil { return wrapIO(closeErr, "closing store file") }

	return nil
}

// remove
//	Close the device and delete the underlying file.
func (device *blockDevice) remove() error {
	closeErr := device.close()
	if closeErr != nil { return closeErr }

	removeErr := os.Remove(device.path)
	if removeErr != nil { return wrapIO(removeErr, "removing store file") }

	return nil
}

// deviceExists
//	Directory level existence check for a store file.
func deviceExists(path string) bool {
	_, statErr := os.Stat(path)
	return statErr == nil
}

// deviceRemove
//	Directory level removal of a store file.
func deviceRemove(path string) error {
	removeErr := os.Remove(path)
	if removeErr != nil { return wrapIO(removeErr, "removing store file") }

	return nil
}
