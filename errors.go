package serial

import (
	"errors"

	"golang.org/x/sys/unix"
)

// Predefined error types for robust error handling
var (
	ErrDeviceNotFound   = errors.New("serial device not found")
	ErrPermissionDenied = errors.New("permission denied accessing serial device")
	ErrDeviceInUse      = errors.New("serial device already in use")
	ErrInvalidBaudRate  = errors.New("invalid baud rate")
	ErrInvalidConfig    = errors.New("invalid serial configuration")
	ErrPortClosed       = errors.New("serial port is closed")
	ErrReadTimeout      = errors.New("read operation timed out")

	// ErrDeviceGone is returned once the device stopped answering (unplugged, hung up).
	ErrDeviceGone = errors.New("serial device disconnected")
)

// IsFatal reports whether err means the device can no longer be used
func IsFatal(err error) bool {
	return errors.Is(err, ErrDeviceGone) || errors.Is(err, ErrPortClosed)
}

// classifyIOError maps raw errno values from read/write onto the package errors
func classifyIOError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, unix.EAGAIN), errors.Is(err, unix.EINTR):
		return ErrReadTimeout
	case errors.Is(err, unix.EIO), errors.Is(err, unix.ENXIO),
		errors.Is(err, unix.ENODEV), errors.Is(err, unix.EBADF):
		return errors.Join(ErrDeviceGone, err)
	default:
		return err
	}
}

// classifyOpenError maps errno values from open(2) onto the package errors
func classifyOpenError(err error) error {
	switch {
	case errors.Is(err, unix.ENOENT), errors.Is(err, unix.ENXIO), errors.Is(err, unix.ENODEV):
		return ErrDeviceNotFound
	case errors.Is(err, unix.EACCES), errors.Is(err, unix.EPERM):
		return ErrPermissionDenied
	case errors.Is(err, unix.EBUSY):
		return ErrDeviceInUse
	default:
		return err
	}
}
