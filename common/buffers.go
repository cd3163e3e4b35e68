package common

import "unsafe"

// ByteSize returns the size in bytes of the contents of a slice, as expected by GPU upload calls.
//
// Parameters:
//   - data: the slice to measure
//
// Returns:
//   - int: len(data) times the size of one element
func ByteSize[T any](data []T) int {
	var zero T
	return len(data) * int(unsafe.Sizeof(zero))
}

// SlicePointer returns a pointer to the first element of data, or nil for an empty slice.
// The pointer is only valid while data is reachable.
func SlicePointer[T any](data []T) unsafe.Pointer {
	if len(data) == 0 {
		return nil
	}
	return unsafe.Pointer(&data[0])
}

// SizeOf returns the size in bytes of one value of type T.
func SizeOf[T any]() int32 {
	var zero T
	return int32(unsafe.Sizeof(zero))
}
