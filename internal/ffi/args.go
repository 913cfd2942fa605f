package ffi

/*
#include <stdlib.h>
*/
import "C"

import (
	"fmt"
	"unsafe"

	"fortio.org/safecast"
)

// Args holds the C copies of one request. The buffers belong to Args until
// Free releases them.
type Args struct {
	fileName *C.char
	code     *C.char
}

// Encode copies path and content into NUL-terminated C buffers.
// Input that a C string cannot represent faithfully is rejected with an
// *EncodingError instead of being truncated.
func Encode(path, content string) (*Args, error) {
	if err := validate(path, content); err != nil {
		return nil, err
	}
	fileName, err := cString(path)
	if err != nil {
		return nil, err
	}
	code, err := cString(content)
	if err != nil {
		C.free(unsafe.Pointer(fileName))
		return nil, err
	}
	return &Args{fileName: fileName, code: code}, nil
}

// Free releases the C buffers. Calls after the first are no-ops.
func (a *Args) Free() {
	if a == nil {
		return
	}
	if a.fileName != nil {
		C.free(unsafe.Pointer(a.fileName))
		a.fileName = nil
	}
	if a.code != nil {
		C.free(unsafe.Pointer(a.code))
		a.code = nil
	}
}

// Live reports whether the buffers are still allocated.
func (a *Args) Live() bool {
	return a != nil && a.fileName != nil && a.code != nil
}

func cString(s string) (*C.char, error) {
	size, err := safecast.Conv[C.size_t](len(s) + 1)
	if err != nil {
		return nil, &EncodingError{Field: "buffer", Offset: -1, Reason: fmt.Sprintf("size %d out of range", len(s)+1)}
	}
	p := C.malloc(size)
	buf := unsafe.Slice((*byte)(p), len(s)+1)
	copy(buf, s)
	buf[len(s)] = 0
	return (*C.char)(p), nil
}
