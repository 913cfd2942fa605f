//go:build !clang

package ffi

import "fmt"

// ClangLinked reports whether the clang-format wrapper is linked in.
const ClangLinked = false

// Clang fails in binaries built without the clang tag.
func Clang() (*Engine, error) {
	return nil, fmt.Errorf("%w: clang-format (rebuild with -tags clang)", ErrEngineUnavailable)
}
