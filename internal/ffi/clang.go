//go:build clang

package ffi

/*
#cgo LDFLAGS: -L${SRCDIR}/../../third_party/clang-format/lib -lwrapper -lclangFormat -lclangToolingInclusions -lclangToolingCore -lclangRewrite -lclangLex -lclangBasic -lLLVMFrontendOpenMP -lLLVMSupport -lLLVMDemangle -lstdc++ -lm -lpthread

char *wrapper_main(char *file_name, char *code);
*/
import "C"

import "unsafe"

// ClangLinked reports whether the clang-format wrapper is linked in.
const ClangLinked = true

// Clang returns the engine backed by wrapper_main from the clang-format
// wrapper library. The wrapper resolves the style from .clang-format files
// next to the file name it is given, and allocates every response itself.
func Clang() (*Engine, error) {
	return NewEngine("clang-format", unsafe.Pointer(C.wrapper_main), true)
}
