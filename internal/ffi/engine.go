package ffi

/*
#include <stdlib.h>

typedef char *(*cf_engine_fn)(char *file_name, char *code);

static char *cf_invoke(void *fn, char *file_name, char *code) {
	return ((cf_engine_fn)fn)(file_name, code);
}
*/
import "C"

import (
	"errors"
	"fmt"
	"runtime"
	"strings"
	"unsafe"
)

// ErrEngineUnavailable is returned when an engine was not linked into the binary.
var ErrEngineUnavailable = errors.New("ffi: engine not available")

// Engine is a foreign formatting entry point.
type Engine struct {
	name       string
	entry      unsafe.Pointer
	concurrent bool
}

// NewEngine binds a C function of type char *(*)(char *, char *).
// concurrent declares whether the function may be called from several
// threads at once.
func NewEngine(name string, entry unsafe.Pointer, concurrent bool) (*Engine, error) {
	if entry == nil {
		return nil, fmt.Errorf("ffi: engine %q has no entry point", name)
	}
	return &Engine{name: name, entry: entry, concurrent: concurrent}, nil
}

// Name identifies the engine in traces and cache keys.
func (e *Engine) Name() string {
	return e.name
}

// Concurrent reports whether the engine tolerates parallel calls.
func (e *Engine) Concurrent() bool {
	return e.concurrent
}

// Format encodes the request, makes exactly one foreign call and decodes the
// response. Encoding failures are returned as *EncodingError without calling
// the engine; engine failures as *EngineError or ErrUnknownResponse.
func (e *Engine) Format(fileName, code string) (string, error) {
	args, err := Encode(fileName, code)
	if err != nil {
		return "", err
	}
	defer args.Free()
	return Decode(e.Invoke(args))
}

// Invoke calls the engine with already encoded arguments and returns a Go
// copy of the raw response. A NULL response reads as the empty string.
//
// The goroutine stays on its OS thread until the copy is taken, since
// engines may recycle a per-thread response buffer on their next call.
func (e *Engine) Invoke(args *Args) string {
	if !args.Live() {
		return ""
	}
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	res := C.cf_invoke(e.entry, args.fileName, args.code)
	if res == nil {
		return ""
	}
	return C.GoString(res)
}

// Lookup returns a built-in engine by name.
func Lookup(name string) (*Engine, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "clang", "clang-format":
		return Clang()
	case "echo":
		return Echo(), nil
	default:
		return nil, fmt.Errorf("ffi: unknown engine %q (expected clang|echo)", name)
	}
}
