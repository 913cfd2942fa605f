// Package ffitest provides C stub engines for tests of code that talks to
// the foreign formatting engine. cgo is not available in _test.go files, so
// the stubs live in a regular package.
//
// Canned and Recording engines share process-wide C state and must not be
// used from parallel tests.
package ffitest

/*
#include <stdlib.h>
#include <string.h>

static char *cf_canned;
static char *cf_last_file_name;
static char *cf_last_code;
static long cf_calls;

void cf_set_canned(char *raw) {
	free(cf_canned);
	cf_canned = raw;
}

static void cf_record(char *file_name, char *code) {
	free(cf_last_file_name);
	free(cf_last_code);
	cf_last_file_name = strdup(file_name);
	cf_last_code = strdup(code);
}

char *cf_canned_engine(char *file_name, char *code) {
	__atomic_fetch_add(&cf_calls, 1, __ATOMIC_SEQ_CST);
	cf_record(file_name, code);
	return cf_canned;
}

char *cf_null_engine(char *file_name, char *code) {
	(void)file_name;
	(void)code;
	__atomic_fetch_add(&cf_calls, 1, __ATOMIC_SEQ_CST);
	return NULL;
}

static __thread char *cf_thread_last;

static char *cf_respond(char *body) {
	free(cf_thread_last);
	cf_thread_last = body;
	return body;
}

char *cf_counting_echo_engine(char *file_name, char *code) {
	(void)file_name;
	__atomic_fetch_add(&cf_calls, 1, __ATOMIC_SEQ_CST);
	size_t n = strlen(code);
	char *out = malloc(n + 2);
	out[0] = '0';
	memcpy(out + 1, code, n + 1);
	return cf_respond(out);
}

// Collapses runs of spaces into one space. Applying it twice gives the same
// result as applying it once.
char *cf_squeeze_engine(char *file_name, char *code) {
	(void)file_name;
	__atomic_fetch_add(&cf_calls, 1, __ATOMIC_SEQ_CST);
	size_t n = strlen(code);
	char *out = malloc(n + 2);
	size_t j = 1;
	out[0] = '0';
	for (size_t i = 0; i < n; i++) {
		if (code[i] == ' ' && j > 1 && out[j - 1] == ' ') {
			continue;
		}
		out[j++] = code[i];
	}
	out[j] = '\0';
	return cf_respond(out);
}

long cf_call_count(void) {
	return __atomic_load_n(&cf_calls, __ATOMIC_SEQ_CST);
}

void cf_reset_calls(void) {
	__atomic_store_n(&cf_calls, 0, __ATOMIC_SEQ_CST);
}

char *cf_get_last_file_name(void) { return cf_last_file_name; }
char *cf_get_last_code(void) { return cf_last_code; }
*/
import "C"

import (
	"sync"
	"unsafe"

	"clangfmt/internal/ffi"
)

var cannedMu sync.Mutex

func mustEngine(name string, entry unsafe.Pointer, concurrent bool) *ffi.Engine {
	eng, err := ffi.NewEngine(name, entry, concurrent)
	if err != nil {
		panic(err)
	}
	return eng
}

// Canned returns an engine that answers every call with raw, byte for byte.
// It also records the arguments of the last call.
func Canned(raw string) *ffi.Engine {
	cannedMu.Lock()
	C.cf_set_canned(C.CString(raw))
	cannedMu.Unlock()
	return mustEngine("canned", unsafe.Pointer(C.cf_canned_engine), false)
}

// Failing returns an engine that reports message as a formatting error.
func Failing(message string) *ffi.Engine {
	return Canned("1" + message)
}

// Null returns an engine that answers with a NULL pointer.
func Null() *ffi.Engine {
	return mustEngine("null", unsafe.Pointer(C.cf_null_engine), true)
}

// CountingEcho returns an engine that echoes the code back with a success
// tag and counts its invocations.
func CountingEcho() *ffi.Engine {
	return mustEngine("counting-echo", unsafe.Pointer(C.cf_counting_echo_engine), true)
}

// Squeeze returns an idempotent engine that collapses runs of spaces.
func Squeeze() *ffi.Engine {
	return mustEngine("squeeze", unsafe.Pointer(C.cf_squeeze_engine), true)
}

// Calls returns the number of stub invocations since the last Reset.
func Calls() int64 {
	return int64(C.cf_call_count())
}

// Reset zeroes the invocation counter.
func Reset() {
	C.cf_reset_calls()
}

// LastFileName returns the file name the canned engine last received.
func LastFileName() string {
	p := C.cf_get_last_file_name()
	if p == nil {
		return ""
	}
	return C.GoString(p)
}

// LastCode returns the code the canned engine last received.
func LastCode() string {
	p := C.cf_get_last_code()
	if p == nil {
		return ""
	}
	return C.GoString(p)
}
