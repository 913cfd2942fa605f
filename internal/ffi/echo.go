package ffi

/*
#include <stdlib.h>
#include <string.h>

// The previous response of this thread is released on the next call, so a
// response stays valid until the same thread calls again.
static __thread char *cf_echo_last;

char *cf_echo_engine(char *file_name, char *code) {
	(void)file_name;
	size_t n = strlen(code);
	char *out = malloc(n + 2);
	if (out == NULL) {
		return NULL;
	}
	out[0] = '0';
	memcpy(out + 1, code, n + 1);
	free(cf_echo_last);
	cf_echo_last = out;
	return out;
}
*/
import "C"

import "unsafe"

// Echo returns an engine that answers every request with the unchanged
// code. It backs dry runs where the real engine is not linked.
func Echo() *Engine {
	return &Engine{name: "echo", entry: unsafe.Pointer(C.cf_echo_engine), concurrent: true}
}
