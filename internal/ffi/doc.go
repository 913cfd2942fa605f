// Package ffi is the boundary between Go and the foreign formatting engine.
//
// An engine is a C function with the signature
//
//	char *engine(char *file_name, char *code);
//
// It receives NUL-terminated buffers that stay valid only for the duration
// of the call and must not be retained. It answers with a NUL-terminated
// response that it owns: the caller copies it and never frees it. The
// response is framed by a single leading tag byte:
//
//	'0' <formatted code>
//	'1' <error message>
//
// Whitespace before the tag is skipped; everything after the tag is payload.
//
// Engine.Format performs encode, call and decode inside one frame so that no
// C pointer outlives the call. Engines are stateless from the caller's point
// of view. An engine that is not safe for concurrent use reports so through
// Engine.Concurrent, and serializing calls is then the caller's job.
package ffi
