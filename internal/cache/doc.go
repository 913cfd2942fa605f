// Package cache remembers which file contents are already formatted, so a
// repeated run can skip the engine for them.
//
// Keys are KeyFor(engine, style fingerprint, absolute path, content). The
// fingerprint covers every .clang-format and _clang-format above the file,
// so a style edit invalidates the entries it affects. A hit means "this
// exact content is the engine's output for this file"; there is nothing
// else to store. Entries live under $XDG_CACHE_HOME/clangfmt as msgpack files.
package cache
