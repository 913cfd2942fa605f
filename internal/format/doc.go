// Package format decides whether a file may be formatted and, if so, sends
// it through the foreign engine exactly once.
//
// Flow of one call: ignore check, then encode, invoke and decode inside the
// engine. Ignored files never reach the engine. The outcome is one of
// KindIgnored, KindSuccess or KindError; only a failed ignore check is
// returned as a Go error.
//
// The package starts no goroutines and takes no locks. Engines that are not
// safe for parallel use must be serialized by the caller.
package format
