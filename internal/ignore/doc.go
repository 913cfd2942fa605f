// Package ignore decides whether a file is excluded from formatting.
//
// Exclusions come from ignore files (by default ".clang-format-ignore") found
// in the file's directory and in every ancestor directory. The files use
// gitignore syntax:
//
//	# generated sources
//	*.pb.cc
//	/third_party/
//	!third_party/keep.h
//
// Patterns are relative to the directory that holds the ignore file. A file
// deeper in the tree overrides its ancestors, and inside one file the last
// matching pattern wins. Version-control ignore files (.gitignore and
// friends) are never consulted.
//
// A Resolver keeps no state between calls: every IsIgnored call re-reads the
// ignore files and re-walks the parent directory, so answers follow the
// filesystem as it changes. Resolvers are safe for concurrent use.
package ignore
