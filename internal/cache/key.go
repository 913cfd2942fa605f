package cache

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"errors"
	"fmt"
	"hash"
	"os"
	"path/filepath"
)

// StyleFileNames are the files the clang engine reads its style from.
var StyleFileNames = []string{".clang-format", "_clang-format"}

// Digest is a SHA-256 cache key.
type Digest [32]byte

// String returns the hex form used for file names.
func (d Digest) String() string {
	return hex.EncodeToString(d[:])
}

// IsZero reports whether d is the zero digest.
func (d Digest) IsZero() bool {
	return d == Digest{}
}

// KeyFor builds the key for content formatted by engine as the file at
// absPath under the given style fingerprint. Each part is length-prefixed
// so that no two inputs collide by concatenation.
func KeyFor(engine, style, absPath, content string) Digest {
	h := sha256.New()
	for _, part := range []string{engine, style, absPath, content} {
		writePart(h, part)
	}
	var out Digest
	copy(out[:], h.Sum(nil))
	return out
}

// StyleFingerprint hashes the location and bytes of every style file in the
// directories from absPath's parent up to the filesystem root. Adding,
// editing or removing any of them changes the result.
func StyleFingerprint(absPath string) (string, error) {
	h := sha256.New()
	for dir := filepath.Dir(absPath); ; dir = filepath.Dir(dir) {
		for _, name := range StyleFileNames {
			p := filepath.Join(dir, name)
			data, err := os.ReadFile(p)
			switch {
			case err == nil:
				writePart(h, p)
				writePart(h, string(data))
			case errors.Is(err, os.ErrNotExist):
			default:
				return "", fmt.Errorf("cache: read style %s: %w", p, err)
			}
		}
		if filepath.Dir(dir) == dir {
			break
		}
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

func writePart(h hash.Hash, part string) {
	var n [8]byte
	binary.LittleEndian.PutUint64(n[:], uint64(len(part)))
	_, _ = h.Write(n[:])
	_, _ = h.Write([]byte(part))
}
