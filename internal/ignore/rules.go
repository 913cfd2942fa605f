package ignore

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-git/go-git/v5/plumbing/format/gitignore"
)

// loadMatcher collects ignore files from dir up to the filesystem root.
// Patterns from the root come first so that deeper files take precedence.
func (r *Resolver) loadMatcher(dir string) (gitignore.Matcher, error) {
	var chain []string
	for d := dir; ; {
		chain = append(chain, d)
		parent := filepath.Dir(d)
		if parent == d {
			break
		}
		d = parent
	}

	var patterns []gitignore.Pattern
	for i := len(chain) - 1; i >= 0; i-- {
		ps, err := readPatterns(filepath.Join(chain[i], r.fileName), components(chain[i]))
		if err != nil {
			return nil, err
		}
		patterns = append(patterns, ps...)
	}
	return gitignore.NewMatcher(patterns), nil
}

// readPatterns parses one ignore file. A missing file, or a non-regular
// file under the reserved name, contributes no patterns.
func readPatterns(path string, domain []string) ([]gitignore.Pattern, error) {
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("ignore: stat %s: %w", path, err)
	}
	if !info.Mode().IsRegular() {
		return nil, nil
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("ignore: open %s: %w", path, err)
	}
	defer f.Close()

	var patterns []gitignore.Pattern
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		patterns = append(patterns, gitignore.ParsePattern(line, domain))
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("ignore: read %s: %w", path, err)
	}
	return patterns, nil
}
