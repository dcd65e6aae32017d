// Package match decides which directories to prune and which files to admit.
// It never touches file contents.
package match

import (
	"io"
	"path/filepath"
	"strings"

	gitignore "github.com/monochromegane/go-gitignore"
)

// MaxExtensionLen bounds the extension (dot included) considered for
// matching. Longer extensions never match.
const MaxExtensionLen = 63

// Rules are the inputs of a Matcher.
type Rules struct {
	Extensions    []string // lower-case, dot-prefixed
	ExcludeDirs   []string // basenames, case-sensitive
	IncludeHidden bool
}

// Matcher answers the filter questions for one run.
type Matcher struct {
	exts          map[string]struct{}
	excludeDirs   map[string]struct{}
	includeHidden bool
	ignore        gitignore.IgnoreMatcher
}

// New builds a Matcher. Extensions are lower-cased again so callers that skip
// config normalization still get case-insensitive matching.
func New(rules Rules) *Matcher {
	m := &Matcher{
		exts:          make(map[string]struct{}, len(rules.Extensions)),
		excludeDirs:   make(map[string]struct{}, len(rules.ExcludeDirs)),
		includeHidden: rules.IncludeHidden,
	}
	for _, ext := range rules.Extensions {
		ext = strings.ToLower(ext)
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		m.exts[ext] = struct{}{}
	}
	for _, dir := range rules.ExcludeDirs {
		m.excludeDirs[dir] = struct{}{}
	}
	return m
}

// WithGitignore returns a copy of m that also honours the .gitignore rules
// read from r. base is the directory the rules are relative to; paths passed
// to the matcher must share its prefix.
func (m *Matcher) WithGitignore(base string, r io.Reader) *Matcher {
	clone := *m
	clone.ignore = gitignore.NewGitIgnoreFromReader(base, r)
	return &clone
}

// IsHidden reports whether the final path component starts with a dot.
// "." and ".." are not hidden.
func IsHidden(path string) bool {
	base := baseName(path)
	if base == "." || base == ".." {
		return false
	}
	return strings.HasPrefix(base, ".")
}

// IsExcludedDir reports whether basename is one of the excluded names.
func (m *Matcher) IsExcludedDir(basename string) bool {
	_, ok := m.excludeDirs[basename]
	return ok
}

// HasAllowedExtension reports whether the extension of the final path
// component is in the allow-list, ignoring case. Paths without an extension
// never match.
func (m *Matcher) HasAllowedExtension(path string) bool {
	ext, ok := Extension(path)
	if !ok {
		return false
	}
	_, allowed := m.exts[strings.ToLower(ext)]
	return allowed
}

// ShouldSkipDirectory reports whether the directory at path is pruned.
func (m *Matcher) ShouldSkipDirectory(path string) bool {
	if !m.includeHidden && IsHidden(path) {
		return true
	}
	if m.IsExcludedDir(baseName(path)) {
		return true
	}
	return m.ignored(path, true)
}

// AdmitFile reports whether the regular file at path is copied to the output.
func (m *Matcher) AdmitFile(path string) bool {
	if !m.includeHidden && IsHidden(path) {
		return false
	}
	if !m.HasAllowedExtension(path) {
		return false
	}
	return !m.ignored(path, false)
}

func (m *Matcher) ignored(path string, isDir bool) bool {
	return m.ignore != nil && m.ignore.Match(path, isDir)
}

// Extension returns the final component's suffix starting at its last dot.
// ok is false when there is no dot, nothing follows it, or the suffix is
// longer than MaxExtensionLen.
func Extension(path string) (ext string, ok bool) {
	base := baseName(path)
	dot := strings.LastIndexByte(base, '.')
	if dot < 0 || dot == len(base)-1 {
		return "", false
	}
	ext = base[dot:]
	if len(ext) > MaxExtensionLen {
		return "", false
	}
	return ext, true
}

// baseName is filepath.Base except that an empty path stays empty.
func baseName(path string) string {
	if path == "" {
		return ""
	}
	return filepath.Base(path)
}
