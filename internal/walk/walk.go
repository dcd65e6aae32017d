// Package walk performs the pre-order, depth-first traversal that decides,
// for every entry under the root, whether it is admitted, pruned or skipped.
//
// The walker is an explicit-stack iterator rather than a callback visitor:
//
//	w := walk.New(fsys, root, matcher, walk.Options{})
//	for w.Next() {
//	    e := w.Entry()
//	    if e.Kind == walk.KindFile && e.Verdict == walk.Admitted {
//	        // copy e.Path
//	    }
//	}
//	if err := w.Err(); err != nil {
//	    // fatal traversal error
//	}
//
// Siblings are visited in lexical byte order of their names, so a walk over an
// unchanged tree always yields the same sequence.
package walk

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"

	"github.com/jadenpxrk/codecat/internal/logger"
	"github.com/jadenpxrk/codecat/internal/match"
)

// ErrTraversal marks fatal traversal failures: a missing or unreadable root.
var ErrTraversal = errors.New("traversal error")

// Kind is the filesystem type of an entry.
type Kind int

const (
	KindDir Kind = iota
	KindFile
	KindSymlink
	KindOther
)

func (k Kind) String() string {
	switch k {
	case KindDir:
		return "dir"
	case KindFile:
		return "file"
	case KindSymlink:
		return "symlink"
	default:
		return "other"
	}
}

// Verdict is the walker's decision for an entry. Admitted directories are
// descended into; admitted files are meant to be copied.
type Verdict int

const (
	Admitted Verdict = iota
	Pruned
	Skipped
)

func (v Verdict) String() string {
	switch v {
	case Admitted:
		return "admitted"
	case Pruned:
		return "pruned"
	default:
		return "skipped"
	}
}

// Reasons attached to pruned and skipped entries.
const (
	ReasonFiltered   = "filtered"
	ReasonNotRegular = "not a regular file"
	ReasonSymlink    = "symlink not followed"
	ReasonBrokenLink = "dangling symlink"
	ReasonUnreadable = "unreadable directory"
	ReasonOutput     = "output file"
)

// Entry is one visited path and the decision taken for it.
type Entry struct {
	Path    string // as discovered: root joined with names, never cleaned
	Kind    Kind
	Verdict Verdict
	Reason  string
	Info    os.FileInfo
}

// Options tune a walk.
type Options struct {
	// FollowLinks resolves symlinks and treats them as their target.
	// There is no cycle detection.
	FollowLinks bool
	// Exclude lists files that are never admitted, matched with os.SameFile.
	Exclude []os.FileInfo
	Logger  *logger.Logger
}

type pending struct {
	path   string
	info   os.FileInfo
	isRoot bool
}

// Walker iterates over the tree rooted at a path.
type Walker struct {
	fs      afero.Fs
	root    string
	matcher *match.Matcher
	opts    Options

	stack   []pending
	entry   Entry
	err     error
	started bool
}

// New returns a Walker over fsys starting at root.
func New(fsys afero.Fs, root string, matcher *match.Matcher, opts Options) *Walker {
	if opts.Logger == nil {
		opts.Logger = logger.Discard()
	}
	return &Walker{fs: fsys, root: root, matcher: matcher, opts: opts}
}

// Next advances to the next entry. It returns false when the walk is done or
// a fatal error occurred; check Err afterwards.
func (w *Walker) Next() bool {
	if w.err != nil {
		return false
	}
	if !w.started {
		w.started = true
		info, err := w.statRoot()
		if err != nil {
			w.err = fmt.Errorf("%w: cannot access root %s: %v", ErrTraversal, w.root, err)
			return false
		}
		w.stack = append(w.stack, pending{path: w.root, info: info, isRoot: true})
	}

	for len(w.stack) > 0 {
		top := w.stack[len(w.stack)-1]
		w.stack = w.stack[:len(w.stack)-1]

		entry, ok := w.visit(top)
		if w.err != nil {
			return false
		}
		if ok {
			w.entry = entry
			return true
		}
	}
	return false
}

// Entry returns the entry produced by the last call to Next.
func (w *Walker) Entry() Entry {
	return w.entry
}

// Err returns the fatal error that stopped the walk, if any.
func (w *Walker) Err() error {
	return w.err
}

// statRoot resolves the root without dereferencing a symlink unless links are
// followed, so a linked root is reported like any other link.
func (w *Walker) statRoot() (os.FileInfo, error) {
	if !w.opts.FollowLinks {
		if l, ok := w.fs.(afero.Lstater); ok {
			info, _, err := l.LstatIfPossible(w.root)
			return info, err
		}
	}
	return w.fs.Stat(w.root)
}

func (w *Walker) visit(p pending) (Entry, bool) {
	info := p.info
	entry := Entry{Path: p.path, Info: info}

	if info.Mode()&os.ModeSymlink != 0 {
		if !w.opts.FollowLinks {
			entry.Kind, entry.Verdict, entry.Reason = KindSymlink, Skipped, ReasonSymlink
			return entry, true
		}
		target, err := w.fs.Stat(p.path)
		if err != nil {
			w.opts.Logger.Debugf("cannot resolve symlink %s: %v", p.path, err)
			entry.Kind, entry.Verdict, entry.Reason = KindSymlink, Skipped, ReasonBrokenLink
			return entry, true
		}
		info = target
		entry.Info = target
	}

	switch {
	case info.IsDir():
		entry.Kind = KindDir
		return w.visitDir(p, entry)
	case info.Mode().IsRegular():
		entry.Kind = KindFile
		switch {
		case w.isExcluded(info):
			entry.Verdict, entry.Reason = Skipped, ReasonOutput
		case w.matcher.AdmitFile(p.path):
			entry.Verdict = Admitted
		default:
			entry.Verdict, entry.Reason = Skipped, ReasonFiltered
		}
		return entry, true
	default:
		entry.Kind, entry.Verdict, entry.Reason = KindOther, Skipped, ReasonNotRegular
		return entry, true
	}
}

func (w *Walker) visitDir(p pending, entry Entry) (Entry, bool) {
	if w.matcher.ShouldSkipDirectory(p.path) {
		entry.Verdict, entry.Reason = Pruned, ReasonFiltered
		return entry, true
	}

	children, err := afero.ReadDir(w.fs, p.path)
	if err != nil {
		if p.isRoot {
			w.err = fmt.Errorf("%w: cannot read root %s: %v", ErrTraversal, p.path, err)
			return Entry{}, false
		}
		w.opts.Logger.Debugf("cannot read directory %s: %v", p.path, err)
		entry.Verdict, entry.Reason = Skipped, ReasonUnreadable
		return entry, true
	}

	// reversed so the smallest name is popped first
	for i := len(children) - 1; i >= 0; i-- {
		child := children[i]
		w.stack = append(w.stack, pending{path: joinPath(p.path, child.Name()), info: child})
	}

	entry.Verdict = Admitted
	return entry, true
}

func (w *Walker) isExcluded(info os.FileInfo) bool {
	for _, ex := range w.opts.Exclude {
		if ex != nil && os.SameFile(ex, info) {
			return true
		}
	}
	return false
}

// joinPath appends name to dir without cleaning dir, so discovered paths keep
// the spelling of the root the user gave.
func joinPath(dir, name string) string {
	if strings.HasSuffix(dir, "/") || strings.HasSuffix(dir, string(filepath.Separator)) {
		return dir + name
	}
	return dir + string(filepath.Separator) + name
}
