// Package gitsrc lets a remote git repository stand in for the root
// directory: its default branch is cloned to a temporary directory first.
package gitsrc

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
)

// IsGitURL reports whether root looks like a repository URL rather than a
// local path: a .git suffix on a URL, or scp-style git@host:repo.
func IsGitURL(root string) bool {
	if strings.HasPrefix(root, "git@") {
		return true
	}
	if !strings.HasSuffix(root, ".git") {
		return false
	}
	for _, scheme := range []string{"https://", "http://", "ssh://", "git://", "file://"} {
		if strings.HasPrefix(root, scheme) {
			return true
		}
	}
	return false
}

// Clone clones url into a new temporary directory and returns it with a
// cleanup function that removes it. progress may be nil.
func Clone(ctx context.Context, url string, progress io.Writer) (dir string, cleanup func(), err error) {
	dir, err = os.MkdirTemp("", "codecat-git-")
	if err != nil {
		return "", nil, fmt.Errorf("failed to create temporary directory: %w", err)
	}
	cleanup = func() { _ = os.RemoveAll(dir) }

	_, err = git.PlainCloneContext(ctx, dir, false, &git.CloneOptions{
		URL:           url,
		Progress:      progress,
		ReferenceName: plumbing.HEAD,
		SingleBranch:  true,
	})
	if err != nil {
		cleanup()
		return "", nil, fmt.Errorf("failed to clone repository %s: %w", url, err)
	}
	return dir, cleanup, nil
}
