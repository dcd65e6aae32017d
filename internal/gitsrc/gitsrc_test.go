package gitsrc

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsGitURL(t *testing.T) {
	tests := []struct {
		in   string
		want bool
	}{
		{"https://github.com/user/repo.git", true},
		{"ssh://git@host/repo.git", true},
		{"git@github.com:user/repo.git", true},
		{"git@github.com:user/repo", true},
		{"file:///srv/mirror/repo.git", true},
		{"https://github.com/user/repo", false},
		{"./vendor/thing.git", false},
		{"repo.git", false},
		{"src", false},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, IsGitURL(tt.in))
		})
	}
}

func TestCloneLocalRepository(t *testing.T) {
	upstream := t.TempDir()
	repo, err := git.PlainInit(upstream, false)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(upstream, "main.go"), []byte("package main\n"), 0644))

	wt, err := repo.Worktree()
	require.NoError(t, err)
	_, err = wt.Add("main.go")
	require.NoError(t, err)
	_, err = wt.Commit("init", &git.CommitOptions{
		Author: &object.Signature{Name: "test", Email: "test@example.com"},
	})
	require.NoError(t, err)

	dir, cleanup, err := Clone(context.Background(), "file://"+upstream, nil)
	require.NoError(t, err)

	data, err := os.ReadFile(filepath.Join(dir, "main.go"))
	require.NoError(t, err)
	assert.Equal(t, "package main\n", string(data))

	cleanup()
	_, err = os.Stat(dir)
	assert.True(t, os.IsNotExist(err))
}

func TestCloneFailureRemovesTempDir(t *testing.T) {
	_, cleanup, err := Clone(context.Background(), "file:///definitely/not/a/repo", nil)
	require.Error(t, err)
	assert.Nil(t, cleanup)
}
