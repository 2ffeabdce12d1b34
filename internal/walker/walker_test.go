package walker

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/webvault/webvault/internal/document"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o750))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
}

func findChild(t *testing.T, node *document.TreeNode, name string) *document.TreeNode {
	t.Helper()
	for _, child := range node.Children {
		if child.Name == name {
			return child
		}
	}
	t.Fatalf("child %q not found under %q", name, node.Name)
	return nil
}

func TestWalkBuildsTreeAndContents(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "readme.md"), "hello")
	writeFile(t, filepath.Join(root, "src", "main.go"), "package main")
	writeFile(t, filepath.Join(root, "src", "deep", "util.go"), "package deep")

	w := New(Config{}, nil, nil)
	tree, contents, stats, err := w.Walk(root)
	require.NoError(t, err)

	assert.Equal(t, "directory", tree.Kind)
	src := findChild(t, tree, "src")
	deep := findChild(t, src, "deep")
	util := findChild(t, deep, "util.go")
	assert.Equal(t, "file", util.Kind)
	assert.Equal(t, int64(len("package deep")), util.Size)
	assert.NotEmpty(t, util.Modified)

	assert.Equal(t, 3, stats.TotalFiles)
	assert.Equal(t, 3, stats.ProcessedFiles)
	assert.Len(t, contents, 3)
}

func TestWalkSizeCapScenario(t *testing.T) {
	// A directory with an over-cap file and a 10-byte file: two tree nodes,
	// a content list with only the small file's content.
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "small.txt"), "0123456789")
	big := strings.Repeat("x", 1<<20)
	writeFile(t, filepath.Join(root, "big.bin"), big)

	w := New(Config{FileSizeCap: 10 << 10}, nil, nil)
	tree, contents, stats, err := w.Walk(root)
	require.NoError(t, err)

	assert.Len(t, tree.Children, 2, "both files stay in the tree")
	require.Len(t, contents, 1)
	assert.Equal(t, "0123456789", contents[0].Content)
	assert.Equal(t, 1, stats.ProcessedFiles)
	assert.Equal(t, 1, stats.SkippedFiles)
}

func TestWalkBinaryOmitted(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "blob.dat"), []byte{0x00, 0x01, 0xff}, 0o600))

	w := New(Config{}, nil, nil)
	_, contents, stats, err := w.Walk(root)
	require.NoError(t, err)

	require.Len(t, contents, 1)
	assert.Empty(t, contents[0].Content)
	assert.Equal(t, "binary_file", contents[0].Omitted)
	assert.Equal(t, 1, stats.SkippedFiles)
}

func TestWalkExclusions(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, ".git", "HEAD"), "ref: main")
	writeFile(t, filepath.Join(root, "cache.pyc"), "bytecode")
	writeFile(t, filepath.Join(root, "keep.txt"), "keep")

	w := New(Config{
		ExcludedDirs:  []string{".git"},
		ExcludedFiles: []string{"*.pyc"},
	}, nil, nil)
	tree, contents, _, err := w.Walk(root)
	require.NoError(t, err)

	require.Len(t, tree.Children, 1)
	assert.Equal(t, "keep.txt", tree.Children[0].Name)
	require.Len(t, contents, 1)
}

func TestWalkFileCountLimit(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "a.txt"), "a")
	writeFile(t, filepath.Join(root, "b.txt"), "b")
	writeFile(t, filepath.Join(root, "c.txt"), "c")

	w := New(Config{FileCountLimit: 2}, nil, nil)
	tree, contents, stats, err := w.Walk(root)
	require.NoError(t, err)

	assert.Len(t, tree.Children, 3, "limit bounds the content list, not the tree")
	assert.Len(t, contents, 2)
	assert.Equal(t, 1, stats.SkippedFiles)
}

func TestWalkInvalidRootFatal(t *testing.T) {
	w := New(Config{}, nil, nil)

	t.Run("Missing", func(t *testing.T) {
		_, _, _, err := w.Walk(filepath.Join(t.TempDir(), "absent"))
		assert.Error(t, err)
	})

	t.Run("NotADirectory", func(t *testing.T) {
		root := t.TempDir()
		file := filepath.Join(root, "f.txt")
		writeFile(t, file, "x")
		_, _, _, err := w.Walk(file)
		assert.Error(t, err)
	})
}

func TestWalkPermissionDeniedFile(t *testing.T) {
	if os.Geteuid() == 0 {
		t.Skip("running as root; permission bits are not enforced")
	}
	root := t.TempDir()
	locked := filepath.Join(root, "locked.txt")
	writeFile(t, locked, "secret")
	require.NoError(t, os.Chmod(locked, 0o000))
	t.Cleanup(func() { _ = os.Chmod(locked, 0o600) })

	w := New(Config{}, nil, nil)
	tree, contents, stats, err := w.Walk(root)
	require.NoError(t, err, "permission problems never abort the walk")

	assert.Len(t, tree.Children, 1)
	require.Len(t, contents, 1)
	assert.Equal(t, "read_error", contents[0].Omitted)
	assert.Equal(t, 1, stats.SkippedFiles)
}
