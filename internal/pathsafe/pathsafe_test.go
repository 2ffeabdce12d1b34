package pathsafe

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidate(t *testing.T) {
	t.Run("CreatesMissingParents", func(t *testing.T) {
		r := NewResolver(nil, nil)
		dest := filepath.Join(t.TempDir(), "a", "b", "c.txt")
		assert.True(t, r.Validate(dest))
		assert.DirExists(t, filepath.Dir(dest))
	})

	t.Run("RejectsRestrictedPrefix", func(t *testing.T) {
		root := t.TempDir()
		r := NewResolver([]string{root}, nil)
		assert.False(t, r.Validate(filepath.Join(root, "file.txt")))
		assert.False(t, r.Validate(root))
	})

	t.Run("SiblingOfRestrictedAllowed", func(t *testing.T) {
		base := t.TempDir()
		r := NewResolver([]string{filepath.Join(base, "deny")}, nil)
		assert.True(t, r.Validate(filepath.Join(base, "denied-not", "f.txt")),
			"prefix match must be component-wise, not a raw string prefix")
	})
}

func TestSanitizeName(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"Clean", "report.txt", "report.txt"},
		{"IllegalChars", `a<b>:c"d.txt`, "a_b__c_d.txt"},
		{"Slashes", `dir/name\x.js`, "dir_name_x.js"},
		{"ControlChars", "a\x00b\tc.css", "a_b_c.css"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, SanitizeName(tc.in))
		})
	}

	t.Run("TruncatesStemKeepsExt", func(t *testing.T) {
		long := strings.Repeat("x", 300) + ".html"
		got := SanitizeName(long)
		assert.Equal(t, strings.Repeat("x", 200)+".html", got)
	})
}

func TestUniquePath(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "name.ext")

	t.Run("UnusedUnchanged", func(t *testing.T) {
		assert.Equal(t, path, UniquePath(path))
	})

	t.Run("ProbesSuffixes", func(t *testing.T) {
		require.NoError(t, os.WriteFile(path, []byte("0"), 0o600))
		for i := 1; i <= 3; i++ {
			next := UniquePath(path)
			assert.Equal(t, filepath.Join(dir, fmt.Sprintf("name_%d.ext", i)), next)
			require.NoError(t, os.WriteFile(next, []byte("x"), 0o600))
		}
	})
}
