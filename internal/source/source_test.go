package source

import (
	"path/filepath"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExistsAndReadAll(t *testing.T) {
	mem := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(mem, "/doc/a.tex", []byte("hello"), 0o644))
	require.NoError(t, mem.MkdirAll("/doc/dir.tex", 0o755))
	fs := New(mem)

	assert.True(t, fs.Exists("/doc/a.tex"))
	assert.False(t, fs.Exists("/doc/missing.tex"))
	assert.False(t, fs.Exists("/doc/dir.tex"), "directories are not sources")

	data, err := fs.ReadAll("/doc/a.tex")
	require.NoError(t, err)
	assert.Equal(t, "hello", string(data))

	_, err = fs.ReadAll("/doc/missing.tex")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "read /doc/missing.tex")
}

func TestCanonical(t *testing.T) {
	abs, err := filepath.Abs("a.tex")
	require.NoError(t, err)

	assert.Equal(t, abs, Canonical("a.tex"))
	assert.Equal(t, abs, Canonical("./a.tex"))
	assert.Equal(t, abs, Canonical("dir/../a.tex"))
	assert.Equal(t, "/doc/a.tex", Canonical("/doc//parts/../a.tex"))
}

func TestJoin(t *testing.T) {
	tests := []struct {
		base, path, want string
	}{
		{base: "/book", path: "ch1.tex", want: "/book/ch1.tex"},
		{base: "/book", path: "parts/../ch1.tex", want: "/book/ch1.tex"},
		{base: "/book", path: "/abs/ch1.tex", want: "/abs/ch1.tex"},
		{base: "/book/sub", path: "../ch1.tex", want: "/book/ch1.tex"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Join(tt.base, tt.path), tt.path)
	}
}
