package util

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestListDirectory(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"b.jpg", "a.xml", "c.PNG", ".hidden.jpg", "notes.txt"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("x"), 0o644))
	}
	require.NoError(t, os.Mkdir(filepath.Join(dir, "sub.jpg"), 0o755))

	all, err := ListDirectory(dir, nil)
	require.NoError(t, err)
	names := make([]string, len(all))
	for i, f := range all {
		names[i] = f.Name
		assert.Equal(t, filepath.Join(dir, f.Name), f.Path)
	}
	assert.Equal(t, []string{"a.xml", "b.jpg", "c.PNG", "notes.txt"}, names)

	imgs, err := ListDirectory(dir, HasExt(".jpg", ".png"))
	require.NoError(t, err)
	require.Len(t, imgs, 2)
	assert.Equal(t, "b.jpg", imgs[0].Name)
	assert.Equal(t, "c.PNG", imgs[1].Name)

	_, err = ListDirectory(filepath.Join(dir, "missing"), nil)
	assert.Error(t, err)
}

func TestPathHelpers(t *testing.T) {
	assert.Equal(t, "000123", Stem("/data/images/000123.jpg"))
	assert.Equal(t, "archive.tar", Stem("archive.tar.gz"))
	assert.Equal(t, "000123.xml", SwapExt("/data/images/000123.jpg", ".xml"))
	assert.Equal(t, "noext.png", SwapExt("noext", ".png"))

	dir := t.TempDir()
	path := filepath.Join(dir, "f.txt")
	require.NoError(t, os.WriteFile(path, nil, 0o644))
	assert.True(t, FileExists(path))
	assert.False(t, FileExists(dir))
	assert.False(t, FileExists(filepath.Join(dir, "nope")))
}
