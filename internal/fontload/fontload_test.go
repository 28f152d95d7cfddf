package fontload

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/npillmayer/schuko/tracing/gotestingadapter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/npillmayer/opentext/internal/fontbuild"
)

func TestFromBytes(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "font.opentype")
	defer teardown()
	//
	b := fontbuild.New()
	b.FamilyName, b.SubfamilyName = "Test Sans", "Bold"
	src, err := FromBytes(b.Build())
	require.NoError(t, err)
	require.Len(t, src.Members, 1)
	assert.Equal(t, "Test Sans", src.Members[0].Family)
	assert.Equal(t, "Bold", src.Members[0].Subfamily)
}

func TestCollection(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "font.opentype")
	defer teardown()
	//
	regular := fontbuild.New()
	italic := fontbuild.New()
	italic.SubfamilyName = "Italic"
	src, err := FromBytes(fontbuild.Collection(regular.Build(), italic.Build()))
	require.NoError(t, err)
	require.Len(t, src.Members, 2)
	assert.Equal(t, 1, src.Members[1].Index)
	assert.Equal(t, "Synthetic", src.Members[1].Family)
	assert.Equal(t, "Italic", src.Members[1].Subfamily)
}

func TestReadFile(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "font.opentype")
	defer teardown()
	//
	path := filepath.Join(t.TempDir(), "synthetic.ttf")
	require.NoError(t, os.WriteFile(path, fontbuild.New().Build(), 0o644))
	src, err := ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, path, src.Path)
	assert.Len(t, src.Members, 1)
	_, err = ReadFile(filepath.Join(t.TempDir(), "missing.ttf"))
	assert.Error(t, err)
	_, err = FromBytes([]byte("no font"))
	assert.Error(t, err)
}
