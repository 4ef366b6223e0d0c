package preview

import (
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arcanaland/arkhamproxy/internal/cache"
)

func solid(w, h int, c color.Color) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, c)
		}
	}
	return img
}

func TestImageToAnsi(t *testing.T) {
	art := ImageToAnsi(solid(40, 40, color.RGBA{R: 255, A: 255}), 4, 3, true)

	lines := strings.Split(strings.TrimRight(art, "\n"), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "▀▀▀▀", StripAnsi(lines[0]))
	assert.Contains(t, lines[0], "\x1b[38;2;255;0;0m")

	plain := ImageToAnsi(solid(40, 40, color.White), 4, 3, false)
	assert.Equal(t, "▀▀▀▀\n▀▀▀▀\n▀▀▀▀\n", plain)
}

func TestRendererCachesArt(t *testing.T) {
	dir := t.TempDir()
	imgPath := filepath.Join(dir, "01001.png")
	f, err := os.Create(imgPath)
	require.NoError(t, err)
	require.NoError(t, png.Encode(f, solid(20, 30, color.RGBA{G: 255, A: 255})))
	require.NoError(t, f.Close())

	store := cache.NewStoreFs(afero.NewMemMapFs(), "/cache")
	r := NewRenderer(store, Size{Width: 5, Height: 4})

	art, err := r.Render("01001", imgPath)
	require.NoError(t, err)
	assert.True(t, store.Exists(cache.Previews, "01001-5x4-tc.ansi"))

	// a cached rendering is served even after the source image is gone
	require.NoError(t, os.Remove(imgPath))
	again, err := r.Render("01001", imgPath)
	require.NoError(t, err)
	assert.Equal(t, art, again)

	_, err = r.Render("01002", imgPath)
	assert.Error(t, err)
}

func TestSideBySide(t *testing.T) {
	out := SideBySide("AB\nCD\n", []string{"Card: Roland"}, []string{"one two three"}, 80)
	lines := strings.Split(strings.Trim(out, "\n"), "\n")

	require.Len(t, lines, 3)
	assert.Equal(t, "  AB    Card: Roland", lines[0])
	assert.Equal(t, "  CD    ", lines[1])
	assert.Equal(t, "        one two three", lines[2])
}

func TestWrapText(t *testing.T) {
	assert.Equal(t, []string{""}, WrapText("   ", 20))
	assert.Equal(t, []string{"the quick brown", "fox jumps"}, WrapText("the quick brown fox jumps", 15))
}
