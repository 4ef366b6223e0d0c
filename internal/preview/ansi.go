// Package preview renders cached card images as half-block ANSI art.
package preview

import (
	"fmt"
	"image"
	"image/color"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"strings"

	"github.com/lucasb-eyer/go-colorful"
	"github.com/nfnt/resize"

	"github.com/arcanaland/arkhamproxy/internal/cache"
)

// Size is the art size in terminal cells.
type Size struct {
	Width  int
	Height int
}

// DefaultSize fits a portrait card in a typical terminal.
var DefaultSize = Size{Width: 32, Height: 22}

// Renderer converts images to ANSI art and keeps the results in the Previews namespace.
type Renderer struct {
	store *cache.Store
	size  Size
	// TrueColor emits 24-bit escapes; without it only the glyphs are written.
	TrueColor bool
}

// NewRenderer returns a Renderer producing art of the given size.
func NewRenderer(store *cache.Store, size Size) *Renderer {
	if size.Width < 1 || size.Height < 1 {
		size = DefaultSize
	}
	return &Renderer{store: store, size: size, TrueColor: true}
}

func (r *Renderer) key(cardID string) string {
	mode := "tc"
	if !r.TrueColor {
		mode = "plain"
	}
	return fmt.Sprintf("%s-%dx%d-%s.ansi", cardID, r.size.Width, r.size.Height, mode)
}

// Render returns ANSI art for the image at imagePath, reusing a cached
// rendering for cardID when one exists. Cache write failures are ignored.
func (r *Renderer) Render(cardID, imagePath string) (string, error) {
	key := r.key(cardID)
	if data, err := r.store.Read(cache.Previews, key); err == nil {
		return string(data), nil
	}

	file, err := os.Open(imagePath)
	if err != nil {
		return "", fmt.Errorf("failed to open image: %w", err)
	}
	defer file.Close()

	img, _, err := image.Decode(file)
	if err != nil {
		return "", fmt.Errorf("failed to decode image: %w", err)
	}

	art := ImageToAnsi(img, r.size.Width, r.size.Height, r.TrueColor)
	_ = r.store.Write(cache.Previews, key, []byte(art))
	return art, nil
}

// ImageToAnsi converts an image to width x height cells of upper half blocks.
// Each cell covers 2x4 pixels of the resized image: the top two rows set the
// foreground, the bottom two the background.
func ImageToAnsi(img image.Image, width, height int, trueColor bool) string {
	resized := resize.Resize(uint(width*2), uint(height*4), img, resize.Lanczos3)

	var buffer strings.Builder
	for y := 0; y < height*4; y += 4 {
		for x := 0; x < width*2; x += 2 {
			// top half is the foreground, bottom half the background
			upper := averageColor(
				colorAt(resized, x, y), colorAt(resized, x+1, y),
				colorAt(resized, x, y+1), colorAt(resized, x+1, y+1))
			lower := averageColor(
				colorAt(resized, x, y+2), colorAt(resized, x+1, y+2),
				colorAt(resized, x, y+3), colorAt(resized, x+1, y+3))

			buffer.WriteString(cell('▀', toRGBA(upper), toRGBA(lower), trueColor))
		}
		buffer.WriteString("\n")
	}
	return buffer.String()
}

// colorAt returns the color at x, y, or black outside the image.
func colorAt(img image.Image, x, y int) colorful.Color {
	b := img.Bounds()
	var c color.Color = color.RGBA{0, 0, 0, 255}
	if x >= b.Min.X && x < b.Max.X && y >= b.Min.Y && y < b.Max.Y {
		c = img.At(b.Min.X+x, b.Min.Y+y)
	}
	col, _ := colorful.MakeColor(c)
	return col
}

func averageColor(colors ...colorful.Color) colorful.Color {
	var r, g, b float64
	for _, c := range colors {
		r += c.R
		g += c.G
		b += c.B
	}
	n := float64(len(colors))
	return colorful.Color{R: r / n, G: g / n, B: b / n}
}

func toRGBA(c colorful.Color) color.RGBA {
	r, g, b := c.Clamped().RGB255()
	return color.RGBA{R: r, G: g, B: b, A: 255}
}

func cell(char rune, fg, bg color.RGBA, trueColor bool) string {
	if !trueColor {
		return string(char)
	}
	return fmt.Sprintf("\x1b[38;2;%d;%d;%dm\x1b[48;2;%d;%d;%dm%c\x1b[0m",
		fg.R, fg.G, fg.B, bg.R, bg.G, bg.B, char)
}

// StripAnsi removes ANSI escape sequences from a string
func StripAnsi(s string) string {
	var result strings.Builder
	inEscape := false
	for _, c := range s {
		if inEscape {
			if c == 'm' {
				inEscape = false
			}
		} else if c == '\033' {
			inEscape = true
		} else {
			result.WriteRune(c)
		}
	}
	return result.String()
}
