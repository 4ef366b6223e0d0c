// Package layout arranges card images on printable pages.
package layout

import (
	"fmt"
	"image"
	"image/color"
	"math"
	"os"
	"path/filepath"

	"github.com/disintegration/imaging"
	qrcode "github.com/skip2/go-qrcode"

	"github.com/arcanaland/arkhamproxy/internal/card"
	"github.com/arcanaland/arkhamproxy/internal/deck"
)

// Paper is a sheet size in millimetres.
type Paper struct {
	Name     string
	WidthMM  float64
	HeightMM float64
}

var (
	Letter = Paper{Name: "letter", WidthMM: 215.9, HeightMM: 279.4}
	A4     = Paper{Name: "a4", WidthMM: 210, HeightMM: 297}
)

// PaperByName returns the paper called name.
func PaperByName(name string) (Paper, error) {
	switch name {
	case "", Letter.Name:
		return Letter, nil
	case A4.Name:
		return A4, nil
	}
	return Paper{}, fmt.Errorf("unknown paper %q", name)
}

// Poker size card and a 3x3 grid.
const (
	CardWidthMM  = 63.0
	CardHeightMM = 88.0
	Columns      = 3
	Rows         = 3
	PerPage      = Columns * Rows
)

var (
	background  = color.NRGBA{R: 0xff, G: 0xff, B: 0xff, A: 0xff}
	placeholder = color.NRGBA{R: 0xdd, G: 0xdd, B: 0xdd, A: 0xff}
	border      = color.NRGBA{R: 0x88, G: 0x88, B: 0x88, A: 0xff}
)

// Slot is one card position on a sheet. An empty Image renders a placeholder.
type Slot struct {
	CardID string
	Image  string
}

// Plan expands entries by quantity into slots. When backs is set, a cached
// back image is placed right after its front.
func Plan(entries []deck.Entry, images map[string]*card.Record, backs bool) []Slot {
	var slots []Slot
	for _, e := range entries {
		rec := images[e.CardID]
		for i := 0; i < e.Quantity; i++ {
			if rec == nil {
				slots = append(slots, Slot{CardID: e.CardID})
				continue
			}
			slots = append(slots, Slot{CardID: e.CardID, Image: rec.Front})
			if backs && rec.HasBack() {
				slots = append(slots, Slot{CardID: e.CardID + card.BackSuffix, Image: rec.Back})
			}
		}
	}
	return slots
}

// Options controls page rendering.
type Options struct {
	Paper Paper
	DPI   int
	// QRText, when set, is encoded as a QR code in the bottom margin of the first page.
	QRText string
}

func (o Options) px(mm float64) int {
	return int(math.Round(mm / 25.4 * float64(o.DPI)))
}

// Render draws slots onto as many pages as needed.
func Render(slots []Slot, opts Options) ([]*image.NRGBA, error) {
	if opts.DPI <= 0 {
		return nil, fmt.Errorf("dpi must be positive")
	}
	if opts.Paper.WidthMM < CardWidthMM*Columns || opts.Paper.HeightMM < CardHeightMM*Rows {
		return nil, fmt.Errorf("paper %s is too small for a %dx%d grid", opts.Paper.Name, Columns, Rows)
	}

	pageW, pageH := opts.px(opts.Paper.WidthMM), opts.px(opts.Paper.HeightMM)
	cardW, cardH := opts.px(CardWidthMM), opts.px(CardHeightMM)
	marginX := (pageW - cardW*Columns) / 2
	marginY := (pageH - cardH*Rows) / 2

	var pages []*image.NRGBA
	for start := 0; start < len(slots); start += PerPage {
		end := min(start+PerPage, len(slots))
		page := imaging.New(pageW, pageH, background)

		for i, slot := range slots[start:end] {
			at := image.Pt(marginX+(i%Columns)*cardW, marginY+(i/Columns)*cardH)
			page = imaging.Paste(page, cardTile(slot, cardW, cardH), at)
		}

		if start == 0 && opts.QRText != "" {
			qr, err := qrTile(opts.QRText, marginY)
			if err != nil {
				return nil, err
			}
			if qr != nil {
				at := image.Pt((pageW-qr.Bounds().Dx())/2, pageH-marginY+(marginY-qr.Bounds().Dy())/2)
				page = imaging.Paste(page, qr, at)
			}
		}
		pages = append(pages, page)
	}
	return pages, nil
}

// cardTile loads a slot's image scaled to the card size, or draws a placeholder.
func cardTile(slot Slot, w, h int) image.Image {
	if slot.Image != "" {
		img, err := imaging.Open(slot.Image)
		if err == nil {
			// investigators are printed landscape
			if b := img.Bounds(); b.Dx() > b.Dy() {
				img = imaging.Rotate90(img)
			}
			return imaging.Fill(img, w, h, imaging.Center, imaging.Lanczos)
		}
	}
	return placeholderTile(w, h)
}

func placeholderTile(w, h int) image.Image {
	edge := max(1, w/100)
	tile := imaging.New(w, h, border)
	return imaging.Paste(tile, imaging.New(w-2*edge, h-2*edge, placeholder), image.Pt(edge, edge))
}

// qrTile returns a QR code that fits in a margin of the given height, or nil
// when the margin is too small to hold one.
func qrTile(text string, margin int) (image.Image, error) {
	size := margin * 4 / 5
	if size < 21 {
		return nil, nil
	}
	q, err := qrcode.New(text, qrcode.Medium)
	if err != nil {
		return nil, fmt.Errorf("encode qr code: %w", err)
	}
	img := q.Image(size)
	if img.Bounds().Dy() > margin {
		return nil, nil
	}
	return img, nil
}

// WritePages saves pages into dir as page-001.png, page-002.png and so on.
func WritePages(dir string, pages []*image.NRGBA) ([]string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create output directory: %w", err)
	}
	paths := make([]string, 0, len(pages))
	for i, page := range pages {
		p := filepath.Join(dir, fmt.Sprintf("page-%03d.png", i+1))
		if err := imaging.Save(page, p); err != nil {
			return paths, fmt.Errorf("save %s: %w", p, err)
		}
		paths = append(paths, p)
	}
	return paths, nil
}
