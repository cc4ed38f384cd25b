// Package favicon draws the site icons: a navy square with a white initial.
package favicon

import (
	"bytes"
	"fmt"
	"image/color"

	"github.com/fogleman/gg"
	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gobold"
)

// Icon is one file to emit.
type Icon struct {
	Name string
	Size int
}

// Icons lists every favicon the site references.
var Icons = []Icon{
	{Name: "favicon-16x16.png", Size: 16},
	{Name: "favicon-32x32.png", Size: 32},
	{Name: "favicon-48x48.png", Size: 48},
	{Name: "apple-touch-icon.png", Size: 180},
	{Name: "android-chrome-192x192.png", Size: 192},
	{Name: "android-chrome-512x512.png", Size: 512},
}

// Brand colors.
var (
	Navy  = color.NRGBA{R: 0x00, G: 0x33, B: 0x66, A: 0xff}
	White = color.NRGBA{R: 0xff, G: 0xff, B: 0xff, A: 0xff}
)

// File is a rendered icon.
type File struct {
	Name string
	Data []byte
}

// Generator renders icons. The zero value is not usable; call New.
type Generator struct {
	font   *truetype.Font
	letter string
}

// New returns a Generator drawing letter in the bundled Go Bold font.
func New(letter string) (*Generator, error) {
	if letter == "" {
		return nil, fmt.Errorf("favicon letter is empty")
	}
	f, err := truetype.Parse(gobold.TTF)
	if err != nil {
		return nil, fmt.Errorf("failed to parse TTF: %w", err)
	}
	return &Generator{font: f, letter: letter}, nil
}

// Render draws a single icon of size×size pixels and encodes it as PNG.
func (g *Generator) Render(size int) ([]byte, error) {
	if size <= 0 {
		return nil, fmt.Errorf("invalid favicon size %d", size)
	}
	s := float64(size)

	dc := gg.NewContext(size, size)
	dc.SetColor(Navy)
	dc.DrawRectangle(0, 0, s, s)
	dc.Fill()

	face := truetype.NewFace(g.font, &truetype.Options{
		Size:    s * 0.7,
		DPI:     72,
		Hinting: font.HintingNone,
	})
	defer face.Close()

	dc.SetFontFace(face)
	dc.SetColor(White)
	dc.DrawStringAnchored(g.letter, s/2, s/2, 0.5, 0.35)

	var buf bytes.Buffer
	if err := dc.EncodePNG(&buf); err != nil {
		return nil, fmt.Errorf("failed to encode PNG: %w", err)
	}
	return buf.Bytes(), nil
}

// All renders every entry in Icons, in order.
func (g *Generator) All() ([]File, error) {
	files := make([]File, 0, len(Icons))
	for _, icon := range Icons {
		data, err := g.Render(icon.Size)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", icon.Name, err)
		}
		files = append(files, File{Name: icon.Name, Data: data})
	}
	return files, nil
}
