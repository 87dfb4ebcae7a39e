// Package overlay draws lines of debug text over a rendered frame.
//
// Text is shaped with go-text/typesetting and the glyph outlines are filled
// with golang.org/x/image/vector, so no GPU or system font is needed. The
// default face is Go Regular.
package overlay

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"math"

	"github.com/go-text/typesetting/di"
	"github.com/go-text/typesetting/font"
	"github.com/go-text/typesetting/language"
	"github.com/go-text/typesetting/shaping"
	xfont "golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/sfnt"
	"golang.org/x/image/math/fixed"
	"golang.org/x/image/vector"
)

// DefaultSize is the text size in pixels per em.
const DefaultSize = 16

// Default colors: white text on a translucent black panel.
var (
	DefaultText     = color.NRGBA{R: 255, G: 255, B: 255, A: 255}
	DefaultBackdrop = color.NRGBA{A: 160}
)

// Overlay draws text panels. It is not safe for concurrent use.
type Overlay struct {
	// Text and Backdrop are the glyph and panel colors.
	Text, Backdrop color.Color
	// Margin is the padding around the text, in pixels.
	Margin int

	face    *font.Face
	outline *sfnt.Font
	shaper  shaping.HarfbuzzShaper
	buf     sfnt.Buffer
	ppem    fixed.Int26_6
	metrics xfont.Metrics
}

// New returns an Overlay drawing Go Regular at size pixels per em.
func New(size float64) (*Overlay, error) {
	return NewFromTTF(goregular.TTF, size)
}

// NewFromTTF returns an Overlay for a TrueType or OpenType font.
func NewFromTTF(data []byte, size float64) (*Overlay, error) {
	if size <= 0 {
		return nil, fmt.Errorf("overlay: invalid size %g", size)
	}
	face, err := font.ParseTTF(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("overlay: parse font: %w", err)
	}
	outline, err := sfnt.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("overlay: parse outlines: %w", err)
	}
	o := &Overlay{
		Text:     DefaultText,
		Backdrop: DefaultBackdrop,
		Margin:   int(math.Ceil(size / 2)),
		face:     face,
		outline:  outline,
		ppem:     fixed.Int26_6(size * 64),
	}
	if o.metrics, err = outline.Metrics(&o.buf, o.ppem, xfont.HintingNone); err != nil {
		return nil, fmt.Errorf("overlay: font metrics: %w", err)
	}
	return o, nil
}

// LineHeight returns the distance between baselines in pixels.
func (o *Overlay) LineHeight() int {
	return o.metrics.Height.Ceil()
}

func (o *Overlay) shape(line string) []shaping.Glyph {
	runes := []rune(line)
	if len(runes) == 0 {
		return nil
	}
	out := o.shaper.Shape(shaping.Input{
		Text:      runes,
		RunStart:  0,
		RunEnd:    len(runes),
		Direction: di.DirectionLTR,
		Face:      o.face,
		Size:      o.ppem,
		Script:    language.Latin,
		Language:  language.NewLanguage("en"),
	})
	return out.Glyphs
}

// Measure returns the advance width of line in pixels.
func (o *Overlay) Measure(line string) int {
	var w fixed.Int26_6
	for _, g := range o.shape(line) {
		w += g.Advance
	}
	return w.Ceil()
}

// Bounds returns the panel Draw would fill for lines with its top-left
// corner at at, before clipping.
func (o *Overlay) Bounds(at image.Point, lines []string) image.Rectangle {
	if len(lines) == 0 {
		return image.Rectangle{Min: at, Max: at}
	}
	w := 0
	for _, l := range lines {
		w = max(w, o.Measure(l))
	}
	return image.Rect(0, 0, w+2*o.Margin, len(lines)*o.LineHeight()+2*o.Margin).Add(at)
}

// Draw fills a backdrop panel at at and draws lines on it, top to bottom.
// It returns the panel clipped to dst.
func (o *Overlay) Draw(dst draw.Image, at image.Point, lines []string) (image.Rectangle, error) {
	panel := o.Bounds(at, lines).Intersect(dst.Bounds())
	if panel.Empty() {
		return panel, nil
	}
	draw.Draw(dst, panel, image.NewUniform(o.Backdrop), image.Point{}, draw.Over)

	full := o.Bounds(at, lines)
	z := vector.NewRasterizer(full.Dx(), full.Dy())
	ascent := fixedToFloat(o.metrics.Ascent)
	for i, line := range lines {
		baseline := float32(o.Margin+i*o.LineHeight()) + ascent
		if err := o.addLine(z, float32(o.Margin), baseline, line); err != nil {
			return panel, err
		}
	}
	mask := image.NewAlpha(image.Rect(0, 0, full.Dx(), full.Dy()))
	z.Draw(mask, mask.Bounds(), image.Opaque, image.Point{})
	draw.DrawMask(dst, full, image.NewUniform(o.Text), image.Point{}, mask, image.Point{}, draw.Over)
	return panel, nil
}

// addLine adds the glyph outlines of line to z with the pen starting at
// (x, baseline).
func (o *Overlay) addLine(z *vector.Rasterizer, x, baseline float32, line string) error {
	for _, g := range o.shape(line) {
		segs, err := o.outline.LoadGlyph(&o.buf, sfnt.GlyphIndex(g.GlyphID), o.ppem, nil)
		if err != nil {
			return fmt.Errorf("overlay: glyph %d: %w", g.GlyphID, err)
		}
		gx := x + fixedToFloat(g.XOffset)
		gy := baseline - fixedToFloat(g.YOffset)
		pt := func(p fixed.Point26_6) (float32, float32) {
			return gx + fixedToFloat(p.X), gy + fixedToFloat(p.Y)
		}
		open := false
		for _, s := range segs {
			switch s.Op {
			case sfnt.SegmentOpMoveTo:
				if open {
					z.ClosePath()
				}
				z.MoveTo(pt(s.Args[0]))
				open = true
			case sfnt.SegmentOpLineTo:
				z.LineTo(pt(s.Args[0]))
			case sfnt.SegmentOpQuadTo:
				bx, by := pt(s.Args[0])
				cx, cy := pt(s.Args[1])
				z.QuadTo(bx, by, cx, cy)
			case sfnt.SegmentOpCubeTo:
				bx, by := pt(s.Args[0])
				cx, cy := pt(s.Args[1])
				dx, dy := pt(s.Args[2])
				z.CubeTo(bx, by, cx, cy, dx, dy)
			}
		}
		if open {
			z.ClosePath()
		}
		x += fixedToFloat(g.Advance)
	}
	return nil
}

func fixedToFloat(v fixed.Int26_6) float32 {
	return float32(v) / 64
}
