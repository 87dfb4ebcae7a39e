package overlay

import (
	"image"
	"image/color"
	"image/draw"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var background = color.NRGBA{R: 25, G: 51, B: 76, A: 255}

func filled(w, h int) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	draw.Draw(img, img.Bounds(), image.NewUniform(background), image.Point{}, draw.Src)
	return img
}

func TestNewRejectsBadInput(t *testing.T) {
	_, err := New(0)
	assert.Error(t, err)
	_, err = NewFromTTF([]byte("not a font"), 12)
	assert.Error(t, err)
}

func TestMeasure(t *testing.T) {
	o, err := New(DefaultSize)
	require.NoError(t, err)

	assert.Zero(t, o.Measure(""))
	short, long := o.Measure("Pos"), o.Measure("Camera pos: (1.00, 2.00, 3.00)")
	assert.Greater(t, short, 0)
	assert.Greater(t, long, short)
	assert.Greater(t, o.LineHeight(), DefaultSize/2)
}

func TestDrawWritesTextInsidePanel(t *testing.T) {
	o, err := New(DefaultSize)
	require.NoError(t, err)
	img := filled(320, 120)

	lines := []string{"Debug View", "Instances: 42"}
	at := image.Pt(4, 4)
	panel, err := o.Draw(img, at, lines)
	require.NoError(t, err)
	assert.Equal(t, o.Bounds(at, lines), panel)
	assert.Equal(t, 2*o.LineHeight()+2*o.Margin, panel.Dy())

	// Outside the panel nothing changes.
	assert.Equal(t, background, img.NRGBAAt(319, 119))

	// Inside, the backdrop darkens the frame and glyphs brighten it.
	var dark, bright int
	for y := panel.Min.Y; y < panel.Max.Y; y++ {
		for x := panel.Min.X; x < panel.Max.X; x++ {
			c := img.NRGBAAt(x, y)
			switch {
			case c.R > 200 && c.G > 200 && c.B > 200:
				bright++
			case c.R < background.R:
				dark++
			}
		}
	}
	assert.Greater(t, bright, 20, "no glyph pixels")
	assert.Greater(t, dark, bright, "backdrop missing")
}

func TestDrawClipsToTarget(t *testing.T) {
	o, err := New(DefaultSize)
	require.NoError(t, err)
	img := filled(40, 10)

	panel, err := o.Draw(img, image.Pt(-5, -5), []string{"clipped overlay text"})
	require.NoError(t, err)
	assert.Equal(t, img.Bounds(), panel)

	panel, err = o.Draw(img, image.Pt(100, 100), []string{"off target"})
	require.NoError(t, err)
	assert.True(t, panel.Empty())
}

func TestDrawNoLines(t *testing.T) {
	o, err := New(DefaultSize)
	require.NoError(t, err)
	img := filled(8, 8)
	panel, err := o.Draw(img, image.Pt(1, 1), nil)
	require.NoError(t, err)
	assert.True(t, panel.Empty())
	assert.Equal(t, background, img.NRGBAAt(1, 1))
}
