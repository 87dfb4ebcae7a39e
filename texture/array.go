// Package texture holds the CPU side of the block texture array: same-size
// RGBA layers addressed by index, a builder that assigns layer indices by
// name, and a sampler that mirrors the GPU fragment stage lookup.
package texture

import (
	"errors"
	"fmt"
	"image"
	"image/color"
)

// Texture array errors.
var (
	// ErrSizeMismatch is returned when a layer differs in size from the first.
	ErrSizeMismatch = errors.New("texture: layer size mismatch")

	// ErrDuplicateName is returned when a layer name is added twice.
	ErrDuplicateName = errors.New("texture: duplicate layer name")

	// ErrTooManyLayers is returned when the array would exceed MaxLayers.
	ErrTooManyLayers = errors.New("texture: too many layers")

	// ErrNoLayers is returned when building an empty array.
	ErrNoLayers = errors.New("texture: no layers")

	// ErrUnknownName is returned by Index for a name that was never added.
	ErrUnknownName = errors.New("texture: unknown layer name")

	// ErrEmptyImage is returned for zero-sized layers.
	ErrEmptyImage = errors.New("texture: empty image")
)

// MaxLayers is the WebGPU default limit on texture array layers.
const MaxLayers = 256

// BytesPerPixel is the size of one RGBA8 texel.
const BytesPerPixel = 4

// Array is an immutable stack of same-size RGBA layers. Layer i is what
// tex_idx == i selects in the fragment stage.
type Array struct {
	width, height int
	layers        []*image.NRGBA
	names         []string
	index         map[string]uint32
}

// NewArray builds an array from images that all share one size. Names are
// generated as "layer<i>".
func NewArray(layers ...image.Image) (*Array, error) {
	b := NewBuilder()
	for i, img := range layers {
		if err := b.Add(fmt.Sprintf("layer%d", i), img); err != nil {
			return nil, err
		}
	}
	return b.Build()
}

// Solid returns a w x h layer filled with c.
func Solid(w, h int, c color.Color) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	nc := color.NRGBAModel.Convert(c).(color.NRGBA)
	for i := 0; i < len(img.Pix); i += BytesPerPixel {
		img.Pix[i+0] = nc.R
		img.Pix[i+1] = nc.G
		img.Pix[i+2] = nc.B
		img.Pix[i+3] = nc.A
	}
	return img
}

// Width returns the layer width in texels.
func (a *Array) Width() int { return a.width }

// Height returns the layer height in texels.
func (a *Array) Height() int { return a.height }

// Len returns the number of layers.
func (a *Array) Len() int { return len(a.layers) }

// Layer returns layer i. The image must not be modified.
func (a *Array) Layer(i int) *image.NRGBA { return a.layers[i] }

// Name returns the name layer i was added under.
func (a *Array) Name(i int) string { return a.names[i] }

// Index returns the layer index assigned to name.
func (a *Array) Index(name string) (uint32, error) {
	idx, ok := a.index[name]
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrUnknownName, name)
	}
	return idx, nil
}

// Names returns the layer names in index order.
func (a *Array) Names() []string {
	return append([]string(nil), a.names...)
}

// LayerBytes returns the tightly packed RGBA8 rows of layer i, ready for a
// texture upload with BytesPerRow = Width()*4.
func (a *Array) LayerBytes(i int) []byte {
	return a.layers[i].Pix
}

// At returns texel (x, y) of layer i without filtering.
func (a *Array) At(i, x, y int) color.NRGBA {
	return a.layers[i].NRGBAAt(x, y)
}
