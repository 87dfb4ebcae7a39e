package texture

import (
	"fmt"
	"image"

	"golang.org/x/image/draw"
)

// Builder assigns layer indices to named images in insertion order and
// produces an Array. All layers must share the size of the first one
// unless a target size is set with Resize.
type Builder struct {
	width, height int
	resize        bool
	scaler        draw.Scaler
	layers        []*image.NRGBA
	names         []string
	index         map[string]uint32
}

// NewBuilder returns an empty builder.
func NewBuilder() *Builder {
	return &Builder{index: make(map[string]uint32)}
}

// Resize makes the builder scale every layer to w x h with s instead of
// rejecting mismatched sizes. A nil scaler selects nearest neighbour,
// which keeps block art crisp.
func (b *Builder) Resize(w, h int, s draw.Scaler) *Builder {
	if s == nil {
		s = draw.NearestNeighbor
	}
	b.width, b.height = w, h
	b.resize = true
	b.scaler = s
	return b
}

// Len returns the number of layers added so far.
func (b *Builder) Len() int { return len(b.layers) }

// Add appends img as the next layer under name and returns its index
// through Index once built.
func (b *Builder) Add(name string, img image.Image) error {
	if _, dup := b.index[name]; dup {
		return fmt.Errorf("%w: %q", ErrDuplicateName, name)
	}
	if len(b.layers) >= MaxLayers {
		return fmt.Errorf("%w: limit %d", ErrTooManyLayers, MaxLayers)
	}
	bounds := img.Bounds()
	if bounds.Empty() {
		return fmt.Errorf("%w: %q", ErrEmptyImage, name)
	}

	var layer *image.NRGBA
	switch {
	case b.resize:
		layer = image.NewNRGBA(image.Rect(0, 0, b.width, b.height))
		b.scaler.Scale(layer, layer.Bounds(), img, bounds, draw.Src, nil)
	default:
		if len(b.layers) == 0 {
			b.width, b.height = bounds.Dx(), bounds.Dy()
		}
		if bounds.Dx() != b.width || bounds.Dy() != b.height {
			return fmt.Errorf("%w: %q is %dx%d, array is %dx%d",
				ErrSizeMismatch, name, bounds.Dx(), bounds.Dy(), b.width, b.height)
		}
		layer = toNRGBA(img)
	}

	b.index[name] = uint32(len(b.layers))
	b.layers = append(b.layers, layer)
	b.names = append(b.names, name)
	return nil
}

// Build returns the array. The builder may keep being used; later Adds do
// not affect arrays already built.
func (b *Builder) Build() (*Array, error) {
	if len(b.layers) == 0 {
		return nil, ErrNoLayers
	}
	index := make(map[string]uint32, len(b.index))
	for k, v := range b.index {
		index[k] = v
	}
	return &Array{
		width:  b.width,
		height: b.height,
		layers: append([]*image.NRGBA(nil), b.layers...),
		names:  append([]string(nil), b.names...),
		index:  index,
	}, nil
}

// toNRGBA returns img as a tightly packed NRGBA with origin (0, 0).
func toNRGBA(img image.Image) *image.NRGBA {
	bounds := img.Bounds()
	if n, ok := img.(*image.NRGBA); ok && bounds.Min == (image.Point{}) && n.Stride == bounds.Dx()*BytesPerPixel {
		out := image.NewNRGBA(bounds)
		copy(out.Pix, n.Pix)
		return out
	}
	out := image.NewNRGBA(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
	draw.Draw(out, out.Bounds(), img, bounds.Min, draw.Src)
	return out
}
