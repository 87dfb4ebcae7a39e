package texture

import (
	"image/color"
	"math"
)

// Filter selects how texels are combined when sampling.
type Filter uint8

const (
	// Nearest selects the texel containing the sample point.
	Nearest Filter = iota

	// Linear blends the four nearest texel centres.
	Linear
)

// String returns a string representation of the filter.
func (f Filter) String() string {
	switch f {
	case Nearest:
		return "nearest"
	case Linear:
		return "linear"
	default:
		return "unknown"
	}
}

// ParseFilter parses "nearest" or "linear".
func ParseFilter(s string) (Filter, bool) {
	switch s {
	case "nearest":
		return Nearest, true
	case "linear", "bilinear":
		return Linear, true
	}
	return Nearest, false
}

// Sampler samples one layer of an Array at normalized coordinates with
// clamp-to-edge addressing. (0, 0) is the top-left of the layer.
type Sampler struct {
	Filter Filter
}

// Sample returns the raw colour of layer at (u, v), alpha included.
// A layer outside the array reads as transparent black, the robust-access
// result WebGPU allows for out-of-bounds array layers.
func (s Sampler) Sample(a *Array, layer uint32, u, v float32) color.NRGBA {
	if a == nil || int64(layer) >= int64(a.Len()) {
		return color.NRGBA{}
	}
	if s.Filter == Linear {
		return sampleLinear(a, int(layer), float64(u), float64(v))
	}
	return sampleNearest(a, int(layer), float64(u), float64(v))
}

func sampleNearest(a *Array, layer int, u, v float64) color.NRGBA {
	x := clamp(int(math.Floor(u*float64(a.width))), 0, a.width-1)
	y := clamp(int(math.Floor(v*float64(a.height))), 0, a.height-1)
	return a.At(layer, x, y)
}

func sampleLinear(a *Array, layer int, u, v float64) color.NRGBA {
	fx := u*float64(a.width) - 0.5
	fy := v*float64(a.height) - 0.5

	x0 := int(math.Floor(fx))
	y0 := int(math.Floor(fy))
	tx := fx - float64(x0)
	ty := fy - float64(y0)

	x1 := clamp(x0+1, 0, a.width-1)
	y1 := clamp(y0+1, 0, a.height-1)
	x0 = clamp(x0, 0, a.width-1)
	y0 = clamp(y0, 0, a.height-1)

	c00 := a.At(layer, x0, y0)
	c10 := a.At(layer, x1, y0)
	c01 := a.At(layer, x0, y1)
	c11 := a.At(layer, x1, y1)

	return color.NRGBA{
		R: lerp2D(c00.R, c10.R, c01.R, c11.R, tx, ty),
		G: lerp2D(c00.G, c10.G, c01.G, c11.G, tx, ty),
		B: lerp2D(c00.B, c10.B, c01.B, c11.B, tx, ty),
		A: lerp2D(c00.A, c10.A, c01.A, c11.A, tx, ty),
	}
}

func lerp2D(c00, c10, c01, c11 uint8, tx, ty float64) uint8 {
	top := float64(c00) + (float64(c10)-float64(c00))*tx
	bottom := float64(c01) + (float64(c11)-float64(c01))*tx
	return uint8(math.Round(top + (bottom-top)*ty))
}

func clamp(v, lo, hi int) int {
	return min(max(v, lo), hi)
}
