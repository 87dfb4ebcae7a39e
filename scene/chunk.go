// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package scene

import (
	"math/rand/v2"

	"github.com/gogpu/voxel"
)

// ChunkConfig describes a generated column of terrain.
type ChunkConfig struct {
	// Width is the chunk edge length in blocks along X and Y.
	Width int
	// FillHeight is the number of solid layers from the bottom.
	FillHeight int
	// ScatterRows is the number of layers above FillHeight where blocks
	// are scattered at random on top of existing ones.
	ScatterRows int
	// ScatterChance is the probability of a scattered block, in [0, 1].
	ScatterChance float64
	// BottomDepth is the Z of the lowest layer.
	BottomDepth int
	// Texture names the layer used for every block.
	Texture string
}

// DefaultChunkConfig returns a 16x16 chunk filled 126 blocks high from
// z = -128 with three scattered rows on top.
func DefaultChunkConfig() ChunkConfig {
	return ChunkConfig{
		Width:         16,
		FillHeight:    126,
		ScatterRows:   3,
		ScatterChance: 0.4,
		BottomDepth:   -128,
		Texture:       "dirt",
	}
}

// SurfaceZ returns the Z of the top of the solid fill.
func (c ChunkConfig) SurfaceZ() int {
	return c.BottomDepth + c.FillHeight
}

// GenerateChunk fills g with a chunk whose corner column is at
// (originX, originY). rng drives the scattered rows; a nil rng scatters
// nothing so the result is only the solid fill.
func GenerateChunk(g *Grid, originX, originY int, cfg ChunkConfig, rng *rand.Rand) {
	for i := range cfg.Width {
		for j := range cfg.Width {
			x, y := originX+i, originY+j
			for k := range cfg.FillHeight {
				g.Set(Cell{x, y, cfg.BottomDepth + k}, cfg.Texture)
			}
			if rng == nil {
				continue
			}
			for k := cfg.FillHeight; k < cfg.FillHeight+cfg.ScatterRows; k++ {
				// Scattered blocks only rest on blocks below them.
				if rng.Float64() >= cfg.ScatterChance {
					continue
				}
				below := Cell{x, y, cfg.BottomDepth + k - 1}
				if g.Has(below) {
					g.Set(Cell{x, y, cfg.BottomDepth + k}, cfg.Texture)
				}
			}
		}
	}
	voxel.Logger().Debug("scene: chunk generated",
		"origin_x", originX, "origin_y", originY, "blocks", g.Len())
}
