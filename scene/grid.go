// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package scene produces block face instances from a world of unit blocks
// and loads complete scenes (camera, textures, blocks) from TOML files.
//
// A block at Cell c occupies [c, c+1] on every axis. Only faces whose
// neighbouring cell is empty are emitted, one voxel.Instance each.
package scene

import (
	"cmp"
	"fmt"
	"math"
	"slices"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/gogpu/voxel"
	"github.com/gogpu/voxel/texture"
)

// Cell is an integer block position.
type Cell [3]int

// Add returns c offset by d.
func (c Cell) Add(d [3]int) Cell {
	return Cell{c[0] + d[0], c[1] + d[1], c[2] + d[2]}
}

// Center returns the centre of the block at c.
func (c Cell) Center() mgl32.Vec3 {
	return mgl32.Vec3{float32(c[0]) + 0.5, float32(c[1]) + 0.5, float32(c[2]) + 0.5}
}

// Contains reports whether p lies inside the block at c, bounds included.
func (c Cell) Contains(p mgl32.Vec3) bool {
	for i := range 3 {
		lo := float32(c[i])
		if p[i] < lo || p[i] > lo+1 {
			return false
		}
	}
	return true
}

// CellAt returns the cell whose block contains p.
func CellAt(p mgl32.Vec3) Cell {
	return Cell{
		int(math.Floor(float64(p[0]))),
		int(math.Floor(float64(p[1]))),
		int(math.Floor(float64(p[2]))),
	}
}

// compareCells orders by z, then y, then x.
func compareCells(a, b Cell) int {
	if c := cmp.Compare(a[2], b[2]); c != 0 {
		return c
	}
	if c := cmp.Compare(a[1], b[1]); c != 0 {
		return c
	}
	return cmp.Compare(a[0], b[0])
}

// Grid is a sparse set of blocks, each naming the texture layer drawn on
// all of its faces. The zero value is not usable; call NewGrid.
type Grid struct {
	blocks map[Cell]string
}

// NewGrid returns an empty grid.
func NewGrid() *Grid {
	return &Grid{blocks: make(map[Cell]string)}
}

// Set places a block textured with the named layer at c, replacing any
// block already there.
func (g *Grid) Set(c Cell, textureName string) {
	g.blocks[c] = textureName
}

// Remove deletes the block at c.
func (g *Grid) Remove(c Cell) {
	delete(g.blocks, c)
}

// Texture returns the layer name of the block at c.
func (g *Grid) Texture(c Cell) (string, bool) {
	name, ok := g.blocks[c]
	return name, ok
}

// Has reports whether a block occupies c.
func (g *Grid) Has(c Cell) bool {
	_, ok := g.blocks[c]
	return ok
}

// Len returns the number of blocks.
func (g *Grid) Len() int { return len(g.blocks) }

// Cells returns the occupied cells ordered by z, y, x.
func (g *Grid) Cells() []Cell {
	cells := make([]Cell, 0, len(g.blocks))
	for c := range g.blocks {
		cells = append(cells, c)
	}
	slices.SortFunc(cells, compareCells)
	return cells
}

// Exposed reports whether face f of the block at c is visible, that is the
// block exists and the neighbouring cell across f is empty.
func (g *Grid) Exposed(c Cell, f voxel.Face) bool {
	return g.Has(c) && !g.Has(c.Add(f.Offset()))
}

// ExposedFaces returns the visible faces of the block at c in face order.
func (g *Grid) ExposedFaces(c Cell) []voxel.Face {
	if !g.Has(c) {
		return nil
	}
	var faces []voxel.Face
	for _, f := range voxel.Faces() {
		if !g.Has(c.Add(f.Offset())) {
			faces = append(faces, f)
		}
	}
	return faces
}

// Instances emits one instance per exposed face, in Cells order and face
// order within a block. Texture names are resolved against textures.
func (g *Grid) Instances(textures *texture.Array) ([]voxel.Instance, error) {
	if textures == nil {
		return nil, voxel.ErrNoTextures
	}
	var out []voxel.Instance
	for _, c := range g.Cells() {
		faces := g.ExposedFaces(c)
		if len(faces) == 0 {
			continue
		}
		name := g.blocks[c]
		layer, err := textures.Index(name)
		if err != nil {
			return nil, fmt.Errorf("block %v: %w", c, err)
		}
		center := c.Center()
		for _, f := range faces {
			out = append(out, voxel.NewInstance(center, layer, f))
		}
	}
	voxel.Logger().Debug("scene: instances generated", "blocks", len(g.blocks), "faces", len(out))
	return out, nil
}

// Raycast walks the ray from origin along dir for at most maxDist and
// returns the first occupied cell it enters, along with the face it
// entered through. A ray starting inside a block hits that block with
// ok true and the face opposite to the main direction of travel.
func (g *Grid) Raycast(origin, dir mgl32.Vec3, maxDist float32) (hit Cell, face voxel.Face, ok bool) {
	if dir.Len() == 0 || maxDist <= 0 {
		return Cell{}, 0, false
	}
	dir = dir.Normalize()
	c := CellAt(origin)

	var step [3]int
	var tMax, tDelta [3]float64
	for i := range 3 {
		d := float64(dir[i])
		o := float64(origin[i])
		switch {
		case d > 0:
			step[i] = 1
			tMax[i] = (float64(c[i]+1) - o) / d
			tDelta[i] = 1 / d
		case d < 0:
			step[i] = -1
			tMax[i] = (float64(c[i]) - o) / d
			tDelta[i] = -1 / d
		default:
			tMax[i] = math.Inf(1)
			tDelta[i] = math.Inf(1)
		}
	}

	entered := dominantEntryFace(dir)
	for t := 0.0; t <= float64(maxDist); {
		if g.Has(c) {
			return c, entered, true
		}
		axis := 0
		if tMax[1] < tMax[axis] {
			axis = 1
		}
		if tMax[2] < tMax[axis] {
			axis = 2
		}
		t = tMax[axis]
		tMax[axis] += tDelta[axis]
		c[axis] += step[axis]
		entered = entryFace(axis, step[axis])
	}
	return Cell{}, 0, false
}

// entryFace is the face of the new cell crossed when stepping along axis.
func entryFace(axis, step int) voxel.Face {
	switch axis {
	case 0:
		if step > 0 {
			return voxel.FaceNegX
		}
		return voxel.FacePosX
	case 1:
		if step > 0 {
			return voxel.FaceNegY
		}
		return voxel.FacePosY
	default:
		if step > 0 {
			return voxel.FaceNegZ
		}
		return voxel.FacePosZ
	}
}

func dominantEntryFace(dir mgl32.Vec3) voxel.Face {
	axis := 0
	for i := 1; i < 3; i++ {
		if abs32(dir[i]) > abs32(dir[axis]) {
			axis = i
		}
	}
	step := 1
	if dir[axis] < 0 {
		step = -1
	}
	return entryFace(axis, step)
}

func abs32(f float32) float32 {
	if f < 0 {
		return -f
	}
	return f
}
