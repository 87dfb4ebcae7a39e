//go:build nogpu

package main

import (
	"errors"
	"image"

	"github.com/gogpu/voxel/scene"
)

func renderGPU(*scene.Scene) (*image.NRGBA, string, error) {
	return nil, "", errors.New("built with the nogpu tag")
}
