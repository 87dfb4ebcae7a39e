//go:build !nogpu

package main

import (
	"path/filepath"
	"testing"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal/noop"

	"github.com/gogpu/voxel/gpu"
	"github.com/gogpu/voxel/raster"
)

func TestRenderOnHeadlessDevice(t *testing.T) {
	dev, err := gpu.OpenBackend(noop.API{})
	if err != nil {
		t.Fatalf("OpenBackend: %v", err)
	}
	defer dev.Close()

	s, err := loadScene("")
	if err != nil {
		t.Fatalf("loadScene: %v", err)
	}
	img, adapter, err := renderOn(dev, s)
	if err != nil {
		t.Fatalf("renderOn: %v", err)
	}
	if b := img.Bounds(); b.Dx() != s.Width || b.Dy() != s.Height {
		t.Errorf("bounds = %v, want %dx%d", b, s.Width, s.Height)
	}
	if adapter != "Noop Adapter" {
		t.Errorf("adapter = %q", adapter)
	}
}

func TestCullMode(t *testing.T) {
	tests := []struct {
		in   raster.CullMode
		want gputypes.CullMode
	}{
		{raster.CullNone, gputypes.CullModeNone},
		{raster.CullBack, gputypes.CullModeBack},
		{raster.CullFront, gputypes.CullModeFront},
	}
	for _, tt := range tests {
		if got := cullMode(tt.in); got != tt.want {
			t.Errorf("cullMode(%v) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestRenderJobGPUFallsBack(t *testing.T) {
	// Without a usable adapter the job still produces a CPU frame.
	job := renderJob{output: filepath.Join(t.TempDir(), "gpu.png"), gpu: true}
	if _, err := job.run(); err != nil {
		t.Fatalf("run -gpu: %v", err)
	}
}
