// Command voxelview renders a block scene to a PNG file, on the CPU or on
// a headless GPU device, or prints the block face shader translated for a
// GPU backend.
//
// Usage:
//
//	voxelview -scene world.toml -o world.png
//	voxelview -scene world.toml -o world.png -watch -workers 8
//	voxelview -scene world.toml -o world.png -gpu -debug
//	voxelview -emit msl > block_face.metal
package main

import (
	"bytes"
	"context"
	"flag"
	"fmt"
	"image"
	"image/png"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"strings"

	"github.com/gogpu/voxel"
	"github.com/gogpu/voxel/internal/gpu"
	"github.com/gogpu/voxel/internal/overlay"
	"github.com/gogpu/voxel/raster"
	"github.com/gogpu/voxel/scene"
)

// demoScene is rendered when no scene file is given: a generated chunk seen
// from above one corner.
const demoScene = `
[viewport]
width = 800
height = 600

[camera]
eye = [-6.0, -6.0, 6.0]
target = [8.0, 8.0, -2.0]
up = [0.0, 0.0, 1.0]

[[textures.layer]]
name = "dirt"
color = "#8b5a2b"

[[textures.layer]]
name = "stone"
color = "#8a8a8a"

[[chunk]]
origin = [0, 0]
seed = 1
fill_height = 4
bottom_depth = -6

[[block]]
pos = [8, 8, -1]
texture = "stone"
`

func main() {
	var (
		scenePath = flag.String("scene", "", "scene file (TOML); the built-in demo when empty")
		output    = flag.String("o", "voxel.png", "output file; \"-\" writes to stdout")
		emit      = flag.String("emit", "", "print the shader instead of rendering: "+targetList())
		verbose   = flag.Bool("v", false, "enable debug logging")
		workers   = flag.Int("workers", 0, "render in this many parallel row bands; overrides the scene")
		watchMode = flag.Bool("watch", false, "re-render whenever the scene file or its textures change")
		useGPU    = flag.Bool("gpu", false, "render on a headless GPU device, falling back to the CPU")
		debug     = flag.Bool("debug", false, "draw camera and frame statistics over the image")
	)
	flag.Parse()

	if *verbose {
		voxel.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug})))
	}

	if *emit != "" {
		if err := emitShader(*emit, *output); err != nil {
			log.Fatalf("emit: %v", err)
		}
		return
	}

	job := renderJob{scenePath: *scenePath, output: *output, workers: *workers, gpu: *useGPU, debug: *debug}
	s, err := job.run()
	if err != nil {
		log.Fatal(err)
	}
	if !*watchMode {
		return
	}
	if *scenePath == "" {
		log.Fatal("-watch needs -scene")
	}
	sw, err := newSceneWatcher(*scenePath, *output, s.SourceDirs())
	if err != nil {
		log.Fatalf("watch: %v", err)
	}
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	if err := sw.run(ctx, func() []string {
		s, err := job.run()
		if err != nil {
			log.Printf("render: %v", err)
			return nil
		}
		return s.SourceDirs()
	}); err != nil {
		log.Fatalf("watch: %v", err)
	}
}

// renderJob is one scene to PNG conversion.
type renderJob struct {
	scenePath string
	output    string
	workers   int
	gpu       bool
	debug     bool
}

// frame is a rendered image and how it was produced.
type frame struct {
	img     *image.NRGBA
	backend string
	// stats is nil for GPU frames.
	stats *raster.Stats
}

func (j renderJob) run() (*scene.Scene, error) {
	s, err := loadScene(j.scenePath)
	if err != nil {
		return nil, fmt.Errorf("failed to load scene: %w", err)
	}
	if j.workers > 0 {
		s.Workers = j.workers
	}
	f, err := j.render(s)
	if err != nil {
		return nil, fmt.Errorf("failed to render: %w", err)
	}
	if j.debug {
		if err := drawDebug(f, s); err != nil {
			return nil, fmt.Errorf("failed to draw overlay: %w", err)
		}
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, f.img); err != nil {
		return nil, fmt.Errorf("failed to encode: %w", err)
	}
	if err := writeOutput(j.output, buf.Bytes()); err != nil {
		return nil, fmt.Errorf("failed to save: %w", err)
	}

	if f.stats != nil {
		log.Printf("Rendered %d faces to %s (%dx%d, %s, %d triangles, %d culled, %d fragments)\n",
			len(s.Instances), j.output, s.Width, s.Height, f.backend, f.stats.Triangles, f.stats.Culled, f.stats.Fragments)
	} else {
		log.Printf("Rendered %d faces to %s (%dx%d, %s)\n", len(s.Instances), j.output, s.Width, s.Height, f.backend)
	}
	return s, nil
}

// render draws s on the GPU when asked and possible, otherwise on the CPU.
func (j renderJob) render(s *scene.Scene) (frame, error) {
	if j.gpu {
		img, adapter, err := renderGPU(s)
		if err == nil {
			return frame{img: img, backend: "gpu " + adapter}, nil
		}
		log.Printf("GPU unavailable, rendering on the CPU: %v", err)
	}
	target, stats, err := s.Render()
	if err != nil {
		return frame{}, err
	}
	return frame{img: target.Color, backend: "cpu", stats: &stats}, nil
}

// drawDebug draws the debug panel in the top-left corner of f.
func drawDebug(f frame, s *scene.Scene) error {
	o, err := overlay.New(overlay.DefaultSize)
	if err != nil {
		return err
	}
	_, err = o.Draw(f.img, image.Pt(8, 8), debugLines(f, s))
	return err
}

func debugLines(f frame, s *scene.Scene) []string {
	lines := []string{
		"Debug View",
		fmt.Sprintf("Camera pos: (%.2f, %.2f, %.2f)", s.Eye[0], s.Eye[1], s.Eye[2]),
		fmt.Sprintf("Camera forward: (%.2f, %.2f, %.2f)", s.Forward[0], s.Forward[1], s.Forward[2]),
		fmt.Sprintf("Instances: %d", len(s.Instances)),
	}
	if f.stats != nil {
		lines = append(lines, fmt.Sprintf("Triangles: %d  Culled: %d  Rejected: %d  Fragments: %d",
			f.stats.Triangles, f.stats.Culled, f.stats.Rejected, f.stats.Fragments))
	}
	return append(lines, "Renderer: "+f.backend)
}

func loadScene(path string) (*scene.Scene, error) {
	if path != "" {
		return scene.Load(path)
	}
	cfg, err := scene.Parse(strings.NewReader(demoScene))
	if err != nil {
		return nil, err
	}
	return cfg.Build(".")
}

func emitShader(name, output string) error {
	target, err := gpu.ParseTarget(name)
	if err != nil {
		return err
	}
	out, err := gpu.Translate(target)
	if err != nil {
		return err
	}
	// The PNG default makes no sense for shader text.
	if output == "voxel.png" {
		output = "-"
	}
	return writeOutput(output, out)
}

func writeOutput(path string, data []byte) error {
	if path == "-" {
		_, err := os.Stdout.Write(data)
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

func targetList() string {
	names := make([]string, 0, len(gpu.Targets()))
	for _, t := range gpu.Targets() {
		names = append(names, string(t))
	}
	return strings.Join(names, "|")
}
