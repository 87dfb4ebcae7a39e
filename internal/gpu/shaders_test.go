package gpu

import (
	"bytes"
	"errors"
	"regexp"
	"strconv"
	"strings"
	"testing"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/gogpu/voxel"
)

// skipUnsupported skips t when naga reports a backend feature gap.
func skipUnsupported(t *testing.T, err error) {
	t.Helper()
	msg := err.Error()
	if strings.Contains(msg, "not yet implemented") || strings.Contains(msg, "not supported") {
		t.Skipf("Skipping: naga feature not yet implemented: %v", err)
	}
}

func TestBlockFaceShaderValidates(t *testing.T) {
	if _, err := lowerShader(); err != nil {
		skipUnsupported(t, err)
		t.Fatalf("block_face shader failed validation: %v", err)
	}
}

func TestBlockFaceShaderCompilesToSPIRV(t *testing.T) {
	spirv, err := CompileSPIRV()
	if err != nil {
		skipUnsupported(t, err)
		t.Fatalf("CompileSPIRV: %v", err)
	}
	if len(spirv) < 20 || len(spirv)%4 != 0 {
		t.Fatalf("SPIR-V length = %d, want a non-empty multiple of 4", len(spirv))
	}
	// SPIR-V magic number, little endian.
	if !bytes.Equal(spirv[:4], []byte{0x03, 0x02, 0x23, 0x07}) {
		t.Errorf("SPIR-V magic = % x", spirv[:4])
	}
}

func TestReflectShader(t *testing.T) {
	info, err := ReflectShader()
	if err != nil {
		skipUnsupported(t, err)
		t.Fatalf("ReflectShader: %v", err)
	}
	if len(info.VertexEntryPoints) != 1 || info.VertexEntryPoints[0] != VertexEntryPoint {
		t.Errorf("vertex entry points = %v, want [%s]", info.VertexEntryPoints, VertexEntryPoint)
	}
	if len(info.FragmentEntryPoints) != 1 || info.FragmentEntryPoints[0] != FragmentEntryPoint {
		t.Errorf("fragment entry points = %v, want [%s]", info.FragmentEntryPoints, FragmentEntryPoint)
	}

	want := []ShaderBinding{
		{Name: "t_blocks", Group: 0, Binding: 0},
		{Name: "s_blocks", Group: 0, Binding: 1},
		{Name: "camera", Group: 1, Binding: 0},
	}
	if len(info.Bindings) != len(want) {
		t.Fatalf("bindings = %+v, want %+v", info.Bindings, want)
	}
	for i := range want {
		if info.Bindings[i] != want[i] {
			t.Errorf("binding %d = %+v, want %+v", i, info.Bindings[i], want[i])
		}
	}
}

var (
	caseRe = regexp.MustCompile(`case (\d+)u:`)
	vec3Re = regexp.MustCompile(`vec3<f32>\(([^()]*)\)`)
)

// parseFaceTable extracts the face_rotation matrices from the shader. The
// identity before the switch is face 0.
func parseFaceTable(t *testing.T, src string) map[int]mgl32.Mat3 {
	t.Helper()
	start := strings.Index(src, "fn face_rotation")
	end := strings.Index(src, "default:")
	if start < 0 || end < start {
		t.Fatal("face_rotation not found in shader source")
	}
	body := src[start:end]

	segments := map[int]string{}
	locs := caseRe.FindAllStringSubmatchIndex(body, -1)
	if len(locs) == 0 {
		t.Fatal("face_rotation has no cases")
	}
	segments[0] = body[:locs[0][0]]
	for i, loc := range locs {
		code, _ := strconv.Atoi(body[loc[2]:loc[3]])
		stop := len(body)
		if i+1 < len(locs) {
			stop = locs[i+1][0]
		}
		segments[code] = body[loc[1]:stop]
	}

	table := map[int]mgl32.Mat3{}
	for code, seg := range segments {
		cols := vec3Re.FindAllStringSubmatch(seg, -1)
		if len(cols) != 3 {
			t.Fatalf("face %d: found %d columns, want 3", code, len(cols))
		}
		var vs [3]mgl32.Vec3
		for c, m := range cols {
			parts := strings.Split(m[1], ",")
			if len(parts) != 3 {
				t.Fatalf("face %d column %d: %q", code, c, m[1])
			}
			for k, p := range parts {
				f, err := strconv.ParseFloat(strings.TrimSpace(p), 32)
				if err != nil {
					t.Fatalf("face %d column %d: %v", code, c, err)
				}
				vs[c][k] = float32(f)
			}
		}
		table[code] = mgl32.Mat3FromCols(vs[0], vs[1], vs[2])
	}
	return table
}

func TestShaderFaceTable(t *testing.T) {
	table := parseFaceTable(t, ShaderSource())
	if len(table) != voxel.FaceCount {
		t.Fatalf("shader has %d face matrices, want %d", len(table), voxel.FaceCount)
	}
	for _, f := range voxel.Faces() {
		got, ok := table[int(f)]
		if !ok {
			t.Errorf("face %v missing from shader", f)
			continue
		}
		if want := f.Orientation(); got != want {
			t.Errorf("face %v: shader %v, Go %v", f, got, want)
		}
	}
}

func TestTranslate(t *testing.T) {
	checks := map[Target]string{
		TargetWGSL: "fn vs_main",
		TargetMSL:  "vs_main",
		TargetGLSL: "#version",
		TargetHLSL: "vs_main",
	}
	for target, marker := range checks {
		t.Run(string(target), func(t *testing.T) {
			out, err := Translate(target)
			if err != nil {
				skipUnsupported(t, err)
				t.Fatalf("Translate(%s): %v", target, err)
			}
			if !strings.Contains(string(out), marker) {
				t.Errorf("Translate(%s) output lacks %q", target, marker)
			}
		})
	}
}

func TestTranslateUnknownTarget(t *testing.T) {
	if _, err := Translate(Target("dxil")); !errors.Is(err, ErrUnknownTarget) {
		t.Fatalf("Translate(dxil) err = %v, want ErrUnknownTarget", err)
	}
}

func TestParseTarget(t *testing.T) {
	tests := []struct {
		in      string
		want    Target
		wantErr bool
	}{
		{"spirv", TargetSPIRV, false},
		{"MSL", TargetMSL, false},
		{" glsl ", TargetGLSL, false},
		{"hlsl", TargetHLSL, false},
		{"wgsl", TargetWGSL, false},
		{"metal", "", true},
	}
	for _, tt := range tests {
		got, err := ParseTarget(tt.in)
		if tt.wantErr {
			if !errors.Is(err, ErrUnknownTarget) {
				t.Errorf("ParseTarget(%q) err = %v, want ErrUnknownTarget", tt.in, err)
			}
			continue
		}
		if err != nil || got != tt.want {
			t.Errorf("ParseTarget(%q) = %q, %v; want %q", tt.in, got, err, tt.want)
		}
	}
}
