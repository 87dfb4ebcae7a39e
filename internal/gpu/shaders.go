package gpu

import (
	_ "embed"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/gogpu/naga"
	"github.com/gogpu/naga/glsl"
	"github.com/gogpu/naga/hlsl"
	"github.com/gogpu/naga/ir"
	"github.com/gogpu/naga/msl"
)

// Embedded block face shader source.
//
//go:embed shaders/block_face.wgsl
var blockFaceShaderSource string

// Entry point names of the block face shader.
const (
	VertexEntryPoint   = "vs_main"
	FragmentEntryPoint = "fs_main"
)

// Shader errors.
var (
	// ErrShaderInvalid is returned when the WGSL fails naga validation.
	ErrShaderInvalid = errors.New("gpu: shader failed validation")

	// ErrUnknownTarget is returned for an unsupported translation target.
	ErrUnknownTarget = errors.New("gpu: unknown shader target")
)

// ShaderSource returns the WGSL source of the block face shader.
func ShaderSource() string { return blockFaceShaderSource }

// Target is a shading language the block face shader can be emitted in.
type Target string

// Supported translation targets.
const (
	TargetWGSL  Target = "wgsl"
	TargetSPIRV Target = "spirv"
	TargetMSL   Target = "msl"
	TargetGLSL  Target = "glsl"
	TargetHLSL  Target = "hlsl"
)

// Targets lists every supported target.
func Targets() []Target {
	return []Target{TargetWGSL, TargetSPIRV, TargetMSL, TargetGLSL, TargetHLSL}
}

// ParseTarget parses a target name, case-insensitively.
func ParseTarget(s string) (Target, error) {
	t := Target(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Targets() {
		if t == known {
			return t, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownTarget, s)
}

// lowerShader parses, lowers and validates the block face shader.
func lowerShader() (*ir.Module, error) {
	ast, err := naga.Parse(blockFaceShaderSource)
	if err != nil {
		return nil, fmt.Errorf("parse block_face shader: %w", err)
	}
	module, err := naga.LowerWithSource(ast, blockFaceShaderSource)
	if err != nil {
		return nil, fmt.Errorf("lower block_face shader: %w", err)
	}
	verrs, err := naga.Validate(module)
	if err != nil {
		return nil, fmt.Errorf("validate block_face shader: %w", err)
	}
	if len(verrs) > 0 {
		msgs := make([]string, len(verrs))
		for i, e := range verrs {
			msgs[i] = e.Error()
		}
		return nil, fmt.Errorf("%w: %s", ErrShaderInvalid, strings.Join(msgs, "; "))
	}
	return module, nil
}

// ShaderBinding is one resource binding declared by the shader.
type ShaderBinding struct {
	Name    string
	Group   uint32
	Binding uint32
}

// ShaderInfo summarizes the validated shader interface.
type ShaderInfo struct {
	VertexEntryPoints   []string
	FragmentEntryPoints []string
	Bindings            []ShaderBinding
}

// ReflectShader validates the shader and reports its entry points and
// resource bindings, sorted by group then binding.
func ReflectShader() (ShaderInfo, error) {
	module, err := lowerShader()
	if err != nil {
		return ShaderInfo{}, err
	}
	var info ShaderInfo
	for _, ep := range module.EntryPoints {
		switch ep.Stage {
		case ir.StageVertex:
			info.VertexEntryPoints = append(info.VertexEntryPoints, ep.Name)
		case ir.StageFragment:
			info.FragmentEntryPoints = append(info.FragmentEntryPoints, ep.Name)
		}
	}
	for _, gv := range module.GlobalVariables {
		if gv.Binding == nil {
			continue
		}
		info.Bindings = append(info.Bindings, ShaderBinding{
			Name:    gv.Name,
			Group:   gv.Binding.Group,
			Binding: gv.Binding.Binding,
		})
	}
	sort.Slice(info.Bindings, func(i, j int) bool {
		a, b := info.Bindings[i], info.Bindings[j]
		if a.Group != b.Group {
			return a.Group < b.Group
		}
		return a.Binding < b.Binding
	})
	return info, nil
}

// CompileSPIRV compiles the shader to a SPIR-V binary.
func CompileSPIRV() ([]byte, error) {
	spirv, err := naga.Compile(blockFaceShaderSource)
	if err != nil {
		return nil, fmt.Errorf("compile block_face shader: %w", err)
	}
	return spirv, nil
}

// Translate emits the shader for target. SPIR-V is returned as its binary
// encoding; the other targets are source text. GLSL needs one program per
// stage, so both stages are emitted one after the other.
func Translate(target Target) ([]byte, error) {
	switch target {
	case TargetWGSL:
		return []byte(blockFaceShaderSource), nil
	case TargetSPIRV:
		return CompileSPIRV()
	}

	module, err := lowerShader()
	if err != nil {
		return nil, err
	}

	switch target {
	case TargetMSL:
		opts := msl.DefaultOptions()
		opts.FakeMissingBindings = true
		src, _, err := msl.Compile(module, opts)
		if err != nil {
			return nil, fmt.Errorf("translate block_face shader to msl: %w", err)
		}
		return []byte(src), nil
	case TargetHLSL:
		src, _, err := hlsl.Compile(module, hlsl.DefaultOptions())
		if err != nil {
			return nil, fmt.Errorf("translate block_face shader to hlsl: %w", err)
		}
		return []byte(src), nil
	case TargetGLSL:
		var sb strings.Builder
		for _, ep := range []string{VertexEntryPoint, FragmentEntryPoint} {
			opts := glsl.DefaultOptions()
			opts.EntryPoint = ep
			src, _, err := glsl.Compile(module, opts)
			if err != nil {
				return nil, fmt.Errorf("translate block_face shader to glsl (%s): %w", ep, err)
			}
			fmt.Fprintf(&sb, "// %s\n%s\n", ep, src)
		}
		return []byte(sb.String()), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownTarget, string(target))
	}
}
