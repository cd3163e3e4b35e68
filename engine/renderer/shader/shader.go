package shader

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/Carmen-Shannon/gloom-go/engine/renderer/driver"
)

// ShaderType identifies the pipeline stage a compiled shader unit belongs to.
type ShaderType int

const (
	// ShaderTypeVertex is the vertex stage, loaded from ".vert" files.
	ShaderTypeVertex ShaderType = iota

	// ShaderTypeFragment is the fragment stage, loaded from ".frag" files.
	ShaderTypeFragment

	// ShaderTypeTessControl is the tessellation control stage, loaded from ".tcs" files.
	ShaderTypeTessControl

	// ShaderTypeTessEvaluation is the tessellation evaluation stage, loaded from ".tes" files.
	ShaderTypeTessEvaluation

	// ShaderTypeGeometry is the geometry stage, loaded from ".geom" files.
	ShaderTypeGeometry
)

// extensions maps a file extension (without the dot) to its stage.
var extensions = map[string]ShaderType{
	"vert": ShaderTypeVertex,
	"frag": ShaderTypeFragment,
	"tcs":  ShaderTypeTessControl,
	"tes":  ShaderTypeTessEvaluation,
	"geom": ShaderTypeGeometry,
}

// Stage returns the driver stage enum passed to CreateShader.
//
// Returns:
//   - uint32: one of the driver.Stage* constants, 0 for an invalid ShaderType
func (t ShaderType) Stage() uint32 {
	switch t {
	case ShaderTypeVertex:
		return driver.StageVertex
	case ShaderTypeFragment:
		return driver.StageFragment
	case ShaderTypeTessControl:
		return driver.StageTessControl
	case ShaderTypeTessEvaluation:
		return driver.StageTessEvaluation
	case ShaderTypeGeometry:
		return driver.StageGeometry
	default:
		return 0
	}
}

func (t ShaderType) String() string {
	switch t {
	case ShaderTypeVertex:
		return "vertex"
	case ShaderTypeFragment:
		return "fragment"
	case ShaderTypeTessControl:
		return "tessellation-control"
	case ShaderTypeTessEvaluation:
		return "tessellation-evaluation"
	case ShaderTypeGeometry:
		return "geometry"
	default:
		return fmt.Sprintf("ShaderType(%d)", int(t))
	}
}

// ShaderTypeFromPath determines the stage of a shader file from its extension.
// Unknown extensions are reported, never defaulted.
//
// Parameters:
//   - path: the shader file path
//
// Returns:
//   - ShaderType: the stage for the extension
//   - error: *UnknownStageError if the extension is not recognized
func ShaderTypeFromPath(path string) (ShaderType, error) {
	ext := strings.TrimPrefix(filepath.Ext(path), ".")
	t, ok := extensions[ext]
	if !ok {
		return 0, &UnknownStageError{Path: path, Ext: ext}
	}
	return t, nil
}

// Source is the full text of one shader stage, ready to compile.
type Source struct {
	// Path is the file the text was read from, empty for inline sources.
	Path string

	// Type is the stage the text compiles to.
	Type ShaderType

	// Text is the GLSL source.
	Text string
}

// ReadSource resolves the stage from path's extension, then reads the whole file.
// The extension is checked before the file is touched.
//
// Parameters:
//   - path: the shader file path
//
// Returns:
//   - Source: the loaded source
//   - error: *UnknownStageError or a wrapped read error
func ReadSource(path string) (Source, error) {
	t, err := ShaderTypeFromPath(path)
	if err != nil {
		return Source{}, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Source{}, fmt.Errorf("shader: failed to read source file %q: %w", path, err)
	}
	return Source{Path: path, Type: t, Text: string(data)}, nil
}
