// Package shader compiles GLSL programs.
package shader

import (
	"strings"

	"github.com/go-gl/gl/v4.1-core/gl"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/Faultbox/rigview/internal/logger"
)

// ErrCompile wraps shader compile and program link failures.
var ErrCompile = errors.New("shader build failed")

// CompileProgram compiles vertex and fragment shaders and links them into a program.
func CompileProgram(vertexSrc, fragmentSrc string) (uint32, error) {
	vertShader, err := compileShader(vertexSrc, gl.VERTEX_SHADER, "vertex")
	if err != nil {
		return 0, err
	}
	defer gl.DeleteShader(vertShader)

	fragShader, err := compileShader(fragmentSrc, gl.FRAGMENT_SHADER, "fragment")
	if err != nil {
		return 0, err
	}
	defer gl.DeleteShader(fragShader)

	program := gl.CreateProgram()
	gl.AttachShader(program, vertShader)
	gl.AttachShader(program, fragShader)
	gl.LinkProgram(program)

	var status int32
	gl.GetProgramiv(program, gl.LINK_STATUS, &status)
	if status == gl.FALSE {
		msg := programLog(program)
		gl.DeleteProgram(program)
		return 0, errors.Wrapf(ErrCompile, "link: %s", msg)
	}

	logger.Named("shader").Debug("program linked", zap.Uint32("program", program))
	return program, nil
}

func compileShader(source string, shaderType uint32, name string) (uint32, error) {
	shader := gl.CreateShader(shaderType)
	csource, free := gl.Strs(source + "\x00")
	gl.ShaderSource(shader, 1, csource, nil)
	free()
	gl.CompileShader(shader)

	var status int32
	gl.GetShaderiv(shader, gl.COMPILE_STATUS, &status)
	if status == gl.FALSE {
		var logLen int32
		gl.GetShaderiv(shader, gl.INFO_LOG_LENGTH, &logLen)
		msg := make([]byte, logLen+1)
		gl.GetShaderInfoLog(shader, logLen, nil, &msg[0])
		gl.DeleteShader(shader)
		return 0, errors.Wrapf(ErrCompile, "%s shader: %s", name, trimLog(msg))
	}
	return shader, nil
}

func programLog(program uint32) string {
	var logLen int32
	gl.GetProgramiv(program, gl.INFO_LOG_LENGTH, &logLen)
	msg := make([]byte, logLen+1)
	gl.GetProgramInfoLog(program, logLen, nil, &msg[0])
	return trimLog(msg)
}

func trimLog(b []byte) string {
	return strings.TrimRight(string(b), "\x00\n ")
}

// GetUniform returns the uniform location for name, or -1 when the
// program has no such active uniform.
func GetUniform(program uint32, name string) int32 {
	return gl.GetUniformLocation(program, gl.Str(name+"\x00"))
}
