package gpu

import (
	"go.uber.org/zap"

	"github.com/Faultbox/rigview/internal/logger"
)

// State is a snapshot of the bindings a draw call disturbs.
type State struct {
	Program     uint32
	Texture     uint32
	TextureUnit uint32
	VertexArray uint32
}

// Capture records the current bindings of dev.
func Capture(dev Device) State {
	return State{
		Program:     dev.CurrentProgram(),
		Texture:     dev.TextureBinding2D(),
		TextureUnit: dev.ActiveTextureUnit(),
		VertexArray: dev.VertexArrayBinding(),
	}
}

// Restore rebinds everything recorded in s. The texture is rebound on the
// restored unit.
func (s State) Restore(dev Device) {
	dev.UseProgram(s.Program)
	dev.ActiveTexture(s.TextureUnit)
	dev.BindTexture2D(s.Texture)
	dev.BindVertexArray(s.VertexArray)
}

// Check drains pending device errors, logging each against op.
// It reports whether any error was pending.
func Check(dev Device, op string) bool {
	found := false
	for i := 0; i < 16; i++ {
		code := dev.Error()
		if code == 0 {
			break
		}
		found = true
		logger.Named("gpu").Error("device error",
			zap.String("op", op),
			zap.String("code", ErrorString(code)),
		)
	}
	return found
}

// ErrorString names a GL error code.
func ErrorString(code uint32) string {
	switch code {
	case 0x0500:
		return "GL_INVALID_ENUM"
	case 0x0501:
		return "GL_INVALID_VALUE"
	case 0x0502:
		return "GL_INVALID_OPERATION"
	case 0x0505:
		return "GL_OUT_OF_MEMORY"
	case 0x0506:
		return "GL_INVALID_FRAMEBUFFER_OPERATION"
	case 0:
		return "GL_NO_ERROR"
	default:
		return "unknown"
	}
}
