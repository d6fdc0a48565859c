package geometry

import (
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// Mapping is CPU access to an attribute buffer. Data aliases driver
// memory and is valid until Release, which Draw calls automatically for
// any mapping still open.
type Mapping struct {
	Data []float32

	g    *Geometry
	attr string
	buf  uint32
}

// MapAttribute maps the buffer of the named attribute for in-place
// editing. Mapping an attribute that is already mapped returns the open
// mapping.
func (g *Geometry) MapAttribute(name string) (*Mapping, error) {
	idx := g.attribIndex(name)
	if idx < 0 {
		return nil, errors.Errorf("attribute %q is not registered", name)
	}
	a := &g.attribs[idx]
	if a.mapping != nil {
		return a.mapping, nil
	}
	if !g.dev.IsBuffer(a.Buffer) || !g.dev.IsVertexArray(g.vao) {
		return nil, errors.Wrapf(ErrMapFailed, "%s: buffer %d not live", name, a.Buffer)
	}

	data := g.dev.MapBuffer(a.Buffer, g.vertexCount*a.Components)
	g.check("MapAttribute " + name)
	if data == nil {
		return nil, errors.Wrapf(ErrMapFailed, "%s", name)
	}
	a.mapping = &Mapping{Data: data, g: g, attr: name, buf: a.Buffer}
	return a.mapping, nil
}

// Release unmaps the buffer. Data must not be used afterwards. Releasing
// twice is harmless.
func (m *Mapping) Release() {
	if m == nil || m.g == nil {
		return
	}
	g := m.g
	m.g = nil
	m.Data = nil

	if i := g.attribIndex(m.attr); i >= 0 && g.attribs[i].mapping == m {
		g.attribs[i].mapping = nil
	}
	if !g.dev.UnmapBuffer(m.buf) {
		// The driver may discard buffer contents on unmap failure.
		log().Warn("attribute buffer contents were lost while mapped",
			zap.String("attribute", m.attr),
			zap.Uint32("buffer", m.buf),
		)
	}
}

// Mapped reports whether the named attribute currently has an open mapping.
func (g *Geometry) Mapped(name string) bool {
	i := g.attribIndex(name)
	return i >= 0 && g.attribs[i].mapping != nil
}
