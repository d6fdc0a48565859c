package geometry

import (
	"github.com/pkg/errors"
)

// List is the ordered set of geometries built from one model.
type List []*Geometry

// Len returns the number of geometries.
func (l List) Len() int {
	return len(l)
}

// targets returns the geometries an operation with opts applies to.
func (l List) targets(opts Options) List {
	if len(l) == 0 || opts&FullList != 0 {
		return l
	}
	return l[:1]
}

// Draw draws every geometry in order.
func (l List) Draw() {
	for _, g := range l {
		g.Draw()
	}
}

// Delete releases every geometry's buffers and vertex array.
func (l List) Delete() {
	for _, g := range l {
		g.Delete()
	}
}

// SetTexture binds tex to sampler name on the first geometry, or on all of
// them with FullList.
func (l List) SetTexture(tex uint32, name string, opts Options) error {
	for i, g := range l.targets(opts) {
		if err := g.SetTexture(tex, name, opts); err != nil {
			return errors.Wrapf(err, "geometry %d", i)
		}
	}
	return nil
}

// SetProgram switches the first geometry, or all of them with FullList,
// to program.
func (l List) SetProgram(program uint32, opts Options) error {
	for i, g := range l.targets(opts) {
		if err := g.SetProgram(program); err != nil {
			return errors.Wrapf(err, "geometry %d", i)
		}
	}
	return nil
}
