package main

import (
	"fmt"
	"math"
	"time"

	"github.com/go-gl/gl/v4.1-core/gl"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/pkg/errors"
	"github.com/veandco/go-sdl2/sdl"
	"go.uber.org/zap"

	"github.com/Faultbox/rigview/internal/assets"
	"github.com/Faultbox/rigview/internal/config"
	"github.com/Faultbox/rigview/internal/engine/animation"
	"github.com/Faultbox/rigview/internal/engine/bounds"
	"github.com/Faultbox/rigview/internal/engine/camera"
	"github.com/Faultbox/rigview/internal/engine/debug"
	"github.com/Faultbox/rigview/internal/engine/geometry"
	"github.com/Faultbox/rigview/internal/engine/gpu"
	"github.com/Faultbox/rigview/internal/engine/importer"
	"github.com/Faultbox/rigview/internal/engine/input"
	"github.com/Faultbox/rigview/internal/engine/lighting"
	"github.com/Faultbox/rigview/internal/engine/shader"
	"github.com/Faultbox/rigview/internal/engine/texture"
	"github.com/Faultbox/rigview/internal/engine/window"
	"github.com/Faultbox/rigview/internal/logger"
	"github.com/Faultbox/rigview/pkg/scene"
)

var lineColor = mgl32.Vec3{1, 0.8, 0.1}

type viewer struct {
	cfg  *config.Config
	win  *window.Window
	in   *input.Input
	dev  *gpu.GL
	cam  *camera.OrbitCamera
	shot *debug.ScreenshotCapture
	skin uint32
	line uint32
	sun  mgl32.Vec3

	model    *importer.Model
	fit      mgl32.Mat4
	box      *geometry.Geometry
	anim     int
	bindPose bool
	paused   bool
	showBox  bool
	capture  bool
	clock    time.Duration
	last     time.Time
	width    int
	height   int
}

func limits(cfg *config.Config) geometry.Limits {
	return geometry.Limits{
		MaxAttributes: cfg.Render.MaxAttributes,
		MaxTextures:   cfg.Render.MaxTextures,
		MaxBones:      cfg.Render.MaxBones,
		Strict:        cfg.Render.StrictCapacity,
		CheckErrors:   cfg.Render.DebugGL,
	}
}

func newViewer(cfg *config.Config) (*viewer, error) {
	path, err := assets.NewResolver(cfg.Model.SearchPaths...).Find(cfg.Model.Path)
	if err != nil {
		return nil, err
	}
	s, err := scene.LoadFile(path)
	if err != nil {
		return nil, err
	}

	win, err := window.New(window.Config{
		Title:      cfg.Window.Title,
		Width:      cfg.Window.Width,
		Height:     cfg.Window.Height,
		Fullscreen: cfg.Window.Fullscreen,
		VSync:      cfg.Window.VSync,
	})
	if err != nil {
		return nil, err
	}
	if err := gl.Init(); err != nil {
		win.Close()
		return nil, errors.Wrap(err, "initializing OpenGL")
	}
	logger.Info("OpenGL initialized", zap.String("version", gl.GoStr(gl.GetString(gl.VERSION))))

	v := &viewer{
		cfg:  cfg,
		win:  win,
		in:   input.New(),
		dev:  gpu.NewGL(),
		cam:  camera.NewOrbitCamera(),
		shot: debug.NewScreenshotCapture(cfg.Render.ScreenshotDir, "rigview"),
		sun:  lighting.LightDir(cfg.Render.LightAzimuth, cfg.Render.LightElevation),
		anim: cfg.Model.Animation,
		last: time.Now(),
	}
	if err := v.setup(s); err != nil {
		v.Close()
		return nil, err
	}
	return v, nil
}

func (v *viewer) setup(s *scene.Scene) error {
	var err error
	if v.skin, err = shader.CompileProgram(shader.SkinVertex, shader.SkinFragment); err != nil {
		return errors.Wrap(err, "skin program")
	}
	if v.line, err = shader.CompileProgram(shader.LineVertex, shader.LineFragment); err != nil {
		return errors.Wrap(err, "line program")
	}

	loader := texture.NewLoader(v.dev)
	loader.MaxSize = v.cfg.Render.MaxTextureSize
	v.model, err = importer.Import(v.dev, s, importer.Options{
		Program:    v.skin,
		TextureDir: v.cfg.Model.TextureDir,
		Limits:     limits(v.cfg),
		Textures:   loader,
	})
	if err != nil {
		return errors.Wrap(err, "importing scene")
	}
	if n := v.model.Animations(); n > 0 && v.anim >= n {
		logger.Warn("requested animation does not exist", zap.Int("animation", v.anim), zap.Int("available", n))
		v.anim = 0
	}

	v.fit = mgl32.Ident4()
	view := v.model.Bounds
	if v.cfg.Model.Fit {
		v.fit = v.model.Bounds.Fit(v.cfg.Model.SitOnXZ)
		view = view.Transform(v.fit)
	}
	v.cam.FitToBounds(view)

	if !v.model.Bounds.IsEmpty() {
		v.box, err = geometry.New(v.dev, v.line, bounds.WireframeVertexCount, gpu.Lines, limits(v.cfg))
		if err != nil {
			return errors.Wrap(err, "bounds overlay")
		}
		if err := v.box.SetAttribute("in_Position", v.model.Bounds.Wireframe(), 3, true); err != nil {
			return errors.Wrap(err, "bounds overlay")
		}
	}

	gl.Enable(gl.DEPTH_TEST)
	gl.ClearColor(0.16, 0.17, 0.2, 1)
	v.width, v.height = v.win.GetSize()
	v.updateTitle()
	return nil
}

// Run drives the frame loop until the window is closed.
func (v *viewer) Run() {
	for {
		if v.in.Update() {
			return
		}
		if !v.handleEvents() {
			return
		}
		v.advance()
		v.render()
		if v.capture {
			v.screenshot()
			v.capture = false
		}
		v.win.SwapBuffers()
	}
}

// screenshot reads back the frame just rendered and saves it as a PNG.
func (v *viewer) screenshot() {
	if v.width <= 0 || v.height <= 0 {
		return
	}
	pixels := make([]byte, v.width*v.height*4)
	gl.PixelStorei(gl.PACK_ALIGNMENT, 1)
	gl.ReadPixels(0, 0, int32(v.width), int32(v.height), gl.RGBA, gl.UNSIGNED_BYTE, gl.Ptr(pixels))

	path, err := v.shot.CaptureFromPixels(pixels, v.width, v.height)
	if err != nil {
		logger.Error("screenshot failed", zap.Error(err))
		return
	}
	logger.Info("screenshot saved", zap.String("path", path))
}

func (v *viewer) handleEvents() bool {
	for _, e := range v.in.Events() {
		switch e.Type {
		case input.EventWindowResize:
			v.width, v.height = v.win.GetSize()
		case input.EventMouseMove:
			if e.Dragging {
				v.cam.HandleDrag(e.DeltaX, e.DeltaY)
			}
		case input.EventMouseWheel:
			v.cam.HandleZoom(e.DeltaY)
		case input.EventKeyDown:
			switch e.Key {
			case sdl.SCANCODE_ESCAPE, sdl.SCANCODE_Q:
				return false
			case sdl.SCANCODE_N:
				v.cycle(1)
			case sdl.SCANCODE_P:
				v.cycle(-1)
			case sdl.SCANCODE_B:
				v.bindPose = !v.bindPose
				v.updateTitle()
			case sdl.SCANCODE_SPACE:
				v.paused = !v.paused
			case sdl.SCANCODE_X:
				v.showBox = !v.showBox
			case sdl.SCANCODE_R:
				view := v.model.Bounds.Transform(v.fit)
				v.cam.FitToBounds(view)
			case sdl.SCANCODE_F12:
				v.capture = true
			}
		}
	}
	return true
}

func (v *viewer) cycle(step int) {
	n := v.model.Animations()
	if n == 0 {
		return
	}
	v.anim = ((v.anim+step)%n + n) % n
	v.clock = 0
	v.updateTitle()
}

func (v *viewer) updateTitle() {
	title := v.cfg.Window.Title
	anims := v.model.Scene.Animations
	switch {
	case v.bindPose || len(anims) == 0:
		title += " - bind pose"
	default:
		a := anims[v.anim]
		title += fmt.Sprintf(" - %s (%d/%d, %.2fs)", a.Name, v.anim+1, len(anims), animation.Duration(a))
	}
	v.win.SetTitle(title)
}

// advance poses the model for the current frame.
func (v *viewer) advance() {
	now := time.Now()
	if !v.paused {
		v.clock += time.Duration(float64(now.Sub(v.last)) * v.cfg.Model.TimeScale)
	}
	v.last = now

	if v.bindPose || v.model.Animations() == 0 {
		v.model.Pose(v.anim, animation.BindPose)
		return
	}
	seconds := v.clock.Seconds()
	if d := animation.Duration(v.model.Scene.Animations[v.anim]); d > 0 {
		seconds = math.Mod(seconds, d)
	}
	v.model.Pose(v.anim, seconds)
}

func (v *viewer) render() {
	gl.Viewport(0, 0, int32(v.width), int32(v.height))
	gl.Clear(gl.COLOR_BUFFER_BIT | gl.DEPTH_BUFFER_BIT)

	aspect := float32(1)
	if v.height > 0 {
		aspect = float32(v.width) / float32(v.height)
	}
	proj := v.cam.ProjectionMatrix(aspect)
	view := v.cam.ViewMatrix()

	v.setCamera(v.skin, proj, view)
	if loc := v.dev.UniformLocation(v.skin, "LightDir"); loc >= 0 {
		gl.Uniform3f(loc, v.sun[0], v.sun[1], v.sun[2])
	}
	v.model.Geometries.Draw()

	if v.showBox && v.box != nil {
		v.setCamera(v.line, proj, view)
		if loc := v.dev.UniformLocation(v.line, "LineColor"); loc >= 0 {
			gl.Uniform3f(loc, lineColor[0], lineColor[1], lineColor[2])
		}
		v.box.Draw()
	}

	if v.cfg.Render.DebugGL {
		gpu.Check(v.dev, "frame")
	}
}

// setCamera makes program current and uploads the per-frame matrices.
func (v *viewer) setCamera(program uint32, proj, view mgl32.Mat4) {
	v.dev.UseProgram(program)
	for name, m := range map[string]mgl32.Mat4{"Projection": proj, "View": view, "Model": v.fit} {
		if loc := v.dev.UniformLocation(program, name); loc >= 0 {
			v.dev.UniformMatrix4(loc, []mgl32.Mat4{m})
		}
	}
}

// Close releases GPU resources and the window.
func (v *viewer) Close() {
	if v.box != nil {
		v.box.Delete()
	}
	if v.model != nil {
		v.model.Delete()
	}
	if v.skin != 0 {
		gl.DeleteProgram(v.skin)
	}
	if v.line != 0 {
		gl.DeleteProgram(v.line)
	}
	if v.win != nil {
		v.win.Close()
	}
}
