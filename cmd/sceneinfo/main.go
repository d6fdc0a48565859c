// sceneinfo prints what rigview would see in a scene document, without
// opening a window.
package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/davecgh/go-spew/spew"
	"github.com/go-gl/mathgl/mgl32"

	"github.com/Faultbox/rigview/internal/assets"
	"github.com/Faultbox/rigview/internal/engine/animation"
	"github.com/Faultbox/rigview/internal/engine/bounds"
	"github.com/Faultbox/rigview/internal/logger"
	"github.com/Faultbox/rigview/pkg/scene"
)

func main() {
	if err := run(os.Args[1:], os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

type options struct {
	dump       bool
	sitOnXZ    bool
	textureDir string
	anim       int
	pose       float64
	level      string
}

func run(args []string, out io.Writer) error {
	fs := flag.NewFlagSet("sceneinfo", flag.ContinueOnError)
	fs.SetOutput(out)
	var opts options
	fs.BoolVar(&opts.dump, "dump", false, "Dump the decoded scene")
	fs.BoolVar(&opts.sitOnXZ, "sit", false, "Fit the model onto the XZ plane instead of centering it")
	fs.StringVar(&opts.textureDir, "textures", "", "Directory to look for textures in (default: next to the scene)")
	fs.IntVar(&opts.anim, "animation", 0, "Animation used with -pose")
	fs.Float64Var(&opts.pose, "pose", -1, "Print node world transforms at this time in seconds")
	fs.StringVar(&opts.level, "log", "warn", "Log level")
	fs.Usage = func() {
		fmt.Fprintln(out, "Usage: sceneinfo [flags] <scene.yaml>")
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		fs.Usage()
		return fmt.Errorf("expected one scene file, got %d", fs.NArg())
	}

	if err := logger.Init(opts.level, ""); err != nil {
		return err
	}
	defer logger.Sync()

	s, err := scene.LoadFile(fs.Arg(0))
	if err != nil {
		return err
	}

	printSummary(out, s, opts)
	if opts.pose >= 0 {
		printPose(out, s, opts)
	}
	if opts.dump {
		cfg := spew.ConfigState{Indent: "  ", DisablePointerAddresses: true, DisableCapacities: true, SortKeys: true}
		cfg.Fdump(out, s)
	}
	return nil
}

func printSummary(out io.Writer, s *scene.Scene, opts options) {
	fmt.Fprintf(out, "Scene: %s\n", s.Path)
	fmt.Fprintf(out, "Nodes: %d\n", s.NodeCount())

	fmt.Fprintf(out, "\nMeshes (%d):\n", len(s.Meshes))
	for i, m := range s.Meshes {
		material := "-"
		if mat := s.Material(m); mat != nil {
			material = mat.Name
		}
		fmt.Fprintf(out, "  [%d] %-16s %-10s vertices=%-6d faces=%-6d bones=%-3d material=%s\n",
			i, m.Name, primitiveNames(m.Primitives), len(m.Vertices), len(m.Faces), len(m.Bones), material)
	}

	fmt.Fprintf(out, "\nMaterials (%d):\n", len(s.Materials))
	for i, mat := range s.Materials {
		fmt.Fprintf(out, "  [%d] %s", i, mat.Name)
		if mat.HasDiffuse {
			fmt.Fprintf(out, " diffuse=(%.2f %.2f %.2f %.2f)", mat.Diffuse[0], mat.Diffuse[1], mat.Diffuse[2], mat.Diffuse[3])
		}
		if mat.DiffuseTexture != "" {
			path := assets.TexturePath(mat.DiffuseTexture, s.Path, opts.textureDir)
			state := "ok"
			if _, err := os.Stat(path); err != nil {
				state = "missing"
			}
			fmt.Fprintf(out, " texture=%s (%s)", path, state)
		}
		kinds := make([]string, 0, len(mat.Textures))
		for k, n := range mat.Textures {
			kinds = append(kinds, fmt.Sprintf("%s:%d", k, n))
		}
		sort.Strings(kinds)
		if len(kinds) > 0 {
			fmt.Fprintf(out, " other=%s", strings.Join(kinds, ","))
		}
		fmt.Fprintln(out)
	}

	fmt.Fprintf(out, "\nAnimations (%d):\n", len(s.Animations))
	for i, a := range s.Animations {
		fmt.Fprintf(out, "  [%d] %-16s ticks=%g rate=%g seconds=%.3f channels=%d\n",
			i, a.Name, a.Duration, a.Rate(), animation.Duration(a), len(a.Channels))
	}

	b := bounds.Compute(s)
	fmt.Fprintln(out, "\nBounds:")
	if b.IsEmpty() {
		fmt.Fprintln(out, "  empty")
		return
	}
	fmt.Fprintf(out, "  min    %s\n", vec(b.Min))
	fmt.Fprintf(out, "  max    %s\n", vec(b.Max))
	fmt.Fprintf(out, "  center %s\n", vec(b.Center()))
	fmt.Fprintf(out, "  size   %s\n", vec(b.Size()))
	fmt.Fprintf(out, "\nFit matrix:\n%s", b.Fit(opts.sitOnXZ))
}

func printPose(out io.Writer, s *scene.Scene, opts options) {
	world := animation.WorldTransforms(s, opts.anim, opts.pose)
	fmt.Fprintf(out, "\nPose (animation %d, %.3fs):\n", opts.anim, opts.pose)
	s.Walk(func(n *scene.Node) bool {
		depth := len(n.Path()) - 1
		fmt.Fprintf(out, "  %s%-*s origin %s\n", strings.Repeat("  ", depth), 16-2*depth, n.Name, vec(world[n].Col(3).Vec3()))
		return true
	})
}

func primitiveNames(p scene.PrimitiveType) string {
	var names []string
	for _, kind := range []struct {
		bit  scene.PrimitiveType
		name string
	}{
		{scene.PrimitivePoint, "point"},
		{scene.PrimitiveLine, "line"},
		{scene.PrimitiveTriangle, "triangle"},
		{scene.PrimitivePolygon, "polygon"},
	} {
		if p&kind.bit != 0 {
			names = append(names, kind.name)
		}
	}
	if len(names) == 0 {
		return "none"
	}
	return strings.Join(names, "+")
}

func vec(v mgl32.Vec3) string {
	return fmt.Sprintf("(%.3f, %.3f, %.3f)", v[0], v[1], v[2])
}
