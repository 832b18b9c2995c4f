// Command grove animates a YAML scene headlessly: it steps the frame loop for
// the configured duration and logs animation phase changes along with the
// final bounds of every skin. It can also dump the final pose or export it as
// glTF.
package main

import (
	"flag"
	"fmt"
	"io"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/akmonengine/grove"
	"github.com/akmonengine/grove/gltfio"
	"github.com/akmonengine/grove/scenefile"
	"github.com/davecgh/go-spew/spew"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/pkg/errors"
)

func main() {
	configPath := flag.String("config", "", "path to the TOML configuration")
	flag.Parse()

	cfg, err := LoadConfig(*configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	if err := run(cfg, os.Stdout); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(cfg Config, out io.Writer) error {
	level, err := cfg.Level()
	if err != nil {
		return err
	}
	logger := slog.New(slog.NewTextHandler(out, &slog.HandlerOptions{Level: level}))

	if cfg.Scene == "" {
		return errors.New("no scene configured")
	}
	scene, err := scenefile.Load(cfg.Scene)
	if err != nil {
		return err
	}

	world := &grove.World{
		Workers: cfg.Workers,
		Events:  grove.NewEvents(),
		Logger:  logger,
	}
	for _, root := range scene.Roots {
		world.AddRoot(root)
	}
	for _, s := range scene.Skins {
		world.AddSkin(s)
	}

	world.Events.Subscribe(grove.ANIMATION_START, func(event grove.Event) {
		e := event.(grove.AnimationStartEvent)
		logger.Info("animation start", "node", e.Node.Name, "time", e.Time)
	})
	world.Events.Subscribe(grove.ANIMATION_REST, func(event grove.Event) {
		e := event.(grove.AnimationRestEvent)
		logger.Info("animation rest", "node", e.Node.Name, "time", e.Time)
	})

	frame, err := world.Resolve(0)
	if err != nil {
		return err
	}
	frames := int(math.Round(cfg.Duration * cfg.FPS))
	dt := 1 / cfg.FPS
	for i := 0; i < frames; i++ {
		if frame, err = world.Step(dt); err != nil {
			return err
		}
	}
	logger.Info("run complete", "frames", frames, "time", world.Time)

	for i, s := range world.Skins {
		bounds := frame.Bounds[i]
		logger.Info("skin bounds", "skin", s.Name(), "min", bounds.Min, "max", bounds.Max)
	}
	for _, pair := range frame.Overlapping() {
		logger.Info("skins overlap", "skin", world.Skins[pair[0]].Name(), "other", world.Skins[pair[1]].Name())
	}
	if len(cfg.Pick) == 3 {
		point := mgl64.Vec3{cfg.Pick[0], cfg.Pick[1], cfg.Pick[2]}
		var names []string
		for _, i := range frame.SkinsAt(point) {
			names = append(names, world.Skins[i].Name())
		}
		logger.Info("skins at point", "point", point, "skins", names)
	}

	if cfg.Dump {
		dumpPose(out, frame)
	}

	if cfg.Export != "" {
		if err := export(cfg.Export, world); err != nil {
			return err
		}
		logger.Info("exported", "path", cfg.Export)
	}

	return nil
}

// dumpPose prints the world matrix of every named node
func dumpPose(out io.Writer, frame *grove.Frame) {
	pose := make(map[string][16]float64, len(frame.Pose))
	for n, world := range frame.Pose {
		if n.Name != "" {
			pose[n.Name] = world
		}
	}

	config := spew.NewDefaultConfig()
	config.DisableCapacities = true
	config.DisablePointerAddresses = true
	config.SortKeys = true
	config.Fdump(out, frame.Time, pose)
}

func export(path string, world *grove.World) error {
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrapf(err, "failed to create %s", path)
	}
	defer f.Close()

	opts := gltfio.Options{
		Binary: strings.EqualFold(filepath.Ext(path), ".glb"),
		Time:   world.Time,
	}
	if err := gltfio.Export(f, world.Roots, world.Skins, opts); err != nil {
		return errors.Wrapf(err, "failed to export %s", path)
	}

	return f.Close()
}
