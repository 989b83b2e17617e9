package main

import (
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strings"

	"github.com/Carmen-Shannon/prism/common"
	"github.com/Carmen-Shannon/prism/engine"
	"github.com/Carmen-Shannon/prism/engine/actor"
	"github.com/Carmen-Shannon/prism/engine/camera"
	"github.com/Carmen-Shannon/prism/engine/config"
	"github.com/Carmen-Shannon/prism/engine/renderer/bind_group_provider"
	"github.com/Carmen-Shannon/prism/engine/renderer/material"
	"github.com/Carmen-Shannon/prism/engine/renderer/pipeline"
	"github.com/Carmen-Shannon/prism/engine/scene"
)

const defaultConfigPath = "prism.toml"

func main() {
	configPath := flag.String("config", defaultConfigPath, "TOML configuration file")
	meshPath := flag.String("mesh", "", "glTF mesh to view, relative to the asset root")
	materialPath := flag.String("material", "", "YAML material applied to every slot of the mesh")
	profile := flag.Bool("profile", false, "log frame statistics every second")
	flag.Parse()

	if err := run(*configPath, *meshPath, *materialPath, *profile); err != nil {
		fmt.Fprintln(os.Stderr, "prismview:", err)
		os.Exit(1)
	}
}

func loadConfig(path string) (config.Config, error) {
	cfg, err := config.Load(path)
	if errors.Is(err, fs.ErrNotExist) && path == defaultConfigPath {
		return config.Default(), nil
	}
	return cfg, err
}

func run(configPath, meshPath, materialPath string, profile bool) error {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}
	if meshPath == "" {
		return errors.New("-mesh is required")
	}

	logger := cfg.Log.Logger()
	slog.SetDefault(logger)

	eng, err := engine.NewEngine(cfg, engine.WithLogger(logger), engine.WithProfiling(profile))
	if err != nil {
		return err
	}
	assets := eng.Assets()

	sm, err := assets.MakeStaticMesh(meshPath)
	if err != nil {
		return err
	}

	comp, err := actor.NewStaticMeshComponent(
		actor.WithName("viewer"),
		actor.WithFinalizer(eng.Renderer()),
		actor.WithLogger(logger),
		actor.WithStaticMesh(sm),
	)
	if err != nil {
		return err
	}

	var override material.Material
	if materialPath != "" {
		if override, err = assets.LoadMaterial(materialPath); err != nil {
			return err
		}
	}
	overridden := false
	setOverride := func(on bool) error {
		for _, slot := range sm.Slots() {
			var err error
			if on {
				err = comp.SetMaterialOverride(slot, override)
			} else {
				err = comp.ClearMaterialOverride(slot)
			}
			if err != nil {
				return err
			}
		}
		overridden = on
		return nil
	}
	if override != nil {
		if err := setOverride(true); err != nil {
			return err
		}
	}

	subject := actor.NewActor(actor.WithActorName(sm.Name()), actor.WithComponent(comp))

	lo, hi := sm.Bounds()
	cam := camera.NewCamera(
		camera.WithTarget(lo.Add(hi).Mul(0.5)),
		camera.WithOrbit(max(hi.Sub(lo).Len()*1.5, 1), 0, 0.4),
		camera.WithAspect(float32(eng.Window().Width())/float32(max(eng.Window().Height(), 1))),
		camera.WithClip(0.05, 1000),
	)
	eng.AddScene(0, scene.NewScene("main",
		scene.WithActive(true),
		scene.WithCamera(cam),
		scene.WithActors(subject),
	))
	eng.Window().SetScrollCallback(cam.Zoom)

	// Input arrives on the window thread; edits are queued and applied on the frame goroutine,
	// which is the only one reading the component.
	edits := make(chan func(), 16)
	queue := func(edit func()) {
		select {
		case edits <- edit:
		default:
			logger.Warn("dropping input, edit queue full")
		}
	}

	profiling := profile
	eng.Window().SetKeyDownCallback(func(keyCode uint32) {
		switch keyCode {
		case common.KeyA:
			cam.Orbit(-1, 0)
		case common.KeyD:
			cam.Orbit(1, 0)
		case common.KeyW:
			cam.Orbit(0, 1)
		case common.KeyS:
			cam.Orbit(0, -1)
		case common.KeySpace:
			queue(func() { subject.SetEnabled(!subject.Enabled()) })
		case common.KeyO:
			if override == nil {
				return
			}
			queue(func() {
				if err := setOverride(!overridden); err != nil {
					logger.Error("toggle override failed", "error", err)
				}
			})
		case common.KeyR:
			if materialPath == "" {
				return
			}
			queue(func() {
				if _, err := assets.LoadMaterial(materialPath); err != nil {
					logger.Error("material reload failed", "path", materialPath, "error", err)
					return
				}
				logger.Info("material reloaded", "path", materialPath)
			})
		case common.KeyP:
			if profiling = !profiling; profiling {
				eng.EnableProfiler()
			} else {
				eng.DisableProfiler()
			}
		}
	})

	// Each draw command gets its bind groups once; the per-frame blob is shared by all of them
	// and rewritten in place so the providers keep aliasing it.
	frameConstants := make([]byte, camera.GPUFrameUniformSize)
	bound := make(map[*actor.MeshDrawCommand][]bind_group_provider.BindGroupProvider)
	lastDraws := -1
	eng.SetFrameCallback(func(_ float32, draws []scene.DrawItem) {
	drain:
		for {
			select {
			case edit := <-edits:
				edit()
			default:
				break drain
			}
		}
		copy(frameConstants, cam.FrameUniform().Marshal())

		live := make(map[*actor.MeshDrawCommand]bool, len(draws))
		for _, d := range draws {
			live[d.Command] = true
			if _, ok := bound[d.Command]; ok {
				continue
			}
			providers, err := eng.Renderer().BindDrawCommand(d.Command, frameBuffers(d.Command, frameConstants))
			if err != nil {
				logger.Error("binding draw failed", "actor", d.ActorID, "pass", d.Command.Pass, "error", err)
				continue
			}
			bound[d.Command] = providers
		}
		dropped := 0
		for cmd, providers := range bound {
			if !live[cmd] {
				releaseProviders(providers)
				delete(bound, cmd)
				dropped++
				continue
			}
			fresh, rebound, err := eng.Renderer().RefreshDrawCommand(cmd, frameBuffers(cmd, frameConstants), providers)
			if err != nil {
				logger.Error("rebinding draw failed", "pass", cmd.Pass, "error", err)
			}
			if rebound {
				releaseProviders(providers)
				bound[cmd] = fresh
			}
			eng.Renderer().WriteBindGroups(fresh...)
		}
		if dropped > 0 {
			pipelines := make([]pipeline.Pipeline, 0, len(draws))
			for _, d := range draws {
				pipelines = append(pipelines, d.Command.Pipeline)
			}
			eng.Renderer().ReleaseRetired(pipelines...)
		}

		if len(draws) != lastDraws {
			lastDraws = len(draws)
			for _, d := range draws {
				logger.Debug("draw",
					"actor", d.ActorID,
					"pass", d.Command.Pass,
					"pipeline", d.Command.Pipeline.Key(),
					"material", d.Command.Material.Name(),
					"indices", d.Command.IndexCount,
				)
			}
			logger.Info("draw list changed", "draws", len(draws), "bound", len(bound), "state", comp.State())
		}
	})

	return eng.Run()
}

func releaseProviders(providers []bind_group_provider.BindGroupProvider) {
	for _, p := range providers {
		p.Release()
	}
}

// frameBuffers maps every per-frame constant buffer of the command's pass onto the shared blob.
func frameBuffers(cmd *actor.MeshDrawCommand, frame []byte) map[string][]byte {
	shared := make(map[string][]byte)
	for _, cb := range cmd.Pipeline.Pass().ConstantBuffers() {
		if strings.Contains(cb.Name, material.FrameBufferMarker) {
			shared[cb.Name] = frame
		}
	}
	return shared
}
