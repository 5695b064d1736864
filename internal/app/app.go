//go:build ebiten

package app

import (
	"context"
	"errors"
	"image/color"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"jumpflood/internal/core"
	"jumpflood/internal/gpu/ebitengpu"
	"jumpflood/internal/jfa"
	"jumpflood/internal/ui"
	pcore "jumpflood/pkg/core"
)

// Game adapts the flood pipeline to the ebiten.Game interface.
type Game struct {
	ctx      context.Context
	log      *zap.Logger
	backend  *ebitengpu.Backend
	pipeline *jfa.Pipeline
	hud      *ui.HUD
	overlay  *ui.Overlay
	seed     seedControl
	bg       color.RGBA

	size    core.Size
	focused bool
	err     error
}

// New builds the GPU backend and pipeline for cfg.
func New(ctx context.Context, cfg *Config, log *zap.Logger, reg prometheus.Registerer) (*Game, error) {
	if log == nil {
		log = zap.NewNop()
	}
	bg, err := cfg.BackgroundColor()
	if err != nil {
		return nil, err
	}
	backend := ebitengpu.New(ebitengpu.Options{Logger: log.Named("gpu")})
	pipeline, err := jfa.New(backend, jfa.Options{
		Size:       cfg.Size(),
		Mode:       cfg.Mode,
		Passes:     cfg.Passes,
		Logger:     log.Named("jfa"),
		Registerer: reg,
	})
	if err != nil {
		return nil, err
	}
	return &Game{
		ctx:      ctx,
		log:      log,
		backend:  backend,
		pipeline: pipeline,
		hud:      ui.NewHUD(pipeline, bg),
		overlay:  ui.NewOverlay(),
		seed:     seedControl{rng: pcore.NewRNG(cfg.Seed)},
		bg:       bg,
		size:     cfg.Size(),
		focused:  true,
	}, nil
}

// Reload applies live config changes. It is safe to call from the watcher
// goroutine.
func (g *Game) Reload(r Reload) {
	g.pipeline.SetMode(r.Mode)
	g.pipeline.SetPassOverride(r.Passes)
}

// Close releases GPU resources.
func (g *Game) Close() { g.pipeline.Close() }

// Update handles input and forwards seed, resize and focus events to the
// pipeline. Rendering happens in Draw.
func (g *Game) Update() error {
	if g.err != nil {
		return g.err
	}
	if g.ctx.Err() != nil {
		return ebiten.Termination
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyQ) || inpututil.IsKeyJustPressed(ebiten.KeyEscape) {
		return ebiten.Termination
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyM) {
		g.pipeline.SetMode(g.pipeline.Mode().Next())
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyH) {
		g.hud.Toggle()
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyO) {
		g.overlay.Toggle()
	}

	if focused := ebiten.IsFocused(); focused != g.focused {
		g.focused = focused
		g.pipeline.NotifySurfaceInvalidated()
	}
	x, y := ebiten.CursorPosition()
	if seed, ok := g.seed.update(g.pipeline.Size(), seedInput{
		freeze:   inpututil.IsKeyJustPressed(ebiten.KeySpace),
		recentre: inpututil.IsKeyJustPressed(ebiten.KeyR),
		random:   inpututil.IsKeyJustPressed(ebiten.KeyS),
		cursorX:  x,
		cursorY:  y,
	}); ok {
		g.pipeline.NotifySeed(seed)
	}

	if g.seed.frozen {
		g.hud.Update("seed frozen")
	} else {
		g.hud.Update()
	}
	return nil
}

// Draw renders one pipeline frame into screen. A dropped frame shows the
// background colour; the screen is not cleared between frames.
func (g *Game) Draw(screen *ebiten.Image) {
	g.backend.SetScreen(screen)
	if err := g.pipeline.RenderFrame(g.ctx); err != nil {
		var fe *jfa.FrameError
		if errors.As(err, &fe) && fe.Fatal() {
			g.err = err
		}
		screen.Fill(g.bg)
		return
	}
	g.overlay.Draw(screen, g.pipeline.Seed(), g.seed.frozen)
	g.hud.Draw(screen)
}

// Layout requests a field the size of the window, limited to the largest
// texture the backend accepts. The screen always matches the field the
// pipeline holds, so a resize that fails to allocate leaves the previous
// field scaled into the window.
func (g *Game) Layout(outsideWidth, outsideHeight int) (int, int) {
	size := fitSize(core.Size{W: outsideWidth, H: outsideHeight}, g.backend.MaxTextureDim())
	if size != g.size && !size.Empty() {
		g.size = size
		g.pipeline.NotifyResize(size)
	}
	current := g.pipeline.Size()
	return current.W, current.H
}
