//go:build ebiten

package ui

import (
	"fmt"
	"image/color"

	"jumpflood/internal/core"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/text"
	"golang.org/x/image/font/basicfont"
)

type parameterProvider interface {
	Parameters() core.ParameterSnapshot
}

// HUD renders the pipeline parameters in a translucent panel over the
// top-left corner of the view.
type HUD struct {
	source  parameterProvider
	bg      color.RGBA
	visible bool
	lines   []string

	panel *ebiten.Image
}

// NewHUD constructs a HUD reading from source. bg is the panel colour; the
// panel is drawn at partial opacity.
func NewHUD(source parameterProvider, bg color.RGBA) *HUD {
	return &HUD{source: source, bg: bg, visible: true}
}

// Toggle shows or hides the panel.
func (h *HUD) Toggle() {
	if h == nil {
		return
	}
	h.visible = !h.visible
}

// Visible reports whether the panel is drawn.
func (h *HUD) Visible() bool { return h != nil && h.visible }

// Update refreshes the cached text from the pipeline.
func (h *HUD) Update(extra ...string) {
	if h == nil || !h.visible || h.source == nil {
		return
	}
	extra = append(extra, fmt.Sprintf("TPS %.0f  FPS %.0f", ebiten.ActualTPS(), ebiten.ActualFPS()))
	h.lines = Lines(h.source.Parameters(), extra...)
}

// Draw paints the panel onto screen.
func (h *HUD) Draw(screen *ebiten.Image) {
	if h == nil || !h.visible || len(h.lines) == 0 {
		return
	}
	width := panelPadding * 2
	for _, line := range h.lines {
		if w := text.BoundString(basicfont.Face7x13, line).Dx() + panelPadding*2; w > width {
			width = w
		}
	}
	height := panelPadding*2 + len(h.lines)*lineHeight
	if h.panel == nil || h.panel.Bounds().Dx() != width || h.panel.Bounds().Dy() != height {
		if h.panel != nil {
			h.panel.Dispose()
		}
		h.panel = ebiten.NewImage(width, height)
	}
	h.panel.Fill(color.RGBA{R: h.bg.R, G: h.bg.G, B: h.bg.B, A: 255})

	face := basicfont.Face7x13
	for i, line := range h.lines {
		col := color.RGBA{R: 220, G: 220, B: 230, A: 255}
		if len(line) > 0 && line[0] != ' ' {
			col = color.RGBA{R: 200, G: 200, B: 210, A: 255}
		}
		text.Draw(h.panel, line, face, panelPadding, panelPadding+headerBaseline+i*lineHeight, col)
	}

	op := &ebiten.DrawImageOptions{}
	op.GeoM.Translate(panelMargin, panelMargin)
	op.ColorScale.ScaleAlpha(panelAlpha)
	screen.DrawImage(h.panel, op)
}

const (
	panelMargin    = 8
	panelPadding   = 8
	lineHeight     = 15
	headerBaseline = 11
	panelAlpha     = 0.8
)
