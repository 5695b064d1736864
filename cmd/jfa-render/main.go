// Command jfa-render renders one frame with the software backend and writes
// the composite and the raw field as PNG files.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"jumpflood/internal/app"
	"jumpflood/internal/core"
	"jumpflood/internal/gpu/soft"
	"jumpflood/internal/jfa"
	"jumpflood/internal/render"
	pcore "jumpflood/pkg/core"
)

func main() {
	cfg := app.NewConfig()
	cfg.Bind(flag.CommandLine)
	seedX := flag.Float64("x", -1, "seed x in pixels, negative for the centre")
	seedY := flag.Float64("y", -1, "seed y in pixels, negative for the centre")
	random := flag.Bool("random", false, "place the seed at a random pixel chosen from -seed")
	out := flag.String("out", "jfa.png", "composite PNG path")
	fieldOut := flag.String("field", "", "optional PNG path for the raw field texels")
	scale := flag.Int("scale", 1, "integer upscale factor for the composite PNG")
	metrics := flag.Bool("metrics", false, "log the pipeline metrics after rendering")
	flag.Parse()
	if err := cfg.Resolve(flag.CommandLine); err != nil {
		log.Fatal(err)
	}

	logger, err := app.NewLogger(cfg.LogLevel)
	if err != nil {
		log.Fatal(err)
	}
	defer logger.Sync()

	size := cfg.Size()
	seed := core.Center(size)
	switch {
	case *random:
		seed = pcore.NewRNG(cfg.Seed).Point(size)
	case *seedX >= 0 && *seedY >= 0:
		seed = core.Point{X: float32(*seedX), Y: float32(*seedY)}
	}

	reg := prometheus.NewRegistry()
	backend := soft.New(soft.Options{Workers: cfg.Workers, Logger: logger.Named("soft")})
	pipeline, err := jfa.New(backend, jfa.Options{
		Size:       size,
		Seed:       &seed,
		Mode:       cfg.Mode,
		Passes:     cfg.Passes,
		Logger:     logger.Named("jfa"),
		Registerer: reg,
	})
	if err != nil {
		logger.Fatal("pipeline setup failed", zap.Error(err))
	}
	defer pipeline.Close()

	start := time.Now()
	if err := pipeline.RenderFrame(context.Background()); err != nil {
		logger.Fatal("render failed", zap.Error(err))
	}
	field, err := pipeline.ReadField()
	if err != nil {
		logger.Fatal("readback failed", zap.Error(err))
	}
	logger.Info("frame rendered",
		zap.Duration("elapsed", time.Since(start)),
		zap.Int("passes", len(pipeline.Steps())),
		zap.Int("unreached", field.Unreached()),
		zap.Stringer("mode", pipeline.Mode()))

	if err := render.WritePNG(*out, render.Scale(backend.LastFrame(), *scale)); err != nil {
		logger.Fatal("write composite", zap.Error(err))
	}
	if *fieldOut != "" {
		pix, err := pipeline.ReadFieldBytes()
		if err != nil {
			logger.Fatal("readback failed", zap.Error(err))
		}
		img, err := render.TexelImage(size, pix)
		if err != nil {
			logger.Fatal("field image", zap.Error(err))
		}
		if err := render.WritePNG(*fieldOut, img); err != nil {
			logger.Fatal("write field", zap.Error(err))
		}
	}

	if *metrics {
		if err := logMetrics(logger, reg); err != nil {
			logger.Fatal("gather metrics", zap.Error(err))
		}
	}
	st := backend.Stats()
	logger.Debug("backend stats",
		zap.Int("submits", st.Submits), zap.Int("passes", st.Passes),
		zap.Int("uniform_writes", st.UniformWrites), zap.Int64("texture_bytes", st.TextureBytes))
}

func logMetrics(logger *zap.Logger, g prometheus.Gatherer) error {
	families, err := g.Gather()
	if err != nil {
		return err
	}
	for _, mf := range families {
		for _, m := range mf.GetMetric() {
			var labels []string
			for _, lp := range m.GetLabel() {
				labels = append(labels, fmt.Sprintf("%s=%s", lp.GetName(), lp.GetValue()))
			}
			fields := []zap.Field{zap.String("name", mf.GetName()), zap.String("labels", strings.Join(labels, ","))}
			switch {
			case m.GetCounter() != nil:
				fields = append(fields, zap.Float64("value", m.GetCounter().GetValue()))
			case m.GetHistogram() != nil:
				h := m.GetHistogram()
				fields = append(fields, zap.Uint64("count", h.GetSampleCount()), zap.Float64("sum", h.GetSampleSum()))
			}
			logger.Info("metric", fields...)
		}
	}
	return nil
}
