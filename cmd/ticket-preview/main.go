// ticket-preview replays a captured ESC/POS stream through the visual
// simulator and writes the reconstructed ticket as a PNG.
package main

import (
	"flag"
	"fmt"
	"image/png"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/drukwerk/ticket-engine/internal/config"
	"github.com/drukwerk/ticket-engine/internal/logging"
	"github.com/drukwerk/ticket-engine/internal/simulator"
)

func main() {
	var (
		configPath  = flag.String("config", "", "Config file path")
		capturePath = flag.String("capture", "", "Captured wire stream file (required)")
		outPath     = flag.String("out", "", "Output PNG path (default: <output_dir>/<uuid>.png)")
	)
	flag.Parse()

	if *capturePath == "" {
		fmt.Fprintln(os.Stderr, "ticket-preview: -capture is required")
		flag.Usage()
		os.Exit(2)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	log, err := logging.New(cfg.Logging)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer log.Sync()

	data, err := os.ReadFile(*capturePath)
	if err != nil {
		log.Fatal("reading capture", zap.Error(err))
	}

	sim, err := simulator.New(cfg.Printer.WidthPx, cfg.Printer.Codepage, cfg.Printer.International, log)
	if err != nil {
		log.Fatal("building simulator", zap.Error(err))
	}
	if err := sim.Replay(data); err != nil {
		log.Fatal("replaying stream", zap.Error(err))
	}
	img := sim.Close()

	path := *outPath
	if path == "" {
		if err := os.MkdirAll(cfg.Preview.OutputDir, 0o755); err != nil {
			log.Fatal("creating output dir", zap.Error(err))
		}
		path = filepath.Join(cfg.Preview.OutputDir, uuid.NewString()+".png")
	}
	f, err := os.Create(path)
	if err != nil {
		log.Fatal("creating preview file", zap.Error(err))
	}
	defer f.Close()
	if err := png.Encode(f, img); err != nil {
		log.Fatal("encoding preview", zap.Error(err))
	}
	log.Info("preview written", zap.String("path", path),
		zap.Int("width_px", img.Bounds().Dx()), zap.Int("height_px", img.Bounds().Dy()))
}
