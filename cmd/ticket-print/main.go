// ticket-print encodes a ticket body file into an ESC/POS stream and sends
// it to a serial printer, or writes the raw stream to a capture file for
// later replay with ticket-preview.
package main

import (
	"flag"
	"fmt"
	"os"
	"strings"

	"go.uber.org/zap"

	"github.com/drukwerk/ticket-engine/internal/config"
	"github.com/drukwerk/ticket-engine/internal/escpos"
	"github.com/drukwerk/ticket-engine/internal/logging"
	"github.com/drukwerk/ticket-engine/internal/textrender"
	"github.com/drukwerk/ticket-engine/internal/ticket"
	"github.com/drukwerk/ticket-engine/internal/transport"
)

func main() {
	var (
		configPath  = flag.String("config", "", "Config file path")
		bodyPath    = flag.String("body", "", "Ticket body text file (required)")
		headerImgs  = flag.String("header-images", "", "Comma-separated image paths printed before the body")
		capturePath = flag.String("capture", "", "Write the wire stream to this file instead of the serial device")
	)
	flag.Parse()

	if *bodyPath == "" {
		fmt.Fprintln(os.Stderr, "ticket-print: -body is required")
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

	body, err := os.ReadFile(*bodyPath)
	if err != nil {
		log.Fatal("reading ticket body", zap.Error(err))
	}

	var sink escpos.CommandSink
	var capture *transport.CaptureSink
	if *capturePath != "" {
		capture = transport.NewCapture()
		sink = capture
	} else {
		serial, err := transport.OpenSerial(cfg.Printer.Device, cfg.Printer.BaudRate, log)
		if err != nil {
			log.Fatal("opening serial device", zap.Error(err))
		}
		defer serial.Close()
		sink = serial
	}

	fonts := textrender.LoadFonts(
		cfg.Render.ResolveFont(cfg.Render.DefaultFontPath),
		cfg.Render.ResolveFont(cfg.Render.EmojiFontPath),
		cfg.Render.FontSize, log)
	enc, err := escpos.NewEncoder(sink, escpos.EncoderOptions{
		WidthPx:       cfg.Printer.WidthPx,
		Codepage:      cfg.Printer.Codepage,
		International: cfg.Printer.International,
		Renderer:      textrender.New(fonts, log),
		Logger:        log,
	})
	if err != nil {
		log.Fatal("building encoder", zap.Error(err))
	}

	job := ticket.Job{Body: string(body)}
	if *headerImgs != "" {
		job.HeaderImages = strings.Split(*headerImgs, ",")
	}
	if err := ticket.NewPipeline(enc, cfg.Printer.TicketWidthChars, log).Print(job); err != nil {
		log.Fatal("printing ticket", zap.Error(err))
	}

	if capture != nil {
		if err := capture.WriteFile(*capturePath); err != nil {
			log.Fatal("writing capture file", zap.Error(err))
		}
		log.Info("capture written", zap.String("path", *capturePath),
			zap.Int("bytes", len(capture.Bytes())))
	}
}
