package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"

	"github.com/urfave/cli/v2"
	"golang.org/x/sync/errgroup"

	"github.com/rascol/lpximage"
	"github.com/rascol/lpximage/broadcast"
	"github.com/rascol/lpximage/source"
)

// serve wires every component described in spec.md section 4: it loads
// the scan tables, opens the video source, builds the scan engine and
// broadcast server, and runs the pipeline until the process receives an
// interrupt.
func serve(cfg lpx.Config) error {
	tablesFile, err := os.Open(cfg.ScanTablesPath)
	if err != nil {
		return fmt.Errorf("lpxserver: opening scan tables: %w", err)
	}
	tables, err := lpx.Load(tablesFile)
	tablesFile.Close()
	if err != nil {
		return fmt.Errorf("lpxserver: loading scan tables: %w", err)
	}
	cfg.Logger.Printf("lpxserver: loaded scan tables: map_width=%d spiral_period=%.4f total_cells=%d",
		tables.MapWidth, tables.SpiralPeriod, tables.TotalCells())

	decoder, err := source.OpenRawFile(cfg.VideoFilePath)
	if err != nil {
		return fmt.Errorf("lpxserver: opening video: %w", err)
	}
	defer decoder.Close()

	engine := lpx.NewScanEngine(tables)
	defer engine.Close()

	center := &lpx.Center{}

	addr := fmt.Sprintf(":%d", cfg.Port)
	server, err := broadcast.NewServer(addr, tables, center, cfg.OutputWidth, cfg.OutputHeight, cfg.LoopVideo, cfg.Logger)
	if err != nil {
		return fmt.Errorf("lpxserver: starting broadcast server: %w", err)
	}
	cfg.Logger.Printf("lpxserver: listening on %s", server.Addr())

	driver := source.NewDriver(decoder, engine, server, center, cfg.OutputWidth, cfg.OutputHeight, cfg.TargetFPS, server.Looping)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	server.ListenAndServe(driver)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		<-gctx.Done()
		cfg.Logger.Println("lpxserver: shutting down")
		server.Stop()
		return nil
	})
	g.Go(func() error {
		server.Wait()
		return nil
	})
	return g.Wait()
}

func main() {
	app := &cli.App{
		Name:  "lpxserver",
		Usage: "Serve an LPX log-polar video stream over TCP.",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "scan-tables",
				Usage: "Path to the binary scan-tables file.",
				EnvVars: []string{"LPX_SCAN_TABLES"},
			},
			&cli.StringFlag{
				Name:    "video",
				Usage:   "Path to the LPXV raw video container.",
				EnvVars: []string{"LPX_VIDEO"},
			},
			&cli.UintFlag{
				Name:    "port",
				Usage:   "TCP port to listen on.",
				Value:   lpx.DefaultPort,
				EnvVars: []string{"LPX_PORT"},
			},
			&cli.IntFlag{
				Name:    "width",
				Usage:   "Output frame width in pixels; video frames are resized to it before scanning.",
				EnvVars: []string{"LPX_WIDTH"},
			},
			&cli.IntFlag{
				Name:    "height",
				Usage:   "Output frame height in pixels; video frames are resized to it before scanning.",
				EnvVars: []string{"LPX_HEIGHT"},
			},
			&cli.Float64Flag{
				Name:    "fps",
				Usage:   "Target frame rate; <= 0 uses the video's native rate.",
				EnvVars: []string{"LPX_FPS"},
			},
			&cli.BoolFlag{
				Name:    "loop",
				Usage:   "Loop the video when it reaches end of stream.",
				EnvVars: []string{"LPX_LOOP"},
			},
			&cli.StringFlag{
				Name:    "tiledb-config",
				Usage:   "Optional TileDB config URI, stored in the config; the server does not use it.",
				EnvVars: []string{"LPX_TILEDB_CONFIG"},
			},
		},
		Action: func(cCtx *cli.Context) error {
			base := lpx.Config{
				ScanTablesPath:  cCtx.String("scan-tables"),
				VideoFilePath:   cCtx.String("video"),
				Port:            uint16(cCtx.Uint("port")),
				OutputWidth:     cCtx.Int("width"),
				OutputHeight:    cCtx.Int("height"),
				TargetFPS:       cCtx.Float64("fps"),
				LoopVideo:       cCtx.Bool("loop"),
				TileDBConfigURI: cCtx.String("tiledb-config"),
			}
			cfg, err := lpx.LoadConfigEnv(base)
			if err != nil {
				return err
			}
			return serve(cfg)
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}
