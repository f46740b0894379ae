// Command muxconv is the CLI entrypoint for the muxconv single-file
// converter.
//
// It parses flags, validates configuration, and either runs libav
// diagnostics (--check), the HTTP control service (--serve), or one
// remux / re-encode conversion of the positional input.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"

	"github.com/backmassage/muxconv/internal/api"
	"github.com/backmassage/muxconv/internal/check"
	"github.com/backmassage/muxconv/internal/config"
	"github.com/backmassage/muxconv/internal/display"
	"github.com/backmassage/muxconv/internal/ffmpeg"
	"github.com/backmassage/muxconv/internal/logging"
	"github.com/backmassage/muxconv/internal/pipeline"
	"github.com/backmassage/muxconv/internal/term"
)

// version and commit are injected at build time via -ldflags.
var (
	version = "1.0.0"
	commit  = "unknown"
)

// Exit codes.
const (
	exitOK    = 0
	exitFail  = 1
	exitUsage = 2
)

func main() {
	os.Exit(run())
}

func run() int {
	// Phase 1: Bootstrap. The logger doesn't exist yet, so errors go
	// directly to stderr via fmt.
	cfg := config.DefaultConfig()
	if err := config.ParseFlags(&cfg, os.Args[1:], version); err != nil {
		fmt.Fprintf(os.Stderr, "muxconv: %v\n", err)
		fmt.Fprintln(os.Stderr, "Try 'muxconv --help' for more information.")
		return exitUsage
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "muxconv: %v\n", err)
		return exitUsage
	}

	log, err := logging.NewLogger(&cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "muxconv: %v\n", err)
		return exitFail
	}
	defer log.Close()

	// Phase 2: Logger available. libav's own messages are routed through it.
	ffmpeg.RouteLogs(log, cfg.LibavLogLevel)
	defer ffmpeg.ResetLogs()

	display.PrintBanner(os.Stdout, version)
	log.Debug("muxconv %s (%s)", version, commit)
	if cfg.ConfigFile != "" {
		log.Debug("Config file: %s", cfg.ConfigFile)
	}

	if cfg.CheckOnly {
		check.RunCheck(&cfg, log)
		return exitOK
	}

	// Phase 3: Signal handling. SIGINT/SIGTERM cancel the run; the output
	// is still finalized with a trailer.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	ctrl := pipeline.NewController(pipeline.SettingsFromConfig(&cfg), log)

	if cfg.Serving() {
		srv := api.NewServer(ctrl, log)
		if err := srv.Serve(ctx, cfg.ServeAddr); err != nil {
			log.Error("Server: %v", err)
			return exitFail
		}
		return exitOK
	}

	// Phase 4: One conversion.
	if err := check.CheckDeps(&cfg); err != nil {
		log.Error("%v", err)
		return exitFail
	}
	return convert(ctx, &cfg, ctrl, log)
}

// convert starts one run, renders its messages and reports the result.
func convert(ctx context.Context, cfg *config.Config, ctrl *pipeline.Controller, log *logging.Logger) int {
	r, err := ctrl.Start(ctx, pipeline.Request{
		Input:    cfg.InputPath,
		Format:   string(cfg.Format),
		Reencode: cfg.Reencode,
	})
	if err != nil {
		log.Error("%v", err)
		return exitUsage
	}
	log.Info("Input:  %s", r.Input())
	log.Info("Output: %s", r.Output())
	if cfg.Reencode {
		log.Info("Video:  %s @ %s", cfg.VideoEncoder, display.FormatBitrate(cfg.VideoBitRate))
	}

	renderer := display.NewRenderer(os.Stdout, log, term.IsTerminal(os.Stdout))

	var g errgroup.Group
	g.Go(func() error {
		for m := range r.Messages() {
			renderer.Handle(m.String())
		}
		renderer.Finish()
		return nil
	})
	g.Go(func() error {
		select {
		case <-ctx.Done():
			log.Warn("Received interrupt, finalizing output...")
		case <-r.Done():
		}
		return nil
	})
	_ = g.Wait()

	res := r.Wait()
	s := res.Stats
	switch {
	case errors.Is(res.Err, pipeline.ErrCancelled):
		log.Warn("Cancelled after %s; output finalized: %s", display.FormatElapsed(s.Elapsed), res.Output)
		return exitOK
	case res.Err != nil:
		log.Err(res.Err, "Conversion failed")
		return exitFail
	}

	verb := "Remuxed"
	if cfg.Reencode {
		verb = "Encoded"
	}
	log.Success("%s in %s (%d%% of original)", verb, display.FormatElapsed(s.Elapsed), s.Ratio())
	log.Info("  Size: %s -> %s (%s)",
		display.FormatBytes(s.InputBytes),
		display.FormatBytes(s.OutputBytes),
		display.FormatBytesWithSign(-s.SpaceSaved()))
	log.Debug("  Packets: %d read, %d copied, %d encoded, %d discarded; %d frames decoded; %d messages dropped",
		s.PacketsRead, s.PacketsCopied, s.PacketsEncoded, s.PacketsDiscarded, s.FramesDecoded, s.MessagesDropped)
	return exitOK
}
