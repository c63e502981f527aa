package main

import (
	"context"
	"fmt"
	"io"
	stdlog "log"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/jezek/xgb"
	"github.com/jezek/xgbutil"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"box11/internal/config"
	"box11/internal/input"
	"box11/internal/paint"
	"box11/internal/textlayout"
)

func main() {
	cmd := newCommand(os.Stdin, os.Stdout, os.Stderr)
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newCommand(stdin io.Reader, stdout, stderr io.Writer) *cobra.Command {
	cfg := config.Default()

	cmd := &cobra.Command{
		Use:           config.AppName + " [OPTIONS]",
		Short:         "Show lines of standard input in a box on the X display",
		SilenceErrors: true,
		SilenceUsage:  true,
		Args:          cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			flags := cmd.Flags()

			if err := config.ApplyEnvironment(flags, os.LookupEnv); err != nil {
				return err
			}
			path, explicit := cfg.File, flags.Changed("config")
			if !explicit {
				path = config.DefaultFile()
			}
			fileWarnings, err := config.LoadDefaultsFile(flags, path, explicit)
			if err != nil {
				return err
			}

			log, err := newLogger(stderr, cfg.LogLevel)
			if err != nil {
				return err
			}
			for _, w := range append(fileWarnings, cfg.Warnings()...) {
				log.Warn(w)
			}
			if len(args) > 0 {
				log.Warnf("Ignoring extra arguments: %s", strings.Join(args, " "))
			}
			log.WithField("config", cfg.String()).Debug("Configured")

			if cfg.Bounds {
				return printBounds(cfg, stdin, stdout, log.WithField("component", "bounds"))
			}
			return runBox(cmd.Context(), cfg, stdin, stdout, log)
		},
	}

	config.BindFlags(cmd.Flags(), cfg)
	cmd.SetHelpFunc(func(c *cobra.Command, _ []string) {
		fmt.Fprint(c.OutOrStdout(), config.Usage)
	})
	cmd.SetIn(stdin)
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)

	return cmd
}

func newLogger(w io.Writer, level string) (*logrus.Logger, error) {
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", level, err)
	}

	log := logrus.New()
	log.SetOutput(w)
	log.SetFormatter(&logrus.TextFormatter{DisableTimestamp: true})
	log.SetLevel(lvl)
	return log, nil
}

func runBox(ctx context.Context, cfg *config.Config, stdin io.Reader, stdout io.Writer, log *logrus.Logger) error {
	xgbLog := log.WriterLevel(logrus.DebugLevel)
	defer xgbLog.Close()
	xgb.Logger = stdlog.New(xgbLog, "X11: ", stdlog.Lmsgprefix)

	X, err := xgb.NewConnDisplay(cfg.Display)
	if err != nil {
		return fmt.Errorf("failed to connect to X server: %w", err)
	}
	defer X.Close()

	xu, err := xgbutil.NewConnXgb(X)
	if err != nil {
		return fmt.Errorf("failed to set up X connection: %w", err)
	}

	log.Debug("Connected to X server")

	dpi := cfg.DPI
	if dpi <= 0 {
		dpi = resourceDPI(xu, cfg.Name, log.WithField("component", "xresources"))
	}

	box, err := NewBoxWindow(X, xu, cfg, log.WithField("component", "window"))
	if err != nil {
		return err
	}
	defer func() {
		if err := box.Destroy(); err != nil {
			log.WithError(err).Debug("Failed to destroy window")
		}
	}()

	WatchScreenChanges(X, xu.RootWin(), log.WithField("component", "xrandr"))

	if err := box.Show(); err != nil {
		return err
	}

	fonts := textlayout.NewFontSet(dpi, log.WithField("component", "fonts"))
	pctx := &paint.Context{
		Window:  box,
		Surface: box.Surface(),
		Layout:  textlayout.New(fonts),
		Out:     stdout,
		Log:     log.WithField("component", "paint"),
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	loop := &input.Loop{
		Reader: stdin,
		Paint: func(text string) error {
			return paint.DrawText(pctx, cfg, text)
		},
		Sync:    box.Sync,
		Present: box.Present,
		Suspend: input.SignalSuspend(),
		Events:  pumpEvents(ctx, X, log.WithField("component", "events")),
		Hold:    cfg.Hold,
		Log:     log.WithField("component", "input"),
	}

	log.WithField("dpi", dpi).Debug("Initialized")

	if err := loop.Run(ctx); err != nil {
		return err
	}
	log.Debug("Exiting...")
	return nil
}
