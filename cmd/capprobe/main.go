package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/paul-cloud-game-backend/capprobe/internal/platform"
	"github.com/paul-cloud-game-backend/capprobe/pkg/capability"
	"github.com/paul-cloud-game-backend/capprobe/pkg/config"
	"github.com/paul-cloud-game-backend/capprobe/pkg/logging"
)

var errNotReady = errors.New("one or more capabilities are unavailable")

func main() {
	if err := newRootCmd().ExecuteContext(context.Background()); err != nil {
		if !errors.Is(err, errNotReady) {
			fmt.Fprintln(os.Stderr, "capprobe:", err)
		}
		os.Exit(1)
	}
}

type app struct {
	cfg    config.Config
	logger zerolog.Logger
}

func newRootCmd() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:           "capprobe",
		Short:         "Report which optional tools and services this environment provides",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(*cobra.Command, []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			a.cfg = cfg
			a.logger = logging.New(cfg.AppName, cfg.Env, cfg.LogLevel)
			return nil
		},
	}
	root.AddCommand(a.listCmd(), a.checkCmd(), a.serveCmd())
	return root
}

func (a *app) registry() *capability.Registry {
	return capability.NewDefault(a.cfg, a.logger)
}

func (a *app) listCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List registered capabilities",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			for _, name := range a.registry().Names() {
				fmt.Fprintln(cmd.OutOrStdout(), name)
			}
			return nil
		},
	}
}

func (a *app) checkCmd() *cobra.Command {
	var manifest, format string
	cmd := &cobra.Command{
		Use:   "check [name[@min_version]...]",
		Short: "Probe capabilities and exit non-zero if any is unavailable",
		RunE: func(cmd *cobra.Command, args []string) error {
			if manifest == "" {
				manifest = a.cfg.Manifest
			}
			reg := a.registry()
			reqs, err := platform.Requirements(reg, args, manifest)
			if err != nil {
				return err
			}
			rep := platform.Check(cmd.Context(), reg, reqs)
			if err := platform.WriteReport(cmd.OutOrStdout(), format, rep); err != nil {
				return err
			}
			if !rep.Ready {
				return errNotReady
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&manifest, "manifest", "m", "", "YAML manifest of required capabilities (default $CAPPROBE_MANIFEST)")
	cmd.Flags().StringVarP(&format, "format", "o", "text", "output format: text, json or yaml")
	return cmd
}

func (a *app) serveCmd() *cobra.Command {
	var manifest string
	cmd := &cobra.Command{
		Use:   "serve [name[@min_version]...]",
		Short: "Serve /readyz and /capabilities for the required capabilities",
		RunE: func(cmd *cobra.Command, args []string) error {
			if manifest == "" {
				manifest = a.cfg.Manifest
			}
			reqs, err := platform.Requirements(a.registry(), args, manifest)
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return platform.RunServe(ctx, a.cfg, a.logger, reqs)
		},
	}
	cmd.Flags().StringVarP(&manifest, "manifest", "m", "", "YAML manifest of required capabilities (default $CAPPROBE_MANIFEST)")
	return cmd
}
