package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/xkilldash9x/vivado-fetch/internal/config"
	"github.com/xkilldash9x/vivado-fetch/internal/download"
	"github.com/xkilldash9x/vivado-fetch/internal/navigator"
	"github.com/xkilldash9x/vivado-fetch/internal/observability"
)

// sessionCloseTimeout bounds the graceful browser shutdown; after it the
// allocator kills Chrome.
const sessionCloseTimeout = 10 * time.Second

// run resolves the arguments, opens the browser, drives the site and waits
// for the download. The browser is closed on every path once started.
func run(cmd *cobra.Command, deps Dependencies, cfg *config.Config, flags config.Flags) error {
	ctx := cmd.Context()
	logger := observability.GetLogger()

	rc, err := config.Resolve(flags, deps.Home)
	if err != nil {
		return err
	}
	logger.Info("Fetching Vivado release.",
		zap.String("version", rc.Version),
		zap.String("output", rc.OutputDir),
		zap.Duration("timeout", rc.Timeout),
	)

	sess, err := deps.Launch(ctx, cfg, rc.OutputDir, logger)
	if err != nil {
		return err
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), sessionCloseTimeout)
		defer cancel()
		if err := sess.Close(closeCtx); err != nil {
			logger.Warn("Failed to close browser session.", zap.Error(err))
		}
	}()

	baseline, err := download.Snapshot(rc.OutputDir)
	if err != nil {
		return err
	}

	nav := navigator.New(cfg.Vendor, cfg.Profile, deps.Prompter(cmd), logger)
	trig, err := nav.Run(ctx, sess, rc)
	if err != nil {
		return err
	}

	exp := download.Expectation{ExpectedSize: trig.ExpectedSize, Baseline: baseline}
	if trig.FileName != "" {
		exp.Names = []string{trig.FileName}
	}

	var opts []download.Option
	if deps.Clock != nil {
		opts = append(opts, download.WithClock(deps.Clock))
	}
	if cfg.Download.Progress {
		opts = append(opts, download.WithProgress(download.NewBar(cmd.ErrOrStderr())))
	}
	outcome := download.NewWaiter(cfg.Download, logger, opts...).Wait(ctx, rc.OutputDir, rc.Timeout, exp)
	if deps.OnOutcome != nil {
		deps.OnOutcome(outcome)
	}
	if !outcome.Succeeded {
		return &OutcomeError{Outcome: outcome}
	}

	for _, p := range outcome.FilePaths {
		fmt.Fprintf(cmd.OutOrStdout(), "File saved to %s\n", p)
	}
	return nil
}
