package cmd

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/kestrel-rl/kestrel/analysis"
	"github.com/kestrel-rl/kestrel/compute"
	"github.com/kestrel-rl/kestrel/core"
	"github.com/kestrel-rl/kestrel/envs"
	"github.com/kestrel-rl/kestrel/observer"
	"github.com/kestrel-rl/kestrel/policies"
	"github.com/kestrel-rl/kestrel/replay"
	"github.com/kestrel-rl/kestrel/util"
)

func TrainCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "train",
		Short: "Train a policy on an environment",
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

			cfg, err := BuildConfig()
			if err != nil {
				return err
			}

			entry, err := policies.Resolve(cfg.Algorithm)
			if err != nil {
				return err
			}

			env, err := envs.New(cfg.Platform, cfg.Environment, cfg.Seed)
			if err != nil {
				return err
			}
			// the evaluation stream is seeded independently of training
			evalEnv, err := envs.New(cfg.Platform, cfg.Environment, cfg.Seed+1)
			if err != nil {
				return err
			}

			cctx := compute.Detect()
			logger.Info("compute context",
				"device", cctx.Device, "features", cctx.Features, "workers", cctx.Workers)

			agent, err := entry.New(env.ObservationSpace(), env.ActionNum(), cfg.Hyperparameters, cctx, cfg.Seed)
			if err != nil {
				return err
			}

			memory := replay.NewBuffer(memoryCapacity, cfg.Seed)

			recorder, err := analysis.NewRecorder(savePath, cfg.Algorithm, cfg.Environment, agent, logger)
			if err != nil {
				return err
			}
			if err := util.SaveJson(filepath.Join(recorder.Dir(), "config.json"), cfg); err != nil {
				return err
			}

			term := observer.NewTerminal()
			defer term.Stop()
			sinks := observer.Multi{term}
			if wsAddr != "" {
				ws := observer.NewWebsocket(logger)
				defer ws.Close()
				go func() {
					if err := http.ListenAndServe(wsAddr, ws.Handler()); err != nil {
						logger.Warn("websocket observer stopped", "err", err)
					}
				}()
				sinks = append(sinks, ws)
			}

			trainer, err := core.NewTrainer(cfg, agent, entry.Family, env, evalEnv, memory, sinks, recorder, logger)
			if err != nil {
				return err
			}

			sigCh := make(chan os.Signal, 1)
			signal.Notify(sigCh, os.Interrupt) // channel for interrupts from os

			doneCh := make(chan struct{}) // channel for done signal from application

			ctx, cancel := context.WithCancel(cmd.Context())
			go func() {
				select {
				case <-sigCh:
				case <-doneCh:
				}
				cancel()
			}()

			completed, err := trainer.Run(ctx)
			close(doneCh)
			if err != nil {
				return err
			}

			logger.Info("training finished", "completed", completed, "dir", recorder.Dir())
			return nil
		},
	}
	return cmd
}
