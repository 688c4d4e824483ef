// Copyright (c) 2023-2025 RapidaAI
// Author: Prashant Srivastav <prashant@rapida.ai>
//
// Licensed under GPL-2.0 with Rapida Additional Terms.
// See LICENSE.md or contact sales@rapida.ai for commercial usage.
package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	internal_artifact "github.com/rapidaai/voicebridge/internal/artifact"
	internal_capture "github.com/rapidaai/voicebridge/internal/audio/capture"
	internal_codec "github.com/rapidaai/voicebridge/internal/audio/codec"
	internal_graph "github.com/rapidaai/voicebridge/internal/audio/graph"
	internal_recorder "github.com/rapidaai/voicebridge/internal/audio/recorder"
	internal_stats "github.com/rapidaai/voicebridge/internal/audio/stats"
	internal_orchestrator "github.com/rapidaai/voicebridge/internal/orchestrator"
	internal_session "github.com/rapidaai/voicebridge/internal/session"
	"github.com/rapidaai/voicebridge/config"
	"github.com/rapidaai/voicebridge/pkg/commons"
	voice_routers "github.com/rapidaai/voicebridge/router"
)

const shutdownGrace = 10 * time.Second

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "voicebridge: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.InitConfig()
	if err != nil {
		return err
	}

	logger, err := commons.NewApplicationLogger(
		commons.Name(cfg.Name),
		commons.Path(cfg.LogPath),
		commons.Level(cfg.LogLevel),
	)
	if err != nil {
		return err
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	endpoint := internal_session.ResolveEndpoint(internal_session.ExecutionContext{
		Host:   cfg.Host,
		Port:   cfg.Port,
		Secure: cfg.Secure(),
	}, cfg.WorkerAddr, cfg.WorkerPath)
	logger.Infow("resolved worker endpoint", "endpoint", endpoint)

	decoder, err := internal_codec.NewOpusDecoder()
	if err != nil {
		return fmt.Errorf("failed to initialize audio decoder: %w", err)
	}
	encoder, err := internal_codec.NewOpusEncoder(cfg.RecordingBitrate)
	if err != nil {
		return fmt.Errorf("failed to initialize audio encoder: %w", err)
	}

	graph := internal_graph.NewGraph(logger)
	store := internal_artifact.NewStore()
	stats := internal_stats.NewRegistry()

	device := internal_recorder.NewStreamCapture(
		logger,
		internal_codec.SampleRate,
		2, // stereo mix: remote left, microphone right
		time.Duration(cfg.RecordingTimesliceMs)*time.Millisecond,
	)
	recorder := internal_recorder.NewController(logger, graph, device, store, cfg.RecordingMime)

	orch := internal_orchestrator.New(
		logger, graph, recorder, stats, encoder, decoder,
		endpoint, cfg.VoicePrompt, cfg.TextPrompt,
	)
	defer orch.Teardown()

	if cfg.MicPipe != "" {
		mic, err := os.Open(cfg.MicPipe)
		if err != nil {
			return fmt.Errorf("failed to open microphone pipe: %w", err)
		}
		defer mic.Close()
		source := internal_capture.NewPCMReaderSource(logger, orch.MicSink())
		source.Start(ctx, mic)
		defer source.Stop()
	}

	engine := voice_routers.SetupEngine(cfg, logger)
	voice_routers.VoiceApiRoute(cfg, engine, logger, orch, store, stats)

	server := &http.Server{
		Addr:    net.JoinHostPort(cfg.Host, fmt.Sprintf("%d", cfg.Port)),
		Handler: engine,
	}

	group, ctx := errgroup.WithContext(ctx)
	group.Go(func() error {
		logger.Infow("control surface listening", "addr", server.Addr, "secure", cfg.Secure())
		var err error
		if cfg.Secure() {
			err = server.ListenAndServeTLS(cfg.TLSCertFile, cfg.TLSKeyFile)
		} else {
			err = server.ListenAndServe()
		}
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	})
	group.Go(func() error {
		<-ctx.Done()
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	return group.Wait()
}
