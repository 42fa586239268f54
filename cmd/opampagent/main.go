// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: MIT

// Command opampagent is a minimal demonstration of client.ManagedClient:
// it connects to an OpAMP server and restarts a managed child process
// whenever the server issues a restart command.
package main

import (
	"context"
	"errors"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/open-telemetry/opamp-go/protobufs"
	"go.uber.org/zap"

	"github.com/amazon-contributing/opamp-agent-client-go/client"
	"github.com/amazon-contributing/opamp-agent-client-go/client/types"
	"github.com/amazon-contributing/opamp-agent-client-go/cmd/opampagent/processmanager"
	"github.com/amazon-contributing/opamp-agent-client-go/logger"
)

func main() {
	serverURL := flag.String("server-url", "http://localhost:4320/v1/opamp", "OpAMP server URL")
	executable := flag.String("executable", "", "path to the managed agent executable")
	pollInterval := flag.Duration("poll-interval", 30*time.Second, "periodic poll interval")
	logLevel := flag.String("log-level", "info", "log level: debug, info, warn, or error")
	flag.Parse()

	log, err := logger.NewProductionLogger(*logLevel)
	if err != nil {
		os.Exit(1)
	}
	defer log.Sync()

	pm := processmanager.New(log.Named("agent"), processmanager.Config{
		Executable: *executable,
		Args:       flag.Args(),
		Env:        os.Environ(),
	})

	settings := types.StartSettings{
		Capabilities: types.NewCapabilities(
			protobufs.AgentCapabilities_AgentCapabilities_ReportsHealth,
			protobufs.AgentCapabilities_AgentCapabilities_AcceptsRestartCommand,
		),
		AgentDescription: &protobufs.AgentDescription{
			IdentifyingAttributes: []*protobufs.KeyValue{
				{Key: "service.name", Value: &protobufs.AnyValue{Value: &protobufs.AnyValue_StringValue{StringValue: "opampagent"}}},
			},
		},
		Callbacks: types.Callbacks{
			OnConnect: func(ctx context.Context) {
				log.Info("connected to opamp server")
			},
			OnConnectFailed: func(ctx context.Context, err error) {
				log.Warn("connect to opamp server failed", zap.Error(err))
			},
			OnCommand: func(ctx context.Context, command *protobufs.ServerToAgentCommand) error {
				if command.Type != protobufs.CommandType_CommandType_Restart {
					return nil
				}
				log.Info("server requested restart")
				return pm.Restart(ctx)
			},
		},
	}

	mc, err := client.NewManagedClient(log, settings,
		client.WithURL(*serverURL),
		client.WithPollingInterval(*pollInterval),
	)
	if err != nil {
		log.Fatal("failed to build managed client", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if *executable != "" {
		if err := pm.Start(ctx); err != nil {
			log.Fatal("failed to start managed agent process", zap.Error(err))
		}
	}

	if err := mc.Start(ctx); err != nil {
		log.Fatal("failed to start opamp client", zap.Error(err))
	}

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := mc.Stop(shutdownCtx); err != nil && !errors.Is(err, context.DeadlineExceeded) {
		log.Warn("error stopping opamp client", zap.Error(err))
	}
	if *executable != "" {
		if err := pm.Stop(shutdownCtx); err != nil {
			log.Warn("error stopping managed agent process", zap.Error(err))
		}
	}
}
