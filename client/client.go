// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: MIT

// Package client implements the OpAMP Agent-side client: a state store, a
// next-message builder, a server-message processor, and an HTTP sender
// composed into a single-shot façade (Client) and a managed background
// worker (ManagedClient) built on top of it.
package client

import (
	"context"
	"fmt"

	"github.com/open-telemetry/opamp-go/protobufs"
	"go.uber.org/zap"

	"github.com/amazon-contributing/opamp-agent-client-go/client/internal"
	"github.com/amazon-contributing/opamp-agent-client-go/client/types"
	"github.com/amazon-contributing/opamp-agent-client-go/instanceuid"
)

// maxNeedsResendIterations bounds the ReportFullState resend loop. A server
// that perpetually asks for a full resync would otherwise live-lock the
// client.
const maxNeedsResendIterations = 3

// Client is the single-shot façade: one send/process cycle at a time, no
// background worker. ManagedClient wraps one of these to drive it
// periodically.
type Client struct {
	logger       *zap.Logger
	callbacks    types.Callbacks
	state        *internal.ClientSyncedState
	nextMessage  *internal.NextMessage
	capabilities types.Capabilities
	sender       *internal.HTTPSender
	notifier     *internal.Notifier
}

// New builds a Client from StartSettings and HTTP options, seeding its
// InstanceUid, capabilities, and initial agent description.
func New(logger *zap.Logger, settings types.StartSettings, opts ...Option) (*Client, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	cfg := defaultHTTPClientConfig()
	applyStartSettings(&cfg, settings)
	for _, opt := range opts {
		opt(&cfg)
	}
	cfg.normalize(logger)

	id := settings.InstanceUid
	if (instanceuid.InstanceUid(id)).IsNil() {
		generated, err := instanceuid.Create()
		if err != nil {
			return nil, fmt.Errorf("client: generate instance uid: %w", err)
		}
		id = generated
	}

	state := internal.NewClientSyncedState()
	if settings.AgentDescription != nil {
		if err := state.SetAgentDescription(settings.AgentDescription); err != nil {
			return nil, fmt.Errorf("client: initial agent description: %w", err)
		}
	}

	caps := settings.Capabilities
	if caps == 0 {
		caps = types.NewCapabilities()
	}

	nextMessage := internal.NewNextMessage(
		instanceuid.InstanceUid(id).ToBytes(),
		settings.AgentDescription,
		caps.Mask(),
	)

	sender := internal.NewHTTPSender(logger)
	sender.SetURL(cfg.url)
	for k, v := range cfg.headers {
		sender.SetRequestHeader(k, v)
	}
	sender.SetTimeout(cfg.timeout)
	sender.SetGzipCompression(cfg.gzipCompression)
	if cfg.tlsConfig != nil {
		sender.AddTLSConfig(cfg.tlsConfig)
	}

	callbacks := settings.Callbacks
	callbacks.SetDefaults()

	return &Client{
		logger:       logger,
		callbacks:    callbacks,
		state:        state,
		nextMessage:  nextMessage,
		capabilities: caps,
		sender:       sender,
		notifier:     internal.NewNotifier(logger),
	}, nil
}

// GetAgentDescription returns the last description set via
// SetAgentDescription or StartSettings.
func (c *Client) GetAgentDescription() *protobufs.AgentDescription {
	return c.state.AgentDescription()
}

// SetAgentDescription validates and stages a new description. A deep-equal
// no-op produces zero HTTP traffic.
func (c *Client) SetAgentDescription(ctx context.Context, d *protobufs.AgentDescription) error {
	if c.state.AgentDescriptionUnchanged(d) {
		return nil
	}
	if err := c.state.SetAgentDescription(d); err != nil {
		return fmt.Errorf("client: %w", err)
	}
	c.nextMessage.Update(func(msg *protobufs.AgentToServer) {
		msg.AgentDescription = d
	})
	c.notifier.Notify()
	return nil
}

// SetHealth requires ReportsHealth. A deep-equal no-op (ignoring
// StatusTimeUnixNano) produces zero HTTP traffic.
func (c *Client) SetHealth(ctx context.Context, h *protobufs.ComponentHealth) error {
	if !c.capabilities.Has(protobufs.AgentCapabilities_AgentCapabilities_ReportsHealth) {
		return capabilityError("ReportsHealth")
	}
	if c.state.HealthUnchanged(h) {
		return nil
	}
	c.state.SetHealth(h)
	c.nextMessage.Update(func(msg *protobufs.AgentToServer) {
		msg.Health = h
	})
	c.notifier.Notify()
	return nil
}

// SetRemoteConfigStatus requires ReportsRemoteConfig. The SyncedState
// update happens even if the later send fails, so a subsequent
// ReportFullState can recover the Agent's intent.
func (c *Client) SetRemoteConfigStatus(ctx context.Context, rcs *protobufs.RemoteConfigStatus) error {
	if !c.capabilities.Has(protobufs.AgentCapabilities_AgentCapabilities_ReportsRemoteConfig) {
		return capabilityError("ReportsRemoteConfig")
	}
	if c.state.RemoteConfigStatusUnchanged(rcs) {
		return nil
	}
	c.state.SetRemoteConfigStatus(rcs)
	c.nextMessage.Update(func(msg *protobufs.AgentToServer) {
		msg.RemoteConfigStatus = rcs
	})
	c.notifier.Notify()
	return nil
}

// SetCustomCapabilities stages a new custom capabilities set. A deep-equal
// no-op produces zero HTTP traffic.
func (c *Client) SetCustomCapabilities(ctx context.Context, cc *protobufs.CustomCapabilities) error {
	if c.state.CustomCapabilitiesUnchanged(cc) {
		return nil
	}
	c.state.SetCustomCapabilities(cc)
	c.nextMessage.Update(func(msg *protobufs.AgentToServer) {
		msg.CustomCapabilities = cc
	})
	c.notifier.Notify()
	return nil
}

// UpdateEffectiveConfig requires ReportsEffectiveConfig. It pulls the
// current effective config from the Agent via callback and stages it.
func (c *Client) UpdateEffectiveConfig(ctx context.Context) error {
	if !c.capabilities.Has(protobufs.AgentCapabilities_AgentCapabilities_ReportsEffectiveConfig) {
		return capabilityError("ReportsEffectiveConfig")
	}
	cfg, err := c.callbacks.GetEffectiveConfig(ctx)
	if err != nil {
		return fmt.Errorf("client: get effective config: %w", err)
	}
	c.nextMessage.Update(func(msg *protobufs.AgentToServer) {
		msg.EffectiveConfig = cfg
	})
	c.notifier.Notify()
	return nil
}

// RequestNewInstanceUid asks the Server to assign this Agent a fresh
// instance UID on the next exchange, by setting the RequestInstanceUid
// flag on the next outgoing message. The flag is cleared automatically once
// the Server honors the request with a non-empty AgentIdentification.
func (c *Client) RequestNewInstanceUid(ctx context.Context) {
	c.state.SetFlags(c.state.Flags() | uint64(protobufs.AgentToServerFlags_AgentToServerFlags_RequestInstanceUid))
	c.notifier.Notify()
}

// Poll executes one send/process cycle, following the server's
// ReportFullState requests with at most maxNeedsResendIterations sends in
// total, i.e. at most maxNeedsResendIterations-1 resends.
func (c *Client) Poll(ctx context.Context) error {
	for i := 0; i < maxNeedsResendIterations; i++ {
		resend, err := c.pollOnce(ctx)
		if err != nil {
			return err
		}
		if !resend {
			return nil
		}
	}
	c.logger.Warn("report_full_state loop exceeded iteration cap, giving up for this cycle",
		zap.Int("max_iterations", maxNeedsResendIterations))
	return nil
}

func (c *Client) pollOnce(ctx context.Context) (needsResend bool, err error) {
	if flags := c.state.Flags(); flags != 0 {
		c.nextMessage.Update(func(msg *protobufs.AgentToServer) {
			msg.Flags |= flags
		})
	}

	msg := c.nextMessage.Pop()

	resp, sendErr := c.sender.Send(ctx, msg)
	if sendErr != nil {
		c.callbacks.OnConnectFailed(ctx, sendErr)
		return false, fmt.Errorf("%w: %v", ErrConnectFailed, sendErr)
	}
	c.callbacks.OnConnect(ctx)

	result := internal.ProcessReceivedMessage(ctx, c.logger, resp, c.callbacks, c.state, c.capabilities, c.nextMessage)
	return result == internal.NeedsResend, nil
}
