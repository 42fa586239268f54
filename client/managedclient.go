// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: MIT

package client

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/open-telemetry/opamp-go/protobufs"
	"go.uber.org/zap"

	"github.com/amazon-contributing/opamp-agent-client-go/client/types"
)

// ManagedClient drives a Client with a background worker: a periodic
// ticker, a pending-message notifier, graceful shutdown, and a minimum
// inter-send back-off. Construct with NewManagedClient, Start it once, and
// Stop it once; it cannot be restarted.
type ManagedClient struct {
	inner *Client
	cfg   HTTPClientConfig

	logger *zap.Logger

	mu      sync.Mutex
	started bool
	stopped bool

	shutdownCh chan struct{}
	doneCh     chan struct{}
	ticker     *time.Ticker
}

// NewManagedClient builds a ManagedClient. It does not send anything until
// Start is called.
func NewManagedClient(logger *zap.Logger, settings types.StartSettings, opts ...Option) (*ManagedClient, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	cfg := defaultHTTPClientConfig()
	applyStartSettings(&cfg, settings)
	for _, opt := range opts {
		opt(&cfg)
	}
	cfg.normalize(logger)

	inner, err := New(logger, settings, opts...)
	if err != nil {
		return nil, err
	}

	return &ManagedClient{
		inner:      inner,
		cfg:        cfg,
		logger:     logger,
		shutdownCh: make(chan struct{}),
		doneCh:     make(chan struct{}),
	}, nil
}

// Start performs one synchronous "startup check" poll, then spawns the
// background worker. If the startup check fails and the startup check is
// enabled (the default; see WithPerformStartupCheck), Start returns the
// error without spawning.
func (m *ManagedClient) Start(ctx context.Context) error {
	m.mu.Lock()
	if m.started {
		m.mu.Unlock()
		return ErrAlreadyStarted
	}
	m.started = true
	m.mu.Unlock()

	if err := m.inner.Poll(ctx); err != nil {
		if m.cfg.performStartup {
			return fmt.Errorf("%w: %v", ErrNotStarted, err)
		}
		m.logger.Warn("startup check failed, continuing because startup check is not required", zap.Error(err))
	}

	m.ticker = time.NewTicker(m.cfg.pollingInterval)
	go m.run()
	return nil
}

// run is the worker loop. Shutdown takes priority: a non-blocking check of
// shutdownCh at the top of every iteration ensures shutdown is never starved
// by a busy notifier, since Go's select has no inherent case priority of its
// own. A pending message has no priority over a tick: when both are ready,
// select picks one of them at random and the other is handled on the next
// iteration.
func (m *ManagedClient) run() {
	defer close(m.doneCh)
	defer m.ticker.Stop()

	for {
		select {
		case <-m.shutdownCh:
			return
		default:
		}

		select {
		case <-m.shutdownCh:
			return

		case _, ok := <-m.inner.notifier.Channel():
			if !ok {
				m.logger.Error("pending-message channel closed, worker exiting")
				return
			}
			if err := m.inner.Poll(context.Background()); err != nil {
				m.logger.Warn("poll failed", zap.Error(err))
			}
			time.Sleep(m.cfg.minBetweenPolls)
			m.resetTicker()

		case <-m.ticker.C:
			if err := m.inner.Poll(context.Background()); err != nil {
				m.logger.Warn("poll failed", zap.Error(err))
			}
		}
	}
}

func (m *ManagedClient) resetTicker() {
	m.ticker.Reset(m.cfg.pollingInterval)
}

// Stop signals the worker to exit and waits for it, or for ctx to be done.
// After Stop returns successfully, no further Callbacks are invoked. The
// handle is consumed: a stopped ManagedClient cannot be started again.
func (m *ManagedClient) Stop(ctx context.Context) error {
	m.mu.Lock()
	if m.stopped {
		m.mu.Unlock()
		return nil
	}
	m.stopped = true
	m.mu.Unlock()

	close(m.shutdownCh)

	select {
	case <-m.doneCh:
		return nil
	case <-ctx.Done():
		return ErrStopTimeout
	}
}

// The following mutators mirror Client's but additionally reset the
// periodic ticker: a user-initiated state change re-anchors the next
// scheduled poll to "now".

// SetAgentDescription stages a new description and resets the ticker.
func (m *ManagedClient) SetAgentDescription(ctx context.Context, d *protobufs.AgentDescription) error {
	if err := m.inner.SetAgentDescription(ctx, d); err != nil {
		return err
	}
	m.resetTickerIfRunning()
	return nil
}

// GetAgentDescription returns the last description set.
func (m *ManagedClient) GetAgentDescription() *protobufs.AgentDescription {
	return m.inner.GetAgentDescription()
}

// SetHealth stages a new health report and resets the ticker.
func (m *ManagedClient) SetHealth(ctx context.Context, h *protobufs.ComponentHealth) error {
	if err := m.inner.SetHealth(ctx, h); err != nil {
		return err
	}
	m.resetTickerIfRunning()
	return nil
}

// SetRemoteConfigStatus stages a new remote config status and resets the
// ticker.
func (m *ManagedClient) SetRemoteConfigStatus(ctx context.Context, rcs *protobufs.RemoteConfigStatus) error {
	if err := m.inner.SetRemoteConfigStatus(ctx, rcs); err != nil {
		return err
	}
	m.resetTickerIfRunning()
	return nil
}

// SetCustomCapabilities stages a new custom capabilities set and resets the
// ticker.
func (m *ManagedClient) SetCustomCapabilities(ctx context.Context, cc *protobufs.CustomCapabilities) error {
	if err := m.inner.SetCustomCapabilities(ctx, cc); err != nil {
		return err
	}
	m.resetTickerIfRunning()
	return nil
}

// UpdateEffectiveConfig pulls and stages the current effective config and
// resets the ticker.
func (m *ManagedClient) UpdateEffectiveConfig(ctx context.Context) error {
	if err := m.inner.UpdateEffectiveConfig(ctx); err != nil {
		return err
	}
	m.resetTickerIfRunning()
	return nil
}

func (m *ManagedClient) resetTickerIfRunning() {
	m.mu.Lock()
	running := m.started && !m.stopped
	m.mu.Unlock()
	if running && m.ticker != nil {
		m.resetTicker()
	}
}
