// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: MIT

package client

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/open-telemetry/opamp-go/protobufs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"google.golang.org/protobuf/proto"

	"github.com/amazon-contributing/opamp-agent-client-go/client/types"
)

// countingServer replies with an empty ServerToAgent and counts requests.
func countingServer(t *testing.T, handle func(w http.ResponseWriter, r *http.Request, n int) bool) (*httptest.Server, *int64) {
	var n int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		count := atomic.AddInt64(&n, 1)
		if handle != nil && handle(w, r, int(count)) {
			return
		}
		data, err := proto.Marshal(&protobufs.ServerToAgent{})
		require.NoError(t, err)
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(data)
	}))
	return srv, &n
}

func newTestClient(t *testing.T, srv *httptest.Server, settings types.StartSettings, opts ...Option) *Client {
	allOpts := append([]Option{WithURL(srv.URL)}, opts...)
	c, err := New(zap.NewNop(), settings, allOpts...)
	require.NoError(t, err)
	return c
}

func TestPollSendsOneRequestAndInvokesCallbacks(t *testing.T) {
	srv, n := countingServer(t, nil)
	defer srv.Close()

	var connected, messaged bool
	settings := types.StartSettings{
		AgentDescription: &protobufs.AgentDescription{
			IdentifyingAttributes: []*protobufs.KeyValue{{Key: "service.name"}},
		},
		Capabilities: types.NewCapabilities(),
		Callbacks: types.Callbacks{
			OnConnect: func(ctx context.Context) { connected = true },
			OnMessage: func(ctx context.Context, msg *types.MessageData) { messaged = true },
		},
	}
	c := newTestClient(t, srv, settings)

	require.NoError(t, c.Poll(context.Background()))
	assert.Equal(t, int64(1), atomic.LoadInt64(n))
	assert.True(t, connected)
	assert.True(t, messaged)
}

func TestSetHealthDuplicateSuppressesSend(t *testing.T) {
	var healthSent int64
	srv, n := countingServer(t, func(w http.ResponseWriter, r *http.Request, _ int) bool {
		body, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		var msg protobufs.AgentToServer
		require.NoError(t, proto.Unmarshal(body, &msg))
		if msg.Health != nil {
			atomic.AddInt64(&healthSent, 1)
		}
		return false
	})
	defer srv.Close()

	settings := types.StartSettings{
		AgentDescription: &protobufs.AgentDescription{IdentifyingAttributes: []*protobufs.KeyValue{{Key: "k"}}},
		Capabilities:     types.NewCapabilities(protobufs.AgentCapabilities_AgentCapabilities_ReportsHealth),
	}
	c := newTestClient(t, srv, settings)
	ctx := context.Background()

	require.NoError(t, c.SetHealth(ctx, &protobufs.ComponentHealth{Healthy: false, StatusTimeUnixNano: 1}))
	require.NoError(t, c.Poll(ctx))
	require.NoError(t, c.SetHealth(ctx, &protobufs.ComponentHealth{Healthy: false, StatusTimeUnixNano: 2}))
	require.NoError(t, c.Poll(ctx))

	assert.Equal(t, int64(2), atomic.LoadInt64(n))
	// Only the first poll carries health: the duplicate was never staged.
	assert.Equal(t, int64(1), atomic.LoadInt64(&healthSent))
}

func TestSetAgentDescriptionEmptyRejected(t *testing.T) {
	srv, n := countingServer(t, nil)
	defer srv.Close()

	settings := types.StartSettings{Capabilities: types.NewCapabilities()}
	c := newTestClient(t, srv, settings)

	err := c.SetAgentDescription(context.Background(), &protobufs.AgentDescription{})
	require.Error(t, err)
	assert.Equal(t, int64(0), atomic.LoadInt64(n))
}

func TestSetHealthWithoutCapabilityReturnsError(t *testing.T) {
	srv, n := countingServer(t, nil)
	defer srv.Close()

	settings := types.StartSettings{Capabilities: types.NewCapabilities()}
	c := newTestClient(t, srv, settings)

	err := c.SetHealth(context.Background(), &protobufs.ComponentHealth{Healthy: true})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrCapabilityNotSet)
	assert.Equal(t, int64(0), atomic.LoadInt64(n))
}

func TestUpdateEffectiveConfigWithoutCapabilityReturnsError(t *testing.T) {
	srv, _ := countingServer(t, nil)
	defer srv.Close()

	settings := types.StartSettings{Capabilities: types.NewCapabilities()}
	c := newTestClient(t, srv, settings)

	err := c.UpdateEffectiveConfig(context.Background())
	assert.ErrorIs(t, err, ErrCapabilityNotSet)
}

func TestPollHTTPForbiddenInvokesOnConnectFailed(t *testing.T) {
	srv, _ := countingServer(t, func(w http.ResponseWriter, r *http.Request, n int) bool {
		w.WriteHeader(http.StatusForbidden)
		return true
	})
	defer srv.Close()

	var failedErr error
	settings := types.StartSettings{
		Capabilities: types.NewCapabilities(protobufs.AgentCapabilities_AgentCapabilities_ReportsHealth),
		Callbacks: types.Callbacks{
			OnConnectFailed: func(ctx context.Context, err error) { failedErr = err },
		},
	}
	c := newTestClient(t, srv, settings)

	require.NoError(t, c.SetHealth(context.Background(), &protobufs.ComponentHealth{Healthy: true}))
	err := c.Poll(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrConnectFailed)
	require.Error(t, failedErr)

	// State set before the failed send must be retained, so the next
	// successful send (or a server full-state request) can recover it.
	assert.True(t, c.state.HealthUnchanged(&protobufs.ComponentHealth{Healthy: true}))
}

func TestReportFullStateTriggersResendWithinSingleCycle(t *testing.T) {
	var call int64
	srv, n := countingServer(t, func(w http.ResponseWriter, r *http.Request, n int) bool {
		if n == 1 {
			data, err := proto.Marshal(&protobufs.ServerToAgent{
				Flags: uint64(protobufs.ServerToAgentFlags_ServerToAgentFlags_ReportFullState),
			})
			require.NoError(t, err)
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write(data)
			return true
		}
		return false
	})
	defer srv.Close()
	_ = call

	settings := types.StartSettings{
		AgentDescription: &protobufs.AgentDescription{IdentifyingAttributes: []*protobufs.KeyValue{{Key: "k"}}},
		Capabilities:     types.NewCapabilities(),
	}
	c := newTestClient(t, srv, settings)

	require.NoError(t, c.Poll(context.Background()))
	// The first reply asks for full state, so the same Poll sends again.
	assert.Equal(t, int64(2), atomic.LoadInt64(n))
}
