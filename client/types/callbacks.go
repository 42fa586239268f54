// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: MIT

package types

import (
	"context"
	"net/http"
	"sync"

	"github.com/open-telemetry/opamp-go/protobufs"
)

// Callbacks is the contract the embedding Agent implements so the client can
// report connection events, server responses, and pull state that's too
// large or too dynamic to keep mirrored (the effective config).
//
// Any field left nil after construction is filled with a safe, do-nothing
// default by SetDefaults so callers only need to implement what they use.
type Callbacks struct {
	// OnConnect is invoked after every successful (2xx) exchange with the
	// Server.
	OnConnect func(ctx context.Context)

	// OnConnectFailed is invoked when a send could not be completed, with
	// the underlying transport/HTTP error.
	OnConnectFailed func(ctx context.Context, err error)

	// OnError is invoked when the Server includes an error_response on its
	// reply. The client does not otherwise act on this; it is purely
	// informational for the Agent.
	OnError func(ctx context.Context, response *protobufs.ServerErrorResponse)

	// OnMessage is invoked once per exchange that produced parsable,
	// capability-gated content for the Agent to act on. It may be called
	// from the managed client's worker goroutine; callers that mutate
	// client state from within OnMessage are calling back into the client
	// synchronously and this is supported.
	OnMessage func(ctx context.Context, msg *MessageData)

	// OnCommand is invoked for a server-issued command when the client has
	// advertised AcceptsRestartCommand.
	OnCommand func(ctx context.Context, command *protobufs.ServerToAgentCommand) error

	// OnOpampConnectionSettings and OnOpampConnectionSettingsAccepted are
	// part of the connection-settings-rotation contract. They are exposed
	// for API completeness but the core message processor does not yet
	// trigger them; see the design notes on connection-settings rotation.
	OnOpampConnectionSettings         func(ctx context.Context, settings *protobufs.OpAMPConnectionSettings) error
	OnOpampConnectionSettingsAccepted func(ctx context.Context, settings *protobufs.OpAMPConnectionSettings)

	// GetEffectiveConfig is pulled lazily, only when the Agent calls
	// UpdateEffectiveConfig or the Server asks for a full resync, because
	// the effective config may be large and is not mirrored in the synced
	// state.
	GetEffectiveConfig func(ctx context.Context) (*protobufs.EffectiveConfig, error)

	// SaveRemoteConfigStatus lets the Agent persist the status of the last
	// remote config it applied, e.g. across restarts.
	SaveRemoteConfigStatus func(ctx context.Context, status *protobufs.RemoteConfigStatus)

	// DownloadHTTPClient returns the http.Client used to fetch a
	// downloadable file referenced by a server offer. Out of scope for the
	// core message pump (package download is a declared Non-goal) but
	// retained on the callback surface so an embedding Agent that builds
	// its own download path on top of this library has a consistent place
	// to configure it.
	DownloadHTTPClient func(ctx context.Context, file *protobufs.DownloadableFile) (*http.Client, error)
}

var (
	defaultDownloadClientOnce sync.Once
	defaultDownloadClient     *http.Client
)

// defaultDownloadHTTPClient lazily builds one shared *http.Client backed by
// *http.Transport and reuses it across calls.
func defaultDownloadHTTPClient(ctx context.Context, file *protobufs.DownloadableFile) (*http.Client, error) {
	defaultDownloadClientOnce.Do(func() {
		defaultDownloadClient = &http.Client{Transport: &http.Transport{}}
	})
	return defaultDownloadClient, nil
}

// SetDefaults fills every nil callback with a no-op (or, for
// DownloadHTTPClient, a plain *http.Client) so the rest of the client never
// has to nil-check before calling out to the Agent.
func (c *Callbacks) SetDefaults() {
	if c.OnConnect == nil {
		c.OnConnect = func(ctx context.Context) {}
	}
	if c.OnConnectFailed == nil {
		c.OnConnectFailed = func(ctx context.Context, err error) {}
	}
	if c.OnError == nil {
		c.OnError = func(ctx context.Context, response *protobufs.ServerErrorResponse) {}
	}
	if c.OnMessage == nil {
		c.OnMessage = func(ctx context.Context, msg *MessageData) {}
	}
	if c.OnCommand == nil {
		c.OnCommand = func(ctx context.Context, command *protobufs.ServerToAgentCommand) error { return nil }
	}
	if c.OnOpampConnectionSettings == nil {
		c.OnOpampConnectionSettings = func(ctx context.Context, settings *protobufs.OpAMPConnectionSettings) error {
			return nil
		}
	}
	if c.OnOpampConnectionSettingsAccepted == nil {
		c.OnOpampConnectionSettingsAccepted = func(ctx context.Context, settings *protobufs.OpAMPConnectionSettings) {}
	}
	if c.GetEffectiveConfig == nil {
		c.GetEffectiveConfig = func(ctx context.Context) (*protobufs.EffectiveConfig, error) {
			return &protobufs.EffectiveConfig{}, nil
		}
	}
	if c.SaveRemoteConfigStatus == nil {
		c.SaveRemoteConfigStatus = func(ctx context.Context, status *protobufs.RemoteConfigStatus) {}
	}
	if c.DownloadHTTPClient == nil {
		c.DownloadHTTPClient = defaultDownloadHTTPClient
	}
}
