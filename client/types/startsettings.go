// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: MIT

package types

import (
	"crypto/tls"
	"time"

	"github.com/open-telemetry/opamp-go/protobufs"
)

// StartSettings captures everything the client needs before its first send:
// transport configuration, identity, advertised capabilities, and the
// Callbacks the embedding Agent implements.
type StartSettings struct {
	// OpAMPServerURL is the endpoint the client POSTs AgentToServer messages
	// to, e.g. "https://example.com/v1/opamp".
	OpAMPServerURL string

	// Header is sent with every request. Content-Type is always overridden
	// to application/x-protobuf regardless of what's set here.
	Header map[string]string

	// TLSConfig, if non-nil, is applied to the transport used for sends.
	TLSConfig *tls.Config

	// GzipCompression enables gzip Content-Encoding/Accept-Encoding on the
	// HTTP transport.
	GzipCompression bool

	// HTTPClientTimeout bounds both connect and overall request time.
	// Defaults to 30s if zero.
	HTTPClientTimeout time.Duration

	// InstanceUid is the identity this client reports. If the zero value,
	// the client generates a fresh UUIDv7 on construction.
	InstanceUid [16]byte

	// Capabilities is the bitmask of supported protocol features.
	Capabilities Capabilities

	// AgentDescription seeds the initial description, sent with the first
	// message.
	AgentDescription *protobufs.AgentDescription

	// Callbacks receives connection and message events.
	Callbacks Callbacks

	// PollingInterval is the period of the managed client's background
	// ticker. Defaults to 30s; clamped to a 10s minimum.
	PollingInterval time.Duration

	// MinDurationBetweenPolls bounds how soon a pending-message-driven send
	// may be followed by another. Defaults to 5s.
	MinDurationBetweenPolls time.Duration

	// DisableStartupCheck skips the synchronous startup-check send that
	// Start otherwise performs before spawning the background worker. Left
	// at its zero value, the startup check runs (the spec's documented
	// default) and a failing check aborts Start.
	DisableStartupCheck bool
}
