// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: MIT

package types

import "github.com/open-telemetry/opamp-go/protobufs"

// MessageData is the filtered, capability-gated view of one ServerToAgent
// message handed to Callbacks.OnMessage. Fields are populated only when the
// corresponding capability allows them and the server actually sent them;
// absent fields are nil.
type MessageData struct {
	RemoteConfig            *protobufs.AgentRemoteConfig
	OwnMetrics              *protobufs.TelemetryConnectionSettings
	OwnTraces               *protobufs.TelemetryConnectionSettings
	OwnLogs                 *protobufs.TelemetryConnectionSettings
	OtherConnectionSettings map[string]*protobufs.OtherConnectionSettings
	CustomCapabilities      *protobufs.CustomCapabilities
	CustomMessage           *protobufs.CustomMessage
	AgentIdentification     *protobufs.AgentIdentification
}
