// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: MIT

package internal

import (
	"context"

	"github.com/open-telemetry/opamp-go/protobufs"
	"go.uber.org/zap"

	"github.com/amazon-contributing/opamp-agent-client-go/client/types"
)

// ProcessResult tells the caller whether the exchange is settled or whether
// the Server asked for a full resync.
type ProcessResult int

const (
	// Synced means no further send is needed as a direct result of this
	// response.
	Synced ProcessResult = iota
	// NeedsResend means the Server set ReportFullState and the next
	// outgoing message must carry the Agent's full known state.
	NeedsResend
)

// ProcessReceivedMessage interprets one ServerToAgent response: it fires the
// appropriate Callbacks, applies any instance-UID reassignment, and decides
// whether the client must resend its full state.
func ProcessReceivedMessage(
	ctx context.Context,
	logger *zap.Logger,
	msg *protobufs.ServerToAgent,
	callbacks types.Callbacks,
	state *ClientSyncedState,
	capabilities types.Capabilities,
	nextMessage *NextMessage,
) ProcessResult {
	if msg == nil {
		return Synced
	}

	// 1. Command short-circuit: a command the Agent can honor is sent alone
	// and every other field on this response is ignored. Without the
	// capability, the command is dropped and processing falls through to
	// step 2 instead of returning.
	if msg.Command != nil {
		if capabilities.Has(protobufs.AgentCapabilities_AgentCapabilities_AcceptsRestartCommand) {
			if err := callbacks.OnCommand(ctx, msg.Command); err != nil {
				logger.Warn("on_command callback failed", zap.Error(err))
			}
			return Synced
		}
		logger.Debug("ignoring command, agent does not have the required capability")
	}

	// 2. Assemble the capability-gated MessageData view.
	data := &types.MessageData{}

	if msg.RemoteConfig != nil && capabilities.Has(protobufs.AgentCapabilities_AgentCapabilities_AcceptsRemoteConfig) {
		data.RemoteConfig = msg.RemoteConfig
	}

	if cs := msg.ConnectionSettings; cs != nil {
		if cs.OwnMetrics != nil && capabilities.Has(protobufs.AgentCapabilities_AgentCapabilities_ReportsOwnMetrics) {
			data.OwnMetrics = cs.OwnMetrics
		}
		if cs.OwnTraces != nil && capabilities.Has(protobufs.AgentCapabilities_AgentCapabilities_ReportsOwnTraces) {
			data.OwnTraces = cs.OwnTraces
		}
		if cs.OwnLogs != nil && capabilities.Has(protobufs.AgentCapabilities_AgentCapabilities_ReportsOwnLogs) {
			data.OwnLogs = cs.OwnLogs
		}
		if capabilities.Has(protobufs.AgentCapabilities_AgentCapabilities_AcceptsOtherConnectionSettings) {
			data.OtherConnectionSettings = cs.OtherConnections
		}
	}

	if msg.CustomMessage != nil && customCapabilityAdvertised(state.CustomCapabilities(), msg.CustomMessage.Capability) {
		data.CustomMessage = msg.CustomMessage
	}

	data.CustomCapabilities = msg.CustomCapabilities

	var agentIdentification *protobufs.AgentIdentification
	if msg.AgentIdentification != nil && len(msg.AgentIdentification.NewInstanceUid) > 0 {
		agentIdentification = msg.AgentIdentification
		data.AgentIdentification = agentIdentification
	} else if msg.AgentIdentification != nil {
		logger.Debug("ignoring agent_identification with empty new_instance_uid")
	}

	// 3. Instance-UID update happens before on_message fires. Clearing the
	// flag on nextMessage itself, not just on state, matters because the
	// client ORs state.Flags() into the staged message before each Pop and
	// Pop never resets Flags: the bit would otherwise stay stuck on every
	// future send even after state reports it cleared.
	if agentIdentification != nil {
		nextMessage.Update(func(m *protobufs.AgentToServer) {
			m.InstanceUid = agentIdentification.NewInstanceUid
			m.Flags &^= uint64(protobufs.AgentToServerFlags_AgentToServerFlags_RequestInstanceUid)
		})
		state.ClearFlag(protobufs.AgentToServerFlags_AgentToServerFlags_RequestInstanceUid)
	}

	// 4. Fire on_message. The Agent may call back into the client
	// synchronously from here.
	callbacks.OnMessage(ctx, data)

	// 5. Server-reported error is informational only.
	if msg.ErrorResponse != nil {
		logger.Error("server reported error",
			zap.String("error_message", msg.ErrorResponse.ErrorMessage),
			zap.Int32("type", int32(msg.ErrorResponse.Type)),
		)
		callbacks.OnError(ctx, msg.ErrorResponse)
	}

	// 6. ReportFullState handling.
	if msg.Flags&uint64(protobufs.ServerToAgentFlags_ServerToAgentFlags_ReportFullState) == 0 {
		return Synced
	}

	nextMessage.Update(func(m *protobufs.AgentToServer) {
		m.AgentDescription = state.AgentDescription()
		m.Health = state.Health()
		m.RemoteConfigStatus = state.RemoteConfigStatus()
		m.PackageStatuses = state.PackageStatuses()
		m.CustomCapabilities = state.CustomCapabilities()
	})

	if cfg, err := callbacks.GetEffectiveConfig(ctx); err != nil {
		logger.Error("get_effective_config callback failed during full state resync", zap.Error(err))
	} else {
		nextMessage.Update(func(m *protobufs.AgentToServer) {
			m.EffectiveConfig = cfg
		})
	}

	return NeedsResend
}

// customCapabilityAdvertised reports whether capability is one the agent
// has advertised via its own CustomCapabilities.
func customCapabilityAdvertised(advertised *protobufs.CustomCapabilities, capability string) bool {
	if advertised == nil {
		return false
	}
	for _, c := range advertised.Capabilities {
		if c == capability {
			return true
		}
	}
	return false
}
