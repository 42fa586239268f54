// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: MIT

package internal

import (
	"errors"
	"sync"

	"github.com/open-telemetry/opamp-go/protobufs"
	"google.golang.org/protobuf/proto"
)

// ErrAgentDescriptionNoAttributes is returned by SetAgentDescription when
// neither attribute list carries a single entry. An Agent with no
// identifying or non-identifying attributes can't usefully describe itself
// to a Server.
var ErrAgentDescriptionNoAttributes = errors.New("internal: agent description has no attributes")

// ClientSyncedState is the thread-safe mirror of what the Server is believed
// to already know about this Agent. Reads take a shared lock; writes take an
// exclusive one, and no write is ever visible half-applied.
type ClientSyncedState struct {
	mu sync.RWMutex

	agentDescription   *protobufs.AgentDescription
	health             *protobufs.ComponentHealth
	remoteConfigStatus *protobufs.RemoteConfigStatus
	packageStatuses    *protobufs.PackageStatuses
	customCapabilities *protobufs.CustomCapabilities

	// flags mirrors the outgoing AgentToServer.Flags bitmask, e.g.
	// RequestInstanceUid, that survives across Pop because it isn't one of
	// the delta-only fields NextMessage resets.
	flags uint64
}

// NewClientSyncedState returns an empty state store.
func NewClientSyncedState() *ClientSyncedState {
	return &ClientSyncedState{}
}

// AgentDescription returns the last-set description, or nil if never set.
func (s *ClientSyncedState) AgentDescription() *protobufs.AgentDescription {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.agentDescription
}

// SetAgentDescription validates and stores a new description.
func (s *ClientSyncedState) SetAgentDescription(d *protobufs.AgentDescription) error {
	if d == nil || (len(d.IdentifyingAttributes) == 0 && len(d.NonIdentifyingAttributes) == 0) {
		return ErrAgentDescriptionNoAttributes
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.agentDescription = d
	return nil
}

// AgentDescriptionUnchanged reports whether d is deep-equal to the currently
// stored description.
func (s *ClientSyncedState) AgentDescriptionUnchanged(d *protobufs.AgentDescription) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return proto.Equal(s.agentDescription, d)
}

// Health returns the last-set health, or nil if never set.
func (s *ClientSyncedState) Health() *protobufs.ComponentHealth {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.health
}

// SetHealth stores a new health report.
func (s *ClientSyncedState) SetHealth(h *protobufs.ComponentHealth) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.health = h
}

// HealthUnchanged reports whether h is equal to the currently stored health,
// ignoring StatusTimeUnixNano at every level of ComponentHealthMap: the
// Server may omit unchanged status reports from its comparisons, so a health
// report that differs only in its observation timestamp is not a change
// worth sending.
func (s *ClientSyncedState) HealthUnchanged(h *protobufs.ComponentHealth) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return healthEqualIgnoringStatusTime(s.health, h)
}

func healthEqualIgnoringStatusTime(a, b *protobufs.ComponentHealth) bool {
	if a == nil || b == nil {
		return a == b
	}
	if a.Healthy != b.Healthy ||
		a.StartTimeUnixNano != b.StartTimeUnixNano ||
		a.LastError != b.LastError ||
		a.Status != b.Status {
		return false
	}
	if len(a.ComponentHealthMap) != len(b.ComponentHealthMap) {
		return false
	}
	for key, av := range a.ComponentHealthMap {
		bv, ok := b.ComponentHealthMap[key]
		if !ok || !healthEqualIgnoringStatusTime(av, bv) {
			return false
		}
	}
	return true
}

// RemoteConfigStatus returns the last-set remote config status, or nil.
func (s *ClientSyncedState) RemoteConfigStatus() *protobufs.RemoteConfigStatus {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.remoteConfigStatus
}

// SetRemoteConfigStatus stores a new remote config status.
func (s *ClientSyncedState) SetRemoteConfigStatus(rcs *protobufs.RemoteConfigStatus) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.remoteConfigStatus = rcs
}

// RemoteConfigStatusUnchanged reports whether rcs is deep-equal to the
// currently stored status.
func (s *ClientSyncedState) RemoteConfigStatusUnchanged(rcs *protobufs.RemoteConfigStatus) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return proto.Equal(s.remoteConfigStatus, rcs)
}

// PackageStatuses returns the last-set package statuses, or nil.
func (s *ClientSyncedState) PackageStatuses() *protobufs.PackageStatuses {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.packageStatuses
}

// SetPackageStatuses stores new package statuses.
func (s *ClientSyncedState) SetPackageStatuses(ps *protobufs.PackageStatuses) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.packageStatuses = ps
}

// CustomCapabilities returns the last-set custom capabilities, or nil.
func (s *ClientSyncedState) CustomCapabilities() *protobufs.CustomCapabilities {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.customCapabilities
}

// SetCustomCapabilities stores new custom capabilities.
func (s *ClientSyncedState) SetCustomCapabilities(cc *protobufs.CustomCapabilities) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.customCapabilities = cc
}

// CustomCapabilitiesUnchanged reports whether cc is deep-equal to the
// currently stored custom capabilities.
func (s *ClientSyncedState) CustomCapabilitiesUnchanged(cc *protobufs.CustomCapabilities) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return proto.Equal(s.customCapabilities, cc)
}

// Flags returns the AgentToServer.Flags bitmask currently carried on the
// outgoing message, e.g. RequestInstanceUid.
func (s *ClientSyncedState) Flags() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.flags
}

// SetFlags replaces the outgoing flags bitmask.
func (s *ClientSyncedState) SetFlags(flags uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.flags = flags
}

// ClearFlag unsets a single bit, e.g. once RequestInstanceUid has been
// honored by the Server.
func (s *ClientSyncedState) ClearFlag(flag protobufs.AgentToServerFlags) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.flags &^= uint64(flag)
}
