// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: MIT

package internal

import (
	"sync"

	"github.com/open-telemetry/opamp-go/protobufs"
	"google.golang.org/protobuf/proto"
)

// NextMessage holds the single AgentToServer message under construction. It
// is mutated in place by Update and, on Pop, cloned with its sequence number
// advanced and its delta-only fields reset so only what changed since the
// last send goes out next.
type NextMessage struct {
	mu  sync.Mutex
	msg protobufs.AgentToServer
}

// NewNextMessage seeds a NextMessage with its always-present fields
// (instance UID and capabilities) and the initial agent description, which
// goes out with the first Pop only.
func NewNextMessage(instanceUID []byte, description *protobufs.AgentDescription, capabilities uint64) *NextMessage {
	nm := &NextMessage{}
	nm.msg.InstanceUid = instanceUID
	nm.msg.AgentDescription = description
	nm.msg.Capabilities = capabilities
	return nm
}

// Update applies modifier to the staged message under an exclusive lock.
// modifier must not block or perform I/O: the lock is never held across
// network calls or callbacks.
func (nm *NextMessage) Update(modifier func(msg *protobufs.AgentToServer)) {
	nm.mu.Lock()
	defer nm.mu.Unlock()
	modifier(&nm.msg)
}

// Pop increments the sequence number, clones the message for sending, then
// resets the delta-only fields to nil so the next Pop sends only new
// changes. instance_uid, sequence_num, and capabilities are never reset.
func (nm *NextMessage) Pop() *protobufs.AgentToServer {
	nm.mu.Lock()
	defer nm.mu.Unlock()

	nm.msg.SequenceNum++
	clone := proto.Clone(&nm.msg).(*protobufs.AgentToServer)

	nm.msg.AgentDescription = nil
	nm.msg.Health = nil
	nm.msg.EffectiveConfig = nil
	nm.msg.RemoteConfigStatus = nil
	nm.msg.PackageStatuses = nil

	return clone
}
