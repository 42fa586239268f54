// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: MIT

package internal

import (
	"testing"

	"github.com/open-telemetry/opamp-go/protobufs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewNextMessageSeedsAlwaysPresentFields(t *testing.T) {
	desc := &protobufs.AgentDescription{
		IdentifyingAttributes: []*protobufs.KeyValue{{Key: "service.name"}},
	}
	nm := NewNextMessage([]byte("0123456789abcdef"), desc, 7)

	popped := nm.Pop()
	require.NotNil(t, popped)
	assert.Equal(t, []byte("0123456789abcdef"), popped.InstanceUid)
	assert.Equal(t, uint64(7), popped.Capabilities)
	assert.Equal(t, uint64(1), popped.SequenceNum)
}

func TestPopIncrementsSequenceNumber(t *testing.T) {
	nm := NewNextMessage(nil, nil, 0)

	first := nm.Pop()
	second := nm.Pop()
	third := nm.Pop()

	assert.Equal(t, uint64(1), first.SequenceNum)
	assert.Equal(t, uint64(2), second.SequenceNum)
	assert.Equal(t, uint64(3), third.SequenceNum)
}

func TestPopResetsDeltaOnlyFields(t *testing.T) {
	nm := NewNextMessage(nil, nil, 0)

	nm.Update(func(msg *protobufs.AgentToServer) {
		msg.Health = &protobufs.ComponentHealth{Healthy: true}
		msg.RemoteConfigStatus = &protobufs.RemoteConfigStatus{}
		msg.PackageStatuses = &protobufs.PackageStatuses{}
		msg.EffectiveConfig = &protobufs.EffectiveConfig{}
		msg.AgentDescription = &protobufs.AgentDescription{
			IdentifyingAttributes: []*protobufs.KeyValue{{Key: "x"}},
		}
	})

	first := nm.Pop()
	assert.NotNil(t, first.Health)
	assert.NotNil(t, first.RemoteConfigStatus)
	assert.NotNil(t, first.PackageStatuses)
	assert.NotNil(t, first.EffectiveConfig)
	assert.NotNil(t, first.AgentDescription)

	second := nm.Pop()
	assert.Nil(t, second.Health)
	assert.Nil(t, second.RemoteConfigStatus)
	assert.Nil(t, second.PackageStatuses)
	assert.Nil(t, second.EffectiveConfig)
	assert.Nil(t, second.AgentDescription)
}

func TestPopDoesNotResetCustomCapabilities(t *testing.T) {
	nm := NewNextMessage(nil, nil, 0)
	nm.Update(func(msg *protobufs.AgentToServer) {
		msg.CustomCapabilities = &protobufs.CustomCapabilities{Capabilities: []string{"com.example.test"}}
	})

	first := nm.Pop()
	second := nm.Pop()

	require.NotNil(t, first.CustomCapabilities)
	require.NotNil(t, second.CustomCapabilities)
	assert.Equal(t, first.CustomCapabilities.Capabilities, second.CustomCapabilities.Capabilities)
}
