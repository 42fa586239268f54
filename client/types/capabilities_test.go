// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: MIT

package types

import (
	"testing"

	"github.com/open-telemetry/opamp-go/protobufs"
	"github.com/stretchr/testify/assert"
)

func TestNewCapabilitiesAlwaysIncludesReportsStatus(t *testing.T) {
	caps := NewCapabilities()
	assert.True(t, caps.Has(protobufs.AgentCapabilities_AgentCapabilities_ReportsStatus))
}

func TestNewCapabilitiesUnionsTags(t *testing.T) {
	caps := NewCapabilities(
		protobufs.AgentCapabilities_AgentCapabilities_ReportsHealth,
		protobufs.AgentCapabilities_AgentCapabilities_AcceptsRemoteConfig,
	)

	assert.True(t, caps.Has(protobufs.AgentCapabilities_AgentCapabilities_ReportsStatus))
	assert.True(t, caps.Has(protobufs.AgentCapabilities_AgentCapabilities_ReportsHealth))
	assert.True(t, caps.Has(protobufs.AgentCapabilities_AgentCapabilities_AcceptsRemoteConfig))
	assert.False(t, caps.Has(protobufs.AgentCapabilities_AgentCapabilities_AcceptsRestartCommand))
}

func TestCapabilitiesMask(t *testing.T) {
	caps := NewCapabilities(protobufs.AgentCapabilities_AgentCapabilities_ReportsHealth)
	want := uint64(protobufs.AgentCapabilities_AgentCapabilities_ReportsStatus) |
		uint64(protobufs.AgentCapabilities_AgentCapabilities_ReportsHealth)
	assert.Equal(t, want, caps.Mask())
}
