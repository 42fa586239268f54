// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: MIT

package types

import "github.com/open-telemetry/opamp-go/protobufs"

// Capabilities is the bitmask of AgentCapabilities this client advertises to
// the Server. It is set once at construction and is immutable afterward.
type Capabilities uint64

// NewCapabilities builds a Capabilities bitmask from the given tags. It
// always includes ReportsStatus: an Agent that can't report its own status
// isn't speaking OpAMP.
func NewCapabilities(caps ...protobufs.AgentCapabilities) Capabilities {
	var bits Capabilities
	bits |= Capabilities(protobufs.AgentCapabilities_AgentCapabilities_ReportsStatus)
	for _, c := range caps {
		bits |= Capabilities(c)
	}
	return bits
}

// Has reports whether cap is included in the bitmask.
func (c Capabilities) Has(cap protobufs.AgentCapabilities) bool {
	return c&Capabilities(cap) != 0
}

// Mask returns the raw u64 bitmask as placed on the wire.
func (c Capabilities) Mask() uint64 {
	return uint64(c)
}
