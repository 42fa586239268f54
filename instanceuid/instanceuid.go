// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: MIT

// Package instanceuid implements the 128-bit identifier an OpAMP Agent uses
// to distinguish itself to a Server, and its two wire representations: the
// raw 16 bytes carried on protobuf messages, and the uppercase unhyphenated
// hex form used in logs and config.
package instanceuid

import (
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// ErrInvalidFormat is returned by FromText and FromBytes when the input does
// not decode to exactly 16 bytes.
var ErrInvalidFormat = errors.New("instanceuid: invalid format")

// InstanceUid identifies one Agent process for the lifetime of its OpAMP
// connection. It is comparable and safe to use as a map key.
type InstanceUid [16]byte

// Nil is the zero value, used before a client has generated its identity.
var Nil InstanceUid

// Create generates a new instance UID using UUIDv7, so that the identifier is
// time-ordered and collision-resistant across restarts of the same Agent.
func Create() (InstanceUid, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return Nil, fmt.Errorf("instanceuid: generate uuidv7: %w", err)
	}
	var out InstanceUid
	copy(out[:], id[:])
	return out, nil
}

// FromBytes validates and wraps a raw 16-byte identifier, such as the one
// carried in AgentIdentification.new_instance_uid.
func FromBytes(b []byte) (InstanceUid, error) {
	if len(b) != 16 {
		return Nil, fmt.Errorf("%w: want 16 bytes, got %d", ErrInvalidFormat, len(b))
	}
	var out InstanceUid
	copy(out[:], b)
	return out, nil
}

// FromText parses either the canonical hyphenated UUID form or the 32-hex-digit
// unhyphenated form, case-insensitively.
func FromText(s string) (InstanceUid, error) {
	trimmed := strings.ReplaceAll(s, "-", "")
	if len(trimmed) != 32 {
		return Nil, fmt.Errorf("%w: %q", ErrInvalidFormat, s)
	}
	raw, err := hex.DecodeString(strings.ToLower(trimmed))
	if err != nil {
		return Nil, fmt.Errorf("%w: %q: %v", ErrInvalidFormat, s, err)
	}
	var out InstanceUid
	copy(out[:], raw)
	return out, nil
}

// ToBytes returns the raw 16-byte form for placement on a protobuf message.
func (id InstanceUid) ToBytes() []byte {
	out := make([]byte, 16)
	copy(out, id[:])
	return out
}

// String renders the uppercase, unhyphenated hex form the protocol uses in
// human-facing contexts (logs, config).
func (id InstanceUid) String() string {
	return strings.ToUpper(hex.EncodeToString(id[:]))
}

// IsNil reports whether id is the zero value, i.e. never assigned.
func (id InstanceUid) IsNil() bool {
	return id == Nil
}
