// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: MIT

package instanceuid

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateProducesDistinctIDs(t *testing.T) {
	a, err := Create()
	require.NoError(t, err)
	b, err := Create()
	require.NoError(t, err)

	assert.False(t, a.IsNil())
	assert.NotEqual(t, a, b)
}

func TestFromTextRoundTrip(t *testing.T) {
	id, err := Create()
	require.NoError(t, err)

	parsed, err := FromText(id.String())
	require.NoError(t, err)
	assert.Equal(t, id, parsed)
}

func TestFromTextAcceptsHyphenatedAndLowercase(t *testing.T) {
	const hex32 = "0190592a82877fb1a6d91ecaa57032bd"

	parsed, err := FromText(hex32)
	require.NoError(t, err)
	assert.Equal(t, strings.ToUpper(hex32), parsed.String())

	hyphenated := hex32[0:8] + "-" + hex32[8:12] + "-" + hex32[12:16] + "-" + hex32[16:20] + "-" + hex32[20:]
	viaHyphens, err := FromText(hyphenated)
	require.NoError(t, err)
	assert.Equal(t, parsed, viaHyphens)
}

func TestFromTextRejectsWrongLength(t *testing.T) {
	_, err := FromText("not-a-valid-uid")
	assert.ErrorIs(t, err, ErrInvalidFormat)

	_, err = FromText("0190592a82877fb1a6d91ecaa57032")
	assert.ErrorIs(t, err, ErrInvalidFormat)

	_, err = FromText("0190592a82877fb1a6d91ecaa57032bdff")
	assert.ErrorIs(t, err, ErrInvalidFormat)
}

func TestFromTextRejectsNonHex(t *testing.T) {
	_, err := FromText("zzzzzzzzzzzzzzzzzzzzzzzzzzzzzzzz")
	assert.ErrorIs(t, err, ErrInvalidFormat)
}

func TestFromBytesRejectsWrongLength(t *testing.T) {
	_, err := FromBytes([]byte{1, 2, 3})
	assert.ErrorIs(t, err, ErrInvalidFormat)
}

func TestToBytesRoundTrip(t *testing.T) {
	id, err := Create()
	require.NoError(t, err)

	back, err := FromBytes(id.ToBytes())
	require.NoError(t, err)
	assert.Equal(t, id, back)
}
