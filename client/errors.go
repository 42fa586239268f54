// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: MIT

package client

import (
	"errors"
	"fmt"
)

// ErrCapabilityNotSet is wrapped with the missing capability's name when a
// caller invokes a mutator the client's advertised Capabilities don't allow.
var ErrCapabilityNotSet = errors.New("client: required capability not set")

// ErrConnectFailed wraps a send failure after OnConnectFailed has already
// been invoked with the same underlying error.
var ErrConnectFailed = errors.New("client: connect failed")

// ErrNotStarted is returned by Start when the synchronous startup check
// fails and the startup check is enabled (the default; see
// WithPerformStartupCheck and StartSettings.DisableStartupCheck).
var ErrNotStarted = errors.New("client: start failed")

// ErrStopTimeout is returned by Stop when the context passed to it is done
// before the background worker finishes exiting.
var ErrStopTimeout = errors.New("client: stop timed out waiting for worker")

// ErrAlreadyStarted is returned by Start on a client that has already been
// started; a started client cannot be restarted.
var ErrAlreadyStarted = errors.New("client: already started")

func capabilityError(capability string) error {
	return fmt.Errorf("%w: %s", ErrCapabilityNotSet, capability)
}
