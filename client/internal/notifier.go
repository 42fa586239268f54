// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: MIT

package internal

import "go.uber.org/zap"

// Notifier is a capacity-1 "pending message" signal. A burst of Notify
// calls coalesces into at most one wake-up: the worker only needs to know
// that something changed, not how many times.
type Notifier struct {
	ch     chan struct{}
	logger *zap.Logger
}

// NewNotifier returns a ready-to-use Notifier.
func NewNotifier(logger *zap.Logger) *Notifier {
	return &Notifier{
		ch:     make(chan struct{}, 1),
		logger: logger,
	}
}

// Notify requests a send "soon" without blocking. If a notification is
// already pending it is coalesced into the existing one.
func (n *Notifier) Notify() {
	select {
	case n.ch <- struct{}{}:
	default:
		// Already one pending; nothing to add.
	}
}

// Channel exposes the receive side for the scheduler's select loop.
func (n *Notifier) Channel() <-chan struct{} {
	return n.ch
}
