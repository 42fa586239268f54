// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: MIT

// Package processmanager starts, stops, and restarts a single child Agent
// process on behalf of an OpAMP managed client. A Server-issued restart
// command arrives over OpAMP and is translated into a process signal here.
package processmanager

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"sync/atomic"
	"syscall"
	"time"

	"go.uber.org/zap"
)

// Config describes the child process to manage.
type Config struct {
	Executable string
	Args       []string
	Env        []string
}

// Manager starts/stops/restarts the child Agent process and watches for it
// to exit on its own.
type Manager struct {
	logger *zap.Logger
	cfg    Config

	cmd     *exec.Cmd
	doneCh  chan struct{}
	exitCh  chan struct{}
	running *atomic.Int64
}

// New returns a Manager for cfg. It does not start anything.
func New(logger *zap.Logger, cfg Config) *Manager {
	return &Manager{
		logger:  logger,
		cfg:     cfg,
		running: &atomic.Int64{},
		// Buffered so sends from watch() never block on an absent listener.
		doneCh: make(chan struct{}, 1),
		exitCh: make(chan struct{}, 1),
	}
}

// Start launches the child process and begins watching it. A no-op if
// already running.
func (m *Manager) Start(ctx context.Context) error {
	if m.running.Load() == 1 {
		return nil
	}

	drain(m.doneCh)
	drain(m.exitCh)

	m.logger.Debug("starting agent process", zap.String("executable", m.cfg.Executable))

	m.cmd = exec.CommandContext(ctx, m.cfg.Executable, m.cfg.Args...) // #nosec G204
	m.cmd.Env = m.cfg.Env
	m.cmd.Stdout = os.Stdout
	m.cmd.Stderr = os.Stderr

	if err := m.cmd.Start(); err != nil {
		return fmt.Errorf("processmanager: start: %w", err)
	}

	m.logger.Debug("agent process started", zap.Int("pid", m.cmd.Process.Pid))
	m.running.Store(1)

	go m.watch()
	return nil
}

func (m *Manager) watch() {
	err := m.cmd.Wait()

	var exitErr *exec.ExitError
	if ok := errors.As(err, &exitErr); err != nil && !ok {
		m.logger.Error("error watching agent process", zap.Error(err))
	}

	m.running.Store(0)
	m.doneCh <- struct{}{}
	m.exitCh <- struct{}{}
}

// Stop sends SIGTERM and waits up to 10 seconds before sending SIGKILL. A
// no-op if not running.
func (m *Manager) Stop(ctx context.Context) error {
	if m.running.Load() == 0 {
		return nil
	}

	pid := m.cmd.Process.Pid
	m.logger.Debug("sending shutdown signal to agent process", zap.Int("pid", pid))

	if err := m.cmd.Process.Signal(syscall.SIGTERM); err != nil {
		return fmt.Errorf("processmanager: signal: %w", err)
	}

	waitCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	var killErr error
	go func() {
		<-waitCtx.Done()
		if !errors.Is(waitCtx.Err(), context.DeadlineExceeded) {
			return
		}
		m.logger.Debug("agent process not responding to SIGTERM, sending SIGKILL", zap.Int("pid", pid))
		killErr = m.cmd.Process.Signal(os.Kill)
	}()

	<-m.doneCh
	m.running.Store(0)
	return killErr
}

// Restart stops then starts the child process. This is what an OpAMP
// CommandType_Restart callback calls.
func (m *Manager) Restart(ctx context.Context) error {
	m.logger.Debug("restarting agent process", zap.String("executable", m.cfg.Executable))
	if err := m.Stop(ctx); err != nil {
		return err
	}
	return m.Start(ctx)
}

// Exited returns a channel that receives once each time the process exits.
func (m *Manager) Exited() <-chan struct{} {
	return m.exitCh
}

// Pid returns the child process PID, or 0 if not running.
func (m *Manager) Pid() int {
	if m.cmd == nil || m.cmd.Process == nil {
		return 0
	}
	return m.cmd.Process.Pid
}

// ExitCode returns the child process's exit code once it has exited.
func (m *Manager) ExitCode() int {
	if m.cmd == nil || m.cmd.ProcessState == nil {
		return 0
	}
	return m.cmd.ProcessState.ExitCode()
}

// IsRunning reports whether the child process is currently running.
func (m *Manager) IsRunning() bool {
	return m.running.Load() != 0
}

func drain(ch chan struct{}) {
	if len(ch) == 0 {
		return
	}
	select {
	case <-ch:
	default:
	}
}
