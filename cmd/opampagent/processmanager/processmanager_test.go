// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: MIT

package processmanager

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestStartStopLifecycle(t *testing.T) {
	m := New(zap.NewNop(), Config{Executable: "/bin/sleep", Args: []string{"30"}})

	require.NoError(t, m.Start(context.Background()))
	assert.True(t, m.IsRunning())
	assert.Greater(t, m.Pid(), 0)

	stopCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, m.Stop(stopCtx))
	assert.False(t, m.IsRunning())
}

func TestStartIsNoOpWhenAlreadyRunning(t *testing.T) {
	m := New(zap.NewNop(), Config{Executable: "/bin/sleep", Args: []string{"30"}})
	require.NoError(t, m.Start(context.Background()))
	pid := m.Pid()

	require.NoError(t, m.Start(context.Background()))
	assert.Equal(t, pid, m.Pid())

	stopCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, m.Stop(stopCtx))
}

func TestExitedSignalsOnSelfExit(t *testing.T) {
	m := New(zap.NewNop(), Config{Executable: "/bin/sh", Args: []string{"-c", "exit 0"}})
	require.NoError(t, m.Start(context.Background()))

	select {
	case <-m.Exited():
	case <-time.After(2 * time.Second):
		t.Fatal("process did not report exit in time")
	}
	assert.False(t, m.IsRunning())
	assert.Equal(t, 0, m.ExitCode())
}

func TestRestartReplacesProcess(t *testing.T) {
	m := New(zap.NewNop(), Config{Executable: "/bin/sleep", Args: []string{"30"}})
	require.NoError(t, m.Start(context.Background()))
	firstPid := m.Pid()

	require.NoError(t, m.Restart(context.Background()))
	assert.True(t, m.IsRunning())
	assert.NotEqual(t, firstPid, m.Pid())

	stopCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, m.Stop(stopCtx))
}

func TestStopIsNoOpWhenNotRunning(t *testing.T) {
	m := New(zap.NewNop(), Config{Executable: "/bin/sleep", Args: []string{"30"}})
	require.NoError(t, m.Stop(context.Background()))
}
