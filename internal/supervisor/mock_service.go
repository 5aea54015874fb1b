// Mediarec - Media Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/mediarec

package supervisor

import (
	"context"
	"errors"
	"sync/atomic"
)

// errSimulated is returned by MockService while it has failures left.
var errSimulated = errors.New("simulated failure")

// MockService is a suture.Service whose failures are scripted. It fails
// its first N runs and then runs until its context is canceled.
type MockService struct {
	name       string
	startCount atomic.Int32
	failsLeft  atomic.Int32
	running    chan struct{}
}

// NewMockService creates a mock service that fails the first fails runs.
func NewMockService(name string, fails int) *MockService {
	m := &MockService{name: name, running: make(chan struct{})}
	m.failsLeft.Store(int32(fails))
	return m
}

// Serve implements suture.Service.
func (m *MockService) Serve(ctx context.Context) error {
	m.startCount.Add(1)
	if m.failsLeft.Add(-1) >= 0 {
		return errSimulated
	}
	select {
	case <-m.running:
	default:
		close(m.running)
	}
	<-ctx.Done()
	return ctx.Err()
}

// Running is closed once a run survives its scripted failures.
func (m *MockService) Running() <-chan struct{} {
	return m.running
}

// StartCount returns how many times Serve was called.
func (m *MockService) StartCount() int32 {
	return m.startCount.Load()
}

func (m *MockService) String() string {
	return m.name
}
