// Harmoniq - Time-Aware Flow Playlists for Plex
// Copyright 2026 Harmoniq contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/harmoniq-app/harmoniq

package supervisor

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"
)

// blockingService signals each start and runs until its context ends.
type blockingService struct {
	name   string
	starts atomic.Int32
	ready  chan struct{}
	fail   atomic.Bool
}

func newBlockingService(name string) *blockingService {
	return &blockingService{name: name, ready: make(chan struct{}, 8)}
}

func (s *blockingService) Serve(ctx context.Context) error {
	s.starts.Add(1)
	select {
	case s.ready <- struct{}{}:
	default:
	}
	if s.fail.Load() {
		s.fail.Store(false)
		return errors.New("induced failure")
	}
	<-ctx.Done()
	return ctx.Err()
}

func (s *blockingService) String() string { return s.name }

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func waitReady(t *testing.T, s *blockingService) {
	t.Helper()
	select {
	case <-s.ready:
	case <-time.After(5 * time.Second):
		t.Fatalf("service %s never started", s.name)
	}
}

func TestTreeRunsBothLayers(t *testing.T) {
	tree := NewTree(testLogger(), DefaultConfig())
	engineSvc := newBlockingService("engine-svc")
	apiSvc := newBlockingService("api-svc")
	tree.AddEngineService(engineSvc)
	tree.AddAPIService(apiSvc)

	ctx, cancel := context.WithCancel(context.Background())
	errCh := tree.ServeBackground(ctx)

	waitReady(t, engineSvc)
	waitReady(t, apiSvc)
	cancel()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, context.Canceled) {
			t.Errorf("tree stopped with %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("tree did not stop after cancel")
	}
}

func TestTreeRestartsFailedService(t *testing.T) {
	tree := NewTree(testLogger(), Config{FailureBackoff: 10 * time.Millisecond})
	svc := newBlockingService("flaky")
	svc.fail.Store(true)
	tree.AddEngineService(svc)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	tree.ServeBackground(ctx)

	// First start fails immediately; the supervisor must start it again.
	waitReady(t, svc)
	waitReady(t, svc)
	if got := svc.starts.Load(); got < 2 {
		t.Errorf("service started %d times, want at least 2", got)
	}
}

func TestDefaultConfigApplied(t *testing.T) {
	tree := NewTree(testLogger(), Config{})
	if tree.config.FailureThreshold != 5.0 || tree.config.ShutdownTimeout != 10*time.Second {
		t.Errorf("zero config not defaulted: %+v", tree.config)
	}
}
