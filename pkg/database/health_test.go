package database

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	_ "github.com/lib/pq"
	"github.com/rs/zerolog"
)

func newTestHealthChecker(db *sql.DB, interval time.Duration) *HealthChecker {
	return NewHealthChecker(db, nil, interval, zerolog.Nop())
}

func TestNewHealthChecker(t *testing.T) {
	db := &sql.DB{}
	interval := 5 * time.Second

	hc := newTestHealthChecker(db, interval)

	if hc == nil {
		t.Fatal("Expected HealthChecker instance, got nil")
	}

	if hc.DB() != db {
		t.Error("Expected db to be set correctly")
	}

	if hc.checkInterval != interval {
		t.Errorf("Expected checkInterval=%v, got %v", interval, hc.checkInterval)
	}

	if !hc.isHealthy {
		t.Error("Expected initial health status to be true")
	}

	if hc.stopChan == nil {
		t.Error("Expected stopChan to be initialized")
	}
}

func TestIsHealthy(t *testing.T) {
	hc := newTestHealthChecker(&sql.DB{}, 5*time.Second)

	if !hc.IsHealthy() {
		t.Error("Expected initial health status to be true")
	}

	hc.mu.Lock()
	hc.isHealthy = false
	hc.mu.Unlock()

	if hc.IsHealthy() {
		t.Error("Expected health status to be false after manual change")
	}
}

func TestStartStop(t *testing.T) {
	db := setupTestDB(t)
	if db == nil {
		t.Skip("Skipping test that requires real database connection")
	}
	defer db.Close()

	hc := newTestHealthChecker(db, 100*time.Millisecond)

	hc.Start()

	if hc.ticker == nil {
		t.Error("Expected ticker to be initialized after Start()")
	}

	time.Sleep(150 * time.Millisecond)

	hc.Stop()

	select {
	case <-hc.stopChan:
	case <-time.After(100 * time.Millisecond):
		t.Error("Expected stopChan to be closed after Stop()")
	}
}

func TestStop_Twice(t *testing.T) {
	hc := newTestHealthChecker(&sql.DB{}, 5*time.Second)

	// Should not panic when stopping without starting or stopping twice
	hc.Stop()
	hc.Stop()

	select {
	case <-hc.stopChan:
	case <-time.After(100 * time.Millisecond):
		t.Error("Expected stopChan to be closed after Stop()")
	}
}

func TestEnsureConnection_Unhealthy(t *testing.T) {
	hc := newTestHealthChecker(&sql.DB{}, 5*time.Second)

	hc.mu.Lock()
	hc.isHealthy = false
	hc.mu.Unlock()

	err := hc.EnsureConnection(context.Background())
	if err == nil {
		t.Fatal("Expected error when connection is unhealthy")
	}

	if err.Error() != "database connection is not healthy" {
		t.Errorf("Expected specific error message, got: %v", err)
	}
}

func TestReconnect_UsesConnectFunc(t *testing.T) {
	replacement := &sql.DB{}
	calls := 0
	hc := NewHealthChecker(nil, func() (*sql.DB, error) {
		calls++
		return replacement, nil
	}, 5*time.Second, zerolog.Nop())
	hc.isHealthy = false

	hc.mu.Lock()
	err := hc.reconnect()
	hc.mu.Unlock()

	if err != nil {
		t.Fatalf("Expected reconnect to succeed, got %v", err)
	}
	if calls != 1 {
		t.Errorf("Expected connect to be called once, got %d", calls)
	}
	if hc.DB() != replacement {
		t.Error("Expected the new pool to replace the old one")
	}
	if !hc.IsHealthy() {
		t.Error("Expected checker to be healthy after reconnect")
	}
}

func TestReconnect_Failure(t *testing.T) {
	hc := NewHealthChecker(nil, func() (*sql.DB, error) {
		return nil, errors.New("connection refused")
	}, 5*time.Second, zerolog.Nop())

	hc.mu.Lock()
	err := hc.reconnect()
	hc.mu.Unlock()

	if err == nil {
		t.Error("Expected reconnect error")
	}
}

func TestEnsureConnection_Healthy(t *testing.T) {
	db := setupTestDB(t)
	if db == nil {
		t.Skip("Skipping test that requires real database connection")
	}
	defer db.Close()

	hc := newTestHealthChecker(db, 5*time.Second)

	if err := hc.EnsureConnection(context.Background()); err != nil {
		t.Errorf("Expected no error for healthy connection, got: %v", err)
	}
}

func TestEnsureConnection_ContextCanceled(t *testing.T) {
	db := setupTestDB(t)
	if db == nil {
		t.Skip("Skipping test that requires real database connection")
	}
	defer db.Close()

	hc := newTestHealthChecker(db, 5*time.Second)

	ctx, cancel := context.WithCancel(context.Background())
	cancel() // Cancel immediately

	if err := hc.EnsureConnection(ctx); err == nil {
		t.Error("Expected error when context is canceled")
	}
}

func TestHealthChecker_ConcurrentAccess(t *testing.T) {
	hc := newTestHealthChecker(&sql.DB{}, 5*time.Second)

	done := make(chan bool)

	// Concurrent reads
	for i := 0; i < 10; i++ {
		go func() {
			for j := 0; j < 100; j++ {
				_ = hc.IsHealthy()
				_ = hc.DB()
			}
			done <- true
		}()
	}

	// Concurrent writes
	for i := 0; i < 10; i++ {
		go func(val bool) {
			for j := 0; j < 100; j++ {
				hc.mu.Lock()
				hc.isHealthy = val
				hc.mu.Unlock()
			}
			done <- true
		}(i%2 == 0)
	}

	for i := 0; i < 20; i++ {
		<-done
	}
}
