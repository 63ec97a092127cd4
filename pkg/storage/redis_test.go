//go:build integration

package storage

import (
	"context"
	"testing"
	"time"

	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/redis"
)

// setupRedisContainer starts a Redis container for testing.
func setupRedisContainer(t *testing.T) string {
	t.Helper()

	ctx := context.Background()

	redisContainer, err := redis.Run(ctx, "redis:7-alpine")
	if err != nil {
		t.Fatalf("failed to start redis container: %v", err)
	}

	endpoint, err := redisContainer.ConnectionString(ctx)
	if err != nil {
		t.Fatalf("failed to get redis endpoint: %v", err)
	}

	// Strip "redis://" prefix if present
	addr := endpoint
	if len(endpoint) > 8 && endpoint[:8] == "redis://" {
		addr = endpoint[8:]
	}

	t.Cleanup(func() {
		if err := testcontainers.TerminateContainer(redisContainer); err != nil {
			t.Logf("failed to terminate container: %v", err)
		}
	})

	return addr
}

func TestRedisStore_PutGetLatest(t *testing.T) {
	addr := setupRedisContainer(t)

	store, err := NewRedisStore(addr, "", 0, time.Minute)
	if err != nil {
		t.Fatalf("NewRedisStore() error: %v", err)
	}
	defer store.Close()

	ctx := context.Background()
	snap := Snapshot{
		Symbol:       "BTCUSDT1h",
		WindowSize:   20,
		ForecastSize: 1,
		Prediction:   42123.5,
		GeneratedAt:  time.Now().UTC().Truncate(time.Second),
	}
	if err := store.Put(ctx, snap); err != nil {
		t.Fatalf("Put() error: %v", err)
	}

	got, found, err := store.GetLatest(ctx, "BTCUSDT1h")
	if err != nil {
		t.Fatalf("GetLatest() error: %v", err)
	}
	if !found {
		t.Fatal("GetLatest() found = false, want true")
	}
	if got.Prediction != snap.Prediction {
		t.Errorf("prediction = %v, want %v", got.Prediction, snap.Prediction)
	}
	if !got.GeneratedAt.Equal(snap.GeneratedAt) {
		t.Errorf("generatedAt = %v, want %v", got.GeneratedAt, snap.GeneratedAt)
	}
}

func TestRedisStore_GetLatest_NotFound(t *testing.T) {
	addr := setupRedisContainer(t)

	store, err := NewRedisStore(addr, "", 0, time.Minute)
	if err != nil {
		t.Fatalf("NewRedisStore() error: %v", err)
	}
	defer store.Close()

	_, found, err := store.GetLatest(context.Background(), "MISSING")
	if err != nil {
		t.Fatalf("GetLatest() error: %v", err)
	}
	if found {
		t.Error("GetLatest() found = true for a symbol never stored")
	}
}

func TestRedisStore_TTLExpiry(t *testing.T) {
	addr := setupRedisContainer(t)

	store, err := NewRedisStore(addr, "", 0, time.Second)
	if err != nil {
		t.Fatalf("NewRedisStore() error: %v", err)
	}
	defer store.Close()

	ctx := context.Background()
	if err := store.Put(ctx, Snapshot{Symbol: "ABC", Prediction: 1}); err != nil {
		t.Fatalf("Put() error: %v", err)
	}

	time.Sleep(1500 * time.Millisecond)

	_, found, err := store.GetLatest(ctx, "ABC")
	if err != nil {
		t.Fatalf("GetLatest() error: %v", err)
	}
	if found {
		t.Error("snapshot should have expired")
	}
}

func TestRedisStore_InvalidAddr(t *testing.T) {
	if _, err := NewRedisStore("", "", 0, time.Minute); err == nil {
		t.Error("NewRedisStore() with empty addr should fail")
	}
	if _, err := NewRedisStore("localhost:6379", "", -1, time.Minute); err == nil {
		t.Error("NewRedisStore() with negative db should fail")
	}
}
