package services

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return mr, client
}

func TestChallengeStores(t *testing.T) {
	_, client := newTestRedis(t)

	stores := map[string]ChallengeStore{
		"memory": NewMemoryChallengeStore(),
		"redis":  NewRedisChallengeStore(client, "test:"),
	}

	for name, store := range stores {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			require.NoError(t, store.Put(ctx, "c1", 135, time.Minute))

			angle, ok, err := store.Take(ctx, "c1")
			require.NoError(t, err)
			assert.True(t, ok)
			assert.Equal(t, 135, angle)

			_, ok, err = store.Take(ctx, "c1")
			require.NoError(t, err)
			assert.False(t, ok, "challenge must be consumed")

			_, ok, err = store.Take(ctx, "missing")
			require.NoError(t, err)
			assert.False(t, ok)
		})
	}
}

func TestRedisChallengeStoreExpiry(t *testing.T) {
	mr, client := newTestRedis(t)
	store := NewRedisChallengeStore(client, "")
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, "c2", 90, time.Second))
	mr.FastForward(2 * time.Second)

	_, ok, err := store.Take(ctx, "c2")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestMemoryChallengeStoreExpiry(t *testing.T) {
	store := NewMemoryChallengeStore()
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, "c3", 90, -time.Second))
	_, ok, err := store.Take(ctx, "c3")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestCaptchaVerifyConsumesChallenge(t *testing.T) {
	store := NewMemoryChallengeStore()
	svc := &captchaServiceImpl{store: store, ttl: time.Minute, padding: 5}
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, "c4", 200, time.Minute))
	assert.True(t, svc.VerifyRotate(ctx, "c4", 163.4))
	assert.False(t, svc.VerifyRotate(ctx, "c4", 160), "second attempt must fail")

	require.NoError(t, store.Put(ctx, "c5", 200, time.Minute))
	assert.False(t, svc.VerifyRotate(ctx, "c5", 20))
	assert.False(t, svc.VerifyRotate(ctx, "", 20))
}

func TestCaptchaVerifyCorrectiveAngle(t *testing.T) {
	tests := []struct {
		name      string
		submitted float64
		want      bool
	}{
		{name: "exact correction", submitted: 160, want: true},
		{name: "inside lower padding", submitted: 155, want: true},
		{name: "inside upper padding", submitted: 165, want: true},
		{name: "outside padding", submitted: 170, want: false},
		{name: "target angle itself", submitted: 200, want: false},
		{name: "near target", submitted: 203, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := NewMemoryChallengeStore()
			svc := &captchaServiceImpl{store: store, ttl: time.Minute, padding: 5}
			ctx := context.Background()

			require.NoError(t, store.Put(ctx, "c", 200, time.Minute))
			assert.Equal(t, tt.want, svc.VerifyRotate(ctx, "c", tt.submitted))
		})
	}
}
