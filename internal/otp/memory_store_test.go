package otp_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"healthlink/internal/otp"
)

func TestMemoryStore_PutGet(t *testing.T) {
	ctx := context.Background()
	s := otp.NewMemoryStore()
	defer s.Close()

	require.NoError(t, s.Put(ctx, "a@b.com", "123456", time.Minute))

	code, err := s.Get(ctx, "a@b.com")
	require.NoError(t, err)
	assert.Equal(t, "123456", code)

	ok, err := s.Exists(ctx, "a@b.com")
	require.NoError(t, err)
	assert.True(t, ok)

	_, err = s.Get(ctx, "other@b.com")
	assert.ErrorIs(t, err, otp.ErrNotFound)
}

func TestMemoryStore_PutReplaces(t *testing.T) {
	ctx := context.Background()
	s := otp.NewMemoryStore()
	defer s.Close()

	require.NoError(t, s.Put(ctx, "a@b.com", "111111", time.Minute))
	require.NoError(t, s.Put(ctx, "a@b.com", "222222", time.Minute))

	code, err := s.Get(ctx, "a@b.com")
	require.NoError(t, err)
	assert.Equal(t, "222222", code)
}

func TestMemoryStore_LazyExpiry(t *testing.T) {
	ctx := context.Background()
	s := otp.NewMemoryStore()
	defer s.Close()

	require.NoError(t, s.Put(ctx, "a@b.com", "123456", 20*time.Millisecond))
	time.Sleep(40 * time.Millisecond)

	// no sweeper running: expiry must still be observed on read
	_, err := s.Get(ctx, "a@b.com")
	assert.ErrorIs(t, err, otp.ErrNotFound)

	ok, err := s.Exists(ctx, "a@b.com")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestMemoryStore_ConsumeIfMatch(t *testing.T) {
	ctx := context.Background()
	s := otp.NewMemoryStore()
	defer s.Close()

	require.NoError(t, s.Put(ctx, "a@b.com", "123456", time.Minute))

	// a mismatch must not consume the entry
	ok, err := s.ConsumeIfMatch(ctx, "a@b.com", "000000")
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = s.ConsumeIfMatch(ctx, "a@b.com", "123456")
	require.NoError(t, err)
	assert.True(t, ok)

	_, err = s.ConsumeIfMatch(ctx, "a@b.com", "123456")
	assert.ErrorIs(t, err, otp.ErrNotFound)
}

func TestMemoryStore_DeleteIdempotent(t *testing.T) {
	ctx := context.Background()
	s := otp.NewMemoryStore()
	defer s.Close()

	require.NoError(t, s.Put(ctx, "a@b.com", "123456", time.Minute))
	require.NoError(t, s.Delete(ctx, "a@b.com"))
	require.NoError(t, s.Delete(ctx, "a@b.com"))

	_, err := s.Get(ctx, "a@b.com")
	assert.ErrorIs(t, err, otp.ErrNotFound)
}

func TestMemoryStore_Sweeper(t *testing.T) {
	ctx := context.Background()
	s := otp.NewMemoryStore()
	defer s.Close()

	require.NoError(t, s.Put(ctx, "old@b.com", "111111", 10*time.Millisecond))
	require.NoError(t, s.Put(ctx, "new@b.com", "222222", time.Minute))

	s.StartSweeper(20 * time.Millisecond)
	time.Sleep(60 * time.Millisecond)

	_, err := s.Get(ctx, "old@b.com")
	assert.ErrorIs(t, err, otp.ErrNotFound)

	code, err := s.Get(ctx, "new@b.com")
	require.NoError(t, err)
	assert.Equal(t, "222222", code)
}
