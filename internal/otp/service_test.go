package otp_test

import (
	"bytes"
	"context"
	"errors"
	"regexp"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"healthlink/internal/logging"
	"healthlink/internal/otp"
)

type stubMailer struct {
	mu        sync.Mutex
	syncSent  []string
	asyncSent []string
	lastBody  string
	failSync  bool
}

func (m *stubMailer) SendSync(to, subject, body string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failSync {
		return errors.New("smtp: connection refused")
	}
	m.syncSent = append(m.syncSent, to)
	m.lastBody = body
	return nil
}

func (m *stubMailer) SendAsync(to, subject, body string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.asyncSent = append(m.asyncSent, to)
	m.lastBody = body
}

// downStore simulates an unreachable shared KV: every operation fails with a
// driver error. It advertises the AttemptCounter capability like the real
// shared backend.
type downStore struct{}

var errConnRefused = errors.New("dial tcp 127.0.0.1:6379: connect: connection refused")

func (downStore) Put(context.Context, string, string, time.Duration) error { return errConnRefused }
func (downStore) Get(context.Context, string) (string, error)             { return "", errConnRefused }
func (downStore) Delete(context.Context, string) error                    { return errConnRefused }
func (downStore) Exists(context.Context, string) (bool, error)            { return false, errConnRefused }
func (downStore) ConsumeIfMatch(context.Context, string, string) (bool, error) {
	return false, errConnRefused
}
func (downStore) IncrAttempts(context.Context, string, time.Duration) (int64, error) {
	return 0, errConnRefused
}

// countingStore layers attempt counting on the in-process store so the
// limiter path can be exercised without Redis.
type countingStore struct {
	*otp.MemoryStore
	mu       sync.Mutex
	attempts map[string]int64
}

func newCountingStore() *countingStore {
	return &countingStore{MemoryStore: otp.NewMemoryStore(), attempts: make(map[string]int64)}
}

func (s *countingStore) IncrAttempts(_ context.Context, email string, _ time.Duration) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.attempts[email]++
	return s.attempts[email], nil
}

func seqCodes(codes ...string) otp.CodeFunc {
	i := 0
	return func(int) (string, error) {
		if i >= len(codes) {
			return "", errors.New("out of codes")
		}
		c := codes[i]
		i++
		return c, nil
	}
}

func newTestService(store otp.Store, mail *stubMailer, cfg otp.Config, codeFn otp.CodeFunc) (*otp.Service, *bytes.Buffer) {
	var buf bytes.Buffer
	return otp.NewService(store, mail, logging.NewJSON(&buf), cfg, codeFn), &buf
}

func TestService_HappyPath(t *testing.T) {
	ctx := context.Background()
	store := otp.NewMemoryStore()
	defer store.Close()
	mail := &stubMailer{}
	svc, _ := newTestService(store, mail, otp.Config{TTL: 5 * time.Minute}, nil)

	code, err := svc.Generate(ctx, "a@b.com")
	require.NoError(t, err)
	assert.Regexp(t, regexp.MustCompile(`^[0-9]{6}$`), code)

	assert.True(t, svc.Exists(ctx, "a@b.com"))
	assert.True(t, svc.Verify(ctx, "a@b.com", code))
	assert.False(t, svc.Verify(ctx, "a@b.com", code), "a code verifies at most once")
	assert.False(t, svc.Exists(ctx, "a@b.com"))
}

func TestService_WrongCode(t *testing.T) {
	ctx := context.Background()
	store := otp.NewMemoryStore()
	defer store.Close()
	svc, _ := newTestService(store, &stubMailer{}, otp.Config{}, seqCodes("123456"))

	code, err := svc.Generate(ctx, "a@b.com")
	require.NoError(t, err)

	assert.False(t, svc.Verify(ctx, "a@b.com", "000000"))
	// a miss must not consume the stored code
	assert.True(t, svc.Verify(ctx, "a@b.com", code))
}

func TestService_Expiry(t *testing.T) {
	ctx := context.Background()
	store := otp.NewMemoryStore()
	defer store.Close()
	svc, _ := newTestService(store, &stubMailer{}, otp.Config{TTL: 30 * time.Millisecond}, nil)

	code, err := svc.Generate(ctx, "a@b.com")
	require.NoError(t, err)

	time.Sleep(60 * time.Millisecond)
	assert.False(t, svc.Verify(ctx, "a@b.com", code))
	assert.False(t, svc.Exists(ctx, "a@b.com"))
}

func TestService_Supersession(t *testing.T) {
	ctx := context.Background()
	store := otp.NewMemoryStore()
	defer store.Close()
	svc, _ := newTestService(store, &stubMailer{}, otp.Config{}, seqCodes("111111", "222222"))

	c1, err := svc.Generate(ctx, "a@b.com")
	require.NoError(t, err)
	c2, err := svc.Generate(ctx, "a@b.com")
	require.NoError(t, err)
	require.NotEqual(t, c1, c2)

	assert.False(t, svc.Verify(ctx, "a@b.com", c1), "superseded code must not verify")
	assert.True(t, svc.Verify(ctx, "a@b.com", c2))
}

func TestService_RateLimit(t *testing.T) {
	ctx := context.Background()
	store := newCountingStore()
	defer store.Close()
	svc, _ := newTestService(store, &stubMailer{}, otp.Config{MaxAttempts: 5, Window: time.Hour}, nil)

	for i := range 5 {
		_, err := svc.Generate(ctx, "a@b.com")
		require.NoError(t, err, "generate %d should be within the window budget", i+1)
	}

	_, err := svc.Generate(ctx, "a@b.com")
	assert.ErrorIs(t, err, otp.ErrRateLimited)

	// other emails have their own budget
	_, err = svc.Generate(ctx, "c@d.com")
	assert.NoError(t, err)
}

func TestService_NoLimiterOnMemoryBackend(t *testing.T) {
	ctx := context.Background()
	store := otp.NewMemoryStore()
	defer store.Close()
	svc, _ := newTestService(store, &stubMailer{}, otp.Config{MaxAttempts: 2}, nil)

	for i := range 10 {
		_, err := svc.Generate(ctx, "a@b.com")
		require.NoError(t, err, "generate %d must not be limited without the counter capability", i+1)
	}
}

func TestService_StoreOutage(t *testing.T) {
	ctx := context.Background()
	mail := &stubMailer{}
	svc, buf := newTestService(downStore{}, mail, otp.Config{MailEnabled: true}, nil)

	code, err := svc.Generate(ctx, "a@b.com")
	require.NoError(t, err)
	assert.Regexp(t, regexp.MustCompile(`^[0-9]{6}$`), code)
	assert.Equal(t, []string{"a@b.com"}, mail.asyncSent, "degraded generate still mails the code")
	assert.Contains(t, buf.String(), "otp_redis_unavailable")

	assert.False(t, svc.Verify(ctx, "a@b.com", code))
	assert.Contains(t, buf.String(), "otp_redis_unavailable_verify")

	assert.False(t, svc.Exists(ctx, "a@b.com"))
	assert.Contains(t, buf.String(), "otp_redis_unavailable_exists")

	svc.Delete(ctx, "a@b.com")
	assert.Contains(t, buf.String(), "otp_redis_unavailable_delete")
}

func TestService_GenerateSyncMailFailure(t *testing.T) {
	ctx := context.Background()
	store := otp.NewMemoryStore()
	defer store.Close()
	mail := &stubMailer{failSync: true}
	svc, buf := newTestService(store, mail, otp.Config{MailEnabled: true}, seqCodes("654321"))

	code, err := svc.GenerateSync(ctx, "a@b.com")
	assert.ErrorIs(t, err, otp.ErrMailSendFailed)
	assert.Equal(t, "654321", code, "the code is returned even when mail fails")

	// mail failure never rolls back storage
	assert.True(t, svc.Verify(ctx, "a@b.com", code))

	// the OTP is recoverable from the error-level audit record
	assert.Contains(t, buf.String(), "otp_email_send_failed")
	assert.Contains(t, buf.String(), "654321")
}

func TestService_MailBody(t *testing.T) {
	ctx := context.Background()
	store := otp.NewMemoryStore()
	defer store.Close()
	mail := &stubMailer{}
	svc, _ := newTestService(store, mail, otp.Config{MailEnabled: true, TTL: 5 * time.Minute}, seqCodes("042913"))

	_, err := svc.GenerateSync(ctx, "a@b.com")
	require.NoError(t, err)
	assert.Equal(t, []string{"a@b.com"}, mail.syncSent)
	assert.Equal(t, "Your one-time verification code is: 042913\n\nThis code will expire in 5 minutes.", mail.lastBody)
}

func TestService_MailDisabled(t *testing.T) {
	ctx := context.Background()
	store := otp.NewMemoryStore()
	defer store.Close()
	mail := &stubMailer{}
	svc, buf := newTestService(store, mail, otp.Config{MailEnabled: false}, nil)

	_, err := svc.Generate(ctx, "a@b.com")
	require.NoError(t, err)
	assert.Empty(t, mail.syncSent)
	assert.Empty(t, mail.asyncSent)
	assert.Contains(t, buf.String(), "otp_email_skipped_disabled")
}

func TestService_Redaction(t *testing.T) {
	ctx := context.Background()
	store := otp.NewMemoryStore()
	defer store.Close()
	svc, buf := newTestService(store, &stubMailer{}, otp.Config{MailEnabled: true}, nil)

	code, err := svc.Generate(ctx, "johndoe@example.com")
	require.NoError(t, err)
	svc.Verify(ctx, "johndoe@example.com", "000000")
	svc.Verify(ctx, "johndoe@example.com", code)
	svc.Exists(ctx, "johndoe@example.com")
	svc.Delete(ctx, "johndoe@example.com")

	out := buf.String()
	assert.NotContains(t, out, "johndoe@example.com")
	assert.Contains(t, out, "j***@example.com")
	assert.NotContains(t, out, `"otp":"`+code, "OTP values only appear on mail-send failure")
}

func TestService_EmptyEmail(t *testing.T) {
	store := otp.NewMemoryStore()
	defer store.Close()
	svc, _ := newTestService(store, &stubMailer{}, otp.Config{}, nil)

	_, err := svc.Generate(context.Background(), "")
	assert.Error(t, err)
}

// laggyStore delays every call before delegating, standing in for KV network
// latency so the goroutines below pile up on the consume step together.
type laggyStore struct {
	*otp.MemoryStore
	delay time.Duration
}

func (s *laggyStore) ConsumeIfMatch(ctx context.Context, email, code string) (bool, error) {
	time.Sleep(s.delay)
	return s.MemoryStore.ConsumeIfMatch(ctx, email, code)
}

func TestService_ConcurrentVerifySingleUse(t *testing.T) {
	ctx := context.Background()
	mem := otp.NewMemoryStore()
	defer mem.Close()
	store := &laggyStore{MemoryStore: mem, delay: 20 * time.Millisecond}
	svc, _ := newTestService(store, &stubMailer{}, otp.Config{}, seqCodes("777777"))

	code, err := svc.Generate(ctx, "a@b.com")
	require.NoError(t, err)

	var wg sync.WaitGroup
	results := make([]bool, 8)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i] = svc.Verify(ctx, "a@b.com", code)
		}(i)
	}
	wg.Wait()

	succeeded := 0
	for _, ok := range results {
		if ok {
			succeeded++
		}
	}
	assert.Equal(t, 1, succeeded, "a code must be consumable exactly once")
}
