package otp

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"healthlink/internal/logging"
	"healthlink/internal/utils"
)

var (
	// ErrRateLimited rejects a generate when the per-email attempt budget for
	// the current window is exhausted.
	ErrRateLimited = errors.New("too many OTP requests, please try again later")
	// ErrMailSendFailed is returned by GenerateSync when the synchronous mail
	// dispatch fails. The generated code is returned alongside it; whether it
	// is verifiable depends on storage having succeeded, which the degraded
	// no-store path skips.
	ErrMailSendFailed = errors.New("failed to send OTP email")
)

// Mailer is the mail dispatcher contract consumed by the service.
type Mailer interface {
	SendSync(to, subject, body string) error
	SendAsync(to, subject, body string)
}

// CodeFunc produces a code of the given length. Injectable for tests.
type CodeFunc func(length int) (string, error)

type Config struct {
	CodeLength  int
	TTL         time.Duration
	MaxAttempts int64
	Window      time.Duration
	MailEnabled bool
}

func (c Config) withDefaults() Config {
	if c.CodeLength <= 0 {
		c.CodeLength = 6
	}
	if c.TTL <= 0 {
		c.TTL = 5 * time.Minute
	}
	if c.MaxAttempts <= 0 {
		c.MaxAttempts = 5
	}
	if c.Window <= 0 {
		c.Window = time.Hour
	}
	return c
}

// Service orchestrates OTP generation, verification and cleanup over the
// configured store backend. When the backend exposes AttemptCounter the
// per-email rate limit is enforced; otherwise it is inactive.
type Service struct {
	store   Store
	counter AttemptCounter // nil when the backend lacks the capability
	mail    Mailer
	audit   *logging.SafeLogger
	cfg     Config
	codeFn  CodeFunc
}

func NewService(store Store, mail Mailer, audit *logging.SafeLogger, cfg Config, codeFn CodeFunc) *Service {
	if audit == nil {
		audit = logging.NewJSON(nil)
	}
	if codeFn == nil {
		codeFn = utils.NumericCode
	}
	counter, _ := store.(AttemptCounter)
	return &Service{
		store:   store,
		counter: counter,
		mail:    mail,
		audit:   audit,
		cfg:     cfg.withDefaults(),
		codeFn:  codeFn,
	}
}

// Generate creates, stores and dispatches a new OTP for email. Mail delivery
// is asynchronous; use GenerateSync for registration-critical flows.
func (s *Service) Generate(ctx context.Context, email string) (string, error) {
	return s.generate(ctx, email, false)
}

// GenerateSync behaves like Generate but blocks on mail delivery. On delivery
// failure it returns the generated code together with ErrMailSendFailed so the
// caller can decide whether to abort; the code itself remains verifiable.
func (s *Service) GenerateSync(ctx context.Context, email string) (string, error) {
	return s.generate(ctx, email, true)
}

func (s *Service) generate(ctx context.Context, email string, sync bool) (string, error) {
	if email == "" {
		return "", errors.New("email is required")
	}

	code, err := s.codeFn(s.cfg.CodeLength)
	if err != nil {
		return "", fmt.Errorf("generate code: %w", err)
	}

	if s.counter != nil {
		n, err := s.counter.IncrAttempts(ctx, email, s.cfg.Window)
		if err != nil {
			// Shared KV unreachable: degrade to no-store mode. The code is
			// mailed and returned, limiter and storage are skipped. Explicit
			// and auditable; availability wins over strict enforcement.
			s.audit.Event("otp_redis_unavailable").
				WithMasked("email", email).
				With("error", err.Error()).
				Log()
			return code, s.dispatchMail(email, code, sync)
		}
		if n > s.cfg.MaxAttempts {
			return "", ErrRateLimited
		}
	}

	if err := s.store.Put(ctx, email, code, s.cfg.TTL); err != nil {
		s.audit.Event("otp_redis_unavailable").
			WithMasked("email", email).
			With("error", err.Error()).
			Log()
		return code, s.dispatchMail(email, code, sync)
	}

	s.audit.Event("otp_generated").
		WithMasked("email", email).
		Log()
	return code, s.dispatchMail(email, code, sync)
}

// Verify checks code against the stored value and consumes it on match.
// Misses, expiry and store failures all report false; counters are untouched.
func (s *Service) Verify(ctx context.Context, email, code string) bool {
	// Compare-and-delete happens inside the store in one step, so concurrent
	// verifies of the same code cannot both succeed.
	ok, err := s.store.ConsumeIfMatch(ctx, email, code)
	if errors.Is(err, ErrNotFound) {
		s.audit.Event("otp_not_found").
			WithMasked("email", email).
			Log()
		return false
	}
	if err != nil {
		s.audit.Event("otp_redis_unavailable_verify").
			WithMasked("email", email).
			With("error", err.Error()).
			Log()
		return false
	}
	if !ok {
		s.audit.Event("otp_invalid").
			WithMasked("email", email).
			Log()
		return false
	}
	s.audit.Event("otp_verified").
		WithMasked("email", email).
		Log()
	return true
}

// Delete removes any current OTP for email. Attempt counters are unaffected.
func (s *Service) Delete(ctx context.Context, email string) {
	if err := s.store.Delete(ctx, email); err != nil {
		s.audit.Event("otp_redis_unavailable_delete").
			WithMasked("email", email).
			With("error", err.Error()).
			Log()
		return
	}
	s.audit.Event("otp_deleted").
		WithMasked("email", email).
		Log()
}

// Exists reports whether a non-expired OTP is stored for email. Store errors
// degrade to false.
func (s *Service) Exists(ctx context.Context, email string) bool {
	ok, err := s.store.Exists(ctx, email)
	if err != nil {
		s.audit.Event("otp_redis_unavailable_exists").
			WithMasked("email", email).
			With("error", err.Error()).
			Log()
		return false
	}
	return ok
}

func (s *Service) dispatchMail(email, code string, sync bool) error {
	if !s.cfg.MailEnabled {
		// Dev convenience only: the code goes to the plain log, never to the
		// audit stream.
		log.Printf("[otp] email disabled, OTP for %s is %s", logging.MaskEmail(email), code)
		s.audit.Event("otp_email_skipped_disabled").
			WithMasked("email", email).
			Log()
		return nil
	}

	subject := "Your HealthLink verification code"
	body := fmt.Sprintf("Your one-time verification code is: %s\n\nThis code will expire in %d minutes.",
		code, int(s.cfg.TTL.Minutes()))

	if !sync {
		s.mail.SendAsync(email, subject, body)
		return nil
	}

	if err := s.mail.SendSync(email, subject, body); err != nil {
		// The OTP is logged at error level so an operator can recover it when
		// the relay is down; this is the only branch that may expose it.
		s.audit.Event("otp_email_send_failed").
			WithMasked("email", email).
			With("otp", code).
			With("error", err.Error()).
			LogError()
		return fmt.Errorf("%w: %v", ErrMailSendFailed, err)
	}
	s.audit.Event("otp_email_sent").
		WithMasked("email", email).
		Log()
	return nil
}
