package services_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"healthlink/internal/authz"
	"healthlink/internal/logging"
	"healthlink/internal/models"
	"healthlink/internal/otp"
	"healthlink/internal/services"
)

type fakeUserRepo struct {
	mu     sync.Mutex
	nextID int64
	users  map[int64]*models.User
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: map[int64]*models.User{}}
}

func (r *fakeUserRepo) Create(u *models.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	u.ID = r.nextID
	u.CreatedAt = time.Now()
	cp := *u
	r.users[u.ID] = &cp
	return nil
}

func (r *fakeUserRepo) GetByID(id int64) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return nil, nil
	}
	cp := *u
	return &cp, nil
}

func (r *fakeUserRepo) GetByEmail(email string) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *fakeUserRepo) ExistsByEmail(email string) (bool, error) {
	u, _ := r.GetByEmail(email)
	return u != nil, nil
}

func (r *fakeUserRepo) List(role string, limit, offset int) ([]*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.User
	for _, u := range r.users {
		if u.DeletedAt != nil {
			continue
		}
		if role != "" && u.Role != role {
			continue
		}
		cp := *u
		out = append(out, &cp)
	}
	return out, nil
}

func (r *fakeUserRepo) Update(u *models.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if cur, ok := r.users[u.ID]; ok {
		cur.FullName = u.FullName
		cur.Phone = u.Phone
		cur.PreferredLanguage = u.PreferredLanguage
		cur.IsActive = u.IsActive
	}
	return nil
}

func (r *fakeUserRepo) SoftDelete(id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if u, ok := r.users[id]; ok {
		now := time.Now()
		u.DeletedAt = &now
	}
	return nil
}

func (r *fakeUserRepo) CountByRole(role string) (int, error) {
	all, _ := r.List(role, 0, 0)
	return len(all), nil
}

func (r *fakeUserRepo) MarkEmailVerified(email string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Email == email {
			u.IsEmailVerified = true
		}
	}
	return nil
}

func (r *fakeUserRepo) UpdatePassword(id int64, hash string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if u, ok := r.users[id]; ok {
		u.PasswordHash = hash
	}
	return nil
}

func (r *fakeUserRepo) SetApprovalStatus(id int64, status string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if u, ok := r.users[id]; ok {
		u.ApprovalStatus = status
	}
	return nil
}

func (r *fakeUserRepo) UpdateRefresh(id int64, token string, exp time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if u, ok := r.users[id]; ok {
		u.RefreshToken = &token
		u.RefreshExpiresAt = &exp
		u.RefreshRevoked = false
	}
	return nil
}

func (r *fakeUserRepo) RotateRefresh(oldToken, newToken string, exp time.Time) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.RefreshToken != nil && *u.RefreshToken == oldToken && !u.RefreshRevoked {
			u.RefreshToken = &newToken
			u.RefreshExpiresAt = &exp
			cp := *u
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *fakeUserRepo) ClearRefresh(id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if u, ok := r.users[id]; ok {
		u.RefreshToken = nil
		u.RefreshExpiresAt = nil
		u.RefreshRevoked = true
	}
	return nil
}

func (r *fakeUserRepo) GetByRefreshToken(token string) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.RefreshToken != nil && *u.RefreshToken == token {
			cp := *u
			return &cp, nil
		}
	}
	return nil, nil
}

// fakeEmail records every outgoing message instead of dialing SMTP.
type fakeEmail struct {
	mu       sync.Mutex
	sent     []string // "kind:recipient"
	lastBody string
}

func (f *fakeEmail) record(kind, to string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, kind+":"+to)
}

func (f *fakeEmail) SendSync(to, subject, body string) error {
	f.mu.Lock()
	f.lastBody = body
	f.mu.Unlock()
	f.record("otp", to)
	return nil
}

func (f *fakeEmail) SendAsync(to, subject, body string) { _ = f.SendSync(to, subject, body) }

func (f *fakeEmail) SendPasswordResetConfirmation(email string) error {
	f.record("reset-confirmation", email)
	return nil
}

func (f *fakeEmail) SendAccountApproved(email, fullName string) error {
	f.record("approved", email)
	return nil
}

func (f *fakeEmail) SendAccountRejected(email, fullName, reason string) error {
	f.record("rejected", email)
	return nil
}

func (f *fakeEmail) SendAppointmentConfirmation(email, doctorName, startTime, joinURL string) error {
	f.record("appointment", email)
	return nil
}

func (f *fakeEmail) SendEmergencyWelcome(email, tempPassword string) error {
	f.record("emergency", email)
	return nil
}

func (f *fakeEmail) SendPaymentVerified(email string, amount float64) error {
	f.record("payment", email)
	return nil
}

func (f *fakeEmail) SendNotification(email, title, message string) error {
	f.record("notification", email)
	return nil
}

func (f *fakeEmail) sentTo(kind, to string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, s := range f.sent {
		if s == kind+":"+to {
			return true
		}
	}
	return false
}

func newUserServiceForTest(t *testing.T) (services.UserService, *fakeUserRepo, *fakeEmail) {
	t.Helper()
	repo := newFakeUserRepo()
	mail := &fakeEmail{}
	auth := services.NewAuthService(15 * time.Minute)

	store := otp.NewMemoryStore()
	t.Cleanup(store.Close)
	otpSvc := otp.NewService(store, mail, logging.NewJSON(nil), otp.Config{MailEnabled: true},
		func(length int) (string, error) { return "123456", nil })

	return services.NewUserService(repo, mail, auth, otpSvc), repo, mail
}

func TestRegister(t *testing.T) {
	svc, repo, mail := newUserServiceForTest(t)

	t.Run("patient is approved immediately", func(t *testing.T) {
		u := &models.User{Role: authz.RolePatient, Email: "pat@example.com", FullName: "Pat"}
		require.NoError(t, svc.Register(u, "secret-pass"))

		stored, err := repo.GetByID(u.ID)
		require.NoError(t, err)
		require.NotNil(t, stored)
		assert.Equal(t, authz.ApprovalApproved, stored.ApprovalStatus)
		assert.True(t, stored.IsActive)
		assert.NotEqual(t, "secret-pass", stored.PasswordHash)
		assert.True(t, mail.sentTo("otp", "pat@example.com"))
	})

	t.Run("doctor starts pending", func(t *testing.T) {
		u := &models.User{Role: authz.RoleDoctor, Email: "doc@example.com", FullName: "Doc"}
		require.NoError(t, svc.Register(u, "secret-pass"))

		stored, _ := repo.GetByID(u.ID)
		assert.Equal(t, authz.ApprovalPending, stored.ApprovalStatus)
	})

	t.Run("duplicate email rejected", func(t *testing.T) {
		u := &models.User{Role: authz.RolePatient, Email: "pat@example.com", FullName: "Other"}
		err := svc.Register(u, "secret-pass")
		assert.ErrorIs(t, err, services.ErrEmailTaken)
	})

	t.Run("unknown role rejected", func(t *testing.T) {
		u := &models.User{Role: "SUPERUSER", Email: "x@example.com"}
		assert.Error(t, svc.Register(u, "secret-pass"))
	})
}

func TestVerifyEmail(t *testing.T) {
	svc, repo, _ := newUserServiceForTest(t)
	ctx := context.Background()

	u := &models.User{Role: authz.RolePatient, Email: "pat@example.com", FullName: "Pat"}
	require.NoError(t, svc.Register(u, "secret-pass"))

	t.Run("wrong code fails", func(t *testing.T) {
		assert.ErrorIs(t, svc.VerifyEmail(ctx, "pat@example.com", "000000"), services.ErrInvalidOTP)
	})

	t.Run("correct code verifies and is single use", func(t *testing.T) {
		require.NoError(t, svc.VerifyEmail(ctx, "pat@example.com", "123456"))

		stored, _ := repo.GetByID(u.ID)
		assert.True(t, stored.IsEmailVerified)

		assert.ErrorIs(t, svc.VerifyEmail(ctx, "pat@example.com", "123456"), services.ErrInvalidOTP)
	})
}

func TestLogin(t *testing.T) {
	svc, repo, _ := newUserServiceForTest(t)
	ctx := context.Background()

	u := &models.User{Role: authz.RolePatient, Email: "pat@example.com", FullName: "Pat"}
	require.NoError(t, svc.Register(u, "secret-pass"))

	t.Run("unverified email blocked", func(t *testing.T) {
		_, err := svc.Login("pat@example.com", "secret-pass")
		assert.ErrorIs(t, err, services.ErrEmailNotVerified)
	})

	require.NoError(t, svc.RequestEmailOTP(ctx, "pat@example.com"))
	require.NoError(t, svc.VerifyEmail(ctx, "pat@example.com", "123456"))

	t.Run("wrong password", func(t *testing.T) {
		_, err := svc.Login("pat@example.com", "not-the-password")
		assert.ErrorIs(t, err, services.ErrInvalidCredentials)
	})

	t.Run("unknown email", func(t *testing.T) {
		_, err := svc.Login("ghost@example.com", "whatever")
		assert.ErrorIs(t, err, services.ErrInvalidCredentials)
	})

	t.Run("success", func(t *testing.T) {
		got, err := svc.Login("pat@example.com", "secret-pass")
		require.NoError(t, err)
		assert.Equal(t, u.ID, got.ID)
	})

	t.Run("pending doctor blocked", func(t *testing.T) {
		d := &models.User{Role: authz.RoleDoctor, Email: "doc@example.com", FullName: "Doc"}
		require.NoError(t, svc.Register(d, "secret-pass"))
		require.NoError(t, svc.RequestEmailOTP(ctx, "doc@example.com"))
		require.NoError(t, svc.VerifyEmail(ctx, "doc@example.com", "123456"))

		_, err := svc.Login("doc@example.com", "secret-pass")
		assert.ErrorIs(t, err, services.ErrAccountNotApproved)
	})

	t.Run("deactivated account blocked", func(t *testing.T) {
		stored, _ := repo.GetByID(u.ID)
		stored.IsActive = false
		require.NoError(t, repo.Update(stored))

		_, err := svc.Login("pat@example.com", "secret-pass")
		assert.ErrorIs(t, err, services.ErrAccountInactive)
	})
}

func TestResetPassword(t *testing.T) {
	svc, repo, mail := newUserServiceForTest(t)
	ctx := context.Background()

	u := &models.User{Role: authz.RolePatient, Email: "pat@example.com", FullName: "Pat"}
	require.NoError(t, svc.Register(u, "old-password"))
	require.NoError(t, svc.VerifyEmail(ctx, "pat@example.com", "123456"))
	require.NoError(t, svc.UpdateRefresh(u.ID, "session-token", time.Now().Add(time.Hour)))

	t.Run("unknown email is silent", func(t *testing.T) {
		assert.NoError(t, svc.ForgotPassword(ctx, "ghost@example.com"))
	})

	require.NoError(t, svc.ForgotPassword(ctx, "pat@example.com"))

	t.Run("wrong code rejected", func(t *testing.T) {
		err := svc.ResetPassword(ctx, "pat@example.com", "999999", "new-password")
		assert.ErrorIs(t, err, services.ErrInvalidOTP)
	})

	t.Run("reset changes password and revokes session", func(t *testing.T) {
		require.NoError(t, svc.ForgotPassword(ctx, "pat@example.com"))
		require.NoError(t, svc.ResetPassword(ctx, "pat@example.com", "123456", "new-password"))

		_, err := svc.Login("pat@example.com", "old-password")
		assert.ErrorIs(t, err, services.ErrInvalidCredentials)

		got, err := svc.Login("pat@example.com", "new-password")
		require.NoError(t, err)
		assert.Equal(t, u.ID, got.ID)

		stored, _ := repo.GetByID(u.ID)
		assert.Nil(t, stored.RefreshToken)
		assert.True(t, mail.sentTo("reset-confirmation", "pat@example.com"))
	})
}

func TestSetApproval(t *testing.T) {
	svc, repo, mail := newUserServiceForTest(t)

	d := &models.User{Role: authz.RoleDoctor, Email: "doc@example.com", FullName: "Doc"}
	require.NoError(t, svc.Register(d, "secret-pass"))

	require.NoError(t, svc.SetApproval(d.ID, true, ""))
	stored, _ := repo.GetByID(d.ID)
	assert.Equal(t, authz.ApprovalApproved, stored.ApprovalStatus)
	assert.True(t, mail.sentTo("approved", "doc@example.com"))

	require.NoError(t, svc.SetApproval(d.ID, false, "license expired"))
	stored, _ = repo.GetByID(d.ID)
	assert.Equal(t, authz.ApprovalRejected, stored.ApprovalStatus)
	assert.True(t, mail.sentTo("rejected", "doc@example.com"))
}
