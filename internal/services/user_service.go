package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"healthlink/internal/authz"
	"healthlink/internal/models"
	"healthlink/internal/otp"
	"healthlink/internal/repositories"
)

var (
	ErrEmailTaken         = errors.New("email already registered")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrEmailNotVerified   = errors.New("email not verified")
	ErrAccountNotApproved = errors.New("account pending approval")
	ErrAccountInactive    = errors.New("account deactivated")
	ErrInvalidOTP         = errors.New("invalid or expired code")
)

type UserService interface {
	Register(user *models.User, plainPassword string) error
	RequestEmailOTP(ctx context.Context, email string) error
	VerifyEmail(ctx context.Context, email, code string) error
	Login(email, password string) (*models.User, error)
	ForgotPassword(ctx context.Context, email string) error
	ResetPassword(ctx context.Context, email, code, newPassword string) error

	GetUserByID(id int64) (*models.User, error)
	GetUserByEmail(email string) (*models.User, error)
	UpdateUser(user *models.User) error
	DeleteUser(id int64) error
	ListUsers(role string, limit, offset int) ([]*models.User, error)
	SetApproval(userID int64, approved bool, reason string) error

	UpdateRefresh(userID int64, token string, expiresAt time.Time) error
	RotateRefresh(oldToken, newToken string, newExpiresAt time.Time) (*models.User, error)
	ClearRefresh(userID int64) error
	GetByRefreshToken(token string) (*models.User, error)
}

type userService struct {
	repo         repositories.UserRepository
	emailService EmailService
	authService  AuthService
	otpService   *otp.Service
}

func NewUserService(repo repositories.UserRepository, emailService EmailService, authService AuthService, otpService *otp.Service) UserService {
	return &userService{
		repo:         repo,
		emailService: emailService,
		authService:  authService,
		otpService:   otpService,
	}
}

// Register creates the account and kicks off email verification.
// Doctors and organizations start in PENDING approval.
func (s *userService) Register(user *models.User, plainPassword string) error {
	if strings.TrimSpace(plainPassword) == "" {
		return fmt.Errorf("password is required")
	}
	if !authz.IsValidRole(user.Role) {
		return fmt.Errorf("unknown role %q", user.Role)
	}

	taken, err := s.repo.ExistsByEmail(user.Email)
	if err != nil {
		return err
	}
	if taken {
		return ErrEmailTaken
	}

	hash, err := s.authService.HashPassword(plainPassword)
	if err != nil {
		return err
	}
	user.PasswordHash = hash
	user.IsActive = true
	if authz.RequiresApproval(user.Role) {
		user.ApprovalStatus = authz.ApprovalPending
	} else {
		user.ApprovalStatus = authz.ApprovalApproved
	}

	if err := s.repo.Create(user); err != nil {
		return err
	}

	// verification code is delivered in the background; registration
	// succeeds even when mail is down
	if _, err := s.otpService.Generate(context.Background(), user.Email); err != nil {
		log.Printf("[users][register] otp generate failed for userID=%d: err=%v", user.ID, err)
	}
	return nil
}

func (s *userService) RequestEmailOTP(ctx context.Context, email string) error {
	u, err := s.repo.GetByEmail(email)
	if err != nil {
		return err
	}
	if u == nil {
		// do not leak whether the address is registered
		return nil
	}
	_, err = s.otpService.Generate(ctx, email)
	return err
}

func (s *userService) VerifyEmail(ctx context.Context, email, code string) error {
	if !s.otpService.Verify(ctx, email, code) {
		return ErrInvalidOTP
	}
	return s.repo.MarkEmailVerified(email)
}

func (s *userService) Login(email, password string) (*models.User, error) {
	u, err := s.repo.GetByEmail(email)
	if err != nil {
		return nil, err
	}
	if u == nil || u.DeletedAt != nil {
		return nil, ErrInvalidCredentials
	}
	if !s.authService.CheckPassword(u.PasswordHash, password) {
		return nil, ErrInvalidCredentials
	}
	if !u.IsEmailVerified {
		return nil, ErrEmailNotVerified
	}
	if u.ApprovalStatus != authz.ApprovalApproved {
		return nil, ErrAccountNotApproved
	}
	if !u.IsActive {
		return nil, ErrAccountInactive
	}
	return u, nil
}

func (s *userService) ForgotPassword(ctx context.Context, email string) error {
	u, err := s.repo.GetByEmail(email)
	if err != nil {
		return err
	}
	if u == nil {
		return nil
	}
	_, err = s.otpService.Generate(ctx, email)
	return err
}

func (s *userService) ResetPassword(ctx context.Context, email, code, newPassword string) error {
	if strings.TrimSpace(newPassword) == "" {
		return fmt.Errorf("password is required")
	}
	if !s.otpService.Verify(ctx, email, code) {
		return ErrInvalidOTP
	}
	u, err := s.repo.GetByEmail(email)
	if err != nil {
		return err
	}
	if u == nil {
		return ErrInvalidCredentials
	}
	hash, err := s.authService.HashPassword(newPassword)
	if err != nil {
		return err
	}
	if err := s.repo.UpdatePassword(u.ID, hash); err != nil {
		return err
	}
	// password change invalidates the refresh session
	if err := s.repo.ClearRefresh(u.ID); err != nil {
		log.Printf("[users][reset-password] clear refresh failed for userID=%d: err=%v", u.ID, err)
	}
	if err := s.emailService.SendPasswordResetConfirmation(email); err != nil {
		log.Printf("[users][reset-password] confirmation email failed for userID=%d: err=%v", u.ID, err)
	}
	return nil
}

func (s *userService) GetUserByID(id int64) (*models.User, error) {
	return s.repo.GetByID(id)
}

func (s *userService) GetUserByEmail(email string) (*models.User, error) {
	return s.repo.GetByEmail(email)
}

func (s *userService) UpdateUser(user *models.User) error {
	return s.repo.Update(user)
}

func (s *userService) DeleteUser(id int64) error {
	return s.repo.SoftDelete(id)
}

func (s *userService) ListUsers(role string, limit, offset int) ([]*models.User, error) {
	return s.repo.List(role, limit, offset)
}

func (s *userService) SetApproval(userID int64, approved bool, reason string) error {
	u, err := s.repo.GetByID(userID)
	if err != nil {
		return err
	}
	if u == nil {
		return fmt.Errorf("user %d not found", userID)
	}

	status := authz.ApprovalApproved
	if !approved {
		status = authz.ApprovalRejected
	}
	if err := s.repo.SetApprovalStatus(userID, status); err != nil {
		return err
	}

	if approved {
		if err := s.emailService.SendAccountApproved(u.Email, u.FullName); err != nil {
			log.Printf("[users][approval] approved email failed for userID=%d: err=%v", userID, err)
		}
	} else {
		if err := s.emailService.SendAccountRejected(u.Email, u.FullName, reason); err != nil {
			log.Printf("[users][approval] rejected email failed for userID=%d: err=%v", userID, err)
		}
	}
	return nil
}

func (s *userService) UpdateRefresh(userID int64, token string, expiresAt time.Time) error {
	return s.repo.UpdateRefresh(userID, token, expiresAt)
}

func (s *userService) RotateRefresh(oldToken, newToken string, newExpiresAt time.Time) (*models.User, error) {
	return s.repo.RotateRefresh(oldToken, newToken, newExpiresAt)
}

func (s *userService) ClearRefresh(userID int64) error {
	return s.repo.ClearRefresh(userID)
}

func (s *userService) GetByRefreshToken(token string) (*models.User, error) {
	return s.repo.GetByRefreshToken(token)
}
