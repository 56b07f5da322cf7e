package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/alexedwards/argon2id"
	"github.com/google/uuid"
	"github.com/sfhouse/intake/internal/domain"
	"github.com/sfhouse/intake/internal/mailer"
	"github.com/sfhouse/intake/internal/repository"
	"github.com/sfhouse/intake/pkg/auth"
	"github.com/sfhouse/intake/pkg/config"
	"github.com/sfhouse/intake/pkg/events"
	"github.com/sfhouse/intake/pkg/logger"
)

var (
	ErrEmailTaken         = errors.New("email already registered")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrNotVerified        = errors.New("email not verified")
	ErrInvalidToken       = errors.New("invalid or expired token")
)

// AuthService handles staff accounts: registration with email
// verification, login, and token refresh.
type AuthService struct {
	staff     repository.StaffRepository
	verify    repository.VerificationRepository
	mail      mailer.Mailer
	publisher events.Publisher
	cfg       *config.Config
}

func NewAuthService(staff repository.StaffRepository, verify repository.VerificationRepository, mail mailer.Mailer, publisher events.Publisher, cfg *config.Config) *AuthService {
	return &AuthService{
		staff:     staff,
		verify:    verify,
		mail:      mail,
		publisher: publisher,
		cfg:       cfg,
	}
}

func (s *AuthService) Register(ctx context.Context, req *domain.CreateStaffRequest) (*domain.StaffInfo, error) {
	req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, err
	}

	existing, err := s.staff.FindByEmail(ctx, req.Email)
	if err != nil {
		return nil, fmt.Errorf("failed to look up staff: %w", err)
	}
	if existing != nil {
		return nil, ErrEmailTaken
	}

	hash, err := argon2id.CreateHash(req.Password, argon2id.DefaultParams)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	staff, err := s.staff.Create(ctx, &domain.Staff{
		Role:         req.Role,
		Email:        req.Email,
		PasswordHash: hash,
		Name:         req.Name,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create staff: %w", err)
	}

	token := uuid.NewString()
	expiresAt := time.Now().Add(s.cfg.Auth.EmailVerificationTTL)
	if err := s.verify.CreateEmailVerification(ctx, token, staff.ID, expiresAt); err != nil {
		return nil, fmt.Errorf("failed to store verification token: %w", err)
	}

	verifyURL := fmt.Sprintf("%s/verify?token=%s", s.cfg.App.BaseURL, token)
	if err := s.mail.SendVerificationEmail(staff.Email, staff.Name, verifyURL, token); err != nil {
		// The account exists; the token can be re-sent manually.
		logger.ErrorContext(ctx, "Failed to send verification email", "email", staff.Email, "error", err)
	}

	s.publish(ctx, events.StaffRegistered, events.StaffRegisteredEvent{
		StaffID: staff.ID,
		Email:   staff.Email,
	})
	s.publish(ctx, events.NotifySend, events.NotificationEvent{
		Type:      "email",
		Recipient: staff.Email,
		Subject:   "Verify your intake desk account",
		Template:  "staff_verification",
		Data: map[string]interface{}{
			"name":       staff.Name,
			"verify_url": verifyURL,
		},
	})

	return staff.ToStaffInfo(), nil
}

func (s *AuthService) Login(ctx context.Context, req *domain.LoginRequest) (*domain.LoginResponse, error) {
	req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, err
	}

	staff, err := s.staff.FindByEmail(ctx, req.Email)
	if err != nil {
		return nil, fmt.Errorf("failed to look up staff: %w", err)
	}
	if staff == nil {
		return nil, ErrInvalidCredentials
	}

	match, err := argon2id.ComparePasswordAndHash(req.Password, staff.PasswordHash)
	if err != nil {
		return nil, fmt.Errorf("failed to verify password: %w", err)
	}
	if !match {
		return nil, ErrInvalidCredentials
	}
	if !staff.IsVerified {
		return nil, ErrNotVerified
	}

	return s.issueTokens(staff)
}

// VerifyEmail consumes a one-time verification token and marks the
// account verified.
func (s *AuthService) VerifyEmail(ctx context.Context, token string) error {
	staffID, err := s.verify.ConsumeEmailVerification(ctx, token)
	if err != nil {
		return fmt.Errorf("failed to consume verification token: %w", err)
	}
	if staffID == 0 {
		return ErrInvalidToken
	}

	if err := s.staff.MarkVerified(ctx, staffID); err != nil {
		return fmt.Errorf("failed to mark staff verified: %w", err)
	}

	s.publish(ctx, events.StaffVerified, events.StaffRegisteredEvent{StaffID: staffID})
	return nil
}

func (s *AuthService) RefreshToken(ctx context.Context, refreshToken string) (*domain.LoginResponse, error) {
	claims, err := auth.Parse(refreshToken, s.cfg.Auth.JWTSecret)
	if err != nil || claims.Scope != "refresh" {
		return nil, ErrInvalidToken
	}

	staff, err := s.staff.FindByID(ctx, claims.Sub)
	if err != nil {
		return nil, fmt.Errorf("failed to look up staff: %w", err)
	}
	if staff == nil {
		return nil, ErrInvalidToken
	}

	return s.issueTokens(staff)
}

func (s *AuthService) GetStaff(ctx context.Context, id int64) (*domain.StaffInfo, error) {
	staff, err := s.staff.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to look up staff: %w", err)
	}
	if staff == nil {
		return nil, nil
	}
	return staff.ToStaffInfo(), nil
}

func (s *AuthService) issueTokens(staff *domain.Staff) (*domain.LoginResponse, error) {
	access, err := auth.NewAccessToken(staff.ID, staff.Email, staff.Role, "access", s.cfg.Auth.JWTSecret, s.cfg.Auth.AccessTokenTTL)
	if err != nil {
		return nil, fmt.Errorf("failed to sign access token: %w", err)
	}
	refresh, err := auth.NewAccessToken(staff.ID, staff.Email, staff.Role, "refresh", s.cfg.Auth.JWTSecret, s.cfg.Auth.RefreshTokenTTL)
	if err != nil {
		return nil, fmt.Errorf("failed to sign refresh token: %w", err)
	}

	return &domain.LoginResponse{
		AccessToken:  access,
		RefreshToken: refresh,
		ExpiresIn:    int64(s.cfg.Auth.AccessTokenTTL.Seconds()),
		Staff:        staff.ToStaffInfo(),
	}, nil
}

func (s *AuthService) publish(ctx context.Context, subject string, payload interface{}) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(ctx, subject, payload); err != nil {
		logger.ErrorContext(ctx, "Failed to publish event", "subject", subject, "error", err)
	}
}
