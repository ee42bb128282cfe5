package account

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-auth-gateway/internal/domain"
	"github.com/go-auth-gateway/internal/pkg/id"
)

type ResetRequest struct {
	Code        string `json:"code" validate:"required"`
	NewPassword string `json:"new_password" validate:"required,min=8,max=72"`
}

type Service interface {
	// Register creates the local mirror row, the provider identity, and
	// emails the provider's verification link.
	Register(ctx context.Context, req domain.RegisterRequest) (*domain.Profile, error)
	// SendVerificationLink regenerates and emails the verification link for
	// an existing identity.
	SendVerificationLink(ctx context.Context, email string) (string, error)
	// ForgotPassword emails a provider reset link; the local mirror is
	// untouched.
	ForgotPassword(ctx context.Context, email string) error
	// ResetPassword confirms a reset code with the provider.
	ResetPassword(ctx context.Context, req ResetRequest) error
}

type profileStore interface {
	PutNew(ctx context.Context, p *domain.Profile) error
}

type identityProvider interface {
	GetBySubject(ctx context.Context, email string) (*domain.Identity, error)
	Create(ctx context.Context, email, secret string) (*domain.Identity, error)
	VerificationLink(ctx context.Context, email string) (string, error)
	PasswordResetLink(ctx context.Context, email string) (string, error)
	ConfirmPasswordReset(ctx context.Context, code, newSecret string) error
}

type mailSender interface {
	SendEmail(to, subject, body string) error
}

type service struct {
	profiles profileStore
	provider identityProvider
	mailer   mailSender
}

type ServiceDeps struct {
	ProfileRepo profileStore
	Provider    identityProvider
	Mailer      mailSender
}

func NewService(deps ServiceDeps) Service {
	return &service{
		profiles: deps.ProfileRepo,
		provider: deps.Provider,
		mailer:   deps.Mailer,
	}
}

func (s *service) Register(ctx context.Context, req domain.RegisterRequest) (*domain.Profile, error) {
	now := time.Now().UTC()
	p := &domain.Profile{
		Email:       req.Email,
		ProfileID:   id.New(),
		DisplayName: req.DisplayName,
		Phone:       req.Phone,
		Verified:    false,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	// The conditional put is the sole arbiter of "already exists". A retry
	// after a partial failure below therefore surfaces as a conflict, which
	// is observable and actionable, instead of silently double-registering.
	if err := s.profiles.PutNew(ctx, p); err != nil {
		if errors.Is(err, domain.ErrConflict) {
			return nil, fmt.Errorf("already registered, login or reset password: %w", domain.ErrConflict)
		}
		return nil, fmt.Errorf("create profile: %v: %w", err, domain.ErrUpstream)
	}

	// No compensation below this point: a provider or delivery failure
	// leaves the local row in place and reports a generic failure.
	if _, err := s.provider.Create(ctx, req.Email, req.Password); err != nil {
		return nil, fmt.Errorf("create provider identity: %v: %w", err, domain.ErrUpstream)
	}
	link, err := s.provider.VerificationLink(ctx, req.Email)
	if err != nil {
		return nil, fmt.Errorf("verification link: %v: %w", err, domain.ErrUpstream)
	}
	body := "Please verify your email by clicking the following link: " + link
	if err := s.mailer.SendEmail(req.Email, "Verify your email", body); err != nil {
		return nil, fmt.Errorf("send verification email: %v: %w", err, domain.ErrUpstream)
	}
	return p, nil
}

func (s *service) SendVerificationLink(ctx context.Context, email string) (string, error) {
	if email == "" {
		return "", fmt.Errorf("email is required: %w", domain.ErrBadRequest)
	}
	if _, err := s.provider.GetBySubject(ctx, email); err != nil {
		return "", fmt.Errorf("provider identity lookup: %w", err)
	}
	link, err := s.provider.VerificationLink(ctx, email)
	if err != nil {
		return "", fmt.Errorf("verification link: %v: %w", err, domain.ErrUpstream)
	}
	body := "Click the following link to verify your email: " + link
	if err := s.mailer.SendEmail(email, "Verify your email", body); err != nil {
		return "", fmt.Errorf("send verification email: %v: %w", err, domain.ErrDelivery)
	}
	return link, nil
}

func (s *service) ForgotPassword(ctx context.Context, email string) error {
	if email == "" {
		return fmt.Errorf("email is required: %w", domain.ErrBadRequest)
	}
	link, err := s.provider.PasswordResetLink(ctx, email)
	if err != nil {
		return fmt.Errorf("password reset link: %v: %w", err, domain.ErrUpstream)
	}
	body := "Click the link below to reset your password:\n" + link
	if err := s.mailer.SendEmail(email, "Reset your password", body); err != nil {
		return fmt.Errorf("send reset email: %v: %w", err, domain.ErrDelivery)
	}
	return nil
}

func (s *service) ResetPassword(ctx context.Context, req ResetRequest) error {
	if req.Code == "" || req.NewPassword == "" {
		return fmt.Errorf("code and new_password are required: %w", domain.ErrBadRequest)
	}
	if err := s.provider.ConfirmPasswordReset(ctx, req.Code, req.NewPassword); err != nil {
		return fmt.Errorf("invalid or expired reset code: %w", domain.ErrBadRequest)
	}
	return nil
}
