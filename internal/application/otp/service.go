package otp

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/go-auth-gateway/internal/domain"
	"github.com/go-auth-gateway/internal/infrastructure/memstore"
)

// Delivery channels for one-time codes. Email is the default; SMS requires a
// phone number on the mirrored profile.
const (
	ChannelEmail = "email"
	ChannelSMS   = "sms"
)

type CodeRequest struct {
	Email   string `json:"email" validate:"required,email"`
	Channel string `json:"channel" validate:"omitempty,oneof=email sms"`
}

type VerifyRequest struct {
	Email string `json:"email" validate:"required,email"`
	Code  string `json:"code" validate:"required,len=6"`
}

type Service interface {
	// RequestCode issues a fresh one-time code for the subject and delivers
	// it. Any pending code for the subject is invalidated.
	RequestCode(ctx context.Context, req CodeRequest) error
	// ResendCode is RequestCode under another route: reissuing is always safe
	// and intentionally shares the exact same path.
	ResendCode(ctx context.Context, req CodeRequest) error
	// VerifyCode consumes the pending code (single use) and, on success,
	// marks the profile verified, ensures a provider identity exists and
	// returns a login credential bound to it.
	VerifyCode(ctx context.Context, req VerifyRequest) (string, error)
}

type codeStore interface {
	Set(subject, code string, ttl time.Duration)
	Consume(subject, code string) memstore.ConsumeResult
}

type profileStore interface {
	GetByEmail(ctx context.Context, email string) (*domain.Profile, error)
	Update(ctx context.Context, email string, updates map[string]interface{}) error
}

type identityProvider interface {
	GetBySubject(ctx context.Context, email string) (*domain.Identity, error)
	Create(ctx context.Context, email, secret string) (*domain.Identity, error)
	IssueCredential(ctx context.Context, identityID string) (string, error)
}

type mailSender interface {
	SendEmail(to, subject, body string) error
}

type smsSender interface {
	SendSMS(ctx context.Context, to, message string) error
}

type service struct {
	codes    codeStore
	profiles profileStore
	provider identityProvider
	mailer   mailSender
	sms      smsSender
	ttl      time.Duration
}

type ServiceDeps struct {
	CodeStore   codeStore
	ProfileRepo profileStore
	Provider    identityProvider
	Mailer      mailSender
	SMSSender   smsSender
	CodeTTL     time.Duration
}

func NewService(deps ServiceDeps) Service {
	return &service{
		codes:    deps.CodeStore,
		profiles: deps.ProfileRepo,
		provider: deps.Provider,
		mailer:   deps.Mailer,
		sms:      deps.SMSSender,
		ttl:      deps.CodeTTL,
	}
}

func (s *service) RequestCode(ctx context.Context, req CodeRequest) error {
	if req.Email == "" {
		return fmt.Errorf("email is required: %w", domain.ErrBadRequest)
	}
	code, err := generateCode()
	if err != nil {
		return err
	}
	s.codes.Set(req.Email, code, s.ttl)

	// The record stays pending on delivery failure: the code is not burned
	// and the caller may simply re-request. No automatic retry here.
	if req.Channel == ChannelSMS {
		p, err := s.profiles.GetByEmail(ctx, req.Email)
		if err != nil {
			return fmt.Errorf("profile lookup for sms delivery: %w", domain.ErrNotFound)
		}
		if p.Phone == nil {
			return fmt.Errorf("no phone number on profile: %w", domain.ErrBadRequest)
		}
		if err := s.sms.SendSMS(ctx, *p.Phone, "Your code is "+code); err != nil {
			return fmt.Errorf("send code sms: %v: %w", err, domain.ErrDelivery)
		}
		return nil
	}

	body := fmt.Sprintf("Your code is %s. It will expire in %d minutes.", code, int(s.ttl.Minutes()))
	if err := s.mailer.SendEmail(req.Email, "Your verification code", body); err != nil {
		return fmt.Errorf("send code email: %v: %w", err, domain.ErrDelivery)
	}
	return nil
}

func (s *service) ResendCode(ctx context.Context, req CodeRequest) error {
	return s.RequestCode(ctx, req)
}

func (s *service) VerifyCode(ctx context.Context, req VerifyRequest) (string, error) {
	if req.Email == "" || req.Code == "" {
		return "", fmt.Errorf("email and code are required: %w", domain.ErrBadRequest)
	}
	switch s.codes.Consume(req.Email, req.Code) {
	case memstore.ConsumeNotFound:
		return "", fmt.Errorf("no code pending for subject: %w", domain.ErrNotFound)
	case memstore.ConsumeMismatch:
		return "", fmt.Errorf("submitted code does not match: %w", domain.ErrCodeMismatch)
	case memstore.ConsumeExpired:
		return "", fmt.Errorf("code expired, request a new one: %w", domain.ErrCodeExpired)
	}

	// The code is consumed from here on and cannot be replayed. Any failure
	// below surfaces as an authentication failure and the caller falls back
	// to the primary login path.
	if err := s.profiles.Update(ctx, req.Email, map[string]interface{}{"verified": true}); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return "", fmt.Errorf("no profile for subject: %w", domain.ErrNotFound)
		}
		return "", fmt.Errorf("mark profile verified: %v: %w", err, domain.ErrUpstream)
	}

	ident, err := s.provider.GetBySubject(ctx, req.Email)
	if errors.Is(err, domain.ErrNotFound) {
		ident, err = s.provider.Create(ctx, req.Email, "")
	}
	if err != nil {
		return "", fmt.Errorf("resolve provider identity: %v: %w", err, domain.ErrUpstream)
	}

	cred, err := s.provider.IssueCredential(ctx, ident.ID)
	if err != nil {
		return "", fmt.Errorf("issue credential: %v: %w", err, domain.ErrUpstream)
	}
	return cred, nil
}

// generateCode samples a fixed-width numeric code uniformly over the full
// 6-digit range, leading zeros included.
func generateCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1000000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}
