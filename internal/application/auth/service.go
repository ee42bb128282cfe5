package auth

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/go-auth-gateway/internal/domain"
)

// LoginResult carries the session credential and the (possibly just healed)
// local profile.
type LoginResult struct {
	Token   string
	Profile *domain.Profile
}

type Service interface {
	// Login gates on the provider's verification flag and reconciles the
	// local mirror against it before issuing a session credential.
	Login(ctx context.Context, email string) (*LoginResult, error)
	// VerifyEmail confirms that the provider has seen the emailed
	// verification link and reflects that into the local mirror.
	VerifyEmail(ctx context.Context, email string) (*domain.Profile, error)
	// Profile returns the mirrored profile for an authenticated subject.
	Profile(ctx context.Context, email string) (*domain.Profile, error)
}

type profileStore interface {
	GetByEmail(ctx context.Context, email string) (*domain.Profile, error)
	Update(ctx context.Context, email string, updates map[string]interface{}) error
}

type identityProvider interface {
	GetBySubject(ctx context.Context, email string) (*domain.Identity, error)
	VerificationFlag(ctx context.Context, identityID string) (bool, error)
}

type sessionSigner interface {
	Sign(subjectID, identityID string) (string, error)
}

type service struct {
	profiles profileStore
	provider identityProvider
	signer   sessionSigner
}

type ServiceDeps struct {
	ProfileRepo profileStore
	Provider    identityProvider
	Signer      sessionSigner
}

func NewService(deps ServiceDeps) Service {
	return &service{
		profiles: deps.ProfileRepo,
		provider: deps.Provider,
		signer:   deps.Signer,
	}
}

func (s *service) Login(ctx context.Context, email string) (*LoginResult, error) {
	if email == "" {
		return nil, fmt.Errorf("email is required: %w", domain.ErrBadRequest)
	}
	profile, err := s.profiles.GetByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("unknown subject: %w", domain.ErrNotFound)
	}
	ident, err := s.provider.GetBySubject(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("provider identity lookup: %w", err)
	}

	// Re-fetch the flag rather than trusting the lookup above or the local
	// mirror: verification happens out-of-band via the emailed link, so only
	// a fresh provider read can gate login.
	verified, err := s.provider.VerificationFlag(ctx, ident.ID)
	if err != nil {
		return nil, fmt.Errorf("verification flag: %v: %w", err, domain.ErrUpstream)
	}

	if verified && !profile.Verified {
		// One-way heal, provider wins. A failed heal is retried on the next
		// login and must not fail this one.
		if err := s.profiles.Update(ctx, email, map[string]interface{}{"verified": true}); err != nil {
			slog.Warn("failed to heal verified flag", "subject", email, "err", err)
		} else {
			profile.Verified = true
		}
	}
	if !verified {
		return nil, fmt.Errorf("account not verified, follow the emailed link: %w", domain.ErrNotVerified)
	}

	token, err := s.signer.Sign(email, ident.ID)
	if err != nil {
		return nil, fmt.Errorf("sign session credential: %v: %w", err, domain.ErrUpstream)
	}
	return &LoginResult{Token: token, Profile: profile}, nil
}

func (s *service) VerifyEmail(ctx context.Context, email string) (*domain.Profile, error) {
	if email == "" {
		return nil, fmt.Errorf("email is required: %w", domain.ErrBadRequest)
	}
	ident, err := s.provider.GetBySubject(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("provider identity lookup: %w", err)
	}
	verified, err := s.provider.VerificationFlag(ctx, ident.ID)
	if err != nil {
		return nil, fmt.Errorf("verification flag: %v: %w", err, domain.ErrUpstream)
	}
	if !verified {
		return nil, fmt.Errorf("email not verified yet, check the verification link: %w", domain.ErrNotVerified)
	}
	if err := s.profiles.Update(ctx, email, map[string]interface{}{"verified": true}); err != nil {
		return nil, fmt.Errorf("mark profile verified: %w", err)
	}
	profile, err := s.profiles.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	return profile, nil
}

func (s *service) Profile(ctx context.Context, email string) (*domain.Profile, error) {
	return s.profiles.GetByEmail(ctx, email)
}
