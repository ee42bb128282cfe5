package gip

import (
	"context"
	"crypto/rsa"
	"fmt"
	"net/url"
	"os"
	"time"

	"github.com/go-auth-gateway/internal/config"
	"github.com/go-auth-gateway/internal/domain"
	"github.com/golang-jwt/jwt/v5"
	identitytoolkit "google.golang.org/api/identitytoolkit/v3"
	"google.golang.org/api/option"
)

// credentialAudience is the fixed audience Google Identity Platform expects
// in a custom sign-in credential.
const credentialAudience = "https://identitytoolkit.googleapis.com/google.identity.identitytoolkit.v1.IdentityToolkit"

const credentialTTL = time.Hour

// Client is the Google Identity Platform capability client. It owns identity
// records, verification state and password custody; this service only mirrors
// the verification flag locally. All calls run under a bounded timeout so a
// slow provider can never hang a request indefinitely.
type Client struct {
	svc       *identitytoolkit.Service
	issuer    string // service-account email, iss/sub of minted credentials
	signKey   *rsa.PrivateKey
	actionURL string
	timeout   time.Duration
}

func NewClient(ctx context.Context, cfg *config.Config) (*Client, error) {
	svc, err := identitytoolkit.NewService(ctx, option.WithAPIKey(cfg.ProviderAPIKey))
	if err != nil {
		return nil, fmt.Errorf("identitytoolkit service: %w", err)
	}
	keyBytes, err := os.ReadFile(cfg.JWTPrivateKeyPath)
	if err != nil {
		return nil, fmt.Errorf("read signing key: %w", err)
	}
	signKey, err := jwt.ParseRSAPrivateKeyFromPEM(keyBytes)
	if err != nil {
		return nil, fmt.Errorf("parse signing key: %w", err)
	}
	return &Client{
		svc:       svc,
		issuer:    cfg.ProviderIssuer,
		signKey:   signKey,
		actionURL: cfg.ActionLinkBaseURL,
		timeout:   cfg.ProviderTimeout,
	}, nil
}

// GetBySubject looks up the identity for an email address.
func (c *Client) GetBySubject(ctx context.Context, email string) (*domain.Identity, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()
	out, err := c.svc.Relyingparty.GetAccountInfo(&identitytoolkit.IdentitytoolkitRelyingpartyGetAccountInfoRequest{
		Email: []string{email},
	}).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("get account info: %w", err)
	}
	if len(out.Users) == 0 {
		return nil, fmt.Errorf("identity for %s: %w", email, domain.ErrNotFound)
	}
	u := out.Users[0]
	return &domain.Identity{ID: u.LocalId, Subject: u.Email, Verified: u.EmailVerified}, nil
}

// VerificationFlag reads the provider's current verification flag for an
// identity. This is always a fresh read — verification can happen out-of-band
// via an emailed link at any moment, so a cached flag is worthless.
func (c *Client) VerificationFlag(ctx context.Context, identityID string) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()
	out, err := c.svc.Relyingparty.GetAccountInfo(&identitytoolkit.IdentitytoolkitRelyingpartyGetAccountInfoRequest{
		LocalId: []string{identityID},
	}).Context(ctx).Do()
	if err != nil {
		return false, fmt.Errorf("get account info: %w", err)
	}
	if len(out.Users) == 0 {
		return false, fmt.Errorf("identity %s: %w", identityID, domain.ErrNotFound)
	}
	return out.Users[0].EmailVerified, nil
}

// Create registers a new identity with the provider. The secret may be empty
// for subjects that authenticate by one-time code only.
func (c *Client) Create(ctx context.Context, email, secret string) (*domain.Identity, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()
	out, err := c.svc.Relyingparty.SignupNewUser(&identitytoolkit.IdentitytoolkitRelyingpartySignupNewUserRequest{
		Email:    email,
		Password: secret,
	}).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("signup: %w", err)
	}
	return &domain.Identity{ID: out.LocalId, Subject: email}, nil
}

// IssueCredential mints a short-lived RS256 custom credential the client
// exchanges with the provider for a session.
func (c *Client) IssueCredential(_ context.Context, identityID string) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"iss": c.issuer,
		"sub": c.issuer,
		"aud": credentialAudience,
		"iat": now.Unix(),
		"exp": now.Add(credentialTTL).Unix(),
		"uid": identityID,
	}
	return jwt.NewWithClaims(jwt.SigningMethodRS256, claims).SignedString(c.signKey)
}

// VerificationLink asks the provider for an email-verification oob code and
// wraps it in the configured action URL.
func (c *Client) VerificationLink(ctx context.Context, email string) (string, error) {
	return c.oobLink(ctx, email, "VERIFY_EMAIL", "verifyEmail")
}

// PasswordResetLink asks the provider for a password-reset oob code and wraps
// it in the configured action URL.
func (c *Client) PasswordResetLink(ctx context.Context, email string) (string, error) {
	return c.oobLink(ctx, email, "PASSWORD_RESET", "resetPassword")
}

// ConfirmPasswordReset exchanges a reset oob code for a new secret. The local
// mirror is untouched — password custody stays with the provider.
func (c *Client) ConfirmPasswordReset(ctx context.Context, oobCode, newSecret string) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()
	_, err := c.svc.Relyingparty.ResetPassword(&identitytoolkit.IdentitytoolkitRelyingpartyResetPasswordRequest{
		OobCode:     oobCode,
		NewPassword: newSecret,
	}).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("confirm password reset: %w", err)
	}
	return nil
}

func (c *Client) oobLink(ctx context.Context, email, requestType, mode string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()
	out, err := c.svc.Relyingparty.GetOobConfirmationCode(&identitytoolkit.Relyingparty{
		RequestType: requestType,
		Email:       email,
	}).Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("oob confirmation code: %w", err)
	}
	return fmt.Sprintf("%s?mode=%s&oobCode=%s", c.actionURL, mode, url.QueryEscape(out.OobCode)), nil
}
