package otp

import (
	"context"
	"errors"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/go-auth-gateway/internal/domain"
	"github.com/go-auth-gateway/internal/infrastructure/memstore"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// --- mocks ---

type mockCodeStore struct{ mock.Mock }

func (m *mockCodeStore) Set(subject, code string, ttl time.Duration) {
	m.Called(subject, code, ttl)
}
func (m *mockCodeStore) Consume(subject, code string) memstore.ConsumeResult {
	return m.Called(subject, code).Get(0).(memstore.ConsumeResult)
}

type mockProfileStore struct{ mock.Mock }

func (m *mockProfileStore) GetByEmail(ctx context.Context, email string) (*domain.Profile, error) {
	args := m.Called(ctx, email)
	if p, _ := args.Get(0).(*domain.Profile); p != nil {
		return p, args.Error(1)
	}
	return nil, args.Error(1)
}
func (m *mockProfileStore) Update(ctx context.Context, email string, updates map[string]interface{}) error {
	return m.Called(ctx, email, updates).Error(0)
}

type mockProvider struct{ mock.Mock }

func (m *mockProvider) GetBySubject(ctx context.Context, email string) (*domain.Identity, error) {
	args := m.Called(ctx, email)
	if i, _ := args.Get(0).(*domain.Identity); i != nil {
		return i, args.Error(1)
	}
	return nil, args.Error(1)
}
func (m *mockProvider) Create(ctx context.Context, email, secret string) (*domain.Identity, error) {
	args := m.Called(ctx, email, secret)
	if i, _ := args.Get(0).(*domain.Identity); i != nil {
		return i, args.Error(1)
	}
	return nil, args.Error(1)
}
func (m *mockProvider) IssueCredential(ctx context.Context, identityID string) (string, error) {
	args := m.Called(ctx, identityID)
	return args.String(0), args.Error(1)
}

type mockMailer struct{ mock.Mock }

func (m *mockMailer) SendEmail(to, subject, body string) error {
	return m.Called(to, subject, body).Error(0)
}

type mockSMSSender struct{ mock.Mock }

func (m *mockSMSSender) SendSMS(ctx context.Context, to, message string) error {
	return m.Called(ctx, to, message).Error(0)
}

// --- builder ---

func newService(cs *mockCodeStore, ps *mockProfileStore, pr *mockProvider, ml *mockMailer, sms *mockSMSSender) Service {
	return NewService(ServiceDeps{
		CodeStore:   cs,
		ProfileRepo: ps,
		Provider:    pr,
		Mailer:      ml,
		SMSSender:   sms,
		CodeTTL:     5 * time.Minute,
	})
}

var sixDigits = regexp.MustCompile(`^\d{6}$`)

// --- RequestCode ---

func TestRequestCode_NoEmail_ReturnsBadRequest(t *testing.T) {
	svc := newService(nil, nil, nil, nil, nil)
	err := svc.RequestCode(context.Background(), CodeRequest{})
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrBadRequest))
}

func TestRequestCode_HappyPath_EmailsSixDigitCode(t *testing.T) {
	cs := &mockCodeStore{}
	ml := &mockMailer{}

	var issued string
	cs.On("Set", "a@b.com", mock.MatchedBy(func(code string) bool {
		issued = code
		return sixDigits.MatchString(code)
	}), 5*time.Minute).Return()
	ml.On("SendEmail", "a@b.com", mock.Anything, mock.MatchedBy(func(body string) bool {
		return containsCode(body, issued)
	})).Return(nil)

	svc := newService(cs, nil, nil, ml, nil)
	err := svc.RequestCode(context.Background(), CodeRequest{Email: "a@b.com"})

	require.NoError(t, err)
	cs.AssertExpectations(t)
	ml.AssertExpectations(t)
}

func containsCode(body, code string) bool {
	return code != "" && strings.Contains(body, code)
}

func TestRequestCode_MailFailure_IsDeliveryError_CodeStaysStored(t *testing.T) {
	cs := &mockCodeStore{}
	ml := &mockMailer{}

	cs.On("Set", "a@b.com", mock.Anything, mock.Anything).Return()
	ml.On("SendEmail", "a@b.com", mock.Anything, mock.Anything).Return(errors.New("smtp down"))

	svc := newService(cs, nil, nil, ml, nil)
	err := svc.RequestCode(context.Background(), CodeRequest{Email: "a@b.com"})

	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrDelivery))
	// The record was stored before the delivery attempt, so the subject can
	// retry without waiting out a cooldown.
	cs.AssertCalled(t, "Set", "a@b.com", mock.Anything, mock.Anything)
}

func TestRequestCode_SMSChannel_UsesProfilePhone(t *testing.T) {
	cs := &mockCodeStore{}
	ps := &mockProfileStore{}
	sms := &mockSMSSender{}

	phone := "+15550100"
	cs.On("Set", "a@b.com", mock.Anything, mock.Anything).Return()
	ps.On("GetByEmail", mock.Anything, "a@b.com").Return(&domain.Profile{Email: "a@b.com", Phone: &phone}, nil)
	sms.On("SendSMS", mock.Anything, phone, mock.Anything).Return(nil)

	svc := newService(cs, ps, nil, nil, sms)
	err := svc.RequestCode(context.Background(), CodeRequest{Email: "a@b.com", Channel: ChannelSMS})

	require.NoError(t, err)
	sms.AssertExpectations(t)
}

func TestRequestCode_SMSChannel_NoPhone_ReturnsBadRequest(t *testing.T) {
	cs := &mockCodeStore{}
	ps := &mockProfileStore{}

	cs.On("Set", "a@b.com", mock.Anything, mock.Anything).Return()
	ps.On("GetByEmail", mock.Anything, "a@b.com").Return(&domain.Profile{Email: "a@b.com"}, nil)

	svc := newService(cs, ps, nil, nil, nil)
	err := svc.RequestCode(context.Background(), CodeRequest{Email: "a@b.com", Channel: ChannelSMS})

	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrBadRequest))
}

func TestResendCode_SharesRequestPath(t *testing.T) {
	cs := &mockCodeStore{}
	ml := &mockMailer{}

	cs.On("Set", "a@b.com", mock.Anything, mock.Anything).Return()
	ml.On("SendEmail", "a@b.com", mock.Anything, mock.Anything).Return(nil)

	svc := newService(cs, nil, nil, ml, nil)
	require.NoError(t, svc.ResendCode(context.Background(), CodeRequest{Email: "a@b.com"}))
	cs.AssertExpectations(t)
	ml.AssertExpectations(t)
}

// --- VerifyCode ---

func TestVerifyCode_NoPendingCode_ReturnsNotFound(t *testing.T) {
	cs := &mockCodeStore{}
	cs.On("Consume", "a@b.com", "123456").Return(memstore.ConsumeNotFound)

	svc := newService(cs, nil, nil, nil, nil)
	_, err := svc.VerifyCode(context.Background(), VerifyRequest{Email: "a@b.com", Code: "123456"})

	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrNotFound))
}

func TestVerifyCode_Mismatch_ReturnsCodeMismatch(t *testing.T) {
	cs := &mockCodeStore{}
	cs.On("Consume", "a@b.com", "000000").Return(memstore.ConsumeMismatch)

	svc := newService(cs, nil, nil, nil, nil)
	_, err := svc.VerifyCode(context.Background(), VerifyRequest{Email: "a@b.com", Code: "000000"})

	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrCodeMismatch))
}

func TestVerifyCode_Expired_ReturnsCodeExpired(t *testing.T) {
	cs := &mockCodeStore{}
	cs.On("Consume", "a@b.com", "123456").Return(memstore.ConsumeExpired)

	svc := newService(cs, nil, nil, nil, nil)
	_, err := svc.VerifyCode(context.Background(), VerifyRequest{Email: "a@b.com", Code: "123456"})

	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrCodeExpired))
}

func TestVerifyCode_HappyPath_MarksVerifiedAndIssuesCredential(t *testing.T) {
	cs := &mockCodeStore{}
	ps := &mockProfileStore{}
	pr := &mockProvider{}

	cs.On("Consume", "a@b.com", "123456").Return(memstore.ConsumeOK)
	ps.On("Update", mock.Anything, "a@b.com", map[string]interface{}{"verified": true}).Return(nil)
	pr.On("GetBySubject", mock.Anything, "a@b.com").Return(&domain.Identity{ID: "uid-1", Subject: "a@b.com"}, nil)
	pr.On("IssueCredential", mock.Anything, "uid-1").Return("cred-token", nil)

	svc := newService(cs, ps, pr, nil, nil)
	cred, err := svc.VerifyCode(context.Background(), VerifyRequest{Email: "a@b.com", Code: "123456"})

	require.NoError(t, err)
	assert.Equal(t, "cred-token", cred)
	ps.AssertExpectations(t)
	pr.AssertExpectations(t)
}

func TestVerifyCode_NoProviderIdentity_CreatesOne(t *testing.T) {
	cs := &mockCodeStore{}
	ps := &mockProfileStore{}
	pr := &mockProvider{}

	cs.On("Consume", "a@b.com", "123456").Return(memstore.ConsumeOK)
	ps.On("Update", mock.Anything, "a@b.com", mock.Anything).Return(nil)
	pr.On("GetBySubject", mock.Anything, "a@b.com").Return(nil, domain.ErrNotFound)
	pr.On("Create", mock.Anything, "a@b.com", "").Return(&domain.Identity{ID: "uid-new"}, nil)
	pr.On("IssueCredential", mock.Anything, "uid-new").Return("cred-token", nil)

	svc := newService(cs, ps, pr, nil, nil)
	cred, err := svc.VerifyCode(context.Background(), VerifyRequest{Email: "a@b.com", Code: "123456"})

	require.NoError(t, err)
	assert.Equal(t, "cred-token", cred)
	pr.AssertExpectations(t)
}

func TestVerifyCode_NoProfile_ReturnsNotFound(t *testing.T) {
	cs := &mockCodeStore{}
	ps := &mockProfileStore{}

	cs.On("Consume", "a@b.com", "123456").Return(memstore.ConsumeOK)
	ps.On("Update", mock.Anything, "a@b.com", mock.Anything).Return(domain.ErrNotFound)

	svc := newService(cs, ps, nil, nil, nil)
	_, err := svc.VerifyCode(context.Background(), VerifyRequest{Email: "a@b.com", Code: "123456"})

	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrNotFound))
}

func TestVerifyCode_CredentialFailure_ReturnsUpstream(t *testing.T) {
	cs := &mockCodeStore{}
	ps := &mockProfileStore{}
	pr := &mockProvider{}

	cs.On("Consume", "a@b.com", "123456").Return(memstore.ConsumeOK)
	ps.On("Update", mock.Anything, "a@b.com", mock.Anything).Return(nil)
	pr.On("GetBySubject", mock.Anything, "a@b.com").Return(&domain.Identity{ID: "uid-1"}, nil)
	pr.On("IssueCredential", mock.Anything, "uid-1").Return("", errors.New("provider 500"))

	svc := newService(cs, ps, pr, nil, nil)
	_, err := svc.VerifyCode(context.Background(), VerifyRequest{Email: "a@b.com", Code: "123456"})

	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrUpstream))
}
