package http

import (
	"github.com/go-auth-gateway/internal/infrastructure/dynamo"
	"github.com/go-auth-gateway/internal/infrastructure/gip"
	jwtinfra "github.com/go-auth-gateway/internal/infrastructure/jwt"
	"github.com/go-auth-gateway/internal/infrastructure/mail"
	"github.com/go-auth-gateway/internal/infrastructure/memstore"
	"github.com/go-auth-gateway/internal/infrastructure/sns"
)

// Deps holds all infrastructure dependencies for the router.
type Deps struct {
	ProfileRepo *dynamo.ProfileRepo
	OtpStore    *memstore.OtpStore
	Identity    *gip.Client
	Mailer      mail.Mailer
	SMSSender   sns.SMSSender
	JWTProvider *jwtinfra.Provider
}
