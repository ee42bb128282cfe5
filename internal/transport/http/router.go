package http

import (
	"net/http"

	"github.com/go-auth-gateway/internal/application/account"
	"github.com/go-auth-gateway/internal/application/auth"
	"github.com/go-auth-gateway/internal/application/otp"
	"github.com/go-auth-gateway/internal/config"
	"github.com/go-auth-gateway/internal/transport/http/handler"
	appmiddleware "github.com/go-auth-gateway/internal/transport/http/middleware"
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"golang.org/x/time/rate"
)

// NewRouter builds and returns the application router.
func NewRouter(cfg *config.Config, deps *Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.RequestID)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	var authMw func(http.Handler) http.Handler
	if deps.JWTProvider != nil {
		authMw = appmiddleware.Auth(deps.JWTProvider)
	} else {
		authMw = func(next http.Handler) http.Handler { return next }
	}

	// 5 requests/second, burst of 10 — applied to sensitive public endpoints.
	sensitiveRL := appmiddleware.NewRateLimiter(rate.Limit(5), 10)

	otpSvc := otp.NewService(otp.ServiceDeps{
		CodeStore:   deps.OtpStore,
		ProfileRepo: deps.ProfileRepo,
		Provider:    deps.Identity,
		Mailer:      deps.Mailer,
		SMSSender:   deps.SMSSender,
		CodeTTL:     cfg.OtpTTL,
	})
	authSvc := auth.NewService(auth.ServiceDeps{
		ProfileRepo: deps.ProfileRepo,
		Provider:    deps.Identity,
		Signer:      deps.JWTProvider,
	})
	accountSvc := account.NewService(account.ServiceDeps{
		ProfileRepo: deps.ProfileRepo,
		Provider:    deps.Identity,
		Mailer:      deps.Mailer,
	})

	healthH := handler.NewHealthHandler()
	otpH := handler.NewOtpHandler(otpSvc)
	authH := handler.NewAuthHandler(authSvc)
	accountH := handler.NewAccountHandler(accountSvc)

	r.Route("/v1", func(r chi.Router) {
		// ── Public routes (no auth) ──────────────────────────────────────────
		r.Get("/health-check/{action}", healthH.Ping)
		r.Post("/health-check/{action}", healthH.Ping)

		r.With(sensitiveRL.Limit).Post("/auth/register", accountH.Register)
		r.With(sensitiveRL.Limit).Post("/auth/login", authH.Login)
		r.Post("/auth/verify-email", authH.VerifyEmail)
		r.Post("/auth/send-verification-link", accountH.SendVerificationLink)
		r.With(sensitiveRL.Limit).Post("/auth/forgot-password", accountH.ForgotPassword)
		r.Post("/auth/reset-password", accountH.ResetPassword)

		r.With(sensitiveRL.Limit).Post("/otp/request", otpH.Request)
		r.With(sensitiveRL.Limit).Post("/otp/resend", otpH.Resend)
		r.With(sensitiveRL.Limit).Post("/otp/verify", otpH.Verify)

		// ── Authenticated routes ─────────────────────────────────────────────
		r.Group(func(r chi.Router) {
			r.Use(authMw)
			r.Get("/profile", authH.Profile)
		})
	})

	return r
}
