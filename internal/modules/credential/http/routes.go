package http

import (
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/CodeReveur/vet-connect-sub001/internal/modules/credential/domain"
	"github.com/CodeReveur/vet-connect-sub001/internal/modules/credential/infra"
	pg "github.com/CodeReveur/vet-connect-sub001/internal/modules/credential/infra/pg"
	"github.com/CodeReveur/vet-connect-sub001/internal/modules/credential/service"
)

// SessionCookie carries the opaque session token. Secure, http-only,
// SameSite=Strict; its expiry mirrors the stored record's expires_at.
const SessionCookie = "vc_session"

var validate = validator.New()

// Module wires up dependencies for the credential HTTP module.
type Module struct {
	dir    domain.PrincipalDirectory
	tokens domain.TokenStore

	lifecycle *service.Lifecycle
	validator *service.Validator
}

// NewModule builds an in-memory module for dev and tests.
func NewModule(notify service.Notifier) *Module {
	dir := infra.NewMemDirectory()
	tokens := infra.NewMemTokenStore()
	return &Module{
		dir:       dir,
		tokens:    tokens,
		lifecycle: service.NewLifecycle(dir, tokens, notify),
		validator: service.NewValidator(dir, tokens),
	}
}

// NewModulePG creates PG-backed stores.
func NewModulePG(db *pgxpool.Pool, notify service.Notifier) *Module {
	dir := pg.NewPrincipalRepo(db)
	tokens := pg.NewTokenStore(db)
	return &Module{
		dir:       dir,
		tokens:    tokens,
		lifecycle: service.NewLifecycle(dir, tokens, notify),
		validator: service.NewValidator(dir, tokens),
	}
}

// TokenStore exposes the store for the background sweeper.
func (m *Module) TokenStore() domain.TokenStore { return m.tokens }

func (m *Module) Register(r fiber.Router) {
	// -------- public --------
	r.Post("/login", LoginHandler(m.lifecycle))
	r.Post("/logout", LogoutHandler(m.lifecycle))
	r.Post("/forgot-password", ForgotPasswordHandler(m.lifecycle))
	r.Post("/reset-password", ResetPasswordHandler(m.lifecycle))
	r.Post("/otp", RequestOTPHandler(m.lifecycle))
	r.Post("/otp/confirm", ConfirmOTPHandler(m.lifecycle))
	r.Post("/verify-email", RequestVerificationHandler(m.lifecycle))
	r.Post("/verify-email/confirm", ConfirmVerificationHandler(m.lifecycle))

	// -------- protected --------
	protected := r.Group("", SessionAuth(m.validator))
	protected.Get("/me", MeHandler())
}

func setSessionCookie(c *fiber.Ctx, s *service.Session) {
	c.Cookie(&fiber.Cookie{
		Name:     SessionCookie,
		Value:    s.Token,
		Expires:  s.ExpiresAt,
		Secure:   true,
		HTTPOnly: true,
		SameSite: fiber.CookieSameSiteStrictMode,
	})
}

func clearSessionCookie(c *fiber.Ctx) {
	c.Cookie(&fiber.Cookie{
		Name:     SessionCookie,
		Value:    "",
		Expires:  time.Now().Add(-time.Hour),
		Secure:   true,
		HTTPOnly: true,
		SameSite: fiber.CookieSameSiteStrictMode,
	})
}

// presentedToken prefers the session cookie, falling back to a bearer header
// for non-browser clients.
func presentedToken(c *fiber.Ctx) string {
	if v := c.Cookies(SessionCookie); v != "" {
		return v
	}
	h := c.Get("Authorization")
	const prefix = "Bearer "
	if len(h) > len(prefix) && h[:len(prefix)] == prefix {
		return h[len(prefix):]
	}
	return ""
}

// serverError maps non-flow errors: unavailable backends surface as 503,
// everything else as a plain 500.
func serverError(c *fiber.Ctx, err error) error {
	if errors.Is(err, domain.ErrUnavailable) {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
			"error_code": "SERVICE_UNAVAILABLE",
			"message":    "Service temporarily unavailable",
		})
	}
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
		"error_code": "SERVER_ERROR",
		"message":    "Something went wrong",
	})
}

func sessionJSON(s *service.Session) fiber.Map {
	return fiber.Map{
		"message":    "Signed in",
		"expires_at": s.ExpiresAt.UTC().Format(time.RFC3339),
		"principal": fiber.Map{
			"id":             s.Principal.ID,
			"email":          s.Principal.Email,
			"display_name":   s.Principal.DisplayName,
			"role":           s.Principal.Role,
			"email_verified": s.Principal.EmailVerified,
		},
	}
}
