package http

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"

	"github.com/CodeReveur/vet-connect-sub001/internal/modules/credential/domain"
	"github.com/CodeReveur/vet-connect-sub001/internal/modules/credential/infra"
	phttp "github.com/CodeReveur/vet-connect-sub001/internal/platform/http"
	"github.com/CodeReveur/vet-connect-sub001/internal/platform/security"
)

type recordingNotifier struct {
	mu     sync.Mutex
	resets []string
	otps   []string
}

func (n *recordingNotifier) SendResetNotice(_ context.Context, _, token, _ string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.resets = append(n.resets, token)
	return nil
}

func (n *recordingNotifier) SendVerificationNotice(_ context.Context, _, _, _ string) error {
	return nil
}

func (n *recordingNotifier) SendOTPNotice(_ context.Context, _, code, _ string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.otps = append(n.otps, code)
	return nil
}

func newTestApp(t *testing.T) (*fiber.App, *recordingNotifier) {
	t.Helper()
	spy := &recordingNotifier{}
	module := NewModule(spy)

	dir, ok := module.dir.(*infra.MemDirectory)
	require.True(t, ok)
	digest, err := security.HashSecret("hunter2hunter2")
	require.NoError(t, err)
	dir.Add(domain.Principal{
		Email:            "ana@clinic.example",
		DisplayName:      "Ana",
		Role:             domain.RolePetOwner,
		CredentialDigest: &digest,
	})

	return phttp.NewServer(phttp.Options{AppName: "vet-connect-test"}, module), spy
}

func postJSON(t *testing.T, app *fiber.App, path string, body any) *http.Response {
	t.Helper()
	b, err := json.Marshal(body)
	require.NoError(t, err)
	req := httptest.NewRequest("POST", path, bytes.NewReader(b))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	return resp
}

func decode(t *testing.T, resp *http.Response) map[string]any {
	t.Helper()
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	var out map[string]any
	require.NoError(t, json.Unmarshal(raw, &out))
	return out
}

func sessionCookie(resp *http.Response) *http.Cookie {
	for _, c := range resp.Cookies() {
		if c.Name == SessionCookie {
			return c
		}
	}
	return nil
}

func TestLoginSetsSessionCookie(t *testing.T) {
	app, _ := newTestApp(t)

	resp := postJSON(t, app, "/api/v1/login", map[string]string{
		"email": "ana@clinic.example", "password": "hunter2hunter2",
	})
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	ck := sessionCookie(resp)
	require.NotNil(t, ck)
	require.NotEmpty(t, ck.Value)
	require.True(t, ck.HttpOnly)
	require.True(t, ck.Secure)
	require.False(t, ck.Expires.IsZero())

	body := decode(t, resp)
	principal := body["principal"].(map[string]any)
	require.Equal(t, "ana@clinic.example", principal["email"])
	_, leaked := principal["credential_digest"]
	require.False(t, leaked)
}

func TestLoginFailureUniformPayload(t *testing.T) {
	app, _ := newTestApp(t)

	wrongPw := postJSON(t, app, "/api/v1/login", map[string]string{
		"email": "ana@clinic.example", "password": "wrong-password",
	})
	noUser := postJSON(t, app, "/api/v1/login", map[string]string{
		"email": "ghost@clinic.example", "password": "hunter2hunter2",
	})

	require.Equal(t, fiber.StatusBadRequest, wrongPw.StatusCode)
	require.Equal(t, fiber.StatusBadRequest, noUser.StatusCode)
	require.Equal(t, decode(t, wrongPw), decode(t, noUser))
}

func TestMeRequiresSession(t *testing.T) {
	app, _ := newTestApp(t)

	req := httptest.NewRequest("GET", "/api/v1/me", nil)
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)

	login := postJSON(t, app, "/api/v1/login", map[string]string{
		"email": "ana@clinic.example", "password": "hunter2hunter2",
	})
	ck := sessionCookie(login)
	require.NotNil(t, ck)

	req = httptest.NewRequest("GET", "/api/v1/me", nil)
	req.AddCookie(ck)
	resp, err = app.Test(req, -1)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	require.Equal(t, "ana@clinic.example", decode(t, resp)["email"])
}

func TestLogoutRevokesSession(t *testing.T) {
	app, _ := newTestApp(t)

	login := postJSON(t, app, "/api/v1/login", map[string]string{
		"email": "ana@clinic.example", "password": "hunter2hunter2",
	})
	ck := sessionCookie(login)
	require.NotNil(t, ck)

	req := httptest.NewRequest("POST", "/api/v1/logout", nil)
	req.AddCookie(ck)
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	// session is gone
	req = httptest.NewRequest("GET", "/api/v1/me", nil)
	req.AddCookie(ck)
	resp, err = app.Test(req, -1)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)

	// logging out again is still 200
	req = httptest.NewRequest("POST", "/api/v1/logout", nil)
	req.AddCookie(ck)
	resp, err = app.Test(req, -1)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
}

func TestPasswordResetOverHTTP(t *testing.T) {
	app, spy := newTestApp(t)

	ack := postJSON(t, app, "/api/v1/forgot-password", map[string]string{"email": "ana@clinic.example"})
	require.Equal(t, fiber.StatusOK, ack.StatusCode)

	ghost := postJSON(t, app, "/api/v1/forgot-password", map[string]string{"email": "ghost@clinic.example"})
	require.Equal(t, fiber.StatusOK, ghost.StatusCode)
	require.Equal(t, decode(t, ack), decode(t, ghost))

	require.Len(t, spy.resets, 1)
	token := spy.resets[0]

	reset := postJSON(t, app, "/api/v1/reset-password", map[string]string{
		"token": token, "new_password": "brand-new-pass-9",
	})
	require.Equal(t, fiber.StatusOK, reset.StatusCode)

	// token is single use
	again := postJSON(t, app, "/api/v1/reset-password", map[string]string{
		"token": token, "new_password": "brand-new-pass-9",
	})
	require.Equal(t, fiber.StatusBadRequest, again.StatusCode)
	require.Equal(t, "INVALID_TOKEN", decode(t, again)["error_code"])

	// the new password signs in
	login := postJSON(t, app, "/api/v1/login", map[string]string{
		"email": "ana@clinic.example", "password": "brand-new-pass-9",
	})
	require.Equal(t, fiber.StatusOK, login.StatusCode)
}

func TestOTPConfirmOverHTTP(t *testing.T) {
	app, spy := newTestApp(t)

	sent := postJSON(t, app, "/api/v1/otp", map[string]string{"email": "ana@clinic.example"})
	require.Equal(t, fiber.StatusOK, sent.StatusCode)
	require.Len(t, spy.otps, 1)

	confirm := postJSON(t, app, "/api/v1/otp/confirm", map[string]string{
		"email": "ana@clinic.example", "code": spy.otps[0],
	})
	require.Equal(t, fiber.StatusOK, confirm.StatusCode)
	require.NotNil(t, sessionCookie(confirm))

	unknown := postJSON(t, app, "/api/v1/otp", map[string]string{"email": "ghost@clinic.example"})
	require.Equal(t, fiber.StatusNotFound, unknown.StatusCode)
}
