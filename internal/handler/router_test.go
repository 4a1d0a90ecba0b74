package handler

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aryan0dhankhar/connectcoach/internal/llm"
	"github.com/aryan0dhankhar/connectcoach/internal/repository"
	"github.com/aryan0dhankhar/connectcoach/internal/security/auth"
	"github.com/aryan0dhankhar/connectcoach/internal/service"
	"github.com/aryan0dhankhar/connectcoach/pkg/cache"
)

var quiet = slog.New(slog.NewTextHandler(io.Discard, nil))

type stubProvider struct {
	text string
	err  error
}

func (p *stubProvider) Complete(context.Context, llm.Request) (*llm.Response, error) {
	if p.err != nil {
		return nil, p.err
	}
	return &llm.Response{Content: []llm.ContentBlock{{Type: llm.ContentText, Text: p.text}}}, nil
}

type stubPinger struct{ err error }

func (p stubPinger) Ping(context.Context) error { return p.err }

type testAPI struct {
	t        *testing.T
	handler  http.Handler
	auth     *service.AuthService
	provider *stubProvider
	adminJar []*http.Cookie
}

type apiOptions struct {
	enforceActive bool
	redis         Pinger
}

func newTestAPI(t *testing.T, opts apiOptions) *testAPI {
	t.Helper()

	store := repository.NewMemoryStore()
	tokens, err := auth.NewTokenManager("handler-test-secret", "", quiet)
	require.NoError(t, err)

	authService := service.NewAuthService(store, tokens, nil, quiet)
	foundations := service.NewFoundationService(store, cache.New(), time.Minute, nil, quiet)
	provider := &stubProvider{text: "Nice hook."}
	feedback := service.NewFeedbackService(store, foundations, provider, nil, service.FeedbackOptions{Model: "m"}, nil, quiet)

	mux := NewRouter(Routes{
		Auth:          NewAuthHandler(authService, tokens, false, quiet),
		Admin:         NewAdminHandler(authService, "https://coach.example.com/", quiet),
		Feedback:      NewFeedbackHandler(feedback, quiet),
		Foundation:    NewFoundationHandler(foundations, quiet),
		Tools:         NewToolsHandler(),
		Health:        NewHealthHandler(store, opts.redis, quiet),
		Tokens:        tokens,
		Users:         store.Users(),
		EnforceActive: opts.enforceActive,
		Logger:        quiet,
	})

	require.NoError(t, authService.EnsureAdmin(context.Background(), "admin@x.com", "admin-password"))
	api := &testAPI{t: t, handler: mux, auth: authService, provider: provider}
	rec := api.do(http.MethodPost, "/api/auth/login", `{"email":"admin@x.com","password":"admin-password"}`, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	api.adminJar = rec.Result().Cookies()
	return api
}

func (a *testAPI) do(method, path, body string, cookies []*http.Cookie) *httptest.ResponseRecorder {
	a.t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, r)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	for _, c := range cookies {
		req.AddCookie(c)
	}
	rec := httptest.NewRecorder()
	a.handler.ServeHTTP(rec, req)
	return rec
}

func (a *testAPI) invite() string {
	a.t.Helper()
	rec := a.do(http.MethodPost, "/api/auth/admin/invite", "", a.adminJar)
	require.Equal(a.t, http.StatusOK, rec.Code, rec.Body.String())
	var resp InviteResponse
	require.NoError(a.t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp.InviteCode
}

func (a *testAPI) signup(email, code string) *httptest.ResponseRecorder {
	a.t.Helper()
	return a.do(http.MethodPost, "/api/auth/signup",
		`{"email":"`+email+`","password":"pw123456","inviteCode":"`+code+`"}`, nil)
}

func errorOf(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp), rec.Body.String())
	return resp.Error
}

func sessionCookie(cookies []*http.Cookie) *http.Cookie {
	for _, c := range cookies {
		if c.Name == auth.SessionCookieName {
			return c
		}
	}
	return nil
}

func TestSignupFlow(t *testing.T) {
	api := newTestAPI(t, apiOptions{})
	code := api.invite()

	rec := api.signup("a@x.com", code)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp UserEnvelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "a@x.com", resp.User.Email)
	assert.False(t, resp.User.IsAdmin)
	assert.NotZero(t, resp.User.ID)

	cookie := sessionCookie(rec.Result().Cookies())
	require.NotNil(t, cookie)
	assert.True(t, cookie.HttpOnly)
	assert.NotEmpty(t, cookie.Value)
	assert.NotContains(t, rec.Body.String(), "password")

	rec = api.signup("a@x.com", code)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Invalid or already used invite code", errorOf(t, rec))

	rec = api.signup("a@x.com", api.invite())
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Email already registered", errorOf(t, rec))

	rec = api.do(http.MethodPost, "/api/auth/signup", `{"email":"b@x.com"}`, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Email, password, and invite code required", errorOf(t, rec))

	rec = api.do(http.MethodGet, "/api/auth/me", "", []*http.Cookie{cookie})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"email":"a@x.com"`)
}

func TestLoginErrors(t *testing.T) {
	api := newTestAPI(t, apiOptions{})
	rec := api.signup("a@x.com", api.invite())
	require.Equal(t, http.StatusOK, rec.Code)

	rec = api.do(http.MethodPost, "/api/auth/login", `{"email":"a@x.com","password":"wrong-pass"}`, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "Invalid credentials", errorOf(t, rec))

	rec = api.do(http.MethodPost, "/api/auth/login", `{"email":"ghost@x.com","password":"pw123456"}`, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "Invalid credentials", errorOf(t, rec))

	rec = api.do(http.MethodPost, "/api/auth/login", `{"email":"a@x.com"}`, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Email and password required", errorOf(t, rec))

	rec = api.do(http.MethodPost, "/api/auth/admin/users/2/deactivate", "", api.adminJar)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = api.do(http.MethodPost, "/api/auth/login", `{"email":"a@x.com","password":"pw123456"}`, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "Account deactivated", errorOf(t, rec))
}

func TestFeedbackRequiresSessionAndFields(t *testing.T) {
	api := newTestAPI(t, apiOptions{})

	rec := api.do(http.MethodPost, "/api/feedback", `{"content":"x","toolType":"socialPost"}`, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "Authentication required", errorOf(t, rec))

	rec = api.do(http.MethodPost, "/api/feedback", `{"content":"x","toolType":"socialPost"}`,
		[]*http.Cookie{{Name: auth.SessionCookieName, Value: "garbage"}})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "Invalid or expired token", errorOf(t, rec))

	rec = api.signup("a@x.com", api.invite())
	jar := rec.Result().Cookies()

	rec = api.do(http.MethodPost, "/api/feedback", `{"toolType":"socialPost"}`, jar)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Missing required fields: content and toolType", errorOf(t, rec))

	rec = api.do(http.MethodPost, "/api/feedback", `{"content":"my post","toolType":"socialPost"}`, jar)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var resp FeedbackResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "Nice hook.", resp.Feedback)

	api.provider.err = errors.New("upstream exploded: sk-secret")
	rec = api.do(http.MethodPost, "/api/feedback", `{"content":"my post","toolType":"socialPost"}`, jar)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "Failed to generate feedback", errorOf(t, rec))
	assert.NotContains(t, rec.Body.String(), "sk-secret")
}

func TestAdminRoutes(t *testing.T) {
	api := newTestAPI(t, apiOptions{})

	rec := api.do(http.MethodPost, "/api/auth/admin/invite", "", api.adminJar)
	require.Equal(t, http.StatusOK, rec.Code)
	var invite InviteResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &invite))
	assert.Len(t, invite.InviteCode, 32)
	assert.Equal(t, "https://coach.example.com/signup?invite="+invite.InviteCode, invite.InviteURL)

	rec = api.signup("member@x.com", invite.InviteCode)
	memberJar := rec.Result().Cookies()

	rec = api.do(http.MethodPost, "/api/auth/admin/invite", "", memberJar)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "Admin access required", errorOf(t, rec))

	rec = api.do(http.MethodGet, "/api/auth/admin/users", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = api.do(http.MethodGet, "/api/auth/admin/users", "", api.adminJar)
	require.Equal(t, http.StatusOK, rec.Code)
	var users UsersResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &users))
	require.Len(t, users.Users, 2)
	assert.True(t, users.Users[0].IsAdmin)
	assert.True(t, users.Users[1].IsActive)
	assert.NotContains(t, rec.Body.String(), "$2a$")

	rec = api.do(http.MethodPost, "/api/auth/admin/users/abc/activate", "", api.adminJar)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Invalid user id", errorOf(t, rec))

	rec = api.do(http.MethodPost, "/api/auth/admin/users/999/deactivate", "", api.adminJar)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "User not found", errorOf(t, rec))

	rec = api.do(http.MethodPost, "/api/auth/admin/users/2/deactivate", "", api.adminJar)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"message":"User deactivated"}`, rec.Body.String())

	rec = api.do(http.MethodPost, "/api/auth/admin/users/2/activate", "", api.adminJar)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"message":"User activated"}`, rec.Body.String())
}

func TestInviteURLFallsBackToRequestHost(t *testing.T) {
	api := newTestAPI(t, apiOptions{})
	h := NewAdminHandler(api.auth, "", quiet)

	req := httptest.NewRequest(http.MethodPost, "/api/auth/admin/invite", nil)
	req.Host = "localhost:5000"
	rec := httptest.NewRecorder()
	h.CreateInvite(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var invite InviteResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &invite))
	assert.Equal(t, "http://localhost:5000/signup?invite="+invite.InviteCode, invite.InviteURL)
}

// Deactivation does not revoke sessions that were already issued; only the
// opt-in active check closes that gap.
func TestDeactivatedSessionStillVerifies(t *testing.T) {
	for _, tc := range []struct {
		name    string
		enforce bool
		want    int
	}{
		{"default", false, http.StatusOK},
		{"enforced", true, http.StatusForbidden},
	} {
		t.Run(tc.name, func(t *testing.T) {
			api := newTestAPI(t, apiOptions{enforceActive: tc.enforce})
			rec := api.signup("a@x.com", api.invite())
			require.Equal(t, http.StatusOK, rec.Code)
			jar := rec.Result().Cookies()

			rec = api.do(http.MethodPost, "/api/auth/admin/users/2/deactivate", "", api.adminJar)
			require.Equal(t, http.StatusOK, rec.Code)

			rec = api.do(http.MethodGet, "/api/auth/me", "", jar)
			assert.Equal(t, tc.want, rec.Code)

			rec = api.do(http.MethodPost, "/api/feedback", `{"content":"c","toolType":"socialPost"}`, jar)
			assert.Equal(t, tc.want, rec.Code)
		})
	}
}

func TestFoundationRoutes(t *testing.T) {
	api := newTestAPI(t, apiOptions{})
	jar := api.signup("a@x.com", api.invite()).Result().Cookies()

	rec := api.do(http.MethodGet, "/api/foundation", "", jar)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"foundation":null}`, rec.Body.String())

	rec = api.do(http.MethodPost, "/api/foundation", `{"voiceGuide":"warm","targetAudience":"coaches"}`, jar)
	require.Equal(t, http.StatusOK, rec.Code)
	var saved FoundationEnvelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &saved))
	assert.Equal(t, "Foundation saved successfully", saved.Message)
	require.NotNil(t, saved.Foundation)
	assert.Equal(t, "warm", saved.Foundation.VoiceGuide)

	rec = api.do(http.MethodPost, "/api/foundation", `{"offerDescription":"course"}`, jar)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = api.do(http.MethodGet, "/api/foundation", "", jar)
	require.Equal(t, http.StatusOK, rec.Code)
	var got FoundationEnvelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	require.NotNil(t, got.Foundation)
	assert.Equal(t, saved.Foundation.ID, got.Foundation.ID)
	assert.Equal(t, "course", got.Foundation.OfferDescription)
	assert.Empty(t, got.Foundation.VoiceGuide)

	rec = api.do(http.MethodGet, "/api/foundation", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestLogoutClearsCookie(t *testing.T) {
	api := newTestAPI(t, apiOptions{})

	rec := api.do(http.MethodPost, "/api/auth/logout", "", api.adminJar)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"message":"Logged out successfully"}`, rec.Body.String())

	cookie := sessionCookie(rec.Result().Cookies())
	require.NotNil(t, cookie)
	assert.Empty(t, cookie.Value)
	assert.Negative(t, cookie.MaxAge)

	rec = api.do(http.MethodPost, "/api/auth/logout", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestToolsAndHealth(t *testing.T) {
	api := newTestAPI(t, apiOptions{})

	rec := api.do(http.MethodGet, "/api/tools", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var tools struct {
		Tools []ToolResponse `json:"tools"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &tools))
	require.Len(t, tools.Tools, 12)
	assert.Equal(t, "contentCritique", tools.Tools[0].ID)

	rec = api.do(http.MethodGet, "/healthz", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = api.do(http.MethodGet, "/readyz", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"redis":"not configured"`)

	down := newTestAPI(t, apiOptions{redis: stubPinger{err: errors.New("dial tcp: refused")}})
	rec = down.do(http.MethodGet, "/readyz", "", nil)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), `"redis":"error"`)
	assert.NotContains(t, rec.Body.String(), "refused")
}
