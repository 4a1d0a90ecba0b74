package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"
)

const sessionCookieName = "auth_token"

// apiClient talks to the ConnectCoach API and persists the session cookie
type apiClient struct {
	baseURL     string
	sessionPath string
	http        *http.Client
}

func newAPIClient(baseURL, sessionPath string) *apiClient {
	return &apiClient{
		baseURL:     strings.TrimRight(baseURL, "/"),
		sessionPath: sessionPath,
		http:        &http.Client{Timeout: 90 * time.Second},
	}
}

// apiError is a non-2xx response
type apiError struct {
	Status  int
	Message string
}

func (e *apiError) Error() string {
	return fmt.Sprintf("%s (HTTP %d)", e.Message, e.Status)
}

// do sends body as JSON and decodes a 2xx response into out. The session
// cookie is attached when one is saved, and replaced when the server sets one.
func (c *apiClient) do(method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequest(method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token := c.loadSession(); token != "" {
		req.AddCookie(&http.Cookie{Name: sessionCookieName, Value: token})
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	for _, ck := range resp.Cookies() {
		if ck.Name != sessionCookieName {
			continue
		}
		if ck.Value == "" || ck.MaxAge < 0 {
			c.clearSession()
		} else if err := c.saveSession(ck.Value); err != nil {
			return fmt.Errorf("failed to save session: %w", err)
		}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var e struct {
			Error string `json:"error"`
		}
		if json.NewDecoder(resp.Body).Decode(&e) != nil || e.Error == "" {
			e.Error = http.StatusText(resp.StatusCode)
		}
		return &apiError{Status: resp.StatusCode, Message: e.Error}
	}

	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func (c *apiClient) loadSession() string {
	data, err := os.ReadFile(c.sessionPath)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(data))
}

func (c *apiClient) saveSession(token string) error {
	if err := os.MkdirAll(filepath.Dir(c.sessionPath), 0o700); err != nil {
		return err
	}
	return os.WriteFile(c.sessionPath, []byte(token), 0o600)
}

func (c *apiClient) clearSession() {
	os.Remove(c.sessionPath)
}

type user struct {
	ID        int64     `json:"id"`
	Email     string    `json:"email"`
	IsAdmin   bool      `json:"isAdmin"`
	IsActive  bool      `json:"isActive"`
	CreatedAt time.Time `json:"createdAt"`
}

type userEnvelope struct {
	User user `json:"user"`
}

type message struct {
	Message string `json:"message"`
}

func (c *apiClient) signup(email, password, invite string) (*user, error) {
	var out userEnvelope
	err := c.do(http.MethodPost, "/api/auth/signup", map[string]string{
		"email": email, "password": password, "inviteCode": invite,
	}, &out)
	return &out.User, err
}

func (c *apiClient) login(email, password string) (*user, error) {
	var out userEnvelope
	err := c.do(http.MethodPost, "/api/auth/login", map[string]string{
		"email": email, "password": password,
	}, &out)
	return &out.User, err
}

func (c *apiClient) logout() error {
	err := c.do(http.MethodPost, "/api/auth/logout", nil, nil)
	c.clearSession()
	return err
}

func (c *apiClient) me() (*user, error) {
	var out userEnvelope
	err := c.do(http.MethodGet, "/api/auth/me", nil, &out)
	return &out.User, err
}

type invite struct {
	InviteCode string `json:"inviteCode"`
	InviteURL  string `json:"inviteUrl"`
}

func (c *apiClient) createInvite() (*invite, error) {
	var out invite
	err := c.do(http.MethodPost, "/api/auth/admin/invite", nil, &out)
	return &out, err
}

func (c *apiClient) listUsers() ([]user, error) {
	var out struct {
		Users []user `json:"users"`
	}
	err := c.do(http.MethodGet, "/api/auth/admin/users", nil, &out)
	return out.Users, err
}

func (c *apiClient) setActive(id string, active bool) (string, error) {
	action := "deactivate"
	if active {
		action = "activate"
	}
	var out message
	err := c.do(http.MethodPost, "/api/auth/admin/users/"+id+"/"+action, nil, &out)
	return out.Message, err
}

type feedbackRequest struct {
	Content    string `json:"content"`
	ToolType   string `json:"toolType"`
	VoiceGuide string `json:"voiceGuide,omitempty"`
	WeekGuide  string `json:"weekGuide,omitempty"`
}

func (c *apiClient) feedback(req feedbackRequest) (string, error) {
	var out struct {
		Feedback string `json:"feedback"`
	}
	err := c.do(http.MethodPost, "/api/feedback", req, &out)
	return out.Feedback, err
}

type foundation struct {
	VoiceGuide           string `json:"voiceGuide"`
	TargetAudience       string `json:"targetAudience"`
	AudiencePainPoints   string `json:"audiencePainPoints"`
	UniquePositioning    string `json:"uniquePositioning"`
	AudienceObservations string `json:"audienceObservations"`
	OfferDescription     string `json:"offerDescription"`
}

func (c *apiClient) getFoundation() (*foundation, error) {
	var out struct {
		Foundation *foundation `json:"foundation"`
	}
	err := c.do(http.MethodGet, "/api/foundation", nil, &out)
	return out.Foundation, err
}

func (c *apiClient) saveFoundation(f foundation) (string, error) {
	var out message
	err := c.do(http.MethodPost, "/api/foundation", f, &out)
	return out.Message, err
}
