package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/rewear-app/exchange-api/internal/core/domain"
)

type stubAuthService struct {
	token string
	user  *domain.User
	err   error

	gotName, gotEmail, gotPassword string
}

func (s *stubAuthService) Register(_ context.Context, name, email, password string) (string, *domain.User, error) {
	s.gotName, s.gotEmail, s.gotPassword = name, email, password
	return s.token, s.user, s.err
}

func (s *stubAuthService) Login(_ context.Context, email, password string) (string, *domain.User, error) {
	s.gotEmail, s.gotPassword = email, password
	return s.token, s.user, s.err
}

func (s *stubAuthService) GetUser(_ context.Context, userID string) (*domain.User, error) {
	return s.user, s.err
}

func newTestContext(method, path, body string) (echo.Context, *httptest.ResponseRecorder) {
	e := echo.New()
	e.Validator = NewValidator()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func TestAuthHandler_Register(t *testing.T) {
	svc := &stubAuthService{
		token: "signed-token",
		user:  &domain.User{ID: "u1", Name: "dana", Email: "dana@example.com", Points: 50, Role: domain.RoleUser},
	}
	h := NewAuthHandler(svc)

	c, rec := newTestContext(http.MethodPost, "/auth/register",
		`{"name":"dana","email":"dana@example.com","password":"secret1"}`)
	if err := h.Register(c); err != nil {
		t.Fatalf("register failed: %v", err)
	}

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", rec.Code)
	}
	if svc.gotEmail != "dana@example.com" || svc.gotPassword != "secret1" {
		t.Fatalf("service called with %q / %q", svc.gotEmail, svc.gotPassword)
	}

	var resp authResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Token != "signed-token" || resp.User == nil || resp.User.ID != "u1" {
		t.Fatalf("unexpected response: %+v", resp)
	}
	if strings.Contains(rec.Body.String(), "password") {
		t.Fatal("password material leaked into response")
	}
}

func TestAuthHandler_Register_Validation(t *testing.T) {
	h := NewAuthHandler(&stubAuthService{})

	cases := map[string]string{
		"short password": `{"name":"dana","email":"dana@example.com","password":"abc"}`,
		"bad email":      `{"name":"dana","email":"not-an-email","password":"secret1"}`,
		"missing name":   `{"email":"dana@example.com","password":"secret1"}`,
		"not json":       `"just a string"`,
	}
	for name, body := range cases {
		c, _ := newTestContext(http.MethodPost, "/auth/register", body)
		err := h.Register(c)
		he, ok := err.(*echo.HTTPError)
		if !ok || he.Code != http.StatusBadRequest {
			t.Errorf("%s: expected 400, got %v", name, err)
		}
	}
}

func TestAuthHandler_Register_DuplicateEmailPassesThrough(t *testing.T) {
	h := NewAuthHandler(&stubAuthService{err: domain.ErrDuplicateEmail})

	c, _ := newTestContext(http.MethodPost, "/auth/register",
		`{"name":"dana","email":"dana@example.com","password":"secret1"}`)
	if err := h.Register(c); !errors.Is(err, domain.ErrDuplicateEmail) {
		t.Fatalf("expected ErrDuplicateEmail, got %v", err)
	}
}

func TestAuthHandler_Login(t *testing.T) {
	svc := &stubAuthService{
		token: "signed-token",
		user:  &domain.User{ID: "u1", Email: "dana@example.com"},
	}
	h := NewAuthHandler(svc)

	c, rec := newTestContext(http.MethodPost, "/auth/login",
		`{"email":"dana@example.com","password":"secret1"}`)
	if err := h.Login(c); err != nil {
		t.Fatalf("login failed: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestAuthHandler_Login_BadCredentialsPassThrough(t *testing.T) {
	h := NewAuthHandler(&stubAuthService{err: domain.ErrInvalidCredentials})

	c, _ := newTestContext(http.MethodPost, "/auth/login",
		`{"email":"dana@example.com","password":"wrong1"}`)
	if err := h.Login(c); !errors.Is(err, domain.ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
}

func TestAuthHandler_Me(t *testing.T) {
	svc := &stubAuthService{user: &domain.User{ID: "u1", Name: "dana"}}
	h := NewAuthHandler(svc)

	c, rec := newTestContext(http.MethodGet, "/auth/user", "")
	c.Set("user_id", "u1")
	c.Set("role", domain.RoleUser)

	if err := h.Me(c); err != nil {
		t.Fatalf("me failed: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var user domain.User
	if err := json.Unmarshal(rec.Body.Bytes(), &user); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if user.ID != "u1" {
		t.Fatalf("unexpected user: %+v", user)
	}
}

func TestAuthHandler_Me_NoClaims(t *testing.T) {
	h := NewAuthHandler(&stubAuthService{})

	c, _ := newTestContext(http.MethodGet, "/auth/user", "")
	err := h.Me(c)
	he, ok := err.(*echo.HTTPError)
	if !ok || he.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %v", err)
	}
}
