package controllers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/agricorus/agricorus-backend/internal/auth"
	"github.com/agricorus/agricorus-backend/internal/users"
	"github.com/agricorus/agricorus-backend/pkg/config"
	"github.com/agricorus/agricorus-backend/pkg/enums"
	pkgerrors "github.com/agricorus/agricorus-backend/pkg/errors"
)

type stubAdminRegisterService struct {
	user *users.UserDTO
	err  error
}

func (s stubAdminRegisterService) Register(ctx context.Context, req auth.AdminRegisterRequest) (*users.UserDTO, error) {
	return s.user, s.err
}

type stubAuthService struct {
	resp      *auth.LoginResponse
	adminResp *auth.LoginResponse
	err       error
}

func (s stubAuthService) Login(ctx context.Context, req auth.LoginRequest) (*auth.LoginResponse, error) {
	return s.resp, s.err
}

func (s stubAuthService) AdminLogin(ctx context.Context, req auth.LoginRequest) (*auth.LoginResponse, error) {
	return s.adminResp, s.err
}

func (s stubAuthService) Refresh(ctx context.Context, req auth.RefreshRequest) (*auth.RefreshResponse, error) {
	return nil, s.err
}

func (s stubAuthService) Logout(ctx context.Context, accessID string) error {
	return s.err
}

func testUserDTO(role enums.UserRole) *users.UserDTO {
	return &users.UserDTO{
		ID:        uuid.New(),
		Email:     "admin@example.com",
		Name:      "Asha Admin",
		Role:      role,
		IsActive:  true,
		CreatedAt: time.Now().UTC(),
		UpdatedAt: time.Now().UTC(),
	}
}

func TestAuthLoginSuccess(t *testing.T) {
	resp := &auth.LoginResponse{
		AccessToken:  "access-token",
		RefreshToken: "refresh-token",
		User:         testUserDTO(enums.UserRoleFarmer),
	}
	handler := AuthLogin(stubAuthService{resp: resp}, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", bytes.NewReader([]byte(`{"email":"farmer@example.com","password":"Secret#1"}`)))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", rec.Code)
	}
	if got := rec.Header().Get("X-AC-Token"); got != "access-token" {
		t.Fatalf("expected token header set, got %q", got)
	}

	var envelope struct {
		Data struct {
			AccessToken string         `json:"access_token"`
			User        *users.UserDTO `json:"user"`
		} `json:"data"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if envelope.Data.User == nil || envelope.Data.User.Email != resp.User.Email {
		t.Fatalf("expected user in payload got %+v", envelope.Data.User)
	}
}

func TestAuthLoginPropagatesError(t *testing.T) {
	handler := AuthLogin(stubAuthService{err: pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid credentials")}, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", bytes.NewReader([]byte(`{"email":"farmer@example.com","password":"wrong-pass"}`)))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", rec.Code)
	}
}

func TestAdminAuthRegisterSuccess(t *testing.T) {
	cfg := &config.Config{App: config.AppConfig{Env: "dev", Port: "0"}}
	user := testUserDTO(enums.UserRoleAdmin)

	handler := AdminAuthRegister(
		stubAdminRegisterService{user: user},
		stubAuthService{adminResp: &auth.LoginResponse{
			AccessToken:  "access-token",
			RefreshToken: "refresh-token",
			User:         user,
		}},
		cfg,
		nil,
	)

	req := httptest.NewRequest(http.MethodPost, "/api/admin/v1/auth/register", bytes.NewReader([]byte(`{"name":"Asha Admin","email":"admin@example.com","password":"Secret#123"}`)))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201 got %d", rec.Code)
	}
	if got := rec.Header().Get("X-AC-Token"); got != "access-token" {
		t.Fatalf("expected token header set, got %q", got)
	}

	var envelope struct {
		Data struct {
			User *users.UserDTO `json:"user"`
		} `json:"data"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if envelope.Data.User == nil || envelope.Data.User.Email != user.Email {
		t.Fatalf("expected user in payload got %+v", envelope.Data.User)
	}
}

func TestAdminAuthRegisterInvalidPayload(t *testing.T) {
	cfg := &config.Config{App: config.AppConfig{Env: "dev", Port: "0"}}
	handler := AdminAuthRegister(stubAdminRegisterService{}, stubAuthService{}, cfg, nil)
	req := httptest.NewRequest(http.MethodPost, "/api/admin/v1/auth/register", bytes.NewReader([]byte(`{"password":"Secret#123"}`)))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", rec.Code)
	}
}

func TestAdminAuthRegisterDisabledInProd(t *testing.T) {
	cfg := &config.Config{App: config.AppConfig{Env: "prod", Port: "0"}}
	handler := AdminAuthRegister(nil, nil, cfg, nil)
	req := httptest.NewRequest(http.MethodPost, "/api/admin/v1/auth/register", bytes.NewReader([]byte(`{"name":"Asha Admin","email":"admin@example.com","password":"Secret#123"}`)))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403 got %d", rec.Code)
	}
}
