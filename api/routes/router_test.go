package routes

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/agricorus/agricorus-backend/internal/auth"
	"github.com/agricorus/agricorus-backend/internal/disputes"
	"github.com/agricorus/agricorus-backend/internal/lands"
	"github.com/agricorus/agricorus-backend/internal/leasepayments"
	"github.com/agricorus/agricorus-backend/internal/leasing"
	"github.com/agricorus/agricorus-backend/internal/notifications"
	"github.com/agricorus/agricorus-backend/internal/payoutmethods"
	"github.com/agricorus/agricorus-backend/internal/payouts"
	"github.com/agricorus/agricorus-backend/internal/users"
	pkgAuth "github.com/agricorus/agricorus-backend/pkg/auth"
	"github.com/agricorus/agricorus-backend/pkg/auth/session"
	"github.com/agricorus/agricorus-backend/pkg/config"
	"github.com/agricorus/agricorus-backend/pkg/enums"
	"github.com/agricorus/agricorus-backend/pkg/logger"
	"github.com/agricorus/agricorus-backend/pkg/pagination"
	"github.com/agricorus/agricorus-backend/pkg/redis"
)

type stubSessionManager struct{}

func (stubSessionManager) HasSession(ctx context.Context, accessID string) (bool, error) {
	return true, nil
}

func (stubSessionManager) Rotate(ctx context.Context, oldAccessID, provided string) (string, string, error) {
	return "", "", nil
}

func (stubSessionManager) Revoke(ctx context.Context, accessID string) error {
	return nil
}

type stubAuthService struct {
	login func(ctx context.Context, req auth.LoginRequest) (*auth.LoginResponse, error)
}

func (s stubAuthService) Login(ctx context.Context, req auth.LoginRequest) (*auth.LoginResponse, error) {
	if s.login != nil {
		return s.login(ctx, req)
	}
	return &auth.LoginResponse{AccessToken: "token", RefreshToken: "refresh"}, nil
}

func (s stubAuthService) AdminLogin(ctx context.Context, req auth.LoginRequest) (*auth.LoginResponse, error) {
	return s.Login(ctx, req)
}

func (stubAuthService) Refresh(ctx context.Context, req auth.RefreshRequest) (*auth.RefreshResponse, error) {
	return &auth.RefreshResponse{}, nil
}

func (stubAuthService) Logout(ctx context.Context, accessID string) error {
	return nil
}

type stubRegisterService struct{}

func (stubRegisterService) Register(ctx context.Context, req auth.RegisterRequest) (*users.UserDTO, error) {
	return &users.UserDTO{ID: uuid.New(), Email: req.Email}, nil
}

type stubAdminRegisterService struct{}

func (stubAdminRegisterService) Register(ctx context.Context, req auth.AdminRegisterRequest) (*users.UserDTO, error) {
	return &users.UserDTO{ID: uuid.New(), Email: req.Email}, nil
}

type stubLandsService struct {
	listPublic func(ctx context.Context, input lands.ListLandsInput) (*lands.LandListResult, error)
}

func (s stubLandsService) Submit(ctx context.Context, ownerID uuid.UUID, input lands.CreateLandInput) (*lands.LandDTO, error) {
	return &lands.LandDTO{}, nil
}

func (s stubLandsService) Update(ctx context.Context, ownerID, landID uuid.UUID, input lands.UpdateLandInput) (*lands.LandDTO, error) {
	return &lands.LandDTO{}, nil
}

func (s stubLandsService) Deactivate(ctx context.Context, ownerID, landID uuid.UUID) error {
	return nil
}

func (s stubLandsService) Get(ctx context.Context, actorID uuid.UUID, actorRole enums.UserRole, landID uuid.UUID) (*lands.LandDTO, error) {
	return &lands.LandDTO{}, nil
}

func (s stubLandsService) ListPublic(ctx context.Context, input lands.ListLandsInput) (*lands.LandListResult, error) {
	if s.listPublic != nil {
		return s.listPublic(ctx, input)
	}
	return &lands.LandListResult{Items: []lands.LandDTO{}}, nil
}

func (s stubLandsService) ListMine(ctx context.Context, ownerID uuid.UUID, input lands.ListLandsInput) (*lands.LandListResult, error) {
	return &lands.LandListResult{Items: []lands.LandDTO{}}, nil
}

func (s stubLandsService) AdminList(ctx context.Context, input lands.ListLandsInput) (*lands.LandListResult, error) {
	return &lands.LandListResult{Items: []lands.LandDTO{}}, nil
}

func (s stubLandsService) AdminApprove(ctx context.Context, adminID, landID uuid.UUID) (*lands.LandDTO, error) {
	return &lands.LandDTO{}, nil
}

func (s stubLandsService) AdminReject(ctx context.Context, adminID, landID uuid.UUID, reason string) (*lands.LandDTO, error) {
	return &lands.LandDTO{}, nil
}

type stubLeasingService struct{}

func (stubLeasingService) Request(ctx context.Context, farmerID uuid.UUID, input leasing.CreateRequestInput) (*leasing.LeaseRequestDTO, error) {
	return &leasing.LeaseRequestDTO{}, nil
}

func (stubLeasingService) Cancel(ctx context.Context, farmerID, requestID uuid.UUID) (*leasing.LeaseRequestDTO, error) {
	return &leasing.LeaseRequestDTO{}, nil
}

func (stubLeasingService) Respond(ctx context.Context, ownerID, requestID uuid.UUID, decision leasing.RequestDecision) (*leasing.RespondResult, error) {
	return &leasing.RespondResult{}, nil
}

func (stubLeasingService) ListMyRequests(ctx context.Context, farmerID uuid.UUID, params pagination.Params) (*leasing.RequestListResult, error) {
	return &leasing.RequestListResult{}, nil
}

func (stubLeasingService) ListIncomingRequests(ctx context.Context, ownerID uuid.UUID, params pagination.Params) (*leasing.RequestListResult, error) {
	return &leasing.RequestListResult{}, nil
}

func (stubLeasingService) GetLease(ctx context.Context, actorID uuid.UUID, actorRole enums.UserRole, leaseID uuid.UUID) (*leasing.LeaseDTO, error) {
	return &leasing.LeaseDTO{}, nil
}

func (stubLeasingService) ListLeases(ctx context.Context, actorID uuid.UUID, actorRole enums.UserRole, input leasing.ListLeasesInput) (*leasing.LeaseListResult, error) {
	return &leasing.LeaseListResult{}, nil
}

func (stubLeasingService) Terminate(ctx context.Context, adminID, leaseID uuid.UUID, reason string) (*leasing.LeaseDTO, error) {
	return &leasing.LeaseDTO{}, nil
}

type stubPaymentsService struct{}

func (stubPaymentsService) Schedule(ctx context.Context, actorID uuid.UUID, actorRole enums.UserRole, leaseID uuid.UUID) (*leasepayments.ScheduleDTO, error) {
	return &leasepayments.ScheduleDTO{}, nil
}

func (stubPaymentsService) ListPayments(ctx context.Context, actorID uuid.UUID, actorRole enums.UserRole, leaseID uuid.UUID) ([]leasepayments.PaymentDTO, error) {
	return nil, nil
}

func (stubPaymentsService) Initiate(ctx context.Context, farmerID, leaseID uuid.UUID) (*leasepayments.InitiateResult, error) {
	return &leasepayments.InitiateResult{}, nil
}

func (stubPaymentsService) Confirm(ctx context.Context, farmerID uuid.UUID, input leasepayments.ConfirmInput) (*leasepayments.PaymentDTO, error) {
	return &leasepayments.PaymentDTO{}, nil
}

func (stubPaymentsService) SweepCompleted(ctx context.Context) (int, error) {
	return 0, nil
}

type stubPayoutsService struct{}

func (stubPayoutsService) Request(ctx context.Context, ownerID uuid.UUID, input payouts.RequestPayoutInput) (*payouts.PayoutDTO, error) {
	return &payouts.PayoutDTO{}, nil
}

func (stubPayoutsService) Cancel(ctx context.Context, ownerID, requestID uuid.UUID) (*payouts.PayoutDTO, error) {
	return &payouts.PayoutDTO{}, nil
}

func (stubPayoutsService) Get(ctx context.Context, actorID uuid.UUID, actorRole enums.UserRole, requestID uuid.UUID) (*payouts.PayoutDTO, error) {
	return &payouts.PayoutDTO{}, nil
}

func (stubPayoutsService) ListMine(ctx context.Context, ownerID uuid.UUID, input payouts.ListPayoutsInput) (*payouts.PayoutListResult, error) {
	return &payouts.PayoutListResult{}, nil
}

func (stubPayoutsService) AdminList(ctx context.Context, input payouts.ListPayoutsInput) (*payouts.PayoutListResult, error) {
	return &payouts.PayoutListResult{}, nil
}

func (stubPayoutsService) Review(ctx context.Context, adminID, requestID uuid.UUID, input payouts.ReviewInput) (*payouts.PayoutDTO, error) {
	return &payouts.PayoutDTO{}, nil
}

func (stubPayoutsService) MarkPaid(ctx context.Context, adminID, requestID uuid.UUID, settlement payouts.SettlementInput) (*payouts.PayoutDTO, error) {
	return &payouts.PayoutDTO{}, nil
}

type stubPayoutMethodsService struct{}

func (stubPayoutMethodsService) Create(ctx context.Context, userID uuid.UUID, input payoutmethods.CreateMethodInput) (*payoutmethods.MethodDTO, error) {
	return &payoutmethods.MethodDTO{}, nil
}

func (stubPayoutMethodsService) List(ctx context.Context, userID uuid.UUID) ([]payoutmethods.MethodDTO, error) {
	return nil, nil
}

func (stubPayoutMethodsService) Update(ctx context.Context, userID, methodID uuid.UUID, input payoutmethods.UpdateMethodInput) (*payoutmethods.MethodDTO, error) {
	return &payoutmethods.MethodDTO{}, nil
}

func (stubPayoutMethodsService) Delete(ctx context.Context, userID, methodID uuid.UUID) error {
	return nil
}

func (stubPayoutMethodsService) SetDefault(ctx context.Context, userID, methodID uuid.UUID) (*payoutmethods.MethodDTO, error) {
	return &payoutmethods.MethodDTO{}, nil
}

type stubDisputesService struct{}

func (stubDisputesService) Raise(ctx context.Context, actorID uuid.UUID, input disputes.RaiseDisputeInput) (*disputes.DisputeDTO, error) {
	return &disputes.DisputeDTO{}, nil
}

func (stubDisputesService) Get(ctx context.Context, actorID uuid.UUID, actorRole enums.UserRole, disputeID uuid.UUID) (*disputes.DisputeDTO, error) {
	return &disputes.DisputeDTO{}, nil
}

func (stubDisputesService) ListMine(ctx context.Context, actorID uuid.UUID, input disputes.ListDisputesInput) (*disputes.DisputeListResult, error) {
	return &disputes.DisputeListResult{}, nil
}

func (stubDisputesService) AdminList(ctx context.Context, input disputes.ListDisputesInput) (*disputes.DisputeListResult, error) {
	return &disputes.DisputeListResult{}, nil
}

func (stubDisputesService) MarkInReview(ctx context.Context, adminID, disputeID uuid.UUID) (*disputes.DisputeDTO, error) {
	return &disputes.DisputeDTO{}, nil
}

func (stubDisputesService) Resolve(ctx context.Context, adminID, disputeID uuid.UUID, input disputes.ResolveInput) (*disputes.DisputeDTO, error) {
	return &disputes.DisputeDTO{}, nil
}

type stubNotificationsService struct{}

func (stubNotificationsService) List(ctx context.Context, params notifications.ListParams) (*notifications.ListResult, error) {
	return &notifications.ListResult{}, nil
}

func (stubNotificationsService) MarkRead(ctx context.Context, userID, notificationID uuid.UUID) error {
	return nil
}

func (stubNotificationsService) MarkAllRead(ctx context.Context, userID uuid.UUID) (int64, error) {
	return 0, nil
}

func testConfig() *config.Config {
	return &config.Config{
		App: config.AppConfig{Env: "test", Port: "0"},
		JWT: config.JWTConfig{
			Secret:                 "secret",
			Issuer:                 "issuer",
			ExpirationMinutes:      60,
			RefreshTokenTTLMinutes: 120,
		},
	}
}

func testServices() Services {
	return Services{
		Auth:          stubAuthService{},
		Register:      stubRegisterService{},
		AdminRegister: stubAdminRegisterService{},
		Lands:         stubLandsService{},
		Leasing:       stubLeasingService{},
		Payments:      stubPaymentsService{},
		Payouts:       stubPayoutsService{},
		PayoutMethods: stubPayoutMethodsService{},
		Disputes:      stubDisputesService{},
		Notifications: stubNotificationsService{},
	}
}

func newTestRouter(cfg *config.Config) http.Handler {
	logg := logger.New(logger.Options{ServiceName: "test-routing", Level: logger.ParseLevel("debug"), Output: io.Discard})
	return NewRouter(cfg, logg, (*redis.Client)(nil), stubSessionManager{}, testServices())
}

func buildToken(t *testing.T, cfg *config.Config, role enums.UserRole) string {
	t.Helper()
	token, err := pkgAuth.MintAccessToken(cfg.JWT, time.Now(), pkgAuth.AccessTokenPayload{
		UserID: uuid.New(),
		Role:   role,
		JTI:    session.NewAccessID(),
	})
	if err != nil {
		t.Fatalf("mint token: %v", err)
	}
	return token
}

func TestHealthLive(t *testing.T) {
	router := newTestRouter(testConfig())
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/health/live", nil))
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 for liveness got %d", resp.Code)
	}
}

func TestPrivateGroupRejectsMissingJWT(t *testing.T) {
	router := newTestRouter(testConfig())
	req := httptest.NewRequest(http.MethodGet, "/api/ping", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token got %d", resp.Code)
	}
}

func TestPrivateGroupSucceedsWithJWT(t *testing.T) {
	cfg := testConfig()
	router := newTestRouter(cfg)
	req := httptest.NewRequest(http.MethodGet, "/api/ping", nil)
	req.Header.Set("Authorization", "Bearer "+buildToken(t, cfg, enums.UserRoleFarmer))
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 for private ping got %d", resp.Code)
	}
}

func TestAdminGroupRequiresAdminRole(t *testing.T) {
	cfg := testConfig()
	router := newTestRouter(cfg)

	nonAdmin := httptest.NewRequest(http.MethodGet, "/api/admin/ping", nil)
	nonAdmin.Header.Set("Authorization", "Bearer "+buildToken(t, cfg, enums.UserRoleLandowner))
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, nonAdmin)
	if resp.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for non-admin got %d", resp.Code)
	}

	admin := httptest.NewRequest(http.MethodGet, "/api/admin/ping", nil)
	admin.Header.Set("Authorization", "Bearer "+buildToken(t, cfg, enums.UserRoleAdmin))
	resp = httptest.NewRecorder()
	router.ServeHTTP(resp, admin)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 for admin got %d", resp.Code)
	}
}

func TestAdminLandListRequiresAdminRole(t *testing.T) {
	cfg := testConfig()
	router := newTestRouter(cfg)

	req := httptest.NewRequest(http.MethodGet, "/api/admin/v1/lands", nil)
	req.Header.Set("Authorization", "Bearer "+buildToken(t, cfg, enums.UserRoleFarmer))
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for farmer on admin lands got %d", resp.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/admin/v1/lands", nil)
	req.Header.Set("Authorization", "Bearer "+buildToken(t, cfg, enums.UserRoleAdmin))
	resp = httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 for admin lands got %d", resp.Code)
	}
}

func TestLandListingReachable(t *testing.T) {
	cfg := testConfig()
	router := newTestRouter(cfg)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/lands?limit=5", nil)
	req.Header.Set("Authorization", "Bearer "+buildToken(t, cfg, enums.UserRoleFarmer))
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 for land listing got %d", resp.Code)
	}

	var envelope struct {
		Success bool            `json:"success"`
		Data    json.RawMessage `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if !envelope.Success {
		t.Fatal("expected success envelope")
	}
}

func TestLoginRouteReturnsToken(t *testing.T) {
	router := newTestRouter(testConfig())

	body := strings.NewReader(`{"email":"ravi@example.com","password":"secret123"}`)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", body)
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 for login got %d body=%s", resp.Code, resp.Body.String())
	}
	if got := resp.Header().Get("X-AC-Token"); got != "token" {
		t.Fatalf("expected access token header got %q", got)
	}
}

func TestAdminRegisterHiddenInProd(t *testing.T) {
	cfg := testConfig()
	cfg.App.Env = "production"
	router := newTestRouter(cfg)

	body := strings.NewReader(`{"name":"Ops","email":"ops@example.com","password":"secret123"}`)
	req := httptest.NewRequest(http.MethodPost, "/api/admin/v1/auth/register", body)
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code == http.StatusOK || resp.Code == http.StatusCreated {
		t.Fatalf("expected admin register to be unavailable in prod got %d", resp.Code)
	}
}

func TestPublicValidateRejectsBadJSON(t *testing.T) {
	router := newTestRouter(testConfig())
	req := httptest.NewRequest(http.MethodPost, "/api/public/validate", strings.NewReader(`{"name":"ab","email":"not-an-email"}`))
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for invalid payload got %d", resp.Code)
	}
}

func TestPublicValidateAcceptsGoodJSON(t *testing.T) {
	router := newTestRouter(testConfig())
	req := httptest.NewRequest(http.MethodPost, "/api/public/validate", strings.NewReader(`{"name":"Ravi Kumar","email":"farmer@example.com"}`))
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 for valid payload got %d", resp.Code)
	}
}
