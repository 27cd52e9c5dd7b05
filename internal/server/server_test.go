package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	authdomain "github.com/openhaus/atrium/internal/auth/domain"
	"github.com/openhaus/atrium/internal/auth/session"
	"github.com/openhaus/atrium/internal/authorization"
	cmadomain "github.com/openhaus/atrium/internal/cma/domain"
	"github.com/openhaus/atrium/internal/config"
	listingdomain "github.com/openhaus/atrium/internal/listing/domain"
	"github.com/openhaus/atrium/internal/observability"
	sellerupdatedomain "github.com/openhaus/atrium/internal/sellerupdate/domain"
	"github.com/openhaus/atrium/pkg/db/pagination"
)

const testSessionToken = "test-session-token"

type fakeAuthService struct {
	loginCalls  int
	logoutCalls int
}

func (f *fakeAuthService) CreateUser(ctx context.Context, req authdomain.CreateUserRequest) (*authdomain.UserView, error) {
	return &authdomain.UserView{ID: "200", Email: req.Email, Role: req.Role}, nil
}

func (f *fakeAuthService) UpdateUser(ctx context.Context, userID string, req authdomain.UpdateUserRequest) (*authdomain.UserView, error) {
	if userID != "200" {
		return nil, authdomain.ErrUserNotFound
	}
	view := &authdomain.UserView{ID: userID, Email: "agent@example.com", Role: authdomain.RoleAgent}
	if req.Role != nil {
		view.Role = *req.Role
	}
	if req.DisplayName != nil {
		view.DisplayName = *req.DisplayName
	}
	return view, nil
}

func (f *fakeAuthService) ListUsers(ctx context.Context) ([]authdomain.UserView, error) {
	return nil, nil
}

func (f *fakeAuthService) Login(ctx context.Context, req authdomain.LoginRequest) (*authdomain.LoginResult, error) {
	f.loginCalls++
	if req.Password != "correct-password" {
		return nil, authdomain.ErrInvalidCredentials
	}
	return &authdomain.LoginResult{
		Identity: authdomain.Identity{
			UserID: snowflake.ID(200),
			Email:  req.Email,
			Role:   authdomain.RoleAgent,
		},
		RawToken:  testSessionToken,
		ExpiresAt: time.Now().Add(time.Hour),
	}, nil
}

func (f *fakeAuthService) Logout(ctx context.Context, rawToken string) error {
	f.logoutCalls++
	return nil
}

func (f *fakeAuthService) Authenticate(ctx context.Context, rawToken string) (*authdomain.Identity, error) {
	if rawToken != testSessionToken {
		return nil, authdomain.ErrInvalidSession
	}
	return &authdomain.Identity{
		UserID: snowflake.ID(200),
		Email:  "agent@example.com",
		Role:   authdomain.RoleAgent,
	}, nil
}

func (f *fakeAuthService) ChangePassword(ctx context.Context, userID string, currentPassword, newPassword string) error {
	return nil
}

type fakeAuthzService struct {
	denied bool
	calls  int
}

func (f *fakeAuthzService) Authorize(ctx context.Context, actor, object, action string) error {
	f.calls++
	if f.denied {
		return authorization.ErrForbidden
	}
	return nil
}

type fakeListingService struct {
	listings map[string]*listingdomain.Response
}

func (f *fakeListingService) Upsert(ctx context.Context, req listingdomain.UpsertRequest) (*listingdomain.Response, error) {
	return &listingdomain.Response{ID: "1", MLSNumber: req.MLSNumber, Status: req.Status}, nil
}

func (f *fakeListingService) Get(ctx context.Context, id string) (*listingdomain.Response, error) {
	if resp, ok := f.listings[id]; ok {
		return resp, nil
	}
	return nil, listingdomain.ErrNotFound
}

func (f *fakeListingService) GetByMLSNumber(ctx context.Context, mlsNumber string) (*listingdomain.Response, error) {
	return nil, listingdomain.ErrNotFound
}

func (f *fakeListingService) Search(ctx context.Context, req listingdomain.SearchRequest) ([]listingdomain.Response, *pagination.PageInfo, error) {
	return nil, &pagination.PageInfo{}, nil
}

func (f *fakeListingService) Update(ctx context.Context, req listingdomain.UpdateRequest) (*listingdomain.Response, error) {
	return nil, listingdomain.ErrNotFound
}

func (f *fakeListingService) Delete(ctx context.Context, id string) error {
	return nil
}

func (f *fakeListingService) RecentlyClosed(ctx context.Context, since time.Time, limit int) ([]listingdomain.Response, error) {
	return nil, nil
}

type fakeCMAService struct {
	published map[string]*cmadomain.Response
}

func (f *fakeCMAService) Create(ctx context.Context, req cmadomain.CreateRequest) (*cmadomain.Response, error) {
	return &cmadomain.Response{ID: "10", Title: req.Title}, nil
}

func (f *fakeCMAService) Get(ctx context.Context, id string) (*cmadomain.Response, error) {
	return nil, cmadomain.ErrNotFound
}

func (f *fakeCMAService) GetPublished(ctx context.Context, slug string) (*cmadomain.Response, error) {
	if resp, ok := f.published[slug]; ok {
		return resp, nil
	}
	return nil, cmadomain.ErrNotFound
}

func (f *fakeCMAService) List(ctx context.Context, req cmadomain.ListRequest) ([]cmadomain.Response, *pagination.PageInfo, error) {
	return nil, &pagination.PageInfo{}, nil
}

func (f *fakeCMAService) Update(ctx context.Context, req cmadomain.UpdateRequest) (*cmadomain.Response, error) {
	return nil, cmadomain.ErrNotFound
}

func (f *fakeCMAService) Delete(ctx context.Context, id string) error {
	return nil
}

func (f *fakeCMAService) Publish(ctx context.Context, id string) (*cmadomain.Response, error) {
	return nil, cmadomain.ErrAlreadyPublished
}

func (f *fakeCMAService) AddComparable(ctx context.Context, reportID, listingID string) (*cmadomain.Response, error) {
	return nil, cmadomain.ErrDuplicateComp
}

func (f *fakeCMAService) RemoveComparable(ctx context.Context, reportID, listingID string) (*cmadomain.Response, error) {
	return nil, cmadomain.ErrNotFound
}

func (f *fakeCMAService) ReorderComparables(ctx context.Context, reportID string, orderedListingIDs []string) (*cmadomain.Response, error) {
	return nil, cmadomain.ErrInvalidPosition
}

func (f *fakeCMAService) GetAdjustmentConfig(ctx context.Context, reportID string) (*cmadomain.AdjustmentConfig, error) {
	return &cmadomain.AdjustmentConfig{Enabled: true}, nil
}

func (f *fakeCMAService) PutAdjustmentConfig(ctx context.Context, reportID string, cfg cmadomain.AdjustmentConfig) (*cmadomain.AdjustmentConfig, error) {
	return &cfg, nil
}

func (f *fakeCMAService) ComputeAdjustments(ctx context.Context, reportID string) (*cmadomain.ComputedReport, error) {
	return &cmadomain.ComputedReport{ReportID: reportID}, nil
}

func (f *fakeCMAService) ComputePublished(ctx context.Context, slug string) (*cmadomain.ComputedReport, error) {
	if _, ok := f.published[slug]; ok {
		return &cmadomain.ComputedReport{Title: slug}, nil
	}
	return nil, cmadomain.ErrNotFound
}

func (f *fakeCMAService) RenderPDF(ctx context.Context, reportID string) ([]byte, error) {
	return []byte("%PDF-1.7"), nil
}

type fakeSellerUpdateService struct {
	subscribed []sellerupdatedomain.SubscribeRequest
	deleted    []string
}

func (f *fakeSellerUpdateService) Subscribe(ctx context.Context, req sellerupdatedomain.SubscribeRequest) (*sellerupdatedomain.Response, error) {
	if !strings.Contains(req.Email, "@") {
		return nil, sellerupdatedomain.ErrInvalidEmail
	}
	f.subscribed = append(f.subscribed, req)
	return &sellerupdatedomain.Response{ID: "30", Email: req.Email, City: req.City, Active: true}, nil
}

func (f *fakeSellerUpdateService) Unsubscribe(ctx context.Context, token string) error {
	if token == "" {
		return sellerupdatedomain.ErrInvalidToken
	}
	return nil
}

func (f *fakeSellerUpdateService) List(ctx context.Context) ([]sellerupdatedomain.Response, error) {
	return nil, nil
}

func (f *fakeSellerUpdateService) Delete(ctx context.Context, id string) error {
	if id == "" {
		return sellerupdatedomain.ErrInvalidID
	}
	f.deleted = append(f.deleted, id)
	return nil
}

func (f *fakeSellerUpdateService) DispatchDue(ctx context.Context, now time.Time) (int, error) {
	return 0, nil
}

type testServer struct {
	engine *gin.Engine
	auth   *fakeAuthService
	authz  *fakeAuthzService
	seller *fakeSellerUpdateService
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	engine := NewEngine(observability.Config{Environment: "test"}, nil)
	auth := &fakeAuthService{}
	authz := &fakeAuthzService{}
	seller := &fakeSellerUpdateService{}

	NewServer(ServerParams{
		Gin:      engine,
		Cfg:      config.Config{},
		AuthSvc:  auth,
		Sessions: session.NewManager(config.Config{}),
		AuthzSvc: authz,
		ListingSvc: &fakeListingService{
			listings: map[string]*listingdomain.Response{
				"1": {ID: "1", MLSNumber: "MLS-1", Status: listingdomain.StatusActive},
			},
		},
		CMASvc: &fakeCMAService{
			published: map[string]*cmadomain.Response{
				"maple-street": {ID: "10", Slug: "maple-street", Status: "published"},
			},
		},
		SellerUpdateSvc: seller,
	})

	return &testServer{engine: engine, auth: auth, authz: authz, seller: seller}
}

func (ts *testServer) do(method, path string, body any, authenticated bool) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if authenticated {
		req.AddCookie(&http.Cookie{Name: "_sid", Value: testSessionToken})
	}
	rec := httptest.NewRecorder()
	ts.engine.ServeHTTP(rec, req)
	return rec
}

func TestLoginSetsSessionCookie(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(http.MethodPost, "/auth/login", map[string]string{
		"email":    "agent@example.com",
		"password": "correct-password",
	}, false)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	cookies := rec.Result().Cookies()
	var found bool
	for _, cookie := range cookies {
		if cookie.Name == "_sid" && cookie.Value == testSessionToken {
			found = true
		}
	}
	if !found {
		t.Fatal("expected session cookie to be set")
	}
}

func TestLoginWrongPasswordReturns401(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(http.MethodPost, "/auth/login", map[string]string{
		"email":    "agent@example.com",
		"password": "wrong",
	}, false)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestPortalRequiresSession(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(http.MethodGet, "/portal/listings", nil, false)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}

	var resp errorResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode error envelope: %v", err)
	}
	if resp.Error.Type != "unauthorized" {
		t.Fatalf("expected unauthorized error type, got %q", resp.Error.Type)
	}
}

func TestPortalForbiddenWhenPolicyDenies(t *testing.T) {
	ts := newTestServer(t)
	ts.authz.denied = true

	rec := ts.do(http.MethodGet, "/portal/listings", nil, true)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", rec.Code)
	}
}

func TestGetListingNotFoundMapsTo404(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(http.MethodGet, "/portal/listings/999", nil, true)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}

	rec = ts.do(http.MethodGet, "/portal/listings/1", nil, true)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestPublicReportBySlug(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(http.MethodGet, "/public/reports/maple-street", nil, false)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	rec = ts.do(http.MethodGet, "/public/reports/unknown-slug", nil, false)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func TestPublicSubscribe(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(http.MethodPost, "/public/seller-updates/subscribe", map[string]string{
		"email": "owner@example.com",
		"city":  "Austin",
	}, false)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if len(ts.seller.subscribed) != 1 {
		t.Fatalf("expected one subscription, got %d", len(ts.seller.subscribed))
	}

	rec = ts.do(http.MethodPost, "/public/seller-updates/subscribe", map[string]string{
		"email": "not-an-email",
		"city":  "Austin",
	}, false)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestDuplicateComparableMapsToConflict(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(http.MethodPost, "/portal/reports/10/comparables", map[string]string{
		"listing_id": "1",
	}, true)
	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", rec.Code)
	}
}

func TestDeleteSubscriptionEndpoint(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(http.MethodDelete, "/portal/seller-updates/30", nil, true)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if len(ts.seller.deleted) != 1 || ts.seller.deleted[0] != "30" {
		t.Fatalf("expected subscription 30 deleted, got %v", ts.seller.deleted)
	}

	rec = ts.do(http.MethodDelete, "/portal/seller-updates/30", nil, false)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without session, got %d", rec.Code)
	}
}

func TestUpdateUserEndpoint(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(http.MethodPatch, "/portal/users/200", map[string]string{
		"display_name": "Agent Two Hundred",
		"role":         "admin",
	}, true)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var body struct {
		Data struct {
			Role        string `json:"role"`
			DisplayName string `json:"display_name"`
		} `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if body.Data.Role != "admin" || body.Data.DisplayName != "Agent Two Hundred" {
		t.Fatalf("unexpected response body: %s", rec.Body.String())
	}

	rec = ts.do(http.MethodPatch, "/portal/users/999", map[string]string{"role": "admin"}, true)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown user, got %d", rec.Code)
	}
}
