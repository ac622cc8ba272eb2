package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bizmatch/internal/auth"
	apperrors "bizmatch/internal/common/errors"
	"bizmatch/internal/common/logger"
	"bizmatch/internal/models"
	"bizmatch/internal/request"
)

const testToken = "valid-token"

var testPrincipal = models.Principal{UserID: "user-1", BusinessID: "biz-buyer"}

// fakeAuth recognizes one hard-coded token and credentials.
type fakeAuth struct {
	loggedOut []string
}

func (f *fakeAuth) Register(ctx context.Context, input auth.RegisterInput) (*models.User, *models.Session, error) {
	if input.Email == "" {
		return nil, nil, apperrors.NewValidationError("email is required")
	}
	return f.session(input.Email)
}

func (f *fakeAuth) Login(ctx context.Context, input auth.LoginInput) (*models.User, *models.Session, error) {
	if input.Password != "correct horse" {
		return nil, nil, apperrors.NewUnauthenticatedError()
	}
	return f.session(input.Email)
}

func (f *fakeAuth) session(email string) (*models.User, *models.Session, error) {
	user := &models.User{ID: testPrincipal.UserID, BusinessID: testPrincipal.BusinessID, Email: email}
	session := &models.Session{
		Token:      testToken,
		UserID:     user.ID,
		BusinessID: user.BusinessID,
		ExpiresAt:  time.Now().Add(time.Hour),
	}
	return user, session, nil
}

func (f *fakeAuth) Logout(ctx context.Context, token string) error {
	f.loggedOut = append(f.loggedOut, token)
	return nil
}

func (f *fakeAuth) Resolve(ctx context.Context, token string) (models.Principal, error) {
	if token != testToken {
		return models.Principal{}, apperrors.NewUnauthenticatedError()
	}
	return testPrincipal, nil
}

// fakeRequestService records calls and returns canned results.
type fakeRequestService struct {
	compareErr error
}

func (f *fakeRequestService) CreateAndMatch(ctx context.Context, principal models.Principal, input request.CreateInput) (*request.CreateOutput, error) {
	if input.Description == "" {
		return nil, apperrors.NewValidationError("description is required")
	}
	return &request.CreateOutput{
		Request: models.RequestSummary{
			ID:     "req-1",
			Title:  input.Description,
			Status: models.RequestStatusMatching,
		},
		Matches: []models.MatchResult{
			{ServiceID: "svc-web", Score: 85, Why: "Good fit."},
		},
	}, nil
}

func (f *fakeRequestService) ListMine(ctx context.Context, principal models.Principal) ([]models.RequestSummary, error) {
	return []models.RequestSummary{{ID: "req-1"}}, nil
}

func (f *fakeRequestService) AddToShortlist(ctx context.Context, principal models.Principal, requestID, providerServiceID string) (*models.ShortlistItem, error) {
	if requestID == "req-forbidden" {
		return nil, apperrors.NewForbiddenError("not allowed to access this request")
	}
	return &models.ShortlistItem{
		RequestID:         requestID,
		ProviderServiceID: providerServiceID,
		BuyerBusinessID:   principal.BusinessID,
	}, nil
}

func (f *fakeRequestService) RemoveFromShortlist(ctx context.Context, principal models.Principal, requestID, providerServiceID string) error {
	return nil
}

func (f *fakeRequestService) ListShortlist(ctx context.Context, principal models.Principal, requestID string) ([]models.ShortlistItem, error) {
	return nil, nil
}

func (f *fakeRequestService) Compare(ctx context.Context, principal models.Principal, requestID string, serviceIDs []string) (*models.ComparisonResult, error) {
	if f.compareErr != nil {
		return nil, f.compareErr
	}
	return &models.ComparisonResult{
		RequestID:        requestID,
		ShortlistedCount: len(serviceIDs) + 1,
	}, nil
}

type okPinger struct{}

func (okPinger) Ping(ctx context.Context) error { return nil }

type downPinger struct{}

func (downPinger) Ping(ctx context.Context) error { return errors.New("down") }

func newTestServer(t *testing.T, requests RequestService, postgres, redis Pinger) *Server {
	if requests == nil {
		requests = &fakeRequestService{}
	}
	if postgres == nil {
		postgres = okPinger{}
	}
	if redis == nil {
		redis = okPinger{}
	}
	return NewServer(&fakeAuth{}, requests, postgres, redis, DefaultConfig(), logger.NewTestLogger(t))
}

func doJSON(t *testing.T, handler http.Handler, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func TestHealthAndReady(t *testing.T) {
	t.Run("healthy", func(t *testing.T) {
		handler := newTestServer(t, nil, nil, nil).Handler()
		rec := doJSON(t, handler, http.MethodGet, "/health", "", nil)
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("ready when both backends answer", func(t *testing.T) {
		handler := newTestServer(t, nil, nil, nil).Handler()
		rec := doJSON(t, handler, http.MethodGet, "/ready", "", nil)
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("not ready when postgres is down", func(t *testing.T) {
		handler := newTestServer(t, nil, downPinger{}, nil).Handler()
		rec := doJSON(t, handler, http.MethodGet, "/ready", "", nil)
		assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	})

	t.Run("not ready when redis is down", func(t *testing.T) {
		handler := newTestServer(t, nil, nil, downPinger{}).Handler()
		rec := doJSON(t, handler, http.MethodGet, "/ready", "", nil)
		assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	})
}

func TestAuthEndpoints(t *testing.T) {
	t.Run("register sets a session cookie", func(t *testing.T) {
		handler := newTestServer(t, nil, nil, nil).Handler()
		rec := doJSON(t, handler, http.MethodPost, "/api/v1/auth/register", "", map[string]string{
			"businessName": "Acme",
			"name":         "Ada",
			"email":        "ada@acme.test",
			"password":     "correct horse",
		})
		assert.Equal(t, http.StatusCreated, rec.Code)

		cookies := rec.Result().Cookies()
		require.NotEmpty(t, cookies)
		assert.Equal(t, "session_token", cookies[0].Name)
		assert.Equal(t, testToken, cookies[0].Value)
	})

	t.Run("login with bad credentials answers 401", func(t *testing.T) {
		handler := newTestServer(t, nil, nil, nil).Handler()
		rec := doJSON(t, handler, http.MethodPost, "/api/v1/auth/login", "", map[string]string{
			"email":    "ada@acme.test",
			"password": "wrong",
		})
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("logout revokes the presented token and clears the cookie", func(t *testing.T) {
		authSvc := &fakeAuth{}
		server := NewServer(authSvc, &fakeRequestService{}, okPinger{}, okPinger{},
			DefaultConfig(), logger.NewTestLogger(t))
		rec := doJSON(t, server.Handler(), http.MethodPost, "/api/v1/auth/logout", testToken, nil)

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, []string{testToken}, authSvc.loggedOut)

		cookies := rec.Result().Cookies()
		require.NotEmpty(t, cookies)
		assert.Equal(t, -1, cookies[0].MaxAge)
	})
}

func TestProtectedEndpointsRequireAuth(t *testing.T) {
	handler := newTestServer(t, nil, nil, nil).Handler()

	paths := []struct {
		method string
		path   string
	}{
		{http.MethodPost, "/api/v1/requests"},
		{http.MethodGet, "/api/v1/requests"},
		{http.MethodPost, "/api/v1/shortlist"},
		{http.MethodDelete, "/api/v1/shortlist"},
		{http.MethodGet, "/api/v1/requests/req-1/shortlist"},
		{http.MethodPost, "/api/v1/requests/req-1/compare"},
	}
	for _, p := range paths {
		rec := doJSON(t, handler, p.method, p.path, "", nil)
		assert.Equal(t, http.StatusUnauthorized, rec.Code, "%s %s", p.method, p.path)
	}
}

func TestCreateRequestEndpoint(t *testing.T) {
	handler := newTestServer(t, nil, nil, nil).Handler()

	t.Run("creates and returns matches", func(t *testing.T) {
		rec := doJSON(t, handler, http.MethodPost, "/api/v1/requests", testToken, map[string]string{
			"description": "We need web development",
		})
		require.Equal(t, http.StatusCreated, rec.Code)

		var out request.CreateOutput
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
		assert.Equal(t, "req-1", out.Request.ID)
		require.Len(t, out.Matches, 1)
		assert.Equal(t, 85, out.Matches[0].Score)
	})

	t.Run("invalid body answers 400", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/requests",
			bytes.NewBufferString("{not json"))
		req.Header.Set("Authorization", "Bearer "+testToken)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("empty description answers 400", func(t *testing.T) {
		rec := doJSON(t, handler, http.MethodPost, "/api/v1/requests", testToken, map[string]string{})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestShortlistEndpoints(t *testing.T) {
	handler := newTestServer(t, nil, nil, nil).Handler()

	t.Run("add", func(t *testing.T) {
		rec := doJSON(t, handler, http.MethodPost, "/api/v1/shortlist", testToken, shortlistBody{
			RequestID:         "req-1",
			ProviderServiceID: "svc-web",
		})
		require.Equal(t, http.StatusCreated, rec.Code)

		var item models.ShortlistItem
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &item))
		assert.Equal(t, testPrincipal.BusinessID, item.BuyerBusinessID)
	})

	t.Run("add without ids answers 400", func(t *testing.T) {
		rec := doJSON(t, handler, http.MethodPost, "/api/v1/shortlist", testToken, shortlistBody{})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("ownership failure surfaces as 403", func(t *testing.T) {
		rec := doJSON(t, handler, http.MethodPost, "/api/v1/shortlist", testToken, shortlistBody{
			RequestID:         "req-forbidden",
			ProviderServiceID: "svc-web",
		})
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("remove", func(t *testing.T) {
		rec := doJSON(t, handler, http.MethodDelete, "/api/v1/shortlist", testToken, shortlistBody{
			RequestID:         "req-1",
			ProviderServiceID: "svc-web",
		})
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("list answers an empty array, not null", func(t *testing.T) {
		rec := doJSON(t, handler, http.MethodGet, "/api/v1/requests/req-1/shortlist", testToken, nil)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), `"items":[]`)
	})
}

func TestCompareEndpoint(t *testing.T) {
	t.Run("returns the comparison", func(t *testing.T) {
		handler := newTestServer(t, nil, nil, nil).Handler()
		rec := doJSON(t, handler, http.MethodPost, "/api/v1/requests/req-1/compare", testToken,
			compareBody{ServiceIDs: []string{"svc-a", "svc-b"}})
		require.Equal(t, http.StatusOK, rec.Code)

		var result models.ComparisonResult
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
		assert.Equal(t, "req-1", result.RequestID)
		assert.Equal(t, 3, result.ShortlistedCount)
	})

	t.Run("validation failure surfaces as 400", func(t *testing.T) {
		handler := newTestServer(t, &fakeRequestService{
			compareErr: apperrors.NewValidationError("at least one service id is required"),
		}, nil, nil).Handler()
		rec := doJSON(t, handler, http.MethodPost, "/api/v1/requests/req-1/compare", testToken,
			compareBody{})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("internal failure hides details", func(t *testing.T) {
		handler := newTestServer(t, &fakeRequestService{
			compareErr: errors.New("pq: connection refused"),
		}, nil, nil).Handler()
		rec := doJSON(t, handler, http.MethodPost, "/api/v1/requests/req-1/compare", testToken,
			compareBody{ServiceIDs: []string{"a", "b"}})
		assert.Equal(t, http.StatusInternalServerError, rec.Code)
		assert.NotContains(t, rec.Body.String(), "connection refused")
	})
}
