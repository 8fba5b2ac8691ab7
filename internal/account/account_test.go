package account

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

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeProvider struct {
	users map[string]*Identity
	calls []string
	err   error
}

func newFakeProvider() *fakeProvider {
	return &fakeProvider{users: map[string]*Identity{
		"uid-1": {UID: "uid-1", Email: "cashier@example.com"},
	}}
}

func (f *fakeProvider) VerifyIDToken(_ context.Context, idToken string) (Identity, error) {
	uid, ok := strings.CutPrefix(idToken, "token-")
	if !ok {
		return Identity{}, ErrInvalidToken
	}
	u, ok := f.users[uid]
	if !ok {
		return Identity{}, ErrInvalidToken
	}
	return *u, nil
}

func (f *fakeProvider) GetUser(_ context.Context, uid string) (Identity, error) {
	f.calls = append(f.calls, "get")
	return *f.users[uid], nil
}

func (f *fakeProvider) UpdatePassword(_ context.Context, _, _ string) error {
	f.calls = append(f.calls, "password")
	return f.err
}

func (f *fakeProvider) UpdateEmail(_ context.Context, uid, email string) error {
	f.calls = append(f.calls, "email")
	if f.err != nil {
		return f.err
	}
	f.users[uid].Email = email
	return nil
}

func newTestMux(p *fakeProvider) *http.ServeMux {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	handler := NewHandler(NewService(p), logger)
	auth := Middleware(p, logger)

	mux := http.NewServeMux()
	mux.Handle("GET /account", auth(http.HandlerFunc(handler.HandleGet)))
	mux.Handle("PUT /account", auth(http.HandlerFunc(handler.HandleUpdate)))
	return mux
}

func request(method, body, token string) *http.Request {
	req := httptest.NewRequest(method, "/account", strings.NewReader(body))
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return req
}

func TestMiddleware(t *testing.T) {
	mux := newTestMux(newFakeProvider())

	for name, token := range map[string]string{"missing": "", "invalid": "forged"} {
		t.Run(name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			mux.ServeHTTP(rec, request(http.MethodGet, "", token))
			assert.Equal(t, http.StatusUnauthorized, rec.Code)
		})
	}

	t.Run("valid token reaches handler", func(t *testing.T) {
		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, request(http.MethodGet, "", "token-uid-1"))

		require.Equal(t, http.StatusOK, rec.Code)
		var id Identity
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&id))
		assert.Equal(t, Identity{UID: "uid-1", Email: "cashier@example.com"}, id)
	})
}

func TestHandler_Update(t *testing.T) {
	t.Run("password then email", func(t *testing.T) {
		p := newFakeProvider()
		rec := httptest.NewRecorder()
		body := `{"email":"owner@example.com","new_password":"secret1","confirm_password":"secret1"}`
		newTestMux(p).ServeHTTP(rec, request(http.MethodPut, body, "token-uid-1"))

		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		assert.Equal(t, []string{"password", "email", "get"}, p.calls)
		assert.Equal(t, "owner@example.com", p.users["uid-1"].Email)
	})

	t.Run("unchanged email is not sent", func(t *testing.T) {
		p := newFakeProvider()
		rec := httptest.NewRecorder()
		newTestMux(p).ServeHTTP(rec, request(http.MethodPut, `{"email":"cashier@example.com"}`, "token-uid-1"))

		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, []string{"get"}, p.calls)
	})

	t.Run("case-only email change is sent", func(t *testing.T) {
		p := newFakeProvider()
		rec := httptest.NewRecorder()
		newTestMux(p).ServeHTTP(rec, request(http.MethodPut, `{"email":"Cashier@example.com"}`, "token-uid-1"))

		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, []string{"email", "get"}, p.calls)
		assert.Equal(t, "Cashier@example.com", p.users["uid-1"].Email)
	})

	tests := []struct {
		name   string
		body   string
		err    error
		status int
	}{
		{name: "confirmation mismatch", body: `{"new_password":"secret1","confirm_password":"secret2"}`, status: http.StatusBadRequest},
		{name: "short password", body: `{"new_password":"abc","confirm_password":"abc"}`, status: http.StatusBadRequest},
		{name: "bad email", body: `{"email":"not-an-email"}`, status: http.StatusBadRequest},
		{name: "email taken", body: `{"email":"taken@example.com"}`, err: ErrEmailInUse, status: http.StatusConflict},
		{name: "provider failure", body: `{"new_password":"secret1","confirm_password":"secret1"}`, err: errors.New("requires recent login"), status: http.StatusBadGateway},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := newFakeProvider()
			p.err = tt.err
			rec := httptest.NewRecorder()
			newTestMux(p).ServeHTTP(rec, request(http.MethodPut, tt.body, "token-uid-1"))

			assert.Equal(t, tt.status, rec.Code, rec.Body.String())
			if tt.err == nil {
				assert.Empty(t, p.calls)
			}
		})
	}
}

func TestIdentityFrom(t *testing.T) {
	_, ok := IdentityFrom(context.Background())
	assert.False(t, ok)

	id, ok := IdentityFrom(WithIdentity(context.Background(), Identity{UID: "u"}))
	assert.True(t, ok)
	assert.Equal(t, "u", id.UID)
}
