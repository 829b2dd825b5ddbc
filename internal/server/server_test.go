package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nzaccagnino/go-sheets/internal/crypto"
	"github.com/nzaccagnino/go-sheets/internal/db"
	"github.com/nzaccagnino/go-sheets/internal/store"
)

func newTestStore(t *testing.T) *store.Store {
	t.Helper()

	database, err := db.New(filepath.Join(t.TempDir(), "sheets.db"))
	require.NoError(t, err)
	t.Cleanup(func() { database.Close() })

	c, err := crypto.New(crypto.Params{Time: 1, Memory: 8 * 1024, Threads: 1})
	require.NoError(t, err)
	return store.New(database.Documents(), store.WithCipher(c))
}

func do(t *testing.T, h http.Handler, method, path string, body any, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&out))
	return out
}

func TestHealth(t *testing.T) {
	s := New(newTestStore(t))

	rec := do(t, s, http.MethodGet, "/health", nil, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, rec.Header().Get(RequestIDHeader))
}

func TestRequestID_KeepsCallerValue(t *testing.T) {
	s := New(newTestStore(t))

	rec := do(t, s, http.MethodGet, "/health", nil, map[string]string{RequestIDHeader: "abc"})
	assert.Equal(t, "abc", rec.Header().Get(RequestIDHeader))
}

func TestDocumentLifecycle(t *testing.T) {
	s := New(newTestStore(t))

	rec := do(t, s, http.MethodPut, "/api/documents/Invoice1", PutDocumentRequest{Content: "a,b", BillType: 2}, nil)
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = do(t, s, http.MethodGet, "/api/documents/Invoice1", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	doc := decode[DocumentResponse](t, rec)
	assert.Equal(t, "a,b", doc.Content)
	assert.Equal(t, 2, doc.BillType)
	assert.False(t, doc.Sealed)

	rec = do(t, s, http.MethodPut, "/api/documents/Invoice1", PutDocumentRequest{Content: "c", BillType: 2}, nil)
	require.Equal(t, http.StatusNoContent, rec.Code)

	rec = do(t, s, http.MethodGet, "/api/documents/", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	list := decode[[]DocumentSummary](t, rec)
	require.Len(t, list, 1)
	assert.Equal(t, "Invoice1", list[0].Name)

	rec = do(t, s, http.MethodDelete, "/api/documents/Invoice1", nil, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	rec = do(t, s, http.MethodDelete, "/api/documents/Invoice1", nil, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = do(t, s, http.MethodGet, "/api/documents/Invoice1", nil, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestPut_RejectsInvalidName(t *testing.T) {
	s := New(newTestStore(t))

	rec := do(t, s, http.MethodPut, "/api/documents/default", PutDocumentRequest{Content: "x"}, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, s, http.MethodPut, "/api/documents/Invoice1", []byte("not an object"), nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestProtectedDocument(t *testing.T) {
	st := newTestStore(t)
	s := New(st)
	ctx := context.Background()
	require.NoError(t, st.Save(ctx, store.Document{Name: "Invoice1", Content: store.EncodeContent("secret")}))

	rec := do(t, s, http.MethodPost, "/api/documents/Invoice1/protect", PasswordRequest{Password: "X"}, nil)
	require.Equal(t, http.StatusNoContent, rec.Code)

	rec = do(t, s, http.MethodPost, "/api/documents/Invoice1/protect", PasswordRequest{Password: "X"}, nil)
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = do(t, s, http.MethodGet, "/api/documents/Invoice1", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	sealed := decode[DocumentResponse](t, rec)
	assert.True(t, sealed.Sealed)
	assert.True(t, crypto.IsSealed(sealed.Content))

	rec = do(t, s, http.MethodGet, "/api/documents/Invoice1", nil, map[string]string{PasswordHeader: "wrong"})
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = do(t, s, http.MethodGet, "/api/documents/Invoice1", nil, map[string]string{PasswordHeader: "X"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "secret", decode[DocumentResponse](t, rec).Content)

	rec = do(t, s, http.MethodPut, "/api/documents/Invoice1", PutDocumentRequest{Content: "new"}, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = do(t, s, http.MethodPut, "/api/documents/Invoice1", PutDocumentRequest{Content: "new"},
		map[string]string{PasswordHeader: "wrong"})
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = do(t, s, http.MethodPut, "/api/documents/Invoice1", PutDocumentRequest{Content: "new"},
		map[string]string{PasswordHeader: "X"})
	require.Equal(t, http.StatusNoContent, rec.Code)

	rec = do(t, s, http.MethodPost, "/api/documents/Invoice1/verify", PasswordRequest{Password: "X"}, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, decode[VerifyResponse](t, rec).Valid)

	rec = do(t, s, http.MethodPost, "/api/documents/Invoice1/unprotect", PasswordRequest{Password: "wrong"}, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = do(t, s, http.MethodPost, "/api/documents/Invoice1/unprotect", PasswordRequest{Password: "X"}, nil)
	require.Equal(t, http.StatusNoContent, rec.Code)

	doc, err := st.Get(ctx, "Invoice1")
	require.NoError(t, err)
	assert.False(t, doc.PasswordProtected)
	assert.Equal(t, store.EncodeContent("new"), doc.Content)

	rec = do(t, s, http.MethodPost, "/api/documents/Invoice1/unprotect", PasswordRequest{Password: "X"}, nil)
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestPut_ReplaceWithPasswordSeals(t *testing.T) {
	st := newTestStore(t)
	s := New(st)
	ctx := context.Background()
	require.NoError(t, st.Save(ctx, store.Document{Name: "Invoice1", Content: store.EncodeContent("old")}))

	rec := do(t, s, http.MethodPut, "/api/documents/Invoice1", PutDocumentRequest{Content: "new"},
		map[string]string{PasswordHeader: "X"})
	require.Equal(t, http.StatusNoContent, rec.Code)

	doc, err := st.GetDecrypted(ctx, "Invoice1", "X")
	require.NoError(t, err)
	assert.True(t, doc.PasswordProtected)
	assert.Equal(t, store.EncodeContent("new"), doc.Content)

	rec = do(t, s, http.MethodPut, "/api/documents/Invoice1", PutDocumentRequest{Content: "plain"}, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAuthMiddleware(t *testing.T) {
	s := New(newTestStore(t), WithToken("s3cret"))

	tests := []struct {
		name   string
		header string
		want   int
	}{
		{"missing", "", http.StatusUnauthorized},
		{"wrong scheme", "Basic s3cret", http.StatusUnauthorized},
		{"wrong token", "Bearer nope", http.StatusUnauthorized},
		{"valid", "Bearer s3cret", http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			headers := map[string]string{}
			if tt.header != "" {
				headers["Authorization"] = tt.header
			}
			rec := do(t, s, http.MethodGet, "/api/documents/", nil, headers)
			assert.Equal(t, tt.want, rec.Code)
		})
	}

	rec := do(t, s, http.MethodGet, "/health", nil, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRateLimiter(t *testing.T) {
	rl := NewRateLimiter(1, 2)
	s := New(newTestStore(t), WithRateLimiter(rl))

	for i := 0; i < 2; i++ {
		rec := do(t, s, http.MethodGet, "/api/documents/", nil, nil)
		require.Equal(t, http.StatusOK, rec.Code)
	}
	rec := do(t, s, http.MethodGet, "/api/documents/", nil, nil)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)

	assert.True(t, rl.Allow("10.0.0.2"), "buckets are per client")
}

func TestRateLimiter_RunStopsWithContext(t *testing.T) {
	rl := NewRateLimiter(1, 1)
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan struct{})
	go func() {
		rl.Run(ctx, time.Millisecond)
		close(done)
	}()
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not return after cancel")
	}
}

func TestClientIP(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "192.0.2.1:1234"
	assert.Equal(t, "192.0.2.1", clientIP(req))

	req.RemoteAddr = "pipe"
	assert.Equal(t, "pipe", clientIP(req))
}
