package httpclient

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

func TestGetDecodesAndSendsQuery(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/products", r.URL.Path)
		assert.Equal(t, "fruits", r.URL.Query().Get("category"))
		assert.Equal(t, "Bearer tok-1", r.Header.Get("Authorization"))
		_, _ = w.Write([]byte(`{"products":[]}`))
	}))
	defer srv.Close()

	c, err := New(srv.URL+"/api/", WithToken(func() string { return "tok-1" }))
	require.NoError(t, err)

	var out struct {
		Products []json.RawMessage `json:"products"`
	}
	err = c.Get(context.Background(), "/products", url.Values{"category": {"fruits"}}, &out)
	require.NoError(t, err)
	assert.NotNil(t, out.Products)
}

func TestPostSurfacesBackendMessage(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		body     string
		wantMsg  string
		wantCode codes.Code
	}{
		{"message field", http.StatusBadRequest, `{"message":"Product out of stock"}`, "Product out of stock", codes.InvalidArgument},
		{"error string", http.StatusConflict, `{"error":"Duplicate order"}`, "Duplicate order", codes.FailedPrecondition},
		{"nested error", http.StatusUnprocessableEntity, `{"error":{"message":"Invalid phone"}}`, "Invalid phone", codes.InvalidArgument},
		{"plain text", http.StatusBadGateway, "upstream down\n", "upstream down", codes.Unavailable},
		{"empty body", http.StatusInternalServerError, "", "Internal Server Error", codes.Unavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, http.MethodPost, r.Method)
				assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			c, err := New(srv.URL)
			require.NoError(t, err)

			err = c.Post(context.Background(), "/orders", map[string]string{"a": "b"}, nil)
			var apiErr *APIError
			require.True(t, errors.As(err, &apiErr))
			assert.Equal(t, tt.status, apiErr.StatusCode)
			assert.Equal(t, tt.wantMsg, apiErr.Message)
			assert.Equal(t, tt.wantCode, status.Code(err))
		})
	}
}

func TestEmptySuccessBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c, err := New(srv.URL)
	require.NoError(t, err)

	var out map[string]any
	err = c.Get(context.Background(), "/products", nil, &out)
	assert.ErrorIs(t, err, ErrEmptyBody)
}

func TestNewRejectsRelativeURL(t *testing.T) {
	_, err := New("/api")
	assert.Error(t, err)
}
