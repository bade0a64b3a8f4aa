package remote

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/dwikikusuma/farmgate/internal/account/domain"
	"github.com/dwikikusuma/farmgate/pkg/httpclient"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newClient(t *testing.T, h http.HandlerFunc) *AuthClient {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	hc, err := httpclient.New(srv.URL)
	require.NoError(t, err)
	return NewAuthClient(hc)
}

func TestRegister(t *testing.T) {
	c := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/auth/register", r.URL.Path)
		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "Otieno", body["name"])
		assert.Equal(t, "secret1", body["password"])

		_, _ = w.Write([]byte(`{"success":true,"token":"jwt","user":{"_id":"u9","name":"Otieno","role":"customer"}}`))
	})

	creds, err := c.Register(context.Background(), domain.RegisterRequest{Name: "Otieno", Email: "o@x.ke", Password: "secret1"})
	require.NoError(t, err)
	assert.Equal(t, "jwt", creds.Token)
	assert.Equal(t, "u9", creds.User.ID)
	assert.Equal(t, "customer", creds.User.Role)
}

func TestRegisterRejected(t *testing.T) {
	c := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"success":false,"message":"Email already in use"}`))
	})

	_, err := c.Register(context.Background(), domain.RegisterRequest{Name: "a"})
	require.ErrorIs(t, err, ErrRegistrationRejected)
	assert.Contains(t, err.Error(), "Email already in use")
}

func TestRegisterConflict(t *testing.T) {
	c := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
		_, _ = w.Write([]byte(`{"message":"User exists"}`))
	})

	_, err := c.Register(context.Background(), domain.RegisterRequest{Name: "a"})
	var apiErr *httpclient.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, "User exists", apiErr.Message)
}
