//go:build e2e

package e2e

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"subvault/auth-service/internal/app/auth/entity"
)

// BaseURL адрес запущенного Auth Service
const BaseURL = "http://localhost:8080"

var client = &http.Client{Timeout: 10 * time.Second}

func doRequest(t *testing.T, method, path, token string, payload interface{}) *http.Response {
	var body *bytes.Buffer = bytes.NewBuffer(nil)
	if payload != nil {
		data, err := json.Marshal(payload)
		require.NoError(t, err)
		body = bytes.NewBuffer(data)
	}

	req, err := http.NewRequest(method, BaseURL+path, body)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := client.Do(req)
	require.NoError(t, err)
	return resp
}

func decodeData(t *testing.T, resp *http.Response, out interface{}) {
	defer resp.Body.Close()
	var envelope struct {
		Success bool            `json:"success"`
		Data    json.RawMessage `json:"data"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&envelope))
	require.NoError(t, json.Unmarshal(envelope.Data, out))
}

func TestHealthCheck(t *testing.T) {
	resp, err := client.Get(BaseURL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestFullAuthFlow(t *testing.T) {
	// Уникальный email, чтобы сценарий можно было гонять повторно
	email := fmt.Sprintf("e2e-%d@example.com", time.Now().UnixNano())

	t.Log("Step 1: register a new user")
	resp := doRequest(t, http.MethodPost, "/auth/register", "", entity.RegisterRequest{
		Email:    email,
		Username: "e2euser",
		Password: "password123",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var registered entity.AuthResponse
	decodeData(t, resp, &registered)
	require.NotEmpty(t, registered.Tokens.AccessToken)

	t.Log("Step 2: login with the same credentials")
	resp = doRequest(t, http.MethodPost, "/auth/login", "", entity.LoginRequest{
		Email:    email,
		Password: "password123",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var loggedIn entity.AuthResponse
	decodeData(t, resp, &loggedIn)

	t.Log("Step 3: fetch own profile")
	resp = doRequest(t, http.MethodGet, "/auth/me", loggedIn.Tokens.AccessToken, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var me entity.User
	decodeData(t, resp, &me)
	assert.Equal(t, email, me.Email)

	t.Log("Step 4: rotate refresh token")
	resp = doRequest(t, http.MethodPost, "/auth/refresh", "", entity.RefreshRequest{
		RefreshToken: loggedIn.Tokens.RefreshToken,
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var rotated entity.TokenPair
	decodeData(t, resp, &rotated)
	assert.NotEqual(t, loggedIn.Tokens.RefreshToken, rotated.RefreshToken)

	t.Log("Step 5: logout and verify the token is revoked")
	resp = doRequest(t, http.MethodPost, "/auth/logout", rotated.AccessToken, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	resp = doRequest(t, http.MethodGet, "/auth/me", rotated.AccessToken, nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	resp.Body.Close()
}

func TestInternalUserStatsAvailable(t *testing.T) {
	resp, err := client.Get(BaseURL + "/internal/stats/users")
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)

	var stats entity.UserStats
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&stats))
	assert.GreaterOrEqual(t, stats.Count, int64(0))
}
