package session

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"
)

// ErrUnauthorized is returned when the server rejects the credentials or
// session token.
var ErrUnauthorized = errors.New("unauthorized")

// APIClient talks to the authentication endpoints.
type APIClient struct {
	baseURL    string
	httpClient *http.Client
}

func NewAPIClient(baseURL string) *APIClient {
	return &APIClient{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: 15 * time.Second},
	}
}

type accessResponse struct {
	Access string `json:"access"`
}

type verifyResponse struct {
	Valid  bool   `json:"valid"`
	UserID string `json:"userId"`
}

type errorResponse struct {
	Message string `json:"message"`
}

func (c *APIClient) Register(ctx context.Context, name, email, password string) (string, error) {
	return c.postForAccess(ctx, "/authorisation/register", map[string]string{
		"name": name, "email": email, "password": password,
	})
}

func (c *APIClient) Login(ctx context.Context, email, password string) (string, error) {
	return c.postForAccess(ctx, "/authorisation/login", map[string]string{
		"email": email, "password": password,
	})
}

func (c *APIClient) GoogleLogin(ctx context.Context, providerToken string) (string, error) {
	return c.postForAccess(ctx, "/authorisation/google-auth", map[string]string{"token": providerToken})
}

func (c *APIClient) MicrosoftLogin(ctx context.Context, providerToken string) (string, error) {
	return c.postForAccess(ctx, "/authorisation/microsoft-auth", map[string]string{"token": providerToken})
}

// Verify asks the server whether the session token is still good and returns
// the user id it resolves to.
func (c *APIClient) Verify(ctx context.Context, access string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/authorisation/verify", nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("Authorization", "Bearer "+access)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("verify request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		return "", ErrUnauthorized
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("verify returned status %d", resp.StatusCode)
	}

	var body verifyResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", fmt.Errorf("failed to decode verify response: %w", err)
	}
	if !body.Valid || body.UserID == "" {
		return "", ErrUnauthorized
	}
	return body.UserID, nil
}

func (c *APIClient) postForAccess(ctx context.Context, path string, payload map[string]string) (string, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(data))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("request to %s failed: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		return "", ErrUnauthorized
	}
	if resp.StatusCode != http.StatusOK {
		var apiErr errorResponse
		if json.NewDecoder(resp.Body).Decode(&apiErr) == nil && apiErr.Message != "" {
			return "", errors.New(apiErr.Message)
		}
		return "", fmt.Errorf("%s returned status %d", path, resp.StatusCode)
	}

	var body accessResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", fmt.Errorf("failed to decode response: %w", err)
	}
	if body.Access == "" {
		return "", errors.New("response missing access token")
	}
	return body.Access, nil
}
