// internal/common/auth/keycloak.go
package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"medical-reminders/internal/common/errors"
)

// KeycloakClient verifies caller identity for the manual trigger endpoint.
type KeycloakClient struct {
	baseURL      string
	realm        string
	clientID     string
	clientSecret string
	httpClient   *http.Client
}

// introspectionResponse holds the subset of RFC 7662 fields we care about.
type introspectionResponse struct {
	Active   bool   `json:"active"`
	Subject  string `json:"sub"`
	Username string `json:"preferred_username"`
}

// NewKeycloakClient creates a new instance of KeycloakClient.
func NewKeycloakClient(baseURL, realm, clientID, clientSecret string) *KeycloakClient {
	return &KeycloakClient{
		baseURL:      strings.TrimSuffix(baseURL, "/"),
		realm:        realm,
		clientID:     clientID,
		clientSecret: clientSecret,
		httpClient:   &http.Client{Timeout: 30 * time.Second},
	}
}

// VerifyToken introspects a caller's bearer token. It returns an
// UNAUTHENTICATED StandardError for missing, malformed, or inactive tokens and
// an INTERNAL one when Keycloak itself cannot be reached.
func (k *KeycloakClient) VerifyToken(ctx context.Context, token string) error {
	if strings.TrimSpace(token) == "" {
		return errors.NewUnauthenticatedError("no bearer token supplied")
	}

	introspectURL := fmt.Sprintf("%s/realms/%s/protocol/openid-connect/token/introspect", k.baseURL, k.realm)

	data := url.Values{}
	data.Set("token", token)
	data.Set("client_id", k.clientID)
	data.Set("client_secret", k.clientSecret)

	req, err := http.NewRequestWithContext(ctx, "POST", introspectURL, strings.NewReader(data.Encode()))
	if err != nil {
		return errors.NewInternalError(fmt.Errorf("create introspection request: %w", err))
	}

	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := k.httpClient.Do(req)
	if err != nil {
		return errors.NewInternalError(fmt.Errorf("introspection request: %w", err))
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return errors.NewInternalError(fmt.Errorf("introspection failed with status %d: %s", resp.StatusCode, string(body)))
	}

	var introspection introspectionResponse
	if err := json.NewDecoder(resp.Body).Decode(&introspection); err != nil {
		return errors.NewInternalError(fmt.Errorf("decode introspection response: %w", err))
	}

	if !introspection.Active {
		return errors.NewUnauthenticatedError("token is not active")
	}

	return nil
}
