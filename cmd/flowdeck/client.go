package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/flowdeck/flowdeck/internal/auth"
	"github.com/flowdeck/flowdeck/internal/domain"
)

// apiClient talks to the relay's REST API. It doubles as the session's board
// fetcher.
type apiClient struct {
	base  string
	token string
	http  *http.Client
}

func newAPIClient(base string) *apiClient {
	return &apiClient{
		base: strings.TrimRight(base, "/"),
		http: &http.Client{Timeout: 10 * time.Second},
	}
}

func (c *apiClient) SetToken(token string) {
	c.token = token
}

// Login exchanges credentials for a bearer token and the account's user ID.
func (c *apiClient) Login(ctx context.Context, email, password string) (string, uuid.UUID, error) {
	body, err := json.Marshal(map[string]string{"email": email, "password": password})
	if err != nil {
		return "", uuid.Nil, fmt.Errorf("apiClient.Login: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.base+"/api/v1/auth/login", bytes.NewReader(body))
	if err != nil {
		return "", uuid.Nil, fmt.Errorf("apiClient.Login: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return "", uuid.Nil, fmt.Errorf("apiClient.Login: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", uuid.Nil, fmt.Errorf("apiClient.Login: unexpected status %d", resp.StatusCode)
	}

	var out struct {
		Token string `json:"token"`
		User  struct {
			ID uuid.UUID `json:"id"`
		} `json:"user"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", uuid.Nil, fmt.Errorf("apiClient.Login: %w", err)
	}
	return out.Token, out.User.ID, nil
}

// FetchBoard loads the authoritative snapshot used for initial load and
// post-reconnect resync.
func (c *apiClient) FetchBoard(ctx context.Context, boardID uuid.UUID) (*domain.Board, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.base+"/api/v1/boards/"+boardID.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("apiClient.FetchBoard: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("apiClient.FetchBoard: %w", err)
	}
	defer func() {
		_, _ = io.Copy(io.Discard, resp.Body)
		resp.Body.Close()
	}()

	if resp.StatusCode == http.StatusNotFound {
		return nil, domain.ErrNotFound
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("apiClient.FetchBoard: unexpected status %d", resp.StatusCode)
	}

	var board domain.Board
	if err := json.NewDecoder(resp.Body).Decode(&board); err != nil {
		return nil, fmt.Errorf("apiClient.FetchBoard: %w", err)
	}
	return &board, nil
}

// userIDFromToken reads the user ID claim without verifying the signature.
// The relay verifies; the client only needs the ID for self-echo suppression.
func userIDFromToken(token string) (uuid.UUID, error) {
	var claims auth.Claims
	if _, _, err := jwt.NewParser().ParseUnverified(token, &claims); err != nil {
		return uuid.Nil, fmt.Errorf("userIDFromToken: %w", err)
	}
	id, err := uuid.Parse(claims.UserID)
	if err != nil {
		return uuid.Nil, fmt.Errorf("userIDFromToken: %w", err)
	}
	return id, nil
}
