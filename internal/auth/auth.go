// Package auth exchanges account credentials for a Minecraft session token
// and persists the resulting user.
package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/teamcutter/sml/internal/domain"
	"github.com/teamcutter/sml/internal/version"
)

const DefaultURL = "https://authserver.mojang.com/authenticate"

type Client struct {
	client *http.Client
	url    string
}

func New(url string, client *http.Client) *Client {
	if url == "" {
		url = DefaultURL
	}
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	return &Client{client: client, url: url}
}

type agent struct {
	Name    string `json:"name"`
	Version int    `json:"version"`
}

type authRequest struct {
	Agent    agent  `json:"agent"`
	Username string `json:"username"`
	Password string `json:"password"`
}

type authResponse struct {
	AccessToken     string `json:"accessToken"`
	SelectedProfile *struct {
		ID   string `json:"id"`
		Name string `json:"name"`
	} `json:"selectedProfile"`
	ErrorMessage string `json:"errorMessage"`
}

func (c *Client) Authenticate(ctx context.Context, username, password string) (*domain.User, error) {
	body, err := json.Marshal(authRequest{
		Agent:    agent{Name: "Minecraft", Version: 1},
		Username: username,
		Password: password,
	})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", "sml/"+version.Version)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("authenticating: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	var ar authResponse
	if err := json.Unmarshal(data, &ar); err != nil && resp.StatusCode == http.StatusOK {
		return nil, fmt.Errorf("decoding response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		if ar.ErrorMessage != "" {
			return nil, fmt.Errorf("authentication failed: %s", ar.ErrorMessage)
		}
		return nil, fmt.Errorf("authentication failed: unexpected status: %d", resp.StatusCode)
	}

	if ar.AccessToken == "" || ar.SelectedProfile == nil {
		return nil, errors.New("authentication failed: account has no game profile")
	}

	return &domain.User{
		Name:  ar.SelectedProfile.Name,
		Token: ar.AccessToken,
		ID:    ar.SelectedProfile.ID,
	}, nil
}

func Save(path string, u *domain.User) error {
	data, err := json.MarshalIndent(u, "", "  ")
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0600)
}

// Load reads the saved user, returning domain.ErrNotAuthenticated when no
// session has been stored yet.
func Load(path string) (*domain.User, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, domain.ErrNotAuthenticated
	}
	if err != nil {
		return nil, err
	}

	var u domain.User
	if err := json.Unmarshal(data, &u); err != nil {
		return nil, fmt.Errorf("decoding %s: %w", path, err)
	}
	if u.Token == "" {
		return nil, domain.ErrNotAuthenticated
	}
	return &u, nil
}
