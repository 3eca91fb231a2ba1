package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/cookiejar"
	"strings"
	"time"
)

// apiClient talks to the community server. The session cookie set at
// login is kept in the jar and sent on later calls.
type apiClient struct {
	base string
	http *http.Client
}

func newAPIClient(base string) (*apiClient, error) {
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, err
	}
	return &apiClient{
		base: strings.TrimRight(base, "/"),
		http: &http.Client{Timeout: 10 * time.Second, Jar: jar},
	}, nil
}

type apiError struct {
	Status  int
	Code    string            `json:"code"`
	Message string            `json:"message"`
	Fields  map[string]string `json:"fields"`
}

func (e *apiError) Error() string {
	if len(e.Fields) == 0 {
		return e.Message
	}
	parts := make([]string, 0, len(e.Fields))
	for k, v := range e.Fields {
		parts = append(parts, k+": "+v)
	}
	return e.Message + " (" + strings.Join(parts, "; ") + ")"
}

type profile struct {
	ID       string `json:"id"`
	Username string `json:"username"`
}

type subView struct {
	Name     string `json:"name"`
	Title    string `json:"title"`
	ImageURL string `json:"imageUrl"`
}

func (c *apiClient) login(ctx context.Context, username, password string) (profile, error) {
	var out struct {
		User profile `json:"user"`
	}
	err := c.post(ctx, "/api/auth/login", map[string]string{"username": username, "password": password}, http.StatusOK, &out)
	return out.User, err
}

func (c *apiClient) createSub(ctx context.Context, name, title, description string) (subView, error) {
	var out subView
	err := c.post(ctx, "/api/subs", map[string]string{"name": name, "title": title, "description": description}, http.StatusCreated, &out)
	return out, err
}

func (c *apiClient) post(ctx context.Context, path string, body any, want int, out any) error {
	b, err := json.Marshal(body)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.base+path, bytes.NewReader(b))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("server not reachable: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != want {
		apiErr := &apiError{Status: resp.StatusCode, Message: resp.Status}
		_ = json.NewDecoder(resp.Body).Decode(apiErr)
		return apiErr
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
