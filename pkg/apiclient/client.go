package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

type Client struct {
	BaseURL    string
	HTTPClient *http.Client

	session *Session
}

// New returns a client for baseURL that authenticates through sess. A nil
// sess gets a fresh in-memory session.
func New(baseURL string, sess *Session) *Client {
	if sess == nil {
		sess = NewSession(nil)
	}
	return &Client{
		BaseURL: strings.TrimSuffix(baseURL, "/"),
		HTTPClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		session: sess,
	}
}

func (c *Client) Session() *Session {
	return c.session
}

func (c *Client) Signup(ctx context.Context, req SignupRequest) (User, error) {
	var out struct {
		User User `json:"user"`
	}
	err := c.do(ctx, http.MethodPost, "/auth/signup", req, false, http.StatusCreated, &out)
	return out.User, err
}

// Login exchanges credentials for a token and saves it in the session.
func (c *Client) Login(ctx context.Context, email, password string) (User, error) {
	var out struct {
		Token string `json:"token"`
		User  User   `json:"user"`
	}

	body := map[string]string{"email": email, "password": password}
	if err := c.do(ctx, http.MethodPost, "/auth/login", body, false, http.StatusOK, &out); err != nil {
		return User{}, err
	}

	if err := c.session.set(ctx, out.Token); err != nil {
		return User{}, fmt.Errorf("save token: %w", err)
	}
	return out.User, nil
}

// Logout forgets the token locally. Tokens stay valid until they expire.
func (c *Client) Logout(ctx context.Context) error {
	return c.session.clear(ctx)
}

// Doctors lists doctors, optionally only those in category.
func (c *Client) Doctors(ctx context.Context, category string) ([]Doctor, error) {
	path := "/doctors"
	if category != "" {
		path += "?" + url.Values{"category": {category}}.Encode()
	}

	var out struct {
		Doctors []Doctor `json:"doctors"`
	}
	err := c.do(ctx, http.MethodGet, path, nil, false, http.StatusOK, &out)
	return out.Doctors, err
}

func (c *Client) Doctor(ctx context.Context, id string) (Doctor, error) {
	var out struct {
		Doctor Doctor `json:"doctor"`
	}
	err := c.do(ctx, http.MethodGet, "/doctors/"+url.PathEscape(id), nil, false, http.StatusOK, &out)
	return out.Doctor, err
}

func (c *Client) Categories(ctx context.Context) ([]Category, error) {
	var out struct {
		Categories []Category `json:"categories"`
	}
	err := c.do(ctx, http.MethodGet, "/categories", nil, false, http.StatusOK, &out)
	return out.Categories, err
}

// Patients needs a DOCTOR session.
func (c *Client) Patients(ctx context.Context) ([]Patient, error) {
	var out struct {
		Patients []Patient `json:"patients"`
	}
	err := c.do(ctx, http.MethodGet, "/patients", nil, true, http.StatusOK, &out)
	return out.Patients, err
}

// Consultations lists the calling doctor's consultations, soonest first.
func (c *Client) Consultations(ctx context.Context) ([]Consultation, error) {
	var out struct {
		Consultations []Consultation `json:"consultations"`
	}
	err := c.do(ctx, http.MethodGet, "/consultations", nil, true, http.StatusOK, &out)
	return out.Consultations, err
}

func (c *Client) MyPatientProfile(ctx context.Context) (Patient, error) {
	var out struct {
		Patient Patient `json:"patient"`
	}
	err := c.do(ctx, http.MethodGet, "/patients/me", nil, true, http.StatusOK, &out)
	return out.Patient, err
}

func (c *Client) do(ctx context.Context, method, path string, in any, authed bool, expected int, out any) error {
	var body io.Reader
	if in != nil {
		raw, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		body = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, body)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	if authed {
		token, err := c.session.Token(ctx)
		if err != nil {
			return fmt.Errorf("load token: %w", err)
		}
		if token == "" {
			return ErrNotLoggedIn
		}
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode != expected {
		return parseErrorResponse(resp, raw)
	}

	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}
