// Package formstore is the PocketBase-backed implementation of
// domain.FormStore: authenticate once at bootstrap, cache the bearer token,
// transparently re-authenticate on a 401, and expose GetForm/GetTemplate by
// record id. No PocketBase client library appears anywhere in the retrieval
// pack, so this is built directly on net/http against PocketBase's
// documented REST surface (superuser password auth, /api/collections/<c>/
// records/<id>) — the one component in this repository without a
// third-party driver, because none exists to wire (see DESIGN.md).
package formstore

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"

	"github.com/email4-dev/mailer/internal/domain"
)

// Config addresses one PocketBase instance and its superuser credentials.
type Config struct {
	URL      string
	Email    string
	Password string

	FormsCollection     string
	TemplatesCollection string
}

const (
	defaultFormsCollection     = "forms"
	defaultTemplatesCollection = "templates"
	authCollection             = "_superusers"
)

// Template is the liquid-markup body a renderer executes against a
// message's decoded fields.
type Template struct {
	Subject  string
	HTMLBody string
	TextBody string
}

// Client is an authenticated PocketBase REST client. Safe for concurrent
// use: token refresh is guarded by a mutex so concurrent retry-mode fetches
// never race to re-authenticate.
type Client struct {
	httpClient *http.Client
	baseURL    string
	email      string
	password   string

	formsCollection     string
	templatesCollection string

	mu    sync.Mutex
	token string
}

// New builds a Client and performs the initial authentication, matching the
// Lifecycle requirement that the form store "must authenticate successfully"
// at bootstrap.
func New(ctx context.Context, cfg Config) (*Client, error) {
	forms := cfg.FormsCollection
	if forms == "" {
		forms = defaultFormsCollection
	}
	templates := cfg.TemplatesCollection
	if templates == "" {
		templates = defaultTemplatesCollection
	}

	c := &Client{
		httpClient:          &http.Client{},
		baseURL:             strings.TrimRight(cfg.URL, "/"),
		email:               cfg.Email,
		password:            cfg.Password,
		formsCollection:     forms,
		templatesCollection: templates,
	}

	if err := c.authenticate(ctx); err != nil {
		return nil, fmt.Errorf("form store authentication failed: %w", err)
	}
	return c, nil
}

func (c *Client) authenticate(ctx context.Context) error {
	body, err := json.Marshal(map[string]string{
		"identity": c.email,
		"password": c.password,
	})
	if err != nil {
		return fmt.Errorf("failed to encode auth request: %w", err)
	}

	url := fmt.Sprintf("%s/api/collections/%s/auth-with-password", c.baseURL, authCollection)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to build auth request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("auth request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("auth request returned status %d", resp.StatusCode)
	}

	var parsed struct {
		Token string `json:"token"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return fmt.Errorf("failed to decode auth response: %w", err)
	}

	c.mu.Lock()
	c.token = parsed.Token
	c.mu.Unlock()
	return nil
}

// GetForm implements domain.FormStore. A 404 maps to domain.ErrFormNotFound.
func (c *Client) GetForm(ctx context.Context, formID string) (*domain.FormRecord, error) {
	var record pbFormRecord
	if err := c.getRecord(ctx, c.formsCollection, formID, &record); err != nil {
		return nil, err
	}
	return record.toDomain(), nil
}

// GetTemplate resolves a template reference to its liquid markup body, for
// the default renderer.
func (c *Client) GetTemplate(ctx context.Context, templateID string) (*Template, error) {
	var record pbTemplateRecord
	if err := c.getRecord(ctx, c.templatesCollection, templateID, &record); err != nil {
		return nil, err
	}
	return &Template{Subject: record.Subject, HTMLBody: record.HTMLBody, TextBody: record.TextBody}, nil
}

func (c *Client) getRecord(ctx context.Context, collection string, id string, out interface{}) error {
	resp, err := c.doAuthed(ctx, http.MethodGet, fmt.Sprintf("/api/collections/%s/records/%s", collection, id), nil)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return domain.ErrFormNotFound
	}
	if resp.StatusCode != http.StatusOK {
		blob, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("form store returned status %d: %s", resp.StatusCode, string(blob))
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode record %s/%s: %w", collection, id, err)
	}
	return nil
}

// doAuthed issues a request with the cached bearer token, transparently
// re-authenticating once on a 401 before giving up.
func (c *Client) doAuthed(ctx context.Context, method string, path string, body io.Reader) (*http.Response, error) {
	resp, err := c.doOnce(ctx, method, path, body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusUnauthorized {
		return resp, nil
	}
	resp.Body.Close()

	if err := c.authenticate(ctx); err != nil {
		return nil, fmt.Errorf("re-authentication after 401 failed: %w", err)
	}
	return c.doOnce(ctx, method, path, body)
}

func (c *Client) doOnce(ctx context.Context, method string, path string, body io.Reader) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	c.mu.Lock()
	token := c.token
	c.mu.Unlock()
	req.Header.Set("Authorization", token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	return resp, nil
}

// ClearAuth discards the cached bearer token, for the lifecycle shutdown
// step that clears authentication before disconnecting the remaining
// backing connections.
func (c *Client) ClearAuth() {
	c.mu.Lock()
	c.token = ""
	c.mu.Unlock()
}

// Healthy performs a lightweight authenticated request to confirm the
// stored token and endpoint are still good.
func (c *Client) Healthy(ctx context.Context) error {
	resp, err := c.doAuthed(ctx, http.MethodGet, fmt.Sprintf("/api/collections/%s/records", c.formsCollection), nil)
	if err != nil {
		return fmt.Errorf("form store health check failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 500 {
		return fmt.Errorf("form store health check returned status %d", resp.StatusCode)
	}
	return nil
}

// pbFormRecord mirrors the forms collection schema in PocketBase.
type pbFormRecord struct {
	ID              string `json:"id"`
	AllowDuplicates bool   `json:"allow_duplicates"`
	Handler         struct {
		FromName  string `json:"from_name"`
		FromEmail string `json:"from_email"`
		To        string `json:"to"`
		ReplyTo   string `json:"reply_to"`
		Template  string `json:"template"`
		Gateway   string `json:"gateway"`
	} `json:"handler"`
}

func (r *pbFormRecord) toDomain() *domain.FormRecord {
	return &domain.FormRecord{
		ID:              r.ID,
		AllowDuplicates: r.AllowDuplicates,
		Handler: domain.HandlerRecord{
			FromName:  r.Handler.FromName,
			FromEmail: r.Handler.FromEmail,
			To:        r.Handler.To,
			ReplyTo:   r.Handler.ReplyTo,
			Template:  r.Handler.Template,
			Gateway:   r.Handler.Gateway,
		},
	}
}

type pbTemplateRecord struct {
	ID       string `json:"id"`
	Subject  string `json:"subject"`
	HTMLBody string `json:"html_body"`
	TextBody string `json:"text_body"`
}
