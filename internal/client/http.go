package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/cookiejar"
	"strings"
	"time"

	"github.com/authdemo/console/internal/logging"
	"github.com/charmbracelet/x/ansi"
	"github.com/google/uuid"
	"golang.org/x/net/publicsuffix"
)

const maxErrorBody = 512

// Endpoints holds the base URLs of the three collaborators. They are used
// verbatim; no shape validation is performed.
type Endpoints struct {
	Auth string
	App1 string
	App2 string
}

// HTTPClient makes credentialed calls to the Auth, App1 and App2 services.
// A single cookie jar is shared by all of them so the session cookie issued
// by the Auth service accompanies every later request.
type HTTPClient struct {
	endpoints Endpoints
	client    *http.Client
	logger    *slog.Logger
}

// NewHTTPClient creates a client for the given endpoints. The client has no
// timeout; a request runs until the server or the transport gives up.
func NewHTTPClient(endpoints Endpoints, logger *slog.Logger) (*HTTPClient, error) {
	jar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
	if err != nil {
		return nil, fmt.Errorf("create cookie jar: %w", err)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &HTTPClient{
		endpoints: endpoints,
		client:    &http.Client{Jar: jar},
		logger:    logger,
	}, nil
}

// Endpoints returns the configured base URLs.
func (c *HTTPClient) Endpoints() Endpoints {
	return c.endpoints
}

// Login sends POST {auth}/login with the credential pair. Only the status
// matters; the response body is discarded.
func (c *HTTPClient) Login(ctx context.Context, creds Credentials) error {
	_, err := c.do(ctx, http.MethodPost, c.endpoints.Auth+"/login", creds)
	return err
}

// Logout sends POST {auth}/logout with an empty JSON object.
func (c *HTTPClient) Logout(ctx context.Context) error {
	_, err := c.do(ctx, http.MethodPost, c.endpoints.Auth+"/logout", struct{}{})
	return err
}

// Fetch GETs the endpoint behind t and returns the body serialized the way
// the result slot displays it.
func (c *HTTPClient) Fetch(ctx context.Context, t Target) (string, error) {
	body, err := c.do(ctx, http.MethodGet, c.baseURL(t.Service())+t.Path(), nil)
	if err != nil {
		return "", err
	}
	return Serialize(body)
}

func (c *HTTPClient) baseURL(s Service) string {
	switch s {
	case ServiceAuth:
		return c.endpoints.Auth
	case ServiceApp1:
		return c.endpoints.App1
	default:
		return c.endpoints.App2
	}
}

func (c *HTTPClient) do(ctx context.Context, method, url string, body interface{}) ([]byte, error) {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("encode %s body: %w", url, err)
		}
		reader = bytes.NewReader(data)
	}

	requestID := uuid.NewString()
	ctx = logging.WithCorrelationID(ctx, requestID)

	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return nil, fmt.Errorf("build %s %s: %w", method, url, err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", requestID)

	start := time.Now()
	resp, err := c.client.Do(req)
	if err != nil {
		c.logger.WarnContext(ctx, "request failed", "method", method, "url", url, "error", err)
		return nil, fmt.Errorf("%s %s: %w", method, url, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read %s %s: %w", method, url, err)
	}
	c.logger.InfoContext(ctx, "request complete",
		"method", method,
		"url", url,
		"status", resp.StatusCode,
		"duration", time.Since(start),
	)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet := ansi.Truncate(strings.TrimSpace(string(data)), maxErrorBody, "…")
		return nil, &StatusError{Method: method, URL: url, Code: resp.StatusCode, Body: snippet}
	}
	return data, nil
}
