package services

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/authdemo/console/internal/metrics"
	"github.com/labstack/echo/v4"
)

const (
	subjectKey       = "sub"
	defaultBurnIters = 10000
	maxBurnIters     = 5000000
)

type app1Handlers struct {
	upstream *Upstream
}

// NewApp1 builds the App1 service. Its data routes require a valid token and
// /read_app2 relays App2's reply.
func NewApp1(tokens *Tokens, upstream *Upstream, origins []string, logger *slog.Logger) *Server {
	s := newServer("app1", origins, logger)
	h := &app1Handlers{upstream: upstream}
	auth := requireToken(tokens)
	s.echo.GET("/", h.root, auth)
	s.echo.GET("/read_app2", h.readApp2, auth)
	s.echo.GET("/burn", h.burn)
	return s
}

// NewApp2 builds the App2 service.
func NewApp2(origins []string, logger *slog.Logger) *Server {
	s := newServer("app2", origins, logger)
	s.echo.GET("/", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"message": "Hello from FastAPI App 2!"})
	})
	return s
}

// requireToken accepts a bearer token from the Authorization header first
// and falls back to the access_token cookie.
func requireToken(tokens *Tokens) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			raw := ""
			if h := c.Request().Header.Get(echo.HeaderAuthorization); strings.HasPrefix(h, "Bearer ") {
				raw = strings.TrimPrefix(h, "Bearer ")
			} else if ck, err := c.Cookie(CookieName); err == nil {
				raw = ck.Value
			}
			if raw == "" {
				metrics.TokenRejectionsTotal.WithLabelValues("missing").Inc()
				return echo.NewHTTPError(http.StatusUnauthorized, "Missing token")
			}

			claims, err := tokens.Verify(raw)
			switch {
			case errors.Is(err, ErrTokenExpired):
				metrics.TokenRejectionsTotal.WithLabelValues("expired").Inc()
				return echo.NewHTTPError(http.StatusUnauthorized, "Token expired")
			case err != nil:
				metrics.TokenRejectionsTotal.WithLabelValues("invalid").Inc()
				return echo.NewHTTPError(http.StatusUnauthorized, "Invalid token")
			}
			c.Set(subjectKey, Subject(claims, "unknown user"))
			return next(c)
		}
	}
}

func (h *app1Handlers) root(c echo.Context) error {
	sub, _ := c.Get(subjectKey).(string)
	return c.JSON(http.StatusOK, map[string]string{
		"message": "Hello from Kubernetes, " + sub + "!!!!!",
	})
}

func (h *app1Handlers) readApp2(c echo.Context) error {
	body, err := h.upstream.Get(c.Request().Context())
	switch {
	case errors.Is(err, ErrUpstreamTimeout):
		return echo.NewHTTPError(http.StatusGatewayTimeout, "timeout: "+err.Error())
	case errors.Is(err, ErrUpstreamRequest):
		return echo.NewHTTPError(http.StatusBadGateway, "request error: "+err.Error())
	case err != nil:
		return echo.NewHTTPError(http.StatusInternalServerError, "unexpected error: "+err.Error())
	}

	var app2 json.RawMessage
	if err := json.Unmarshal(body, &app2); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "unexpected error: "+err.Error())
	}
	return c.JSON(http.StatusOK, struct {
		Message      string          `json:"message"`
		App2Response json.RawMessage `json:"app2_response"`
	}{
		Message:      "Hello from FastAPI App 1 (with configmap)",
		App2Response: app2,
	})
}

// burn chains SHA-256 digests to generate CPU load.
func (h *app1Handlers) burn(c echo.Context) error {
	iterations := defaultBurnIters
	if v := c.QueryParam("iterations"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n > maxBurnIters {
			return echo.NewHTTPError(http.StatusUnprocessableEntity, "iterations must be an integer no greater than "+strconv.Itoa(maxBurnIters))
		}
		iterations = n
	}
	return c.JSON(http.StatusOK, map[string]string{"digest": BurnCPU(iterations)})
}

// BurnCPU returns the hex digest after hashing a 1 KiB block chained with
// the previous digest iterations times. Zero or negative iterations yield "".
func BurnCPU(iterations int) string {
	data := make([]byte, 1024)
	for i := range data {
		data[i] = 'x'
	}
	var result []byte
	for i := 0; i < iterations; i++ {
		sum := sha256.Sum256(append(data[:1024:1024], result...))
		result = sum[:]
	}
	return hex.EncodeToString(result)
}
