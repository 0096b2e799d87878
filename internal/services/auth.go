package services

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/authdemo/console/internal/metrics"
	"github.com/labstack/echo/v4"
)

// CookieName is the session cookie shared by all services.
const CookieName = "access_token"

type loginRequest struct {
	Username *string `json:"username"`
	Password *string `json:"password"`
}

type authHandlers struct {
	users  *Users
	tokens *Tokens
}

// NewAuth builds the Auth service: POST /login and POST /logout.
func NewAuth(users *Users, tokens *Tokens, origins []string, logger *slog.Logger) *Server {
	s := newServer("auth", origins, logger)
	h := &authHandlers{users: users, tokens: tokens}
	s.echo.POST("/login", h.login)
	s.echo.POST("/logout", h.logout)
	return s
}

func (h *authHandlers) login(c echo.Context) error {
	var req loginRequest
	if err := json.NewDecoder(c.Request().Body).Decode(&req); err != nil || req.Username == nil || req.Password == nil {
		metrics.LoginAttemptsTotal.WithLabelValues("malformed").Inc()
		return echo.NewHTTPError(http.StatusUnprocessableEntity, "username and password are required")
	}

	if !h.users.Check(*req.Username, *req.Password) {
		metrics.LoginAttemptsTotal.WithLabelValues("invalid").Inc()
		return echo.NewHTTPError(http.StatusUnauthorized, "Invalid credentials")
	}

	token, err := h.tokens.Issue(*req.Username)
	if err != nil {
		return err
	}
	metrics.LoginAttemptsTotal.WithLabelValues("success").Inc()

	c.SetCookie(sessionCookie(token, 0))
	return c.JSON(http.StatusOK, map[string]string{
		"access_token": token,
		"token_type":   "bearer",
	})
}

func (h *authHandlers) logout(c echo.Context) error {
	c.SetCookie(sessionCookie("", -1))
	return c.JSON(http.StatusOK, map[string]string{"message": "Logged out successfully"})
}

// sessionCookie builds the access_token cookie. Deletion uses the same
// attributes as creation so browsers match it.
func sessionCookie(value string, maxAge int) *http.Cookie {
	return &http.Cookie{
		Name:     CookieName,
		Value:    value,
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   false,
		SameSite: http.SameSiteStrictMode,
	}
}
