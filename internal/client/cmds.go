package client

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"
)

// --- Bubble Tea messages ---

// LoginDoneMsg reports the outcome of a login attempt.
type LoginDoneMsg struct{ Err error }

// LogoutDoneMsg reports the outcome of a logout attempt.
type LogoutDoneMsg struct{ Err error }

// FetchDoneMsg carries the serialized body (or error) for one target.
type FetchDoneMsg struct {
	Target Target
	Body   string
	Err    error
}

// API is the subset of HTTPClient the commands need.
type API interface {
	Login(ctx context.Context, creds Credentials) error
	Logout(ctx context.Context) error
	Fetch(ctx context.Context, t Target) (string, error)
}

// LoginCmd returns a command that performs the login request off the event
// loop and reports back with LoginDoneMsg.
func LoginCmd(ctx context.Context, api API, creds Credentials) tea.Cmd {
	return func() tea.Msg {
		return LoginDoneMsg{Err: api.Login(ctx, creds)}
	}
}

// LogoutCmd returns a command that performs the logout request.
func LogoutCmd(ctx context.Context, api API) tea.Cmd {
	return func() tea.Msg {
		return LogoutDoneMsg{Err: api.Logout(ctx)}
	}
}

// FetchCmd returns a command that fetches t. Commands for different targets
// may be in flight at the same time; each message names its own target.
func FetchCmd(ctx context.Context, api API, t Target) tea.Cmd {
	return func() tea.Msg {
		body, err := api.Fetch(ctx, t)
		return FetchDoneMsg{Target: t, Body: body, Err: err}
	}
}
