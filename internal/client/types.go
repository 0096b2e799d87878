// Package client provides the HTTP client for the Auth, App1 and App2
// services together with the Bubble Tea commands that drive it.
package client

import "fmt"

// Target identifies one of the downstream data endpoints.
type Target int

const (
	App1Root Target = iota
	App2ViaApp1
	App2Root
)

// Targets lists every fetch target in display order.
var Targets = []Target{App1Root, App2ViaApp1, App2Root}

// Service names the collaborator a target is served by.
type Service string

const (
	ServiceAuth Service = "auth"
	ServiceApp1 Service = "app1"
	ServiceApp2 Service = "app2"
)

// Service returns the collaborator that answers requests for t.
func (t Target) Service() Service {
	switch t {
	case App1Root, App2ViaApp1:
		return ServiceApp1
	default:
		return ServiceApp2
	}
}

// Path returns the request path on the target's service.
func (t Target) Path() string {
	if t == App2ViaApp1 {
		return "/read_app2"
	}
	return "/"
}

// Label is the short button label, e.g. "app1/read_app2".
func (t Target) Label() string {
	return string(t.Service()) + t.Path()
}

// ErrorText is the fixed string shown when a fetch of t fails.
func (t Target) ErrorText() string {
	return "Error fetching " + t.Label()
}

func (t Target) String() string {
	switch t {
	case App1Root:
		return "app1-root"
	case App2ViaApp1:
		return "app2-via-app1"
	case App2Root:
		return "app2-root"
	default:
		return fmt.Sprintf("target(%d)", int(t))
	}
}

// Credentials is the login request body.
type Credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// StatusError is returned for any response outside the 2xx range.
type StatusError struct {
	Method string
	URL    string
	Code   int
	Body   string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s %s: %d %s", e.Method, e.URL, e.Code, e.Body)
}
