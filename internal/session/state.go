// Package session holds the view controller's explicit state and the
// transitions applied when login, logout and fetch requests complete.
//
// State is only ever mutated from the UI event loop, so it carries no locks.
package session

import "github.com/authdemo/console/internal/client"

// Status messages shown after login and logout.
const (
	MsgLoginOK   = "Login successful!"
	MsgLoginFail = "Login failed!"
	MsgLogoutOK  = "Logged out."
	MsgLogoutErr = "Logout failed!"
)

// Phase is the session state machine position.
type Phase int

const (
	Anonymous Phase = iota
	Authenticated
)

func (p Phase) String() string {
	if p == Authenticated {
		return "authenticated"
	}
	return "anonymous"
}

// State is everything the controller tracks for the lifetime of the view.
type State struct {
	Credentials   client.Credentials
	Authenticated bool
	Status        string

	results [3]string
}

// Phase reports the current state machine position.
func (s State) Phase() Phase {
	if s.Authenticated {
		return Authenticated
	}
	return Anonymous
}

// SetUsername records a keystroke-driven change to the username field.
func (s *State) SetUsername(v string) { s.Credentials.Username = v }

// SetPassword records a keystroke-driven change to the password field.
func (s *State) SetPassword(v string) { s.Credentials.Password = v }

// Result returns the slot for t. Empty means never fetched (or reset).
func (s State) Result(t client.Target) string {
	if int(t) < 0 || int(t) >= len(s.results) {
		return ""
	}
	return s.results[t]
}

// ApplyLogin folds a completed login into the state. Credentials are cleared
// on both branches; the result slots are only reset on success.
func (s *State) ApplyLogin(err error) {
	s.Credentials = client.Credentials{}
	if err != nil {
		s.Status = MsgLoginFail
		s.Authenticated = false
		return
	}
	s.Status = MsgLoginOK
	s.clearResults()
	s.Authenticated = true
}

// ApplyLogout folds a completed logout into the state. A failed logout only
// changes the status message.
func (s *State) ApplyLogout(err error) {
	if err != nil {
		s.Status = MsgLogoutErr
		return
	}
	s.Status = MsgLogoutOK
	s.clearResults()
	s.Authenticated = false
}

// ApplyFetch writes the outcome of a fetch into t's slot and nowhere else.
func (s *State) ApplyFetch(t client.Target, body string, err error) {
	if int(t) < 0 || int(t) >= len(s.results) {
		return
	}
	if err != nil {
		s.results[t] = t.ErrorText()
		return
	}
	s.results[t] = body
}

func (s *State) clearResults() {
	s.results = [3]string{}
}
