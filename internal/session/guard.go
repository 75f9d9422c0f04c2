package session

import "time"

// Decision is the outcome of evaluating the guard for one page request.
type Decision int

const (
	Allow Decision = iota
	Redirect
)

// LoginPath is where Redirect sends the browser.
const LoginPath = "/login"

// Guard allows the request when the session holds a credential that has not
// expired by now. It only reads the session and is evaluated on every request.
func Guard(s *Session, now time.Time) Decision {
	if s == nil {
		return Redirect
	}
	cred, ok := s.Credential()
	if !ok || cred.Expired(now) {
		return Redirect
	}
	return Allow
}
