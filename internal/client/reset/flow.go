package reset

import (
	"context"
	"errors"
	"sync"

	"github.com/dmitrijs2005/jobportal/internal/client/client"
	"github.com/dmitrijs2005/jobportal/internal/client/models"
)

var (
	ErrMissingToken       = errors.New("reset link is invalid or incomplete")
	ErrRequirementsNotMet = errors.New("password does not meet the requirements")
	ErrOffline            = errors.New("you are offline")
	ErrInFlight           = errors.New("reset already in progress")
	ErrAlreadySubmitted   = errors.New("password already reset")
)

type Phase int

const (
	PhaseEditing Phase = iota
	PhaseValidating
	PhaseSubmitted
)

func (p Phase) String() string {
	switch p {
	case PhaseEditing:
		return "editing"
	case PhaseValidating:
		return "validating"
	case PhaseSubmitted:
		return "submitted"
	default:
		return "unknown"
	}
}

// Submitter completes a reset on the backend.
type Submitter interface {
	ResetPassword(ctx context.Context, token, newPassword string) (*client.MessageResponse, error)
}

// Flow is one attempt to set a new password from a reset link.
type Flow struct {
	mu           sync.Mutex
	token        string
	password     string
	confirmation string
	req          Requirements
	phase        Phase
	online       bool
	lastErr      string
	submitter    Submitter
}

// New starts a flow for token. An empty token leaves the flow unusable:
// every Submit fails with ErrMissingToken.
func New(token string, s Submitter) *Flow {
	f := &Flow{token: token, submitter: s, online: true}
	if token == "" {
		f.lastErr = ErrMissingToken.Error()
	}
	return f
}

func (f *Flow) SetPassword(p string) Requirements {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.password = p
	f.req = Evaluate(f.password, f.confirmation)
	return f.req
}

func (f *Flow) SetConfirmation(c string) Requirements {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.confirmation = c
	f.req = Evaluate(f.password, f.confirmation)
	return f.req
}

func (f *Flow) Requirements() Requirements {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.req
}

// SetOnline records connectivity; submission is blocked while offline.
func (f *Flow) SetOnline(online bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.online = online
}

func (f *Flow) CanSubmit() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.checkLocked() == nil
}

func (f *Flow) checkLocked() error {
	switch {
	case f.token == "":
		return ErrMissingToken
	case f.phase == PhaseValidating:
		return ErrInFlight
	case f.phase == PhaseSubmitted:
		return ErrAlreadySubmitted
	case !f.online:
		return ErrOffline
	case !f.req.AllMet():
		return ErrRequirementsNotMet
	default:
		return nil
	}
}

// Submit sends the new password. On success the caller navigates to the
// returned route; no session is created.
func (f *Flow) Submit(ctx context.Context) (models.Route, error) {
	f.mu.Lock()
	if err := f.checkLocked(); err != nil {
		if !errors.Is(err, ErrInFlight) {
			f.lastErr = err.Error()
		}
		f.mu.Unlock()
		return "", err
	}
	token, password := f.token, f.password
	f.phase = PhaseValidating
	f.lastErr = ""
	f.mu.Unlock()

	_, err := f.submitter.ResetPassword(ctx, token, password)

	f.mu.Lock()
	defer f.mu.Unlock()
	if err != nil {
		f.phase = PhaseEditing
		f.lastErr = client.Message(err)
		return "", err
	}
	f.phase = PhaseSubmitted
	f.password, f.confirmation = "", ""
	return models.RouteLogin, nil
}

func (f *Flow) Phase() Phase {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.phase
}

// Err returns the message of the last failure, or "".
func (f *Flow) Err() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.lastErr
}
