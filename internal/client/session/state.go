// Package session holds the client's authentication state: the current
// credential and user, mirrored into durable storage so a restart resumes the
// session.
//
// State transitions are pure (see Reduce); Store applies them and then runs a
// separate storage-sync step, so the transition logic is testable without a
// storage fake.
package session

import "github.com/dmitrijs2005/jobportal/internal/client/models"

// State is the aggregate session state. Authentication is derived from the
// credential and never stored separately.
type State struct {
	Credential *models.Credential
	User       *models.User
	IsLoading  bool
	LastError  string
}

func (s State) IsAuthenticated() bool {
	return s.Credential.Valid()
}

// clone returns a copy that shares no pointers with s.
func (s State) clone() State {
	out := s
	if s.Credential != nil {
		c := *s.Credential
		out.Credential = &c
	}
	if s.User != nil {
		u := *s.User
		out.User = &u
	}
	return out
}

type ActionType int

const (
	ActionSetCredential ActionType = iota
	ActionSetUser
	ActionLogin
	ActionLogout
	ActionSetLoading
	ActionSetError
)

func (t ActionType) String() string {
	switch t {
	case ActionSetCredential:
		return "set_credential"
	case ActionSetUser:
		return "set_user"
	case ActionLogin:
		return "login"
	case ActionLogout:
		return "logout"
	case ActionSetLoading:
		return "set_loading"
	case ActionSetError:
		return "set_error"
	default:
		return "unknown"
	}
}

type Action struct {
	Type       ActionType
	Credential *models.Credential
	User       *models.User
	Loading    bool
	Error      string
}

// Reduce computes the state that follows s after a. It has no side effects
// and never aliases pointers held by a.
func Reduce(s State, a Action) State {
	next := s.clone()

	switch a.Type {
	case ActionSetCredential:
		next.Credential = nil
		if a.Credential.Valid() {
			c := *a.Credential
			next.Credential = &c
		}
	case ActionSetUser:
		next.User = nil
		if a.User != nil {
			u := *a.User
			next.User = &u
		}
	case ActionLogin:
		next = Reduce(next, Action{Type: ActionSetCredential, Credential: a.Credential})
		next = Reduce(next, Action{Type: ActionSetUser, User: a.User})
		next.IsLoading = false
		next.LastError = ""
	case ActionLogout:
		next = State{}
	case ActionSetLoading:
		next.IsLoading = a.Loading
	case ActionSetError:
		next.LastError = a.Error
		next.IsLoading = false
	}

	return next
}
