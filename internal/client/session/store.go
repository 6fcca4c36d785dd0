package session

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/dmitrijs2005/jobportal/internal/client/models"
	"github.com/dmitrijs2005/jobportal/internal/client/repositories/metadata"
	"github.com/dmitrijs2005/jobportal/internal/logging"
)

// ErrNotPersisted is returned when the in-memory session changed but the
// durable copy could not be written. The session keeps working for this
// process; a restart may not resume it.
var ErrNotPersisted = errors.New("session state not persisted")

// Store owns the session state of the application. It is created by the
// application root and passed to the API client and the UI layer.
type Store struct {
	mu          sync.RWMutex
	state       State
	repo        metadata.Repository
	logger      logging.Logger
	subscribers map[int]func(State)
	nextSubID   int
}

func NewStore(repo metadata.Repository, logger logging.Logger) *Store {
	return &Store{
		repo:        repo,
		logger:      logger,
		subscribers: make(map[int]func(State)),
	}
}

// State returns a snapshot of the current state.
func (s *Store) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.clone()
}

func (s *Store) IsAuthenticated() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.IsAuthenticated()
}

// User returns a copy of the current user or nil.
func (s *Store) User() *models.User {
	return s.State().User
}

// Credential returns a copy of the current credential or nil.
func (s *Store) Credential() *models.Credential {
	return s.State().Credential
}

// Subscribe registers fn to be called with a snapshot after every transition.
// The returned function removes the subscription.
func (s *Store) Subscribe(fn func(State)) func() {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.nextSubID
	s.nextSubID++
	s.subscribers[id] = fn

	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.subscribers, id)
	}
}

// SetCredential replaces the credential; nil removes it.
func (s *Store) SetCredential(ctx context.Context, cred *models.Credential) error {
	return s.dispatch(ctx, Action{Type: ActionSetCredential, Credential: cred})
}

// SetUser replaces the user; nil removes it.
func (s *Store) SetUser(ctx context.Context, u *models.User) error {
	return s.dispatch(ctx, Action{Type: ActionSetUser, User: u})
}

// Login stores a freshly issued credential together with its user.
func (s *Store) Login(ctx context.Context, cred models.Credential, u models.User) error {
	return s.dispatch(ctx, Action{Type: ActionLogin, Credential: &cred, User: &u})
}

// Logout attempts notify (the server-side logout) and then clears the
// session unconditionally, even when ctx ended during notify. A notify
// failure is logged and otherwise ignored; the only error returned is a
// failure to clear durable storage.
func (s *Store) Logout(ctx context.Context, notify func(ctx context.Context) error) (err error) {
	defer func() {
		err = s.dispatch(ctx, Action{Type: ActionLogout})
	}()

	if notify != nil {
		if nerr := notify(ctx); nerr != nil {
			s.logger.Warn(ctx, "server logout failed, clearing local session anyway", "error", nerr)
		}
	}
	return nil
}

// SetLoading and SetError only touch memory.
func (s *Store) SetLoading(loading bool) {
	_ = s.dispatch(context.Background(), Action{Type: ActionSetLoading, Loading: loading})
}

func (s *Store) SetError(msg string) {
	_ = s.dispatch(context.Background(), Action{Type: ActionSetError, Error: msg})
}

// Restore rehydrates the session from durable storage. A stored user without
// a credential is dropped; a credential without a stored user gets a partial
// user derived from the token claims when possible.
func (s *Store) Restore(ctx context.Context) error {
	s.mu.Lock()

	token, err := s.repo.Get(ctx, models.KeyAuthToken)
	if err != nil {
		s.mu.Unlock()
		return fmt.Errorf("restore session: %w", err)
	}
	refresh, err := s.repo.Get(ctx, models.KeyRefreshToken)
	if err != nil {
		s.mu.Unlock()
		return fmt.Errorf("restore session: %w", err)
	}
	rawUser, err := s.repo.Get(ctx, models.KeyUser)
	if err != nil {
		s.mu.Unlock()
		return fmt.Errorf("restore session: %w", err)
	}

	user, err := models.UnmarshalUser(rawUser)
	if err != nil {
		s.logger.Warn(ctx, "stored user is unreadable, ignoring it", "error", err)
		user = nil
	}

	var next State
	switch {
	case len(token) == 0:
		next = State{}
		if len(rawUser) > 0 || len(refresh) > 0 {
			if err := s.repo.DeleteKeys(ctx, models.SessionKeys...); err != nil {
				s.logger.Warn(ctx, "failed to drop stale session keys", "error", err)
			}
		}
	default:
		cred := &models.Credential{AccessToken: string(token), RefreshToken: string(refresh)}
		if user == nil {
			user = userFromToken(cred.AccessToken)
		}
		next = Reduce(State{}, Action{Type: ActionLogin, Credential: cred, User: user})
	}

	s.state = next
	snapshot, subs := s.snapshotLocked()
	s.mu.Unlock()

	s.notify(snapshot, subs)
	s.logger.Debug(ctx, "session restored", "authenticated", snapshot.IsAuthenticated())
	return nil
}

// AccessToken returns the token to attach to outbound requests.
func (s *Store) AccessToken() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.state.Credential == nil {
		return ""
	}
	return s.state.Credential.AccessToken
}

// RefreshToken reads the refresh token from durable storage, which is the
// copy that survives restarts and is rotated by refreshes.
func (s *Store) RefreshToken(ctx context.Context) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	v, err := s.repo.Get(ctx, models.KeyRefreshToken)
	if err != nil {
		return "", err
	}
	return string(v), nil
}

// UpdateTokens stores a refreshed credential pair.
func (s *Store) UpdateTokens(ctx context.Context, cred models.Credential) error {
	return s.SetCredential(ctx, &cred)
}

// Invalidate drops the whole session after an unrecoverable refresh failure.
func (s *Store) Invalidate(ctx context.Context) error {
	return s.dispatch(ctx, Action{Type: ActionLogout})
}

// dispatch applies a to memory and mirrors it to durable storage. Memory
// changes regardless of ctx, so the write is detached from its cancellation;
// otherwise a cancelled caller would leave the two copies apart.
func (s *Store) dispatch(ctx context.Context, a Action) error {
	s.mu.Lock()

	s.state = Reduce(s.state, a)
	err := s.sync(context.WithoutCancel(ctx), a, s.state)
	snapshot, subs := s.snapshotLocked()

	s.mu.Unlock()

	if err != nil {
		s.logger.Warn(ctx, "session changed in memory only", "action", a.Type.String(), "error", err)
		err = fmt.Errorf("%w: %w", ErrNotPersisted, err)
	}
	s.notify(snapshot, subs)
	return err
}

// sync mirrors the part of next touched by a into durable storage.
func (s *Store) sync(ctx context.Context, a Action, next State) error {
	switch a.Type {
	case ActionSetCredential:
		return s.syncCredential(ctx, next.Credential)
	case ActionSetUser:
		return s.syncUser(ctx, next.User)
	case ActionLogin:
		if err := s.syncCredential(ctx, next.Credential); err != nil {
			return err
		}
		return s.syncUser(ctx, next.User)
	case ActionLogout:
		return s.repo.DeleteKeys(ctx, models.SessionKeys...)
	default:
		return nil
	}
}

func (s *Store) syncCredential(ctx context.Context, cred *models.Credential) error {
	if cred == nil {
		return s.repo.DeleteKeys(ctx, models.KeyAuthToken, models.KeyRefreshToken)
	}

	values := map[string][]byte{models.KeyAuthToken: []byte(cred.AccessToken)}
	if cred.RefreshToken != "" {
		values[models.KeyRefreshToken] = []byte(cred.RefreshToken)
	}
	if err := s.repo.SetMany(ctx, values); err != nil {
		return err
	}
	if cred.RefreshToken == "" {
		return s.repo.Delete(ctx, models.KeyRefreshToken)
	}
	return nil
}

func (s *Store) syncUser(ctx context.Context, u *models.User) error {
	if u == nil {
		return s.repo.Delete(ctx, models.KeyUser)
	}
	data, err := models.MarshalUser(u)
	if err != nil {
		return err
	}
	return s.repo.Set(ctx, models.KeyUser, data)
}

func (s *Store) snapshotLocked() (State, []func(State)) {
	subs := make([]func(State), 0, len(s.subscribers))
	for _, fn := range s.subscribers {
		subs = append(subs, fn)
	}
	return s.state.clone(), subs
}

func (s *Store) notify(st State, subs []func(State)) {
	for _, fn := range subs {
		fn(st.clone())
	}
}
