// Package session implements signup, login, logout and restore of visitor
// sessions on top of the remote API and a durable session store.
package session

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/go-hclog"

	"github.com/Clark-Hu/cinelog/internal/backend"
	"github.com/Clark-Hu/cinelog/internal/catalog"
	"github.com/Clark-Hu/cinelog/internal/domain"
	"github.com/Clark-Hu/cinelog/internal/repository"
)

var (
	// ErrAuthFailed is the only error auth callers surface to visitors.
	ErrAuthFailed = errors.New("invalid credentials or backend unreachable")
	// ErrMissingCredentials is returned for a blank username or password.
	ErrMissingCredentials = errors.New("username and password are required")
	// ErrNotAuthenticated is returned by operations that need a session.
	ErrNotAuthenticated = errors.New("you must be logged in")
)

// Remote is the part of the API client used for authentication.
type Remote interface {
	Signup(ctx context.Context, username, password string) (domain.User, error)
	Login(ctx context.Context, username, password string) (backend.LoginResult, error)
	ListUsers(ctx context.Context) ([]domain.User, error)
	UpdateUser(ctx context.Context, token string, id int, username string) (domain.User, error)
}

// Store persists sessions.
type Store interface {
	Create(ctx context.Context, s domain.Session) (domain.Session, error)
	Get(ctx context.Context, id string) (domain.Session, error)
	Delete(ctx context.Context, id string) error
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
	UpdateUsername(ctx context.Context, userID int, username string) error
}

// MarkLoader is notified when a user logs in or out.
type MarkLoader interface {
	Load(ctx context.Context, token string, userID int) error
	Forget(userID int)
}

// Visitor is who is behind a request.
type Visitor struct {
	State   domain.SessionState
	Session *domain.Session
}

// Anonymous is the visitor without a session.
var Anonymous = Visitor{State: domain.StateAnonymous}

// Authenticated reports whether v holds a usable session.
func (v Visitor) Authenticated() bool {
	return v.State == domain.StateAuthenticated && v.Session != nil
}

// UserID is the authenticated user's id, or 0.
func (v Visitor) UserID() int {
	if !v.Authenticated() {
		return 0
	}
	return v.Session.UserID
}

// Token is the bearer token of the session, or "".
func (v Visitor) Token() string {
	if !v.Authenticated() {
		return ""
	}
	return v.Session.Token
}

// Options tunes a Manager.
type Options struct {
	TTL    time.Duration
	Marks  MarkLoader
	Logger hclog.Logger
	Now    func() time.Time
}

// Manager drives the authentication flow.
type Manager struct {
	remote Remote
	store  Store
	marks  MarkLoader
	ttl    time.Duration
	logger hclog.Logger
	now    func() time.Time
}

// NewManager builds a Manager. A zero TTL defaults to 30 days.
func NewManager(remote Remote, store Store, opts Options) *Manager {
	m := &Manager{
		remote: remote,
		store:  store,
		marks:  opts.Marks,
		ttl:    opts.TTL,
		logger: opts.Logger,
		now:    opts.Now,
	}
	if m.ttl <= 0 {
		m.ttl = 30 * 24 * time.Hour
	}
	if m.logger == nil {
		m.logger = hclog.NewNullLogger()
	}
	if m.now == nil {
		m.now = time.Now
	}
	return m
}

// Signup creates the account, then logs in with the same credentials.
// On failure current is returned unchanged.
func (m *Manager) Signup(ctx context.Context, current Visitor, username, password string) (Visitor, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return current, ErrMissingCredentials
	}
	created, err := m.remote.Signup(ctx, username, password)
	if err != nil {
		m.logger.Warn("signup failed", "username", username, "error", err)
		return current, fmt.Errorf("%w: %v", ErrAuthFailed, err)
	}
	return m.login(ctx, current, username, password, &created)
}

// Login authenticates and persists a new session. On failure current is
// returned unchanged.
func (m *Manager) Login(ctx context.Context, current Visitor, username, password string) (Visitor, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return current, ErrMissingCredentials
	}
	return m.login(ctx, current, username, password, nil)
}

func (m *Manager) login(ctx context.Context, current Visitor, username, password string, created *domain.User) (Visitor, error) {
	flow := NewFlow(current.State)
	if err := flow.Begin(); err != nil {
		return current, err
	}
	fail := func(stage string, err error) (Visitor, error) {
		flow.Fail()
		m.logger.Warn("login failed", "stage", stage, "username", username, "error", err)
		return current, fmt.Errorf("%w: %v", ErrAuthFailed, err)
	}

	res, err := m.remote.Login(ctx, username, password)
	if err != nil {
		return fail("login", err)
	}

	user, err := m.resolveUser(ctx, username, created)
	if err != nil {
		return fail("resolve user", err)
	}

	now := m.now()
	sess, err := m.store.Create(ctx, domain.Session{
		ID:        uuid.NewString(),
		UserID:    user.ID,
		Username:  user.Username,
		Token:     res.AccessToken,
		CreatedAt: now,
		ExpiresAt: now.Add(m.ttl),
	})
	if err != nil {
		return fail("persist session", err)
	}
	if err := flow.Succeed(); err != nil {
		return fail("complete", err)
	}

	if current.Session != nil {
		if err := m.store.Delete(ctx, current.Session.ID); err != nil {
			m.logger.Warn("could not drop replaced session", "error", err)
		}
	}
	if m.marks != nil {
		if err := m.marks.Load(ctx, sess.Token, sess.UserID); err != nil {
			m.logger.Warn("could not load marks after login", "user", sess.UserID, "error", err)
		}
	}

	m.logger.Info("user logged in", "user", sess.UserID)
	return Visitor{State: flow.State(), Session: &sess}, nil
}

// resolveUser finds the logged-in user in the refreshed user list, falling
// back to the record signup returned.
func (m *Manager) resolveUser(ctx context.Context, username string, created *domain.User) (domain.User, error) {
	users, err := m.remote.ListUsers(ctx)
	if err != nil {
		if created != nil {
			return *created, nil
		}
		return domain.User{}, err
	}
	if u, ok := catalog.FindUserByName(users, username); ok {
		return u, nil
	}
	if created != nil {
		return *created, nil
	}
	return domain.User{}, fmt.Errorf("user %q not listed", username)
}

// Logout destroys the visitor's session.
func (m *Manager) Logout(ctx context.Context, v Visitor) Visitor {
	if v.Session != nil {
		if err := m.store.Delete(ctx, v.Session.ID); err != nil {
			m.logger.Warn("could not delete session", "error", err)
		}
		if m.marks != nil {
			m.marks.Forget(v.Session.UserID)
		}
	}
	flow := NewFlow(v.State)
	flow.Logout()
	return Visitor{State: flow.State()}
}

// Restore rebuilds the visitor from a session id (the cookie value). Unknown
// or expired sessions restore as anonymous with a nil error; expired ones are
// deleted. A store failure also yields anonymous but returns the error, so
// callers can keep the cookie for a later retry.
func (m *Manager) Restore(ctx context.Context, id string) (Visitor, error) {
	if id == "" {
		return Anonymous, nil
	}
	sess, err := m.store.Get(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return Anonymous, nil
		}
		m.logger.Error("restore session", "error", err)
		return Anonymous, fmt.Errorf("restore session: %w", err)
	}
	if sess.Expired(m.now()) {
		if err := m.store.Delete(ctx, sess.ID); err != nil {
			m.logger.Warn("could not delete expired session", "error", err)
		}
		return Anonymous, nil
	}
	return Visitor{State: domain.StateAuthenticated, Session: &sess}, nil
}

// Rename changes the visitor's username remotely and on their sessions.
func (m *Manager) Rename(ctx context.Context, v Visitor, username string) (Visitor, error) {
	if !v.Authenticated() {
		return v, ErrNotAuthenticated
	}
	username = strings.TrimSpace(username)
	if username == "" {
		return v, fmt.Errorf("username cannot be blank")
	}
	updated, err := m.remote.UpdateUser(ctx, v.Token(), v.UserID(), username)
	if err != nil {
		return v, fmt.Errorf("rename user: %w", err)
	}
	if err := m.store.UpdateUsername(ctx, updated.ID, updated.Username); err != nil {
		return v, err
	}
	sess := *v.Session
	sess.Username = updated.Username
	return Visitor{State: v.State, Session: &sess}, nil
}

// PurgeExpired deletes expired sessions.
func (m *Manager) PurgeExpired(ctx context.Context) (int64, error) {
	return m.store.DeleteExpired(ctx, m.now())
}

// TTL is the lifetime given to new sessions.
func (m *Manager) TTL() time.Duration {
	return m.ttl
}
