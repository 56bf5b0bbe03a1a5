// Package session holds the signed in state of a storefront client: the API
// token and the profile of the user it belongs to, mirrored into persistent
// storage so the state survives a restart.
package session

import (
	"context"
	"errors"
	"log"
	"sync"
)

// Storage keys.
const (
	KeyToken     = "token"
	KeyEmail     = "email"
	KeyFirstName = "firstName"
	KeyLastName  = "lastName"
	KeyAvatarURL = "avatarUrl"
	KeyRole      = "role"
)

var allKeys = []string{KeyToken, KeyEmail, KeyFirstName, KeyLastName, KeyAvatarURL, KeyRole}

// Profile describes the signed in user.
type Profile struct {
	Email     string `json:"email"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	AvatarURL string `json:"avatarUrl"`
	Role      string `json:"role"`
}

// Session is a snapshot of the client state. The zero value is anonymous.
type Session struct {
	Token   string
	Profile Profile
}

// LoggedIn reports whether the session carries a token.
func (s Session) LoggedIn() bool {
	return s.Token != ""
}

// Terminator ends a session on the server.
type Terminator interface {
	Logout(ctx context.Context, token string) error
}

// TerminatorFunc adapts a function to Terminator.
type TerminatorFunc func(ctx context.Context, token string) error

func (f TerminatorFunc) Logout(ctx context.Context, token string) error {
	return f(ctx, token)
}

// Provider owns the session of one client and keeps storage in step with it.
type Provider struct {
	mu         sync.RWMutex
	storage    Storage
	terminator Terminator
	current    Session
	listeners  map[int]func(Session)
	nextID     int
}

// NewProvider restores the session found in storage. terminator may be nil,
// in which case Logout only clears local state.
func NewProvider(storage Storage, terminator Terminator) *Provider {
	p := &Provider{
		storage:    storage,
		terminator: terminator,
		listeners:  make(map[int]func(Session)),
	}
	get := func(key string) string {
		v, _ := storage.Get(key)
		return v
	}
	p.current = Session{
		Token: get(KeyToken),
		Profile: Profile{
			Email:     get(KeyEmail),
			FirstName: get(KeyFirstName),
			LastName:  get(KeyLastName),
			AvatarURL: get(KeyAvatarURL),
			Role:      get(KeyRole),
		},
	}
	return p
}

// Session returns the current session.
func (p *Provider) Session() Session {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.current
}

// IsLoggedIn reports whether a token is held.
func (p *Provider) IsLoggedIn() bool {
	return p.Session().LoggedIn()
}

// Login stores token and profile as the current session.
func (p *Provider) Login(token string, profile Profile) error {
	if token == "" {
		return errors.New("session: empty token")
	}

	p.mu.Lock()
	p.current = Session{Token: token, Profile: profile}
	values := map[string]string{
		KeyToken:     token,
		KeyEmail:     profile.Email,
		KeyFirstName: profile.FirstName,
		KeyLastName:  profile.LastName,
		KeyAvatarURL: profile.AvatarURL,
		KeyRole:      profile.Role,
	}
	var errs []error
	for _, key := range allKeys {
		if err := p.storage.Set(key, values[key]); err != nil {
			errs = append(errs, err)
		}
	}
	snapshot := p.current
	p.mu.Unlock()

	p.notify(snapshot)
	return errors.Join(errs...)
}

// Logout ends the session on the server and clears it locally. A failed
// remote call is logged only; local state is cleared either way.
func (p *Provider) Logout(ctx context.Context) error {
	token := p.Session().Token
	if token != "" && p.terminator != nil {
		if err := p.terminator.Logout(ctx, token); err != nil {
			log.Printf("Error terminating session on server: %v", err)
		}
	}
	return p.ClearStorage()
}

// ClearStorage drops the session locally without contacting the server.
func (p *Provider) ClearStorage() error {
	p.mu.Lock()
	p.current = Session{}
	var errs []error
	for _, key := range allKeys {
		if err := p.storage.Remove(key); err != nil {
			errs = append(errs, err)
		}
	}
	p.mu.Unlock()

	p.notify(Session{})
	return errors.Join(errs...)
}

// Subscribe registers fn to be called with every new session. The returned
// function unregisters it.
func (p *Provider) Subscribe(fn func(Session)) (unsubscribe func()) {
	p.mu.Lock()
	id := p.nextID
	p.nextID++
	p.listeners[id] = fn
	p.mu.Unlock()

	return func() {
		p.mu.Lock()
		delete(p.listeners, id)
		p.mu.Unlock()
	}
}

func (p *Provider) notify(s Session) {
	p.mu.RLock()
	fns := make([]func(Session), 0, len(p.listeners))
	for _, fn := range p.listeners {
		fns = append(fns, fn)
	}
	p.mu.RUnlock()

	for _, fn := range fns {
		fn(s)
	}
}

type providerKey struct{}

// WithProvider returns a copy of ctx carrying p.
func WithProvider(ctx context.Context, p *Provider) context.Context {
	return context.WithValue(ctx, providerKey{}, p)
}

// FromContext returns the provider stored by WithProvider, or nil.
func FromContext(ctx context.Context) *Provider {
	p, _ := ctx.Value(providerKey{}).(*Provider)
	return p
}
