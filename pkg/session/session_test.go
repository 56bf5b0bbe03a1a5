package session_test

import (
	"context"
	"errors"
	"io"
	"log"
	"os"
	"path/filepath"
	"testing"

	"storefront/pkg/session"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMain(m *testing.M) {
	log.SetOutput(io.Discard)
	os.Exit(m.Run())
}

var alice = session.Profile{
	Email:     "alice@example.com",
	FirstName: "Alice",
	LastName:  "Smith",
	AvatarURL: "https://cdn.example.com/alice.png",
	Role:      "user",
}

func TestProviderStartsAnonymous(t *testing.T) {
	p := session.NewProvider(session.NewMemoryStore(), nil)
	assert.False(t, p.IsLoggedIn())
	assert.Equal(t, session.Session{}, p.Session())
}

func TestLoginSurvivesRestart(t *testing.T) {
	store := session.NewMemoryStore()
	p := session.NewProvider(store, nil)
	require.NoError(t, p.Login("tok-1", alice))
	assert.True(t, p.IsLoggedIn())

	restored := session.NewProvider(store, nil)
	assert.Equal(t, p.Session(), restored.Session())
	assert.Equal(t, alice, restored.Session().Profile)
}

func TestLoginRejectsEmptyToken(t *testing.T) {
	p := session.NewProvider(session.NewMemoryStore(), nil)
	assert.Error(t, p.Login("", alice))
	assert.False(t, p.IsLoggedIn())
}

func TestClearStorageLeavesNoKeys(t *testing.T) {
	store := session.NewMemoryStore()
	called := false
	p := session.NewProvider(store, session.TerminatorFunc(func(context.Context, string) error {
		called = true
		return nil
	}))
	require.NoError(t, p.Login("tok-1", alice))

	require.NoError(t, p.ClearStorage())
	assert.False(t, p.IsLoggedIn())
	assert.Empty(t, store.Keys())
	assert.False(t, called, "clearing storage must not contact the server")
}

func TestLogoutClearsEvenWhenServerFails(t *testing.T) {
	store := session.NewMemoryStore()
	var gotToken string
	p := session.NewProvider(store, session.TerminatorFunc(func(_ context.Context, token string) error {
		gotToken = token
		return errors.New("connection refused")
	}))
	require.NoError(t, p.Login("tok-1", alice))

	require.NoError(t, p.Logout(context.Background()))
	assert.Equal(t, "tok-1", gotToken)
	assert.False(t, p.IsLoggedIn())
	assert.Empty(t, store.Keys())
}

func TestLogoutWhenAnonymousSkipsServer(t *testing.T) {
	called := false
	p := session.NewProvider(session.NewMemoryStore(), session.TerminatorFunc(func(context.Context, string) error {
		called = true
		return nil
	}))
	require.NoError(t, p.Logout(context.Background()))
	assert.False(t, called)
}

func TestSubscribe(t *testing.T) {
	p := session.NewProvider(session.NewMemoryStore(), nil)
	var seen []bool
	unsubscribe := p.Subscribe(func(s session.Session) {
		seen = append(seen, s.LoggedIn())
	})

	require.NoError(t, p.Login("tok-1", alice))
	require.NoError(t, p.ClearStorage())
	unsubscribe()
	require.NoError(t, p.Login("tok-2", alice))

	assert.Equal(t, []bool{true, false}, seen)
}

func TestProviderContext(t *testing.T) {
	assert.Nil(t, session.FromContext(context.Background()))

	p := session.NewProvider(session.NewMemoryStore(), nil)
	ctx := session.WithProvider(context.Background(), p)
	assert.Same(t, p, session.FromContext(ctx))
}

func TestFileStoreRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "session.yaml")
	store, err := session.NewFileStore(path)
	require.NoError(t, err)
	assert.Empty(t, store.Keys())

	p := session.NewProvider(store, nil)
	require.NoError(t, p.Login("tok-1", alice))
	assert.FileExists(t, path)

	reopened, err := session.NewFileStore(path)
	require.NoError(t, err)
	assert.Equal(t, alice, session.NewProvider(reopened, nil).Session().Profile)

	require.NoError(t, session.NewProvider(reopened, nil).ClearStorage())
	assert.NoFileExists(t, path)
}

func TestFileStoreRejectsCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.yaml")
	require.NoError(t, os.WriteFile(path, []byte("token: [unterminated"), 0o600))

	_, err := session.NewFileStore(path)
	assert.Error(t, err)
}
