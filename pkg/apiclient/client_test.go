package apiclient_test

import (
	"context"
	"errors"
	"io"
	"log"
	"net"
	"os"
	"testing"
	"time"

	"storefront/internal/app"
	"storefront/internal/config"
	"storefront/internal/database"
	"storefront/internal/models"
	"storefront/pkg/apiclient"
	"storefront/pkg/session"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMain(m *testing.M) {
	log.SetOutput(io.Discard)
	os.Exit(m.Run())
}

// startServer serves the full API on a loopback port.
func startServer(t *testing.T) string {
	t.Helper()
	db, err := database.OpenMemory(uuid.NewString())
	require.NoError(t, err)
	server := app.NewWithDeps(&config.Config{
		JWTSecret:   "client_test_secret",
		JWTTTL:      time.Hour,
		CORSOrigins: "*",
	}, app.Deps{DB: db})

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	go server.Fiber.Listener(ln)
	t.Cleanup(func() { server.Fiber.Shutdown() })
	return "http://" + ln.Addr().String()
}

func TestClientSessionFlow(t *testing.T) {
	client := apiclient.New(startServer(t))
	ctx := context.Background()

	_, err := client.Register(ctx, models.User{
		Email:     "alice@example.com",
		FirstName: "Alice",
		LastName:  "Smith",
		Password:  "password123",
	})
	require.NoError(t, err)

	_, err = client.Login(ctx, "alice@example.com", "wrong")
	var apiErr *apiclient.Error
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, 401, apiErr.Code)

	creds, err := client.Login(ctx, "alice@example.com", "password123")
	require.NoError(t, err)
	assert.NotEmpty(t, creds.Token)
	assert.Equal(t, "Alice", creds.Profile().FirstName)
	assert.Equal(t, models.RoleUser, creds.Profile().Role)

	provider := session.NewProvider(session.NewMemoryStore(), client)
	require.NoError(t, provider.Login(creds.Token, creds.Profile()))

	page, err := client.MyOrders(ctx, provider.Session().Token, 1, 5)
	require.NoError(t, err)
	assert.Empty(t, page.Orders)
	assert.Equal(t, 1, page.CurrentPage)

	require.NoError(t, provider.Logout(ctx))
	assert.False(t, provider.IsLoggedIn())

	// The server revoked the token.
	_, err = client.MyOrders(ctx, creds.Token, 0, 0)
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, 401, apiErr.Code)
}

func TestClientHonoursCancelledContext(t *testing.T) {
	client := apiclient.New("http://127.0.0.1:1")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := client.Login(ctx, "a@example.com", "pw")
	assert.ErrorIs(t, err, context.Canceled)
}
