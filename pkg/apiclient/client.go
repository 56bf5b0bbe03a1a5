// Package apiclient is a small HTTP client for the storefront API.
package apiclient

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"storefront/internal/models"
	"storefront/pkg/session"

	"github.com/gofiber/fiber/v2"
)

// DefaultTimeout bounds every request unless the context expires sooner.
const DefaultTimeout = 10 * time.Second

// Error is a non-2xx response from the API.
type Error struct {
	Code    int
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("api error %d: %s", e.Code, e.Message)
}

// Client talks to one storefront server.
type Client struct {
	baseURL string
	timeout time.Duration
}

// New creates a client for the server at baseURL, e.g. http://localhost:3000.
func New(baseURL string) *Client {
	return &Client{baseURL: strings.TrimRight(baseURL, "/") + "/api/v1", timeout: DefaultTimeout}
}

// WithTimeout returns a copy of c using timeout per request.
func (c *Client) WithTimeout(timeout time.Duration) *Client {
	cp := *c
	cp.timeout = timeout
	return &cp
}

type envelope struct {
	Status      string          `json:"status"`
	Message     string          `json:"message"`
	Token       string          `json:"token"`
	Results     int             `json:"results"`
	TotalPages  int             `json:"totalPages"`
	CurrentPage int             `json:"currentPage"`
	Data        json.RawMessage `json:"data"`
}

func (c *Client) do(ctx context.Context, agent *fiber.Agent, token string, body interface{}) (*envelope, error) {
	if err := ctx.Err(); err != nil {
		fiber.ReleaseAgent(agent)
		return nil, err
	}
	timeout := c.timeout
	if deadline, ok := ctx.Deadline(); ok {
		if d := time.Until(deadline); d < timeout {
			timeout = d
		}
	}

	agent.Timeout(timeout)
	if token != "" {
		agent.Set(fiber.HeaderAuthorization, "Bearer "+token)
	}
	if body != nil {
		agent.JSON(body)
	}

	code, raw, errs := agent.Bytes()
	if len(errs) > 0 {
		return nil, fmt.Errorf("request failed: %w", errors.Join(errs...))
	}

	var env envelope
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &env); err != nil {
			return nil, fmt.Errorf("failed to decode response (status %d): %w", code, err)
		}
	}
	if code >= fiber.StatusBadRequest {
		return nil, &Error{Code: code, Message: env.Message}
	}
	return &env, nil
}

// inner decodes the {"data": {"<key>": ...}} envelope.
func (e *envelope) inner(key string, v interface{}) error {
	var wrapper map[string]json.RawMessage
	if err := json.Unmarshal(e.Data, &wrapper); err != nil {
		return fmt.Errorf("failed to decode response data: %w", err)
	}
	raw, ok := wrapper[key]
	if !ok {
		return fmt.Errorf("response data has no %q field", key)
	}
	return json.Unmarshal(raw, v)
}

// Credentials is the result of a successful login.
type Credentials struct {
	Token string
	User  models.User
}

// Profile returns the part of the user the client session keeps.
func (c *Credentials) Profile() session.Profile {
	return session.Profile{
		Email:     c.User.Email,
		FirstName: c.User.FirstName,
		LastName:  c.User.LastName,
		AvatarURL: c.User.AvatarURL,
		Role:      c.User.Role,
	}
}

// Register creates a customer account.
func (c *Client) Register(ctx context.Context, user models.User) (*models.User, error) {
	env, err := c.do(ctx, fiber.Post(c.baseURL+"/auth/register"), "", user)
	if err != nil {
		return nil, err
	}
	var created models.User
	if err := env.inner("data", &created); err != nil {
		return nil, err
	}
	return &created, nil
}

// Login exchanges email and password for a token.
func (c *Client) Login(ctx context.Context, email, password string) (*Credentials, error) {
	body := map[string]string{"email": email, "password": password}
	env, err := c.do(ctx, fiber.Post(c.baseURL+"/auth/login"), "", body)
	if err != nil {
		return nil, err
	}
	creds := &Credentials{Token: env.Token}
	if err := env.inner("user", &creds.User); err != nil {
		return nil, err
	}
	if creds.Token == "" {
		return nil, errors.New("login response carried no token")
	}
	return creds, nil
}

// Logout revokes token on the server. It satisfies session.Terminator.
func (c *Client) Logout(ctx context.Context, token string) error {
	_, err := c.do(ctx, fiber.Post(c.baseURL+"/auth/logout"), token, nil)
	return err
}

// OrderPage is one page of orders.
type OrderPage struct {
	Orders      []models.Order
	TotalPages  int
	CurrentPage int
}

// MyOrders lists the orders of the user owning token. page and limit are
// sent only when positive.
func (c *Client) MyOrders(ctx context.Context, token string, page, limit int) (*OrderPage, error) {
	query := url.Values{}
	if page > 0 {
		query.Set("page", strconv.Itoa(page))
	}
	if limit > 0 {
		query.Set("limit", strconv.Itoa(limit))
	}
	target := c.baseURL + "/orders/mine"
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	env, err := c.do(ctx, fiber.Get(target), token, nil)
	if err != nil {
		return nil, err
	}
	result := &OrderPage{TotalPages: env.TotalPages, CurrentPage: env.CurrentPage}
	if err := env.inner("data", &result.Orders); err != nil {
		return nil, err
	}
	return result, nil
}

var _ session.Terminator = (*Client)(nil)
