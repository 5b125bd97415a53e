package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// DefaultTimeout bounds every request made by the client.
const DefaultTimeout = 15 * time.Second

// TokenHeader is the request header that carries the session token.
const TokenHeader = "auth-token"

// ErrMissingBaseURL is returned by New when no API base URL is configured.
var ErrMissingBaseURL = errors.New("client: api base url is required")

// Client provides typed access to the coursecompass API.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// Option customises client instantiation.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) {
		if h != nil {
			c.httpClient = h
		}
	}
}

// WithTimeout overrides the default request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.httpClient.Timeout = d
		}
	}
}

// New constructs a Client pointing at the provided API base URL.
func New(base string, opts ...Option) (*Client, error) {
	trimmed := strings.TrimSpace(base)
	if trimmed == "" {
		return nil, ErrMissingBaseURL
	}
	if !strings.HasPrefix(trimmed, "http://") && !strings.HasPrefix(trimmed, "https://") {
		trimmed = "http://" + trimmed
	}
	parsed, err := url.Parse(trimmed)
	if err != nil || parsed.Host == "" {
		return nil, fmt.Errorf("invalid api base url %q", base)
	}
	cli := &Client{
		baseURL:    strings.TrimRight(trimmed, "/"),
		httpClient: &http.Client{Timeout: DefaultTimeout},
	}
	for _, opt := range opts {
		opt(cli)
	}
	return cli, nil
}

// BaseURL reports the API root the client talks to.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// APIError represents an error response from the API. Message is the server's
// message, unmodified.
type APIError struct {
	Status  int
	Code    string
	Message string
	Fields  []string
}

func (e APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("api request failed with status %d", e.Status)
	}
	return e.Message
}

// IsAuthError reports whether err is an API rejection of the session token.
func IsAuthError(err error) bool {
	var apiErr APIError
	if !errors.As(err, &apiErr) {
		return false
	}
	return apiErr.Status == http.StatusUnauthorized || apiErr.Status == http.StatusForbidden
}

// IsNotFound reports whether err is an API 404.
func IsNotFound(err error) bool {
	var apiErr APIError
	return errors.As(err, &apiErr) && apiErr.Status == http.StatusNotFound
}

// IsTransportError reports whether err happened before any API response arrived.
func IsTransportError(err error) bool {
	if err == nil {
		return false
	}
	var apiErr APIError
	return !errors.As(err, &apiErr)
}

// ErrorMessage turns err into text fit for an end user. Server messages pass
// through unchanged; generic fallbacks cover the rest.
func ErrorMessage(err error) string {
	if err == nil {
		return ""
	}
	var apiErr APIError
	if errors.As(err, &apiErr) {
		if apiErr.Message != "" {
			return apiErr.Message
		}
		switch {
		case apiErr.Status == http.StatusUnauthorized:
			return "Your session has expired. Please sign in again."
		case apiErr.Status == http.StatusForbidden:
			return "You do not have permission to do that."
		case apiErr.Status == http.StatusNotFound:
			return "The requested resource was not found."
		case apiErr.Status == http.StatusTooManyRequests:
			return "Too many requests, please try again later."
		case apiErr.Status >= http.StatusInternalServerError:
			return "Server error. Please try again later."
		default:
			return "Request failed. Please check your input."
		}
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return "The request timed out. Please try again."
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return "The request timed out. Please try again."
	}
	return "Network error. Please check your connection."
}

func (c *Client) do(ctx context.Context, method, path string, body any, token string, v any) error {
	if c == nil {
		return errors.New("client is nil")
	}
	if ctx == nil {
		ctx = context.Background()
	}
	endpoint := c.baseURL + path
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request body: %w", err)
		}
		reader = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token = strings.TrimSpace(token); token != "" {
		req.Header.Set(TokenHeader, token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("perform request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		return extractError(resp.StatusCode, resp.Body)
	}

	if v == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func extractError(status int, body io.Reader) APIError {
	apiErr := APIError{Status: status}
	data, err := io.ReadAll(io.LimitReader(body, 1<<20))
	if err != nil || len(data) == 0 {
		return apiErr
	}
	var payload struct {
		Message   string   `json:"message"`
		ErrorCode string   `json:"errorCode"`
		Fields    []string `json:"fields"`
	}
	if err := json.Unmarshal(data, &payload); err != nil {
		apiErr.Message = strings.TrimSpace(string(data))
		return apiErr
	}
	apiErr.Message = payload.Message
	apiErr.Code = payload.ErrorCode
	apiErr.Fields = payload.Fields
	return apiErr
}

// User reflects API user payloads. ID is only present on /auth/me.
type User struct {
	ID      string `json:"id,omitempty"`
	Name    string `json:"name"`
	Email   string `json:"email"`
	PhoneNo string `json:"phoneNo"`
}

// RegisterInput is the registration form.
type RegisterInput struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	PhoneNo  string `json:"phoneNo"`
}

// AuthResponse is returned by register and login. Token is empty for register.
type AuthResponse struct {
	Message string `json:"message"`
	User    User   `json:"user"`
	Token   string `json:"token,omitempty"`
}

// ChatReply is the answer to a chat message.
type ChatReply struct {
	Message           string  `json:"message"`
	FromKnowledgeBase bool    `json:"from_knowledge_base"`
	Source            *string `json:"source"`
}

// Register creates an account.
func (c *Client) Register(ctx context.Context, input RegisterInput) (AuthResponse, error) {
	var resp AuthResponse
	if err := c.do(ctx, http.MethodPost, "/auth/register", input, "", &resp); err != nil {
		return AuthResponse{}, err
	}
	return resp, nil
}

// Login exchanges credentials for a session token.
func (c *Client) Login(ctx context.Context, email, password string) (AuthResponse, error) {
	payload := map[string]string{
		"email":    email,
		"password": password,
	}
	var resp AuthResponse
	if err := c.do(ctx, http.MethodPost, "/auth/login", payload, "", &resp); err != nil {
		return AuthResponse{}, err
	}
	if strings.TrimSpace(resp.Token) == "" {
		return AuthResponse{}, errors.New("login response missing token")
	}
	return resp, nil
}

// Me returns the user bound to token.
func (c *Client) Me(ctx context.Context, token string) (User, error) {
	var resp AuthResponse
	if err := c.do(ctx, http.MethodGet, "/auth/me", nil, token, &resp); err != nil {
		return User{}, err
	}
	return resp.User, nil
}

// Chat sends a message to the assistant.
func (c *Client) Chat(ctx context.Context, token, message string) (ChatReply, error) {
	var reply ChatReply
	if err := c.do(ctx, http.MethodPost, "/chat/chatUser", map[string]string{"message": message}, token, &reply); err != nil {
		return ChatReply{}, err
	}
	return reply, nil
}
