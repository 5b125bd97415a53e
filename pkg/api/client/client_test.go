package client

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRequiresBaseURL(t *testing.T) {
	_, err := New("  ")
	assert.ErrorIs(t, err, ErrMissingBaseURL)

	c, err := New("localhost:4000/")
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:4000", c.BaseURL())
	assert.Equal(t, DefaultTimeout, c.httpClient.Timeout)

	c, err = New("https://api.example.com", WithTimeout(time.Second))
	require.NoError(t, err)
	assert.Equal(t, time.Second, c.httpClient.Timeout)
}

func TestLoginAndMe(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/auth/login":
			var body map[string]string
			require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			assert.Equal(t, "ana@x.com", body["email"])
			assert.Empty(t, r.Header.Get(TokenHeader))
			_, _ = w.Write([]byte(`{"message":"Login successfully","user":{"name":"Ana","email":"ana@x.com","phoneNo":"9123456780"},"token":"tok-1"}`))
		case "/auth/me":
			assert.Equal(t, "tok-1", r.Header.Get(TokenHeader))
			assert.Empty(t, r.Header.Get("Authorization"))
			_, _ = w.Write([]byte(`{"message":"User Retrieved Successfully","user":{"id":"u1","name":"Ana","email":"ana@x.com","phoneNo":"9123456780"}}`))
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	c, err := New(srv.URL)
	require.NoError(t, err)

	resp, err := c.Login(context.Background(), "ana@x.com", "secret1")
	require.NoError(t, err)
	assert.Equal(t, "tok-1", resp.Token)
	assert.Equal(t, User{Name: "Ana", Email: "ana@x.com", PhoneNo: "9123456780"}, resp.User)

	me, err := c.Me(context.Background(), resp.Token)
	require.NoError(t, err)
	assert.Equal(t, "u1", me.ID)
}

func TestAPIErrorsCarryServerMessage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/auth/login":
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`{"message":"Invalid email or password","errorCode":"USER_NOT_FOUND","statusCode":404}`))
		case "/auth/me":
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"message":"Invalid or expired token","errorCode":"UNAUTHORIZED","statusCode":401}`))
		default:
			w.WriteHeader(http.StatusBadGateway)
			_, _ = w.Write([]byte("bad gateway"))
		}
	}))
	defer srv.Close()
	c, err := New(srv.URL)
	require.NoError(t, err)

	_, err = c.Login(context.Background(), "ghost@x.com", "secret1")
	var apiErr APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, "Invalid email or password", err.Error())
	assert.Equal(t, "USER_NOT_FOUND", apiErr.Code)
	assert.True(t, IsNotFound(err))
	assert.False(t, IsAuthError(err))

	_, err = c.Me(context.Background(), "expired")
	assert.True(t, IsAuthError(err))

	_, err = c.Chat(context.Background(), "tok", "hi")
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusBadGateway, apiErr.Status)
	assert.Equal(t, "bad gateway", apiErr.Message)
}

func TestRegisterAndChat(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/auth/register":
			var in RegisterInput
			require.NoError(t, json.NewDecoder(r.Body).Decode(&in))
			assert.Equal(t, "9123456780", in.PhoneNo)
			w.WriteHeader(http.StatusCreated)
			_, _ = w.Write([]byte(`{"message":"User created successfully","user":{"name":"Ana","email":"ana@x.com","phoneNo":"9123456780"}}`))
		case "/chat/chatUser":
			assert.Equal(t, "tok", r.Header.Get(TokenHeader))
			_, _ = w.Write([]byte(`{"message":"hello","from_knowledge_base":true,"source":"faq"}`))
		}
	}))
	defer srv.Close()
	c, err := New(srv.URL)
	require.NoError(t, err)

	resp, err := c.Register(context.Background(), RegisterInput{Name: "Ana", Email: "ana@x.com", Password: "secret1", PhoneNo: "9123456780"})
	require.NoError(t, err)
	assert.Empty(t, resp.Token)
	assert.Equal(t, "User created successfully", resp.Message)

	reply, err := c.Chat(context.Background(), "tok", "hi")
	require.NoError(t, err)
	assert.True(t, reply.FromKnowledgeBase)
	require.NotNil(t, reply.Source)
	assert.Equal(t, "faq", *reply.Source)
}

func TestTimeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	c, err := New(srv.URL, WithTimeout(50*time.Millisecond))
	require.NoError(t, err)
	_, err = c.Me(context.Background(), "tok")
	require.Error(t, err)
	assert.False(t, IsAuthError(err))
}

func TestErrorMessage(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{name: "nil", err: nil, want: ""},
		{name: "server message", err: APIError{Status: http.StatusConflict, Message: "Email already exists"}, want: "Email already exists"},
		{name: "bare 401", err: APIError{Status: http.StatusUnauthorized}, want: "Your session has expired. Please sign in again."},
		{name: "bare 429", err: APIError{Status: http.StatusTooManyRequests}, want: "Too many requests, please try again later."},
		{name: "bare 502", err: APIError{Status: http.StatusBadGateway}, want: "Server error. Please try again later."},
		{name: "bare 400", err: APIError{Status: http.StatusBadRequest}, want: "Request failed. Please check your input."},
		{name: "deadline", err: context.DeadlineExceeded, want: "The request timed out. Please try again."},
		{name: "network", err: errors.New("perform request: dial tcp: connection refused"), want: "Network error. Please check your connection."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ErrorMessage(tt.err))
		})
	}
	assert.True(t, IsTransportError(errors.New("dial")))
	assert.False(t, IsTransportError(APIError{Status: 500}))
	assert.False(t, IsTransportError(nil))
}
