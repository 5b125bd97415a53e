package session

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/DhruvilJayani/coursecompass/pkg/api/client"
	"github.com/DhruvilJayani/coursecompass/pkg/logger"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type apiStub struct {
	mu         sync.Mutex
	registerFn func(client.RegisterInput) (client.AuthResponse, error)
	loginFn    func(email, password string) (client.AuthResponse, error)
	meFn       func(ctx context.Context, token string) (client.User, error)
	meCalls    int
}

func (a *apiStub) Register(_ context.Context, in client.RegisterInput) (client.AuthResponse, error) {
	return a.registerFn(in)
}

func (a *apiStub) Login(_ context.Context, email, password string) (client.AuthResponse, error) {
	return a.loginFn(email, password)
}

func (a *apiStub) Me(ctx context.Context, token string) (client.User, error) {
	a.mu.Lock()
	a.meCalls++
	a.mu.Unlock()
	return a.meFn(ctx, token)
}

func (a *apiStub) calls() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.meCalls
}

var anaUser = client.User{Name: "Ana", Email: "ana@x.com", PhoneNo: "9123456780"}

func loginOK(token string) func(string, string) (client.AuthResponse, error) {
	return func(string, string) (client.AuthResponse, error) {
		return client.AuthResponse{Message: "Login successfully", User: anaUser, Token: token}, nil
	}
}

func newFileSession(t *testing.T, api API) (*Session, *FileStorage) {
	t.Helper()
	store := NewFileStorage(filepath.Join(t.TempDir(), "state.json"))
	s := New(api, store, logger.Discard())
	require.NoError(t, s.Hydrate())
	return s, store
}

func readDoc(t *testing.T, path string) map[string]json.RawMessage {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var doc map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(data, &doc))
	return doc
}

func TestLoginPersistsAndLogoutClears(t *testing.T) {
	s, store := newFileSession(t, &apiStub{loginFn: loginOK("tok-1")})

	user, err := s.Login(context.Background(), "ana@x.com", "secret1")
	require.NoError(t, err)
	assert.Equal(t, anaUser, user)

	state := s.State()
	assert.True(t, state.SignedIn())
	assert.Equal(t, "tok-1", state.Token)
	doc := readDoc(t, store.Path())
	assert.JSONEq(t, `"tok-1"`, string(doc[KeyToken]))
	assert.JSONEq(t, `{"name":"Ana","email":"ana@x.com","phoneNo":"9123456780"}`, string(doc[KeyUser]))

	require.NoError(t, s.Logout())
	state = s.State()
	assert.Empty(t, state.Token)
	assert.Nil(t, state.User)
	assert.True(t, state.Hydrated)
	doc = readDoc(t, store.Path())
	assert.NotContains(t, doc, KeyToken)
	assert.NotContains(t, doc, KeyUser)
}

func TestLogoutKeepsOtherKeys(t *testing.T) {
	s, store := newFileSession(t, &apiStub{loginFn: loginOK("tok-1")})
	require.NoError(t, NewTheme(store).Set(ModeDark))
	_, err := s.Login(context.Background(), "ana@x.com", "secret1")
	require.NoError(t, err)

	require.NoError(t, s.Logout())
	assert.Equal(t, ModeDark, NewTheme(store).Mode())
}

func TestLoginFailureSurfacesServerMessage(t *testing.T) {
	apiErr := client.APIError{Status: http.StatusNotFound, Code: "USER_NOT_FOUND", Message: "Invalid email or password"}
	s, _ := newFileSession(t, &apiStub{loginFn: func(string, string) (client.AuthResponse, error) {
		return client.AuthResponse{}, apiErr
	}})

	_, err := s.Login(context.Background(), "ghost@x.com", "secret1")
	require.Error(t, err)
	assert.Equal(t, "Invalid email or password", err.Error())
	assert.False(t, s.State().SignedIn())
}

func TestHydrateRestoresPersistedSession(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")
	first := New(&apiStub{loginFn: loginOK("tok-1")}, NewFileStorage(path), logger.Discard())
	assert.False(t, first.Hydrated())
	require.NoError(t, first.Hydrate())
	_, err := first.Login(context.Background(), "ana@x.com", "secret1")
	require.NoError(t, err)

	second := New(&apiStub{}, NewFileStorage(path), logger.Discard())
	require.NoError(t, second.Hydrate())
	state := second.State()
	assert.True(t, state.Hydrated)
	assert.Equal(t, "tok-1", state.Token)
	require.NotNil(t, state.User)
	assert.Equal(t, anaUser, *state.User)
}

func TestHydrateDiscardsHalfSession(t *testing.T) {
	store := NewMemoryStorage()
	require.NoError(t, setJSON(store, KeyToken, "tok-1"))
	s := New(&apiStub{}, store, logger.Discard())
	require.NoError(t, s.Hydrate())

	assert.False(t, s.State().SignedIn())
	_, ok, err := store.Get(KeyToken)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestHydrateDiscardsCorruptUser(t *testing.T) {
	store := NewMemoryStorage()
	require.NoError(t, setJSON(store, KeyToken, "tok-1"))
	require.NoError(t, store.Set(KeyUser, json.RawMessage(`"not an object"`)))
	s := New(&apiStub{}, store, logger.Discard())
	require.NoError(t, s.Hydrate())
	assert.True(t, s.Hydrated())
	assert.Empty(t, s.Token())
}

func TestHydrateRecoversFromCorruptStateFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o600))

	s := New(&apiStub{loginFn: loginOK("tok-1")}, NewFileStorage(path, WithStorageLogger(logger.Discard())), logger.Discard())
	require.NoError(t, s.Hydrate())
	state := s.State()
	assert.True(t, state.Hydrated)
	assert.False(t, state.SignedIn())
	require.NoError(t, s.Logout())

	again := New(&apiStub{loginFn: loginOK("tok-1")}, NewFileStorage(path), logger.Discard())
	require.NoError(t, again.Hydrate())
	_, err := again.Login(context.Background(), "ana@x.com", "secret1")
	require.NoError(t, err)
	assert.Equal(t, "tok-1", again.Token())
}

func TestRegisterWithoutTokenLeavesSession(t *testing.T) {
	api := &apiStub{registerFn: func(in client.RegisterInput) (client.AuthResponse, error) {
		return client.AuthResponse{Message: "User created successfully", User: client.User{Name: in.Name, Email: in.Email, PhoneNo: in.PhoneNo}}, nil
	}}
	s, _ := newFileSession(t, api)

	user, err := s.Register(context.Background(), client.RegisterInput{Name: "Ana", Email: "ana@x.com", Password: "secret1", PhoneNo: "9123456780"})
	require.NoError(t, err)
	assert.Equal(t, anaUser, user)
	assert.False(t, s.State().SignedIn())
}

func TestRegisterWithTokenSignsIn(t *testing.T) {
	api := &apiStub{registerFn: func(client.RegisterInput) (client.AuthResponse, error) {
		return client.AuthResponse{User: anaUser, Token: "tok-r"}, nil
	}}
	s, _ := newFileSession(t, api)

	_, err := s.Register(context.Background(), client.RegisterInput{})
	require.NoError(t, err)
	assert.Equal(t, "tok-r", s.Token())
}

func TestCheckSession(t *testing.T) {
	tests := []struct {
		name      string
		meErr     error
		wantClear bool
	}{
		{name: "expired token", meErr: client.APIError{Status: http.StatusUnauthorized, Message: "Invalid or expired token"}, wantClear: true},
		{name: "forbidden", meErr: client.APIError{Status: http.StatusForbidden}, wantClear: true},
		{name: "user removed", meErr: client.APIError{Status: http.StatusNotFound, Message: "User not found"}, wantClear: true},
		{name: "network failure", meErr: errors.New("perform request: connection refused"), wantClear: false},
		{name: "server error", meErr: client.APIError{Status: http.StatusInternalServerError}, wantClear: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			api := &apiStub{
				loginFn: loginOK("tok-1"),
				meFn: func(context.Context, string) (client.User, error) {
					return client.User{}, tt.meErr
				},
			}
			s, store := newFileSession(t, api)
			_, err := s.Login(context.Background(), "ana@x.com", "secret1")
			require.NoError(t, err)

			err = s.CheckSession(context.Background())
			require.Error(t, err)
			assert.Equal(t, tt.wantClear, !s.State().SignedIn())
			doc := readDoc(t, store.Path())
			_, persisted := doc[KeyToken]
			assert.Equal(t, !tt.wantClear, persisted)
		})
	}
}

func TestCheckSessionRefreshesUser(t *testing.T) {
	api := &apiStub{
		loginFn: loginOK("tok-1"),
		meFn: func(_ context.Context, token string) (client.User, error) {
			assert.Equal(t, "tok-1", token)
			return client.User{ID: "u1", Name: "Ana", Email: "ana@x.com", PhoneNo: "9123456780"}, nil
		},
	}
	s, _ := newFileSession(t, api)
	_, err := s.Login(context.Background(), "ana@x.com", "secret1")
	require.NoError(t, err)

	require.NoError(t, s.CheckSession(context.Background()))
	assert.Equal(t, "u1", s.State().User.ID)
}

func TestCheckSessionSkipsLocalAndEmptyTokens(t *testing.T) {
	api := &apiStub{
		loginFn: loginOK("mock-jwt-token-123"),
		meFn: func(context.Context, string) (client.User, error) {
			return client.User{}, client.APIError{Status: http.StatusUnauthorized}
		},
	}
	s, _ := newFileSession(t, api)
	require.NoError(t, s.CheckSession(context.Background()))

	_, err := s.Login(context.Background(), "ana@x.com", "secret1")
	require.NoError(t, err)
	require.NoError(t, s.CheckSession(context.Background()))
	assert.Equal(t, 0, api.calls())
	assert.True(t, s.State().SignedIn())
}

func TestStartCheckDoesNotClobberNewerLogin(t *testing.T) {
	entered := make(chan struct{})
	release := make(chan struct{})
	token := "tok-1"
	api := &apiStub{
		loginFn: func(string, string) (client.AuthResponse, error) {
			return client.AuthResponse{User: anaUser, Token: token}, nil
		},
		meFn: func(context.Context, string) (client.User, error) {
			close(entered)
			<-release
			return client.User{}, client.APIError{Status: http.StatusUnauthorized}
		},
	}
	s, _ := newFileSession(t, api)
	_, err := s.Login(context.Background(), "ana@x.com", "secret1")
	require.NoError(t, err)

	done := s.StartCheck(context.Background())
	<-entered
	token = "tok-2"
	_, err = s.Login(context.Background(), "ana@x.com", "secret1")
	require.NoError(t, err)
	close(release)

	err, ok := <-done
	require.True(t, ok)
	assert.True(t, client.IsAuthError(err))
	_, ok = <-done
	assert.False(t, ok, "channel closes after the result")
	assert.Equal(t, "tok-2", s.Token())
}

func TestStartCheckCancelled(t *testing.T) {
	api := &apiStub{
		loginFn: loginOK("tok-1"),
		meFn: func(ctx context.Context, _ string) (client.User, error) {
			<-ctx.Done()
			return client.User{}, ctx.Err()
		},
	}
	s, _ := newFileSession(t, api)
	_, err := s.Login(context.Background(), "ana@x.com", "secret1")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := s.StartCheck(ctx)
	cancel()
	assert.ErrorIs(t, <-done, context.Canceled)
	assert.True(t, s.State().SignedIn(), "cancelled check keeps the session")
}

func TestSetUser(t *testing.T) {
	s, _ := newFileSession(t, &apiStub{loginFn: loginOK("tok-1")})
	assert.Error(t, s.SetUser(anaUser))

	_, err := s.Login(context.Background(), "ana@x.com", "secret1")
	require.NoError(t, err)
	require.NoError(t, s.SetUser(client.User{Name: "Ana B"}))
	assert.Equal(t, "Ana B", s.State().User.Name)
}

func TestStateIsSnapshot(t *testing.T) {
	s, _ := newFileSession(t, &apiStub{loginFn: loginOK("tok-1")})
	_, err := s.Login(context.Background(), "ana@x.com", "secret1")
	require.NoError(t, err)

	snap := s.State()
	snap.User.Name = "mutated"
	assert.Equal(t, "Ana", s.State().User.Name)
}
