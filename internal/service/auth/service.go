package auth

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/samber/oops"

	"github.com/DhruvilJayani/coursecompass/internal/domain"
	"github.com/DhruvilJayani/coursecompass/internal/repository"
	"github.com/DhruvilJayani/coursecompass/pkg/crypto"
	"github.com/DhruvilJayani/coursecompass/pkg/errutil"
	jwtpkg "github.com/DhruvilJayani/coursecompass/pkg/jwt"
)

// PasswordHasher hashes and verifies passwords.
type PasswordHasher interface {
	Hash(plain string) ([]byte, error)
	Verify(plain string, hash []byte) bool
}

// TokenIssuer signs and verifies session tokens.
type TokenIssuer interface {
	Issue(userID string) (string, error)
	Verify(token string) (*jwtpkg.Claims, error)
}

// Service handles registration, login and session lookups.
type Service struct {
	users  repository.UserRepository
	hasher PasswordHasher
	tokens TokenIssuer
	logger *slog.Logger
	now    func() time.Time
}

// New constructs a Service. A nil hasher defaults to bcrypt at crypto.DefaultCost.
func New(users repository.UserRepository, hasher PasswordHasher, tokens TokenIssuer, logger *slog.Logger) Service {
	if hasher == nil {
		hasher = crypto.Hasher{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return Service{users: users, hasher: hasher, tokens: tokens, logger: logger, now: time.Now}
}

// LoginResult is returned by a successful Login.
type LoginResult struct {
	User  *domain.User
	Token string
}

// Register creates a new identity. No token is issued; clients log in afterwards.
func (s Service) Register(ctx context.Context, in RegisterInput) (*domain.User, error) {
	in = in.normalize()
	if verr := in.validate(); verr != nil {
		return nil, verr
	}

	if _, err := s.users.GetUserByEmail(ctx, in.Email); err == nil {
		return nil, conflictError(repository.FieldEmail)
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, s.internal("lookup user by email", err)
	}
	if _, err := s.users.GetUserByPhone(ctx, in.PhoneNo); err == nil {
		return nil, conflictError(repository.FieldPhone)
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, s.internal("lookup user by phone", err)
	}

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		if errors.Is(err, crypto.ErrPasswordTooLong) {
			return nil, &Error{Kind: KindValidation, Message: MsgInvalidInput, Fields: []string{"password"}, Err: err}
		}
		return nil, s.internal("hash password", err)
	}
	user := &domain.User{
		ID:           uuid.NewString(),
		Name:         in.Name,
		Email:        in.Email,
		PhoneNo:      in.PhoneNo,
		PasswordHash: hash,
		CreatedAt:    s.now().UTC(),
	}
	if err := s.users.CreateUser(ctx, user); err != nil {
		// the store is the authority when two registrations race past the pre-check
		if field, ok := repository.ConflictField(err); ok {
			return nil, conflictError(field)
		}
		return nil, s.internal("create user", err)
	}
	s.logger.InfoContext(ctx, "user registered", "user_id", user.ID)
	return user, nil
}

// Login authenticates email and password and issues a session token. Unknown
// emails and wrong passwords carry the same message.
func (s Service) Login(ctx context.Context, email, password string) (LoginResult, error) {
	email = strings.TrimSpace(email)
	if verr := validateLogin(email, password); verr != nil {
		return LoginResult{}, verr
	}

	user, err := s.users.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return LoginResult{}, &Error{Kind: KindNotFound, Message: MsgInvalidLogin}
		}
		return LoginResult{}, s.internal("lookup user by email", err)
	}
	if !s.hasher.Verify(password, user.PasswordHash) {
		s.logger.InfoContext(ctx, "login rejected", "user_id", user.ID)
		return LoginResult{}, &Error{Kind: KindInvalidCredentials, Message: MsgInvalidLogin}
	}
	token, err := s.tokens.Issue(user.ID)
	if err != nil {
		return LoginResult{}, s.internal("issue token", err)
	}
	s.logger.InfoContext(ctx, "user logged in", "user_id", user.ID)
	return LoginResult{User: user, Token: token}, nil
}

// Authenticate verifies token and returns the user id it is bound to.
func (s Service) Authenticate(token string) (string, error) {
	claims, err := s.tokens.Verify(strings.TrimSpace(token))
	if err != nil {
		return "", &Error{Kind: KindInvalidToken, Message: MsgInvalidToken, Err: err}
	}
	return claims.UserID, nil
}

// GetCurrentUser resolves the identity bound to token.
func (s Service) GetCurrentUser(ctx context.Context, token string) (*domain.User, error) {
	userID, err := s.Authenticate(token)
	if err != nil {
		return nil, err
	}
	user, err := s.users.GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, &Error{Kind: KindNotFound, Message: MsgUserNotFound}
		}
		return nil, s.internal("lookup user by id", err)
	}
	return user, nil
}

func (s Service) internal(op string, err error) *Error {
	wrapped := oops.Code("AUTH_INTERNAL").In("auth").With("operation", op).Wrap(err)
	errutil.LogError(s.logger, "auth operation failed", wrapped, "operation", op)
	return internalError(wrapped)
}

func conflictError(field string) *Error {
	switch field {
	case repository.FieldEmail:
		return &Error{Kind: KindConflict, Message: MsgEmailExists, Fields: []string{"email"}}
	case repository.FieldPhone:
		return &Error{Kind: KindConflict, Message: MsgPhoneExists, Fields: []string{"phoneNo"}}
	default:
		return &Error{Kind: KindConflict, Message: MsgUserExists}
	}
}
