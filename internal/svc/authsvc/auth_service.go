package authsvc

import (
	"context"
	"errors"
	"fmt"
	"unicode/utf8"

	"github.com/mkrupp/homecase-todo/internal/domain"
	"github.com/mkrupp/homecase-todo/internal/infra/logging"
	"github.com/mkrupp/homecase-todo/internal/infra/session"
	"github.com/mkrupp/homecase-todo/internal/repo/user"
)

// AuthConfig contains configuration parameters for the authentication service.
type AuthConfig struct {
	// BcryptCost is the work factor used to hash passwords
	BcryptCost int `env:"BCRYPT_COST" default:"10"`
}

// AuthService provides user registration, credential checks and the
// session identity transitions.
type AuthService struct {
	Config   AuthConfig
	UserRepo user.Repository
	Hasher   PasswordHasher
	Log      logging.Logger
}

// NewAuthService creates a new AuthService with the given user repository factory and configuration.
// Returns an error if the user repository cannot be created.
func NewAuthService(repoFactory user.RepositoryFactory, cfg AuthConfig) (*AuthService, error) {
	userRepo, err := repoFactory()
	if err != nil {
		return nil, fmt.Errorf("new user repo: %w", err)
	}

	return &AuthService{
		Config:   cfg,
		UserRepo: userRepo,
		Hasher:   NewBcryptHasher(cfg.BcryptCost),
		Log:      logging.GetLogger("svc.authsvc.auth_service"),
	}, nil
}

// RegisterUser creates a new user account with the given username and password.
// The password is hashed before storage.
// Returns a validation error for missing or oversized credentials,
// ErrUserAlreadyExists if the username is taken, or a storage error.
func (s *AuthService) RegisterUser(ctx context.Context, username, password string) (_ *domain.User, err error) {
	log := s.Log.With(logging.Group("user", "username", username))

	defer func() {
		if err != nil {
			log.WarnContext(ctx, "register user failed", "error", err)
		} else {
			log.InfoContext(ctx, "user registered")
		}
	}()

	switch {
	case username == "" || password == "":
		return nil, domain.ErrMissingCredentials
	case utf8.RuneCountInString(username) > domain.MaxUsernameLength:
		return nil, domain.ErrUsernameTooLong
	case len(password) > domain.MaxPasswordBytes:
		return nil, domain.ErrPasswordTooLong
	}

	if _, ok, err := s.UserRepo.GetUserByUsername(ctx, username); err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	} else if ok {
		return nil, domain.ErrUserAlreadyExists
	}

	passwordHash, err := s.Hasher.Hash(password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user, err := s.UserRepo.CreateUser(ctx, username, passwordHash)
	if err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}

	return user, nil
}

// Authenticate checks a username/password pair and returns the matching user.
// Unknown usernames and wrong passwords both yield ErrInvalidCredentials.
func (s *AuthService) Authenticate(ctx context.Context, username, password string) (_ *domain.User, err error) {
	log := s.Log.With(logging.Group("user", "username", username))

	defer func() {
		if err != nil {
			log.WarnContext(ctx, "authentication failed", "error", err)
		} else {
			log.DebugContext(ctx, "authentication successful")
		}
	}()

	user, ok, err := s.UserRepo.GetUserByUsername(ctx, username)
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	} else if !ok {
		return nil, errors.Join(domain.ErrInvalidCredentials, domain.ErrUserNotFound)
	}

	if !s.Hasher.Verify(password, user.PasswordHash) {
		return nil, domain.ErrInvalidCredentials
	}

	return user, nil
}

// Login moves the session to the authenticated state for the user.
func (s *AuthService) Login(ctx context.Context, sess *session.Session, identity domain.Identity) {
	sess.Login(identity.UserID())

	s.Log.InfoContext(ctx, "user logged in", logging.Group("user", "id", identity.UserID()))
}

// Logout returns the session to the anonymous state.
func (s *AuthService) Logout(ctx context.Context, sess *session.Session) {
	if userID, ok := sess.Authenticated(); ok {
		s.Log.InfoContext(ctx, "user logged out", logging.Group("user", "id", userID))
	}

	sess.Logout()
}

// CurrentUser resolves the session identity to a user. A session whose user
// no longer exists is reported as anonymous.
func (s *AuthService) CurrentUser(ctx context.Context, sess *session.Session) (*domain.User, bool, error) {
	userID, ok := sess.Authenticated()
	if !ok {
		return nil, false, nil
	}

	user, ok, err := s.UserRepo.GetUserByID(ctx, userID)
	if err != nil {
		return nil, false, fmt.Errorf("get user: %w", err)
	}

	return user, ok, nil
}

// Close releases resources held by the service, such as database connections.
// Returns an error if cleanup fails.
func (s *AuthService) Close() error {
	if err := s.UserRepo.Close(); err != nil {
		return fmt.Errorf("close user repo: %w", err)
	}

	return nil
}
