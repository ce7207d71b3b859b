package session

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v4"

	"github.com/mkrupp/homecase-todo/internal/infra/logging"
)

// MinSecretLength is the minimum length in bytes of a configured secret.
const MinSecretLength = 32

// ErrWeakSecret is returned when the configured secret is shorter than MinSecretLength.
var ErrWeakSecret = errors.New("session secret too short")

// Config holds configuration for the session cookie.
type Config struct {
	// CookieName is the name of the session cookie
	CookieName string `env:"COOKIE_NAME" default:"todo_session"`

	// Secret signs the session cookie. A random secret is generated when empty,
	// which invalidates all sessions on restart.
	Secret string `env:"SECRET" default:""`

	// MaxAge is the lifetime of a session cookie
	MaxAge time.Duration `env:"MAX_AGE" default:"168h"`

	// Secure restricts the cookie to HTTPS
	Secure bool `env:"SECURE" default:"false"`
}

type claims struct {
	UserID  int64  `json:"uid,omitempty"`
	Pending string `json:"msg,omitempty"`
	jwt.RegisteredClaims
}

// CookieStore loads and saves sessions as HS256-signed cookies.
type CookieStore struct {
	cfg    Config
	secret []byte
	log    logging.Logger
}

// NewCookieStore creates a CookieStore. An empty secret is replaced by a random one.
func NewCookieStore(ctx context.Context, cfg Config) (*CookieStore, error) {
	log := logging.GetLogger("infra.session.cookie_store")

	secret := []byte(cfg.Secret)

	switch {
	case len(secret) == 0:
		secret = make([]byte, MinSecretLength)
		if _, err := rand.Read(secret); err != nil {
			return nil, fmt.Errorf("generate secret: %w", err)
		}

		log.WarnContext(ctx, "no session secret configured, sessions will not survive a restart")
	case len(secret) < MinSecretLength:
		return nil, fmt.Errorf("%w: %d bytes, want at least %d", ErrWeakSecret, len(secret), MinSecretLength)
	}

	return &CookieStore{
		cfg:    cfg,
		secret: secret,
		log:    log,
	}, nil
}

// Load returns the session of the request. A missing, tampered or expired
// cookie yields an anonymous session.
func (cs *CookieStore) Load(r *http.Request) *Session {
	cookie, err := r.Cookie(cs.cfg.CookieName)
	if err != nil {
		return &Session{}
	}

	var c claims

	token, err := jwt.ParseWithClaims(cookie.Value, &c, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}

		return cs.secret, nil
	})
	if err != nil || !token.Valid {
		cs.log.DebugContext(r.Context(), "discarding invalid session cookie", "error", err)

		return &Session{loaded: true}
	}

	return &Session{
		id:      c.ID,
		userID:  c.UserID,
		pending: c.Pending,
		loaded:  true,
	}
}

// Save writes the session cookie. An empty session removes the cookie.
func (cs *CookieStore) Save(w http.ResponseWriter, s *Session) error {
	if s.empty() {
		if s.loaded {
			http.SetCookie(w, cs.cookie("", -1))
		}

		return nil
	}

	now := time.Now()

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims{
		UserID:  s.userID,
		Pending: s.pending,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        s.id,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(cs.cfg.MaxAge)),
		},
	})

	value, err := token.SignedString(cs.secret)
	if err != nil {
		return fmt.Errorf("sign session: %w", err)
	}

	http.SetCookie(w, cs.cookie(value, int(cs.cfg.MaxAge/time.Second)))

	return nil
}

func (cs *CookieStore) cookie(value string, maxAge int) *http.Cookie {
	//nolint:exhaustruct
	return &http.Cookie{
		Name:     cs.cfg.CookieName,
		Value:    value,
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   cs.cfg.Secure,
		SameSite: http.SameSiteLaxMode,
	}
}
