package sessions

import (
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
)

const defaultSessionLifetime = 30 * 24 * time.Hour

// Session is an authenticated device session, established after a
// login link or OAuth flow resolves to a username.
type Session struct {
	ID        string    `json:"id"`
	Username  string    `json:"username"`
	DeviceID  string    `json:"deviceId"`
	IssuedAt  time.Time `json:"issuedAt"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// Manager mints and verifies signed session tokens (HS256).
type Manager struct {
	secret   []byte
	lifetime time.Duration
	nowTime  func() time.Time
	log      zerolog.Logger
}

// ManagerOption configures optional Manager behaviour.
type ManagerOption func(*Manager)

// WithNowTime overrides the clock, for tests.
func WithNowTime(nowTime func() time.Time) ManagerOption {
	return func(m *Manager) {
		m.nowTime = nowTime
	}
}

// WithLifetime overrides the default session lifetime.
func WithLifetime(lifetime time.Duration) ManagerOption {
	return func(m *Manager) {
		m.lifetime = lifetime
	}
}

// NewManager creates a session Manager signing with the given secret.
func NewManager(secret []byte, log zerolog.Logger, options ...ManagerOption) (*Manager, error) {
	if len(secret) < 32 {
		return nil, errors.New("[NewManager] session secret must be at least 32 bytes")
	}

	m := &Manager{
		secret:   secret,
		lifetime: defaultSessionLifetime,
		nowTime:  time.Now,
		log:      log,
	}
	for _, option := range options {
		option(m)
	}
	return m, nil
}

// Establish mints a signed token for a freshly authenticated device.
func (m *Manager) Establish(username, deviceID string) (string, *Session, error) {
	if username == "" {
		return "", nil, errors.New("[Establish] username is required")
	}

	now := m.nowTime().UTC()
	session := &Session{
		ID:        uuid.New().String(),
		Username:  username,
		DeviceID:  deviceID,
		IssuedAt:  now,
		ExpiresAt: now.Add(m.lifetime),
	}

	claims := jwtlib.MapClaims{
		"jti": session.ID,
		"sub": session.Username,
		"dev": session.DeviceID,
		"iat": session.IssuedAt.Unix(),
		"exp": session.ExpiresAt.Unix(),
	}

	signed, err := jwtlib.NewWithClaims(jwtlib.SigningMethodHS256, claims).SignedString(m.secret)
	if err != nil {
		return "", nil, errors.Wrap(err, "[Establish] signing session token")
	}

	m.log.Info().Str("username", username).Str("deviceID", deviceID).Msg("session established")
	return signed, session, nil
}

// Verify validates a session token and returns the session it carries.
func (m *Manager) Verify(tokenString string) (*Session, error) {
	token, err := jwtlib.Parse(tokenString, func(t *jwtlib.Token) (any, error) {
		if _, ok := t.Method.(*jwtlib.SigningMethodHMAC); !ok {
			return nil, errors.Errorf("unexpected signing method %q", t.Method.Alg())
		}
		return m.secret, nil
	}, jwtlib.WithTimeFunc(m.nowTime))
	if err != nil {
		if errors.Is(err, jwtlib.ErrTokenExpired) {
			return nil, ErrSessionExpired
		}
		return nil, errors.Wrap(ErrSessionInvalid, err.Error())
	}

	claims, ok := token.Claims.(jwtlib.MapClaims)
	if !ok || !token.Valid {
		return nil, ErrSessionInvalid
	}

	session := &Session{}
	if session.ID, ok = claims["jti"].(string); !ok {
		return nil, ErrSessionInvalid
	}
	if session.Username, ok = claims["sub"].(string); !ok || session.Username == "" {
		return nil, ErrSessionInvalid
	}
	session.DeviceID, _ = claims["dev"].(string)

	if iat, err := claims.GetIssuedAt(); err == nil && iat != nil {
		session.IssuedAt = iat.Time
	}
	if exp, err := claims.GetExpirationTime(); err == nil && exp != nil {
		session.ExpiresAt = exp.Time
	}
	return session, nil
}
