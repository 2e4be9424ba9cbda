package serverutils

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
)

const (
	SessionCookieName  = "chatpdf_session"
	SessionTokenHeader = "X-Session-Token"

	sessionLocalsKey = "session_id"
	sessionClaim     = "sid"
)

// SessionInitializer resolves a session id, starting a new session when
// the id is unknown or expired.
type SessionInitializer interface {
	GetOrInit(ctx context.Context, sessionID string) (string, bool)
}

type SessionConfig struct {
	Secret string
	TTL    time.Duration
	Secure bool
}

// SessionMiddleware attaches a chat session to every request. The session id
// travels in a signed token, read from the Authorization bearer header or
// the session cookie. A fresh token is issued whenever a session is created,
// and re-issued once less than half of the TTL remains so the token keeps
// pace with the sliding session expiry.
func SessionMiddleware(cfg SessionConfig, sessions SessionInitializer) fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		sessionID, expiresAt, _ := parseSessionToken(cfg.Secret, requestToken(ctx))

		id, created := sessions.GetOrInit(ctx.UserContext(), sessionID)
		if created || sessionID == "" || time.Until(expiresAt) < cfg.TTL/2 {
			token, err := SignSessionToken(cfg.Secret, id, cfg.TTL)
			if err != nil {
				return err
			}
			ctx.Cookie(&fiber.Cookie{
				Name:     SessionCookieName,
				Value:    token,
				Path:     "/",
				Expires:  time.Now().Add(cfg.TTL),
				HTTPOnly: true,
				Secure:   cfg.Secure,
				SameSite: fiber.CookieSameSiteLaxMode,
			})
			ctx.Set(SessionTokenHeader, token)
		}

		ctx.Locals(sessionLocalsKey, id)
		return ctx.Next()
	}
}

// SessionID returns the session attached by SessionMiddleware.
func SessionID(ctx *fiber.Ctx) string {
	id, _ := ctx.Locals(sessionLocalsKey).(string)
	return id
}

func SignSessionToken(secret, sessionID string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		sessionClaim: sessionID,
		"iat":        now.Unix(),
		"exp":        now.Add(ttl).Unix(),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
}

func requestToken(ctx *fiber.Ctx) string {
	authHeader := ctx.Get("Authorization")
	if len(authHeader) > 7 && strings.EqualFold(authHeader[:7], "Bearer ") {
		return authHeader[7:]
	}
	if token := ctx.Get(SessionTokenHeader); token != "" {
		return token
	}
	return ctx.Cookies(SessionCookieName)
}

// parseSessionToken returns the session id and the expiry of a valid token.
func parseSessionToken(secret, tokenStr string) (string, time.Time, error) {
	if tokenStr == "" {
		return "", time.Time{}, errors.New("missing token")
	}

	token, err := jwt.Parse(tokenStr, func(t *jwt.Token) (interface{}, error) {
		return []byte(secret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil || !token.Valid {
		return "", time.Time{}, errors.New("invalid token")
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return "", time.Time{}, errors.New("invalid claims")
	}
	sid, _ := claims[sessionClaim].(string)
	if sid == "" {
		return "", time.Time{}, errors.New("missing session claim")
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return "", time.Time{}, errors.New("missing expiry")
	}
	return sid, exp.Time, nil
}
