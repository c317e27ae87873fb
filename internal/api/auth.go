package api

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"tripseat/internal/config"
	"tripseat/internal/domain"
	"tripseat/internal/models"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"
)

// DevUserHeader names the acting user when token auth is disabled.
const DevUserHeader = "X-User-ID"

var (
	errMissingCredentials = errors.New("missing credentials")
	errInvalidToken       = errors.New("invalid token")
	errUnknownUser        = errors.New("unknown user")
)

// UserResolver loads the acting user for an authenticated request.
type UserResolver interface {
	Resolve(ctx context.Context, id int64) (*models.User, error)
}

type actorKey struct{}

// ActorFromContext returns the user attached by HTTPAuth.Authenticate.
func ActorFromContext(ctx context.Context) (*models.User, bool) {
	u, ok := ctx.Value(actorKey{}).(*models.User)
	return u, ok && u != nil
}

// HTTPAuth provides bearer-token auth and per-client rate limiting.
// Failed authentications are charged to the client IP and throttled
// before any credential is checked.
type HTTPAuth struct {
	cfg      config.APIConfig
	users    UserResolver
	limiter  *rateLimiter
	failures *rateLimiter
	logger   *zerolog.Logger
}

func NewHTTPAuth(cfg config.APIConfig, users UserResolver, logger *zerolog.Logger) *HTTPAuth {
	return &HTTPAuth{
		cfg:      cfg,
		users:    users,
		limiter:  newRateLimiter(cfg.RateLimit),
		failures: newRateLimiter(cfg.RateLimit),
		logger:   logger,
	}
}

// Authenticate resolves the acting user and stores it in the request context.
func (a *HTTPAuth) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ipKey := "ip:" + remoteIP(r)
		if a.failures.exhausted(ipKey) {
			writeError(w, http.StatusTooManyRequests, "too many failed attempts")
			return
		}

		id, err := a.userID(r)
		if err != nil {
			a.failures.allow(ipKey)
			writeError(w, http.StatusUnauthorized, err.Error())
			return
		}

		user, err := a.users.Resolve(r.Context(), id)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				a.failures.allow(ipKey)
				writeError(w, http.StatusUnauthorized, errUnknownUser.Error())
				return
			}
			a.logger.Error().Err(err).Int64("user_id", id).Msg("Failed to resolve user")
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}

		ctx := context.WithValue(r.Context(), actorKey{}, user)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RateLimit must run after Authenticate so limits are keyed per user.
func (a *HTTPAuth) RateLimit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !a.limiter.allow(clientKey(r)) {
			writeError(w, http.StatusTooManyRequests, "rate limit exceeded")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (a *HTTPAuth) userID(r *http.Request) (int64, error) {
	if !a.cfg.Auth.Enabled {
		raw := strings.TrimSpace(r.Header.Get(DevUserHeader))
		if raw == "" {
			return 0, errMissingCredentials
		}
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || id <= 0 {
			return 0, fmt.Errorf("invalid %s header", DevUserHeader)
		}
		return id, nil
	}

	header := r.Header.Get("Authorization")
	raw, ok := strings.CutPrefix(header, "Bearer ")
	if !ok || strings.TrimSpace(raw) == "" {
		return 0, errMissingCredentials
	}
	return a.parseToken(strings.TrimSpace(raw))
}

func (a *HTTPAuth) parseToken(raw string) (int64, error) {
	claims := &jwt.RegisteredClaims{}
	_, err := jwt.ParseWithClaims(raw, claims, func(*jwt.Token) (any, error) {
		return []byte(a.cfg.Auth.JWTSecret), nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(a.cfg.Auth.Issuer),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		a.logger.Debug().Err(err).Msg("Token rejected")
		return 0, errInvalidToken
	}

	id, err := strconv.ParseInt(claims.Subject, 10, 64)
	if err != nil || id <= 0 {
		return 0, errInvalidToken
	}
	return id, nil
}

// IssueToken signs an HS256 token for userID, valid for ttl.
func IssueToken(cfg config.APIAuthConfig, userID int64, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := jwt.RegisteredClaims{
		Subject:   strconv.FormatInt(userID, 10),
		Issuer:    cfg.Issuer,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(cfg.JWTSecret))
}

func clientKey(r *http.Request) string {
	if u, ok := ActorFromContext(r.Context()); ok {
		return "user:" + strconv.FormatInt(u.ID, 10)
	}
	return remoteIP(r)
}

func remoteIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err == nil && host != "" {
		return host
	}
	if r.RemoteAddr != "" {
		return r.RemoteAddr
	}
	return "unknown"
}
