package middleware

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"buckety-go/internal/config"
	"buckety-go/internal/repository/inmemory"
	"buckety-go/pkg/logger"
	"github.com/golang-jwt/jwt/v5"
)

type SupabaseAuth struct {
	baseURL   string
	apiKey    string
	jwtSecret []byte
	client    *http.Client
	users     UserHook
	tokens    *inmemory.TTLCache[User]
	ensured   *inmemory.TTLCache[bool]
	tokenTTL  time.Duration
	skipAuth  bool
	mockUser  User
	log       logger.Logger
}

// ensuredUserTTL bounds how often the user hook runs for the same user.
const ensuredUserTTL = time.Hour

type contextKey int

const (
	userIDKey contextKey = iota
	userKey
)

type userResponse struct {
	ID           string                 `json:"id"`
	Email        string                 `json:"email"`
	Sub          string                 `json:"sub"`
	UserMetadata map[string]interface{} `json:"user_metadata"`
	User         struct {
		ID  string `json:"id"`
		Sub string `json:"sub"`
	} `json:"user"`
}

// supabaseClaims is the payload of a Supabase access token.
type supabaseClaims struct {
	Email        string                 `json:"email"`
	Role         string                 `json:"role"`
	UserMetadata map[string]interface{} `json:"user_metadata"`
	jwt.RegisteredClaims
}

type User struct {
	ID        string
	Email     string
	Name      string
	AvatarURL string
}

// UserHook runs once per authenticated request, e.g. to create default
// preferences for first-time users.
type UserHook interface {
	EnsureUser(ctx context.Context, userID string) error
}

func NewSupabaseAuth(cfg config.SupabaseConfig, users UserHook, log logger.Logger) *SupabaseAuth {
	baseURL := strings.TrimRight(cfg.URL, "/")
	timeout := cfg.AuthTimeout
	if timeout == 0 {
		timeout = 5 * time.Second
	}

	auth := &SupabaseAuth{
		baseURL: baseURL,
		apiKey:  cfg.PublishableKey,
		client: &http.Client{
			Timeout: timeout,
		},
		users:    users,
		tokens:   inmemory.NewTTLCache[User](),
		ensured:  inmemory.NewTTLCache[bool](),
		tokenTTL: cfg.TokenCacheTTL,
		skipAuth: cfg.SkipAuth,
		mockUser: User{
			ID:        strings.TrimSpace(cfg.MockUserID),
			Email:     strings.TrimSpace(cfg.MockUserEmail),
			Name:      strings.TrimSpace(cfg.MockUserName),
			AvatarURL: strings.TrimSpace(cfg.MockUserAvatar),
		},
		log: log.Named("auth"),
	}
	if secret := strings.TrimSpace(cfg.JWTSecret); secret != "" {
		auth.jwtSecret = []byte(secret)
	}
	return auth
}

func (a *SupabaseAuth) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if a.skipAuth {
			user := a.mockUser
			if user.ID == "" {
				writeError(w, http.StatusInternalServerError, "auth_not_configured", "auth mock user id not configured")
				return
			}
			a.ensureUser(r.Context(), user)
			next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), user)))
			return
		}

		if len(a.jwtSecret) == 0 && (a.baseURL == "" || a.apiKey == "") {
			writeError(w, http.StatusInternalServerError, "auth_not_configured", "auth not configured")
			return
		}

		token, ok := bearerToken(r.Header.Get("Authorization"))
		if !ok {
			unauthorized(w)
			return
		}

		var (
			user User
			err  error
		)
		if len(a.jwtSecret) > 0 {
			user, err = a.verifyLocal(token)
		} else {
			user, err = a.verifyRemote(r.Context(), token)
		}
		if err != nil {
			a.log.Debug("auth: token rejected", "error", err)
			unauthorized(w)
			return
		}

		a.ensureUser(r.Context(), user)
		next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), user)))
	})
}

// verifyLocal checks the token signature with the project's JWT secret.
func (a *SupabaseAuth) verifyLocal(token string) (User, error) {
	claims := &supabaseClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (interface{}, error) {
		return a.jwtSecret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired())
	if err != nil {
		return User{}, err
	}
	if !parsed.Valid || claims.Subject == "" {
		return User{}, jwt.ErrTokenInvalidClaims
	}
	if claims.Role == "anon" {
		return User{}, errors.New("anonymous token")
	}
	return User{
		ID:        claims.Subject,
		Email:     claims.Email,
		Name:      firstNonEmpty(stringFromMap(claims.UserMetadata, "name"), stringFromMap(claims.UserMetadata, "full_name")),
		AvatarURL: stringFromMap(claims.UserMetadata, "avatar_url"),
	}, nil
}

// verifyRemote asks Supabase who the token belongs to. Answers are cached
// briefly by token hash.
func (a *SupabaseAuth) verifyRemote(ctx context.Context, token string) (User, error) {
	key := tokenKey(token)
	if user, ok := a.tokens.Get(key); ok {
		return user, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, a.baseURL+"/auth/v1/user", nil)
	if err != nil {
		return User{}, err
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("apikey", a.apiKey)

	resp, err := a.client.Do(req)
	if err != nil {
		return User{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return User{}, fmt.Errorf("auth server returned %d", resp.StatusCode)
	}

	var payload userResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return User{}, err
	}

	userID := firstNonEmpty(payload.ID, payload.Sub, payload.User.ID, payload.User.Sub)
	if userID == "" {
		return User{}, errors.New("user id missing")
	}

	user := User{
		ID:        userID,
		Email:     payload.Email,
		Name:      firstNonEmpty(stringFromMap(payload.UserMetadata, "name"), stringFromMap(payload.UserMetadata, "full_name")),
		AvatarURL: stringFromMap(payload.UserMetadata, "avatar_url"),
	}
	a.tokens.Set(key, user, a.tokenTTL)
	return user, nil
}

func (a *SupabaseAuth) ensureUser(ctx context.Context, user User) {
	if a.users == nil {
		return
	}
	if _, ok := a.ensured.Get(user.ID); ok {
		return
	}
	if err := a.users.EnsureUser(ctx, user.ID); err != nil {
		a.log.InternalError("auth: ensure user failed", err, "user_id", user.ID)
		return
	}
	a.ensured.Set(user.ID, true, ensuredUserTTL)
}

func tokenKey(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

func bearerToken(value string) (string, bool) {
	parts := strings.Fields(value)
	if len(parts) != 2 {
		return "", false
	}
	if !strings.EqualFold(parts[0], "Bearer") {
		return "", false
	}
	return parts[1], true
}

func unauthorized(w http.ResponseWriter) {
	writeError(w, http.StatusUnauthorized, "invalid_token", "invalid token")
}

func WithUser(ctx context.Context, user User) context.Context {
	ctx = context.WithValue(ctx, userKey, user)
	return context.WithValue(ctx, userIDKey, user.ID)
}

func WithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, userIDKey, userID)
}

func UserFromContext(ctx context.Context) (User, bool) {
	value := ctx.Value(userKey)
	user, ok := value.(User)
	if !ok || user.ID == "" {
		return User{}, false
	}
	return user, true
}

func UserIDFromContext(ctx context.Context) (string, bool) {
	value := ctx.Value(userIDKey)
	userID, ok := value.(string)
	if !ok || userID == "" {
		return "", false
	}
	return userID, true
}

func firstNonEmpty(values ...string) string {
	for _, value := range values {
		if value != "" {
			return value
		}
	}
	return ""
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]interface{}{
		"error": map[string]string{
			"code":    code,
			"message": message,
		},
	})
}

func stringFromMap(values map[string]interface{}, key string) string {
	if values == nil {
		return ""
	}
	value, ok := values[key]
	if !ok {
		return ""
	}
	parsed, ok := value.(string)
	if !ok {
		return ""
	}
	return parsed
}
