// Package auth resolves the calling user from a JWT carried in a cookie or a
// bearer header and guards routes by role.
package auth

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/corray333/backend-labs/coffeeshop/internal/service/errs"
	"github.com/corray333/backend-labs/coffeeshop/internal/service/models/user"
	"github.com/dgrijalva/jwt-go"
	"github.com/spf13/viper"
)

const (
	MessageLoginRequired = "User not logged in"
	MessageTokenExpired  = "Your token has expired"
	MessageTokenInvalid  = "There was a problem logging you in"
	MessageAdminOnly     = "Admins only"
)

type contextKey string

const userContextKey = contextKey("user")

// Claims are the JWT claims issued at login. ID holds the user's email.
type Claims struct {
	ID string `json:"id"`
	jwt.StandardClaims
}

type userResolver interface {
	GetByEmail(ctx context.Context, email string) (user.User, error)
}

// Authenticator verifies tokens and loads the matching user.
type Authenticator struct {
	secret     []byte
	cookieName string
	loginPath  string
	users      userResolver
}

// NewAuthenticator reads JWT_SECRET from the environment and the cookie name
// and login path from auth.cookie_name and auth.login_path.
//
//goland:noinspection GoExportedFuncWithUnexportedType
func NewAuthenticator(users userResolver) *Authenticator {
	cookieName := viper.GetString("auth.cookie_name")
	if cookieName == "" {
		cookieName = "mytoken"
	}

	loginPath := viper.GetString("auth.login_path")
	if loginPath == "" {
		loginPath = "/login/"
	}

	return &Authenticator{
		secret:     []byte(os.Getenv("JWT_SECRET")),
		cookieName: cookieName,
		loginPath:  loginPath,
		users:      users,
	}
}

// Issue signs a token for email valid for ttl.
func (a *Authenticator) Issue(email string, ttl time.Duration) (string, error) {
	claims := &Claims{
		ID: email,
		StandardClaims: jwt.StandardClaims{
			ExpiresAt: time.Now().Add(ttl).Unix(),
		},
	}

	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(a.secret)
}

// authError is an ErrUnauthenticated with the message shown to the caller.
type authError struct {
	message string
}

func (e *authError) Error() string {
	return e.message
}

func (e *authError) Unwrap() error {
	return errs.ErrUnauthenticated
}

func (a *Authenticator) token(r *http.Request) string {
	if cookie, err := r.Cookie(a.cookieName); err == nil && cookie.Value != "" {
		return cookie.Value
	}

	header := r.Header.Get("Authorization")
	if token, ok := strings.CutPrefix(header, "Bearer "); ok {
		return strings.TrimSpace(token)
	}

	return ""
}

// Resolve returns the user behind the request credentials.
func (a *Authenticator) Resolve(r *http.Request) (user.User, error) {
	raw := a.token(r)
	if raw == "" {
		return user.User{}, &authError{message: MessageLoginRequired}
	}

	claims := &Claims{}
	token, err := jwt.ParseWithClaims(raw, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return a.secret, nil
	})
	if err != nil {
		var validationErr *jwt.ValidationError
		if errors.As(err, &validationErr) && validationErr.Errors&jwt.ValidationErrorExpired != 0 {
			return user.User{}, &authError{message: MessageTokenExpired}
		}
		return user.User{}, &authError{message: MessageTokenInvalid}
	}
	if !token.Valid || claims.ID == "" {
		return user.User{}, &authError{message: MessageTokenInvalid}
	}

	u, err := a.users.GetByEmail(r.Context(), claims.ID)
	if errors.Is(err, errs.ErrNotFound) {
		return user.User{}, &authError{message: MessageTokenInvalid}
	}
	if err != nil {
		return user.User{}, err
	}

	return u, nil
}

// RequireUser rejects API calls without a valid user with a 401 JSON failure.
func (a *Authenticator) RequireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		u, err := a.Resolve(r)
		if err != nil {
			if !errors.Is(err, errs.ErrUnauthenticated) {
				slog.Error("Failed to resolve user", "error", err)
				writeFailure(w, http.StatusInternalServerError, "internal error")
				return
			}
			writeFailure(w, http.StatusUnauthorized, err.Error())
			return
		}

		next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), u)))
	})
}

// RequirePageUser redirects page views without a valid user to the login page.
func (a *Authenticator) RequirePageUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		u, err := a.Resolve(r)
		if err != nil {
			if !errors.Is(err, errs.ErrUnauthenticated) {
				slog.Error("Failed to resolve user", "error", err)
				http.Error(w, "internal error", http.StatusInternalServerError)
				return
			}
			http.Redirect(w, r, a.loginPath+"?msg="+url.QueryEscape(err.Error()), http.StatusFound)
			return
		}

		next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), u)))
	})
}

// RequireAdmin must run after RequireUser.
func RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		u, ok := UserFrom(r.Context())
		if !ok || !u.IsAdmin() {
			writeFailure(w, http.StatusForbidden, MessageAdminOnly)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// WithUser stores u in ctx.
func WithUser(ctx context.Context, u user.User) context.Context {
	return context.WithValue(ctx, userContextKey, u)
}

// UserFrom returns the user stored by the auth middleware.
func UserFrom(ctx context.Context) (user.User, bool) {
	u, ok := ctx.Value(userContextKey).(user.User)
	return u, ok
}

func writeFailure(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"success": false,
		"message": message,
	})
}
