package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-pkgz/auth/v2"
	"github.com/go-pkgz/auth/v2/avatar"
	"github.com/go-pkgz/auth/v2/provider"
	"github.com/go-pkgz/auth/v2/token"
	"github.com/gofiber/fiber/v2/log"
	"github.com/golang-jwt/jwt/v5"
	"github.com/krishkalaria12/snap-gallery/authz"
	"github.com/krishkalaria12/snap-gallery/models"
	"github.com/krishkalaria12/snap-gallery/store"
	"golang.org/x/crypto/bcrypt"
)

const (
	issuer     = "snap-gallery"
	bcryptCost = 10
)

var (
	ErrInvalidCreds  = errors.New("invalid username or password")
	ErrUsernameTaken = errors.New("username already taken")
	ErrInvalidInput  = errors.New("username and password are required")
)

type Options struct {
	Secret         string
	TokenDuration  time.Duration
	CookieDuration time.Duration
	SecureCookies  bool
	URL            string
	AvatarDir      string
}

// Service is the identity store and session token issuer.
type Service struct {
	users          store.UserStore
	auth           *auth.Service
	tokenDuration  time.Duration
	cookieDuration time.Duration
	secureCookies  bool
}

func NewService(users store.UserStore, opts Options) *Service {
	s := &Service{
		users:          users,
		tokenDuration:  opts.TokenDuration,
		cookieDuration: opts.CookieDuration,
		secureCookies:  opts.SecureCookies,
	}

	s.auth = auth.NewService(auth.Opts{
		SecretReader: token.SecretFunc(func(aud string) (string, error) {
			return opts.Secret, nil
		}),
		ClaimsUpd:      token.ClaimsUpdFunc(s.bindUserID),
		TokenDuration:  opts.TokenDuration,
		CookieDuration: opts.CookieDuration,
		SecureCookies:  opts.SecureCookies,
		Issuer:         issuer,
		URL:            opts.URL,
		AvatarStore:    avatar.NewLocalFS(opts.AvatarDir),

		// Direct provider logins answer with an X-JWT header for use as a
		// Bearer token. Only /login sets the session cookie.
		SendJWTHeader: true,
	})

	// Direct provider for API clients: GET or POST /auth/local/login
	s.auth.AddDirectProvider("local", provider.CredCheckerFunc(func(user, password string) (bool, error) {
		_, err := s.Verify(context.Background(), user, password)
		if errors.Is(err, ErrInvalidCreds) {
			return false, nil
		}
		return err == nil, err
	}))

	return s
}

// Handlers returns the go-pkgz/auth HTTP handler serving /auth/*.
func (s *Service) Handlers() http.Handler {
	authHandler, _ := s.auth.Handlers()
	return authHandler
}

func (s *Service) Register(ctx context.Context, username, password string) (*models.User, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return nil, ErrInvalidInput
	}

	_, err := s.users.GetUserByUsername(ctx, username)
	switch {
	case err == nil:
		return nil, ErrUsernameTaken
	case !errors.Is(err, store.ErrNotFound):
		return nil, err
	}

	hash, err := hashPassword(password)
	if errors.Is(err, bcrypt.ErrPasswordTooLong) {
		return nil, ErrInvalidInput
	}
	if err != nil {
		return nil, fmt.Errorf("hashing password: %w", err)
	}

	user := &models.User{Username: username, PasswordHash: hash}
	if err := s.users.CreateUser(ctx, user); err != nil {
		if errors.Is(err, store.ErrConflict) {
			return nil, ErrUsernameTaken
		}
		return nil, fmt.Errorf("creating user: %w", err)
	}
	return user, nil
}

// Verify checks credentials against the user store.
func (s *Service) Verify(ctx context.Context, username, password string) (*models.User, error) {
	user, err := s.users.GetUserByUsername(ctx, strings.TrimSpace(username))
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrInvalidCreds
	}
	if err != nil {
		return nil, err
	}

	if !checkPasswordHash(password, user.PasswordHash) {
		return nil, ErrInvalidCreds
	}
	return user, nil
}

// IssueToken creates a signed session token for user.
func (s *Service) IssueToken(user *models.User) (string, error) {
	now := time.Now()
	claims := token.Claims{
		User: &token.User{
			ID:   user.ID,
			Name: user.Username,
		},
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Audience:  []string{issuer},
			ExpiresAt: jwt.NewNumericDate(now.Add(s.tokenDuration)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}

	tokenStr, err := s.auth.TokenService().Token(claims)
	if err != nil {
		return "", fmt.Errorf("generating token: %w", err)
	}
	return tokenStr, nil
}

// ResolveIdentity turns a session token into the requester identity.
func (s *Service) ResolveIdentity(tokenStr string) (authz.Identity, error) {
	claims, err := s.auth.TokenService().Parse(tokenStr)
	if err != nil {
		return authz.Anonymous(), err
	}
	if claims.User == nil || claims.User.ID == "" {
		return authz.Anonymous(), errors.New("token has no user")
	}
	return authz.Identity{UserID: claims.User.ID, Username: claims.User.Name}, nil
}

func (s *Service) CookieDuration() time.Duration {
	return s.cookieDuration
}

func (s *Service) SecureCookies() bool {
	return s.secureCookies
}

// bindUserID rewrites the token user to the stored record: the id derived
// by the direct provider is replaced with the stored id and the name with
// the stored username. A user that cannot be resolved leaves the token
// without a user, which ResolveIdentity rejects.
func (s *Service) bindUserID(claims token.Claims) token.Claims {
	if claims.User == nil {
		return claims
	}

	name := strings.TrimSpace(claims.User.Name)
	user, err := s.users.GetUserByUsername(context.Background(), name)
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			log.Errorf("bind user id for %q: %v", name, err)
		}
		claims.User = nil
		return claims
	}

	bound := *claims.User
	bound.ID = user.ID
	bound.Name = user.Username
	claims.User = &bound
	return claims
}

func hashPassword(password string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	return string(hashed), err
}

func checkPasswordHash(password, hash string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	return err == nil
}
