package echoapi

import (
	"time"

	"github.com/dgrijalva/jwt-go"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"

	"github.com/trezcool/enrollment/core"
)

const (
	contextTokenKey = "staffToken"
	contextActorKey = "actor"
	tokenAudience   = "Enrollment"
)

// Claims represents the authorization claims transmitted via a JWT.
// Tokens are issued by the school's auth service or by the admin CLI.
type Claims struct {
	jwt.StandardClaims
	Username string `json:"username,omitempty"`
	Email    string `json:"email,omitempty"`
}

func newJWTConfig(conf *core.Config) middleware.JWTConfig {
	return middleware.JWTConfig{
		SigningKey:    []byte(conf.SecretKey),
		SigningMethod: middleware.AlgorithmHS256,
		ContextKey:    contextTokenKey,
		Claims:        new(Claims),
	}
}

func NewClaims(conf *core.Config, actor core.Actor) *Claims {
	now := time.Now()
	return &Claims{
		StandardClaims: jwt.StandardClaims{
			Issuer:    conf.AppName,
			Subject:   actor.ID,
			Audience:  tokenAudience,
			ExpiresAt: now.Add(conf.Server.JWTExpirationDelta).Unix(),
			IssuedAt:  now.Unix(),
		},
		Username: actor.Username,
		Email:    actor.Email,
	}
}

// GenerateToken generates a signed JWT token string representing the Claims.
func GenerateToken(conf *core.Config, claims *Claims) (string, error) {
	token := jwt.NewWithClaims(jwt.GetSigningMethod(middleware.AlgorithmHS256), claims)
	ss, err := token.SignedString([]byte(conf.SecretKey))
	if err != nil {
		return "", errors.Wrap(err, "signing token")
	}
	return ss, nil
}

func getContextClaims(ctx echo.Context) (Claims, bool) {
	if token, ok := ctx.Get(contextTokenKey).(*jwt.Token); ok {
		if claims, ok := token.Claims.(*Claims); ok {
			return *claims, true
		}
	}
	return Claims{}, false
}

func contextActor(ctx echo.Context) (core.Actor, bool) {
	actor, ok := ctx.Get(contextActorKey).(core.Actor)
	return actor, ok
}
