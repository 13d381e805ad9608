package echoapi

import (
	"sync"
	"time"

	"github.com/dgrijalva/jwt-go"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"

	"github.com/brighttutor/brightdesk/core"
	"github.com/brighttutor/brightdesk/core/task"
	"github.com/brighttutor/brightdesk/core/user"
)

var (
	contextTokenKey = "userToken"
	contextUserKey  = "user"
)

// Claims represents the authorization claims transmitted via a JWT.
type Claims struct {
	jwt.StandardClaims
	OrigIssuedAt int64  `json:"oriat,omitempty"`
	Email        string `json:"email,omitempty"`
}

func (c Claims) owner() task.Owner {
	return task.Owner{ID: c.Subject, Email: c.Email}
}

func newJWTConfig(conf *core.Config) middleware.JWTConfig {
	return middleware.JWTConfig{
		SigningKey:    []byte(conf.SecretKey),
		SigningMethod: middleware.AlgorithmHS256,
		ContextKey:    contextTokenKey,
		Claims:        new(Claims),
	}
}

// GetUserClaims returns the claims of a new session of usr.
// origIat is the issue time of the session being refreshed, if any.
func GetUserClaims(conf *core.Config, usr user.User, origIat ...int64) *Claims {
	now := time.Now()
	nownix := now.Unix()

	oriat := nownix
	if len(origIat) > 0 {
		oriat = origIat[0]
	}

	return &Claims{
		StandardClaims: jwt.StandardClaims{
			Id:        uuid.New().String(),
			Issuer:    conf.AppName,
			Subject:   usr.ID,
			ExpiresAt: now.Add(conf.Server.JWTExpirationDelta).Unix(),
			IssuedAt:  nownix,
		},
		OrigIssuedAt: oriat,
		Email:        usr.Email,
	}
}

// GenerateToken generates a signed JWT token string representing the user Claims.
func GenerateToken(conf *core.Config, claims *Claims) (string, error) {
	jwtConf := newJWTConfig(conf)
	token := jwt.NewWithClaims(jwt.GetSigningMethod(jwtConf.SigningMethod), claims)

	ss, err := token.SignedString(jwtConf.SigningKey)
	if err != nil {
		return "", errors.Wrap(err, "signing token")
	}
	return ss, nil
}

func getContextClaims(ctx echo.Context) (Claims, error) {
	if token, ok := ctx.Get(contextTokenKey).(*jwt.Token); ok {
		if claims, ok := token.Claims.(*Claims); ok {
			return *claims, nil
		}
	}
	return Claims{}, errUnauthorized
}

func getContextUser(ctx echo.Context, svc user.ServiceInterface, clms ...Claims) (user.User, error) {
	if usr, ok := ctx.Get(contextUserKey).(user.User); ok {
		return usr, nil
	}

	var claims Claims
	var err error
	if len(clms) > 0 {
		claims = clms[0]
	} else {
		claims, err = getContextClaims(ctx)
		if err != nil {
			return user.User{}, errors.Wrap(err, "getting context claims")
		}
	}

	usr, err := svc.GetByID(ctx.Request().Context(), claims.Subject)
	if err != nil {
		if errors.Cause(err) == user.ErrNotFound {
			return user.User{}, errUnauthorized
		}
		return user.User{}, errors.Wrap(err, "finding user by ID")
	}
	ctx.Set(contextUserKey, usr)
	return usr, nil
}

// revocations holds the IDs of signed-out tokens until they would have expired.
type revocations struct {
	mu     sync.Mutex
	tokens map[string]time.Time // {jti: expiresAt}
	now    func() time.Time
}

func newRevocations() *revocations {
	return &revocations{tokens: make(map[string]time.Time), now: time.Now}
}

func (r *revocations) revoke(claims Claims) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.purge()
	r.tokens[claims.Id] = time.Unix(claims.ExpiresAt, 0)
}

func (r *revocations) isRevoked(jti string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.tokens[jti]
	return ok
}

// purge must be called with the lock held.
func (r *revocations) purge() {
	now := r.now()
	for jti, exp := range r.tokens {
		if now.After(exp) {
			delete(r.tokens, jti)
		}
	}
}

func (r *revocations) len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.tokens)
}

// authMiddleware validates the JWT then rejects revoked tokens.
func authMiddleware(conf *core.Config, revoked *revocations) echo.MiddlewareFunc {
	jwtMiddleware := middleware.JWTWithConfig(newJWTConfig(conf))
	notRevoked := func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			claims, err := getContextClaims(ctx)
			if err != nil {
				return err
			}
			if revoked.isRevoked(claims.Id) {
				return errTokenRevoked
			}
			return next(ctx)
		}
	}
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return jwtMiddleware(notRevoked(next))
	}
}

func refreshToken(ctx echo.Context, conf *core.Config, svc user.ServiceInterface) (string, user.User, error) {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return "", user.User{}, errors.Wrap(err, "getting context claims")
	}

	usr, err := getContextUser(ctx, svc, claims)
	if err != nil {
		return "", user.User{}, errors.Wrap(err, "getting context user")
	}

	// check if user is still active
	if !usr.IsActive {
		return "", user.User{}, user.NewAuthError(user.CodeUserDisabled)
	}

	// check if refresh has not expired
	expTime := time.Unix(claims.OrigIssuedAt, 0).Add(conf.Server.JWTRefreshExpirationDelta)
	if time.Now().After(expTime) {
		return "", user.User{}, errRefreshExpired
	}

	token, err := GenerateToken(conf, GetUserClaims(conf, usr, claims.OrigIssuedAt))
	return token, usr, errors.Wrap(err, "generating token")
}
