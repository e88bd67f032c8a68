package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/yungbote/focustube-backend/internal/http/response"
	"github.com/yungbote/focustube-backend/internal/platform/apierr"
	"github.com/yungbote/focustube-backend/internal/platform/ctxutil"
	"github.com/yungbote/focustube-backend/internal/platform/logger"
)

const tokenCookie = "token"

var errUnauthorized = errors.New("missing or invalid token")

func rejectUnauthorized(c *gin.Context) {
	response.RespondServiceError(c, apierr.New(http.StatusUnauthorized, "unauthorized", errUnauthorized))
	c.Abort()
}

// Claims accepts both the registered subject and the legacy userId claim.
type Claims struct {
	UserID string `json:"userId,omitempty"`
	jwt.RegisteredClaims
}

func (c *Claims) ownerID() (uuid.UUID, error) {
	raw := strings.TrimSpace(c.Subject)
	if raw == "" {
		raw = strings.TrimSpace(c.UserID)
	}
	if raw == "" {
		return uuid.Nil, errors.New("token has no subject")
	}
	return uuid.Parse(raw)
}

type AuthMiddleware struct {
	log    *logger.Logger
	secret []byte
}

func NewAuthMiddleware(log *logger.Logger, secret string) *AuthMiddleware {
	return &AuthMiddleware{log: log.With("Middleware", "AuthMiddleware"), secret: []byte(secret)}
}

// ParseToken verifies an HS256 token and returns the owner it was issued to.
func (am *AuthMiddleware) ParseToken(tokenString string) (uuid.UUID, error) {
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		return am.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return uuid.Nil, err
	}
	return claims.ownerID()
}

func (am *AuthMiddleware) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString := extractTokenFromAll(c)
		if tokenString == "" {
			rejectUnauthorized(c)
			return
		}
		ownerID, err := am.ParseToken(tokenString)
		if err != nil || ownerID == uuid.Nil {
			am.log.Debug("Rejected token", "path", c.FullPath(), "error", err)
			rejectUnauthorized(c)
			return
		}
		ctx := ctxutil.WithRequestData(c.Request.Context(), &ctxutil.RequestData{
			TokenString: tokenString,
			OwnerID:     ownerID,
		})
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

// OwnerID returns the authenticated owner attached by RequireAuth.
func OwnerID(c *gin.Context) uuid.UUID {
	rd := ctxutil.GetRequestData(c.Request.Context())
	if rd == nil {
		return uuid.Nil
	}
	return rd.OwnerID
}

func extractTokenFromAll(c *gin.Context) string {
	authHeader := c.GetHeader("Authorization")
	if len(authHeader) > 7 && strings.EqualFold(authHeader[:7], "Bearer ") {
		return strings.TrimSpace(authHeader[7:])
	}
	if cookie, err := c.Cookie(tokenCookie); err == nil && cookie != "" {
		return cookie
	}
	return c.Query("token")
}
