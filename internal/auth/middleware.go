package auth

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	apperrors "github.com/metrorail/induction-planner/pkg/errors"
)

// Claims is the JWT claims shape the engine expects on the opaque
// bearer credential.
type Claims struct {
	CallerID string `json:"caller_id"`
	Role     Role   `json:"role"`
	jwt.RegisteredClaims
}

const (
	contextCallerID = "caller_id"
	contextRole     = "role"
)

// Required validates the JWT bearer token and stores caller identity and
// role in the Gin context for downstream handlers.
func Required(jwtSecret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			abort(c, apperrors.NewUnauthorizedError("authorization header required"))
			return
		}

		tokenString := strings.TrimPrefix(header, "Bearer ")
		if tokenString == header {
			abort(c, apperrors.NewUnauthorizedError("authorization header must start with 'Bearer '"))
			return
		}

		token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(*jwt.Token) (interface{}, error) {
			return []byte(jwtSecret), nil
		})
		if err != nil || !token.Valid {
			abort(c, apperrors.NewUnauthorizedError("invalid token"))
			return
		}

		claims, ok := token.Claims.(*Claims)
		if !ok || !IsValidRole(claims.Role) {
			abort(c, apperrors.NewUnauthorizedError("invalid token claims"))
			return
		}

		c.Set(contextCallerID, claims.CallerID)
		c.Set(contextRole, claims.Role)
		c.Next()
	}
}

// RequireRole aborts with Forbidden unless the caller's role meets minimum.
func RequireRole(minimum Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		role, _ := c.Get(contextRole)
		callerRole, _ := role.(Role)
		if !AtLeast(callerRole, minimum) {
			abort(c, apperrors.NewForbiddenError("insufficient role for this operation"))
			return
		}
		c.Next()
	}
}

// CallerFromContext extracts the authenticated caller identity and role.
func CallerFromContext(c *gin.Context) (string, Role) {
	callerID, _ := c.Get(contextCallerID)
	role, _ := c.Get(contextRole)
	id, _ := callerID.(string)
	r, _ := role.(Role)
	return id, r
}

func abort(c *gin.Context, err *apperrors.AppError) {
	c.JSON(statusFor(err), gin.H{
		"success": false,
		"error":   err.Code,
		"message": err.Message,
	})
	c.Abort()
}

func statusFor(err *apperrors.AppError) int {
	if err.Status == 0 {
		return http.StatusInternalServerError
	}
	return err.Status
}
