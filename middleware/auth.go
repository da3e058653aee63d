package middleware

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v4"
)

const (
	UserContextKey    = "userID"
	RoleContextKey    = "role"
	CompanyContextKey = "companyID"

	RoleAdmin   = "admin"
	RolePartner = "partner"
)

// TokenValidator checks HMAC-signed bearer tokens.
type TokenValidator struct {
	secret []byte
}

func NewTokenValidator(secret string) *TokenValidator {
	secret = strings.TrimSpace(secret)
	if secret == "" {
		return &TokenValidator{}
	}
	return &TokenValidator{secret: []byte(secret)}
}

// ParseAndValidateToken parses a JWT token string and returns its claims.
func (v *TokenValidator) ParseAndValidateToken(tokenStr string) (jwt.MapClaims, error) {
	if v == nil || v.secret == nil {
		return nil, fmt.Errorf("JWT secret not configured")
	}

	token, err := jwt.Parse(tokenStr, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return v.secret, nil
	})
	if err != nil || token == nil || !token.Valid {
		return nil, fmt.Errorf("invalid or expired token")
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, fmt.Errorf("invalid token claims")
	}
	return claims, nil
}

// AuthMiddleware reads identity headers injected by the API gateway, falling
// back to a bearer token when the request did not come through it.
func AuthMiddleware(tokens *TokenValidator) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := c.GetHeader("X-User-ID")
		role := c.GetHeader("X-User-Role")
		company := c.GetHeader("X-Company-ID")

		if userID == "" {
			if v, err := c.Cookie("user_id"); err == nil && v != "" {
				userID = v
				role, _ = c.Cookie("user_role")
				company, _ = c.Cookie("company_id")
			}
		}

		if userID == "" {
			header := c.GetHeader("Authorization")
			if !strings.HasPrefix(header, "Bearer ") {
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
				return
			}
			claims, err := tokens.ParseAndValidateToken(strings.TrimPrefix(header, "Bearer "))
			if err != nil {
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired token"})
				return
			}
			userID = claimString(claims, "user_id")
			if userID == "" {
				userID = claimString(claims, "sub")
			}
			role = claimString(claims, "role")
			company = claimString(claims, "company_id")
		}

		if userID == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}

		c.Set(UserContextKey, userID)
		c.Set(RoleContextKey, strings.ToLower(role))
		if id, err := strconv.ParseInt(company, 10, 64); err == nil && id > 0 {
			c.Set(CompanyContextKey, id)
		}
		c.Next()
	}
}

// PartnerOrAdmin restricts access to partner companies and admins.
func PartnerOrAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		role := c.GetString(RoleContextKey)
		if role != RoleAdmin && role != RolePartner {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "Partner or admin role required"})
			return
		}
		c.Next()
	}
}

// CanAccessCompany reports whether the caller may act for companyID. Admins
// may act for any company; partners only for their own.
func CanAccessCompany(c *gin.Context, companyID int64) bool {
	if c.GetString(RoleContextKey) == RoleAdmin {
		return true
	}
	own, ok := c.Get(CompanyContextKey)
	if !ok {
		return false
	}
	id, ok := own.(int64)
	return ok && id == companyID
}

// claimString reads a string or numeric claim as text.
func claimString(claims jwt.MapClaims, key string) string {
	switch v := claims[key].(type) {
	case string:
		return v
	case float64:
		return strconv.FormatInt(int64(v), 10)
	}
	return ""
}
