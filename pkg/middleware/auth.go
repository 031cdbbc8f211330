package middleware

import (
	"errors"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"encoding-service/pkg/errno"
	"encoding-service/pkg/restapi"
)

// JWTAuthMiddleware 校验 HS256 Bearer token；secret 为空时直接放行
func JWTAuthMiddleware(secret, issuer string) gin.HandlerFunc {
	if strings.TrimSpace(secret) == "" {
		return func(c *gin.Context) { c.Next() }
	}
	key := []byte(secret)
	opts := []jwt.ParserOption{jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()})}
	if issuer != "" {
		opts = append(opts, jwt.WithIssuer(issuer))
	}
	parser := jwt.NewParser(opts...)

	return func(c *gin.Context) {
		raw := c.GetHeader("Authorization")
		if !strings.HasPrefix(raw, "Bearer ") {
			restapi.Failed(c, errno.ErrUnauthorized)
			c.Abort()
			return
		}
		claims := jwt.MapClaims{}
		token, err := parser.ParseWithClaims(strings.TrimPrefix(raw, "Bearer "), claims, func(*jwt.Token) (interface{}, error) {
			return key, nil
		})
		if err != nil || !token.Valid {
			if err == nil {
				err = errors.New("invalid token")
			}
			restapi.Failed(c, errno.NewBizError(errno.ErrUnauthorized, err))
			c.Abort()
			return
		}
		if sub, _ := claims.GetSubject(); sub != "" {
			c.Set("subject", sub)
		}
		c.Next()
	}
}
