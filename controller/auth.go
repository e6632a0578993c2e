package controller

import (
	"fmt"
	"net/http"
	"strconv"

	"chatrelay/service"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v4"
)

const ctxUserIDKey = "UserId"

// AuthController backs the token middleware and the refresh endpoint.
type AuthController struct {
	tokens *service.TokenService
	secret []byte
}

func NewAuthController(tokens *service.TokenService, secret string) *AuthController {
	return &AuthController{tokens: tokens, secret: []byte(secret)}
}

// TokenValid rejects requests without a valid bearer token.
func (a *AuthController) TokenValid(c *gin.Context) {
	tokenAuth, err := a.tokens.ExtractTokenMetadata(c.Request)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "Please login first"})
		return
	}
	c.Set(ctxUserIDKey, tokenAuth.UserID)
	c.Next()
}

// TokenOptional resolves the session when a valid bearer token is present
// and lets the request through either way. The chat endpoint serves guests.
func (a *AuthController) TokenOptional(c *gin.Context) {
	if tokenAuth, err := a.tokens.ExtractTokenMetadata(c.Request); err == nil {
		c.Set(ctxUserIDKey, tokenAuth.UserID)
	}
	c.Next()
}

// Refresh issues a new access token for a still-valid one.
func (a *AuthController) Refresh(c *gin.Context) {
	accessToken := a.tokens.ExtractToken(c.Request)

	token, err := jwt.Parse(accessToken, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return a.secret, nil
	})
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"message": "Invalid authorization, please login again"})
		return
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		c.JSON(http.StatusUnauthorized, gin.H{"message": "Invalid authorization, please login again"})
		return
	}

	userID, err := strconv.ParseUint(fmt.Sprintf("%.f", claims["user_id"]), 10, 64)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"message": "Invalid authorization, please login again"})
		return
	}

	ts, err := a.tokens.CreateToken(uint(userID))
	if err != nil {
		c.JSON(http.StatusForbidden, gin.H{"message": "Invalid authorization, please login again"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"token": ts.AccessToken})
}

// identityFromContext reads the session the token middleware resolved, plus
// the client IP for guest identification.
func identityFromContext(c *gin.Context) service.Identity {
	id := service.Identity{ClientIP: c.ClientIP()}
	if v, ok := c.Get(ctxUserIDKey); ok {
		if userID, ok := v.(uint); ok {
			id.Authenticated = true
			id.UserID = userID
		}
	}
	return id
}

// currentUserID returns the authenticated user id, or false for guests.
func currentUserID(c *gin.Context) (uint, bool) {
	v, ok := c.Get(ctxUserIDKey)
	if !ok {
		return 0, false
	}
	userID, ok := v.(uint)
	return userID, ok
}
