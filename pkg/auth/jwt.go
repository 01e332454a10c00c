package auth

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var ErrInvalidActionToken = errors.New("invalid action token")

// ActionClaims identify the item and the action a notification button performs.
type ActionClaims struct {
	ItemID int64  `json:"item_id"`
	Action string `json:"action"`
	jwt.RegisteredClaims
}

type JWT struct {
	Secret string
	TTL    time.Duration
}

func NewJWT(secret string, ttl time.Duration) *JWT {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}

	return &JWT{Secret: secret, TTL: ttl}
}

func (j *JWT) CreateActionToken(itemID int64, action string) (string, error) {
	now := time.Now()

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, ActionClaims{
		ItemID: itemID,
		Action: action,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "notification-action",
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(j.TTL)),
		},
	})

	return token.SignedString([]byte(j.Secret))
}

func (j *JWT) VerifyActionToken(tokenString string) (ActionClaims, error) {
	var claims ActionClaims

	token, err := jwt.ParseWithClaims(tokenString, &claims, func(token *jwt.Token) (any, error) {
		return []byte(j.Secret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))

	if err != nil {
		slog.Error("Error verifying action token", "error", err)
		return ActionClaims{}, fmt.Errorf("%w: %v", ErrInvalidActionToken, err)
	}

	if !token.Valid || claims.ItemID == 0 || claims.Action == "" {
		return ActionClaims{}, ErrInvalidActionToken
	}

	return claims, nil
}
