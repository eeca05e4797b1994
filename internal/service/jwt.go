package service

import (
	"errors"
	"os"
	"time"

	"coinflip_arena/internal/domain"

	"github.com/golang-jwt/jwt/v5"
)

var jwtSecret []byte

func InitJWT() {
	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		panic("JWT_SECRET is not set")
	}
	jwtSecret = []byte(secret)
}

// GenerateJWT issues a token carrying the player's address.
func GenerateJWT(player domain.Address) (string, error) {
	now := time.Now().Unix()
	claims := jwt.MapClaims{
		"addr": player.Hex(),
		"exp":  time.Now().Add(24 * time.Hour).Unix(),
		"iat":  now,
		"nbf":  now,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(jwtSecret)
}

// ParseJWT validates a token and returns the player address.
func ParseJWT(tokenString string) (domain.Address, error) {
	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return jwtSecret, nil
	})

	if err != nil || !token.Valid {
		return domain.ZeroAddress, errors.New("invalid token")
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return domain.ZeroAddress, errors.New("invalid claims")
	}

	now := time.Now().Unix()
	if exp, ok := claims["exp"].(float64); ok {
		if int64(exp) < now {
			return domain.ZeroAddress, errors.New("token expired")
		}
	}
	if nbf, ok := claims["nbf"].(float64); ok {
		if int64(nbf) > now {
			return domain.ZeroAddress, errors.New("token not valid yet")
		}
	}

	addrStr, ok := claims["addr"].(string)
	if !ok {
		return domain.ZeroAddress, errors.New("addr not found")
	}

	addr, err := domain.ParseAddress(addrStr)
	if err != nil {
		return domain.ZeroAddress, errors.New("invalid addr claim")
	}
	return addr, nil
}
