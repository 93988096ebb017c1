package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Claims — клиентская проекция claims токена Saleor.
// Подпись токена клиент не проверяет — это задача бэкенда;
// парсинг без верификации нужен только для чтения exp и email.
type Claims struct {
	jwt.RegisteredClaims
	Email string `json:"email,omitempty"`
	Type  string `json:"type,omitempty"` // access / refresh
}

// ParseClaims извлекает claims токена без проверки подписи.
func ParseClaims(tokenString string) (*Claims, error) {
	token, _, err := jwt.NewParser().ParseUnverified(tokenString, &Claims{})
	if err != nil {
		return nil, fmt.Errorf("ошибка парсинга токена: %w", err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok {
		return nil, fmt.Errorf("невалидные claims токена")
	}

	return claims, nil
}

// TokenExpired возвращает true, если срок действия токена истёк.
// Токен без exp или недекодируемый токен считается истёкшим:
// пайплайн всё равно получит отказ от бэкенда, но лучше узнать раньше.
func TokenExpired(tokenString string) bool {
	claims, err := ParseClaims(tokenString)
	if err != nil {
		return true
	}
	if claims.ExpiresAt == nil {
		return true
	}
	return claims.ExpiresAt.Time.Before(time.Now())
}
