package identity

import (
	"errors"
	"fmt"

	"github.com/golang-jwt/jwt/v5"

	"github.com/mmeshcher/dosirak-shop/internal/model"
)

// ErrInvalidToken возвращается для ID-токена, не прошедшего проверку.
var ErrInvalidToken = errors.New("invalid id token")

// Claims: утверждения ID-токена провайдера.
type Claims struct {
	Email   string `json:"email"`
	Name    string `json:"name"`
	Picture string `json:"picture"`
	jwt.RegisteredClaims
}

// Verifier проверяет подпись и срок действия ID-токенов.
type Verifier struct {
	secret []byte
	issuer string
}

// NewVerifier создаёт проверяющего для токенов HS256. Пустой issuer не проверяется.
func NewVerifier(secret, issuer string) *Verifier {
	return &Verifier{secret: []byte(secret), issuer: issuer}
}

// Verify проверяет токен и возвращает профиль пользователя без признака администратора.
func (v *Verifier) Verify(tokenString string) (model.UserProfile, error) {
	opts := []jwt.ParserOption{jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()})}
	if v.issuer != "" {
		opts = append(opts, jwt.WithIssuer(v.issuer))
	}

	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		return v.secret, nil
	}, opts...)
	if err != nil {
		return model.UserProfile{}, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}
	if !token.Valid || claims.Subject == "" {
		return model.UserProfile{}, ErrInvalidToken
	}

	return model.UserProfile{
		ID:          claims.Subject,
		Email:       claims.Email,
		DisplayName: claims.Name,
		AvatarURL:   claims.Picture,
	}, nil
}

// Sign выпускает токен с заданными утверждениями. Используется провайдером
// в локальном окружении и в тестах.
func (v *Verifier) Sign(claims Claims) (string, error) {
	if v.issuer != "" && claims.Issuer == "" {
		claims.Issuer = v.issuer
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(v.secret)
}
