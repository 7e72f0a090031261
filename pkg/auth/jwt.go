package auth

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v4"
)

// Ошибки разбора токенов
var (
	ErrInvalidToken = errors.New("invalid token")
	ErrExpiredToken = errors.New("token has expired")
)

// HostClaims — токен хоста. Выдается внешним сервисом идентификации,
// разделяющим с нами секрет подписи; здесь такие токены только проверяются.
type HostClaims struct {
	UserID uint   `json:"user_id"`
	Email  string `json:"email,omitempty"`
	jwt.RegisteredClaims
}

// PlayerClaims — токен игрока. Выдается этим сервисом при регистрации
// имени в игре и действует до конца игры: по нему игрок отправляет
// ответы и восстанавливает состояние после переподключения.
type PlayerClaims struct {
	PlayerID uint `json:"player_id"`
	GameID   uint `json:"game_id"`
	jwt.RegisteredClaims
}

// JWTService предоставляет методы для работы с JWT
type JWTService struct {
	secretKey      []byte
	playerTokenTTL time.Duration
}

// NewJWTService создает новый сервис JWT
func NewJWTService(secretKey string, playerTokenTTL time.Duration) (*JWTService, error) {
	if secretKey == "" {
		return nil, fmt.Errorf("JWT secret key is required")
	}
	if playerTokenTTL <= 0 {
		playerTokenTTL = 12 * time.Hour
	}
	return &JWTService{
		secretKey:      []byte(secretKey),
		playerTokenTTL: playerTokenTTL,
	}, nil
}

// GeneratePlayerToken выдает токен игроку, зарегистрированному в игре
func (s *JWTService) GeneratePlayerToken(playerID uint, gameID uint) (string, error) {
	now := time.Now()
	claims := PlayerClaims{
		PlayerID: playerID,
		GameID:   gameID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatUint(uint64(playerID), 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.playerTokenTTL)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secretKey)
	if err != nil {
		return "", fmt.Errorf("failed to sign player token: %w", err)
	}
	return signed, nil
}

// ParseHostToken проверяет токен хоста и возвращает его claims
func (s *JWTService) ParseHostToken(tokenString string) (*HostClaims, error) {
	claims := &HostClaims{}
	if err := s.parse(tokenString, claims); err != nil {
		return nil, err
	}
	if claims.UserID == 0 {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// ParsePlayerToken проверяет токен игрока и возвращает его claims
func (s *JWTService) ParsePlayerToken(tokenString string) (*PlayerClaims, error) {
	claims := &PlayerClaims{}
	if err := s.parse(tokenString, claims); err != nil {
		return nil, err
	}
	if claims.PlayerID == 0 || claims.GameID == 0 {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

func (s *JWTService) parse(tokenString string, claims jwt.Claims) error {
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.secretKey, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return ErrExpiredToken
		}
		return fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !token.Valid {
		return ErrInvalidToken
	}
	return nil
}
