package gamesession

import (
	"crypto/rand"
	"errors"
	"fmt"
	"log"
	"math/big"

	apperrors "github.com/yourusername/livequiz-api/internal/pkg/errors"
)

// AllocatePin выдает свободный PIN-код для новой игры.
// Двухслойная проверка занятости: SetNX в Redis резервирует код на время
// жизни игры, запрос к БД страхует от потерянного ключа Redis — PIN занят,
// пока существует незавершённая игра с этим кодом.
func AllocatePin(config *Config, deps *Dependencies) (string, error) {
	for attempt := 0; attempt < config.PinMaxAttempts; attempt++ {
		pin, err := randomPin(config.PinLength)
		if err != nil {
			return "", err
		}

		reserved, err := deps.CacheRepo.SetNX(pinReserveKey(pin), "1", config.PinReserveTTL)
		if err != nil {
			return "", fmt.Errorf("failed to reserve pin: %w", err)
		}
		if !reserved {
			continue
		}

		_, err = deps.GameRepo.GetJoinableByPin(pin)
		switch {
		case errors.Is(err, apperrors.ErrGameNotJoinable):
			// Кода нет среди живых игр — можно выдавать
			return pin, nil
		case err == nil:
			// Резерв Redis был потерян, а игра с этим PIN ещё идёт
			log.Printf("[GameSession] PIN %s занят живой игрой, пробуем другой", pin)
			continue
		default:
			return "", err
		}
	}
	return "", fmt.Errorf("could not allocate a free pin in %d attempts", config.PinMaxAttempts)
}

// randomPin генерирует PIN из length десятичных цифр (ведущие нули допустимы)
func randomPin(length int) (string, error) {
	limit := big.NewInt(1)
	for i := 0; i < length; i++ {
		limit.Mul(limit, big.NewInt(10))
	}
	n, err := rand.Int(rand.Reader, limit)
	if err != nil {
		return "", fmt.Errorf("failed to generate pin: %w", err)
	}
	return fmt.Sprintf("%0*d", length, n), nil
}
