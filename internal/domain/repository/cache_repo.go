package repository

import (
	"time"
)

// CacheRepository определяет методы для работы с кешем.
// Используется для резервирования PIN-кодов (SetNX), счётчиков ответов
// (Increment) и кеширования снимков состояния игры (SetJSON/GetJSON).
type CacheRepository interface {
	Set(key string, value interface{}, expiration time.Duration) error
	Get(key string) (string, error)
	Delete(key string) error
	Increment(key string) (int64, error)
	SetJSON(key string, value interface{}, expiration time.Duration) error
	GetJSON(key string, dest interface{}) error
	SetNX(key string, value interface{}, expiration time.Duration) (bool, error)
}
