package config

import (
	"fmt"
	"log"
	"os"

	"github.com/spf13/viper"
)

// Config хранит все настройки приложения
type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	Redis     RedisConfig
	JWT       JWTConfig
	Game      GameConfig
	WebSocket WebSocketConfig
	CORS      CORSConfig
}

// ServerConfig содержит настройки HTTP сервера
type ServerConfig struct {
	Port         string `mapstructure:"port"`
	ReadTimeout  int    `mapstructure:"read_timeout"`
	WriteTimeout int    `mapstructure:"write_timeout"`
}

// DatabaseConfig содержит настройки подключения к PostgreSQL
type DatabaseConfig struct {
	Host     string `mapstructure:"host"`
	Port     string `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	DBName   string `mapstructure:"dbname"`
	SSLMode  string `mapstructure:"sslmode"`
}

// RedisConfig содержит унифицированные настройки подключения к Redis.
// Поддерживает режимы: single, sentinel, cluster.
type RedisConfig struct {
	// Mode: режим работы Redis ("single", "sentinel", "cluster"). По умолчанию "single".
	Mode string `mapstructure:"mode"`

	// Addrs: список адресов Redis (хост:порт). Используется для всех режимов.
	// Для 'single', если не пуст, используется первый адрес из списка.
	Addrs []string `mapstructure:"addrs"`

	// Addr: альтернативный адрес для режима 'single'.
	Addr string `mapstructure:"addr"`

	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`

	// MasterName: имя мастер-сервера Redis (только для режима "sentinel")
	MasterName string `mapstructure:"master_name"`

	// MaxRetries: максимальное количество попыток переподключения (-1 - бесконечно)
	MaxRetries int `mapstructure:"max_retries"`

	// MinRetryBackoff / MaxRetryBackoff: интервалы между попытками (в миллисекундах)
	MinRetryBackoff int `mapstructure:"min_retry_backoff"`
	MaxRetryBackoff int `mapstructure:"max_retry_backoff"`
}

// JWTConfig содержит настройки JWT.
// Секрет разделяется с внешним сервисом идентификации, выдающим токены хостов.
type JWTConfig struct {
	Secret            string `mapstructure:"secret"`
	PlayerTokenTTLHrs int    `mapstructure:"player_token_ttl_hrs"`
}

// GameConfig содержит настройки игровых сессий
type GameConfig struct {
	// PinLength: длина выдаваемого PIN-кода игры
	PinLength int `mapstructure:"pin_length"`

	// PinReserveTTLHrs: время жизни резервации PIN-кода в Redis (часы)
	PinReserveTTLHrs int `mapstructure:"pin_reserve_ttl_hrs"`

	// LeaderboardCacheTTLSec: время жизни кеша таблицы лидеров (секунды)
	LeaderboardCacheTTLSec int `mapstructure:"leaderboard_cache_ttl_sec"`
}

// WebSocketConfig содержит настройки WebSocket-подсистемы
type WebSocketConfig struct {
	// Cluster.Enabled включает межузловой fan-out событий через Redis Pub/Sub
	Cluster ClusterConfig `mapstructure:"cluster"`
}

// ClusterConfig содержит настройки кластеризации WebSocket
type ClusterConfig struct {
	Enabled bool `mapstructure:"enabled"`
}

// CORSConfig содержит список разрешенных Origin для HTTP API и WebSocket
type CORSConfig struct {
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// PostgresConnectionString формирует строку подключения к PostgreSQL
func (d *DatabaseConfig) PostgresConnectionString() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.DBName, d.SSLMode,
	)
}

// Load загружает конфигурацию из файла и переменных окружения
func Load(configPath string) (*Config, error) {
	vip := viper.New() // Отдельный экземпляр Viper, чтобы избежать глобального состояния

	// Значения по умолчанию
	vip.SetDefault("server.port", "8080")
	vip.SetDefault("database.sslmode", "disable")
	vip.SetDefault("redis.mode", "single")
	vip.SetDefault("jwt.player_token_ttl_hrs", 12)
	vip.SetDefault("game.pin_length", 6)
	vip.SetDefault("game.pin_reserve_ttl_hrs", 12)
	vip.SetDefault("game.leaderboard_cache_ttl_sec", 30)

	// Привязываем переменные окружения ЯВНО
	vip.BindEnv("server.port", "SERVER_PORT")

	vip.BindEnv("database.host", "DATABASE_HOST")
	vip.BindEnv("database.port", "DATABASE_PORT")
	vip.BindEnv("database.user", "DATABASE_USER")
	vip.BindEnv("database.password", "DATABASE_PASSWORD")
	vip.BindEnv("database.dbname", "DATABASE_DBNAME")
	vip.BindEnv("database.sslmode", "DATABASE_SSLMODE")

	vip.BindEnv("redis.mode", "REDIS_MODE")
	vip.BindEnv("redis.addrs", "REDIS_ADDRS")
	vip.BindEnv("redis.addr", "REDIS_ADDR")
	vip.BindEnv("redis.password", "REDIS_PASSWORD")
	vip.BindEnv("redis.db", "REDIS_DB")
	vip.BindEnv("redis.master_name", "REDIS_MASTER_NAME")

	vip.BindEnv("jwt.secret", "JWT_SECRET")
	vip.BindEnv("jwt.player_token_ttl_hrs", "JWT_PLAYER_TOKEN_TTL_HRS")

	vip.BindEnv("game.pin_length", "GAME_PIN_LENGTH")
	vip.BindEnv("game.pin_reserve_ttl_hrs", "GAME_PIN_RESERVE_TTL_HRS")
	vip.BindEnv("game.leaderboard_cache_ttl_sec", "GAME_LEADERBOARD_CACHE_TTL_SEC")

	vip.BindEnv("websocket.cluster.enabled", "WEBSOCKET_CLUSTER_ENABLED")

	vip.BindEnv("cors.allowed_origins", "CORS_ALLOWED_ORIGINS")

	// Файл конфигурации опционален: BindEnv покрывает продакшн-окружения
	if configPath != "" {
		vip.SetConfigFile(configPath)
		if err := vip.ReadInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); ok {
				log.Printf("Файл конфигурации '%s' не найден, используются переменные окружения/умолчания.", configPath)
			} else {
				log.Printf("Предупреждение: не удалось прочитать файл конфигурации '%s': %v", configPath, err)
			}
		}
	}

	var cfg Config
	if err := vip.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	// Логирование конфигурации (только в debug режиме; секреты не печатаем)
	if os.Getenv("GIN_MODE") != "release" {
		log.Printf("--- Загруженные значения конфигурации ---")
		log.Printf("Server Port: %s", cfg.Server.Port)
		log.Printf("Database Host: %s", cfg.Database.Host)
		log.Printf("Database Name: %s", cfg.Database.DBName)
		log.Printf("Redis Mode: %s", cfg.Redis.Mode)
		log.Printf("Redis Addr: %s", cfg.Redis.Addr)
		log.Printf("JWT Secret Set: %t", cfg.JWT.Secret != "")
		log.Printf("Game PIN Length: %d", cfg.Game.PinLength)
		log.Printf("Websocket Cluster Enabled: %t", cfg.WebSocket.Cluster.Enabled)
		log.Printf("-----------------------------------------")
	}

	// Проверка обязательных параметров
	if cfg.JWT.Secret == "" {
		return nil, fmt.Errorf("JWT secret is required in config (check JWT_SECRET env var)")
	}
	if cfg.Database.Host == "" || cfg.Database.DBName == "" || cfg.Database.User == "" {
		return nil, fmt.Errorf("database configuration (host, dbname, user) is incomplete in config (check DATABASE_HOST, DATABASE_DBNAME, DATABASE_USER env vars)")
	}
	if os.Getenv("GIN_MODE") == "release" && cfg.Database.Password == "" {
		return nil, fmt.Errorf("database password is required in release mode (check DATABASE_PASSWORD env var)")
	}

	return &cfg, nil
}
