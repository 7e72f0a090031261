package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/yourusername/livequiz-api/internal/config"
	"github.com/yourusername/livequiz-api/internal/gamesession"
	"github.com/yourusername/livequiz-api/internal/handler"
	"github.com/yourusername/livequiz-api/internal/middleware"
	pgRepo "github.com/yourusername/livequiz-api/internal/repository/postgres"
	redisRepo "github.com/yourusername/livequiz-api/internal/repository/redis"
	"github.com/yourusername/livequiz-api/internal/service"
	ws "github.com/yourusername/livequiz-api/internal/websocket"
	"github.com/yourusername/livequiz-api/pkg/auth"
	"github.com/yourusername/livequiz-api/pkg/database"
)

func main() {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "config/config.yaml"
	}
	log.Printf("Загрузка конфигурации из %s", configPath)

	cfg, err := config.Load(configPath)
	if err != nil {
		log.Printf("Failed to load config: %v", err)
		os.Exit(1)
	}

	// PostgreSQL и миграции
	db, err := database.NewPostgresDB(cfg.Database.PostgresConnectionString())
	if err != nil {
		log.Printf("Failed to connect to database: %v", err)
		os.Exit(1)
	}

	if err := database.MigrateDB(db, "file://migrations"); err != nil {
		log.Printf("Failed to migrate database: %v", err)
		os.Exit(1)
	}

	// Redis
	redisClient, err := database.NewUniversalRedisClient(cfg.Redis)
	if err != nil {
		log.Printf("Failed to connect to Redis: %v", err)
		os.Exit(1)
	}
	log.Println("Successfully connected to Redis")

	// Репозитории
	quizRepo := pgRepo.NewQuizRepo(db)
	gameRepo := pgRepo.NewGameRepo(db)
	playerRepo := pgRepo.NewPlayerRepo(db)
	answerRepo := pgRepo.NewAnswerRepo(db)

	cacheRepo, err := redisRepo.NewCacheRepo(redisClient)
	if err != nil {
		log.Printf("Failed to initialize CacheRepo: %v", err)
		os.Exit(1)
	}

	// WebSocket: PubSubProvider нужен только при кластеризации, иначе
	// события расходятся локально
	var pubSubProvider ws.PubSubProvider = &ws.NoOpPubSub{}
	if cfg.WebSocket.Cluster.Enabled {
		log.Println("Инициализация Redis PubSub для кластеризации WebSocket...")
		redisPubSubClient, errPubSub := database.NewUniversalRedisClient(cfg.Redis)
		if errPubSub != nil {
			log.Printf("Ошибка при инициализации Redis клиента для PubSub: %v. Кластеризация WS будет неактивна.", errPubSub)
		} else {
			redisProvider, errProv := ws.NewRedisPubSub(redisPubSubClient)
			if errProv != nil {
				log.Printf("Ошибка при создании Redis PubSub провайдера: %v. Кластеризация WS будет неактивна.", errProv)
				redisPubSubClient.Close()
			} else {
				log.Println("Redis PubSub провайдер успешно инициализирован")
				pubSubProvider = redisProvider
			}
		}
	}

	wsHub := ws.NewHub(pubSubProvider)
	if err := wsHub.Start(); err != nil {
		log.Printf("Failed to start WebSocket hub: %v", err)
		os.Exit(1)
	}
	wsManager := ws.NewManager(wsHub)

	// JWT: токены хостов выдает внешний сервис идентификации с тем же
	// секретом, токены игроков выдаем мы сами
	jwtService, err := auth.NewJWTService(cfg.JWT.Secret, time.Duration(cfg.JWT.PlayerTokenTTLHrs)*time.Hour)
	if err != nil {
		log.Printf("Failed to initialize JWTService: %v", err)
		os.Exit(1)
	}

	// Конфигурация игровых сессий
	sessionConfig := gamesession.DefaultConfig()
	if cfg.Game.PinLength > 0 {
		sessionConfig.PinLength = cfg.Game.PinLength
	}
	if cfg.Game.PinReserveTTLHrs > 0 {
		sessionConfig.PinReserveTTL = time.Duration(cfg.Game.PinReserveTTLHrs) * time.Hour
	}
	if cfg.Game.LeaderboardCacheTTLSec > 0 {
		sessionConfig.LeaderboardCacheTTL = time.Duration(cfg.Game.LeaderboardCacheTTLSec) * time.Second
	}

	// Сервисы
	quizService := service.NewQuizService(quizRepo)
	gameService := service.NewGameService(gameRepo, quizRepo, playerRepo, answerRepo, cacheRepo, wsManager, sessionConfig)

	allowedOrigins := cfg.CORS.AllowedOrigins
	if len(allowedOrigins) == 0 {
		allowedOrigins = []string{"http://localhost:5173", "http://localhost:3000"}
	}

	// Обработчики
	quizHandler := handler.NewQuizHandler(quizService)
	gameHandler := handler.NewGameHandler(gameService)
	playHandler := handler.NewPlayHandler(gameService, jwtService)
	wsHandler := handler.NewWSHandler(wsHub, gameService, jwtService, allowedOrigins)

	// Middleware
	authMiddleware := middleware.NewAuthMiddleware(jwtService)
	rateLimiter := middleware.NewRateLimiter(redisClient)

	router := gin.Default()

	// Настройка доверенных прокси для корректной работы c.ClientIP()
	isProduction := gin.Mode() == gin.ReleaseMode
	if isProduction {
		if err := router.SetTrustedProxies(nil); err != nil {
			log.Printf("Warning: failed to set trusted proxies: %v", err)
		}
	} else {
		if err := router.SetTrustedProxies([]string{"127.0.0.1", "::1"}); err != nil {
			log.Printf("Warning: failed to set trusted proxies: %v", err)
		}
	}

	// CORS: список должен совпадать с allowedOrigins WebSocket-обработчика
	router.Use(cors.New(cors.Config{
		AllowOrigins:     allowedOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
		ExposeHeaders:    []string{"Content-Length", "Content-Disposition"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	api := router.Group("/api")
	{
		// Викторины хоста
		quizzes := api.Group("/quizzes")
		quizzes.Use(authMiddleware.RequireHost())
		{
			quizzes.POST("", quizHandler.CreateQuiz)
			quizzes.GET("", quizHandler.ListQuizzes)

			quizWithID := quizzes.Group("/:id")
			quizWithID.Use(middleware.ExtractQuizID())
			{
				quizWithID.GET("", quizHandler.GetQuiz)
				quizWithID.DELETE("", quizHandler.DeleteQuiz)
			}
		}

		// Игровые сессии хоста
		games := api.Group("/games")
		games.Use(authMiddleware.RequireHost())
		{
			games.POST("", gameHandler.CreateGame)
			games.GET("", gameHandler.ListGames)

			gameWithID := games.Group("/:id")
			gameWithID.Use(middleware.ExtractGameID())
			{
				gameWithID.GET("", gameHandler.GetGame)
				gameWithID.GET("/snapshot", gameHandler.GetSnapshot)
				gameWithID.GET("/leaderboard", gameHandler.GetLeaderboard)
				gameWithID.GET("/export", gameHandler.ExportResults)
				gameWithID.POST("/start", gameHandler.StartGame)
				gameWithID.POST("/skip", gameHandler.SkipQuestion)
				gameWithID.POST("/next", gameHandler.NextQuestion)
				gameWithID.POST("/end", gameHandler.EndGame)
			}
		}

		// Игроки: вход по PIN и регистрация защищены только rate limit'ом,
		// остальное требует токена игрока
		play := api.Group("/play")
		{
			play.POST("/join", rateLimiter.LimitByIP(middleware.JoinRateLimitConfig()), playHandler.Join)

			playGame := play.Group("/games/:id")
			playGame.Use(middleware.ExtractGameID())
			{
				playGame.POST("/players", rateLimiter.LimitByIP(middleware.JoinRateLimitConfig()), playHandler.Register)
			}

			authedPlay := play.Group("")
			authedPlay.Use(authMiddleware.RequirePlayer())
			{
				authedPlay.POST("/answer", rateLimiter.Limit(middleware.AnswerRateLimitConfig()), playHandler.SubmitAnswer)
				authedPlay.GET("/snapshot", playHandler.GetSnapshot)
			}
		}
	}

	// WebSocket маршрут
	router.GET("/ws", wsHandler.HandleConnection)

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	go func() {
		log.Printf("Starting server on port %s", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Printf("Failed to start server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	wsHub.Stop()
	if err := pubSubProvider.Close(); err != nil {
		log.Printf("Error closing PubSub provider: %v", err)
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server forced to shutdown: %v", err)
		os.Exit(1)
	}

	log.Println("Server exited properly")
}
