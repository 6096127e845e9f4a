package configuration

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/OlharAngolano/MB.olharAngolano/internal/auth"
	"github.com/OlharAngolano/MB.olharAngolano/internal/db"
	"github.com/OlharAngolano/MB.olharAngolano/internal/handler"
	"github.com/OlharAngolano/MB.olharAngolano/internal/hub"
	"github.com/OlharAngolano/MB.olharAngolano/internal/model"
	"github.com/OlharAngolano/MB.olharAngolano/internal/repo"
	"github.com/OlharAngolano/MB.olharAngolano/internal/service"

	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

const defaultConfigPath = "config/config.dev.json"

type Container struct {
	ChatHandler handler.ChatHandler
	Sessions    *auth.SessionStore
	Hub         *hub.Hub
	Config      Config
	Logger      *zap.Logger

	// private - for cleanup
	mongoDatabase *mongo.Database
	redisClient   *redis.Client
}

func BuildContainer() (*Container, error) {
	configPath := os.Getenv("CHAT_CONFIG")
	if configPath == "" {
		configPath = defaultConfigPath
	}

	config, err := LoadConfig(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	logger, err := zap.NewProduction()
	if err != nil {
		return nil, fmt.Errorf("failed to build logger: %w", err)
	}

	con, err := db.OpenConnection(config.ChatDatabase.Uri, config.ChatDatabase.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongo: %w", err)
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     config.Sessions.Addr,
		Password: config.Sessions.Password,
		DB:       config.Sessions.DB,
	})

	messageRepo := repo.NewMessageRepository(
		db.NewRepository[model.Message](con, config.ChatDatabase.MessagesCollection), logger)
	conversationRepo := repo.NewConversationRepository(
		db.NewRepository[model.Conversation](con, config.ChatDatabase.ConversationsCollection), logger)
	userRepo := repo.NewUserRepository(
		db.NewRepository[model.User](con, config.ChatDatabase.UsersCollection))

	chatHub := hub.NewHub(logger, config.Server.AllowedOrigins)

	chatService := service.NewChatService(conversationRepo, messageRepo, userRepo, chatHub, logger)
	chatHub.SetStore(chatService)

	sessions := auth.NewSessionStore(rdb, []byte(config.Auth.JWTSecret), config.SessionTTL(), logger)
	chatHandler := handler.NewChatHandler(chatService)

	return &Container{
		ChatHandler:   chatHandler,
		Sessions:      sessions,
		Hub:           chatHub,
		Config:        *config,
		Logger:        logger,
		mongoDatabase: con,
		redisClient:   rdb,
	}, nil
}

// Close gracefully shuts down all connections.
func (c *Container) Close() error {
	// Stop the hub first so every WebSocket closes before the stores do.
	if c.Hub != nil {
		c.Hub.Stop()
	}

	if c.Logger != nil {
		_ = c.Logger.Sync()
	}

	if c.redisClient != nil {
		if err := c.redisClient.Close(); err != nil {
			return fmt.Errorf("failed to close redis connection: %w", err)
		}
	}

	if c.mongoDatabase != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := c.mongoDatabase.Client().Disconnect(ctx); err != nil {
			return fmt.Errorf("failed to close MongoDB connection: %w", err)
		}
	}

	return nil
}
