package configuration

import (
	"encoding/json"
	"fmt"
	"os"
	"time"
)

type MongoConfig struct {
	Uri                     string `json:"uri"`
	Database                string `json:"database"`
	MessagesCollection      string `json:"messagesCollection"`
	ConversationsCollection string `json:"conversationsCollection"`
	UsersCollection         string `json:"usersCollection"`
}

type RedisConfig struct {
	Addr     string `json:"addr"`
	Password string `json:"password"`
	DB       int    `json:"db"`
}

type AuthConfig struct {
	JWTSecret         string `json:"jwt_secret"`
	SessionTTLMinutes int    `json:"session_ttl_minutes"`
}

type ServerConfig struct {
	AppPort        int      `json:"app_port"`
	SocketPort     int      `json:"socket_port"`
	SocketRoute    string   `json:"socket_route"`
	AllowedOrigins []string `json:"allowed_origins"`
}

type Config struct {
	ChatDatabase MongoConfig  `json:"mongo"`
	Sessions     RedisConfig  `json:"redis"`
	Auth         AuthConfig   `json:"auth"`
	Server       ServerConfig `json:"server"`
}

// SessionTTL returns the configured session lifetime, defaulting to 24h.
func (c *Config) SessionTTL() time.Duration {
	if c.Auth.SessionTTLMinutes <= 0 {
		return 24 * time.Hour
	}
	return time.Duration(c.Auth.SessionTTLMinutes) * time.Minute
}

func LoadConfig(configPath string) (*Config, error) {
	file, err := os.ReadFile(configPath)
	if err != nil {
		return nil, err
	}

	var config Config
	if err := json.Unmarshal(file, &config); err != nil {
		return nil, err
	}

	if config.ChatDatabase.Uri == "" {
		return nil, fmt.Errorf("config %s: mongo.uri is required", configPath)
	}
	if config.Auth.JWTSecret == "" {
		return nil, fmt.Errorf("config %s: auth.jwt_secret is required", configPath)
	}

	return &config, nil
}
