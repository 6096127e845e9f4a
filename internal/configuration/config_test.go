package configuration

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o600))
	return path
}

func TestLoadConfig(t *testing.T) {
	path := writeConfig(t, `{
		"mongo": {
			"uri": "mongodb://localhost:27017",
			"database": "chat",
			"messagesCollection": "messages",
			"conversationsCollection": "conversations",
			"usersCollection": "users"
		},
		"redis": {"addr": "localhost:6379", "db": 1},
		"auth": {"jwt_secret": "secret", "session_ttl_minutes": 60},
		"server": {
			"app_port": 8080,
			"socket_port": 8090,
			"socket_route": "/ws",
			"allowed_origins": ["http://localhost:3000"]
		}
	}`)

	config, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "mongodb://localhost:27017", config.ChatDatabase.Uri)
	assert.Equal(t, "chat", config.ChatDatabase.Database)
	assert.Equal(t, "localhost:6379", config.Sessions.Addr)
	assert.Equal(t, 1, config.Sessions.DB)
	assert.Equal(t, 8080, config.Server.AppPort)
	assert.Equal(t, 8090, config.Server.SocketPort)
	assert.Equal(t, "/ws", config.Server.SocketRoute)
	assert.Equal(t, []string{"http://localhost:3000"}, config.Server.AllowedOrigins)
	assert.Equal(t, time.Hour, config.SessionTTL())
}

func TestLoadConfigMissingFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "does-not-exist.json"))
	assert.Error(t, err)
}

func TestLoadConfigInvalidJSON(t *testing.T) {
	path := writeConfig(t, `{"mongo": `)
	_, err := LoadConfig(path)
	assert.Error(t, err)
}

func TestLoadConfigRequiresMongoURI(t *testing.T) {
	path := writeConfig(t, `{"auth": {"jwt_secret": "secret"}}`)
	_, err := LoadConfig(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "mongo.uri")
}

func TestLoadConfigRequiresJWTSecret(t *testing.T) {
	path := writeConfig(t, `{"mongo": {"uri": "mongodb://localhost:27017"}}`)
	_, err := LoadConfig(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "jwt_secret")
}

func TestSessionTTLDefault(t *testing.T) {
	config := &Config{}
	assert.Equal(t, 24*time.Hour, config.SessionTTL())
}
