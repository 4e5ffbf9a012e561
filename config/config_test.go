package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func validConfig() *Config {
	return &Config{
		Server:     ServerConfig{Port: 8080},
		Auth:       AuthConfig{JWTSecret: "0123456789abcdef"},
		Mail:       MailConfig{Provider: "console"},
		Storage:    StorageConfig{Driver: "local", LocalDir: "uploads"},
		Assignment: AssignmentConfig{LockTTL: time.Minute},
	}
}

func TestValidate_OK(t *testing.T) {
	assert.NoError(t, validConfig().Validate())
}

func TestValidate_ShortSecret(t *testing.T) {
	cfg := validConfig()
	cfg.Auth.JWTSecret = "short"
	assert.Error(t, cfg.Validate())
}

func TestValidate_SendgridNeedsKey(t *testing.T) {
	cfg := validConfig()
	cfg.Mail.Provider = "sendgrid"
	assert.Error(t, cfg.Validate())

	cfg.Mail.SendgridAPIKey = "SG.key"
	assert.NoError(t, cfg.Validate())
}

func TestValidate_StorageDriver(t *testing.T) {
	cfg := validConfig()
	cfg.Storage.Driver = "s3"
	assert.Error(t, cfg.Validate())

	cfg.Storage.Driver = "b2"
	assert.Error(t, cfg.Validate(), "b2 缺少凭据时应失败")

	cfg.Storage.B2KeyID, cfg.Storage.B2AppKey, cfg.Storage.B2Bucket = "id", "key", "bucket"
	assert.NoError(t, cfg.Validate())
}

func TestDSN(t *testing.T) {
	c := DatabaseConfig{Host: "db", Port: 5432, User: "u", Password: "p", Name: "pfe", SSLMode: "disable", Timezone: "UTC"}
	assert.Equal(t, "host=db port=5432 user=u password=p dbname=pfe sslmode=disable TimeZone=UTC", c.DSN())
}
