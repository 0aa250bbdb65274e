package config

import (
	"os"
	"sync"
)

type AuthConfig struct {
	// GatewaySecret, when set, must be echoed by the auth gateway on every request.
	GatewaySecret string
}

var (
	authConfig *AuthConfig
	authOnce   sync.Once
)

func LoadAuthConfig() *AuthConfig {
	authOnce.Do(func() {
		authConfig = &AuthConfig{
			GatewaySecret: os.Getenv("AUTH_GATEWAY_SECRET"),
		}
	})
	return authConfig
}
