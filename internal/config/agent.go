package config

import (
	"strings"
	"time"
)

// AgentConfig настройки casectl. Поля заполняются флагами cobra.
type AgentConfig struct {
	ServerAddr string
	Key        string        // ключ для подписи запросов
	Timeout    time.Duration // таймаут одного запроса
	Gzip       bool
}

// DefaultAgentConfig значения по умолчанию для флагов casectl.
func DefaultAgentConfig() AgentConfig {
	return AgentConfig{
		ServerAddr: "localhost:8080",
		Timeout:    10 * time.Second,
		Gzip:       true,
	}
}

// BaseURL адрес сервера со схемой.
func (c AgentConfig) BaseURL() string {
	if strings.HasPrefix(c.ServerAddr, "http://") || strings.HasPrefix(c.ServerAddr, "https://") {
		return strings.TrimRight(c.ServerAddr, "/")
	}
	return "http://" + strings.TrimRight(c.ServerAddr, "/")
}
