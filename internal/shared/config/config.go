package config

import (
	"os"

	"github.com/joho/godotenv"
)

// Config centraliza variáveis de ambiente e parâmetros de execução do serviço
// Inclui credencial do provedor de odds, endereços e portas
type Config struct {
	Env         string // "local", "dev", "prod"
	ServiceName string

	// Provedor de odds (The Odds API)
	OddsAPIKey     string // obrigatória; ausência é erro fatal de inicialização
	OddsAPIBaseURL string

	// Cache opcional de respostas do provedor; vazio desativa
	RedisAddr string

	HTTPPort    string // Porta pública (endpoint MCP)
	MetricsPort string // Porta exclusiva para /metrics e /healthz
}

// Load carrega variáveis de ambiente e define defaults
// Um arquivo .env é lido quando presente (conveniência para ambiente local)
func Load() Config {
	_ = godotenv.Load()

	return Config{
		Env:         getEnv("ENV", "local"),
		ServiceName: getEnv("SERVICE_NAME", "odds-mcp-server"),

		OddsAPIKey:     getEnv("ODDS_API_KEY", ""),
		OddsAPIBaseURL: getEnv("ODDS_API_BASE_URL", "https://api.the-odds-api.com/v4"),

		RedisAddr: getEnv("REDIS_ADDR", ""),

		HTTPPort:    getEnv("HTTP_PORT", "8080"),
		MetricsPort: getEnv("METRICS_PORT", "9095"),
	}
}

// getEnv retorna o valor da variável de ambiente ou o default
func getEnv(key, def string) string {
	if v, ok := os.LookupEnv(key); ok {
		return v
	}
	return def
}
