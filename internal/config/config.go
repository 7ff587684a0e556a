package config

import (
	"log"
	"os"

	"github.com/joho/godotenv"
)

// Config collects everything the client reads from the environment.
type Config struct {
	SocketURL    string
	ChatBaseURL  string
	APIBaseURL   string
	StorePath    string
	DiagAddr     string
	AMQPURL      string
	AMQPExchange string
	OTLPEndpoint string
	Environment  string
	Debug        bool
}

// Load reads an optional .env file and the environment.
func Load() Config {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Printf("config: skipping .env: %v", err)
	}

	return Config{
		SocketURL:    getenv("SOCKET_URL", "ws://localhost:3000/ws"),
		ChatBaseURL:  getenv("CHAT_BASE_URL", "http://localhost:3000"),
		APIBaseURL:   getenv("API_BASE_URL", "http://localhost:8000"),
		StorePath:    getenv("STORE_PATH", "messenger.db"),
		DiagAddr:     getenv("DIAG_ADDR", ":8086"),
		AMQPURL:      getenv("AMQP_URL", ""),
		AMQPExchange: getenv("AMQP_EXCHANGE", "messenger_events"),
		OTLPEndpoint: getenv("OTLP_ENDPOINT", ""),
		Environment:  getenv("ENVIRONMENT", "dev"),
		Debug:        getenv("DEBUG", "") == "true",
	}
}

func getenv(key, def string) string {
	if val, ok := os.LookupEnv(key); ok {
		return val
	}
	return def
}
