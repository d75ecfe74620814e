package config

import (
	"log"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration values.
type Config struct {
	AppPort  string `mapstructure:"APP_PORT"`
	Env      string `mapstructure:"ENV"`
	LogLevel string `mapstructure:"LOG_LEVEL"`

	// SQLite booking database.
	DatabasePath string `mapstructure:"DATABASE_PATH"`

	// Redis configuration (assistant sessions + background queue).
	RedisAddr      string `mapstructure:"REDIS_ADDR"`
	RedisPassword  string `mapstructure:"REDIS_PASSWORD"`
	RedisSessionDB int    `mapstructure:"REDIS_SESSION_DB"`
	RedisQueueDB   int    `mapstructure:"REDIS_QUEUE_DB"`

	// Assistant session lifetime. An expired session simply gets a fresh
	// thread on the user's next message.
	SessionTTLHours int `mapstructure:"SESSION_TTL_HOURS"`

	// OpenAI assistant identity.
	OpenAIAPIKey   string `mapstructure:"OPENAI_API_KEY"`
	AssistantID    string `mapstructure:"ASSISTANT_ID"`
	AssistantModel string `mapstructure:"ASSISTANT_MODEL"`

	// Twilio messaging credentials.
	TwilioAccountSID          string `mapstructure:"TWILIO_ACCOUNT_SID"`
	TwilioAuthToken           string `mapstructure:"TWILIO_AUTH_TOKEN"`
	TwilioMessagingServiceSID string `mapstructure:"TWILIO_MESSAGING_SERVICE_SID"`
	TwilioWhatsAppNumber      string `mapstructure:"TWILIO_WHATSAPP_NUMBER"`

	// Webhook signature validation. Requires the public webhook URL to
	// reproduce the string Twilio signed.
	VerifyWebhookSignature bool   `mapstructure:"VERIFY_WEBHOOK_SIGNATURE"`
	WebhookURL             string `mapstructure:"WEBHOOK_URL"`
}

var AppConfig Config

func LoadConfig() {
	// Look for a config file named "config.yaml" in the current and "config" directory.
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")
	// Automatically use environment variables where available.
	viper.AutomaticEnv()

	// Set default values.
	viper.SetDefault("APP_PORT", "8080")
	viper.SetDefault("ENV", "development")
	viper.SetDefault("LOG_LEVEL", "info")
	viper.SetDefault("DATABASE_PATH", "booking_system.db")
	viper.SetDefault("REDIS_ADDR", "localhost:6379")
	viper.SetDefault("REDIS_PASSWORD", "")
	viper.SetDefault("REDIS_SESSION_DB", 0)
	viper.SetDefault("REDIS_QUEUE_DB", 1)
	viper.SetDefault("SESSION_TTL_HOURS", 720)
	viper.SetDefault("ASSISTANT_MODEL", "gpt-4o")
	viper.SetDefault("VERIFY_WEBHOOK_SIGNATURE", false)

	if err := viper.ReadInConfig(); err != nil {
		log.Println("No config file found, using environment variables only")
	}

	if err := viper.Unmarshal(&AppConfig); err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
}

func GetEnv() string {
	return AppConfig.Env
}

func IsProduction() bool {
	return GetEnv() == "production"
}

// SessionTTL returns the configured assistant session lifetime.
func SessionTTL() time.Duration {
	return time.Duration(AppConfig.SessionTTLHours) * time.Hour
}
