package config

import (
	"fmt"
	"log"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all configuration values.
type Config struct {
	AppPort           string `mapstructure:"APP_PORT"`
	Env               string `mapstructure:"ENV"`
	LogLevel          string `mapstructure:"LOG_LEVEL"`
	JWTSecret         string `mapstructure:"JWT_SECRET"`
	MaxRequestsPerMin int    `mapstructure:"MAX_REQUESTS_PER_MIN"`

	// Storage. DATABASE_DRIVER is "mongo" or "memory".
	DatabaseDriver string `mapstructure:"DATABASE_DRIVER"`
	DatabaseURL    string `mapstructure:"DATABASE_URL"`
	DatabaseName   string `mapstructure:"DATABASE_NAME"`

	// Redis configuration.
	RedisAddr     string `mapstructure:"REDIS_ADDR"`
	RedisPassword string `mapstructure:"REDIS_PASSWORD"`
	RedisCacheDB  int    `mapstructure:"REDIS_CACHE_DB"`
	RedisQueueDB  int    `mapstructure:"REDIS_QUEUE_DB"`

	// Scheduling.
	ClinicTimezone       string        `mapstructure:"CLINIC_TIMEZONE"`
	ReminderInterval     time.Duration `mapstructure:"REMINDER_INTERVAL"`
	ReminderWindow       time.Duration `mapstructure:"REMINDER_WINDOW"`
	ReminderSendTimeout  time.Duration `mapstructure:"REMINDER_SEND_TIMEOUT"`
	ReminderSweepTimeout time.Duration `mapstructure:"REMINDER_SWEEP_TIMEOUT"`
	ReminderConcurrency  int           `mapstructure:"REMINDER_CONCURRENCY"`
	ReminderQueueEnabled bool          `mapstructure:"REMINDER_QUEUE_ENABLED"`

	// Mail delivery. The reminder sweeper stays off unless these are set.
	SMTPHost     string `mapstructure:"SMTP_HOST"`
	SMTPPort     int    `mapstructure:"SMTP_PORT"`
	SMTPUsername string `mapstructure:"SMTP_USERNAME"`
	SMTPPassword string `mapstructure:"SMTP_PASSWORD"`
	MailFrom     string `mapstructure:"MAIL_FROM"`

	// Payments.
	PaymentKeySecret string `mapstructure:"PAYMENT_KEY_SECRET"`
	PaymentCurrency  string `mapstructure:"PAYMENT_CURRENCY"`
	StripeKey        string `mapstructure:"STRIPE_KEY"`

	// Outbound event sinks, both optional.
	FirebaseCredentialsFile string `mapstructure:"FIREBASE_CREDENTIALS_FILE"`
	AMQPURL                 string `mapstructure:"AMQP_URL"`
	AMQPExchange            string `mapstructure:"AMQP_EXCHANGE"`
}

var AppConfig Config

func setDefaults(v *viper.Viper) {
	v.SetDefault("APP_PORT", "8080")
	v.SetDefault("ENV", "development")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("JWT_SECRET", "")
	v.SetDefault("MAX_REQUESTS_PER_MIN", 200)
	v.SetDefault("DATABASE_DRIVER", "mongo")
	v.SetDefault("DATABASE_URL", "mongodb://localhost:27017")
	v.SetDefault("DATABASE_NAME", "medislot")
	v.SetDefault("REDIS_ADDR", "localhost:6379")
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_CACHE_DB", 0)
	v.SetDefault("REDIS_QUEUE_DB", 3)
	v.SetDefault("CLINIC_TIMEZONE", "Asia/Kolkata")
	v.SetDefault("REMINDER_INTERVAL", "60s")
	v.SetDefault("REMINDER_WINDOW", "1h")
	v.SetDefault("REMINDER_SEND_TIMEOUT", "15s")
	v.SetDefault("REMINDER_SWEEP_TIMEOUT", "50s")
	v.SetDefault("REMINDER_CONCURRENCY", 8)
	v.SetDefault("REMINDER_QUEUE_ENABLED", false)
	v.SetDefault("SMTP_HOST", "")
	v.SetDefault("SMTP_PORT", 587)
	v.SetDefault("SMTP_USERNAME", "")
	v.SetDefault("SMTP_PASSWORD", "")
	v.SetDefault("MAIL_FROM", "")
	v.SetDefault("PAYMENT_KEY_SECRET", "")
	v.SetDefault("PAYMENT_CURRENCY", "INR")
	v.SetDefault("STRIPE_KEY", "")
	v.SetDefault("FIREBASE_CREDENTIALS_FILE", "")
	v.SetDefault("AMQP_URL", "")
	v.SetDefault("AMQP_EXCHANGE", "medislot.events")
}

// LoadConfig reads .env, config.yaml and the environment into AppConfig.
func LoadConfig() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, continuing")
	}

	v := viper.New()
	// Look for a config file named "config.yaml" in the current and "config" directory.
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AutomaticEnv()
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		log.Println("No config file found, using environment variables only")
	}

	if err := v.Unmarshal(&AppConfig); err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if err := AppConfig.Validate(); err != nil {
		log.Fatalf("Invalid config: %v", err)
	}
}

// Validate checks relationships between settings that no single default can guarantee.
func (c Config) Validate() error {
	if c.ReminderInterval <= 0 {
		return fmt.Errorf("REMINDER_INTERVAL must be positive, got %s", c.ReminderInterval)
	}
	// A reminder fires exactly once only if every window is crossed by at least one sweep.
	if c.ReminderInterval >= c.ReminderWindow {
		return fmt.Errorf("REMINDER_INTERVAL (%s) must be smaller than REMINDER_WINDOW (%s)", c.ReminderInterval, c.ReminderWindow)
	}
	if c.ReminderConcurrency < 1 {
		return fmt.Errorf("REMINDER_CONCURRENCY must be at least 1, got %d", c.ReminderConcurrency)
	}
	if _, err := time.LoadLocation(c.ClinicTimezone); err != nil {
		return fmt.Errorf("CLINIC_TIMEZONE %q: %w", c.ClinicTimezone, err)
	}
	switch c.DatabaseDriver {
	case "mongo", "memory":
	default:
		return fmt.Errorf("DATABASE_DRIVER must be mongo or memory, got %q", c.DatabaseDriver)
	}
	return nil
}

// Location returns the clinic's fixed timezone.
func (c Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.ClinicTimezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// MailConfigured reports whether reminder emails can be delivered.
func (c Config) MailConfigured() bool {
	return c.SMTPHost != "" && c.SMTPUsername != "" && c.SMTPPassword != "" && c.MailFrom != ""
}

func GetEnv() string {
	return AppConfig.Env
}

func IsProduction() bool {
	return GetEnv() == "production"
}
