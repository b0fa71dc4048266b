package configuration

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/opdesk-io/opdesk/pkg/logging"
)

const Production = "production"

var singleton = sync.OnceValue(func() *Configuration {
	c := &Configuration{}
	if err := c.load([]string{".env", ".env.local"}); err != nil {
		c.Unload()
		panic(err)
	}
	return c
})

func LoadEnv(envFiles []string) (int, error) {
	existingFiles := make([]string, 0, len(envFiles))
	for _, file := range envFiles {
		if _, err := os.Stat(file); err == nil {
			existingFiles = append(existingFiles, file)
		}
	}

	if len(existingFiles) == 0 {
		return 0, nil
	}

	return len(existingFiles), godotenv.Load(existingFiles...)
}

type DatabaseOptions struct {
	Opts     string `env:"-"`
	Name     string `env:"DB_NAME" envDefault:"opdesk"`
	Host     string `env:"DB_HOST" envDefault:"localhost"`
	Port     string `env:"DB_PORT" envDefault:"5432"`
	User     string `env:"DB_USER" envDefault:"postgres"`
	Password string `env:"DB_PASSWORD" envDefault:"postgres"`
}

func (d *DatabaseOptions) ConnectionString() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s dbname=%s password=%s sslmode=disable",
		d.Host, d.Port, d.User, d.Name, d.Password,
	)
}

type RateLimitOptions struct {
	Enabled    bool `env:"RATE_LIMIT_ENABLED" envDefault:"true"`
	WebhookRPS int  `env:"RATE_LIMIT_WEBHOOK_RPS" envDefault:"30"`
}

func (r *RateLimitOptions) Validate() error {
	if r.WebhookRPS <= 0 {
		return fmt.Errorf("rate limit WebhookRPS must be positive, got %d", r.WebhookRPS)
	}
	return nil
}

type EngineOptions struct {
	OpenAIKey    string        `env:"OPENAI_KEY"`
	Model        string        `env:"ENGINE_MODEL" envDefault:"gpt-4o-mini"`
	BaseURL      string        `env:"ENGINE_BASE_URL"`
	SystemPrompt string        `env:"ENGINE_SYSTEM_PROMPT" envDefault:"You are a helpful support assistant."`
	CacheEnabled bool          `env:"ENGINE_CACHE_ENABLED" envDefault:"false"`
	CachePrefix  string        `env:"ENGINE_CACHE_PREFIX" envDefault:"chat:engine:replies"`
	CacheTTL     time.Duration `env:"ENGINE_CACHE_TTL" envDefault:"10m"`
}

type PrometheusOptions struct {
	Enabled bool   `env:"PROMETHEUS_METRICS_ENABLED" envDefault:"true"`
	Path    string `env:"PROMETHEUS_METRICS_PATH" envDefault:"/debug/prometheus"`
}

type JobsOptions struct {
	Queue       string `env:"JOBS_QUEUE" envDefault:"chat"`
	Concurrency int    `env:"JOBS_CONCURRENCY" envDefault:"10"`
	MaxRetry    int    `env:"JOBS_MAX_RETRY" envDefault:"5"`
}

type Configuration struct {
	Database   DatabaseOptions
	RateLimit  RateLimitOptions
	Engine     EngineOptions
	Prometheus PrometheusOptions
	Jobs       JobsOptions

	RedisURL         string `env:"REDIS_URL" envDefault:"localhost:6379"`
	ServerPort       int    `env:"PORT" envDefault:"3200"`
	GoAppEnvironment string `env:"GO_APP_ENV" envDefault:"development"`
	SocketAddress    string `env:"-"`
	LogLevel         string `env:"LOG_LEVEL" envDefault:"error"`
	LogPath          string `env:"LOG_PATH" envDefault:"./logs/app.log"`

	// Looked up in the request; when absent a random uuidv4 is generated.
	RequestIDHeader string `env:"REQUEST_ID_HEADER" envDefault:"X-Request-ID"`
	// Looked up in the request; when absent request.RemoteAddr is used.
	RealIPHeader string `env:"REAL_IP_HEADER" envDefault:"X-Real-IP"`

	WebhookSecretHeader string `env:"WEBHOOK_SECRET_HEADER" envDefault:"X-Webhook-Secret"`
	WebhookMaxBodySize  int64  `env:"WEBHOOK_MAX_BODY_SIZE" envDefault:"1048576"`

	TelegramAPIBase string `env:"TELEGRAM_API_BASE" envDefault:"https://api.telegram.org"`

	// Fallback takeover timeout when neither the request nor the tenant
	// carries one. Zero disables the fallback (manual release only).
	DefaultTakeoverTimeoutMinutes int `env:"DEFAULT_TAKEOVER_TIMEOUT_MINUTES" envDefault:"0"`

	logFile *os.File
	logger  *logrus.Logger
}

func (c *Configuration) Logger() *logrus.Logger {
	return c.logger
}

func (c *Configuration) LogrusLogLevel() logrus.Level {
	switch c.LogLevel {
	case "silent":
		return logrus.PanicLevel
	case "error":
		return logrus.ErrorLevel
	case "warn":
		return logrus.WarnLevel
	case "info":
		return logrus.InfoLevel
	case "debug":
		return logrus.DebugLevel
	default:
		return logrus.ErrorLevel
	}
}

func Use() *Configuration {
	return singleton()
}

func (c *Configuration) load(envFiles []string) error {
	n, err := LoadEnv(envFiles)
	if err != nil {
		return err
	}
	if n == 0 {
		wd, _ := os.Getwd()
		log.Println("No .env files found. Tried:")
		for _, file := range envFiles {
			log.Println(filepath.Join(wd, file))
		}
	}
	if err := env.Parse(c); err != nil {
		return err
	}

	if err := c.RateLimit.Validate(); err != nil {
		return fmt.Errorf("rate limit configuration error: %w", err)
	}

	f, logger, err := logging.FileLogger(c.LogrusLogLevel(), c.LogPath)
	if err != nil {
		return err
	}
	c.logFile = f
	c.logger = logger

	c.Database.Opts = c.Database.ConnectionString()
	if c.GoAppEnvironment == Production {
		c.SocketAddress = fmt.Sprintf(":%d", c.ServerPort)
	} else {
		c.SocketAddress = fmt.Sprintf("localhost:%d", c.ServerPort)
	}

	return nil
}

// Unload handles a graceful shutdown.
func (c *Configuration) Unload() {
	if c.logFile != nil {
		if err := c.logFile.Close(); err != nil {
			log.Printf("Failed to close log file: %v", err)
		}
	}
}
