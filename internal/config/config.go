// Package config загружает настройки приложения из окружения и файла .env.
package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Cfg struct {
	Database   Database
	Logger     Logger
	LLM        LLM
	Browser    Browser
	Agent      Agent
	Server     Server
	Migrations Migrations
}

type Database struct {
	Driver     string // postgres | sqlite
	Host       string
	Port       string
	Name       string
	User       string
	Password   string
	SQLitePath string
}

type Migrations struct {
	Path string
}

type Logger struct {
	Env   string
	Level string
	File  string
}

type LLM struct {
	APIKey        string
	BaseURL       string
	Models        []string
	Temperature   float32
	MaxTokens     int
	Referer       string
	Title         string
	RPM           int
	TPH           int
	RateLimitWait time.Duration
}

type Browser struct {
	Engine       string // playwright | static
	Display      string
	Headless     bool
	UserDataDir  string
	BrowsersPath string
	Timeout      time.Duration
}

type Agent struct {
	MaxSteps         int
	PageContextLimit int
	Cooldown         time.Duration
	MaxErrors        int
	NavigateTimeout  time.Duration
	ClickDelay       time.Duration
	SubmitDelay      time.Duration
}

type Server struct {
	Host string
	Port string
}

// DefaultModels - бесплатные модели OpenRouter в порядке приоритета.
var DefaultModels = []string{
	"nvidia/nemotron-3-nano-30b-a3b:free",
	"mistralai/mistral-small-3.1-24b-instruct:free",
	"google/gemma-3-27b-it:free",
	"meta-llama/llama-3.3-70b-instruct:free",
}

func Load() (*Cfg, error) {
	_ = godotenv.Load()

	cfg := &Cfg{
		Database: Database{
			Driver:     env("DB_DRIVER", "sqlite"),
			Host:       os.Getenv("DB_HOST"),
			Port:       env("DB_PORT", "5432"),
			Name:       os.Getenv("DB_NAME"),
			User:       os.Getenv("DB_USER"),
			Password:   os.Getenv("DB_PASS"),
			SQLitePath: env("SQLITE_PATH", "onyx.db"),
		},
		Logger: Logger{
			Env:   env("ENV", "dev"),
			Level: env("LOG_LEVEL", "info"),
			File:  os.Getenv("LOG_FILE"),
		},
		LLM: LLM{
			APIKey:        os.Getenv("OPENROUTER_API_KEY"),
			BaseURL:       env("OPENROUTER_BASE_URL", "https://openrouter.ai/api/v1"),
			Models:        envList("OPENROUTER_MODELS", DefaultModels),
			Temperature:   float32(envFloat("LLM_TEMPERATURE", 0.1)),
			MaxTokens:     envInt("LLM_MAX_TOKENS", 4096),
			Referer:       env("LLM_REFERER", "http://localhost:3000"),
			Title:         env("LLM_TITLE", "Onyx Browser"),
			RPM:           envInt("LLM_RPM", 20),
			TPH:           envInt("LLM_TPH", 200000),
			RateLimitWait: envDuration("LLM_RATE_LIMIT_WAIT", time.Second),
		},
		Browser: Browser{
			Engine:       env("BROWSER_ENGINE", "playwright"),
			Display:      env("DISPLAY", ":0"),
			Headless:     envBool("PW_HEADLESS"),
			UserDataDir:  os.Getenv("PW_USER_DATA_DIR"),
			BrowsersPath: env("PLAYWRIGHT_BROWSERS_PATH", ""),
			Timeout:      envDuration("BROWSER_TIMEOUT", 30*time.Second),
		},
		Agent: Agent{
			MaxSteps:         envInt("AGENT_MAX_STEPS", 5),
			PageContextLimit: envInt("AGENT_PAGE_CONTEXT_LIMIT", 12000),
			Cooldown:         envDuration("AGENT_COOLDOWN", time.Second),
			MaxErrors:        envInt("AGENT_MAX_ERRORS", 3),
			NavigateTimeout:  envDuration("AGENT_NAVIGATE_TIMEOUT", 10*time.Second),
			ClickDelay:       envDuration("AGENT_CLICK_DELAY", 400*time.Millisecond),
			SubmitDelay:      envDuration("AGENT_SUBMIT_DELAY", 300*time.Millisecond),
		},
		Server: Server{
			Host: env("SERVER_HOST", "127.0.0.1"),
			Port: env("SERVER_PORT", "8080"),
		},
		Migrations: Migrations{
			Path: os.Getenv("MIGRATIONS_PATH"),
		},
	}

	return cfg, nil
}

// PostgresDSN собирает строку подключения для драйвера postgres.
func (d Database) PostgresDSN() string {
	return "host=" + d.Host +
		" port=" + d.Port +
		" user=" + d.User +
		" password=" + d.Password +
		" dbname=" + d.Name +
		" sslmode=disable"
}

// PostgresURL - тот же адрес в формате URL, нужен golang-migrate.
func (d Database) PostgresURL() string {
	return "postgres://" + d.User + ":" + d.Password + "@" + d.Host + ":" + d.Port + "/" + d.Name + "?sslmode=disable"
}

func (s Server) Addr() string {
	return s.Host + ":" + s.Port
}

func env(key, defaultValue string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultValue
}

func envInt(key string, defaultValue int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return defaultValue
}

func envFloat(key string, defaultValue float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

func envBool(key string) bool {
	v := strings.ToLower(os.Getenv(key))
	return v == "true" || v == "1" || v == "yes"
}

func envDuration(key string, defaultValue time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return defaultValue
}

// envList разбирает список через запятую, пустые элементы отбрасываются.
func envList(key string, defaultValue []string) []string {
	v := os.Getenv(key)
	if v == "" {
		return append([]string(nil), defaultValue...)
	}
	var out []string
	for _, part := range strings.Split(v, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return append([]string(nil), defaultValue...)
	}
	return out
}
