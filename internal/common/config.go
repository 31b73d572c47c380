package common

import (
	"errors"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const DefaultMaxFileBytes int64 = 50 << 20

// Config holds all application configuration
type Config struct {
	Loader     LoaderConfig
	OCR        OCRConfig
	Classifier ClassifierConfig
	Database   DatabaseConfig
	Queue      QueueConfig
	Server     ServerConfig
	Log        LogConfig
	LocaleFile string
}

// LogConfig selects the slog handler.
type LogConfig struct {
	Level  string // debug, info, warn, error
	Format string // json or text
}

// LoaderConfig controls document acquisition.
type LoaderConfig struct {
	MaxFileBytes     int64
	ScannedThreshold int
	PDFTextEngine    string // "pdftotext" or "native"
	Pdftotext        string
}

// OCRConfig holds OCR-related configuration
type OCRConfig struct {
	Enabled       bool
	Backend       string // "tesseract" (CLI) or "gosseract" (cgo, build tag)
	Tesseract     string
	Pdftoppm      string
	Lang          string
	TessdataDir   string
	PSM           int
	OEM           int
	DPI           int
	MaxPages      int
	Workers       int
	Retries       int
	Preprocess    bool
	LowConfidence float64
	WorkDir       string
}

// ClassifierConfig tunes the layout classifier.
type ClassifierConfig struct {
	UnknownBelow float64
}

// DatabaseConfig holds database-related configuration
type DatabaseConfig struct {
	DSN              string
	MaxConns         int32
	MinConns         int32
	MaxConnLifetime  time.Duration
	MaxConnIdleTime  time.Duration
	DialTimeout      time.Duration
	StatementTimeout time.Duration
}

// QueueConfig sizes the background processing queue.
type QueueConfig struct {
	Workers    int
	Size       int
	JobTimeout time.Duration
}

// ServerConfig holds server-related configuration
type ServerConfig struct {
	GRPCAddr    string
	MetricsAddr string
	InboxDir    string
	Debounce    time.Duration
}

// LoadConfig loads configuration from environment variables
func LoadConfig() *Config {
	return &Config{
		Loader: LoaderConfig{
			MaxFileBytes:     getEnvAsInt64("MAX_FILE_BYTES", DefaultMaxFileBytes),
			ScannedThreshold: getEnvAsInt("SCANNED_THRESHOLD", 100),
			PDFTextEngine:    getEnv("PDF_TEXT_ENGINE", "pdftotext"),
			Pdftotext:        getEnv("PDFTOTEXT_BIN", "pdftotext"),
		},
		OCR: OCRConfig{
			Enabled:       getEnvAsBool("OCR_ENABLED", true),
			Tesseract:     getEnv("TESSERACT_BIN", "tesseract"),
			Pdftoppm:      getEnv("PDFTOPPM_BIN", "pdftoppm"),
			Lang:          getEnv("OCR_LANG", "spa+eng"),
			TessdataDir:   getEnv("TESSDATA_PREFIX", ""),
			PSM:           getEnvAsInt("OCR_PSM", 6),
			OEM:           getEnvAsInt("OCR_OEM", 1),
			DPI:           getEnvAsInt("OCR_DPI", 300),
			MaxPages:      getEnvAsInt("OCR_MAX_PAGES", 50),
			Workers:       getEnvAsInt("OCR_WORKERS", 4),
			Retries:       getEnvAsInt("OCR_RETRIES", 2),
			Preprocess:    getEnvAsBool("OCR_PREPROCESS", true),
			LowConfidence: getEnvAsFloat("OCR_LOW_CONFIDENCE", 60),
			WorkDir:       getEnv("OCR_WORK_DIR", ""),
		},
		Classifier: ClassifierConfig{
			UnknownBelow: getEnvAsFloat("CLASSIFIER_UNKNOWN_BELOW", 0.1),
		},
		Database: DatabaseConfig{
			DSN:              getEnv("DB_URL", "budgets.db"),
			MaxConns:         getEnvAsInt32("DB_MAX_CONNS", 20),
			MinConns:         getEnvAsInt32("DB_MIN_CONNS", 2),
			MaxConnLifetime:  getEnvAsDuration("DB_MAX_CONN_LIFETIME", 30*time.Minute),
			MaxConnIdleTime:  getEnvAsDuration("DB_MAX_CONN_IDLE_TIME", 5*time.Minute),
			DialTimeout:      getEnvAsDuration("DB_DIAL_TIMEOUT", 3*time.Second),
			StatementTimeout: getEnvAsDuration("DB_STATEMENT_TIMEOUT", 0),
		},
		Queue: QueueConfig{
			Workers:    getEnvAsInt("QUEUE_WORKERS", 2),
			Size:       getEnvAsInt("QUEUE_SIZE", 64),
			JobTimeout: getEnvAsDuration("QUEUE_JOB_TIMEOUT", 5*time.Minute),
		},
		Server: ServerConfig{
			GRPCAddr:    getEnv("GRPC_ADDR", ":8080"),
			MetricsAddr: getEnv("METRICS_ADDR", ":9090"),
			InboxDir:    getEnv("INBOX_DIR", "./inbox"),
			Debounce:    getEnvAsDuration("WATCH_DEBOUNCE", 500*time.Millisecond),
		},
		Log: LogConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
		},
		LocaleFile: getEnv("LOCALE_FILE", ""),
	}
}

// LoadDotEnv loads KEY=VALUE pairs from the given files (default ".env") into the environment.
// Variables already set win, and missing files are not an error.
func LoadDotEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, p := range paths {
		if err := godotenv.Load(p); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return NewAppError(CodeConfig, "load "+p, err)
		}
	}
	return nil
}

// NewLogger builds the process logger writing to w.
func NewLogger(cfg LogConfig, w io.Writer) *slog.Logger {
	var level slog.Level
	switch strings.ToLower(cfg.Level) {
	case "debug":
		level = slog.LevelDebug
	case "warn", "warning":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}
	if strings.EqualFold(cfg.Format, "text") {
		return slog.New(slog.NewTextHandler(w, opts))
	}
	return slog.New(slog.NewJSONHandler(w, opts))
}

// Helper functions for environment variable parsing
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsInt32(key string, defaultValue int32) int32 {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.ParseInt(value, 10, 32); err == nil {
			return int32(intVal)
		}
	}
	return defaultValue
}

func getEnvAsInt64(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.ParseInt(value, 10, 64); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 64); err == nil {
			return floatVal
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

// Validate validates the loaded configuration
func (c *Config) Validate() error {
	v := NewValidator().
		Field("MAX_FILE_BYTES", c.Loader.MaxFileBytes, Positive).
		Field("SCANNED_THRESHOLD", c.Loader.ScannedThreshold, Positive).
		Field("OCR_WORKERS", c.OCR.Workers, Positive).
		Field("OCR_DPI", c.OCR.DPI, Positive).
		Field("OCR_LOW_CONFIDENCE", c.OCR.LowConfidence, InRange(0, 100)).
		Field("CLASSIFIER_UNKNOWN_BELOW", c.Classifier.UnknownBelow, InRange(0, 1)).
		Field("QUEUE_WORKERS", c.Queue.Workers, Positive).
		Field("QUEUE_SIZE", c.Queue.Size, Positive)
	if err := v.Error(); err != nil {
		return NewAppError(CodeConfig, "invalid configuration", err)
	}
	switch c.Loader.PDFTextEngine {
	case "pdftotext", "native":
	default:
		return NewAppError(CodeConfig, "PDF_TEXT_ENGINE must be pdftotext or native", ErrInvalidInput)
	}
	return nil
}
