package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"
)

type Config struct {
	AppEnv        string
	HTTPAddr      string
	RedisAddr     string
	RedisPassword string

	// DataDir holds both job directories; DownloadDir receives portal CSV
	// exports, OutputDir receives generated XLSX artifacts.
	DataDir     string
	DownloadDir string
	OutputDir   string
	StoresFile  string

	PortalURL      string
	PortalUsername string
	PortalPassword string
	PortalHeadless bool
	ExportTimeout  time.Duration
	PollInterval   time.Duration

	DriveCredentialsFile string
	DriveRootFolder      string

	SMTPHost     string
	SMTPPort     int
	SMTPUsername string
	SMTPPassword string
	EmailFrom    string

	SupabaseURL        string
	SupabaseServiceKey string
	SupabaseBucket     string

	TaskMaxRetries int
}

func getenv(key, def string) string {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	return v
}

func getenvInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return i
}

func getenvBool(key string, def bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}

func getenvDur(key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return def
	}
	return d
}

func Load() Config {
	dataDir := getenv("DATA_DIR", "./data")
	cfg := Config{
		AppEnv:        getenv("APP_ENV", "development"),
		HTTPAddr:      getenv("HTTP_ADDR", ":8081"),
		RedisAddr:     getenv("REDIS_ADDR", "127.0.0.1:6379"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),

		DataDir:     dataDir,
		DownloadDir: getenv("DOWNLOAD_DIR", filepath.Join(dataDir, "csv")),
		OutputDir:   getenv("OUTPUT_DIR", filepath.Join(dataDir, "xlsx")),
		StoresFile:  getenv("STORES_FILE", "./stores.yaml"),

		PortalURL:      getenv("PORTAL_URL", "https://dusk.backoffice.dutchie.com/products/catalog"),
		PortalUsername: os.Getenv("PORTAL_USERNAME"),
		PortalPassword: os.Getenv("PORTAL_PASSWORD"),
		PortalHeadless: getenvBool("PORTAL_HEADLESS", true),
		ExportTimeout:  getenvDur("EXPORT_TIMEOUT", 60*time.Second),
		PollInterval:   getenvDur("POLL_INTERVAL", time.Second),

		DriveCredentialsFile: getenv("DRIVE_CREDENTIALS_FILE", "./credentials.json"),
		DriveRootFolder:      getenv("DRIVE_ROOT_FOLDER", "INVENTORY"),

		SMTPHost:     os.Getenv("SMTP_HOST"),
		SMTPPort:     getenvInt("SMTP_PORT", 587),
		SMTPUsername: os.Getenv("SMTP_USERNAME"),
		SMTPPassword: os.Getenv("SMTP_PASSWORD"),
		EmailFrom:    getenv("EMAIL_FROM", os.Getenv("SMTP_USERNAME")),

		SupabaseURL:        os.Getenv("NEXT_PUBLIC_SUPABASE_URL"),
		SupabaseServiceKey: os.Getenv("SUPABASE_SERVICE_ROLE_KEY"),
		SupabaseBucket:     getenv("SUPABASE_STORAGE_BUCKET", "reports"),

		// Both job types carry external side effects (downloads, Drive
		// folders, mail), so automatic retries stay off by default.
		TaskMaxRetries: getenvInt("TASK_MAX_RETRIES", 0),
	}
	if cfg.RedisAddr == "" {
		panic(fmt.Errorf("REDIS_ADDR is required"))
	}
	return cfg
}
