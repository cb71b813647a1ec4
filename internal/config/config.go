package config

import (
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config хранит все настройки приложения
type Config struct {
	Server   ServerConfig
	Log      LogConfig
	Database DatabaseConfig
	Redis    RedisConfig
	JWT      JWTConfig
	Auth     AuthConfig
	Storage  StorageConfig
	Training TrainingConfig
}

// ServerConfig содержит настройки HTTP сервера
type ServerConfig struct {
	Port           string
	ReadTimeout    int
	WriteTimeout   int
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// LogConfig: режим логгера ("development" или "production")
type LogConfig struct {
	Mode string
}

// DatabaseConfig содержит настройки подключения к PostgreSQL
type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
	// LogSQL включает логирование SQL-запросов gorm на уровне Info
	LogSQL bool `mapstructure:"log_sql"`
}

// RedisConfig содержит унифицированные настройки подключения к Redis
// Поддерживает режимы: single, sentinel, cluster
type RedisConfig struct {
	// Mode: Режим работы Redis ("single", "sentinel", "cluster"). По умолчанию "single".
	Mode string `mapstructure:"mode"`

	// Addrs: Список адресов Redis (хост:порт). Используется для всех режимов.
	Addrs []string `mapstructure:"addrs"`

	// Addr: адрес для режима 'single', если Addrs пустой.
	Addr string `mapstructure:"addr"`

	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`

	// MasterName: Имя мастер-сервера Redis (только для режима "sentinel")
	MasterName string `mapstructure:"master_name"`

	MaxRetries      int `mapstructure:"max_retries"`
	MinRetryBackoff int `mapstructure:"min_retry_backoff"` // мс
	MaxRetryBackoff int `mapstructure:"max_retry_backoff"` // мс
}

// JWTConfig содержит настройки JWT
type JWTConfig struct {
	Secret        string `mapstructure:"secret"`
	ExpirationHrs int    `mapstructure:"expirationHrs"`
}

// AuthConfig содержит настройки аутентификации и начального администратора
type AuthConfig struct {
	// LoginRateLimit: число попыток входа с одного IP за LoginRateWindowSec
	LoginRateLimit     int    `mapstructure:"login_rate_limit"`
	LoginRateWindowSec int    `mapstructure:"login_rate_window_sec"`
	BootstrapTCNo      string `mapstructure:"bootstrap_tc_no"`
	BootstrapPassword  string `mapstructure:"bootstrap_password"`
	BootstrapFullName  string `mapstructure:"bootstrap_full_name"`
}

// StorageConfig содержит настройки объектного хранилища для видео
type StorageConfig struct {
	// Provider: "s3" или "gcs"
	Provider        string `mapstructure:"provider"`
	Bucket          string `mapstructure:"bucket"`
	Region          string `mapstructure:"region"`
	AccessKeyID     string `mapstructure:"access_key_id"`
	SecretAccessKey string `mapstructure:"secret_access_key"`
	// Endpoint: необязательный S3-совместимый endpoint (MinIO и т.п.)
	Endpoint string `mapstructure:"endpoint"`
	// CredentialsFile: путь к JSON сервисного аккаунта GCS
	CredentialsFile string `mapstructure:"credentials_file"`
	// UploadExpiry и PlaybackExpiry задают срок жизни подписанных ссылок
	UploadExpiry   time.Duration `mapstructure:"upload_expiry"`
	PlaybackExpiry time.Duration `mapstructure:"playback_expiry"`
}

// TrainingConfig содержит параметры обучения и экзаменов
type TrainingConfig struct {
	DefaultPassingScore  int     `mapstructure:"default_passing_score"`
	DefaultExamMinutes   int     `mapstructure:"default_exam_minutes"`
	CompletionThreshold  float64 `mapstructure:"completion_threshold"`
	SeekToleranceSeconds float64 `mapstructure:"seek_tolerance_seconds"`
	// PlaybackToleranceSeconds: допуск скачка позиции между событиями воспроизведения
	PlaybackToleranceSeconds float64 `mapstructure:"playback_tolerance_seconds"`
	// MaxPlaybackRate: максимальная скорость воспроизведения, учитывается при проверке позиции на сервере
	MaxPlaybackRate        float64       `mapstructure:"max_playback_rate"`
	CheckpointSeconds      float64       `mapstructure:"checkpoint_seconds"`
	CatalogCacheTTL        time.Duration `mapstructure:"catalog_cache_ttl"`
	PositionTTL            time.Duration `mapstructure:"position_ttl"`
	DefaultQuestionPoints  int           `mapstructure:"default_question_points"`
	MaxImportFileSizeBytes int64         `mapstructure:"max_import_file_size_bytes"`
}

// PostgresConnectionString формирует строку подключения к PostgreSQL
func (d *DatabaseConfig) PostgresConnectionString() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.DBName, d.SSLMode,
	)
}

// PostgresURL формирует URL подключения (нужен migrate в cmd/fix-db)
func (d *DatabaseConfig) PostgresURL() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.DBName, d.SSLMode,
	)
}

func setDefaults(vip *viper.Viper) {
	vip.SetDefault("server.port", "8080")
	vip.SetDefault("server.readTimeout", 15)
	vip.SetDefault("server.writeTimeout", 30)
	vip.SetDefault("log.mode", "development")
	vip.SetDefault("database.port", "5432")
	vip.SetDefault("database.sslmode", "disable")
	vip.SetDefault("redis.mode", "single")
	vip.SetDefault("jwt.expirationHrs", 24)
	vip.SetDefault("auth.login_rate_limit", 10)
	vip.SetDefault("auth.login_rate_window_sec", 60)
	vip.SetDefault("auth.bootstrap_full_name", "Administrator")
	vip.SetDefault("storage.provider", "s3")
	vip.SetDefault("storage.region", "eu-central-1")
	vip.SetDefault("storage.upload_expiry", time.Hour)
	vip.SetDefault("storage.playback_expiry", 3*time.Hour)
	vip.SetDefault("training.default_passing_score", 70)
	vip.SetDefault("training.default_exam_minutes", 30)
	vip.SetDefault("training.completion_threshold", 0.60)
	vip.SetDefault("training.seek_tolerance_seconds", 1.0)
	vip.SetDefault("training.playback_tolerance_seconds", 2.0)
	vip.SetDefault("training.max_playback_rate", 2.0)
	vip.SetDefault("training.checkpoint_seconds", 300.0)
	vip.SetDefault("training.catalog_cache_ttl", 10*time.Minute)
	vip.SetDefault("training.position_ttl", 24*time.Hour)
	vip.SetDefault("training.default_question_points", 10)
	vip.SetDefault("training.max_import_file_size_bytes", 5<<20)
}

// Load загружает конфигурацию из файла и переменных окружения
func Load(configPath string) (*Config, error) {
	vip := viper.New()

	setDefaults(vip)

	// Привязываем переменные окружения явно
	vip.BindEnv("server.port", "SERVER_PORT")
	vip.BindEnv("server.allowed_origins", "SERVER_ALLOWED_ORIGINS")
	vip.BindEnv("log.mode", "LOG_MODE")

	vip.BindEnv("database.host", "DATABASE_HOST")
	vip.BindEnv("database.port", "DATABASE_PORT")
	vip.BindEnv("database.user", "DATABASE_USER")
	vip.BindEnv("database.password", "DATABASE_PASSWORD")
	vip.BindEnv("database.dbname", "DATABASE_DBNAME")
	vip.BindEnv("database.sslmode", "DATABASE_SSLMODE")
	vip.BindEnv("database.log_sql", "DATABASE_LOG_SQL")

	vip.BindEnv("redis.mode", "REDIS_MODE")
	vip.BindEnv("redis.addrs", "REDIS_ADDRS")
	vip.BindEnv("redis.addr", "REDIS_ADDR")
	vip.BindEnv("redis.password", "REDIS_PASSWORD")
	vip.BindEnv("redis.db", "REDIS_DB")
	vip.BindEnv("redis.master_name", "REDIS_MASTER_NAME")

	vip.BindEnv("jwt.secret", "JWT_SECRET")
	vip.BindEnv("jwt.expirationHrs", "JWT_EXPIRATIONHRS")

	vip.BindEnv("auth.bootstrap_tc_no", "AUTH_BOOTSTRAP_TC_NO")
	vip.BindEnv("auth.bootstrap_password", "AUTH_BOOTSTRAP_PASSWORD")
	vip.BindEnv("auth.bootstrap_full_name", "AUTH_BOOTSTRAP_FULL_NAME")

	vip.BindEnv("storage.provider", "STORAGE_PROVIDER")
	vip.BindEnv("storage.bucket", "STORAGE_BUCKET")
	vip.BindEnv("storage.region", "STORAGE_REGION")
	vip.BindEnv("storage.access_key_id", "STORAGE_ACCESS_KEY_ID")
	vip.BindEnv("storage.secret_access_key", "STORAGE_SECRET_ACCESS_KEY")
	vip.BindEnv("storage.endpoint", "STORAGE_ENDPOINT")
	vip.BindEnv("storage.credentials_file", "STORAGE_CREDENTIALS_FILE")

	vip.BindEnv("training.completion_threshold", "TRAINING_COMPLETION_THRESHOLD")
	vip.BindEnv("training.default_passing_score", "TRAINING_DEFAULT_PASSING_SCORE")

	if configPath != "" {
		vip.SetConfigFile(configPath)
		// Файла может не быть, тогда работаем на env/умолчаниях
		if err := vip.ReadInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); ok || os.IsNotExist(err) {
				log.Printf("Файл конфигурации '%s' не найден, используются переменные окружения/умолчания.", configPath)
			} else {
				log.Printf("Предупреждение: не удалось прочитать файл конфигурации '%s': %v", configPath, err)
			}
		}
	}

	var cfg Config
	if err := vip.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	// Списки из env приходят одной строкой через запятую
	cfg.Redis.Addrs = splitAndTrim(strings.Join(cfg.Redis.Addrs, ","))
	cfg.Server.AllowedOrigins = splitAndTrim(strings.Join(cfg.Server.AllowedOrigins, ","))

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate проверяет обязательные параметры и диапазоны значений
func (c *Config) Validate() error {
	if c.JWT.Secret == "" {
		return fmt.Errorf("jwt secret is required in config (check JWT_SECRET env var)")
	}
	if c.Database.Host == "" || c.Database.DBName == "" || c.Database.User == "" {
		return fmt.Errorf("database configuration (host, dbname, user) is incomplete in config (check DATABASE_HOST, DATABASE_DBNAME, DATABASE_USER env vars)")
	}
	if c.Storage.Bucket == "" {
		return fmt.Errorf("storage bucket is required in config (check STORAGE_BUCKET env var)")
	}
	switch c.Storage.Provider {
	case "s3", "gcs":
	default:
		return fmt.Errorf("unsupported storage provider: %s", c.Storage.Provider)
	}
	if c.Training.CompletionThreshold <= 0 || c.Training.CompletionThreshold > 1 {
		return fmt.Errorf("training.completion_threshold must be in (0, 1], got %v", c.Training.CompletionThreshold)
	}
	if c.Training.DefaultPassingScore < 0 || c.Training.DefaultPassingScore > 100 {
		return fmt.Errorf("training.default_passing_score must be in [0, 100], got %d", c.Training.DefaultPassingScore)
	}
	return nil
}

func splitAndTrim(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
