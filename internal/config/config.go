package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application
type Config struct {
	Server     ServerConfig
	Database   DatabaseConfig
	Auth       AuthConfig
	Cache      CacheConfig
	Storage    StorageConfig
	Uploads    UploadConfig
	Sequence   SequenceConfig
	Realtime   RealtimeConfig
	Logging    LoggingConfig
	Security   SecurityConfig   `json:"security"`
	Monitoring MonitoringConfig `json:"monitoring"`
	Features   FeatureConfig    `json:"features"`
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Port            string
	Environment     string
	Host            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	GracefulTimeout time.Duration `json:"graceful_timeout"`
	MaxHeaderBytes  int           `json:"max_header_bytes"`
	ServerName      string        `json:"server_name"`
}

// 🗄️ DATABASE CONFIGURATION
type DatabaseConfig struct {
	URL                 string
	MaxOpenConns        int
	MaxIdleConns        int
	ConnMaxLifetime     time.Duration
	ConnMaxIdleTime     time.Duration
	SlowQueryThreshold  time.Duration
	HealthCheckInterval time.Duration
	MigrationsPath      string
	AutoMigrate         bool

	ConnectTimeout   time.Duration `json:"connect_timeout"`
	MaxRetryAttempts int           `json:"max_retry_attempts"`
	RetryBackoff     time.Duration `json:"retry_backoff"`
}

// 🔐 AUTH CONFIGURATION
type AuthConfig struct {
	BCryptCost          int
	JWTSecret           string
	JWTIssuer           string
	AccessTokenTTL      time.Duration
	RefreshTokenTTL     time.Duration
	MinPasswordLength   int  `json:"min_password_length"`
	RequireSpecialChars bool `json:"require_special_chars"`
	AllowRegistration   bool `json:"allow_registration"`
}

// CacheConfig selects the cache provider used for token revocation and
// the optional redis sequence backend.
type CacheConfig struct {
	Provider        string
	RedisURL        string
	RedisDB         int
	RedisPassword   string
	PoolSize        int
	DefaultTTL      time.Duration
	MaxKeys         int
	CleanupInterval time.Duration
}

// ☁️ STORAGE CONFIGURATION
type StorageConfig struct {
	Provider string // cloudinary, minio, memory

	CloudinaryCloudName    string
	CloudinaryAPIKey       string
	CloudinaryAPISecret    string
	CloudinaryUploadFolder string

	MinioEndpoint  string
	MinioAccessKey string
	MinioSecretKey string
	MinioBucket    string
	MinioUseSSL    bool
	MinioRegion    string

	UploadTimeout    time.Duration
	MaxUploadRetries int
}

// 📎 UPLOAD LIMITS
type UploadConfig struct {
	MaxFileSize       int64
	AllowedExtensions []string
	AllowedMimeTypes  []string
	MaxPDFPages       int
}

// SequenceConfig picks the identifier backend.
type SequenceConfig struct {
	Backend   string // postgres, redis
	KeyPrefix string
}

// RealtimeConfig tunes the websocket relay.
type RealtimeConfig struct {
	Enabled        bool
	AllowedOrigins []string
	SendBuffer     int
	PingInterval   time.Duration
	WriteTimeout   time.Duration
	MaxMessageSize int64
	EventWorkers   int
	EventQueueSize int
}

// 📝 LOGGING CONFIGURATION
type LoggingConfig struct {
	Level  string
	Format string
}

// 🔒 SECURITY CONFIGURATION
type SecurityConfig struct {
	CORSAllowedOrigins []string `json:"cors_allowed_origins"`
	CORSAllowedMethods []string `json:"cors_allowed_methods"`
	CORSAllowedHeaders []string `json:"cors_allowed_headers"`

	RateLimitRequests int           `json:"rate_limit_requests"`
	RateLimitWindow   time.Duration `json:"rate_limit_window"`
	RateLimitBurst    int           `json:"rate_limit_burst"`

	SwaggerUsername string `json:"-"`
	SwaggerPassword string `json:"-"`
}

// 📊 MONITORING CONFIGURATION
type MonitoringConfig struct {
	EnableMetrics   bool   `json:"enable_metrics"`
	MetricsPath     string `json:"metrics_path"`
	HealthCheckPath string `json:"health_check_path"`
	EnableSwagger   bool   `json:"enable_swagger"`
}

// 🚀 FEATURE FLAGS
type FeatureConfig struct {
	EnableRegistration  bool `json:"enable_registration"`
	EnableFileUploads   bool `json:"enable_file_uploads"`
	EnableNotifications bool `json:"enable_notifications"`
	MaintenanceMode     bool `json:"maintenance_mode"`
}

// Load reads .env.<GO_ENV> (or .env) and the process environment.
func Load() (*Config, error) {
	env := getEnv("GO_ENV", "development")
	if env != "production" {
		envFile := fmt.Sprintf(".env.%s", env)
		if _, err := os.Stat(envFile); err == nil {
			_ = godotenv.Load(envFile)
		} else {
			_ = godotenv.Load()
		}
	}

	config := &Config{
		Server:     loadServerConfig(env),
		Database:   loadDatabaseConfig(env),
		Auth:       loadAuthConfig(env),
		Cache:      loadCacheConfig(),
		Storage:    loadStorageConfig(),
		Uploads:    loadUploadConfig(),
		Sequence:   loadSequenceConfig(),
		Realtime:   loadRealtimeConfig(env),
		Logging:    loadLoggingConfig(env),
		Security:   loadSecurityConfig(env),
		Monitoring: loadMonitoringConfig(env),
		Features:   loadFeatureConfig(),
	}

	if err := config.ValidateAll(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return config, nil
}

// ===============================
// SECTION LOADERS
// ===============================

func loadServerConfig(env string) ServerConfig {
	config := ServerConfig{
		Port:            getEnv("PORT", "9000"),
		Environment:     env,
		Host:            getEnv("SERVER_HOST", "0.0.0.0"),
		ReadTimeout:     getDurationEnv("SERVER_READ_TIMEOUT", 10*time.Second),
		WriteTimeout:    getDurationEnv("SERVER_WRITE_TIMEOUT", 15*time.Second),
		IdleTimeout:     getDurationEnv("SERVER_IDLE_TIMEOUT", 120*time.Second),
		GracefulTimeout: getDurationEnv("GRACEFUL_TIMEOUT", 30*time.Second),
		MaxHeaderBytes:  getIntEnv("MAX_HEADER_BYTES", 1<<20),
		ServerName:      getEnv("SERVER_NAME", "ScholarHub"),
	}
	if env != "production" && os.Getenv("GRACEFUL_TIMEOUT") == "" {
		config.GracefulTimeout = 10 * time.Second
	}
	return config
}

func loadDatabaseConfig(env string) DatabaseConfig {
	var defaultMaxOpen, defaultMaxIdle int
	var defaultConnLifetime time.Duration

	switch env {
	case "production":
		defaultMaxOpen = 50
		defaultMaxIdle = 20
		defaultConnLifetime = 15 * time.Minute
	case "staging":
		defaultMaxOpen = 25
		defaultMaxIdle = 10
		defaultConnLifetime = 10 * time.Minute
	default:
		defaultMaxOpen = 10
		defaultMaxIdle = 5
		defaultConnLifetime = 5 * time.Minute
	}

	return DatabaseConfig{
		URL:                 os.Getenv("DATABASE_URL"),
		MaxOpenConns:        getIntEnv("DB_MAX_OPEN_CONNS", defaultMaxOpen),
		MaxIdleConns:        getIntEnv("DB_MAX_IDLE_CONNS", defaultMaxIdle),
		ConnMaxLifetime:     getDurationEnv("DB_CONN_MAX_LIFETIME", defaultConnLifetime),
		ConnMaxIdleTime:     getDurationEnv("DB_CONN_MAX_IDLE_TIME", 30*time.Minute),
		SlowQueryThreshold:  getDurationEnv("DB_SLOW_QUERY_THRESHOLD", 100*time.Millisecond),
		HealthCheckInterval: getDurationEnv("DB_HEALTH_CHECK_INTERVAL", 30*time.Second),
		MigrationsPath:      getEnv("DB_MIGRATIONS_PATH", "./migrations"),
		AutoMigrate:         getBoolEnv("DB_AUTO_MIGRATE", env != "production"),
		ConnectTimeout:      getDurationEnv("DB_CONNECT_TIMEOUT", 10*time.Second),
		MaxRetryAttempts:    getIntEnv("DB_MAX_RETRY_ATTEMPTS", 5),
		RetryBackoff:        getDurationEnv("DB_RETRY_BACKOFF", 1*time.Second),
	}
}

func loadAuthConfig(env string) AuthConfig {
	return AuthConfig{
		BCryptCost:          getIntEnv("BCRYPT_COST", 12),
		JWTSecret:           getEnv("JWT_SECRET", ""),
		JWTIssuer:           getEnv("JWT_ISSUER", "scholarhub"),
		AccessTokenTTL:      getDurationEnv("ACCESS_TOKEN_TTL", 15*time.Minute),
		RefreshTokenTTL:     getDurationEnv("REFRESH_TOKEN_TTL", 7*24*time.Hour),
		MinPasswordLength:   getIntEnv("MIN_PASSWORD_LENGTH", 8),
		RequireSpecialChars: getBoolEnv("REQUIRE_SPECIAL_CHARS", env == "production"),
		AllowRegistration:   getBoolEnv("ALLOW_REGISTRATION", true),
	}
}

func loadCacheConfig() CacheConfig {
	provider := getEnv("CACHE_PROVIDER", "")
	redisURL := getEnv("REDIS_URL", "")
	if provider == "" {
		provider = "memory"
		if redisURL != "" {
			provider = "redis"
		}
	}
	return CacheConfig{
		Provider:        provider,
		RedisURL:        redisURL,
		RedisDB:         getIntEnv("REDIS_DB", 0),
		RedisPassword:   getEnv("REDIS_PASSWORD", ""),
		PoolSize:        getIntEnv("REDIS_POOL_SIZE", 10),
		DefaultTTL:      getDurationEnv("CACHE_DEFAULT_TTL", 15*time.Minute),
		MaxKeys:         getIntEnv("CACHE_MAX_KEYS", 10000),
		CleanupInterval: getDurationEnv("CACHE_CLEANUP_INTERVAL", 5*time.Minute),
	}
}

func loadStorageConfig() StorageConfig {
	return StorageConfig{
		Provider:               getEnv("STORAGE_PROVIDER", "cloudinary"),
		CloudinaryCloudName:    os.Getenv("CLOUDINARY_CLOUD_NAME"),
		CloudinaryAPIKey:       os.Getenv("CLOUDINARY_API_KEY"),
		CloudinaryAPISecret:    os.Getenv("CLOUDINARY_API_SECRET"),
		CloudinaryUploadFolder: getEnv("CLOUDINARY_UPLOAD_FOLDER", "scholarhub/documents"),
		MinioEndpoint:          getEnv("MINIO_ENDPOINT", "localhost:9002"),
		MinioAccessKey:         os.Getenv("MINIO_ACCESS_KEY"),
		MinioSecretKey:         os.Getenv("MINIO_SECRET_KEY"),
		MinioBucket:            getEnv("MINIO_BUCKET", "scholarhub-documents"),
		MinioUseSSL:            getBoolEnv("MINIO_USE_SSL", false),
		MinioRegion:            getEnv("MINIO_REGION", "us-east-1"),
		UploadTimeout:          getDurationEnv("STORAGE_UPLOAD_TIMEOUT", 60*time.Second),
		MaxUploadRetries:       getIntEnv("STORAGE_MAX_RETRIES", 3),
	}
}

func loadUploadConfig() UploadConfig {
	return UploadConfig{
		MaxFileSize:       getInt64Env("UPLOAD_MAX_FILE_SIZE", 10*1024*1024),
		AllowedExtensions: getListEnv("UPLOAD_ALLOWED_EXTENSIONS", ".pdf,.doc,.docx,.jpg,.jpeg,.png"),
		AllowedMimeTypes: getListEnv("UPLOAD_ALLOWED_MIME_TYPES",
			"application/pdf,application/msword,application/vnd.openxmlformats-officedocument.wordprocessingml.document,image/jpeg,image/png"),
		MaxPDFPages: getIntEnv("UPLOAD_MAX_PDF_PAGES", 50),
	}
}

func loadSequenceConfig() SequenceConfig {
	return SequenceConfig{
		Backend:   getEnv("SEQUENCE_BACKEND", "postgres"),
		KeyPrefix: getEnv("SEQUENCE_KEY_PREFIX", "seq:"),
	}
}

func loadRealtimeConfig(env string) RealtimeConfig {
	origins := []string{"*"}
	if env == "production" {
		origins = getListEnv("WS_ALLOWED_ORIGINS", "")
	}
	return RealtimeConfig{
		Enabled:        getBoolEnv("WS_ENABLED", true),
		AllowedOrigins: origins,
		SendBuffer:     getIntEnv("WS_SEND_BUFFER", 64),
		PingInterval:   getDurationEnv("WS_PING_INTERVAL", 30*time.Second),
		WriteTimeout:   getDurationEnv("WS_WRITE_TIMEOUT", 10*time.Second),
		MaxMessageSize: getInt64Env("WS_MAX_MESSAGE_SIZE", 8*1024),
		EventWorkers:   getIntEnv("EVENT_WORKERS", 4),
		EventQueueSize: getIntEnv("EVENT_QUEUE_SIZE", 1000),
	}
}

func loadLoggingConfig(env string) LoggingConfig {
	return LoggingConfig{
		Level:  getEnv("LOG_LEVEL", getDefaultLogLevel(env)),
		Format: getEnv("LOG_FORMAT", getDefaultLogFormat(env)),
	}
}

func loadSecurityConfig(env string) SecurityConfig {
	config := SecurityConfig{
		RateLimitRequests: getIntEnv("RATE_LIMIT_REQUESTS", getRateLimitForEnv(env)),
		RateLimitWindow:   getDurationEnv("RATE_LIMIT_WINDOW", 1*time.Minute),
		RateLimitBurst:    getIntEnv("RATE_LIMIT_BURST", 20),
		SwaggerUsername:   os.Getenv("SWAGGER_USERNAME"),
		SwaggerPassword:   os.Getenv("SWAGGER_PASSWORD"),
	}

	switch env {
	case "production":
		config.CORSAllowedOrigins = getListEnv("CORS_ALLOWED_ORIGINS", "")
		config.CORSAllowedMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
		config.CORSAllowedHeaders = []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"}
	default:
		config.CORSAllowedOrigins = []string{"*"}
		config.CORSAllowedMethods = []string{"*"}
		config.CORSAllowedHeaders = []string{"*"}
	}
	return config
}

func loadMonitoringConfig(env string) MonitoringConfig {
	return MonitoringConfig{
		EnableMetrics:   getBoolEnv("ENABLE_METRICS", true),
		MetricsPath:     getEnv("METRICS_PATH", "/metrics"),
		HealthCheckPath: getEnv("HEALTH_CHECK_PATH", "/health"),
		EnableSwagger:   getBoolEnv("ENABLE_SWAGGER", env != "production"),
	}
}

func loadFeatureConfig() FeatureConfig {
	return FeatureConfig{
		EnableRegistration:  getBoolEnv("FEATURE_REGISTRATION", true),
		EnableFileUploads:   getBoolEnv("FEATURE_FILE_UPLOADS", true),
		EnableNotifications: getBoolEnv("FEATURE_NOTIFICATIONS", true),
		MaintenanceMode:     getBoolEnv("MAINTENANCE_MODE", false),
	}
}

// ===============================
// VALIDATION
// ===============================

// ValidateAll runs every section validator.
func (c *Config) ValidateAll() error {
	validators := []func() error{
		c.Server.Validate,
		c.Database.Validate,
		c.Auth.Validate,
		c.Storage.Validate,
		c.Uploads.Validate,
		c.Sequence.Validate,
	}
	for _, validate := range validators {
		if err := validate(); err != nil {
			return err
		}
	}

	if c.Sequence.Backend == "redis" && c.Cache.Provider != "redis" {
		return fmt.Errorf("SEQUENCE_BACKEND=redis requires CACHE_PROVIDER=redis")
	}
	return nil
}

func (s *ServerConfig) Validate() error {
	if s.Port == "" {
		return fmt.Errorf("PORT is required")
	}
	if s.ReadTimeout <= 0 {
		return fmt.Errorf("ReadTimeout must be positive")
	}
	if s.WriteTimeout <= 0 {
		return fmt.Errorf("WriteTimeout must be positive")
	}
	return nil
}

func (d *DatabaseConfig) Validate() error {
	if d.URL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}
	if d.MaxOpenConns <= 0 {
		return fmt.Errorf("MaxOpenConns must be positive")
	}
	if d.MaxIdleConns < 0 {
		return fmt.Errorf("MaxIdleConns cannot be negative")
	}
	if d.MaxIdleConns > d.MaxOpenConns {
		return fmt.Errorf("MaxIdleConns cannot be greater than MaxOpenConns")
	}
	if d.ConnMaxLifetime <= 0 {
		return fmt.Errorf("ConnMaxLifetime must be positive")
	}
	if d.SlowQueryThreshold <= 0 {
		return fmt.Errorf("SlowQueryThreshold must be positive")
	}
	return nil
}

func (a *AuthConfig) Validate() error {
	if len(a.JWTSecret) < 32 {
		return fmt.Errorf("JWT_SECRET must be at least 32 characters")
	}
	if a.BCryptCost < 4 || a.BCryptCost > 31 {
		return fmt.Errorf("BCryptCost must be between 4 and 31")
	}
	if a.AccessTokenTTL <= 0 || a.RefreshTokenTTL <= 0 {
		return fmt.Errorf("token TTLs must be positive")
	}
	if a.RefreshTokenTTL < a.AccessTokenTTL {
		return fmt.Errorf("REFRESH_TOKEN_TTL must not be shorter than ACCESS_TOKEN_TTL")
	}
	if a.MinPasswordLength < 6 {
		return fmt.Errorf("MIN_PASSWORD_LENGTH must be at least 6")
	}
	return nil
}

func (s *StorageConfig) Validate() error {
	switch s.Provider {
	case "cloudinary":
		if s.CloudinaryCloudName == "" || s.CloudinaryAPIKey == "" || s.CloudinaryAPISecret == "" {
			return fmt.Errorf("cloudinary storage requires CLOUDINARY_CLOUD_NAME, CLOUDINARY_API_KEY and CLOUDINARY_API_SECRET")
		}
	case "minio":
		if s.MinioEndpoint == "" || s.MinioBucket == "" {
			return fmt.Errorf("minio storage requires MINIO_ENDPOINT and MINIO_BUCKET")
		}
	case "memory":
	default:
		return fmt.Errorf("unsupported STORAGE_PROVIDER %q", s.Provider)
	}
	if s.MaxUploadRetries < 0 {
		return fmt.Errorf("STORAGE_MAX_RETRIES cannot be negative")
	}
	return nil
}

func (u *UploadConfig) Validate() error {
	if u.MaxFileSize <= 0 {
		return fmt.Errorf("UPLOAD_MAX_FILE_SIZE must be positive")
	}
	if len(u.AllowedExtensions) == 0 {
		return fmt.Errorf("UPLOAD_ALLOWED_EXTENSIONS cannot be empty")
	}
	return nil
}

func (s *SequenceConfig) Validate() error {
	if s.Backend != "postgres" && s.Backend != "redis" {
		return fmt.Errorf("unsupported SEQUENCE_BACKEND %q", s.Backend)
	}
	return nil
}

// IsProduction reports whether GO_ENV is production.
func (c *Config) IsProduction() bool {
	return c.Server.Environment == "production"
}

// IsDevelopment reports whether GO_ENV is development.
func (c *Config) IsDevelopment() bool {
	return c.Server.Environment == "development"
}

// ===============================
// HELPERS
// ===============================

func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value, exists := os.LookupEnv(key); exists {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getInt64Env(key string, defaultValue int64) int64 {
	if value, exists := os.LookupEnv(key); exists {
		if intValue, err := strconv.ParseInt(value, 10, 64); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getBoolEnv(key string, defaultValue bool) bool {
	if value, exists := os.LookupEnv(key); exists {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value, exists := os.LookupEnv(key); exists {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

func getListEnv(key, defaultValue string) []string {
	raw := getEnv(key, defaultValue)
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func getDefaultLogLevel(env string) string {
	switch env {
	case "production":
		return "info"
	case "staging":
		return "debug"
	default:
		return "debug"
	}
}

func getDefaultLogFormat(env string) string {
	if env == "production" {
		return "json"
	}
	return "console"
}

func getRateLimitForEnv(env string) int {
	switch env {
	case "production":
		return 60
	case "staging":
		return 120
	default:
		return 600
	}
}
