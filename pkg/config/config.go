package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App          AppConfig
	Service      ServiceConfig
	DB           DBConfig
	Redis        RedisConfig
	JWT          JWTConfig
	FeatureFlags FeatureFlagsConfig
	GCP          GCPConfig
	GCS          GCSConfig
	Media        MediaConfig
	PubSub       PubSubConfig
	Outbox       OutboxConfig
	Cron         CronConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"FREIGHTDESK_APP_ENV" required:"true"`
	Port         string `envconfig:"FREIGHTDESK_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"FREIGHTDESK_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"FREIGHTDESK_LOG_WARN_STACK" default:"false"`
	CORSOrigins  string `envconfig:"FREIGHTDESK_CORS_ORIGINS"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

// AllowedOrigins splits the comma separated CORS origin list.
func (a AppConfig) AllowedOrigins() []string {
	var origins []string
	for _, part := range strings.Split(a.CORSOrigins, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			origins = append(origins, trimmed)
		}
	}
	return origins
}

type ServiceConfig struct {
	Kind string `envconfig:"FREIGHTDESK_SERVICE_KIND" default:"api"`
}

type DBConfig struct {
	DSN    string `envconfig:"FREIGHTDESK_DB_DSN"`
	Driver string `envconfig:"FREIGHTDESK_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"FREIGHTDESK_DB_HOST"`
	LegacyPort     int    `envconfig:"FREIGHTDESK_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"FREIGHTDESK_DB_USER"`
	LegacyPassword string `envconfig:"FREIGHTDESK_DB_PASSWORD"`
	LegacyName     string `envconfig:"FREIGHTDESK_DB_NAME"`
	LegacySSLMode  string `envconfig:"FREIGHTDESK_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"FREIGHTDESK_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"FREIGHTDESK_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"FREIGHTDESK_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"FREIGHTDESK_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"FREIGHTDESK_REDIS_URL" required:"true"`
	Address      string        `envconfig:"FREIGHTDESK_REDIS_ADDR"`
	Password     string        `envconfig:"FREIGHTDESK_REDIS_PASSWORD"`
	DB           int           `envconfig:"FREIGHTDESK_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"FREIGHTDESK_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"FREIGHTDESK_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"FREIGHTDESK_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"FREIGHTDESK_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"FREIGHTDESK_REDIS_WRITE_TIMEOUT" default:"5s"`
}

// JWTConfig describes the tokens minted by the hosted identity provider.
type JWTConfig struct {
	Secret   string `envconfig:"FREIGHTDESK_JWT_SECRET" required:"true"`
	Issuer   string `envconfig:"FREIGHTDESK_JWT_ISSUER" required:"true"`
	Audience string `envconfig:"FREIGHTDESK_JWT_AUDIENCE" default:"authenticated"`
}

type FeatureFlagsConfig struct {
	AutoMigrate            bool `envconfig:"FREIGHTDESK_AUTO_MIGRATE" default:"false"`
	RequireDuplicateAck    bool `envconfig:"FREIGHTDESK_REQUIRE_DUPLICATE_ACK" default:"true"`
	RateLimitUploadsPerMin int  `envconfig:"FREIGHTDESK_RATE_LIMIT_UPLOADS_PER_MIN" default:"20"`
}

type GCPConfig struct {
	ProjectID              string `envconfig:"FREIGHTDESK_GCP_PROJECT_ID" required:"true"`
	CredentialsJSON        string `envconfig:"FREIGHTDESK_GCP_CREDENTIALS_JSON"`
	ApplicationCredentials string `envconfig:"FREIGHTDESK_GOOGLE_APPLICATION_CREDENTIALS"`
}

type GCSConfig struct {
	BucketName    string `envconfig:"FREIGHTDESK_GCS_BUCKET_NAME" required:"true"`
	PublicBaseURL string `envconfig:"FREIGHTDESK_GCS_PUBLIC_BASE_URL" default:"https://storage.googleapis.com"`
}

// PublicObjectURL returns the publicly resolvable URL for an object key.
func (g GCSConfig) PublicObjectURL(objectKey string) string {
	base := strings.TrimRight(g.PublicBaseURL, "/")
	return fmt.Sprintf("%s/%s/%s", base, g.BucketName, strings.TrimLeft(objectKey, "/"))
}

type MediaConfig struct {
	MaxUploadMB      int    `envconfig:"FREIGHTDESK_MAX_UPLOAD_MB" default:"5"`
	PlaceholderImage string `envconfig:"FREIGHTDESK_MEDIA_PLACEHOLDER" default:"/images/placeholder.png"`
	StorageBasePath  string `envconfig:"FREIGHTDESK_MEDIA_STORAGE_BASE" default:"https://storage.googleapis.com/freightdesk-media/products/"`
	StorageHostHint  string `envconfig:"FREIGHTDESK_MEDIA_STORAGE_HOST" default:"storage.googleapis.com"`
}

// MaxUploadBytes converts the configured megabyte limit to bytes.
func (m MediaConfig) MaxUploadBytes() int64 {
	if m.MaxUploadMB <= 0 {
		return 5 * 1024 * 1024
	}
	return int64(m.MaxUploadMB) * 1024 * 1024
}

type PubSubConfig struct {
	WorkflowTopic        string `envconfig:"FREIGHTDESK_PUBSUB_WORKFLOW_TOPIC" required:"true"`
	WorkflowSubscription string `envconfig:"FREIGHTDESK_PUBSUB_WORKFLOW_SUBSCRIPTION" required:"true"`
}

type OutboxConfig struct {
	BatchSize      int `envconfig:"FREIGHTDESK_OUTBOX_PUBLISH_BATCH_SIZE" default:"50"`
	PollIntervalMS int `envconfig:"FREIGHTDESK_OUTBOX_PUBLISH_POLL_MS" default:"500"`
	MaxAttempts    int `envconfig:"FREIGHTDESK_OUTBOX_MAX_ATTEMPTS" default:"10"`
}

type CronConfig struct {
	Interval             time.Duration `envconfig:"FREIGHTDESK_CRON_INTERVAL" default:"1h"`
	LockTTL              time.Duration `envconfig:"FREIGHTDESK_CRON_LOCK_TTL" default:"55m"`
	OrphanRetentionHours int           `envconfig:"FREIGHTDESK_CRON_ORPHAN_RETENTION_HOURS" default:"24"`
	OrphanBatchSize      int           `envconfig:"FREIGHTDESK_CRON_ORPHAN_BATCH_SIZE" default:"200"`
	OutboxRetentionDays  int           `envconfig:"FREIGHTDESK_CRON_OUTBOX_RETENTION_DAYS" default:"30"`
}

// OrphanRetention is how long a pending upload may stay unattached.
func (c CronConfig) OrphanRetention() time.Duration {
	return time.Duration(c.OrphanRetentionHours) * time.Hour
}

func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" {
		return nil
	}

	missing := []string{}
	legacyValues := map[string]string{
		EnvDBHost: db.LegacyHost,
		EnvDBUser: db.LegacyUser,
		EnvDBName: db.LegacyName,
	}
	for _, env := range legacyDBEnvVars {
		if legacyValues[env] == "" {
			missing = append(missing, env)
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("either %s or %s are required", EnvDBDSN, strings.Join(missing, ", "))
	}

	userInfo := url.User(db.LegacyUser)
	if db.LegacyPassword != "" {
		userInfo = url.UserPassword(db.LegacyUser, db.LegacyPassword)
	}

	u := &url.URL{
		Scheme: "postgres",
		User:   userInfo,
		Host:   fmt.Sprintf("%s:%d", db.LegacyHost, db.LegacyPort),
		Path:   db.LegacyName,
	}

	if db.LegacySSLMode != "" {
		q := u.Query()
		q.Set("sslmode", db.LegacySSLMode)
		u.RawQuery = q.Encode()
	}

	db.DSN = u.String()
	return nil
}
