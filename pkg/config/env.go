package config

const (
	// EnvPrefix is handed to envconfig; every field declares its full key.
	EnvPrefix = "FREIGHTDESK"

	AppEnvDev  = "dev"
	AppEnvProd = "production"

	EnvAppEnv   = "FREIGHTDESK_APP_ENV"
	EnvPort     = "FREIGHTDESK_APP_PORT"
	EnvLogLevel = "FREIGHTDESK_LOG_LEVEL"

	EnvDBDSN  = "FREIGHTDESK_DB_DSN"
	EnvDBHost = "FREIGHTDESK_DB_HOST"
	EnvDBUser = "FREIGHTDESK_DB_USER"
	EnvDBName = "FREIGHTDESK_DB_NAME"

	EnvRedisURL = "FREIGHTDESK_REDIS_URL"

	EnvJWTSecret = "FREIGHTDESK_JWT_SECRET"
	EnvJWTIssuer = "FREIGHTDESK_JWT_ISSUER"

	EnvGCPProjectID = "FREIGHTDESK_GCP_PROJECT_ID"
	EnvGCSBucket    = "FREIGHTDESK_GCS_BUCKET_NAME"
	EnvMaxUploadMB  = "FREIGHTDESK_MAX_UPLOAD_MB"

	EnvPubSubWorkflowTopic        = "FREIGHTDESK_PUBSUB_WORKFLOW_TOPIC"
	EnvPubSubWorkflowSubscription = "FREIGHTDESK_PUBSUB_WORKFLOW_SUBSCRIPTION"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
