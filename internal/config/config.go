package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config holds all runtime configuration loaded from environment variables.
type Config struct {
	AppPort   string `envconfig:"APP_PORT" default:"3000"`
	AppEnv    string `envconfig:"APP_ENV" default:"development"`
	LogLevel  string `envconfig:"LOG_LEVEL" default:"info"`
	LogFormat string `envconfig:"LOG_FORMAT" default:"json"`

	AWSRegion      string `envconfig:"AWS_REGION" default:"us-east-1"`
	AWSEndpointURL string `envconfig:"AWS_ENDPOINT_URL"` // empty in prod, set to LocalStack URL in dev
	AWSAccessKeyID string `envconfig:"AWS_ACCESS_KEY_ID"`
	AWSSecretKey   string `envconfig:"AWS_SECRET_ACCESS_KEY"`
	DynamoTables   DynamoTables

	S3BucketName string        `envconfig:"S3_BUCKET_NAME" default:"parish-media"`
	S3PresignTTL time.Duration `envconfig:"S3_PRESIGN_TTL" default:"1h"`
	SNSTopicARN  string        `envconfig:"SNS_TOPIC_ARN"`

	JWTPrivateKeyPath string        `envconfig:"JWT_PRIVATE_KEY_PATH" default:"./private_key.pem"`
	JWTPublicKeyPath  string        `envconfig:"JWT_PUBLIC_KEY_PATH" default:"./public_key.pem"`
	JWTExpiry         time.Duration `envconfig:"JWT_EXPIRY" default:"168h"`

	// APISecretKey guards the broadcast endpoint. Empty rejects every call.
	APISecretKey string `envconfig:"API_SECRET_KEY"`

	VAPIDPublicKey  string `envconfig:"VAPID_PUBLIC_KEY"`
	VAPIDPrivateKey string `envconfig:"VAPID_PRIVATE_KEY"`
	VAPIDSubject    string `envconfig:"VAPID_SUBJECT" default:"mailto:noreply@example.com"`
	PushTTL         int    `envconfig:"PUSH_TTL" default:"86400"`

	Broadcast Broadcast

	DefaultIcon  string `envconfig:"DEFAULT_ICON" default:"/icons/icon-192x192.png"`
	DefaultBadge string `envconfig:"DEFAULT_BADGE" default:"/icons/badge-72x72.png"`

	RedisURL       string   `envconfig:"REDIS_URL"`
	AllowedOrigins []string `envconfig:"ALLOWED_ORIGINS" default:"*"` // CORS allowed origins
}

// DynamoTables holds the DynamoDB table name for each entity.
type DynamoTables struct {
	Notifications   string `envconfig:"DYNAMO_TABLE_NOTIFICATIONS" default:"notifications"`
	Preferences     string `envconfig:"DYNAMO_TABLE_PREFERENCES" default:"notification_preferences"`
	Subscriptions   string `envconfig:"DYNAMO_TABLE_SUBSCRIPTIONS" default:"push_subscriptions"`
	ReadReceipts    string `envconfig:"DYNAMO_TABLE_READ_RECEIPTS" default:"read_receipts"`
	ParishFollowers string `envconfig:"DYNAMO_TABLE_PARISH_FOLLOWERS" default:"parish_followers"`
	ParishOwners    string `envconfig:"DYNAMO_TABLE_PARISH_OWNERS" default:"parish_owners"`
}

// Broadcast bounds the fan-out of a single broadcast call.
type Broadcast struct {
	Workers          int           `envconfig:"BROADCAST_WORKERS" default:"32"`
	MaxInFlight      int64         `envconfig:"BROADCAST_MAX_IN_FLIGHT" default:"64"`
	DeviceTimeout    time.Duration `envconfig:"BROADCAST_DEVICE_TIMEOUT" default:"10s"`
	Deadline         time.Duration `envconfig:"BROADCAST_DEADLINE" default:"60s"`
	PruneExpiredSubs bool          `envconfig:"PRUNE_EXPIRED_SUBSCRIPTIONS" default:"true"`
}

// Load reads all configuration from environment variables.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if cfg.Broadcast.Workers <= 0 {
		return nil, fmt.Errorf("BROADCAST_WORKERS must be positive, got %d", cfg.Broadcast.Workers)
	}
	if cfg.Broadcast.MaxInFlight <= 0 {
		return nil, fmt.Errorf("BROADCAST_MAX_IN_FLIGHT must be positive, got %d", cfg.Broadcast.MaxInFlight)
	}
	return &cfg, nil
}

// IsProd reports whether the service runs in production.
func (c *Config) IsProd() bool {
	return c.AppEnv == "production"
}
