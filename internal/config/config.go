package config

import "time"

type Config struct {
	Service     *ServiceConfig
	Storage     *StorageConfig
	Redis       *RedisConfig
	Postgres    *PostgresConfig
	Mongo       *MongoConfig
	Cloudinary  *CloudinaryConfig
	Auth        *AuthConfig
	RateLimit   *RateLimitConfig
	WebSocket   *WebSocketConfig
	Logger      *LoggerConfig
	Tracer      *TracerConfig
	SecretToken string
}

type ServiceConfig struct {
	Name            string
	Env             string
	Add             string
	ClientURLs      []string
	ShutdownTimeout time.Duration
}

// IsProduction reports whether cookies must be marked Secure.
func (s ServiceConfig) IsProduction() bool {
	return s.Env == "production"
}

type StorageConfig struct {
	Driver string // postgres | mongo
}

type RedisConfig struct {
	URL          string
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	PoolSize     int
	MinIdleConns int
	PingTimeout  time.Duration
}

type PostgresConfig struct {
	DSN             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
	PingTimeout     time.Duration
}

type MongoConfig struct {
	URI         string
	Database    string
	MaxPoolSize uint64
	PingTimeout time.Duration
}

type CloudinaryConfig struct {
	CloudName string
	APIKey    string
	APISecret string
	Folder    string
	BaseURL   string
}

type AuthConfig struct {
	CookieName string
	TokenTTL   time.Duration
	Issuer     string
	BcryptCost int
}

type RateLimitConfig struct {
	Requests int
	Window   time.Duration
	// TrustedProxies are addresses or CIDRs allowed to set X-Forwarded-For.
	// Empty means the socket peer is always the client.
	TrustedProxies []string
}

type WebSocketConfig struct {
	SendBuffer   int
	WriteTimeout time.Duration
	PongWait     time.Duration
	PingPeriod   time.Duration
	ReadLimit    int64
}

type LoggerConfig struct {
	Level  string
	Format string
}

type TracerConfig struct {
	Address string
}
