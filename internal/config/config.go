package config

import (
	"strings"
	"time"
)

// Config es la configuración raíz del servicio.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	Auth     AuthConfig     `yaml:"auth"`
	Log      LogConfig      `yaml:"log"`
	Notify   NotifyConfig   `yaml:"notify"`
	Clinic   ClinicConfig   `yaml:"clinic"`
	Metrics  MetricsConfig  `yaml:"metrics"`
}

type ServerConfig struct {
	Host            string        `yaml:"host"             env:"SERVER_HOST"             env-default:"0.0.0.0"`
	Port            int           `yaml:"port"             env:"PORT"                    env-default:"8080"`
	ReadTimeout     time.Duration `yaml:"read_timeout"     env:"SERVER_READ_TIMEOUT"     env-default:"5s"`
	WriteTimeout    time.Duration `yaml:"write_timeout"    env:"SERVER_WRITE_TIMEOUT"    env-default:"10s"`
	IdleTimeout     time.Duration `yaml:"idle_timeout"     env:"SERVER_IDLE_TIMEOUT"     env-default:"60s"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" env:"SERVER_SHUTDOWN_TIMEOUT" env-default:"10s"`
	Swagger         bool          `yaml:"swagger"          env:"SERVER_SWAGGER"          env-default:"true"`
}

// DatabaseConfig: DSN vacío = repos in-memory.
type DatabaseConfig struct {
	DSN             string        `yaml:"dsn"                env:"DB_DSN"`
	MaxConns        int32         `yaml:"max_conns"          env:"DB_MAX_CONNS"          env-default:"10"`
	MinConns        int32         `yaml:"min_conns"          env:"DB_MIN_CONNS"          env-default:"2"`
	MaxConnLifetime time.Duration `yaml:"max_conn_lifetime"  env:"DB_MAX_CONN_LIFETIME"  env-default:"30m"`
	MaxConnIdleTime time.Duration `yaml:"max_conn_idle_time" env:"DB_MAX_CONN_IDLE_TIME" env-default:"5m"`
	AutoMigrate     bool          `yaml:"auto_migrate"       env:"DB_AUTO_MIGRATE"       env-default:"true"`
}

func (d DatabaseConfig) Enabled() bool {
	return strings.TrimSpace(d.DSN) != ""
}

// Modos de autenticación.
const (
	AuthModeDev  = "dev"
	AuthModeJWT  = "jwt"
	AuthModeOdin = "odin"
)

type AuthConfig struct {
	Mode string `yaml:"mode" env:"AUTH_MODE" env-default:"dev"`

	JWTSecret      string        `yaml:"jwt_secret"       env:"AUTH_JWT_SECRET"`
	JWTIssuer      string        `yaml:"jwt_issuer"       env:"AUTH_JWT_ISSUER"       env-default:"vet-telemedicine"`
	AccessTokenTTL time.Duration `yaml:"access_token_ttl" env:"AUTH_ACCESS_TOKEN_TTL" env-default:"15m"`

	OdinBaseURL      string        `yaml:"odin_base_url"       env:"ODIN_BASE_URL"`
	OdinAPIKey       string        `yaml:"odin_api_key"        env:"ODIN_API_KEY"`
	OdinAPIKeyHeader string        `yaml:"odin_api_key_header" env:"ODIN_API_KEY_HEADER" env-default:"X-Api-Key"`
	OdinTimeout      time.Duration `yaml:"odin_timeout"        env:"ODIN_TIMEOUT"        env-default:"5s"`
}

type LogConfig struct {
	Level  string `yaml:"level"  env:"LOG_LEVEL"  env-default:"info"`
	Format string `yaml:"format" env:"LOG_FORMAT" env-default:"json"`
	App    string `yaml:"app"    env:"APP_NAME"   env-default:"vet-telemedicine-api"`
}

// Drivers de publicación de notificaciones.
const (
	NotifyDriverLog   = "log"
	NotifyDriverKafka = "kafka"
	NotifyDriverSQS   = "sqs"
)

type NotifyConfig struct {
	Driver string `yaml:"driver" env:"NOTIFY_DRIVER" env-default:"log"`

	KafkaBrokers string `yaml:"kafka_brokers" env:"NOTIFY_KAFKA_BROKERS"` // CSV host:port
	KafkaTopic   string `yaml:"kafka_topic"   env:"NOTIFY_KAFKA_TOPIC"   env-default:"vet.notifications"`

	SQSQueueURL string `yaml:"sqs_queue_url" env:"NOTIFY_SQS_QUEUE_URL"`
	SQSRegion   string `yaml:"sqs_region"    env:"NOTIFY_SQS_REGION"    env-default:"us-east-1"`

	Timeout time.Duration `yaml:"timeout" env:"NOTIFY_TIMEOUT" env-default:"5s"`
}

// Brokers parte KafkaBrokers y descarta vacíos.
func (n NotifyConfig) Brokers() []string {
	var out []string
	for _, b := range strings.Split(n.KafkaBrokers, ",") {
		if b = strings.TrimSpace(b); b != "" {
			out = append(out, b)
		}
	}
	return out
}

// ClinicConfig: la zona horaria define qué es "hoy" para turnos y seguimientos.
type ClinicConfig struct {
	Timezone string `yaml:"timezone" env:"CLINIC_TIMEZONE" env-default:"UTC"`

	// Location se resuelve en Validate.
	Location *time.Location `yaml:"-" env:"-"`
}

type MetricsConfig struct {
	Enabled bool   `yaml:"enabled" env:"METRICS_ENABLED" env-default:"true"`
	Path    string `yaml:"path"    env:"METRICS_PATH"    env-default:"/metrics"`
}
