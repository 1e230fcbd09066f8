package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/BurntSushi/toml"
	"github.com/shopspring/decimal"

	"github.com/m04kA/SMC-BookingEngine/internal/domain"
)

// ErrInvalidConfig возвращается, когда файл конфигурации содержит некорректные значения
var ErrInvalidConfig = errors.New("config: invalid configuration")

// Драйверы хранилищ вместимости
const (
	StorePostgres = "postgres"
	StoreRedis    = "redis"
	StoreMemory   = "memory"
)

// Режимы платежного шлюза
const (
	PaymentsHTTP = "http"
	PaymentsFake = "fake"
)

// Драйверы публикации событий
const (
	EventsRabbitMQ = "rabbitmq"
	EventsKafka    = "kafka"
	EventsNone     = "none"
)

// Config конфигурация сервиса
type Config struct {
	Server       ServerConfig       `toml:"server"`
	Database     DatabaseConfig     `toml:"database"`
	Redis        RedisConfig        `toml:"redis"`
	Logs         LogsConfig         `toml:"logs"`
	Metrics      MetricsConfig      `toml:"metrics"`
	Engine       EngineConfig       `toml:"engine"`
	Payments     PaymentsConfig     `toml:"payments"`
	Events       EventsConfig       `toml:"events"`
	Cancellation CancellationConfig `toml:"cancellation"`
}

// ServerConfig настройки HTTP сервера (таймауты в секундах)
type ServerConfig struct {
	HTTPPort        int `toml:"http_port"`
	ReadTimeout     int `toml:"read_timeout"`
	WriteTimeout    int `toml:"write_timeout"`
	IdleTimeout     int `toml:"idle_timeout"`
	ShutdownTimeout int `toml:"shutdown_timeout"`
}

// DatabaseConfig настройки PostgreSQL
type DatabaseConfig struct {
	Host            string `toml:"host"`
	Port            int    `toml:"port"`
	User            string `toml:"user"`
	Password        string `toml:"password"`
	DBName          string `toml:"dbname"`
	SSLMode         string `toml:"sslmode"`
	MaxOpenConns    int    `toml:"max_open_conns"`
	MaxIdleConns    int    `toml:"max_idle_conns"`
	ConnMaxLifetime int    `toml:"conn_max_lifetime"`
}

// DSN строка подключения для lib/pq
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.DBName, d.SSLMode)
}

// RedisConfig настройки Redis для удержаний мест
type RedisConfig struct {
	Addr     string `toml:"addr"`
	Password string `toml:"password"`
	DB       int    `toml:"db"`
}

// LogsConfig настройки логирования
type LogsConfig struct {
	Level string `toml:"level"`
	File  string `toml:"file"`
}

// MetricsConfig настройки Prometheus
type MetricsConfig struct {
	Enabled     bool   `toml:"enabled"`
	Path        string `toml:"path"`
	ServiceName string `toml:"service_name"`
}

// EngineConfig настройки движка бронирований
type EngineConfig struct {
	Timezone      string `toml:"timezone"`
	LeaseTTL      string `toml:"lease_ttl"`
	SweepInterval string `toml:"sweep_interval"`
	CapacityStore string `toml:"capacity_store"`
	SeatStore     string `toml:"seat_store"`
}

// Location часовой пояс площадок
func (e EngineConfig) Location() (*time.Location, error) {
	if e.Timezone == "" {
		return time.UTC, nil
	}
	return time.LoadLocation(e.Timezone)
}

// LeaseTTLDuration срок удержания мест (0 = значение по умолчанию)
func (e EngineConfig) LeaseTTLDuration() time.Duration {
	return parseDuration(e.LeaseTTL)
}

// SweepIntervalDuration период обхода истекших удержаний (0 = значение по умолчанию)
func (e EngineConfig) SweepIntervalDuration() time.Duration {
	return parseDuration(e.SweepInterval)
}

// PaymentsConfig настройки платежного шлюза (timeout в секундах)
type PaymentsConfig struct {
	Mode    string `toml:"mode"`
	URL     string `toml:"url"`
	Timeout int    `toml:"timeout"`
}

// EventsConfig настройки зеркалирования событий
type EventsConfig struct {
	Driver   string `toml:"driver"`
	URL      string `toml:"url"`
	Brokers  string `toml:"brokers"`
	Exchange string `toml:"exchange"`
	Topic    string `toml:"topic"`
}

// CancellationConfig политики отмены по вертикалям
type CancellationConfig struct {
	Policies []PolicyConfig `toml:"policies"`
}

// PolicyConfig политика отмены одной вертикали
type PolicyConfig struct {
	Vertical string       `toml:"vertical"`
	Tiers    []TierConfig `toml:"tiers"`
}

// TierConfig ступень политики: не позже чем min_before до начала возвращается fraction
type TierConfig struct {
	MinBefore string `toml:"min_before"`
	Fraction  string `toml:"fraction"`
}

// Load читает конфигурацию из файла и применяет переменные окружения
func Load(path string) (*Config, error) {
	var cfg Config
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config file %s: %w", path, err)
	}

	cfg.applyDefaults()
	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Engine.CapacityStore == "" {
		c.Engine.CapacityStore = StorePostgres
	}
	if c.Engine.SeatStore == "" {
		c.Engine.SeatStore = StorePostgres
	}
	if c.Payments.Mode == "" {
		c.Payments.Mode = PaymentsFake
	}
	if c.Events.Driver == "" {
		c.Events.Driver = EventsNone
	}
	if c.Metrics.Path == "" {
		c.Metrics.Path = "/metrics"
	}
	if c.Logs.Level == "" {
		c.Logs.Level = "info"
	}
}

// applyEnv секреты не хранятся в файле
func (c *Config) applyEnv() {
	if v := os.Getenv("DB_PASSWORD"); v != "" {
		c.Database.Password = v
	}
	if v := os.Getenv("REDIS_PASSWORD"); v != "" {
		c.Redis.Password = v
	}
}

// Validate проверяет значения синхронно, без подстановки значений по умолчанию
func (c *Config) Validate() error {
	if c.Server.HTTPPort <= 0 || c.Server.HTTPPort > 65535 {
		return fmt.Errorf("%w: server.http_port must be in [1, 65535]", ErrInvalidConfig)
	}
	if c.Database.Host == "" || c.Database.DBName == "" {
		return fmt.Errorf("%w: database.host and database.dbname are required", ErrInvalidConfig)
	}

	if _, err := c.Engine.Location(); err != nil {
		return fmt.Errorf("%w: engine.timezone: %v", ErrInvalidConfig, err)
	}
	for name, value := range map[string]string{"lease_ttl": c.Engine.LeaseTTL, "sweep_interval": c.Engine.SweepInterval} {
		if value == "" {
			continue
		}
		if d, err := time.ParseDuration(value); err != nil || d <= 0 {
			return fmt.Errorf("%w: engine.%s must be a positive duration, got %q", ErrInvalidConfig, name, value)
		}
	}

	if !oneOf(c.Engine.CapacityStore, StorePostgres, StoreMemory) {
		return fmt.Errorf("%w: engine.capacity_store must be postgres or memory", ErrInvalidConfig)
	}
	if !oneOf(c.Engine.SeatStore, StorePostgres, StoreRedis, StoreMemory) {
		return fmt.Errorf("%w: engine.seat_store must be postgres, redis or memory", ErrInvalidConfig)
	}
	if c.Engine.SeatStore == StoreRedis && c.Redis.Addr == "" {
		return fmt.Errorf("%w: redis.addr is required for the redis seat store", ErrInvalidConfig)
	}

	switch c.Payments.Mode {
	case PaymentsFake:
	case PaymentsHTTP:
		if c.Payments.URL == "" || c.Payments.Timeout <= 0 {
			return fmt.Errorf("%w: payments.url and payments.timeout are required in http mode", ErrInvalidConfig)
		}
	default:
		return fmt.Errorf("%w: payments.mode must be http or fake", ErrInvalidConfig)
	}

	switch c.Events.Driver {
	case EventsNone:
	case EventsRabbitMQ:
		if c.Events.URL == "" || c.Events.Exchange == "" {
			return fmt.Errorf("%w: events.url and events.exchange are required for rabbitmq", ErrInvalidConfig)
		}
	case EventsKafka:
		if c.Events.Brokers == "" || c.Events.Topic == "" {
			return fmt.Errorf("%w: events.brokers and events.topic are required for kafka", ErrInvalidConfig)
		}
	default:
		return fmt.Errorf("%w: events.driver must be rabbitmq, kafka or none", ErrInvalidConfig)
	}

	if _, err := c.CancellationPolicies(); err != nil {
		return err
	}

	return nil
}

// CancellationPolicies политики отмены по вертикалям в доменном виде
func (c *Config) CancellationPolicies() (map[domain.Vertical]domain.CancellationPolicy, error) {
	policies := make(map[domain.Vertical]domain.CancellationPolicy, len(c.Cancellation.Policies))

	for _, p := range c.Cancellation.Policies {
		vertical := domain.Vertical(p.Vertical)
		if !vertical.Valid() {
			return nil, fmt.Errorf("%w: unknown vertical %q in cancellation policies", ErrInvalidConfig, p.Vertical)
		}
		if _, ok := policies[vertical]; ok {
			return nil, fmt.Errorf("%w: duplicate cancellation policy for %s", ErrInvalidConfig, vertical)
		}

		policy := domain.CancellationPolicy{Tiers: make([]domain.RefundTier, 0, len(p.Tiers))}
		for _, t := range p.Tiers {
			before, err := time.ParseDuration(t.MinBefore)
			if err != nil {
				return nil, fmt.Errorf("%w: %s tier min_before %q: %v", ErrInvalidConfig, vertical, t.MinBefore, err)
			}
			fraction, err := decimal.NewFromString(t.Fraction)
			if err != nil {
				return nil, fmt.Errorf("%w: %s tier fraction %q: %v", ErrInvalidConfig, vertical, t.Fraction, err)
			}
			policy.Tiers = append(policy.Tiers, domain.RefundTier{MinBeforeEvent: before, Fraction: fraction})
		}

		if err := policy.Validate(); err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrInvalidConfig, vertical, err)
		}
		policies[vertical] = policy
	}

	return policies, nil
}

func parseDuration(value string) time.Duration {
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0
	}
	return d
}

func oneOf(value string, options ...string) bool {
	for _, o := range options {
		if strings.EqualFold(value, o) {
			return true
		}
	}
	return false
}
