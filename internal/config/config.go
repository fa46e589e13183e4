package config

import (
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// DefaultPath используется, если CONFIG_PATH не задан
const DefaultPath = "config/config.yaml"

// Config определяет структуру конфигурации всех сервисов целиком
type Config struct {
	Env           string `yaml:"env"`
	Gateway       `yaml:"gateway"`
	AuthService   `yaml:"auth_service"`
	OrdersService `yaml:"orders_service"`
	Postgres      `yaml:"postgres"`
	Kafka         `yaml:"kafka"`
	Logger        `yaml:"logger"`
	Telemetry     `yaml:"telemetry"`
}

// HTTPServer содержит конфигурацию для HTTP-сервера
type HTTPServer struct {
	Port    string        `yaml:"port" validate:"required"`
	Timeout time.Duration `yaml:"timeout"`
}

// Gateway содержит конфигурацию пользовательского шлюза
type Gateway struct {
	HTTPServer   HTTPServer   `yaml:"http_server"`
	Session      Session      `yaml:"session"`
	AuthClient   AuthClient   `yaml:"auth_client"`
	OrdersClient OrdersClient `yaml:"orders_client"`
	Payment      Payment      `yaml:"payment"`
}

// Session описывает cookie и время жизни сессии
type Session struct {
	CookieName string        `yaml:"cookie_name" validate:"required"`
	TTL        time.Duration `yaml:"ttl" validate:"gt=0"`
	Secure     bool          `yaml:"secure"`
}

// AuthClient содержит адрес и таймауты сервиса аутентификации
type AuthClient struct {
	BaseURL         string        `yaml:"base_url" validate:"required,url"`
	Timeout         time.Duration `yaml:"timeout" validate:"gt=0"`
	RegisterTimeout time.Duration `yaml:"register_timeout"`
}

// OrdersClient содержит адрес сервиса заказов и способ доставки заказов
type OrdersClient struct {
	BaseURL   string        `yaml:"base_url" validate:"required,url"`
	Timeout   time.Duration `yaml:"timeout" validate:"gt=0"`
	Transport string        `yaml:"transport" validate:"oneof=http kafka"`
}

// Payment содержит параметры circuit breaker-а и симулятора банка
type Payment struct {
	FailureThreshold uint32        `yaml:"failure_threshold" validate:"gt=0"`
	OpenDuration     time.Duration `yaml:"open_duration" validate:"gt=0"`
	FailureRate      float64       `yaml:"failure_rate" validate:"gte=0,lte=1"`
	MinLatency       time.Duration `yaml:"min_latency"`
	MaxLatency       time.Duration `yaml:"max_latency" validate:"gtefield=MinLatency"`
}

// AuthService содержит конфигурацию сервиса аутентификации
type AuthService struct {
	HTTPServer HTTPServer    `yaml:"http_server"`
	JWTSecret  string        `yaml:"jwt_secret"`
	AccessTTL  time.Duration `yaml:"access_ttl"`
	RefreshTTL time.Duration `yaml:"refresh_ttl"`
	RateLimit  RateLimit     `yaml:"rate_limit"`
	Users      []SeedUser    `yaml:"users"`
}

// RateLimit задаёт ограничение запросов на один IP
type RateLimit struct {
	RPS   float64 `yaml:"rps"`
	Burst int     `yaml:"burst"`
}

// SeedUser: пользователь, создаваемый при старте сервиса аутентификации
type SeedUser struct {
	Username string `yaml:"username" validate:"required"`
	Password string `yaml:"password" validate:"required"`
	Email    string `yaml:"email"`
}

// OrdersService содержит конфигурацию сервиса заказов
type OrdersService struct {
	HTTPServer   HTTPServer `yaml:"http_server"`
	Storage      string     `yaml:"storage" validate:"oneof=memory postgres"`
	ConsumeKafka bool       `yaml:"consume_kafka"`
}

// Postgres содержит конфигурацию для подключения к базе данных
type Postgres struct {
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Host     string `yaml:"host"`
	Port     string `yaml:"port"`
	DBName   string `yaml:"db_name"`
	SSLMode  string `yaml:"ssl_mode"`
}

// Kafka содержит конфигурацию для подключения к кафке
type Kafka struct {
	Brokers []string `yaml:"brokers"`
	Topic   string   `yaml:"topic"`
	GroupID string   `yaml:"group_id"`
}

// Logger содержит конфигурацию для логгера
type Logger struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Telemetry содержит адрес OTLP-коллектора; пустой адрес отключает экспорт
type Telemetry struct {
	OTLPEndpoint string `yaml:"otlp_endpoint"`
	ServiceName  string `yaml:"service_name"`
}

var validate = validator.New()

// MustLoad загружает конфигурацию из файла по указанному пути
// в случае ошибки программа завершается с фатальной ошибкой
func MustLoad(configPath string) *Config {
	cfg, err := Load(configPath)
	if err != nil {
		log.Fatalf("failed to load config: %s", err)
	}
	return cfg
}

// Load читает .env (если он есть), yaml-файл и переменные окружения
// если путь пустой, берётся CONFIG_PATH, а затем DefaultPath
func Load(configPath string) (*Config, error) {
	const op = "config.Load"

	// .env не обязателен, переменные могут прийти из окружения
	_ = godotenv.Load()

	if configPath == "" {
		configPath = os.Getenv("CONFIG_PATH")
	}
	if configPath == "" {
		configPath = DefaultPath
	}

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("%s: config file does not exist: %s", op, configPath)
	}

	file, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to read config file: %w", op, err)
	}

	cfg := defaults()
	if err := yaml.Unmarshal(file, &cfg); err != nil {
		return nil, fmt.Errorf("%s: failed to unmarshal config: %w", op, err)
	}

	applyEnv(&cfg)

	if err := validate.Struct(&cfg); err != nil {
		return nil, fmt.Errorf("%s: invalid config: %w", op, err)
	}

	return &cfg, nil
}

// defaults возвращает значения, которые yaml может переопределить
func defaults() Config {
	return Config{
		Env: "local",
		Gateway: Gateway{
			HTTPServer: HTTPServer{Port: ":8080", Timeout: 10 * time.Second},
			Session:    Session{CookieName: "gateway_session", TTL: 24 * time.Hour},
			AuthClient: AuthClient{
				BaseURL:         "http://localhost:5001",
				Timeout:         2 * time.Second,
				RegisterTimeout: 3 * time.Second,
			},
			OrdersClient: OrdersClient{
				BaseURL:   "http://localhost:5003",
				Timeout:   2 * time.Second,
				Transport: "http",
			},
			Payment: Payment{
				FailureThreshold: 3,
				OpenDuration:     15 * time.Second,
				FailureRate:      0.45,
				MinLatency:       50 * time.Millisecond,
				MaxLatency:       300 * time.Millisecond,
			},
		},
		AuthService: AuthService{
			HTTPServer: HTTPServer{Port: ":5001", Timeout: 10 * time.Second},
			AccessTTL:  5 * time.Minute,
			RefreshTTL: time.Hour,
			RateLimit:  RateLimit{RPS: 5, Burst: 10},
		},
		OrdersService: OrdersService{
			HTTPServer: HTTPServer{Port: ":5003", Timeout: 10 * time.Second},
			Storage:    "memory",
		},
		Kafka:     Kafka{Topic: "orders", GroupID: "orders-service"},
		Logger:    Logger{Level: "INFO", Format: "text"},
		Telemetry: Telemetry{ServiceName: "shop-gateway"},
	}
}

// applyEnv переопределяет секреты и адреса брокеров из окружения
func applyEnv(cfg *Config) {
	if v := os.Getenv("JWT_SECRET"); v != "" {
		cfg.AuthService.JWTSecret = v
	}
	if v := os.Getenv("POSTGRES_PASSWORD"); v != "" {
		cfg.Postgres.Password = v
	}
	if v := os.Getenv("KAFKA_BROKERS"); v != "" {
		brokers := make([]string, 0)
		for _, b := range strings.Split(v, ",") {
			if b = strings.TrimSpace(b); b != "" {
				brokers = append(brokers, b)
			}
		}
		cfg.Kafka.Brokers = brokers
	}
}
