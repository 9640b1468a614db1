package config

import (
	"os"
	"strconv"
)

// Config содержит настройки Stock Worker Service
type Config struct {
	Server       ServerConfig
	Mongo        MongoConfig
	Kafka        KafkaConfig
	CronSchedule CronScheduleConfig
}

type ServerConfig struct {
	Host string // Адрес хоста (по умолчанию 0.0.0.0)
	Port string // Порт health/metrics сервера (по умолчанию 8083)
}

// MongoConfig - подключение к MongoDB Catalog Service.
// Воркер пишет остатки напрямую в коллекцию products.
type MongoConfig struct {
	URI      string // URI подключения к MongoDB
	Database string // Имя базы данных каталога
}

// KafkaConfig - подписка на события заказов
type KafkaConfig struct {
	Brokers  []string // Список брокеров Kafka (формат: host:port)
	Topic    string   // Топик для прослушивания (order_events)
	GroupID  string   // ID группы потребителей
	MinBytes int      // Минимум байт для fetch запроса
	MaxBytes int      // Максимум байт для fetch запроса
}

// CronScheduleConfig - расписание фоновых задач
type CronScheduleConfig struct {
	Reconcile string // Расписание сверки остатков (по умолчанию раз в час)
}

func Load() (*Config, error) {
	return &Config{
		Server: ServerConfig{
			Host: getEnv("SERVER_HOST", "0.0.0.0"),
			Port: getEnv("SERVER_PORT", "8083"),
		},
		Mongo: MongoConfig{
			URI:      getEnv("MONGO_URI", "mongodb://localhost:27017"),
			Database: getEnv("MONGO_DATABASE", "catalog_service"),
		},
		Kafka: KafkaConfig{
			Brokers:  []string{getEnv("KAFKA_BROKERS", "localhost:9092")},
			Topic:    getEnv("KAFKA_TOPIC", "order_events"),
			GroupID:  getEnv("KAFKA_GROUP_ID", "stock-worker-group"),
			MinBytes: getEnvInt("KAFKA_MIN_BYTES", 1),
			MaxBytes: getEnvInt("KAFKA_MAX_BYTES", 10e6),
		},
		CronSchedule: CronScheduleConfig{
			Reconcile: getEnv("CRON_RECONCILE", "0 * * * *"),
		},
	}, nil
}

func (c *ServerConfig) Address() string {
	return c.Host + ":" + c.Port
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}
