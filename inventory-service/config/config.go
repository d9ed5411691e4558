package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"github.com/spf13/viper"
)

type Config struct {
	ServiceName  string   `mapstructure:"service_name"`
	Env          string   `mapstructure:"env"`
	Port         string   `mapstructure:"port"`
	OTLPEndpoint string   `mapstructure:"otlp_endpoint"`
	Database     Database `mapstructure:"database"`
	AWS          AWS      `mapstructure:"aws"`
}

type Database struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	Database string `mapstructure:"database"`
	SSLMode  string `mapstructure:"ssl_mode"`
}

type AWS struct {
	Region      string `mapstructure:"region"`
	SNSTopicArn string `mapstructure:"sns_topic_arn"`
	SQSQueueURL string `mapstructure:"sqs_queue_url"`
}

func ReadConfig() (*Config, error) {
	_, filename, _, ok := runtime.Caller(0)
	if !ok {
		return nil, fmt.Errorf("unable to get current file")
	}

	viper.SetConfigName(configName())
	viper.SetConfigType("json")
	viper.AddConfigPath(filepath.Dir(filename))

	viper.AutomaticEnv()
	viper.SetEnvPrefix("INVENTORY")

	setDefaults()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	return &config, nil
}

func configName() string {
	if env := os.Getenv("ENVIRONMENT"); env != "" {
		return env
	}
	return "local"
}

func setDefaults() {
	viper.SetDefault("service_name", "inventory-service")
	viper.SetDefault("env", "local")
	viper.SetDefault("port", "8082")
	viper.SetDefault("otlp_endpoint", "localhost:4318")

	viper.SetDefault("database.host", "localhost")
	viper.SetDefault("database.port", 5432)
	viper.SetDefault("database.user", "postgres")
	viper.SetDefault("database.password", "password")
	viper.SetDefault("database.database", "fulfillment")
	viper.SetDefault("database.ssl_mode", "disable")

	viper.SetDefault("aws.region", "us-east-1")
	viper.SetDefault("aws.sns_topic_arn", "arn:aws:sns:us-east-1:000000000000:fulfillment-events")
	viper.SetDefault("aws.sqs_queue_url", "http://localhost:4566/000000000000/inventory-events")
}

// GetDatabaseURL constructs the database URL from config
func (c *Config) GetDatabaseURL() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.Database.User,
		c.Database.Password,
		c.Database.Host,
		c.Database.Port,
		c.Database.Database,
		c.Database.SSLMode,
	)
}
