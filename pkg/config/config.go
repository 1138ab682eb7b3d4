// Package config loads creamy settings from a YAML file, a .env file and
// CREAMY_ prefixed environment variables.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment variable, e.g. CREAMY_STORE_DRIVER.
const EnvPrefix = "CREAMY"

type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Store     StoreConfig     `mapstructure:"store"`
	Images    ImagesConfig    `mapstructure:"images"`
	OCR       OCRConfig       `mapstructure:"ocr"`
	NLP       NLPConfig       `mapstructure:"nlp"`
	Translate TranslateConfig `mapstructure:"translate"`
	Log       LogConfig       `mapstructure:"log"`
}

type ServerConfig struct {
	Addr            string        `mapstructure:"addr" validate:"required"`
	MaxUploadBytes  int64         `mapstructure:"max_upload_bytes" validate:"gt=0"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" validate:"gte=0"`
	CORSOrigin      string        `mapstructure:"cors_origin"`
}

type StoreConfig struct {
	Driver string `mapstructure:"driver" validate:"oneof=sqlite postgres mysql mongo"`
	// DSN is optional for sqlite, which then uses uploads.db.
	DSN   string      `mapstructure:"dsn"`
	Mongo MongoConfig `mapstructure:"mongo"`
}

type MongoConfig struct {
	Database   string `mapstructure:"database"`
	Collection string `mapstructure:"collection"`
}

type ImagesConfig struct {
	Driver string      `mapstructure:"driver" validate:"oneof=dir minio"`
	Dir    string      `mapstructure:"dir" validate:"required_if=Driver dir"`
	Minio  MinioConfig `mapstructure:"minio"`
}

type MinioConfig struct {
	Endpoint  string `mapstructure:"endpoint"`
	AccessKey string `mapstructure:"access_key"`
	SecretKey string `mapstructure:"secret_key"`
	Bucket    string `mapstructure:"bucket"`
	UseSSL    bool   `mapstructure:"use_ssl"`
	Prefix    string `mapstructure:"prefix"`
}

type OCRConfig struct {
	Engine        string `mapstructure:"engine" validate:"oneof=tesseract gosseract"`
	Language      string `mapstructure:"language" validate:"required"`
	Preprocess    bool   `mapstructure:"preprocess"`
	OnFailure     string `mapstructure:"on_failure" validate:"oneof=fail store_empty"`
	TesseractPath string `mapstructure:"tesseract_path"`
}

type NLPConfig struct {
	Engine     string        `mapstructure:"engine" validate:"oneof=lexicon service"`
	ServiceURL string        `mapstructure:"service_url" validate:"omitempty,url"`
	Model      string        `mapstructure:"model"`
	Timeout    time.Duration `mapstructure:"timeout" validate:"gte=0"`
	PunktModel string        `mapstructure:"punkt_model" validate:"omitempty,file"`
}

type TranslateConfig struct {
	Enabled         bool          `mapstructure:"enabled"`
	BaseURL         string        `mapstructure:"base_url" validate:"omitempty,url"`
	Timeout         time.Duration `mapstructure:"timeout" validate:"gt=0"`
	Attempts        uint          `mapstructure:"attempts" validate:"gte=1"`
	BreakerFailures uint32        `mapstructure:"breaker_failures"`
	BreakerCooldown time.Duration `mapstructure:"breaker_cooldown"`
}

type LogConfig struct {
	Level  string `mapstructure:"level" validate:"oneof=debug info warn error"`
	Format string `mapstructure:"format" validate:"oneof=text json"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.addr", ":5000")
	v.SetDefault("server.max_upload_bytes", 10<<20)
	v.SetDefault("server.shutdown_timeout", 10*time.Second)
	v.SetDefault("server.cors_origin", "*")

	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.dsn", "")
	v.SetDefault("store.mongo.database", "creamy")
	v.SetDefault("store.mongo.collection", "uploads")

	v.SetDefault("images.driver", "dir")
	v.SetDefault("images.dir", "uploaded_images")
	v.SetDefault("images.minio.prefix", "uploaded_images/")

	v.SetDefault("ocr.engine", "tesseract")
	v.SetDefault("ocr.language", "deu")
	v.SetDefault("ocr.preprocess", false)
	v.SetDefault("ocr.on_failure", "fail")
	v.SetDefault("ocr.tesseract_path", "tesseract")

	v.SetDefault("nlp.engine", "lexicon")
	v.SetDefault("nlp.model", "de_core_news_sm")
	v.SetDefault("nlp.timeout", 30*time.Second)
	v.SetDefault("nlp.punkt_model", "")
	v.SetDefault("nlp.service_url", "")

	v.SetDefault("translate.enabled", true)
	v.SetDefault("translate.base_url", "https://api.mymemory.translated.net")
	v.SetDefault("translate.timeout", 5*time.Second)
	v.SetDefault("translate.attempts", 1)
	v.SetDefault("translate.breaker_failures", 3)
	v.SetDefault("translate.breaker_cooldown", 30*time.Second)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")

	// Keys without defaults are invisible to AutomaticEnv during Unmarshal.
	for _, key := range []string{
		"images.minio.endpoint", "images.minio.access_key", "images.minio.secret_key", "images.minio.bucket",
	} {
		v.SetDefault(key, "")
	}
	v.SetDefault("images.minio.use_ssl", false)
}

// Load reads configFile (or ./creamy.yaml when empty), then .env, then the
// environment, and validates the result.
func Load(configFile string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	v := viper.New()
	v.SetConfigType("yaml")
	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("creamy")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.config/creamy")
	}

	setDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("configuration file found but could not be read: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration format: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}
