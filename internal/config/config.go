package config

import (
	"strings"

	"github.com/spf13/viper"
)

// Config holds all configuration for the application.
// The values are read by Viper from a config file or environment variables.
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	S3       S3Config       `mapstructure:"s3"`
	Upload   UploadConfig   `mapstructure:"upload"`
	Image    ImageConfig    `mapstructure:"image"`
	Auth     AuthConfig     `mapstructure:"auth"`
	Metrics  MetricsConfig  `mapstructure:"metrics"`
}

type ServerConfig struct {
	Address string `mapstructure:"address"`
	// Mode is the Gin mode: "debug" or "release". Debug mode also
	// switches to the development logger and includes error chains in
	// error responses.
	Mode string `mapstructure:"mode"`
}

func (s ServerConfig) IsRelease() bool {
	return s.Mode == "release"
}

type DatabaseConfig struct {
	URI  string `mapstructure:"uri"`
	Name string `mapstructure:"name"`
}

type S3Config struct {
	Endpoint        string `mapstructure:"endpoint"`
	Region          string `mapstructure:"region"`
	AccessKeyID     string `mapstructure:"access_key_id"`
	SecretAccessKey string `mapstructure:"secret_access_key"`
	BucketName      string `mapstructure:"bucket_name"`
	UseSSL          bool   `mapstructure:"use_ssl"`
}

// UploadConfig bounds what a single upload request may carry and how
// many per-file pipelines run at once.
type UploadConfig struct {
	MaxFileSize   int64 `mapstructure:"max_file_size"`
	MaxFiles      int   `mapstructure:"max_files"`
	MaxConcurrent int   `mapstructure:"max_concurrent"`
}

// ImageConfig controls the image transcode step.
type ImageConfig struct {
	MaxDimension int `mapstructure:"max_dimension"`
	JPEGQuality  int `mapstructure:"jpeg_quality"`
}

// AuthConfig is optional: an empty secret disables uploader identity
// extraction and everything is recorded as "anonymous".
type AuthConfig struct {
	JWTSecret string `mapstructure:"jwt_secret"`
}

type MetricsConfig struct {
	Enabled bool `mapstructure:"enabled"`
}

// LoadConfig reads configuration from file or environment variables.
func LoadConfig(path string) (config Config, err error) {
	viper.AddConfigPath(path)
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")

	// Environment variables override file values, e.g.
	// server.address -> SERVER_ADDRESS, s3.bucket_name -> S3_BUCKET_NAME.
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(`.`, `_`))

	viper.SetDefault("server.address", ":8080")
	viper.SetDefault("server.mode", "debug")
	viper.SetDefault("database.uri", "mongodb://localhost:27017")
	viper.SetDefault("database.name", "media_app")
	// Keys must be registered for AutomaticEnv to reach them during
	// Unmarshal, so every field gets at least an empty default.
	viper.SetDefault("s3.endpoint", "")
	viper.SetDefault("s3.region", "us-east-1")
	viper.SetDefault("s3.access_key_id", "")
	viper.SetDefault("s3.secret_access_key", "")
	viper.SetDefault("s3.bucket_name", "")
	viper.SetDefault("s3.use_ssl", true)
	viper.SetDefault("auth.jwt_secret", "")
	viper.SetDefault("upload.max_file_size", 50*1024*1024) // 50 MiB
	viper.SetDefault("upload.max_files", 5)
	viper.SetDefault("upload.max_concurrent", 5)
	viper.SetDefault("image.max_dimension", 1920)
	viper.SetDefault("image.jpeg_quality", 85)
	viper.SetDefault("metrics.enabled", true)

	err = viper.ReadInConfig()
	// Missing config file is fine; defaults and env vars still apply.
	if _, ok := err.(viper.ConfigFileNotFoundError); ok {
		err = nil
	} else if err != nil {
		return
	}

	err = viper.Unmarshal(&config)
	return
}
