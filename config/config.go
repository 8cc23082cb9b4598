// Ininicializing common application configuration
package config

import (
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Redis    RedisConfig    `mapstructure:"redis"`
	Kafka    KafkaConfig    `mapstructure:"kafka"`
	Rabbit   RabbitConfig   `mapstructure:"rabbitmq"`
	Events   EventsConfig   `mapstructure:"events"`
	Upload   UploadConfig   `mapstructure:"upload"`
	Storage  StorageConfig  `mapstructure:"storage"`
	App      AppConfig      `mapstructure:"app"`
	Crop     CropConfig     `mapstructure:"crop"`
}

type ServerConfig struct {
	AppVersion   string        `mapstructure:"app_version"`
	Host         string        `mapstructure:"host"`
	Port         string        `mapstructure:"port"`
	Timeout      time.Duration `mapstructure:"timeout"`
	Idle_timeout time.Duration `mapstructure:"idle_timeout"`
	Env          string        `mapstructure:"environment"`
	Mode         string        `mapstructure:"mode"`
	LogLevel     string        `mapstructure:"log_level"`
}

type DatabaseConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	DBName          string        `mapstructure:"dbname"`
	SSLMode         string        `mapstructure:"sslmode"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
}

type RedisConfig struct {
	Host         string        `mapstructure:"host"`
	Port         int           `mapstructure:"port"`
	Password     string        `mapstructure:"password"`
	DB           int           `mapstructure:"db"`
	Enabled      bool          `mapstructure:"enabled"`
	PoolSize     int           `mapstructure:"pool_size"`
	DialTimeout  time.Duration `mapstructure:"dial_timeout"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
}

type KafkaConfig struct {
	Brokers []string `mapstructure:"brokers"`
	Topic   string   `mapstructure:"topic"`
	GroupID string   `mapstructure:"group_id"`
}

type RabbitConfig struct {
	URL       string `mapstructure:"url"`
	Host      string `mapstructure:"host"`
	Port      int    `mapstructure:"port"`
	Username  string `mapstructure:"username"`
	Password  string `mapstructure:"password"`
	QueueName string `mapstructure:"queue_name"`
}

func (r RabbitConfig) AMQPURL() string {
	if r.URL != "" {
		return r.URL
	}
	return fmt.Sprintf("amqp://%s:%s@%s:%d/", r.Username, r.Password, r.Host, r.Port)
}

type EventsConfig struct {
	// kafka | rabbitmq | none
	Broker string `mapstructure:"broker"`
	// superseded images stay on the host this long, so cached public pages
	// keep rendering
	CleanupDelay time.Duration `mapstructure:"cleanup_delay"`
}

type UploadConfig struct {
	// cloudinary | local
	Provider  string `mapstructure:"provider"`
	CloudName string `mapstructure:"cloud_name"`
	APIKey    string `mapstructure:"api_key"`
	APISecret string `mapstructure:"api_secret"`
}

type StorageConfig struct {
	BasePath string `mapstructure:"base_path"`
	BaseURL  string `mapstructure:"base_url"`
}

type AppConfig struct {
	CacheTTL    time.Duration `mapstructure:"cache_ttl"`
	BaseURL     string        `mapstructure:"base_url"`
	WelcomeText string        `mapstructure:"welcome_text"`
}

type CropConfig struct {
	ScalePolicy     string                `mapstructure:"scale_policy"`
	MinScale        float64               `mapstructure:"min_scale"`
	MaxScale        float64               `mapstructure:"max_scale"`
	Quality         int                   `mapstructure:"quality"`
	MaxPixels       int64                 `mapstructure:"max_pixels"`
	SessionTTL      time.Duration         `mapstructure:"session_ttl"`
	JanitorInterval time.Duration         `mapstructure:"janitor_interval"`
	Kinds           map[string]KindConfig `mapstructure:"kinds"`
}

type KindConfig struct {
	FrameWidth   int    `mapstructure:"frame_width"`
	FrameHeight  int    `mapstructure:"frame_height"`
	OutputWidth  int    `mapstructure:"output_width"`
	OutputHeight int    `mapstructure:"output_height"`
	Format       string `mapstructure:"format"`
	MaxBytes     int64  `mapstructure:"max_bytes"`
	Folder       string `mapstructure:"folder"`
	Target       string `mapstructure:"target"`
}

func LoadConfig() (*viper.Viper, error) {

	viperInstance := newViper()

	viperInstance.AddConfigPath("./config")
	viperInstance.SetConfigName("config")
	viperInstance.SetConfigType("yaml")

	err := viperInstance.ReadInConfig()

	if err != nil {
		return nil, err
	}
	return viperInstance, nil
}

// Defaults returns the configuration built from defaults and environment only,
// for tools that run without a config file.
func Defaults() (*Config, error) {
	return ParseConfig(newViper())
}

func newViper() *viper.Viper {
	v := viper.New()
	setDefaults(v)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

func ParseConfig(v *viper.Viper) (*Config, error) {

	var c Config

	err := v.Unmarshal(&c)
	if err != nil {
		log.Printf("unable to decode config into struct, %v", err)
		return nil, err
	}

	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

// Validate rejects configurations the crop pipeline cannot honour. Every kind
// must keep the output aspect ratio identical to its frame.
func (c *Config) Validate() error {
	switch c.Crop.ScalePolicy {
	case "anchored", "naive":
	default:
		return fmt.Errorf("crop.scale_policy must be anchored or naive, got %q", c.Crop.ScalePolicy)
	}

	if c.Crop.MinScale <= 0 || c.Crop.MaxScale <= c.Crop.MinScale {
		return fmt.Errorf("crop scale bounds invalid: [%v, %v]", c.Crop.MinScale, c.Crop.MaxScale)
	}

	if c.Crop.MaxPixels <= 0 {
		return fmt.Errorf("crop.max_pixels must be positive")
	}

	if len(c.Crop.Kinds) == 0 {
		return fmt.Errorf("crop.kinds cannot be empty")
	}

	for name, k := range c.Crop.Kinds {
		if err := CheckGeometry(name, k.FrameWidth, k.FrameHeight, k.OutputWidth, k.OutputHeight); err != nil {
			return err
		}
		switch k.Format {
		case "jpeg", "png", "webp":
		default:
			return fmt.Errorf("crop kind %s: unsupported format %q", name, k.Format)
		}
		switch k.Target {
		case "block_banner", "block_image", "page_banner", "page_avatar":
		default:
			return fmt.Errorf("crop kind %s: unknown target %q", name, k.Target)
		}
		if k.MaxBytes <= 0 {
			return fmt.Errorf("crop kind %s: max_bytes must be positive", name)
		}
	}

	switch c.Events.Broker {
	case "kafka", "rabbitmq", "none":
	default:
		return fmt.Errorf("events.broker must be kafka, rabbitmq or none, got %q", c.Events.Broker)
	}

	switch c.Upload.Provider {
	case "local", "cloudinary":
	default:
		return fmt.Errorf("upload.provider must be local or cloudinary, got %q", c.Upload.Provider)
	}

	return nil
}

// CheckGeometry requires positive sizes and an output of exactly the frame's
// aspect ratio. Integers are cross-multiplied so no rounding can hide a stretch.
func CheckGeometry(name string, frameW, frameH, outW, outH int) error {
	if frameW <= 0 || frameH <= 0 || outW <= 0 || outH <= 0 {
		return fmt.Errorf("crop kind %s: dimensions must be positive", name)
	}
	if outW*frameH != outH*frameW {
		return fmt.Errorf("crop kind %s: output %dx%d does not match frame aspect %dx%d",
			name, outW, outH, frameW, frameH)
	}
	return nil
}

func (c *Config) DatabaseURL() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Database.Host, c.Database.Port, c.Database.User, c.Database.Password, c.Database.DBName, c.Database.SSLMode,
	)
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.app_version", "1.0.0")
	v.SetDefault("server.host", "localhost")
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.timeout", 30*time.Second)
	v.SetDefault("server.idle_timeout", 60*time.Second)
	v.SetDefault("server.environment", "development")
	v.SetDefault("server.mode", "debug")
	v.SetDefault("server.log_level", "info")

	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "linkhub")
	v.SetDefault("database.password", "password")
	v.SetDefault("database.dbname", "linkhub")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.max_open_conns", 25)
	v.SetDefault("database.max_idle_conns", 5)
	v.SetDefault("database.conn_max_lifetime", 5*time.Minute)

	v.SetDefault("redis.host", "localhost")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.enabled", true)
	v.SetDefault("redis.pool_size", 10)
	v.SetDefault("redis.dial_timeout", 5*time.Second)
	v.SetDefault("redis.read_timeout", 3*time.Second)
	v.SetDefault("redis.write_timeout", 3*time.Second)

	v.SetDefault("kafka.brokers", []string{"kafka:9092"})
	v.SetDefault("kafka.topic", "image-events")
	v.SetDefault("kafka.group_id", "linkhub-asset-cleaner")

	v.SetDefault("rabbitmq.host", "localhost")
	v.SetDefault("rabbitmq.port", 5672)
	v.SetDefault("rabbitmq.username", "guest")
	v.SetDefault("rabbitmq.password", "guest")
	v.SetDefault("rabbitmq.queue_name", "image-events")

	v.SetDefault("events.broker", "kafka")
	v.SetDefault("events.cleanup_delay", 15*time.Minute)

	v.SetDefault("upload.provider", "local")

	v.SetDefault("storage.base_path", "./storage")
	v.SetDefault("storage.base_url", "http://localhost:8080/media")

	v.SetDefault("app.cache_ttl", 15*time.Minute)
	v.SetDefault("app.base_url", "http://localhost:8080")
	v.SetDefault("app.welcome_text", "Добро пожаловать на мою страницу!")

	v.SetDefault("crop.scale_policy", "anchored")
	v.SetDefault("crop.min_scale", 0.1)
	v.SetDefault("crop.max_scale", 3.0)
	v.SetDefault("crop.quality", 90)
	v.SetDefault("crop.max_pixels", 40_000_000)
	v.SetDefault("crop.session_ttl", 15*time.Minute)
	v.SetDefault("crop.janitor_interval", time.Minute)

	setKindDefaults(v, "link_banner", 450, 150, 600, 200, "jpeg", 10<<20, "linkhub/banners", "block_banner")
	setKindDefaults(v, "link_icon", 200, 200, 64, 64, "png", 2<<20, "linkhub/icons", "block_image")
	setKindDefaults(v, "page_banner", 400, 100, 1200, 300, "jpeg", 5<<20, "linkhub/banners", "page_banner")
	setKindDefaults(v, "avatar", 200, 200, 200, 200, "jpeg", 5<<20, "linkhub/avatars", "page_avatar")
}

func setKindDefaults(v *viper.Viper, name string, fw, fh, ow, oh int, format string, maxBytes int64, folder, target string) {
	prefix := "crop.kinds." + name + "."
	v.SetDefault(prefix+"frame_width", fw)
	v.SetDefault(prefix+"frame_height", fh)
	v.SetDefault(prefix+"output_width", ow)
	v.SetDefault(prefix+"output_height", oh)
	v.SetDefault(prefix+"format", format)
	v.SetDefault(prefix+"max_bytes", maxBytes)
	v.SetDefault(prefix+"folder", folder)
	v.SetDefault(prefix+"target", target)
}

func GetEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
