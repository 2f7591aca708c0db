package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// 导入映射方向
const (
	MappingFieldToColumn = "field_to_column" // {crm字段: 表格列}
	MappingColumnToField = "column_to_field" // {表格列: crm字段}
)

// 存储驱动
const (
	StoreMongo  = "mongo"
	StoreMemory = "memory"
)

// Config 应用配置
type Config struct {
	Port      int    `mapstructure:"port" validate:"min=1,max=65535"`
	Debug     bool   `mapstructure:"debug"`
	LogLevel  string `mapstructure:"logLevel" validate:"oneof=debug info warn error"`
	LogFormat string `mapstructure:"logFormat" validate:"oneof=console json"`

	Store struct {
		Driver string `mapstructure:"driver" validate:"oneof=mongo memory"`
	} `mapstructure:"store"`

	Mongo struct {
		URI      string `mapstructure:"uri"`
		Database string `mapstructure:"database" validate:"required"`
	} `mapstructure:"mongo"`

	JWT struct {
		Secret      string `mapstructure:"secret" validate:"required"`
		ExpireHours int    `mapstructure:"expireHours" validate:"min=1"`
	} `mapstructure:"jwt"`

	CORS struct {
		Origins []string `mapstructure:"origins"`
	} `mapstructure:"cors"`

	Import ImportConfig `mapstructure:"import"`

	SMTP SMTPConfig `mapstructure:"smtp"`

	Scheduler SchedulerConfig `mapstructure:"scheduler"`

	Redis struct {
		URI string `mapstructure:"uri"`
	} `mapstructure:"redis"`

	Metrics struct {
		Enabled bool `mapstructure:"enabled"`
	} `mapstructure:"metrics"`
}

// ImportConfig 表格导入配置
type ImportConfig struct {
	MappingDirection string `mapstructure:"mappingDirection" validate:"oneof=field_to_column column_to_field"`
	DefaultStatus    string `mapstructure:"defaultStatus" validate:"required"`
}

// SMTPConfig 邮件发送配置，Host 或 User 为空时不发送
type SMTPConfig struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
	User string `mapstructure:"user"`
	Pass string `mapstructure:"pass"`
	From string `mapstructure:"from"`
}

// Enabled SMTP 是否已配置
func (s SMTPConfig) Enabled() bool {
	return s.Host != "" && s.User != ""
}

// SchedulerConfig 跟进提醒任务配置
type SchedulerConfig struct {
	Enabled     bool          `mapstructure:"enabled"`
	Interval    time.Duration `mapstructure:"interval" validate:"gt=0"`
	AlertWindow time.Duration `mapstructure:"alertWindow" validate:"gte=0"`
	Workers     int           `mapstructure:"workers" validate:"min=1"`
}

// LoadConfig 从 .env、配置文件和环境变量加载配置
func LoadConfig() (*Config, error) {
	// .env 不存在时忽略
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("读取配置文件失败: %w", err)
		}
	}

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	bindLegacyEnv(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("解析配置失败: %w", err)
	}
	cfg.CORS.Origins = splitOrigins(cfg.CORS.Origins)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate 校验配置
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("配置校验失败: %w", err)
	}
	if c.Store.Driver == StoreMongo && c.Mongo.URI == "" {
		return fmt.Errorf("配置校验失败: mongo.uri 不能为空")
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("port", 8000)
	v.SetDefault("debug", false)
	v.SetDefault("logLevel", "info")
	v.SetDefault("logFormat", "console")
	v.SetDefault("store.driver", StoreMongo)
	v.SetDefault("mongo.uri", "mongodb://127.0.0.1:27017")
	v.SetDefault("mongo.database", "smartcrm")
	v.SetDefault("jwt.secret", "your-secret-key-change-in-production") // 实际环境应替换为安全密钥
	v.SetDefault("jwt.expireHours", 24)
	v.SetDefault("cors.origins", []string{"*"})
	v.SetDefault("import.mappingDirection", MappingFieldToColumn)
	v.SetDefault("import.defaultStatus", "None")
	v.SetDefault("smtp.port", 587)
	v.SetDefault("scheduler.enabled", true)
	v.SetDefault("scheduler.interval", 5*time.Minute)
	v.SetDefault("scheduler.alertWindow", 30*time.Minute)
	v.SetDefault("scheduler.workers", 4)
	v.SetDefault("redis.uri", "")
	v.SetDefault("metrics.enabled", true)
}

// bindLegacyEnv 兼容部署脚本中使用的变量名
func bindLegacyEnv(v *viper.Viper) {
	_ = v.BindEnv("mongo.uri", "MONGO_URI", "MONGO_URL")
	_ = v.BindEnv("mongo.database", "MONGO_DB", "DB_NAME")
	_ = v.BindEnv("jwt.secret", "JWT_SECRET", "JWT_KEY")
	_ = v.BindEnv("cors.origins", "CORS_ORIGINS")
	_ = v.BindEnv("smtp.host", "SMTP_HOST")
	_ = v.BindEnv("smtp.port", "SMTP_PORT")
	_ = v.BindEnv("smtp.user", "SMTP_USER")
	_ = v.BindEnv("smtp.pass", "SMTP_PASS")
	_ = v.BindEnv("smtp.from", "SMTP_FROM")
	_ = v.BindEnv("redis.uri", "REDIS_URI")
	_ = v.BindEnv("logLevel", "LOG_LEVEL")
	_ = v.BindEnv("logFormat", "LOG_FORMAT")
	_ = v.BindEnv("store.driver", "STORE_DRIVER")
	_ = v.BindEnv("import.mappingDirection", "IMPORT_MAPPING_DIRECTION")
	_ = v.BindEnv("import.defaultStatus", "IMPORT_DEFAULT_STATUS")
}

// splitOrigins 环境变量中的 origins 以逗号分隔
func splitOrigins(in []string) []string {
	var out []string
	for _, item := range in {
		for _, part := range strings.Split(item, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}
