package infra

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config — корневая структура конфигурации сервиса дайджестов.
// Собирается один раз на старте процесса и передается в компоненты явно:
// никакого чтения ENV изнутри компонентов, чтобы в тестах можно было
// подсовывать фейковую конфигурацию.
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Telemetry TelemetryConfig `mapstructure:"telemetry"`
	Mail      MailConfig      `mapstructure:"mail"`
	Report    ReportConfig    `mapstructure:"report"`
	Limits    LimitsConfig    `mapstructure:"limits"`
	Logger    LoggerConfig    `mapstructure:"logger"`
}

// ServerConfig описывает настройки HTTP-сервера (входной триггер).
type ServerConfig struct {
	Host         string        `mapstructure:"host"`
	Port         int           `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
}

// TelemetryConfig описывает подключение к бэкенду телеметрии.
// APIKey и AppID — секреты; приходят через ENV (TELEMETRY_API_KEY,
// TELEMETRY_APP_ID). Их отсутствие здесь не проверяется: пустой ключ
// обернется отказом аутентификации на стороне бэкенда, который пайплайн
// штатно деградирует до пустого дайджеста.
type TelemetryConfig struct {
	BaseURL  string        `mapstructure:"base_url"`
	AppID    string        `mapstructure:"app_id"`
	APIKey   string        `mapstructure:"api_key"`
	Timespan string        `mapstructure:"timespan"` // ISO-8601, например P1W
	Timeout  time.Duration `mapstructure:"timeout"`
}

// MailConfig описывает транспорт доставки отчета.
type MailConfig struct {
	BaseURL       string        `mapstructure:"base_url"`
	APIKey        string        `mapstructure:"api_key"` // MAIL_API_KEY
	From          string        `mapstructure:"from"`
	To            string        `mapstructure:"to"`
	SubjectPrefix string        `mapstructure:"subject_prefix"`
	Timeout       time.Duration `mapstructure:"timeout"`
}

// ReportConfig — параметры формирования отчета.
type ReportConfig struct {
	// DefaultName перекрывает встроенный fallback-идентификатор фильтра,
	// если задан. Пустое значение — используется встроенный.
	DefaultName string `mapstructure:"default_name"`
}

// LimitsConfig настраивает rate limiter входного триггера.
type LimitsConfig struct {
	RPS   float64 `mapstructure:"rps"`
	Burst int     `mapstructure:"burst"`
}

// LoggerConfig настраивает поведение zap логгера.
type LoggerConfig struct {
	Level  string `mapstructure:"level"`  // debug, info, warn, error
	Format string `mapstructure:"format"` // json, console
}

// LoadConfig инициализирует конфигурацию, объединяя значения из файла и ENV.
func LoadConfig() (*Config, error) {
	v := viper.New()

	// 1. Настройка поиска файла
	v.SetConfigName("config")    // имя файла без расширения
	v.SetConfigType("yaml")      // формат
	v.AddConfigPath(".")         // ищем в корне
	v.AddConfigPath("./configs") // и в папке с конфигами

	// 2. Настройка переменных окружения (ENV)
	// Позволяет перекрывать конфиг: TELEMETRY_API_KEY перекроет telemetry.api_key
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// 3. Установка дефолтных значений
	setDefaults(v)

	// 4. Чтение файла
	if err := v.ReadInConfig(); err != nil {
		var configFileNotFoundError viper.ConfigFileNotFoundError
		if !errors.As(err, &configFileNotFoundError) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// Если файла нет — работаем на ENV и дефолтах
	}

	// 5. Маппинг в структуру
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unable to decode into struct: %w", err)
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	// Пустые дефолты регистрируют ключи, приходящие только из ENV:
	// без них AutomaticEnv не виден для Unmarshal
	v.SetDefault("server.host", "")
	v.SetDefault("telemetry.app_id", "")
	v.SetDefault("telemetry.api_key", "")
	v.SetDefault("mail.api_key", "")
	v.SetDefault("mail.from", "")
	v.SetDefault("mail.to", "")
	v.SetDefault("report.default_name", "")

	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", 5*time.Second)
	v.SetDefault("server.write_timeout", 60*time.Second)
	v.SetDefault("telemetry.base_url", "https://api.applicationinsights.io")
	v.SetDefault("telemetry.timespan", "P1W")
	v.SetDefault("telemetry.timeout", 30*time.Second)
	v.SetDefault("mail.base_url", "https://api.sendgrid.com")
	v.SetDefault("mail.subject_prefix", "Daily telemetry digest:")
	v.SetDefault("mail.timeout", 15*time.Second)
	v.SetDefault("limits.rps", 5.0)
	v.SetDefault("limits.burst", 5)
	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.format", "json")
}
