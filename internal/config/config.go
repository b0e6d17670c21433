package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Режимы источника данных
const (
	SourceModeRemote = "remote"
	SourceModeMock   = "mock"
)

// Config хранит все настройки приложения
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Redis     RedisConfig     `mapstructure:"redis"`
	Log       LogConfig       `mapstructure:"log"`
	Source    SourceConfig    `mapstructure:"source"`
	Columns   ColumnsConfig   `mapstructure:"columns"`
	Sentinels SentinelsConfig `mapstructure:"sentinels"`
	Ingest    IngestConfig    `mapstructure:"ingest"`
	Ranking   RankingConfig   `mapstructure:"ranking"`
	Cache     CacheConfig     `mapstructure:"cache"`
	Insights  InsightsConfig  `mapstructure:"insights"`
	Email     EmailConfig     `mapstructure:"email"`
	RateLimit RateLimitConfig `mapstructure:"rate_limit"`
}

// ServerConfig содержит настройки HTTP сервера
type ServerConfig struct {
	Port         string   `mapstructure:"port"`
	ReadTimeout  int      `mapstructure:"read_timeout"`
	WriteTimeout int      `mapstructure:"write_timeout"`
	AllowOrigins []string `mapstructure:"allow_origins"`
}

// RedisConfig содержит унифицированные настройки подключения к Redis.
// Redis опционален: если адреса не заданы, кеш и rate limit отключаются.
type RedisConfig struct {
	// Mode: "single", "sentinel", "cluster". По умолчанию "single".
	Mode string `mapstructure:"mode"`

	Addrs []string `mapstructure:"addrs"`
	Addr  string   `mapstructure:"addr"`

	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`

	// MasterName: только для режима "sentinel"
	MasterName string `mapstructure:"master_name"`

	MaxRetries      int `mapstructure:"max_retries"`
	MinRetryBackoff int `mapstructure:"min_retry_backoff"` // мс
	MaxRetryBackoff int `mapstructure:"max_retry_backoff"` // мс
}

// Enabled сообщает, настроен ли Redis
func (r RedisConfig) Enabled() bool {
	return len(r.Addrs) > 0 || r.Addr != ""
}

// LogConfig содержит настройки логирования
type LogConfig struct {
	Level       string `mapstructure:"level"`
	Development bool   `mapstructure:"development"`
}

// SourceConfig описывает, откуда берутся данные участников
type SourceConfig struct {
	Mode string `mapstructure:"mode"`
	URL  string `mapstructure:"url"`
	// Format: "csv" или "xlsx"
	Format string `mapstructure:"format"`
	// Sheet: имя листа для xlsx (пусто — первый лист)
	Sheet string `mapstructure:"sheet"`

	Timeout        time.Duration `mapstructure:"timeout"`
	MaxAttempts    int           `mapstructure:"max_attempts"`
	InitialBackoff time.Duration `mapstructure:"initial_backoff"`
	MaxBackoff     time.Duration `mapstructure:"max_backoff"`
}

// ColumnsConfig — заголовки колонок таблицы для каждого поля участника.
// Заголовки в выгрузке меняются между версиями таблицы, поэтому они вынесены в конфиг.
type ColumnsConfig struct {
	Name            string `mapstructure:"name"`
	Email           string `mapstructure:"email"`
	ProfileURL      string `mapstructure:"profile_url"`
	ProfileStatus   string `mapstructure:"profile_status"`
	AccessCode      string `mapstructure:"access_code"`
	Redemption      string `mapstructure:"redemption"`
	AllCompleted    string `mapstructure:"all_completed"`
	SkillBadges     string `mapstructure:"skill_badges"`
	SkillBadgeNames string `mapstructure:"skill_badge_names"`
	ArcadeGames     string `mapstructure:"arcade_games"`
	ArcadeGameNames string `mapstructure:"arcade_game_names"`
}

// SentinelsConfig — строковые значения, которые кодируют "да" в соответствующих колонках
type SentinelsConfig struct {
	ProfileComplete    string `mapstructure:"profile_complete"`
	AccessCodeRedeemed string `mapstructure:"access_code_redeemed"`
	Redemption         string `mapstructure:"redemption"`
	AllCompleted       string `mapstructure:"all_completed"`
}

// IngestConfig содержит настройки нормализации строк
type IngestConfig struct {
	// IDStrategy: "position" или "natural"
	IDStrategy string `mapstructure:"id_strategy"`
	// AllCompletedThreshold используется, если колонка all_completed отсутствует (0 — выключено)
	AllCompletedThreshold int `mapstructure:"all_completed_threshold"`
}

// RankingConfig содержит настройки ранжирования
type RankingConfig struct {
	// Formula: "skill_badges" или "skill_badges_plus_arcade"
	Formula        string `mapstructure:"formula"`
	MedalThreshold int    `mapstructure:"medal_threshold"`
}

// CacheConfig содержит настройки кеша снимков лидерборда
type CacheConfig struct {
	TTL       time.Duration `mapstructure:"ttl"`
	KeyPrefix string        `mapstructure:"key_prefix"`
}

// InsightsConfig содержит настройки генерации AI-инсайтов
type InsightsConfig struct {
	APIKey  string        `mapstructure:"api_key"`
	Model   string        `mapstructure:"model"`
	Timeout time.Duration `mapstructure:"timeout"`
}

// EmailConfig содержит настройки рассылки дайджеста
type EmailConfig struct {
	ResendAPIKey string   `mapstructure:"resend_api_key"`
	From         string   `mapstructure:"from"`
	Recipients   []string `mapstructure:"recipients"`
}

// RateLimitConfig содержит лимиты для "дорогих" эндпоинтов
type RateLimitConfig struct {
	MaxRequests int           `mapstructure:"max_requests"`
	Window      time.Duration `mapstructure:"window"`
}

func setDefaults(vip *viper.Viper) {
	vip.SetDefault("server.port", "8080")
	vip.SetDefault("server.read_timeout", 15)
	vip.SetDefault("server.write_timeout", 30)
	vip.SetDefault("server.allow_origins", []string{"http://localhost:3000", "http://localhost:9002"})

	vip.SetDefault("redis.mode", "single")

	vip.SetDefault("log.level", "info")

	vip.SetDefault("source.mode", SourceModeMock)
	vip.SetDefault("source.format", "csv")
	vip.SetDefault("source.timeout", 10*time.Second)
	vip.SetDefault("source.max_attempts", 3)
	vip.SetDefault("source.initial_backoff", 300*time.Millisecond)
	vip.SetDefault("source.max_backoff", 3*time.Second)

	vip.SetDefault("columns.name", "Student Name")
	vip.SetDefault("columns.email", "User Email")
	vip.SetDefault("columns.profile_url", "Google Cloud Skills Boost Profile URL")
	vip.SetDefault("columns.profile_status", "Profile URL Status")
	vip.SetDefault("columns.access_code", "Access Code Redemption Status")
	vip.SetDefault("columns.redemption", "Access Code Redemption Status")
	vip.SetDefault("columns.all_completed", "All Skill Badges & Games Completed")
	vip.SetDefault("columns.skill_badges", "# of Skill Badges Completed")
	vip.SetDefault("columns.skill_badge_names", "Names of Completed Skill Badges")
	vip.SetDefault("columns.arcade_games", "# of Arcade Games Completed")
	vip.SetDefault("columns.arcade_game_names", "Names of Completed Arcade Games")

	vip.SetDefault("sentinels.profile_complete", "All Good")
	vip.SetDefault("sentinels.access_code_redeemed", "Yes")
	vip.SetDefault("sentinels.redemption", "Yes")
	vip.SetDefault("sentinels.all_completed", "Yes")

	vip.SetDefault("ingest.id_strategy", "position")
	vip.SetDefault("ingest.all_completed_threshold", 0)

	vip.SetDefault("ranking.formula", "skill_badges")
	vip.SetDefault("ranking.medal_threshold", 10)

	vip.SetDefault("cache.ttl", 60*time.Second)
	vip.SetDefault("cache.key_prefix", "leaderboard:snapshot")

	vip.SetDefault("insights.model", "gemini-2.0-flash")
	vip.SetDefault("insights.timeout", 30*time.Second)

	vip.SetDefault("rate_limit.max_requests", 5)
	vip.SetDefault("rate_limit.window", time.Minute)
}

// Override меняет загруженную конфигурацию до проверки (например, флагами CLI)
type Override func(*Config)

// Load загружает конфигурацию из файла и переменных окружения.
// overrides применяются по порядку перед Validate.
func Load(configPath string, overrides ...Override) (*Config, error) {
	vip := viper.New() // отдельный экземпляр, без глобального состояния

	setDefaults(vip)

	// Переменные окружения привязываем явно
	vip.BindEnv("server.port", "SERVER_PORT")

	vip.BindEnv("redis.mode", "REDIS_MODE")
	vip.BindEnv("redis.addrs", "REDIS_ADDRS")
	vip.BindEnv("redis.addr", "REDIS_ADDR")
	vip.BindEnv("redis.password", "REDIS_PASSWORD")
	vip.BindEnv("redis.db", "REDIS_DB")
	vip.BindEnv("redis.master_name", "REDIS_MASTER_NAME")

	vip.BindEnv("log.level", "LOG_LEVEL")

	vip.BindEnv("source.mode", "SOURCE_MODE")
	vip.BindEnv("source.url", "SOURCE_URL")
	vip.BindEnv("source.format", "SOURCE_FORMAT")

	vip.BindEnv("ranking.formula", "RANKING_FORMULA")
	vip.BindEnv("ingest.id_strategy", "INGEST_ID_STRATEGY")

	vip.BindEnv("insights.api_key", "GEMINI_API_KEY")
	vip.BindEnv("insights.model", "INSIGHTS_MODEL")

	vip.BindEnv("email.resend_api_key", "RESEND_API_KEY")
	vip.BindEnv("email.from", "EMAIL_FROM")
	vip.BindEnv("email.recipients", "EMAIL_RECIPIENTS")

	if configPath != "" {
		vip.SetConfigFile(configPath)
		// Файла может не быть — тогда работаем на env и значениях по умолчанию
		// SetConfigFile не возвращает ConfigFileNotFoundError, поэтому проверяем файл сами
		if _, statErr := os.Stat(configPath); os.IsNotExist(statErr) {
			fmt.Fprintf(os.Stderr, "config file %q not found, using env/defaults\n", configPath)
		} else if err := vip.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config %q: %w", configPath, err)
		}
	}

	var cfg Config
	if err := vip.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	// REDIS_ADDRS / EMAIL_RECIPIENTS приходят из env одной строкой через запятую
	cfg.Redis.Addrs = splitList(cfg.Redis.Addrs)
	cfg.Email.Recipients = splitList(cfg.Email.Recipients)

	for _, override := range overrides {
		override(&cfg)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate проверяет обязательные параметры
func (c *Config) Validate() error {
	switch c.Source.Mode {
	case SourceModeRemote:
		if c.Source.URL == "" {
			return fmt.Errorf("source.url is required in remote mode (check SOURCE_URL env var)")
		}
	case SourceModeMock:
	default:
		return fmt.Errorf("unsupported source mode: %q", c.Source.Mode)
	}

	switch c.Source.Format {
	case "csv", "xlsx":
	default:
		return fmt.Errorf("unsupported source format: %q", c.Source.Format)
	}

	switch c.Ranking.Formula {
	case "skill_badges", "skill_badges_plus_arcade":
	default:
		return fmt.Errorf("unsupported ranking formula: %q", c.Ranking.Formula)
	}

	switch c.Ingest.IDStrategy {
	case "position", "natural":
	default:
		return fmt.Errorf("unsupported id strategy: %q", c.Ingest.IDStrategy)
	}

	if c.Columns.Name == "" {
		return fmt.Errorf("columns.name must not be empty")
	}
	return nil
}

func splitList(in []string) []string {
	out := make([]string, 0, len(in))
	for _, item := range in {
		for _, part := range strings.Split(item, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}
