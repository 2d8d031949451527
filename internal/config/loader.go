package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/joho/godotenv"
)

// Config captures environment driven configuration values for the showflix service.
type Config struct {
	HTTPPort      int
	SQLiteDSN     string
	SessionSecret string
	SessionTTL    time.Duration
	Location      *time.Location
	LogLevel      slog.Level
	CORSOrigins   []string
	LoginRate     float64
	LoginBurst    int
	RedisAddr     string
	RedisPassword string
	CacheTTL      time.Duration
	PDFFontPath   string
	AdminUserID   string
	AdminPassword string
}

// Load parses configuration values from the current process environment,
// reading a .env file in the working directory first when one exists.
func Load() (Config, error) {
	return LoadWithEnvFile(".env")
}

// LoadWithEnvFile is Load with an explicit dotenv path. Variables already set
// in the process environment win over the file. An empty path skips the file.
//
// The loader applies defaults for optional fields while validating required
// values and reporting every missing or invalid key in a single error.
func LoadWithEnvFile(path string) (Config, error) {
	if path != "" {
		if err := godotenv.Load(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return Config{}, fmt.Errorf("환경 파일을 읽을 수 없습니다: %s: %w", path, err)
		}
	}

	cfg := Config{
		HTTPPort:    8080,
		SQLiteDSN:   "showflix.db",
		SessionTTL:  24 * time.Hour,
		LogLevel:    slog.LevelInfo,
		LoginRate:   1,
		LoginBurst:  5,
		CacheTTL:    30 * time.Second,
		CORSOrigins: nil,
	}

	missing := make([]string, 0, 1)
	invalid := make([]string, 0, 4)

	if portValue := env("SHOWFLIX_HTTP_PORT"); portValue != "" {
		port, err := strconv.Atoi(portValue)
		if err != nil || port <= 0 || port > 65535 {
			invalid = append(invalid, "SHOWFLIX_HTTP_PORT")
		} else {
			cfg.HTTPPort = port
		}
	}

	if dsn := env("SHOWFLIX_SQLITE_DSN"); dsn != "" {
		cfg.SQLiteDSN = dsn
	}

	if secret := env("SHOWFLIX_SESSION_SECRET"); secret == "" {
		missing = append(missing, "SHOWFLIX_SESSION_SECRET")
	} else {
		cfg.SessionSecret = secret
	}

	if ttlValue := env("SHOWFLIX_SESSION_TTL"); ttlValue != "" {
		ttl, err := time.ParseDuration(ttlValue)
		if err != nil || ttl <= 0 {
			invalid = append(invalid, "SHOWFLIX_SESSION_TTL")
		} else {
			cfg.SessionTTL = ttl
		}
	}

	tz := env("SHOWFLIX_TIMEZONE")
	if tz == "" {
		tz = "Asia/Seoul"
	}
	if loc, err := time.LoadLocation(tz); err != nil {
		invalid = append(invalid, "SHOWFLIX_TIMEZONE")
	} else {
		cfg.Location = loc
	}

	if levelValue := env("SHOWFLIX_LOG_LEVEL"); levelValue != "" {
		if err := cfg.LogLevel.UnmarshalText([]byte(levelValue)); err != nil {
			invalid = append(invalid, "SHOWFLIX_LOG_LEVEL")
		}
	}

	if origins := env("SHOWFLIX_CORS_ORIGINS"); origins != "" {
		for _, origin := range strings.Split(origins, ",") {
			if trimmed := strings.TrimSpace(origin); trimmed != "" {
				cfg.CORSOrigins = append(cfg.CORSOrigins, trimmed)
			}
		}
	}

	if rateValue := env("SHOWFLIX_LOGIN_RATE"); rateValue != "" {
		rate, err := strconv.ParseFloat(rateValue, 64)
		if err != nil || rate <= 0 {
			invalid = append(invalid, "SHOWFLIX_LOGIN_RATE")
		} else {
			cfg.LoginRate = rate
		}
	}

	if burstValue := env("SHOWFLIX_LOGIN_BURST"); burstValue != "" {
		burst, err := strconv.Atoi(burstValue)
		if err != nil || burst <= 0 {
			invalid = append(invalid, "SHOWFLIX_LOGIN_BURST")
		} else {
			cfg.LoginBurst = burst
		}
	}

	cfg.RedisAddr = env("SHOWFLIX_REDIS_ADDR")
	cfg.RedisPassword = os.Getenv("SHOWFLIX_REDIS_PASSWORD")

	if cacheValue := env("SHOWFLIX_CACHE_TTL"); cacheValue != "" {
		ttl, err := time.ParseDuration(cacheValue)
		if err != nil || ttl <= 0 {
			invalid = append(invalid, "SHOWFLIX_CACHE_TTL")
		} else {
			cfg.CacheTTL = ttl
		}
	}

	if fontPath := env("SHOWFLIX_PDF_FONT"); fontPath != "" {
		if _, err := os.Stat(fontPath); err != nil {
			invalid = append(invalid, "SHOWFLIX_PDF_FONT")
		} else {
			cfg.PDFFontPath = fontPath
		}
	}

	cfg.AdminUserID = env("SHOWFLIX_ADMIN_USERID")
	cfg.AdminPassword = os.Getenv("SHOWFLIX_ADMIN_PASSWORD")
	if cfg.AdminUserID != "" && cfg.AdminPassword == "" {
		missing = append(missing, "SHOWFLIX_ADMIN_PASSWORD")
	}

	if len(missing) > 0 {
		return Config{}, fmt.Errorf("필수 환경 변수가 설정되지 않았습니다: %s", strings.Join(missing, ", "))
	}
	if len(invalid) > 0 {
		return Config{}, fmt.Errorf("환경 변수 값이 올바르지 않습니다: %s", strings.Join(invalid, ", "))
	}

	return cfg, nil
}

func env(key string) string {
	return strings.TrimSpace(os.Getenv(key))
}
