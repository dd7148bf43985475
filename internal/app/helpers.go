package app

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/quillpost/core/internal/config"
	jwtpkg "github.com/quillpost/core/internal/pkg/jwt"
	"go.uber.org/zap"
)

// applyRuntimeSettings installs process-wide state derived from config: the
// token signing secret and the local timezone.
func applyRuntimeSettings(cfg *config.AppConfig, logger *zap.Logger) error {
	secret := strings.TrimSpace(cfg.JWTSecret)
	switch {
	case secret != "":
		jwtpkg.SetSecret(secret)
	case cfg.IsDev() || cfg.Env == "test":
		logger.Warn("jwt_secret not set, tokens are signed with the development secret")
	default:
		logger.Error("jwt_secret not set in a non-development environment")
	}

	tz := strings.TrimSpace(cfg.Timezone)
	if tz == "" {
		return nil
	}
	loc, err := parseTimezoneLocation(tz)
	if err != nil {
		return fmt.Errorf("invalid timezone %q: %w", tz, err)
	}
	time.Local = loc
	_ = os.Setenv("TZ", tz)
	return nil
}

// parseTimezoneLocation accepts an IANA name or a fixed "+hh:mm" offset.
func parseTimezoneLocation(raw string) (*time.Location, error) {
	tz := strings.TrimSpace(raw)
	if tz == "" {
		return time.Local, nil
	}
	if loc, err := time.LoadLocation(tz); err == nil {
		return loc, nil
	}

	var sign rune
	var h, m int
	if n, _ := fmt.Sscanf(tz, "%c%02d:%02d", &sign, &h, &m); n == 3 && len(tz) == 6 &&
		(sign == '+' || sign == '-') && h <= 23 && m <= 59 {
		offset := (h*60 + m) * 60
		if sign == '-' {
			offset = -offset
		}
		return time.FixedZone(tz, offset), nil
	}
	return nil, fmt.Errorf("expect IANA zone (e.g. Europe/Berlin) or UTC offset (e.g. +02:00)")
}

// uptime renders d at a precision that suits its size.
func uptime(d time.Duration) string {
	unit := time.Second
	switch {
	case d >= 24*time.Hour:
		days := int(d / (24 * time.Hour))
		rest := (d % (24 * time.Hour)).Truncate(time.Hour)
		return fmt.Sprintf("%dd%s", days, rest)
	case d >= time.Hour:
		unit = time.Minute
	}
	return d.Truncate(unit).String()
}
