package config

import (
	"net"
	neturl "net/url"
	"strconv"
	"strings"
	"time"

	"github.com/go-sql-driver/mysql"
)

// DSNValue returns the connection string for the configured driver. An
// explicit DSN always wins.
func (c DatabaseRuntimeConfig) DSNValue() string {
	if v := strings.TrimSpace(c.DSN); v != "" {
		return v
	}
	if c.Driver == DriverSQLite {
		return ResolveRuntimePath(c.File, defaultSQLiteFile)
	}

	mc := mysql.NewConfig()
	mc.User = c.User
	mc.Passwd = c.Password
	mc.Net = "tcp"
	mc.Addr = net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
	mc.DBName = c.Name
	mc.ParseTime = c.ParseTime
	mc.Loc = resolveLocation(c.Loc)
	mc.Params = map[string]string{"charset": c.Charset}
	for key, value := range c.Params {
		mc.Params[key] = value
	}
	return mc.FormatDSN()
}

func resolveLocation(name string) *time.Location {
	switch strings.TrimSpace(name) {
	case "", "Local":
		return time.Local
	case "UTC":
		return time.UTC
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return time.Local
	}
	return loc
}

func (c RedisRuntimeConfig) URLValue() string {
	if u := normalizeRedisRawURL(c.URL); u != "" {
		return u
	}

	scheme := "redis"
	if c.TLS {
		scheme = "rediss"
	}
	u := &neturl.URL{
		Scheme: scheme,
		Host:   net.JoinHostPort(c.Host, strconv.Itoa(c.Port)),
		Path:   "/" + strconv.Itoa(c.DB),
	}
	switch {
	case c.Username != "" && c.Password != "":
		u.User = neturl.UserPassword(c.Username, c.Password)
	case c.Username != "":
		u.User = neturl.User(c.Username)
	case c.Password != "":
		u.User = neturl.UserPassword("", c.Password)
	}

	if len(c.Params) > 0 {
		query := neturl.Values{}
		for key, value := range c.Params {
			query.Set(key, value)
		}
		u.RawQuery = query.Encode()
	}
	return u.String()
}
