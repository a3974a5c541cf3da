package database

import (
	"net"
	"net/url"
	"strconv"

	"github.com/rickgao/quotewatch/internal/config"
)

// ApplicationName is reported to the server as application_name.
const ApplicationName = "quotewatch"

// BuildConnString renders cfg as a postgres:// URL. Credentials are escaped
// as URL userinfo; an empty password is left out entirely.
func BuildConnString(cfg config.DatabaseConfig) string {
	u := url.URL{
		Scheme: "postgres",
		Host:   cfg.Host,
		Path:   "/" + cfg.Name,
	}
	if cfg.Port > 0 {
		u.Host = net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port))
	}

	switch {
	case cfg.User != "" && cfg.Password != "":
		u.User = url.UserPassword(cfg.User, cfg.Password)
	case cfg.User != "":
		u.User = url.User(cfg.User)
	}

	sslMode := cfg.SSLMode
	if sslMode == "" {
		sslMode = config.DefaultDBSSLMode
	}
	q := url.Values{}
	q.Set("application_name", ApplicationName)
	q.Set("sslmode", sslMode)
	u.RawQuery = q.Encode()

	return u.String()
}
