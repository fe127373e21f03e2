package database

import (
	"fmt"
	"net"
	"net/url"
	"strconv"
	"time"

	"github.com/deppfellow/wikitype-api/internal/config"
	"github.com/go-sql-driver/mysql"
)

const sqliteBusyTimeoutMillis = 5000

func postgresDSN(cfg config.DatabaseConfig) string {
	u := url.URL{
		Scheme: "postgres",
		// userinfo escaping keeps reserved characters in the password intact
		User:     url.UserPassword(cfg.User, cfg.Password),
		Host:     net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port)),
		Path:     "/" + cfg.Name,
		RawQuery: url.Values{"sslmode": {cfg.SSLMode}}.Encode(),
	}
	return u.String()
}

func mysqlDSN(cfg config.DatabaseConfig) string {
	mc := mysql.NewConfig()
	mc.User = cfg.User
	mc.Passwd = cfg.Password
	mc.Net = "tcp"
	mc.Addr = net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port))
	mc.DBName = cfg.Name
	mc.ParseTime = true
	mc.Loc = time.UTC
	return mc.FormatDSN()
}

func sqliteDSN(cfg config.DatabaseConfig) string {
	return fmt.Sprintf("%s?_foreign_keys=on&_journal_mode=WAL&_busy_timeout=%d",
		cfg.Path, sqliteBusyTimeoutMillis)
}
