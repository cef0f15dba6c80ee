package conn

import (
	"context"
	"net"
	"net/url"
	"strconv"
	"strings"
	"time"

	"venuebridge/pkg/exception"

	"github.com/yanun0323/errors"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

const _sqliteMemory = "file::memory:?cache=shared"

// Option selects and addresses the contract store database. ConnString, when
// set, is used as is.
type Option struct {
	Driver     string
	Host       string
	Port       int
	User       string
	Password   string
	Database   string
	SSLMode    string
	ConnString string
	Config     *gorm.Config
}

type dialect struct {
	open func(dsn string) gorm.Dialector
	dsn  func(Option) string
	// maxOpen caps the pool, zero leaves the driver default.
	maxOpen int
}

var _dialects = map[string]dialect{
	DriverPostgres: {open: postgres.Open, dsn: postgresDSN},
	// one writer, and a single connection keeps a shared in-memory db alive
	DriverSQLite: {open: sqlite.Open, dsn: sqliteDSN, maxOpen: 1},
}

// Client owns the gorm handle of the contract store.
type Client struct {
	driver string
	db     *gorm.DB
}

// New opens the store. An empty driver means postgres.
func New(option Option) (*Client, error) {
	driver := option.driver()
	d, ok := _dialects[driver]
	if !ok {
		return nil, errors.Wrapf(exception.ErrStoreDriver, "driver: %s", option.Driver)
	}

	cfg := option.Config
	if cfg == nil {
		cfg = &gorm.Config{Logger: logger.Default.LogMode(logger.Warn)}
	}

	db, err := gorm.Open(d.open(option.DSN()), cfg)
	if err != nil {
		return nil, errors.Wrapf(err, "open %s store", driver)
	}
	if d.maxOpen > 0 {
		sqlDB, err := db.DB()
		if err != nil {
			return nil, errors.Wrapf(err, "%s pool", driver)
		}
		sqlDB.SetMaxOpenConns(d.maxOpen)
	}

	return &Client{driver: driver, db: db}, nil
}

// DSN returns the connection string handed to the driver.
func (opt Option) DSN() string {
	if opt.ConnString != "" {
		return opt.ConnString
	}
	if d, ok := _dialects[opt.driver()]; ok {
		return d.dsn(opt)
	}
	return ""
}

func (opt Option) driver() string {
	if opt.Driver == "" {
		return DriverPostgres
	}
	return strings.ToLower(opt.Driver)
}

func (c *Client) DB() *gorm.DB {
	if c == nil {
		return nil
	}
	return c.db
}

func (c *Client) Driver() string {
	if c == nil {
		return ""
	}
	return c.driver
}

// Ping checks the store is reachable within a short deadline.
func (c *Client) Ping(ctx context.Context) error {
	if c == nil || c.db == nil {
		return errors.Wrap(exception.ErrNilInstance, "store client")
	}
	sqlDB, err := c.db.DB()
	if err != nil {
		return errors.Wrap(err, "store pool")
	}
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := sqlDB.PingContext(ctx); err != nil {
		return errors.Wrapf(err, "ping %s store", c.driver)
	}
	return nil
}

func (c *Client) Close() error {
	if c == nil || c.db == nil {
		return nil
	}
	sqlDB, err := c.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func sqliteDSN(opt Option) string {
	if opt.Database == "" {
		return _sqliteMemory
	}
	return opt.Database
}

func postgresDSN(opt Option) string {
	host, port := opt.Host, opt.Port
	if host == "" {
		host = "localhost"
	}
	if port == 0 {
		port = 5432
	}
	sslMode := opt.SSLMode
	if sslMode == "" {
		sslMode = "disable"
	}

	u := url.URL{
		Scheme:   "postgres",
		Host:     net.JoinHostPort(host, strconv.Itoa(port)),
		RawQuery: url.Values{"sslmode": {sslMode}}.Encode(),
	}
	switch {
	case opt.User != "" && opt.Password != "":
		u.User = url.UserPassword(opt.User, opt.Password)
	case opt.User != "":
		u.User = url.User(opt.User)
	}
	if opt.Database != "" {
		u.Path = "/" + opt.Database
	}
	return u.String()
}
