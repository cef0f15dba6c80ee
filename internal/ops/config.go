package ops

import (
	"os"
	"strings"
	"time"
	_ "time/tzdata"

	"venuebridge/internal/og"
	"venuebridge/internal/schema"
	"venuebridge/internal/venue"
	"venuebridge/internal/venue/sim"
	"venuebridge/internal/venue/wsgw"
	"venuebridge/pkg/conn"
	"venuebridge/pkg/exception"

	"github.com/bytedance/sonic"
	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	"github.com/yanun0323/errors"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "BRIDGE_"

// File mirrors the JSON config layout. Only Config can be overridden from the
// environment; the simulator seed lives in the file alone.
type File struct {
	Config
	Sim SimSeed `json:"sim"`
}

// Config is the runtime configuration.
type Config struct {
	Venue    VenueConfig    `json:"venue" envPrefix:"VENUE_"`
	Engine   EngineConfig   `json:"engine" envPrefix:"ENGINE_"`
	Account  AccountConfig  `json:"account" envPrefix:"ACCOUNT_"`
	Store    StoreConfig    `json:"store" envPrefix:"STORE_"`
	HTTP     HTTPConfig     `json:"http" envPrefix:"HTTP_"`
	Profiler ProfilerConfig `json:"profiler" envPrefix:"PROFILER_"`
	Universe []string       `json:"universe" env:"UNIVERSE" envSeparator:","`
}

// VenueConfig selects the venue gateway.
type VenueConfig struct {
	Type             string   `json:"type" env:"TYPE"`
	URL              string   `json:"url" env:"URL"`
	Session          string   `json:"session" env:"SESSION"`
	DialAttempts     int      `json:"dialAttempts" env:"DIAL_ATTEMPTS"`
	HandshakeTimeout Duration `json:"handshakeTimeout" env:"HANDSHAKE_TIMEOUT"`
	FillOnSubmit     bool     `json:"fillOnSubmit" env:"FILL_ON_SUBMIT"`
}

// EngineConfig tunes the reconciliation engine.
type EngineConfig struct {
	TickQueueSize   int      `json:"tickQueueSize" env:"TICK_QUEUE_SIZE"`
	TickPollTimeout Duration `json:"tickPollTimeout" env:"TICK_POLL_TIMEOUT"`
	Timezone        string   `json:"timezone" env:"TIMEZONE"`
}

// AccountConfig describes the futures account.
type AccountConfig struct {
	StartDate            string          `json:"startDate" env:"START_DATE"`
	CommissionMultiplier decimal.Decimal `json:"commissionMultiplier" env:"COMMISSION_MULTIPLIER"`
}

// StoreConfig enables contract persistence. An empty driver disables it.
type StoreConfig struct {
	Driver   string `json:"driver" env:"DRIVER"`
	DSN      string `json:"dsn" env:"DSN"`
	Host     string `json:"host" env:"HOST"`
	Port     int    `json:"port" env:"PORT"`
	User     string `json:"user" env:"USER"`
	Password string `json:"password" env:"PASSWORD"`
	Database string `json:"database" env:"DATABASE"`
	SSLMode  string `json:"sslMode" env:"SSL_MODE"`
}

type HTTPConfig struct {
	Addr string `json:"addr" env:"ADDR"`
}

// ProfilerConfig enables continuous profiling when Address is set.
type ProfilerConfig struct {
	Address string `json:"address" env:"ADDRESS"`
	AppName string `json:"appName" env:"APP_NAME"`
}

// SimSeed is the master data and account state of the simulated venue.
type SimSeed struct {
	Contracts   []schema.VenueContract      `json:"contracts"`
	Extras      []schema.VenueContractExtra `json:"extras"`
	Commissions []schema.VenueCommission    `json:"commissions"`
	Positions   []schema.VenuePosition      `json:"positions"`
	Account     schema.VenueAccount         `json:"account"`
}

// Duration reads "1.5s" style values from JSON and the environment.
type Duration time.Duration

func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return errors.Wrapf(exception.ErrConfigInvalid, "duration %q", string(text))
	}
	*d = Duration(v)
	return nil
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(time.Duration(d).String()), nil
}

func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

// Default returns a configuration that runs the simulated venue locally.
func Default() File {
	return File{
		Config: Config{
			Venue: VenueConfig{
				Type:             string(venue.TypeSim),
				DialAttempts:     3,
				HandshakeTimeout: Duration(10 * time.Second),
			},
			Engine: EngineConfig{
				TickQueueSize:   1024,
				TickPollTimeout: Duration(3 * time.Second),
				Timezone:        "Asia/Shanghai",
			},
			HTTP: HTTPConfig{Addr: ":8080"},
			Profiler: ProfilerConfig{
				AppName: "venuebridge",
			},
		},
	}
}

// Load reads the JSON file at path (optional), applies BRIDGE_* environment
// overrides, including those from a .env file, and validates the result.
func Load(path string) (File, error) {
	_ = godotenv.Load()

	f := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return File{}, errors.Wrapf(err, "read config %s", path)
		}
		if err := sonic.ConfigStd.Unmarshal(data, &f); err != nil {
			return File{}, errors.Wrapf(exception.ErrConfigInvalid, "decode %s: %s", path, err.Error())
		}
	}

	if err := env.ParseWithOptions(&f.Config, env.Options{Prefix: EnvPrefix}); err != nil {
		return File{}, errors.Wrapf(exception.ErrConfigInvalid, "environment: %s", err.Error())
	}
	if err := f.Validate(); err != nil {
		return File{}, err
	}
	return f, nil
}

// Validate checks the configuration. An unsupported venue type is reported
// as ErrUnsupportedGateway.
func (c *Config) Validate() error {
	c.Venue.Type = strings.ToUpper(strings.TrimSpace(c.Venue.Type))
	switch venue.Type(c.Venue.Type) {
	case venue.TypeSim:
	case venue.TypeWebsocket:
		if c.Venue.URL == "" {
			return errors.Wrap(exception.ErrConfigInvalid, "venue.url is required for WS venue")
		}
	default:
		return errors.Wrapf(exception.ErrUnsupportedGateway, "venue.type: %q", c.Venue.Type)
	}

	if c.Engine.TickQueueSize < 0 {
		return errors.Wrapf(exception.ErrConfigInvalid, "engine.tickQueueSize: %d", c.Engine.TickQueueSize)
	}
	if c.Engine.TickPollTimeout < 0 {
		return errors.Wrapf(exception.ErrConfigInvalid, "engine.tickPollTimeout: %s", c.Engine.TickPollTimeout.Std())
	}
	if _, err := c.Engine.Location(); err != nil {
		return err
	}
	if _, err := c.Account.Start(time.UTC); err != nil {
		return err
	}
	if c.Account.CommissionMultiplier.IsNegative() {
		return errors.Wrapf(exception.ErrConfigInvalid, "account.commissionMultiplier: %s", c.Account.CommissionMultiplier)
	}

	switch strings.ToLower(c.Store.Driver) {
	case "", conn.DriverPostgres, conn.DriverSQLite:
	default:
		return errors.Wrapf(exception.ErrStoreDriver, "store.driver: %q", c.Store.Driver)
	}
	return nil
}

func (c EngineConfig) Location() (*time.Location, error) {
	if c.Timezone == "" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, errors.Wrapf(exception.ErrConfigInvalid, "engine.timezone %q: %s", c.Timezone, err.Error())
	}
	return loc, nil
}

// Engine converts the section into the engine configuration.
func (c EngineConfig) Engine() og.Config {
	loc, err := c.Location()
	if err != nil {
		loc = time.Local
	}
	return og.Config{
		TickQueueSize:   c.TickQueueSize,
		TickPollTimeout: c.TickPollTimeout.Std(),
		Location:        loc,
	}
}

// Start parses the account start date, defaulting to today.
func (c AccountConfig) Start(loc *time.Location) (time.Time, error) {
	if c.StartDate == "" {
		y, m, d := time.Now().In(loc).Date()
		return time.Date(y, m, d, 0, 0, 0, 0, loc), nil
	}
	t, err := time.ParseInLocation(time.DateOnly, c.StartDate, loc)
	if err != nil {
		return time.Time{}, errors.Wrapf(exception.ErrConfigInvalid, "account.startDate %q", c.StartDate)
	}
	return t, nil
}

// Enabled reports whether contracts are persisted.
func (c StoreConfig) Enabled() bool {
	return c.Driver != ""
}

func (c StoreConfig) Option() conn.Option {
	return conn.Option{
		Driver:     strings.ToLower(c.Driver),
		Host:       c.Host,
		Port:       c.Port,
		User:       c.User,
		Password:   c.Password,
		Database:   c.Database,
		SSLMode:    c.SSLMode,
		ConnString: c.DSN,
	}
}

// Gateway builds the venue gateway configuration.
func (f File) Gateway() venue.Config {
	return venue.Config{
		Type: venue.Type(f.Venue.Type),
		Sim: sim.Config{
			Session:      f.Venue.Session,
			Contracts:    f.Sim.Contracts,
			Extras:       f.Sim.Extras,
			Commissions:  f.Sim.Commissions,
			Positions:    f.Sim.Positions,
			Account:      f.Sim.Account,
			FillOnSubmit: f.Venue.FillOnSubmit,
		},
		Websocket: wsgw.Config{
			URL:              f.Venue.URL,
			Session:          f.Venue.Session,
			HandshakeTimeout: f.Venue.HandshakeTimeout.Std(),
			DialAttempts:     f.Venue.DialAttempts,
		},
	}
}
