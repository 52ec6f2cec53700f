package db

import (
	"context"
	"database/sql"
	"strconv"
	"sync"
	"time"

	"github.com/gear6io/airbus/config"
	"github.com/gear6io/airbus/db/driver"
	"github.com/gear6io/airbus/pkg/errors"
	"github.com/rs/zerolog"
)

// RetryPolicy bounds connection establishment. It is fixed when the connector is built.
type RetryPolicy struct {
	MaxAttempts int
	Interval    time.Duration
}

// DefaultRetryPolicy is five attempts a minute apart
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts: config.DefaultMaxAttempts,
		Interval:    config.DefaultRetryInterval,
	}
}

// RetryPolicyFromConfig reads the retry section, falling back to the defaults for unset fields
func RetryPolicyFromConfig(cfg config.RetryConfig) RetryPolicy {
	p := DefaultRetryPolicy()
	if cfg.MaxAttempts > 0 {
		p.MaxAttempts = cfg.MaxAttempts
	}
	if cfg.Interval > 0 {
		p.Interval = cfg.Interval
	}
	return p
}

// Opener opens a live connection to a single candidate host
type Opener interface {
	Open(ctx context.Context, host string) (*sql.DB, error)
}

// sqlOpener opens hosts through a registered database/sql driver and pings them
type sqlOpener struct {
	sqlDriver string
	dsns      map[string]string
}

// NewSQLOpener builds the DSN of every candidate up front so bad settings fail before any attempt
func NewSQLOpener(cfg config.DatabaseConfig) (Opener, error) {
	drv, err := driver.Lookup(cfg.Driver)
	if err != nil {
		return nil, errors.New(ErrConfigInvalid, "unsupported database driver", err).AddContext("driver", cfg.Driver)
	}

	o := &sqlOpener{sqlDriver: drv.SQLDriver(), dsns: make(map[string]string)}
	for _, host := range candidates(cfg.Host) {
		dsn, err := drv.DSN(driver.Params{
			Host:          host,
			Port:          cfg.Port,
			User:          cfg.User,
			Password:      cfg.Password,
			AuthMechanism: cfg.AuthMechanism,
			Database:      cfg.Database,
		})
		if err != nil {
			return nil, errors.New(ErrConfigInvalid, "invalid connection settings", err).
				AddContext("driver", cfg.Driver).
				AddContext("host", host)
		}
		o.dsns[host] = dsn
	}
	return o, nil
}

func (o *sqlOpener) Open(ctx context.Context, host string) (*sql.DB, error) {
	dsn, ok := o.dsns[host]
	if !ok {
		return nil, errors.Newf(ErrConfigInvalid, "host %q is not a configured candidate", host)
	}

	conn, err := sql.Open(o.sqlDriver, dsn)
	if err != nil {
		return nil, err
	}
	// One session per runner, as with a single engine cursor
	conn.SetMaxOpenConns(1)

	if err := conn.PingContext(ctx); err != nil {
		conn.Close()
		return nil, err
	}
	return conn, nil
}

// candidates returns the ordered hosts to try; embedded engines take a single empty host
func candidates(hosts config.Hosts) []string {
	if len(hosts) == 0 {
		return []string{""}
	}
	return hosts
}

// Handle is an open connection owned by one runner. Close releases it exactly once.
type Handle struct {
	db       *sql.DB
	host     string
	once     sync.Once
	closed   bool
	closeErr error
	logger   zerolog.Logger
}

// DB returns the underlying pool
func (h *Handle) DB() *sql.DB {
	return h.db
}

// Host returns the candidate that accepted the connection
func (h *Handle) Host() string {
	return h.host
}

// Closed reports whether Close has run
func (h *Handle) Closed() bool {
	return h.closed
}

// Close closes the connection; later calls return the first result
func (h *Handle) Close() error {
	h.once.Do(func() {
		h.closeErr = h.db.Close()
		h.closed = true
		h.logger.Info().Str("host", h.host).Msg("Connection has been closed")
	})
	return h.closeErr
}

// Connector establishes connections with bounded retry over ordered candidate hosts
type Connector struct {
	cfg    config.DatabaseConfig
	policy RetryPolicy
	opener Opener
	sleep  func(ctx context.Context, d time.Duration) error
	logger zerolog.Logger
}

// NewConnector validates cfg and binds the retry policy. A nil opener uses the configured driver.
func NewConnector(cfg config.DatabaseConfig, policy RetryPolicy, opener Opener, logger zerolog.Logger) (*Connector, error) {
	if err := cfg.Validate(); err != nil {
		return nil, errors.New(ErrConfigInvalid, "invalid database configuration", err)
	}
	if policy.MaxAttempts < 1 {
		return nil, errors.Newf(ErrConfigInvalid, "retry policy needs at least one attempt, got %d", policy.MaxAttempts)
	}
	if policy.Interval < 0 {
		return nil, errors.New(ErrConfigInvalid, "retry interval cannot be negative", nil)
	}

	if opener == nil {
		var err error
		if opener, err = NewSQLOpener(cfg); err != nil {
			return nil, err
		}
	}

	return &Connector{
		cfg:    cfg,
		policy: policy,
		opener: opener,
		sleep:  sleepContext,
		logger: logger,
	}, nil
}

// Connect tries each candidate in order, first success wins. When every candidate
// fails the whole pass is retried after the policy interval, up to MaxAttempts passes.
func (c *Connector) Connect(ctx context.Context) (*Handle, error) {
	hosts := candidates(c.cfg.Host)

	var lastErr error
	for attempt := 1; attempt <= c.policy.MaxAttempts; attempt++ {
		for _, host := range hosts {
			conn, err := c.opener.Open(ctx, host)
			if err == nil {
				c.logger.Info().
					Str("host", host).
					Int("attempt", attempt).
					Msg("Connected to database")
				return &Handle{db: conn, host: host, logger: c.logger}, nil
			}
			if errors.HasCode(err, ErrConfigInvalid) {
				return nil, err
			}

			lastErr = err
			c.logger.Warn().
				Err(err).
				Str("host", host).
				Int("attempt", attempt).
				Msg("Candidate host failed")
		}

		if attempt == c.policy.MaxAttempts {
			break
		}

		c.logger.Warn().
			Int("attempt", attempt).
			Int("max_attempts", c.policy.MaxAttempts).
			Dur("interval", c.policy.Interval).
			Msg("All candidate hosts failed, retrying")

		if err := c.sleep(ctx, c.policy.Interval); err != nil {
			return nil, errors.New(ErrConnectionFailed, "connection retry interrupted", err).
				AddContext("attempt", strconv.Itoa(attempt))
		}
	}

	return nil, errors.New(ErrConnectionFailed, "can not connect to database with the given configuration", lastErr).
		AddContext("hosts", c.cfg.Host.String()).
		AddContext("attempts", strconv.Itoa(c.policy.MaxAttempts))
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
