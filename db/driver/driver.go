// Package driver maps engine names to database/sql drivers and builds their DSNs.
package driver

import (
	"net"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/go-faster/errors"

	_ "github.com/bippio/go-impala"
	_ "github.com/jackc/pgx/v5/stdlib"
	_ "github.com/marcboeker/go-duckdb/v2"
	_ "github.com/mattn/go-sqlite3"
)

var (
	ErrUnknownDriver    = errors.New("driver: unknown engine")
	ErrEmptyHost        = errors.New("driver: empty host")
	ErrInvalidAuth      = errors.New("driver: unsupported auth mechanism")
	ErrDuplicateDriver  = errors.New("driver: engine already registered")
	ErrInvalidEngineArg = errors.New("driver: invalid engine argument")
)

// Params are the connection settings common to every engine
type Params struct {
	Host          string
	Port          int
	User          string
	Password      string
	AuthMechanism string
	Database      string
}

// Driver knows how to reach one engine through database/sql
type Driver interface {
	// Name is the engine name used in configuration
	Name() string
	// SQLDriver is the name the driver registers with database/sql
	SQLDriver() string
	// DSN builds the data source name for a single host
	DSN(p Params) (string, error)
}

var (
	mu       sync.RWMutex
	registry = map[string]Driver{}
)

func init() {
	MustRegister(impalaDriver{})
	MustRegister(duckdbDriver{})
	MustRegister(postgresDriver{})
	MustRegister(sqliteDriver{})
}

// Register adds d under its engine name
func Register(d Driver) error {
	mu.Lock()
	defer mu.Unlock()

	name := strings.ToLower(d.Name())
	if _, ok := registry[name]; ok {
		return errors.Wrapf(ErrDuplicateDriver, "register %q", name)
	}
	registry[name] = d
	return nil
}

// MustRegister is like Register but panics on error
func MustRegister(d Driver) {
	if err := Register(d); err != nil {
		panic(err)
	}
}

// Lookup returns the driver for an engine name, case-insensitively
func Lookup(name string) (Driver, error) {
	mu.RLock()
	defer mu.RUnlock()

	d, ok := registry[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return nil, errors.Wrapf(ErrUnknownDriver, "lookup %q", name)
	}
	return d, nil
}

// Names lists the registered engines in sorted order
func Names() []string {
	mu.RLock()
	defer mu.RUnlock()

	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// hostPort joins host and port, keeping a port already present in host
func hostPort(host string, port int) (string, error) {
	host = strings.TrimSpace(host)
	if host == "" {
		return "", ErrEmptyHost
	}
	if _, _, err := net.SplitHostPort(host); err == nil {
		return host, nil
	}
	if port <= 0 {
		return host, nil
	}
	return net.JoinHostPort(host, strconv.Itoa(port)), nil
}

func userInfo(p Params) *url.Userinfo {
	switch {
	case p.User == "":
		return nil
	case p.Password == "":
		return url.User(p.User)
	default:
		return url.UserPassword(p.User, p.Password)
	}
}
