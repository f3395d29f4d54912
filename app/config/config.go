package config

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"path/filepath"
	"time"

	"github.com/mandelsoft/vfs/pkg/vfs"

	stypes "go.hackfix.me/waypoint/web/server/types"
	"go.hackfix.me/waypoint/xtime"
)

// Config represents the application configuration, backed by a filesystem for
// persistence.
type Config struct {
	Server   Server
	Database Database

	fs   vfs.FileSystem
	path string
}

// NewConfig creates a new Config instance with the specified filesystem
// and configuration file path.
func NewConfig(fs vfs.FileSystem, path string) *Config {
	return &Config{fs: fs, path: path}
}

// Load reads and parses the configuration file from the filesystem.
// If the file doesn't exist, it initializes with an empty configuration.
func (c *Config) Load() error {
	configJSON, err := vfs.ReadFile(c.fs, c.path)
	if err != nil && !vfs.IsErrNotExist(err) {
		return fmt.Errorf("failed reading configuration file: %w", err)
	}

	// Ensure that unmarshalling JSON doesn't fail if the file doesn't exist or is empty.
	if len(configJSON) == 0 {
		configJSON = []byte("{}")
	}

	if err = json.Unmarshal(configJSON, c); err != nil {
		return fmt.Errorf("failed parsing configuration file: %w", err)
	}

	return nil
}

// Path returns the filesystem path where the configuration is stored.
func (c *Config) Path() string {
	return c.path
}

// Save writes the current configuration to the filesystem as JSON.
func (c *Config) Save() error {
	if err := c.fs.MkdirAll(filepath.Dir(c.path), 0o755); err != nil {
		return fmt.Errorf("failed creating configuration directory: %w", err)
	}
	configJSON, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("failed serializing configuration data: %w", err)
	}
	if err = vfs.WriteFile(c.fs, c.path, configJSON, 0o644); err != nil {
		return fmt.Errorf("failed writing configuration file: %w", err)
	}

	return nil
}

// Server defines configuration options specific to the HTTP server.
type Server struct {
	// Address is the network address in [host]:port format the server will listen on.
	Address sql.Null[string] `json:"address"`
	// TLSCertFile and TLSKeyFile are paths to a PEM encoded certificate and
	// private key. TLS is enabled only if both are set.
	TLSCertFile sql.Null[string] `json:"tls_cert_file"`
	TLSKeyFile  sql.Null[string] `json:"tls_key_file"`
	// MaxBodySize is the largest request body accepted, in bytes.
	MaxBodySize sql.Null[int64] `json:"max_body_size"`
	// ErrorLevel is the amount of detail of failure messages sent to clients.
	ErrorLevel sql.Null[stypes.ErrorLevel] `json:"error_level"`
	// Timeouts serialize from/to time.Duration strings, e.g. "30s".
	ReadHeaderTimeout sql.Null[time.Duration] `json:"read_header_timeout"`
	ReadTimeout       sql.Null[time.Duration] `json:"read_timeout"`
	WriteTimeout      sql.Null[time.Duration] `json:"write_timeout"`
	ShutdownTimeout   sql.Null[time.Duration] `json:"shutdown_timeout"`
}

// Database defines configuration options of the storage.
type Database struct {
	// Path is the SQLite database file path.
	Path sql.Null[string] `json:"path"`
}

type cfgWrapper struct {
	Server   srvCfgWrapper `json:"server"`
	Database dbCfgWrapper  `json:"database"`
}
type srvCfgWrapper struct {
	Address           string `json:"address,omitempty"`
	TLSCertFile       string `json:"tls_cert_file,omitempty"`
	TLSKeyFile        string `json:"tls_key_file,omitempty"`
	MaxBodySize       int64  `json:"max_body_size,omitempty"`
	ErrorLevel        string `json:"error_level,omitempty"`
	ReadHeaderTimeout string `json:"read_header_timeout,omitempty"`
	ReadTimeout       string `json:"read_timeout,omitempty"`
	WriteTimeout      string `json:"write_timeout,omitempty"`
	ShutdownTimeout   string `json:"shutdown_timeout,omitempty"`
}
type dbCfgWrapper struct {
	Path string `json:"path,omitempty"`
}

// MarshalJSON implements custom JSON marshaling to convert sql.Null values
// to their underlying types, omitting invalid/null fields from the output.
func (c Config) MarshalJSON() ([]byte, error) {
	w := cfgWrapper{}

	s := c.Server
	w.Server.Address = s.Address.V
	w.Server.TLSCertFile = s.TLSCertFile.V
	w.Server.TLSKeyFile = s.TLSKeyFile.V
	w.Server.MaxBodySize = s.MaxBodySize.V
	w.Server.ErrorLevel = string(s.ErrorLevel.V)
	w.Server.ReadHeaderTimeout = formatDuration(s.ReadHeaderTimeout)
	w.Server.ReadTimeout = formatDuration(s.ReadTimeout)
	w.Server.WriteTimeout = formatDuration(s.WriteTimeout)
	w.Server.ShutdownTimeout = formatDuration(s.ShutdownTimeout)

	w.Database.Path = c.Database.Path.V

	//nolint:wrapcheck // This is fine.
	return json.Marshal(w)
}

// UnmarshalJSON implements custom JSON unmarshaling to convert plain values
// into sql.Null types and parse duration strings into time.Duration values.
func (c *Config) UnmarshalJSON(data []byte) error {
	var w cfgWrapper
	if err := json.Unmarshal(data, &w); err != nil {
		//nolint:wrapcheck // This is fine.
		return err
	}

	ws := w.Server
	setString(&c.Server.Address, ws.Address)
	setString(&c.Server.TLSCertFile, ws.TLSCertFile)
	setString(&c.Server.TLSKeyFile, ws.TLSKeyFile)
	setString(&c.Database.Path, w.Database.Path)

	if ws.MaxBodySize < 0 {
		return fmt.Errorf("invalid max body size: %d", ws.MaxBodySize)
	}
	if ws.MaxBodySize > 0 {
		c.Server.MaxBodySize = sql.Null[int64]{V: ws.MaxBodySize, Valid: true}
	}

	if ws.ErrorLevel != "" {
		lvl, err := stypes.ErrorLevelFromString(ws.ErrorLevel)
		if err != nil {
			return err
		}
		c.Server.ErrorLevel = sql.Null[stypes.ErrorLevel]{V: lvl, Valid: true}
	}

	durations := []struct {
		name string
		in   string
		out  *sql.Null[time.Duration]
	}{
		{"read header timeout", ws.ReadHeaderTimeout, &c.Server.ReadHeaderTimeout},
		{"read timeout", ws.ReadTimeout, &c.Server.ReadTimeout},
		{"write timeout", ws.WriteTimeout, &c.Server.WriteTimeout},
		{"shutdown timeout", ws.ShutdownTimeout, &c.Server.ShutdownTimeout},
	}
	for _, d := range durations {
		if d.in == "" {
			continue
		}
		dur, err := xtime.ParseDuration(d.in)
		if err != nil {
			return fmt.Errorf("failed parsing %s: %w", d.name, err)
		}
		*d.out = sql.Null[time.Duration]{V: dur, Valid: true}
	}

	return nil
}

// SetDefaults sets default configuration values if they weren't set already.
func (c *Config) SetDefaults() {
	setDefault(&c.Server.Address, ":8080")
	setDefault(&c.Server.MaxBodySize, 10<<20)
	setDefault(&c.Server.ErrorLevel, stypes.ErrorLevelFull)
	setDefault(&c.Server.ReadHeaderTimeout, 10*time.Second)
	setDefault(&c.Server.ReadTimeout, 30*time.Second)
	setDefault(&c.Server.WriteTimeout, time.Minute)
	setDefault(&c.Server.ShutdownTimeout, 10*time.Second)
}

func setDefault[T any](field *sql.Null[T], v T) {
	if !field.Valid {
		*field = sql.Null[T]{V: v, Valid: true}
	}
}

func setString(field *sql.Null[string], v string) {
	if v != "" {
		*field = sql.Null[string]{V: v, Valid: true}
	}
}

func formatDuration(d sql.Null[time.Duration]) string {
	if !d.Valid {
		return ""
	}
	return xtime.FormatDuration(d.V, time.Millisecond)
}
