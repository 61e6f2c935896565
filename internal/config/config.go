package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/banshee-data/dbscan/internal/dbscan"
)

// DefaultConfigPath is the path to the canonical defaults file.
const DefaultConfigPath = "config/dbscan.defaults.json"

// Config holds the defaults applied to clustering jobs and the addresses the
// server binds. Every field is optional; the Get* accessors supply the
// built-in default for unset fields so partial files are safe.
type Config struct {
	// Job defaults
	Epsilon   *float64 `json:"epsilon,omitempty"`
	MinPoints *int     `json:"min_points,omitempty"`
	Algorithm *string  `json:"algorithm,omitempty"` // "brute" or "kd_tree"
	Workers   *int     `json:"workers,omitempty"`
	Output    *string  `json:"output,omitempty"` // "flat" or "partitioned"

	// Request limits
	MaxRequestBytes *int64  `json:"max_request_bytes,omitempty"`
	RequestTimeout  *string `json:"request_timeout,omitempty"` // duration string like "30s"

	// Server
	ListenAddr *string `json:"listen_addr,omitempty"`
	GRPCAddr   *string `json:"grpc_addr,omitempty"`
	DBPath     *string `json:"db_path,omitempty"`

	// Rendering
	MaxPlotPoints *int `json:"max_plot_points,omitempty"`
}

// Helper functions to create pointers
func ptrFloat64(v float64) *float64 { return &v }
func ptrString(v string) *string    { return &v }
func ptrInt(v int) *int             { return &v }
func ptrInt64(v int64) *int64       { return &v }

// EmptyConfig returns a Config with all fields unset.
func EmptyConfig() *Config {
	return &Config{}
}

// DefaultConfig returns a Config with every field set to its built-in default.
func DefaultConfig() *Config {
	return EmptyConfig().Effective()
}

// Effective returns a copy of c with every unset field filled in, i.e. the
// values the Get* accessors report.
func (c *Config) Effective() *Config {
	return &Config{
		Epsilon:         ptrFloat64(c.GetEpsilon()),
		MinPoints:       ptrInt(c.GetMinPoints()),
		Algorithm:       ptrString(string(c.GetAlgorithm())),
		Workers:         ptrInt(c.GetWorkers()),
		Output:          ptrString(string(c.GetOutput())),
		MaxRequestBytes: ptrInt64(c.GetMaxRequestBytes()),
		RequestTimeout:  ptrString(c.GetRequestTimeout().String()),
		ListenAddr:      ptrString(c.GetListenAddr()),
		GRPCAddr:        ptrString(c.GetGRPCAddr()),
		DBPath:          ptrString(c.GetDBPath()),
		MaxPlotPoints:   ptrInt(c.GetMaxPlotPoints()),
	}
}

// LoadConfig loads a Config from a JSON file.
// The file must have a .json extension and be under 1MB.
func LoadConfig(path string) (*Config, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("config file must have .json extension, got %q", ext)
	}

	fileInfo, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	const maxFileSize = 1 * 1024 * 1024 // 1MB
	if fileInfo.Size() > maxFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", fileInfo.Size(), maxFileSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := EmptyConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// MustLoadDefaultConfig loads DefaultConfigPath, searching the current
// directory and its parents up to the repository root.
// Panics if the file cannot be loaded, intended for test setup.
func MustLoadDefaultConfig() *Config {
	candidates := []string{
		DefaultConfigPath,
		"../" + DefaultConfigPath,
		"../../" + DefaultConfigPath, // from internal/config/
		"../../../" + DefaultConfigPath,
	}
	for _, path := range candidates {
		if cfg, err := LoadConfig(path); err == nil {
			return cfg
		}
	}
	panic("cannot find " + DefaultConfigPath + " - run tests from repository root")
}

// Validate checks that the configured values are usable.
func (c *Config) Validate() error {
	if c.Epsilon != nil || c.MinPoints != nil {
		params := dbscan.Params{Epsilon: c.GetEpsilon(), MinPoints: c.GetMinPoints()}
		if err := params.Validate(); err != nil {
			return err
		}
	}

	if c.Algorithm != nil {
		if _, err := dbscan.ParseAlgorithm(*c.Algorithm); err != nil {
			return err
		}
	}

	if c.Output != nil {
		if _, err := dbscan.ParseShape(*c.Output); err != nil {
			return err
		}
	}

	if c.Workers != nil && *c.Workers < 1 {
		return fmt.Errorf("workers must be at least 1, got %d", *c.Workers)
	}

	if c.MaxRequestBytes != nil && *c.MaxRequestBytes <= 0 {
		return fmt.Errorf("max_request_bytes must be positive, got %d", *c.MaxRequestBytes)
	}

	if c.RequestTimeout != nil && *c.RequestTimeout != "" {
		d, err := time.ParseDuration(*c.RequestTimeout)
		if err != nil {
			return fmt.Errorf("invalid request_timeout '%s': %w", *c.RequestTimeout, err)
		}
		if d < 0 {
			return fmt.Errorf("request_timeout must not be negative, got %s", d)
		}
	}

	if c.MaxPlotPoints != nil && *c.MaxPlotPoints < 1 {
		return fmt.Errorf("max_plot_points must be at least 1, got %d", *c.MaxPlotPoints)
	}

	return nil
}

// GetEpsilon returns the default neighbourhood radius.
func (c *Config) GetEpsilon() float64 {
	if c.Epsilon == nil {
		return 0.5
	}
	return *c.Epsilon
}

// GetMinPoints returns the default core-point density threshold.
func (c *Config) GetMinPoints() int {
	if c.MinPoints == nil {
		return 5
	}
	return *c.MinPoints
}

// GetAlgorithm returns the default neighbour finder. An invalid value falls
// back to the KD-tree; Validate reports it.
func (c *Config) GetAlgorithm() dbscan.Algorithm {
	if c.Algorithm == nil {
		return dbscan.AlgorithmKDTree
	}
	algo, err := dbscan.ParseAlgorithm(*c.Algorithm)
	if err != nil {
		return dbscan.AlgorithmKDTree
	}
	return algo
}

// GetWorkers returns the KD-tree build parallelism.
func (c *Config) GetWorkers() int {
	if c.Workers == nil {
		return 1
	}
	return *c.Workers
}

// GetOutput returns the default output shape.
func (c *Config) GetOutput() dbscan.Shape {
	if c.Output == nil {
		return dbscan.ShapeFlat
	}
	shape, err := dbscan.ParseShape(*c.Output)
	if err != nil {
		return dbscan.ShapeFlat
	}
	return shape
}

// GetMaxRequestBytes returns the largest accepted job body.
func (c *Config) GetMaxRequestBytes() int64 {
	if c.MaxRequestBytes == nil {
		return 64 << 20 // 64MB
	}
	return *c.MaxRequestBytes
}

// GetRequestTimeout parses and returns RequestTimeout. Zero disables the
// deadline.
func (c *Config) GetRequestTimeout() time.Duration {
	if c.RequestTimeout == nil || *c.RequestTimeout == "" {
		return 60 * time.Second
	}
	d, err := time.ParseDuration(*c.RequestTimeout)
	if err != nil {
		return 60 * time.Second // default on parse error
	}
	return d
}

// GetListenAddr returns the HTTP listen address.
func (c *Config) GetListenAddr() string {
	if c.ListenAddr == nil {
		return "localhost:8080"
	}
	return *c.ListenAddr
}

// GetGRPCAddr returns the gRPC listen address. Empty disables gRPC.
func (c *Config) GetGRPCAddr() string {
	if c.GRPCAddr == nil {
		return "localhost:50051"
	}
	return *c.GRPCAddr
}

// GetDBPath returns the run database path. Empty disables run recording.
func (c *Config) GetDBPath() string {
	if c.DBPath == nil {
		return ""
	}
	return *c.DBPath
}

// GetMaxPlotPoints returns the cap on points drawn by chart renderers.
func (c *Config) GetMaxPlotPoints() int {
	if c.MaxPlotPoints == nil {
		return 20000
	}
	return *c.MaxPlotPoints
}
