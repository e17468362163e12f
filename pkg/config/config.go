package config

import "fmt"

// Config is the top-level MIMDB configuration.
type Config struct {
	// Server controls the REST facade.
	Server ServerConfig `yaml:"server" json:"server"`
	// Storage controls where tables and metastore state live on disk.
	Storage StorageConfig `yaml:"storage" json:"storage"`
	// Codec controls default batch and compression settings for newly
	// written files.
	Codec CodecConfig `yaml:"codec" json:"codec"`
	// LogLevel sets logging verbosity (debug, info, warn, error).
	LogLevel string `yaml:"log_level" json:"log_level"`
}

// ServerConfig configures the REST facade's HTTP listener.
type ServerConfig struct {
	// Address is the address the REST facade listens on, e.g. ":8080".
	Address string `yaml:"address" json:"address"`
}

// StorageConfig configures where on-disk state lives.
type StorageConfig struct {
	// DataDir holds written .mimdb table files.
	DataDir string `yaml:"data_dir" json:"data_dir"`
	// MetastorePath is the path to the metastore's JSON registry file.
	MetastorePath string `yaml:"metastore_path" json:"metastore_path"`
}

// CodecConfig configures default batch and compression behavior.
type CodecConfig struct {
	// RowsPerBatch is the default number of rows per codec batch.
	// A non-positive value falls back to DefaultRowsPerBatch (see
	// NormalizedRowsPerBatch); there is no maximum.
	RowsPerBatch int `yaml:"rows_per_batch" json:"rows_per_batch"`
	// ZstdLevel is the ZSTD compression level used for Int64 columns.
	ZstdLevel int `yaml:"zstd_level" json:"zstd_level"`
}

// DefaultRowsPerBatch is used when CodecConfig.RowsPerBatch is unset or
// non-positive.
const DefaultRowsPerBatch = 100_000

// DefaultZstdLevel is the ZSTD level New sets in CodecConfig.ZstdLevel.
// A configured non-positive level is passed through unchanged.
const DefaultZstdLevel = 3

// New returns a Config populated with MIMDB's defaults.
func New() *Config {
	return &Config{
		Server: ServerConfig{
			Address: ":8080",
		},
		Storage: StorageConfig{
			DataDir:       "./data",
			MetastorePath: "./data/metastore.json",
		},
		Codec: CodecConfig{
			RowsPerBatch: DefaultRowsPerBatch,
			ZstdLevel:    DefaultZstdLevel,
		},
		LogLevel: "info",
	}
}

// Validate checks the configuration for obviously invalid values.
func (c *Config) Validate() error {
	if c.Server.Address == "" {
		return fmt.Errorf("server.address is required")
	}
	if c.Storage.DataDir == "" {
		return fmt.Errorf("storage.data_dir is required")
	}
	if c.Storage.MetastorePath == "" {
		return fmt.Errorf("storage.metastore_path is required")
	}
	return nil
}

// NormalizedRowsPerBatch returns RowsPerBatch, or DefaultRowsPerBatch when
// the configured value is non-positive.
func (c *CodecConfig) NormalizedRowsPerBatch() int {
	if c.RowsPerBatch <= 0 {
		return DefaultRowsPerBatch
	}
	return c.RowsPerBatch
}
