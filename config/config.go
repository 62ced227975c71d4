// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package config loads the yaml configuration of a document state node.
package config

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/vechain/docstate/document"
	"github.com/vechain/docstate/executor"
	"github.com/vechain/docstate/fees"
	"github.com/vechain/docstate/log"
	"github.com/vechain/docstate/metrics"
	"github.com/vechain/docstate/muxdb"
	"github.com/vechain/docstate/thor"
)

// Config is the node configuration.
type Config struct {
	DataDir                  string  `yaml:"dataDir"`
	Storage                  Storage `yaml:"storage"`
	Log                      Log     `yaml:"log"`
	Metrics                  Metrics `yaml:"metrics"`
	Fees                     Fees    `yaml:"fees"`
	Epoch                    Epoch   `yaml:"epoch"`
	ContractCacheSize        int     `yaml:"contractCacheSize"`
	DocumentStructureVersion uint32  `yaml:"documentStructureVersion"`
}

// Storage tunes the leveldb engine.
type Storage struct {
	CacheMB                int `yaml:"cacheMB"`
	OpenFilesCacheCapacity int `yaml:"openFilesCacheCapacity"`
	ReadCacheMB            int `yaml:"readCacheMB"`
	WriteBufferMB          int `yaml:"writeBufferMB"`
}

type Log struct {
	Level string `yaml:"level"`
	Color bool   `yaml:"color"`
}

type Metrics struct {
	Enabled bool `yaml:"enabled"`
}

// Fees holds the prices and the fee distribution parameters.
type Fees struct {
	StoragePricePerByte          uint64 `yaml:"storagePricePerByte"`
	ProcessingPricePerOp         uint64 `yaml:"processingPricePerOp"`
	ProcessingPricePerByte       uint64 `yaml:"processingPricePerByte"`
	DefaultFeeMultiplierPermille uint64 `yaml:"defaultFeeMultiplierPermille"`
	ProposerPayoutsPerBlock      int    `yaml:"proposerPayoutsPerBlock"`
	VerifySumTrees               bool   `yaml:"verifySumTrees"`
}

type Epoch struct {
	GenesisTimeMs uint64 `yaml:"genesisTimeMs"`
	DurationMs    uint64 `yaml:"durationMs"`
}

// Default returns the configuration used for missing keys.
func Default() *Config {
	return &Config{
		DataDir: "data",
		Storage: Storage{
			CacheMB:                256,
			OpenFilesCacheCapacity: 5000,
			ReadCacheMB:            64,
			WriteBufferMB:          64,
		},
		Log: Log{Level: "info"},
		Fees: Fees{
			StoragePricePerByte:          27000,
			ProcessingPricePerOp:         12000,
			ProcessingPricePerByte:       12,
			DefaultFeeMultiplierPermille: thor.DefaultFeeMultiplierPermille,
			ProposerPayoutsPerBlock:      50,
		},
		Epoch:             Epoch{DurationMs: thor.DefaultEpochDurationMs},
		ContractCacheSize: 500,
	}
}

// Load reads the configuration file at path over the defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "read config")
	}
	cfg, err := Parse(data)
	if err != nil {
		return nil, errors.Wrapf(err, "config %s", path)
	}
	if cfg.DataDir != "" && !filepath.IsAbs(cfg.DataDir) {
		cfg.DataDir = filepath.Join(filepath.Dir(path), cfg.DataDir)
	}
	return cfg, nil
}

// Parse decodes yaml over the defaults and validates the result.
func Parse(data []byte) (*Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, errors.Wrap(err, "decode yaml")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the values a node can not start with.
func (c *Config) Validate() error {
	if c.DataDir == "" {
		return errors.New("dataDir is required")
	}
	if _, err := log.ParseLevel(c.Log.Level); err != nil {
		return err
	}
	if c.Epoch.DurationMs == 0 {
		return errors.New("epoch.durationMs must be positive")
	}
	if c.Fees.DefaultFeeMultiplierPermille == 0 {
		return errors.New("fees.defaultFeeMultiplierPermille must be positive")
	}
	if c.Fees.ProposerPayoutsPerBlock <= 0 {
		return errors.New("fees.proposerPayoutsPerBlock must be positive")
	}
	if c.ContractCacheSize < 0 {
		return errors.New("contractCacheSize must not be negative")
	}
	if _, err := document.NewFactory(c.DocumentStructureVersion); err != nil {
		return err
	}
	return nil
}

// MuxDBOptions returns the options to open the database with.
func (c *Config) MuxDBOptions() *muxdb.Options {
	return &muxdb.Options{
		ReadCacheMB:            c.Storage.ReadCacheMB,
		OpenFilesCacheCapacity: c.Storage.OpenFilesCacheCapacity,
		BlockCacheMB:           c.Storage.CacheMB,
		WriteBufferMB:          c.Storage.WriteBufferMB,
	}
}

// DatabasePath is where the database lives under the data dir.
func (c *Config) DatabasePath() string {
	return filepath.Join(c.DataDir, "main.db")
}

// ExecutorOptions returns the block executor options.
func (c *Config) ExecutorOptions() executor.Options {
	return executor.Options{
		StructureVersion:  c.DocumentStructureVersion,
		ContractCacheSize: c.ContractCacheSize,
		GenesisTimeMs:     c.Epoch.GenesisTimeMs,
		EpochDurationMs:   c.Epoch.DurationMs,
		Fees: fees.Params{
			FeeMultiplierPermille:   c.Fees.DefaultFeeMultiplierPermille,
			ProposerPayoutsPerBlock: c.Fees.ProposerPayoutsPerBlock,
			VerifySumTrees:          c.Fees.VerifySumTrees,
		},
		Calculator: &fees.LinearCalculator{
			StoragePricePerByte:    c.Fees.StoragePricePerByte,
			ProcessingPricePerOp:   c.Fees.ProcessingPricePerOp,
			ProcessingPricePerByte: c.Fees.ProcessingPricePerByte,
		},
	}
}

// LogHandler returns the terminal handler writing to w at the configured level.
func (c *Config) LogHandler(w io.Writer) (slog.Handler, error) {
	level, err := log.ParseLevel(c.Log.Level)
	if err != nil {
		return nil, err
	}
	return log.NewTerminalHandler(w, level, c.Log.Color), nil
}

// Setup installs the configured log handler writing to w and switches metrics to
// prometheus when enabled.
func (c *Config) Setup(w io.Writer) error {
	h, err := c.LogHandler(w)
	if err != nil {
		return err
	}
	log.SetDefault(h)
	if c.Metrics.Enabled {
		metrics.InitializePrometheusMetrics()
	}
	return nil
}
