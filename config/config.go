// Copyright 2025 R5 Labs
// This file is part of the R5 Core library.
//
// This software is provided "as is", without warranty of any kind,
// express or implied, including but not limited to the warranties
// of merchantability, fitness for a particular purpose and
// noninfringement. In no event shall the authors or copyright
// holders be liable for any claim, damages, or other liability,
// whether in an action of contract, tort or otherwise, arising
// from, out of or in connection with the software or the use or
// other dealings in the software.

// Package config loads the process-wide runtime tunables from a TOML
// document, the same way the rest of this codebase's family of
// command-line daemons load their configuration.
package config

import (
	"os"
	"reflect"

	"github.com/naoina/toml"

	"github.com/r5-labs/flexledger/bandit"
	"github.com/r5-labs/flexledger/forecast"
	"github.com/r5-labs/flexledger/query"
)

var tomlSettings = toml.Config{
	NormFieldName: func(rt reflect.Type, key string) string { return key },
	FieldToKey:    func(rt reflect.Type, field string) string { return field },
	MissingField: func(rt reflect.Type, field string) error {
		return nil
	},
}

// Ledger holds the ledger engine's persisted-parameter defaults, used
// to seed storage.Parameter on first run.
type Ledger struct {
	ErrorBounds          float64  `toml:"error_bounds"`
	EnableInterIndex     bool     `toml:"inter_index"`
	EnableIntraIndex     bool     `toml:"intra_index"`
	StartBlockID         uint64   `toml:"start_block_id"`
	BlockCount           uint64   `toml:"block_count"`
	InterIndexTimestamps []uint64 `toml:"inter_index_timestamps"`
}

// Bandit holds the contextual-bandit index selector's tunables.
type Bandit struct {
	Temperature float64 `toml:"temperature"`
	BudgetBytes float64 `toml:"budget_bytes"`
}

// Forecast holds the Holt linear smoothing factors.
type Forecast struct {
	Alpha float64 `toml:"alpha"`
	Beta  float64 `toml:"beta"`
}

// Query holds the query executor's reconciliation threshold.
type Query struct {
	Threshold uint64 `toml:"threshold"`
}

// Config is the top-level document loaded from a TOML file.
type Config struct {
	Ledger   Ledger
	Bandit   Bandit
	Forecast Forecast
	Query    Query
}

// Default returns a Config populated with every constant this module
// must reproduce bit-exactly.
func Default() Config {
	return Config{
		Bandit: Bandit{
			Temperature: bandit.DefaultTemperature,
			BudgetBytes: bandit.DefaultBudgetBytes,
		},
		Forecast: Forecast{
			Alpha: forecast.DefaultAlpha,
			Beta:  forecast.DefaultBeta,
		},
		Query: Query{
			Threshold: query.DefaultQueryThreshold,
		},
	}
}

// LoadFile reads and decodes a TOML document at path, starting from
// Default() so any field the file omits keeps its default.
func LoadFile(path string) (Config, error) {
	cfg := Default()
	f, err := os.Open(path)
	if err != nil {
		return cfg, err
	}
	defer f.Close()

	if err := tomlSettings.NewDecoder(f).Decode(&cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}
