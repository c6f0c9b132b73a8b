// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// CostModel selects how node costs are computed.
type CostModel string

const (
	// CostIntrinsic uses each node's own cost field.
	CostIntrinsic CostModel = "intrinsic"

	// CostUnit charges 1 per node, so the DAG cost is the selection size.
	CostUnit CostModel = "unit"

	// CostOp looks the node's op up in ExtractConfig.OpCosts.
	CostOp CostModel = "op"
)

// VisitOrder selects the node visitation order within a fixpoint round.
type VisitOrder string

const (
	// OrderSorted visits nodes in ascending node id order.
	OrderSorted VisitOrder = "sorted"

	// OrderInput visits nodes in the order they appear in the source document.
	OrderInput VisitOrder = "input"
)

// HTTPConfig holds settings for fetching graphs over HTTP.
type HTTPConfig struct {
	// Timeout is the HTTP request timeout.
	Timeout time.Duration `json:"timeout" yaml:"timeout" mapstructure:"timeout"`

	// UserAgent is the User-Agent header sent with HTTP requests
	// (e.g. "egraph-extract/0.1").
	UserAgent string `json:"user_agent" yaml:"user_agent" mapstructure:"user_agent"`

	// MaxRetries is the number of retries on HTTP 429 (default 5).
	MaxRetries int `json:"max_retries" yaml:"max_retries" mapstructure:"max_retries"`

	// Token, if set, is sent as a bearer token. It is never serialized;
	// the CLI reads it from the environment or the secrets directory.
	Token string `json:"-" yaml:"-" mapstructure:"token"`
}

// ExtractConfig holds settings for the extraction engine.
type ExtractConfig struct {
	// CostModel selects intrinsic, unit, or op costs (default intrinsic).
	CostModel CostModel `json:"cost_model" yaml:"cost_model" mapstructure:"cost_model"`

	// OpCosts maps op names to costs for the op cost model.
	OpCosts map[string]float64 `json:"op_costs,omitempty" yaml:"op_costs,omitempty" mapstructure:"op_costs"`

	// DefaultOpCost is charged for ops missing from OpCosts (default 1).
	DefaultOpCost float64 `json:"default_op_cost" yaml:"default_op_cost" mapstructure:"default_op_cost"`

	// Order selects the node visitation order (default sorted).
	Order VisitOrder `json:"order" yaml:"order" mapstructure:"order"`

	// MaxRounds caps fixpoint rounds. Zero disables the cap.
	MaxRounds int `json:"max_rounds" yaml:"max_rounds" mapstructure:"max_rounds"`

	// UnextractableOps lists ops whose nodes may never be chosen.
	UnextractableOps []string `json:"unextractable_ops,omitempty" yaml:"unextractable_ops,omitempty" mapstructure:"unextractable_ops"`

	// UnextractableClasses lists classes that may never be chosen.
	UnextractableClasses []string `json:"unextractable_classes,omitempty" yaml:"unextractable_classes,omitempty" mapstructure:"unextractable_classes"`
}

// StoreConfig holds settings for the run store.
type StoreConfig struct {
	// DataDir is the directory holding extract.db and exports.
	DataDir string `json:"data_dir" yaml:"data_dir" mapstructure:"data_dir"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	// Level is one of debug, info, warn, error.
	Level string `json:"level" yaml:"level" mapstructure:"level"`

	// Format is text or json.
	Format string `json:"format" yaml:"format" mapstructure:"format"`
}

// BatchConfig holds settings for multi-graph runs.
type BatchConfig struct {
	// Parallel is the number of graphs extracted concurrently (default 1).
	Parallel int `json:"parallel" yaml:"parallel" mapstructure:"parallel"`
}

// Config groups all settings read from egraph-extract.yaml.
type Config struct {
	Extract ExtractConfig `json:"extract" yaml:"extract" mapstructure:"extract"`
	Store   StoreConfig   `json:"store" yaml:"store" mapstructure:"store"`
	Fetch   HTTPConfig    `json:"fetch" yaml:"fetch" mapstructure:"fetch"`
	Log     LogConfig     `json:"log" yaml:"log" mapstructure:"log"`
	Batch   BatchConfig   `json:"batch" yaml:"batch" mapstructure:"batch"`
}
