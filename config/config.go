// Copyright 2024 teasel Project Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package config

import (
	"github.com/BurntSushi/toml"
	"github.com/juju/errors"
	"github.com/teasel-io/teasel/model"
)

// Config is the configuration for the evaluation workflow.
type Config struct {
	Data     DataConfig     `toml:"data"`
	Evaluate EvaluateConfig `toml:"evaluate"`
	Tune     TuneConfig     `toml:"tune"`
	Params   ParamsConfig   `toml:"params"`
}

func (config *Config) LoadDefaultIfNil() *Config {
	if config == nil {
		return &Config{
			Data:     *(*DataConfig)(nil).LoadDefaultIfNil(),
			Evaluate: *(*EvaluateConfig)(nil).LoadDefaultIfNil(),
			Tune:     *(*TuneConfig)(nil).LoadDefaultIfNil(),
		}
	}
	return config
}

// DataConfig is the configuration for dataset loading and splitting.
type DataConfig struct {
	BuiltIn     string         `toml:"built_in"`     // name of built-in dataset
	Path        string         `toml:"path"`         // path of CSV dataset
	HasHeader   bool           `toml:"has_header"`   // CSV file with header
	LabelColumn int            `toml:"label_column"` // label column of CSV dataset
	LabelMap    map[string]int `toml:"label_map"`    // raw label to 0/1 translation
	SkipColumns []int          `toml:"skip_columns"` // columns dropped from CSV dataset
	TestRatio   float64        `toml:"test_ratio"`   // held-out ratio of train-test split
	RandomState int            `toml:"random_state"` // seed of train-test split
}

func (config *DataConfig) LoadDefaultIfNil() *DataConfig {
	if config == nil {
		return &DataConfig{
			BuiltIn:   "breast_cancer",
			TestRatio: 0.2,
		}
	}
	return config
}

// EvaluateConfig is the configuration for model evaluation.
type EvaluateConfig struct {
	Jobs    int `toml:"jobs"`    // number of fit jobs
	Verbose int `toml:"verbose"` // verbose period
}

func (config *EvaluateConfig) LoadDefaultIfNil() *EvaluateConfig {
	if config == nil {
		return &EvaluateConfig{
			Jobs:    1,
			Verbose: 10,
		}
	}
	return config
}

// TuneConfig is the configuration for hyper-parameter search.
type TuneConfig struct {
	Folds   int    `toml:"folds"`   // number of cross validation folds
	Trials  int    `toml:"trials"`  // number of random search trials
	Jobs    int    `toml:"jobs"`    // number of tuning jobs
	Sampler string `toml:"sampler"` // hyper-parameter sampler (tpe/random)
}

func (config *TuneConfig) LoadDefaultIfNil() *TuneConfig {
	if config == nil {
		return &TuneConfig{
			Folds:   5,
			Trials:  20,
			Jobs:    1,
			Sampler: "tpe",
		}
	}
	return config
}

// ParamsConfig overrides model hyper-parameters before evaluation.
type ParamsConfig struct {
	Lr              float64 `toml:"lr"`                // learning rate
	NEpochs         int     `toml:"n_epochs"`          // number of epochs
	Tol             float64 `toml:"tol"`               // tolerance of convergence
	NEstimators     int     `toml:"n_estimators"`      // number of trees
	MaxDepth        int     `toml:"max_depth"`         // maximum depth of trees
	MinSamplesSplit int     `toml:"min_samples_split"` // minimum samples to split a node
	MaxFeatures     int     `toml:"max_features"`      // number of features per split
	C               float64 `toml:"c"`                 // inverse regularization strength
	Kernel          string  `toml:"kernel"`            // kernel of support vector machine
	Gamma           string  `toml:"gamma"`             // RBF kernel coefficient (scale/auto)
	NNeighbors      int     `toml:"n_neighbors"`       // number of neighbors
	Weights         string  `toml:"weights"`           // neighbor weighting (uniform/distance)
	RandomState     int     `toml:"random_state"`      // random state (seed)
}

// GetParams converts the section into model.Params, keeping only the keys
// the TOML file actually defines so zero values never shadow model defaults.
func (config *ParamsConfig) GetParams(metaData *toml.MetaData) model.Params {
	type binding struct {
		field string
		name  model.ParamName
		value interface{}
	}
	bindings := []binding{
		{"lr", model.Lr, config.Lr},
		{"n_epochs", model.NEpochs, config.NEpochs},
		{"tol", model.Tol, config.Tol},
		{"n_estimators", model.NEstimators, config.NEstimators},
		{"max_depth", model.MaxDepth, config.MaxDepth},
		{"min_samples_split", model.MinSamplesSplit, config.MinSamplesSplit},
		{"max_features", model.MaxFeatures, config.MaxFeatures},
		{"c", model.C, config.C},
		{"kernel", model.Kernel, config.Kernel},
		{"gamma", model.Gamma, config.Gamma},
		{"n_neighbors", model.NNeighbors, config.NNeighbors},
		{"weights", model.Weights, config.Weights},
		{"random_state", model.RandomState, config.RandomState},
	}
	params := model.Params{}
	for _, b := range bindings {
		if metaData.IsDefined("params", b.field) {
			params[b.name] = b.value
		}
	}
	return params
}

// FillDefault fill default values for missing values.
func (config *Config) FillDefault(meta toml.MetaData) {
	// Default data config
	defaultDataConfig := *(*DataConfig)(nil).LoadDefaultIfNil()
	if !meta.IsDefined("data", "built_in") && !meta.IsDefined("data", "path") {
		config.Data.BuiltIn = defaultDataConfig.BuiltIn
	}
	if !meta.IsDefined("data", "test_ratio") {
		config.Data.TestRatio = defaultDataConfig.TestRatio
	}
	// Default evaluate config
	defaultEvaluateConfig := *(*EvaluateConfig)(nil).LoadDefaultIfNil()
	if !meta.IsDefined("evaluate", "jobs") {
		config.Evaluate.Jobs = defaultEvaluateConfig.Jobs
	}
	if !meta.IsDefined("evaluate", "verbose") {
		config.Evaluate.Verbose = defaultEvaluateConfig.Verbose
	}
	// Default tune config
	defaultTuneConfig := *(*TuneConfig)(nil).LoadDefaultIfNil()
	if !meta.IsDefined("tune", "folds") {
		config.Tune.Folds = defaultTuneConfig.Folds
	}
	if !meta.IsDefined("tune", "trials") {
		config.Tune.Trials = defaultTuneConfig.Trials
	}
	if !meta.IsDefined("tune", "jobs") {
		config.Tune.Jobs = defaultTuneConfig.Jobs
	}
	if !meta.IsDefined("tune", "sampler") {
		config.Tune.Sampler = defaultTuneConfig.Sampler
	}
}

// LoadConfig loads configuration from toml file.
func LoadConfig(path string) (*Config, *toml.MetaData, error) {
	var conf Config
	metaData, err := toml.DecodeFile(path, &conf)
	if err != nil {
		return nil, nil, errors.Trace(err)
	}
	conf.FillDefault(metaData)
	return &conf, &metaData, nil
}
