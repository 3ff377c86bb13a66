// Copyright 2023 teasel Project Authors
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

package model

import (
	"encoding/json"
	"reflect"

	"github.com/teasel-io/teasel/base/log"
	"go.uber.org/zap"
)

/* ParamName */

// ParamName is the type of hyper-parameter names.
type ParamName string

// Predefined hyper-parameter names
const (
	Lr              ParamName = "Lr"              // learning rate
	NEpochs         ParamName = "NEpochs"         // number of epochs
	Tol             ParamName = "Tol"             // convergence tolerance
	NEstimators     ParamName = "NEstimators"     // number of trees in a forest
	MaxDepth        ParamName = "MaxDepth"        // maximum tree depth (0 for unlimited)
	MinSamplesSplit ParamName = "MinSamplesSplit" // minimum samples required to split a node
	MaxFeatures     ParamName = "MaxFeatures"     // features considered per split (0 for sqrt)
	C               ParamName = "C"               // penalty strength of the margin
	Kernel          ParamName = "Kernel"          // kernel function name
	Gamma           ParamName = "Gamma"           // kernel coefficient mode
	NNeighbors      ParamName = "NNeighbors"      // number of nearest neighbors
	Weights         ParamName = "Weights"         // neighbor weighting scheme
	RandomState     ParamName = "RandomState"     // random state (seed)
)

// Params stores hyper-parameters for a model. It is a map between strings
// (names) and interface{}s (values). For example, hyper-parameters for a
// random forest are given by:
//
//	model.Params{
//		model.NEstimators:     100,
//		model.MaxDepth:        10,
//		model.MinSamplesSplit: 2,
//	}
type Params map[ParamName]interface{}

// Copy returns a shallow copy of the parameters.
func (p Params) Copy() Params {
	copied := make(Params, len(p))
	for name, val := range p {
		copied[name] = val
	}
	return copied
}

// The typed getters below never fail. A missing parameter yields the
// fallback silently, a parameter of the wrong type yields the fallback and a
// log entry. Numeric getters widen lossless kinds (int into int64, int or
// float64 into float32) so values produced by TOML decoding and by samplers
// read back uniformly.

// GetInt returns the int value of name, or fallback.
func (p Params) GetInt(name ParamName, fallback int) int {
	if val, exist := p[name]; exist {
		switch val := val.(type) {
		case int:
			return val
		default:
			logMismatch(name, "int", val)
		}
	}
	return fallback
}

// GetInt64 returns the int64 value of name, or fallback. Plain ints are
// converted.
func (p Params) GetInt64(name ParamName, fallback int64) int64 {
	if val, exist := p[name]; exist {
		switch val := val.(type) {
		case int64:
			return val
		case int:
			return int64(val)
		default:
			logMismatch(name, "int64", val)
		}
	}
	return fallback
}

// GetFloat32 returns the float32 value of name, or fallback. float64 and int
// values are converted.
func (p Params) GetFloat32(name ParamName, fallback float32) float32 {
	if val, exist := p[name]; exist {
		switch val := val.(type) {
		case float32:
			return val
		case float64:
			return float32(val)
		case int:
			return float32(val)
		default:
			logMismatch(name, "float32", val)
		}
	}
	return fallback
}

// GetFloat64 returns the float64 value of name, or fallback. float32 and int
// values are converted.
func (p Params) GetFloat64(name ParamName, fallback float64) float64 {
	if val, exist := p[name]; exist {
		switch val := val.(type) {
		case float64:
			return val
		case float32:
			return float64(val)
		case int:
			return float64(val)
		default:
			logMismatch(name, "float64", val)
		}
	}
	return fallback
}

// GetString returns the string value of name, or fallback.
func (p Params) GetString(name ParamName, fallback string) string {
	if val, exist := p[name]; exist {
		switch val := val.(type) {
		case string:
			return val
		default:
			logMismatch(name, "string", val)
		}
	}
	return fallback
}

func logMismatch(name ParamName, expected string, val interface{}) {
	log.Logger().Error("ignore parameter with unexpected type",
		zap.String("name", string(name)),
		zap.String("expected", expected),
		zap.String("actual", reflect.TypeOf(val).String()))
}

// Overwrite returns a new Params with the receiver's values overwritten by
// params. Neither input is modified.
func (p Params) Overwrite(params Params) Params {
	merged := make(Params, len(p)+len(params))
	for name, val := range p {
		merged[name] = val
	}
	for name, val := range params {
		merged[name] = val
	}
	return merged
}

// ToString renders the parameters as JSON for logs and error messages.
func (p Params) ToString() string {
	b, err := json.Marshal(p)
	if err != nil {
		log.Logger().Fatal("failed to marshal parameters", zap.Error(err))
	}
	return string(b)
}

// ParamsGrid contains candidates for grid search.
type ParamsGrid map[ParamName][]interface{}

func (grid ParamsGrid) Len() int {
	return len(grid)
}

// NumCombinations returns the size of the Cartesian product of the grid.
func (grid ParamsGrid) NumCombinations() int {
	count := 1
	for _, values := range grid {
		count *= len(values)
	}
	return count
}

// Fill inserts values from defaults for parameters absent from the grid.
func (grid ParamsGrid) Fill(defaults ParamsGrid) {
	for param, values := range defaults {
		if _, exist := grid[param]; !exist {
			grid[param] = values
		}
	}
}
