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
	"github.com/teasel-io/teasel/base"
)

// Model is implemented by every estimator. Hyper-parameters flow in through
// SetParams before fitting, GetParamsGrid exposes the exhaustive search space
// and Clear resets learned weights so an estimator can be fitted again.
type Model interface {
	// SetParams sets hyper-parameters.
	SetParams(params Params)
	// GetParams returns hyper-parameters.
	GetParams() Params
	// GetParamsGrid returns the default grid of hyper-parameters.
	GetParamsGrid() ParamsGrid
	// Clear resets learned weights.
	Clear()
}

// BaseModel holds the hyper-parameters and the seeded random generator shared
// by all estimators. Estimators embed it and overload SetParams to pull their
// own hyper-parameters out of Params.
type BaseModel struct {
	Params    Params
	rng       base.RandomGenerator
	randState int64
}

// SetParams stores hyper-parameters and reseeds the random generator from
// RandomState. Fitting the same estimator with the same parameters twice
// yields the same weights.
func (b *BaseModel) SetParams(params Params) {
	b.Params = params
	b.randState = params.GetInt64(RandomState, 0)
	b.rng = base.NewRandomGenerator(b.randState)
}

// GetParams returns the stored hyper-parameters.
func (b *BaseModel) GetParams() Params {
	return b.Params
}

// GetRandomGenerator returns the seeded random generator.
func (b *BaseModel) GetRandomGenerator() base.RandomGenerator {
	return b.rng
}
