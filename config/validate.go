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
	"fmt"
	"strings"

	"github.com/scylladb/go-set/strset"
)

// Validate panics if the configuration is invalid.
func (config *Config) Validate() {
	validateBetween("data.test_ratio", config.Data.TestRatio, 0, 1)
	validateNotNegative("data.label_column", config.Data.LabelColumn)
	validatePositive("evaluate.jobs", config.Evaluate.Jobs)
	validatePositive("evaluate.verbose", config.Evaluate.Verbose)
	validateAtLeast("tune.folds", config.Tune.Folds, 2)
	validatePositive("tune.trials", config.Tune.Trials)
	validatePositive("tune.jobs", config.Tune.Jobs)
	validateIn("tune.sampler", config.Tune.Sampler, []string{"tpe", "random"})
}

func validateNotNegative(name string, val int) {
	if val < 0 {
		panic(fmt.Sprintf("config: `%s` must not be negative, got %d", name, val))
	}
}

func validatePositive(name string, val int) {
	if val <= 0 {
		panic(fmt.Sprintf("config: `%s` must be positive, got %d", name, val))
	}
}

func validateAtLeast(name string, val, least int) {
	if val < least {
		panic(fmt.Sprintf("config: `%s` must be at least %d, got %d", name, least, val))
	}
}

func validateBetween(name string, val, low, high float64) {
	if val <= low || val >= high {
		panic(fmt.Sprintf("config: `%s` must be inside (%g, %g), got %g", name, low, high, val))
	}
}

func validateIn(name, val string, allowed []string) {
	if !strset.New(allowed...).Has(val) {
		panic(fmt.Sprintf("config: `%s` must be one of [%s], got %s", name, strings.Join(allowed, ","), val))
	}
}
