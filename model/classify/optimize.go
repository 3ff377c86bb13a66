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

package classify

import (
	"context"
	"sort"

	"github.com/c-bata/goptuna"
	"github.com/c-bata/goptuna/tpe"
	"github.com/juju/errors"
	"github.com/teasel-io/teasel/base/log"
	"github.com/teasel-io/teasel/model"
	"go.uber.org/zap"
	"golang.org/x/exp/maps"
)

const (
	SamplerTPE    = "tpe"
	SamplerRandom = "random"
)

type ModelCreator func() Classifier

// ModelSearch optimizes the model type and its hyper-parameters jointly
// within one study. Candidates are scored by mean F1 over k folds. A failed
// candidate prunes its trial instead of aborting the study.
type ModelSearch struct {
	// goptuna objectives receive only the trial, so the context is captured
	// at construction and flows into every candidate's cross validation.
	ctx           context.Context
	modelCreators map[string]ModelCreator
	modelTypes    []string
	set           *Dataset
	folds         int
	seed          int64
	config        *FitConfig
	result        OptimizeResult
}

// OptimizeResult is the best candidate found by a study.
type OptimizeResult struct {
	Type   string
	Params model.Params
	Score  Score
}

func NewModelSearch(ctx context.Context, models map[string]ModelCreator, set *Dataset, folds int, seed int64, config *FitConfig) *ModelSearch {
	modelTypes := maps.Keys(models)
	sort.Strings(modelTypes)
	return &ModelSearch{
		ctx:           ctx,
		modelCreators: models,
		modelTypes:    modelTypes,
		set:           set,
		folds:         folds,
		seed:          seed,
		config:        config,
	}
}

// BankCreators converts the model bank into study candidates.
func BankCreators(bank []NamedCreator) map[string]ModelCreator {
	creators := make(map[string]ModelCreator, len(bank))
	for _, entry := range bank {
		creators[entry.Name] = ModelCreator(entry.Create)
	}
	return creators
}

func (ms *ModelSearch) Objective(trial goptuna.Trial) (float64, error) {
	if len(ms.modelCreators) == 0 {
		return 0, errors.New("no model to search")
	}
	modelType, err := trial.SuggestCategorical("Model", ms.modelTypes)
	if err != nil {
		return 0, errors.Trace(err)
	}
	m := ms.modelCreators[modelType]()
	m.SetParams(m.SuggestParams(trial))
	scores, err := CrossValidate(ms.ctx, m, ms.set, NewKFoldSplitter(ms.folds), ms.seed, ms.config)
	if err != nil {
		log.Logger().Warn("prune failed trial",
			zap.String("model", modelType),
			zap.Any("params", m.GetParams()),
			zap.Error(err))
		return 0, goptuna.ErrTrialPruned
	}
	score := MeanScore(scores)
	if ms.result.Type == "" || score.BetterThan(ms.result.Score) {
		ms.result = OptimizeResult{
			Type:   modelType,
			Params: m.GetParams(),
			Score:  score,
		}
	}
	return float64(score.F1), nil
}

func (ms *ModelSearch) Result() OptimizeResult {
	return ms.result
}

// NewStudy creates a maximizing study with the requested sampler. The random
// sampler is seeded, so a study replays identically for the same seed.
func NewStudy(name, sampler string, seed int64) (*goptuna.Study, error) {
	switch sampler {
	case SamplerTPE:
		return goptuna.CreateStudy(name,
			goptuna.StudyOptionDirection(goptuna.StudyDirectionMaximize),
			goptuna.StudyOptionSampler(tpe.NewSampler()))
	case SamplerRandom:
		return goptuna.CreateStudy(name,
			goptuna.StudyOptionDirection(goptuna.StudyDirectionMaximize),
			goptuna.StudyOptionSampler(goptuna.NewRandomSampler(
				goptuna.RandomSamplerOptionSeed(seed))))
	}
	return nil, errors.NotValidf("sampler %q", sampler)
}
