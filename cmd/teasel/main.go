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

package main

import (
	"context"
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
	"github.com/spf13/cobra"
	"github.com/teasel-io/teasel/base/log"
	"github.com/teasel-io/teasel/base/progress"
	"github.com/teasel-io/teasel/cmd/version"
	"github.com/teasel-io/teasel/common/datautil"
	"github.com/teasel-io/teasel/common/report"
	"github.com/teasel-io/teasel/config"
	"github.com/teasel-io/teasel/model"
	"github.com/teasel-io/teasel/model/classify"
	"go.uber.org/zap"
)

var teaselCommand = &cobra.Command{
	Use:   "teasel",
	Short: "Benchmark binary classifiers on tabular datasets.",
	Run: func(cmd *cobra.Command, args []string) {
		// Show version
		if showVersion, _ := cmd.PersistentFlags().GetBool("version"); showVersion {
			fmt.Println(version.BuildInfo())
			return
		}
		// setup logger
		debug, _ := cmd.PersistentFlags().GetBool("debug")
		log.SetLogger(cmd.PersistentFlags(), debug)
		// load config
		conf, meta := loadConfig(cmd)
		// evaluate the model bank on the held-out test set
		trainSet, testSet := splitDataset(loadDataset(conf), conf)
		bank := classify.BankParams(classify.DefaultBank(), bankOverrides(conf, meta))
		fitConfig := classify.NewFitConfig().
			SetJobs(conf.Evaluate.Jobs).
			SetVerbose(conf.Evaluate.Verbose)
		tracer := progress.NewTracer("teasel")
		ctx, root := tracer.Start(context.Background(), "evaluate", 1)
		results := classify.EvaluateBank(ctx, bank, trainSet, testSet, fitConfig)
		records := make([]report.Record, 0, len(results))
		for _, result := range results {
			if result.Err != nil {
				// the failure is logged already, drop the row
				continue
			}
			records = append(records, report.Record{Name: result.Name, Metrics: result.Score.Metrics()})
		}
		root.End()
		logSpans(tracer)
		renderRecords(records)
	},
}

var tuneCommand = &cobra.Command{
	Use:   "tune",
	Short: "Tune hyper-parameters by cross validation",
	Run: func(cmd *cobra.Command, args []string) {
		debug, _ := cmd.Flags().GetBool("debug")
		log.SetLogger(cmd.Flags(), debug)
		conf, meta := loadConfig(cmd)
		trainSet, _ := splitDataset(loadDataset(conf), conf)
		creators := classify.BankCreators(classify.BankParams(classify.DefaultBank(), bankOverrides(conf, meta)))
		fitConfig := classify.NewFitConfig().
			SetJobs(conf.Tune.Jobs).
			SetVerbose(conf.Evaluate.Verbose)
		seed := int64(conf.Data.RandomState)
		pinned := conf.Params.GetParams(meta)
		tracer := progress.NewTracer("teasel")
		ctx, root := tracer.Start(context.Background(), "tune", 2)
		records := make([]report.Record, 0, 2)
		// exhaustive grid search over the random forest grid
		forest := creators[classify.ModelForest]()
		gridResult := classify.GridSearchCV(ctx, forest, trainSet,
			searchGrid(forest, pinned), conf.Tune.Folds, seed, fitConfig)
		if record, ok := searchRecord(classify.ModelForest, gridResult); ok {
			records = append(records, record)
		}
		// randomized search over the support vector machine distributions
		svc := creators[classify.ModelSVC]()
		randomResult := classify.RandomSearchCV(ctx, svc, trainSet,
			searchDistributions(svc, pinned), conf.Tune.Trials, conf.Tune.Folds, seed, fitConfig)
		if record, ok := searchRecord(classify.ModelSVC, randomResult); ok {
			records = append(records, record)
		}
		root.End()
		logSpans(tracer)
		renderRecords(records)
	},
}

var optimizeCommand = &cobra.Command{
	Use:   "optimize",
	Short: "Optimize the model type and hyper-parameters jointly",
	Run: func(cmd *cobra.Command, args []string) {
		debug, _ := cmd.Flags().GetBool("debug")
		log.SetLogger(cmd.Flags(), debug)
		conf, meta := loadConfig(cmd)
		trainSet, _ := splitDataset(loadDataset(conf), conf)
		creators := classify.BankCreators(classify.BankParams(classify.DefaultBank(), bankOverrides(conf, meta)))
		fitConfig := classify.NewFitConfig().
			SetJobs(conf.Tune.Jobs).
			SetVerbose(conf.Evaluate.Verbose)
		tracer := progress.NewTracer("teasel")
		ctx, root := tracer.Start(context.Background(), "optimize", conf.Tune.Trials)
		search := classify.NewModelSearch(ctx, creators, trainSet,
			conf.Tune.Folds, int64(conf.Data.RandomState), fitConfig)
		study, err := classify.NewStudy("teasel", conf.Tune.Sampler, int64(conf.Data.RandomState))
		if err != nil {
			log.Logger().Fatal("failed to create study", zap.Error(err))
		}
		if err = study.Optimize(search.Objective, conf.Tune.Trials); err != nil {
			log.Logger().Fatal("failed to optimize", zap.Error(err))
		}
		if _, err = study.GetBestValue(); err != nil {
			log.Logger().Fatal("every trial failed", zap.Error(err))
		}
		result := search.Result()
		log.Logger().Info("complete optimization",
			append([]zap.Field{
				zap.String("model", result.Type),
				zap.Any("params", result.Params),
			}, result.Score.ZapFields()...)...)
		root.End()
		logSpans(tracer)
		renderRecords([]report.Record{{Name: result.Type, Metrics: result.Score.Metrics()}})
	},
}

var versionCommand = &cobra.Command{
	Use:   "version",
	Short: "Check the version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println(version.BuildInfo())
	},
}

func init() {
	log.AddFlags(teaselCommand.PersistentFlags())
	teaselCommand.PersistentFlags().Bool("debug", false, "use debug log mode")
	teaselCommand.PersistentFlags().BoolP("version", "v", false, "teasel version")
	teaselCommand.PersistentFlags().StringP("config", "c", "", "configuration file path")
	teaselCommand.PersistentFlags().String("dataset", "", "name of built-in dataset")
	teaselCommand.PersistentFlags().Float64("test-ratio", 0.2, "held-out ratio of the train-test split")
	teaselCommand.PersistentFlags().Int("seed", 0, "seed of dataset splits and samplers")
	teaselCommand.PersistentFlags().Int("jobs", 1, "number of fit jobs")
	tuneCommand.Flags().Int("folds", 5, "number of cross validation folds")
	tuneCommand.Flags().Int("trials", 20, "number of random search trials")
	optimizeCommand.Flags().Int("folds", 5, "number of cross validation folds")
	optimizeCommand.Flags().Int("trials", 20, "number of optimization trials")
	optimizeCommand.Flags().String("sampler", "tpe", "hyper-parameter sampler (tpe/random)")
	teaselCommand.AddCommand(tuneCommand)
	teaselCommand.AddCommand(optimizeCommand)
	teaselCommand.AddCommand(versionCommand)
}

func main() {
	if err := teaselCommand.Execute(); err != nil {
		log.Logger().Fatal("failed to execute", zap.Error(err))
	}
}

// loadConfig loads the configuration file and applies command line overrides.
func loadConfig(cmd *cobra.Command) (*config.Config, *toml.MetaData) {
	var (
		conf *config.Config
		meta *toml.MetaData
		err  error
	)
	if cmd.Flags().Changed("config") {
		configPath, _ := cmd.Flags().GetString("config")
		log.Logger().Info("load config", zap.String("config", configPath))
		conf, meta, err = config.LoadConfig(configPath)
		if err != nil {
			log.Logger().Fatal("failed to load config", zap.Error(err))
		}
	} else {
		conf = (*config.Config)(nil).LoadDefaultIfNil()
		meta = &toml.MetaData{}
	}
	if cmd.Flags().Changed("dataset") {
		conf.Data.BuiltIn, _ = cmd.Flags().GetString("dataset")
		conf.Data.Path = ""
	}
	if cmd.Flags().Changed("test-ratio") {
		conf.Data.TestRatio, _ = cmd.Flags().GetFloat64("test-ratio")
	}
	if cmd.Flags().Changed("seed") {
		conf.Data.RandomState, _ = cmd.Flags().GetInt("seed")
	}
	if cmd.Flags().Changed("jobs") {
		jobs, _ := cmd.Flags().GetInt("jobs")
		conf.Evaluate.Jobs = jobs
		conf.Tune.Jobs = jobs
	}
	if cmd.Flags().Changed("folds") {
		conf.Tune.Folds, _ = cmd.Flags().GetInt("folds")
	}
	if cmd.Flags().Changed("trials") {
		conf.Tune.Trials, _ = cmd.Flags().GetInt("trials")
	}
	if cmd.Flags().Changed("sampler") {
		conf.Tune.Sampler, _ = cmd.Flags().GetString("sampler")
	}
	conf.Validate()
	return conf, meta
}

func loadDataset(conf *config.Config) *classify.Dataset {
	var (
		data *classify.Dataset
		err  error
	)
	if conf.Data.Path != "" {
		log.Logger().Info("load dataset", zap.String("path", conf.Data.Path))
		data, err = datautil.LoadCSV(conf.Data.Path, conf.Data.LabelColumn,
			conf.Data.LabelMap, conf.Data.SkipColumns, conf.Data.HasHeader)
	} else {
		log.Logger().Info("load dataset", zap.String("built_in", conf.Data.BuiltIn))
		data, err = datautil.LoadBuiltIn(conf.Data.BuiltIn)
	}
	if err != nil {
		log.Logger().Fatal("failed to load dataset", zap.Error(err))
	}
	log.Logger().Info("loaded dataset",
		zap.Int("n_samples", data.Count()),
		zap.Int("n_features", data.NumFeatures()),
		zap.Int("n_positive", data.PositiveCount()),
		zap.Int("n_negative", data.NegativeCount()))
	return data
}

func splitDataset(data *classify.Dataset, conf *config.Config) (trainSet, testSet *classify.Dataset) {
	splitter := classify.NewRatioSplitter(1, float32(conf.Data.TestRatio))
	trainSets, testSets := splitter(data, int64(conf.Data.RandomState))
	log.Logger().Info("split dataset",
		zap.Float64("test_ratio", conf.Data.TestRatio),
		zap.Int("train_size", trainSets[0].Count()),
		zap.Int("test_size", testSets[0].Count()))
	return trainSets[0], testSets[0]
}

// bankOverrides expands the [params] section to every model in the bank.
func bankOverrides(conf *config.Config, meta *toml.MetaData) map[string]model.Params {
	params := conf.Params.GetParams(meta)
	if len(params) == 0 {
		return nil
	}
	overrides := make(map[string]model.Params, len(classify.DefaultBank()))
	for _, entry := range classify.DefaultBank() {
		overrides[entry.Name] = params
	}
	return overrides
}

// searchGrid pins parameters from the [params] section to their configured
// value and fills the remaining dimensions from the default grid.
func searchGrid(estimator classify.Classifier, pinned model.Params) model.ParamsGrid {
	grid := make(model.ParamsGrid, len(pinned))
	for name, value := range pinned {
		grid[name] = []interface{}{value}
	}
	grid.Fill(estimator.GetParamsGrid())
	return grid
}

// searchDistributions pins parameters from the [params] section and keeps the
// default distributions for the rest.
func searchDistributions(estimator classify.Classifier, pinned model.Params) classify.ParamsDistribution {
	dist := make(classify.ParamsDistribution, len(pinned))
	for name, value := range pinned {
		dist[name] = classify.Choice{Values: []interface{}{value}}
	}
	for name, d := range estimator.GetParamsDistributions() {
		if _, exist := dist[name]; !exist {
			dist[name] = d
		}
	}
	return dist
}

func searchRecord(name string, r classify.ParamsSearchResult) (report.Record, bool) {
	if r.BestModel == nil {
		log.Logger().Error("every candidate failed", zap.String("model", name))
		return report.Record{}, false
	}
	log.Logger().Info("complete hyper-parameter search",
		append([]zap.Field{
			zap.String("model", name),
			zap.Any("params", r.BestParams),
		}, r.BestScore.ZapFields()...)...)
	return report.Record{Name: name, Metrics: r.BestScore.Metrics()}, true
}

// logSpans dumps the span tree of a finished run at debug level.
func logSpans(tracer *progress.Tracer) {
	for _, p := range tracer.List() {
		log.Logger().Debug("span",
			zap.String("tracer", p.Tracer),
			zap.String("name", p.Name),
			zap.String("status", string(p.Status)),
			zap.Int("count", p.Count),
			zap.Int("total", p.Total),
			zap.Duration("elapsed", p.Elapsed()))
	}
}

func renderRecords(records []report.Record) {
	if err := report.Render(os.Stdout, report.Columns(), records); err != nil {
		log.Logger().Fatal("failed to render report", zap.Error(err))
	}
}
