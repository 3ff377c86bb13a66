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

// Package datautil acquires datasets from CSV files and built-in downloads.
package datautil

import (
	"encoding/csv"
	"io"
	"net/http"
	"os"
	"os/user"
	"path/filepath"
	"strings"

	mapset "github.com/deckarep/golang-set/v2"
	"github.com/juju/errors"
	"github.com/schollz/progressbar/v3"
	"github.com/teasel-io/teasel/base/log"
	"github.com/teasel-io/teasel/common/util"
	"github.com/teasel-io/teasel/model/classify"
	"go.uber.org/zap"
)

const breastCancerURL = "https://archive.ics.uci.edu/ml/machine-learning-databases/breast-cancer-wisconsin/wdbc.data"

// Downloaded datasets are cached under the user's home directory.
var (
	datasetDir string
	tempDir    string
)

func init() {
	usr, err := user.Current()
	if err != nil {
		log.Logger().Fatal("failed to locate the home directory", zap.Error(err))
	}
	datasetDir = filepath.Join(usr.HomeDir, ".teasel", "dataset")
	tempDir = filepath.Join(usr.HomeDir, ".teasel", "temp")
}

// LoadCSV loads a dataset from a comma-separated file. labelColumn selects the
// label column, labelMap translates raw label cells (nil accepts 0/1 integer
// labels) and skipColumns drops columns such as record ids. With hasHeader the
// first row names the feature columns.
func LoadCSV(path string, labelColumn int, labelMap map[string]int, skipColumns []int, hasHeader bool) (*classify.Dataset, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Trace(err)
	}
	defer f.Close()
	rows, err := csv.NewReader(f).ReadAll()
	if err != nil {
		return nil, errors.Trace(err)
	}
	var header []string
	if hasHeader && len(rows) > 0 {
		header = rows[0]
		rows = rows[1:]
	}
	if len(rows) == 0 {
		return nil, errors.NotValidf("empty dataset %v", path)
	}
	if labelColumn < 0 || labelColumn >= len(rows[0]) {
		return nil, errors.NotValidf("label column %d for %d columns", labelColumn, len(rows[0]))
	}
	skipped := mapset.NewSet(skipColumns...)
	var featureNames []string
	for j, name := range header {
		if j != labelColumn && !skipped.Contains(j) {
			featureNames = append(featureNames, name)
		}
	}
	features := make([][]float32, len(rows))
	labels := make([]int, len(rows))
	for i, row := range rows {
		for j, cell := range row {
			if j == labelColumn {
				if labelMap != nil {
					label, exist := labelMap[cell]
					if !exist {
						return nil, errors.NotValidf("label %q of row %d", cell, i)
					}
					labels[i] = label
				} else if labels[i], err = util.ParseInt[int](cell); err != nil {
					return nil, errors.Trace(err)
				}
			} else if !skipped.Contains(j) {
				v, err := util.ParseFloat[float32](cell)
				if err != nil {
					return nil, errors.Trace(err)
				}
				features[i] = append(features[i], v)
			}
		}
	}
	return classify.NewDataset(featureNames, features, labels)
}

// LoadBreastCancer loads the Wisconsin diagnostic breast cancer dataset of 569
// samples with 30 features. Benign samples form the positive class. The data
// file is downloaded on first use and cached under ~/.teasel/dataset.
func LoadBreastCancer() (*classify.Dataset, error) {
	dataFile, err := download("wdbc", breastCancerURL)
	if err != nil {
		return nil, errors.Trace(err)
	}
	return loadBreastCancerFile(dataFile)
}

// LoadBuiltIn loads a built-in dataset by name.
func LoadBuiltIn(name string) (*classify.Dataset, error) {
	switch name {
	case "breast_cancer":
		return LoadBreastCancer()
	}
	return nil, errors.NotFoundf("built-in dataset %v", name)
}

func loadBreastCancerFile(path string) (*classify.Dataset, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Trace(err)
	}
	defer f.Close()
	rows, err := csv.NewReader(f).ReadAll()
	if err != nil {
		return nil, errors.Trace(err)
	}
	names := breastCancerFeatureNames()
	features := make([][]float32, len(rows))
	labels := make([]int, len(rows))
	for i, row := range rows {
		if len(row) != len(names)+2 {
			return nil, errors.NotValidf("row %d with %d columns", i, len(row))
		}
		// column 0 is the record id, column 1 is the diagnosis
		switch row[1] {
		case "B":
			labels[i] = 1
		case "M":
			labels[i] = 0
		default:
			return nil, errors.NotValidf("diagnosis %q of row %d", row[1], i)
		}
		features[i] = make([]float32, len(names))
		for j, cell := range row[2:] {
			features[i][j], err = util.ParseFloat[float32](cell)
			if err != nil {
				return nil, errors.Trace(err)
			}
		}
	}
	return classify.NewDataset(names, features, labels)
}

// breastCancerFeatureNames returns the 30 column names of wdbc.data: the mean,
// standard error and worst value of ten cell nucleus measures.
func breastCancerFeatureNames() []string {
	measures := []string{
		"radius", "texture", "perimeter", "area", "smoothness",
		"compactness", "concavity", "concave_points", "symmetry", "fractal_dimension",
	}
	names := make([]string, 0, 3*len(measures))
	for _, stat := range []string{"mean", "se", "worst"} {
		for _, measure := range measures {
			names = append(names, measure+"_"+stat)
		}
	}
	return names
}

// download fetches a data file on first use. The file appears under the
// dataset directory only after a complete download.
func download(name, src string) (string, error) {
	tokens := strings.Split(src, "/")
	dataFile := filepath.Join(datasetDir, name, tokens[len(tokens)-1])
	if _, err := os.Stat(dataFile); err == nil {
		return dataFile, nil
	} else if !os.IsNotExist(err) {
		return "", errors.Trace(err)
	}
	log.Logger().Info("download dataset",
		zap.String("source", src), zap.String("destination", dataFile))
	if err := os.MkdirAll(tempDir, os.ModePerm); err != nil {
		return "", errors.Trace(err)
	}
	tempFile := filepath.Join(tempDir, tokens[len(tokens)-1])
	output, err := os.Create(tempFile)
	if err != nil {
		return "", errors.Trace(err)
	}
	response, err := http.Get(src)
	if err != nil {
		output.Close()
		return "", errors.Trace(err)
	}
	defer response.Body.Close()
	pbReader := progressbar.NewReader(response.Body, progressbar.DefaultBytes(
		response.ContentLength, "Downloading "+name))
	_, err = io.Copy(output, &pbReader)
	if closeErr := output.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		return "", errors.Trace(err)
	}
	if err := os.MkdirAll(filepath.Dir(dataFile), os.ModePerm); err != nil {
		return "", errors.Trace(err)
	}
	if err := os.Rename(tempFile, dataFile); err != nil {
		return "", errors.Trace(err)
	}
	return dataFile, nil
}