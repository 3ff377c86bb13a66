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

// Package log holds the process-wide zap logger.
package log

import (
	"net/url"
	"os"
	"runtime"

	"github.com/spf13/pflag"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

const timeLayout = "2006-01-02 15:04:05.999999"

var logger *zap.Logger

func init() {
	var err error
	if logger, err = zap.NewDevelopment(); err != nil {
		panic(err)
	}
	// Drive letters break zap's file sink on Windows, register a plain one.
	// https://github.com/uber-go/zap/issues/621
	if runtime.GOOS == "windows" {
		err = zap.RegisterSink("windows", func(u *url.URL) (zap.Sink, error) {
			// u.Path starts with the slash left over from url.Parse()
			return os.OpenFile(u.Path[1:], os.O_WRONLY|os.O_APPEND|os.O_CREATE, 0644)
		})
		if err != nil {
			logger.Fatal("failed to register Windows file sink", zap.Error(err))
		}
	}
}

// Logger returns the current logger.
func Logger() *zap.Logger {
	return logger
}

// AddFlags registers the log file flags read by SetLogger.
func AddFlags(flagSet *pflag.FlagSet) {
	flagSet.String("log-path", "", "path of log file")
	flagSet.Int("log-max-size", 100, "maximum size in megabytes of the log file")
	flagSet.Int("log-max-age", 0, "maximum number of days to retain old log files")
	flagSet.Int("log-max-backups", 0, "maximum number of old log files to retain")
}

// SetLogger replaces the logger according to the registered flags. Debug mode
// logs everything through the console encoder, otherwise entries from info
// level up are encoded as JSON.
func SetLogger(flagSet *pflag.FlagSet, debug bool) {
	var (
		encoderConfig zapcore.EncoderConfig
		encoder       zapcore.Encoder
		level         zapcore.LevelEnabler
	)
	if debug {
		encoderConfig = zap.NewDevelopmentEncoderConfig()
		encoderConfig.EncodeTime = zapcore.TimeEncoderOfLayout(timeLayout)
		encoder = zapcore.NewConsoleEncoder(encoderConfig)
		level = zap.DebugLevel
	} else {
		encoderConfig = zap.NewProductionEncoderConfig()
		encoderConfig.EncodeTime = zapcore.TimeEncoderOfLayout(timeLayout)
		encoder = zapcore.NewJSONEncoder(encoderConfig)
		level = zap.InfoLevel
	}
	sinks := []zapcore.WriteSyncer{zapcore.AddSync(os.Stdout)}
	if flagSet.Changed("log-path") {
		file, _ := flagSet.GetString("log-path")
		size, _ := flagSet.GetInt("log-max-size")
		age, _ := flagSet.GetInt("log-max-age")
		backups, _ := flagSet.GetInt("log-max-backups")
		sinks = append(sinks, zapcore.AddSync(&lumberjack.Logger{
			Filename:   file,
			MaxSize:    size,
			MaxAge:     age,
			MaxBackups: backups,
			Compress:   false,
		}))
	}
	logger = zap.New(zapcore.NewCore(encoder, zap.CombineWriteSyncers(sinks...), level))
}

// CloseLogger swallows everything logged after it, used to keep test output
// quiet.
func CloseLogger() {
	logger = zap.NewNop()
}
