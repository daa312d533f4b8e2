// Copyright 2024-2026
// SPDX-License-Identifier: Apache-2.0
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

package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/chartfolio/cf-api/common"
)

func init() {
	// Logging
	viper.BindEnv("log.level", "CF_LOG_LEVEL")
	rootCmd.PersistentFlags().String("log-level", "warning", "Logging level")
	viper.BindPFlag("log.level", rootCmd.PersistentFlags().Lookup("log-level"))

	viper.BindEnv("log.output", "CF_LOG_OUTPUT")
	rootCmd.PersistentFlags().String("log-output", "stdout", "Write logs to specified output one of: file path, `stdout`, or `stderr`")
	viper.BindPFlag("log.output", rootCmd.PersistentFlags().Lookup("log-output"))

	viper.BindEnv("log.report_caller", "CF_LOG_REPORT_CALLER")
	rootCmd.PersistentFlags().Bool("log-report-caller", false, "Log function name that called log statement")
	viper.BindPFlag("log.report_caller", rootCmd.PersistentFlags().Lookup("log-report-caller"))

	rootCmd.PersistentFlags().Bool("log-pretty", false, "Print log messages in a human readable format")
	viper.BindPFlag("log.pretty", rootCmd.PersistentFlags().Lookup("log-pretty"))

	// Portfolio
	viper.BindEnv("portfolio.currency", "CF_CURRENCY")
	rootCmd.PersistentFlags().String("currency", "EUR", "Target currency all values are converted to")
	viper.BindPFlag("portfolio.currency", rootCmd.PersistentFlags().Lookup("currency"))

	// Cache
	viper.BindEnv("cache.redis_url", "REDIS_URL")
	rootCmd.PersistentFlags().String("cache-redis-url", "", "Redis connection string for the shared quote cache; empty disables the redis tier")
	viper.BindPFlag("cache.redis_url", rootCmd.PersistentFlags().Lookup("cache-redis-url"))

	rootCmd.PersistentFlags().Int("cache-local-size", 256, "Number of entries in the in-process quote cache")
	viper.BindPFlag("cache.local_size", rootCmd.PersistentFlags().Lookup("cache-local-size"))

	// AI analysis
	viper.BindEnv("ai.backend", "CF_AI_BACKEND")
	rootCmd.PersistentFlags().String("ai-backend", "none", "AI backend for indicator commentary: none or gemini")
	viper.BindPFlag("ai.backend", rootCmd.PersistentFlags().Lookup("ai-backend"))

	viper.BindEnv("ai.model", "CF_AI_MODEL")
	rootCmd.PersistentFlags().String("ai-model", "", "Model name used by the gemini backend")
	viper.BindPFlag("ai.model", rootCmd.PersistentFlags().Lookup("ai-model"))

	// Tracing
	viper.BindEnv("otlp.endpoint", "OTLP_ENDPOINT")
	rootCmd.PersistentFlags().String("otlp-endpoint", "", "OpenTelemetry collector endpoint; empty disables tracing export")
	viper.BindPFlag("otlp.endpoint", rootCmd.PersistentFlags().Lookup("otlp-endpoint"))
}

var rootCmd = &cobra.Command{
	Use:     "cfapi",
	Version: common.CurrentVersion.String(),
	Short:   "ChartFolio turns a transaction log into portfolio charts",
	Long: `ChartFolio builds the daily value history of a stock portfolio from a
buy/sell transaction log, computes technical indicators on it and renders
the result as an interactive chart.`,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
