// Copyright 2021-2022
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
	"context"
	"fmt"
	"os"

	"github.com/penny-vault/pvdogs/common"
	"github.com/penny-vault/pvdogs/data"
	"github.com/penny-vault/pvdogs/export"
	"github.com/penny-vault/pvdogs/observability/opentelemetry"
	"github.com/penny-vault/pvdogs/strategies"
	"github.com/penny-vault/pvdogs/strategies/dogs"
	"github.com/rs/zerolog/log"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var shutdownTracing func(context.Context) error

func init() {
	// Portal
	viper.SetDefault("portal.base_url", data.DefaultBaseURL)
	rootCmd.PersistentFlags().String("base-url", data.DefaultBaseURL, "Base URL of the financial portal")
	viper.BindPFlag("portal.base_url", rootCmd.PersistentFlags().Lookup("base-url"))

	viper.SetDefault("portal.max_workers", 0)
	rootCmd.PersistentFlags().Int("workers", 0, "Number of stocks fetched concurrently, 0 uses one per CPU")
	viper.BindPFlag("portal.max_workers", rootCmd.PersistentFlags().Lookup("workers"))

	viper.SetDefault("portal.timeout", data.DefaultTimeout)
	viper.SetDefault("portal.unit_timeout", data.DefaultUnitTimeout)

	viper.SetDefault("portal.rate_limit", data.DefaultRateLimit)
	rootCmd.PersistentFlags().Int("rate-limit", data.DefaultRateLimit, "Maximum number of portal requests per second, 0 disables the limit")
	viper.BindPFlag("portal.rate_limit", rootCmd.PersistentFlags().Lookup("rate-limit"))

	viper.SetDefault("cache.local_size", 1024)

	// Export
	viper.SetDefault("export.dir", ".")
	rootCmd.PersistentFlags().String("export-dir", ".", "Directory the rankings are written to")
	viper.BindPFlag("export.dir", rootCmd.PersistentFlags().Lookup("export-dir"))

	viper.SetDefault("export.format", export.DefaultKind.String())

	// Strategy
	viper.SetDefault("strategy.min_market_cap", dogs.DefaultMinMarketCap)

	// Logging configuration
	rootCmd.PersistentFlags().String("log-level", "warning", "Logging level")
	viper.BindPFlag("log.level", rootCmd.PersistentFlags().Lookup("log-level"))

	rootCmd.PersistentFlags().Bool("log-report-caller", false, "Log function name that called log statement")
	viper.BindPFlag("log.report_caller", rootCmd.PersistentFlags().Lookup("log-report-caller"))

	rootCmd.PersistentFlags().String("log-output", "stderr", "Write logs to specified output one of: file path, `stdout`, or `stderr`")
	viper.BindPFlag("log.output", rootCmd.PersistentFlags().Lookup("log-output"))

	rootCmd.PersistentFlags().Bool("log-pretty", true, "Format logs for humans instead of as JSON")
	viper.BindPFlag("log.pretty", rootCmd.PersistentFlags().Lookup("log-pretty"))

	// Tracing
	rootCmd.PersistentFlags().String("otlp-endpoint", "", "OTLP collector to send traces to, if blank tracing is disabled")
	viper.BindPFlag("otlp.endpoint", rootCmd.PersistentFlags().Lookup("otlp-endpoint"))
}

var rootCmd = &cobra.Command{
	Use:     common.ProgramName,
	Version: common.CurrentVersion.String(),
	Short:   "Rank the members of a stock index with the Dogs of the Dow strategy",
	Long: `pvdogs downloads the members of a stock index together with their fundamental and
technical figures from onvista.de, ranks them by sector, performance and estimated dividend
yield and writes the ranking to a spreadsheet.`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		common.SetupLogging()

		shutdown, err := opentelemetry.Setup()
		if err != nil {
			log.Error().Err(err).Msg("could not setup tracing")
		} else {
			shutdownTracing = shutdown
		}

		strategies.InitializeStrategyMap()
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if shutdownTracing != nil {
			if err := shutdownTracing(context.Background()); err != nil {
				log.Warn().Err(err).Msg("could not flush traces")
			}
		}
	},
}

// portalConfig converts the portal.* settings into a data.Config
func portalConfig() data.Config {
	cfg := data.DefaultConfig()
	cfg.BaseURL = viper.GetString("portal.base_url")
	cfg.MaxWorkers = viper.GetInt("portal.max_workers")
	cfg.Timeout = viper.GetDuration("portal.timeout")
	cfg.UnitTimeout = viper.GetDuration("portal.unit_timeout")
	cfg.RateLimit = viper.GetInt("portal.rate_limit")
	return cfg
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
