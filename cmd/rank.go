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

	"github.com/olekukonko/tablewriter"
	"github.com/penny-vault/pvdogs/common"
	"github.com/penny-vault/pvdogs/data"
	"github.com/penny-vault/pvdogs/export"
	"github.com/penny-vault/pvdogs/pipeline"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	rankAll  bool
	rankYear int
)

func init() {
	rootCmd.AddCommand(rankCmd)

	rankCmd.Flags().BoolVar(&rankAll, "all", false, "rank every known index")
	rankCmd.Flags().IntVar(&rankYear, "year", 0, "year of the estimates to rank by, defaults to the current year")

	rankCmd.Flags().String("format", export.DefaultKind.String(), "export format: xlsx, json or html")
	viper.BindPFlag("export.format", rankCmd.Flags().Lookup("format"))

	rankCmd.Flags().Float64("min-market-cap", 5, "minimum market capitalization in billion EUR")
	viper.BindPFlag("strategy.min_market_cap", rankCmd.Flags().Lookup("min-market-cap"))
}

func selectedIndices(args []string) ([]data.IndexLocator, error) {
	if rankAll {
		locators := make([]data.IndexLocator, len(data.KnownIndices))
		for idx, info := range data.KnownIndices {
			locators[idx] = info.Locator
		}
		return locators, nil
	}

	locators := make([]data.IndexLocator, 0, len(args))
	for _, arg := range args {
		loc, err := data.LookupIndex(arg)
		if err != nil {
			return nil, err
		}
		locators = append(locators, loc)
	}
	return locators, nil
}

var rankCmd = &cobra.Command{
	Use:   "rank [flags] [INDEX...]",
	Short: "Rank the members of one or more indices and export the result",
	Long: `Rank the members of one or more indices and export the result. Indices are given
by name (see "pvdogs indices") or as portal locator, e.g. DAX-Index-20735. Each index is
written to <locator>.<format> in the export directory.`,
	Run: func(cmd *cobra.Command, args []string) {
		indices, err := selectedIndices(args)
		if err != nil {
			log.Fatal().Err(err).Msg("invalid index selection")
		}

		kind, err := export.ParseKind(viper.GetString("export.format"))
		if err != nil {
			log.Fatal().Err(err).Msg("invalid export format")
		}

		cfg := portalConfig()
		cache, err := common.NewPageCache(viper.GetInt("cache.local_size"))
		if err != nil {
			log.Fatal().Err(err).Msg("could not create page cache")
		}
		client := data.NewClientFromConfig(cfg, data.WithPageCache(cache))

		p := pipeline.New(client, cfg, export.Sink{Dir: viper.GetString("export.dir")})
		report, err := p.Run(context.Background(), pipeline.Options{
			Indices:      indices,
			EstimateYear: rankYear,
			Format:       kind,
			MinMarketCap: viper.GetFloat64("strategy.min_market_cap"),
		})
		if err != nil {
			log.Fatal().Err(err).Str("RunID", report.RunID.String()).Msg("ranking failed")
		}

		if len(report.Exports) == 0 {
			return
		}

		table := tablewriter.NewWriter(os.Stdout)
		table.SetHeader([]string{"Index", "Stocks", "File"})
		table.SetBorder(false)
		for _, exported := range report.Exports {
			table.Append([]string{string(exported.Index), fmt.Sprintf("%d", exported.NumRows), exported.Path})
		}
		table.Render()
	},
}
