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
	"context"
	"fmt"
	"os"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/chartfolio/cf-api/ai"
	"github.com/chartfolio/cf-api/common"
	"github.com/chartfolio/cf-api/figure"
	"github.com/chartfolio/cf-api/portfolio"
)

var (
	chartOutput  string
	chartTitle   string
	chartSeries  []string
	chartAnalyze bool
)

func init() {
	chartCmd.Flags().StringVarP(&chartOutput, "output", "o", "chart.html", "File the chart is written to")
	chartCmd.Flags().StringVar(&chartTitle, "title", "Portfolio", "Chart title")
	chartCmd.Flags().StringSliceVar(&chartSeries, "series", nil, "History columns to draw; defaults to close, price, moving averages, Bollinger bands, perf and rsi")
	chartCmd.Flags().BoolVar(&chartAnalyze, "analyze", false, "Print an AI commentary on the indicators after rendering")

	chartCmd.Flags().StringVar(&historyBegin, "begin", "", "First date of the history (YYYY-MM-DD)")
	chartCmd.Flags().StringVar(&historyEnd, "end", "", "Last date of the history (YYYY-MM-DD)")
	chartCmd.Flags().IntVar(&historyInterval, "interval", portfolio.DefaultInterval, "Lookback window for rolling indicators")
	chartCmd.Flags().StringSliceVar(&historySymbols, "symbols", nil, "Restrict the chart to these symbols")

	rootCmd.AddCommand(chartCmd)
}

var chartCmd = &cobra.Command{
	Use:   "chart <transactions.csv>",
	Short: "Render the portfolio history as an interactive chart",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		common.SetupLogging()
		ctx := context.Background()

		p, err := loadPortfolioFromFile(ctx, args[0])
		if err != nil {
			log.Fatal().Err(err).Str("File", args[0]).Msg("could not load portfolio")
		}

		historyAggregate = portfolio.AggregatePortfolio
		opts, err := historyLoadOptions()
		if err != nil {
			log.Fatal().Err(err).Msg("invalid arguments")
		}

		if _, err := p.LoadHistory(ctx, opts); err != nil {
			log.Fatal().Err(err).Msg("could not build history")
		}
		if _, err := p.ComputeIndicators(historyInterval, true); err != nil {
			log.Fatal().Err(err).Msg("could not compute indicators")
		}

		columns := chartSeries
		if len(columns) == 0 {
			columns = []string{"close", "price", "sma", "ema", "bb_upper", "bb_lower", "perf", "rsi"}
		}

		fh, err := os.Create(chartOutput)
		if err != nil {
			log.Fatal().Err(err).Str("File", chartOutput).Msg("could not create output file")
		}
		defer fh.Close()

		fig := figure.New(p.History, chartTitle).Add(columns...)
		if err := fig.Render(fh); err != nil {
			log.Fatal().Err(err).Msg("could not render chart")
		}
		log.Info().Str("File", chartOutput).Msg("chart written")

		if chartAnalyze {
			analyst := ai.New(ctx)
			comment, err := analyst.Comment(ctx, p)
			if err != nil {
				log.Warn().Err(err).Msg("analysis unavailable")
			}
			if comment != "" {
				fmt.Println(comment)
			}
		}
	},
}
