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
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/chartfolio/cf-api/common"
	"github.com/chartfolio/cf-api/data"
	"github.com/chartfolio/cf-api/portfolio"
)

var (
	historyBegin     string
	historyEnd       string
	historyAggregate string
	historyCleanup   bool
	historyInterval  int
	historySymbols   []string
	historyOutput    string
	historyFormat    string
)

func init() {
	historyCmd.Flags().StringVar(&historyBegin, "begin", "", "First date of the history (YYYY-MM-DD); defaults to the first transaction")
	historyCmd.Flags().StringVar(&historyEnd, "end", "", "Last date of the history (YYYY-MM-DD); defaults to today")
	historyCmd.Flags().StringVar(&historyAggregate, "aggregate", portfolio.AggregatePortfolio, "Aggregation level: transaction, symbol or portfolio")
	historyCmd.Flags().BoolVar(&historyCleanup, "cleanup", false, "Drop per-transaction series after aggregation")
	historyCmd.Flags().IntVar(&historyInterval, "interval", portfolio.DefaultInterval, "Lookback window for rolling indicators")
	historyCmd.Flags().StringSliceVar(&historySymbols, "symbols", nil, "Restrict the history to these symbols")
	historyCmd.Flags().StringVarP(&historyOutput, "output", "o", "-", "Write the history to this file; - for stdout")
	historyCmd.Flags().StringVar(&historyFormat, "format", "csv", "Output format: csv or table")

	rootCmd.AddCommand(historyCmd)
}

// loadPortfolioFromFile builds a portfolio and its history from a
// transaction CSV on disk
func loadPortfolioFromFile(ctx context.Context, transactionFile string) (*portfolio.Portfolio, error) {
	manager, err := data.NewManager()
	if err != nil {
		return nil, err
	}

	fh, err := os.Open(transactionFile)
	if err != nil {
		return nil, err
	}
	defer fh.Close()

	p := portfolio.FromCSV(manager, viper.GetString("portfolio.currency"), fh)
	if len(p.Transactions) == 0 {
		return nil, portfolio.ErrNoTransactions
	}
	return p, nil
}

func historyLoadOptions() (portfolio.LoadOptions, error) {
	opts := portfolio.LoadOptions{
		AggregateTo: historyAggregate,
		Cleanup:     historyCleanup,
		Symbols:     historySymbols,
	}

	if historyBegin != "" {
		dt, err := time.Parse("2006-01-02", historyBegin)
		if err != nil {
			return opts, fmt.Errorf("invalid --begin: %w", err)
		}
		opts.Begin = dt
	}
	if historyEnd != "" {
		dt, err := time.Parse("2006-01-02", historyEnd)
		if err != nil {
			return opts, fmt.Errorf("invalid --end: %w", err)
		}
		opts.End = dt
	}
	return opts, nil
}

var historyCmd = &cobra.Command{
	Use:   "history <transactions.csv>",
	Short: "Build the portfolio value history and write it as CSV",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		common.SetupLogging()
		ctx := context.Background()

		p, err := loadPortfolioFromFile(ctx, args[0])
		if err != nil {
			log.Fatal().Err(err).Str("File", args[0]).Msg("could not load portfolio")
		}

		opts, err := historyLoadOptions()
		if err != nil {
			log.Fatal().Err(err).Msg("invalid arguments")
		}

		if _, err := p.LoadHistory(ctx, opts); err != nil {
			log.Fatal().Err(err).Msg("could not build history")
		}

		if opts.AggregateTo == portfolio.AggregatePortfolio || opts.AggregateTo == "" {
			if _, err := p.ComputeIndicators(historyInterval, true); err != nil {
				log.Fatal().Err(err).Msg("could not compute indicators")
			}
		}

		out := os.Stdout
		if historyOutput != "-" {
			fh, err := os.Create(historyOutput)
			if err != nil {
				log.Fatal().Err(err).Str("File", historyOutput).Msg("could not create output file")
			}
			defer fh.Close()
			out = fh
		}

		switch historyFormat {
		case "table":
			fmt.Fprintln(out, p.History.Frame.Table())
		default:
			if err := p.History.ToCSV(out); err != nil {
				log.Fatal().Err(err).Msg("could not write history")
			}
		}
	},
}
