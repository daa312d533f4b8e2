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

// Package ai produces a natural-language comment on a portfolio's technical
// indicators. The gemini backend talks to the Google GenAI API; the none
// backend always returns an empty comment. Analysis is best effort: any
// failure degrades to an empty comment plus an error the caller may log.
package ai

import (
	"context"
	"fmt"
	"math"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
	"google.golang.org/genai"

	"github.com/chartfolio/cf-api/portfolio"
)

// Supported backends
const (
	BackendNone   = "none"
	BackendGemini = "gemini"
)

// DefaultModel is used when ai.model is not configured
const DefaultModel = "gemini-2.0-flash"

// analystPrompt is the fixed instruction sent with every analysis request
const analystPrompt = `You are an experienced technical analyst. Below is the
recent daily history of an investment portfolio: total value (close), amount
invested (price), simple and exponential moving averages, Bollinger bands,
RSI (scaled 0 to 1) and MACD with signal line. Comment in a short paragraph
on the current trend, notable indicator signals and whether the indicators
agree with each other. Do not give investment advice.`

// indicator columns included in the analysis table, in order
var promptColumns = []string{
	"close", "price", "win", "sma", "ema", "bb_upper", "bb_lower",
	"rsi", "macd", "signal_line",
}

// promptRows bounds how much history is sent to the model
const promptRows = 60

// Analyst turns indicator histories into commentary
type Analyst struct {
	backend string
	model   string
	client  *genai.Client
}

// New creates an analyst from viper configuration (ai.backend, ai.model).
// An unknown backend is treated as none with a warning.
func New(ctx context.Context) *Analyst {
	backend := viper.GetString("ai.backend")
	if backend == "" {
		backend = BackendNone
	}

	model := viper.GetString("ai.model")
	if model == "" {
		model = DefaultModel
	}

	a := &Analyst{backend: backend, model: model}

	switch backend {
	case BackendNone:
	case BackendGemini:
		client, err := genai.NewClient(ctx, nil)
		if err != nil {
			log.Error().Err(err).Msg("could not create genai client; analysis disabled")
			a.backend = BackendNone
			return a
		}
		a.client = client
	default:
		log.Warn().Str("Backend", backend).Msg("unknown ai backend; analysis disabled")
		a.backend = BackendNone
	}

	return a
}

// Enabled reports whether Comment can produce a non-empty result
func (a *Analyst) Enabled() bool {
	return a.backend != BackendNone
}

// Comment asks the model for a short commentary on the portfolio's indicator
// history. Returns an empty string when the backend is none or the request
// fails.
func (a *Analyst) Comment(ctx context.Context, p *portfolio.Portfolio) (string, error) {
	if a.backend == BackendNone {
		return "", nil
	}
	if p.History == nil {
		return "", portfolio.ErrNoHistory
	}

	prompt := fmt.Sprintf("%s\n\n%s", analystPrompt, historyTable(p.History))

	resp, err := a.client.Models.GenerateContent(ctx, a.model, genai.Text(prompt), nil)
	if err != nil {
		log.Error().Err(err).Str("Model", a.model).Msg("analysis request failed")
		return "", err
	}

	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		log.Error().Str("Model", a.model).Msg("analysis response empty")
		return "", fmt.Errorf("empty response from model %s", a.model)
	}

	var sb strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		sb.WriteString(part.Text)
	}
	return strings.TrimSpace(sb.String()), nil
}

// historyTable renders the tail of the indicator history as CSV-style text
func historyTable(h *portfolio.History) string {
	cols := make([]string, 0, len(promptColumns))
	for _, col := range promptColumns {
		if h.Frame.HasCol(col) {
			cols = append(cols, col)
		}
	}

	var sb strings.Builder
	sb.WriteString("date")
	for _, col := range cols {
		sb.WriteString(",")
		sb.WriteString(col)
	}
	sb.WriteString("\n")

	start := h.Frame.Len() - promptRows
	if start < 0 {
		start = 0
	}

	for rowIdx := start; rowIdx < h.Frame.Len(); rowIdx++ {
		sb.WriteString(h.Frame.Dates[rowIdx].Format("2006-01-02"))
		for _, col := range cols {
			v := h.Frame.Vals[h.Frame.ColIndex(col)][rowIdx]
			if math.IsNaN(v) || math.IsInf(v, 0) {
				sb.WriteString(",")
				continue
			}
			sb.WriteString(fmt.Sprintf(",%.4f", v))
		}
		sb.WriteString("\n")
	}
	return sb.String()
}
