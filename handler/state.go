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

// Package handler implements the HTTP API. All endpoints operate on a single
// State holding the active portfolio; Reset returns it to an empty
// portfolio without touching the oracle caches.
package handler

import (
	"context"
	"sync"

	"github.com/gofiber/fiber/v2"
	"github.com/spf13/viper"

	"github.com/chartfolio/cf-api/ai"
	"github.com/chartfolio/cf-api/data"
	"github.com/chartfolio/cf-api/portfolio"
)

// State is the application state shared by all requests
type State struct {
	lock sync.Mutex

	manager   *data.Manager
	analyst   *ai.Analyst
	portfolio *portfolio.Portfolio
}

// NewState creates the application state with an empty portfolio
func NewState(manager *data.Manager, analyst *ai.Analyst) *State {
	return &State{
		manager:   manager,
		analyst:   analyst,
		portfolio: portfolio.NewPortfolio(manager, viper.GetString("portfolio.currency")),
	}
}

// Reset replaces the active portfolio with an empty one. Oracle caches are
// not touched; use InvalidateCache for that.
func (s *State) Reset(c *fiber.Ctx) error {
	s.lock.Lock()
	defer s.lock.Unlock()

	s.portfolio = portfolio.NewPortfolio(s.manager, viper.GetString("portfolio.currency"))
	return c.JSON(fiber.Map{"status": "reset"})
}

// InvalidateCache clears every memoized oracle lookup; the next history load
// refetches everything
func (s *State) InvalidateCache(c *fiber.Ctx) error {
	s.manager.Invalidate(context.Background())
	return c.JSON(fiber.Map{"status": "cache invalidated"})
}

// Ping is a liveness check
func Ping(c *fiber.Ctx) error {
	return c.SendString("cfapi is running")
}
