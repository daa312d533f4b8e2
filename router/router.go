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

package router

import (
	"github.com/gofiber/fiber/v2"

	"github.com/chartfolio/cf-api/handler"
	"github.com/chartfolio/cf-api/middleware"
)

// SetupRoutes registers the API on app
func SetupRoutes(app *fiber.App, state *handler.State) {
	api := app.Group("/v1", middleware.NewLogger())
	api.Get("/", handler.Ping)

	pf := api.Group("/portfolio")
	pf.Get("/", state.GetPortfolio)
	pf.Post("/", state.UploadPortfolio)
	pf.Post("/transactions", state.AddTransaction)

	api.Get("/history", state.GetHistory)
	api.Get("/history.csv", state.GetHistoryCSV)
	api.Get("/chart", state.GetChart)
	api.Get("/analysis", state.GetAnalysis)

	api.Post("/reset", state.Reset)
	api.Delete("/cache", state.InvalidateCache)
}
