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

package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
)

// GetAnalysis builds the history and asks the configured AI backend for a
// commentary on the indicators. With the none backend the comment is empty
// and enabled is false; a failed model call degrades the same way.
func (s *State) GetAnalysis(c *fiber.Ctx) error {
	q, err := parseHistoryQuery(c)
	if err != nil {
		return err
	}

	s.lock.Lock()
	defer s.lock.Unlock()

	if err := s.ensureHistory(c, q); err != nil {
		return err
	}

	comment, err := s.analyst.Comment(c.UserContext(), s.portfolio)
	if err != nil {
		log.Warn().Err(err).Msg("analysis unavailable")
	}

	return c.JSON(fiber.Map{
		"enabled": s.analyst.Enabled(),
		"comment": comment,
	})
}
