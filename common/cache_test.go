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

package common_test

import (
	"context"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/chartfolio/cf-api/common"
)

var _ = Describe("Cache", func() {
	var (
		ctx   context.Context
		cache *common.Cache
	)

	BeforeEach(func() {
		ctx = context.Background()
		var err error
		cache, err = common.NewCache(4, "", 0)
		Expect(err).To(BeNil())
	})

	It("returns a miss for unknown keys", func() {
		_, err := cache.Get(ctx, "missing")
		Expect(err).To(MatchError(common.ErrCacheMiss))
	})

	It("round-trips a value through compression", func() {
		payload := []byte("the quick brown fox jumps over the lazy dog")
		Expect(cache.Set(ctx, "k", payload)).To(Succeed())
		got, err := cache.Get(ctx, "k")
		Expect(err).To(BeNil())
		Expect(got).To(Equal(payload))
	})

	It("evicts the oldest entry when full", func() {
		for _, key := range []string{"a", "b", "c", "d", "e"} {
			Expect(cache.Set(ctx, key, []byte(key))).To(Succeed())
		}
		Expect(cache.Len()).To(Equal(4))
		_, err := cache.Get(ctx, "a")
		Expect(err).To(MatchError(common.ErrCacheMiss))
	})

	It("purges everything on invalidate", func() {
		Expect(cache.Set(ctx, "k", []byte("v"))).To(Succeed())
		cache.Invalidate(ctx)
		Expect(cache.Len()).To(Equal(0))
		_, err := cache.Get(ctx, "k")
		Expect(err).To(MatchError(common.ErrCacheMiss))
	})
})

var _ = Describe("CacheKey", func() {
	It("is stable for the same parts", func() {
		Expect(common.CacheKey("GET", "https://example.com")).To(Equal(common.CacheKey("GET", "https://example.com")))
	})

	It("differs when parts move across the separator", func() {
		Expect(common.CacheKey("ab", "c")).NotTo(Equal(common.CacheKey("a", "bc")))
	})
})
