// elMix: likelihood ratios for forensic DNA mixtures.
// Copyright (c) 2026 imec vzw.

// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as
// published by the Free Software Foundation, either version 3 of the
// License, or (at your option) any later version, and Additional Terms
// (see below).

// This program is distributed in the hope that it will be useful, but
// WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the GNU
// Affero General Public License for more details.

// You should have received a copy of the GNU Affero General Public
// License and Additional Terms along with this program. If not, see
// <https://github.com/ExaScience/elmix/blob/master/LICENSE.txt>.

package likelihood

import (
	"log"

	lru "github.com/hashicorp/golang-lru/v2"
)

// CandidateCacheSize bounds the number of per-locus candidate results a
// Calculator keeps.
const CandidateCacheSize = 1 << 16

// A cacheKey identifies a candidate's two-allele genotype at a locus.
// The allele IDs are ordered, first <= second.
type cacheKey struct {
	locus, first, second int
}

// A resultCache holds per-locus probabilities, keyed by the candidate
// genotype they were computed for, so that later candidates sharing the
// genotype at that locus do not need recomputation. The least recently
// used entries are evicted once the cache is full.
type resultCache struct {
	entries *lru.Cache[cacheKey, float64]
}

func newResultCache(capacity int) *resultCache {
	entries, err := lru.New[cacheKey, float64](capacity)
	if err != nil {
		log.Panic(err)
	}
	return &resultCache{entries: entries}
}

func (c *resultCache) get(key cacheKey) (float64, bool) {
	return c.entries.Get(key)
}

func (c *resultCache) put(key cacheKey, value float64) {
	c.entries.Add(key, value)
}

func (c *resultCache) len() int {
	return c.entries.Len()
}

func (c *resultCache) reset() {
	c.entries.Purge()
}
