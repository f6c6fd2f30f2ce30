/* SPDX-License-Identifier: MIT
 *
 * Copyright (C) 2024-2026 The nuttx-ieee80211 Authors. All Rights Reserved.
 */

package crypto

import (
	"sync"
	"time"
)

const (
	dropLogsPerSecond = 4
	dropLogsBurstable = 10
	dropLogCost       = 1000000000 / dropLogsPerSecond
	dropLogMaxTokens  = int64(dropLogCost * dropLogsBurstable)
)

// logLimiter is a token bucket bounding how often per-frame drops are
// logged. Tokens are nanoseconds of accumulated allowance.
type logLimiter struct {
	mu     sync.Mutex
	inited bool
	last   time.Time
	tokens int64
}

func (lim *logLimiter) allow(now time.Time) bool {
	lim.mu.Lock()
	defer lim.mu.Unlock()
	if !lim.inited {
		lim.inited = true
		lim.last = now
		lim.tokens = dropLogMaxTokens - dropLogCost
		return true
	}
	tokens := lim.tokens + now.Sub(lim.last).Nanoseconds()
	if tokens > dropLogMaxTokens {
		tokens = dropLogMaxTokens
	}
	lim.last = now
	if tokens < dropLogCost {
		lim.tokens = tokens
		return false
	}
	lim.tokens = tokens - dropLogCost
	return true
}
