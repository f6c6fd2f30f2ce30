/* SPDX-License-Identifier: MIT
 *
 * Copyright (C) 2024-2026 The nuttx-ieee80211 Authors. All Rights Reserved.
 */

package crypto

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLogLimiter(t *testing.T) {
	var lim logLimiter
	now := time.Unix(1000, 0)

	allowed := 0
	for i := 0; i < 100; i++ {
		if lim.allow(now) {
			allowed++
		}
	}
	assert.Equal(t, dropLogsBurstable, allowed, "burst is bounded")

	// allowance refills with time
	now = now.Add(time.Second)
	refilled := 0
	for i := 0; i < 100; i++ {
		if lim.allow(now) {
			refilled++
		}
	}
	assert.Equal(t, dropLogsPerSecond, refilled)
}
