// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package clock

import (
	"testing"
	"time"
)

var epoch = time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

func TestFakeAdvance(t *testing.T) {
	fake := Fake(epoch)
	if !fake.Now().Equal(epoch) {
		t.Fatalf("Now() = %v, want %v", fake.Now(), epoch)
	}

	fake.Advance(90 * time.Second)
	if got := Since(fake, epoch); got != 90*time.Second {
		t.Errorf("Since = %v, want 90s", got)
	}

	fake.Advance(-time.Hour)
	if got := Since(fake, epoch); got != 90*time.Second {
		t.Errorf("negative Advance moved time: Since = %v", got)
	}
}

func TestFakeSet(t *testing.T) {
	fake := Fake(epoch)
	later := epoch.Add(time.Hour)
	fake.Set(later)
	if !fake.Now().Equal(later) {
		t.Errorf("Now() = %v, want %v", fake.Now(), later)
	}
	fake.Set(epoch)
	if !fake.Now().Equal(later) {
		t.Error("Set to an earlier time should be ignored")
	}
}

func TestRealIsMonotonicEnough(t *testing.T) {
	real := Real()
	first := real.Now()
	if Since(real, first) < 0 {
		t.Error("real clock ran backwards")
	}
}
