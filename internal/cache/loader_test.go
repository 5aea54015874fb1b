// Mediarec - Media Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/mediarec

package cache

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestLoader_HitAfterLoad(t *testing.T) {
	var calls atomic.Int32
	l := NewLoader(NewLRU[int](4, time.Minute), func(_ context.Context, key string) (int, error) {
		calls.Add(1)
		return len(key), nil
	})

	tests := []struct {
		key     string
		want    int
		wantHit bool
	}{
		{"heist", 5, false},
		{"heist", 5, true},
		{"space opera", 11, false},
	}
	for _, tt := range tests {
		v, hit, err := l.Get(context.Background(), tt.key)
		if err != nil {
			t.Fatalf("Get(%q) error = %v", tt.key, err)
		}
		if v != tt.want || hit != tt.wantHit {
			t.Errorf("Get(%q) = %d, hit=%v, want %d, hit=%v", tt.key, v, hit, tt.want, tt.wantHit)
		}
	}
	if got := calls.Load(); got != 2 {
		t.Errorf("load calls = %d, want 2", got)
	}
	if l.Len() != 2 {
		t.Errorf("Len() = %d, want 2", l.Len())
	}
}

func TestLoader_ErrorsNotCached(t *testing.T) {
	errEncode := errors.New("encoder unavailable")
	fail := true
	l := NewLoader(NewLRU[string](4, time.Minute), func(_ context.Context, key string) (string, error) {
		if fail {
			return "", errEncode
		}
		return key + "!", nil
	})

	if _, _, err := l.Get(context.Background(), "a"); !errors.Is(err, errEncode) {
		t.Fatalf("Get() error = %v, want %v", err, errEncode)
	}
	if l.Len() != 0 {
		t.Fatalf("failed load was cached")
	}

	fail = false
	v, hit, err := l.Get(context.Background(), "a")
	if err != nil || hit || v != "a!" {
		t.Errorf("Get() = %q, hit=%v, err=%v, want a!, miss, nil", v, hit, err)
	}
}

func TestLoader_ConcurrentMissesShareLoad(t *testing.T) {
	var calls atomic.Int32
	release := make(chan struct{})
	l := NewLoader(NewLRU[int](4, time.Minute), func(_ context.Context, _ string) (int, error) {
		calls.Add(1)
		<-release
		return 42, nil
	})

	const callers = 8
	var started, wg sync.WaitGroup
	started.Add(callers)
	wg.Add(callers)
	results := make([]int, callers)
	for i := 0; i < callers; i++ {
		go func(i int) {
			defer wg.Done()
			started.Done()
			v, _, err := l.Get(context.Background(), "same text")
			if err != nil {
				t.Errorf("Get() error = %v", err)
			}
			results[i] = v
		}(i)
	}
	started.Wait()
	// Give the goroutines time to join the in-flight load.
	time.Sleep(20 * time.Millisecond)
	close(release)
	wg.Wait()

	for i, v := range results {
		if v != 42 {
			t.Errorf("caller %d got %d, want 42", i, v)
		}
	}
	// Late callers may hit the cache instead of joining; never more than
	// one load for the key either way.
	if got := calls.Load(); got != 1 {
		t.Errorf("load calls = %d, want 1", got)
	}
}
