// Copyright © 2024 LearnHub Ltd., or its subsidiaries. All Rights Reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestRefresher(t *testing.T) {
	t.Run("concurrent callers share one refresh call", func(t *testing.T) {
		var calls int32
		svr := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			atomic.AddInt32(&calls, 1)
			time.Sleep(100 * time.Millisecond)
			w.WriteHeader(http.StatusOK)
		}))
		defer svr.Close()

		sut := NewRefresher(svr.Client(), svr.URL, 0, discardLogger())

		var wg sync.WaitGroup
		errs := make([]error, 5)
		for i := range errs {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				errs[i] = sut.Refresh(context.Background())
			}(i)
		}
		wg.Wait()

		for i, err := range errs {
			if err != nil {
				t.Fatalf("caller %d: %v", i, err)
			}
		}
		if got := atomic.LoadInt32(&calls); got != 1 {
			t.Errorf("got %d refresh calls, want 1", got)
		}
	})

	t.Run("a settled refresh does not block the next attempt", func(t *testing.T) {
		var calls int32
		svr := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			if atomic.AddInt32(&calls, 1) == 1 {
				w.WriteHeader(http.StatusServiceUnavailable)
				return
			}
			w.WriteHeader(http.StatusOK)
		}))
		defer svr.Close()

		sut := NewRefresher(svr.Client(), svr.URL, 0, discardLogger())

		if err := sut.Refresh(context.Background()); err == nil {
			t.Fatal("expected non-nil err, but got nil")
		}
		if err := sut.Refresh(context.Background()); err != nil {
			t.Fatalf("expected second attempt to succeed: %v", err)
		}
		if got := atomic.LoadInt32(&calls); got != 2 {
			t.Errorf("got %d refresh calls, want 2", got)
		}
	})

	t.Run("a hung refresh endpoint times out", func(t *testing.T) {
		release := make(chan struct{})
		svr := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			<-release
			w.WriteHeader(http.StatusOK)
		}))
		// Unblock the handler before Close waits on it.
		defer func() {
			close(release)
			svr.Close()
		}()

		sut := NewRefresher(svr.Client(), svr.URL, 50*time.Millisecond, discardLogger())

		start := time.Now()
		err := sut.Refresh(context.Background())
		if err == nil {
			t.Fatal("expected non-nil err, but got nil")
		}
		if elapsed := time.Since(start); elapsed > 5*time.Second {
			t.Errorf("refresh took %v, expected the configured timeout to apply", elapsed)
		}
	})

	t.Run("failure carries the response status and body", func(t *testing.T) {
		svr := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			http.Error(w, "refresh token expired", http.StatusUnauthorized)
		}))
		defer svr.Close()

		sut := NewRefresher(svr.Client(), svr.URL, 0, discardLogger())

		err := sut.Refresh(context.Background())
		if err == nil {
			t.Fatal("expected non-nil err, but got nil")
		}
		want := "refreshing token: refresh token expired"
		if err.Error() != want {
			t.Errorf("got %q, want %q", err.Error(), want)
		}
	})
}
