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
	"fmt"
	"io"
	"io/ioutil"
	"net/http"
	"strings"
	"time"

	"learnhub-gateway/internal/web"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/singleflight"
)

// DefaultRefreshTimeout bounds the refresh call when no timeout is configured.
// A hung refresh endpoint would otherwise stall every queued request.
const DefaultRefreshTimeout = 30 * time.Second

const refreshErrorBodyLimit = 1024

// Refresher coordinates access token refresh for a client. Any number of
// goroutines may call Refresh concurrently; at most one POST to the refresh
// endpoint is in flight at a time, and every caller that joins while it is
// outstanding observes the same outcome as the initiator. Once the call
// settles the coordination state resets, so a later 401 starts a fresh
// attempt.
type Refresher struct {
	http    *http.Client
	host    string
	timeout time.Duration
	group   singleflight.Group
	log     *logrus.Entry
}

// NewRefresher returns a Refresher posting to the refresh endpoint on the
// supplied host. The http client is shared with the API client so that
// refreshed credential cookies apply to retried requests.
func NewRefresher(httpClient *http.Client, host string, timeout time.Duration, log *logrus.Entry) *Refresher {
	if timeout <= 0 {
		timeout = DefaultRefreshTimeout
	}
	return &Refresher{
		http:    httpClient,
		host:    host,
		timeout: timeout,
		log:     log,
	}
}

// Refresh mints a new access credential via the refresh endpoint.
// Concurrent callers share a single underlying call and fail or succeed
// together.
func (rf *Refresher) Refresh(_ context.Context) error {
	_, err, _ := rf.group.Do("refresh", func() (interface{}, error) {
		return nil, rf.refresh()
	})
	return err
}

func (rf *Refresher) refresh() error {
	// The refresh call carries its own deadline. Deriving it from the
	// initiating request's context would cancel the shared call for every
	// waiter whenever the initiator goes away.
	ctx, cancel := context.WithTimeout(context.Background(), rf.timeout)
	defer cancel()

	u := strings.TrimSuffix(rf.host, "/") + web.RefreshTokenPath
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u, nil)
	if err != nil {
		return err
	}
	req.Header.Set(HeaderKeyRequestedWith, HeaderValRequestedWith)

	res, err := rf.http.Do(req)
	if err != nil {
		rf.log.WithError(err).Error("api: refreshing token")
		return fmt.Errorf("refreshing token: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode < 200 || res.StatusCode > 299 {
		b, _ := ioutil.ReadAll(io.LimitReader(res.Body, refreshErrorBodyLimit))
		msg := strings.TrimSpace(string(b))
		if msg == "" {
			msg = http.StatusText(res.StatusCode)
		}
		err := web.JSONError{ErrorMsg: fmt.Sprintf("refreshing token: %s", msg), Code: res.StatusCode}
		rf.log.WithError(err).Error("api: refreshing token")
		return err
	}

	rf.log.Debug("api: access token refreshed")
	return nil
}
