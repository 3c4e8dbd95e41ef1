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

package proxy

import (
	"crypto/tls"
	"net/http"
	"net/http/httputil"
	"net/url"

	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// Upstream holds a reverse proxy to a single backend origin.
type Upstream struct {
	Name     string
	Endpoint string
	log      *logrus.Entry
	rp       *httputil.ReverseProxy
}

// BuildUpstream returns an Upstream proxying to the given endpoint. With
// insecure set, certificate verification against the origin is skipped.
func BuildUpstream(log *logrus.Entry, name, endpoint string, insecure bool) (*Upstream, error) {
	tgt, err := url.Parse(endpoint)
	if err != nil {
		return nil, err
	}
	rp := httputil.NewSingleHostReverseProxy(tgt)
	if insecure {
		rp.Transport = &http.Transport{
			TLSClientConfig: &tls.Config{
				InsecureSkipVerify: true,
			},
		}
	}
	return &Upstream{
		Name:     name,
		Endpoint: endpoint,
		log:      log,
		rp:       rp,
	}, nil
}

func (u *Upstream) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	attrs := trace.WithAttributes(
		attribute.String("upstream.name", u.Name),
		attribute.String("upstream.endpoint", u.Endpoint))
	opts := otelhttp.WithSpanOptions(attrs)
	otelhttp.NewHandler(u.rp, "proxy", opts).ServeHTTP(w, r)
}
