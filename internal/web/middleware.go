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

package web

import (
	"net/http"
	"net/http/httputil"
	"path"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel/trace"

	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

// CtxKey wraps the int type and is meant for context values
type CtxKey int

// Common values to be stored inside the request context.
const (
	ClaimsKey CtxKey = iota // ClaimsKey is the context key for decoded access token claims
)

// Middleware is a function that accepts an http Handler and returns an http Handler following the middleware pattern
type Middleware func(http.Handler) http.Handler

// Adapt applies the middlewares to the supplied http handler and returns said handler
func Adapt(h http.Handler, mws ...Middleware) http.Handler {
	for _, mw := range mws {
		h = mw(h)
	}
	return h
}

// OtelMW configures OpenTelemetry http instrumentation
func OtelMW(tp trace.TracerProvider, op string, opts ...otelhttp.Option) Middleware {
	return func(next http.Handler) http.Handler {
		switch t := tp.(type) {
		case *sdktrace.TracerProvider:
			if t == nil {
				return next
			}
		}
		opts = append(opts, otelhttp.WithTracerProvider(tp))
		return otelhttp.NewHandler(next, op, opts...)
	}
}

// LoggingMW configures logging incoming requests
func LoggingMW(log *logrus.Entry, showHTTPDump bool) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if showHTTPDump {
				b, err := httputil.DumpRequest(r, true)
				if err != nil {
					log.Printf("web: http dump request: %v", err)
					return
				}
				log.Println(string(b))
			}
			sw := &StatusWriter{
				ResponseWriter: w,
			}
			next.ServeHTTP(sw, r)
			log.Printf("Served %s %s %v: %d %s", r.RemoteAddr, r.Method, r.URL.Path, sw.Status, humanize.Bytes(uint64(sw.Length)))
		})
	}
}

// CleanMW configures formatting incoming request paths
func CleanMW() Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			r.URL.Path = cleanPath(r.URL.Path)
			next.ServeHTTP(w, r)
		})
	}
}

func cleanPath(pth string) string {
	// The upstreams distinguish /p from /p/, so a trailing slash survives
	// the clean.
	trailing := strings.HasSuffix(pth, "/")
	pth = path.Clean("/" + pth)
	if trailing && pth[len(pth)-1] != '/' {
		pth = pth + "/"
	}
	return pth
}
