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
)

// Constants for known paths served by the gateway.
const (
	APIPathPrefix    = "/api/"
	RefreshTokenPath = "/api/auth/refresh"
	LoginTokenPath   = "/api/auth/login"
	LoginPath        = "/login"
	ForbiddenPath    = "/forbidden"
	HomePath         = "/"
)

// Cookie names set by the backend on login and refresh.
const (
	AccessTokenCookie  = "access_token"
	RefreshTokenCookie = "refresh_token"
)

// Router is an HTTP handler for routing gateway traffic to either the
// backend REST API or the web renderer.
type Router struct {
	APIHandler http.Handler
	AppHandler http.Handler
}

// Handler returns an http.Handler for routing.
func (rtr *Router) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.Handle(APIPathPrefix, rtr.APIHandler)
	mux.Handle(HomePath, rtr.AppHandler)

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mux.ServeHTTP(w, r)
	})
}
