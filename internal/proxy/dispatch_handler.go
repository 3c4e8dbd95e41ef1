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
	"net/http"
	"strings"

	"learnhub-gateway/internal/web"

	"github.com/sirupsen/logrus"
)

// DispatchHandler splits traffic between the two backend origins: REST
// requests go to the API origin, everything else to the web-render origin.
type DispatchHandler struct {
	log *logrus.Entry
	api http.Handler
	app http.Handler
}

// NewDispatchHandler returns a new DispatchHandler over the supplied
// upstream handlers.
func NewDispatchHandler(log *logrus.Entry, api, app http.Handler) *DispatchHandler {
	return &DispatchHandler{
		log: log,
		api: api,
		app: app,
	}
}

func (h *DispatchHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	next := h.app
	if strings.HasPrefix(r.URL.Path, web.APIPathPrefix) {
		next = h.api
	}
	if next == nil {
		http.Error(w, "upstream not configured", http.StatusBadGateway)
		return
	}
	next.ServeHTTP(w, r)
}
