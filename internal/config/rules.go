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

package config

import (
	"bytes"
	"fmt"
	"io"
	"io/ioutil"
	"strings"

	"learnhub-gateway/internal/web"

	"gopkg.in/yaml.v2"
)

// ReadRouteRules decodes a route-rule document. Every rule must name at
// least one route prefix, every prefix must be rooted, and a rule that
// requires something must say where to send requests that lack it.
func ReadRouteRules(r io.Reader) ([]web.RouteRule, error) {
	b, err := ioutil.ReadAll(r)
	if err != nil {
		return nil, err
	}

	var doc struct {
		Rules []web.RouteRule `yaml:"rules"`
	}
	if err := yaml.UnmarshalStrict(b, &doc); err != nil {
		return nil, fmt.Errorf("decoding route rules: %w", err)
	}

	for i, rule := range doc.Rules {
		if len(rule.Routes) == 0 {
			return nil, fmt.Errorf("rule %d: no routes", i)
		}
		for _, p := range rule.Routes {
			if !strings.HasPrefix(p, "/") {
				return nil, fmt.Errorf("rule %d: route %q must start with /", i, p)
			}
		}
		if rule.RequireAuth && rule.RedirectIfNoAuth == "" {
			return nil, fmt.Errorf("rule %d: requireAuth without redirectIfNoAuth", i)
		}
		if rule.RequireAdmin && rule.RedirectIfNoAdmin == "" {
			return nil, fmt.Errorf("rule %d: requireAdmin without redirectIfNoAdmin", i)
		}
		if rule.RequireInstructor && rule.RedirectIfNoInstructor == "" {
			return nil, fmt.Errorf("rule %d: requireInstructor without redirectIfNoInstructor", i)
		}
	}
	return doc.Rules, nil
}

// LoadRouteRules reads the rule file at path. A missing or invalid file is
// an error; callers decide whether to fall back to the built-in defaults.
func LoadRouteRules(path string) ([]web.RouteRule, error) {
	b, err := ioutil.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ReadRouteRules(bytes.NewReader(b))
}
