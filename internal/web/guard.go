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
	"path"
	"regexp"
	"strings"
	"sync"

	"learnhub-gateway/internal/token"

	"github.com/sirupsen/logrus"
)

// RouteRule is a declarative access rule for a group of path prefixes.
// Rules are evaluated in declaration order; within a rule the first
// matching prefix is checked, and the first rule whose condition triggers
// produces the redirect.
type RouteRule struct {
	Routes            []string `yaml:"routes"`
	RequireAuth       bool     `yaml:"requireAuth"`
	RequireAdmin      bool     `yaml:"requireAdmin"`
	RequireInstructor bool     `yaml:"requireInstructor"`

	RedirectIfAuth         string `yaml:"redirectIfAuth"`
	RedirectIfNoAuth       string `yaml:"redirectIfNoAuth"`
	RedirectIfNoAdmin      string `yaml:"redirectIfNoAdmin"`
	RedirectIfNoInstructor string `yaml:"redirectIfNoInstructor"`
}

// DefaultRouteRules returns the rule set shipped with the gateway.
func DefaultRouteRules() []RouteRule {
	return []RouteRule{
		{
			Routes:         []string{"/login", "/register", "/forgot-password"},
			RedirectIfAuth: HomePath,
		},
		{
			Routes:            []string{"/admin"},
			RequireAuth:       true,
			RequireAdmin:      true,
			RedirectIfNoAuth:  LoginPath,
			RedirectIfNoAdmin: ForbiddenPath,
		},
		{
			Routes:                 []string{"/instructor"},
			RequireAuth:            true,
			RequireInstructor:      true,
			RedirectIfNoAuth:       LoginPath,
			RedirectIfNoInstructor: ForbiddenPath,
		},
		{
			Routes:           []string{"/profile", "/my-courses", "/cart", "/checkout", "/quiz", "/forum/new"},
			RequireAuth:      true,
			RedirectIfNoAuth: LoginPath,
		},
	}
}

// Paths and file extensions the guard never evaluates.
var (
	staticPathPrefixes = []string{"/static/", "/assets/", "/favicon.ico"}

	staticFileExts = map[string]struct{}{
		".png":   {},
		".jpg":   {},
		".jpeg":  {},
		".gif":   {},
		".svg":   {},
		".ico":   {},
		".webp":  {},
		".css":   {},
		".js":    {},
		".map":   {},
		".woff":  {},
		".woff2": {},
	}

	// A learning session requires some credential regardless of the rule
	// list; the backend decides whether it is still good.
	learningSessionPattern = regexp.MustCompile(`^/course/[^/]+/learn(/|$)`)
)

// Guard decides, per navigation, whether a request may proceed or must be
// redirected, based on cookie presence and optimistically decoded claims.
// It is a usability pre-filter only: an expired-but-present access token
// passes the bare authentication check here, and the backend re-checks
// authorization on every API call.
type Guard struct {
	log     *logrus.Entry
	decoder token.Decoder

	mu    sync.RWMutex // guards rules
	rules []RouteRule
}

// NewGuard returns a Guard evaluating the supplied rules in order.
func NewGuard(log *logrus.Entry, decoder token.Decoder, rules []RouteRule) *Guard {
	return &Guard{
		log:     log,
		decoder: decoder,
		rules:   rules,
	}
}

// UpdateRules replaces the rule set. In-flight checks keep the set they
// started with.
func (g *Guard) UpdateRules(rules []RouteRule) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.rules = rules
}

// Rules returns the current rule set.
func (g *Guard) Rules() []RouteRule {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.rules
}

// Middleware returns the guard as a Middleware. Redirects are issued
// before the next handler runs.
func (g *Guard) Middleware() Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if dest, ok := g.Check(r); ok {
				http.Redirect(w, r, dest, http.StatusFound)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// Check returns a redirect destination and true when the request must be
// redirected. It never fails: an undecodable access token degrades to
// unauthenticated behavior.
func (g *Guard) Check(r *http.Request) (string, bool) {
	pth := r.URL.Path
	if exemptPath(pth) {
		return "", false
	}

	access := cookieValue(r, AccessTokenCookie)
	refresh := cookieValue(r, RefreshTokenCookie)

	var claims token.Claims
	if access != "" {
		c, err := g.decoder.DecodeClaims(access)
		if err != nil {
			g.log.WithError(err).Debug("guard: undecodable access token")
		} else {
			claims = c
		}
	}

	if learningSessionPattern.MatchString(pth) && access == "" && refresh == "" {
		return LoginPath, true
	}

	g.mu.RLock()
	rules := g.rules
	g.mu.RUnlock()

	for _, rule := range rules {
		for _, prefix := range rule.Routes {
			if !strings.HasPrefix(pth, prefix) {
				continue
			}

			if rule.RequireAuth && access == "" && refresh == "" {
				return rule.RedirectIfNoAuth, true
			}
			if rule.RequireAdmin && !claims.IsAdmin() {
				return rule.RedirectIfNoAdmin, true
			}
			if rule.RequireInstructor && !claims.IsInstructor() {
				return rule.RedirectIfNoInstructor, true
			}
			if !rule.RequireAuth && access != "" && rule.RedirectIfAuth != "" {
				return rule.RedirectIfAuth, true
			}

			// The first matching prefix decides for this rule; move on
			// to the next rule.
			break
		}
	}

	return "", false
}

func exemptPath(pth string) bool {
	if strings.HasPrefix(pth, APIPathPrefix) {
		return true
	}
	for _, p := range staticPathPrefixes {
		if strings.HasPrefix(pth, p) {
			return true
		}
	}
	if _, ok := staticFileExts[strings.ToLower(path.Ext(pth))]; ok {
		return true
	}
	return false
}

func cookieValue(r *http.Request, name string) string {
	c, err := r.Cookie(name)
	if err != nil {
		return ""
	}
	return c.Value
}
