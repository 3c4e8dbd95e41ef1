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

package token

// Authority markers carried in the access token claims.
const (
	RoleAdmin      = "ROLE_ADMIN"
	RoleInstructor = "ROLE_INSTRUCTOR"
)

// Claims represents the standard JWT claims in addition to LearnHub
// specific claims. The decode that produces these does not verify the
// token signature; values are good for client-side route decisions only.
// The backend re-checks authorization on every API call.
type Claims struct {
	Audience    string   `json:"aud,omitempty"`
	ExpiresAt   int64    `json:"exp,omitempty"`
	Issuer      string   `json:"iss,omitempty"`
	Subject     string   `json:"sub,omitempty"`
	Authorities []string `json:"authorities"`
}

// HasAuthority reports whether the claims carry the supplied authority marker.
func (c Claims) HasAuthority(marker string) bool {
	for _, a := range c.Authorities {
		if a == marker {
			return true
		}
	}
	return false
}

// IsAdmin reports whether the claims carry the admin authority.
func (c Claims) IsAdmin() bool {
	return c.HasAuthority(RoleAdmin)
}

// IsInstructor reports whether the claims carry the instructor authority.
func (c Claims) IsInstructor() bool {
	return c.HasAuthority(RoleInstructor)
}

// Pair represents a pair of tokens, refresh and access.
type Pair struct {
	Access  string `yaml:"access" json:"accessToken"`
	Refresh string `yaml:"refresh" json:"refreshToken"`
}

// Decoder defines the interface for reading claims out of a serialized token.
type Decoder interface {
	// DecodeClaims unmarshals a token string into Claims without verifying
	// the signature.
	DecodeClaims(token string) (Claims, error)
}
