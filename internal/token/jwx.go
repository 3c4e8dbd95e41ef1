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

import (
	"encoding/json"
	"fmt"

	"github.com/lestrrat-go/jwx/jwt"
)

// JwxDecoder implements the Decoder API via github.com/lestrrat-go/jwx
type JwxDecoder struct{}

var _ Decoder = &JwxDecoder{}

// NewJwxDecoder returns a JwxDecoder.
func NewJwxDecoder() *JwxDecoder {
	jwt.Settings(jwt.WithFlattenAudience(true))
	return &JwxDecoder{}
}

// DecodeClaims parses a token and unmarshals it into Claims. The signature
// is not verified and expiry is not validated; an expired token still
// decodes. Do not use the result as a security decision.
func (d *JwxDecoder) DecodeClaims(tkn string) (Claims, error) {
	t, err := jwt.ParseString(tkn)
	if err != nil {
		return Claims{}, fmt.Errorf("parsing token: %w", err)
	}

	data, err := json.Marshal(t)
	if err != nil {
		return Claims{}, err
	}

	var c Claims
	if err := json.Unmarshal(data, &c); err != nil {
		return Claims{}, err
	}

	return c, nil
}
