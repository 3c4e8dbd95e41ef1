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

package token_test

import (
	"errors"
	"testing"

	"learnhub-gateway/internal/token"
)

type countingDecoder struct {
	calls  int
	claims map[string]token.Claims
}

func (d *countingDecoder) DecodeClaims(tkn string) (token.Claims, error) {
	d.calls++
	c, ok := d.claims[tkn]
	if !ok {
		return token.Claims{}, errors.New("unknown token")
	}
	return c, nil
}

func TestCachingDecoder(t *testing.T) {
	t.Run("it decodes a token once", func(t *testing.T) {
		inner := &countingDecoder{claims: map[string]token.Claims{
			"tkn-1": {Subject: "student@learnhub.io"},
		}}
		sut, err := token.NewCachingDecoder(inner, token.DefaultCacheSize)
		if err != nil {
			t.Fatal(err)
		}

		for i := 0; i < 3; i++ {
			c, err := sut.DecodeClaims("tkn-1")
			if err != nil {
				t.Fatal(err)
			}
			if c.Subject != "student@learnhub.io" {
				t.Errorf("got subject %q, want %q", c.Subject, "student@learnhub.io")
			}
		}

		if inner.calls != 1 {
			t.Errorf("got %d inner decodes, want 1", inner.calls)
		}
	})

	t.Run("it does not cache decode failures", func(t *testing.T) {
		inner := &countingDecoder{}
		sut, err := token.NewCachingDecoder(inner, token.DefaultCacheSize)
		if err != nil {
			t.Fatal(err)
		}

		for i := 0; i < 2; i++ {
			if _, err := sut.DecodeClaims("garbage"); err == nil {
				t.Fatal("expected non-nil err, but got nil")
			}
		}

		if inner.calls != 2 {
			t.Errorf("got %d inner decodes, want 2", inner.calls)
		}
	})

	t.Run("it caches tokens independently", func(t *testing.T) {
		inner := &countingDecoder{claims: map[string]token.Claims{
			"tkn-1": {Subject: "a@learnhub.io"},
			"tkn-2": {Subject: "b@learnhub.io"},
		}}
		sut, err := token.NewCachingDecoder(inner, token.DefaultCacheSize)
		if err != nil {
			t.Fatal(err)
		}

		c1, _ := sut.DecodeClaims("tkn-1")
		c2, _ := sut.DecodeClaims("tkn-2")

		if c1.Subject == c2.Subject {
			t.Error("expected distinct cached claims per token")
		}
	})
}
