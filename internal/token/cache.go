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
	lru "github.com/hashicorp/golang-lru"
)

// DefaultCacheSize bounds the number of decoded tokens held in memory.
const DefaultCacheSize = 512

// CachingDecoder wraps a Decoder with an LRU cache keyed on the raw token
// string. The route guard decodes the same access token on every navigation;
// caching avoids re-parsing it until the token rotates.
type CachingDecoder struct {
	inner Decoder
	cache *lru.Cache
}

var _ Decoder = &CachingDecoder{}

// NewCachingDecoder returns a CachingDecoder wrapping the supplied Decoder.
func NewCachingDecoder(inner Decoder, size int) (*CachingDecoder, error) {
	c, err := lru.New(size)
	if err != nil {
		return nil, err
	}
	return &CachingDecoder{
		inner: inner,
		cache: c,
	}, nil
}

// DecodeClaims returns cached Claims for the supplied token, decoding and
// caching on a miss. Decode failures are not cached.
func (d *CachingDecoder) DecodeClaims(tkn string) (Claims, error) {
	if v, ok := d.cache.Get(tkn); ok {
		return v.(Claims), nil
	}

	c, err := d.inner.DecodeClaims(tkn)
	if err != nil {
		return Claims{}, err
	}

	d.cache.Add(tkn, c)
	return c, nil
}
