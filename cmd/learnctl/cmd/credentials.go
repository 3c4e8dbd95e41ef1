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

package cmd

import (
	"fmt"
	"io/ioutil"
	"os"
	"path/filepath"

	"learnhub-gateway/internal/token"

	homedir "github.com/mitchellh/go-homedir"
	"gopkg.in/yaml.v2"
)

// CredentialsPath returns the location of the stored token pair.
func CredentialsPath() (string, error) {
	home, err := homedir.Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".learnhub", "credentials.yaml"), nil
}

// LoadCredentials reads the stored token pair.
func LoadCredentials() (token.Pair, error) {
	p, err := CredentialsPath()
	if err != nil {
		return token.Pair{}, err
	}
	b, err := ioutil.ReadFile(p)
	if err != nil {
		return token.Pair{}, fmt.Errorf("reading credentials, run login first: %w", err)
	}
	var pair token.Pair
	if err := yaml.Unmarshal(b, &pair); err != nil {
		return token.Pair{}, fmt.Errorf("decoding credentials: %w", err)
	}
	return pair, nil
}

// SaveCredentials persists the token pair with owner-only permissions.
func SaveCredentials(pair token.Pair) error {
	p, err := CredentialsPath()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(p), 0700); err != nil {
		return err
	}
	b, err := yaml.Marshal(&pair)
	if err != nil {
		return err
	}
	return ioutil.WriteFile(p, b, 0600)
}
