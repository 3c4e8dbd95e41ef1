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
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"learnhub-gateway/internal/token"
	"learnhub-gateway/internal/web"

	homedir "github.com/mitchellh/go-homedir"
	"golang.org/x/term"
)

func TestReadPassword(t *testing.T) {
	afterEach := func() {
		termReadPassword = term.ReadPassword
		osExit = os.Exit
	}
	t.Run("it prompts for a password", func(t *testing.T) {
		defer afterEach()
		termReadPassword = func(_ int) ([]byte, error) {
			return []byte("test"), nil
		}
		var (
			in bytes.Buffer
			v  string
		)
		prompt := "prompt: "

		readPassword(&in, prompt, &v)

		if got := in.String(); !strings.HasPrefix(got, prompt) {
			t.Errorf("got prompt %q, want prefix %q", got, prompt)
		}
		if v != "test" {
			t.Errorf("got password %q, want %q", v, "test")
		}
	})
	t.Run("it handles term read failure", func(t *testing.T) {
		defer afterEach()
		termReadPassword = func(_ int) ([]byte, error) {
			return nil, errors.New("test error")
		}
		done := make(chan struct{})
		var statusCode int
		osExit = func(c int) {
			statusCode = c
			done <- struct{}{}
			done <- struct{}{} // stop this function returning
		}

		var (
			in bytes.Buffer
			v  string
		)
		go readPassword(&in, "prompt: ", &v)
		<-done

		if statusCode != 1 {
			t.Errorf("got exit code %d, want 1", statusCode)
		}
	})
}

func TestLogin(t *testing.T) {
	setTestHome(t)
	afterFn := func() {
		JSONOutput = jsonOutput
		osExit = os.Exit
	}

	t.Run("it stores the returned token pair", func(t *testing.T) {
		defer afterFn()
		ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path != web.LoginTokenPath {
				t.Errorf("got path %q, want %q", r.URL.Path, web.LoginTokenPath)
			}
			var creds struct {
				Email    string `json:"email"`
				Password string `json:"password"`
			}
			if err := json.NewDecoder(r.Body).Decode(&creds); err != nil {
				t.Fatal(err)
			}
			if creds.Email != "student@learnhub.test" {
				t.Errorf("got email %q", creds.Email)
			}
			if err := json.NewEncoder(w).Encode(&token.Pair{Access: "acc", Refresh: "ref"}); err != nil {
				t.Fatal(err)
			}
		}))
		defer ts.Close()

		var gotOutput bytes.Buffer
		cmd := NewRootCmd()
		cmd.SetOut(&gotOutput)
		cmd.SetArgs([]string{"login", "--addr", ts.URL, "--email", "student@learnhub.test", "-p", "secret"})
		if err := cmd.Execute(); err != nil {
			t.Fatal(err)
		}

		pair, err := LoadCredentials()
		if err != nil {
			t.Fatal(err)
		}
		if pair.Access != "acc" || pair.Refresh != "ref" {
			t.Errorf("got stored pair %+v", pair)
		}
	})
	t.Run("it requires a valid email argument", func(t *testing.T) {
		defer afterFn()
		var gotCode int
		done := make(chan struct{})
		osExit = func(code int) {
			gotCode = code
			done <- struct{}{}
			done <- struct{}{} // we can't let this function return
		}

		var gotOutput bytes.Buffer

		rootCmd := NewRootCmd()
		rootCmd.SetErr(&gotOutput)
		rootCmd.SetArgs([]string{"login", "--email", "  ", "-p", "secret"})
		go rootCmd.Execute()
		<-done

		wantCode := 1
		if gotCode != wantCode {
			t.Errorf("got exit code %d, want %d", gotCode, wantCode)
		}
		var gotErr CommandError
		if err := json.NewDecoder(&gotOutput).Decode(&gotErr); err != nil {
			t.Fatal(err)
		}
		wantErrMsg := "empty email not allowed"
		if gotErr.ErrorMsg != wantErrMsg {
			t.Errorf("got err %q, want %q", gotErr.ErrorMsg, wantErrMsg)
		}
	})
}

// setTestHome points $HOME at a scratch directory for the duration of the
// test, so stored credentials do not touch the real home directory.
func setTestHome(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("HOME", dir)
	homedir.DisableCache = true
	t.Cleanup(func() {
		homedir.DisableCache = false
		homedir.Reset()
	})
	homedir.Reset()
	return dir
}
