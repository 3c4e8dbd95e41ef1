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
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"syscall"

	"learnhub-gateway/internal/token"
	"learnhub-gateway/internal/web"

	"github.com/spf13/cobra"
	"golang.org/x/term"
)

// Hook for faking the terminal password read in tests.
var termReadPassword = term.ReadPassword

// NewLoginCmd creates a new login command
func NewLoginCmd() *cobra.Command {
	loginCmd := &cobra.Command{
		Use:   "login",
		Short: "Log in to a learnhub gateway.",
		Long:  `Logs in to a learnhub gateway and stores the token pair for later commands.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			addr, err := cmd.Flags().GetString("addr")
			if err != nil {
				reportErrorAndExit(JSONOutput, cmd.ErrOrStderr(), err)
				return err
			}
			insecure, err := cmd.Flags().GetBool("insecure")
			if err != nil {
				reportErrorAndExit(JSONOutput, cmd.ErrOrStderr(), err)
				return err
			}
			email, err := cmd.Flags().GetString("email")
			if err != nil {
				reportErrorAndExit(JSONOutput, cmd.ErrOrStderr(), err)
				return err
			}
			if strings.TrimSpace(email) == "" {
				reportErrorAndExit(JSONOutput, cmd.ErrOrStderr(), errors.New("empty email not allowed"))
			}

			password, err := cmd.Flags().GetString("password")
			if err != nil {
				reportErrorAndExit(JSONOutput, cmd.ErrOrStderr(), err)
				return err
			}
			// If the password was not provided...
			if pf := cmd.Flags().Lookup("password"); !pf.Changed {
				// Get password from stdin
				readPassword(cmd.ErrOrStderr(), "Enter password: ", &password)
			}

			pair, err := doLoginRequest(context.Background(), addr, insecure, email, password)
			if err != nil {
				reportErrorAndExit(JSONOutput, cmd.ErrOrStderr(), err)
				return nil
			}

			if err := SaveCredentials(pair); err != nil {
				reportErrorAndExit(JSONOutput, cmd.ErrOrStderr(), err)
				return nil
			}

			fmt.Fprintln(cmd.OutOrStdout(), "Logged in.")
			return nil
		},
	}

	loginCmd.Flags().String("addr", "https://localhost:8080", "Address of the gateway")
	loginCmd.Flags().Bool("insecure", false, "For insecure connections")
	loginCmd.Flags().StringP("email", "e", "", "Account email")
	if err := loginCmd.MarkFlagRequired("email"); err != nil {
		panic(err)
	}
	loginCmd.Flags().StringP("password", "p", "", "Specify password, or omit to use stdin")
	return loginCmd
}

func doLoginRequest(ctx context.Context, addr string, insecure bool, email, password string) (token.Pair, error) {
	client, err := createHTTPClient(addr, insecure)
	if err != nil {
		return token.Pair{}, err
	}

	body := struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}{
		Email:    email,
		Password: password,
	}
	var pair token.Pair
	if err := client.Post(ctx, web.LoginTokenPath, nil, nil, &body, &pair); err != nil {
		return token.Pair{}, err
	}
	return pair, nil
}

func readPassword(w io.Writer, prompt string, p *string) {
	fmt.Fprintf(w, prompt)
	b, err := termReadPassword(int(syscall.Stdin))
	if err != nil {
		reportErrorAndExit(JSONOutput, w, err)
	}
	fmt.Fprintln(w)
	*p = string(b)
}
