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
	"learnhub-gateway/internal/token"

	"github.com/spf13/cobra"
)

// NewWhoamiCmd creates a new whoami command
func NewWhoamiCmd() *cobra.Command {
	whoamiCmd := &cobra.Command{
		Use:   "whoami",
		Short: "Show the identity behind the stored credentials.",
		Long:  `Decodes the stored access token and prints its claims.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			pair, err := LoadCredentials()
			if err != nil {
				reportErrorAndExit(JSONOutput, cmd.ErrOrStderr(), err)
				return nil
			}

			claims, err := token.NewJwxDecoder().DecodeClaims(pair.Access)
			if err != nil {
				reportErrorAndExit(JSONOutput, cmd.ErrOrStderr(), err)
				return nil
			}

			if err := JSONOutput(cmd.OutOrStdout(), &claims); err != nil {
				reportErrorAndExit(JSONOutput, cmd.ErrOrStderr(), err)
				return nil
			}
			return nil
		},
	}
	return whoamiCmd
}
