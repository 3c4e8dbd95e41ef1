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
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// NewCoursesCmd creates a new courses command
func NewCoursesCmd() *cobra.Command {
	coursesCmd := &cobra.Command{
		Use:              "courses",
		TraverseChildren: true,
		Short:            "Browse the course catalog",
		Long:             `Browsing for the course catalog`,
		Run: func(cmd *cobra.Command, args []string) {
			if err := cmd.Usage(); err != nil {
				fmt.Fprintf(os.Stderr, "error: %+v\n", err)
			}
			os.Exit(1)
		},
	}
	coursesCmd.PersistentFlags().String("addr", "https://localhost:8080", "Address of the gateway")
	coursesCmd.PersistentFlags().Bool("insecure", false, "For insecure connections")

	coursesCmd.AddCommand(NewCoursesListCmd())
	return coursesCmd
}

// NewCoursesListCmd creates a new list command
func NewCoursesListCmd() *cobra.Command {
	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List published courses.",
		Long:  `Lists the published courses visible to the logged-in account.`,
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

			client, err := createHTTPClient(addr, insecure)
			if err != nil {
				reportErrorAndExit(JSONOutput, cmd.ErrOrStderr(), err)
				return nil
			}

			pair, err := LoadCredentials()
			if err != nil {
				reportErrorAndExit(JSONOutput, cmd.ErrOrStderr(), err)
				return nil
			}
			if err := client.SetCredentials(pair); err != nil {
				reportErrorAndExit(JSONOutput, cmd.ErrOrStderr(), err)
				return nil
			}

			var courses json.RawMessage
			if err := client.Get(context.Background(), "/api/courses", nil, nil, &courses); err != nil {
				reportErrorAndExit(JSONOutput, cmd.ErrOrStderr(), err)
				return nil
			}

			if err := JSONOutput(cmd.OutOrStdout(), &courses); err != nil {
				reportErrorAndExit(JSONOutput, cmd.ErrOrStderr(), err)
				return nil
			}
			return nil
		},
	}
	return listCmd
}
