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
	"io"
	"io/ioutil"
	"log"
	"net/http"
	"os"

	"learnhub-gateway/internal/api"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	homedir "github.com/mitchellh/go-homedir"
	"github.com/spf13/viper"
)

var cfgFile string

// Hooks that may be overridden for testing.
var osExit = os.Exit

// NewRootCmd creates a new base command when called without any subcommands
func NewRootCmd() *cobra.Command {
	cobra.OnInitialize(initConfig)

	rootCmd := &cobra.Command{
		Use:   "learnctl",
		Short: "learnctl is used to interact with the learnhub gateway",
		Long: `learnctl logs in to a learnhub gateway, inspects the stored
	credentials and browses the course catalog`,
		Run: func(cmd *cobra.Command, args []string) {
			if err := cmd.Usage(); err != nil {
				fmt.Fprintf(os.Stderr, "error: %+v\n", err)
			}
			os.Exit(1)
		},
	}
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.learnctl.yaml)")

	rootCmd.AddCommand(NewLoginCmd())
	rootCmd.AddCommand(NewWhoamiCmd())
	rootCmd.AddCommand(NewCoursesCmd())
	return rootCmd
}

// CommandError wraps errors for reporting.
type CommandError struct {
	ErrorMsg string
}

// ErrorReporter represents a reporting function that can report in a specific format.
type ErrorReporter func(io.Writer, interface{}) error

func reportErrorAndExit(er ErrorReporter, w io.Writer, err error) {
	v := &CommandError{ErrorMsg: err.Error()}
	reporterErr := er(w, v)
	if reporterErr != nil {
		log.Fatal(reporterErr)
	}
	osExit(1)
}

// JSONOutput writes the value as indented json. It is a variable so tests
// can silence output.
var JSONOutput ErrorReporter = jsonOutput

func jsonOutput(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(&v); err != nil {
		return err
	}
	return nil
}

func createHTTPClient(addr string, insecure bool) (api.Client, error) {
	l := logrus.New()
	l.SetOutput(ioutil.Discard)

	c, err := api.New(context.Background(), addr, l.WithContext(context.Background()), api.ClientOptions{
		Insecure:   insecure,
		HTTPClient: &http.Client{},
	})
	if err != nil {
		return nil, err
	}

	return c, nil
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	if cfgFile != "" {
		// Use config file from the flag.
		viper.SetConfigFile(cfgFile)
	} else {
		// Find home directory.
		home, err := homedir.Dir()
		if err != nil {
			fmt.Println(err)
			os.Exit(1)
		}

		// Search config in home directory with name ".learnctl" (without extension).
		viper.AddConfigPath(home)
		viper.SetConfigName(".learnctl")
	}

	viper.AutomaticEnv() // read in environment variables that match

	// If a config file is found, read it in.
	_ = viper.ReadInConfig()
}
