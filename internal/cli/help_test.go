// Copyright 2025 The sorodbg Authors
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

package cli

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func helpFixture() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "test",
		Short: "Test command",
	}
	rootCmd.PersistentFlags().Bool("verbose", false, "Verbose output")

	sampleCmd := &cobra.Command{
		Use:   "sample",
		Short: "Sample subcommand",
		Long:  "This is a sample subcommand for testing",
	}
	sampleCmd.Flags().String("flag", "", "A sample flag")
	rootCmd.AddCommand(sampleCmd)

	rootCmd.SetHelpCommand(NewHelpCommand(rootCmd))
	return rootCmd
}

func runHelp(t *testing.T, rootCmd *cobra.Command, args ...string) HelpResponse {
	t.Helper()
	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs(append([]string{"help"}, args...))
	require.NoError(t, rootCmd.Execute())

	var resp HelpResponse
	require.NoError(t, json.Unmarshal(buf.Bytes(), &resp), "output: %s", buf.String())
	return resp
}

func TestHelpJSONListsAllCommands(t *testing.T) {
	resp := runHelp(t, helpFixture(), "--json")

	assert.Equal(t, "help", resp.Command)
	assert.Nil(t, resp.Detail)
	require.NotEmpty(t, resp.Commands)

	names := make([]string, 0, len(resp.Commands))
	for _, c := range resp.Commands {
		names = append(names, c.Name)
	}
	assert.Contains(t, names, "sample")

	globals := make([]string, 0, len(resp.GlobalFlags))
	for _, f := range resp.GlobalFlags {
		globals = append(globals, f.Name)
	}
	assert.Contains(t, globals, "verbose")
}

func TestHelpJSONShowsSpecificCommand(t *testing.T) {
	resp := runHelp(t, helpFixture(), "sample", "--json")

	assert.Equal(t, "help sample", resp.Command)
	require.NotNil(t, resp.Detail)
	assert.Equal(t, "sample", resp.Detail.Name)

	flagNames := make([]string, 0, len(resp.Detail.Flags))
	for _, f := range resp.Detail.Flags {
		flagNames = append(flagNames, f.Name)
	}
	assert.Contains(t, flagNames, "flag")
}

func TestHelpUnknownCommand(t *testing.T) {
	rootCmd := helpFixture()
	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs([]string{"help", "nonexistent", "--json"})
	assert.Error(t, rootCmd.Execute())
}
