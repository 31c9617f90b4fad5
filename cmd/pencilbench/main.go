// Copyright 2025 go-highway Authors
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

// Command pencilbench decomposes a synthetic field over an in-process world of
// ranks, transposes it to pencils and back, and checks every value.
//
// Usage:
//
//	pencilbench run --global 64,64,64 --procs 2,2,1 --axis x --components 3
//	pencilbench run --dim 2 --global 96,80 --procs 3,2 --axis y --dtype float32
//	pencilbench run --config bench.yaml --metrics-file pencil.prom
//
// Settings come from the optional YAML file, then PENCIL_* environment
// variables (PENCIL_LOG__LEVEL=debug), then flags. The command exits non-zero
// when any rank sees a value it did not expect.
package main

import (
	"os"

	"github.com/spf13/cobra"
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "pencilbench",
		Short:        "Exercise pencil transposes on an in-process decomposition",
		SilenceUsage: true,
	}
	root.AddCommand(newRunCmd())
	return root
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
