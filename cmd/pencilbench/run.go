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

package main

import (
	"github.com/ajroetker/go-pencil/internal/config"
	"github.com/ajroetker/go-pencil/internal/logging"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

func newRunCmd() *cobra.Command {
	var configFile string
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Round-trip a field through a pencil and verify it",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(configFile)
			if err != nil {
				return err
			}
			if err := applyFlags(cmd.Flags(), &cfg); err != nil {
				return err
			}
			logger, closer := logging.New(cfg.Log, cmd.ErrOrStderr())
			defer closer.Close()

			rep, err := runBench(cmd.Context(), cfg, logger)
			if err != nil {
				logger.Error("run failed", "err", err)
				return err
			}
			rep.print(cmd.OutOrStdout())
			return nil
		},
	}

	d := config.Default()
	f := cmd.Flags()
	f.StringVar(&configFile, "config", "", "YAML settings file")
	f.IntSlice("global", d.Global, "global grid extents, one per axis")
	f.IntSlice("procs", d.Procs, "natural process grid, one count per axis")
	f.String("axis", d.Axis, "pencil axis (x, y or z)")
	f.Int("dim", d.Dim, "dimensionality of the data (2 or 3)")
	f.Int("components", d.Components, "length of the trailing component axis, 0 for none")
	f.String("dtype", d.DType, "element type (int32, int64, float32, float64)")
	f.Int("iterations", d.Iterations, "number of round trips")
	f.Int("workers", d.Workers, "packing goroutines shared by all ranks, 0 to pack on each rank")
	f.String("indexing", d.Indexing, "bound convention reported by the partitions (zero or one)")
	f.String("metrics-file", "", "write a Prometheus text snapshot to this file")
	f.String("log-level", d.Log.Level, "debug, info, warn or error")
	f.Bool("log-json", false, "log JSON records")
	f.String("log-file", "", "log to this size-rotated file instead of stderr")
	return cmd
}

// applyFlags copies the flags set on the command line over cfg and validates
// the result.
func applyFlags(fs *pflag.FlagSet, cfg *config.Bench) error {
	var err error
	set := func(e error) {
		if err == nil {
			err = e
		}
	}
	fs.Visit(func(f *pflag.Flag) {
		var e error
		switch f.Name {
		case "global":
			cfg.Global, e = fs.GetIntSlice(f.Name)
		case "procs":
			cfg.Procs, e = fs.GetIntSlice(f.Name)
		case "axis":
			cfg.Axis, e = fs.GetString(f.Name)
		case "dim":
			cfg.Dim, e = fs.GetInt(f.Name)
		case "components":
			cfg.Components, e = fs.GetInt(f.Name)
		case "dtype":
			cfg.DType, e = fs.GetString(f.Name)
		case "iterations":
			cfg.Iterations, e = fs.GetInt(f.Name)
		case "workers":
			cfg.Workers, e = fs.GetInt(f.Name)
		case "indexing":
			cfg.Indexing, e = fs.GetString(f.Name)
		case "metrics-file":
			cfg.MetricsFile, e = fs.GetString(f.Name)
		case "log-level":
			cfg.Log.Level, e = fs.GetString(f.Name)
		case "log-json":
			cfg.Log.JSON, e = fs.GetBool(f.Name)
		case "log-file":
			cfg.Log.File, e = fs.GetString(f.Name)
		}
		set(e)
	})
	if err != nil {
		return err
	}
	return cfg.Validate()
}
