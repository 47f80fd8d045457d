/*
Copyright © 2018 the Cube authors.
This file is part of Cube.

Cube is free software: you can redistribute it and/or modify
it under the terms of the GNU General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

Cube is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU General Public License for more details.

You should have received a copy of the GNU General Public License
along with Cube.  If not, see <http://www.gnu.org/licenses/>.
*/

// Command cubeinfo inspects the variables of a NetCDF file. Without
// flags it prints each variable's shape, dtype and default chunking
// without reading any data; with --stats it realises the requested
// variables in one batch and prints summary statistics.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/gonum/floats"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/spatialmodel/cube"
	"github.com/spatialmodel/cube/lazy"
	"github.com/spatialmodel/cube/ncdf"
)

var (
	flagVars    []string
	flagStats   bool
	flagWorkers int
)

var root = &cobra.Command{
	Use:   "cubeinfo file.nc",
	Short: "cubeinfo describes the variables of a NetCDF file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if flagWorkers > 1 {
			lazy.SetDefaultScheduler(&lazy.Scheduler{Workers: flagWorkers})
		}
		return run(args[0])
	},
}

func init() {
	root.Flags().StringSliceVar(&flagVars, "var", nil, "variables to describe (default: all)")
	root.Flags().BoolVar(&flagStats, "stats", false, "realise the variables and print min/max/mean")
	root.Flags().IntVar(&flagWorkers, "workers", 1, "number of concurrent read workers")
}

func run(path string) error {
	f, err := ncdf.Open(path)
	if err != nil {
		return err
	}
	names := flagVars
	if len(names) == 0 {
		names = f.Variables()
	}

	var cubes []*cube.Cube
	for _, name := range names {
		c, err := f.Cube(name)
		if err != nil {
			log.WithFields(log.Fields{"variable": name, "error": err}).
				Warn("skipping variable")
			continue
		}
		fmt.Printf("%s%s %v units=%q chunks=%v\n", name,
			shapeString(c.Shape()), c.Dtype(), c.Units, c.LazyData().Chunks())
		cubes = append(cubes, c)
	}
	if !flagStats {
		return nil
	}

	// One batch, so variables sharing upstream reads are read once.
	owners := make([]cube.DataOwner, len(cubes))
	for i, c := range cubes {
		owners[i] = c
	}
	log.WithFields(log.Fields{"variables": len(owners), "workers": flagWorkers}).
		Info("realising variables")
	if err := cube.CoRealise(context.Background(), owners...); err != nil {
		return err
	}
	for _, c := range cubes {
		d, err := c.DenseArray(context.Background())
		if err != nil {
			return err
		}
		fmt.Printf("%s: min=%g max=%g mean=%g\n", c.Name,
			floats.Min(d.Elements), floats.Max(d.Elements),
			floats.Sum(d.Elements)/float64(len(d.Elements)))
	}
	return nil
}

func shapeString(shape []int) string {
	s := "("
	for i, d := range shape {
		if i > 0 {
			s += ", "
		}
		s += fmt.Sprintf("%d", d)
	}
	return s + ")"
}

func main() {
	if err := root.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(-1)
	}
}
