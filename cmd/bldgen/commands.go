package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/maptile"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/Faultbox/buildings/internal/compiler"
	"github.com/Faultbox/buildings/internal/config"
	"github.com/Faultbox/buildings/internal/pager"
)

func tileCmd(cfg func() *config.Config) *cobra.Command {
	var objPath string

	cmd := &cobra.Command{
		Use:   "tile Z/X/Y",
		Short: "Build one tile and print a summary",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			t, err := parseTile(args[0])
			if err != nil {
				return err
			}
			a, err := newApp(cfg())
			if err != nil {
				return err
			}

			start := time.Now()
			node := a.pager.CreateNode(t)
			if node == nil {
				fmt.Printf("%s: no node\n", pager.TileName(t))
				return nil
			}
			printNode(node, time.Since(start))

			if objPath == "" {
				return nil
			}
			f, err := os.Create(objPath)
			if err != nil {
				return errors.Wrap(err, "create obj file")
			}
			defer f.Close()
			return compiler.WriteOBJ(node, f)
		},
	}

	cmd.Flags().StringVar(&objPath, "obj", "", "Write the tile as Wavefront OBJ")
	return cmd
}

func lodsCmd(cfg func() *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "lods",
		Short: "Print the level range derived from the style sheet",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			a, err := newApp(cfg())
			if err != nil {
				return err
			}
			fmt.Printf("min level: %d\nmax level: %d\n", a.pager.MinLevel(), a.pager.MaxLevel())
			return nil
		},
	}
}

func coverCmd(cfg func() *config.Config) *cobra.Command {
	var zoom uint32

	cmd := &cobra.Command{
		Use:   "cover",
		Short: "Build every tile at a zoom level that covers the footprints",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := newApp(cfg())
			if err != nil {
				return err
			}
			if a.features.Len() == 0 {
				fmt.Println("no features")
				return nil
			}

			tiles := tilesInBounds(a.features.Bound(), zoom)
			var built, triangles atomic.Int64

			g, ctx := errgroup.WithContext(cmd.Context())
			g.SetLimit(a.cfg.Pager.Workers)
			start := time.Now()
			for _, t := range tiles {
				g.Go(func() error {
					if err := ctx.Err(); err != nil {
						return err
					}
					if node := a.pager.CreateNode(t); node != nil {
						built.Add(1)
						triangles.Add(int64(node.Triangles()))
					}
					return nil
				})
			}
			if err := g.Wait(); err != nil {
				return err
			}

			fmt.Printf("zoom %d: %d tiles, %d built, %d triangles in %s\n",
				zoom, len(tiles), built.Load(), triangles.Load(), time.Since(start).Round(time.Millisecond))
			return printMetrics(a)
		},
	}

	cmd.Flags().Uint32Var(&zoom, "zoom", 16, "Tile zoom level")
	return cmd
}

// parseTile reads a z/x/y tile key.
func configCmd(cfg func() *config.Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage the configuration file",
	}

	var out string
	var force bool
	initCmd := &cobra.Command{
		Use:   "init",
		Short: "Write the effective configuration to a file",
		Args:  cobra.NoArgs,
		RunE: func(c *cobra.Command, _ []string) error {
			path := out
			if path == "" {
				path = filepath.Join(config.ConfigDir(), "config.yaml")
			}
			if _, err := os.Stat(path); err == nil && !force {
				return errors.Newf("%s already exists (use --force to overwrite)", path)
			}

			var err error
			if out == "" {
				err = cfg().Save()
			} else {
				err = cfg().SaveTo(out)
			}
			if err != nil {
				return err
			}
			fmt.Fprintf(c.OutOrStdout(), "wrote %s\n", path)
			return nil
		},
	}
	initCmd.Flags().StringVar(&out, "out", "", "Output path (default: config.yaml in the user config directory)")
	initCmd.Flags().BoolVar(&force, "force", false, "Overwrite an existing file")

	cmd.AddCommand(initCmd)
	return cmd
}

func parseTile(s string) (maptile.Tile, error) {
	parts := strings.Split(s, "/")
	if len(parts) != 3 {
		return maptile.Tile{}, errors.Newf("tile %q: want Z/X/Y", s)
	}
	var v [3]uint32
	for i, p := range parts {
		n, err := strconv.ParseUint(p, 10, 32)
		if err != nil {
			return maptile.Tile{}, errors.Wrapf(err, "tile %q", s)
		}
		v[i] = uint32(n)
	}
	t := maptile.New(v[1], v[2], maptile.Zoom(v[0]))
	if !t.Valid() {
		return maptile.Tile{}, errors.Newf("tile %q is outside the zoom %d grid", s, v[0])
	}
	return t, nil
}

// tilesInBounds returns all tiles at a zoom level that intersect a bounding box.
func tilesInBounds(bounds orb.Bound, zoom uint32) []maptile.Tile {
	minTile := maptile.At(bounds.Min, maptile.Zoom(zoom))
	maxTile := maptile.At(bounds.Max, maptile.Zoom(zoom))

	// Tile rows grow southwards.
	minX, maxX := minTile.X, maxTile.X
	if minX > maxX {
		minX, maxX = maxX, minX
	}
	minY, maxY := minTile.Y, maxTile.Y
	if minY > maxY {
		minY, maxY = maxY, minY
	}

	var tiles []maptile.Tile
	for x := minX; x <= maxX; x++ {
		for y := minY; y <= maxY; y++ {
			tiles = append(tiles, maptile.New(x, y, maptile.Zoom(zoom)))
		}
	}
	return tiles
}

func printNode(node *compiler.Node, elapsed time.Duration) {
	fmt.Printf("%s: %d meshes, %d triangles, range %.0fm, %s\n",
		node.Name, len(node.Meshes), node.Triangles(), node.MaxRange, elapsed.Round(time.Millisecond))
	for _, m := range node.Meshes {
		at, h := m.Anchor()
		fmt.Printf("  building %d: %d vertices, %d groups, at %.6f,%.6f %.1fm\n",
			m.UID, len(m.Vertices), len(m.Groups), at[0], at[1], h)
	}
}

func printMetrics(a *app) error {
	families, err := a.registry.Gather()
	if err != nil {
		return errors.Wrap(err, "gather metrics")
	}
	for _, mf := range families {
		for _, m := range mf.GetMetric() {
			var labels []string
			for _, l := range m.GetLabel() {
				labels = append(labels, l.GetName()+"="+l.GetValue())
			}
			switch {
			case m.GetCounter() != nil:
				fmt.Printf("%s{%s} %g\n", mf.GetName(), strings.Join(labels, ","), m.GetCounter().GetValue())
			case m.GetHistogram() != nil:
				h := m.GetHistogram()
				fmt.Printf("%s count=%d sum=%.3fs\n", mf.GetName(), h.GetSampleCount(), h.GetSampleSum())
			}
		}
	}
	return nil
}
