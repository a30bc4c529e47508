package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/haplotools/phaseprep/internal/genmap"
)

func newConvertMapCmd() *cobra.Command {
	var (
		mapPath  string
		cacheOut string
	)

	cmd := &cobra.Command{
		Use:   "convert-map",
		Short: "Convert a text genetic map into a DuckDB map cache",
		Long: `Parses a 4-column genetic map text file (optionally gzipped) and stores
its interpolation points in a DuckDB database. Later prepare runs can pass
the .duckdb file to --genetic-map and skip text parsing.`,
		Example: `  phaseprep convert-map --genetic-map genetic_map_hg38.txt.gz --map-cache map.duckdb`,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if mapPath == "" || cacheOut == "" {
				return fmt.Errorf("--genetic-map and --map-cache are required")
			}

			ip, err := genmap.Load(mapPath)
			if err != nil {
				return err
			}

			store, err := genmap.OpenStore(cacheOut)
			if err != nil {
				return err
			}
			defer store.Close()

			if err := store.Save(ip); err != nil {
				return err
			}

			chroms := ip.Chromosomes()
			points := 0
			for _, c := range chroms {
				pos, _ := ip.Points(c)
				points += len(pos)
			}
			fmt.Printf("Stored %d map points across %d chromosomes in %s\n",
				points, len(chroms), cacheOut)
			return nil
		},
	}

	cmd.Flags().StringVar(&mapPath, "genetic-map", "", "Genetic map text file (gzip ok)")
	cmd.Flags().StringVar(&cacheOut, "map-cache", "", "Output DuckDB file")

	return cmd
}
