package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/haplotools/phaseprep/internal/genmap"
	"github.com/haplotools/phaseprep/internal/panel"
	"github.com/haplotools/phaseprep/internal/vcf"
)

func newPrepareCmd() *cobra.Command {
	var (
		refPath      string
		targetPath   string
		outPath      string
		outMode      string
		geneticMap   string
		allowSwap    bool
		chrom        int
		bpStart      int
		bpEnd        int
		cmMax        float64
		verboseDebug bool
	)

	cmd := &cobra.Command{
		Use:   "prepare",
		Short: "Synchronize the panels and build the packed segment table",
		Example: `  phaseprep prepare --ref ref.vcf.gz --target tgt.vcf.gz \
      --genetic-map genetic_map_hg38.txt.gz --geno-out matched.vcf.gz --out-mode z
  phaseprep prepare --ref ref.vcf --target tgt.vcf --chrom 20 \
      --bp-start 1000000 --bp-end 5000000 --genetic-map map.duckdb --geno-out out.vcf`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			// config-file values fill in flags the user did not pass
			if refPath == "" {
				refPath = viper.GetString("prepare.ref")
			}
			if targetPath == "" {
				targetPath = viper.GetString("prepare.target")
			}
			if geneticMap == "" {
				geneticMap = viper.GetString("prepare.genetic-map")
			}
			if refPath == "" || targetPath == "" {
				return fmt.Errorf("--ref and --target are required")
			}
			if (bpStart != 0 || bpEnd != 0) && chrom == 0 {
				return fmt.Errorf("--bp-start/--bp-end require --chrom")
			}
			if outMode != vcf.WriteModePlain && outMode != vcf.WriteModeGzip {
				return fmt.Errorf("unknown --out-mode %q (want %q or %q)",
					outMode, vcf.WriteModePlain, vcf.WriteModeGzip)
			}

			mapper, err := openMapper(geneticMap, chrom)
			if err != nil {
				return err
			}

			logger, err := newLogger(verboseDebug)
			if err != nil {
				return err
			}
			defer logger.Sync()

			loader := panel.NewLoader(mapper)
			loader.SetLogger(logger)

			data, err := loader.Load(panel.Options{
				RefPath:         refPath,
				TargetPath:      targetPath,
				AllowRefAltSwap: allowSwap,
				Chrom:           chrom,
				BpStart:         bpStart,
				BpEnd:           bpEnd,
				CMmax:           cmMax,
				OutPath:         outPath,
				OutMode:         outMode,
			})
			if err != nil {
				return err
			}

			fmt.Printf("Matched sites:      M = %d\n", data.M())
			fmt.Printf("Segments:           Mseg64 = %d (<=64 sites, <=%g cM each)\n",
				data.NSegments(), cmMax)
			fmt.Printf("Reference samples:  Nref = %d\n", data.NRef())
			fmt.Printf("Target samples:     Ntarget = %d\n", data.NTarget())
			fmt.Printf("Physical range:     %d bp\n", data.PhysRange())
			fmt.Printf("Genetic range:      %.4f cM\n", data.CMRange())
			fmt.Printf("Sites per cM:       %.0f   (recommended: 50-500)\n",
				float64(data.M())/data.CMRange())
			fmt.Printf("Matched target records written to %s\n", outPath)
			return nil
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&refPath, "ref", "", "Reference panel VCF (phased; .vcf or .vcf.gz)")
	flags.StringVar(&targetPath, "target", "", "Target panel VCF")
	flags.StringVar(&outPath, "geno-out", "-", "Output path for matched target records ('-' = stdout)")
	flags.StringVar(&outMode, "out-mode", vcf.WriteModePlain, "Output mode: v (plain VCF) or z (gzip VCF)")
	flags.StringVar(&geneticMap, "genetic-map", "", "Genetic map: 4-column text file (gzip ok) or .duckdb map cache")
	flags.BoolVar(&allowSwap, "allow-ref-alt-swap", false, "Match sites whose REF/ALT are swapped between the panels")
	flags.IntVar(&chrom, "chrom", 0, "Chromosome restriction (0 = lock onto the first matched site's chromosome)")
	flags.IntVar(&bpStart, "bp-start", 0, "Region start position (requires --chrom)")
	flags.IntVar(&bpEnd, "bp-end", 0, "Region end position, 0 = unbounded (requires --chrom)")
	flags.Float64Var(&cmMax, "cm-max", 1.0, "Maximum genetic-distance span per segment, cM")
	flags.BoolVar(&verboseDebug, "debug", false, "Enable debug logging")

	return cmd
}

// openMapper loads the genetic map from a text file or a DuckDB map cache.
func openMapper(path string, chrom int) (genmap.Mapper, error) {
	if path == "" {
		return nil, fmt.Errorf("--genetic-map is required")
	}

	if strings.HasSuffix(path, ".duckdb") {
		store, err := genmap.OpenStore(path)
		if err != nil {
			return nil, err
		}
		defer store.Close()
		if chrom != 0 {
			return store.LoadChrom(chrom)
		}
		return store.Load()
	}

	return genmap.Load(path)
}

func newLogger(debug bool) (*zap.Logger, error) {
	cfg := zap.NewDevelopmentConfig()
	if !debug {
		cfg.Level = zap.NewAtomicLevelAt(zap.InfoLevel)
	} else {
		cfg.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	}
	logger, err := cfg.Build()
	if err != nil {
		return nil, fmt.Errorf("build logger: %w", err)
	}
	return logger, nil
}
