package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"sort"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/anikeya9/stackscan/pkg/config"
	"github.com/anikeya9/stackscan/pkg/dump"
	"github.com/anikeya9/stackscan/pkg/logger"
	"github.com/anikeya9/stackscan/pkg/stacking"
)

var version = "1.0.0"

func main() {
	// Load .env file if it exists
	_ = godotenv.Load()

	root := &cobra.Command{
		Use:   "stackscan",
		Short: "Stackscan - bilayer stacking classifier",
		Long: `Stackscan classifies the local interlayer registration (stacking type)
of every top-layer atom in a single-frame LAMMPS dump of a bilayer
structure, assigning one of AA, AA', A'B, AB, AB', BA, or X per atom.`,
	}

	root.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("stackscan v%s\n", version)
			fmt.Printf("Go version: %s\n", runtime.Version())
			fmt.Printf("OS/Arch: %s/%s\n", runtime.GOOS, runtime.GOARCH)
		},
	})

	root.AddCommand(&cobra.Command{
		Use:   "validate <dump-file>",
		Short: "Validate a dump file's format and exit",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := dump.Validate(args[0]); err != nil {
				return fmt.Errorf("invalid dump file %s: %w", args[0], err)
			}
			fmt.Printf("valid single-frame dump file: %s\n", args[0])
			return nil
		},
	})

	root.AddCommand(&cobra.Command{
		Use:   "metadata <dump-file>",
		Short: "Show a dump file's header metadata and exit",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			md, err := dump.ReadMetadata(args[0])
			if err != nil {
				return err
			}
			fmt.Printf("File: %s\n", args[0])
			fmt.Printf("Timestep: %d\n", md.Timestep)
			fmt.Printf("Number of atoms: %d\n", md.NumAtoms)
			fmt.Println("Box bounds:")
			for i, axis := range []string{"x", "y", "z"} {
				fmt.Printf("  %s: %.3f to %.3f\n", axis, md.BoxBounds[i][0], md.BoxBounds[i][1])
			}
			fmt.Printf("Columns: %v\n", md.Columns)
			return nil
		},
	})

	root.AddCommand(newRunCommand())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRunCommand() *cobra.Command {
	var (
		configFile string
		output     string
		statsJSON  string
		quiet      bool

		rTol       float64
		voxelSize  float64
		sDistance  float64
		targetType int64
		bridgeType int64
		workers    int
		strict     bool
		logLevel   string
	)

	cmd := &cobra.Command{
		Use:   "run <dump-file>",
		Short: "Classify stacking types in a dump file",
		Long: `Run the stacking analysis on a single-frame LAMMPS dump file and write
the classified top-layer atoms to an xyz-style .stack file.

Example:
  stackscan run dump.lammpstrj
  stackscan run dump.lammpstrj -o results.stack --r-tol 0.7 --voxel-size 200
  stackscan run dump.lammpstrj --workers 8 --quiet`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configFile)
			if err != nil {
				return err
			}

			// Explicit flags win over config file and environment.
			if cmd.Flags().Changed("r-tol") {
				cfg.RTol = rTol
			}
			if cmd.Flags().Changed("voxel-size") {
				cfg.VoxelSize = voxelSize
			}
			if cmd.Flags().Changed("s-distance") {
				cfg.SNeighborDistance = sDistance
			}
			if cmd.Flags().Changed("atom-type") {
				cfg.TargetType = targetType
			}
			if cmd.Flags().Changed("bridge-type") {
				cfg.BridgeType = bridgeType
			}
			if cmd.Flags().Changed("workers") {
				cfg.Workers = workers
			}
			if cmd.Flags().Changed("strict") {
				cfg.Strict = strict
			}
			if cmd.Flags().Changed("log-level") {
				cfg.LogLevel = logLevel
			}
			if quiet {
				cfg.LogLevel = "error"
			}

			if output == "" {
				output = args[0] + ".stack"
			}

			return runAnalysis(args[0], output, statsJSON, quiet, cfg)
		},
	}

	def := config.Default()
	cmd.Flags().StringVar(&configFile, "config", "", "Path to YAML configuration file (optional)")
	cmd.Flags().StringVarP(&output, "output", "o", "", "Output file path (default: INPUT.stack)")
	cmd.Flags().StringVar(&statsJSON, "stats-json", "", "Write a JSON statistics report to this path")
	cmd.Flags().BoolVarP(&quiet, "quiet", "q", false, "Suppress progress output")
	cmd.Flags().Float64Var(&rTol, "r-tol", def.RTol, "Distance tolerance for neighbor identification")
	cmd.Flags().Float64Var(&voxelSize, "voxel-size", def.VoxelSize, "Spatial voxel size for partitioning")
	cmd.Flags().Float64Var(&sDistance, "s-distance", def.SNeighborDistance, "Distance threshold for bridging-species neighbors")
	cmd.Flags().Int64Var(&targetType, "atom-type", def.TargetType, "Atom type to classify and save")
	cmd.Flags().Int64Var(&bridgeType, "bridge-type", def.BridgeType, "Bridging-species atom type")
	cmd.Flags().IntVar(&workers, "workers", def.Workers, "Number of parallel patch workers")
	cmd.Flags().BoolVar(&strict, "strict", def.Strict, "Fail if any target atom is left unclassified")
	cmd.Flags().StringVar(&logLevel, "log-level", def.LogLevel, "Log level (debug, info, warn, error)")

	return cmd
}

func runAnalysis(input, output, statsJSON string, quiet bool, cfg *config.Config) error {
	if err := logger.Init(logger.Config{Level: cfg.LogLevel, Encoding: "console"}); err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()
	log := logger.With(zap.String("input", input))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	table, md, err := dump.Read(input)
	if err != nil {
		return err
	}
	log.Info("loaded structure",
		zap.Int64("timestep", md.Timestep),
		zap.Int("atoms", table.Len()),
		zap.Strings("columns", md.Columns))

	analyzer, err := stacking.NewAnalyzer(cfg, log)
	if err != nil {
		return err
	}

	result, err := analyzer.Run(ctx, table)
	if err != nil {
		return err
	}

	if err := dump.WriteStack(output, table, cfg.TargetType); err != nil {
		return err
	}
	log.Info("results written", zap.String("output", output))

	stats := buildStats(table.Len(), result)
	if statsJSON != "" {
		if err := dump.WriteStats(statsJSON, stats); err != nil {
			return err
		}
	}

	if !quiet {
		printSummary(output, stats)
	}
	return nil
}

func buildStats(totalAtoms int, result *stacking.Result) *dump.Stats {
	stats := &dump.Stats{
		TotalAtoms:      totalAtoms,
		TargetAtoms:     result.TargetCount,
		Patches:         result.PatchCount,
		ElapsedSeconds:  result.Elapsed.Seconds(),
		TypeCounts:      result.Frequencies,
		TypePercentages: make(map[string]float64, len(result.Frequencies)),
	}
	if result.TargetCount > 0 {
		for label, count := range result.Frequencies {
			stats.TypePercentages[label] = float64(count) / float64(result.TargetCount) * 100
		}
	}
	return stats
}

func printSummary(output string, stats *dump.Stats) {
	fmt.Printf("\nAnalyzed %d of %d atoms across %d patches in %.2fs\n",
		stats.TargetAtoms, stats.TotalAtoms, stats.Patches, stats.ElapsedSeconds)
	fmt.Println("Stacking type distribution:")

	labels := make([]string, 0, len(stats.TypeCounts))
	for label := range stats.TypeCounts {
		labels = append(labels, label)
	}
	sort.Strings(labels)
	for _, label := range labels {
		fmt.Printf("  %-4s: %8d (%5.2f%%)\n",
			label, stats.TypeCounts[label], stats.TypePercentages[label])
	}
	fmt.Printf("\nOutput written to: %s\n", output)
}
