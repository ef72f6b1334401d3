package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/discochess/gamereview"
	"github.com/discochess/gamereview/internal/batch"
	"github.com/discochess/gamereview/internal/digest"
	"github.com/discochess/gamereview/internal/sink/sinkurl"
)

var batchCmd = &cobra.Command{
	Use:   "batch HANDLE",
	Short: "Analyze every game of a month",
	Long: `Analyze all games the player finished in the selected month.

Reports can be written as JSON documents to a directory, an S3 bucket or a
GCS bucket, one object per game named <handle>/<YYYY-MM>/<index>-<id>.json
plus the codec extension.

Examples:
  # Analyze March 2024, two games at a time, print progress only
  gamereview batch hikaru --year 2024 --month 3

  # Store zstd-compressed reports locally
  gamereview batch hikaru --out ./reviews --codec zstd

  # Store in GCS and keep going past failed games
  gamereview batch hikaru --out gs://my-bucket/reviews --keep-going`,
	Args: cobra.ExactArgs(1),
	RunE: runBatch,
}

var (
	parallel  int
	outURL    string
	codecName string
	keepGoing bool
)

func init() {
	addPeriodFlags(batchCmd)
	batchCmd.Flags().IntVarP(&parallel, "parallel", "p", batch.DefaultParallel, "number of concurrent analyses")
	batchCmd.Flags().StringVarP(&outURL, "out", "o", "", "report destination: directory, file://, s3:// or gs:// URL")
	batchCmd.Flags().StringVar(&codecName, "codec", "none", "report compression: zstd, gzip, none")
	batchCmd.Flags().BoolVar(&keepGoing, "keep-going", false, "continue past failed games")
	rootCmd.AddCommand(batchCmd)
}

func runBatch(cmd *cobra.Command, args []string) error {
	if parallel < 1 {
		return fmt.Errorf("--parallel must be at least 1")
	}
	c, err := sinkurl.Codec(codecName)
	if err != nil {
		return err
	}

	ctx, cancel := signalContext()
	defer cancel()

	e, err := newEnv()
	if err != nil {
		return err
	}
	defer e.Close()

	opts := []batch.Option{
		batch.WithParallel(parallel),
		batch.WithKeepGoing(keepGoing),
		batch.WithProgress(batch.Printer(os.Stderr)),
		batch.WithLogger(e.logger.Named("batch")),
	}
	if outURL != "" {
		out, err := sinkurl.Open(ctx, outURL, c)
		if err != nil {
			return fmt.Errorf("opening %s: %w", outURL, err)
		}
		defer out.Close()
		opts = append(opts, batch.WithSink(out))
	}

	res, err := batch.New(e.client, opts...).Run(ctx, args[0], period())
	if err != nil {
		return err
	}

	for _, r := range res.Reports {
		if r.Err != nil {
			fmt.Printf("%3d  FAILED  %v\n", r.Game.Index, r.Err)
			continue
		}
		if r.Summary == nil {
			continue
		}
		fmt.Printf("%3d  %-24s %s %s vs %s %s\n", r.Game.Index, r.Summary.Opening,
			r.Summary.White.Username, r.Summary.White.Accuracy,
			r.Summary.Black.Username, r.Summary.Black.Accuracy)
	}
	printDigest(res.Digest)

	if res.Failed > 0 {
		return fmt.Errorf("%d of %d games failed", res.Failed, len(res.Reports))
	}
	return nil
}

func printDigest(d *digest.Digest) {
	if d == nil || d.Accuracy.N == 0 {
		return
	}
	fmt.Printf("\n%s over %d games\n", d.Handle, d.Games)
	fmt.Printf("  Accuracy    mean %.1f  median %.1f  stddev %.1f  range %.1f-%.1f\n",
		d.Accuracy.Mean, d.Accuracy.Median, d.Accuracy.StdDev, d.Accuracy.Min, d.Accuracy.Max)
	if d.AsWhite.N > 0 {
		fmt.Printf("  As white    mean %.1f over %d games\n", d.AsWhite.Mean, d.AsWhite.N)
	}
	if d.AsBlack.N > 0 {
		fmt.Printf("  As black    mean %.1f over %d games\n", d.AsBlack.Mean, d.AsBlack.N)
	}
	for _, phase := range []string{"opening", "middlegame", "endgame"} {
		if p := d.Phases[phase]; p.N > 0 {
			fmt.Printf("  %-11s mean %.1f\n", phase, p.Mean)
		}
	}
	for _, l := range gamereview.Labels {
		fmt.Printf("  %-11s %d\n", l, d.Tally[l])
	}
}
