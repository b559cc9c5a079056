package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"

	"github.com/kozaktomas/face-compare/internal/config"
	"github.com/kozaktomas/face-compare/internal/intake"
	"github.com/kozaktomas/face-compare/internal/session"
	"github.com/kozaktomas/face-compare/internal/view"
	"github.com/kozaktomas/face-compare/internal/workflow"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
)

var compareCmd = &cobra.Command{
	Use:   "compare <reference-image> <path> [path...]",
	Short: "Compare a reference face against candidate images",
	Long: `Compare the face in a reference image against up to 250 candidate images.

Candidate paths may be image files or folders. By default only files directly
inside the given folders are used; use -r to search subdirectories.
Every file must be an image of at most 10MB, otherwise the whole batch is
rejected before anything is sent.

Examples:
  # Compare against every image in a folder
  face-compare compare me.jpg ./party

  # Best matches first, as JSON
  face-compare compare me.jpg ./party --sort --json

  # Report undecodable images before sending
  face-compare compare me.jpg a.jpg b.png --previews`,
	Args: cobra.MinimumNArgs(2),
	RunE: runCompare,
}

func init() {
	rootCmd.AddCommand(compareCmd)

	compareCmd.Flags().BoolP("recursive", "r", false, "Search folders recursively")
	compareCmd.Flags().Bool("json", false, "Output as JSON")
	compareCmd.Flags().Bool("sort", false, "Order results by similarity, best first")
	compareCmd.Flags().Int("limit", 0, "Show only the first N results (0 = all)")
	compareCmd.Flags().Bool("previews", false, "Decode previews first and report images that cannot be displayed")
}

type compareFlags struct {
	recursive  bool
	jsonOutput bool
	sort       bool
	limit      int
	previews   bool
}

func parseCompareFlags(cmd *cobra.Command) compareFlags {
	return compareFlags{
		recursive:  mustGetBool(cmd, "recursive"),
		jsonOutput: mustGetBool(cmd, "json"),
		sort:       mustGetBool(cmd, "sort"),
		limit:      mustGetInt(cmd, "limit"),
		previews:   mustGetBool(cmd, "previews"),
	}
}

// selectionError returns the user-facing message of a rejected selection.
func selectionError(err error) error {
	var ve *intake.ValidationError
	if errors.As(err, &ve) {
		if ve.Name != "" {
			return fmt.Errorf("%s (%s)", ve.Message, ve.Name)
		}
		return errors.New(ve.Message)
	}
	return err
}

func runCompare(cmd *cobra.Command, args []string) error {
	cfg := config.Load()
	flags := parseCompareFlags(cmd)
	logger := newLogger()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	client, err := newClient(cfg)
	if err != nil {
		return err
	}
	controller := newController(cfg, client, logger)

	gate, closeStore, err := openGate(ctx, cfg, controller, logger)
	if err != nil {
		return err
	}
	defer closeStore()
	if err := gate.Require(); err != nil {
		if errors.Is(err, session.ErrUnauthenticated) {
			return errors.New("not logged in, run 'face-compare login' first")
		}
		return err
	}

	if err := selectFiles(ctx, controller, args[0], args[1:], flags); err != nil {
		return err
	}

	if flags.previews {
		if err := reportPreviews(ctx, controller, flags.jsonOutput); err != nil {
			return err
		}
	}

	if err := submitWithProgress(ctx, controller, flags.jsonOutput); err != nil {
		return err
	}

	v := controller.View()
	report := view.NewReport(v.State.Response, v.ResultNames, &cfg.Messages)
	cards := report.Cards
	if flags.sort {
		cards = report.Ranked()
	}
	if flags.limit > 0 && flags.limit < len(cards) {
		cards = cards[:flags.limit]
	}

	if flags.jsonOutput {
		report.Cards = cards
		return outputJSON(report)
	}
	printReport(report, cards)
	return nil
}

// selectFiles loads and selects the reference and the candidate batch.
func selectFiles(ctx context.Context, controller *workflow.Controller, refPath string, candidatePaths []string, flags compareFlags) error {
	reference, err := intake.LoadFile(refPath)
	if err != nil {
		return err
	}
	if err := controller.SelectReference(reference); err != nil {
		return selectionError(err)
	}

	paths, err := intake.CollectImagePaths(candidatePaths, flags.recursive)
	if err != nil {
		return err
	}
	if len(paths) == 0 {
		return errors.New("no candidate images found")
	}
	if err := controller.CheckBatchSize(len(paths)); err != nil {
		return selectionError(err)
	}

	warnf(flags.jsonOutput, "Loading %d images...\n", len(paths))
	candidates, err := intake.LoadFiles(ctx, paths)
	if err != nil {
		return err
	}
	if err := controller.SelectCandidates(candidates); err != nil {
		return selectionError(err)
	}
	return nil
}

// reportPreviews waits for all previews and lists the files that failed to decode.
func reportPreviews(ctx context.Context, controller *workflow.Controller, jsonOutput bool) error {
	if err := controller.WaitPreviews(ctx); err != nil {
		return err
	}

	v := controller.View()
	failed := 0
	for _, e := range v.Previews.Entries {
		if e.Failed {
			failed++
			warnf(jsonOutput, "  cannot display #%d %s\n", e.Key+1, e.SourceName)
		}
	}
	warnf(jsonOutput, "Previews: %d ready, %d cannot be displayed\n", len(v.Previews.Entries)-failed, failed)
	return nil
}

// submitWithProgress runs the comparison and drives a progress bar from
// the controller's progress events.
func submitWithProgress(ctx context.Context, controller *workflow.Controller, jsonOutput bool) error {
	events := controller.AddListener()
	defer controller.RemoveListener(events)

	_, out, err := controller.Start(ctx)
	if err != nil {
		if msg := controller.State().Error; msg != "" {
			return errors.New(msg)
		}
		return err
	}

	var bar *progressbar.ProgressBar
	if !jsonOutput {
		bar = progressbar.NewOptions(100,
			progressbar.OptionSetDescription("Uploading"),
			progressbar.OptionSetWriter(os.Stderr),
			progressbar.OptionShowElapsedTimeOnFinish(),
			progressbar.OptionSetPredictTime(true),
			progressbar.OptionFullWidth(),
			progressbar.OptionSetTheme(progressbar.Theme{
				Saucer:        "=",
				SaucerHead:    ">",
				SaucerPadding: " ",
				BarStart:      "[",
				BarEnd:        "]",
			}),
		)
	}

	for {
		select {
		case ev := <-events:
			if bar != nil && ev.Type == workflow.EventProgress {
				if p, ok := ev.Data.(int); ok {
					_ = bar.Set(p)
					if p == 100 {
						bar.Describe("Comparing")
					}
				}
			}
		case o := <-out:
			if bar != nil {
				_ = bar.Finish()
				fmt.Fprintln(os.Stderr)
			}
			if o.Err != nil {
				if msg := controller.State().Error; msg != "" {
					return fmt.Errorf("%s: %w", msg, o.Err)
				}
				return o.Err
			}
			return nil
		}
	}
}

func printReport(report *view.Report, cards []view.Card) {
	fmt.Printf("%d images processed • processing time %.2fs • %d faces detected\n",
		report.TotalImages, report.ProcessingTime, report.FacesDetected)
	if !report.BaseImageHasFace {
		fmt.Println("Warning: no face detected in the reference image")
	}
	fmt.Println()

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "#\tIMAGE\tFACE\tSIMILARITY\tBAND")
	fmt.Fprintln(w, "-\t-----\t----\t----------\t----")
	for _, c := range cards {
		face := "no"
		if c.HasFace {
			face = "yes"
		}
		if c.Scored {
			fmt.Fprintf(w, "%d\t%s\t%s\t%.1f%%\t%s\n", c.Number, c.SourceName, face, c.Similarity, c.BandLabel)
		} else {
			fmt.Fprintf(w, "%d\t%s\t%s\t-\t%s\n", c.Number, c.SourceName, face, c.Message)
		}
	}
	w.Flush()
}
