package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/teslashibe/go-attention/internal/guard"
	"github.com/teslashibe/go-attention/internal/log"
	"github.com/teslashibe/go-attention/pkg/landmarks"
	"github.com/teslashibe/go-attention/pkg/session"
)

var (
	replayRealtime bool

	replayCmd = &cobra.Command{
		Use:   "replay <file>",
		Short: "Classify a recorded JSONL landmark file",
		Long: `Runs every frame of a JSONL recording through the classifier and writes
a session report. Session time follows the frame timestamps unless
--realtime is given.`,
		Args: cobra.ExactArgs(1),
		RunE: runReplay,
	}
)

func init() {
	replayCmd.Flags().BoolVar(&replayRealtime, "realtime", false, "account session time by wall clock instead of frame timestamps")
	rootCmd.AddCommand(replayCmd)
}

func runReplay(cmd *cobra.Command, args []string) error {
	f, err := os.Open(args[0])
	if err != nil {
		return err
	}
	defer f.Close()

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	var src landmarks.Source = landmarks.NewJSONLSource(f)
	opts := guard.Options{}
	if !replayRealtime {
		fs := newFrameSource(ctx, src)
		src = fs
		if fs.Synced() {
			opts.Clock = fs
		} else {
			log.Info("recording has no timestamps, timing by wall clock", "file", args[0])
		}
	}

	g, err := guard.New(ctx, cfg, log.L(), opts)
	if err != nil {
		return err
	}

	replayErr := g.Monitor.Replay(ctx, src)
	stats := g.Monitor.Stats()
	report, err := g.Close(ctx)

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "🎞️  %d frames (%d without face, %d skipped), %d alarms\n",
		stats.Processed, stats.NoFace, stats.Skipped, stats.AlertsFired)
	if report != nil {
		printReport(out, report)
	}
	return errors.Join(replayErr, err)
}

// frameSource drives the session clock from frame timestamps so a replay
// accounts recorded time rather than how fast the file was read. Frames
// without a timestamp leave the clock where it is and are stamped with it
// by the monitor.
type frameSource struct {
	src landmarks.Source

	mu     sync.Mutex
	now    time.Time
	synced bool

	pending  bool
	first    landmarks.Frame
	firstErr error
}

// newFrameSource reads the first frame up front so the session starts at
// the recording's first timestamp.
func newFrameSource(ctx context.Context, src landmarks.Source) *frameSource {
	s := &frameSource{src: src, now: time.Now(), pending: true}
	s.first, s.firstErr = src.Next(ctx)
	if s.firstErr == nil {
		s.advance(s.first.At)
	}
	return s
}

// Synced reports whether the first frame carried a timestamp.
func (s *frameSource) Synced() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.synced
}

func (s *frameSource) Now() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.now
}

func (s *frameSource) Next(ctx context.Context) (landmarks.Frame, error) {
	if s.pending {
		s.pending = false
		return s.first, s.firstErr
	}
	f, err := s.src.Next(ctx)
	if err == nil {
		s.advance(f.At)
	}
	return f, err
}

func (s *frameSource) advance(at time.Time) {
	if at.IsZero() || at.UnixMilli() <= 0 {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.synced || at.After(s.now) {
		s.now = at
		s.synced = true
	}
}

func printReport(w io.Writer, r *session.Report) {
	fmt.Fprintf(w, "📊 Session %s (%ss total)\n", r.SessionID, session.FormatSeconds(r.Total))
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	for _, row := range r.Rows {
		fmt.Fprintf(tw, "  %s\t%ss\t%s\n", row.State, session.FormatSeconds(row.Seconds), session.FormatPercent(row.Percent))
	}
	tw.Flush()
	fmt.Fprintf(w, "   events: %s\n   report: %s\n", r.EventLogPath, r.Path)
	if r.ChartPath != "" {
		fmt.Fprintf(w, "   chart:  %s\n", r.ChartPath)
	}
}
