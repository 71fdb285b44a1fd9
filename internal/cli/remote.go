package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/teslashibe/go-attention/internal/httpc"
	"github.com/teslashibe/go-attention/pkg/session"
	"github.com/teslashibe/go-attention/pkg/web"
)

var (
	remoteURL string

	statusCmd = &cobra.Command{
		Use:   "status",
		Short: "Show the live state of a running guard",
		Args:  cobra.NoArgs,
		RunE:  runStatus,
	}

	muteCmd = &cobra.Command{
		Use:   "mute [on|off]",
		Short: "Mute, unmute or toggle the alarm of a running guard",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runMute,
	}
)

func init() {
	for _, c := range []*cobra.Command{statusCmd, muteCmd} {
		c.Flags().StringVar(&remoteURL, "url", "", "guard base URL (default derived from server.addr)")
		rootCmd.AddCommand(c)
	}
}

// baseURL turns a listen address like ":8080" into a local URL.
func baseURL() string {
	if remoteURL != "" {
		return strings.TrimRight(remoteURL, "/")
	}
	addr := cfg.Server.Addr
	if strings.HasPrefix(addr, ":") {
		addr = "localhost" + addr
	}
	return "http://" + addr
}

func runStatus(cmd *cobra.Command, _ []string) error {
	var resp web.StatusResponse
	if err := httpc.GetJSON(cmd.Context(), baseURL()+"/api/status", &resp); err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Session %s: %s (muted=%v, mesh=%v)\n",
		resp.Session.SessionID, resp.Session.State, resp.Muted, resp.DrawMesh)
	if d := resp.Decision; d != nil {
		if d.FaceFound {
			fmt.Fprintf(out, "  EAR %.3f, gaze %s (%.2f, %.2f)\n", d.EAR, d.Direction, d.Gaze.X, d.Gaze.Y)
		} else {
			fmt.Fprintln(out, "  no face")
		}
	}
	for _, row := range session.BuildRows(resp.Session.Counters) {
		fmt.Fprintf(out, "  %-10s %6ss  %6s\n", row.State, session.FormatSeconds(row.Seconds), session.FormatPercent(row.Percent))
	}
	fmt.Fprintf(out, "  frames %d (%.1f fps), skipped %d, alarms %d, events %d\n",
		resp.Stats.Processed, resp.Stats.FPS, resp.Stats.Skipped, resp.Stats.AlertsFired, resp.Session.Rows)
	return nil
}

func runMute(cmd *cobra.Command, args []string) error {
	// No body toggles.
	var body any
	if len(args) == 1 {
		muted, err := parseOnOff(args[0])
		if err != nil {
			return err
		}
		body = web.MuteRequest{Muted: &muted}
	}

	var resp struct {
		Muted bool `json:"muted"`
	}
	if err := httpc.PostJSON(cmd.Context(), baseURL()+"/api/alerts/mute", body, &resp); err != nil {
		return err
	}
	if resp.Muted {
		fmt.Fprintln(cmd.OutOrStdout(), "🔕 Alarm muted")
	} else {
		fmt.Fprintln(cmd.OutOrStdout(), "🔔 Alarm armed")
	}
	return nil
}

func parseOnOff(s string) (bool, error) {
	switch strings.ToLower(s) {
	case "on":
		return true, nil
	case "off":
		return false, nil
	}
	b, err := strconv.ParseBool(s)
	if err != nil {
		return false, fmt.Errorf("expected on or off, got %q", s)
	}
	return b, nil
}
