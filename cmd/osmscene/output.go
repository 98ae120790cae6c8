package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/NERVsystems/osmscene/pkg/osm"
	"github.com/NERVsystems/osmscene/pkg/scene"
)

// report is the JSON form of a parse.
type report struct {
	Source      string       `json:"source"`
	Status      string       `json:"status"`
	Message     string       `json:"message"`
	Stats       osm.Stats    `json:"stats"`
	Scene       *scene.Scene `json:"scene"`
	Diagnostics []string     `json:"diagnostics"`
}

// exitCode maps a parse outcome to the process exit status: the numeric
// value of its Status, so 0 means every element was accepted.
func exitCode(res *osm.Result, err error) int {
	if err != nil {
		return int(osm.StatusOf(err))
	}
	return int(res.Status())
}

func writeResult(w io.Writer, res *osm.Result, asJSON bool) error {
	diags := make([]string, len(res.Diagnostics))
	for i, d := range res.Diagnostics {
		diags[i] = d.Error()
	}

	status := res.Status()
	if asJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(report{
			Source:      res.Source,
			Status:      status.String(),
			Message:     status.Message(),
			Stats:       res.Stats,
			Scene:       res.Scene,
			Diagnostics: diags,
		})
	}

	s := res.Stats
	lines := []string{
		fmt.Sprintf("source:      %s", res.Source),
		fmt.Sprintf("status:      %s (%s)", status, status.Message()),
		fmt.Sprintf("lines:       %d", s.Lines),
		fmt.Sprintf("nodes:       %d committed, %d rejected", s.NodesCommitted, s.NodesRejected),
		fmt.Sprintf("ways:        %d committed, %d rejected, %d unclassified, %d dangling", s.WaysCommitted, s.WaysRejected, s.UnknownWays, s.DanglingWays),
		fmt.Sprintf("roads:       %d", s.Roads),
		fmt.Sprintf("land uses:   %d", s.LandUses),
		fmt.Sprintf("bounds:      %d x %d", res.Scene.Bounds.Width, res.Scene.Bounds.Height),
		fmt.Sprintf("origin:      %s", res.Scene.Origin),
		fmt.Sprintf("diagnostics: %d", s.Diagnostics),
	}
	for _, l := range lines {
		if _, err := fmt.Fprintln(w, l); err != nil {
			return err
		}
	}
	for _, d := range diags {
		if _, err := fmt.Fprintf(w, "  %s\n", d); err != nil {
			return err
		}
	}
	return nil
}
