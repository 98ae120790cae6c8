package monitoring

import (
	"fmt"
	"time"

	"github.com/NERVsystems/osmscene/pkg/osm"
)

// ParserComponent is the health component name for parse outcomes.
const ParserComponent = "parser"

// ParserHooks returns osm hooks that feed the Prometheus metrics and, when
// hc is non-nil, the parser health component.
func ParserHooks(hc *HealthChecker) *osm.MonitoringHooks {
	return &osm.MonitoringHooks{
		OnParseComplete: func(source string, stats osm.Stats, duration time.Duration, err error) {
			status := osm.StatusOf(err)
			if err == nil && stats.CapacityErrors > 0 {
				status = osm.StatusOutOfMemory
			} else if err == nil && stats.Diagnostics > 0 {
				status = osm.StatusFormat
			}

			RecordParse(ParseOutcome{
				Status:         status.String(),
				Duration:       duration,
				Lines:          stats.Lines,
				NodesCommitted: stats.NodesCommitted,
				NodesRejected:  stats.NodesRejected,
				WaysCommitted:  stats.WaysCommitted,
				WaysRejected:   stats.WaysRejected,
				Roads:          stats.Roads,
				LandUses:       stats.LandUses,
			})

			if hc == nil {
				return
			}
			state := StateHealthy
			switch {
			case err != nil:
				state = StateDegraded
			case stats.Diagnostics > 0:
				state = StateDegraded
			}
			detail := fmt.Sprintf("%s: %d roads, %d land uses, %d diagnostics",
				source, stats.Roads, stats.LandUses, stats.Diagnostics)
			hc.UpdateComponent(ParserComponent, state, detail, err)
		},
		OnDiagnostic: func(element string, status osm.Status) {
			RecordDiagnostic(element, status.String())
		},
	}
}
