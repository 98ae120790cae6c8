package osm

import "time"

// MonitoringHooks defines hooks for observing parses
type MonitoringHooks struct {
	// OnParseStart is called before the first line is read
	OnParseStart func(source string)

	// OnParseComplete is called once per parse, fatal or not
	OnParseComplete func(source string, stats Stats, duration time.Duration, err error)

	// OnDiagnostic is called for every element-level error
	OnDiagnostic func(element string, status Status)
}

func (h *MonitoringHooks) parseStart(source string) {
	if h != nil && h.OnParseStart != nil {
		h.OnParseStart(source)
	}
}

func (h *MonitoringHooks) parseComplete(source string, stats Stats, duration time.Duration, err error) {
	if h != nil && h.OnParseComplete != nil {
		h.OnParseComplete(source, stats, duration, err)
	}
}

func (h *MonitoringHooks) diagnostic(element string, status Status) {
	if h != nil && h.OnDiagnostic != nil {
		h.OnDiagnostic(element, status)
	}
}
