package report

import (
	"fmt"
	"io"
	"sort"
	"sync"

	"github.com/rodaine/table"
	"github.com/rs/zerolog"

	"github.com/BenjaminSRussell/linkaudit/internal/types"
)

// Reporter receives every crawl outcome
type Reporter interface {
	Report(outcome types.Outcome)
}

// LogReporter logs outcomes and keeps findings for the end-of-run summary
type LogReporter struct {
	log zerolog.Logger

	mu       sync.Mutex
	byStatus map[types.Status]int
	findings []types.Outcome
}

// New creates a reporter that logs to log
func New(log zerolog.Logger) *LogReporter {
	return &LogReporter{
		log:      log,
		byStatus: make(map[types.Status]int),
	}
}

// Report logs the outcome and records it
func (r *LogReporter) Report(o types.Outcome) {
	r.mu.Lock()
	r.byStatus[o.Status]++
	if o.Status.IsFinding() {
		r.findings = append(r.findings, o)
	}
	r.mu.Unlock()

	var event *zerolog.Event
	switch {
	case o.Status == types.StatusOK:
		event = r.log.Info()
	case o.Status == types.StatusSkippedAlreadyVisited:
		event = r.log.Debug()
	default:
		event = r.log.Error()
	}

	event = event.Str("url", o.URL).Str("status", string(o.Status))
	if o.Referrer != "" {
		event = event.Str("referrer", o.Referrer)
	}
	if o.StatusCode > 0 {
		event = event.Int("status_code", o.StatusCode)
	}
	if o.ProbeURL != "" {
		event = event.Str("probe_url", o.ProbeURL)
	}
	if o.Err != nil {
		event = event.Err(o.Err)
	}
	event.Bool("internal", o.Internal).Msg(message(o.Status))
}

// Results returns outcome totals by status
func (r *LogReporter) Results() types.Results {
	r.mu.Lock()
	defer r.mu.Unlock()

	byStatus := make(map[types.Status]int, len(r.byStatus))
	total := 0
	for status, n := range r.byStatus {
		byStatus[status] = n
		total += n
	}
	return types.Results{Processed: total, ByStatus: byStatus}
}

// Findings returns the recorded findings ordered by referrer then URL
func (r *LogReporter) Findings() []types.Outcome {
	r.mu.Lock()
	findings := make([]types.Outcome, len(r.findings))
	copy(findings, r.findings)
	r.mu.Unlock()

	sort.SliceStable(findings, func(i, j int) bool {
		if findings[i].Referrer != findings[j].Referrer {
			return findings[i].Referrer < findings[j].Referrer
		}
		return findings[i].URL < findings[j].URL
	})
	return findings
}

// PrintSummary writes the findings grouped by referring page
func (r *LogReporter) PrintSummary(w io.Writer) {
	findings := r.Findings()
	if len(findings) == 0 {
		fmt.Fprintln(w, "No broken links found")
		return
	}

	counts := make(map[string]int)
	for _, f := range findings {
		counts[f.Referrer]++
	}

	tbl := table.New("Page", "Counts", "Status", "Broken Link", "Detail").WithWriter(w)
	previous := ""
	for i, f := range findings {
		page, count := referrerLabel(f.Referrer), fmt.Sprint(counts[f.Referrer])
		if i > 0 && f.Referrer == previous {
			page, count = "", ""
		}
		previous = f.Referrer
		tbl.AddRow(page, count, f.Status, f.URL, detail(f))
	}
	tbl.Print()

	fmt.Fprintf(w, "\n%d broken link(s) on %d page(s)\n", len(findings), len(counts))
}

func referrerLabel(referrer string) string {
	if referrer == "" {
		return "(seed)"
	}
	return referrer
}

func detail(o types.Outcome) string {
	switch {
	case o.Err != nil:
		return o.Err.Error()
	case o.StatusCode > 0:
		return fmt.Sprintf("status %d", o.StatusCode)
	}
	return ""
}

func message(status types.Status) string {
	switch status {
	case types.StatusOK:
		return "Link OK"
	case types.StatusSkippedAlreadyVisited:
		return "Skipping already visited URL"
	case types.StatusSoftNotFound:
		return "Soft 404"
	case types.StatusHTTPError:
		return "Fetch failed"
	case types.StatusParseError:
		return "Unparseable link"
	case types.StatusEmptyBody:
		return "Empty body"
	case types.StatusMissingFile:
		return "Missing local file"
	}
	return "Link checked"
}
