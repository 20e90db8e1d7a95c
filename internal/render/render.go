// Package render writes the text form of each view.
package render

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"text/tabwriter"

	"shortlink-client/internal/analytics"
	"shortlink-client/internal/clipboard"
	"shortlink-client/internal/domain"
	"shortlink-client/internal/submission"
	"shortlink-client/internal/timestamp"
)

const (
	LoadingLinks  = "Loading links..."
	NoLinks       = "No links yet."
	NoCountryData = "No location data yet."
	Copied        = "Copied ✓"
	Copy          = "Copy"
)

// Renderer formats views for a terminal.
type Renderer struct {
	normalizer *timestamp.Normalizer
	feedback   *clipboard.Feedback
}

// New creates a Renderer. feedback may be nil when nothing is copyable.
func New(normalizer *timestamp.Normalizer, feedback *clipboard.Feedback) *Renderer {
	return &Renderer{normalizer: normalizer, feedback: feedback}
}

// Result writes the creation form outcome.
func (r *Renderer) Result(w io.Writer, v submission.View) error {
	switch {
	case v.State == submission.StateSubmitting:
		_, err := fmt.Fprintln(w, "Shortening...")
		return err
	case v.Error != "":
		_, err := fmt.Fprintf(w, "Error: %s\n", v.Error)
		return err
	case v.Result == nil:
		return nil
	}

	res := v.Result
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "Your short link is ready")
	fmt.Fprintf(tw, "Short URL\t%s\t%s\n", res.ShortURL, r.copyLabel(clipboard.TargetResultShortURL))
	fmt.Fprintf(tw, "Code\t%s\n", res.Code)
	fmt.Fprintf(tw, "Expires\t%s\n", r.normalizer.FormatForDisplay(res.ExpiresAt))
	fmt.Fprintf(tw, "Original\t%s\n", res.OriginalURL)
	if res.QRCode != "" {
		fmt.Fprintf(tw, "QR code\t%s\n", abbreviate(res.QRCode, 48))
	}
	return tw.Flush()
}

// Tabs writes the tab bar with the active tab bracketed.
func (r *Renderer) Tabs(w io.Writer, active analytics.Tab) error {
	list, lookup := "All links", "Lookup"
	if active == analytics.TabLookup {
		lookup = "[" + lookup + "]"
	} else {
		list = "[" + list + "]"
	}
	_, err := fmt.Fprintf(w, "%s  %s\n", list, lookup)
	return err
}

// List writes the aggregate view: error banner, then the table.
func (r *Renderer) List(w io.Writer, s analytics.ListState) error {
	if s.Error != "" {
		fmt.Fprintf(w, "Error: %s\n", s.Error)
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "CODE\tORIGINAL\tEXPIRES\tTOTAL\tUNIQUE")
	switch s.Status() {
	case analytics.ListLoading:
		fmt.Fprintln(tw, LoadingLinks)
	case analytics.ListEmpty:
		fmt.Fprintln(tw, NoLinks)
	default:
		for _, link := range s.Items {
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n",
				link.Code,
				abbreviate(link.OriginalURL, 60),
				r.normalizer.FormatForDisplay(link.ExpiresAt),
				timestamp.FormatCount(link.TotalClicks),
				timestamp.FormatCount(link.UniqueVisitors),
			)
		}
	}
	return tw.Flush()
}

// Lookup writes the detail view.
func (r *Renderer) Lookup(w io.Writer, s analytics.LookupState) error {
	if s.Loading {
		_, err := fmt.Fprintln(w, "Searching...")
		return err
	}
	if s.Error != "" {
		fmt.Fprintf(w, "Error: %s\n", s.Error)
	}
	if s.Result == nil {
		return nil
	}

	d := s.Result
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "Short URL\t%s\t%s\n", d.ShortURL, r.copyLabel(clipboard.TargetLookupShortURL))
	fmt.Fprintf(tw, "Original\t%s\t%s\n", d.OriginalURL, r.copyLabel(clipboard.TargetLookupOriginalURL))
	if d.QRCode != "" {
		fmt.Fprintf(tw, "QR code\t%s\n", abbreviate(d.QRCode, 48))
	}
	fmt.Fprintf(tw, "Created\t%s\n", r.normalizer.FormatForDisplay(d.CreatedAt))
	fmt.Fprintf(tw, "Expires\t%s\n", r.normalizer.FormatForDisplay(d.ExpiresAt))
	fmt.Fprintf(tw, "Total clicks\t%s\n", timestamp.FormatCount(d.TotalClicks))
	fmt.Fprintf(tw, "Unique visitors\t%s\n", timestamp.FormatCount(d.UniqueVisitors))
	fmt.Fprintf(tw, "Last accessed\t%s\n", r.normalizer.FormatLastAccessed(d.LastAccessed))
	fmt.Fprintf(tw, "Countries\t%s\n", countries(d))
	return tw.Flush()
}

func (r *Renderer) copyLabel(target clipboard.Target) string {
	if r.feedback != nil && r.feedback.Copied(target) {
		return Copied
	}
	return Copy
}

// countries lists per-country tallies by descending count, then code.
func countries(d *domain.LinkDetail) string {
	if len(d.CountryCounts) == 0 {
		return NoCountryData
	}
	codes := make([]string, 0, len(d.CountryCounts))
	for code := range d.CountryCounts {
		codes = append(codes, code)
	}
	sort.Slice(codes, func(i, j int) bool {
		ci, cj := d.CountryCounts[codes[i]], d.CountryCounts[codes[j]]
		if ci != cj {
			return ci > cj
		}
		return codes[i] < codes[j]
	})

	parts := make([]string, 0, len(codes))
	for _, code := range codes {
		parts = append(parts, fmt.Sprintf("%s: %s", code, timestamp.FormatCount(d.CountryCounts[code])))
	}
	return strings.Join(parts, ", ")
}

func abbreviate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n-3]) + "..."
}
