package history

import (
	"fmt"
	"strings"
	"time"

	"github.com/rustyeddy/tradesense/signals"
)

// FormatSignalOrg renders a signal as an Org-mode block. Structured facts go
// into the PROPERTIES drawer, the rationale becomes a list and a Review
// heading is left for notes.
func FormatSignalOrg(s signals.Signal) string {
	heading := fmt.Sprintf("** Signal: %s %s (%s)", s.Pair, strings.ToUpper(string(s.Direction)), shortID(s.ID))
	snap := s.Snapshot

	var b strings.Builder
	b.WriteString(heading)
	b.WriteString("\n")
	b.WriteString(":PROPERTIES:\n")
	b.WriteString(fmt.Sprintf(":SIGNAL_ID: %s\n", s.ID))
	b.WriteString(fmt.Sprintf(":PAIR: %s\n", s.Pair))
	b.WriteString(fmt.Sprintf(":DIRECTION: %s\n", s.Direction))
	b.WriteString(fmt.Sprintf(":CONFIDENCE: %.2f\n", s.Confidence))
	b.WriteString(fmt.Sprintf(":CREATED_AT: %s\n", s.CreatedAt.UTC().Format(time.RFC3339)))
	b.WriteString(fmt.Sprintf(":PRICE: %.5f\n", snap.Price))
	b.WriteString(fmt.Sprintf(":BB_UPPER: %.5f\n", snap.Bollinger.Upper))
	b.WriteString(fmt.Sprintf(":BB_LOWER: %.5f\n", snap.Bollinger.Lower))
	b.WriteString(fmt.Sprintf(":RSI: %.2f\n", snap.RSI))
	b.WriteString(fmt.Sprintf(":EMA_FAST: %.5f\n", snap.MovingAverages.EMAFast))
	b.WriteString(fmt.Sprintf(":EMA_SLOW: %.5f\n", snap.MovingAverages.EMASlow))
	b.WriteString(":END:\n")
	b.WriteString("\n")
	b.WriteString("*** Rationale\n")
	for _, r := range s.Rationale {
		b.WriteString("- ")
		b.WriteString(r)
		b.WriteString("\n")
	}
	b.WriteString("\n")
	b.WriteString("*** Review\n- \n")

	return b.String()
}

// FormatSignalsOrg renders multiple signals separated by blank lines.
func FormatSignalsOrg(sigs []signals.Signal) string {
	var b strings.Builder
	for i, s := range sigs {
		if i > 0 {
			b.WriteString("\n\n")
		}
		b.WriteString(FormatSignalOrg(s))
	}
	return b.String()
}

// shortID is the tail of the id; the head is the pair and direction.
func shortID(full string) string {
	if len(full) <= 8 {
		return full
	}
	return full[len(full)-8:]
}
