package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/rustyeddy/tradesense/history"
	"github.com/rustyeddy/tradesense/indicators"
	"github.com/rustyeddy/tradesense/scanner"
	"github.com/rustyeddy/tradesense/signals"
)

// output formats shared by the listing commands
const (
	formatTable = "table"
	formatOrg   = "org"
	formatJSON  = "json"
)

func checkFormat(f string) error {
	switch f {
	case formatTable, formatOrg, formatJSON:
		return nil
	}
	return fmt.Errorf("unknown output format %q (want table, org or json)", f)
}

func writeSignals(w io.Writer, format string, sigs []signals.Signal) error {
	switch format {
	case formatJSON:
		return writeJSON(w, sigs)
	case formatOrg:
		if len(sigs) == 0 {
			return nil
		}
		_, err := fmt.Fprintln(w, history.FormatSignalsOrg(sigs))
		return err
	}

	if len(sigs) == 0 {
		_, err := fmt.Fprintln(w, "no signals")
		return err
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "TIME\tPAIR\tSIDE\tCONF\tPRICE\tRSI\tRATIONALE")
	for _, s := range sigs {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%.2f\t%.5f\t%.1f\t%s\n",
			s.CreatedAt.UTC().Format("2006-01-02 15:04"),
			s.Pair,
			strings.ToUpper(string(s.Direction)),
			s.Confidence,
			s.Snapshot.Price,
			s.Snapshot.RSI,
			strings.Join(s.Rationale, "; "),
		)
	}
	return tw.Flush()
}

func writeFailures(w io.Writer, failures []scanner.PairError) {
	for _, f := range failures {
		fmt.Fprintf(w, "! %s\n", f.Error())
	}
}

func writeSnapshot(w io.Writer, format string, pair string, snap indicators.Snapshot) error {
	if format == formatJSON {
		return writeJSON(w, snap)
	}

	ma := snap.MovingAverages
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "Pair\t%s\n", pair)
	fmt.Fprintf(tw, "Time\t%s\n", snap.Time.UTC().Format("2006-01-02 15:04:05"))
	fmt.Fprintf(tw, "Price\t%.5f\n", snap.Price)
	fmt.Fprintf(tw, "Bollinger\t%.5f / %.5f / %.5f\n", snap.Bollinger.Lower, snap.Bollinger.Middle, snap.Bollinger.Upper)
	fmt.Fprintf(tw, "RSI\t%.2f\n", snap.RSI)
	fmt.Fprintf(tw, "SMA fast/slow\t%.5f / %.5f\n", ma.SMAFast, ma.SMASlow)
	fmt.Fprintf(tw, "EMA fast/slow\t%.5f / %.5f\n", ma.EMAFast, ma.EMASlow)
	fmt.Fprintf(tw, "EMA fast slope\t%+.6f\n", ma.FastSlope)
	return tw.Flush()
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
