package cli

import (
	"fmt"
	"io"

	"genassign/internal/batch"
)

// WriteSummary prints the human-readable end-of-run summary: totals first,
// then one line per failed (record, mode) attempt with its stage and error
// kind, so a failed student is found without reading logs.
func WriteSummary(w io.Writer, res *batch.Result) {
	if res == nil {
		return
	}
	failures := res.Failures()
	fmt.Fprintf(w, "genassign: %d record(s), %d artifact(s) placed, %d failure(s)\n",
		res.Records, res.Placed(), len(failures))
	for _, o := range failures {
		fmt.Fprintf(w, "  FAILED %s (%s) during %s: %v [%s]\n",
			o.Record, o.Mode, o.Stage, o.Err, o.Kind)
	}
}
