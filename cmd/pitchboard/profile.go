package main

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/spektr-org/pitchboard/errors"
	"github.com/spektr-org/pitchboard/loader"
	"github.com/spektr-org/pitchboard/schema"
)

// newProfileCmd prints the auto-detected column profile of a file. It
// works on any delimited file, so a broken header can be inspected.
func newProfileCmd(root *rootFlags) *cobra.Command {
	var format, outFile string
	var sample int
	cmd := &cobra.Command{
		Use:   "profile",
		Short: "Profile the columns of the data file",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := configure(root)
			if err != nil {
				return err
			}
			opts, err := loaderOptions(cfg.Data)
			if err != nil {
				return err
			}

			header, rows, err := loader.ReadRawFile(cfg.Data.Path, opts)
			if err != nil {
				return err
			}
			profile, err := schema.Discover(header, rows, schema.DiscoverOptions{
				SampleSize:   sample,
				Source:       cfg.Data.Path,
				DecimalComma: opts.DecimalComma(),
			})
			if err != nil {
				return err
			}

			var w io.Writer = cmd.OutOrStdout()
			if outFile != "" {
				out, err := os.Create(outFile)
				if err != nil {
					return errors.Wrap(err, errors.ErrorTypeIO, "failed to create output file").WithDetail("path", outFile)
				}
				defer out.Close()
				w = out
			}

			if format == "text" {
				return writeProfileText(w, profile)
			}
			return writeJSON(w, profile, format)
		},
	}
	cmd.Flags().StringVar(&format, "format", "pretty", "Output format: json, pretty, text")
	cmd.Flags().StringVar(&outFile, "out", "", "Write output to file instead of stdout")
	cmd.Flags().IntVar(&sample, "sample", 0, "Rows to inspect (0 = all)")
	return cmd
}

func writeProfileText(w io.Writer, p *schema.Config) error {
	fmt.Fprintf(w, "%s: %d rows, %d dimensions, %d measures\n\n",
		p.Name, p.RowCount, len(p.Dimensions), len(p.Measures))

	dims := newTable(w, []string{"Dimension", "Source", "Unique", "Nulls", "Samples"})
	for _, d := range p.Dimensions {
		dims.Append([]string{d.Key, d.Source, strconv.Itoa(d.UniqueCount), strconv.Itoa(d.NullCount), strings.Join(d.SampleValues, ", ")})
	}
	dims.Render()
	fmt.Fprintln(w)

	measures := newTable(w, []string{"Measure", "Source", "Min", "Max", "Mean", "Nulls"})
	for _, m := range p.Measures {
		measures.Append([]string{m.Key, m.Source, optional(m.Min), optional(m.Max), optional(m.Mean), strconv.Itoa(m.NullCount)})
	}
	measures.Render()

	for _, s := range p.SkippedColumns {
		fmt.Fprintf(w, "skipped %s: %s\n", s.Column, s.Reason)
	}
	return nil
}

func optional(v *float64) string {
	if v == nil {
		return ""
	}
	return fmtNum(*v)
}
