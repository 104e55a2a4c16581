package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/champtc/cyio-graph/internal/domain"
	"github.com/champtc/cyio-graph/internal/graphdata"
)

const histogramWidth = 40

func timerangeCmd() *cobra.Command {
	var (
		input  string
		rows   int
		asJSON bool
	)

	cmd := &cobra.Command{
		Use:   "timerange",
		Short: "Show the time-range interval and histogram of a set of records",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := requireFlag("input", input); err != nil {
				return err
			}
			objects, err := readObjects(input, cmd.InOrStdin())
			if err != nil {
				return err
			}

			interval := graphdata.ComputeTimeRangeInterval(objects, time.Now())
			values := graphdata.ComputeTimeRangeValues(interval, objects)
			if asJSON {
				return writeJSON(cmd.OutOrStdout(), "", map[string]any{
					"start":  interval.Start,
					"end":    interval.End,
					"values": values,
				})
			}

			out := cmd.OutOrStdout()
			total := 0
			for _, v := range values {
				total += v.Value
			}
			fmt.Fprintf(out, "%s  %s\n", brand.Sprintf("%-8s", "Start"), interval.Start.Format(time.RFC3339))
			fmt.Fprintf(out, "%s  %s\n", brand.Sprintf("%-8s", "End"), interval.End.Format(time.RFC3339))
			fmt.Fprintf(out, "%s  %d\n", brand.Sprintf("%-8s", "Dated"), total)
			fmt.Fprintln(out)

			if total == 0 {
				warn.Fprintln(out, "no dated records")
				return nil
			}

			summary := summarize(values, rows)
			peak := 0
			for _, s := range summary {
				peak = max(peak, s.count)
			}
			for _, s := range summary {
				bar := strings.Repeat("#", s.count*histogramWidth/peak)
				fmt.Fprintf(out, "%s  %s %s\n",
					subtle.Sprint(s.start.Format("2006-01-02 15:04")),
					info.Sprintf("%-*s", histogramWidth, bar),
					subtle.Sprint(s.count))
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&input, "input", "i", "", "JSON file of records (- for stdin)")
	cmd.Flags().IntVar(&rows, "rows", 20, "Number of histogram rows")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the raw interval and buckets as JSON")
	return cmd
}

type histogramRow struct {
	start time.Time
	count int
}

// summarize merges consecutive buckets into at most rows rows.
func summarize(values []domain.TimeRangeValue, rows int) []histogramRow {
	if rows <= 0 || rows > len(values) {
		rows = len(values)
	}
	if rows == 0 {
		return nil
	}
	per := (len(values) + rows - 1) / rows
	out := make([]histogramRow, 0, rows)
	for i := 0; i < len(values); i += per {
		row := histogramRow{start: values[i].Time}
		for j := i; j < i+per && j < len(values); j++ {
			row.count += values[j].Value
		}
		out = append(out, row)
	}
	return out
}
