package main

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/champtc/cyio-graph/internal/domain"
	"github.com/champtc/cyio-graph/internal/graphdata"
	"github.com/champtc/cyio-graph/internal/service"
)

func buildCmd() *cobra.Command {
	var (
		input       string
		output      string
		encoded     string
		types       []string
		exclude     []string
		markedBy    []string
		createdBy   []string
		start       string
		end         string
		correlation bool
	)

	cmd := &cobra.Command{
		Use:   "build",
		Short: "Build the graph payload of a set of records",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := requireFlag("input", input); err != nil {
				return err
			}
			objects, err := readObjects(input, cmd.InOrStdin())
			if err != nil {
				return err
			}

			startTs, err := parseTimeFlag("start", start)
			if err != nil {
				return err
			}
			endTs, err := parseTimeFlag("end", end)
			if err != nil {
				return err
			}
			if (startTs == nil) != (endTs == nil) {
				return errors.New("--start and --end must be provided together")
			}

			criteria := domain.FilterCriteria{
				TypesAllow:     types,
				TypesExclude:   exclude,
				MarkedByAllow:  markedBy,
				CreatedByAllow: createdBy,
			}
			if startTs != nil {
				criteria.TimeInterval = &domain.TimeInterval{Start: *startTs, End: *endTs}
			}

			svc := service.NewGraphService(nil, nil, nil, nil)
			view := svc.Build(cmd.Context(), service.BuildRequest{
				Objects:     objects,
				Positions:   graphdata.DecodePositions(encoded),
				Filters:     criteria,
				Correlation: correlation,
			})
			return writeJSON(cmd.OutOrStdout(), output, view)
		},
	}

	cmd.Flags().StringVarP(&input, "input", "i", "", "JSON file of records (- for stdin)")
	cmd.Flags().StringVarP(&output, "output", "o", "", "Write the graph to this file instead of stdout")
	cmd.Flags().StringVar(&encoded, "positions", "", "Saved positions blob (base64 JSON)")
	cmd.Flags().StringSliceVar(&types, "types", nil, "Only keep these entity types")
	cmd.Flags().StringSliceVar(&exclude, "exclude", nil, "Drop these entity types")
	cmd.Flags().StringSliceVar(&markedBy, "marked-by", nil, "Only keep records carrying one of these marking ids")
	cmd.Flags().StringSliceVar(&createdBy, "created-by", nil, "Only keep records authored by these identity ids")
	cmd.Flags().StringVar(&start, "start", "", "Time window start (RFC3339)")
	cmd.Flags().StringVar(&end, "end", "", "Time window end (RFC3339)")
	cmd.Flags().BoolVar(&correlation, "correlation", false, "Build the report correlation graph")
	return cmd
}
