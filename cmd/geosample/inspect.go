package main

import (
	"fmt"
	"io"
	"sort"

	"github.com/spf13/cobra"

	"github.com/ajitpratap0/geosample/internal/pipeline"
	"github.com/ajitpratap0/geosample/pkg/config"
	"github.com/ajitpratap0/geosample/pkg/logger"
	"github.com/ajitpratap0/geosample/pkg/models"
)

func newInspectCommand() *cobra.Command {
	var format, compression string

	cmd := &cobra.Command{
		Use:   "inspect <path>",
		Short: "Describe a dataset",
		Long: `Load a dataset and print its record count, bounding box, geometry types,
collection members and inferred attribute schema.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.NewSampleConfig()
			cfg.InputPath = args[0]
			cfg.Input.Format = format
			cfg.Input.Compression = compression

			ds, err := pipeline.LoadDataset(cmd.Context(), cfg, pipeline.WithLogger(logger.Get()))
			if err != nil {
				return err
			}
			printDataset(cmd.OutOrStdout(), args[0], ds)
			return nil
		},
	}

	cmd.Flags().StringVar(&format, "format", "", "Input format, overriding the file extension")
	cmd.Flags().StringVar(&compression, "compression", "", "Input compression, overriding detection")
	return cmd
}

func printDataset(w io.Writer, path string, ds *models.Dataset) {
	fmt.Fprintf(w, "Dataset: %s\n", path)
	fmt.Fprintf(w, "Records: %d\n", ds.Len())

	if bound, ok := ds.Bound(); ok {
		fmt.Fprintf(w, "Bounds: [%g, %g, %g, %g]\n", bound.Min.X(), bound.Min.Y(), bound.Max.X(), bound.Max.Y())
	} else {
		fmt.Fprintln(w, "Bounds: none")
	}

	if ds.Schema != nil {
		fmt.Fprintf(w, "Geometry types: %v\n", ds.Schema.GeometryTypes)
	}

	if len(ds.Members) > 0 {
		keys := make([]string, 0, len(ds.Members))
		for k := range ds.Members {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		fmt.Fprintf(w, "Members: %v\n", keys)
	}

	if ds.Schema == nil || len(ds.Schema.Fields) == 0 {
		return
	}
	fmt.Fprintln(w, "Fields:")
	for _, f := range ds.Schema.Fields {
		nullable := ""
		if f.Nullable {
			nullable = " (nullable)"
		}
		stats := fmt.Sprintf("%d present", f.Present)
		if f.Range != nil {
			stats += fmt.Sprintf(", range [%g, %g]", f.Range.Min, f.Range.Max)
		}
		fmt.Fprintf(w, "  - %s: %s%s, %s\n", f.Name, f.Type, nullable, stats)
	}
}
