package main

import (
	"fmt"
	"io"
	"os"
	"runtime"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ajitpratap0/geosample/pkg/compression"
	"github.com/ajitpratap0/geosample/pkg/connector/registry"
	"github.com/ajitpratap0/geosample/pkg/errors"
	"github.com/ajitpratap0/geosample/pkg/logger"

	// Register the built-in formats
	_ "github.com/ajitpratap0/geosample/pkg/connector/destinations"
	_ "github.com/ajitpratap0/geosample/pkg/connector/sources"
)

var version = "0.1.0"

func main() {
	// Load .env file if it exists
	_ = godotenv.Load()

	if err := newRootCommand(os.Stdout).Execute(); err != nil {
		logger.Error("geosample failed",
			zap.String("error_kind", string(errors.TypeOf(err))),
			zap.Any("details", errors.DetailsOf(err)),
			zap.Error(err))
		_ = logger.Sync()
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCommand(out io.Writer) *cobra.Command {
	root := &cobra.Command{
		Use:   "geosample",
		Short: "geosample - reproducible subsets of GeoJSON datasets",
		Long: `geosample draws a seeded uniform random sample of records from a GeoJSON
dataset, without replacement, and writes it to a new dataset of the same format.
Inputs and outputs may be local paths or s3:// and gs:// URIs, optionally compressed.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetOut(out)

	root.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, args []string) {
			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "geosample v%s\n", version)
			fmt.Fprintf(w, "Go version: %s\n", runtime.Version())
			fmt.Fprintf(w, "OS/Arch: %s/%s\n", runtime.GOOS, runtime.GOARCH)
		},
	})

	root.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List supported formats",
		Run: func(cmd *cobra.Command, args []string) {
			w := cmd.OutOrStdout()
			fmt.Fprintln(w, "Available Formats:")
			for _, f := range registry.ListFormats() {
				fmt.Fprintf(w, "  - %s (%s): %s\n", f.Name, strings.Join(f.Extensions, ", "), f.Description)
			}
			fmt.Fprintln(w, "\nCompression:")
			for _, alg := range compression.Algorithms {
				fmt.Fprintf(w, "  - %s (%s)\n", alg, compression.Extension(alg))
			}
		},
	})

	root.AddCommand(newRunCommand())
	root.AddCommand(newInspectCommand())

	return root
}
