// Package geosample draws reproducible subsets of geospatial vector datasets.
//
// Given a GeoJSON dataset, a sample size N and a seed, geosample selects N
// distinct records uniformly at random (without replacement) and writes them,
// unmodified, to a new dataset of the same format. The collection-level
// members that describe the spatial reference (name, crs) are carried over, so
// the sample is interchangeable with the full dataset in downstream tooling. The
// same input, N and seed always produce the same output.
//
// # Quick Start
//
// Sample 1000 records with the default settings:
//
//	geosample run -i ../Assets/data/train.geojson -o data/1000samples.geojson -n 1000 --seed 1
//
// Or from Go:
//
//	import (
//	    "context"
//	    "github.com/ajitpratap0/geosample/internal/pipeline"
//	    "github.com/ajitpratap0/geosample/pkg/config"
//	)
//
//	cfg := config.NewSampleConfig()
//	cfg.InputPath = "s3://datasets/train.geojson.gz"
//	cfg.OutputPath = "data/500samples.geojson"
//	cfg.SampleSize = 500
//
//	result, err := pipeline.SampleAndExport(context.Background(), cfg)
//
// # Key Packages
//
//	internal/pipeline - Load, sample and write stages with metrics and tracing
//	pkg/sampler       - Seeded uniform sampling without replacement
//	pkg/connector     - GeoJSON and GeoJSON sequence sources and destinations
//	pkg/storage       - Local, S3 and GCS stores with atomic writes
//	pkg/compression   - gzip, zstd, lz4, snappy and s2 codecs
//	pkg/config        - Run configuration (YAML, environment, flags)
//	pkg/errors        - Structured error kinds callers branch on
//	pkg/logger        - Structured logging
//	pkg/metrics       - Prometheus run metrics
//
// # Errors
//
// Every failure carries one of the pkg/errors kinds:
//   - input_not_found: the input does not exist or cannot be read
//   - unsupported_format: the input cannot be parsed, or a path has an unknown extension
//   - sample_size_exceeds_population: N is larger than the dataset
//   - write_permission_denied: the output cannot be created
//
// No output is created when a run fails.
//
// # Configuration
//
// Settings are layered: defaults, then a YAML file (with ${VAR_NAME}
// substitution), then GEOSAMPLE_* environment variables, then flags. A .env
// file in the working directory is loaded first.
package geosample
