package config_test

import (
	"fmt"
	"log"

	"github.com/ajitpratap0/geosample/pkg/config"
)

// ExampleNewSampleConfig demonstrates the defaults of a sampling run.
func ExampleNewSampleConfig() {
	cfg := config.NewSampleConfig()

	fmt.Printf("Input: %s\n", cfg.InputPath)
	fmt.Printf("Output: %s\n", cfg.OutputPath)
	fmt.Printf("Sample Size: %d\n", cfg.SampleSize)
	fmt.Printf("Seed: %d\n", cfg.Seed)

	// Output:
	// Input: ../Assets/data/train.geojson
	// Output: data/1000samples.geojson
	// Sample Size: 1000
	// Seed: 1
}

// ExampleSampleConfig_Validate shows how to validate a configuration
// before running the pipeline.
func ExampleSampleConfig_Validate() {
	cfg := config.NewSampleConfig()
	cfg.InputPath = "s3://datasets/train.geojson.gz"
	cfg.OutputPath = "out/sample.geojsonl"
	cfg.SampleSize = 250

	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	fmt.Println("Configuration is valid!")

	// Output:
	// Configuration is valid!
}

// ExampleSampleConfig_ResolvePaths shows how relative local paths are
// anchored at the base path while remote URIs are kept.
func ExampleSampleConfig_ResolvePaths() {
	cfg := config.NewSampleConfig()
	cfg.BasePath = "/work/project"
	cfg.OutputPath = "gs://bucket/sample.geojson"
	cfg.ResolvePaths()

	fmt.Println(cfg.InputPath)
	fmt.Println(cfg.OutputPath)

	// Output:
	// /work/Assets/data/train.geojson
	// gs://bucket/sample.geojson
}
