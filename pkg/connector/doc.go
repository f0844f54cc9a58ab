// Package connector groups the format connectors that move datasets between
// storage and memory.
//
// # Architecture Overview
//
//   - core: the Source and Destination interfaces and their configs.
//
//   - base: BaseConnector, embedded by every connector. It owns the logger
//     and metrics collector and implements the shared I/O path: storage
//     access, compression detection and byte accounting.
//
//   - sources, destinations: format implementations. Each registers itself
//     with the registry in init(); import the aggregate packages for their
//     side effects.
//
//   - registry: format-keyed factories and the extension table used to pick
//     a format from a path.
//
// # Example Usage
//
//	format, err := registry.FormatForPath("train.geojson.gz")
//	if err != nil {
//		return err
//	}
//
//	src, err := registry.CreateSource(format, &core.SourceConfig{
//		Path:  "train.geojson.gz",
//		Store: storage.NewLocalStore(false),
//	})
//	if err != nil {
//		return err
//	}
//
//	ds, err := src.Load(ctx)
//
// Sources read the whole dataset into memory; sampling needs random access to
// every record. Destinations commit atomically through storage.Store.
package connector
