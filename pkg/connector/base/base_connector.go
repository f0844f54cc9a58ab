// Package base provides the BaseConnector that geosample connectors embed.
// It carries the connector's identity, logger and metrics collector, and
// implements the input and output plumbing shared by every format: storage
// access, compression detection and byte accounting.
//
// # Usage
//
//	type MySource struct {
//	    *base.BaseConnector
//	    cfg *core.SourceConfig
//	}
//
//	func NewMySource(cfg *core.SourceConfig) (core.Source, error) {
//	    return &MySource{
//	        BaseConnector: base.NewBaseConnector("my-format", core.ConnectorTypeSource, cfg.Logger),
//	        cfg:           cfg,
//	    }, nil
//	}
package base

import (
	"go.uber.org/zap"

	"github.com/ajitpratap0/geosample/pkg/connector/core"
	"github.com/ajitpratap0/geosample/pkg/logger"
	"github.com/ajitpratap0/geosample/pkg/metrics"
)

// BaseConnector provides common functionality for all connectors.
type BaseConnector struct {
	name          string
	connectorType core.ConnectorType
	logger        *zap.Logger
	metrics       *metrics.Collector
}

// NewBaseConnector creates a base connector. A nil logger uses the global one.
func NewBaseConnector(name string, connectorType core.ConnectorType, log *zap.Logger) *BaseConnector {
	if log == nil {
		log = logger.Get()
	}
	return &BaseConnector{
		name:          name,
		connectorType: connectorType,
		logger: log.With(
			zap.String("connector", name),
			zap.String("type", string(connectorType)),
		),
		metrics: metrics.NewCollector(name + "_" + string(connectorType)),
	}
}

// Name returns the connector name
func (bc *BaseConnector) Name() string {
	return bc.name
}

// Type returns the connector type
func (bc *BaseConnector) Type() core.ConnectorType {
	return bc.connectorType
}

// GetLogger returns the connector's logger
func (bc *BaseConnector) GetLogger() *zap.Logger {
	return bc.logger
}

// GetMetricsCollector returns the connector's collector
func (bc *BaseConnector) GetMetricsCollector() *metrics.Collector {
	return bc.metrics
}

// Metrics returns current metrics
func (bc *BaseConnector) Metrics() map[string]interface{} {
	m := bc.metrics.GetAll()
	m["name"] = bc.name
	m["type"] = bc.connectorType
	return m
}
