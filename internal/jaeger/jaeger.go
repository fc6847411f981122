package jaeger

import (
	"fmt"

	"github.com/spf13/viper"
	"go.opentelemetry.io/otel/exporters/jaeger"
)

const defaultEndpoint = "http://jaeger:14268/api/traces"

// NewExporter sends spans to the collector HTTP endpoint.
func NewExporter(endpoint string) (*jaeger.Exporter, error) {
	if endpoint == "" {
		endpoint = defaultEndpoint
	}

	exp, err := jaeger.New(jaeger.WithCollectorEndpoint(jaeger.WithEndpoint(endpoint)))
	if err != nil {
		return nil, fmt.Errorf("failed to create jaeger exporter for %s: %w", endpoint, err)
	}

	return exp, nil
}

// MustNewJaeger builds the exporter for jaeger.endpoint.
func MustNewJaeger() *jaeger.Exporter {
	exp, err := NewExporter(viper.GetString("jaeger.endpoint"))
	if err != nil {
		panic(err)
	}

	return exp
}
