package jaeger

import (
	"github.com/spf13/viper"
	"go.opentelemetry.io/otel/exporters/jaeger"
)

const defaultEndpoint = "http://jaeger:14268/api/traces"

// Endpoint returns otel.jaeger_endpoint, or the collector address used in
// the docker compose setup.
func Endpoint() string {
	if endpoint := viper.GetString("otel.jaeger_endpoint"); endpoint != "" {
		return endpoint
	}

	return defaultEndpoint
}

func MustNewJaeger() *jaeger.Exporter {
	exp, err := jaeger.New(jaeger.WithCollectorEndpoint(
		jaeger.WithEndpoint(Endpoint()),
	))
	if err != nil {
		panic(err)
	}

	return exp
}
