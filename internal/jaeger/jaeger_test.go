package jaeger

import (
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
)

func TestEndpoint(t *testing.T) {
	assert.Equal(t, defaultEndpoint, Endpoint())

	viper.Set("otel.jaeger_endpoint", "http://localhost:14268/api/traces")
	t.Cleanup(func() { viper.Set("otel.jaeger_endpoint", "") })
	assert.Equal(t, "http://localhost:14268/api/traces", Endpoint())
}
