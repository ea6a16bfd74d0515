package observability

import (
	"bytes"
	"testing"

	"github.com/apex/log"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLoggerJSON(t *testing.T) {
	var buf bytes.Buffer
	logger, err := NewLogger(&buf, "INFO", "json")
	require.NoError(t, err)

	logger.WithField("shape", "disk").Info("query")
	logger.Debug("hidden")

	out := buf.String()
	assert.Contains(t, out, `"message":"query"`)
	assert.Contains(t, out, `"shape":"disk"`)
	assert.NotContains(t, out, "hidden")
}

func TestNewLoggerLevels(t *testing.T) {
	logger, err := NewLogger(&bytes.Buffer{}, "debug", "text")
	require.NoError(t, err)
	assert.Equal(t, log.DebugLevel, logger.Level)

	_, err = NewLogger(&bytes.Buffer{}, "loud", "cli")
	assert.Error(t, err)

	_, err = NewLogger(&bytes.Buffer{}, "info", "xml")
	assert.Error(t, err)
}

func TestNewMetricsRegisters(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)

	m.Queries.WithLabelValues("by_shape", OutcomeSuccess).Inc()
	m.BackendInfo.WithLabelValues("file").Set(1)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.Queries.WithLabelValues("by_shape", OutcomeSuccess)))

	families, err := reg.Gather()
	require.NoError(t, err)
	var names []string
	for _, f := range families {
		names = append(names, f.GetName())
	}
	assert.Contains(t, names, "ufosightings_queries_total")
	assert.Contains(t, names, "ufosightings_backend_info")
}
