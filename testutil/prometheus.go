package testutil

import (
	"testing"

	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/require"
)

// PromCounterValue returns the value of the counter named name whose label
// values match label, in order. ok is false if no such series exists.
func PromCounterValue(t testing.TB, metrics []*dto.MetricFamily, name string, label ...string) (value float64, ok bool) {
	t.Helper()
	for _, family := range metrics {
		if family.GetName() != name {
			continue
		}
		ms := family.GetMetric()
	metricsLoop:
		for _, m := range ms {
			require.Equal(t, len(label), len(m.GetLabel()))
			for i, lv := range label {
				if lv != m.GetLabel()[i].GetValue() {
					continue metricsLoop
				}
			}
			return m.GetCounter().GetValue(), true
		}
	}
	return 0, false
}

func PromCounterHasValue(t testing.TB, metrics []*dto.MetricFamily, value float64, name string, label ...string) bool {
	t.Helper()
	got, ok := PromCounterValue(t, metrics, name, label...)
	return ok && got == value
}
