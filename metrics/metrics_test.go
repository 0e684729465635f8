package metrics

import (
	"fmt"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

func TestEngineMetricsCountsOutcomes(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewEngineMetrics(reg)
	m.Observe("search", "ok")
	m.Observe("search", "ok")
	m.Observe("bulk_delete", "partial")
	m.Observe("", "")

	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather metrics: %v", err)
	}

	tests := []struct {
		labels map[string]string
		want   float64
	}{
		{map[string]string{"op": "search", "outcome": "ok"}, 2},
		{map[string]string{"op": "bulk_delete", "outcome": "partial"}, 1},
		{map[string]string{"op": "unknown", "outcome": "unknown"}, 1},
	}
	for _, tt := range tests {
		got, err := fetchCounterValue(mfs, "catalog_operations_total", tt.labels)
		if err != nil {
			t.Fatalf("fetch %v: %v", tt.labels, err)
		}
		if got != tt.want {
			t.Fatalf("expected %v=%v, got %v", tt.labels, tt.want, got)
		}
	}
}

func TestStoreMetricsExportsCountersAndHistogram(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewStoreMetrics(reg)
	m.ObserveRequest("search", 200, 15*time.Millisecond)
	m.ObserveRequest("delete", 404, time.Millisecond)
	m.SetSearchResults(7)

	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather metrics: %v", err)
	}

	if got, err := fetchCounterValue(mfs, "price_store_requests_total", map[string]string{"op": "delete", "status": "404"}); err != nil {
		t.Fatalf("fetch requests: %v", err)
	} else if got != 1 {
		t.Fatalf("expected 1 delete 404, got %f", got)
	}

	mf := findMetricFamily(mfs, "price_store_request_duration_seconds")
	if mf == nil || len(mf.GetMetric()) != 2 {
		t.Fatalf("expected two duration series, got %v", mf)
	}

	gauge := findMetricFamily(mfs, "price_store_search_results")
	if gauge == nil || gauge.GetMetric()[0].GetGauge().GetValue() != 7 {
		t.Fatalf("expected search results gauge of 7, got %v", gauge)
	}
}

func TestNilRegistererIsNoop(t *testing.T) {
	NewEngineMetrics(nil).Observe("search", "ok")
	NewStoreMetrics(nil).ObserveRequest("search", 200, time.Second)

	var m *StoreMetrics
	m.SetSearchResults(1)
}

func fetchCounterValue(mfs []*dto.MetricFamily, name string, labels map[string]string) (float64, error) {
	mf := findMetricFamily(mfs, name)
	if mf == nil {
		return 0, fmt.Errorf("metric %q not found", name)
	}
	for _, metric := range mf.GetMetric() {
		if matchesLabels(metric.GetLabel(), labels) {
			return metric.GetCounter().GetValue(), nil
		}
	}
	return 0, fmt.Errorf("metric %q missing labels %v", name, labels)
}

func findMetricFamily(mfs []*dto.MetricFamily, name string) *dto.MetricFamily {
	for _, mf := range mfs {
		if mf.GetName() == name {
			return mf
		}
	}
	return nil
}

func matchesLabels(pairs []*dto.LabelPair, want map[string]string) bool {
	matched := 0
	for _, p := range pairs {
		if v, ok := want[p.GetName()]; ok && v == p.GetValue() {
			matched++
		}
	}
	return matched == len(want)
}
