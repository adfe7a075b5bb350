package metrics_test

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"

	_ "github.com/Sternrassler/steam-inventory-client/pkg/client"
	_ "github.com/Sternrassler/steam-inventory-client/pkg/inventory"
	"github.com/Sternrassler/steam-inventory-client/pkg/metrics"
	_ "github.com/Sternrassler/steam-inventory-client/pkg/pagination"
	_ "github.com/Sternrassler/steam-inventory-client/pkg/ratelimit"
)

func TestRegistry(t *testing.T) {
	if metrics.Registry == nil {
		t.Error("Registry should not be nil")
	}

	if metrics.Registry != prometheus.DefaultRegisterer {
		t.Error("Registry should be the default Prometheus registerer")
	}
}

// TestNamesRegistered registers a probe under every documented name; each
// must collide with the collector the owning package already registered.
func TestNamesRegistered(t *testing.T) {
	for _, name := range metrics.Names {
		t.Run(name, func(t *testing.T) {
			probe := prometheus.NewGauge(prometheus.GaugeOpts{Name: name, Help: "probe"})
			if err := metrics.Registry.Register(probe); err == nil {
				metrics.Registry.Unregister(probe)
				t.Errorf("metric %q is documented but not registered", name)
			}
		})
	}
}

func TestHandler(t *testing.T) {
	probe := prometheus.NewCounter(prometheus.CounterOpts{Name: "inventory_handler_probe_total", Help: "probe"})
	metrics.Registry.MustRegister(probe)
	defer metrics.Registry.Unregister(probe)
	probe.Inc()

	server := httptest.NewServer(metrics.Handler())
	defer server.Close()

	resp, err := http.Get(server.URL)
	if err != nil {
		t.Fatalf("GET /metrics error = %v", err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)

	if resp.StatusCode != http.StatusOK {
		t.Errorf("StatusCode = %d, want 200", resp.StatusCode)
	}
	if !strings.Contains(string(body), "inventory_handler_probe_total 1") {
		t.Errorf("metrics output missing probe counter")
	}
}
