package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
)

func TestRegistry(t *testing.T) {
	if Registry == nil {
		t.Error("Registry should not be nil")
	}

	if Registry != prometheus.DefaultRegisterer {
		t.Error("Registry should be the default Prometheus registerer")
	}
}

func TestFactory(t *testing.T) {
	reg := prometheus.NewRegistry()
	saved := Registry
	Registry = reg
	defer func() { Registry = saved }()

	c := Factory().NewCounter(prometheus.CounterOpts{
		Name: "grid_factory_test_total",
		Help: "Factory test counter",
	})
	c.Inc()

	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("Gather failed: %v", err)
	}
	if len(families) != 1 || families[0].GetName() != "grid_factory_test_total" {
		t.Errorf("expected counter registered with swapped registry, got %v", families)
	}
}
