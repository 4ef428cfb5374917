package benchmarks

import (
	"context"
	"fmt"
	"testing"

	"github.com/randalmurphal/lazyreg/pkg/lazyreg"
	"github.com/randalmurphal/lazyreg/pkg/lazyreg/config"
	"github.com/randalmurphal/lazyreg/pkg/lazyreg/observability"
	"github.com/randalmurphal/lazyreg/pkg/lazyreg/registry"
)

// Service is the value stored in benchmark registries.
type Service struct {
	Name string
}

func newService(_ context.Context) (*Service, error) {
	return &Service{Name: "svc"}, nil
}

func quiet() registry.Option {
	return registry.WithLogger(nil)
}

// BenchmarkNew measures registry creation overhead.
func BenchmarkNew(b *testing.B) {
	for i := 0; i < b.N; i++ {
		registry.New[string, *Service](quiet())
	}
}

// BenchmarkGetOrCreate_Hit measures the published-instance fast path.
func BenchmarkGetOrCreate_Hit(b *testing.B) {
	r := registry.New[string, *Service](quiet())
	ctx := context.Background()
	_, _ = r.GetOrCreate(ctx, "svc", newService)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = r.GetOrCreate(ctx, "svc", newService)
	}
}

// BenchmarkGetOrCreate_Hit_Parallel measures contended reads.
func BenchmarkGetOrCreate_Hit_Parallel(b *testing.B) {
	r := registry.New[string, *Service](quiet())
	ctx := context.Background()
	_, _ = r.GetOrCreate(ctx, "svc", newService)

	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			_, _ = r.GetOrCreate(ctx, "svc", newService)
		}
	})
}

// BenchmarkGetOrCreate_Hit_WithMetrics includes the OTel recorder on every lookup.
func BenchmarkGetOrCreate_Hit_WithMetrics(b *testing.B) {
	r := registry.New[string, *Service](quiet(), registry.WithMetrics(observability.NewMetricsRecorder()))
	ctx := context.Background()
	_, _ = r.GetOrCreate(ctx, "svc", newService)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = r.GetOrCreate(ctx, "svc", newService)
	}
}

// BenchmarkGetOrCreate_FirstConstruction measures a miss followed by publish.
func BenchmarkGetOrCreate_FirstConstruction(b *testing.B) {
	for _, n := range []int{10, 100, 1000} {
		keys := make([]string, n)
		for i := range keys {
			keys[i] = fmt.Sprintf("svc-%d", i)
		}

		b.Run(fmt.Sprintf("keys_%d", n), func(b *testing.B) {
			ctx := context.Background()
			for i := 0; i < b.N; i++ {
				r := registry.New[string, *Service](quiet())
				for _, k := range keys {
					_, _ = r.GetOrCreate(ctx, k, newService)
				}
			}
		})
	}
}

// BenchmarkResolve_Hit measures typed access to a heterogeneous registry.
func BenchmarkResolve_Hit(b *testing.B) {
	r := registry.New[string, any](quiet())
	ctx := context.Background()
	_, _ = registry.Resolve(ctx, r, "svc", newService)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = registry.Resolve(ctx, r, "svc", newService)
	}
}

// BenchmarkContainer_Cache measures the composition root's accessor.
func BenchmarkContainer_Cache(b *testing.B) {
	c := lazyreg.New(config.Defaults(), nil, quiet())
	ctx := context.Background()
	if _, err := c.Cache(ctx); err != nil {
		b.Fatal(err)
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = c.Cache(ctx)
	}
}
