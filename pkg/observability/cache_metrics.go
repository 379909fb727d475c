package observability

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const (
	metricCacheHits   = "sqfvm.cache.hits"
	metricCacheMisses = "sqfvm.cache.misses"

	attrCache = "cache"
)

// CacheStatsProvider exposes cache hit/miss counters for OTel export.
// github.com/sqfvm/language-server/pkg/alg/lru.Cache implements this
// directly via its CacheHits/CacheMisses methods.
type CacheStatsProvider interface {
	CacheHits() int64
	CacheMisses() int64
}

// RegisterCacheMetrics registers observable gauges reporting hit/miss counts
// for C10's two LRU caches: the include-content cache (passed as preprocessed
// and reported under the cache name "preprocessed") and the file-history
// cache. Either provider may be nil, in which case it reports zero.
func RegisterCacheMetrics(mt metric.Meter, preprocessed, history CacheStatsProvider) error {
	hits, err := mt.Int64ObservableGauge(metricCacheHits,
		metric.WithDescription("Cumulative cache hits by cache name"),
		metric.WithUnit("{hit}"),
	)
	if err != nil {
		return fmt.Errorf("create %s: %w", metricCacheHits, err)
	}

	misses, err := mt.Int64ObservableGauge(metricCacheMisses,
		metric.WithDescription("Cumulative cache misses by cache name"),
		metric.WithUnit("{miss}"),
	)
	if err != nil {
		return fmt.Errorf("create %s: %w", metricCacheMisses, err)
	}

	_, err = mt.RegisterCallback(func(_ context.Context, o metric.Observer) error {
		reportCacheStats(o, hits, misses, "preprocessed", preprocessed)
		reportCacheStats(o, hits, misses, "history", history)

		return nil
	}, hits, misses)
	if err != nil {
		return fmt.Errorf("register cache metrics callback: %w", err)
	}

	return nil
}

func reportCacheStats(o metric.Observer, hits, misses metric.Int64Observable, name string, p CacheStatsProvider) {
	attrs := metric.WithAttributes(attribute.String(attrCache, name))

	if p == nil {
		o.ObserveInt64(hits, 0, attrs)
		o.ObserveInt64(misses, 0, attrs)

		return
	}

	o.ObserveInt64(hits, p.CacheHits(), attrs)
	o.ObserveInt64(misses, p.CacheMisses(), attrs)
}
