package vector

import "github.com/yosbelms/coldbase/collection"

// Metric selects the distance/similarity function used by Search (spec §4.8).
type Metric int

const (
	// MetricCosine scores by cosine similarity (dot product over normalized vectors).
	MetricCosine Metric = iota
	// MetricEuclidean scores by L2 distance (lower is better).
	MetricEuclidean
	// MetricDotProduct scores by raw dot product.
	MetricDotProduct
)

// Config declares a vector collection's fixed shape (spec §4.8).
type Config struct {
	Dimension int
	Metric    Metric
	// Normalize, if nil, defaults to true iff Metric is MetricCosine.
	Normalize  *bool
	Collection collection.Config
}

// Normalize returns a *bool for Config.Normalize, since Go has no literal
// address-of-bool syntax.
func Normalize(b bool) *bool { return &b }

func resolveNormalize(cfg Config) bool {
	if cfg.Normalize != nil {
		return *cfg.Normalize
	}
	return cfg.Metric == MetricCosine
}
