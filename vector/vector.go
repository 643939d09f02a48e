package vector

import (
	"context"
	"sort"

	"github.com/yosbelms/coldbase"
	"github.com/yosbelms/coldbase/blobstore"
	"github.com/yosbelms/coldbase/collection"
)

// VectorCollection wraps a *collection.Collection, adding write-time vector
// validation/normalization and brute-force similarity search (spec §4.8).
type VectorCollection struct {
	col       *collection.Collection
	dimension int
	metric    Metric
	normalize bool
}

// New validates cfg and returns a VectorCollection backed by store.
func New(store blobstore.Store, cfg Config) (*VectorCollection, error) {
	col, err := collection.New(store, cfg.Collection)
	if err != nil {
		return nil, err
	}
	return &VectorCollection{
		col:       col,
		dimension: cfg.Dimension,
		metric:    cfg.Metric,
		normalize: resolveNormalize(cfg),
	}, nil
}

// Collection exposes the underlying Collection for Find/Count/GetMany use.
func (vc *VectorCollection) Collection() *collection.Collection { return vc.col }

// validateVector checks a vector against dimension and per-element finiteness
// (spec §4.8 write validation).
func validateVector(vec []float64, dimension int) error {
	if len(vec) != dimension {
		return coldbase.VectorDimensionError{Got: len(vec), Want: dimension}
	}
	for i, x := range vec {
		if !isFinite(x) {
			return coldbase.InvalidVectorError{Index: i}
		}
	}
	return nil
}

// Put validates data["vector"], L2-normalizes it in place if Normalize is set,
// and writes the record (spec §4.8).
func (vc *VectorCollection) Put(ctx context.Context, id string, data map[string]any) error {
	vec := extractRawVector(data)
	if err := validateVector(vec, vc.dimension); err != nil {
		return err
	}
	if vc.normalize {
		vec = normalizeL2(vec)
	}

	stored := make(map[string]any, len(data))
	for k, v := range data {
		stored[k] = v
	}
	stored["vector"] = vec
	return vc.col.Put(ctx, id, stored)
}

// Delete writes a tombstone for id.
func (vc *VectorCollection) Delete(ctx context.Context, id string) error {
	return vc.col.Delete(ctx, id)
}

// Get returns the live, non-expired record for id.
func (vc *VectorCollection) Get(ctx context.Context, id string, at *int64) (map[string]any, bool, error) {
	return vc.col.Get(ctx, id, at)
}

// SearchOptions configures Search (spec §4.8).
type SearchOptions struct {
	Limit int
	// Threshold: keep score >= Threshold for cosine/dotProduct, score <= Threshold
	// for euclidean. Unset (nil) means no threshold.
	Threshold *float64
	// Where/Predicate narrow candidates before scoring, same contract as
	// collection.FindOptions.
	Where         map[string]any
	Predicate     func(data map[string]any) bool
	IncludeVector bool
	At            *int64
}

// SearchResult is one scored hit.
type SearchResult struct {
	ID    string
	Data  map[string]any
	Score float64
}

// Search validates and optionally normalizes query, then scores every live,
// non-expired, filter-matching record by the collection's metric, applies
// Threshold, sorts (descending for cosine/dotProduct, ascending for euclidean),
// and returns the top Limit (spec §4.8). Search is exact O(n·d); use Where or
// Predicate to cut n first where possible.
func (vc *VectorCollection) Search(ctx context.Context, query []float64, opts SearchOptions) ([]SearchResult, error) {
	if err := validateVector(query, vc.dimension); err != nil {
		return nil, err
	}
	q := append([]float64(nil), query...)
	if vc.normalize {
		q = normalizeL2(q)
	}

	candidates, err := vc.col.Find(ctx, collection.FindOptions{
		Where:     opts.Where,
		Predicate: opts.Predicate,
		At:        opts.At,
	})
	if err != nil {
		return nil, err
	}

	var results []SearchResult
	for _, data := range candidates {
		vec := extractRawVector(data)
		if vec == nil || len(vec) != vc.dimension {
			continue
		}
		score := vc.score(q, vec)
		if opts.Threshold != nil {
			if vc.metric == MetricEuclidean {
				if score > *opts.Threshold {
					continue
				}
			} else if score < *opts.Threshold {
				continue
			}
		}

		out := data
		if !opts.IncludeVector {
			out = make(map[string]any, len(data))
			for k, v := range data {
				if k == "vector" {
					continue
				}
				out[k] = v
			}
		}
		id, _ := data["id"].(string)
		results = append(results, SearchResult{ID: id, Data: out, Score: score})
	}

	if vc.metric == MetricEuclidean {
		sort.Slice(results, func(i, j int) bool { return results[i].Score < results[j].Score })
	} else {
		sort.Slice(results, func(i, j int) bool { return results[i].Score > results[j].Score })
	}
	if opts.Limit > 0 && opts.Limit < len(results) {
		results = results[:opts.Limit]
	}
	return results, nil
}

func (vc *VectorCollection) score(query, candidate []float64) float64 {
	switch vc.metric {
	case MetricEuclidean:
		return euclideanDistance(query, candidate)
	case MetricDotProduct:
		return dotProduct(query, candidate)
	default: // MetricCosine: with normalization on (the cosine default) both sides are unit
		// vectors, so dot product == cosine similarity; with Normalize(false) this is the raw dot product.
		return dotProduct(query, candidate)
	}
}
