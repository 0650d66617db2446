package merger

// DefaultCategoryWeight applies to categories missing from the table.
const DefaultCategoryWeight = 0.5

// CategoryWeights maps a category to its bias factor in [0,1].
type CategoryWeights map[Category]float64

// DefaultCategoryWeights returns a fresh copy of the built-in table.
func DefaultCategoryWeights() CategoryWeights {
	return CategoryWeights{
		CategoryCustomer:    1.00,
		CategoryGuidelines:  0.60,
		CategoryURL:         0.70,
		CategoryDocument:    0.70,
		CategoryOnpage:      0.80,
		CategorySitemap:     0.40,
		CategoryRSS:         0.55,
		CategoryTrends:      0.45,
		CategoryStatistics:  0.60,
		CategoryAds:         0.50,
		CategorySERP:        0.55,
		CategoryCompetitors: 0.60,
	}
}

// Weight looks up c, clamping configured values into [0,1].
func (w CategoryWeights) Weight(c Category) float64 {
	v, ok := w[c]
	if !ok {
		return DefaultCategoryWeight
	}
	return clamp01(v)
}

// WithOverrides returns a copy of w with overrides applied.
func (w CategoryWeights) WithOverrides(overrides map[string]float64) CategoryWeights {
	out := make(CategoryWeights, len(w)+len(overrides))
	for k, v := range w {
		out[k] = v
	}
	for k, v := range overrides {
		out[Category(k)] = clamp01(v)
	}
	return out
}

func clamp01(v float64) float64 {
	switch {
	case v != v || v < 0:
		return 0
	case v > 1:
		return 1
	}
	return v
}
