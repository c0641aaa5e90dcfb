package cluster

// PriceStats describes the prices of a cluster's members.
type PriceStats struct {
	Min     float64 `json:"min"`
	Max     float64 `json:"max"`
	Average float64 `json:"average"`
}

// Summary aggregates a clustering pass.
type Summary struct {
	TotalProperties int        `json:"total_properties"`
	NumClusters     int        `json:"num_clusters"`
	NumSingles      int        `json:"num_singles"`
	Featured        int        `json:"featured"`
	Prices          PriceStats `json:"prices"`
}

// Prices returns the price range of the members.
func (c *Cluster) Prices() PriceStats {
	return priceStats(c)
}

func priceStats(clusters ...*Cluster) PriceStats {
	var stats PriceStats
	var sum float64
	n := 0
	for _, c := range clusters {
		for _, p := range c.Properties {
			if n == 0 || p.Price < stats.Min {
				stats.Min = p.Price
			}
			if n == 0 || p.Price > stats.Max {
				stats.Max = p.Price
			}
			sum += p.Price
			n++
		}
	}
	if n > 0 {
		stats.Average = sum / float64(n)
	}
	return stats
}

// Summarize counts badges and singles and the overall price range.
func Summarize(clusters []Cluster) Summary {
	var s Summary
	ptrs := make([]*Cluster, len(clusters))
	for i := range clusters {
		c := &clusters[i]
		ptrs[i] = c
		if c.IsSingle() {
			s.NumSingles++
		} else {
			s.NumClusters++
		}
		s.TotalProperties += c.Size()
		for _, p := range c.Properties {
			if p.Featured {
				s.Featured++
			}
		}
	}
	s.Prices = priceStats(ptrs...)
	return s
}
