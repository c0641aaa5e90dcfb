package cluster

import (
	"sort"
	"strconv"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/quadtree"

	"propertymap/server/internal/geo"
	"propertymap/server/internal/models"
)

// DefaultRadius is the pixel distance within which markers are grouped.
const DefaultRadius = 50

// Cluster is a group of nearby properties rendered as one marker.
type Cluster struct {
	ID         string            `json:"id"`
	Properties []models.Property `json:"properties"`
	Center     geo.LatLng        `json:"center"`
	Bounds     geo.Bounds        `json:"bounds"`
	Position   geo.PixelPoint    `json:"position"`
}

// Size returns the number of member properties.
func (c *Cluster) Size() int {
	return len(c.Properties)
}

// IsSingle reports whether the cluster renders as an individual marker.
func (c *Cluster) IsSingle() bool {
	return len(c.Properties) == 1
}

// Contains reports whether the property with id is a member.
func (c *Cluster) Contains(id string) bool {
	for _, p := range c.Properties {
		if p.ID == id {
			return true
		}
	}
	return false
}

// Options controls a clustering pass.
type Options struct {
	Enabled bool
	Radius  float64

	// IndexThreshold switches candidate lookup from the pairwise scan to a
	// quadtree once the input reaches this many properties. Zero disables
	// the index.
	IndexThreshold int
}

// ID returns the cluster id derived from the seed property. Build appends
// the seed's input index when two seeds share a property id.
func ID(seedID string) string {
	return "cluster-" + seedID
}

// ids hands out cluster ids that are unique within one Build.
type ids map[string]bool

func (taken ids) next(seedID string, seedIdx int) string {
	id := ID(seedID)
	for n := 0; taken[id]; n++ {
		id = ID(seedID) + "-" + strconv.Itoa(seedIdx)
		if n > 0 {
			id += "-" + strconv.Itoa(n)
		}
	}
	taken[id] = true
	return id
}

// Build groups properties greedily. Each unprocessed property, in input
// order, seeds a cluster and absorbs every later unprocessed property whose
// projected position lies within opts.Radius pixels of the seed's own
// position. The result is order dependent and not globally optimal.
//
// When clustering is disabled or the projector's viewport cannot be
// measured, every property becomes its own cluster.
func Build(properties []models.Property, proj geo.Projector, opts Options) []Cluster {
	clusters := make([]Cluster, 0, len(properties))
	if len(properties) == 0 {
		return clusters
	}

	positions := make([]geo.PixelPoint, len(properties))
	for i, p := range properties {
		positions[i] = proj.ToPixel(p.Coordinates)
	}

	taken := make(ids, len(properties))
	if !opts.Enabled || !proj.Viewport().Measurable() {
		for i, p := range properties {
			b := newBuilder(p)
			clusters = append(clusters, b.cluster(taken.next(p.ID, i), proj))
		}
		return clusters
	}

	var candidates func(seed int) []int
	if opts.IndexThreshold > 0 && len(properties) >= opts.IndexThreshold {
		candidates = newIndex(positions).near(opts.Radius)
	} else {
		candidates = func(seed int) []int {
			rest := make([]int, 0, len(properties)-seed-1)
			for j := seed + 1; j < len(properties); j++ {
				rest = append(rest, j)
			}
			return rest
		}
	}

	processed := make([]bool, len(properties))
	for i, p := range properties {
		if processed[i] {
			continue
		}
		processed[i] = true
		b := newBuilder(p)

		for _, j := range candidates(i) {
			if processed[j] {
				continue
			}
			if geo.PixelDistance(positions[i], positions[j]) <= opts.Radius {
				processed[j] = true
				b.add(properties[j])
			}
		}

		clusters = append(clusters, b.cluster(taken.next(p.ID, i), proj))
	}

	return clusters
}

type builder struct {
	members []models.Property
	sumLat  float64
	sumLng  float64
	center  geo.LatLng
	bounds  geo.Bounds
}

func newBuilder(seed models.Property) *builder {
	return &builder{
		members: []models.Property{seed},
		sumLat:  seed.Coordinates.Lat,
		sumLng:  seed.Coordinates.Lng,
		center:  seed.Coordinates,
		bounds:  geo.BoundsAround(seed.Coordinates),
	}
}

func (b *builder) add(p models.Property) {
	b.members = append(b.members, p)
	b.sumLat += p.Coordinates.Lat
	b.sumLng += p.Coordinates.Lng
	n := float64(len(b.members))
	b.center = geo.LatLng{Lat: b.sumLat / n, Lng: b.sumLng / n}
	b.bounds = b.bounds.Extend(p.Coordinates)
}

func (b *builder) cluster(id string, proj geo.Projector) Cluster {
	return Cluster{
		ID:         id,
		Properties: b.members,
		Center:     b.center,
		Bounds:     b.bounds,
		Position:   proj.ToPixel(b.center),
	}
}

// index is a quadtree over projected positions. It only narrows the
// candidate set; the caller still applies the exact distance rule, so the
// grouping matches the pairwise scan.
type index struct {
	tree      *quadtree.Quadtree
	positions []orb.Point
	buf       []orb.Pointer
}

type indexed struct {
	idx int
	pt  orb.Point
}

func (p indexed) Point() orb.Point {
	return p.pt
}

func newIndex(positions []geo.PixelPoint) *index {
	mp := make(orb.MultiPoint, len(positions))
	for i, pos := range positions {
		mp[i] = orb.Point{pos.X, pos.Y}
	}

	tree := quadtree.New(mp.Bound())
	for i, pt := range mp {
		// Every point lies inside the bound it was built from.
		_ = tree.Add(indexed{idx: i, pt: pt})
	}
	return &index{tree: tree, positions: mp}
}

// near returns a candidate lookup yielding the indices after seed that fall
// inside the square of half-size radius around the seed, in input order.
func (ix *index) near(radius float64) func(seed int) []int {
	return func(seed int) []int {
		c := ix.positions[seed]
		box := orb.Bound{
			Min: orb.Point{c[0] - radius, c[1] - radius},
			Max: orb.Point{c[0] + radius, c[1] + radius},
		}
		ix.buf = ix.tree.InBound(ix.buf[:0], box)

		out := make([]int, 0, len(ix.buf))
		for _, f := range ix.buf {
			if p, ok := f.(indexed); ok && p.idx > seed {
				out = append(out, p.idx)
			}
		}
		sort.Ints(out)
		return out
	}
}
