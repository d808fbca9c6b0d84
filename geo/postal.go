// Package geo resolves US zip codes to coordinates and finds the zip
// codes nearest a point. The index is loaded from a GeoNames-style
// tab-separated postal dataset; when no zip is known up front, the
// caller's approximate location can be resolved via IP lookup instead.
package geo

import (
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"os"
	"sort"
	"strconv"
	"strings"

	"go.uber.org/zap"
)

const earthRadiusKm = 6371.0

// Place is one postal-code entry in the index.
type Place struct {
	ZipCode   string
	PlaceName string
	StateName string
	State     string
	Latitude  float64
	Longitude float64
}

// Index is an in-memory postal-code index supporting point and
// nearest-neighbor lookups. It is immutable after load and safe for
// concurrent use.
type Index struct {
	byZip  map[string]Place
	places []Place
	logger *zap.Logger
}

// LoadIndex reads a GeoNames US postal dataset (tab-separated, no
// header: country, zip, place, state name, state code, ..., lat, lon
// in columns 9 and 10) from path.
func LoadIndex(path string, logger *zap.Logger) (*Index, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open postal dataset: %w", err)
	}
	defer f.Close()
	return ReadIndex(f, logger)
}

// ReadIndex parses a postal dataset from r. Rows with malformed
// coordinates are skipped rather than failing the whole load.
func ReadIndex(r io.Reader, logger *zap.Logger) (*Index, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	cr := csv.NewReader(r)
	cr.Comma = '\t'
	cr.FieldsPerRecord = -1

	idx := &Index{
		byZip:  make(map[string]Place),
		logger: logger,
	}

	skipped := 0
	for {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read postal dataset: %w", err)
		}
		if len(record) < 11 {
			skipped++
			continue
		}

		lat, latErr := strconv.ParseFloat(strings.TrimSpace(record[9]), 64)
		lon, lonErr := strconv.ParseFloat(strings.TrimSpace(record[10]), 64)
		if latErr != nil || lonErr != nil {
			skipped++
			continue
		}

		place := Place{
			ZipCode:   strings.TrimSpace(record[1]),
			PlaceName: strings.TrimSpace(record[2]),
			StateName: strings.TrimSpace(record[3]),
			State:     strings.TrimSpace(record[4]),
			Latitude:  lat,
			Longitude: lon,
		}
		if place.ZipCode == "" {
			skipped++
			continue
		}
		if _, dup := idx.byZip[place.ZipCode]; dup {
			continue
		}
		idx.byZip[place.ZipCode] = place
		idx.places = append(idx.places, place)
	}

	if len(idx.places) == 0 {
		return nil, fmt.Errorf("postal dataset contains no usable rows")
	}
	logger.Info("loaded postal index",
		zap.Int("places", len(idx.places)),
		zap.Int("skipped", skipped))
	return idx, nil
}

// Lookup returns the place for a zip code.
func (idx *Index) Lookup(zip string) (Place, bool) {
	p, ok := idx.byZip[zip]
	return p, ok
}

// FindPlace resolves a free-text location such as "Beverly Hills" or
// "Beverly Hills, CA" to an indexed place. Matching is case-insensitive
// on the place name; text after a comma narrows by state code or name.
func (idx *Index) FindPlace(query string) (Place, bool) {
	name := strings.TrimSpace(query)
	state := ""
	if i := strings.LastIndex(name, ","); i >= 0 {
		state = strings.TrimSpace(name[i+1:])
		name = strings.TrimSpace(name[:i])
	}
	if name == "" {
		return Place{}, false
	}
	for _, p := range idx.places {
		if !strings.EqualFold(p.PlaceName, name) {
			continue
		}
		if state != "" && !strings.EqualFold(p.State, state) && !strings.EqualFold(p.StateName, state) {
			continue
		}
		return p, true
	}
	return Place{}, false
}

// Size returns the number of indexed places.
func (idx *Index) Size() int {
	return len(idx.places)
}

// Nearest returns up to n places closest to the given point, ordered by
// distance. The scan is linear over the index; with ~40k US zips this
// stays well under a millisecond.
func (idx *Index) Nearest(lat, lon float64, n int) []Place {
	if n <= 0 {
		return nil
	}

	type scored struct {
		place Place
		dist  float64
	}
	ranked := make([]scored, 0, len(idx.places))
	for _, p := range idx.places {
		ranked = append(ranked, scored{p, Haversine(lat, lon, p.Latitude, p.Longitude)})
	}
	sort.Slice(ranked, func(i, j int) bool { return ranked[i].dist < ranked[j].dist })

	if n > len(ranked) {
		n = len(ranked)
	}
	out := make([]Place, n)
	for i := range out {
		out[i] = ranked[i].place
	}
	return out
}

// NearestToZip returns up to n places closest to the given zip code,
// including the zip itself.
func (idx *Index) NearestToZip(zip string, n int) ([]Place, error) {
	origin, ok := idx.byZip[zip]
	if !ok {
		return nil, fmt.Errorf("unknown zip code %q", zip)
	}
	return idx.Nearest(origin.Latitude, origin.Longitude, n), nil
}

// Haversine returns the great-circle distance between two points in km.
func Haversine(lat1, lon1, lat2, lon2 float64) float64 {
	toRad := func(deg float64) float64 { return deg * math.Pi / 180 }

	dLat := toRad(lat2 - lat1)
	dLon := toRad(lon2 - lon1)
	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(toRad(lat1))*math.Cos(toRad(lat2))*
			math.Sin(dLon/2)*math.Sin(dLon/2)
	return 2 * earthRadiusKm * math.Asin(math.Sqrt(a))
}
