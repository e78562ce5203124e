package geo

import "strings"

// Registry answers district and city validity questions for drop locations
// and shipping configuration. The data set is embedded; lookups are
// case-insensitive on trimmed names.
type Registry struct {
	districts map[string]map[string]struct{}
}

// NewRegistry builds the registry from the embedded district data.
func NewRegistry() *Registry {
	r := &Registry{districts: make(map[string]map[string]struct{}, len(districtCities))}
	for district, cities := range districtCities {
		set := make(map[string]struct{}, len(cities))
		for _, city := range cities {
			set[normalize(city)] = struct{}{}
		}
		r.districts[normalize(district)] = set
	}
	return r
}

// ValidDistrict reports whether the district exists in the registry.
func (r *Registry) ValidDistrict(district string) bool {
	_, ok := r.districts[normalize(district)]
	return ok
}

// ValidCity reports whether the city belongs to the district.
func (r *Registry) ValidCity(district, city string) bool {
	cities, ok := r.districts[normalize(district)]
	if !ok {
		return false
	}
	_, ok = cities[normalize(city)]
	return ok
}

// Districts returns the known district names.
func (r *Registry) Districts() []string {
	out := make([]string, 0, len(districtCities))
	for district := range districtCities {
		out = append(out, district)
	}
	return out
}

func normalize(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}
