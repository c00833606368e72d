package osm

import (
	"fmt"
	"strings"

	"github.com/samirrijal/spotfinder/internal/core/domain"
)

// tag is a key=value predicate.
type tag struct {
	Key   string
	Value string
}

// categoryTags maps catalog categories onto OSM tags.
var categoryTags = map[string][]tag{
	"cafe":      {{"amenity", "cafe"}, {"amenity", "coffee_shop"}},
	"library":   {{"amenity", "library"}},
	"park":      {{"leisure", "park"}, {"leisure", "recreation_ground"}},
	"food":      {{"amenity", "restaurant"}, {"amenity", "fast_food"}},
	"study":     {{"amenity", "library"}, {"amenity", "coworking_space"}},
	"coworking": {{"amenity", "coworking_space"}},
}

// Tag patterns used when no category is mapped.
const (
	defaultAmenityPattern = "^(cafe|restaurant|library|coffee_shop|coworking_space)$"
	defaultLeisurePattern = "^(park|recreation_ground)$"
)

// osmCategory maps an OSM amenity or leisure value back onto a catalog category.
func osmCategory(kind string) string {
	switch kind {
	case "cafe", "library", "park":
		return kind
	case "restaurant":
		return "food"
	case "university":
		return "study"
	}
	return "other"
}

const imageBase = "https://images.unsplash.com/photo-"

var kindImages = map[string]string{
	"cafe":       imageBase + "1501339847302-ac426a4a7cbb?auto=format&fit=crop&q=80&w=400",
	"restaurant": imageBase + "1517248135467-4c7edcad34c4?auto=format&fit=crop&q=80&w=400",
	"library":    imageBase + "1481627834876-b7833e8f5570?auto=format&fit=crop&q=80&w=400",
	"park":       imageBase + "1441974231531-c6227db76b6e?auto=format&fit=crop&q=80&w=400",
}

const defaultImage = imageBase + "1524813686514-a57563d77965?auto=format&fit=crop&q=80&w=400"

func imagesFor(kind string) []string {
	if img, ok := kindImages[kind]; ok {
		return []string{img}
	}
	return []string{defaultImage}
}

// tagSet is the free-form tag map of an element.
type tagSet map[string]string

// first returns the first non-empty value among keys.
func (t tagSet) first(keys ...string) string {
	for _, k := range keys {
		if v := strings.TrimSpace(t[k]); v != "" {
			return v
		}
	}
	return ""
}

// element is the typed view of an OSM feature after tag extraction. Fields
// are empty when the tag was absent.
type element struct {
	ID           string
	Name         string
	Kind         string
	HouseNumber  string
	Street       string
	City         string
	State        string
	Zip          string
	Description  string
	OpeningHours string
	Phone        string
	Website      string
	Amenities    []string
	Location     domain.GeoPoint
}

func elementFromTags(id string, loc domain.GeoPoint, t tagSet) element {
	return element{
		ID:           id,
		Name:         t.first("name", "name:en"),
		Kind:         t.first("amenity", "leisure"),
		HouseNumber:  t.first("addr:housenumber"),
		Street:       t.first("addr:street"),
		City:         t.first("addr:city", "addr:town", "addr:suburb"),
		State:        t.first("addr:state", "is_in:state"),
		Zip:          t.first("addr:postcode"),
		Description:  t.first("description", "description:en"),
		OpeningHours: t.first("opening_hours"),
		Phone:        t.first("phone", "contact:phone"),
		Website:      t.first("website", "contact:website"),
		Amenities:    amenitiesFrom(t),
		Location:     loc,
	}
}

func amenitiesFrom(t tagSet) []string {
	var out []string
	if t["wifi"] == "yes" || t["internet_access"] == "yes" {
		out = append(out, "wifi")
	}
	if t["outdoor_seating"] == "yes" {
		out = append(out, "outdoor_seating")
	}
	if t["wheelchair"] == "yes" {
		out = append(out, "wheelchair_accessible")
	}
	if t["smoking"] == "no" {
		out = append(out, "non_smoking")
	}
	if len(out) == 0 {
		return []string{"public_access"}
	}
	return out
}

// toPlace converts e into an external place. category, when set, overrides
// the category derived from the OSM kind. It fails for unnamed elements.
func (e element) toPlace(category string) (domain.Place, error) {
	if e.Name == "" {
		return domain.Place{}, fmt.Errorf("%w: element %s has no name", domain.ErrMalformedExternalRecord, e.ID)
	}

	city := e.City
	if city == "" {
		city = "Unknown"
	}

	if category == "" {
		category = osmCategory(e.Kind)
	}

	description := e.Description
	if description == "" {
		description = e.OpeningHours
	}
	if description == "" {
		kind := e.Kind
		if kind == "" {
			kind = "location"
		}
		description = fmt.Sprintf("A %s in %s", kind, city)
	}

	return domain.Place{
		ID:           domain.ExternalIDPrefix + e.ID,
		Source:       domain.SourceExternal,
		Name:         e.Name,
		Description:  description,
		Address:      e.address(city),
		City:         city,
		State:        e.State,
		Zip:          e.Zip,
		Category:     category,
		Location:     e.Location,
		Amenities:    e.Amenities,
		Images:       imagesFor(e.Kind),
		Phone:        e.Phone,
		Website:      e.Website,
		OpeningHours: e.OpeningHours,
	}, nil
}

// address renders "number street, city, state zip", falling back to the
// tagged city alone and then to a fixed marker.
func (e element) address(city string) string {
	if e.Street == "" {
		if e.City == "" {
			return "Address not available"
		}
		return e.City
	}
	var b strings.Builder
	if e.HouseNumber != "" {
		b.WriteString(e.HouseNumber + " ")
	}
	b.WriteString(e.Street)
	b.WriteString(", " + city)
	if e.State != "" {
		b.WriteString(", " + e.State)
	}
	if e.Zip != "" {
		b.WriteString(" " + e.Zip)
	}
	return b.String()
}
