package metric

import "strings"

// Category is one pickup-reason classification.
type Category struct {
	Code  string
	Name  string
	Label string
}

// Total is the pseudo category summing every pickup code.
var Total = Category{Code: "0", Name: "total", Label: "Total"}

// Categories lists the pickup categories in display order. 1111 and 1000
// are not lot codes: they separate police holds from police action and
// collect vehicles with missing or unknown codes.
var Categories = []Category{
	{Code: "111", Name: "police_action", Label: "Police Action"},
	{Code: "1111", Name: "police_hold", Label: "Police Hold"},
	{Code: "112", Name: "accident", Label: "Accident"},
	{Code: "113", Name: "abandoned", Label: "Abandoned"},
	{Code: "125", Name: "scofflaw", Label: "Scofflaw"},
	{Code: "140", Name: "impound", Label: "Impound"},
	{Code: "200", Name: "stolen_recovered", Label: "Stolen Recovered"},
	{Code: "300", Name: "commercial_vehicle_restriction", Label: "Commercial Vehicle Restriction"},
	{Code: "1000", Name: "nocode", Label: "No Code"},
}

// AllCategories returns Total followed by Categories.
func AllCategories() []Category {
	return append([]Category{Total}, Categories...)
}

// CategoryByCode finds a category by its code.
func CategoryByCode(code string) (Category, bool) {
	for _, c := range AllCategories() {
		if c.Code == code {
			return c, true
		}
	}
	return Category{}, false
}

// CategoryByName finds a category by its column name.
func CategoryByName(name string) (Category, bool) {
	for _, c := range AllCategories() {
		if c.Name == name {
			return c, true
		}
	}
	return Category{}, false
}

// Keys returns every logical metric key known to the catalog.
func Keys() []string {
	out := make([]string, 0, len(AllCategories())*2)
	for _, c := range AllCategories() {
		out = append(out, Metric{Name: c.Name, Measure: Count}.Key(), Metric{Name: c.Name, Measure: AverageAge}.Key())
	}
	return out
}

// Label returns a display label for a logical key or concrete column.
func Label(key string) string {
	m, ok := Parse(key)
	if !ok {
		return key
	}
	name := m.Name
	suffix := ""
	if strings.HasSuffix(name, nonDirtbikeMarker) {
		name = strings.TrimSuffix(name, nonDirtbikeMarker)
		suffix = " (no dirtbikes)"
	}
	label := name
	if c, ok := CategoryByName(name); ok {
		label = c.Label
	}
	return label + " " + m.Measure.String() + suffix
}
