package core

import "strings"

// Category is the closed set of expense categories.
type Category string

const (
	Food          Category = "Food"
	Transport     Category = "Transport"
	Entertainment Category = "Entertainment"
	Shopping      Category = "Shopping"
	Other         Category = "Other"
)

// Categories lists every category in display order.
var Categories = []Category{Food, Transport, Entertainment, Shopping, Other}

// Style is the icon and color shown for a category.
type Style struct {
	Icon  string
	Color string
}

var styles = map[Category]Style{
	Food:          {Icon: "utensils", Color: "#ff5733"},
	Transport:     {Icon: "bus", Color: "#ffbd33"},
	Entertainment: {Icon: "film", Color: "#3380ff"},
	Shopping:      {Icon: "shopping-cart", Color: "#33ff57"},
	Other:         {Icon: "question", Color: "#777"},
}

// ParseCategory looks s up in the category set after trimming surrounding
// whitespace. Matching is exact: "food" is not Food. The second result is
// false when s is not a category.
func ParseCategory(s string) (Category, bool) {
	c := Category(strings.TrimSpace(s))
	if !c.Valid() {
		return "", false
	}
	return c, true
}

// Valid reports whether c is a member of the category set.
func (c Category) Valid() bool {
	_, ok := styles[c]
	return ok
}

// Style returns the icon and color for c, falling back to Other.
func (c Category) Style() Style {
	if s, ok := styles[c]; ok {
		return s
	}
	return styles[Other]
}

// StyleFor resolves a raw category name to its style. It is total: names
// outside the set get Other's icon and color.
func StyleFor(name string) Style {
	c, ok := ParseCategory(name)
	if !ok {
		return styles[Other]
	}
	return styles[c]
}

// ColorFor returns the display color for a raw category name.
func ColorFor(name string) string { return StyleFor(name).Color }

// IconFor returns the icon name for a raw category name.
func IconFor(name string) string { return StyleFor(name).Icon }
