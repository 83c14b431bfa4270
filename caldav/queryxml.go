package caldav

import (
	"fmt"
	"strings"
	"time"

	"github.com/beevik/etree"
)

// ParseFilterXML turns the <filter> element of a calendar-query REPORT
// into a Filter. The element may be the document root or nested inside
// the report body; namespace prefixes are ignored. The top-level
// VCALENDAR comp-filter is unwrapped so Filter.CompFilters holds the
// component filters below it.
func ParseFilterXML(doc *etree.Document) (Filter, error) {
	root := doc.Root()
	if root == nil {
		return Filter{}, fmt.Errorf("empty filter document")
	}

	filterEl := root
	if localName(root.Tag) != "filter" {
		filterEl = findChildIgnoreNS(root, "filter")
		if filterEl == nil {
			return Filter{}, fmt.Errorf("no filter element found")
		}
	}

	top := childrenIgnoreNS(filterEl, "comp-filter")
	if len(top) == 0 {
		return Filter{}, nil
	}

	// RFC 4791 mandates a single VCALENDAR comp-filter at the top.
	vcal := top[0]
	var f Filter
	for _, el := range childrenIgnoreNS(vcal, "comp-filter") {
		f.CompFilters = append(f.CompFilters, parseCompFilter(el))
	}
	return f, nil
}

func parseCompFilter(el *etree.Element) CompFilter {
	cf := CompFilter{Name: el.SelectAttrValue("name", "")}

	if findChildIgnoreNS(el, "is-not-defined") != nil {
		cf.IsNotDefined = true
		return cf
	}

	if tr := findChildIgnoreNS(el, "time-range"); tr != nil {
		cf.TimeRange = parseTimeRange(tr)
	}
	for _, pf := range childrenIgnoreNS(el, "prop-filter") {
		cf.PropFilters = append(cf.PropFilters, parsePropFilter(pf))
	}
	for _, child := range childrenIgnoreNS(el, "comp-filter") {
		cf.Children = append(cf.Children, parseCompFilter(child))
	}
	return cf
}

func parsePropFilter(el *etree.Element) PropFilter {
	pf := PropFilter{Name: el.SelectAttrValue("name", "")}

	if findChildIgnoreNS(el, "is-not-defined") != nil {
		pf.IsNotDefined = true
		return pf
	}
	if tm := findChildIgnoreNS(el, "text-match"); tm != nil {
		pf.TextMatch = &TextMatch{
			Collation: tm.SelectAttrValue("collation", "i;unicode-casemap"),
			MatchType: tm.SelectAttrValue("match-type", "contains"),
			Negate:    tm.SelectAttrValue("negate-condition", "no") == "yes",
			Value:     tm.Text(),
		}
	}
	return pf
}

func parseTimeRange(el *etree.Element) *TimeRange {
	tr := &TimeRange{}
	if s := el.SelectAttrValue("start", ""); s != "" {
		if t, err := time.Parse("20060102T150405Z", s); err == nil {
			tr.Start = &t
		}
	}
	if s := el.SelectAttrValue("end", ""); s != "" {
		if t, err := time.Parse("20060102T150405Z", s); err == nil {
			tr.End = &t
		}
	}
	return tr
}

func localName(tag string) string {
	if idx := strings.Index(tag, ":"); idx != -1 {
		return tag[idx+1:]
	}
	return tag
}

func findChildIgnoreNS(parent *etree.Element, name string) *etree.Element {
	for _, child := range parent.ChildElements() {
		if localName(child.Tag) == name {
			return child
		}
	}
	return nil
}

func childrenIgnoreNS(parent *etree.Element, name string) []*etree.Element {
	var out []*etree.Element
	for _, child := range parent.ChildElements() {
		if localName(child.Tag) == name {
			out = append(out, child)
		}
	}
	return out
}
