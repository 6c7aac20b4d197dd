// Package catalog holds the static segment table and the fixed vocabularies
// shared by the local synthesizer, the approximator, and the remote mapper.
// Everything in this package is stateless; lookups are total functions.
package catalog

import "strings"

// FallbackColor is the neutral gray used for unknown segment names.
const FallbackColor = "#6b7280"

// fallbackID is the default slot assigned to unknown segment names.
const fallbackID = 4

// Segment pairs a segment name with its display color. The position in the
// catalog order is the segment id.
type Segment struct {
	Name  string `json:"name"`
	Color string `json:"color"`
}

// segments is the catalog in id order. The order is part of the contract:
// ids are derived from it and must not be reshuffled.
var segments = []Segment{
	{Name: "Micro-Influencers", Color: "#8b5cf6"},
	{Name: "Highly Engaged", Color: "#3b82f6"},
	{Name: "Engaged Creators", Color: "#3b82f6"},
	{Name: "Growing Accounts", Color: "#10b981"},
	{Name: "Active Community", Color: "#f59e0b"},
	{Name: "Casual Users", Color: FallbackColor},
	{Name: "Content Creators", Color: "#ec4899"},
	{Name: "Newbies", Color: FallbackColor},
}

// Color returns the display color for a segment name. Unknown or empty names
// resolve to FallbackColor.
func Color(name string) string {
	for i := range segments {
		if segments[i].Name == name {
			return segments[i].Color
		}
	}
	return FallbackColor
}

// ID returns the catalog index for a segment name. Unknown names share a
// fixed default slot.
func ID(name string) int {
	for i := range segments {
		if segments[i].Name == name {
			return i
		}
	}
	return fallbackID
}

// Segments returns a copy of the catalog in id order.
func Segments() []Segment {
	out := make([]Segment, len(segments))
	copy(out, segments)
	return out
}

// AssignmentRule is one threshold row of the greedy segment classifier.
// Rules are evaluated in declaration order and the first full match wins;
// the ordering is the tie-break and must be preserved exactly.
type AssignmentRule struct {
	Segment       string
	MinFollowers  int
	MinEngagement float64
}

// CatchAllSegment is assigned when no rule matches.
const CatchAllSegment = "Casual Users"

// rules in priority order. The third row is shadowed by the second and can
// never match; it is kept deliberately, see Rules.
var rules = []AssignmentRule{
	{Segment: "Micro-Influencers", MinFollowers: 10000, MinEngagement: 5.0},
	{Segment: "Highly Engaged", MinFollowers: 5000, MinEngagement: 4.0},
	{Segment: "Engaged Creators", MinFollowers: 5000, MinEngagement: 4.0},
	{Segment: "Growing Accounts", MinFollowers: 1000, MinEngagement: 3.0},
	{Segment: "Active Community", MinFollowers: 500, MinEngagement: 2.0},
}

// Rules returns a copy of the ordered assignment rules. The table contains a
// duplicate-threshold row that is unreachable under first-match evaluation;
// this mirrors the published segmentation and is intentional behavior, not a
// bug to fix.
func Rules() []AssignmentRule {
	out := make([]AssignmentRule, len(rules))
	copy(out, rules)
	return out
}

// normalizeCity lowercases a city name for coordinate lookups.
func normalizeCity(city string) string {
	return strings.ToLower(strings.TrimSpace(city))
}
