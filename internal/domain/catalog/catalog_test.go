package catalog_test

import (
	"testing"

	"github.com/tribelens/tribe/internal/domain/catalog"

	. "github.com/smartystreets/goconvey/convey"
)

func TestColor(t *testing.T) {
	Convey("Given the segment catalog", t, func() {
		Convey("When looking up known segments", func() {
			So(catalog.Color("Micro-Influencers"), ShouldEqual, "#8b5cf6")
			So(catalog.Color("Highly Engaged"), ShouldEqual, "#3b82f6")
			So(catalog.Color("Growing Accounts"), ShouldEqual, "#10b981")
			So(catalog.Color("Content Creators"), ShouldEqual, "#ec4899")
		})

		Convey("When looking up unknown names", func() {
			So(catalog.Color("Astronauts"), ShouldEqual, catalog.FallbackColor)
			So(catalog.Color(""), ShouldEqual, catalog.FallbackColor)
		})

		Convey("Then lookups never vary between calls", func() {
			So(catalog.Color("Casual Users"), ShouldEqual, catalog.Color("Casual Users"))
		})
	})
}

func TestID(t *testing.T) {
	Convey("Given the segment catalog order", t, func() {
		Convey("Then ids follow declaration order", func() {
			So(catalog.ID("Micro-Influencers"), ShouldEqual, 0)
			So(catalog.ID("Highly Engaged"), ShouldEqual, 1)
			So(catalog.ID("Engaged Creators"), ShouldEqual, 2)
			So(catalog.ID("Casual Users"), ShouldEqual, 5)
			So(catalog.ID("Newbies"), ShouldEqual, 7)
		})

		Convey("Then unknown names take the default slot", func() {
			So(catalog.ID("Astronauts"), ShouldEqual, 4)
		})
	})
}

func TestSegments(t *testing.T) {
	Convey("Given the catalog accessor", t, func() {
		segs := catalog.Segments()

		Convey("Then it exposes all eight segments", func() {
			So(len(segs), ShouldEqual, 8)
			So(segs[0].Name, ShouldEqual, "Micro-Influencers")
		})

		Convey("When a caller mutates the returned slice", func() {
			segs[0].Color = "#000000"

			Convey("Then the catalog is unaffected", func() {
				So(catalog.Color("Micro-Influencers"), ShouldEqual, "#8b5cf6")
			})
		})
	})
}

func TestRules(t *testing.T) {
	Convey("Given the assignment rule table", t, func() {
		rules := catalog.Rules()

		Convey("Then rules are ordered most to least exclusive", func() {
			So(len(rules), ShouldEqual, 5)
			So(rules[0].Segment, ShouldEqual, "Micro-Influencers")
			So(rules[0].MinFollowers, ShouldEqual, 10000)
			for i := 1; i < len(rules); i++ {
				So(rules[i].MinFollowers, ShouldBeLessThanOrEqualTo, rules[i-1].MinFollowers)
			}
		})

		Convey("Then the shadowed duplicate row is preserved", func() {
			So(rules[1].MinFollowers, ShouldEqual, rules[2].MinFollowers)
			So(rules[1].MinEngagement, ShouldEqual, rules[2].MinEngagement)
			So(rules[1].Segment, ShouldNotEqual, rules[2].Segment)
		})
	})
}

func TestVocabularies(t *testing.T) {
	Convey("Given the fixed vocabularies", t, func() {
		Convey("Then the interest vocabulary has 20 unique tags", func() {
			tags := catalog.Interests()
			So(len(tags), ShouldEqual, 20)
			seen := map[string]bool{}
			for _, tag := range tags {
				So(seen[tag], ShouldBeFalse)
				seen[tag] = true
			}
		})

		Convey("Then there are 15 cities and 3 genders", func() {
			So(len(catalog.Cities()), ShouldEqual, 15)
			So(len(catalog.Genders()), ShouldEqual, 3)
		})
	})
}

func TestCityCoord(t *testing.T) {
	Convey("Given the city coordinate table", t, func() {
		Convey("When looking up canonical names", func() {
			c := catalog.CityCoord("London")
			So(c.Lat, ShouldAlmostEqual, 51.5074, 0.0001)
			So(c.Lng, ShouldAlmostEqual, -0.1278, 0.0001)
		})

		Convey("When the casing differs", func() {
			So(catalog.CityCoord("hong kong").Lat, ShouldAlmostEqual, 22.3193, 0.0001)
			So(catalog.CityCoord("HONG KONG").Lat, ShouldAlmostEqual, 22.3193, 0.0001)
		})

		Convey("When the city is unknown", func() {
			c := catalog.CityCoord("Atlantis")
			So(c.Lat, ShouldEqual, 0)
			So(c.Lng, ShouldEqual, 0)
		})
	})
}
