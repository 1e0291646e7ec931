package vsymbol

import (
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func TestVariants(t *testing.T) {
	Convey("Given a variable symbol with leading zeros", t, func() {
		vs := "0012345"

		Convey("When expanding the variants", func() {
			variants := Variants(vs)

			Convey("It should contain the raw, stripped and padded encodings", func() {
				So(variants, ShouldContain, "0012345")
				So(variants, ShouldContain, "12345")
				So(variants, ShouldContain, "0000012345")
				So(len(variants), ShouldEqual, 3)
			})

			Convey("The original symbol should come first", func() {
				So(variants[0], ShouldEqual, vs)
			})
		})
	})

	Convey("Given a full-length variable symbol", t, func() {
		variants := Variants("1234567890")

		Convey("It should not be padded any further", func() {
			So(variants, ShouldResemble, []string{"1234567890"})
		})
	})

	Convey("Given a symbol whose variants collide", t, func() {
		variants := Variants("12345")

		Convey("Duplicates should be removed", func() {
			So(variants, ShouldResemble, []string{"12345", "0000012345"})
		})
	})

	Convey("Given an empty symbol", t, func() {
		Convey("No variants should be produced", func() {
			So(Variants(""), ShouldBeEmpty)
		})
	})
}
