package config

import (
	"bytes"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func TestReadConfig(t *testing.T) {
	Convey("Given a config", t, func() {
		buf := bytes.NewBuffer(nil)

		Convey("When the config Reader content is erroneous", func() {
			buf.WriteString("feeffefefe")
			_, err := ReadConfig(buf)

			Convey("The ReadConfig method should return an error", func() {
				So(err, ShouldNotBeNil)
			})
		})

		Convey("When reading back a written default config", func() {
			err := WriteConfig(buf, DefaultConfig())
			So(err, ShouldBeNil)

			cfg, err := ReadConfig(buf)

			Convey("The round trip should preserve the values", func() {
				So(err, ShouldBeNil)
				So(cfg.API.Service.Address, ShouldEqual, ":8080")
				So(cfg.Kafka.EventTopic, ShouldEqual, "payment-events")
				So(cfg.Kafka.Group, ShouldEqual, "confirmd")
				So(cfg.Kafka.MailUnhandledTopic, ShouldEqual, "parsed-mails-unhandled")

				d, err := cfg.API.Service.ReadTimeout.Duration()
				So(err, ShouldBeNil)
				So(d.Seconds(), ShouldEqual, 10)
			})
		})
	})
}
