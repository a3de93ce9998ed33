package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func TestLoggerInit(t *testing.T) {
	Convey("Given a JSON logger writing to a buffer", t, func() {
		var buf bytes.Buffer
		So(Init(WithFormat("json"), WithOutput(&buf)), ShouldBeNil)
		Reset(func() { _ = Init() })

		ctx := context.Background()

		Convey("Fields, component and source are emitted", func() {
			Named("source").Info(ctx, "fetched", String("name", "airtable"), Int("records", 5))

			var line map[string]any
			So(json.Unmarshal(buf.Bytes(), &line), ShouldBeNil)
			So(line["msg"], ShouldEqual, "fetched")
			So(line["component"], ShouldEqual, "source")
			So(line["name"], ShouldEqual, "airtable")
			So(line["records"], ShouldEqual, 5.0)
			So(line["source"], ShouldContainSubstring, "logger_test.go")
		})

		Convey("With attaches fields to every entry", func() {
			Get().With(String("snapshot", "abc")).Warn(ctx, "stale", Error(errors.New("boom")))
			So(buf.String(), ShouldContainSubstring, `"snapshot":"abc"`)
			So(buf.String(), ShouldContainSubstring, `"error":"boom"`)
		})

		Convey("Debug is suppressed at info level and shown after SetLevelString", func() {
			Get().Debug(ctx, "hidden")
			So(buf.Len(), ShouldEqual, 0)

			So(SetLevelString("debug"), ShouldBeNil)
			Get().Debug(ctx, "shown")
			So(buf.String(), ShouldContainSubstring, "shown")
		})
	})

	Convey("Given bad settings", t, func() {
		So(Init(WithFormat("xml")), ShouldNotBeNil)
		So(Init(WithLevel("loud")), ShouldNotBeNil)
		So(SetLevelString("verbose"), ShouldNotBeNil)
		So(Init(), ShouldBeNil)
	})

	Convey("Given a text logger", t, func() {
		var buf bytes.Buffer
		So(Init(WithOutput(&buf), WithLevel("warn")), ShouldBeNil)
		Reset(func() { _ = Init() })

		Get().Info(context.Background(), "quiet")
		Get().Error(context.Background(), "loud")
		So(strings.Contains(buf.String(), "quiet"), ShouldBeFalse)
		So(buf.String(), ShouldContainSubstring, "msg=loud")
		So(Sync(), ShouldBeNil)
	})
}
