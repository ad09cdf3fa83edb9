package main

import (
	"bytes"
	"path/filepath"
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/Brownie44l1/predict-api/internal/config"
)

func TestVersionCommand(t *testing.T) {
	Convey("version prints the build information", t, func() {
		var out bytes.Buffer
		rootCmd.SetOut(&out)
		rootCmd.SetArgs([]string{"version"})
		defer rootCmd.SetArgs(nil)

		So(Execute(), ShouldBeNil)
		So(out.String(), ShouldContainSubstring, "predict-api version: "+version)
	})
}

func TestServeRefusesToStartWithoutModel(t *testing.T) {
	Convey("serve fails before listening when the artifact is missing", t, func() {
		v := config.New()
		v.Set(config.ModelPath, filepath.Join(t.TempDir(), "model.json"))
		v.Set(config.LogLevel, "error")

		So(serve(v, ""), ShouldNotBeNil)
	})

	Convey("serve fails on an invalid config file", t, func() {
		So(serve(config.New(), filepath.Join(t.TempDir(), "config.yaml")), ShouldNotBeNil)
	})
}
