package main

import (
	"strconv"
	"strings"

	"github.com/jezek/xgbutil"
	"github.com/jezek/xgbutil/xprop"
	"github.com/sirupsen/logrus"
)

const defaultDPI = 96

// resourceDPI looks up the resolution in the root window's
// RESOURCE_MANAGER database (the one xrdb loads).
func resourceDPI(xu *xgbutil.XUtil, name string, log *logrus.Entry) float64 {
	db, err := xprop.PropValStr(xprop.GetProperty(xu, xu.RootWin(), "RESOURCE_MANAGER"))
	if err != nil {
		log.WithError(err).Debug("no X resources, using default dpi")
		return defaultDPI
	}
	return lookupDPI(parseResources(db), name)
}

// parseResources reads "name: value" lines. Later entries win.
func parseResources(db string) map[string]string {
	res := make(map[string]string)
	for _, line := range strings.Split(db, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || line[0] == '!' {
			continue
		}
		key, value, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}
		res[strings.TrimSpace(key)] = strings.TrimSpace(value)
	}
	return res
}

func lookupDPI(res map[string]string, name string) float64 {
	for _, key := range []string{name + ".dpi", "*dpi", "dpi", "Xft.dpi"} {
		v, ok := res[key]
		if !ok {
			continue
		}
		if dpi, err := strconv.ParseFloat(v, 64); err == nil && dpi > 0 {
			return dpi
		}
	}
	return defaultDPI
}
