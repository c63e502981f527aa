package main

import (
	"github.com/jezek/xgb"
	"github.com/jezek/xgb/randr"
	"github.com/jezek/xgb/xproto"
	"github.com/sirupsen/logrus"
)

// WatchScreenChanges asks for RandR screen change notifications on root.
// Without the extension the box simply never hears about them.
func WatchScreenChanges(X *xgb.Conn, root xproto.Window, log *logrus.Entry) {
	if err := randr.Init(X); err != nil {
		log.WithError(err).Debug("xrandr not available")
		return
	}

	err := randr.SelectInputChecked(X, root, randr.NotifyMaskScreenChange).Check()
	if err != nil {
		log.WithError(err).Debug("failed to register for xrandr events")
		return
	}
	log.Debug("Watching screen changes")
}
