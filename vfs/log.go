package vfs

import (
	"io"

	"github.com/sirupsen/logrus"
)

// discardLogger returns a logrus.Logger that drops everything, so every
// component can unconditionally log without a nil check on the caller's
// behalf.
func discardLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}
