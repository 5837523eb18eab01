// Package log add logging utilities.
package log

import (
	"fmt"
	"net"
	"strings"
	"time"

	"netdemo/internal/pkg/snapshot"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// SetLogger sets the default logger's level.
func SetLogger(level string) {
	logrus.SetLevel(logrus.ErrorLevel)
	customFormatter := new(logrus.TextFormatter)
	customFormatter.TimestampFormat = time.RFC3339
	logrus.SetFormatter(customFormatter)
	customFormatter.FullTimestamp = true
	switch strings.ToLower(level) {
	case "trace":
		logrus.SetLevel(logrus.TraceLevel)
	case "debug":
		logrus.SetLevel(logrus.DebugLevel)
	case "info":
		logrus.SetLevel(logrus.InfoLevel)
	case "warn":
		logrus.SetLevel(logrus.WarnLevel)
	case "error":
		logrus.SetLevel(logrus.ErrorLevel)
	default:
		logrus.SetLevel(logrus.ErrorLevel)
	}
}

// SnapshotToFields describes a snapshot for structured logging.
func SnapshotToFields(s snapshot.Snapshot) logrus.Fields {
	return logrus.Fields{
		"tag":  string(s.Tag),
		"x":    s.X,
		"y":    s.Y,
		"rgba": fmt.Sprintf("%d,%d,%d,%d", s.Color.R, s.Color.G, s.Color.B, s.Color.A),
	}
}

// SlotToFields describes an occupied slot for structured logging.
func SlotToFields(index int, session uuid.UUID, remote net.Addr) logrus.Fields {
	fields := logrus.Fields{
		"slot":    index,
		"session": session.String(),
	}
	if remote != nil {
		fields["remote"] = remote.String()
	}
	return fields
}
