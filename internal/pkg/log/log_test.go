package log

import (
	"net"
	"testing"

	"netdemo/internal/pkg/snapshot"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
)

func TestSetLogger(t *testing.T) {
	defer logrus.SetLevel(logrus.InfoLevel)
	for level, want := range map[string]logrus.Level{
		"trace":   logrus.TraceLevel,
		"DEBUG":   logrus.DebugLevel,
		"info":    logrus.InfoLevel,
		"warn":    logrus.WarnLevel,
		"error":   logrus.ErrorLevel,
		"unknown": logrus.ErrorLevel,
	} {
		SetLogger(level)
		require.Equal(t, want, logrus.GetLevel(), level)
	}
}

func TestSnapshotToFields(t *testing.T) {
	fields := SnapshotToFields(snapshot.Snapshot{
		Tag:   snapshot.TagEntity,
		X:     5,
		Y:     -3,
		Color: snapshot.Color{R: 10, G: 20, B: 30, A: 255},
	})
	require.Equal(t, "h", fields["tag"])
	require.Equal(t, int32(5), fields["x"])
	require.Equal(t, int32(-3), fields["y"])
	require.Equal(t, "10,20,30,255", fields["rgba"])
}

func TestSlotToFields(t *testing.T) {
	id := uuid.New()
	fields := SlotToFields(1, id, &net.TCPAddr{IP: net.IPv4(127, 0, 0, 1), Port: 4000})
	require.Equal(t, 1, fields["slot"])
	require.Equal(t, id.String(), fields["session"])
	require.Equal(t, "127.0.0.1:4000", fields["remote"])

	fields = SlotToFields(0, id, nil)
	require.NotContains(t, fields, "remote")
}
