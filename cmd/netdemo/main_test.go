package main

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParsePort(t *testing.T) {
	port, err := parsePort("8080")
	require.NoError(t, err)
	require.Equal(t, uint16(8080), port)

	for _, bad := range []string{"0", "-1", "65536", "port", ""} {
		_, err := parsePort(bad)
		require.Error(t, err, bad)
	}
}

func TestArgs(t *testing.T) {
	require.Error(t, serverCmd.Args(serverCmd, nil))
	require.NoError(t, serverCmd.Args(serverCmd, []string{"4000"}))
	require.Error(t, clientCmd.Args(clientCmd, []string{"127.0.0.1"}))
	require.Error(t, clientCmd.Args(clientCmd, []string{"127.0.0.1", "x"}))
	require.NoError(t, clientCmd.Args(clientCmd, []string{"127.0.0.1", "4000"}))
}
