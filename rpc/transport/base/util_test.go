package base

import (
	"bytes"
	"net"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFrameRoundTrip(t *testing.T) {
	tests := []struct {
		name    string
		channel uint64
		id      uint64
		data    []byte
		buf     []byte
	}{
		{"empty payload", 1, 7, nil, make([]byte, 64)},
		{"fits buffer", 2, 1 << 40, []byte("who-has R1"), make([]byte, 64)},
		{"larger than buffer", 1, 3, bytes.Repeat([]byte{0xAB}, 1000), make([]byte, 32)},
		{"no buffer", 2, 9, []byte("ack"), nil},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			client, server := net.Pipe()
			defer client.Close()
			defer server.Close()

			go func() {
				_ = writeFrame(client, tc.channel, tc.id, tc.data)
			}()

			channel, id, data, err := readFrame(server, tc.buf)
			require.NoError(t, err)
			require.Equal(t, tc.channel, channel)
			require.Equal(t, tc.id, id)
			require.Equal(t, len(tc.data), len(data))
			if len(tc.data) > 0 {
				require.Equal(t, tc.data, data)
			}
		})
	}
}

func TestReadFrameTruncated(t *testing.T) {
	client, server := net.Pipe()
	defer server.Close()

	go func() {
		_, _ = client.Write([]byte{0, 0, 0, 1})
		client.Close()
	}()

	_, _, _, err := readFrame(server, nil)
	require.Error(t, err)
}
