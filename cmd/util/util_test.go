package util

import (
	"testing"

	"github.com/ValentinKolb/dLock/rpc/common"
	"github.com/stretchr/testify/require"
)

func TestParsePeers(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    []common.PeerConfig
		wantErr bool
	}{
		{name: "empty", input: ""},
		{
			name:  "two peers with spaces",
			input: "n1=localhost:8081, n2 = 10.0.0.2:8080",
			want: []common.PeerConfig{
				{ID: "n1", Endpoint: "localhost:8081"},
				{ID: "n2", Endpoint: "10.0.0.2:8080"},
			},
		},
		{name: "missing endpoint", input: "n1=", wantErr: true},
		{name: "missing separator", input: "n1", wantErr: true},
		{name: "duplicate id", input: "n1=a,n1=b", wantErr: true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := ParsePeers(tc.input)
			if tc.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tc.want, got)
		})
	}
}

func TestSplitList(t *testing.T) {
	require.Equal(t, []string{"R1", "R2"}, SplitList(" R1,,R2 ,"))
	require.Nil(t, SplitList(""))
}

func TestWrapString(t *testing.T) {
	wrapped := WrapString("a short line that is definitely longer than fifty characters in total")
	require.Contains(t, wrapped, "\n")
	require.Equal(t, "short", WrapString("  short "))
}
