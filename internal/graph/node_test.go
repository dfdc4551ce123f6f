package graph

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseKey(t *testing.T) {
	tests := []struct {
		name    string
		key     string
		want    Node
		wantErr bool
	}{
		{"service and version", "nextcloud:30.0.0", Node{Service: "nextcloud", Version: "30.0.0"}, false},
		{"with platform", "cernbox:1.0.0:amd64", Node{Service: "cernbox", Version: "1.0.0", Platform: "amd64"}, false},
		{"missing version", "nextcloud", Node{}, true},
		{"too many components", "a:b:c:d", Node{}, true},
		{"empty component", "nextcloud::amd64", Node{}, true},
		{"empty string", "", Node{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseKey(tt.key)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNodeKey_RoundTrip(t *testing.T) {
	nodes := []Node{
		{Service: "nextcloud", Version: "30.0.0"},
		{Service: "cernbox", Version: "1.0.0", Platform: "arm64"},
	}

	for _, node := range nodes {
		parsed, err := ParseKey(node.Key())
		require.NoError(t, err)
		assert.Equal(t, node, parsed)
	}
}
