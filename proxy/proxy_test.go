package proxy

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRoundRobinSwitcher_Rotates(t *testing.T) {
	p, err := RoundRobinSwitcher("http://p1:8080", "http://p2:8080", "http://p3:8080")
	require.NoError(t, err)

	var hosts []string
	for i := 0; i < 6; i++ {
		u, err := p(nil)
		require.NoError(t, err)
		hosts = append(hosts, u.Host)
	}

	assert.Equal(t, []string{"p1:8080", "p2:8080", "p3:8080", "p1:8080", "p2:8080", "p3:8080"}, hosts)
}

func TestRoundRobinSwitcher_Empty(t *testing.T) {
	_, err := RoundRobinSwitcher()
	assert.Error(t, err)
}

func TestRoundRobinSwitcher_InvalidURL(t *testing.T) {
	_, err := RoundRobinSwitcher("http://ok:8080", "://bad")
	assert.Error(t, err)
}
