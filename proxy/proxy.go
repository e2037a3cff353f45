// Package proxy rotates outbound requests across a set of proxy servers.
package proxy

import (
	"errors"
	"net/http"
	"net/url"
	"sync/atomic"
)

// Func plugs into http.Transport.Proxy.
type Func func(*http.Request) (*url.URL, error)

type roundRobinSwitcher struct {
	proxyURLs []*url.URL
	index     atomic.Uint32
}

func (r *roundRobinSwitcher) next(*http.Request) (*url.URL, error) {
	index := r.index.Add(1) - 1
	return r.proxyURLs[index%uint32(len(r.proxyURLs))], nil
}

// RoundRobinSwitcher returns a Func which rotates the given proxy URLs
// on every request. The proxy type follows the URL scheme; "http",
// "https" and "socks5" are supported, empty means "http".
func RoundRobinSwitcher(proxyURLs ...string) (Func, error) {
	if len(proxyURLs) < 1 {
		return nil, errors.New("proxy URL list is empty")
	}

	urls := make([]*url.URL, len(proxyURLs))

	for i, u := range proxyURLs {
		parsed, err := url.Parse(u)
		if err != nil {
			return nil, err
		}

		urls[i] = parsed
	}

	return (&roundRobinSwitcher{proxyURLs: urls}).next, nil
}
