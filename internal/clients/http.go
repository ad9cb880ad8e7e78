package clients

import (
	"net/http"
	"time"
)

const DefaultRequestTimeout = 5 * time.Second

// NewHTTPClient cria o cliente HTTP compartilhado por todas as instâncias mock.
// Um único pool de conexões atende a frota inteira; o timeout limita o tempo
// que uma chamada travada pode ocupar um tick de heartbeat.
// Um timeout <= 0 usa DefaultRequestTimeout.
func NewHTTPClient(timeout time.Duration) *http.Client {
	if timeout <= 0 {
		timeout = DefaultRequestTimeout
	}
	return &http.Client{
		Timeout: timeout,
		Transport: &http.Transport{
			Proxy:               http.ProxyFromEnvironment,
			MaxIdleConns:        100,
			MaxIdleConnsPerHost: 50,
			IdleConnTimeout:     30 * time.Second,
		},
	}
}
