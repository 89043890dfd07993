package fetch

import (
	"bytes"
	"compress/flate"
	"compress/gzip"
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/andybalholm/brotli"
	"github.com/klauspost/compress/zstd"
	tls2 "github.com/refraction-networking/utls"
	"golang.org/x/net/publicsuffix"

	"github.com/use-agent/qrawl/models"
)

const (
	maxBodyBytes = 10 * 1024 * 1024 // 10 MB cap

	maxRedirects        = 10
	maxRedirectsMinimal = 5
)

var (
	clientMu       sync.Mutex
	clients        = map[Profile]*http.Client{}
	requestTimeout = 30 * time.Second
)

// SetTimeout overrides the per-request timeout for every profile. Cached
// clients are discarded so the next fetch rebuilds them with the new value;
// call it at startup, before traffic.
func SetTimeout(d time.Duration) {
	if d <= 0 {
		return
	}
	clientMu.Lock()
	defer clientMu.Unlock()
	requestTimeout = d
	clients = map[Profile]*http.Client{}
}

// clientFor returns the process-wide client for a profile, building it
// on first use. Cookie jars persist across fetches within a process.
func clientFor(p Profile) (*http.Client, error) {
	clientMu.Lock()
	defer clientMu.Unlock()
	if c, ok := clients[p]; ok {
		return c, nil
	}
	c, err := newClient(p)
	if err != nil {
		return nil, err
	}
	clients[p] = c
	return c, nil
}

func newClient(p Profile) (*http.Client, error) {
	transport := &http.Transport{
		// Accept-Encoding is set per profile; bodies are decoded manually.
		DisableCompression: true,
	}
	if hello, ok := helloFor(p); ok {
		transport.DialTLSContext = func(ctx context.Context, network, addr string) (net.Conn, error) {
			return dialTLS(ctx, network, addr, hello)
		}
	}

	limit := maxRedirects
	if p == ProfileMinimal {
		limit = maxRedirectsMinimal
	}

	client := &http.Client{
		Transport: transport,
		Timeout:   requestTimeout,
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			if len(via) >= limit {
				return fmt.Errorf("stopped after %d redirects", limit)
			}
			return nil
		},
	}

	if p != ProfileMinimal {
		jar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
		if err != nil {
			return nil, fmt.Errorf("fetch: cookie jar: %w", err)
		}
		client.Jar = jar
	}
	return client, nil
}

// helloFor maps a profile to its TLS fingerprint. Minimal reports false
// and stays on the standard library TLS stack.
func helloFor(p Profile) (tls2.ClientHelloID, bool) {
	switch p {
	case ProfileWindows, ProfileAndroid:
		return tls2.HelloChrome_Auto, true
	case ProfileMacOS, ProfileIOS:
		return tls2.HelloSafari_Auto, true
	}
	return tls2.ClientHelloID{}, false
}

// dialTLS establishes a TLS connection presenting a browser ClientHello.
func dialTLS(ctx context.Context, network, addr string, hello tls2.ClientHelloID) (net.Conn, error) {
	dialer := &net.Dialer{}
	rawConn, err := dialer.DialContext(ctx, network, addr)
	if err != nil {
		return nil, err
	}

	host, _, _ := net.SplitHostPort(addr)
	tlsConn := tls2.UClient(rawConn, &tls2.Config{
		ServerName: host,
		// The transport speaks HTTP/1.1; keep ALPN in agreement.
		NextProtos: []string{"http/1.1"},
	}, hello)

	if err := tlsConn.HandshakeContext(ctx); err != nil {
		rawConn.Close()
		return nil, err
	}
	return tlsConn, nil
}

// Raw performs one Minimal-profile GET without response validation.
// Policy inference uses it for robots.txt and sitemap documents, which
// are not HTML and would never pass the page validator.
func Raw(ctx context.Context, rawURL string) (int, string, error) {
	u, err := url.Parse(rawURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") {
		return 0, "", models.ErrInvalidURL(rawURL)
	}
	return doRequest(ctx, rawURL, "", ProfileMinimal)
}

// doRequest performs one GET with the profile's identity and returns the
// status code plus the decoded body.
func doRequest(ctx context.Context, rawURL, referer string, p Profile) (int, string, error) {
	client, err := clientFor(p)
	if err != nil {
		return 0, "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return 0, "", fmt.Errorf("build request: %w", err)
	}
	for _, h := range p.Headers() {
		req.Header[h.Name] = []string{h.Value}
	}
	req.Header["User-Agent"] = []string{p.UserAgent()}
	if referer != "" {
		req.Header["Referer"] = []string{referer}
	}

	resp, err := client.Do(req)
	if err != nil {
		return 0, "", err
	}
	defer resp.Body.Close()

	body, err := decodeBody(resp)
	if err != nil {
		return 0, "", fmt.Errorf("read body: %w", err)
	}
	return resp.StatusCode, string(body), nil
}

// decodeBody reads the response body and undoes the Content-Encoding.
// Both the raw and the decoded forms are capped at maxBodyBytes.
func decodeBody(resp *http.Response) ([]byte, error) {
	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, err
	}

	switch strings.ToLower(strings.TrimSpace(resp.Header.Get("Content-Encoding"))) {
	case "gzip":
		zr, err := gzip.NewReader(bytes.NewReader(raw))
		if err != nil {
			return nil, err
		}
		defer zr.Close()
		return io.ReadAll(io.LimitReader(zr, maxBodyBytes))
	case "deflate":
		fr := flate.NewReader(bytes.NewReader(raw))
		defer fr.Close()
		return io.ReadAll(io.LimitReader(fr, maxBodyBytes))
	case "br":
		return io.ReadAll(io.LimitReader(brotli.NewReader(bytes.NewReader(raw)), maxBodyBytes))
	case "zstd":
		zr, err := zstd.NewReader(bytes.NewReader(raw))
		if err != nil {
			return nil, err
		}
		defer zr.Close()
		return io.ReadAll(io.LimitReader(zr, maxBodyBytes))
	}
	return raw, nil
}
