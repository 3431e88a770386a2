package client

import (
	"context"
	"net/http"
	"testing"
	"time"
)

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(r *http.Request) (*http.Response, error) { return f(r) }

func TestWithHTTPTimeout(t *testing.T) {
	c, err := New("http://example.com", WithHTTPTimeout(2*time.Second))
	if err != nil {
		t.Fatal(err)
	}
	if c.http.Timeout != 2*time.Second {
		t.Fatalf("timeout = %s", c.http.Timeout)
	}
}

func TestWithUserAgent(t *testing.T) {
	var got string
	rt := roundTripFunc(func(r *http.Request) (*http.Response, error) {
		got = r.Header.Get("User-Agent")
		return nil, context.Canceled
	})
	c, err := New("http://example.com", WithHTTPClient(&http.Client{Transport: rt}), WithUserAgent("rcadmin/test"))
	if err != nil {
		t.Fatal(err)
	}
	_, _ = c.Health(context.Background())
	if got != "rcadmin/test" {
		t.Fatalf("user agent = %q", got)
	}
	if _, err := New("http://example.com", WithUserAgent(" ")); err == nil {
		t.Fatal("expected error for blank user agent")
	}
}

func TestNew_AutoEnableDebugViaEnv(t *testing.T) {
	t.Setenv("RCADMIN_DEBUG", "true")
	c, err := New("http://example.com")
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := c.http.Transport.(*debugTransport); !ok {
		t.Fatalf("expected debugTransport to be installed when RCADMIN_DEBUG=true")
	}
}

func TestDebugTransport_ErrorPath(t *testing.T) {
	rt := roundTripFunc(func(r *http.Request) (*http.Response, error) {
		return nil, context.DeadlineExceeded
	})
	c, err := New("http://example.com", WithHTTPClient(&http.Client{Transport: rt}), WithDebugLogging(true))
	if err != nil {
		t.Fatal(err)
	}
	req, _ := http.NewRequestWithContext(context.Background(), http.MethodGet, "http://example.com", http.NoBody)
	if _, err := c.http.Do(req); err == nil {
		t.Fatalf("expected error from underlying transport")
	}
}
