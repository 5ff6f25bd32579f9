package main

import (
	"context"
	"encoding/base64"
	"io"
	"net/http"
	"testing"

	"github.com/aws/aws-lambda-go/events"
)

func apiEvent(method, path, body string) events.APIGatewayV2HTTPRequest {
	return events.APIGatewayV2HTTPRequest{
		RawPath: path,
		Body:    body,
		Headers: map[string]string{"content-type": "application/json"},
		RequestContext: events.APIGatewayV2HTTPRequestContext{
			DomainName: "api.example.com",
			HTTP: events.APIGatewayV2HTTPRequestContextHTTPDescription{
				Method:   method,
				Path:     path,
				SourceIP: "198.51.100.4",
			},
		},
	}
}

type captured struct {
	method      string
	path        string
	query       string
	contentType string
	remoteAddr  string
	host        string
	body        string
}

func captureHandler(c *captured, status int, reply string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b, _ := io.ReadAll(r.Body)
		*c = captured{
			method:      r.Method,
			path:        r.URL.Path,
			query:       r.URL.RawQuery,
			contentType: r.Header.Get("Content-Type"),
			remoteAddr:  r.RemoteAddr,
			host:        r.Host,
			body:        string(b),
		}
		w.Header().Set("Content-Type", "application/json")
		w.Header().Add("Set-Cookie", "a=1")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(reply))
	})
}

func TestHandleForwardsRequest(t *testing.T) {
	var got captured
	h := captureHandler(&got, http.StatusOK, `{"responseType":"text","content":"hi"}`)

	evt := apiEvent(http.MethodPost, "/api/analyze", `{"text":"hello"}`)
	evt.RawQueryString = "debug=1"

	resp, err := handle(context.Background(), h, evt)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, resp.StatusCode)
	}
	if resp.Body != `{"responseType":"text","content":"hi"}` {
		t.Fatalf("unexpected body %q", resp.Body)
	}
	if resp.Headers["content-type"] != "application/json" {
		t.Fatalf("expected content-type header, got %v", resp.Headers)
	}
	if len(resp.Cookies) != 1 || resp.Cookies[0] != "a=1" {
		t.Fatalf("expected cookies to be passed through, got %v", resp.Cookies)
	}

	if got.method != http.MethodPost || got.path != "/api/analyze" || got.query != "debug=1" {
		t.Fatalf("unexpected request line: %+v", got)
	}
	if got.body != `{"text":"hello"}` {
		t.Fatalf("unexpected body forwarded: %q", got.body)
	}
	if got.contentType != "application/json" {
		t.Fatalf("expected content type forwarded, got %q", got.contentType)
	}
	if got.remoteAddr != "198.51.100.4:0" {
		t.Fatalf("expected source ip as remote addr, got %q", got.remoteAddr)
	}
	if got.host != "api.example.com" {
		t.Fatalf("expected domain as host, got %q", got.host)
	}
}

func TestHandleDecodesBase64Body(t *testing.T) {
	var got captured
	h := captureHandler(&got, http.StatusOK, "ok")

	evt := apiEvent(http.MethodPost, "/api/analyze", base64.StdEncoding.EncodeToString([]byte(`{"text":"b64"}`)))
	evt.IsBase64Encoded = true

	if _, err := handle(context.Background(), h, evt); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.body != `{"text":"b64"}` {
		t.Fatalf("expected decoded body, got %q", got.body)
	}
}

func TestHandleRejectsInvalidBase64(t *testing.T) {
	var got captured
	h := captureHandler(&got, http.StatusOK, "ok")

	evt := apiEvent(http.MethodPost, "/api/analyze", "%%%")
	evt.IsBase64Encoded = true

	resp, err := handle(context.Background(), h, evt)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected status %d, got %d", http.StatusBadRequest, resp.StatusCode)
	}
	if got.method != "" {
		t.Fatalf("handler should not run for an undecodable body")
	}
}

func TestHandleDefaultsStatus(t *testing.T) {
	h := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {})

	resp, err := handle(context.Background(), h, apiEvent(http.MethodGet, "/health", ""))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected implicit 200, got %d", resp.StatusCode)
	}
}

func TestHandleFallsBackToContextPath(t *testing.T) {
	var got captured
	h := captureHandler(&got, http.StatusTooManyRequests, `{"error":"slow down"}`)

	evt := apiEvent(http.MethodPost, "", "")
	evt.RequestContext.HTTP.Path = "/api/analyze"

	resp, err := handle(context.Background(), h, evt)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.path != "/api/analyze" {
		t.Fatalf("expected context path, got %q", got.path)
	}
	if resp.StatusCode != http.StatusTooManyRequests {
		t.Fatalf("expected status passthrough, got %d", resp.StatusCode)
	}
}
