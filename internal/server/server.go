// Package server exposes the pipeline's two compositions over HTTP. The
// handler shape (an onRequest notification hook, a pick-a-free-port
// listener) is grounded on evanw-esbuild's
// pkg/api/serve_other.go, which serves build output the same way this
// serves stylesheet output: a GET per path, content negotiated from the
// extension, errors reported as a response body rather than a panic.
package server

import (
	"fmt"
	"mime"
	"net"
	"net/http"
	"path"
	"strconv"
	"strings"
	"time"

	"github.com/productiverage/cssminifier/internal/pipeline"
)

// OnRequestArgs mirrors esbuild's ServeOnRequestArgs: a side-channel
// notification for logging/metrics, decoupled from the request/response
// cycle itself so a slow logger never holds up the client.
type OnRequestArgs struct {
	RemoteAddress string
	Method        string
	Path          string
	Status        int
	TimeInMS      int
}

// Handler routes /styles/default/* and /styles/enhanced/* to the two
// pipeline compositions. Both prefixes are optional: a Handler serving
// only one composition simply leaves the other Service nil.
type Handler struct {
	Default   *pipeline.Service
	Enhanced  *pipeline.Service
	OnRequest func(OnRequestArgs)
}

const (
	defaultPrefix  = "/styles/default/"
	enhancedPrefix = "/styles/enhanced/"
)

func (h *Handler) notify(start time.Time, req *http.Request, status int) {
	if h.OnRequest == nil {
		return
	}
	go h.OnRequest(OnRequestArgs{
		RemoteAddress: req.RemoteAddr,
		Method:        req.Method,
		Path:          req.URL.Path,
		Status:        status,
		TimeInMS:      int(time.Since(start).Milliseconds()),
	})
}

func (h *Handler) ServeHTTP(res http.ResponseWriter, req *http.Request) {
	start := time.Now()

	if req.Method != http.MethodGet && req.Method != http.MethodHead {
		h.notify(start, req, http.StatusMethodNotAllowed)
		res.Header().Set("Allow", "GET, HEAD")
		http.Error(res, "405 - Method Not Allowed", http.StatusMethodNotAllowed)
		return
	}

	queryPath := path.Clean(req.URL.Path)
	var svc *pipeline.Service
	var relativePath string
	switch {
	case strings.HasPrefix(queryPath, defaultPrefix):
		svc, relativePath = h.Default, strings.TrimPrefix(queryPath, defaultPrefix)
	case strings.HasPrefix(queryPath, enhancedPrefix):
		svc, relativePath = h.Enhanced, strings.TrimPrefix(queryPath, enhancedPrefix)
	default:
		h.notify(start, req, http.StatusNotFound)
		http.Error(res, "404 - Not Found", http.StatusNotFound)
		return
	}
	if svc == nil {
		h.notify(start, req, http.StatusNotFound)
		http.Error(res, "404 - Not Found", http.StatusNotFound)
		return
	}

	var ifModifiedSince *time.Time
	if raw := req.Header.Get("If-Modified-Since"); raw != "" {
		if t, err := http.ParseTime(raw); err == nil {
			ifModifiedSince = &t
		}
	}

	result := svc.Process(relativePath, ifModifiedSince)
	switch result.Kind {
	case pipeline.NotModified:
		h.notify(start, req, http.StatusNotModified)
		res.WriteHeader(http.StatusNotModified)

	case pipeline.Failure:
		h.notify(start, req, http.StatusInternalServerError)
		res.Header().Set("Content-Type", "text/plain; charset=utf-8")
		res.WriteHeader(http.StatusInternalServerError)
		fmt.Fprintf(res, "500 - Internal server error: %s", result.Err)

	default: // Success
		res.Header().Set("Content-Type", contentTypeFor(relativePath))
		res.Header().Set("Last-Modified", result.LastModified.UTC().Format(http.TimeFormat))
		res.Header().Set("Content-Length", strconv.Itoa(len(result.Body)))
		if req.Method == http.MethodHead {
			h.notify(start, req, http.StatusOK)
			res.WriteHeader(http.StatusOK)
			return
		}
		h.notify(start, req, http.StatusOK)
		res.Write([]byte(result.Body))
	}
}

func contentTypeFor(relativePath string) string {
	if ct := mime.TypeByExtension(path.Ext(relativePath)); ct != "" {
		return ct
	}
	return "text/css; charset=utf-8"
}

// Listen picks a free "800X" port the way esbuild's serve command does
// when no explicit port is given, falling back to binding the requested
// port directly otherwise.
func Listen(host string, port int) (net.Listener, error) {
	network := "tcp4"
	if host == "" {
		host = "0.0.0.0"
	} else if ip := net.ParseIP(host); ip == nil || ip.To4() == nil {
		network = "tcp"
	}

	if port != 0 {
		return net.Listen(network, net.JoinHostPort(host, strconv.Itoa(port)))
	}
	for p := 8000; p <= 8009; p++ {
		if ln, err := net.Listen(network, net.JoinHostPort(host, strconv.Itoa(p))); err == nil {
			return ln, nil
		}
	}
	return nil, fmt.Errorf("no free port in range 8000-8009")
}
