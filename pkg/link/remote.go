package link

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/sdejongh/devsync/internal/platform"
	"github.com/sdejongh/devsync/pkg/logging"
	"github.com/sdejongh/devsync/pkg/ratelimit"
)

const (
	// DefaultPort is the device's listening port
	DefaultPort = 5914

	// HeaderModifiedAt carries a file's modification time on upload
	HeaderModifiedAt = "X-Modified-At"

	// DefaultTimeout bounds a first transfer attempt
	DefaultTimeout = 30 * time.Second

	// DefaultRetryTimeoutFactor widens the deadline on each retry
	DefaultRetryTimeoutFactor = 2.0

	maxErrorBody = 4096
)

// RemoteOptions configures a RemoteLink
type RemoteOptions struct {
	// Timeout bounds the first attempt of every request
	Timeout time.Duration
	// RetryTimeoutFactor multiplies Timeout once per retry attempt
	RetryTimeoutFactor float64
	// Limiter throttles upload bodies (nil means unlimited)
	Limiter *ratelimit.Limiter
	// Transport overrides the HTTP transport (tests)
	Transport http.RoundTripper
}

// RemoteLink is a Link to a device over HTTP
type RemoteLink struct {
	baseURL string
	client  *http.Client
	timeout time.Duration
	factor  float64
	limiter *ratelimit.Limiter
	logger  logging.Logger
}

// NewRemoteLink creates a link to the device at addr, given as host,
// host:port or an http URL. The default port is used when none is given.
func NewRemoteLink(addr string, opts RemoteOptions, logger logging.Logger) (*RemoteLink, error) {
	base, err := deviceURL(addr)
	if err != nil {
		return nil, err
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.RetryTimeoutFactor < 1 {
		opts.RetryTimeoutFactor = DefaultRetryTimeoutFactor
	}

	return &RemoteLink{
		baseURL: base,
		// Deadlines come from the request context so retries can widen them
		client:  &http.Client{Transport: opts.Transport},
		timeout: opts.Timeout,
		factor:  opts.RetryTimeoutFactor,
		limiter: opts.Limiter,
		logger:  logging.OrNull(logger).WithFields(logging.Fields{"component": "remote_link", "device": base}),
	}, nil
}

// deviceURL normalizes a device address to scheme://host:port
func deviceURL(addr string) (string, error) {
	addr = strings.TrimSpace(addr)
	if addr == "" {
		return "", fmt.Errorf("device address is empty")
	}
	if !strings.Contains(addr, "://") {
		addr = "http://" + addr
	}

	u, err := url.Parse(addr)
	if err != nil {
		return "", fmt.Errorf("invalid device address %q: %w", addr, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", fmt.Errorf("invalid device address %q: unsupported scheme %s", addr, u.Scheme)
	}
	if u.Hostname() == "" {
		return "", fmt.Errorf("invalid device address %q: missing host", addr)
	}

	port := u.Port()
	if port == "" {
		port = strconv.Itoa(DefaultPort)
	}
	return u.Scheme + "://" + net.JoinHostPort(u.Hostname(), port), nil
}

// BaseURL returns the normalized device URL
func (r *RemoteLink) BaseURL() string {
	return r.baseURL
}

// Timeout returns the deadline applied to a request at the given attempt
func (r *RemoteLink) Timeout(attempt int) time.Duration {
	return EscalatedTimeout(r.timeout, r.factor, attempt)
}

// PutFile uploads data to the device
func (r *RemoteLink) PutFile(ctx context.Context, p string, data []byte, modTime time.Time) error {
	clean, err := platform.CleanRelative(p)
	if err != nil {
		return wrap("put", p, err)
	}
	if modTime.IsZero() {
		modTime = time.Now()
	}

	ctx, cancel := r.deadline(ctx)
	defer cancel()

	body := ratelimit.NewReader(ctx, bytes.NewReader(data), r.limiter)
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, r.endpoint("file", clean), body)
	if err != nil {
		return wrap("put", clean, err)
	}
	req.ContentLength = int64(len(data))
	req.Header.Set("Content-Type", "application/octet-stream")
	req.Header.Set(HeaderModifiedAt, modTime.UTC().Format(time.RFC3339Nano))

	resp, err := r.do(req)
	if err != nil {
		return wrap("put", clean, err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	r.logger.Debug(ctx, "uploaded file", logging.Fields{"path": clean, "bytes": len(data)})
	return nil
}

// GetFile downloads a file from the device
func (r *RemoteLink) GetFile(ctx context.Context, p string) ([]byte, error) {
	clean, err := platform.CleanRelative(p)
	if err != nil {
		return nil, wrap("get", p, err)
	}

	ctx, cancel := r.deadline(ctx)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, r.endpoint("file", clean), nil)
	if err != nil {
		return nil, wrap("get", clean, err)
	}

	resp, err := r.do(req)
	if err != nil {
		return nil, wrap("get", clean, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, wrap("get", clean, err)
	}
	if resp.ContentLength >= 0 && int64(len(data)) != resp.ContentLength {
		return nil, wrap("get", clean, io.ErrUnexpectedEOF)
	}
	return data, nil
}

// ListFiles asks the device for a listing below dir
func (r *RemoteLink) ListFiles(ctx context.Context, dir string) ([]FileInfo, error) {
	root, err := platform.CleanDir(dir)
	if err != nil {
		return nil, wrap("list", dir, err)
	}

	ctx, cancel := r.deadline(ctx)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, r.endpoint("list", root), nil)
	if err != nil {
		return nil, wrap("list", root, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := r.do(req)
	if err != nil {
		return nil, wrap("list", root, err)
	}
	defer resp.Body.Close()

	var files []FileInfo
	if err := json.NewDecoder(resp.Body).Decode(&files); err != nil {
		return nil, wrap("list", root, fmt.Errorf("failed to decode listing: %w", err))
	}
	for i := range files {
		clean, err := platform.CleanRelative(files[i].Path)
		if err != nil {
			return nil, wrap("list", root, fmt.Errorf("device listed an invalid path: %w", err))
		}
		files[i].Path = clean
	}
	return files, nil
}

// SendNotification posts an event to the device
func (r *RemoteLink) SendNotification(ctx context.Context, event string) error {
	ctx, cancel := r.deadline(ctx)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.endpoint("notify", event), nil)
	if err != nil {
		return wrap("notify", event, err)
	}

	resp, err := r.do(req)
	if err != nil {
		return wrap("notify", event, err)
	}
	resp.Body.Close()
	return nil
}

func (r *RemoteLink) deadline(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, r.Timeout(AttemptFrom(ctx)))
}

func (r *RemoteLink) endpoint(kind, p string) string {
	return r.baseURL + "/" + kind + "/" + (&url.URL{Path: p}).EscapedPath()
}

// do sends req and turns non-2xx responses into a *StatusError
func (r *RemoteLink) do(req *http.Request) (*http.Response, error) {
	resp, err := r.client.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return resp, nil
	}
	defer resp.Body.Close()

	msg, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	statusErr := &StatusError{Code: resp.StatusCode, Message: strings.TrimSpace(string(msg))}
	if resp.StatusCode == http.StatusNotFound {
		return nil, fmt.Errorf("%w: %w", ErrNotFound, statusErr)
	}
	return nil, statusErr
}
