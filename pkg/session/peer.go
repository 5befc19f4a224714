package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/sdejongh/devsync/pkg/link"
	"github.com/sdejongh/devsync/pkg/logging"
	"github.com/sdejongh/devsync/pkg/netaddr"
)

// DefaultListenPort is where the host waits for a device announcement
const DefaultListenPort = 5915

// Peer is the device end of a session
type Peer struct {
	Link link.Link
	// Addr describes the device, e.g. its base URL
	Addr string
}

// PeerWaiter produces the device link once the device is ready
type PeerWaiter interface {
	WaitForPeer(ctx context.Context, host *netaddr.ResolvedAddress) (*Peer, error)
}

// StaticPeer connects to a device whose address is known up front
type StaticPeer struct {
	Addr    string
	Options link.RemoteOptions
	Logger  logging.Logger
}

// WaitForPeer returns a link to Addr without contacting the device
func (p *StaticPeer) WaitForPeer(ctx context.Context, _ *netaddr.ResolvedAddress) (*Peer, error) {
	remote, err := link.NewRemoteLink(p.Addr, p.Options, p.Logger)
	if err != nil {
		return nil, err
	}
	return &Peer{Link: remote, Addr: remote.BaseURL()}, nil
}

// Announcement is the body of a device's POST /sync
type Announcement struct {
	// Port is where the device serves the link protocol
	Port int `json:"port"`
}

// ListenPeer waits for the device to announce itself. The device sends
// POST /sync to the host's advertised address; the device address is the
// request's remote host.
type ListenPeer struct {
	// Port to listen on (0 picks a free port)
	Port    int
	Options link.RemoteOptions
	Logger  logging.Logger

	// OnListen, when set, receives the bound address before waiting
	OnListen func(addr net.Addr)
}

// WaitForPeer listens on the host address until a device announces
// itself or ctx is done
func (p *ListenPeer) WaitForPeer(ctx context.Context, host *netaddr.ResolvedAddress) (*Peer, error) {
	logger := logging.OrNull(p.Logger).WithFields(logging.Fields{"component": "peer_listener"})

	bind := ""
	if host != nil && host.Address.IsValid() {
		bind = host.Address.String()
	}
	ln, err := net.Listen("tcp", net.JoinHostPort(bind, strconv.Itoa(p.Port)))
	if err != nil {
		return nil, fmt.Errorf("failed to listen for the device: %w", err)
	}
	if p.OnListen != nil {
		p.OnListen(ln.Addr())
	}
	logger.Info(ctx, "waiting for device", logging.Fields{"addr": ln.Addr().String()})

	found := make(chan string, 1)
	mux := http.NewServeMux()
	mux.HandleFunc("POST /sync", func(w http.ResponseWriter, r *http.Request) {
		var ann Announcement
		if err := json.NewDecoder(r.Body).Decode(&ann); err != nil || ann.Port <= 0 || ann.Port > 65535 {
			http.Error(w, "invalid announcement", http.StatusBadRequest)
			return
		}
		deviceHost, _, err := net.SplitHostPort(r.RemoteAddr)
		if err != nil {
			http.Error(w, "unknown remote address", http.StatusBadRequest)
			return
		}

		select {
		case found <- net.JoinHostPort(deviceHost, strconv.Itoa(ann.Port)):
			w.WriteHeader(http.StatusOK)
		default:
			http.Error(w, "already synchronizing", http.StatusConflict)
		}
	})

	srv := &http.Server{Handler: mux, ReadHeaderTimeout: 10 * time.Second}
	served := make(chan error, 1)
	go func() { served <- srv.Serve(ln) }()

	shutdown := func() {
		sctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		srv.Shutdown(sctx)
	}

	select {
	case addr := <-found:
		shutdown()
		logger.Info(ctx, "device announced", logging.Fields{"device": addr})
		remote, err := link.NewRemoteLink(addr, p.Options, p.Logger)
		if err != nil {
			return nil, err
		}
		return &Peer{Link: remote, Addr: remote.BaseURL()}, nil
	case err := <-served:
		if errors.Is(err, http.ErrServerClosed) {
			err = errors.New("listener closed")
		}
		return nil, fmt.Errorf("failed waiting for the device: %w", err)
	case <-ctx.Done():
		shutdown()
		return nil, ctx.Err()
	}
}
