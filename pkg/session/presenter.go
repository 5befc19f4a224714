package session

import (
	"context"
	"fmt"
	"io"
	"net"
	"strconv"

	"github.com/sdejongh/devsync/pkg/netaddr"
)

// Presenter shows the host address to the user so the device can be
// pointed at it
type Presenter interface {
	PresentAddress(ctx context.Context, addr *netaddr.ResolvedAddress) error
}

// ConsolePresenter prints the address on a writer
type ConsolePresenter struct {
	W io.Writer
	// Port is appended when the host listens for the device (0 omits it)
	Port int
}

// PresentAddress prints the address and the interface it belongs to
func (p *ConsolePresenter) PresentAddress(_ context.Context, addr *netaddr.ResolvedAddress) error {
	target := addr.Address.String()
	if p.Port > 0 {
		target = net.JoinHostPort(target, strconv.Itoa(p.Port))
	}
	_, err := fmt.Fprintf(p.W, "This computer's address: %s (%s, %s)\n", target, addr.InterfaceName, addr.InterfaceType)
	return err
}

// PresenterFunc adapts a function to Presenter
type PresenterFunc func(ctx context.Context, addr *netaddr.ResolvedAddress) error

func (f PresenterFunc) PresentAddress(ctx context.Context, addr *netaddr.ResolvedAddress) error {
	return f(ctx, addr)
}
