package probeset

import (
	"context"
	"fmt"
	"net"
)

// UDPProbe succeeds iff binding BindPort locally and "connecting" (setting
// the default remote) to Remote both succeed before the deadline. No
// datagram is exchanged; this only verifies the socket can be prepared,
// not that anything on the far end is listening. Preserved for
// compatibility with the original scoring rule; it is a weak liveness
// signal for UDP services.
type UDPProbe struct {
	Remote   string // "host:port"
	BindPort uint16
}

func (p UDPProbe) Check(ctx context.Context) error {
	raddr, err := net.ResolveUDPAddr("udp", p.Remote)
	if err != nil {
		return fmt.Errorf("udp resolve %s: %w", p.Remote, err)
	}
	laddr := &net.UDPAddr{Port: int(p.BindPort)}

	done := make(chan error, 1)
	go func() {
		conn, err := net.DialUDP("udp", laddr, raddr)
		if err != nil {
			done <- err
			return
		}
		done <- conn.Close()
	}()

	select {
	case err := <-done:
		if err != nil {
			return fmt.Errorf("udp bind+connect %s: %w", p.Remote, err)
		}
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
