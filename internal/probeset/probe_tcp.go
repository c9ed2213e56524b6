package probeset

import (
	"context"
	"fmt"
	"net"
)

// TCPProbe succeeds iff a connect to Remote completes before the context
// deadline. SSH services are probed with this same variant.
type TCPProbe struct {
	Remote string // "host:port"
}

func (p TCPProbe) Check(ctx context.Context) error {
	var d net.Dialer
	conn, err := d.DialContext(ctx, "tcp", p.Remote)
	if err != nil {
		return fmt.Errorf("tcp connect %s: %w", p.Remote, err)
	}
	return conn.Close()
}
