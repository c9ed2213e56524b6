package probeset

import (
	"context"
	"net"
	"testing"
	"time"
)

func TestUDPProbe_BindAndConnectSucceeds(t *testing.T) {
	// A UDP probe only verifies the local socket can be bound and a
	// default remote can be set; no listener is required on the far end.
	probe := UDPProbe{Remote: "127.0.0.1:9", BindPort: 0}
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := probe.Check(ctx); err != nil {
		t.Errorf("Check() = %v, want nil", err)
	}
}

func TestUDPProbe_BadBindPortFails(t *testing.T) {
	// Occupy a UDP port so a second bind to the exact same port fails.
	conn, err := net.ListenUDP("udp", &net.UDPAddr{Port: 0})
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	defer conn.Close()
	bound := conn.LocalAddr().(*net.UDPAddr).Port

	probe := UDPProbe{Remote: "127.0.0.1:9", BindPort: uint16(bound)}
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := probe.Check(ctx); err == nil {
		t.Error("Check() = nil, want error for already-bound port")
	}
}
