package probeset

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/miekg/dns"
)

func startTestDNSServer(t *testing.T, answer net.IP) string {
	t.Helper()
	pc, err := net.ListenPacket("udp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}

	mux := dns.NewServeMux()
	mux.HandleFunc(".", func(w dns.ResponseWriter, r *dns.Msg) {
		m := new(dns.Msg)
		m.SetReply(r)
		if len(r.Question) > 0 && answer != nil {
			q := r.Question[0]
			rr, err := dns.NewRR(q.Name + " 60 IN A " + answer.String())
			if err == nil {
				m.Answer = append(m.Answer, rr)
			}
		}
		w.WriteMsg(m)
	})

	srv := &dns.Server{PacketConn: pc, Handler: mux}
	go srv.ActivateAndServe()
	t.Cleanup(func() {
		srv.Shutdown()
		pc.Close()
	})
	return pc.LocalAddr().String()
}

func TestDNSProbe_MatchingRecord(t *testing.T) {
	addr := startTestDNSServer(t, net.ParseIP("172.30.1.10"))

	probe := DNSProbe{
		Resolver:     addr,
		Name:         "172.30.1.10",
		RecordType:   RecordA,
		ExpectedAddr: "172.30.1.10",
	}
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := probe.Check(ctx); err != nil {
		t.Errorf("Check() = %v, want nil", err)
	}
}

func TestDNSProbe_NoMatchingRecord(t *testing.T) {
	addr := startTestDNSServer(t, net.ParseIP("10.0.0.1"))

	probe := DNSProbe{
		Resolver:     addr,
		Name:         "172.30.1.10",
		RecordType:   RecordA,
		ExpectedAddr: "172.30.1.10",
	}
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := probe.Check(ctx); err == nil {
		t.Error("Check() = nil, want error for non-matching answer")
	}
}
