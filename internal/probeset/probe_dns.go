package probeset

import (
	"context"
	"fmt"
	"net"

	"github.com/miekg/dns"
)

// DNSRecordType is the two record kinds a DNS service spec can check.
type DNSRecordType int

const (
	RecordA DNSRecordType = iota
	RecordAAAA
)

// DNSProbe resolves Name against Resolver and succeeds iff at least one
// returned answer matches ExpectedAddr exactly. Name is the same derived
// dotted address every other probe variant targets (see NewServiceRecord);
// the original scoring engine queries a zone where each team/machine
// combination is published under its own address literal.
type DNSProbe struct {
	Resolver    string // "ip:port"
	Name        string
	RecordType  DNSRecordType
	ExpectedAddr string
}

func (p DNSProbe) Check(ctx context.Context) error {
	qtype := dns.TypeA
	if p.RecordType == RecordAAAA {
		qtype = dns.TypeAAAA
	}

	msg := new(dns.Msg)
	msg.SetQuestion(dns.Fqdn(p.Name), qtype)
	msg.RecursionDesired = true

	client := new(dns.Client)
	resp, _, err := client.ExchangeContext(ctx, msg, p.Resolver)
	if err != nil {
		return fmt.Errorf("dns query %s @%s: %w", p.Name, p.Resolver, err)
	}

	want := net.ParseIP(p.ExpectedAddr)
	for _, rr := range resp.Answer {
		var got net.IP
		switch rec := rr.(type) {
		case *dns.A:
			got = rec.A
		case *dns.AAAA:
			got = rec.AAAA
		default:
			continue
		}
		if got.Equal(want) {
			return nil
		}
	}
	return fmt.Errorf("dns %s @%s: no answer matched %s", p.Name, p.Resolver, p.ExpectedAddr)
}
