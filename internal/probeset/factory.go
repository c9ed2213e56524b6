package probeset

import (
	"fmt"
	"net"

	"scylla/internal/config"
)

// NewServiceRecord computes the remote address from subnet/host/port,
// selects the probe variant matching spec.Type, and attaches identity
// metadata. It fails with a wrapped error identifying the offending host
// if the composed address does not parse as IPv4.
func NewServiceRecord(spec config.ServiceSpec, team config.Team, machine config.Machine, networkPrefix string) (ServiceRecord, error) {
	host := fmt.Sprintf("%s.%d.%d", networkPrefix, team.Subnet, machine.HostOctet)
	if net.ParseIP(host) == nil {
		return ServiceRecord{}, fmt.Errorf("bad address: %q does not parse as IPv4 (team=%s machine=%s)", host, team.ID, machine.ID)
	}

	probe, err := buildProbe(spec, host)
	if err != nil {
		return ServiceRecord{}, err
	}

	return ServiceRecord{
		Meta: Meta{
			TeamID:    team.ID,
			MachineID: machine.ID,
			ServiceID: spec.ID,
		},
		Probe: probe,
	}, nil
}

func buildProbe(spec config.ServiceSpec, host string) (Probe, error) {
	switch spec.Type {
	case config.ServiceTCP, config.ServiceSSH:
		return TCPProbe{Remote: fmt.Sprintf("%s:%d", host, spec.Port)}, nil
	case config.ServiceUDP:
		return UDPProbe{
			Remote:   fmt.Sprintf("%s:%d", host, spec.Port),
			BindPort: spec.BindPort,
		}, nil
	case config.ServiceHTTP:
		scheme := "http"
		if spec.SSL {
			scheme = "https"
		}
		return HTTPProbe{
			URL:         fmt.Sprintf("%s://%s:%d/", scheme, host, spec.Port),
			Method:      spec.Method,
			ContentHash: spec.ContentHash,
		}, nil
	case config.ServiceDNS:
		kind := RecordA
		if spec.RecordKind == config.DNSRecordAAAA {
			kind = RecordAAAA
		}
		return DNSProbe{
			Resolver:     net.JoinHostPort(spec.Resolver, "53"),
			Name:         host,
			RecordType:   kind,
			ExpectedAddr: spec.RecordAddr,
		}, nil
	default:
		return nil, fmt.Errorf("probeset: unknown service type %q", spec.Type)
	}
}

// BuildInitialSet constructs the cross-product of every team, machine, and
// the machine's service list: the probe set's startup shape.
func BuildInitialSet(round *config.Round) (*Set, error) {
	var records []ServiceRecord
	for _, machine := range round.Machines {
		for _, team := range round.Teams {
			for _, spec := range machine.Services {
				rec, err := NewServiceRecord(spec, team, machine, round.NetworkPrefix)
				if err != nil {
					return nil, err
				}
				records = append(records, rec)
			}
		}
	}
	return New(records), nil
}
