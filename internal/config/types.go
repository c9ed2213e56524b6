// Package config holds the parsed, immutable description of a round: teams,
// machines, services, injects, and the timing/store/web knobs the rest of
// the engine runs on. Config-file grammar lives in hocon.go; this file is
// the parsed shape every other package consumes.
package config

import "time"

// ServiceType tags which probe variant a ServiceSpec describes.
type ServiceType string

const (
	ServiceTCP  ServiceType = "tcp"
	ServiceUDP  ServiceType = "udp"
	ServiceSSH  ServiceType = "ssh"
	ServiceHTTP ServiceType = "http"
	ServiceDNS  ServiceType = "dns"
)

// DNSRecordKind is the record type a DNS ServiceSpec expects back.
type DNSRecordKind string

const (
	DNSRecordA    DNSRecordKind = "A"
	DNSRecordAAAA DNSRecordKind = "AAAA"
)

// ServiceSpec is a tagged-variant description of one probed service. Only
// the fields relevant to Type are meaningful; the rest are zero.
type ServiceSpec struct {
	ID   string
	Type ServiceType

	Port     uint16 // tcp, ssh (default 22), http (default 80), udp
	BindPort uint16 // udp only

	Method      string // http, default GET
	ContentHash string // http, optional lowercase hex md5
	SSL         bool   // http, optional `ssl` key, default false; true selects https

	Resolver   string        // dns: resolver IPv4
	RecordKind DNSRecordKind // dns: A or AAAA
	RecordAddr string        // dns: expected literal address
}

// Team identifies one competing team and its subnet.
type Team struct {
	ID       string
	Subnet   uint8
	Password string
	Timeout  uint8 // seconds, default 5
}

// Machine is one host template replicated per team, with its ordered
// service list.
type Machine struct {
	ID        string
	HostOctet uint8
	Services  []ServiceSpec
}

// InjectMeta is the human-readable label attached to an Inject.
type InjectMeta struct {
	Title       string
	Description string
}

// Inject is a mid-round event that adds new services to the probe set once
// its activation deadline has passed.
type Inject struct {
	OffsetMin   uint
	DurationMin uint
	NewServices map[string][]ServiceSpec // machine_id -> specs
	Meta        InjectMeta
}

// ActivationTime is start + (offset + duration) minutes. The duration is
// included in the deadline, so a zero-duration inject activates at offset.
func (i Inject) ActivationTime(start time.Time) time.Time {
	return start.Add(time.Duration(i.OffsetMin+i.DurationMin) * time.Minute)
}

// Round is the full, immutable description of one competition window.
type Round struct {
	RoundName      string
	Start          time.Time
	Teams          map[string]Team
	Machines       map[string]Machine
	Injects        []Inject
	Interval       uint16
	Jitter         int16
	Timeout        uint8
	PatchServerDir string
	StoreURL       string
	WebPort        uint16
	NetworkPrefix  string // e.g. "172.30", default when omitted
}

const defaultNetworkPrefix = "172.30"

const (
	defaultTeamTimeout = 5
	defaultSSHPort     = 22
	defaultHTTPPort    = 80
	defaultHTTPMethod  = "GET"
)
