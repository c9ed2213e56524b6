package config

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
)

// dateLayout is the wall-clock format scylla.hocon uses for `start`.
const dateLayout = "01/02/2006 15:04"

// Load reads and parses the round configuration at path. It never mutates
// process state beyond an optional .env load for DATABASE_URL fallback.
func Load(path string) (*Round, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}

	tree, err := parseHOCON(string(raw))
	if err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}

	return decodeRound(tree)
}

func decodeRound(tree map[string]any) (*Round, error) {
	round := &Round{
		Teams:    make(map[string]Team),
		Machines: make(map[string]Machine),
	}

	var err error
	if round.RoundName, err = getString(tree, "round", true); err != nil {
		return nil, err
	}

	startStr, err := getString(tree, "start", true)
	if err != nil {
		return nil, err
	}
	round.Start, err = time.ParseInLocation(dateLayout, startStr, time.UTC)
	if err != nil {
		return nil, fmt.Errorf("config: invalid start timestamp %q: %w", startStr, err)
	}

	interval, err := getFloat(tree, "interval", true)
	if err != nil {
		return nil, err
	}
	round.Interval = uint16(interval)

	jitter, err := getFloat(tree, "jitter", true)
	if err != nil {
		return nil, err
	}
	round.Jitter = int16(jitter)

	timeout, err := getFloat(tree, "timeout", true)
	if err != nil {
		return nil, err
	}
	round.Timeout = uint8(timeout)

	if round.PatchServerDir, err = getString(tree, "patchServerDir", true); err != nil {
		return nil, err
	}

	webPort, err := getFloat(tree, "webPort", true)
	if err != nil {
		return nil, err
	}
	round.WebPort = uint16(webPort)

	round.NetworkPrefix, _ = getString(tree, "networkPrefix", false)
	if round.NetworkPrefix == "" {
		round.NetworkPrefix = defaultNetworkPrefix
	}

	round.StoreURL, err = resolveStoreURL(tree)
	if err != nil {
		return nil, err
	}

	teamsArr, err := getArray(tree, "teams", true)
	if err != nil {
		return nil, err
	}
	for _, v := range teamsArr {
		team, err := decodeTeam(v)
		if err != nil {
			return nil, err
		}
		if _, exists := round.Teams[team.ID]; exists {
			return nil, fmt.Errorf("config: duplicate team id %q", team.ID)
		}
		round.Teams[team.ID] = team
	}

	machinesArr, err := getArray(tree, "machines", true)
	if err != nil {
		return nil, err
	}
	for _, v := range machinesArr {
		machine, err := decodeMachine(v)
		if err != nil {
			return nil, err
		}
		if _, exists := round.Machines[machine.ID]; exists {
			return nil, fmt.Errorf("config: duplicate machine id %q", machine.ID)
		}
		round.Machines[machine.ID] = machine
	}

	injectsArr, _ := getArray(tree, "injects", false)
	for _, v := range injectsArr {
		inject, err := decodeInject(v)
		if err != nil {
			return nil, err
		}
		round.Injects = append(round.Injects, inject)
	}

	if len(round.Teams) == 0 {
		return nil, fmt.Errorf("config: at least one team is required")
	}
	if len(round.Machines) == 0 {
		return nil, fmt.Errorf("config: at least one machine is required")
	}

	return round, nil
}

// resolveStoreURL honors the config's own `database` key when present,
// falling back to DATABASE_URL from the environment (after an optional
// .env load) otherwise.
func resolveStoreURL(tree map[string]any) (string, error) {
	if dbURL, _ := getString(tree, "database", false); dbURL != "" {
		return dbURL, nil
	}

	_ = godotenv.Load()
	if dbURL := os.Getenv("DATABASE_URL"); dbURL != "" {
		return dbURL, nil
	}

	return "", fmt.Errorf("config: no `database` key and DATABASE_URL is unset")
}

func decodeTeam(v any) (Team, error) {
	obj, ok := v.(map[string]any)
	if !ok {
		return Team{}, fmt.Errorf("config: team entry must be an object")
	}
	id, err := getString(obj, "id", true)
	if err != nil {
		return Team{}, err
	}
	subnet, err := getFloat(obj, "subnet", true)
	if err != nil {
		return Team{}, err
	}
	password, err := getString(obj, "password", true)
	if err != nil {
		return Team{}, err
	}
	timeout, _ := getFloat(obj, "timeout", false)
	if timeout == 0 {
		timeout = defaultTeamTimeout
	}
	return Team{
		ID:       id,
		Subnet:   uint8(subnet),
		Password: password,
		Timeout:  uint8(timeout),
	}, nil
}

func decodeMachine(v any) (Machine, error) {
	obj, ok := v.(map[string]any)
	if !ok {
		return Machine{}, fmt.Errorf("config: machine entry must be an object")
	}
	id, err := getString(obj, "id", true)
	if err != nil {
		return Machine{}, err
	}
	hostOctet, err := getFloat(obj, "hostOctet", true)
	if err != nil {
		return Machine{}, err
	}
	svcArr, err := getArray(obj, "services", true)
	if err != nil {
		return Machine{}, err
	}

	machine := Machine{ID: id, HostOctet: uint8(hostOctet)}
	for _, sv := range svcArr {
		spec, err := decodeServiceSpec(sv)
		if err != nil {
			return Machine{}, err
		}
		machine.Services = append(machine.Services, spec)
	}
	return machine, nil
}

func decodeServiceSpec(v any) (ServiceSpec, error) {
	obj, ok := v.(map[string]any)
	if !ok {
		return ServiceSpec{}, fmt.Errorf("config: service entry must be an object")
	}
	id, err := getString(obj, "id", true)
	if err != nil {
		return ServiceSpec{}, err
	}
	typeStr, err := getString(obj, "type", true)
	if err != nil {
		return ServiceSpec{}, err
	}

	spec := ServiceSpec{ID: id, Type: ServiceType(typeStr)}

	switch spec.Type {
	case ServiceTCP, ServiceUDP:
		port, err := getFloat(obj, "port", true)
		if err != nil {
			return ServiceSpec{}, err
		}
		spec.Port = uint16(port)
		if spec.Type == ServiceUDP {
			bindPort, err := getFloat(obj, "bindPort", true)
			if err != nil {
				return ServiceSpec{}, err
			}
			spec.BindPort = uint16(bindPort)
		}
	case ServiceSSH:
		port, _ := getFloat(obj, "port", false)
		if port == 0 {
			port = defaultSSHPort
		}
		spec.Port = uint16(port)
	case ServiceHTTP:
		port, _ := getFloat(obj, "port", false)
		if port == 0 {
			port = defaultHTTPPort
		}
		spec.Port = uint16(port)
		method, _ := getString(obj, "method", false)
		if method == "" {
			method = defaultHTTPMethod
		}
		spec.Method = method
		spec.ContentHash, _ = getString(obj, "contentHash", false)
		ssl, _ := obj["ssl"].(bool)
		spec.SSL = ssl
	case ServiceDNS:
		resolver, err := getString(obj, "resolver", true)
		if err != nil {
			return ServiceSpec{}, err
		}
		spec.Resolver = resolver
		recordObj, ok := obj["record"].(map[string]any)
		if !ok {
			return ServiceSpec{}, fmt.Errorf("config: dns service %q missing record", id)
		}
		kind, err := getString(recordObj, "type", true)
		if err != nil {
			return ServiceSpec{}, err
		}
		addr, err := getString(recordObj, "addr", true)
		if err != nil {
			return ServiceSpec{}, err
		}
		spec.RecordKind = DNSRecordKind(kind)
		spec.RecordAddr = addr
	default:
		return ServiceSpec{}, fmt.Errorf("config: unknown service type %q for %q", typeStr, id)
	}

	return spec, nil
}

func decodeInject(v any) (Inject, error) {
	obj, ok := v.(map[string]any)
	if !ok {
		return Inject{}, fmt.Errorf("config: inject entry must be an object")
	}
	offsetMin, err := getFloat(obj, "offsetMin", true)
	if err != nil {
		return Inject{}, err
	}
	durationMin, err := getFloat(obj, "durationMin", true)
	if err != nil {
		return Inject{}, err
	}

	metaObj, ok := obj["meta"].(map[string]any)
	if !ok {
		return Inject{}, fmt.Errorf("config: inject missing meta")
	}
	title, _ := getString(metaObj, "title", false)
	description, _ := getString(metaObj, "description", false)

	inject := Inject{
		OffsetMin:   uint(offsetMin),
		DurationMin: uint(durationMin),
		NewServices: make(map[string][]ServiceSpec),
		Meta:        InjectMeta{Title: title, Description: description},
	}

	newServicesArr, err := getArray(obj, "newServices", true)
	if err != nil {
		return Inject{}, err
	}
	for _, entry := range newServicesArr {
		entryObj, ok := entry.(map[string]any)
		if !ok {
			return Inject{}, fmt.Errorf("config: newServices entry must be an object")
		}
		machineID, err := getString(entryObj, "machineId", true)
		if err != nil {
			return Inject{}, err
		}
		svcArr, err := getArray(entryObj, "services", true)
		if err != nil {
			return Inject{}, err
		}
		var specs []ServiceSpec
		for _, sv := range svcArr {
			spec, err := decodeServiceSpec(sv)
			if err != nil {
				return Inject{}, err
			}
			specs = append(specs, spec)
		}
		inject.NewServices[machineID] = append(inject.NewServices[machineID], specs...)
	}

	return inject, nil
}

func getString(tree map[string]any, key string, required bool) (string, error) {
	v, ok := tree[key]
	if !ok {
		if required {
			return "", fmt.Errorf("config: missing required key %q", key)
		}
		return "", nil
	}
	s, ok := v.(string)
	if !ok {
		return "", fmt.Errorf("config: key %q must be a string", key)
	}
	return s, nil
}

func getFloat(tree map[string]any, key string, required bool) (float64, error) {
	v, ok := tree[key]
	if !ok {
		if required {
			return 0, fmt.Errorf("config: missing required key %q", key)
		}
		return 0, nil
	}
	f, ok := v.(float64)
	if !ok {
		return 0, fmt.Errorf("config: key %q must be a number", key)
	}
	return f, nil
}

func getArray(tree map[string]any, key string, required bool) ([]any, error) {
	v, ok := tree[key]
	if !ok {
		if required {
			return nil, fmt.Errorf("config: missing required key %q", key)
		}
		return nil, nil
	}
	arr, ok := v.([]any)
	if !ok {
		return nil, fmt.Errorf("config: key %q must be an array", key)
	}
	return arr, nil
}
