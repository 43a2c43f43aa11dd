package config

// BasicService is used as a simple base for services like Prometheus
// monitoring.
type BasicService struct {
	Enabled bool `yaml:"Enabled" toml:"Enabled"`
	// Addresses holds the list of bind addresses in the form of "address:port".
	Addresses []string `yaml:"Addresses" toml:"Addresses"`
}

// GetAddresses returns the set of unique (in terms of raw strings) bind
// addresses for the given basic service.
func (s BasicService) GetAddresses() []string {
	var (
		addrs = make([]string, 0, len(s.Addresses))
		seen  = make(map[string]struct{}, len(s.Addresses))
	)
	for _, addr := range s.Addresses {
		if _, ok := seen[addr]; ok {
			continue
		}
		seen[addr] = struct{}{}
		addrs = append(addrs, addr)
	}
	return addrs
}
