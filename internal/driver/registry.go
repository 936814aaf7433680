package driver

import (
	"fmt"
	"sort"
	"sync"
)

// Driver captures what differs between frame variants: how the 16-bit
// fixed-point sample words are interpreted and what happens to samples
// outside the physical domain.
type Driver interface {
	Name() string
	DecodeSample(word uint16) float64
	EncodeSample(v float64) uint16
	KeepOutOfRange(groupID, typeID uint8) bool
}

var (
	regMu    sync.RWMutex
	registry = map[string]Driver{}
)

// Register stores a driver under its name. A later registration with the
// same name replaces the earlier one.
func Register(drv Driver) {
	regMu.Lock()
	defer regMu.Unlock()
	registry[drv.Name()] = drv
}

// Lookup returns the driver registered under name.
func Lookup(name string) (Driver, error) {
	regMu.RLock()
	defer regMu.RUnlock()
	if drv, ok := registry[name]; ok {
		return drv, nil
	}
	return nil, fmt.Errorf("driver not found for variant %q", name)
}

// Names lists the registered variants in lexical order.
func Names() []string {
	regMu.RLock()
	defer regMu.RUnlock()
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
