// Package ports hands out host ports for deployed containers from a
// fixed range. Allocation is keyed by deployment name so repeated
// requests for the same name are idempotent.
package ports

import (
	"errors"
	"fmt"
	"sort"
	"sync"
)

// =============================================================================
// Errors
// =============================================================================

var (
	// ErrPortsExhausted is returned when every port in the range is taken.
	ErrPortsExhausted = errors.New("no ports available in range")

	// ErrPortOutOfRange is returned when a reservation names a port
	// outside the managed range.
	ErrPortOutOfRange = errors.New("port out of range")

	// ErrPortInUse is returned when a reservation names a port that is
	// already allocated.
	ErrPortInUse = errors.New("port already allocated")
)

// =============================================================================
// Allocator
// =============================================================================

const (
	// MinPort is the lowest port the allocator hands out.
	MinPort = 20000
	// MaxPort is the highest port the allocator hands out, inclusive.
	MaxPort = 40000
)

// Allocator assigns host ports to named deployments. All methods are
// safe for concurrent use.
type Allocator struct {
	mu     sync.Mutex
	byPort map[int]string
	byName map[string]int
}

// NewAllocator creates an empty allocator over [MinPort, MaxPort].
func NewAllocator() *Allocator {
	return &Allocator{
		byPort: make(map[int]string),
		byName: make(map[string]int),
	}
}

// Allocate returns the port held by name, assigning the lowest free
// port on first use.
func (a *Allocator) Allocate(name string) (int, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if port, ok := a.byName[name]; ok {
		return port, nil
	}
	for port := MinPort; port <= MaxPort; port++ {
		if _, taken := a.byPort[port]; !taken {
			a.byPort[port] = name
			a.byName[name] = port
			return port, nil
		}
	}
	return 0, ErrPortsExhausted
}

// Reserve pins name to a specific port. The port must lie inside the
// managed range and be free.
func (a *Allocator) Reserve(port int, name string) error {
	if port < MinPort || port > MaxPort {
		return fmt.Errorf("%w: %d not in [%d, %d]", ErrPortOutOfRange, port, MinPort, MaxPort)
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	if owner, taken := a.byPort[port]; taken {
		return fmt.Errorf("%w: %d held by %s", ErrPortInUse, port, owner)
	}
	if prev, ok := a.byName[name]; ok {
		delete(a.byPort, prev)
	}
	a.byPort[port] = name
	a.byName[name] = port
	return nil
}

// Release frees a port. It reports whether the port was allocated.
func (a *Allocator) Release(port int) bool {
	a.mu.Lock()
	defer a.mu.Unlock()

	name, ok := a.byPort[port]
	if !ok {
		return false
	}
	delete(a.byPort, port)
	delete(a.byName, name)
	return true
}

// IsAllocated reports whether port is currently held.
func (a *Allocator) IsAllocated(port int) bool {
	a.mu.Lock()
	defer a.mu.Unlock()

	_, ok := a.byPort[port]
	return ok
}

// OwnerOf returns the name holding port.
func (a *Allocator) OwnerOf(port int) (string, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()

	name, ok := a.byPort[port]
	return name, ok
}

// PortOf returns the port held by name.
func (a *Allocator) PortOf(name string) (int, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()

	port, ok := a.byName[name]
	return port, ok
}

// Allocated returns the held ports in ascending order.
func (a *Allocator) Allocated() []int {
	a.mu.Lock()
	defer a.mu.Unlock()

	allocated := make([]int, 0, len(a.byPort))
	for port := range a.byPort {
		allocated = append(allocated, port)
	}
	sort.Ints(allocated)
	return allocated
}

// AllocatedCount returns how many ports are currently held.
func (a *Allocator) AllocatedCount() int {
	a.mu.Lock()
	defer a.mu.Unlock()

	return len(a.byPort)
}

// AvailableCount returns how many ports remain free.
func (a *Allocator) AvailableCount() int {
	a.mu.Lock()
	defer a.mu.Unlock()

	return (MaxPort - MinPort + 1) - len(a.byPort)
}

// Clear drops every allocation.
func (a *Allocator) Clear() {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.byPort = make(map[int]string)
	a.byName = make(map[string]int)
}
