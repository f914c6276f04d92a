package capture

import (
	"fmt"
	"sort"
	"sync"
)

// DeviceRegistry tracks which camera indexes currently have an owning task.
type DeviceRegistry struct {
	owners map[int]string
	mu     sync.Mutex
}

// NewDeviceRegistry creates an empty registry.
func NewDeviceRegistry() *DeviceRegistry {
	return &DeviceRegistry{owners: make(map[int]string)}
}

// Acquire claims device for owner. The returned release func may be called
// any number of times; only the first call frees the slot.
func (r *DeviceRegistry) Acquire(device int, owner string) (func(), error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if current, busy := r.owners[device]; busy {
		return nil, fmt.Errorf("device %d owned by %s: %w", device, current, ErrDeviceBusy)
	}
	r.owners[device] = owner

	var once sync.Once
	release := func() {
		once.Do(func() {
			r.mu.Lock()
			delete(r.owners, device)
			r.mu.Unlock()
		})
	}
	return release, nil
}

// Owner returns the current owner of device, if any.
func (r *DeviceRegistry) Owner(device int) (string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	owner, ok := r.owners[device]
	return owner, ok
}

// InUse lists the owned device indexes in ascending order.
func (r *DeviceRegistry) InUse() []int {
	r.mu.Lock()
	defer r.mu.Unlock()

	devices := make([]int, 0, len(r.owners))
	for d := range r.owners {
		devices = append(devices, d)
	}
	sort.Ints(devices)
	return devices
}
