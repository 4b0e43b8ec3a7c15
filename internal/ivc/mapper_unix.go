//go:build unix

package ivc

import (
	"fmt"
	"sync"

	"golang.org/x/sys/unix"
)

// unixMapper backs each IVC channel range with an anonymous shared mmap.
// It keeps the mmap'd slice around keyed by addr so Unmap can release it;
// the mapping itself is not exposed to callers.
type unixMapper struct {
	mu   sync.Mutex
	live map[uint64][]byte
}

func defaultMapper() Mapper {
	return &unixMapper{live: make(map[uint64][]byte)}
}

func (m *unixMapper) Map(addr, size uint64) error {
	data, err := unix.Mmap(-1, 0, int(size), unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED|unix.MAP_ANONYMOUS)
	if err != nil {
		return fmt.Errorf("mmap %d bytes: %w", size, err)
	}

	m.mu.Lock()
	m.live[addr] = data
	m.mu.Unlock()
	return nil
}

func (m *unixMapper) Unmap(addr, size uint64) error {
	m.mu.Lock()
	data, ok := m.live[addr]
	delete(m.live, addr)
	m.mu.Unlock()

	if !ok {
		return nil
	}
	if err := unix.Munmap(data); err != nil {
		return fmt.Errorf("munmap 0x%x: %w", addr, err)
	}
	return nil
}
