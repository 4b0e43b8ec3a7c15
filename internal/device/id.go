package device

import "fmt"

// Id is a 64-bit opaque device handle, monotonically assigned from a
// per-registry counter starting at 1.
type Id uint64

func (id Id) String() string {
	return fmt.Sprintf("dev#%d", uint64(id))
}

// PassthroughBase is the start of the reserved id range used to encode
// passthrough (non-emulated) interrupt sources as synthetic device ids,
// so that a passthrough injection carries an id without colliding with
// the monotonic emulated-device id space.
const PassthroughBase Id = 1 << 28

// PassthroughId encodes a passthrough IRQ number as a synthetic device id.
func PassthroughId(irq uint32) Id {
	return PassthroughBase + Id(irq)
}

// IsPassthrough reports whether id was produced by PassthroughId.
func (id Id) IsPassthrough() bool {
	return id >= PassthroughBase
}
