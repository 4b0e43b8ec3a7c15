package device

// EventKind tags the variant carried by a DeviceEvent. Spec.md §3 models
// the event as a tagged union rather than an opaque code, so that the
// notification manager can both resolve an IRQ number and derive a
// deterministic poll-flag bit from the same value.
type EventKind uint8

const (
	// EventIrqPrimary resolves to NotificationConfig.PrimaryIrq.
	EventIrqPrimary EventKind = iota
	// EventIrqAdditional resolves to NotificationConfig.AdditionalIrqs[Additional].
	EventIrqAdditional
	EventDataReady
	EventSpaceAvailable
	EventConfigChanged
	// EventCustom carries an arbitrary device-defined payload in Custom.
	EventCustom
)

// DeviceEvent is what a backend hands to a Notifier.Notify call. Id is
// filled in by the notifier handle; Kind (plus Additional/Custom where
// relevant) is supplied by the backend via the constructors below.
type DeviceEvent struct {
	Id         Id
	Kind       EventKind
	Additional uint8  // index, meaningful only when Kind == EventIrqAdditional
	Custom     uint16 // payload, meaningful only when Kind == EventCustom
}

func IrqPrimary(id Id) DeviceEvent { return DeviceEvent{Id: id, Kind: EventIrqPrimary} }

func IrqAdditional(id Id, index uint8) DeviceEvent {
	return DeviceEvent{Id: id, Kind: EventIrqAdditional, Additional: index}
}

func DataReady(id Id) DeviceEvent { return DeviceEvent{Id: id, Kind: EventDataReady} }

func SpaceAvailable(id Id) DeviceEvent { return DeviceEvent{Id: id, Kind: EventSpaceAvailable} }

func ConfigChanged(id Id) DeviceEvent { return DeviceEvent{Id: id, Kind: EventConfigChanged} }

func Custom(id Id, code uint16) DeviceEvent {
	return DeviceEvent{Id: id, Kind: EventCustom, Custom: code}
}

// Poll-flag bit assignment, deterministic per variant (spec.md §3:
// "DataReady=bit0, SpaceAvailable=bit1"). Additional IRQ indices and
// custom codes are folded into the remaining bits of the u32 so every
// variant still raises something observable under NotifyPoll.
const (
	pollBitDataReady      = 1 << 0
	pollBitSpaceAvailable = 1 << 1
	pollBitConfigChanged  = 1 << 2
	pollBitIrqPrimary     = 1 << 3
	pollBitIrqAdditional0 = 4 // Additional(i) -> bit 4+i, capped at bit 31
)

// PollBit derives the poll-flag bitmask this event sets under NotifyPoll
// delivery.
func (e DeviceEvent) PollBit() uint32 {
	switch e.Kind {
	case EventDataReady:
		return pollBitDataReady
	case EventSpaceAvailable:
		return pollBitSpaceAvailable
	case EventConfigChanged:
		return pollBitConfigChanged
	case EventIrqPrimary:
		return pollBitIrqPrimary
	case EventIrqAdditional:
		shift := pollBitIrqAdditional0 + uint(e.Additional)
		if shift > 31 {
			shift = 31
		}
		return 1 << shift
	case EventCustom:
		return 1 << (uint(e.Custom) % 32)
	default:
		return 0
	}
}

// NotifyMethod selects how a pending notification reaches a vCPU.
type NotifyMethod uint8

const (
	// NotifyInterrupt delivers through the transactional per-vCPU priority
	// queue (confirm/rollback semantics, spec.md §4.4).
	NotifyInterrupt NotifyMethod = iota
	// NotifyPoll sets a flag in the poll-flag table for a vCPU to observe
	// on its next poll, with no queue entry.
	NotifyPoll
	// NotifyEvent pushes onto a per-vCPU FIFO event queue for batch
	// processing, bypassing priority ordering entirely.
	NotifyEvent
	// NotifyCallback invokes a synchronous callback at Inject time; used
	// by passthrough-style devices that already own their own delivery.
	NotifyCallback
)

// TriggerMode mirrors the architectural edge/level distinction; this core
// does not implement level-triggered deassert (spec.md §9 open question),
// it only records the mode for informational purposes.
type TriggerMode uint8

const (
	TriggerEdge TriggerMode = iota
	TriggerLevel
)

// CpuAffinity selects which vCPU queue(s) an injected notification targets.
type CpuAffinity uint8

const (
	// CpuAffinityFixed targets a single, statically configured vCPU.
	CpuAffinityFixed CpuAffinity = iota
	// CpuAffinityRoundRobin rotates across all vCPUs on each Inject call.
	CpuAffinityRoundRobin
	// CpuAffinityLoadBalance targets whichever vCPU queue currently holds
	// the fewest pending entries.
	CpuAffinityLoadBalance
	// CpuAffinityBroadcast fans out to every vCPU queue on each Inject
	// call; this core always honors broadcast unconditionally (no
	// rejection path — see SPEC_FULL.md §5).
	CpuAffinityBroadcast
)

// NotificationConfig is what a backend registers once, at device-add time,
// to describe how its notifications should be routed and delivered.
type NotificationConfig struct {
	Method  NotifyMethod
	Trigger TriggerMode

	// PrimaryIrq backs every variant except Irq(Additional); nil means
	// "no primary IRQ configured" and resolving one fails InvalidInput.
	PrimaryIrq     *uint32
	AdditionalIrqs []uint32

	Affinity CpuAffinity
	FixedCpu int // meaningful only when Affinity == CpuAffinityFixed

	Priority uint8 // 0..=255, higher pops first
	Coalesce bool
}
