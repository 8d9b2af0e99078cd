package autocan

// Node type codes and broadcast message types, per the AutoCAN bus
// layout. EveryType/EveryIndex address every node on the bus at once
// and are used in outgoing frames: the pacemaker's queries and the
// unlock frame of a control reply.
const (
	EveryType  uint8 = 0x3F
	EveryIndex uint8 = 0x0F

	VCU uint8 = 0x10
	ECU uint8 = 0x11
	TCU uint8 = 0x12
)

// Broadcast message types, dispatched before node_type is consulted.
const (
	State uint8 = 0x80
	Stop  uint8 = 0xFF
)

// Per-node message types.
const (
	VCUBatteryPercent uint8 = 1
	VCUPowerSwitch    uint8 = 7

	ECUTargetSpeed     uint8 = 1
	ECUCurrentPosition uint8 = 6

	TCUTargetPosition  uint8 = 1
	TCUCurrentPosition uint8 = 3
)
