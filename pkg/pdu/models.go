package pdu

// Outlet represents one switchable socket on the PDU. Outlets are
// reconstructed fresh on every status query and never cached.
type Outlet struct {
	Index int    `json:"index"`
	Name  string `json:"name"`
	On    bool   `json:"on"`
}

// State returns the outlet state as the device's on/off vocabulary.
func (o Outlet) State() string {
	if o.On {
		return "on"
	}
	return "off"
}

// relayOp is the op query parameter understood by the firmware.
// The encoding is inverted: "0" switches the relay ON, "1" OFF.
type relayOp string

const (
	relayOpOn  relayOp = "0"
	relayOpOff relayOp = "1"
)

func relayOpFor(on bool) relayOp {
	if on {
		return relayOpOn
	}
	return relayOpOff
}

// ToggleResult reports the outcome of a set-state operation.
type ToggleResult struct {
	Outlet  Outlet `json:"outlet"`
	Changed bool   `json:"changed"`
}
