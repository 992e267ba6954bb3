package types

// ------------------------
// Serial
// ------------------------

type Parity uint8

const (
	ParityNone Parity = iota
	ParityEven
	ParityOdd
)

func (p Parity) String() string {
	switch p {
	case ParityEven:
		return "even"
	case ParityOdd:
		return "odd"
	default:
		return "none"
	}
}

func (p Parity) MarshalJSON() ([]byte, error) { return []byte(`"` + p.String() + `"`), nil }

// UARTSettings is the fixed bring-up configuration for the secondary
// UART transport.
type UARTSettings struct {
	Baud     uint32 `json:"baud"`
	DataBits uint8  `json:"data_bits"`
	StopBits uint8  `json:"stop_bits"`
	Parity   Parity `json:"parity"`
}

// BytePort is a non-blocking byte transport (USB CDC or a UART).
// Both methods must return promptly: Write queues into the driver's
// transmit path, TryRecv copies whatever is already pending and never
// waits for more. Implementations own their buffers and peripheral
// state exclusively.
type BytePort interface {
	Write(p []byte) (int, error)
	TryRecv(buf []byte) (int, error)
}
