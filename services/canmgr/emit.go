// services/canmgr/emit.go
package canmgr

import (
	"strings"

	"canbridge-go/errcode"
	"canbridge-go/types"
	"canbridge-go/x/conv"
	"canbridge-go/x/strconvx"
)

// Received frames go to the host as one text line:
//
//	rcv <id-hex> <data-hex> e|E b|B f|F r|R f<index>
//
// Upper case marks extended id / bitrate switch / FD format / remote
// frame; f<index> is the matching filter, f-1 when the global action
// accepted the frame. AppendRx and ParseRx are the two halves of that
// contract; the host monitor parses what the firmware emits.

func flagChar(set bool, on, off byte) byte {
	if set {
		return on
	}
	return off
}

// AppendRx appends the emit line for f, including CRLF. No
// allocations beyond dst growth.
func AppendRx(dst []byte, f types.Frame) []byte {
	var tmp [20]byte

	dst = append(dst, "rcv "...)
	dst = append(dst, conv.U32HexShort(tmp[:8], f.ID)...)
	dst = append(dst, ' ')
	for i := 0; i < int(f.Len); i++ {
		dst = conv.AppendHexByte(dst, f.Data[i])
	}
	dst = append(dst, ' ',
		flagChar(f.Extended, 'E', 'e'), ' ',
		flagChar(f.BRS, 'B', 'b'), ' ',
		flagChar(f.FD, 'F', 'f'), ' ',
		flagChar(f.Remote, 'R', 'r'), ' ', 'f')
	dst = append(dst, conv.Itoa(tmp[:], int64(f.Filter))...)
	dst = append(dst, '\r', '\n')
	return dst
}

// ParseRx decodes one emit line back into a frame. Used by host-side
// tooling; tolerant of surrounding whitespace, strict about content.
func ParseRx(line string) (types.Frame, error) {
	var f types.Frame

	fields := strings.Fields(strings.TrimSpace(line))
	if len(fields) == 0 || fields[0] != "rcv" {
		return f, errcode.BadData
	}

	// A zero-length payload collapses the data column entirely.
	var flags []string
	switch len(fields) {
	case 7:
		flags = fields[2:]
	case 8:
		flags = fields[3:]
	default:
		return f, errcode.BadData
	}

	id, ok := conv.ParseU32Hex(fields[1])
	if !ok {
		return f, errcode.BadID
	}
	f.ID = id

	if len(fields) == 8 {
		hexdata := fields[2]
		if len(hexdata)%2 != 0 || len(hexdata)/2 > types.MaxFrameData {
			return f, errcode.BadLength
		}
		for i := 0; i < len(hexdata); i += 2 {
			v := conv.HexByte(hexdata[i], hexdata[i+1])
			if v < 0 {
				return f, errcode.BadData
			}
			f.Data[f.Len] = byte(v)
			f.Len++
		}
	}

	for i, spec := range []struct {
		on, off byte
		dst     *bool
	}{
		{'E', 'e', &f.Extended},
		{'B', 'b', &f.BRS},
		{'F', 'f', &f.FD},
		{'R', 'r', &f.Remote},
	} {
		s := flags[i]
		if len(s) != 1 || (s[0] != spec.on && s[0] != spec.off) {
			return f, errcode.BadData
		}
		*spec.dst = s[0] == spec.on
	}

	fi := flags[4]
	if len(fi) < 2 || fi[0] != 'f' {
		return f, errcode.BadData
	}
	n, err := strconvx.Atoi(fi[1:])
	if err != nil || n < -1 || n > 127 {
		return f, errcode.BadData
	}
	f.Filter = int8(n)

	if f.ID > f.MaxID() {
		return f, errcode.BadID
	}
	return f, nil
}

// appendStatus renders the status counters as one key=value line.
func appendStatus(dst []byte, st Status) []byte {
	var tmp [20]byte
	kv := func(dst []byte, key string, v uint32) []byte {
		dst = append(dst, key...)
		dst = append(dst, '=')
		dst = append(dst, conv.Utoa(tmp[:], uint64(v))...)
		dst = append(dst, ' ')
		return dst
	}
	dst = kv(dst, "lec", st.Lec)
	dst = kv(dst, "dlec", st.Dlec)
	dst = kv(dst, "err", st.ErrorPassive)
	dst = kv(dst, "warn", st.Warning)
	dst = kv(dst, "busoff", st.BusOff)
	dst = kv(dst, "pexc", st.ProtocolException)
	dst = append(dst, "tdc="...)
	dst = append(dst, conv.Utoa(tmp[:], uint64(st.TDC))...)
	dst = append(dst, '\r', '\n')
	return dst
}
