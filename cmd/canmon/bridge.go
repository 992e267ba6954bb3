package main

import (
	"encoding/hex"
	"encoding/json"

	"canbridge-go/services/canmgr"
	"canbridge-go/types"
	"canbridge-go/x/conv"
)

// frameDoc is the JSON shape republished to the broker for each
// received frame.
type frameDoc struct {
	ID       uint32 `json:"id"`
	Extended bool   `json:"extended"`
	FD       bool   `json:"fd"`
	BRS      bool   `json:"brs"`
	Remote   bool   `json:"remote"`
	Filter   int8   `json:"filter"`
	Data     string `json:"data"`
}

func docFor(f types.Frame) frameDoc {
	return frameDoc{
		ID:       f.ID,
		Extended: f.Extended,
		FD:       f.FD,
		BRS:      f.BRS,
		Remote:   f.Remote,
		Filter:   f.Filter,
		Data:     hex.EncodeToString(f.Data[:f.Len]),
	}
}

// encodeFrame turns one adapter "rcv" line into the MQTT payload and
// the frame it describes.
func encodeFrame(line string) ([]byte, types.Frame, error) {
	f, err := canmgr.ParseRx(line)
	if err != nil {
		return nil, types.Frame{}, err
	}
	raw, err := json.Marshal(docFor(f))
	return raw, f, err
}

// topicFor appends the frame id so subscribers can filter per node.
func topicFor(base string, f types.Frame) string {
	var buf [8]byte
	return base + "/" + string(conv.U32HexShort(buf[:], f.ID))
}
