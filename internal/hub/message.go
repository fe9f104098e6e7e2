package hub

import "time"

// WSMessage is a message sent from server to client. Report bytes are the
// active output mode's wire encoding, base64 in JSON.
type WSMessage struct {
	Type        string `json:"type"` // "report", "player_selected"
	Seq         int64  `json:"seq"`
	Timestamp   int64  `json:"timestamp"` // Unix milliseconds
	Mode        string `json:"mode,omitempty"`
	PlayerIndex int    `json:"playerIndex,omitempty"`
	Report      []byte `json:"report,omitempty"`
}

// NewReportMessage wraps one wire report for a player.
func NewReportMessage(seq int64, mode string, playerIndex int, report []byte) *WSMessage {
	return &WSMessage{
		Type:        "report",
		Seq:         seq,
		Timestamp:   time.Now().UnixMilli(),
		Mode:        mode,
		PlayerIndex: playerIndex,
		Report:      report,
	}
}

// NewPlayerSelectedMessage confirms a player subscription change.
func NewPlayerSelectedMessage(playerIndex int) *WSMessage {
	return &WSMessage{
		Type:        "player_selected",
		Timestamp:   time.Now().UnixMilli(),
		PlayerIndex: playerIndex,
	}
}

// ClientMessage is a message sent from the client to the server.
type ClientMessage struct {
	Type        string `json:"type"` // "select_player", "output_report", "set_mode", "set_profile"
	PlayerIndex int    `json:"playerIndex,omitempty"`
	Mode        string `json:"mode,omitempty"`
	Slot        int    `json:"slot,omitempty"`
	Profile     int    `json:"profile,omitempty"`
	Data        []byte `json:"data,omitempty"` // raw output report for "output_report"
}
