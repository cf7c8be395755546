package wire

import "github.com/ssargent/bitwire/pkg/codec"

// AlertPayload is the signed body of a network alert.
type AlertPayload struct {
	Version    int32    `json:"version"`
	RelayUntil uint64   `json:"relayUntil"`
	Expiration uint64   `json:"expiration"`
	ID         int32    `json:"id"`
	Cancel     int32    `json:"cancel"`
	CancelSet  []int32  `json:"cancelSet"`
	MinVer     int32    `json:"minVer"`
	MaxVer     int32    `json:"maxVer"`
	SubVerSet  []string `json:"subVerSet"`
	Priority   int32    `json:"priority"`
	Comment    string   `json:"comment"`
	StatusBar  string   `json:"statusBar"`
	Reserved   string   `json:"reserved"`
}

// AlertPayloadCodec decodes alert text strictly as 7-bit ASCII.
var AlertPayloadCodec = NewAlertPayloadCodec(codec.StrictASCII)

// NewAlertPayloadCodec builds the alert payload layout with text decoding
// the subVerSet, comment, statusBar and reserved strings.
func NewAlertPayloadCodec(text codec.TextMode) *codec.StructCodec[AlertPayload] {
	str := codec.VarStringCodec{Text: text}
	return codec.Struct(
		codec.Bind("version", codec.Int32LE, func(a *AlertPayload) *int32 { return &a.Version }),
		codec.Bind("relayUntil", codec.UInt64LE, func(a *AlertPayload) *uint64 { return &a.RelayUntil }),
		codec.Bind("expiration", codec.UInt64LE, func(a *AlertPayload) *uint64 { return &a.Expiration }),
		codec.Bind("id", codec.Int32LE, func(a *AlertPayload) *int32 { return &a.ID }),
		codec.Bind("cancel", codec.Int32LE, func(a *AlertPayload) *int32 { return &a.Cancel }),
		codec.Bind[AlertPayload, []int32]("cancelSet", codec.VarArray(codec.Int32LE), func(a *AlertPayload) *[]int32 { return &a.CancelSet }),
		codec.Bind("minVer", codec.Int32LE, func(a *AlertPayload) *int32 { return &a.MinVer }),
		codec.Bind("maxVer", codec.Int32LE, func(a *AlertPayload) *int32 { return &a.MaxVer }),
		codec.Bind[AlertPayload, []string]("subVerSet", codec.VarArray[string](str), func(a *AlertPayload) *[]string { return &a.SubVerSet }),
		codec.Bind("priority", codec.Int32LE, func(a *AlertPayload) *int32 { return &a.Priority }),
		codec.Bind[AlertPayload, string]("comment", str, func(a *AlertPayload) *string { return &a.Comment }),
		codec.Bind[AlertPayload, string]("statusBar", str, func(a *AlertPayload) *string { return &a.StatusBar }),
		codec.Bind[AlertPayload, string]("reserved", str, func(a *AlertPayload) *string { return &a.Reserved }),
	)
}

func (a AlertPayload) MarshalBinary() ([]byte, error) {
	return codec.Marshal[AlertPayload](AlertPayloadCodec, a)
}

func (a *AlertPayload) UnmarshalBinary(data []byte) error {
	v, err := codec.Unmarshal[AlertPayload](AlertPayloadCodec, data)
	if err != nil {
		return err
	}
	*a = v
	return nil
}

// Alert is the alert message envelope: the serialized payload and a
// signature over it. The signature is carried but never checked here.
type Alert struct {
	Payload   HexBytes `json:"payload"`
	Signature HexBytes `json:"signature"`
}

var AlertCodec = codec.Struct(
	codec.Bind("payload", codec.VarBuffer, func(a *Alert) *[]byte { return (*[]byte)(&a.Payload) }),
	codec.Bind("signature", codec.VarBuffer, func(a *Alert) *[]byte { return (*[]byte)(&a.Signature) }),
)

// NewAlert serializes p and pairs it with signature.
func NewAlert(p AlertPayload, signature []byte) (Alert, error) {
	payload, err := p.MarshalBinary()
	if err != nil {
		return Alert{}, err
	}
	return Alert{Payload: payload, Signature: signature}, nil
}

// DecodePayload parses the embedded payload.
func (a Alert) DecodePayload() (AlertPayload, error) {
	var p AlertPayload
	err := p.UnmarshalBinary(a.Payload)
	return p, err
}
