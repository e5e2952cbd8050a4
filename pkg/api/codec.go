// Package api defines the wire messages of the splitledger RPC services and
// the Connect handlers and clients that carry them.
//
// Messages are plain Go structs encoded as JSON. Amounts travel as decimal
// strings, e.g. "1500.00".
package api

import (
	"bytes"
	"encoding/json"
	"fmt"

	"connectrpc.com/connect"
)

// ValidationKindHeader names the error metadata key carrying the kind of a
// rejected expense, e.g. AMOUNT_MISMATCH.
const ValidationKindHeader = "Ledger-Validation-Kind"

// CodecName is the Connect codec name, selected by Content-Type application/json.
const CodecName = "json"

// JSONCodec is a connect.Codec for the plain structs in this package.
type JSONCodec struct{}

var _ connect.Codec = JSONCodec{}

func (JSONCodec) Name() string { return CodecName }

func (JSONCodec) Marshal(msg any) ([]byte, error) {
	return json.Marshal(msg)
}

// Unmarshal rejects unknown fields so typos in requests surface as errors.
func (JSONCodec) Unmarshal(data []byte, msg any) error {
	if len(data) == 0 {
		return nil
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(msg); err != nil {
		return fmt.Errorf("unmarshal %T: %w", msg, err)
	}
	return nil
}

func handlerOptions(opts []connect.HandlerOption) []connect.HandlerOption {
	return append([]connect.HandlerOption{connect.WithCodec(JSONCodec{})}, opts...)
}

func clientOptions(opts []connect.ClientOption) []connect.ClientOption {
	return append([]connect.ClientOption{connect.WithCodec(JSONCodec{})}, opts...)
}
