package iso7816

import (
	"fmt"
)

// APDU (Application Protocol Data Unit) structures and decodings according to ISO/IEC 7816-3 and 7816-4.
//
// COMMAND APDU (C-APDU):
// A command consists of a mandatory Header (4 bytes) and an optional Body.
//
// 1. Header:
//   - CLA (Class): Security, Chaining, Logical Channel.
//   - INS (Instruction): The specific command to execute.
//   - P1, P2 (Parameters): Command modifiers.
//
// 2. Body:
//   - Lc (Length Command): Number of bytes in the data field.
//   - Data: The command payload.
//   - Le (Length Expected): Maximum number of bytes expected in the response.
//
// ENCODING CASES (ISO 7816-3):
// - Case 1: No Data, No Response (Header only).
// - Case 2: No Data, Response Expected (Header + Le).
// - Case 3: Data Present, No Response (Header + Lc + Data).
// - Case 4: Data Present, Response Expected (Header + Lc + Data + Le).
//
// LENGTH MODES:
//   - Short Length: Lc/Le encoded on 1 byte (Max 255/256).
//   - Extended Length: Lc/Le encoded on multiple bytes (Max 65535/65536).
//     Extended mode is flagged by a leading 0x00 length byte.
//
// RESPONSE APDU (R-APDU):
// A response sent by the card consists of an optional Body and a mandatory Trailer.
//
// 1. Body (Data Field):
//   - Variable length sequence of bytes containing the response data.
//
// 2. Trailer (Status Word):
//   - SW1 (1 byte): Command processing status (High byte).
//   - SW2 (1 byte): Command processing qualification (Low byte).
//   - Example: 0x9000 indicates success.

// APDU Limits and Constants according to ISO 7816-3.
const (
	// HeaderLength is the size of the mandatory C-APDU header (CLA INS P1 P2).
	HeaderLength = 4

	// MaxShortLc is the maximum data length (Nc) encodable in Short Length mode (1 byte).
	MaxShortLc = 255

	// MaxShortLe is the maximum expected response length (Ne) encodable in Short Length mode.
	// In Short mode, 0x00 encodes 256.
	MaxShortLe = 256

	// MaxExtendedLc is the theoretical limit for Lc in Extended mode (16-bit unsigned).
	MaxExtendedLc = 65535

	// MaxExtendedLe is the maximum Ne encodable in Extended Length mode.
	// In Extended mode, 0x0000 encodes 65536.
	MaxExtendedLe = 65536
)

// CommandAPDU represents a command observed on the wire.
type CommandAPDU struct {
	Class       Class
	Instruction Instruction
	P1, P2      byte
	Data        []byte
	Ne          int // Expected response length (0 means none)
}

// ParseCommandAPDU decodes a raw C-APDU byte string into its structured form,
// handling the four ISO 7816-3 encoding cases in both short and extended mode.
// Unknown CLA/INS values do not fail the parse: classification of unrecognized
// commands is the decoder's job, not the wire layer's.
func ParseCommandAPDU(raw []byte) (*CommandAPDU, error) {
	if len(raw) < HeaderLength {
		return nil, fmt.Errorf("command too short: %d bytes, need at least %d", len(raw), HeaderLength)
	}

	cls, err := NewClass(raw[0])
	if err != nil {
		// Reserved CLA 0xFF still appears in broken captures; keep the raw value.
		cls = Class{Raw: raw[0], IsProprietary: true}
	}

	ins, err := NewInstruction(InsCode(raw[1]))
	if err != nil {
		// Reserved 6X/9X codes appear in broken captures too; keep the raw value.
		ins = Instruction{Raw: InsCode(raw[1])}
	}

	cmd := &CommandAPDU{
		Class:       cls,
		Instruction: ins,
		P1:          raw[2],
		P2:          raw[3],
	}

	body := raw[HeaderLength:]

	// Case 1: header only.
	if len(body) == 0 {
		return cmd, nil
	}

	// Case 2 Short: a single trailing byte is Le.
	if len(body) == 1 {
		cmd.Ne = int(body[0])
		if cmd.Ne == 0 {
			cmd.Ne = MaxShortLe
		}
		return cmd, nil
	}

	if body[0] != 0x00 {
		return parseShortBody(cmd, body)
	}
	return parseExtendedBody(cmd, body[1:])
}

// parseShortBody handles cases 3 and 4 in short length mode.
func parseShortBody(cmd *CommandAPDU, body []byte) (*CommandAPDU, error) {
	lc := int(body[0])
	rest := body[1:]

	if len(rest) < lc {
		return nil, fmt.Errorf("truncated command data: Lc=%d but only %d bytes follow", lc, len(rest))
	}

	cmd.Data = rest[:lc]
	rest = rest[lc:]

	switch len(rest) {
	case 0:
		// Case 3
	case 1:
		// Case 4
		cmd.Ne = int(rest[0])
		if cmd.Ne == 0 {
			cmd.Ne = MaxShortLe
		}
	default:
		return nil, fmt.Errorf("%d stray bytes after command body", len(rest))
	}
	return cmd, nil
}

// parseExtendedBody handles cases 2, 3 and 4 in extended length mode.
// The leading 0x00 marker has already been consumed.
func parseExtendedBody(cmd *CommandAPDU, body []byte) (*CommandAPDU, error) {
	if len(body) < 2 {
		return nil, fmt.Errorf("truncated extended length field")
	}

	first := int(body[0])<<8 | int(body[1])
	rest := body[2:]

	// Case 2 Extended: nothing follows the 2-byte field, it is Le.
	if len(rest) == 0 {
		cmd.Ne = first
		if cmd.Ne == 0 {
			cmd.Ne = MaxExtendedLe
		}
		return cmd, nil
	}

	// Cases 3/4 Extended: the field was Lc.
	if len(rest) < first {
		return nil, fmt.Errorf("truncated command data: Lc=%d but only %d bytes follow", first, len(rest))
	}
	cmd.Data = rest[:first]
	rest = rest[first:]

	switch len(rest) {
	case 0:
		// Case 3 Extended
	case 2:
		// Case 4 Extended
		cmd.Ne = int(rest[0])<<8 | int(rest[1])
		if cmd.Ne == 0 {
			cmd.Ne = MaxExtendedLe
		}
	default:
		return nil, fmt.Errorf("%d stray bytes after extended command body", len(rest))
	}
	return cmd, nil
}

// String returns a readable representation of the command meta-data.
func (c *CommandAPDU) String() string {
	return fmt.Sprintf("%s | P1: %02X, P2: %02X | Lc: %d | Le: %d",
		c.Instruction.Raw.String(), c.P1, c.P2, len(c.Data), c.Ne)
}

// ResponseAPDU represents the reply from the card (R-APDU).
type ResponseAPDU struct {
	Data   []byte
	Status StatusWord
}

// ParseResponseAPDU parses raw bytes received from the card into a ResponseAPDU.
// The input must contain at least 2 bytes (SW1, SW2).
func ParseResponseAPDU(raw []byte) (*ResponseAPDU, error) {
	if len(raw) < 2 {
		return nil, fmt.Errorf("response too short: length %d", len(raw))
	}

	indexSW1 := len(raw) - 2
	data := raw[:indexSW1]
	sw1 := raw[indexSW1]
	sw2 := raw[indexSW1+1]

	return &ResponseAPDU{
		Data:   data,
		Status: NewStatusWord(sw1, sw2),
	}, nil
}

// String returns a readable representation of the response.
func (r *ResponseAPDU) String() string {
	return fmt.Sprintf("Data (%d bytes) | Status: %s", len(r.Data), r.Status.Verbose())
}
