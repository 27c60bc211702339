package iso7816

import (
	"fmt"

	"github.com/gregLibert/sim-trace/pkg/bits"
)

// Instruction Byte (INS) Logic according to ISO/IEC 7816-4.
//
// The INS byte identifies the specific command to be performed by the card.
//
// 1. Data Encoding (Bit 1):
//    When using the interindustry class, the least significant bit (Bit 1) often indicates
//    the format of the data field.
//    - 0: Standard or no specific formatting.
//    - 1: BER-TLV encoded data structure.
//    Example: READ BINARY (0xB0) vs READ BINARY (BER-TLV) (0xB1).
//
// 2. Reserved Ranges:
//    INS values where the upper nibble is '6' or '9' (0x6X or 0x9X) are invalid.
//    These values are reserved for Status Words (SW1) or transport layer control
//    procedures (ISO/IEC 7816-3).

// InsCode is a typed representation of the instruction byte.
type InsCode byte

// Standard Instruction (INS) codes as defined in ISO/IEC 7816-4, plus the
// telecom-specific codes of ETSI TS 102 221 and 3GPP TS 51.011 that a SIM
// trace is expected to contain.
const (
	INS_DEACTIVATE_FILE              InsCode = 0x04
	INS_ERASE_RECORD                 InsCode = 0x0C
	INS_ERASE_BINARY                 InsCode = 0x0E
	INS_TERMINAL_PROFILE             InsCode = 0x10
	INS_FETCH                        InsCode = 0x12
	INS_TERMINAL_RESPONSE            InsCode = 0x14
	INS_VERIFY                       InsCode = 0x20
	INS_MANAGE_SECURITY_ENVIRONMENT  InsCode = 0x22
	INS_CHANGE_REFERENCE_DATA        InsCode = 0x24
	INS_DISABLE_VERIF_REQ            InsCode = 0x26
	INS_ENABLE_VERIF_REQ             InsCode = 0x28
	INS_PERFORM_SECURITY_OPERATION   InsCode = 0x2A
	INS_RESET_RETRY_COUNTER          InsCode = 0x2C
	INS_INCREASE                     InsCode = 0x32
	INS_ACTIVATE_FILE                InsCode = 0x44
	INS_GENERATE_ASYMMETRIC_KEY_PAIR InsCode = 0x46
	INS_MANAGE_CHANNEL               InsCode = 0x70
	INS_MANAGE_SECURE_CHANNEL        InsCode = 0x73
	INS_TRANSACT_DATA                InsCode = 0x75
	INS_SUSPEND_UICC                 InsCode = 0x76
	INS_EXTERNAL_AUTHENTICATE        InsCode = 0x82
	INS_GET_CHALLENGE                InsCode = 0x84
	INS_GENERAL_AUTHENTICATE         InsCode = 0x86
	INS_AUTHENTICATE                 InsCode = 0x88
	INS_AUTHENTICATE_EVEN            InsCode = 0x89
	INS_SEARCH_RECORD                InsCode = 0xA2
	INS_SELECT                       InsCode = 0xA4
	INS_TERMINAL_CAPABILITY          InsCode = 0xAA
	INS_READ_BINARY                  InsCode = 0xB0
	INS_READ_RECORD                  InsCode = 0xB2
	INS_GET_RESPONSE                 InsCode = 0xC0
	INS_ENVELOPE                     InsCode = 0xC2
	INS_GET_DATA                     InsCode = 0xCA
	INS_WRITE_BINARY                 InsCode = 0xD0
	INS_WRITE_RECORD                 InsCode = 0xD2
	INS_UPDATE_BINARY                InsCode = 0xD6
	INS_PUT_DATA                     InsCode = 0xDA
	INS_UPDATE_RECORD                InsCode = 0xDC
	INS_APPEND_RECORD                InsCode = 0xE2
	INS_DELETE_FILE                  InsCode = 0xE4
	INS_TERMINATE_DF                 InsCode = 0xE6
	INS_TERMINATE_EF                 InsCode = 0xE8
	INS_STATUS                       InsCode = 0xF2
	INS_SLEEP                        InsCode = 0xFA
	INS_TERMINATE_CARD_USAGE         InsCode = 0xFE
)

var insNames = map[InsCode]string{
	INS_DEACTIVATE_FILE:              "DEACTIVATE FILE",
	INS_ERASE_RECORD:                 "ERASE RECORD",
	INS_ERASE_BINARY:                 "ERASE BINARY",
	INS_TERMINAL_PROFILE:             "TERMINAL PROFILE",
	INS_FETCH:                        "FETCH",
	INS_TERMINAL_RESPONSE:            "TERMINAL RESPONSE",
	INS_VERIFY:                       "VERIFY",
	INS_MANAGE_SECURITY_ENVIRONMENT:  "MANAGE SECURITY ENVIRONMENT",
	INS_CHANGE_REFERENCE_DATA:        "CHANGE REFERENCE DATA",
	INS_DISABLE_VERIF_REQ:            "DISABLE VERIFICATION REQ",
	INS_ENABLE_VERIF_REQ:             "ENABLE VERIFICATION REQ",
	INS_PERFORM_SECURITY_OPERATION:   "PERFORM SECURITY OPERATION",
	INS_RESET_RETRY_COUNTER:          "RESET RETRY COUNTER",
	INS_INCREASE:                     "INCREASE",
	INS_ACTIVATE_FILE:                "ACTIVATE FILE",
	INS_GENERATE_ASYMMETRIC_KEY_PAIR: "GENERATE ASYMMETRIC KEY PAIR",
	INS_MANAGE_CHANNEL:               "MANAGE CHANNEL",
	INS_MANAGE_SECURE_CHANNEL:        "MANAGE SECURE CHANNEL",
	INS_TRANSACT_DATA:                "TRANSACT DATA",
	INS_SUSPEND_UICC:                 "SUSPEND UICC",
	INS_EXTERNAL_AUTHENTICATE:        "EXTERNAL AUTHENTICATE",
	INS_GET_CHALLENGE:                "GET CHALLENGE",
	INS_GENERAL_AUTHENTICATE:         "GENERAL AUTHENTICATE",
	INS_AUTHENTICATE:                 "AUTHENTICATE",
	INS_AUTHENTICATE_EVEN:            "AUTHENTICATE",
	INS_SEARCH_RECORD:                "SEARCH RECORD",
	INS_SELECT:                       "SELECT",
	INS_TERMINAL_CAPABILITY:          "TERMINAL CAPABILITY",
	INS_READ_BINARY:                  "READ BINARY",
	INS_READ_RECORD:                  "READ RECORD",
	INS_GET_RESPONSE:                 "GET RESPONSE",
	INS_ENVELOPE:                     "ENVELOPE",
	INS_GET_DATA:                     "GET DATA",
	INS_WRITE_BINARY:                 "WRITE BINARY",
	INS_WRITE_RECORD:                 "WRITE RECORD",
	INS_UPDATE_BINARY:                "UPDATE BINARY",
	INS_PUT_DATA:                     "PUT DATA",
	INS_UPDATE_RECORD:                "UPDATE RECORD",
	INS_APPEND_RECORD:                "APPEND RECORD",
	INS_DELETE_FILE:                  "DELETE FILE",
	INS_TERMINATE_DF:                 "TERMINATE DF",
	INS_TERMINATE_EF:                 "TERMINATE EF",
	INS_STATUS:                       "STATUS",
	INS_SLEEP:                        "SLEEP",
	INS_TERMINATE_CARD_USAGE:         "TERMINATE CARD USAGE",
}

// String returns the standard name of the instruction, or a hex fallback for
// codes this package does not know about.
func (i InsCode) String() string {
	if name, ok := insNames[i]; ok {
		return name
	}
	return fmt.Sprintf("INS(0x%02X)", byte(i))
}

// Instruction represents the parsed ISO 7816-4 Instruction byte (INS).
type Instruction struct {
	Raw      InsCode
	IsBERTLV bool
}

// NewInstruction creates an Instruction object with validation.
// It rejects '6X' and '9X' values as they are invalid according to ISO 7816-3.
func NewInstruction(ins InsCode) (Instruction, error) {
	// Validation: values starting with '6' or '9' are invalid for INS.
	highNibble := byte(ins) & 0xF0
	if highNibble == 0x60 || highNibble == 0x90 {
		return Instruction{}, fmt.Errorf("invalid INS 0x%02X: 6X and 9X are reserved", ins)
	}

	return Instruction{
		Raw:      ins,
		IsBERTLV: bits.IsSet(byte(ins), 1), // Bit 1 indicates BER-TLV preference
	}, nil
}

// Verbose returns a human-readable description of the instruction.
func (i Instruction) Verbose() string {
	format := "Standard"
	if i.IsBERTLV {
		format = "BER-TLV"
	}
	return fmt.Sprintf("INS: 0x%02X | Command: %s | Format: %s", byte(i.Raw), i.Raw.String(), format)
}
