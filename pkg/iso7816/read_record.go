package iso7816

import (
	"fmt"
)

// READ/UPDATE RECORD PARAMETERS (ISO 7816-4):
// The record commands (INS 'B2'/'DC') address one or more records of the
// current Elementary File (EF) or of a file named by its Short File Identifier.
//
// P1 (Record Number or ID):
// - If P2 indicates "Record number" (Bit 3 = 1), P1 is the record number (00 = current).
// - If P2 indicates "Record identifier" (Bit 3 = 0), P1 is the record identifier.
//
// P2 (Reference Control):
// - Bits 8-4: Short File Identifier (SFI). If 0, use Current EF.
// - Bit 3:    0=Reference by ID, 1=Reference by Number.
// - Bits 2-1: Occurrence/Mode (First, Last, Next, Prev, or All).

// RecordMode defines how to interpret P1 and which record(s) are addressed.
type RecordMode byte

const (
	// P1 is Record IDENTIFIER (Bit 3 = 0)
	RefByID_FirstOccurrence    RecordMode = 0b000
	RefByID_LastOccurrence     RecordMode = 0b001
	RefByID_NextOccurrence     RecordMode = 0b010
	RefByID_PreviousOccurrence RecordMode = 0b011

	// P1 is Record NUMBER (Bit 3 = 1)
	RefByNum_P1              RecordMode = 0b100
	RefByNum_AllFromP1       RecordMode = 0b101
	RefByNum_AllFromLastToP1 RecordMode = 0b110
)

func (m RecordMode) String() string {
	switch m {
	case RefByID_FirstOccurrence:
		return "Ref ID: First Occurrence"
	case RefByID_LastOccurrence:
		return "Ref ID: Last Occurrence"
	case RefByID_NextOccurrence:
		return "Ref ID: Next Occurrence"
	case RefByID_PreviousOccurrence:
		return "Ref ID: Previous Occurrence"
	case RefByNum_P1:
		return "Ref Num: Record P1"
	case RefByNum_AllFromP1:
		return "Ref Num: All from P1"
	case RefByNum_AllFromLastToP1:
		return "Ref Num: All from Last to P1"
	default:
		return fmt.Sprintf("Unknown Mode (0x%X)", byte(m))
	}
}

// RefersByNumber reports whether P1 holds a record number rather than an identifier.
func (m RecordMode) RefersByNumber() bool {
	return m&0b100 != 0
}

// DecodeRecordP2 splits a captured record-command P2 byte into SFI and mode.
// An SFI of 0 means the currently selected EF.
func DecodeRecordP2(p2 byte) (sfi byte, mode RecordMode) {
	return p2 >> 3, RecordMode(p2 & 0x07)
}
