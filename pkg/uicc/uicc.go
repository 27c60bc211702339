/*
Package uicc implements the command interpreters for the telecom card command
sets a SIM trace contains:

  - the classic GSM SIM set of 3GPP TS 51.011 (proprietary class 0xA0);
  - the UICC set of ETSI TS 102 221 (interindustry classes, logical channels);
  - the USIM additions of 3GPP TS 31.102 (UMTS authentication).

Each set is exposed as a registry builder. The sets overlap heavily (SELECT,
STATUS, the binary and record commands exist in all of them), which is exactly
what the registry's override-last merge is for: assembling

	DefaultCommands() == SimCommands() + UiccCommands() + UsimCommands()

lets a later set refine the interpretation of an instruction the earlier set
also claims, the same way a multi-generation card answers with the newest
semantics it supports.
*/
package uicc

import (
	"github.com/gregLibert/sim-trace/pkg/apdu"
	"github.com/gregLibert/sim-trace/pkg/iso7816"
)

// claSIM is the proprietary class byte of the TS 51.011 command set.
const claSIM = 0xA0

// uiccKey matches any interindustry class byte (bit 8 clear), so one entry
// covers all logical channels and secure-messaging variants of TS 102 221.
func uiccKey(ins iso7816.InsCode) apdu.CommandKey {
	return apdu.MaskedKey(0x00, 0x80, ins)
}

// telecomKey matches the TS 102 221 proprietary class '80' to '83' (bits 2-1
// carry the logical channel), used by STATUS, the toolkit commands, INCREASE
// and SUSPEND UICC.
func telecomKey(ins iso7816.InsCode) apdu.CommandKey {
	return apdu.MaskedKey(0x80, 0xFC, ins)
}

// SimCommands builds the registry of the classic GSM SIM command set.
func SimCommands() *apdu.Registry {
	r := apdu.NewRegistry()
	reg := func(ins iso7816.InsCode, name string, ctor func(apdu.Base) apdu.Command) {
		r.Register(apdu.Key(claSIM, ins), apdu.CommandDescriptor{Name: name, New: ctor})
	}

	reg(iso7816.INS_SELECT, "SELECT FILE", newSelect)
	reg(iso7816.INS_STATUS, "STATUS", newStatus)
	reg(iso7816.INS_READ_BINARY, "READ BINARY", newReadBinary)
	reg(iso7816.INS_UPDATE_BINARY, "UPDATE BINARY", newUpdateBinary)
	reg(iso7816.INS_READ_RECORD, "READ RECORD", newReadRecord)
	reg(iso7816.INS_UPDATE_RECORD, "UPDATE RECORD", newUpdateRecord)
	reg(iso7816.INS_SEARCH_RECORD, "SEEK", newSearchRecord)
	reg(iso7816.INS_INCREASE, "INCREASE", newIncrease)
	reg(iso7816.INS_VERIFY, "VERIFY CHV", newVerify)
	reg(iso7816.INS_CHANGE_REFERENCE_DATA, "CHANGE CHV", newPinManagement)
	reg(iso7816.INS_DISABLE_VERIF_REQ, "DISABLE CHV", newPinManagement)
	reg(iso7816.INS_ENABLE_VERIF_REQ, "ENABLE CHV", newPinManagement)
	reg(iso7816.INS_RESET_RETRY_COUNTER, "UNBLOCK CHV", newPinManagement)
	reg(iso7816.INS_DEACTIVATE_FILE, "INVALIDATE", newFileLifecycle)
	reg(iso7816.INS_ACTIVATE_FILE, "REHABILITATE", newFileLifecycle)
	reg(iso7816.INS_AUTHENTICATE, "RUN GSM ALGORITHM", newRunGSMAlgorithm)
	reg(iso7816.INS_GET_RESPONSE, "GET RESPONSE", newGetResponse)
	reg(iso7816.INS_SLEEP, "SLEEP", newSleep)
	reg(iso7816.INS_TERMINAL_PROFILE, "TERMINAL PROFILE", newTerminalProfile)
	reg(iso7816.INS_FETCH, "FETCH", newFetch)
	reg(iso7816.INS_TERMINAL_RESPONSE, "TERMINAL RESPONSE", newTerminalResponse)
	reg(iso7816.INS_ENVELOPE, "ENVELOPE", newEnvelope)
	return r
}

// UiccCommands builds the registry of the TS 102 221 UICC command set.
func UiccCommands() *apdu.Registry {
	r := apdu.NewRegistry()
	reg := func(ins iso7816.InsCode, name string, ctor func(apdu.Base) apdu.Command) {
		r.Register(uiccKey(ins), apdu.CommandDescriptor{Name: name, New: ctor})
	}

	reg(iso7816.INS_SELECT, "SELECT FILE", newSelect)
	reg(iso7816.INS_STATUS, "STATUS", newStatus)
	reg(iso7816.INS_READ_BINARY, "READ BINARY", newReadBinary)
	reg(iso7816.INS_UPDATE_BINARY, "UPDATE BINARY", newUpdateBinary)
	reg(iso7816.INS_READ_RECORD, "READ RECORD", newReadRecord)
	reg(iso7816.INS_UPDATE_RECORD, "UPDATE RECORD", newUpdateRecord)
	reg(iso7816.INS_SEARCH_RECORD, "SEARCH RECORD", newSearchRecord)
	reg(iso7816.INS_INCREASE, "INCREASE", newIncrease)
	reg(iso7816.INS_VERIFY, "VERIFY PIN", newVerify)
	reg(iso7816.INS_CHANGE_REFERENCE_DATA, "CHANGE PIN", newPinManagement)
	reg(iso7816.INS_DISABLE_VERIF_REQ, "DISABLE PIN", newPinManagement)
	reg(iso7816.INS_ENABLE_VERIF_REQ, "ENABLE PIN", newPinManagement)
	reg(iso7816.INS_RESET_RETRY_COUNTER, "UNBLOCK PIN", newPinManagement)
	reg(iso7816.INS_DEACTIVATE_FILE, "DEACTIVATE FILE", newFileLifecycle)
	reg(iso7816.INS_ACTIVATE_FILE, "ACTIVATE FILE", newFileLifecycle)
	reg(iso7816.INS_AUTHENTICATE, "AUTHENTICATE", newAuthenticate)
	reg(iso7816.INS_MANAGE_CHANNEL, "MANAGE CHANNEL", newManageChannel)
	reg(iso7816.INS_GET_CHALLENGE, "GET CHALLENGE", newGetChallenge)
	reg(iso7816.INS_GET_RESPONSE, "GET RESPONSE", newGetResponse)
	reg(iso7816.INS_TERMINAL_CAPABILITY, "TERMINAL CAPABILITY", newTerminalProfile)

	// TS 102 221 runs these on the proprietary class '8X', not on an
	// interindustry one.
	tel := func(ins iso7816.InsCode, name string, ctor func(apdu.Base) apdu.Command) {
		r.Register(telecomKey(ins), apdu.CommandDescriptor{Name: name, New: ctor})
	}
	tel(iso7816.INS_STATUS, "STATUS", newStatus)
	tel(iso7816.INS_INCREASE, "INCREASE", newIncrease)
	tel(iso7816.INS_GET_RESPONSE, "GET RESPONSE", newGetResponse)
	tel(iso7816.INS_SUSPEND_UICC, "SUSPEND UICC", newSuspend)
	tel(iso7816.INS_TERMINAL_PROFILE, "TERMINAL PROFILE", newTerminalProfile)
	tel(iso7816.INS_FETCH, "FETCH", newFetch)
	tel(iso7816.INS_TERMINAL_RESPONSE, "TERMINAL RESPONSE", newTerminalResponse)
	tel(iso7816.INS_ENVELOPE, "ENVELOPE", newEnvelope)
	return r
}

// UsimCommands builds the USIM refinements of TS 31.102. The AUTHENTICATE
// entries override the generic UICC one via the registry's later-wins merge,
// adding UMTS/GSM-context decoding of the command data.
func UsimCommands() *apdu.Registry {
	r := apdu.NewRegistry()
	r.Register(uiccKey(iso7816.INS_AUTHENTICATE),
		apdu.CommandDescriptor{Name: "AUTHENTICATE", New: newUsimAuthenticate})
	r.Register(uiccKey(iso7816.INS_AUTHENTICATE_EVEN),
		apdu.CommandDescriptor{Name: "AUTHENTICATE", New: newUsimAuthenticate})
	return r
}

// DefaultCommands assembles the full command table in the order the sets
// were standardized, so newer sets override older ones on collision.
func DefaultCommands() *apdu.Registry {
	return SimCommands().Merge(UiccCommands()).Merge(UsimCommands())
}
