package apdu

import (
	"github.com/gregLibert/sim-trace/pkg/bits"
	"github.com/gregLibert/sim-trace/pkg/iso7816"
)

// CommandKey identifies a command type by its class and instruction bytes.
// The class comparison is masked: a command set that does not care about,
// say, the logical channel bits of the CLA registers a mask with those bits
// cleared, and the registry compares only the masked value.
type CommandKey struct {
	Cla     byte
	ClaMask byte
	Ins     iso7816.InsCode
}

// Key builds an exact-match key (full CLA mask).
func Key(cla byte, ins iso7816.InsCode) CommandKey {
	return CommandKey{Cla: cla, ClaMask: 0xFF, Ins: ins}
}

// MaskedKey builds a key whose class byte is compared under a mask.
func MaskedKey(cla, claMask byte, ins iso7816.InsCode) CommandKey {
	return CommandKey{Cla: cla, ClaMask: claMask, Ins: ins}
}

// Matches reports whether a captured (CLA, INS) pair falls under this key.
func (k CommandKey) Matches(cla, ins byte) bool {
	return ins == byte(k.Ins) && bits.MatchesMasked(cla, k.Cla, k.ClaMask)
}

// CommandDescriptor associates a key with a human-readable command name and a
// constructor for the matching interpreter. Immutable after registration.
type CommandDescriptor struct {
	Name string
	New  func(Base) Command
}

type registryEntry struct {
	key  CommandKey
	desc CommandDescriptor
}

// Registry is the ordered table mapping command keys to descriptors. It is
// built once at startup from the fixed command sets and then handed to the
// Decoder; nothing mutates it afterwards.
//
// Collisions are an explicit override policy, not an error: a lookup scans
// entries newest-first, so a descriptor registered (or merged in) later wins
// over an earlier one matching the same traffic.
type Registry struct {
	entries []registryEntry
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{}
}

// Register appends a descriptor for a key. Later registrations of the same
// key silently override earlier ones.
func (r *Registry) Register(key CommandKey, desc CommandDescriptor) {
	r.entries = append(r.entries, registryEntry{key: key, desc: desc})
}

// Merge appends all entries of other, which therefore take precedence over
// everything registered so far. It returns r so command sets can be chained:
//
//	reg := uicc.SimCommands().Merge(uicc.UiccCommands()).Merge(uicc.UsimCommands())
func (r *Registry) Merge(other *Registry) *Registry {
	r.entries = append(r.entries, other.entries...)
	return r
}

// Lookup resolves a captured (CLA, INS) pair to the descriptor registered
// last among all matching entries.
func (r *Registry) Lookup(cla, ins byte) (CommandDescriptor, bool) {
	for i := len(r.entries) - 1; i >= 0; i-- {
		if r.entries[i].key.Matches(cla, ins) {
			return r.entries[i].desc, true
		}
	}
	return CommandDescriptor{}, false
}

// Len returns the number of registered entries, overridden ones included.
func (r *Registry) Len() int {
	return len(r.entries)
}
