package filesystem

import (
	"errors"
	"fmt"
)

// ErrNotFound is returned by selection operations when the target does not
// exist in the card-model tree. Callers are expected to treat it as a
// recoverable, per-command condition: the cursor is left unchanged.
var ErrNotFound = errors.New("not found in card model")

// FIDCurrentADF is the TS 102 221 alias identifier for the currently
// selected application's ADF.
const FIDCurrentADF = 0x7FFF

// channelState is the selection cursor of one logical channel.
type channelState struct {
	cursor *Node
	app    *Node // selected ADF, nil while no application is active
}

// RuntimeState tracks, per logical channel, which file is currently selected
// and which application is active. It owns the only mutable state of the
// tracer; command interpreters mutate it through the selection operations
// below, and every lookup is deterministic given the static profile tree plus
// the current cursors.
//
// RuntimeState is not safe for concurrent use. The trace loop applies
// exchanges strictly in arrival order from a single goroutine, which is also
// what keeps the reconstructed cursors in sync with the real card.
type RuntimeState struct {
	profile  *Profile
	channels map[uint8]*channelState
}

// NewRuntimeState seeds a runtime state from a static profile.
// All channel cursors start at the MF.
func NewRuntimeState(p *Profile) *RuntimeState {
	return &RuntimeState{
		profile:  p,
		channels: make(map[uint8]*channelState),
	}
}

// Profile returns the static tree this state was seeded with.
func (rs *RuntimeState) Profile() *Profile {
	return rs.profile
}

// channel returns the cursor of a logical channel, creating it at the MF on
// first use.
func (rs *RuntimeState) channel(ch uint8) *channelState {
	cs, ok := rs.channels[ch]
	if !ok {
		cs = &channelState{cursor: rs.profile.Root()}
		rs.channels[ch] = cs
	}
	return cs
}

// Reset collapses every channel's cursor back to the MF and clears all
// application contexts. Invoked on a card reset (power cycle / ATR).
func (rs *RuntimeState) Reset() {
	rs.channels = make(map[uint8]*channelState)
}

// ResetChannel collapses a single channel's cursor, used when a logical
// channel is closed via MANAGE CHANNEL.
func (rs *RuntimeState) ResetChannel(ch uint8) {
	delete(rs.channels, ch)
}

// CurrentNode returns the currently selected file of a channel.
func (rs *RuntimeState) CurrentNode(ch uint8) *Node {
	return rs.channel(ch).cursor
}

// CurrentApp returns the active application ADF of a channel, or nil.
func (rs *RuntimeState) CurrentApp(ch uint8) *Node {
	return rs.channel(ch).app
}

// PathString renders the current selection of a channel as a path.
func (rs *RuntimeState) PathString(ch uint8) string {
	return rs.channel(ch).cursor.Path()
}

// currentDirectory returns the DF context of the cursor: the cursor itself if
// it is a directory, otherwise its parent.
func (cs *channelState) currentDirectory() *Node {
	if cs.cursor.IsDirectory() {
		return cs.cursor
	}
	return cs.cursor.Parent()
}

// resolveFileID applies the TS 102 221 selectable-set rules relative to a
// directory: the MF is always reachable, 7FFF aliases the current ADF, and
// otherwise the identifier may name the current DF, its parent, a child of
// the current DF, or a sibling DF.
func (rs *RuntimeState) resolveFileID(cs *channelState, dir *Node, fid uint16) (*Node, error) {
	if fid == rs.profile.Root().FID {
		return rs.profile.Root(), nil
	}
	if fid == FIDCurrentADF {
		if cs.app == nil {
			return nil, fmt.Errorf("FID 7FFF with no application selected: %w", ErrNotFound)
		}
		return cs.app, nil
	}
	if dir.FID == fid {
		return dir, nil
	}
	if parent := dir.Parent(); parent.FID == fid {
		return parent, nil
	}
	if child, ok := dir.Child(fid); ok {
		return child, nil
	}
	// Sibling DFs are selectable by FID from anywhere below the same parent.
	if sibling, ok := dir.Parent().Child(fid); ok && sibling.IsDirectory() {
		return sibling, nil
	}
	return nil, fmt.Errorf("no file %04X reachable from %s: %w", fid, dir.Path(), ErrNotFound)
}

// SelectFileID moves the channel cursor to the file addressed by a 16-bit
// identifier. On failure the cursor is left unchanged.
func (rs *RuntimeState) SelectFileID(ch uint8, fid uint16) (*Node, error) {
	cs := rs.channel(ch)
	node, err := rs.resolveFileID(cs, cs.currentDirectory(), fid)
	if err != nil {
		return nil, err
	}
	cs.cursor = node
	return node, nil
}

// SelectParent moves the channel cursor to the parent of the current DF.
func (rs *RuntimeState) SelectParent(ch uint8) (*Node, error) {
	cs := rs.channel(ch)
	cs.cursor = cs.currentDirectory().Parent()
	return cs.cursor, nil
}

// SelectPath walks a sequence of file identifiers, starting from the MF or
// from the current DF. The whole path is resolved before the cursor moves, so
// a dangling path leaves the selection state untouched.
func (rs *RuntimeState) SelectPath(ch uint8, fids []uint16, fromMF bool) (*Node, error) {
	if len(fids) == 0 {
		return nil, fmt.Errorf("empty path: %w", ErrNotFound)
	}

	cs := rs.channel(ch)
	pos := cs.currentDirectory()
	if fromMF {
		pos = rs.profile.Root()
	}

	for i, fid := range fids {
		next, err := rs.resolveFileID(cs, pos, fid)
		if err != nil {
			return nil, err
		}
		if !next.IsDirectory() && i != len(fids)-1 {
			return nil, fmt.Errorf("EF %04X in the middle of a path: %w", fid, ErrNotFound)
		}
		pos = next
	}

	cs.cursor = pos
	return pos, nil
}

// SelectAID activates an application by (possibly partial) AID, moving the
// cursor to its ADF and recording it as the channel's application context.
func (rs *RuntimeState) SelectAID(ch uint8, aid []byte) (*Node, error) {
	adf, ok := rs.profile.ApplicationByAID(aid)
	if !ok {
		return nil, fmt.Errorf("no application with AID %X: %w", aid, ErrNotFound)
	}
	cs := rs.channel(ch)
	cs.cursor = adf
	cs.app = adf
	return adf, nil
}

// SelectBySFI moves the cursor to the EF addressed by a Short File Identifier
// under the current DF. SFI-referenced access makes that EF current per
// TS 102 221.
func (rs *RuntimeState) SelectBySFI(ch uint8, sfi byte) (*Node, error) {
	cs := rs.channel(ch)
	ef, ok := cs.currentDirectory().ChildBySFI(sfi)
	if !ok {
		return nil, fmt.Errorf("no EF with SFI %d under %s: %w", sfi, cs.currentDirectory().Path(), ErrNotFound)
	}
	cs.cursor = ef
	return ef, nil
}
