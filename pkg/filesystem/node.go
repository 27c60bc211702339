/*
Package filesystem models the hierarchical file system of a SIM/UICC card and
the runtime selection state a trace decoder reconstructs from observed traffic.

# Card file system

ISO 7816-4 and ETSI TS 102 221 organize card storage as a tree:

  - MF (Master File, FID 3F00): the root directory.
  - DF (Dedicated File): a directory below the MF or another DF.
  - EF (Elementary File): a leaf holding data, transparent or record oriented.
  - ADF (Application Dedicated File): the root directory of an application
    (e.g. the USIM), reachable only by selecting its AID, not by walking
    the MF tree. FID 7FFF is an alias for the currently selected ADF.

The tree handed to RuntimeState is a static description of the legal files of
a card profile; the tracer never mutates it, only the per-channel cursors
pointing into it.
*/
package filesystem

import (
	"bytes"
	"fmt"
	"strings"
)

// FileType classifies a node of the card file-system tree.
type FileType int

const (
	TypeMF FileType = iota
	TypeDF
	TypeADF
	TypeEF
)

func (t FileType) String() string {
	switch t {
	case TypeMF:
		return "MF"
	case TypeDF:
		return "DF"
	case TypeADF:
		return "ADF"
	case TypeEF:
		return "EF"
	default:
		return fmt.Sprintf("FileType(%d)", int(t))
	}
}

// Structure describes how an EF stores its data.
type Structure int

const (
	StructNone Structure = iota // directories
	StructTransparent
	StructLinearFixed
	StructCyclic
)

func (s Structure) String() string {
	switch s {
	case StructTransparent:
		return "transparent"
	case StructLinearFixed:
		return "linear fixed"
	case StructCyclic:
		return "cyclic"
	default:
		return "none"
	}
}

// Node is one file or directory of the static card-model tree.
// Every node except the MF (and detached ADFs) has exactly one parent.
type Node struct {
	FID       uint16 // 0x0000 if the file has no identifier
	Name      string // e.g. "EF.IMSI"
	Type      FileType
	Structure Structure
	SFI       byte   // Short File Identifier (1-30), 0 if none
	AID       []byte // ADF only: full application identifier

	parent   *Node
	children []*Node
}

// NewMF creates the Master File root node.
func NewMF() *Node {
	return &Node{FID: 0x3F00, Name: "MF", Type: TypeMF}
}

// NewDF creates a Dedicated File (directory) node.
func NewDF(fid uint16, name string) *Node {
	return &Node{FID: fid, Name: name, Type: TypeDF}
}

// NewADF creates an Application Dedicated File node, selectable by AID.
func NewADF(aid []byte, name string) *Node {
	return &Node{FID: 0x7FFF, Name: name, Type: TypeADF, AID: aid}
}

// NewEF creates an Elementary File node.
func NewEF(fid uint16, name string, structure Structure) *Node {
	return &Node{FID: fid, Name: name, Type: TypeEF, Structure: structure}
}

// WithSFI attaches a Short File Identifier and returns the node for chaining.
func (n *Node) WithSFI(sfi byte) *Node {
	n.SFI = sfi
	return n
}

// AddChild attaches child below n and returns n for chaining.
func (n *Node) AddChild(child *Node) *Node {
	child.parent = n
	n.children = append(n.children, child)
	return n
}

// Parent returns the containing directory. The MF is its own parent, which
// matches the TS 102 221 rule that selecting the parent of the MF stays at
// the MF.
func (n *Node) Parent() *Node {
	if n.parent == nil {
		return n
	}
	return n.parent
}

// Child looks up a direct child by file identifier.
func (n *Node) Child(fid uint16) (*Node, bool) {
	for _, c := range n.children {
		if c.FID == fid {
			return c, true
		}
	}
	return nil, false
}

// ChildBySFI looks up a direct child EF by Short File Identifier.
func (n *Node) ChildBySFI(sfi byte) (*Node, bool) {
	if sfi == 0 {
		return nil, false
	}
	for _, c := range n.children {
		if c.SFI == sfi {
			return c, true
		}
	}
	return nil, false
}

// Children returns the direct children in registration order.
func (n *Node) Children() []*Node {
	return n.children
}

// IsDirectory reports whether files can be selected below this node.
func (n *Node) IsDirectory() bool {
	return n.Type != TypeEF
}

// Path renders the location of the node as "MF/DF.TELECOM/EF.ADN".
func (n *Node) Path() string {
	var names []string
	for cur := n; ; cur = cur.parent {
		names = append(names, cur.Name)
		if cur.parent == nil {
			break
		}
	}
	// reverse
	for i, j := 0, len(names)-1; i < j; i, j = i+1, j-1 {
		names[i], names[j] = names[j], names[i]
	}
	return strings.Join(names, "/")
}

// MatchesAID reports whether a (possibly truncated) AID from a SELECT command
// addresses this application. TS 102 221 allows selection by partial AID: the
// given bytes must be a prefix of the registered AID.
func (n *Node) MatchesAID(aid []byte) bool {
	if n.Type != TypeADF || len(aid) == 0 {
		return false
	}
	return bytes.HasPrefix(n.AID, aid)
}

func (n *Node) String() string {
	if n.FID != 0 {
		return fmt.Sprintf("%s (%04X)", n.Name, n.FID)
	}
	return n.Name
}
