package filesystem

import (
	"github.com/gregLibert/sim-trace/pkg/tlv"
)

// A Profile is the static description of the legal files and applications of
// a card, used to seed the RuntimeState at startup. It is read-only
// configuration: the trace loop never mutates it.
type Profile struct {
	Name string

	root *Node
	apps []*Node
}

// NewProfile creates a profile around an MF root.
func NewProfile(name string, root *Node) *Profile {
	return &Profile{Name: name, root: root}
}

// Root returns the MF node.
func (p *Profile) Root() *Node {
	return p.root
}

// AddApplication registers an ADF. The ADF is parented to the MF so path
// strings read "MF/ADF.USIM/...", even though on a real card ADFs sit outside
// the MF tree and are reachable only by AID.
func (p *Profile) AddApplication(adf *Node) {
	adf.parent = p.root
	p.apps = append(p.apps, adf)
}

// Applications returns the registered ADFs in registration order.
func (p *Profile) Applications() []*Node {
	return p.apps
}

// ApplicationByAID resolves a (possibly partial) AID to a registered ADF.
// The longest registered match wins when several AID prefixes overlap.
func (p *Profile) ApplicationByAID(aid []byte) (*Node, bool) {
	var best *Node
	for _, adf := range p.apps {
		if adf.MatchesAID(aid) {
			if best == nil || len(adf.AID) > len(best.AID) {
				best = adf
			}
		}
	}
	return best, best != nil
}

// DefaultUICCProfile builds the generic SIM + UICC file tree of ETSI
// TS 102 221 / 3GPP TS 51.011: the MF with its common EFs, the classic
// DF.TELECOM and DF.GSM directories, and the USIM and ISIM applications.
// It mirrors what a typical operator card exposes and is what the tracer
// assumes when no more specific profile is known.
func DefaultUICCProfile() *Profile {
	mf := NewMF()
	mf.AddChild(NewEF(0x2F00, "EF.DIR", StructLinearFixed).WithSFI(0x1E))
	mf.AddChild(NewEF(0x2F05, "EF.PL", StructTransparent).WithSFI(0x05))
	mf.AddChild(NewEF(0x2F06, "EF.ARR", StructLinearFixed).WithSFI(0x06))
	mf.AddChild(NewEF(0x2FE2, "EF.ICCID", StructTransparent).WithSFI(0x02))

	telecom := NewDF(0x7F10, "DF.TELECOM")
	telecom.AddChild(NewEF(0x6F3A, "EF.ADN", StructLinearFixed))
	telecom.AddChild(NewEF(0x6F3B, "EF.FDN", StructLinearFixed))
	telecom.AddChild(NewEF(0x6F3C, "EF.SMS", StructLinearFixed))
	telecom.AddChild(NewEF(0x6F40, "EF.MSISDN", StructLinearFixed))
	telecom.AddChild(NewEF(0x6F42, "EF.SMSP", StructLinearFixed))
	telecom.AddChild(NewEF(0x6F44, "EF.LND", StructCyclic))
	mf.AddChild(telecom)

	gsm := NewDF(0x7F20, "DF.GSM")
	gsm.AddChild(NewEF(0x6F05, "EF.LP", StructTransparent))
	gsm.AddChild(NewEF(0x6F07, "EF.IMSI", StructTransparent))
	gsm.AddChild(NewEF(0x6F20, "EF.Kc", StructTransparent))
	gsm.AddChild(NewEF(0x6F30, "EF.PLMNsel", StructTransparent))
	gsm.AddChild(NewEF(0x6F38, "EF.SST", StructTransparent))
	gsm.AddChild(NewEF(0x6F74, "EF.BCCH", StructTransparent))
	gsm.AddChild(NewEF(0x6F7E, "EF.LOCI", StructTransparent))
	gsm.AddChild(NewEF(0x6FAD, "EF.AD", StructTransparent))
	mf.AddChild(gsm)

	p := NewProfile("UICC+SIM", mf)
	p.AddApplication(NewUSIMApplication())
	p.AddApplication(NewISIMApplication())
	return p
}

// NewUSIMApplication builds the ADF.USIM subtree of 3GPP TS 31.102.
func NewUSIMApplication() *Node {
	adf := NewADF(tlv.Hex("A0 00 00 00 87 10 02"), "ADF.USIM")
	adf.AddChild(NewEF(0x6F05, "EF.LI", StructTransparent).WithSFI(0x02))
	adf.AddChild(NewEF(0x6F07, "EF.IMSI", StructTransparent).WithSFI(0x07))
	adf.AddChild(NewEF(0x6F08, "EF.Keys", StructTransparent).WithSFI(0x08))
	adf.AddChild(NewEF(0x6F09, "EF.KeysPS", StructTransparent).WithSFI(0x09))
	adf.AddChild(NewEF(0x6F31, "EF.HPPLMN", StructTransparent).WithSFI(0x12))
	adf.AddChild(NewEF(0x6F38, "EF.UST", StructTransparent).WithSFI(0x04))
	adf.AddChild(NewEF(0x6F3C, "EF.SMS", StructLinearFixed))
	adf.AddChild(NewEF(0x6F42, "EF.SMSP", StructLinearFixed))
	adf.AddChild(NewEF(0x6F5B, "EF.START-HFN", StructTransparent).WithSFI(0x0F))
	adf.AddChild(NewEF(0x6F5C, "EF.THRESHOLD", StructTransparent).WithSFI(0x10))
	adf.AddChild(NewEF(0x6F73, "EF.PSLOCI", StructTransparent).WithSFI(0x0C))
	adf.AddChild(NewEF(0x6F78, "EF.ACC", StructTransparent).WithSFI(0x06))
	adf.AddChild(NewEF(0x6F7B, "EF.FPLMN", StructTransparent).WithSFI(0x0D))
	adf.AddChild(NewEF(0x6F7E, "EF.LOCI", StructTransparent).WithSFI(0x0B))
	adf.AddChild(NewEF(0x6FAD, "EF.AD", StructTransparent).WithSFI(0x03))
	adf.AddChild(NewEF(0x6FB7, "EF.ECC", StructLinearFixed).WithSFI(0x01))
	adf.AddChild(NewEF(0x6FC4, "EF.NETPAR", StructTransparent))
	adf.AddChild(NewEF(0x6FE3, "EF.EPSLOCI", StructTransparent).WithSFI(0x1E))
	adf.AddChild(NewEF(0x6FE4, "EF.EPSNSC", StructLinearFixed).WithSFI(0x18))
	return adf
}

// NewISIMApplication builds the ADF.ISIM subtree of 3GPP TS 31.103.
func NewISIMApplication() *Node {
	adf := NewADF(tlv.Hex("A0 00 00 00 87 10 04"), "ADF.ISIM")
	adf.AddChild(NewEF(0x6F02, "EF.IMPI", StructTransparent).WithSFI(0x02))
	adf.AddChild(NewEF(0x6F03, "EF.DOMAIN", StructTransparent).WithSFI(0x05))
	adf.AddChild(NewEF(0x6F04, "EF.IMPU", StructLinearFixed).WithSFI(0x04))
	adf.AddChild(NewEF(0x6F07, "EF.IST", StructTransparent).WithSFI(0x07))
	adf.AddChild(NewEF(0x6F09, "EF.P-CSCF", StructLinearFixed))
	adf.AddChild(NewEF(0x6FAD, "EF.AD", StructTransparent).WithSFI(0x03))
	return adf
}
