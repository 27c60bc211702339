package apdu

import (
	"testing"

	"github.com/gregLibert/sim-trace/pkg/iso7816"
)

func descriptor(name string) CommandDescriptor {
	return CommandDescriptor{
		Name: name,
		New:  func(b Base) Command { return &unknownCommand{Base: b} },
	}
}

func TestCommandKey_Matches(t *testing.T) {
	tests := []struct {
		name string
		key  CommandKey
		cla  byte
		ins  byte
		want bool
	}{
		{"Exact match", Key(0xA0, iso7816.INS_SELECT), 0xA0, 0xA4, true},
		{"Exact CLA mismatch", Key(0xA0, iso7816.INS_SELECT), 0x00, 0xA4, false},
		{"INS mismatch", Key(0xA0, iso7816.INS_SELECT), 0xA0, 0xB0, false},
		{"Masked: basic channel", MaskedKey(0x00, 0x80, iso7816.INS_SELECT), 0x00, 0xA4, true},
		{"Masked: channel 2", MaskedKey(0x00, 0x80, iso7816.INS_SELECT), 0x02, 0xA4, true},
		{"Masked: further interindustry", MaskedKey(0x00, 0x80, iso7816.INS_SELECT), 0x42, 0xA4, true},
		{"Masked: proprietary excluded", MaskedKey(0x00, 0x80, iso7816.INS_SELECT), 0xA0, 0xA4, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.key.Matches(tt.cla, tt.ins); got != tt.want {
				t.Errorf("Matches(%02X, %02X): got %v, want %v", tt.cla, tt.ins, got, tt.want)
			}
		})
	}
}

func TestRegistry_Lookup(t *testing.T) {
	r := NewRegistry()
	r.Register(Key(0xA0, iso7816.INS_SELECT), descriptor("SIM SELECT"))
	r.Register(MaskedKey(0x00, 0x80, iso7816.INS_SELECT), descriptor("UICC SELECT"))

	tests := []struct {
		name     string
		cla, ins byte
		wantName string
		wantHit  bool
	}{
		{"SIM class", 0xA0, 0xA4, "SIM SELECT", true},
		{"UICC basic channel", 0x00, 0xA4, "UICC SELECT", true},
		{"UICC channel 1", 0x01, 0xA4, "UICC SELECT", true},
		{"Unregistered INS", 0x00, 0xB0, "", false},
		{"Unregistered proprietary CLA", 0x80, 0xA4, "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			desc, ok := r.Lookup(tt.cla, tt.ins)
			if ok != tt.wantHit {
				t.Fatalf("Lookup hit: got %v, want %v", ok, tt.wantHit)
			}
			if ok && desc.Name != tt.wantName {
				t.Errorf("Name: got %q, want %q", desc.Name, tt.wantName)
			}
		})
	}
}

func TestRegistry_OverrideLast(t *testing.T) {
	r := NewRegistry()
	r.Register(Key(0x00, iso7816.INS_AUTHENTICATE), descriptor("GENERIC"))
	r.Register(Key(0x00, iso7816.INS_AUTHENTICATE), descriptor("REFINED"))

	desc, ok := r.Lookup(0x00, 0x88)
	if !ok {
		t.Fatal("Lookup missed a registered key")
	}
	if desc.Name != "REFINED" {
		t.Errorf("Expected the later registration to win, got %q", desc.Name)
	}

	// Both entries remain in the table.
	if r.Len() != 2 {
		t.Errorf("Len: got %d, want 2", r.Len())
	}
}

func TestRegistry_MergePrecedence(t *testing.T) {
	older := NewRegistry()
	older.Register(Key(0x00, iso7816.INS_AUTHENTICATE), descriptor("OLD"))
	older.Register(Key(0x00, iso7816.INS_STATUS), descriptor("STATUS"))

	newer := NewRegistry()
	newer.Register(Key(0x00, iso7816.INS_AUTHENTICATE), descriptor("NEW"))

	merged := older.Merge(newer)

	if desc, _ := merged.Lookup(0x00, 0x88); desc.Name != "NEW" {
		t.Errorf("Merged set must win on collision, got %q", desc.Name)
	}
	if desc, _ := merged.Lookup(0x00, 0xF2); desc.Name != "STATUS" {
		t.Errorf("Non-colliding entry lost in merge, got %q", desc.Name)
	}
}
