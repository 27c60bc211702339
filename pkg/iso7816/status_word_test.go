package iso7816

import (
	"strings"
	"testing"
)

func TestStatusWord_Classification(t *testing.T) {
	tests := []struct {
		name        string
		sw          StatusWord
		wantSuccess bool
		wantWarning bool
		wantError   bool
	}{
		{"Normal ending", 0x9000, true, false, false},
		{"Response available", 0x6104, true, false, false},
		{"Proactive pending", 0x9162, true, false, false},
		{"File not found", 0x6A82, false, false, true},
		{"Record not found", 0x6A83, false, false, true},
		{"Counter warning", 0x63C2, false, true, false},
		{"EOF warning", 0x6282, false, true, false},
		{"Wrong length", 0x6700, false, false, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.sw.IsSuccess(); got != tt.wantSuccess {
				t.Errorf("IsSuccess: got %v, want %v", got, tt.wantSuccess)
			}
			if got := tt.sw.IsWarning(); got != tt.wantWarning {
				t.Errorf("IsWarning: got %v, want %v", got, tt.wantWarning)
			}
			if got := tt.sw.IsError(); got != tt.wantError {
				t.Errorf("IsError: got %v, want %v", got, tt.wantError)
			}
		})
	}
}

func TestStatusWord_IsProactivePending(t *testing.T) {
	if !StatusWord(0x9120).IsProactivePending() {
		t.Error("9120 should flag a pending proactive command")
	}
	if StatusWord(0x9000).IsProactivePending() {
		t.Error("9000 should not flag a pending proactive command")
	}
	if StatusWord(0x9120).SW2() != 0x20 {
		t.Errorf("SW2: got %02X, want 20", StatusWord(0x9120).SW2())
	}
}

func TestStatusWord_Hex(t *testing.T) {
	if got := StatusWord(0x9000).Hex(); got != "9000" {
		t.Errorf("Hex: got %q, want %q", got, "9000")
	}
	if got := StatusWord(0x6A82).Hex(); got != "6A82" {
		t.Errorf("Hex: got %q, want %q", got, "6A82")
	}
}

func TestStatusWord_Verbose(t *testing.T) {
	tests := []struct {
		name string
		sw   StatusWord
		want string // substring of the verbose output
	}{
		{"Dynamic 61XX", 0x610F, "15 bytes available"},
		{"Dynamic 6CXX", 0x6C10, "correct Le is 16"},
		{"Dynamic 91XX", 0x9114, "20 bytes of proactive command pending"},
		{"Counter 63CX", 0x63C3, "counter = 3"},
		{"Static lookup", 0x6A82, "File or application not found"},
		{"Category fallback", 0x69F0, "Command not allowed"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.sw.Verbose()
			if !strings.Contains(got, tt.want) {
				t.Errorf("Verbose(%04X) = %q, want substring %q", uint16(tt.sw), got, tt.want)
			}
		})
	}
}
