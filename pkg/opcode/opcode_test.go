package opcode

import "testing"

func TestClass(t *testing.T) {
	tests := []struct {
		op       Op
		class    Class
		jump     bool
		binding  bool
		linkable bool
		writes   bool
	}{
		{MoveTo, ClassData, false, true, true, true},
		{MoveFrom, ClassData, false, true, true, false},
		{CopyTo, ClassData, false, true, true, true},
		{CopyFrom, ClassData, false, true, true, false},
		{Clear, ClassData, false, true, true, false},
		{NoOp, ClassNone, false, false, false, false},
		{Jump, ClassControl, true, false, false, false},
		{JumpIf, ClassControl, true, false, true, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.op), func(t *testing.T) {
			if got := tt.op.Class(); got != tt.class {
				t.Errorf("Class() = %v, want %v", got, tt.class)
			}
			if got := tt.op.IsJump(); got != tt.jump {
				t.Errorf("IsJump() = %v, want %v", got, tt.jump)
			}
			if got := tt.op.NeedsBinding(); got != tt.binding {
				t.Errorf("NeedsBinding() = %v, want %v", got, tt.binding)
			}
			if got := tt.op.Linkable(); got != tt.linkable {
				t.Errorf("Linkable() = %v, want %v", got, tt.linkable)
			}
			if got := tt.op.Writes(); got != tt.writes {
				t.Errorf("Writes() = %v, want %v", got, tt.writes)
			}
			if !tt.op.Valid() {
				t.Error("Valid() = false")
			}
		})
	}

	if Op("push").Valid() {
		t.Error("unknown opcode reported valid")
	}
}

func TestParse(t *testing.T) {
	tests := []struct {
		input   string
		want    Op
		wantErr bool
	}{
		{"move-to", MoveTo, false},
		{"MOVE_TO", MoveTo, false},
		{"moveto", MoveTo, false},
		{" Copy From ", CopyFrom, false},
		{"noop", NoOp, false},
		{"jump-if", JumpIf, false},
		{"jumpif", JumpIf, false},
		{"push", "", true},
		{"", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := Parse(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Parse(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("Parse(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestParseCondition(t *testing.T) {
	tests := []struct {
		input   string
		want    Condition
		wantErr bool
	}{
		{"", None, false},
		{"  ", None, false},
		{"hand-empty", HandEmpty, false},
		{"HAND_ZERO", HandZero, false},
		{"card nonempty", CardNonEmpty, false},
		{"sometimes", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseCondition(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseCondition(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParseCondition(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}

	if !CardEmpty.NeedsCard() || HandEmpty.NeedsCard() {
		t.Error("NeedsCard classification is wrong")
	}
}
