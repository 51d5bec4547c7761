package recipe

import "testing"

func TestParseLine(t *testing.T) {
	tests := []struct {
		line      string
		wantOK    bool
		wantName  string
		wantOp    string
		wantValue string
		wantCmt   string
		wantStop  int
	}{
		{"PKG_NAME = zlib", true, "PKG_NAME", "=", "zlib", "", 15},
		{"A?=1", true, "A", "?=", "1", "", 4},
		{"A:=1", true, "A", ":=", "1", "", 4},
		{"A::=1", true, "A", "::=", "1", "", 5},
		{"A += x y", true, "A", "+=", "x y", "", 8},
		{"V = 10 11 # note", true, "V", "=", "10 11 ", "# note", 16},
		{"V = $(A)_${B}", true, "V", "=", "$(A)_${B}", "", 13},
		{"V = $(subst .,_,$(X))", true, "V", "=", "$(subst .,_,$(X))", "", 21},
		{"EMPTY =", true, "EMPTY", "=", "", "", 7},
		{"V = $(open", true, "V", "=", "", "", 4},
		{"V = a$(b}c", true, "V", "=", "a", "", 5},
		{"V = $$HOME", true, "V", "=", "", "", 4},
		{"include ../../mk/spksrc.cross-cc.mk", false, "", "", "", "", 0},
		{"target: dep", false, "", "", "", "", 0},
		{"\tFOO=bar", true, "FOO", "=", "bar", "", 8},
		{"  PKG_VERS = 2.0", true, "PKG_VERS", "=", "2.0", "", 16},
		{"  ", false, "", "", "", "", 0},
		{"\tcd $(WORK_DIR) && make", false, "", "", "", "", 0},
		{"# PKG_VERS = 1.0", false, "", "", "", "", 0},
		{"", false, "", "", "", "", 0},
		{"9LIVES = 1", false, "", "", "", "", 0},
	}

	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			a, ok, stop := parseLine(tt.line)
			if ok != tt.wantOK {
				t.Fatalf("ok = %v, want %v", ok, tt.wantOK)
			}
			if !ok {
				return
			}
			if a.Name != tt.wantName || a.Op != tt.wantOp {
				t.Errorf("name, op = %q, %q; want %q, %q", a.Name, a.Op, tt.wantName, tt.wantOp)
			}
			if got := a.Value.String(); got != tt.wantValue {
				t.Errorf("value = %q, want %q", got, tt.wantValue)
			}
			if got := tt.line[a.Start:a.End]; got != tt.wantValue {
				t.Errorf("value span = %q, want %q", got, tt.wantValue)
			}
			if a.Comment != tt.wantCmt {
				t.Errorf("comment = %q, want %q", a.Comment, tt.wantCmt)
			}
			if stop != tt.wantStop {
				t.Errorf("stop = %d, want %d", stop, tt.wantStop)
			}
		})
	}
}

func TestParseLine_Tree(t *testing.T) {
	a, ok, _ := parseLine("V = x$(subst .,_,${X})y")
	if !ok {
		t.Fatal("not an assignment")
	}
	if len(a.Value) != 3 {
		t.Fatalf("len(Value) = %d, want 3", len(a.Value))
	}
	call := a.Value[1]
	if call.Delim != Paren || len(call.Children) != 2 {
		t.Fatalf("call = %+v", call)
	}
	if call.Children[0].Literal != "subst .,_," {
		t.Errorf("first child = %q", call.Children[0].Literal)
	}
	if inner := call.Children[1]; inner.Delim != Brace || inner.Children[0].Literal != "X" {
		t.Errorf("inner = %+v", inner)
	}
	if !a.Value.HasCall() || literal("x").HasCall() {
		t.Error("HasCall() mismatch")
	}
}
