package lcs

import (
	"testing"
)

func TestMyersDiff_Basic(t *testing.T) {
	a := []string{"a", "b", "c"}
	b := []string{"a", "x", "c"}

	ops := MyersDiff(a, b)

	wantTypes := []OpType{Equal, Delete, Insert, Equal}
	wantValues := []string{"a", "b", "x", "c"}

	if len(ops) != len(wantTypes) {
		t.Fatalf("got %d ops, want %d: %v", len(ops), len(wantTypes), ops)
	}
	for i, op := range ops {
		if op.Type != wantTypes[i] || op.Value != wantValues[i] {
			t.Errorf("op[%d] = {%v, %q}, want {%v, %q}",
				i, op.Type, op.Value, wantTypes[i], wantValues[i])
		}
	}
	if ops[1].AIndex != 1 || ops[1].BIndex != -1 {
		t.Errorf("delete op indexes = (%d, %d), want (1, -1)", ops[1].AIndex, ops[1].BIndex)
	}
	if ops[2].AIndex != -1 || ops[2].BIndex != 1 {
		t.Errorf("insert op indexes = (%d, %d), want (-1, 1)", ops[2].AIndex, ops[2].BIndex)
	}
}

func TestMyersDiff_EmptyToNonEmpty(t *testing.T) {
	ops := MyersDiff(nil, []string{"a", "b"})
	if len(ops) != 2 {
		t.Fatalf("expected 2 ops, got %d", len(ops))
	}
	for _, op := range ops {
		if op.Type != Insert {
			t.Errorf("expected all Insert ops, got %v", op)
		}
	}
}

func TestMyersDiff_NonEmptyToEmpty(t *testing.T) {
	ops := MyersDiff([]string{"a", "b"}, nil)
	if len(ops) != 2 {
		t.Fatalf("expected 2 ops, got %d", len(ops))
	}
	for _, op := range ops {
		if op.Type != Delete {
			t.Errorf("expected all Delete ops, got %v", op)
		}
	}
}

func TestMyersDiff_Identical(t *testing.T) {
	a := []int{1, 2, 3}
	ops := MyersDiff(a, a)
	if len(ops) != 3 {
		t.Fatalf("expected 3 ops, got %d", len(ops))
	}
	for i, op := range ops {
		if op.Type != Equal || op.AIndex != i || op.BIndex != i {
			t.Errorf("op[%d] = %+v, want equal at %d", i, op, i)
		}
	}
}

func TestMyersDiff_ReconstructsBothSides(t *testing.T) {
	a := []rune("the quick brown fox")
	b := []rune("the quack brown box jumps")

	var gotA, gotB []rune
	for _, op := range MyersDiff(a, b) {
		switch op.Type {
		case Equal:
			gotA = append(gotA, op.Value)
			gotB = append(gotB, op.Value)
		case Delete:
			gotA = append(gotA, op.Value)
		case Insert:
			gotB = append(gotB, op.Value)
		}
	}
	if string(gotA) != string(a) {
		t.Errorf("old side = %q, want %q", string(gotA), string(a))
	}
	if string(gotB) != string(b) {
		t.Errorf("new side = %q, want %q", string(gotB), string(b))
	}
}
