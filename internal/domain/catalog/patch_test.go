package catalog

import "testing"

func TestPatch_UnsetLeavesFieldAlone(t *testing.T) {
	var p Patch[string]
	if p.IsSet() {
		t.Fatalf("zero patch must be unset")
	}
	if _, ok := p.Value(); ok {
		t.Fatalf("unset patch must not report a value")
	}
	if got := p.Or("fallback"); got != "fallback" {
		t.Fatalf("expected fallback got %q", got)
	}
}

func TestPatch_SetCarriesExplicitZero(t *testing.T) {
	p := Set("")
	if !p.IsSet() {
		t.Fatalf("Set must mark the patch as set")
	}
	v, ok := p.Value()
	if !ok || v != "" {
		t.Fatalf("expected explicit empty string, got %q ok=%v", v, ok)
	}
	if got := p.Or("fallback"); got != "" {
		t.Fatalf("Or must prefer the set value, got %q", got)
	}
}

func TestPatch_SetNilPointerIsStillSet(t *testing.T) {
	p := Set[*string](nil)
	v, ok := p.Value()
	if !ok || v != nil {
		t.Fatalf("expected set nil pointer, got %v ok=%v", v, ok)
	}
}
