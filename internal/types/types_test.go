package types

import "testing"

func TestIsSubtype_IntWidensToFloat(t *testing.T) {
	if !IsSubtype(Int, Float) {
		t.Fatal("expected int to be a subtype of float")
	}
	if IsSubtype(Float, Int) {
		t.Fatal("float must not be a subtype of int")
	}
}

func TestIsSubtype_TypedefIsSubtypeOfBase(t *testing.T) {
	td := &Typedef{Name: "Port", BaseType: Int}
	if !IsSubtype(td, Int) {
		t.Fatal("expected typedef to be a subtype of its base")
	}
	if !IsInstance(td, Int) {
		t.Fatal("IsInstance should agree with IsSubtype for a typedef/base pair")
	}
}

func TestIsSubtype_Union(t *testing.T) {
	u := &Union{Members: []Type{Str, Int}}
	if !IsSubtype(Str, u) {
		t.Fatal("expected str to satisfy Union[str, int]")
	}
	if IsSubtype(Bool, u) {
		t.Fatal("bool must not satisfy Union[str, int]")
	}
}

func TestIsSubtype_Optional(t *testing.T) {
	opt := &Optional{Elem: Str}
	if !IsSubtype(None, opt) {
		t.Fatal("expected none to satisfy Optional[str]")
	}
	if !IsSubtype(Str, opt) {
		t.Fatal("expected str to satisfy Optional[str]")
	}
}

func TestIsSubtype_ListAndDictAreCovariantInElem(t *testing.T) {
	intList := &List{Elem: Int}
	floatList := &List{Elem: Float}
	if !IsSubtype(intList, floatList) {
		t.Fatal("expected list[int] to be a subtype of list[float]")
	}

	strIntDict := &Dict{Key: Str, Value: Int}
	strFloatDict := &Dict{Key: Str, Value: Float}
	if !IsSubtype(strIntDict, strFloatDict) {
		t.Fatal("expected dict[str,int] to be a subtype of dict[str,float]")
	}
}

func TestUnify(t *testing.T) {
	r, err := Unify(Int, Float)
	if err != nil || r != Float {
		t.Fatalf("expected Unify(int, float) = float, got %v, %v", r, err)
	}
	if _, err := Unify(Str, Bool); err == nil {
		t.Fatal("expected Unify(str, bool) to fail")
	}
}

func TestIsValidDictKey(t *testing.T) {
	e := &Enum{Name: "Color", Members: []string{"Red"}}
	for _, ok := range []Type{Bool, Int, Str, e} {
		if !IsValidDictKey(ok) {
			t.Fatalf("%s should be a valid dict key", ok)
		}
	}
	if IsValidDictKey(Float) {
		t.Fatal("float must not be a valid dict key")
	}
}

func TestIsIndexable(t *testing.T) {
	if !IsIndexable(Str) || !IsIndexable(Int) || !IsIndexable(Path) {
		t.Fatal("str/int/path should be indexable")
	}
	if IsIndexable(Float) || IsIndexable(Bool) {
		t.Fatal("float/bool should not be indexable")
	}
	td := &Typedef{Name: "Hostname", BaseType: Str}
	if !IsIndexable(td) {
		t.Fatal("a typedef over a str base should be indexable")
	}
}
