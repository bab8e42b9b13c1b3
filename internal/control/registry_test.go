package control

import (
	"errors"
	"testing"
)

func testTypeInfo(name string) TypeInfo {
	return TypeInfo{
		Name: name,
		Desc: "test type",
		Factory: func(ctrl *Controller, instName string, params map[string]any) (Module, error) {
			mod := newRecorder(ctrl, instName, 0)
			return mod, nil
		},
	}
}

func TestRegisterTypeRejectsDuplicates(t *testing.T) {
	resetTypeRegistryForTests()

	if err := RegisterType(testTypeInfo("Alpha")); err != nil {
		t.Fatalf("register: %v", err)
	}
	err := RegisterType(testTypeInfo("Alpha"))
	if !errors.Is(err, ErrTypeExists) {
		t.Fatalf("expected duplicate error, got %v", err)
	}
}

func TestRegisterTypeRequiresNameAndFactory(t *testing.T) {
	resetTypeRegistryForTests()

	if err := RegisterType(TypeInfo{Name: "", Factory: testTypeInfo("x").Factory}); err == nil {
		t.Fatal("expected error for missing name")
	}
	if err := RegisterType(TypeInfo{Name: "NoFactory"}); err == nil {
		t.Fatal("expected error for missing factory")
	}
}

func TestListTypesSorted(t *testing.T) {
	resetTypeRegistryForTests()

	for _, name := range []string{"Charlie", "Alpha", "Bravo"} {
		if err := RegisterType(testTypeInfo(name)); err != nil {
			t.Fatalf("register %s: %v", name, err)
		}
	}
	names := ListTypes()
	if len(names) != 3 || names[0] != "Alpha" || names[2] != "Charlie" {
		t.Fatalf("unexpected type order: %v", names)
	}
}

func TestMemberFuncOf(t *testing.T) {
	resetTypeRegistryForTests()

	info := testTypeInfo("WithMembers")
	info.Members = []MemberFunc{
		{
			Name: "PING",
			Fn: func(ctrl *Controller, mod Module, args []any) (any, error) {
				return "pong", nil
			},
		},
	}
	if err := RegisterType(info); err != nil {
		t.Fatalf("register: %v", err)
	}

	member, ok := MemberFuncOf("WithMembers", "PING")
	if !ok {
		t.Fatal("expected member function")
	}
	out, err := member.Fn(nil, nil, nil)
	if err != nil || out != "pong" {
		t.Fatalf("unexpected member result: %v %v", out, err)
	}

	if _, ok := MemberFuncOf("WithMembers", "MISSING"); ok {
		t.Fatal("unexpected member function")
	}
	if _, ok := MemberFuncOf("NoSuchType", "PING"); ok {
		t.Fatal("unexpected member on unknown type")
	}
}

func TestNewNamedModule(t *testing.T) {
	resetTypeRegistryForTests()

	if err := RegisterType(testTypeInfo("Recorder")); err != nil {
		t.Fatalf("register: %v", err)
	}
	ctrl := quietController(1)

	mod, err := ctrl.NewNamedModule("Recorder", "rec-1", nil)
	if err != nil {
		t.Fatalf("new named module: %v", err)
	}
	if mod.Name() != "rec-1" {
		t.Fatalf("unexpected instance name %q", mod.Name())
	}
	if ctrl.GetModule("rec-1") != mod {
		t.Fatal("module not registered with controller")
	}

	if _, err := ctrl.NewNamedModule("NoSuchType", "x", nil); !errors.Is(err, ErrTypeNotFound) {
		t.Fatalf("expected type-not-found, got %v", err)
	}

	// Instance names are unique within a run.
	if _, err := ctrl.NewNamedModule("Recorder", "rec-1", nil); err == nil {
		t.Fatal("expected duplicate instance name error")
	}
}
