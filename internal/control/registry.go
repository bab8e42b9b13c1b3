package control

import (
	"errors"
	"fmt"
	"sort"
	"sync"
)

var (
	ErrTypeExists   = errors.New("module type already registered")
	ErrTypeNotFound = errors.New("module type not found")
)

// Factory builds a module instance bound to a controller. Params carry
// the declarative settings the configuration layer parsed for it.
type Factory func(ctrl *Controller, name string, params map[string]any) (Module, error)

// MemberFunc is a callable a module type exposes to the configuration
// layer; the sole mechanism by which script text can invoke
// module-specific behavior.
type MemberFunc struct {
	Name string
	Desc string
	Fn   func(ctrl *Controller, mod Module, args []any) (any, error)
}

// TypeInfo is the registration surface for one module type: a
// human-readable name, a one-line description, a factory, and optional
// member functions.
type TypeInfo struct {
	Name    string
	Desc    string
	Factory Factory
	Members []MemberFunc
}

// The process-wide module type registry. Populated by an explicit
// RegisterType call per module type, with deterministic construction
// (no init-order dependencies beyond package init of the modules
// themselves).
var typeRegistry = struct {
	mu sync.RWMutex
	m  map[string]TypeInfo
}{
	m: make(map[string]TypeInfo),
}

// RegisterType makes a module type available to configuration loading.
func RegisterType(info TypeInfo) error {
	if info.Name == "" {
		return errors.New("module type name is required")
	}
	if info.Factory == nil {
		return errors.New("module type factory is required")
	}

	typeRegistry.mu.Lock()
	defer typeRegistry.mu.Unlock()

	if _, exists := typeRegistry.m[info.Name]; exists {
		return fmt.Errorf("%w: %s", ErrTypeExists, info.Name)
	}
	typeRegistry.m[info.Name] = TypeInfo{
		Name:    info.Name,
		Desc:    info.Desc,
		Factory: info.Factory,
		Members: append([]MemberFunc(nil), info.Members...),
	}
	return nil
}

// MustRegisterType is RegisterType for package-init registration blocks.
func MustRegisterType(info TypeInfo) {
	if err := RegisterType(info); err != nil {
		panic(err)
	}
}

func LookupType(name string) (TypeInfo, bool) {
	typeRegistry.mu.RLock()
	defer typeRegistry.mu.RUnlock()
	info, ok := typeRegistry.m[name]
	return info, ok
}

// ListTypes returns all registered module type names in sorted order.
func ListTypes() []string {
	typeRegistry.mu.RLock()
	defer typeRegistry.mu.RUnlock()

	names := make([]string, 0, len(typeRegistry.m))
	for name := range typeRegistry.m {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// MemberFuncOf resolves a member function on a module type.
func MemberFuncOf(typeName, fnName string) (MemberFunc, bool) {
	info, ok := LookupType(typeName)
	if !ok {
		return MemberFunc{}, false
	}
	for _, member := range info.Members {
		if member.Name == fnName {
			return member, true
		}
	}
	return MemberFunc{}, false
}

func resetTypeRegistryForTests() {
	typeRegistry.mu.Lock()
	defer typeRegistry.mu.Unlock()
	typeRegistry.m = make(map[string]TypeInfo)
}
