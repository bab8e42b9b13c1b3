package trait

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var (
	ErrOwnershipConflict = errors.New("trait already owned by another module")
	ErrKindMismatch      = errors.New("trait kind mismatch")
	ErrUnresolved        = errors.New("required trait has no owner")
	ErrBadDefault        = errors.New("trait default does not match kind")
)

type registration struct {
	module  string
	name    string
	kind    Kind
	role    Role
	def     any
	gotDef  bool
	desc    string
}

// Registry collects trait declarations from every module during the
// setup phase and arbitrates conflicts before the layout is committed.
type Registry struct {
	regs   []registration
	byName map[string][]int
	locked bool
}

func NewRegistry() *Registry {
	return &Registry{byName: make(map[string][]int)}
}

// Option adjusts a single trait registration.
type Option func(*registration)

// WithDefault sets the value a trait resets to. Accepted types per kind:
// bool, int64, float64, string, []float64.
func WithDefault(def any) Option {
	return func(r *registration) {
		r.def = def
		r.gotDef = true
	}
}

// WithDesc attaches a human-readable description, surfaced by help output.
func WithDesc(desc string) Option {
	return func(r *registration) { r.desc = desc }
}

// Register records that the named module uses a trait. Conflicts between
// independently authored modules are configuration errors returned here;
// registering after the layout is locked is a programming error and panics.
func (reg *Registry) Register(module, name string, kind Kind, role Role, opts ...Option) error {
	if reg.locked {
		panic(fmt.Sprintf("trait: registration of %q by module %q after layout lock", name, module))
	}
	if name == "" {
		return fmt.Errorf("trait name is required (module %s)", module)
	}

	r := registration{module: module, name: name, kind: kind, role: role}
	for _, opt := range opts {
		opt(&r)
	}
	if r.gotDef && !valueMatchesKind(r.def, kind) {
		return fmt.Errorf("%w: trait %q (module %s) kind %s got default %T",
			ErrBadDefault, name, module, kind, r.def)
	}

	for _, idx := range reg.byName[name] {
		prev := reg.regs[idx]
		if prev.kind != kind {
			return fmt.Errorf("%w: trait %q declared %s by module %s but %s by module %s",
				ErrKindMismatch, name, prev.kind, prev.module, kind, module)
		}
		if role == RoleOwned && prev.role == RoleOwned && prev.module != module {
			return fmt.Errorf("%w: trait %q owned by both %s and %s",
				ErrOwnershipConflict, name, prev.module, module)
		}
	}

	reg.byName[name] = append(reg.byName[name], len(reg.regs))
	reg.regs = append(reg.regs, r)
	return nil
}

// Size reports how many distinct trait names have been registered.
func (reg *Registry) Size() int { return len(reg.byName) }

// Verify confirms that every required trait resolves to exactly one owned
// declaration of matching kind. All unresolved traits are reported by name
// and module in a single error; any failure is fatal to setup.
func (reg *Registry) Verify() error {
	var problems []string
	names := make([]string, 0, len(reg.byName))
	for name := range reg.byName {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		var owners []registration
		var requirers []registration
		for _, idx := range reg.byName[name] {
			switch reg.regs[idx].role {
			case RoleOwned:
				owners = append(owners, reg.regs[idx])
			case RoleRequired:
				requirers = append(requirers, reg.regs[idx])
			}
		}
		if len(requirers) == 0 {
			continue
		}
		if len(owners) == 0 {
			for _, r := range requirers {
				problems = append(problems, fmt.Sprintf(
					"trait %q required by module %s is not owned by any module", name, r.module))
			}
			continue
		}
		owner := owners[0]
		for _, r := range requirers {
			if r.kind != owner.kind {
				problems = append(problems, fmt.Sprintf(
					"trait %q required as %s by module %s but owned as %s by module %s",
					name, r.kind, r.module, owner.kind, owner.module))
			}
		}
	}

	if len(problems) > 0 {
		return fmt.Errorf("%w:\n  %s", ErrUnresolved, strings.Join(problems, "\n  "))
	}
	return nil
}

// BuildLayout commits the final trait set into a locked Layout. Call only
// after Verify succeeds; further registration panics.
func (reg *Registry) BuildLayout() *Layout {
	layout := newLayout()

	names := make([]string, 0, len(reg.byName))
	for name := range reg.byName {
		names = append(names, name)
	}
	// Deterministic layout order regardless of module registration timing.
	sort.Strings(names)

	for _, name := range names {
		idxs := reg.byName[name]
		entry := reg.regs[idxs[0]]
		def := zeroValue(entry.kind)
		haveDef := false
		desc := entry.desc
		for _, i := range idxs {
			r := reg.regs[i]
			// The owner's declared default wins; otherwise first declared.
			if r.gotDef && (r.role == RoleOwned || !haveDef) {
				def = r.def
				haveDef = true
			}
			if desc == "" {
				desc = r.desc
			}
		}
		layout.add(name, entry.kind, def, desc)
	}

	layout.lock()
	reg.locked = true
	return layout
}

// Locked reports whether the registry has committed its layout.
func (reg *Registry) Locked() bool { return reg.locked }
