package trait

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var ErrManagerLocked = errors.New("trait manager is locked")

// use records one module's declared intent toward a trait.
type use struct {
	module string
	access Access
	// accepted lists the tags a reader will take; writers accept exactly
	// the trait's tag.
	accepted []Tag
}

// Info is the merged declaration state for one trait name across modules.
type Info struct {
	name       string
	tag        Tag
	hasTag     bool
	desc       string
	def        Value
	hasDefault bool
	init       Init
	archive    Archive
	uses       []use
}

func (in *Info) Name() string { return in.name }
func (in *Info) Tag() Tag     { return in.tag }

func (in *Info) modulesWith(pred func(Access) bool) []string {
	var out []string
	for _, u := range in.uses {
		if pred(u.access) {
			out = append(out, u.module)
		}
	}
	return out
}

func (in *Info) count(a Access) int {
	n := 0
	for _, u := range in.uses {
		if u.access == a {
			n++
		}
	}
	return n
}

// Manager collects trait declarations from modules, verifies them as a
// whole, and registers the survivors into a Layout. Problems are reported
// through the error and warning callbacks so user mistakes surface through
// the normal reporting channel rather than as return values.
type Manager struct {
	infos  map[string]*Info
	order  []string
	locked bool
	errFn  func(format string, args ...any)
	warnFn func(format string, args ...any)
}

func NewManager(errFn, warnFn func(string, ...any)) *Manager {
	if errFn == nil {
		errFn = func(string, ...any) {}
	}
	if warnFn == nil {
		warnFn = func(string, ...any) {}
	}
	return &Manager{
		infos:  make(map[string]*Info),
		errFn:  errFn,
		warnFn: warnFn,
	}
}

func (m *Manager) Locked() bool { return m.locked }

func (m *Manager) Count() int { return len(m.order) }

func (m *Manager) HasTrait(name string) bool {
	_, ok := m.infos[name]
	return ok
}

// Names returns trait names in first-declaration order.
func (m *Manager) Names() []string {
	return append([]string(nil), m.order...)
}

// AddTrait records one module's intent toward a named trait. The first
// writer fixes the trait's type; readers may list alternate acceptable tags.
// Type clashes with earlier declarations are errors. The default value
// applies when the declaring module supplies one; conflicting defaults keep
// the first and warn.
func (m *Manager) AddTrait(module string, access Access, name string, tag Tag, desc string, def any, alts ...Tag) error {
	if m.locked {
		return fmt.Errorf("%w: module %q cannot add trait %q", ErrManagerLocked, module, name)
	}
	if name == "" {
		return errors.New("trait name is required")
	}
	if access == AccessUnknown {
		return fmt.Errorf("module %q declared trait %q with unknown access", module, name)
	}
	if tag == TagNone {
		return fmt.Errorf("module %q declared trait %q without a type", module, name)
	}

	info, exists := m.infos[name]
	if !exists {
		info = &Info{name: name}
		m.infos[name] = info
		m.order = append(m.order, name)
	}

	accepted := append([]Tag{tag}, alts...)
	if access.IsWriter() {
		// Writers fix the canonical tag; a second writer must agree.
		if info.hasTag && info.tag != tag {
			return fmt.Errorf("%w: module %q declares trait %q as %s, already %s",
				ErrTypeMismatch, module, name, tag, info.tag)
		}
		if !info.hasTag {
			// Every reader already on record must accept the writer's tag.
			for _, u := range info.uses {
				if !u.access.IsWriter() && !tagIn(tag, u.accepted) {
					return fmt.Errorf("%w: module %q writes trait %q as %s, module %q reads %s",
						ErrTypeMismatch, module, name, tag, u.module, tagList(u.accepted))
				}
			}
			info.tag = tag
			info.hasTag = true
		}
		accepted = []Tag{info.tag}
	} else if info.hasTag && !tagIn(info.tag, accepted) {
		return fmt.Errorf("%w: module %q reads trait %q as %s, trait is %s",
			ErrTypeMismatch, module, name, tagList(accepted), info.tag)
	}

	if desc != "" && info.desc == "" {
		info.desc = desc
	}
	if def != nil {
		dv, err := ValueOf(def)
		if err != nil {
			return fmt.Errorf("default for trait %q: %w", name, err)
		}
		if dv.Tag() == TagInt && tag == TagFloat {
			dv = FloatValue(float64(dv.Int()))
		}
		if dv.Tag() != tag {
			return fmt.Errorf("%w: default for trait %q is %s, trait declared %s",
				ErrTypeMismatch, name, dv.Tag(), tag)
		}
		switch {
		case !info.hasDefault:
			info.def = dv
			info.hasDefault = true
		case !info.def.Equal(dv):
			m.warnFn("trait %q: module %q default %s ignored, keeping %s",
				name, module, dv, info.def)
		}
	}

	info.uses = append(info.uses, use{module: module, access: access, accepted: accepted})
	return nil
}

// SetInitPolicy sets the birth seeding policy for a trait.
func (m *Manager) SetInitPolicy(name string, p Init) error {
	info, ok := m.infos[name]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownTrait, name)
	}
	info.init = p
	return nil
}

// SetArchivePolicy sets the archive policy for a trait.
func (m *Manager) SetArchivePolicy(name string, p Archive) error {
	info, ok := m.infos[name]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownTrait, name)
	}
	info.archive = p
	return nil
}

// Verify checks the merged declarations and reports every problem through
// the error callback. It returns the number of errors found; zero means the
// set is consistent and ready to register.
func (m *Manager) Verify() int {
	count := 0
	report := func(format string, args ...any) {
		count++
		m.errFn(format, args...)
	}

	for _, name := range m.order {
		info := m.infos[name]

		for _, u := range info.uses {
			if u.access == AccessUnknown {
				report("trait %q: module %q has unknown access", name, u.module)
			}
		}

		privates := info.modulesWith(func(a Access) bool { return a == AccessPrivate })
		if len(privates) > 0 && len(info.uses) > 1 {
			others := info.modulesWith(func(a Access) bool { return a != AccessPrivate })
			if len(privates) > 1 {
				report("trait %q: declared private by multiple modules (%s)",
					name, strings.Join(privates, ", "))
			}
			if len(others) > 0 {
				report("trait %q: private to module %q but also used by %s",
					name, privates[0], strings.Join(others, ", "))
			}
		}

		exclusive := info.modulesWith(Access.IsExclusive)
		if len(exclusive) > 1 {
			report("trait %q: only one module can own it, claimed by %s",
				name, strings.Join(exclusive, " and "))
		}
		shared := info.modulesWith(func(a Access) bool { return a == AccessShared })
		if len(exclusive) > 0 && len(shared) > 0 {
			report("trait %q: owned by %q but declared shared by %s",
				name, exclusive[0], strings.Join(shared, ", "))
		}

		writers := info.modulesWith(Access.IsWriter)
		if info.count(AccessRequired) > 0 && len(writers) == 0 {
			readers := info.modulesWith(func(a Access) bool { return a == AccessRequired })
			report("trait %q: required by %s but no module writes it",
				name, strings.Join(readers, ", "))
		}

		if info.count(AccessGenerated) > 0 &&
			info.count(AccessRequired)+info.count(AccessOptional) == 0 {
			report("trait %q: generated by %q but no module reads it",
				name, exclusiveFirst(info))
		}

		if !info.hasTag {
			if tag, ok := m.commonReaderTag(info); ok {
				info.tag = tag
				info.hasTag = true
			} else {
				report("trait %q: readers disagree on its type", name)
			}
		}
	}
	return count
}

// commonReaderTag resolves a type for a trait declared only by readers: the
// first tag of the first use that every other use accepts.
func (m *Manager) commonReaderTag(info *Info) (Tag, bool) {
	if len(info.uses) == 0 {
		return TagNone, false
	}
	for _, cand := range info.uses[0].accepted {
		ok := true
		for _, u := range info.uses[1:] {
			if !tagIn(cand, u.accepted) {
				ok = false
				break
			}
		}
		if ok {
			return cand, true
		}
	}
	return TagNone, false
}

// RegisterAll pushes every declared trait into the layout in declaration
// order and locks the manager. Call only after Verify reports no errors.
func (m *Manager) RegisterAll(l *Layout) error {
	if m.locked {
		return ErrManagerLocked
	}
	for _, name := range m.order {
		info := m.infos[name]
		if !info.hasTag {
			return fmt.Errorf("trait %q has no resolved type", name)
		}
		def := info.def
		if !info.hasDefault {
			def = ZeroValue(info.tag)
		}
		if _, err := l.Add(name, info.tag, info.desc, def, info.init, info.archive); err != nil {
			return fmt.Errorf("register trait %q: %w", name, err)
		}
	}
	m.locked = true
	return nil
}

// AccessSummary renders one line per trait for diagnostics, modules sorted.
func (m *Manager) AccessSummary() []string {
	out := make([]string, 0, len(m.order))
	for _, name := range m.order {
		info := m.infos[name]
		parts := make([]string, 0, len(info.uses))
		for _, u := range info.uses {
			parts = append(parts, fmt.Sprintf("%s:%s", u.module, u.access))
		}
		sort.Strings(parts)
		out = append(out, fmt.Sprintf("%s (%s) %s", name, info.tag, strings.Join(parts, " ")))
	}
	return out
}

func exclusiveFirst(info *Info) string {
	for _, u := range info.uses {
		if u.access.IsExclusive() {
			return u.module
		}
	}
	if len(info.uses) > 0 {
		return info.uses[0].module
	}
	return ""
}

func tagIn(t Tag, set []Tag) bool {
	for _, x := range set {
		if x == t {
			return true
		}
	}
	return false
}

func tagList(set []Tag) string {
	parts := make([]string, len(set))
	for i, t := range set {
		parts[i] = t.String()
	}
	return strings.Join(parts, "|")
}
