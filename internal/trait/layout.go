package trait

import (
	"errors"
	"fmt"
)

var (
	ErrLayoutLocked   = errors.New("trait layout is locked")
	ErrUnknownTrait   = errors.New("unknown trait")
	ErrDuplicateTrait = errors.New("trait already registered")
)

// ID is a dense index into a Layout. IDs are assigned in registration order
// and never change once the layout is locked.
type ID int

const InvalidID ID = -1

// Init selects how an offspring's slot is seeded from its parent at birth.
type Init uint8

const (
	InitDefault Init = iota // reset to the layout default
	InitFirst               // copy the parent value
	InitAverage
	InitMinimum
	InitMaximum
)

// Archive selects what a run archive keeps for a trait.
type Archive uint8

const (
	ArchiveNone Archive = iota
	ArchiveLast
	ArchiveAll
)

type layoutEntry struct {
	name    string
	tag     Tag
	desc    string
	def     Value
	init    Init
	archive Archive
}

// Layout is the frozen mapping from trait names to dense IDs plus per-trait
// metadata. Every data map built against a layout shares its indexing.
type Layout struct {
	ids     map[string]ID
	entries []layoutEntry
	locked  bool
}

func NewLayout() *Layout {
	return &Layout{ids: make(map[string]ID)}
}

// Add registers a trait and returns its ID. Locked layouts and duplicate
// names error.
func (l *Layout) Add(name string, tag Tag, desc string, def Value, init Init, archive Archive) (ID, error) {
	if l.locked {
		return InvalidID, fmt.Errorf("%w: cannot add trait %q", ErrLayoutLocked, name)
	}
	if name == "" {
		return InvalidID, errors.New("trait name is required")
	}
	if _, exists := l.ids[name]; exists {
		return InvalidID, fmt.Errorf("%w: %s", ErrDuplicateTrait, name)
	}
	if def.Tag() == TagNone {
		def = ZeroValue(tag)
	}
	if def.Tag() != tag {
		return InvalidID, fmt.Errorf("%w: default for %q is %s, trait is %s", ErrTypeMismatch, name, def.Tag(), tag)
	}
	id := ID(len(l.entries))
	l.ids[name] = id
	l.entries = append(l.entries, layoutEntry{
		name:    name,
		tag:     tag,
		desc:    desc,
		def:     def,
		init:    init,
		archive: archive,
	})
	return id, nil
}

// Lock freezes the layout. IDs handed out so far stay valid forever.
func (l *Layout) Lock()        { l.locked = true }
func (l *Layout) Locked() bool { return l.locked }

func (l *Layout) NumTraits() int { return len(l.entries) }

// ID looks up a trait by name.
func (l *Layout) ID(name string) (ID, bool) {
	id, ok := l.ids[name]
	return id, ok
}

// MustID looks up a trait by name and panics on a miss. For use after
// verification has guaranteed the trait exists.
func (l *Layout) MustID(name string) ID {
	id, ok := l.ids[name]
	if !ok {
		panic(fmt.Sprintf("trait %q not in layout", name))
	}
	return id
}

func (l *Layout) valid(id ID) bool {
	return id >= 0 && int(id) < len(l.entries)
}

func (l *Layout) Name(id ID) string {
	if !l.valid(id) {
		return ""
	}
	return l.entries[id].name
}

func (l *Layout) Tag(id ID) Tag {
	if !l.valid(id) {
		return TagNone
	}
	return l.entries[id].tag
}

func (l *Layout) Desc(id ID) string {
	if !l.valid(id) {
		return ""
	}
	return l.entries[id].desc
}

func (l *Layout) Default(id ID) Value {
	if !l.valid(id) {
		return Value{}
	}
	return l.entries[id].def.Clone()
}

func (l *Layout) InitPolicy(id ID) Init {
	if !l.valid(id) {
		return InitDefault
	}
	return l.entries[id].init
}

func (l *Layout) ArchivePolicy(id ID) Archive {
	if !l.valid(id) {
		return ArchiveNone
	}
	return l.entries[id].archive
}

// Names returns all trait names in ID order.
func (l *Layout) Names() []string {
	out := make([]string, len(l.entries))
	for i, e := range l.entries {
		out[i] = e.name
	}
	return out
}
