package trait

// Access describes how a module intends to use a trait. Writer modes claim
// the right to set the value; Required and Optional are read-only intents.
type Access uint8

const (
	AccessUnknown Access = iota
	AccessPrivate
	AccessOwned
	AccessGenerated
	AccessShared
	AccessRequired
	AccessOptional
)

func (a Access) String() string {
	switch a {
	case AccessPrivate:
		return "private"
	case AccessOwned:
		return "owned"
	case AccessGenerated:
		return "generated"
	case AccessShared:
		return "shared"
	case AccessRequired:
		return "required"
	case AccessOptional:
		return "optional"
	default:
		return "unknown"
	}
}

// IsWriter reports whether the mode claims write access.
func (a Access) IsWriter() bool {
	switch a {
	case AccessPrivate, AccessOwned, AccessGenerated, AccessShared:
		return true
	default:
		return false
	}
}

// IsExclusive reports whether the mode forbids any second writer.
func (a Access) IsExclusive() bool {
	switch a {
	case AccessPrivate, AccessOwned, AccessGenerated:
		return true
	default:
		return false
	}
}
