package engine

import "strings"

// SignalID names one lifecycle event in canonical dispatch order.
type SignalID uint8

const (
	SigBeforeUpdate SignalID = iota
	SigOnUpdate
	SigBeforeRepro
	SigOnOffspringReady
	SigOnInjectReady
	SigBeforePlacement
	SigOnPlacement
	SigBeforeMutate
	SigOnMutate
	SigBeforeDeath
	SigBeforeSwap
	SigOnSwap
	SigBeforePopResize
	SigOnPopResize
	SigBeforeExit
	SigOnHelp
	SigOnError
	SigOnWarning

	numSignals
)

var signalNames = [numSignals]string{
	"BeforeUpdate",
	"OnUpdate",
	"BeforeRepro",
	"OnOffspringReady",
	"OnInjectReady",
	"BeforePlacement",
	"OnPlacement",
	"BeforeMutate",
	"OnMutate",
	"BeforeDeath",
	"BeforeSwap",
	"OnSwap",
	"BeforePopResize",
	"OnPopResize",
	"BeforeExit",
	"OnHelp",
	"OnError",
	"OnWarning",
}

func (s SignalID) String() string {
	if s < numSignals {
		return signalNames[s]
	}
	return "Unknown"
}

// SignalSet is a bitset over signal IDs.
type SignalSet uint32

func NewSignalSet(ids ...SignalID) SignalSet {
	var s SignalSet
	for _, id := range ids {
		s.Set(id)
	}
	return s
}

func (s SignalSet) Has(id SignalID) bool { return s&(1<<id) != 0 }
func (s *SignalSet) Set(id SignalID)     { *s |= 1 << id }
func (s *SignalSet) Clear(id SignalID)   { *s &^= 1 << id }
func (s SignalSet) Empty() bool          { return s == 0 }

func (s SignalSet) Count() int {
	n := 0
	for id := SignalID(0); id < numSignals; id++ {
		if s.Has(id) {
			n++
		}
	}
	return n
}

func (s SignalSet) String() string {
	var parts []string
	for id := SignalID(0); id < numSignals; id++ {
		if s.Has(id) {
			parts = append(parts, id.String())
		}
	}
	return strings.Join(parts, "|")
}
