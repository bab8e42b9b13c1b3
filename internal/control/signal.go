package control

import "fmt"

// Signal enumerates the fixed set of lifecycle hook points the kernel
// dispatches. Modules subscribe by declaring the signals they handle at
// construction; the dispatcher never introspects method overrides.
type Signal uint8

const (
	SigBeforeUpdate Signal = iota
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

	numSignals = iota
)

var signalNames = [numSignals]string{
	"before-update",
	"on-update",
	"before-repro",
	"on-offspring-ready",
	"on-inject-ready",
	"before-placement",
	"on-placement",
	"before-mutate",
	"on-mutate",
	"before-death",
	"before-swap",
	"on-swap",
	"before-pop-resize",
	"on-pop-resize",
	"before-exit",
	"on-help",
}

func (s Signal) String() string {
	if int(s) < numSignals {
		return signalNames[s]
	}
	return fmt.Sprintf("signal(%d)", int(s))
}

// SignalSet is the capability bitset a module declares at construction.
type SignalSet uint32

func Signals(sigs ...Signal) SignalSet {
	var set SignalSet
	for _, s := range sigs {
		set |= 1 << s
	}
	return set
}

func (set SignalSet) Has(s Signal) bool { return set&(1<<s) != 0 }

func (set SignalSet) With(s Signal) SignalSet { return set | 1<<s }
