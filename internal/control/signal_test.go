package control

import "testing"

func TestSignalSetMembership(t *testing.T) {
	set := Signals(SigOnUpdate, SigBeforeDeath)

	if !set.Has(SigOnUpdate) || !set.Has(SigBeforeDeath) {
		t.Fatal("declared signals missing from set")
	}
	if set.Has(SigBeforeUpdate) || set.Has(SigOnHelp) {
		t.Fatal("undeclared signals present in set")
	}

	set = set.With(SigBeforeExit)
	if !set.Has(SigBeforeExit) {
		t.Fatal("With did not add the signal")
	}
	if !set.Has(SigOnUpdate) {
		t.Fatal("With dropped an existing signal")
	}
}

func TestEmptySignalSet(t *testing.T) {
	var set SignalSet
	for sig := Signal(0); sig < numSignals; sig++ {
		if set.Has(sig) {
			t.Fatalf("empty set claims signal %s", sig)
		}
	}
}

func TestSignalNames(t *testing.T) {
	if got := SigBeforeUpdate.String(); got != "before-update" {
		t.Fatalf("unexpected name %q", got)
	}
	if got := SigOnHelp.String(); got != "on-help" {
		t.Fatalf("unexpected name %q", got)
	}
	if got := Signal(200).String(); got != "signal(200)" {
		t.Fatalf("unexpected name %q", got)
	}
}
