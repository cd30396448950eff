// This file is part of superboot
// SPDX-License-Identifier: GPL-3.0-only

package bootentry

import (
	"strings"
	"testing"
)

func TestValidateRequiresExactlyOneTarget(t *testing.T) {
	e := Entry{}
	if err := e.Validate(); err == nil {
		t.Fatal("expected error when neither kernel nor chainload is set")
	}

	e = Entry{KernelPath: `\vmlinuz`, IsChainload: true, EFIPath: `\shim.efi`}
	if err := e.Validate(); err == nil {
		t.Fatal("expected error when both kernel and chainload are set")
	}

	e = Entry{KernelPath: `\vmlinuz`}
	if err := e.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	e = Entry{IsChainload: true, EFIPath: `\shim.efi`}
	if err := e.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestValidateInitrdBound(t *testing.T) {
	e := Entry{KernelPath: `\vmlinuz`}
	for i := 0; i <= MaxInitrds; i++ {
		e.InitrdPaths = append(e.InitrdPaths, `\initrd`)
	}
	if err := e.Validate(); err == nil {
		t.Fatal("expected error when initrd count exceeds MaxInitrds")
	}
}

func TestValidateCmdlineBound(t *testing.T) {
	e := Entry{KernelPath: `\vmlinuz`, Cmdline: strings.Repeat("a", MaxCmdlineLen+1)}
	if err := e.Validate(); err == nil {
		t.Fatal("expected error when cmdline exceeds MaxCmdlineLen")
	}
}

func TestListAddStopsAtMaxTargets(t *testing.T) {
	var l List
	for i := 0; i < MaxTargets; i++ {
		if !l.Add(Entry{KernelPath: `\vmlinuz`}) {
			t.Fatalf("expected Add to succeed at index %d", i)
		}
	}
	if l.Add(Entry{KernelPath: `\vmlinuz`}) {
		t.Fatal("expected Add to fail once list is full")
	}
	if len(l.Entries) != MaxTargets {
		t.Fatalf("expected %d entries, got %d", MaxTargets, len(l.Entries))
	}
}

func TestListDefaultPrefersMarkedEntry(t *testing.T) {
	var l List
	l.Add(Entry{Title: "first"})
	l.Add(Entry{Title: "second", IsDefault: true})
	l.Add(Entry{Title: "third"})

	def, ok := l.Default()
	if !ok || def.Title != "second" {
		t.Fatalf("expected second entry as default, got %+v ok=%v", def, ok)
	}
}

func TestListDefaultFallsBackToFirst(t *testing.T) {
	var l List
	l.Add(Entry{Title: "only"})
	def, ok := l.Default()
	if !ok || def.Title != "only" {
		t.Fatalf("expected fallback to first entry, got %+v ok=%v", def, ok)
	}
}

func TestListDefaultEmpty(t *testing.T) {
	var l List
	if _, ok := l.Default(); ok {
		t.Fatal("expected false for empty list")
	}
}
