// This file is part of superboot
// SPDX-License-Identifier: GPL-3.0-only

package menu

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/acer51-doctom/superboot/internal/bootentry"
)

type fakeDisplay struct {
	strings.Builder
}

func (d *fakeDisplay) WriteString(s string) error {
	d.Builder.WriteString(s)
	return nil
}

type fakeKeys struct {
	keys []rune
	i    int
}

func (k *fakeKeys) ReadKey() (rune, error) {
	if k.i >= len(k.keys) {
		return 0, errors.New("no more keys")
	}
	r := k.keys[k.i]
	k.i++
	return r, nil
}

func list(n int, def int) *bootentry.List {
	l := &bootentry.List{}
	for i := 0; i < n; i++ {
		l.Add(bootentry.Entry{Title: "entry", KernelPath: "/vmlinuz", IsDefault: i == def})
	}
	return l
}

func TestRunEmptyListFails(t *testing.T) {
	m := &TextMenu{Keys: func(time.Duration) (bool, error) { return false, nil }, Disp: &fakeDisplay{}}
	if _, err := m.Run(&bootentry.List{}); err == nil {
		t.Fatalf("Run succeeded with an empty list")
	}
}

func TestRunReturnsDefaultWhenCountdownExpiresUninterrupted(t *testing.T) {
	disp := &fakeDisplay{}
	m := &TextMenu{Keys: func(time.Duration) (bool, error) { return false, nil }, Disp: disp}
	l := list(3, 1)

	got, err := m.Run(l)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if got != &l.Entries[1] {
		t.Fatalf("Run returned entry %d, want the default entry 1", got.Index)
	}
}

func TestRunCancelsOnKeypressAndReadsDigitSelection(t *testing.T) {
	disp := &fakeDisplay{}
	keys := &fakeKeys{keys: []rune{'2', '\r'}}
	pressedOnce := false
	m := &TextMenu{
		Keys: func(time.Duration) (bool, error) {
			if pressedOnce {
				return false, nil
			}
			pressedOnce = true
			return true, nil
		},
		ReadKey: keys,
		Disp:    disp,
	}
	l := list(3, 0)

	got, err := m.Run(l)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if got != &l.Entries[2] {
		t.Fatalf("Run returned entry %d, want the typed selection 2", got.Index)
	}
}

func TestRunCancelledThenBareEnterKeepsDefault(t *testing.T) {
	disp := &fakeDisplay{}
	keys := &fakeKeys{keys: []rune{'\r'}}
	m := &TextMenu{
		Keys:    func(time.Duration) (bool, error) { return true, nil },
		ReadKey: keys,
		Disp:    disp,
	}
	l := list(2, 1)

	got, err := m.Run(l)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if got != &l.Entries[1] {
		t.Fatalf("Run returned entry %d, want the default entry 1 when nothing was typed", got.Index)
	}
}

func TestRunPropagatesKeyWaitError(t *testing.T) {
	m := &TextMenu{Keys: func(time.Duration) (bool, error) { return false, errors.New("boom") }, Disp: &fakeDisplay{}}
	l := list(1, 0)

	if _, err := m.Run(l); err == nil {
		t.Fatalf("Run succeeded despite a key-wait error")
	}
}

func TestRunOutOfRangeDigitFallsBackToDefault(t *testing.T) {
	disp := &fakeDisplay{}
	keys := &fakeKeys{keys: []rune{'9', '\r'}}
	m := &TextMenu{
		Keys:    func(time.Duration) (bool, error) { return true, nil },
		ReadKey: keys,
		Disp:    disp,
	}
	l := list(2, 0)

	got, err := m.Run(l)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if got != &l.Entries[0] {
		t.Fatalf("Run returned entry %d, want the default entry when the typed digit is out of range", got.Index)
	}
}
