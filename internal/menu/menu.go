// This file is part of superboot
// SPDX-License-Identifier: GPL-3.0-only

// Package menu implements the external menu collaborator spec §1 carves
// out of the core three subsystems: present the discovered boot targets
// and return the one the user (or the countdown) selected. The
// orchestrator depends only on Selector; it neither knows nor cares how
// the text is rendered or the keys are read.
package menu

import (
	"fmt"
	"time"

	"github.com/acer51-doctom/superboot/internal/bootentry"
	"github.com/acer51-doctom/superboot/internal/firmware"
	"github.com/acer51-doctom/superboot/internal/status"
)

// Countdown is the firmware-timer period spec §5 specifies: "a 1-second
// firmware timer". Run waits for a key for one such period.
const Countdown = 1 * time.Second

// Display is the narrow text-output surface this package needs. The
// production implementation writes to EFI_SIMPLE_TEXT_OUTPUT_PROTOCOL's
// console, but any io.Writer-like sink satisfies it for testing.
type Display interface {
	WriteString(s string) error
}

// KeyReader consumes one already-pending keystroke. WaitForKey (from
// firmware.Services) only reports that a key is ready; ReadKey is the
// separate step that actually removes and identifies it — mirroring
// EFI_SIMPLE_TEXT_INPUT_PROTOCOL's own WaitForKey-event / ReadKeyStroke
// split.
type KeyReader interface {
	ReadKey() (rune, error)
}

// Selector is the surface the orchestrator calls: present the list, wait
// (with the countdown), and return the entry the session settled on.
type Selector interface {
	Run(list *bootentry.List) (*bootentry.Entry, error)
}

// TextMenu is the concrete, GRUB-style textual Selector: it prints every
// entry with its index, waits one Countdown period for a key and returns
// the default if none arrives, and switches to waiting indefinitely for a
// digit-key selection if a key is pressed — spec §5's "pressing any key cancels the
// countdown permanently for that menu session."
type TextMenu struct {
	Keys    func(timeout time.Duration) (bool, error)
	ReadKey KeyReader
	Disp    Display
}

// NewTextMenu binds a TextMenu to a running firmware session's key-wait
// primitive, console, and keyboard.
func NewTextMenu(fw firmware.Services, disp Display, keys KeyReader) *TextMenu {
	return &TextMenu{Keys: fw.WaitForKey, ReadKey: keys, Disp: disp}
}

// Run implements Selector.
func (m *TextMenu) Run(list *bootentry.List) (*bootentry.Entry, error) {
	if len(list.Entries) == 0 {
		return nil, status.New("menu.Run", status.NotFound, fmt.Errorf("no boot entries to present"))
	}

	def, _ := list.Default()
	m.render(list, def.Index)

	cancelled := false
	for !cancelled {
		pressed, err := m.Keys(Countdown)
		if err != nil {
			return nil, status.New("menu.Run", status.LoadError, err)
		}
		if !pressed {
			return &list.Entries[def.Index], nil
		}
		cancelled = true
	}

	m.write("\r\nSelection cancelled from countdown; press a digit then Enter to choose, or Enter alone for the highlighted entry.\r\n")
	return m.readSelection(list, def.Index)
}

// readSelection blocks, reading one key at a time, until Enter confirms
// a selection. Digits accumulate into a decimal index; any other key
// (besides a digit) is ignored, matching the menu's minimal contract.
func (m *TextMenu) readSelection(list *bootentry.List, def uint32) (*bootentry.Entry, error) {
	selected := def
	typed := ""

	for {
		r, err := m.ReadKey.ReadKey()
		if err != nil {
			return nil, status.New("menu.readSelection", status.LoadError, err)
		}
		switch {
		case r == '\r' || r == '\n':
			if typed != "" {
				var n uint32
				if _, err := fmt.Sscanf(typed, "%d", &n); err == nil && n < uint32(len(list.Entries)) {
					selected = n
				}
			}
			return &list.Entries[selected], nil
		case r >= '0' && r <= '9':
			typed += string(r)
		}
	}
}

func (m *TextMenu) render(list *bootentry.List, def uint32) {
	m.write("SuperBoot\r\n")
	for i, e := range list.Entries {
		marker := "  "
		if uint32(i) == def {
			marker = "->"
		}
		m.write(fmt.Sprintf("%s %d) %s\r\n", marker, i, e.Title))
	}
	m.write(fmt.Sprintf("Booting highlighted entry in %s, press any key to choose manually...\r\n", Countdown))
}

func (m *TextMenu) write(s string) {
	if m.Disp == nil {
		return
	}
	_ = m.Disp.WriteString(s)
}
