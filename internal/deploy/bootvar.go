// This file is part of superboot
// SPDX-License-Identifier: GPL-3.0-only

package deploy

import (
	"encoding/binary"
	"fmt"

	"github.com/acer51-doctom/superboot/internal/firmware"
	"golang.org/x/text/encoding/unicode"
)

const maxBootEntries = 0x100

// createBootEntry scans Boot0000..Boot00FF for the first unused slot,
// writes an EFI_LOAD_OPTION there describing the freshly installed
// binary, and prepends that slot to BootOrder. Mirrors deploy.c's
// create_boot_entry, and the free-slot scan nullboot's bootmgr.go
// performs over its own BootManager.entries map.
func createBootEntry(fw Firmware, esp firmware.Handle) error {
	slot, err := nextFreeBootEntry(fw)
	if err != nil {
		return err
	}

	devicePath, err := devicePathFor(fw, esp, deployBinary)
	if err != nil {
		return fmt.Errorf("cannot build device path: %w", err)
	}

	option, err := encodeLoadOption(deployLabel, devicePath)
	if err != nil {
		return fmt.Errorf("cannot encode load option: %w", err)
	}

	name := fmt.Sprintf("Boot%04X", slot)
	attrs := firmware.VariableNonVolatile | firmware.VariableBootServiceAccess | firmware.VariableRuntimeAccess
	if err := fw.SetVariable(firmware.GlobalVariableGUID, name, option, attrs); err != nil {
		return fmt.Errorf("cannot set %s: %w", name, err)
	}

	return prependBootOrder(fw, uint16(slot))
}

// nextFreeBootEntry returns the first slot in [0, maxBootEntries) with no
// existing Boot#### variable, the same linear scan bootmgr.go's
// NextFreeEntry performs.
func nextFreeBootEntry(fw Firmware) (int, error) {
	for slot := 0; slot < maxBootEntries; slot++ {
		name := fmt.Sprintf("Boot%04X", slot)
		if _, _, err := fw.GetVariable(firmware.GlobalVariableGUID, name); err != nil {
			return slot, nil
		}
	}
	return 0, fmt.Errorf("no free Boot#### slot in [0, %#x)", maxBootEntries)
}

// devicePathFor asks the firmware for h's own device path and appends the
// file-path node for path, the way deploy.c builds the EFI_LOAD_OPTION's
// trailing FilePathList from the ESP handle and the installed file.
func devicePathFor(fw Firmware, h firmware.Handle, path string) ([]byte, error) {
	base, err := fw.DevicePathString(h)
	if err != nil {
		return nil, err
	}
	return encodeFilePathNode(base + path), nil
}

// encodeFilePathNode renders a MEDIA_FILEPATH_DP node: a UTF-16LE,
// NUL-terminated copy of text wrapped in its device-path-node header.
func encodeFilePathNode(text string) []byte {
	enc := unicode.UTF16(unicode.LittleEndian, unicode.IgnoreBOM).NewEncoder()
	utf16Text, _ := enc.String(text + "\x00")
	node := make([]byte, 4+len(utf16Text))
	node[0] = 0x04 // MEDIA_DEVICE_PATH
	node[1] = 0x04 // MEDIA_FILEPATH_DP
	binary.LittleEndian.PutUint16(node[2:4], uint16(len(node)))
	copy(node[4:], utf16Text)

	end := []byte{0x7f, 0xff, 0x04, 0x00} // END_ENTIRE_DEVICE_PATH
	return append(node, end...)
}

// encodeLoadOption renders an EFI_LOAD_OPTION: Attributes, the device
// path list's byte length, a UTF-16LE description, then the device path
// itself. Mirrors deploy.c's create_boot_entry byte layout.
func encodeLoadOption(description string, devicePath []byte) ([]byte, error) {
	enc := unicode.UTF16(unicode.LittleEndian, unicode.IgnoreBOM).NewEncoder()
	desc, err := enc.String(description + "\x00")
	if err != nil {
		return nil, err
	}

	buf := make([]byte, 0, 4+2+len(desc)+len(devicePath))
	var attrs [4]byte
	binary.LittleEndian.PutUint32(attrs[:], 0x00000001) // LOAD_OPTION_ACTIVE
	buf = append(buf, attrs[:]...)

	var pathLen [2]byte
	binary.LittleEndian.PutUint16(pathLen[:], uint16(len(devicePath)))
	buf = append(buf, pathLen[:]...)

	buf = append(buf, desc...)
	buf = append(buf, devicePath...)
	return buf, nil
}

// prependBootOrder reads the existing BootOrder variable, if any, and
// rewrites it with slot as the new first entry.
func prependBootOrder(fw Firmware, slot uint16) error {
	existing, _, err := fw.GetVariable(firmware.GlobalVariableGUID, "BootOrder")
	if err != nil {
		existing = nil
	}

	order := make([]byte, 2+len(existing))
	binary.LittleEndian.PutUint16(order[0:2], slot)
	copy(order[2:], existing)

	attrs := firmware.VariableNonVolatile | firmware.VariableBootServiceAccess | firmware.VariableRuntimeAccess
	return fw.SetVariable(firmware.GlobalVariableGUID, "BootOrder", order, attrs)
}
