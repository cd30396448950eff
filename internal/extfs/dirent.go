// This file is part of superboot
// SPDX-License-Identifier: GPL-3.0-only

package extfs

import (
	"strings"
)

// lookupEntry scans one directory's already-assembled data for name and
// returns its inode number, or 0 if not found. Entries are variable length
// and not NUL-terminated; rec_len carries the stride to the next entry.
func lookupEntry(dirData []byte, name string) uint32 {
	p := 0
	for p+8 < len(dirData) {
		ino := le32(dirData[p : p+4])
		recLen := le16(dirData[p+4 : p+6])
		nameLen := dirData[p+6]
		if recLen == 0 {
			break
		}
		if ino != 0 && int(nameLen) == len(name) {
			entryName := string(dirData[p+8 : p+8+int(nameLen)])
			if entryName == name {
				return ino
			}
		}
		p += int(recLen)
	}
	return 0
}

// resolvePath walks path components from the root inode, looking up each
// directory entry in turn. Returns 0 if any component is missing.
func resolvePath(c *fsContext, path string) (uint32, error) {
	path = strings.Trim(strings.ReplaceAll(path, `\`, "/"), "/")

	ino := uint32(rootInode)
	if path == "" {
		return ino, nil
	}

	for _, component := range strings.Split(path, "/") {
		if component == "" {
			continue
		}
		dirInode, err := c.readInode(ino)
		if err != nil {
			return 0, err
		}
		if !dirInode.isDir() {
			return 0, nil
		}
		dirData, err := c.readFile(dirInode)
		if err != nil {
			return 0, err
		}
		next := lookupEntry(dirData, component)
		if next == 0 {
			return 0, nil
		}
		ino = next
	}
	return ino, nil
}

func le16(b []byte) uint16 {
	return uint16(b[0]) | uint16(b[1])<<8
}

func le32(b []byte) uint32 {
	return uint32(b[0]) | uint32(b[1])<<8 | uint32(b[2])<<16 | uint32(b[3])<<24
}
