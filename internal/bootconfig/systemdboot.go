// This file is part of superboot
// SPDX-License-Identifier: GPL-3.0-only

package bootconfig

import (
	"strings"

	"github.com/acer51-doctom/superboot/internal/bootentry"
	"github.com/acer51-doctom/superboot/internal/bytesutil"
	"github.com/acer51-doctom/superboot/internal/firmware"
)

const entriesDir = `\loader\entries`

// parseSystemdBoot reads loader.conf for the "default" glob, then uses vfs
// to enumerate \loader\entries\*.conf and parses each as a whitespace
// key-value file. This is the one parser that needs filesystem access
// beyond the bytes the scanner already read, since systemd-boot spreads
// one logical config across many files.
func parseSystemdBoot(data []byte, device firmware.Handle, _ string, fs VFS) ([]bootentry.Entry, error) {
	defaultGlob := ""
	for _, line := range bytesutil.SplitLines(string(data)) {
		trimmed := strings.TrimSpace(line)
		if rest, ok := strings.CutPrefix(trimmed, "default"); ok {
			rest = strings.TrimSpace(rest)
			if rest != "" {
				defaultGlob = rest
			}
		}
	}

	names, err := listEntryNames(fs, device)
	if err != nil || len(names) == 0 {
		return nil, nil
	}

	var entries []bootentry.Entry
	for _, name := range names {
		if !strings.HasSuffix(strings.ToLower(name), ".conf") {
			continue
		}
		entryPath := entriesDir + `\` + name
		raw, err := fs.Read(device, entryPath)
		if err != nil {
			continue
		}

		e := parseEntryFile(trimNUL(raw), device, entryPath)
		if e.KernelPath == "" && !e.IsChainload {
			continue
		}
		if defaultGlob != "" && globMatch(defaultGlob, name) {
			e.IsDefault = true
		}
		e.Index = uint32(len(entries))
		entries = append(entries, e)
	}
	return entries, nil
}

func parseEntryFile(data []byte, device firmware.Handle, configPath string) bootentry.Entry {
	e := bootentry.Entry{
		ConfigPath:   configPath,
		ConfigType:   bootentry.ConfigSystemdBoot,
		DeviceHandle: device,
	}

	for _, line := range bytesutil.SplitLines(string(data)) {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || strings.HasPrefix(trimmed, "#") {
			continue
		}
		fields := strings.SplitN(trimmed, " ", 2)
		key := fields[0]
		value := ""
		if len(fields) == 2 {
			value = strings.TrimSpace(fields[1])
		}

		switch key {
		case "title":
			e.Title = value
		case "linux":
			e.KernelPath = bytesutil.NormalizeSeparators(value)
		case "initrd":
			if len(e.InitrdPaths) < bootentry.MaxInitrds {
				e.InitrdPaths = append(e.InitrdPaths, bytesutil.NormalizeSeparators(value))
			}
		case "options":
			e.Cmdline = value
		case "efi":
			e.EFIPath = bytesutil.NormalizeSeparators(value)
			e.IsChainload = true
		}
	}
	return e
}

// listEntryNames enumerates file names under entriesDir via the optional
// dirLister interface, which any real *vfs.VFS satisfies alongside Read.
// The VFS parameter stays narrowed to Read for parsers that don't need
// directory listing; test fakes can opt out of implementing it.
func listEntryNames(fs VFS, device firmware.Handle) ([]string, error) {
	lister, ok := fs.(dirLister)
	if !ok {
		return nil, nil
	}
	return lister.ReadDirNames(device, entriesDir)
}

// dirLister is implemented by vfs.VFS to list a directory's file names;
// kept as a separate, optional interface so test fakes that only need Read
// don't have to implement directory listing too.
type dirLister interface {
	ReadDirNames(device firmware.Handle, path string) ([]string, error)
}

// globMatch reports whether name matches a systemd-boot style glob: "*"
// as a trailing wildcard, otherwise an exact (case-insensitive, extension
// optional) match against the glob pattern's stem.
func globMatch(glob, name string) bool {
	glob = strings.ToLower(glob)
	name = strings.ToLower(name)
	if strings.HasSuffix(glob, "*") {
		return strings.HasPrefix(name, strings.TrimSuffix(glob, "*"))
	}
	if glob == name {
		return true
	}
	return strings.TrimSuffix(name, ".conf") == glob
}
