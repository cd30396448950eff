// This file is part of superboot
// SPDX-License-Identifier: GPL-3.0-only

package bootconfig

import (
	"strings"

	"github.com/acer51-doctom/superboot/internal/bootentry"
	"github.com/acer51-doctom/superboot/internal/bytesutil"
	"github.com/acer51-doctom/superboot/internal/firmware"
)

// parseMenuScript implements the minimum GRUB menu-script contract: a flat
// variable table set by "set name=value" statements, with $name/${name}
// interpolation, and menuentry blocks containing "linux"/"initrd" lines.
// Nested scripting (submenus, conditionals, function calls) is out of
// scope; a menuentry body is scanned line by line until its closing brace.
func parseMenuScript(data []byte, device firmware.Handle, configPath string, _ VFS) ([]bootentry.Entry, error) {
	vars := map[string]string{}
	lookup := func(name string) (string, bool) {
		v, ok := vars[name]
		return v, ok
	}

	var entries []bootentry.Entry
	var cur *bootentry.Entry
	inBlock := false

	for _, raw := range bytesutil.SplitLines(string(data)) {
		line := strings.TrimSpace(raw)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		if !inBlock {
			if name, value, ok := strings.Cut(line, "="); ok && strings.HasPrefix(line, "set ") {
				name = strings.TrimSpace(strings.TrimPrefix(name, "set"))
				vars[name] = strings.Trim(strings.TrimSpace(value), `"'`)
				continue
			}
			if title, ok := parseMenuEntryHeader(line); ok {
				cur = &bootentry.Entry{
					Title:        title,
					ConfigPath:   configPath,
					ConfigType:   bootentry.ConfigGrub,
					DeviceHandle: device,
				}
				inBlock = true
			}
			continue
		}

		if strings.HasPrefix(line, "}") {
			if cur != nil && (cur.KernelPath != "" || cur.IsChainload) {
				cur.Index = uint32(len(entries))
				entries = append(entries, *cur)
			}
			cur = nil
			inBlock = false
			continue
		}
		if cur == nil {
			continue
		}

		fields := strings.SplitN(line, " ", 2)
		keyword := fields[0]
		rest := ""
		if len(fields) == 2 {
			rest = bytesutil.Interpolate(strings.TrimSpace(fields[1]), lookup)
		}

		switch keyword {
		case "linux", "linux16", "linuxefi":
			path, cmdline, _ := strings.Cut(rest, " ")
			cur.KernelPath = bytesutil.NormalizeSeparators(path)
			cur.Cmdline = strings.TrimSpace(cmdline)
		case "initrd", "initrd16", "initrdefi":
			if len(cur.InitrdPaths) < bootentry.MaxInitrds {
				cur.InitrdPaths = append(cur.InitrdPaths, bytesutil.NormalizeSeparators(rest))
			}
		case "chainloader":
			cur.EFIPath = bytesutil.NormalizeSeparators(rest)
			cur.IsChainload = true
		}
	}

	return entries, nil
}

// parseMenuEntryHeader recognizes `menuentry "Title" {` (and the `{`
// trailing on its own line is also accepted by the caller's next-line
// scan, since a degenerate one-liner is the common case in hand-written
// configs).
func parseMenuEntryHeader(line string) (string, bool) {
	if !strings.HasPrefix(line, "menuentry") {
		return "", false
	}
	rest := strings.TrimSpace(strings.TrimPrefix(line, "menuentry"))
	quote := byte('"')
	if len(rest) > 0 && rest[0] == '\'' {
		quote = '\''
	}
	if len(rest) == 0 || rest[0] != quote {
		return "", false
	}
	end := strings.IndexByte(rest[1:], quote)
	if end < 0 {
		return "", false
	}
	return rest[1 : 1+end], true
}
