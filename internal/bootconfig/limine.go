// This file is part of superboot
// SPDX-License-Identifier: GPL-3.0-only

package bootconfig

import (
	"strings"

	"github.com/acer51-doctom/superboot/internal/bootentry"
	"github.com/acer51-doctom/superboot/internal/bytesutil"
	"github.com/acer51-doctom/superboot/internal/firmware"
)

// parseSection implements the Limine-style section format: a line
// starting with '/' opens a new entry (its remainder is the title); a
// second such line implicitly closes the previous one. Indented
// "key: value" lines inside a section set fields.
func parseSection(data []byte, device firmware.Handle, configPath string, _ VFS) ([]bootentry.Entry, error) {
	var entries []bootentry.Entry
	var cur *bootentry.Entry

	closeCurrent := func() {
		if cur != nil && (cur.KernelPath != "" || cur.IsChainload) {
			cur.Index = uint32(len(entries))
			entries = append(entries, *cur)
		}
		cur = nil
	}

	for _, line := range bytesutil.SplitLines(string(data)) {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || strings.HasPrefix(trimmed, "#") {
			continue
		}

		if strings.HasPrefix(trimmed, "/") {
			closeCurrent()
			cur = &bootentry.Entry{
				Title:      trimmed[1:],
				ConfigPath: configPath,
				ConfigType: bootentry.ConfigLimine,
				DeviceHandle: device,
			}
			continue
		}

		if cur == nil {
			continue
		}

		key, value, ok := strings.Cut(trimmed, ":")
		if !ok {
			continue
		}
		key = strings.TrimSpace(key)
		value = strings.TrimSpace(value)

		switch key {
		case "kernel_path":
			cur.KernelPath = limineToUEFIPath(value)
		case "kernel_cmdline", "cmdline":
			cur.Cmdline = value
		case "module_path":
			if len(cur.InitrdPaths) < bootentry.MaxInitrds {
				cur.InitrdPaths = append(cur.InitrdPaths, limineToUEFIPath(value))
			}
		case "protocol":
			if value == "chainload" {
				cur.IsChainload = true
			}
		case "path", "image_path":
			cur.EFIPath = limineToUEFIPath(value)
			cur.IsChainload = true
		}
	}
	closeCurrent()

	return entries, nil
}

// limineToUEFIPath strips a Limine device prefix (e.g. "boot():" or
// "guid(XXXX):") and converts the remainder to a backslash-rooted path.
func limineToUEFIPath(value string) string {
	if idx := strings.Index(value, "):"); idx >= 0 {
		value = value[idx+2:]
	}
	return bytesutil.NormalizeSeparators(value)
}
