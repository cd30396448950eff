// This file is part of superboot
// SPDX-License-Identifier: GPL-3.0-only

// Command superboot is the firmware-launched entry point: it wires every
// core and collaborator package together into the five-phase flow
// original_source/src/main.c's efi_main describes (init -> VFS init ->
// scan -> menu -> boot), falling back to the file explorer whenever
// scanning turns up nothing or the chosen entry fails to boot.
package main

import (
	"log"
	"strings"

	efi "github.com/canonical/go-efilib"
	"github.com/cockroachdb/errors"

	"github.com/acer51-doctom/superboot/internal/bootconfig"
	"github.com/acer51-doctom/superboot/internal/bootentry"
	"github.com/acer51-doctom/superboot/internal/chainload"
	"github.com/acer51-doctom/superboot/internal/deploy"
	"github.com/acer51-doctom/superboot/internal/explorer"
	"github.com/acer51-doctom/superboot/internal/extfs"
	"github.com/acer51-doctom/superboot/internal/firmware"
	"github.com/acer51-doctom/superboot/internal/fsprobe"
	"github.com/acer51-doctom/superboot/internal/linuxboot"
	"github.com/acer51-doctom/superboot/internal/measure"
	"github.com/acer51-doctom/superboot/internal/menu"
	"github.com/acer51-doctom/superboot/internal/scanner"
	"github.com/acer51-doctom/superboot/internal/vfs"
)

// context bundles the per-run state the original SuperBootContext struct
// held: image handle, firmware adapter, and the verbose flag parsed out
// of our own load options.
type context struct {
	imageHandle firmware.Handle
	fw          firmware.Services
	verbose     bool
}

func main() {
	imageHandle := efi.ImageHandle()
	ctx := &context{imageHandle: imageHandle, fw: firmware.NewEFIServices(imageHandle)}

	if img, err := ctx.fw.LoadedImage(); err == nil {
		ctx.verbose = strings.Contains(strings.ToLower(img.LoadOptions), "verbose")
		if strings.Contains(strings.ToLower(img.LoadOptions), "deploy") {
			runDeploy(ctx)
		}
	}

	log.Print("SuperBoot — universal UEFI meta-bootloader")

	status := run(ctx)
	if status != nil {
		log.Printf("fatal: %v", status)
	}
	efi.ResetSystem(efi.ResetCold, efi.Success, nil)
}

// run executes the five phases. A non-nil return means boot failed after
// the file-explorer fallback also failed (or found nothing); a
// successful Linux/chain-load hand-off never returns at all.
func run(ctx *context) error {
	vfs.LoadExternalDrivers(ctx.fw)

	v := vfs.New(ctx.fw, []vfs.Driver{extfs.NewDriver(), fsprobe.NewBtrfs(), fsprobe.NewXFS(), fsprobe.NewNTFS()})
	defer v.CloseAll()

	list, err := scanner.ScanAll(ctx.fw, v, bootconfig.Registry())
	if err != nil || len(list.Entries) == 0 {
		log.Print("no bootable entries found — launching file explorer")
		return runExplorer(ctx, v)
	}
	if ctx.verbose {
		log.Printf("found %d bootable entries", len(list.Entries))
	}

	disp, keys := menu.NewConsole()
	selector := menu.NewTextMenu(ctx.fw, disp, keys)
	selected, err := selector.Run(list)
	if err != nil {
		log.Printf("menu: %v", err)
		return runExplorer(ctx, v)
	}

	if self, err := ctx.fw.LoadedImage(); err == nil {
		measure.MeasureAndLog(ctx.fw, v, self.DeviceHandle, self.FilePath, list)
	}

	if bootErr := dispatch(ctx, v, *selected); bootErr != nil {
		log.Printf("boot failed: %v", bootErr)
		return runExplorer(ctx, v)
	}
	return nil
}

// dispatch mirrors sb_boot_selected: exactly one of chainload or
// boot_linux runs, chosen by the selected entry's own flag.
func dispatch(ctx *context, v *vfs.VFS, selected bootentry.Entry) error {
	log.Printf("booting: %s", selected.Title)
	if selected.IsChainload {
		return chainload.Boot(ctx.fw, v, selected)
	}
	return linuxboot.Boot(ctx.fw, v, selected, ctx.imageHandle, efi.SystemTable())
}

// runExplorer mirrors sb_tui_file_browser's role as the terminal
// fallback: on success it dispatches the user's manual pick exactly like
// a scanner-discovered entry; on failure there is nothing left to try.
func runExplorer(ctx *context, v *vfs.VFS) error {
	disp, keys := menu.NewConsole()
	browser := explorer.NewTextExplorer(ctx.fw, v, disp, keys, efi.SimpleFileSystemProtocolGUID)
	picked, err := browser.Run()
	if err != nil {
		return errors.Wrap(err, "file explorer")
	}
	return dispatch(ctx, v, *picked)
}

// runDeploy installs the running binary to an internal ESP and
// registers it as a Boot#### entry when "deploy" appears in our own
// load options. original_source never wires sb_deploy_to_esp into
// efi_main itself, so this opt-in call site is this rewrite's own
// decision, recorded in DESIGN.md. Failure is logged, never fatal.
func runDeploy(ctx *context) {
	if err := (deploy.DefaultInstaller{}).Deploy(deploy.NewRealFirmware(ctx.fw), deploy.GPTPartitionTyper{}); err != nil {
		log.Printf("deploy: %v", err)
	}
}
