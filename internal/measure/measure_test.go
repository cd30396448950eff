// This file is part of superboot
// SPDX-License-Identifier: GPL-3.0-only

package measure

import (
	"errors"
	"testing"

	secboot_efi "github.com/snapcore/secboot/efi"
	secboot_tpm2 "github.com/snapcore/secboot/tpm2"

	"github.com/acer51-doctom/superboot/internal/bootentry"
	"github.com/acer51-doctom/superboot/internal/firmware"
)

type fakeVFS struct {
	files map[string][]byte
}

func (f *fakeVFS) Read(_ firmware.Handle, path string) ([]byte, error) {
	data, ok := f.files[path]
	if !ok {
		return nil, errors.New("not found")
	}
	return data, nil
}

func TestImageOpenReadsWholeAssetFromVFS(t *testing.T) {
	vfs := &fakeVFS{files: map[string][]byte{`\vmlinuz`: []byte("kernel-bytes")}}
	img := newImage(vfs, "dev0", `\vmlinuz`)

	if img.String() != `\vmlinuz` {
		t.Fatalf("String() = %q", img.String())
	}

	f, err := img.Open()
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	if f.Size() != int64(len("kernel-bytes")) {
		t.Fatalf("Size() = %d, want %d", f.Size(), len("kernel-bytes"))
	}

	buf := make([]byte, 6)
	n, err := f.ReadAt(buf, 0)
	if err != nil && n != 6 {
		t.Fatalf("ReadAt: n=%d err=%v", n, err)
	}
	if string(buf) != "kernel" {
		t.Fatalf("ReadAt = %q, want %q", buf, "kernel")
	}
}

func TestImageOpenPropagatesVFSError(t *testing.T) {
	vfs := &fakeVFS{files: map[string][]byte{}}
	img := newImage(vfs, "dev0", `\missing`)

	if _, err := img.Open(); err == nil {
		t.Fatal("expected error for missing asset")
	}
}

func TestAssetReadAtPastEndReturnsEOF(t *testing.T) {
	a := &asset{data: []byte("abc")}
	buf := make([]byte, 4)
	n, err := a.ReadAt(buf, 10)
	if n != 0 || err == nil {
		t.Fatalf("n=%d err=%v, want 0 and an error", n, err)
	}
}

func TestComputeBootChainProfileBuildsRootAndChildrenPerEntry(t *testing.T) {
	orig4, orig7 := sbefiAddBootManagerProfile, sbefiAddSecureBootPolicyProfile
	defer func() { sbefiAddBootManagerProfile, sbefiAddSecureBootPolicyProfile = orig4, orig7 }()

	var gotLoadChains []*secboot_efi.ImageLoadEvent
	sbefiAddBootManagerProfile = func(_ *secboot_tpm2.PCRProtectionProfile, params *secboot_efi.BootManagerProfileParams) error {
		gotLoadChains = params.LoadSequences
		return nil
	}
	sbefiAddSecureBootPolicyProfile = func(*secboot_tpm2.PCRProtectionProfile, *secboot_efi.SecureBootPolicyProfileParams) error {
		return nil
	}

	vfs := &fakeVFS{files: map[string][]byte{
		`\EFI\BOOT\BOOTX64.EFI`: []byte("self"),
		`\vmlinuz`:              []byte("kernel"),
	}}
	list := &bootentry.List{Entries: []bootentry.Entry{
		{DeviceHandle: "dev0", KernelPath: `\vmlinuz`},
	}}

	profile, err := ComputeBootChainProfile(vfs, "dev0", `\EFI\BOOT\BOOTX64.EFI`, list)
	if err != nil {
		t.Fatal(err)
	}
	if profile == nil {
		t.Fatal("expected non-nil profile")
	}

	if len(gotLoadChains) != 1 {
		t.Fatalf("got %d root load events, want 1", len(gotLoadChains))
	}
	root := gotLoadChains[0]
	if root.Source != secboot_efi.Firmware {
		t.Fatalf("root.Source = %v, want Firmware", root.Source)
	}
	if len(root.Next) != 1 || root.Next[0].Source != secboot_efi.Shim {
		t.Fatalf("root.Next = %+v, want one Shim-sourced child", root.Next)
	}
}

func TestComputeBootChainProfilePropagatesProfileError(t *testing.T) {
	orig4 := sbefiAddBootManagerProfile
	defer func() { sbefiAddBootManagerProfile = orig4 }()
	sbefiAddBootManagerProfile = func(*secboot_tpm2.PCRProtectionProfile, *secboot_efi.BootManagerProfileParams) error {
		return errors.New("boom")
	}

	vfs := &fakeVFS{files: map[string][]byte{`\self`: []byte("x")}}
	_, err := ComputeBootChainProfile(vfs, "dev0", `\self`, &bootentry.List{})
	if err == nil {
		t.Fatal("expected error to propagate")
	}
}

func TestMeasureAndLogSwallowsFailure(t *testing.T) {
	orig4 := sbefiAddBootManagerProfile
	defer func() { sbefiAddBootManagerProfile = orig4 }()
	sbefiAddBootManagerProfile = func(*secboot_tpm2.PCRProtectionProfile, *secboot_efi.BootManagerProfileParams) error {
		return errors.New("no tpm simulator available")
	}

	vfs := &fakeVFS{files: map[string][]byte{`\self`: []byte("x")}}
	// Must not panic and must not return anything the caller could
	// mistake for a boot-blocking failure.
	MeasureAndLog(nil, vfs, "dev0", `\self`, &bootentry.List{})
}

func TestMeasureAndLogSkipsEventLogWhenFirmwareLacksIt(t *testing.T) {
	orig4 := sbefiAddBootManagerProfile
	defer func() { sbefiAddBootManagerProfile = orig4 }()
	sbefiAddBootManagerProfile = func(*secboot_tpm2.PCRProtectionProfile, *secboot_efi.BootManagerProfileParams) error {
		return nil
	}
	orig7 := sbefiAddSecureBootPolicyProfile
	defer func() { sbefiAddSecureBootPolicyProfile = orig7 }()
	sbefiAddSecureBootPolicyProfile = func(*secboot_tpm2.PCRProtectionProfile, *secboot_efi.SecureBootPolicyProfileParams) error {
		return nil
	}

	vfs := &fakeVFS{files: map[string][]byte{`\self`: []byte("x")}}
	// firmware.Services itself exposes no EventLog method; MeasureAndLog
	// must not panic trying to call one.
	MeasureAndLog(nil, vfs, "dev0", `\self`, &bootentry.List{})
}

type fakeEventLogSource struct {
	data []byte
	err  error
}

func (f fakeEventLogSource) EventLog() ([]byte, error) {
	return f.data, f.err
}

func TestLogEventLogIgnoresSourceWithoutEventLogMethod(t *testing.T) {
	// Must not panic on a value that isn't an EventLogSource.
	logEventLog(42)
}

func TestLogEventLogSwallowsReadFailure(t *testing.T) {
	logEventLog(fakeEventLogSource{err: errors.New("no tcg2 protocol")})
}

func TestLogEventLogSwallowsParseFailure(t *testing.T) {
	logEventLog(fakeEventLogSource{data: []byte("not a tcg log")})
}
