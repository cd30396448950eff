// This file is part of superboot
// SPDX-License-Identifier: GPL-3.0-only

package measure

import (
	"crypto"
	"encoding/binary"
	"fmt"
	"log"

	"github.com/canonical/go-tpm2"
	secboot_efi "github.com/snapcore/secboot/efi"
	secboot_tpm2 "github.com/snapcore/secboot/tpm2"
)

// Indirected the way reseal.go indirects its secboot_efi calls, so tests
// can substitute failing stand-ins without a real TPM or PE parser.
var (
	sbefiAddBootManagerProfile      = secboot_efi.AddBootManagerProfile
	sbefiAddSecureBootPolicyProfile = secboot_efi.AddSecureBootPolicyProfile
)

// computeProfile builds a PCR protection profile over loadChains, the
// same two-PCR shape reseal.go's computePCRProtectionProfile builds
// (PCR4 boot manager code, PCR7 secure boot policy), plus the same PCR12
// epoch measurement snap-bootstrap performs. SuperBoot has no kernel
// commandline baked into its own image, so unlike reseal.go's XXX note
// there is nothing else left unmeasured on PCR12 here.
func computeProfile(loadChains []*secboot_efi.ImageLoadEvent) (*secboot_tpm2.PCRProtectionProfile, error) {
	profile := secboot_tpm2.NewPCRProtectionProfile()

	pcr4Params := secboot_efi.BootManagerProfileParams{
		PCRAlgorithm:  tpm2.HashAlgorithmSHA256,
		LoadSequences: loadChains,
	}
	if err := sbefiAddBootManagerProfile(profile, &pcr4Params); err != nil {
		return nil, fmt.Errorf("cannot add EFI boot manager profile: %w", err)
	}

	pcr7Params := secboot_efi.SecureBootPolicyProfileParams{
		PCRAlgorithm:  tpm2.HashAlgorithmSHA256,
		LoadSequences: loadChains,
	}
	if err := sbefiAddSecureBootPolicyProfile(profile, &pcr7Params); err != nil {
		return nil, fmt.Errorf("cannot add EFI secure boot policy profile: %w", err)
	}

	profile.AddPCRValue(tpm2.HashAlgorithmSHA256, 12, make([]byte, tpm2.HashAlgorithmSHA256.Size()))

	h := crypto.SHA256.New()
	binary.Write(h, binary.LittleEndian, uint32(0))
	profile.ExtendPCR(tpm2.HashAlgorithmSHA256, 12, h.Sum(nil))

	log.Println("superboot: computed PCR profile:", profile)
	pcrs, digests, err := profile.ComputePCRDigests(nil, tpm2.HashAlgorithmSHA256)
	if err != nil {
		return nil, fmt.Errorf("cannot compute PCR digests: %w", err)
	}
	log.Println("superboot: PCR selection:", pcrs)
	for _, digest := range digests {
		log.Printf("superboot: computed PCR digest: %x\n", digest)
	}

	return profile, nil
}
