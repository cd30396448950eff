// This file is part of superboot
// SPDX-License-Identifier: GPL-3.0-only

//go:build !test

package deploy

import (
	efi "github.com/canonical/go-efilib"
	"github.com/google/uuid"

	"github.com/acer51-doctom/superboot/internal/firmware"
)

// GPTPartitionTyper implements PartitionTyper against
// EFI_PARTITION_INFO_PROTOCOL, the UEFI-spec protocol that exists
// specifically to answer "what is this partition's own type GUID"
// directly off a logical-partition handle, without re-parsing the GPT
// header from the parent disk (a partition handle's own BlockIO reads
// are relative to the partition's first block, not the disk's, so there
// is no GPT header to re-read from there in the first place).
type GPTPartitionTyper struct{}

func (GPTPartitionTyper) PartitionTypeGUID(h firmware.Handle) (uuid.UUID, bool) {
	proto, err := efi.OpenProtocol(h, efi.PartitionInfoProtocolGUID)
	if err != nil {
		return uuid.UUID{}, false
	}
	info, ok := proto.(*efi.PartitionInfoProtocol)
	if !ok || info.Type != efi.PartitionTypeGPT {
		return uuid.UUID{}, false
	}
	return uuid.UUID(info.Gpt.PartitionTypeGUID), true
}
