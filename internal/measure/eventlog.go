// This file is part of superboot
// SPDX-License-Identifier: GPL-3.0-only

package measure

import (
	"bytes"
	"fmt"
	"log"

	"github.com/canonical/tcglog-parser"
)

// EventLogSource is the optional capability a firmware adapter can
// expose alongside firmware.Services: the raw TCG event log the
// platform firmware has been accumulating since power-on. Not every
// firmware.Services implementation can provide this (a test fake has
// no real TPM to have logged anything to), so MeasureAndLog probes for
// it with a type assertion rather than widening firmware.Services.
type EventLogSource interface {
	EventLog() ([]byte, error)
}

// logEventLog reads and summarizes the platform's own TCG event log
// alongside the predicted profile ComputeBootChainProfile builds, the
// same two-source posture reseal_test.go's fakes exercise (a
// hand-built predicted log compared against what ReadLog parses back).
// This is diagnostic only: a parse failure is logged and never affects
// which entry boots.
func logEventLog(fw any) {
	src, ok := fw.(EventLogSource)
	if !ok {
		return
	}

	data, err := src.EventLog()
	if err != nil {
		log.Printf("superboot: event log unavailable: %v", err)
		return
	}

	logged, err := tcglog.ReadLog(bytes.NewReader(data), &tcglog.LogOptions{})
	if err != nil {
		log.Printf("superboot: cannot parse event log: %v", err)
		return
	}

	for _, event := range logged.Events {
		log.Print(summarizeEvent(event))
	}
}

func summarizeEvent(event *tcglog.Event) string {
	return fmt.Sprintf("superboot: TCG event PCR%d type=%s", event.PCRIndex, event.EventType)
}
