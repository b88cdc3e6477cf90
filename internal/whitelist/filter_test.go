// File: internal/whitelist/filter_test.go
// Author: momentics <momentics@gmail.com>

package whitelist

import (
	"testing"

	"github.com/momentics/ioc-mediator/internal/config"
)

func TestTxFilterDropsNonWhitelistedSignal(t *testing.T) {
	f := New(config.TxTable())
	if f.Allow(config.SigSTFR) {
		t.Fatal("SigSTFR must not be forwarded in the tx direction: not in tx whitelist")
	}
}

func TestTxFilterAllowsIndividuallyWhitelistedSignal(t *testing.T) {
	f := New(config.TxTable())
	if !f.Allow(config.SigATEMP) {
		t.Fatal("SigATEMP is individually whitelisted in tx and must be allowed")
	}
}

func TestFilterGroupMemberRequiresBothGates(t *testing.T) {
	f := New(config.RxTable())
	grp, ok := f.GroupOf(config.SigSTFR)
	if !ok || grp != config.GrpBody {
		t.Fatalf("expected SigSTFR to be a GrpBody member, got grp=%v ok=%v", grp, ok)
	}
	if !f.AllowGroupMember(config.GrpBody, config.SigSTFR) {
		t.Fatal("GrpBody and SigSTFR are both active and whitelisted in rx; member must be allowed")
	}
	if f.AllowGroupMember(config.GrpDiag, config.SigSTFR) {
		t.Fatal("GrpDiag is inactive; no member of it may be forwarded through it")
	}
}

func TestFilterRejectsUnknownSignal(t *testing.T) {
	f := New(config.RxTable())
	if f.Allow(config.SignalID(0xFFFF)) {
		t.Fatal("an unknown signal id must never be admitted")
	}
}

func TestFilterInactiveSignalRejectedEvenIfWhitelisted(t *testing.T) {
	rx := config.RxTable()
	rx.SignalWhitelist[config.SigSpeed] = true // force-whitelist an inactive signal
	f := New(rx)
	if f.Allow(config.SigSpeed) {
		t.Fatal("an inactive signal must be rejected regardless of whitelist membership")
	}
}
