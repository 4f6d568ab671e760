package core

import (
	"context"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/valter-silva-au/event-promo/pkg/models"
)

// VerdictKind is the outcome class of a verification.
type VerdictKind string

const (
	VerdictAccepted VerdictKind = "accepted"
	VerdictRejected VerdictKind = "rejected"
	VerdictDeferred VerdictKind = "deferred"
)

// noDiscrepancyReason is used when a comparator fails content without
// naming a discrepancy.
const noDiscrepancyReason = "comparator reported failure without discrepancies"

// blankDiscrepancyReason stands in for an empty discrepancy entry.
const blankDiscrepancyReason = "unspecified discrepancy"

// Verdict is the gate's decision on one unit's content.
type Verdict struct {
	Kind          VerdictKind
	Discrepancies []string
	Reason        string
}

// Passed is true only for an accepted verdict.
func (v Verdict) Passed() bool { return v.Kind == VerdictAccepted }

// Err converts a blocking verdict into the matching error, or nil.
func (v Verdict) Err() error {
	switch v.Kind {
	case VerdictAccepted:
		return nil
	case VerdictRejected:
		return &VerificationFailedError{Discrepancies: v.Discrepancies}
	default:
		return &VerificationError{Reason: v.Reason}
	}
}

// VerificationGate blocks publication of content that disagrees with the
// authoritative event page.
type VerificationGate interface {
	Verify(ctx context.Context, event models.Event, scenes []models.Scene) Verdict
}

type verificationGate struct {
	facts      FactRetriever
	comparator ContentComparator
	logger     logrus.FieldLogger
}

// NewVerificationGate creates a gate backed by a fact retriever and a
// content comparator.
func NewVerificationGate(facts FactRetriever, comparator ContentComparator, logger logrus.FieldLogger) VerificationGate {
	if logger == nil {
		logger = discardLogger()
	}
	return &verificationGate{facts: facts, comparator: comparator, logger: logger}
}

// Verify never lets an error through as acceptance: any failure to retrieve
// or compare, including a panic, defers the unit.
func (g *verificationGate) Verify(ctx context.Context, event models.Event, scenes []models.Scene) (verdict Verdict) {
	log := g.logger.WithField("event", event.ID)
	defer func() {
		if r := recover(); r != nil {
			verdict = Verdict{Kind: VerdictDeferred, Reason: fmt.Sprintf("panic during verification: %v", r)}
		}
		log.WithField("verdict", verdict.Kind).Debug("verification finished")
	}()

	if g.facts == nil || g.comparator == nil {
		return Verdict{Kind: VerdictDeferred, Reason: "no fact retriever or comparator configured"}
	}

	facts, err := g.facts.FetchFacts(ctx, event.URL)
	if err != nil {
		return Verdict{Kind: VerdictDeferred, Reason: fmt.Sprintf("fetching facts: %v", err)}
	}
	if facts == nil {
		return Verdict{Kind: VerdictDeferred, Reason: "fetching facts: empty result"}
	}

	cmp, err := g.comparator.Compare(ctx, scenes, facts, event)
	if err != nil {
		return Verdict{Kind: VerdictDeferred, Reason: fmt.Sprintf("comparing content: %v", err)}
	}
	if cmp == nil {
		return Verdict{Kind: VerdictDeferred, Reason: "comparing content: empty result"}
	}

	// Any listed discrepancy rejects, whatever its content.
	if len(cmp.Discrepancies) > 0 {
		discrepancies := make([]string, 0, len(cmp.Discrepancies))
		for _, d := range cmp.Discrepancies {
			if d = strings.TrimSpace(d); d == "" {
				d = blankDiscrepancyReason
			}
			discrepancies = append(discrepancies, d)
		}
		return Verdict{Kind: VerdictRejected, Discrepancies: discrepancies}
	}
	if !cmp.Passed {
		return Verdict{Kind: VerdictRejected, Discrepancies: []string{noDiscrepancyReason}}
	}
	return Verdict{Kind: VerdictAccepted}
}
