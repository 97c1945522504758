package core

import (
	"strings"
	"time"
)

const (
	GenderMale   Gender = "male"
	GenderFemale Gender = "female"
	GenderOther  Gender = "other"
)

const (
	StatusActive   Status = "active"
	StatusInactive Status = "inactive"
)

const (
	CategoryProduction WageCategory = "production"
	CategoryOvertime   WageCategory = "overtime"
	CategoryBonus      WageCategory = "bonus"
	CategoryPenalty    WageCategory = "penalty"
	CategoryAdjustment WageCategory = "adjustment"
)

type (
	Gender       string
	Status       string
	WageCategory string

	// Labour is an individual worker. When IsLinked is true all economic
	// activity routes through the pair's shared balance and CurrentBalance
	// stays pinned to zero.
	Labour struct {
		ID             string
		Code           string
		Org            string
		Name           string
		Gender         Gender
		Status         Status
		Tags           []string
		VehicleID      string
		CurrentBalance Money
		TotalEarned    Money
		TotalPaid      Money
		OpeningBalance Money
		PairID         string
		IsLinked       bool
		CreatedAt      time.Time
		UpdatedAt      time.Time
	}

	// LinkedPair treats exactly two workers as one economic unit with a
	// shared balance.
	LinkedPair struct {
		ID            string
		Org           string
		MemberA       string
		MemberB       string
		Status        Status
		SharedBalance Money
		CreatedAt     time.Time
	}

	// WageEntry is an immutable credit posting for earned wages.
	WageEntry struct {
		ID          string
		Org         string
		LabourID    string
		Amount      Money
		Description string
		Category    WageCategory
		BatchID     string
		Synced      bool
		CreatedAt   time.Time
	}

	// PaymentAllocation is one worker's share of a payment event.
	PaymentAllocation struct {
		LabourID string
		Amount   Money
	}

	// Payment is a debit posting. It is either allocated across workers or
	// scoped directly to a pair account via PairID.
	Payment struct {
		ID          string
		Org         string
		PairID      string
		Total       Money
		Description string
		Date        time.Time
		Allocations []PaymentAllocation
		CreatedAt   time.Time
	}

	// Adjustment is a manual expense-style posting; Kind decides whether it
	// counts as credit or debit when the ledger is rebuilt.
	Adjustment struct {
		ID          string
		Org         string
		LabourID    string
		PairID      string
		Kind        EntryKind
		Amount      Money
		Description string
		Date        time.Time
	}
)

func (g Gender) Valid() bool {
	switch g {
	case GenderMale, GenderFemale, GenderOther:
		return true
	}
	return false
}

func (s Status) Valid() bool {
	return s == StatusActive || s == StatusInactive
}

func (c WageCategory) Valid() bool {
	switch c {
	case CategoryProduction, CategoryOvertime, CategoryBonus, CategoryPenalty, CategoryAdjustment:
		return true
	}
	return false
}

// Members returns both member IDs in stored order. Member A is the first
// worker recorded at pairing time; odd-paisa remainders go to A.
func (p LinkedPair) Members() [2]string {
	return [2]string{p.MemberA, p.MemberB}
}

// AllocationFor returns the allocation amount for the given worker and
// whether the payment touches that worker at all.
func (p Payment) AllocationFor(labourID string) (Money, bool) {
	for _, a := range p.Allocations {
		if a.LabourID == labourID {
			return a.Amount, true
		}
	}
	return Money{}, false
}

// EntityRef identifies the subject of a ledger build or a search hit: a
// single worker or a linked pair. Resolving linked-vs-individual once at the
// top keeps the branch out of every downstream function.
type EntityRef struct {
	PairID   string
	LabourID string
	Members  [2]string
}

func IndividualRef(labourID string) EntityRef {
	return EntityRef{LabourID: labourID}
}

func PairRef(pair LinkedPair) EntityRef {
	return EntityRef{PairID: pair.ID, Members: pair.Members()}
}

func (r EntityRef) IsPair() bool { return r.PairID != "" }

// MemberIDs returns the worker IDs covered by the reference.
func (r EntityRef) MemberIDs() []string {
	if r.IsPair() {
		return []string{r.Members[0], r.Members[1]}
	}
	return []string{r.LabourID}
}

// HasTag reports whether the worker carries the given role tag.
func (l Labour) HasTag(tag string) bool {
	for _, t := range l.Tags {
		if strings.EqualFold(t, tag) {
			return true
		}
	}
	return false
}
