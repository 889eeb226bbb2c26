package documents

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/odyssey-erp/odyssey-books/internal/masterdata"
	"github.com/odyssey-erp/odyssey-books/internal/pricing"
	"github.com/odyssey-erp/odyssey-books/internal/reconcile"
)

// Masters is the reference data a submission is checked against.
type Masters struct {
	Organization masterdata.Organization
	Party        masterdata.Party
	Items        map[uuid.UUID]masterdata.Item
}

// RejectionObserver counts documents refused by the reconciliation gate.
type RejectionObserver interface {
	ObserveRejection(document string, findings int)
}

// Intake loads master data and runs the reconciliation gate for one document kind.
type Intake struct {
	reader   masterdata.Reader
	kind     masterdata.PartyKind
	opts     masterdata.ClaimOptions
	document string
	observer RejectionObserver
}

// NewIntake constructs an Intake. observer may be nil.
func NewIntake(reader masterdata.Reader, document string, kind masterdata.PartyKind, opts masterdata.ClaimOptions, observer RejectionObserver) *Intake {
	return &Intake{reader: reader, kind: kind, opts: opts, document: document, observer: observer}
}

// Load fetches organization, party and items concurrently.
func (in *Intake) Load(ctx context.Context, organizationID string, partyID uuid.UUID, body Body) (Masters, error) {
	ids := body.ItemIDs()
	if err := masterdata.CheckDuplicateItems(ids); err != nil {
		return Masters{}, err
	}
	var (
		m     Masters
		items []masterdata.Item
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		org, err := in.reader.Organization(gctx, organizationID)
		m.Organization = org
		return err
	})
	g.Go(func() error {
		party, err := in.reader.Party(gctx, organizationID, in.kind, partyID)
		m.Party = party
		return err
	})
	g.Go(func() error {
		var err error
		items, err = in.reader.Items(gctx, organizationID, ids)
		return err
	})
	if err := g.Wait(); err != nil {
		return Masters{}, err
	}
	index, err := masterdata.IndexItems(ids, items)
	if err != nil {
		return Masters{}, err
	}
	m.Items = index
	return m, nil
}

// Verified is an accepted submission ready to be persisted.
type Verified struct {
	Masters Masters
	Totals  pricing.Totals
	Summary Summary
	Lines   []Line
}

// Evaluate checks the submission against m and recomputes every figure.
// Input findings stop evaluation before calculation; calculation findings
// are collected in full. Either way the error is a *reconcile.RejectedError.
func (in *Intake) Evaluate(body Body, m Masters) (Verified, error) {
	report := &reconcile.Report{}
	masterdata.CheckHeader(report, m.Organization, m.Party, body.header())
	masterdata.CheckItemClaims(report, body.claims(), m.Items, in.opts)
	if !report.OK() {
		in.reject(report)
		return Verified{}, report.Err()
	}

	mode := pricing.ResolveTaxMode(m.Party.TaxType, body.SourceOfSupply, body.DestinationOfSupply)
	result := reconcile.CalculateAndValidate(body.document(mode, m.Items))
	if !result.Accepted() {
		in.reject(result.Report)
		return Verified{}, result.Report.Err()
	}
	summary, lines := buildRecord(body, result.Totals)
	return Verified{Masters: m, Totals: result.Totals, Summary: summary, Lines: lines}, nil
}

// Check loads masters and evaluates the submission in one step.
func (in *Intake) Check(ctx context.Context, organizationID string, partyID uuid.UUID, body Body) (Verified, error) {
	m, err := in.Load(ctx, organizationID, partyID, body)
	if err != nil {
		return Verified{}, fmt.Errorf("%s: %w", in.document, err)
	}
	return in.Evaluate(body, m)
}

func (in *Intake) reject(report *reconcile.Report) {
	if in.observer != nil {
		in.observer.ObserveRejection(in.document, report.Len())
	}
}
