package source

import (
	"context"
	"slices"

	"github.com/okian/kpiboard/internal/domain/model"
	"github.com/okian/kpiboard/pkg/metrics"
)

// NameFixture identifies the built-in demo data in logs and metrics.
const NameFixture = "fixture"

var fixtureRecords = []model.KPIRecord{
	{
		ID: 5, Name: "Jhaniel Repuela", Date: model.NewDate(2025, 3, 12),
		SMSSent: 123, SMSLeads: 12, ColdCalls: 16, ColdCallLeads: 13, MailReceived: 12, MailLeads: 11,
		InboundLeads: 320, HotLeads: 4, WarmLeads: 12,
		Compared: 2, OffersSent: 4, ContractsSent: 1, SignedContracts: 1,
	},
	{
		ID: 6, Name: "Lana Brown", Date: model.NewDate(2025, 3, 12),
		SMSSent: 127, SMSLeads: 123, ColdCalls: 12, ColdCallLeads: 11, MailReceived: 31, MailLeads: 12,
		InboundLeads: 400, HotLeads: 2, WarmLeads: 3,
		Compared: 1, OffersSent: 1, ContractsSent: 1, SignedContracts: 0,
	},
	{
		ID: 4, Name: "Pedro Dev", Date: model.NewDate(2025, 3, 12),
		SMSSent: 2, SMSLeads: 1, ColdCalls: 1, ColdCallLeads: 0, MailReceived: 1, MailLeads: 10,
		InboundLeads: 1, HotLeads: 0, WarmLeads: 1,
		Compared: 0, OffersSent: 12, ContractsSent: 1, SignedContracts: 0,
	},
	{
		ID: 7, Name: "Jhaniel Repuela", Date: model.NewDate(2025, 3, 11),
		SMSSent: 98, SMSLeads: 8, ColdCalls: 22, ColdCallLeads: 15, MailReceived: 18, MailLeads: 9,
		InboundLeads: 280, HotLeads: 6, WarmLeads: 10,
		Compared: 3, OffersSent: 5, ContractsSent: 2, SignedContracts: 1,
	},
	{
		ID: 8, Name: "Lana Brown", Date: model.NewDate(2025, 3, 11),
		SMSSent: 145, SMSLeads: 95, ColdCalls: 18, ColdCallLeads: 14, MailReceived: 25, MailLeads: 15,
		InboundLeads: 350, HotLeads: 5, WarmLeads: 8,
		Compared: 2, OffersSent: 3, ContractsSent: 2, SignedContracts: 1,
	},
}

// FixtureRecords returns a copy of the built-in demo record set.
func FixtureRecords() []model.KPIRecord {
	return slices.Clone(fixtureRecords)
}

// Fixture serves the built-in demo record set.
type Fixture struct{}

// NewFixture creates the fixture source.
func NewFixture() *Fixture { return &Fixture{} }

// Name implements Source.
func (*Fixture) Name() string { return NameFixture }

// Fetch returns every fixture record; the query is left to the caller's filter.
func (*Fixture) Fetch(context.Context, Query) ([]model.KPIRecord, error) {
	metrics.RecordSourceFetch(NameFixture, "ok", 0)
	return FixtureRecords(), nil
}
