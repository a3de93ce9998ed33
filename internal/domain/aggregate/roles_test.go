package aggregate_test

import (
	"testing"

	"github.com/okian/kpiboard/internal/domain/aggregate"
	"github.com/okian/kpiboard/internal/domain/model"
	"github.com/okian/kpiboard/internal/domain/settings"
	. "github.com/smartystreets/goconvey/convey"
)

func names(ms []aggregate.RankedMember) []string {
	out := make([]string, 0, len(ms))
	for _, m := range ms {
		out = append(out, m.Member)
	}
	return out
}

func TestGroupByRole(t *testing.T) {
	Convey("Given the sample team and the default roles", t, func() {
		byRole := aggregate.GroupByRole(sample(), settings.DefaultRoles(), 0)

		Convey("All four roles are present", func() {
			So(len(byRole), ShouldEqual, 4)
			ordered := aggregate.OrderedRankings(byRole)
			So(ordered[0].Role, ShouldEqual, settings.LeadGenerator)
			So(ordered[3].Label, ShouldEqual, "Property Analysts")
		})

		Convey("Assigned members only compete in their own role", func() {
			lg := byRole[settings.LeadGenerator]
			So(names(lg.Top), ShouldResemble, []string{"Jhaniel Repuela"})
			So(lg.Top[0].Score, ShouldEqual, 28)
			So(lg.Top[0].Detail, ShouldEqual, "28 leads from 38 calls")
			So(lg.MetricLabel, ShouldEqual, "Avg Lead Rate")

			closers := byRole[settings.Closer]
			So(names(closers.Top), ShouldResemble, []string{"Jhaniel Repuela", "Lana Brown"})
			So(closers.Top[1].Detail, ShouldEqual, "1 signed / 4 offers")
		})

		Convey("Rankings sort by score and average the rate of every qualifier", func() {
			sms := byRole[settings.SMSMarketing]
			So(names(sms.Top), ShouldResemble, []string{"Jhaniel Repuela", "Pedro Dev"})
			So(sms.TopPerformer, ShouldEqual, "Jhaniel Repuela")
			So(sms.AvgRate, ShouldAlmostEqual, (20.0/221*100+50)/2, 0.0001)
		})

		Convey("Analysts are picked by compared properties", func() {
			an := byRole[settings.Analyst]
			So(names(an.Top), ShouldResemble, []string{"Jhaniel Repuela"})
			So(an.Top[0].Detail, ShouldEqual, "5 compared, 0 rejected")
		})
	})

	Convey("Given more qualifiers than the display limit", t, func() {
		var recs []model.KPIRecord
		for i, n := range []string{"E", "D", "C", "B", "A"} {
			recs = append(recs, model.KPIRecord{Name: n, ColdCalls: 10, ColdCallLeads: i + 1})
		}
		recs = append(recs, model.KPIRecord{Name: "F", ColdCalls: 10, ColdCallLeads: 5})
		byRole := aggregate.GroupByRole(recs, settings.Roles{}, 3)
		lg := byRole[settings.LeadGenerator]

		Convey("Only the top entries are kept and ties break by name", func() {
			So(names(lg.Top), ShouldResemble, []string{"A", "F", "B"})
			So(lg.Qualifying, ShouldEqual, 6)
		})

		Convey("The average covers every qualifier, not just the top", func() {
			So(lg.AvgRate, ShouldAlmostEqual, (10.0+20+30+40+50+50)/6, 0.0001)
		})
	})

	Convey("Given an assigned closer who also made cold calls", t, func() {
		roles := settings.Roles{"Lana Brown": settings.Closer}
		recs := []model.KPIRecord{
			{Name: "Lana Brown", ColdCalls: 10, ColdCallLeads: 9, OffersSent: 4, SignedContracts: 1},
			{Name: "Omar", ColdCalls: 10, ColdCallLeads: 2},
		}
		byRole := aggregate.GroupByRole(recs, roles, 3)

		Convey("The closer is ranked only as a closer", func() {
			So(names(byRole[settings.Closer].Top), ShouldResemble, []string{"Lana Brown"})
			So(names(byRole[settings.LeadGenerator].Top), ShouldResemble, []string{"Omar"})
		})

		Convey("Out-of-role activity stays out of the role average", func() {
			lg := byRole[settings.LeadGenerator]
			So(lg.Qualifying, ShouldEqual, 1)
			So(lg.AvgRate, ShouldAlmostEqual, 20.0, 0.0001)
		})

		Convey("An unassigned member competes wherever it has activity", func() {
			So(names(byRole[settings.Closer].Top), ShouldNotContain, "Omar")
			So(byRole[settings.LeadGenerator].TopPerformer, ShouldEqual, "Omar")
		})
	})

	Convey("Given no records", t, func() {
		byRole := aggregate.GroupByRole(nil, settings.DefaultRoles(), 3)

		Convey("Each role is empty with a zero average", func() {
			for _, role := range settings.AllRoles {
				So(byRole[role].Top, ShouldBeEmpty)
				So(byRole[role].AvgRate, ShouldEqual, 0.0)
				So(byRole[role].TopPerformer, ShouldEqual, "N/A")
			}
		})
	})
}

func TestComputeImprovementPlan(t *testing.T) {
	b := settings.DefaultBenchmarks()

	Convey("Given a lead generator with calls but no leads", t, func() {
		recs := []model.KPIRecord{{Name: "Gina", Member: "Gina", ColdCalls: 100}}
		plans := aggregate.ComputeImprovementPlan(recs, b, settings.DefaultRoles())

		Convey("An issue with the minimum target is emitted", func() {
			So(len(plans), ShouldEqual, 1)
			So(plans[0].Role, ShouldEqual, settings.LeadGenerator)
			So(len(plans[0].Issues), ShouldEqual, 1)
			So(plans[0].Issues[0].Metric, ShouldEqual, "Cold Call Response Rate")
			So(plans[0].Issues[0].Target, ShouldEqual, 1.0)
			So(plans[0].Issues[0].Message, ShouldEqual, "Rate is 0.0%, target is >1%")
			So(plans[0].Strengths, ShouldBeEmpty)
		})
	})

	Convey("Given lead generators at and above target", t, func() {
		recs := []model.KPIRecord{
			{Name: "Gina", ColdCalls: 100, ColdCallLeads: 2},
			{Name: "Ian", ColdCalls: 100, ColdCallLeads: 5},
		}
		plans := aggregate.ComputeImprovementPlan(recs, b, settings.DefaultRoles())

		Convey("Strengths are graded good or excellent", func() {
			So(plans[0].Strengths, ShouldResemble, []string{"Good Cold Call Rate: 2.0%"})
			So(plans[1].Strengths, ShouldResemble, []string{"Excellent Cold Call Rate: 5.0% (Target >3%)"})
		})
	})

	Convey("Given the sample team", t, func() {
		plans := aggregate.ComputeImprovementPlan(sample(), b, settings.DefaultRoles())

		Convey("Unmapped members are excluded and results are name ordered", func() {
			So(len(plans), ShouldEqual, 2)
			So(plans[0].Member, ShouldEqual, "Lana Brown")
			So(plans[1].Member, ShouldEqual, "Pedro Dev")
		})

		Convey("Closers report deals and SMS staff report campaign rates", func() {
			So(plans[0].Strengths, ShouldResemble, []string{"1 deals signed from 4 offers"})
			So(plans[1].Strengths, ShouldResemble, []string{"Excellent SMS Campaign: 50.0% (Target >15%)"})
		})
	})

	Convey("Given closers and analysts without activity", t, func() {
		roles := settings.Roles{"Lana Brown": settings.Closer, "Omar": settings.Analyst, "Sam": settings.Closer, "Pat": settings.SMSMarketing}
		recs := []model.KPIRecord{
			{Name: "Lana Brown", OffersSent: 3},
			{Name: "Sam"},
			{Name: "Omar"},
			{Name: "Pat"},
		}
		plans := aggregate.ComputeImprovementPlan(recs, b, roles)

		Convey("Closers and analysts get explicit issues", func() {
			So(len(plans), ShouldEqual, 3)
			So(plans[0].Issues[0].Message, ShouldEqual, "Offers sent but no deals signed yet.")
			So(plans[1].Issues[0].Message, ShouldEqual, "No properties compared in this period")
			So(plans[2].Issues[0].Message, ShouldEqual, "No offers sent in this period.")
		})

		Convey("A rate-based role with no volume is omitted", func() {
			for _, p := range plans {
				So(p.Member, ShouldNotEqual, "Pat")
			}
		})
	})
}
