package assign_test

import (
	"context"
	"errors"
	"os"
	"testing"

	"github.com/okian/encore/internal/adapters/milp"
	"github.com/okian/encore/internal/domain/assign"
	"github.com/okian/encore/internal/domain/model"
	"github.com/okian/encore/internal/domain/profile"
	"github.com/okian/encore/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func TestMain(m *testing.M) {
	if err := logger.Init(); err != nil {
		os.Exit(1)
	}
	os.Exit(m.Run())
}

// failingSolver simulates a broken backend.
type failingSolver struct{}

func (failingSolver) Solve(_ context.Context, _ *milp.Model) (milp.Solution, error) {
	return milp.Solution{}, errors.New("backend exploded")
}

// zeroSolver returns a malformed all-zero solution.
type zeroSolver struct{}

func (zeroSolver) Solve(_ context.Context, m *milp.Model) (milp.Solution, error) {
	return milp.Solution{Values: make([]float64, m.NumVars())}, nil
}

func registry(penalty float64) *profile.Registry {
	reg, err := profile.NewRegistry([]profile.Profile{
		{Name: "Ready", Ideal: map[string]float64{"f": 1}},
		{Name: "Not Ready", Ideal: map[string]float64{"f": 0}, Penalty: penalty},
	})
	if err != nil {
		panic(err)
	}
	return reg
}

// annotated builds a record carrying pre-normalized distances.
func annotated(dists map[string]float64) *model.Record {
	rec := model.NewRecord()
	for name, d := range dists {
		rec.SetDistance(name, d)
	}
	return rec
}

func TestAssign(t *testing.T) {
	Convey("Given records with clear nearest clusters", t, func() {
		reg := registry(0)
		records := []*model.Record{
			annotated(map[string]float64{"Ready": 0.1, "Not Ready": 0.9}),
			annotated(map[string]float64{"Ready": 0.2, "Not Ready": 0.8}),
			annotated(map[string]float64{"Ready": 0.9, "Not Ready": 0.1}),
			annotated(map[string]float64{"Ready": 0.8, "Not Ready": 0.2}),
		}

		Convey("When assigning", func() {
			err := assign.New().Assign(context.Background(), records, reg)
			So(err, ShouldBeNil)

			Convey("Then every record gets exactly one registered label", func() {
				for _, rec := range records {
					So(rec.Cluster, ShouldBeIn, []string{"Ready", "Not Ready"})
				}
			})

			Convey("And each record lands on its nearest cluster", func() {
				So(records[0].Cluster, ShouldEqual, "Ready")
				So(records[1].Cluster, ShouldEqual, "Ready")
				So(records[2].Cluster, ShouldEqual, "Not Ready")
				So(records[3].Cluster, ShouldEqual, "Not Ready")
			})

			Convey("And every cluster meets its occupancy floor", func() {
				counts := map[string]int{}
				for _, rec := range records {
					counts[rec.Cluster]++
				}
				// max(1, 4/2) = 2
				So(counts["Ready"], ShouldBeGreaterThanOrEqualTo, 2)
				So(counts["Not Ready"], ShouldBeGreaterThanOrEqualTo, 2)
			})
		})
	})

	Convey("Given a one-sided dataset and binding floors", t, func() {
		reg := registry(0)
		// All four records prefer Ready, but the Not Ready floor of
		// two must still be met by the least costly movers.
		records := []*model.Record{
			annotated(map[string]float64{"Ready": 0.0, "Not Ready": 1.0}),
			annotated(map[string]float64{"Ready": 0.0, "Not Ready": 0.9}),
			annotated(map[string]float64{"Ready": 0.1, "Not Ready": 0.3}),
			annotated(map[string]float64{"Ready": 0.1, "Not Ready": 0.2}),
		}

		Convey("When assigning", func() {
			err := assign.New().Assign(context.Background(), records, reg)
			So(err, ShouldBeNil)

			Convey("Then the floor pulls the cheapest movers over", func() {
				So(records[0].Cluster, ShouldEqual, "Ready")
				So(records[1].Cluster, ShouldEqual, "Ready")
				So(records[2].Cluster, ShouldEqual, "Not Ready")
				So(records[3].Cluster, ShouldEqual, "Not Ready")
			})
		})
	})

	Convey("Given a penalized cluster", t, func() {
		// Records 0,1 anchor Ready; 2,3 anchor Not Ready; record 4 sits
		// nearer Not Ready by 0.5.
		newRecords := func() []*model.Record {
			return []*model.Record{
				annotated(map[string]float64{"Ready": 0.0, "Not Ready": 1.0}),
				annotated(map[string]float64{"Ready": 0.0, "Not Ready": 1.0}),
				annotated(map[string]float64{"Ready": 1.0, "Not Ready": 0.0}),
				annotated(map[string]float64{"Ready": 1.0, "Not Ready": 0.0}),
				annotated(map[string]float64{"Ready": 0.6, "Not Ready": 0.1}),
			}
		}

		Convey("When the penalty differential exceeds the distance gap", func() {
			reg := registry(1.0)
			records := newRecords()
			err := assign.New().Assign(context.Background(), records, reg)
			So(err, ShouldBeNil)

			Convey("Then the record is pushed to the unpenalized cluster", func() {
				So(records[4].Cluster, ShouldEqual, "Ready")
			})
		})

		Convey("When the penalty differential is below the distance gap", func() {
			reg := registry(0.2)
			records := newRecords()
			err := assign.New().Assign(context.Background(), records, reg)
			So(err, ShouldBeNil)

			Convey("Then the penalized cluster still wins the record", func() {
				So(records[4].Cluster, ShouldEqual, "Not Ready")
			})
		})
	})

	Convey("Given fewer records than clusters", t, func() {
		reg, err := profile.NewRegistry([]profile.Profile{
			{Name: "Ready", Ideal: map[string]float64{"f": 1}},
			{Name: "Potential", Ideal: map[string]float64{"f": 0.5}},
			{Name: "Not Ready", Ideal: map[string]float64{"f": 0}},
		})
		So(err, ShouldBeNil)

		records := []*model.Record{
			annotated(map[string]float64{"Ready": 0.1, "Potential": 0.2, "Not Ready": 0.3}),
			annotated(map[string]float64{"Ready": 0.3, "Potential": 0.2, "Not Ready": 0.1}),
		}

		Convey("When assigning", func() {
			err := assign.New().Assign(context.Background(), records, reg)

			Convey("Then the floors cannot be met and the model is infeasible", func() {
				So(errors.Is(err, assign.ErrModelInfeasible), ShouldBeTrue)
			})
		})
	})

	Convey("Given a min-cluster-size override", t, func() {
		a := assign.New(assign.WithMinClusterSize(3))

		Convey("Then the override replaces the derived floor", func() {
			So(a.MinClusterSize(100, 2), ShouldEqual, 3)
		})
	})

	Convey("Given no override", t, func() {
		a := assign.New()

		Convey("Then the floor is max(1, records/clusters)", func() {
			So(a.MinClusterSize(10, 3), ShouldEqual, 3)
			So(a.MinClusterSize(2, 3), ShouldEqual, 1)
			So(a.MinClusterSize(3, 3), ShouldEqual, 1)
		})
	})

	Convey("Given a broken backend", t, func() {
		reg := registry(0)
		records := []*model.Record{
			annotated(map[string]float64{"Ready": 0.1, "Not Ready": 0.9}),
		}

		a := assign.New(assign.WithSolver(failingSolver{}))

		Convey("When assigning", func() {
			err := a.Assign(context.Background(), records, reg)

			Convey("Then the failure is distinct from infeasibility", func() {
				So(errors.Is(err, assign.ErrSolverFailure), ShouldBeTrue)
				So(errors.Is(err, assign.ErrModelInfeasible), ShouldBeFalse)
			})
		})
	})

	Convey("Given a backend returning a malformed solution", t, func() {
		reg := registry(0)
		records := []*model.Record{
			annotated(map[string]float64{"Ready": 0.1, "Not Ready": 0.9}),
			annotated(map[string]float64{"Ready": 0.9, "Not Ready": 0.1}),
		}

		a := assign.New(assign.WithSolver(zeroSolver{}))

		Convey("When assigning", func() {
			err := a.Assign(context.Background(), records, reg)

			Convey("Then the formulation defect is surfaced distinctly", func() {
				So(errors.Is(err, assign.ErrNoAssignment), ShouldBeTrue)
			})
		})
	})

	Convey("Given an empty dataset", t, func() {
		reg := registry(0)

		Convey("When assigning", func() {
			err := assign.New().Assign(context.Background(), nil, reg)

			Convey("Then nothing happens", func() {
				So(err, ShouldBeNil)
			})
		})
	})
}

func TestSplit(t *testing.T) {
	ideal := profile.Profile{Name: "Ideal", Ideal: map[string]float64{"f": 1}}

	Convey("Given records with known distances to the ideal profile", t, func() {
		records := []*model.Record{
			annotated(map[string]float64{"Ideal": 0.1}),
			annotated(map[string]float64{"Ideal": 0.2}),
			annotated(map[string]float64{"Ideal": 0.5}),
			annotated(map[string]float64{"Ideal": 0.9}),
		}

		Convey("When splitting with a floor of two", func() {
			err := assign.New().Split(context.Background(), records, ideal, "Ready", "Not Ready", 2)
			So(err, ShouldBeNil)

			Convey("Then the two closest records are Ready", func() {
				So(records[0].Cluster, ShouldEqual, "Ready")
				So(records[1].Cluster, ShouldEqual, "Ready")
				So(records[2].Cluster, ShouldEqual, "Not Ready")
				So(records[3].Cluster, ShouldEqual, "Not Ready")
			})
		})

		Convey("When the floor exceeds the record count", func() {
			err := assign.New().Split(context.Background(), records, ideal, "Ready", "Not Ready", 5)

			Convey("Then the model is infeasible", func() {
				So(errors.Is(err, assign.ErrModelInfeasible), ShouldBeTrue)
			})
		})
	})
}
