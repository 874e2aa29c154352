package fvm_test

import (
	"context"
	"errors"
	"math"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/cnmarch/internal/analytic"
	"github.com/san-kum/cnmarch/internal/fvm"
)

func newMarcher(n int, nx int, xMax, source float64) (fvm.Grid, *fvm.Marcher) {
	GinkgoHelper()
	g, err := fvm.NewGrid(n, 0, 1, nx, xMax)
	Expect(err).NotTo(HaveOccurred())
	sys, err := fvm.AssembleGrid(g)
	Expect(err).NotTo(HaveOccurred())
	solver, err := fvm.FactorThomas(sys.A)
	Expect(err).NotTo(HaveOccurred())
	m, err := fvm.NewMarcher(g, sys, solver, source)
	Expect(err).NotTo(HaveOccurred())
	return g, m
}

func exactError(g fvm.Grid, x float64, u fvm.Field) float64 {
	ys := g.CellCenters()
	var sum float64
	for i, y := range ys {
		d := u[i] - analytic.Exact(x, y, analytic.DefaultTerms)
		sum += d * d
	}
	return math.Sqrt(sum)
}

type nanSolver struct{}

func (nanSolver) Solve(dst, _ []float64) error {
	for i := range dst {
		dst[i] = math.NaN()
	}
	return nil
}

type countingObserver struct {
	steps []int
	xs    []float64
}

func (c *countingObserver) OnStep(n int, x float64, _ fvm.Field) {
	c.steps = append(c.steps, n)
	c.xs = append(c.xs, x)
}

type peakMetric struct{ peak float64 }

func (p *peakMetric) Name() string { return "peak" }
func (p *peakMetric) Observe(_ int, _ float64, u fvm.Field) {
	for _, v := range u {
		p.peak = math.Max(p.peak, v)
	}
}
func (p *peakMetric) Value() float64 { return p.peak }
func (p *peakMetric) Reset()         { p.peak = 0 }

var _ = Describe("Marcher", func() {
	It("records Nx+1 snapshots from zero to x_max", func() {
		_, m := newMarcher(10, 7, 0.3, 2)
		Expect(m.Phase()).To(Equal(fvm.PhaseInitializing))

		hist, err := m.Run(context.Background())
		Expect(err).NotTo(HaveOccurred())
		Expect(m.Phase()).To(Equal(fvm.PhaseDone))

		Expect(hist.Len()).To(Equal(8))
		Expect(hist.U).To(HaveLen(8))
		Expect(hist.X[0]).To(Equal(0.0))
		Expect(hist.X[7]).To(Equal(0.3))
		for i := 1; i < hist.Len(); i++ {
			Expect(hist.X[i]).To(BeNumerically(">", hist.X[i-1]))
		}
		Expect(hist.U[0]).To(Equal(fvm.NewField(10)))

		x, u := hist.Final()
		Expect(x).To(Equal(0.3))
		Expect(u).To(HaveLen(10))
		Expect(hist.Snapshots()).To(HaveLen(8))
	})

	It("keeps the zero field fixed without a source", func() {
		_, m := newMarcher(16, 50, 1.0, 0)
		hist, err := m.Run(context.Background())
		Expect(err).NotTo(HaveOccurred())
		for _, u := range hist.U {
			for _, v := range u {
				Expect(v).To(Equal(0.0))
			}
		}
	})

	It("stores independent snapshots", func() {
		_, m := newMarcher(8, 4, 0.1, 2)
		hist, err := m.Run(context.Background())
		Expect(err).NotTo(HaveOccurred())
		Expect(hist.U[1]).NotTo(Equal(hist.U[2]))
		hist.U[1][0] = 99
		Expect(hist.U[2][0]).NotTo(Equal(99.0))
	})

	It("approaches the analytical solution as x grows", func() {
		g, m := newMarcher(200, 1000, 0.5, 2)
		hist, err := m.Run(context.Background())
		Expect(err).NotTo(HaveOccurred())

		first := exactError(g, hist.X[1], hist.U[1])
		x, u := hist.Final()
		final := exactError(g, x, u)
		Expect(final).To(BeNumerically("<", first))
		Expect(final).To(BeNumerically("<", 1e-3))
	})

	It("settles on the steady profile", func() {
		g, m := newMarcher(20, 200, 2.0, 2)
		hist, err := m.Run(context.Background())
		Expect(err).NotTo(HaveOccurred())

		_, u := hist.Final()
		for i, y := range g.CellCenters() {
			Expect(u[i]).To(BeNumerically("~", analytic.Steady(y), 1e-3))
		}
	})

	It("matches the dense LU path", func() {
		g, err := fvm.NewGrid(24, 0, 1, 40, 0.2)
		Expect(err).NotTo(HaveOccurred())
		sys, err := fvm.AssembleGrid(g)
		Expect(err).NotTo(HaveOccurred())

		thomas, err := fvm.FactorThomas(sys.A)
		Expect(err).NotTo(HaveOccurred())
		lu, err := fvm.FactorLU(sys.A)
		Expect(err).NotTo(HaveOccurred())

		mt, err := fvm.NewMarcher(g, sys, thomas, 2)
		Expect(err).NotTo(HaveOccurred())
		ml, err := fvm.NewMarcher(g, sys, lu, 2)
		Expect(err).NotTo(HaveOccurred())

		ht, err := mt.Run(context.Background())
		Expect(err).NotTo(HaveOccurred())
		hl, err := ml.Run(context.Background())
		Expect(err).NotTo(HaveOccurred())

		_, ut := ht.Final()
		_, ul := hl.Final()
		Expect(ut.Distance(ul)).To(BeNumerically("<", 1e-12))
	})

	It("notifies observers and collects metrics", func() {
		_, m := newMarcher(10, 5, 0.2, 2)
		obs := &countingObserver{}
		m.AddObserver(obs)
		m.AddMetric(&peakMetric{peak: -1})

		hist, err := m.Run(context.Background())
		Expect(err).NotTo(HaveOccurred())
		Expect(obs.steps).To(Equal([]int{0, 1, 2, 3, 4, 5}))
		Expect(obs.xs).To(Equal(hist.X))
		Expect(hist.Metrics).To(HaveKey("peak"))
		Expect(hist.Metrics["peak"]).To(BeNumerically(">", 0))
	})

	It("refuses a second run", func() {
		_, m := newMarcher(4, 2, 0.1, 2)
		_, err := m.Run(context.Background())
		Expect(err).NotTo(HaveOccurred())
		_, err = m.Run(context.Background())
		Expect(err).To(MatchError(fvm.ErrAlreadyRun))
	})

	It("aborts on a non-finite solve", func() {
		g, err := fvm.NewGrid(4, 0, 1, 3, 0.1)
		Expect(err).NotTo(HaveOccurred())
		sys, err := fvm.AssembleGrid(g)
		Expect(err).NotTo(HaveOccurred())
		m, err := fvm.NewMarcher(g, sys, nanSolver{}, 2)
		Expect(err).NotTo(HaveOccurred())

		hist, err := m.Run(context.Background())
		Expect(hist).To(BeNil())
		Expect(err).To(MatchError(fvm.ErrNonFinite))

		var se *fvm.StageError
		Expect(errors.As(err, &se)).To(BeTrue())
		Expect(se.Stage).To(Equal(fvm.StageStep))
		Expect(se.Step).To(Equal(1))
		Expect(err.Error()).To(HavePrefix("step 1:"))
	})

	It("stops when the context is cancelled", func() {
		_, m := newMarcher(8, 10, 0.1, 2)
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		hist, err := m.Run(ctx)
		Expect(hist).To(BeNil())
		Expect(err).To(MatchError(context.Canceled))
	})

	It("validates its inputs", func() {
		g, err := fvm.NewGrid(4, 0, 1, 3, 0.1)
		Expect(err).NotTo(HaveOccurred())
		sys, err := fvm.Assemble(5, 1)
		Expect(err).NotTo(HaveOccurred())
		solver, err := fvm.FactorThomas(sys.A)
		Expect(err).NotTo(HaveOccurred())

		_, err = fvm.NewMarcher(g, sys, solver, 2)
		Expect(err).To(MatchError(fvm.ErrDimension))

		_, err = fvm.NewMarcher(g, nil, solver, 2)
		Expect(err).To(MatchError(fvm.ErrConfiguration))

		good, err := fvm.AssembleGrid(g)
		Expect(err).NotTo(HaveOccurred())
		_, err = fvm.NewMarcher(g, good, solver, math.Inf(1))
		Expect(err).To(MatchError(fvm.ErrConfiguration))
	})

	DescribeTable("phase names",
		func(p fvm.Phase, want string) {
			Expect(p.String()).To(Equal(want))
		},
		Entry("initializing", fvm.PhaseInitializing, "initializing"),
		Entry("marching", fvm.PhaseMarching, "marching"),
		Entry("done", fvm.PhaseDone, "done"),
		Entry("unknown", fvm.Phase(9), "phase(9)"),
	)
})
