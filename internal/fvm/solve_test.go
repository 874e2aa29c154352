package fvm_test

import (
	"errors"
	"math/rand/v2"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"github.com/san-kum/cnmarch/internal/fvm"
)

var _ = Describe("Solvers", func() {
	var sys *fvm.System

	BeforeEach(func() {
		var err error
		sys, err = fvm.Assemble(32, 2.5)
		Expect(err).NotTo(HaveOccurred())
	})

	It("Thomas and dense LU agree to rounding", func() {
		thomas, err := fvm.FactorThomas(sys.A)
		Expect(err).NotTo(HaveOccurred())
		lu, err := fvm.FactorLU(sys.A)
		Expect(err).NotTo(HaveOccurred())
		Expect(thomas.Size()).To(Equal(32))
		Expect(lu.Size()).To(Equal(32))

		rng := rand.New(rand.NewPCG(1, 2))
		for trial := 0; trial < 5; trial++ {
			rhs := make([]float64, 32)
			for i := range rhs {
				rhs[i] = rng.Float64()*2 - 1
			}
			a := make([]float64, 32)
			b := make([]float64, 32)
			Expect(thomas.Solve(a, rhs)).To(Succeed())
			Expect(lu.Solve(b, rhs)).To(Succeed())
			Expect(floats.EqualApprox(a, b, 1e-12)).To(BeTrue())
		}
	})

	It("reproduces the right-hand side", func() {
		thomas, err := fvm.FactorThomas(sys.A)
		Expect(err).NotTo(HaveOccurred())

		want := make([]float64, 32)
		for i := range want {
			want[i] = float64(i%5) - 2
		}
		rhs := mat.NewVecDense(32, nil)
		rhs.MulVec(sys.A, mat.NewVecDense(32, want))

		got := make([]float64, 32)
		Expect(thomas.Solve(got, rhs.RawVector().Data)).To(Succeed())
		Expect(floats.EqualApprox(got, want, 1e-12)).To(BeTrue())
	})

	It("allows the Thomas solve in place", func() {
		thomas, err := fvm.FactorThomas(sys.A)
		Expect(err).NotTo(HaveOccurred())

		rhs := make([]float64, 32)
		for i := range rhs {
			rhs[i] = 1
		}
		want := make([]float64, 32)
		Expect(thomas.Solve(want, rhs)).To(Succeed())
		Expect(thomas.Solve(rhs, rhs)).To(Succeed())
		Expect(rhs).To(Equal(want))
	})

	It("rejects mismatched lengths", func() {
		thomas, err := fvm.FactorThomas(sys.A)
		Expect(err).NotTo(HaveOccurred())
		lu, err := fvm.FactorLU(sys.A)
		Expect(err).NotTo(HaveOccurred())

		Expect(thomas.Solve(make([]float64, 31), make([]float64, 32))).To(MatchError(fvm.ErrDimension))
		Expect(lu.Solve(make([]float64, 32), make([]float64, 3))).To(MatchError(fvm.ErrDimension))
	})

	It("fails Thomas on a zero pivot", func() {
		a := mat.NewTridiag(3, []float64{1, 1}, []float64{0, 2, 2}, []float64{1, 1})
		_, err := fvm.FactorThomas(a)
		Expect(err).To(MatchError(fvm.ErrFactorization))
		Expect(err.Error()).To(ContainSubstring("row 0"))
	})

	It("fails dense LU on a singular matrix", func() {
		a := mat.NewTridiag(3, nil, nil, nil)
		_, err := fvm.FactorLU(a)
		Expect(err).To(MatchError(fvm.ErrFactorization))

		var se *fvm.StageError
		Expect(errors.As(err, &se)).To(BeTrue())
		Expect(se.Stage).To(Equal(fvm.StageFactorization))
	})

	It("rejects a non-square matrix for dense LU", func() {
		_, err := fvm.FactorLU(mat.NewDense(2, 3, nil))
		Expect(err).To(MatchError(fvm.ErrDimension))
	})
})
