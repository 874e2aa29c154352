package fvm_test

import (
	"errors"
	"math"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"gonum.org/v1/gonum/mat"

	"github.com/san-kum/cnmarch/internal/fvm"
)

func rowSum(m *mat.Tridiag, i int) float64 {
	var sum float64
	m.DoRowNonZero(i, func(_, _ int, v float64) { sum += v })
	return sum
}

var _ = Describe("Assemble", func() {
	DescribeTable("A is strictly diagonally dominant",
		func(n int, r float64) {
			sys, err := fvm.Assemble(n, r)
			Expect(err).NotTo(HaveOccurred())
			for i := 0; i < n; i++ {
				var off float64
				for j := 0; j < n; j++ {
					if j != i {
						off += math.Abs(sys.A.At(i, j))
					}
				}
				Expect(math.Abs(sys.A.At(i, i))).To(BeNumerically(">", off), "row %d", i)
			}
		},
		Entry("two cells", 2, 0.5),
		Entry("small ratio", 5, 1e-4),
		Entry("unit ratio", 10, 1.0),
		Entry("large ratio", 50, 250.0),
		Entry("baseline", 200, 20.0),
	)

	DescribeTable("row sums",
		func(n int, r float64) {
			sys, err := fvm.Assemble(n, r)
			Expect(err).NotTo(HaveOccurred())
			for _, i := range []int{0, n - 1} {
				Expect(rowSum(sys.A, i)).To(BeNumerically("~", 1+2*r, 1e-12))
				Expect(rowSum(sys.B, i)).To(BeNumerically("~", 1-2*r, 1e-12))
			}
			for i := 1; i < n-1; i++ {
				Expect(rowSum(sys.A, i)).To(BeNumerically("~", 1.0, 1e-12))
				Expect(rowSum(sys.B, i)).To(BeNumerically("~", 1.0, 1e-12))
			}
		},
		Entry("two cells", 2, 0.3),
		Entry("four cells", 4, 1.0),
		Entry("many cells", 64, 4.0),
	)

	It("matches the literal N=4, r=1 operators", func() {
		sys, err := fvm.Assemble(4, 1)
		Expect(err).NotTo(HaveOccurred())

		wantA := mat.NewDense(4, 4, []float64{
			4, -1, 0, 0,
			-1, 3, -1, 0,
			0, -1, 3, -1,
			0, 0, -1, 4,
		})
		wantB := mat.NewDense(4, 4, []float64{
			-2, 1, 0, 0,
			1, -1, 1, 0,
			0, 1, -1, 1,
			0, 0, 1, -2,
		})
		Expect(mat.Equal(sys.A, wantA)).To(BeTrue())
		Expect(mat.Equal(sys.B, wantB)).To(BeTrue())
		Expect(sys.Size()).To(Equal(4))
		Expect(sys.R).To(Equal(1.0))
	})

	It("uses the grid ratio", func() {
		g, err := fvm.NewGrid(10, 0, 1, 4, 0.04)
		Expect(err).NotTo(HaveOccurred())
		sys, err := fvm.AssembleGrid(g)
		Expect(err).NotTo(HaveOccurred())
		Expect(sys.R).To(BeNumerically("~", 1.0, 1e-12))
		Expect(sys.A.At(0, 0)).To(BeNumerically("~", 4.0, 1e-12))
	})

	DescribeTable("rejects invalid parameters",
		func(n int, r float64) {
			_, err := fvm.Assemble(n, r)
			Expect(err).To(MatchError(fvm.ErrConfiguration))

			var se *fvm.StageError
			Expect(errors.As(err, &se)).To(BeTrue())
			Expect(se.Stage).To(Equal(fvm.StageAssembly))
		},
		Entry("one cell", 1, 1.0),
		Entry("zero ratio", 4, 0.0),
		Entry("negative ratio", 4, -1.0),
		Entry("NaN ratio", 4, math.NaN()),
		Entry("infinite ratio", 4, math.Inf(1)),
	)
})
