// Package fvm provides the numerical core of the marcher: a cell-centred
// finite-volume grid in y, Crank-Nicolson operators for u_x = 2u_yy + S with
// homogeneous Dirichlet walls, a tridiagonal factor-and-solve, and the
// sequential march that records the solution history.
//
//   - [Grid]: validated cross-stream and marching discretization
//   - [Assemble]: builds the implicit (A) and explicit (B) operators
//   - [Solver]: applies one factorization of A any number of times
//   - [Marcher]: owns the field and advances it step by step
//
// # Example
//
//	g, _ := fvm.NewGrid(200, 0, 1, 1000, 0.5)
//	sys, _ := fvm.AssembleGrid(g)
//	solver, _ := fvm.FactorThomas(sys.A)
//	m, _ := fvm.NewMarcher(g, sys, solver, 2.0)
//	hist, _ := m.Run(ctx)
//
// # Thread Safety
//
// A Marcher is NOT thread-safe and runs exactly once. Assembled systems and
// factorizations are read-only after construction and may be shared.
package fvm
