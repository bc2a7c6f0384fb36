// SPDX-License-Identifier: MIT

package shower_test

import (
	"context"
	"testing"

	"github.com/katalvlaran/nufate/energy"
	"github.com/katalvlaran/nufate/shower"
	"github.com/katalvlaran/nufate/xsec"
)

func BenchmarkTransferMatrixAt_30x8(b *testing.B) {
	g, err := energy.LogSpace(1e2, 1e9, 30)
	if err != nil {
		b.Fatal(err)
	}
	e, err := shower.NewEngine(g, xsec.NewParametric(), nil)
	if err != nil {
		b.Fatal(err)
	}
	if err := e.Warm(context.Background()); err != nil {
		b.Fatal(err)
	}
	columns := make([]float64, 8)
	for t := range columns {
		columns[t] = float64(t) * 1e33
	}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := e.TransferMatrixAt(context.Background(), columns); err != nil {
			b.Fatal(err)
		}
	}
}
