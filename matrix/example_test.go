// SPDX-License-Identifier: MIT

package matrix_test

import (
	"fmt"

	"github.com/katalvlaran/nufate/matrix"
)

// ExampleBlock2x2 assembles an upper block-triangular operator the way the
// cascade solver couples a secondary flavor to its parent.
func ExampleBlock2x2() {
	secondary, _ := matrix.NewDenseFrom(2, 2, []float64{-1, 0.5, 0, -2})
	production, _ := matrix.NewDenseFrom(2, 2, []float64{0, 0.25, 0, 0})
	parent, _ := matrix.NewDenseFrom(2, 2, []float64{-3, 1, 0, -4})

	op, err := matrix.Block2x2(secondary, production, nil, parent)
	if err != nil {
		fmt.Println("error:", err)

		return
	}
	fmt.Print(op)
	// Output:
	// [-1, 0.5, 0, 0.25]
	// [0, -2, 0, 0]
	// [0, 0, -3, 1]
	// [0, 0, 0, -4]
}
