package buffer_test

import (
	"fmt"

	"github.com/XieJiSS/spectmorph/dsp/buffer"
)

func ExampleBuffer_Shift() {
	b := buffer.New(4)
	b.Accumulate([]float64{0.5, 1, 1, 0.5})
	b.Shift(2)
	b.Accumulate([]float64{0.5, 1, 1, 0.5})

	fmt.Println(b.Samples())

	// Output:
	// [1.5 1.5 1 0.5]
}
