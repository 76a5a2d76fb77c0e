package signal_test

import (
	"fmt"

	"github.com/XieJiSS/spectmorph/dsp/signal"
)

func ExampleNormalize() {
	x := []float64{-0.5, 0.25, 1}
	gain, err := signal.Normalize(x, 0.8)
	if err != nil {
		panic(err)
	}
	fmt.Printf("%.2f %.2f %.2f gain=%.1f\n", x[0], x[1], x[2], gain)

	// Output:
	// -0.40 0.20 0.80 gain=0.8
}

func ExampleRandom() {
	a, b := signal.NewRandom(7), signal.NewRandom(7)
	fmt.Println(a.Float64() == b.Float64())

	// Output:
	// true
}
