package touch

import "time"

const (
	// denoiseRing is how many consecutive valid raw samples must
	// agree before a touch is reported.
	denoiseRing = 5

	// maxDeviation is the accepted mean squared deviation over both
	// axes combined, in raw ADC units squared.
	maxDeviation = 50.0

	// sampleDelay lets the analog signal settle between raw reads
	// and bounds the sample rate.
	sampleDelay = 50 * time.Millisecond

	// touchBudget bounds one whole debounce attempt. Running out of
	// budget means "no touch", never an error.
	touchBudget = 2 * time.Second
)

// swapped in tests to avoid real sleeping
var sleepFn = time.Sleep

// rawReader is the raw-sample side of the transducer. ok=false means
// the reading failed validity bounds (noise or no touch).
type rawReader interface {
	RawTouch() (x, y int, ok bool)
}

// denoiser condenses noisy raw samples into one stable point.
type denoiser struct {
	src rawReader
	m   mapper
}

// GetTouch samples until the ring holds denoiseRing consecutive valid
// readings whose combined mean squared deviation is within bounds,
// then returns their mean mapped to screen coordinates. An invalid
// reading invalidates the whole run. Gives up after touchBudget.
func (d *denoiser) GetTouch() (Point, bool) {
	var buf [denoiseRing][2]int
	idx := 0
	nsamples := 0

	for budget := touchBudget; budget > 0; budget -= sampleDelay {
		if nsamples == denoiseRing {
			sumX, sumY := 0, 0
			for _, c := range buf {
				sumX += c[0]
				sumY += c[1]
			}
			meanX := sumX / denoiseRing
			meanY := sumY / denoiseRing

			dev := 0.0
			for _, c := range buf {
				dx := float64(c[0] - meanX)
				dy := float64(c[1] - meanY)
				dev += dx*dx + dy*dy
			}
			dev /= denoiseRing

			if dev <= maxDeviation {
				return d.m.apply(meanX, meanY), true
			}
		}

		x, y, ok := d.src.RawTouch()
		if !ok {
			// A noisy or no-touch read invalidates the run.
			nsamples = 0
		} else {
			buf[idx] = [2]int{x, y}
			idx = (idx + 1) % denoiseRing
			if nsamples < denoiseRing {
				nsamples++
			}
		}

		sleepFn(sampleDelay)
	}

	return Point{}, false
}
