package observer

import "github.com/labi-le/clickerwatch/internal/page"

// Detector remembers only the previous sample. Rapid toggles between two
// samples are not seen.
type Detector struct {
	prev page.State
}

// Observe records cur and reports whether it completes a Closed -> Open edge.
// The first observation after Reset only establishes the baseline.
func (d *Detector) Observe(cur page.State) bool {
	prev := d.prev
	d.prev = cur

	if prev == page.Unknown {
		return false
	}
	return prev == page.Closed && cur == page.Open
}

func (d *Detector) Reset() {
	d.prev = page.Unknown
}

// Last returns the most recent sample, Unknown before the baseline.
func (d *Detector) Last() page.State {
	return d.prev
}
