package viewstate

// Detector tracks the baseline snapshot of one lineage (one active viewport)
// and reports when a freshly captured state moves away from it.
type Detector struct {
	baseline Snapshot
	scratch  Snapshot
	primed   bool
}

// Observe captures sp and compares it to the baseline. The first observation
// of a lineage only establishes the baseline and reports no change. On a
// change the baseline is replaced before Observe returns.
func (d *Detector) Observe(sp Space) bool {
	if !CaptureInto(sp, &d.scratch) {
		return false
	}
	if !d.primed {
		d.baseline = d.scratch
		d.primed = true
		return false
	}
	if !HasChanged(&d.scratch, &d.baseline) {
		return false
	}
	d.baseline = d.scratch
	return true
}

// Baseline returns the stored snapshot, or nil before the first observation.
func (d *Detector) Baseline() *Snapshot {
	if !d.primed {
		return nil
	}
	return &d.baseline
}

// Reset discards the baseline so the next observation starts a new lineage.
func (d *Detector) Reset() {
	d.baseline = Snapshot{}
	d.scratch = Snapshot{}
	d.primed = false
}
