package metrics

import "testing"

func TestCollector_SnapshotComputesSuccessRateAndLatency(t *testing.T) {
	c := NewCollector(10)

	c.Record("stripe", true, 100, 0.1)
	c.Record("stripe", true, 200, 0.1)
	c.Record("stripe", false, 300, 0.1)

	snap := c.Snapshot("stripe")
	if snap.TotalCalls != 3 {
		t.Fatalf("TotalCalls = %d, want 3", snap.TotalCalls)
	}
	if snap.SuccessRate < 0.66 || snap.SuccessRate > 0.67 {
		t.Fatalf("SuccessRate = %f, want ~0.667", snap.SuccessRate)
	}
	if snap.AvgLatencyMs != 200 {
		t.Fatalf("AvgLatencyMs = %f, want 200", snap.AvgLatencyMs)
	}
}

func TestCollector_WindowIsFixedSize(t *testing.T) {
	c := NewCollector(3)
	for i := 0; i < 10; i++ {
		c.Record("g", true, float64(i*10), 0)
	}
	snap := c.Snapshot("g")
	if snap.TotalCalls != 10 {
		t.Fatalf("TotalCalls = %d, want 10 (rolling totals are not windowed)", snap.TotalCalls)
	}
	if snap.AvgLatencyMs != 80 {
		t.Fatalf("AvgLatencyMs = %f, want 80 (only the last 3 samples are kept)", snap.AvgLatencyMs)
	}
}

func TestCollector_UnknownGatewayHasFullSuccessRate(t *testing.T) {
	c := NewCollector(10)
	snap := c.Snapshot("never-called")
	if snap.SuccessRate != 1 {
		t.Fatalf("SuccessRate for unseen gateway = %f, want 1", snap.SuccessRate)
	}
}
