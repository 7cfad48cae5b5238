package sim

import "testing"

func TestHistoryRecordAndQuery(t *testing.T) {
	h, err := OpenHistory(t.TempDir())
	if err != nil {
		t.Fatalf("OpenHistory: %v", err)
	}
	defer h.Close()

	r := Result{PolicyName: "greedy", TotalCost: 12.5, TotalTasks: 3, CompletedTasks: 3}
	if _, err := h.Record(48, r); err != nil {
		t.Fatalf("Record: %v", err)
	}

	got, err := h.ByPolicy("greedy")
	if err != nil {
		t.Fatalf("ByPolicy: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("len(got) = %d, want 1", len(got))
	}
	if got[0].TotalCost != 12.5 || got[0].CompletedTasks != 3 {
		t.Errorf("got[0] = %+v, want TotalCost=12.5 CompletedTasks=3", got[0])
	}
}

func TestHistoryByPolicyEmptyForUnknownPolicy(t *testing.T) {
	h, err := OpenHistory(t.TempDir())
	if err != nil {
		t.Fatalf("OpenHistory: %v", err)
	}
	defer h.Close()

	got, err := h.ByPolicy("nonexistent")
	if err != nil {
		t.Fatalf("ByPolicy: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("len(got) = %d, want 0", len(got))
	}
}
