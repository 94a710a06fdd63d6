package progress

import "testing"

func TestProgressBar_New(t *testing.T) {
	pb := NewProgressBar(11, "Preloading...")
	if pb.Total() != 11 {
		t.Errorf("expected total 11, got %d", pb.Total())
	}
}

func TestProgressBar_SetProgressBeforeStart(t *testing.T) {
	pb := NewProgressBar(10, "Preloading...")
	// Must not panic before Start(); the update is kept for the model.
	pb.SetProgress(5, "blue-jelly")
	if pb.last.done != 5 || pb.last.key != "blue-jelly" {
		t.Errorf("expected last update (5, blue-jelly), got (%d, %s)", pb.last.done, pb.last.key)
	}
}

func TestProgressBar_StopBeforeStart(t *testing.T) {
	pb := NewProgressBar(10, "Preloading...")
	// Stop without Start should not panic
	pb.Stop()
}

func TestProgressBarModel_Update(t *testing.T) {
	m := progressBarModel{total: 11, label: "Preloading..."}

	next, _ := m.Update(keyDone{done: 5, key: "blue-jelly"})
	got, ok := next.(progressBarModel)
	if !ok {
		t.Fatalf("expected progressBarModel, got %T", next)
	}
	if got.done != 5 || got.key != "blue-jelly" {
		t.Errorf("expected (5, blue-jelly), got (%d, %s)", got.done, got.key)
	}
}
