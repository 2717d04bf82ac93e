package profile

import "testing"

func TestGetFallsBack(t *testing.T) {
	p := Get("nope")
	if p.Name != "nope" {
		t.Errorf("name: got %q", p.Name)
	}
	if len(p.Codecs) != len(profiles[DefaultName].Codecs) {
		t.Errorf("codecs: got %v", p.Codecs)
	}
	if Exists("nope") || !Exists("minimal") {
		t.Error("Exists mismatch")
	}
}

func TestGetReturnsCopy(t *testing.T) {
	p := Get("minimal")
	p.Codecs[0] = "jpeg:q1"
	if Get("minimal").Codecs[0] != "jpeg:q90" {
		t.Error("mutating a returned profile changed the preset")
	}
}

func TestNamesSorted(t *testing.T) {
	names := Names()
	want := []string{"jpeg-compare", "jpeg-normalized", "jpeg-transcode", "minimal"}
	if len(names) != len(want) {
		t.Fatalf("names: got %v", names)
	}
	for i := range want {
		if names[i] != want[i] {
			t.Errorf("names[%d]: got %q, want %q", i, names[i], want[i])
		}
	}
}

func TestTargetSize(t *testing.T) {
	tests := []struct {
		max, w, h    int
		wantW, wantH int
	}{
		{0, 4000, 3000, 4000, 3000},
		{512, 300, 200, 300, 200},
		{512, 1024, 768, 512, 384},
		{512, 768, 1024, 384, 512},
		{512, 5000, 2, 512, 1},
	}
	for _, tt := range tests {
		w, h := Profile{MaxSize: tt.max}.TargetSize(tt.w, tt.h)
		if w != tt.wantW || h != tt.wantH {
			t.Errorf("max %d, %dx%d: got %dx%d, want %dx%d", tt.max, tt.w, tt.h, w, h, tt.wantW, tt.wantH)
		}
	}
}
