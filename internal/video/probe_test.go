package video

import "testing"

func TestParseFrame(t *testing.T) {
	tests := []struct {
		in      string
		want    Frame
		wantErr bool
	}{
		{"1920,1080,24/1\n", Frame{1920, 1080, 24}, false},
		{"1280,720,30000/1001", Frame{1280, 720, 30000.0 / 1001.0}, false},
		{"640,480,25", Frame{640, 480, 25}, false},
		{"640,480", Frame{}, true},
		{"a,480,25/1", Frame{}, true},
		{"640,480,25/0", Frame{}, true},
	}

	for _, tt := range tests {
		got, err := parseFrame(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("parseFrame(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if !tt.wantErr && got != tt.want {
			t.Errorf("parseFrame(%q) = %+v, want %+v", tt.in, got, tt.want)
		}
	}
}

func TestCommonFrame(t *testing.T) {
	got := commonFrame([]Frame{
		{Width: 1920, Height: 1080, FPS: 24},
		{Width: 1280, Height: 1441, FPS: 30},
		{Width: 801, Height: 600, FPS: 25},
	})
	want := Frame{Width: 1920, Height: 1442, FPS: 30}
	if got != want {
		t.Errorf("commonFrame() = %+v, want %+v", got, want)
	}
}
