package assembler

import (
	"strings"
	"testing"
)

const probeWithAudio = `{
	"streams": [
		{"codec_type": "video", "width": 1920, "height": 1080, "duration": "12.500000", "r_frame_rate": "30/1", "nb_frames": "375"},
		{"codec_type": "audio", "duration": "12.500000"}
	],
	"format": {"duration": "12.512000"}
}`

const probeNoAudio = `{
	"streams": [
		{"codec_type": "video", "width": 1080, "height": 1920, "r_frame_rate": "24/1", "nb_frames": "240"}
	],
	"format": {"duration": ""}
}`

const probeFormatDurationOnly = `{
	"streams": [
		{"codec_type": "video", "width": 640, "height": 480, "r_frame_rate": "0/0"}
	],
	"format": {"duration": "7.25"}
}`

func TestParseProbeOutput_FullStreams(t *testing.T) {
	info, err := parseProbeOutput(probeWithAudio)
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if info.Width != 1920 || info.Height != 1080 {
		t.Errorf("dimensions: got %dx%d", info.Width, info.Height)
	}
	if info.Duration != 12.5 {
		t.Errorf("duration: got %v", info.Duration)
	}
	if !info.HasAudio {
		t.Error("expected audio stream to be detected")
	}
}

func TestParseProbeOutput_DurationFromFrameCount(t *testing.T) {
	info, err := parseProbeOutput(probeNoAudio)
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if info.HasAudio {
		t.Error("no audio stream present")
	}
	// 240 frames at 24fps.
	if info.Duration != 10 {
		t.Errorf("duration: got %v", info.Duration)
	}
}

func TestParseProbeOutput_DurationFromFormat(t *testing.T) {
	info, err := parseProbeOutput(probeFormatDurationOnly)
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if info.Duration != 7.25 {
		t.Errorf("duration: got %v", info.Duration)
	}
}

func TestParseProbeOutput_NoVideoStream(t *testing.T) {
	_, err := parseProbeOutput(`{"streams": [{"codec_type": "audio"}], "format": {"duration": "3"}}`)
	if err == nil {
		t.Fatal("expected error for audio-only input")
	}
	if !strings.Contains(err.Error(), "no video stream") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestParseProbeOutput_Garbage(t *testing.T) {
	if _, err := parseProbeOutput("not json"); err == nil {
		t.Fatal("expected error for invalid JSON")
	}
}

func TestParseFrameRate(t *testing.T) {
	cases := []struct {
		in   string
		want float64
	}{
		{"30/1", 30},
		{"30000/1001", 29.97002997002997},
		{"0/0", 0},
		{"24", 24},
		{"", 0},
	}
	for _, c := range cases {
		if got := parseFrameRate(c.in); got != c.want {
			t.Errorf("parseFrameRate(%q) = %v, want %v", c.in, got, c.want)
		}
	}
}
