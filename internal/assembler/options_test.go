package assembler

import "testing"

func TestParseFilter(t *testing.T) {
	cases := []struct {
		in      string
		want    Filter
		wantErr bool
	}{
		{"", FilterNone, false},
		{"none", FilterNone, false},
		{"black-and-white", FilterBlackWhite, false},
		{"Black & White", FilterBlackWhite, false},
		{"bw", FilterBlackWhite, false},
		{"VIBRANT", FilterVibrant, false},
		{"cinematic", FilterCinematic, false},
		{"vintage", FilterVintage, false},
		{"sepia", FilterNone, true},
	}
	for _, c := range cases {
		got, err := ParseFilter(c.in)
		if c.wantErr {
			if err == nil {
				t.Errorf("ParseFilter(%q): expected error", c.in)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParseFilter(%q): %v", c.in, err)
			continue
		}
		if got != c.want {
			t.Errorf("ParseFilter(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestParseTransition(t *testing.T) {
	cases := []struct {
		in      string
		want    Transition
		wantErr bool
	}{
		{"", TransitionNone, false},
		{"none", TransitionNone, false},
		{"crossfade", TransitionCrossfade, false},
		{"fade-in-out", TransitionFadeInOut, false},
		{"Fade-In/Out", TransitionFadeInOut, false},
		{"wipe", TransitionNone, true},
	}
	for _, c := range cases {
		got, err := ParseTransition(c.in)
		if c.wantErr {
			if err == nil {
				t.Errorf("ParseTransition(%q): expected error", c.in)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParseTransition(%q): %v", c.in, err)
			continue
		}
		if got != c.want {
			t.Errorf("ParseTransition(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestColorFilter(t *testing.T) {
	name, arg, ok := colorFilter(FilterBlackWhite)
	if !ok || name != "hue" || arg != "s=0" {
		t.Errorf("black-and-white: got %s=%s ok=%v", name, arg, ok)
	}
	name, arg, ok = colorFilter(FilterVibrant)
	if !ok || name != "eq" || arg != "saturation=1.3" {
		t.Errorf("vibrant: got %s=%s ok=%v", name, arg, ok)
	}
	if _, _, ok := colorFilter(FilterNone); ok {
		t.Error("none must map to no filter")
	}
}

func TestFadeArgs(t *testing.T) {
	if got := fadeArgs(TransitionNone, 10); got != nil {
		t.Errorf("none: expected no fades, got %v", got)
	}

	got := fadeArgs(TransitionCrossfade, 10)
	if len(got) != 1 || got[0] != "t=in:st=0:d=0.5" {
		t.Errorf("crossfade: got %v", got)
	}

	got = fadeArgs(TransitionFadeInOut, 10)
	if len(got) != 2 {
		t.Fatalf("fade-in-out: expected 2 fades, got %v", got)
	}
	if got[0] != "t=in:st=0:d=0.5" {
		t.Errorf("fade-in-out inbound: got %q", got[0])
	}
	if got[1] != "t=out:st=9.500:d=0.5" {
		t.Errorf("fade-in-out outbound: got %q", got[1])
	}
}

func TestFadeArgs_ShortClipClampsOutStart(t *testing.T) {
	got := fadeArgs(TransitionFadeInOut, 0.3)
	if len(got) != 2 {
		t.Fatalf("expected 2 fades, got %v", got)
	}
	if got[1] != "t=out:st=0.000:d=0.5" {
		t.Errorf("out fade start must not go negative: got %q", got[1])
	}
}
