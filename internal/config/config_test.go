package config

import "testing"

func TestParseClockMinutes(t *testing.T) {
	cases := []struct {
		in      string
		want    int
		wantErr bool
	}{
		{"08:00", 480, false},
		{"20:00", 1200, false},
		{"00:00", 0, false},
		{" 9:30 ", 570, false},
		{"24:00", 1440, false},
		{"8", 0, true},
		{"08:60", 0, true},
		{"25:00", 0, true},
		{"ab:cd", 0, true},
	}

	for _, tc := range cases {
		got, err := parseClockMinutes(tc.in)
		if tc.wantErr {
			if err == nil {
				t.Fatalf("parseClockMinutes(%q): expected error", tc.in)
			}
			continue
		}
		if err != nil {
			t.Fatalf("parseClockMinutes(%q) error: %v", tc.in, err)
		}
		if got != tc.want {
			t.Fatalf("parseClockMinutes(%q) = %d, want %d", tc.in, got, tc.want)
		}
	}
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}

	if cfg.SlotMinutes != 10 || cfg.MaxDurationMinutes != 120 {
		t.Fatalf("slot/max = %d/%d, want 10/120", cfg.SlotMinutes, cfg.MaxDurationMinutes)
	}
	if cfg.WorkStartMinutes != 8*60 || cfg.WorkEndMinutes != 20*60 {
		t.Fatalf("work window = %d..%d, want 480..1200", cfg.WorkStartMinutes, cfg.WorkEndMinutes)
	}
	if cfg.ClinicTimeZone == "" {
		t.Fatalf("clinic time zone empty")
	}
	if cfg.HTTPPort == 0 {
		t.Fatalf("http port not defaulted")
	}
}
