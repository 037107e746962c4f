package config

import "testing"

func TestLoadAppliesDefaultsWithNoEnv(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.HTTPAddr != ":8080" {
		t.Errorf("HTTPAddr = %q, want :8080", cfg.HTTPAddr)
	}
	if cfg.EdgeMinRORPct != 3.0 {
		t.Errorf("EdgeMinRORPct = %v, want 3.0", cfg.EdgeMinRORPct)
	}
	if cfg.TitleSim != 0.60 {
		t.Errorf("TitleSim = %v, want 0.60", cfg.TitleSim)
	}
	if cfg.TimeWindowH != 168.0 {
		t.Errorf("TimeWindowH = %v, want 168.0", cfg.TimeWindowH)
	}
	if cfg.PMChunk != 400 {
		t.Errorf("PMChunk = %v, want 400", cfg.PMChunk)
	}
}

func TestLoadEnvOverridesDefault(t *testing.T) {
	t.Setenv("PM_CHUNK", "50")
	t.Setenv("EDGE_MIN_ROR_PCT", "5.5")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.PMChunk != 50 {
		t.Errorf("PMChunk = %v, want 50", cfg.PMChunk)
	}
	if cfg.EdgeMinRORPct != 5.5 {
		t.Errorf("EdgeMinRORPct = %v, want 5.5", cfg.EdgeMinRORPct)
	}
}

func TestValidateRejectsEmptyAddr(t *testing.T) {
	cfg := &Config{HTTPAddr: "", PMChunk: 1, TitleSim: 0.5}
	if err := cfg.Validate(); err == nil {
		t.Error("expected error for empty HTTPAddr")
	}
}

func TestValidateRejectsBadTitleSim(t *testing.T) {
	cfg := &Config{HTTPAddr: ":8080", PMChunk: 1, TitleSim: 1.5}
	if err := cfg.Validate(); err == nil {
		t.Error("expected error for title_sim out of [0,1]")
	}
}

func TestVenueBEnabledRequiresBothFields(t *testing.T) {
	cases := []struct {
		keyID, keyPath string
		want           bool
	}{
		{"", "", false},
		{"kid", "", false},
		{"", "/path", false},
		{"kid", "/path", true},
	}
	for _, c := range cases {
		cfg := &Config{KalshiKeyID: c.keyID, KalshiPrivateKeyPath: c.keyPath}
		if got := cfg.VenueBEnabled(); got != c.want {
			t.Errorf("VenueBEnabled(%q, %q) = %v, want %v", c.keyID, c.keyPath, got, c.want)
		}
	}
}
