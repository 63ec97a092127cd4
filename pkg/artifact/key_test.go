package artifact

import "testing"

func TestCleanSymbol(t *testing.T) {
	tests := []struct {
		raw  string
		want string
	}{
		{"BTCUSDT1h.json", "BTCUSDT1h"},
		{"BTCUSDT1h", "BTCUSDT1h"},
		{"BTC/USDT:1h", "BTC_USDT_1h"},
		{"BTC-USDT", "BTC_USDT"},
		{`a\b*c?d"e<f>g|h`, "a_b_c_d_e_f_g_h"},
		{"", ""},
	}

	for _, tt := range tests {
		if got := CleanSymbol(tt.raw); got != tt.want {
			t.Errorf("CleanSymbol(%q) = %q, want %q", tt.raw, got, tt.want)
		}
	}
}

func TestCleanSymbol_Idempotent(t *testing.T) {
	inputs := []string{
		"BTCUSDT1h.json",
		"BTC/USDT-1h.json",
		"already_clean",
		`weird*?:"<>|name`,
		"",
	}
	for _, raw := range inputs {
		once := CleanSymbol(raw)
		twice := CleanSymbol(once)
		if once != twice {
			t.Errorf("CleanSymbol not idempotent for %q: %q != %q", raw, once, twice)
		}
	}
}

func TestKey_String(t *testing.T) {
	k := NewKey("BTC-USDT.json", 20, 1)
	if got, want := k.String(), "BTC_USDT_w20_f1"; got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}
}

func TestKey_Validate(t *testing.T) {
	tests := []struct {
		name    string
		key     Key
		wantErr bool
	}{
		{"valid", Key{"ABC", 20, 1}, false},
		{"empty symbol", Key{"", 20, 1}, true},
		{"zero window", Key{"ABC", 0, 1}, true},
		{"negative forecast", Key{"ABC", 20, -1}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.key.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestTargetMeta_Validate(t *testing.T) {
	tests := []struct {
		name    string
		meta    TargetMeta
		wantErr bool
	}{
		{"valid", TargetMeta{1, []string{"open", "close"}}, false},
		{"no features", TargetMeta{0, nil}, true},
		{"index too large", TargetMeta{2, []string{"open", "close"}}, true},
		{"negative index", TargetMeta{-1, []string{"open"}}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.meta.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
