package config

import (
	"strings"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	for _, key := range []string{"APP_PORT", "ERP_API_BASE_URL", "ERP_API_TIMEOUT", "WHATSAPP_TOKEN", "GOOGLE_SHEETS_CREDENTIALS_PATH", "GOOGLE_SHEET_DATABASE_ID", "MONGODB_URI", "TIMEZONE"} {
		t.Setenv(key, "")
	}

	cfg, err := Load("testdata-does-not-exist.env")
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if cfg.Server.Port != "8080" {
		t.Errorf("port: got %s, want 8080", cfg.Server.Port)
	}
	if cfg.ERPAPI.BaseURL != "https://luccibyey.com.tn/production/api" {
		t.Errorf("base url: got %s", cfg.ERPAPI.BaseURL)
	}
	if cfg.ERPAPI.Timeout != 30*time.Second {
		t.Errorf("timeout: got %s", cfg.ERPAPI.Timeout)
	}
	if cfg.WhatsApp.Enabled() || cfg.Sheets.Enabled() || cfg.MongoDB.Enabled() {
		t.Error("optional integrations should be disabled by default")
	}
}

func TestLoadRejectsBadTimeout(t *testing.T) {
	t.Setenv("ERP_API_TIMEOUT", "soon")
	if _, err := Load("testdata-does-not-exist.env"); err == nil {
		t.Fatal("expected error for unparsable timeout")
	}
}

func TestValidateOptionalGroups(t *testing.T) {
	base := func() *Config {
		return &Config{
			Server:    ServerConfig{Port: "8080"},
			ERPAPI:    ERPAPIConfig{BaseURL: "https://example.test/api", Timeout: time.Second},
			Scheduler: SchedulerConfig{Timezone: "UTC"},
			WhatsApp:  WhatsAppConfig{BaseURL: "https://graph.facebook.com", APIVersion: "v20.0"},
			MongoDB:   MongoDBConfig{DBName: "atelier"},
		}
	}

	cases := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"valid", func(*Config) {}, ""},
		{"bad scheme", func(c *Config) { c.ERPAPI.BaseURL = "ftp://x" }, "ERP_API_BASE_URL"},
		{"whatsapp without phone", func(c *Config) { c.WhatsApp.AccessToken = "tok" }, "WHATSAPP_PHONE_NUMBER_ID"},
		{"whatsapp without recipients", func(c *Config) {
			c.WhatsApp.AccessToken = "tok"
			c.WhatsApp.PhoneNumberID = "123"
		}, "WHATSAPP_ALERT_RECIPIENTS"},
		{"sheets half configured", func(c *Config) { c.Sheets.SpreadsheetID = "sheet" }, "GOOGLE_SHEETS_CREDENTIALS_PATH"},
		{"unknown timezone", func(c *Config) { c.Scheduler.Timezone = "Mars/Olympus" }, "TIMEZONE"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := base()
			tc.mutate(cfg)
			err := cfg.Validate()
			if tc.wantErr == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tc.wantErr) {
				t.Fatalf("got %v, want error mentioning %s", err, tc.wantErr)
			}
		})
	}
}

func TestSplitList(t *testing.T) {
	got := splitList(" 216111, ,216222 ")
	if len(got) != 2 || got[0] != "216111" || got[1] != "216222" {
		t.Fatalf("unexpected split: %v", got)
	}
}
