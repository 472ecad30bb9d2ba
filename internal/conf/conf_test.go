package conf

import (
	"errors"
	"testing"
)

func TestValidateSocial(t *testing.T) {
	tests := []struct {
		name      string
		dryRun    bool
		token     string
		urn       string
		wantField string
	}{
		{"dry run skips checks", true, "", "urn:li:person:1", ""},
		{"fully absent is disabled", false, "", "", ""},
		{"fully configured", false, "tok", "urn:li:person:1", ""},
		{"missing token", false, "", "urn:li:person:1", "LINKEDIN_ACCESS_TOKEN"},
		{"missing urn", false, "tok", "", "LINKEDIN_PERSON_URN"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &Config{DryRun: tt.dryRun}
			cfg.Social.AccessToken = tt.token
			cfg.Social.PersonURN = tt.urn

			err := cfg.ValidateSocial()
			if tt.wantField == "" {
				if err != nil {
					t.Fatalf("ValidateSocial: %v", err)
				}
				return
			}
			var cerr *ConfigError
			if !errors.As(err, &cerr) {
				t.Fatalf("err = %v, want ConfigError", err)
			}
			if cerr.Field != tt.wantField {
				t.Errorf("field = %q, want %q", cerr.Field, tt.wantField)
			}
		})
	}
}

func TestValidateDispatch(t *testing.T) {
	cfg := &Config{DryRun: true}
	if err := cfg.ValidateDispatch(); err != nil {
		t.Fatalf("dry run should need no credentials: %v", err)
	}

	cfg.DryRun = false
	var cerr *ConfigError
	if err := cfg.ValidateDispatch(); !errors.As(err, &cerr) || cerr.Field != "SMTP_HOST" {
		t.Errorf("err = %v, want SMTP_HOST ConfigError", err)
	}

	cfg.Mail.SMTPHost = "smtp.example.com"
	cfg.Mail.Username = "bot"
	cfg.Mail.From = "bot@example.com"
	if err := cfg.ValidateDispatch(); err != nil {
		t.Fatalf("complete mail config rejected: %v", err)
	}
}
