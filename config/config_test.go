package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	for _, k := range []string{
		"DISCORD_BOT_TOKEN", "DISCORD_GUILD_ID", "VOICE_CATEGORY_ID", "DISCORD_API_BASE",
		"FACEIT_API_KEY", "FACEIT_API_BASE", "FACEIT_SCOPES", "DB_DSN", "STALE_MATCH_TTL",
	} {
		t.Setenv(k, "")
	}

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.DiscordAPIBase != "https://discord.com/api/v10" {
		t.Errorf("DiscordAPIBase = %q", cfg.DiscordAPIBase)
	}
	if cfg.FaceitAPIBase != "https://open.faceit.com/data/v4" {
		t.Errorf("FaceitAPIBase = %q", cfg.FaceitAPIBase)
	}
	if cfg.FaceitScopes != "openid profile" {
		t.Errorf("FaceitScopes = %q", cfg.FaceitScopes)
	}
	if cfg.DBDsn == "" {
		t.Error("DBDsn default missing")
	}
	if cfg.StaleMatchTTL != 6*time.Hour {
		t.Errorf("StaleMatchTTL = %v, want 6h", cfg.StaleMatchTTL)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("DISCORD_API_BASE", "http://localhost:9999")
	t.Setenv("FACEIT_API_BASE", "http://localhost:9998")
	t.Setenv("DB_DSN", "postgres://u:p@host:5432/x")
	t.Setenv("STALE_MATCH_TTL", "90m")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.DiscordAPIBase != "http://localhost:9999" {
		t.Errorf("DiscordAPIBase = %q", cfg.DiscordAPIBase)
	}
	if cfg.FaceitAPIBase != "http://localhost:9998" {
		t.Errorf("FaceitAPIBase = %q", cfg.FaceitAPIBase)
	}
	if cfg.DBDsn != "postgres://u:p@host:5432/x" {
		t.Errorf("DBDsn = %q", cfg.DBDsn)
	}
	if cfg.StaleMatchTTL != 90*time.Minute {
		t.Errorf("StaleMatchTTL = %v, want 90m", cfg.StaleMatchTTL)
	}
}

func TestLoadInvalidTTL(t *testing.T) {
	t.Setenv("STALE_MATCH_TTL", "soon")
	if _, err := Load(); err == nil {
		t.Error("Load() expected error for unparseable STALE_MATCH_TTL")
	}
}

func TestValidateVoiceReady(t *testing.T) {
	cfg := &Config{}
	if err := cfg.ValidateVoiceReady(); err == nil {
		t.Error("ValidateVoiceReady() expected error with no credentials")
	}
	cfg.DiscordBotToken = "tok"
	if err := cfg.ValidateVoiceReady(); err == nil {
		t.Error("ValidateVoiceReady() expected error without guild id")
	}
	cfg.DiscordGuildID = "g1"
	if err := cfg.ValidateVoiceReady(); err != nil {
		t.Errorf("ValidateVoiceReady() error = %v", err)
	}
}

func TestValidateOAuthReady(t *testing.T) {
	cfg := &Config{}
	if err := cfg.ValidateOAuthReady(); err == nil {
		t.Error("ValidateOAuthReady() expected error with no client config")
	}
	cfg.FaceitClientID = "c1"
	cfg.FaceitRedirectURI = "https://example.com/cb"
	if err := cfg.ValidateOAuthReady(); err != nil {
		t.Errorf("ValidateOAuthReady() error = %v", err)
	}
}
