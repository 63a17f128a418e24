package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	c, err := Load("")
	if err != nil {
		t.Fatal(err)
	}
	if c.Server.Addr != ":8080" {
		t.Errorf("addr = %q", c.Server.Addr)
	}
	if c.Cache.Kind != "memory" {
		t.Errorf("cache kind = %q", c.Cache.Kind)
	}
	if c.StepUp.Code.Length != 6 || c.StepUp.Attempts.MaxAttempts != 3 {
		t.Errorf("stepup defaults not applied: %+v", c.StepUp)
	}
	if c.StepUp.Code.CacheKeyPrefix != "stepup_code" {
		t.Errorf("code prefix = %q", c.StepUp.Code.CacheKeyPrefix)
	}
}

func TestLoadYAMLAndEnvOverride(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	yaml := `
stepup:
  code:
    length: 8
  attempts:
    max_attempts: 5
`
	if err := os.WriteFile(path, []byte(yaml), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("STEPUP_MAX_ATTEMPTS", "7")

	c, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if c.StepUp.Code.Length != 8 {
		t.Errorf("yaml override lost: length = %d", c.StepUp.Code.Length)
	}
	// env gana sobre yaml
	if c.StepUp.Attempts.MaxAttempts != 7 {
		t.Errorf("env override lost: max_attempts = %d", c.StepUp.Attempts.MaxAttempts)
	}
}

func TestValidateRejectsNonPositiveBounds(t *testing.T) {
	t.Setenv("STEPUP_BLOCK_DURATION_MINUTES", "-5")
	if _, err := Load(""); err == nil {
		t.Fatal("negative block duration must be rejected")
	}
}

func TestValidateRejectsBogusCacheKind(t *testing.T) {
	t.Setenv("STEPUP_CACHE_KIND", "memcached")
	if _, err := Load(""); err == nil {
		t.Fatal("unknown cache kind must be rejected")
	}
}

func TestValidateSMTPRequiresHost(t *testing.T) {
	t.Setenv("STEPUP_NOTIFY_KIND", "smtp")
	if _, err := Load(""); err == nil {
		t.Fatal("notify.kind=smtp without smtp.host must be rejected")
	}
}
