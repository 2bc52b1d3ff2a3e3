package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

const (
	testSecretID  = "0123456789abcdef0123456789abcdef"
	testSecretB64 = "dGVzdHNlY3JldDEyMzQ1Njc4OTBhYmNkZWZnaGlqa2xtbm9w"
)

func TestHMACSecrets(t *testing.T) {
	t.Run("single secret", func(t *testing.T) {
		t.Setenv("XR_HMAC_SECRET", testSecretID+":"+testSecretB64)

		secrets, err := HMACSecrets()
		if err != nil {
			t.Fatalf("HMACSecrets failed: %v", err)
		}
		if len(secrets) != 1 {
			t.Errorf("expected 1 secret, got %d", len(secrets))
		}
		if _, ok := secrets[testSecretID]; !ok {
			t.Errorf("secret_id not found in map")
		}
	})

	t.Run("multiple numbered secrets", func(t *testing.T) {
		t.Setenv("XR_HMAC_SECRET_1", testSecretID+":"+testSecretB64)
		t.Setenv("XR_HMAC_SECRET_2", "fedcba9876543210fedcba9876543210:YW5vdGhlcnNlY3JldDEyMzQ1Njc4OTBhYmNkZWZnaGlqa2xtbm9w")

		secrets, err := HMACSecrets()
		if err != nil {
			t.Fatalf("HMACSecrets failed: %v", err)
		}
		if len(secrets) != 2 {
			t.Errorf("expected 2 secrets, got %d", len(secrets))
		}
	})

	t.Run("numbering stops at first gap", func(t *testing.T) {
		t.Setenv("XR_HMAC_SECRET_1", testSecretID+":"+testSecretB64)
		t.Setenv("XR_HMAC_SECRET_3", "fedcba9876543210fedcba9876543210:YW5vdGhlcnNlY3JldDEyMzQ1Njc4OTBhYmNkZWZnaGlqa2xtbm9w")

		secrets, err := HMACSecrets()
		if err != nil {
			t.Fatalf("HMACSecrets failed: %v", err)
		}
		if len(secrets) != 1 {
			t.Errorf("expected 1 secret, got %d", len(secrets))
		}
	})

	errorCases := []struct {
		name string
		env  map[string]string
	}{
		{name: "invalid format", env: map[string]string{"XR_HMAC_SECRET": "invalid_format"}},
		{name: "invalid secret_id length", env: map[string]string{"XR_HMAC_SECRET": "short:" + testSecretB64}},
		{name: "non-hex secret_id", env: map[string]string{"XR_HMAC_SECRET": "0123456789abcdefGHIJKLMNOPQRSTUV:" + testSecretB64}},
		{name: "duplicate secret_id in numbered secrets", env: map[string]string{
			"XR_HMAC_SECRET_1": testSecretID + ":" + testSecretB64,
			"XR_HMAC_SECRET_2": testSecretID + ":YW5vdGhlcnNlY3JldDEyMzQ1Njc4OTBhYmNkZWZnaGlqa2xtbm9w",
		}},
		{name: "duplicate secret_id between single and numbered", env: map[string]string{
			"XR_HMAC_SECRET":   testSecretID + ":" + testSecretB64,
			"XR_HMAC_SECRET_1": testSecretID + ":YW5vdGhlcnNlY3JldDEyMzQ1Njc4OTBhYmNkZWZnaGlqa2xtbm9w",
		}},
	}

	for _, tt := range errorCases {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			if _, err := HMACSecrets(); err == nil {
				t.Errorf("HMACSecrets() error = nil, want error")
			}
		})
	}
}

func TestLoadConfig(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		cfg, err := LoadConfig("")
		if err != nil {
			t.Fatalf("LoadConfig failed: %v", err)
		}
		if cfg.Server.Host != "0.0.0.0" {
			t.Errorf("Host = %v, want %v", cfg.Server.Host, "0.0.0.0")
		}
		if cfg.Server.Port != 50061 {
			t.Errorf("Port = %v, want %v", cfg.Server.Port, 50061)
		}
		if cfg.Server.RequestTimeout != 30*time.Second {
			t.Errorf("RequestTimeout = %v, want %v", cfg.Server.RequestTimeout, 30*time.Second)
		}
		if cfg.Server.MaxMessageSize != 4*1024*1024 {
			t.Errorf("MaxMessageSize = %v, want %v", cfg.Server.MaxMessageSize, 4*1024*1024)
		}
		if !cfg.XPath.LoadFromDB {
			t.Errorf("LoadFromDB = false, want true")
		}
		if len(cfg.XPath.Replacements) != 0 {
			t.Errorf("Replacements = %v, want empty", cfg.XPath.Replacements)
		}
	})

	t.Run("environment override", func(t *testing.T) {
		t.Setenv("XR_SERVER_PORT", "9999")
		t.Setenv("XR_SERVER_HOST", "127.0.0.1")
		t.Setenv("XR_XPATH_LOAD_FROM_DB", "false")

		cfg, err := LoadConfig("")
		if err != nil {
			t.Fatalf("LoadConfig failed: %v", err)
		}
		if cfg.Server.Port != 9999 {
			t.Errorf("Port = %v, want %v", cfg.Server.Port, 9999)
		}
		if cfg.Server.Host != "127.0.0.1" {
			t.Errorf("Host = %v, want %v", cfg.Server.Host, "127.0.0.1")
		}
		if cfg.XPath.LoadFromDB {
			t.Errorf("LoadFromDB = true, want false")
		}
	})

	t.Run("file keeps rule order", func(t *testing.T) {
		path := writeFile(t, "config.yaml", `xpath:
  replacements:
    - '"/a/.*":"p1"'
    - '"/a/b":"p2"'
  rule_files:
    - extra.yaml
database:
  url: sqlite:///tmp/rules.db
`)
		cfg, err := LoadConfig(path)
		if err != nil {
			t.Fatalf("LoadConfig failed: %v", err)
		}
		want := []string{`"/a/.*":"p1"`, `"/a/b":"p2"`}
		if len(cfg.XPath.Replacements) != len(want) {
			t.Fatalf("Replacements = %v, want %v", cfg.XPath.Replacements, want)
		}
		for i := range want {
			if cfg.XPath.Replacements[i] != want[i] {
				t.Errorf("Replacements[%d] = %v, want %v", i, cfg.XPath.Replacements[i], want[i])
			}
		}
		if len(cfg.XPath.RuleFiles) != 1 || cfg.XPath.RuleFiles[0] != "extra.yaml" {
			t.Errorf("RuleFiles = %v, want [extra.yaml]", cfg.XPath.RuleFiles)
		}
		if cfg.DatabaseURL != "sqlite:///tmp/rules.db" {
			t.Errorf("DatabaseURL = %v, want %v", cfg.DatabaseURL, "sqlite:///tmp/rules.db")
		}
	})

	t.Run("invalid port range", func(t *testing.T) {
		t.Setenv("XR_SERVER_PORT", "70000")
		if _, err := LoadConfig(""); err == nil {
			t.Error("expected error for port > 65535")
		}
	})

	t.Run("invalid message size", func(t *testing.T) {
		t.Setenv("XR_SERVER_MAX_MESSAGE_SIZE", "-1")
		if _, err := LoadConfig(""); err == nil {
			t.Error("expected error for negative max_message_size")
		}
	})

	t.Run("secret in environment is not a config file secret", func(t *testing.T) {
		t.Setenv("XR_HMAC_SECRET", testSecretID+":"+testSecretB64)
		if _, err := LoadConfig(""); err != nil {
			t.Errorf("LoadConfig failed: %v", err)
		}
	})

	t.Run("secret in config file rejected", func(t *testing.T) {
		path := writeFile(t, "config.yaml", `server:
  port: 8080
  hmac_secret: "should_be_rejected"
`)
		_, err := LoadConfig(path)
		if err == nil {
			t.Fatal("expected error for secret in config file")
		}
		want := "HMAC secrets not allowed in config files (use XR_HMAC_SECRET environment variable)"
		if err.Error() != want {
			t.Errorf("error = %v, want %v", err, want)
		}
	})

	t.Run("environment overrides file", func(t *testing.T) {
		t.Setenv("XR_SERVER_PORT", "8080")
		path := writeFile(t, "config.yaml", "server:\n  port: 9090\n")

		cfg, err := LoadConfig(path)
		if err != nil {
			t.Fatalf("LoadConfig failed: %v", err)
		}
		if cfg.Server.Port != 8080 {
			t.Errorf("Port = %v, want %v", cfg.Server.Port, 8080)
		}
	})
}

func TestParseHMACSecret(t *testing.T) {
	tests := []struct {
		name    string
		value   string
		wantErr bool
	}{
		{name: "valid base64", value: testSecretB64},
		{name: "invalid base64", value: "not-valid-base64!!!", wantErr: true},
		{name: "secret too short", value: "c2hvcnQ=", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			secret, err := ParseHMACSecret(tt.value)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseHMACSecret() error = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && len(secret) < 32 {
				t.Errorf("len(secret) = %d, want >= 32", len(secret))
			}
		})
	}
}

func TestParseHMACSecretWithID(t *testing.T) {
	secretID, secret, err := ParseHMACSecretWithID(testSecretID + ":" + testSecretB64)
	if err != nil {
		t.Fatalf("ParseHMACSecretWithID failed: %v", err)
	}
	if secretID != testSecretID {
		t.Errorf("secretID = %v, want %v", secretID, testSecretID)
	}
	if len(secret) == 0 {
		t.Error("secret should not be empty")
	}

	for _, bad := range []string{
		testSecretID,
		"tooshort:" + testSecretB64,
		"0123456789abcdefGHIJKLMNOPQRSTUV:" + testSecretB64,
	} {
		if _, _, err := ParseHMACSecretWithID(bad); err == nil {
			t.Errorf("ParseHMACSecretWithID(%q) error = nil, want error", bad)
		}
	}
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}
