package config

import (
	"strings"
	"testing"
	"time"
)

func validConfig() *Config {
	return &Config{
		ServiceURL:      "http://localhost:8080",
		Port:            "8080",
		Provider:        ProviderMock,
		GeminiModel:     DefaultModel,
		Temperature:     DefaultTemperature,
		ProviderTimeout: DefaultProviderTimeout,
		BaseOutputDir:   "output",
		ShutdownTimeout: 15 * time.Second,
	}
}

func TestValidateEssentialConfig(t *testing.T) {
	cases := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name:   "mock provider needs no credentials",
			mutate: func(c *Config) {},
		},
		{
			name: "gemini provider requires api key",
			mutate: func(c *Config) {
				c.Provider = ProviderGemini
			},
			wantErr: "GEMINI_API_KEY",
		},
		{
			name: "gemini provider with api key",
			mutate: func(c *Config) {
				c.Provider = ProviderGemini
				c.GeminiAPIKey = "test-key"
			},
		},
		{
			name: "unknown provider",
			mutate: func(c *Config) {
				c.Provider = "oracle"
			},
			wantErr: "INSTRUCTION_PROVIDER",
		},
		{
			name: "insecure service url",
			mutate: func(c *Config) {
				c.ServiceURL = "http://example.com"
			},
			wantErr: "HTTPS",
		},
		{
			name: "temperature out of range",
			mutate: func(c *Config) {
				c.Temperature = 3.5
			},
			wantErr: "GEMINI_TEMPERATURE",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := validConfig()
			tc.mutate(cfg)

			err := ValidateEssentialConfig(cfg)
			if tc.wantErr == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tc.wantErr) {
				t.Fatalf("error = %v, want mention of %s", err, tc.wantErr)
			}
		})
	}
}

func TestGetArchiveURI(t *testing.T) {
	cfg := validConfig()
	cfg.ArchiveBucket = "my-bucket"

	if got := cfg.GetArchiveURI("output/abc"); got != "gs://my-bucket/output/abc" {
		t.Errorf("GetArchiveURI = %q", got)
	}
	if got := cfg.GetArchiveURI("gs://other/already"); got != "gs://other/already" {
		t.Errorf("gs:// path must pass through, got %q", got)
	}

	cfg.ArchiveBucket = ""
	if got := cfg.GetArchiveURI("output/abc"); got != "output/abc" {
		t.Errorf("without bucket the path passes through, got %q", got)
	}
	if cfg.ArchiveEnabled() {
		t.Errorf("ArchiveEnabled must be false without a bucket")
	}
}

func TestGetWorkDir(t *testing.T) {
	cfg := validConfig()
	if got := cfg.GetWorkDir("20260823-abcd"); got != "output/20260823-abcd" {
		t.Errorf("GetWorkDir = %q", got)
	}
}
