package config

import (
	"testing"
)

func validConfig() Config {
	return Config{
		HTTP:      HTTPConfig{Port: 8080},
		Packs:     PacksConfig{DefaultPack: "hopkins"},
		Embedding: EmbeddingConfig{APIKey: "test-key"},
	}
}

func TestValidate_Valid(t *testing.T) {
	cfg := validConfig()
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestValidate_InvalidPort(t *testing.T) {
	for _, port := range []int{0, -1, 70000} {
		cfg := validConfig()
		cfg.HTTP.Port = port
		if err := cfg.Validate(); err == nil {
			t.Errorf("expected error for port %d", port)
		}
	}
}

func TestValidate_MissingAPIKey(t *testing.T) {
	cfg := validConfig()
	cfg.Embedding.APIKey = ""
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for missing embedding.api_key")
	}
}

func TestValidate_MissingDefaultPack(t *testing.T) {
	cfg := validConfig()
	cfg.Packs.DefaultPack = ""
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for missing packs.default_pack")
	}
}

func TestValidate_QAThresholdAboveOne(t *testing.T) {
	cfg := validConfig()
	cfg.Answer.QAThreshold = 1.5
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for qa_threshold > 1")
	}
}

func TestApplyDefaults(t *testing.T) {
	cfg := validConfig()
	cfg.ApplyDefaults()

	if cfg.Answer.QAThreshold != 0.88 {
		t.Errorf("qa_threshold default = %v, want 0.88", cfg.Answer.QAThreshold)
	}
	if cfg.Answer.MaxChunkChars != 2000 {
		t.Errorf("max_chunk_chars default = %d, want 2000", cfg.Answer.MaxChunkChars)
	}
	if cfg.Embedding.MaxBatchSize != 64 {
		t.Errorf("max_batch_size default = %d, want 64", cfg.Embedding.MaxBatchSize)
	}
	if cfg.Completion.APIKey != "test-key" {
		t.Errorf("completion api_key should inherit embedding api_key, got %q", cfg.Completion.APIKey)
	}
	if cfg.Completion.WindowRunes != 48 || cfg.Completion.WindowIntervalMS != 30 {
		t.Errorf("window defaults = %d/%d, want 48/30",
			cfg.Completion.WindowRunes, cfg.Completion.WindowIntervalMS)
	}
}

func TestExpandEnvVars(t *testing.T) {
	t.Setenv("BOOK2AI_TEST_KEY", "sk-value")

	in := []byte("api_key: ${BOOK2AI_TEST_KEY}\nmodel: ${BOOK2AI_TEST_MODEL:-default-model}\n")
	out := string(expandEnvVars(in))

	want := "api_key: sk-value\nmodel: default-model\n"
	if out != want {
		t.Errorf("expandEnvVars:\ngot:  %q\nwant: %q", out, want)
	}
}
