package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// env-переменные из recognizedKeys чистим перед каждым тестом,
// чтобы окружение CI не влияло на приоритеты источников.
func cleanEnv(t *testing.T) {
	t.Helper()
	for _, key := range recognizedKeys {
		t.Setenv(key, "")
		os.Unsetenv(key)
	}
}

func TestResolve_Defaults(t *testing.T) {
	cleanEnv(t)

	cfg, err := Resolve(map[string]any{"LLM_API_TYPE": "none"}, WithoutFile())
	require.NoError(t, err)

	assert.Equal(t, "tpl", cfg.PromptTemplatesPath)
	assert.Equal(t, "storage", cfg.StoragePath)
	assert.Equal(t, "embedding_db", cfg.EmbeddingDBFolder)
	assert.Equal(t, "utf-8", cfg.DefaultEncoding)
	assert.Nil(t, cfg.ChatMode)
}

func TestResolve_EnvKey(t *testing.T) {
	cleanEnv(t)
	t.Setenv("OPENAI_API_KEY", "sk-test")

	cfg, err := Resolve(nil, WithoutFile())
	require.NoError(t, err)

	assert.Equal(t, "sk-test", cfg.LLMAPIKey)
	assert.Equal(t, APITypeOpenAI, cfg.LLMAPIType)
	assert.Equal(t, defaultOpenAIBase, cfg.LLMAPIBase)
	assert.Equal(t, defaultOpenAIModel, cfg.Model)
}

func TestResolve_OverridesAlwaysWin(t *testing.T) {
	cleanEnv(t)
	t.Setenv("MODEL", "from-env")
	t.Setenv("LLM_API_KEY", "key-env")

	dir := t.TempDir()
	envFile := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(envFile, []byte("MODEL=from-file\n"), 0o644))

	cfg, err := Resolve(map[string]any{"MODEL": "from-override"}, WithFile(envFile))
	require.NoError(t, err)
	assert.Equal(t, "from-override", cfg.Model)
}

func TestResolve_MapOptionReplacedWholesale(t *testing.T) {
	cleanEnv(t)
	t.Setenv("LLM_API_TYPE", "none")
	t.Setenv("LLM_DEFAULT_ARGS", `{"temperature": 0.9}`)

	cfg, err := Resolve(map[string]any{
		"LLM_DEFAULT_ARGS": map[string]any{"max_tokens": 10},
	}, WithoutFile())
	require.NoError(t, err)

	// Поздний источник замещает значение опции целиком:
	// temperature из окружения не должна пережить override.
	assert.Equal(t, map[string]any{"max_tokens": 10}, cfg.LLMDefaultArgs)
}

func TestResolve_FileBeatsEnv(t *testing.T) {
	cleanEnv(t)
	t.Setenv("MODEL", "from-env")
	t.Setenv("LLM_API_KEY", "key")

	dir := t.TempDir()
	envFile := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(envFile, []byte("MODEL=from-file\n"), 0o644))

	cfg, err := Resolve(nil, WithFile(envFile))
	require.NoError(t, err)
	assert.Equal(t, "from-file", cfg.Model)
}

func TestResolve_MissingFileIsFine(t *testing.T) {
	cleanEnv(t)
	t.Setenv("LLM_API_KEY", "key")

	cfg, err := Resolve(nil, WithFile(filepath.Join(t.TempDir(), "nope.env")))
	require.NoError(t, err)
	assert.Equal(t, "key", cfg.LLMAPIKey)
}

func TestResolve_UnknownOption(t *testing.T) {
	cleanEnv(t)

	tests := []struct {
		name      string
		overrides map[string]any
		wantErr   string
	}{
		{
			name:      "unknown override key",
			overrides: map[string]any{"LLM_API_KEY": "k", "BANANAS": "1"},
			wantErr:   "unknown option BANANAS",
		},
		{
			name:      "free-form header passes",
			overrides: map[string]any{"LLM_API_KEY": "k", "HTTP_HEADER_X_PROXY": "p"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := Resolve(tt.overrides, WithoutFile())
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				var cfgErr *ConfigError
				assert.ErrorAs(t, err, &cfgErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "p", cfg.HTTPHeaders["X-PROXY"])
		})
	}
}

func TestResolve_UnknownOptionInFile(t *testing.T) {
	cleanEnv(t)
	dir := t.TempDir()
	envFile := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(envFile, []byte("SOME_GARBAGE=1\n"), 0o644))

	_, err := Resolve(map[string]any{"LLM_API_KEY": "k"}, WithFile(envFile))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown option SOME_GARBAGE")
}

func TestResolve_MalformedJSONEnv(t *testing.T) {
	cleanEnv(t)
	t.Setenv("LLM_API_KEY", "key")
	t.Setenv("LLM_DEFAULT_ARGS", "{not json")

	_, err := Resolve(nil, WithoutFile())
	require.Error(t, err)
	var cfgErr *ConfigError
	assert.ErrorAs(t, err, &cfgErr)
}

func TestResolve_JSONMapEnv(t *testing.T) {
	cleanEnv(t)
	t.Setenv("LLM_API_KEY", "key")
	t.Setenv("LLM_DEFAULT_ARGS", `{"temperature": 0.2, "max_tokens": 100}`)

	cfg, err := Resolve(nil, WithoutFile())
	require.NoError(t, err)
	assert.Equal(t, 0.2, cfg.LLMDefaultArgs["temperature"])
}

func TestResolve_MissingAPIKey(t *testing.T) {
	cleanEnv(t)

	_, err := Resolve(nil, WithoutFile())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "LLM_API_KEY is absent")
}

func TestResolve_AnthropicDefaults(t *testing.T) {
	cleanEnv(t)
	t.Setenv("ANTHROPIC_API_KEY", "ak-123")
	t.Setenv("LLM_API_TYPE", "anthropic")

	cfg, err := Resolve(nil, WithoutFile())
	require.NoError(t, err)
	assert.Equal(t, "ak-123", cfg.LLMAPIKey)
	assert.Equal(t, defaultAnthropicBase, cfg.LLMAPIBase)
	assert.Equal(t, defaultAnthropicModel, cfg.Model)
}

func TestResolve_AzureValidation(t *testing.T) {
	cleanEnv(t)

	_, err := Resolve(map[string]any{
		"LLM_API_TYPE": "azure",
		"LLM_API_KEY":  "k",
		"LLM_API_BASE": "https://example.openai.azure.com",
	}, WithoutFile())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "LLM_DEPLOYMENT_ID")
}

func TestResolve_FunctionRequiresInference(t *testing.T) {
	cleanEnv(t)

	_, err := Resolve(map[string]any{"LLM_API_TYPE": "function"}, WithoutFile())
	require.Error(t, err)

	cfg, err := Resolve(map[string]any{
		"LLM_API_TYPE":   "function",
		"INFERENCE_FUNC": InferenceFunc(nil),
	}, WithoutFile())
	require.Error(t, err)
	assert.Nil(t, cfg)
}

func TestEffectiveHeaders_ExtraHeadersWin(t *testing.T) {
	cleanEnv(t)

	cfg, err := Resolve(map[string]any{
		"LLM_API_KEY":  "k",
		"HTTP_HEADERS": map[string]any{"X-Team": "core", "X-Trace": "on"},
		"INIT_PARAMS": map[string]any{
			"extra_headers": map[string]any{"X-Team": "override"},
		},
	}, WithoutFile())
	require.NoError(t, err)

	headers := cfg.EffectiveHeaders()
	assert.Equal(t, "override", headers["X-Team"])
	assert.Equal(t, "on", headers["X-Trace"])
}

func TestParseBool(t *testing.T) {
	tests := []struct {
		in   string
		want bool
	}{
		{"1", true}, {"TRUE", true}, {"yes", true}, {"On", true},
		{"enabled", true}, {"y", true}, {"+", true},
		{"0", false}, {"false", false}, {"off", false}, {"", false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, parseBool(tt.in), "parseBool(%q)", tt.in)
	}
}

func TestMaskSecret(t *testing.T) {
	assert.Equal(t, "sk-****23", maskSecret("sk-proj-secret123"))
	assert.Equal(t, "s****st", maskSecret("s-short-st"))
	// короткий секрет не должен светиться в Describe даже частично
	assert.Equal(t, "****", maskSecret("abc"))
	assert.Equal(t, "****", maskSecret("abcdef"))
	assert.Equal(t, "", maskSecret(""))
}

func TestIsChatModel(t *testing.T) {
	cfg := &Config{Model: "gpt-4o"}
	assert.True(t, cfg.IsChatModel(""))
	assert.False(t, cfg.IsChatModel("gpt-3.5-turbo-instruct"))
	assert.False(t, cfg.IsChatModel("text-davinci-003"))

	chat := false
	cfg = &Config{Model: "gpt-4o", ChatMode: &chat}
	assert.False(t, cfg.IsChatModel(""))
}
