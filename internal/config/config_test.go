package config

import (
	"reflect"
	"strings"
	"testing"
	"time"
)

func env(vars map[string]string) LookupFunc {
	return func(key string) (string, bool) {
		v, ok := vars[key]
		return v, ok
	}
}

func validConfig() *Config {
	return &Config{
		Server:   ServerConfig{Port: 8080, ShutdownTimeout: time.Second, RequestTimeout: time.Minute},
		Upload:   UploadConfig{MaxFileSize: 1, MaxRows: 1, MaxConcurrent: 1, MaxWaitTime: time.Second},
		Rate:     RateLimitConfig{Enabled: true, RequestsPerMinute: 100, Burst: 10},
		Logging:  LoggingConfig{Level: "info", Format: "text"},
		Cleaning: CleaningConfig{PreviewSize: 5, SampleRows: 20, PhoneRegion: "KE"},
	}
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := LoadFrom(env(nil))
	if err != nil {
		t.Fatalf("LoadFrom() error = %v", err)
	}

	if cfg.Server.Host != "0.0.0.0" {
		t.Errorf("Server.Host = %q, want %q", cfg.Server.Host, "0.0.0.0")
	}
	if cfg.Server.Port != 8080 {
		t.Errorf("Server.Port = %d, want %d", cfg.Server.Port, 8080)
	}
	if cfg.Upload.MaxConcurrent != 4 {
		t.Errorf("Upload.MaxConcurrent = %d, want %d", cfg.Upload.MaxConcurrent, 4)
	}
	if cfg.Upload.MaxFileSize != 20971520 {
		t.Errorf("Upload.MaxFileSize = %d, want %d", cfg.Upload.MaxFileSize, 20971520)
	}
	if cfg.Rate.RequestsPerMinute != 120 || cfg.Rate.Burst != 20 {
		t.Errorf("Rate = %+v", cfg.Rate)
	}
	if cfg.Cleaning.PreviewSize != 5 || cfg.Cleaning.SampleRows != 20 || cfg.Cleaning.PhoneRegion != "KE" {
		t.Errorf("Cleaning = %+v", cfg.Cleaning)
	}
	if cfg.Cleaning.PresetFile != "" {
		t.Errorf("Cleaning.PresetFile = %q, want empty", cfg.Cleaning.PresetFile)
	}
}

func TestLoad_OverrideDefaults(t *testing.T) {
	cfg, err := LoadFrom(env(map[string]string{
		"SERVER_PORT":           "9090",
		"UPLOAD_MAX_CONCURRENT": "10",
		"LOG_LEVEL":             "debug",
		"LYNQ_PRESET_FILE":      " presets/kenya.yaml ",
		"RATE_LIMIT_ENABLED":    "false",
	}))
	if err != nil {
		t.Fatalf("LoadFrom() error = %v", err)
	}

	if cfg.Server.Port != 9090 {
		t.Errorf("Server.Port = %d, want %d", cfg.Server.Port, 9090)
	}
	if cfg.Upload.MaxConcurrent != 10 {
		t.Errorf("Upload.MaxConcurrent = %d, want %d", cfg.Upload.MaxConcurrent, 10)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("Logging.Level = %q, want %q", cfg.Logging.Level, "debug")
	}
	if cfg.Cleaning.PresetFile != "presets/kenya.yaml" {
		t.Errorf("Cleaning.PresetFile = %q", cfg.Cleaning.PresetFile)
	}
	if cfg.Rate.Enabled {
		t.Error("Rate.Enabled = true, want false")
	}
}

func TestLoad_AltEnvVar(t *testing.T) {
	cfg, err := LoadFrom(env(map[string]string{"PORT": "3000"}))
	if err != nil {
		t.Fatalf("LoadFrom() error = %v", err)
	}
	if cfg.Server.Port != 3000 {
		t.Errorf("Server.Port = %d, want 3000", cfg.Server.Port)
	}

	cfg, err = LoadFrom(env(map[string]string{"PORT": "3000", "SERVER_PORT": "4000"}))
	if err != nil {
		t.Fatalf("LoadFrom() error = %v", err)
	}
	if cfg.Server.Port != 4000 {
		t.Errorf("Server.Port = %d, want primary variable 4000", cfg.Server.Port)
	}
}

func TestLoad_ProcessEnvironment(t *testing.T) {
	t.Setenv("LYNQ_PREVIEW_SIZE", "8")
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Cleaning.PreviewSize != 8 {
		t.Errorf("Cleaning.PreviewSize = %d, want 8", cfg.Cleaning.PreviewSize)
	}
}

func TestLoad_Duration(t *testing.T) {
	cfg, err := LoadFrom(env(map[string]string{
		"SERVER_READ_TIMEOUT":  "45s",
		"UPLOAD_MAX_WAIT_TIME": "1m30s",
	}))
	if err != nil {
		t.Fatalf("LoadFrom() error = %v", err)
	}

	if cfg.Server.ReadTimeout != 45*time.Second {
		t.Errorf("Server.ReadTimeout = %v, want %v", cfg.Server.ReadTimeout, 45*time.Second)
	}
	if cfg.Upload.MaxWaitTime != 90*time.Second {
		t.Errorf("Upload.MaxWaitTime = %v, want %v", cfg.Upload.MaxWaitTime, 90*time.Second)
	}
}

func TestLoad_InvalidValues(t *testing.T) {
	tests := []struct {
		name string
		vars map[string]string
		want string
	}{
		{"bad integer", map[string]string{"SERVER_PORT": "eighty"}, "SERVER_PORT"},
		{"bad duration", map[string]string{"UPLOAD_MAX_WAIT_TIME": "soon"}, "invalid duration"},
		{"bad bool", map[string]string{"RATE_LIMIT_ENABLED": "maybe"}, "invalid boolean"},
		{"bad log format", map[string]string{"LOG_FORMAT": "xml"}, "LOG_FORMAT"},
		{"bad region", map[string]string{"LYNQ_PHONE_REGION": "KEN"}, "LYNQ_PHONE_REGION"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadFrom(env(tt.vars))
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error %q should mention %q", err, tt.want)
			}
		})
	}
}

func TestLoad_CommaSeparatedSlice(t *testing.T) {
	cfg, err := LoadFrom(env(map[string]string{
		"TRUSTED_PROXIES": "10.0.0.0/8, 172.16.0.0/12 , 192.168.0.0/16",
	}))
	if err != nil {
		t.Fatalf("LoadFrom() error = %v", err)
	}

	expected := []string{"10.0.0.0/8", "172.16.0.0/12", "192.168.0.0/16"}
	if !reflect.DeepEqual(cfg.Security.TrustedProxies, expected) {
		t.Errorf("TrustedProxies = %v, want %v", cfg.Security.TrustedProxies, expected)
	}
}

func TestLoadStruct_Required(t *testing.T) {
	var target struct {
		Token string `env:"TOKEN" required:"true"`
	}
	err := loadStruct(reflect.ValueOf(&target).Elem(), env(nil))
	if err == nil || !strings.Contains(err.Error(), "TOKEN") {
		t.Fatalf("err = %v, want missing TOKEN", err)
	}

	if err := loadStruct(reflect.ValueOf(&target).Elem(), env(map[string]string{"TOKEN": "x"})); err != nil {
		t.Fatal(err)
	}
	if target.Token != "x" {
		t.Errorf("Token = %q", target.Token)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"valid", func(*Config) {}, ""},
		{"invalid port", func(c *Config) { c.Server.Port = 99999 }, "SERVER_PORT"},
		{"no rows", func(c *Config) { c.Upload.MaxRows = 0 }, "UPLOAD_MAX_ROWS"},
		{"burst with limiter on", func(c *Config) { c.Rate.Burst = 0 }, "RATE_LIMIT_BURST"},
		{"burst with limiter off", func(c *Config) { c.Rate.Enabled = false; c.Rate.Burst = 0 }, ""},
		{"bad proxy", func(c *Config) { c.Security.TrustedProxies = []string{"10.0.0.1"} }, "TRUSTED_PROXIES"},
		{"log level", func(c *Config) { c.Logging.Level = "verbose" }, "LOG_LEVEL"},
		{"preview size", func(c *Config) { c.Cleaning.PreviewSize = 0 }, "LYNQ_PREVIEW_SIZE"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.want == "" {
				if err != nil {
					t.Errorf("Validate() = %v, want nil", err)
				}
				return
			}
			if err == nil {
				t.Fatalf("Validate() expected error mentioning %s", tt.want)
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error should mention %s: %v", tt.want, err)
			}
		})
	}
}

func TestValidate_ListsEveryFailure(t *testing.T) {
	cfg := validConfig()
	cfg.Server.Port = 0
	cfg.Logging.Format = "xml"
	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected error")
	}
	if got := strings.Count(err.Error(), "\n  - "); got != 2 {
		t.Errorf("error lists %d failures, want 2: %v", got, err)
	}
}

func TestServerAddr(t *testing.T) {
	tests := []struct {
		host string
		port int
		want string
	}{
		{"", 8080, ":8080"},
		{"0.0.0.0", 8080, "0.0.0.0:8080"},
		{"127.0.0.1", 3000, "127.0.0.1:3000"},
		{"localhost", 443, "localhost:443"},
	}

	for _, tt := range tests {
		cfg := &ServerConfig{Host: tt.host, Port: tt.port}
		got := cfg.Addr()
		if got != tt.want {
			t.Errorf("Addr() with host=%q, port=%d = %q, want %q", tt.host, tt.port, got, tt.want)
		}
	}
}

func TestConfigString(t *testing.T) {
	cfg := validConfig()
	cfg.Cleaning.PresetFile = "kenya.yaml"
	str := cfg.String()
	for _, want := range []string{`Addr: ":8080"`, `PresetFile: "kenya.yaml"`, "Burst: 10"} {
		if !strings.Contains(str, want) {
			t.Errorf("String() = %s, missing %s", str, want)
		}
	}
}
