package config

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/sethvargo/go-envconfig"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := load(context.Background(), envconfig.MapLookuper(map[string]string{}))
	if err != nil {
		t.Fatalf("load returned error: %v", err)
	}
	if cfg.Port != "8080" || cfg.Env != "development" {
		t.Fatalf("unexpected defaults: port=%s env=%s", cfg.Port, cfg.Env)
	}
	if cfg.Interaction.Cost != 10 || cfg.StartingTokens != 100 {
		t.Fatalf("unexpected ledger defaults: cost=%d start=%d", cfg.Interaction.Cost, cfg.StartingTokens)
	}
	if cfg.TokenTTL != 24*time.Hour {
		t.Fatalf("unexpected token ttl %s", cfg.TokenTTL)
	}
	if cfg.Interaction.AITimeout != 20*time.Second {
		t.Fatalf("unexpected ai call timeout %s", cfg.Interaction.AITimeout)
	}
	if cfg.MQ.Backend != "none" || cfg.Storage.Backend != "none" {
		t.Fatalf("expected optional backends off by default")
	}
}

func TestLoad_Overrides(t *testing.T) {
	cfg, err := load(context.Background(), envconfig.MapLookuper(map[string]string{
		"ENV":              "production",
		"JWT_SECRET":       "s3cret",
		"INTERACTION_COST": "25",
		"STARTING_TOKENS":  "0",
		"MQ_BACKEND":       "rabbitmq",
		"STORAGE_BACKEND":  "gcs",
	}))
	if err != nil {
		t.Fatalf("load returned error: %v", err)
	}
	if cfg.Interaction.Cost != 25 || cfg.StartingTokens != 0 || cfg.MQ.Backend != "rabbitmq" || cfg.Storage.Backend != "gcs" {
		t.Fatalf("overrides not applied: %+v", cfg)
	}
}

func TestLoad_Invalid(t *testing.T) {
	cases := map[string]map[string]string{
		"missing secret in production": {"ENV": "production"},
		"zero cost":                    {"INTERACTION_COST": "0"},
		"unknown broker":               {"MQ_BACKEND": "kafka"},
		"unknown storage":              {"STORAGE_BACKEND": "s3"},
	}
	for name, env := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := load(context.Background(), envconfig.MapLookuper(env))
			if err == nil || !strings.HasPrefix(err.Error(), "config:") {
				t.Fatalf("expected config error, got %v", err)
			}
		})
	}
}
