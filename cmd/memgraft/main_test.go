package main

import (
	"testing"

	"github.com/memgraft/memgraft/internal/config"
)

func TestApplyEvaluateFlags(t *testing.T) {
	cmd := evaluateCmd()
	args := []string{
		"--seeds", "custom_seeds.json",
		"--target-benign", "50",
		"--target-poisoned", "5",
		"--backend", "vector",
		"--top-k", "7",
		"--scoring", "fraction",
		"--out", "custom_out",
	}
	if err := cmd.ParseFlags(args); err != nil {
		t.Fatal(err)
	}

	cfg, err := config.Load("")
	if err != nil {
		t.Fatal(err)
	}
	applyEvaluateFlags(cmd, cfg)

	if cfg.Seeds.Path != "custom_seeds.json" {
		t.Errorf("seeds = %s, want custom_seeds.json", cfg.Seeds.Path)
	}
	if cfg.Seeds.TargetBenign != 50 {
		t.Errorf("target_benign = %d, want 50", cfg.Seeds.TargetBenign)
	}
	if cfg.Seeds.TargetPoisoned != 5 {
		t.Errorf("target_poisoned = %d, want 5", cfg.Seeds.TargetPoisoned)
	}
	if cfg.Index.Backend != "vector" {
		t.Errorf("backend = %s, want vector", cfg.Index.Backend)
	}
	if cfg.Index.TopK != 7 {
		t.Errorf("top_k = %d, want 7", cfg.Index.TopK)
	}
	if cfg.Evaluation.Scoring != "fraction" {
		t.Errorf("scoring = %s, want fraction", cfg.Evaluation.Scoring)
	}
	if cfg.Output.Dir != "custom_out" {
		t.Errorf("out dir = %s, want custom_out", cfg.Output.Dir)
	}
}

func TestApplyEvaluateFlags_Defaults(t *testing.T) {
	cmd := evaluateCmd()
	if err := cmd.ParseFlags(nil); err != nil {
		t.Fatal(err)
	}

	cfg, err := config.Load("")
	if err != nil {
		t.Fatal(err)
	}
	applyEvaluateFlags(cmd, cfg)

	// Unset flags leave the configured values alone.
	if cfg.Seeds.TargetBenign != 100 || cfg.Seeds.TargetPoisoned != 10 {
		t.Errorf("targets = (%d, %d), want config defaults (100, 10)",
			cfg.Seeds.TargetBenign, cfg.Seeds.TargetPoisoned)
	}
	if cfg.Index.TopK != 3 {
		t.Errorf("top_k = %d, want config default 3", cfg.Index.TopK)
	}
}

func TestApplyEvaluateFlags_ZeroTargets(t *testing.T) {
	cmd := evaluateCmd()
	if err := cmd.ParseFlags([]string{"--target-benign", "0", "--target-poisoned", "0"}); err != nil {
		t.Fatal(err)
	}

	cfg, err := config.Load("")
	if err != nil {
		t.Fatal(err)
	}
	applyEvaluateFlags(cmd, cfg)

	if cfg.Seeds.TargetBenign != 0 || cfg.Seeds.TargetPoisoned != 0 {
		t.Errorf("targets = (%d, %d), want (0, 0)",
			cfg.Seeds.TargetBenign, cfg.Seeds.TargetPoisoned)
	}
}
