package cmd

import (
	"testing"

	"locksync/core/config"
	"locksync/core/reconcile"

	"github.com/stretchr/testify/assert"
)

func TestEffectiveDryRun(t *testing.T) {
	tests := []struct {
		name string
		flag bool
		cfg  bool
		want bool
	}{
		{"neither", false, false, false},
		{"flag only", true, false, true},
		{"config only", false, true, true},
		{"both", true, true, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &config.Config{Reconcile: reconcile.Config{DryRun: tt.cfg}}
			assert.Equal(t, tt.want, effectiveDryRun(tt.flag, cfg))
		})
	}
}
