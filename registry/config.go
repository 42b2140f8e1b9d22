package registry

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/hupe1980/sqlgo/model"
)

// FileConfig is the on-disk shape of a backend descriptor file.
//
// Example models.yaml:
//
//	models:
//	  - id: sql-pro
//	    specialization: sql-specialized
//	    dialects: [postgres, mysql]
//	    accuracyPrior: 88
//	    costPerQuery: 0.002
//	    averageLatencyMs: 900
//	    priority: 1
//	  - id: general-fast
//	    dialects: [postgres]
//	    accuracyPrior: 74
type FileConfig struct {
	Models []ModelConfig
}

// ModelConfig is one descriptor entry in a config file. An empty
// specialization means general purpose; Disabled keeps the entry in the
// file but out of selection.
type ModelConfig struct {
	ID               string
	Specialization   string
	Dialects         []string
	AccuracyPrior    float64
	CostPerQuery     float64
	AverageLatencyMS int
	Priority         int
	Disabled         bool
}

// LoadConfig reads backend descriptors from a models.yaml file found in
// the given directories (the working directory when none are given).
// Values can be overridden through SQLGO_* environment variables.
func LoadConfig(paths ...string) ([]model.ModelDescriptor, error) {
	v := viper.New()
	v.SetConfigName("models")
	v.SetConfigType("yaml")

	if len(paths) == 0 {
		paths = []string{"."}
	}
	for _, p := range paths {
		v.AddConfigPath(p)
	}

	v.SetEnvPrefix("SQLGO")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read model config: %w", err)
	}

	var fc FileConfig
	if err := v.Unmarshal(&fc); err != nil {
		return nil, fmt.Errorf("unmarshal model config: %w", err)
	}

	return fc.Descriptors()
}

// Descriptors converts the file entries into registry descriptors,
// rejecting entries the registry could not select safely.
func (c FileConfig) Descriptors() ([]model.ModelDescriptor, error) {
	out := make([]model.ModelDescriptor, 0, len(c.Models))

	for i, mc := range c.Models {
		if strings.TrimSpace(mc.ID) == "" {
			return nil, fmt.Errorf("model entry %d: missing id", i)
		}

		spec := model.Specialization(mc.Specialization)
		if mc.Specialization == "" {
			spec = model.SpecializationGeneral
		}

		switch spec {
		case model.SpecializationGeneral, model.SpecializationSQL, model.SpecializationAnalytics:
		default:
			return nil, fmt.Errorf("model %q: unknown specialization %q", mc.ID, mc.Specialization)
		}

		if mc.AccuracyPrior < 0 || mc.AccuracyPrior > 100 {
			return nil, fmt.Errorf("model %q: accuracy prior %v out of range [0,100]", mc.ID, mc.AccuracyPrior)
		}

		if len(mc.Dialects) == 0 {
			return nil, fmt.Errorf("model %q: no dialects", mc.ID)
		}

		out = append(out, model.ModelDescriptor{
			ID:                mc.ID,
			Specialization:    spec,
			SupportedDialects: mc.Dialects,
			AccuracyPrior:     mc.AccuracyPrior,
			CostPerQuery:      mc.CostPerQuery,
			AverageLatency:    time.Duration(mc.AverageLatencyMS) * time.Millisecond,
			Priority:          mc.Priority,
			Configured:        !mc.Disabled,
		})
	}

	return out, nil
}
