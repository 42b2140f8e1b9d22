// Package sqlgo provides an embedded natural-language-to-SQL engine core.
//
// This file implements the fluent builder API for describing generation backends.
// Builders are immutable - each method returns a new builder with the updated configuration.
package sqlgo

import (
	"fmt"
	"strings"
	"time"

	"github.com/hupe1980/sqlgo/model"
)

// Model creates a new backend descriptor builder with the given id.
// Descriptors built here and descriptors loaded from a models.yaml file
// (registry.LoadConfig) are interchangeable.
//
// The builder is immutable - each method returns a new builder with the
// updated configuration. This ensures thread-safety and prevents
// accidental state sharing.
//
// Example:
//
//	desc, err := sqlgo.Model("sql-pro").
//	    SQLSpecialized().
//	    Dialects("postgres", "mysql").
//	    AccuracyPrior(88).
//	    CostPerQuery(0.002).
//	    AverageLatency(900 * time.Millisecond).
//	    Priority(1).
//	    Build()
func Model(id string) ModelBuilder {
	return ModelBuilder{
		id:             id,
		specialization: model.SpecializationGeneral,
	}
}

// ModelBuilder is an immutable fluent builder for backend descriptors.
// Each method returns a new builder with the updated configuration.
type ModelBuilder struct {
	id             string
	specialization model.Specialization
	dialects       []string
	accuracyPrior  float64
	costPerQuery   float64
	averageLatency time.Duration
	priority       int
	disabled       bool
}

// General marks the backend as a general-purpose model. This is the
// default.
func (b ModelBuilder) General() ModelBuilder {
	b.specialization = model.SpecializationGeneral
	return b
}

// SQLSpecialized marks the backend as tuned for SQL generation.
// SQL-specialized backends score higher for non-analytics requests and
// on retry attempts.
func (b ModelBuilder) SQLSpecialized() ModelBuilder {
	b.specialization = model.SpecializationSQL
	return b
}

// Analytics marks the backend as tuned for analytical queries.
// Analytics backends score higher for analytics-category requests.
func (b ModelBuilder) Analytics() ModelBuilder {
	b.specialization = model.SpecializationAnalytics
	return b
}

// Dialects sets the SQL dialects the backend can emit. At least one is
// required.
func (b ModelBuilder) Dialects(dialects ...string) ModelBuilder {
	b.dialects = dialects
	return b
}

// AccuracyPrior sets the backend's starting accuracy estimate in [0,100].
// The registry slowly adjusts it from observed performance.
func (b ModelBuilder) AccuracyPrior(prior float64) ModelBuilder {
	b.accuracyPrior = prior
	return b
}

// CostPerQuery sets the backend's per-query cost in USD. Zero means free;
// free backends get a small scoring bonus, expensive ones a penalty on
// simple requests.
func (b ModelBuilder) CostPerQuery(cost float64) ModelBuilder {
	b.costPerQuery = cost
	return b
}

// AverageLatency sets the backend's expected response time.
func (b ModelBuilder) AverageLatency(d time.Duration) ModelBuilder {
	b.averageLatency = d
	return b
}

// Priority sets the tie-break ordinal. Lower wins when scores tie.
func (b ModelBuilder) Priority(p int) ModelBuilder {
	b.priority = p
	return b
}

// Disabled keeps the descriptor registered but out of selection.
func (b ModelBuilder) Disabled() ModelBuilder {
	b.disabled = true
	return b
}

// Build validates the configuration and creates the descriptor.
func (b ModelBuilder) Build() (model.ModelDescriptor, error) {
	if strings.TrimSpace(b.id) == "" {
		return model.ModelDescriptor{}, fmt.Errorf("sqlgo: model builder: missing id")
	}
	if b.accuracyPrior < 0 || b.accuracyPrior > 100 {
		return model.ModelDescriptor{}, fmt.Errorf("sqlgo: model %q: accuracy prior %v out of range [0,100]", b.id, b.accuracyPrior)
	}
	if len(b.dialects) == 0 {
		return model.ModelDescriptor{}, fmt.Errorf("sqlgo: model %q: no dialects", b.id)
	}

	return model.ModelDescriptor{
		ID:                b.id,
		Specialization:    b.specialization,
		SupportedDialects: b.dialects,
		AccuracyPrior:     b.accuracyPrior,
		CostPerQuery:      b.costPerQuery,
		AverageLatency:    b.averageLatency,
		Priority:          b.priority,
		Configured:        !b.disabled,
	}, nil
}

// MustBuild creates the descriptor, panicking on error.
func (b ModelBuilder) MustBuild() model.ModelDescriptor {
	desc, err := b.Build()
	if err != nil {
		panic(err)
	}
	return desc
}
