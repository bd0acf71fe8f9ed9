// Package service holds the view controllers of the panel. Each controller
// owns the state of one screen, calls the stock API through the ports and
// exposes a snapshot the renderer draws. Locks are never held across I/O.
package service

import (
	"sort"

	"github.com/boddenberg/stock-admin-panel-go/internal/infra/observability"

	"go.opentelemetry.io/otel"
	"go.uber.org/zap"
)

var viewTracer = otel.Tracer("service/views")

// User-facing error prefixes.
const (
	msgLogin              = "Erro ao logar"
	msgCreateCompany      = "Erro ao criar empresa"
	msgCreateUser         = "Erro ao criar o usuário"
	msgFetchProducts      = "Erro ao buscar produtos"
	msgFetchCategories    = "Erro ao buscar categorias"
	msgFetchLocalizations = "Erro ao buscar localizações"
	msgCreateProduct      = "Erro ao criar produto"
	msgUploadImage        = "Erro ao fazer upload da imagem"
)

// SubmitState is the lifecycle of a form submission.
type SubmitState string

const (
	StateIdle       SubmitState = "idle"
	StateSubmitting SubmitState = "submitting"
	StateSucceeded  SubmitState = "succeeded"
	StateFailed     SubmitState = "failed"
)

// recordSubmission counts and logs the outcome of a view submission.
func recordSubmission(metrics *observability.Metrics, logger *zap.Logger, view string, err error) {
	if err != nil {
		metrics.IncrSubmission(view, "error")
		logger.Warn("view submission failed", zap.String("view", view), zap.Error(err))
		return
	}
	metrics.IncrSubmission(view, "success")
	logger.Info("view submission succeeded", zap.String("view", view))
}

// setFields applies fields to a copy of form in name order. The copy is
// returned only when every field was accepted; otherwise form comes back
// unchanged with the first error.
func setFields[T any](form T, fields map[string]string, set func(f *T, name, value string) error) (T, error) {
	names := make([]string, 0, len(fields))
	for name := range fields {
		names = append(names, name)
	}
	sort.Strings(names)

	next := form
	for _, name := range names {
		if err := set(&next, name, fields[name]); err != nil {
			return form, err
		}
	}
	return next, nil
}
