package llm

import (
	"context"

	"github.com/sirupsen/logrus"
)

// FallbackProvider resolves the requested model name and, when the call is
// rate limited, repeats the same request once against the fallback model.
// Any other failure is returned untouched.
type FallbackProvider struct {
	inner  Provider
	models ModelConfig
	log    logrus.FieldLogger
}

// WithFallback wraps a Provider with model resolution and rate-limit fallback.
func WithFallback(p Provider, models ModelConfig, log logrus.FieldLogger) Provider {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &FallbackProvider{inner: p, models: models, log: log}
}

func (f *FallbackProvider) Generate(ctx context.Context, req Request) (*Response, error) {
	primary := f.models.ResolveModel(req.Model)
	req.Model = primary

	resp, err := f.inner.Generate(ctx, req)
	if err == nil {
		return resp, nil
	}
	if !IsRateLimit(err) || f.models.Fallback == "" || f.models.Fallback == primary {
		return nil, err
	}

	f.log.WithFields(logrus.Fields{
		"model":    primary,
		"fallback": f.models.Fallback,
		"purpose":  PurposeFrom(ctx),
	}).WithError(err).Warn("primary model rate limited, trying fallback")

	req.Model = f.models.Fallback
	resp, fbErr := f.inner.Generate(ctx, req)
	if fbErr != nil {
		return nil, &ErrFallbackFailed{
			PrimaryModel:  primary,
			FallbackModel: f.models.Fallback,
			PrimaryErr:    err,
			FallbackErr:   fbErr,
		}
	}
	return resp, nil
}

func (f *FallbackProvider) ModelID() string {
	return f.models.ResolveModel(f.inner.ModelID())
}
