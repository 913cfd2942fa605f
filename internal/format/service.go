package format

import (
	"context"
	"errors"
	"fmt"

	"clangfmt/internal/ffi"
	"clangfmt/internal/trace"
)

// Engine formats one file. *ffi.Engine implements it.
type Engine interface {
	Format(fileName, code string) (string, error)
}

// IgnoreChecker decides eligibility. *ignore.Resolver implements it.
type IgnoreChecker interface {
	IsIgnored(path string) (bool, error)
}

type namedEngine interface {
	Name() string
}

type concurrentEngine interface {
	Concurrent() bool
}

// Service formats files that the ignore checker lets through.
type Service struct {
	ignore IgnoreChecker
	engine Engine
}

// New creates a Service. Both collaborators are required.
func New(ig IgnoreChecker, eng Engine) (*Service, error) {
	if ig == nil {
		return nil, errors.New("format: nil ignore checker")
	}
	if eng == nil {
		return nil, errors.New("format: nil engine")
	}
	return &Service{ignore: ig, engine: eng}, nil
}

// EngineName returns the engine's name, or "engine" if it has none.
func (s *Service) EngineName() string {
	if n, ok := s.engine.(namedEngine); ok {
		return n.Name()
	}
	return "engine"
}

// IsIgnored runs only the eligibility check of Format.
func (s *Service) IsIgnored(path string) (bool, error) {
	return s.ignore.IsIgnored(path)
}

// Concurrent reports whether the engine declared itself safe for parallel
// calls. Engines that say nothing are treated as unsafe.
func (s *Service) Concurrent() bool {
	if c, ok := s.engine.(concurrentEngine); ok {
		return c.Concurrent()
	}
	return false
}

// Format formats content as the file at path. path is only used for the
// ignore check and as the engine's file name; it is never read.
//
// The returned error is non-nil only when eligibility could not be decided.
// Encoding and engine failures come back as KindError outcomes.
func (s *Service) Format(ctx context.Context, path, content string) (Outcome, error) {
	ignored, err := s.ignore.IsIgnored(path)
	if err != nil {
		return Outcome{}, fmt.Errorf("format: checking %s: %w", path, err)
	}
	if ignored {
		return Outcome{Kind: KindIgnored}, nil
	}

	tracer := trace.FromContext(ctx)
	span := trace.Begin(tracer, trace.ScopeEngine, "engine:"+s.EngineName(), trace.ParentID(ctx))
	span.WithExtra("bytes", fmt.Sprint(len(content)))

	formatted, err := s.engine.Format(path, content)
	if err != nil {
		out := failure(err)
		span.End("error")
		trace.Failure(tracer, trace.ScopeEngine, "engine:"+s.EngineName(), out.Message, span.ID())
		return out, nil
	}
	span.End("ok")
	return Outcome{Kind: KindSuccess, Formatted: formatted}, nil
}

func failure(err error) Outcome {
	var encErr *ffi.EncodingError
	if errors.As(err, &encErr) {
		return Outcome{Kind: KindError, Message: "invalid input: " + encErr.Error(), Cause: err}
	}
	return Outcome{Kind: KindError, Message: err.Error(), Cause: err}
}
