// Package resize runs the resize operation: find the image at the cursor,
// measure it, ask the user, and rewrite the embed in place.
package resize

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/roboco-io/mdimg/internal/dialog"
	"github.com/roboco-io/mdimg/internal/dimension"
	"github.com/roboco-io/mdimg/internal/document"
	"github.com/roboco-io/mdimg/internal/ir"
	"github.com/roboco-io/mdimg/internal/locator"
	"github.com/roboco-io/mdimg/internal/notify"
	"github.com/roboco-io/mdimg/internal/syntax"
)

// Status is the outcome of a resize run.
type Status string

const (
	StatusApplied   Status = "applied"
	StatusNoImage   Status = "no_image"
	StatusCancelled Status = "cancelled"
	StatusBusy      Status = "busy"
	StatusFailed    Status = "failed"
)

// Resolver measures an image reference.
type Resolver interface {
	Resolve(ctx context.Context, ref *ir.ImageReference) (dimension.Resolution, error)
}

// Options holds the persisted resize preferences.
type Options struct {
	Style             ir.HTMLStyle
	DefaultMode       ir.ResizeMode
	DefaultPercentage float64
	// DryRun computes the replacement without editing the document.
	DryRun bool
}

// Result describes a finished run.
type Result struct {
	Status      Status
	Detection   *locator.Detection
	Resolution  dimension.Resolution
	Choice      ir.ResizeChoice
	Replacement string
}

// Service wires the resize pipeline together.
type Service struct {
	locator  *locator.Locator
	resolver Resolver
	prompter dialog.Prompter
	builder  *syntax.Builder
	replacer *document.Replacer
	notifier *notify.Safe
	lock     *dialog.Lock
	opts     Options
	log      *zap.Logger
}

// NewService creates a service. lock may be shared between services that
// present on the same dialog surface; nil gives the service its own.
func NewService(resolver Resolver, prompter dialog.Prompter, notifier notify.Notifier, lock *dialog.Lock, opts Options, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	if lock == nil {
		lock = &dialog.Lock{}
	}
	if opts.DefaultMode == "" {
		opts.DefaultMode = ir.ModePercentage
	}
	if opts.DefaultPercentage <= 0 {
		opts.DefaultPercentage = 100
	}
	return &Service{
		locator:  locator.New(log),
		resolver: resolver,
		prompter: prompter,
		builder:  syntax.NewBuilder(opts.Style),
		replacer: document.NewReplacer(log),
		notifier: notify.NewSafe(notifier, log),
		lock:     lock,
		opts:     opts,
		log:      log,
	}
}

// Run resizes the image under the document cursor.
//
// Not finding an image and the user cancelling are not errors. Hard failures
// are reported to the notifier and returned, and leave doc untouched.
func (s *Service) Run(ctx context.Context, doc document.Editor) (Result, error) {
	det := s.locator.Locate(doc)
	if det == nil {
		s.notifier.Send("No image found at cursor position", notify.SeverityInfo)
		return Result{Status: StatusNoImage}, nil
	}
	result := Result{Detection: det}

	res, err := s.resolver.Resolve(ctx, &det.Ref)
	if err != nil {
		return s.fail(result, fmt.Errorf("failed to get image dimensions: %w", err))
	}
	result.Resolution = res
	if res.Fallback {
		s.notifier.Send(fmt.Sprintf("Could not determine image size, using %s", res.Dimensions), notify.SeverityWarning)
	}

	if !s.lock.TryAcquire() {
		s.notifier.Send("A resize dialog is already open", notify.SeverityInfo)
		result.Status = StatusBusy
		return result, dialog.ErrBusy
	}
	defer s.lock.Release()

	choice, ok, err := s.prompter.Prompt(ctx, dialog.Request{
		Ref:               det.Ref,
		Dimensions:        res.Dimensions,
		Fallback:          res.Fallback,
		DefaultMode:       s.opts.DefaultMode,
		DefaultPercentage: s.opts.DefaultPercentage,
	})
	if err != nil {
		return s.fail(result, fmt.Errorf("resize dialog failed: %w", err))
	}
	if !ok {
		result.Status = StatusCancelled
		return result, nil
	}
	result.Choice = choice

	text, err := s.builder.Build(det.Ref, res.Dimensions, choice)
	if err != nil {
		return s.fail(result, fmt.Errorf("failed to build image syntax: %w", err))
	}
	result.Replacement = text

	if s.opts.DryRun {
		result.Status = StatusApplied
		return result, nil
	}

	err = s.replacer.Apply(doc, document.Edit{
		Text:         text,
		From:         det.Range.From,
		To:           det.Range.To,
		ExpectedText: det.Text,
	})
	if err != nil {
		if errors.Is(err, document.ErrStaleRange) {
			return s.fail(result, fmt.Errorf("the document changed while resizing, no changes made: %w", err))
		}
		return s.fail(result, fmt.Errorf("failed to replace image syntax: %w", err))
	}

	s.log.Info("image resized",
		zap.String("source", det.Ref.SourcePath()),
		zap.String("target", string(choice.TargetKind)),
		zap.String("replacement", text))
	result.Status = StatusApplied
	return result, nil
}

func (s *Service) fail(result Result, err error) (Result, error) {
	s.log.Error("resize failed", zap.Error(err))
	s.notifier.Send(err.Error(), notify.SeverityError)
	result.Status = StatusFailed
	return result, err
}
