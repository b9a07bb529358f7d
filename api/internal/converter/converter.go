package converter

import (
	"context"
	"errors"
	"io"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"quiz-json/api/internal/format"
	"quiz-json/api/internal/imagecodec"
	"quiz-json/api/internal/prompt"
	"quiz-json/api/internal/util"
)

// Inferrer is the inference step; *inference.Client implements it.
type Inferrer interface {
	Infer(ctx context.Context, img imagecodec.EncodedImage, spec *prompt.Spec) (string, error)
}

type Options struct {
	Timeout time.Duration // per conversion; 0 means caller's context only
	Logger  *zerolog.Logger
	Metrics *Metrics
}

// Converter runs encode → infer → format, strictly in that order.
type Converter struct {
	client    Inferrer
	spec      *prompt.Spec
	formatter *format.Formatter
	timeout   time.Duration
	logger    zerolog.Logger
	metrics   *Metrics
}

func New(client Inferrer, spec *prompt.Spec, f *format.Formatter, opts Options) *Converter {
	logger := zerolog.Nop()
	if opts.Logger != nil {
		logger = *opts.Logger
	}
	if f == nil {
		f = format.New(nil)
	}
	return &Converter{
		client:    client,
		spec:      spec,
		formatter: f,
		timeout:   opts.Timeout,
		logger:    logger,
		metrics:   opts.Metrics,
	}
}

// Input is one user-supplied image.
type Input struct {
	Image    io.Reader
	MIMEType string
	// OnStage, if set, observes every stage transition in order.
	OnStage func(Stage)
}

type Result struct {
	ID       string
	JSON     string
	Duration time.Duration
}

// Convert runs the pipeline once. Every failure is returned as *Failure
// wrapping the original error; nothing is retried.
func (c *Converter) Convert(ctx context.Context, in Input) (Result, error) {
	id := uuid.NewString()
	log := c.logger.With().Str("conversion_id", id).Logger()
	started := time.Now()
	c.metrics.start()

	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	stage := StageIdle
	enter := func(s Stage) {
		stage = s
		if in.OnStage != nil {
			in.OnStage(s)
		}
	}
	fail := func(err error) (Result, error) {
		f := &Failure{ID: id, Stage: stage, Kind: Kind(err), Err: err}
		enter(StageFailed)
		d := time.Since(started)
		c.metrics.finish(f.Kind, d)
		ev := log.Error().Err(err).
			Str("stage", string(f.Stage)).
			Str("kind", string(f.Kind)).
			Dur("took", d)
		if raw := rawText(err); raw != "" {
			ev = ev.Str("raw", util.Truncate(raw, 2000))
		}
		ev.Msg("conversion failed")
		return Result{ID: id}, f
	}

	enter(StageEncoding)
	img, err := imagecodec.Encode(ctx, in.Image, in.MIMEType)
	if err != nil {
		return fail(err)
	}

	enter(StageRequesting)
	raw, err := c.client.Infer(ctx, img, c.spec)
	if err != nil {
		return fail(err)
	}

	enter(StageFormatting)
	pretty, err := c.formatter.Format(raw)
	if err != nil {
		return fail(err)
	}

	enter(StageDone)
	d := time.Since(started)
	c.metrics.finish("", d)
	log.Info().Str("mime", img.MIMEType).Int("bytes", len(pretty)).Dur("took", d).Msg("conversion done")
	return Result{ID: id, JSON: pretty, Duration: d}, nil
}

func rawText(err error) string {
	var (
		merr *format.MalformedResponseError
		serr *format.SchemaMismatchError
	)
	switch {
	case errors.As(err, &merr):
		return merr.Raw
	case errors.As(err, &serr):
		return serr.Raw
	}
	return ""
}
