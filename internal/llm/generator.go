package llm

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/samber/lo"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/tbourn/go-horoscope-backend/internal/domain"
	"github.com/tbourn/go-horoscope-backend/internal/observability"
)

// ErrGeneration is returned when a provider call fails or times out.
var ErrGeneration = errors.New("horoscope generation failed")

const (
	stageGenerate = "generate"
	stageExtract  = "extract"

	// DefaultLanguage matches the audience the service was first built for.
	DefaultLanguage    = "Vietnamese"
	defaultCallTimeout = 45 * time.Second
)

// GenerateParams selects what to generate. DateOfBirth (YYYY-MM-DD) and
// BirthTime (HH:MM:SS) are optional. Date is the reading day and defaults to
// the generator's today.
type GenerateParams struct {
	Sign        domain.ZodiacSign
	DateOfBirth string
	BirthTime   string
	Date        string
}

// Generator produces readings with two sequential provider calls: one for
// the prose and one that extracts scores from it.
type Generator struct {
	Provider Provider
	Language string
	// CallTimeout bounds each provider call separately.
	CallTimeout time.Duration
	// Location defines the calendar day used for "today".
	Location *time.Location
	// Now is the clock; tests replace it.
	Now func() time.Time
}

// NewGenerator returns a Generator with defaults for every unset option.
func NewGenerator(p Provider, language string, callTimeout time.Duration, loc *time.Location) *Generator {
	if language == "" {
		language = DefaultLanguage
	}
	if callTimeout <= 0 {
		callTimeout = defaultCallTimeout
	}
	if loc == nil {
		loc = time.UTC
	}
	return &Generator{
		Provider:    p,
		Language:    language,
		CallTimeout: callTimeout,
		Location:    loc,
		Now:         time.Now,
	}
}

// Today returns the current calendar day in the generator's location.
func (g *Generator) Today() string {
	now := time.Now
	if g.Now != nil {
		now = g.Now
	}
	loc := g.Location
	if loc == nil {
		loc = time.UTC
	}
	return domain.FormatDate(now().In(loc))
}

// Generate returns a complete reading for p. It fails only when a provider
// call errors; short or malformed model output is repaired and logged.
func (g *Generator) Generate(ctx context.Context, p GenerateParams) (*domain.Reading, error) {
	ctx, span := otel.Tracer("llm/Generator").Start(ctx, "Generate",
		trace.WithAttributes(
			attribute.String("horoscope.sign", string(p.Sign)),
			attribute.Bool("horoscope.has_birth_time", p.BirthTime != ""),
		),
	)
	defer span.End()

	if !p.Sign.Known() {
		return nil, fmt.Errorf("cannot generate for sign %q", p.Sign)
	}
	date := p.Date
	if date == "" {
		date = g.Today()
	}
	lg := observability.Logger(ctx).With().Str("sign", string(p.Sign)).Str("date", date).Logger()

	prompt, err := RenderGeneration(GenerationVars{
		ZodiacSign:  p.Sign.DisplayName(),
		Date:        date,
		DateOfBirth: p.DateOfBirth,
		BirthTime:   p.BirthTime,
		Language:    g.Language,
	})
	if err != nil {
		return nil, err
	}

	text, err := g.call(ctx, stageGenerate, prompt)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "generation call failed")
		return nil, err
	}

	sections, padded := SplitSections(text)
	if padded {
		observability.SectionsPadded.Inc()
		lg.Warn().
			Int("sections", len(lo.Compact(sections))).
			Int("expected", SectionCount).
			Msg("too few horoscope sections, padding")
	}
	sections = lo.Map(sections, func(s string, _ int) string { return CleanSection(s) })

	scores, err := g.extractScores(ctx, text)
	if err != nil {
		if errors.Is(err, ErrGeneration) {
			span.RecordError(err)
			span.SetStatus(codes.Error, "extraction call failed")
			return nil, err
		}
		observability.ScoreFallbacks.Inc()
		lg.Warn().Err(err).Msg("score extraction failed, using defaults")
		scores = domain.DefaultScores
	}

	return &domain.Reading{
		Sign:                 p.Sign.DisplayName(),
		Date:                 date,
		Scores:               scores,
		Overview:             sections[0],
		LoveAndRelationships: sections[1],
		CareerAndStudies:     sections[2],
		HealthAndWellbeing:   sections[3],
		MoneyAndFinances:     sections[4],
	}, nil
}

// extractScores returns ErrGeneration only for provider failures; every
// other error means the reply could not be used.
func (g *Generator) extractScores(ctx context.Context, text string) (domain.Scores, error) {
	prompt, err := RenderExtraction(ExtractionVars{HoroscopeText: text})
	if err != nil {
		return domain.Scores{}, err
	}
	raw, err := g.call(ctx, stageExtract, prompt)
	if err != nil {
		return domain.Scores{}, err
	}
	return ParseScores(raw)
}

func (g *Generator) call(ctx context.Context, stage, prompt string) (string, error) {
	timeout := g.CallTimeout
	if timeout <= 0 {
		timeout = defaultCallTimeout
	}
	cctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	start := time.Now()
	out, err := g.Provider.Complete(cctx, prompt)
	observability.LLMLatency.WithLabelValues(stage).Observe(time.Since(start).Seconds())
	if err == nil && cctx.Err() != nil {
		// Provider ignored the deadline; treat a late answer as a timeout.
		err = cctx.Err()
	}
	observability.LLMRequests.WithLabelValues(stage, observability.Outcome(err)).Inc()

	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return "", fmt.Errorf("%w: %s call timed out after %s: %w", ErrGeneration, stage, timeout, err)
		}
		return "", fmt.Errorf("%w: %s call: %w", ErrGeneration, stage, err)
	}
	return out, nil
}
