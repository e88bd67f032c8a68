package services

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"
	"unicode"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/yungbote/focustube-backend/internal/observability"
	"github.com/yungbote/focustube-backend/internal/platform/logger"
	"github.com/yungbote/focustube-backend/internal/platform/openai"
)

const (
	JudgeReasonInvalidInput = "Invalid input"
	JudgeReasonError        = "AI_ERROR"

	judgeDescriptionLimit = 800
	judgeReasonLimit      = 300
)

// Judgement is a raw relevance score before thresholding.
type Judgement struct {
	Confidence float64
	Reason     string
	// Degraded marks the fallback returned after every attempt failed.
	Degraded bool
}

// Scorer is the external relevance scorer. It may be slow or fail.
type Scorer interface {
	Score(ctx context.Context, topic, title, description string) (Judgement, error)
}

// JudgeFunc adapts a plain function to Scorer.
type JudgeFunc func(ctx context.Context, topic, title, description string) (Judgement, error)

func (f JudgeFunc) Score(ctx context.Context, topic, title, description string) (Judgement, error) {
	return f(ctx, topic, title, description)
}

// RelevanceJudge never fails: scorer errors degrade to confidence 0.
type RelevanceJudge interface {
	Judge(ctx context.Context, topic, title, description string) Judgement
}

type JudgeConfig struct {
	Provider       string
	MaxRetries     int
	AttemptTimeout time.Duration
}

func (c JudgeConfig) withDefaults() JudgeConfig {
	if strings.TrimSpace(c.Provider) == "" {
		c.Provider = "custom"
	}
	if c.MaxRetries < 0 {
		c.MaxRetries = 0
	}
	if c.AttemptTimeout <= 0 {
		c.AttemptTimeout = 8 * time.Second
	}
	return c
}

type relevanceJudge struct {
	log    *logger.Logger
	scorer Scorer
	cfg    JudgeConfig
}

func NewRelevanceJudge(baseLog *logger.Logger, scorer Scorer, cfg JudgeConfig) RelevanceJudge {
	cfg = cfg.withDefaults()
	return &relevanceJudge{
		log:    baseLog.With("service", "RelevanceJudge", "provider", cfg.Provider),
		scorer: scorer,
		cfg:    cfg,
	}
}

func (j *relevanceJudge) Judge(ctx context.Context, topic, title, description string) Judgement {
	topic = strings.TrimSpace(topic)
	title = strings.TrimSpace(title)
	if topic == "" || title == "" {
		return Judgement{Confidence: 0, Reason: JudgeReasonInvalidInput}
	}
	description = truncateRunes(strings.TrimSpace(description), judgeDescriptionLimit)

	ctx, span := observability.Tracer().Start(ctx, "focus.judge")
	defer span.End()
	span.SetAttributes(attribute.String("judge.provider", j.cfg.Provider))

	var lastErr error
	for attempt := 0; attempt <= j.cfg.MaxRetries; attempt++ {
		actx, cancel := context.WithTimeout(ctx, j.cfg.AttemptTimeout)
		start := time.Now()
		res, err := j.scorer.Score(actx, topic, title, description)
		cancel()
		if err == nil && math.IsNaN(res.Confidence) {
			err = errors.New("scorer returned NaN confidence")
		}
		if err == nil {
			observability.Current().ObserveJudgeRequest(j.cfg.Provider, "ok", time.Since(start))
			span.SetAttributes(attribute.Int("judge.attempts", attempt+1))
			return Judgement{
				Confidence: clamp01(res.Confidence),
				Reason:     truncateRunes(strings.TrimSpace(res.Reason), judgeReasonLimit),
			}
		}

		lastErr = err
		observability.Current().ObserveJudgeRequest(j.cfg.Provider, judgeErrorStatus(err), time.Since(start))
		j.log.Warn("Relevance scorer attempt failed",
			"attempt", attempt+1,
			"max_retries", j.cfg.MaxRetries,
			"error", err,
		)
		if ctx.Err() != nil {
			break
		}
	}

	span.RecordError(lastErr)
	span.SetStatus(codes.Error, "judge degraded")
	return Judgement{Confidence: 0, Reason: JudgeReasonError, Degraded: true}
}

func judgeErrorStatus(err error) string {
	if errors.Is(err, context.DeadlineExceeded) {
		return "timeout"
	}
	return "error"
}

func clamp01(v float64) float64 {
	switch {
	case math.IsNaN(v), v < 0:
		return 0
	case v > 1:
		return 1
	}
	return v
}

func truncateRunes(s string, limit int) string {
	if limit <= 0 {
		return ""
	}
	r := []rune(s)
	if len(r) <= limit {
		return s
	}
	return string(r[:limit])
}

// ---- OpenAI scorer ----

const relevanceSystemPrompt = `You are a strict academic topic relevance judge.
Given a study topic and a video's title and description, rate how relevant the video is to the topic.
Return confidence between 0 and 1 and a short reason.`

var relevanceSchema = map[string]any{
	"type": "object",
	"properties": map[string]any{
		"confidence": map[string]any{"type": "number"},
		"reason":     map[string]any{"type": "string"},
	},
	"required":             []string{"confidence", "reason"},
	"additionalProperties": false,
}

type openAIScorer struct {
	client openai.Client
}

func NewOpenAIScorer(client openai.Client) Scorer {
	return &openAIScorer{client: client}
}

func (s *openAIScorer) Score(ctx context.Context, topic, title, description string) (Judgement, error) {
	user := fmt.Sprintf("Topic:\n%q\n\nVideo Title:\n%q\n\nVideo Description:\n%q", topic, title, description)
	obj, err := s.client.GenerateJSON(ctx, relevanceSystemPrompt, user, "relevance_verdict", relevanceSchema)
	if err != nil {
		return Judgement{}, err
	}
	confidence, ok := obj["confidence"].(float64)
	if !ok {
		return Judgement{}, fmt.Errorf("invalid confidence type %T", obj["confidence"])
	}
	reason, _ := obj["reason"].(string)
	return Judgement{Confidence: confidence, Reason: reason}, nil
}

// ---- Lexical scorer ----

type lexicalScorer struct{}

// NewLexicalScorer scores by topic-term overlap. It needs no network and is
// the fallback when no model provider is configured.
func NewLexicalScorer() Scorer { return lexicalScorer{} }

func (lexicalScorer) Score(ctx context.Context, topic, title, description string) (Judgement, error) {
	if err := ctx.Err(); err != nil {
		return Judgement{}, err
	}
	terms := tokenSet(topic)
	if len(terms) == 0 {
		return Judgement{Confidence: 0, Reason: "no usable topic terms"}, nil
	}
	titleTerms := tokenSet(title)
	descTerms := tokenSet(description)

	var score float64
	matched := 0
	for t := range terms {
		switch {
		case titleTerms[t]:
			score += 1
			matched++
		case descTerms[t]:
			score += 0.5
			matched++
		}
	}
	confidence := score / float64(len(terms))
	return Judgement{
		Confidence: clamp01(confidence),
		Reason:     fmt.Sprintf("matched %d of %d topic terms", matched, len(terms)),
	}, nil
}

func tokenSet(s string) map[string]bool {
	out := map[string]bool{}
	for _, f := range strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	}) {
		if len([]rune(f)) >= 3 {
			out[f] = true
		}
	}
	return out
}
