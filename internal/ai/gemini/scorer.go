package gemini

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"unicode/utf8"

	_ "embed"

	"github.com/mitchellh/mapstructure"
	"go.uber.org/zap"

	"ats-screener/internal/ai"
	"ats-screener/internal/candidate"
	"ats-screener/internal/profile"
	"ats-screener/internal/utils"
)

type contentGenerator interface {
	GenerateContent(ctx context.Context, prompt string) (string, error)
	Model() string
}

// Scorer asks Gemini for per-criterion scores and CV fact extraction.
type Scorer struct {
	generator contentGenerator
	logger    *zap.Logger
	maxLogLen int
}

//go:embed criterion_prompt.md
var criterionPromptTemplate string

//go:embed extract_prompt.md
var extractPromptTemplate string

const (
	defaultMaxLogLength = 200

	// maxCVRunes bounds prompt size; CV text beyond it adds tokens, not signal.
	maxCVRunes = 8000
)

var criterionGuidance = map[candidate.Criterion]string{
	candidate.CriterionSkills:     "Technical and soft skills alignment with the job requirements.",
	candidate.CriterionTitle:      "Career titles and progression alignment with the target role.",
	candidate.CriterionExperience: "Depth and relevance of work experience for the role.",
	candidate.CriterionEducation:  "Educational background fit for the role.",
	candidate.CriterionKeywords:   "Job-description keyword matching and industry terminology.",
}

func NewScorer(generator contentGenerator, logger *zap.Logger, maxLogLength int) *Scorer {
	if maxLogLength <= 0 {
		maxLogLength = defaultMaxLogLength
	}

	if logger == nil {
		logger = zap.NewNop()
	}

	return &Scorer{
		generator: generator,
		logger:    logger,
		maxLogLen: maxLogLength,
	}
}

// ScoreCriterion evaluates a single rubric dimension of the CV against the
// profile. The returned score is clamped to [0, 100].
func (s *Scorer) ScoreCriterion(ctx context.Context, criterion candidate.Criterion, cvText string, p *profile.Profile) (*ai.CriterionAssessment, error) {
	guidance, ok := criterionGuidance[criterion]
	if !ok {
		return nil, fmt.Errorf("unknown criterion: %s", criterion)
	}

	if strings.TrimSpace(cvText) == "" {
		return nil, fmt.Errorf("cv text is required")
	}

	if p == nil {
		return nil, fmt.Errorf("profile is required")
	}

	jobPayload := map[string]any{
		"job_title":       p.JobTitle,
		"job_description": p.JobDescription,
		"required_skills": p.RequiredSkills,
	}

	jobJSON, err := json.MarshalIndent(jobPayload, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal job payload: %w", err)
	}

	prompt := buildCriterionPrompt(criterion, guidance, string(jobJSON), truncateCV(cvText))

	s.logger.Debug("gemini criterion request",
		zap.String("criterion", string(criterion)),
		zap.Int("prompt_length", utf8.RuneCountInString(prompt)),
		zap.String("prompt_preview", utils.TruncateForLog(prompt, s.maxLogLen)),
	)

	raw, err := s.generator.GenerateContent(ctx, prompt)
	if err != nil {
		return nil, err
	}

	s.logger.Debug("gemini criterion response",
		zap.String("criterion", string(criterion)),
		zap.Int("response_length", utf8.RuneCountInString(raw)),
		zap.String("response_preview", utils.TruncateForLog(raw, s.maxLogLen)),
	)

	assessment, err := parseCriterionResponse(raw)
	if err != nil {
		return nil, err
	}

	assessment.Raw = raw
	return assessment, nil
}

// Extract parses candidate facts out of the CV text.
func (s *Scorer) Extract(ctx context.Context, cvText string) (*ai.Extraction, error) {
	if strings.TrimSpace(cvText) == "" {
		return nil, fmt.Errorf("cv text is required")
	}

	prompt := strings.ReplaceAll(extractPromptTemplate, "{{CV_TEXT}}", truncateCV(cvText))

	raw, err := s.generator.GenerateContent(ctx, prompt)
	if err != nil {
		return nil, err
	}

	s.logger.Debug("gemini extraction response",
		zap.Int("response_length", utf8.RuneCountInString(raw)),
		zap.String("response_preview", utils.TruncateForLog(raw, s.maxLogLen)),
	)

	return parseExtractionResponse(raw)
}

func buildCriterionPrompt(criterion candidate.Criterion, guidance, jobJSON, cvText string) string {
	prompt := strings.ReplaceAll(criterionPromptTemplate, "{{CRITERION}}", string(criterion))
	prompt = strings.ReplaceAll(prompt, "{{GUIDANCE}}", guidance)
	prompt = strings.ReplaceAll(prompt, "{{JOB_JSON}}", jobJSON)
	prompt = strings.ReplaceAll(prompt, "{{CV_TEXT}}", cvText)
	return prompt
}

func truncateCV(text string) string {
	runes := []rune(strings.TrimSpace(text))
	if len(runes) <= maxCVRunes {
		return string(runes)
	}
	return string(runes[:maxCVRunes])
}

func parseCriterionResponse(raw string) (*ai.CriterionAssessment, error) {
	cleaned := extractJSON(raw)

	var data map[string]any
	if err := json.Unmarshal([]byte(cleaned), &data); err != nil {
		return nil, fmt.Errorf("parse gemini response: %w", err)
	}

	score := coerceFloat(data["score"])
	if math.IsNaN(score) {
		return nil, fmt.Errorf("gemini response has no usable score")
	}

	return &ai.CriterionAssessment{
		Score:     clampScore(int(math.Round(score))),
		Reasoning: coerceString(data["reasoning"]),
		RedFlags:  coerceStringSlice(data["red_flags"]),
	}, nil
}

func parseExtractionResponse(raw string) (*ai.Extraction, error) {
	cleaned := extractJSON(raw)

	var data map[string]any
	if err := json.Unmarshal([]byte(cleaned), &data); err != nil {
		return nil, fmt.Errorf("parse gemini response: %w", err)
	}

	// The model sometimes returns numbers as strings; weak typing absorbs it.
	extraction := &ai.Extraction{}
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           extraction,
		WeaklyTypedInput: true,
	})
	if err != nil {
		return nil, fmt.Errorf("build extraction decoder: %w", err)
	}

	if err := decoder.Decode(data); err != nil {
		return nil, fmt.Errorf("decode extraction: %w", err)
	}

	if extraction.YearsOfExperience != nil && *extraction.YearsOfExperience < 0 {
		extraction.YearsOfExperience = nil
	}

	return extraction, nil
}

func clampScore(score int) int {
	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}

func extractJSON(raw string) string {
	raw = strings.TrimSpace(raw)
	if strings.HasPrefix(raw, "```") {
		raw = strings.TrimPrefix(raw, "```json")
		raw = strings.TrimPrefix(raw, "```")
		raw = strings.TrimSpace(raw)
		if idx := strings.LastIndex(raw, "```"); idx != -1 {
			raw = raw[:idx]
		}
	}
	raw = strings.Trim(raw, "`")
	return strings.TrimSpace(raw)
}

func coerceFloat(v any) float64 {
	switch val := v.(type) {
	case float64:
		return val
	case int:
		return float64(val)
	case string:
		trimmed := strings.TrimSpace(val)
		if trimmed == "" {
			return math.NaN()
		}
		f, err := strconv.ParseFloat(trimmed, 64)
		if err != nil {
			return math.NaN()
		}
		return f
	default:
		return math.NaN()
	}
}

func coerceString(v any) string {
	switch val := v.(type) {
	case string:
		return strings.TrimSpace(val)
	case fmt.Stringer:
		return strings.TrimSpace(val.String())
	default:
		if v == nil {
			return ""
		}
		bytes, err := json.Marshal(v)
		if err != nil {
			return fmt.Sprintf("%v", v)
		}
		return string(bytes)
	}
}

func coerceStringSlice(v any) []string {
	items, ok := v.([]any)
	if !ok {
		return nil
	}

	out := make([]string, 0, len(items))
	for _, item := range items {
		if s := coerceString(item); s != "" {
			out = append(out, s)
		}
	}

	if len(out) == 0 {
		return nil
	}
	return out
}
