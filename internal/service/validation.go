package service

import (
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"regexp"
	"slices"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/RubachokBoss/study-helper/internal/config"
	"github.com/RubachokBoss/study-helper/internal/models"
	"github.com/RubachokBoss/study-helper/internal/service/integration"
	"github.com/go-playground/validator/v10"
)

var (
	quizDifficulties   = []string{"easy", "medium", "hard", "mixed"}
	exportDifficulties = []string{"easy", "medium", "hard"}
	defaultQuizTypes   = []string{string(models.QuestionMCQ), string(models.QuestionShortAnswer)}

	longURLPattern = regexp.MustCompile(`https?://\S{10,}`)
	capsPattern    = regexp.MustCompile(`[A-Z]{20,}`)
)

// UploadPolicy holds the pre-flight checks for the upload form.
type UploadPolicy struct {
	maxFileSize    int64
	allowedTypes   []string
	promptMin      int
	promptMax      int
	unsafePatterns []*regexp.Regexp
}

func NewUploadPolicy(cfg config.UploadConfig) (*UploadPolicy, error) {
	patterns := make([]*regexp.Regexp, 0, len(cfg.UnsafePatterns))
	for _, p := range cfg.UnsafePatterns {
		re, err := regexp.Compile(p)
		if err != nil {
			return nil, fmt.Errorf("invalid unsafe pattern %q: %w", p, err)
		}
		patterns = append(patterns, re)
	}

	types := make([]string, len(cfg.AllowedTypes))
	for i, t := range cfg.AllowedTypes {
		types[i] = strings.ToLower(strings.TrimSpace(t))
	}

	return &UploadPolicy{
		maxFileSize:    cfg.MaxFileSize,
		allowedTypes:   types,
		promptMin:      cfg.PromptMinLength,
		promptMax:      cfg.PromptMaxLength,
		unsafePatterns: patterns,
	}, nil
}

// ValidateFile checks presence, type and size. An empty content type is
// filled in from the file contents.
func (p *UploadPolicy) ValidateFile(file *models.UploadFile) error {
	if file == nil {
		return integration.NewValidationError("file", "no file provided")
	}

	var reasons []string
	if file.Size() == 0 {
		reasons = append(reasons, "file appears to be empty")
	} else if file.ContentType == "" {
		file.ContentType = http.DetectContentType(file.Data)
	}

	mediaType := strings.ToLower(strings.TrimSpace(strings.SplitN(file.ContentType, ";", 2)[0]))
	if file.Size() > 0 && !slices.Contains(p.allowedTypes, mediaType) {
		reasons = append(reasons, "invalid file type, please upload an image file (JPEG, PNG, WebP, GIF, BMP, or TIFF)")
	}
	if file.Size() > p.maxFileSize {
		reasons = append(reasons, fmt.Sprintf("file too large, maximum size is %dMB", p.maxFileSize/(1024*1024)))
	}

	if len(reasons) > 0 {
		return integration.NewValidationError("file", reasons...)
	}
	return nil
}

// ValidatePrompt returns the trimmed prompt. Length is counted in characters.
func (p *UploadPolicy) ValidatePrompt(prompt string) (string, error) {
	trimmed := strings.TrimSpace(prompt)
	if trimmed == "" {
		return "", integration.NewValidationError("prompt", "prompt is required")
	}

	var reasons []string
	n := utf8.RuneCountInString(trimmed)
	if n < p.promptMin {
		reasons = append(reasons, fmt.Sprintf("prompt must be at least %d characters long", p.promptMin))
	}
	if n > p.promptMax {
		reasons = append(reasons, fmt.Sprintf("prompt is too long (maximum %d characters)", p.promptMax))
	}
	for _, re := range p.unsafePatterns {
		if re.MatchString(trimmed) {
			reasons = append(reasons, "prompt contains potentially unsafe content")
			break
		}
	}

	if len(reasons) > 0 {
		return "", integration.NewValidationError("prompt", reasons...)
	}
	return trimmed, nil
}

// normalizeGenerateOptions fills defaults and rejects out-of-range options.
func normalizeGenerateOptions(opts models.GenerateQuizOptions, cfg config.QuizConfig) (models.GenerateQuizOptions, error) {
	out := models.GenerateQuizOptions{Difficulty: strings.ToLower(strings.TrimSpace(opts.Difficulty))}

	if out.Difficulty != "" && !slices.Contains(quizDifficulties, out.Difficulty) {
		return out, integration.NewValidationError("difficulty",
			fmt.Sprintf("must be one of: %s", strings.Join(quizDifficulties, ", ")))
	}

	switch {
	case opts.QuestionCount == 0:
		out.QuestionCount = cfg.DefaultCount
	case opts.QuestionCount < 1 || opts.QuestionCount > cfg.MaxCount:
		return out, integration.NewValidationError("questionCount",
			fmt.Sprintf("must be between 1 and %d", cfg.MaxCount))
	default:
		out.QuestionCount = opts.QuestionCount
	}

	if len(opts.QuestionTypes) == 0 {
		out.QuestionTypes = slices.Clone(defaultQuizTypes)
	} else {
		for _, t := range opts.QuestionTypes {
			if !models.IsValidQuestionType(t) {
				return out, integration.NewValidationError("questionTypes", fmt.Sprintf("unknown question type %q", t))
			}
			if !slices.Contains(out.QuestionTypes, t) {
				out.QuestionTypes = append(out.QuestionTypes, t)
			}
		}
	}

	out.FocusTopics = []string{}
	for _, topic := range opts.FocusTopics {
		if topic = strings.TrimSpace(topic); topic != "" {
			out.FocusTopics = append(out.FocusTopics, topic)
		}
	}
	if len(out.FocusTopics) > cfg.MaxTopics {
		return out, integration.NewValidationError("focusTopics", fmt.Sprintf("at most %d topics allowed", cfg.MaxTopics))
	}

	return out, nil
}

// ValidateChatMessage trims message and applies the length and spam checks.
func ValidateChatMessage(message string, maxLength int) (string, error) {
	trimmed := strings.TrimSpace(message)
	if trimmed == "" {
		return "", integration.NewValidationError("message", "message cannot be empty")
	}

	var reasons []string
	if utf8.RuneCountInString(trimmed) > maxLength {
		reasons = append(reasons, fmt.Sprintf("message is too long (maximum %d characters)", maxLength))
	}
	if looksLikeSpam(trimmed) {
		reasons = append(reasons, "message appears to be spam or contains invalid content")
	}

	if len(reasons) > 0 {
		return "", integration.NewValidationError("message", reasons...)
	}
	return trimmed, nil
}

func looksLikeSpam(s string) bool {
	return hasRepeatedRun(s, 11) || capsPattern.MatchString(s) || longURLPattern.MatchString(s)
}

// hasRepeatedRun reports whether some character occurs n or more times in a
// row. RE2 has no backreferences, so this is done by hand.
func hasRepeatedRun(s string, n int) bool {
	var prev rune
	run := 0
	for i, r := range s {
		if i > 0 && r == prev {
			run++
		} else {
			run = 1
		}
		if run >= n && !unicode.IsControl(r) {
			return true
		}
		prev = r
	}
	return false
}

// validateExport checks the export type and the options that type accepts.
func validateExport(exportType string, opts models.ExportOptions) error {
	if exportType == "" {
		return integration.NewValidationError("type", "export type is required")
	}
	if !models.IsValidExportType(exportType) {
		return integration.NewValidationError("type",
			"must be one of: analysis, quiz, flashcards, summary")
	}

	if models.ExportType(exportType) != models.ExportQuiz {
		return nil
	}

	var reasons []string
	if opts.QuestionType != "" && !models.IsValidQuestionType(opts.QuestionType) {
		reasons = append(reasons, "invalid question type")
	}
	if opts.Difficulty != "" && !slices.Contains(exportDifficulties, opts.Difficulty) {
		reasons = append(reasons, "invalid difficulty level")
	}
	if len(reasons) > 0 {
		return integration.NewValidationError("options", reasons...)
	}
	return nil
}

// structValidator validates request structs by their tags and reports the
// first failing field under its JSON name.
type structValidator struct {
	v *validator.Validate
}

func newStructValidator() *structValidator {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return f.Name
		}
		return name
	})
	return &structValidator{v: v}
}

func (s *structValidator) Struct(v any) error {
	err := s.v.Struct(v)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		fe := verrs[0]
		reason := fmt.Sprintf("failed %q check", fe.Tag())
		if fe.Param() != "" {
			reason = fmt.Sprintf("failed %q check (%s)", fe.Tag(), fe.Param())
		}
		return integration.NewValidationError(fe.Field(), reason)
	}
	return fmt.Errorf("validate: %w", err)
}
