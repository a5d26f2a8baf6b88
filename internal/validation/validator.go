package validation

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/comment-tree-api/internal/models"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/microcosm-cc/bluemonday"
)

// ValidationError represents a single validation error
type ValidationError struct {
	Field   string      `json:"field"`
	Message string      `json:"message"`
	Value   interface{} `json:"value,omitempty"`
}

var (
	policy       = bluemonday.UGCPolicy()
	registerOnce sync.Once
	registerErr  error
)

// RegisterWithGin installs the custom tags on gin's binding validator
func RegisterWithGin() error {
	registerOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			registerErr = errors.New("gin binding engine is not go-playground/validator")
			return
		}
		registerErr = Register(v)
	})
	return registerErr
}

// Register installs the custom tags and reports fields by their JSON name
func Register(v *validator.Validate) error {
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return f.Name
		}
		return name
	})

	if err := v.RegisterValidation("reaction_type", validateReactionType); err != nil {
		return err
	}
	if err := v.RegisterValidation("max_words", validateMaxWords); err != nil {
		return err
	}
	return v.RegisterValidation("not_blank", validateNotBlank)
}

func validateReactionType(fl validator.FieldLevel) bool {
	_, ok := models.ParseReactionType(fl.Field().String())
	return ok
}

// validateMaxWords takes the limit from the tag param, models.MaxCommentWords
// when absent
func validateMaxWords(fl validator.FieldLevel) bool {
	limit := models.MaxCommentWords
	if p := fl.Param(); p != "" {
		if _, err := fmt.Sscan(p, &limit); err != nil {
			return false
		}
	}
	return CountWords(fl.Field().String()) <= limit
}

func validateNotBlank(fl validator.FieldLevel) bool {
	return strings.TrimSpace(fl.Field().String()) != ""
}

// CountWords counts whitespace separated words
func CountWords(s string) int {
	return len(strings.Fields(s))
}

// SanitizeBody strips markup that is unsafe to render back to clients
func SanitizeBody(body string) string {
	return strings.TrimSpace(policy.Sanitize(body))
}

// ValidateBody sanitizes a comment body and checks what remains
func ValidateBody(body string) (string, []ValidationError) {
	clean := SanitizeBody(body)
	var errs []ValidationError

	if clean == "" {
		errs = append(errs, ValidationError{Field: "body", Message: "body is empty after removing unsafe markup"})
	} else if n := CountWords(clean); n > models.MaxCommentWords {
		errs = append(errs, ValidationError{
			Field:   "body",
			Message: fmt.Sprintf("body exceeds maximum of %d words (has %d)", models.MaxCommentWords, n),
		})
	}
	return clean, errs
}

// FromBindingError converts a gin binding error into field errors. Errors
// that are not validation failures (malformed JSON, wrong types) become a
// single error without a field.
func FromBindingError(err error) []ValidationError {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return []ValidationError{{Message: err.Error()}}
	}

	out := make([]ValidationError, 0, len(verrs))
	for _, fe := range verrs {
		out = append(out, ValidationError{
			Field:   fe.Field(),
			Message: message(fe),
			Value:   valueOf(fe),
		})
	}
	return out
}

func message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", fe.Field())
	case "not_blank":
		return fmt.Sprintf("%s must not be blank", fe.Field())
	case "min":
		return fmt.Sprintf("%s must be at least %s", fe.Field(), fe.Param())
	case "reaction_type":
		names := make([]string, len(models.ReactionTypes))
		for i, t := range models.ReactionTypes {
			names[i] = string(t)
		}
		return fmt.Sprintf("invalid reaction type, must be one of: %s", strings.Join(names, ", "))
	case "max_words":
		return fmt.Sprintf("%s exceeds maximum of %d words", fe.Field(), models.MaxCommentWords)
	}
	return fmt.Sprintf("%s failed %s validation", fe.Field(), fe.Tag())
}

// valueOf echoes short scalar values back to the client
func valueOf(fe validator.FieldError) interface{} {
	switch v := fe.Value().(type) {
	case string:
		if len(v) > 64 || v == "" {
			return nil
		}
		return v
	case models.ReactionType:
		if v == "" {
			return nil
		}
		return string(v)
	case int:
		return v
	}
	return nil
}
