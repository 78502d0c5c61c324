package validator

import (
	"fmt"
	"math"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

// BusinessValidator holds rules that span several fields.
type BusinessValidator struct{}

// ValidateQuestions checks option labels and the correct option of each
// question. Field paths are prefixed with prefix, e.g. "questions".
func (bv *BusinessValidator) ValidateQuestions(prefix string, questions []QuestionRequest) ValidationErrors {
	var errs ValidationErrors
	for i := range questions {
		errs = append(errs, bv.ValidateQuestion(fmt.Sprintf("%s[%d]", prefix, i), &questions[i])...)
	}
	return errs
}

func (bv *BusinessValidator) ValidateQuestion(field string, q *QuestionRequest) ValidationErrors {
	var errs ValidationErrors

	seen := make(map[string]bool, len(q.Options))
	for j, opt := range q.Options {
		label := strings.TrimSpace(opt.Label)
		if seen[label] {
			errs = append(errs, ValidationError{
				Field:   fmt.Sprintf("%s.options[%d].label", field, j),
				Message: "duplicate option label",
				Value:   opt.Label,
				Rule:    "unique_label",
			})
		}
		seen[label] = true
	}

	if !seen[strings.TrimSpace(q.CorrectOption)] {
		errs = append(errs, ValidationError{
			Field:   field + ".correctOption",
			Message: "must match one of the option labels",
			Value:   q.CorrectOption,
			Rule:    "correct_option",
		})
	}

	return errs
}

// ValidateAssessmentCreate checks the questions nested inside modules.
func (bv *BusinessValidator) ValidateAssessmentCreate(req *AssessmentCreateRequest) ValidationErrors {
	var errs ValidationErrors
	for i, m := range req.Modules {
		errs = append(errs, bv.ValidateQuestions(fmt.Sprintf("modules[%d].questions", i), m.Questions)...)
	}
	return errs
}

func registerRules(validate *validator.Validate) {
	validate.RegisterValidation("not_blank", func(fl validator.FieldLevel) bool {
		return strings.TrimSpace(fl.Field().String()) != ""
	})

	validate.RegisterValidation("percentage", func(fl validator.FieldLevel) bool {
		value := fl.Field().Float()
		return !math.IsNaN(value) && value >= 0 && value <= 100
	})

	validate.RegisterValidation("future_date", func(fl validator.FieldLevel) bool {
		field := fl.Field()
		if field.Kind() == reflect.Ptr {
			if field.IsNil() {
				return true
			}
			field = field.Elem()
		}

		dueDate, ok := field.Interface().(time.Time)
		if !ok {
			return false
		}
		return dueDate.After(time.Now())
	})
}
