package logic

import (
	"errors"
	"fmt"

	"github.com/basestats/stats-engine/internal/models"
	"github.com/go-playground/validator/v10"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// ValidateGameRecord rejects records that must never reach the engine. The
// returned error matches models.ErrInvalidGameRecord.
func ValidateGameRecord(rec *models.GameRecord) error {
	if rec == nil {
		return &models.ValidationError{Fields: []string{"record"}}
	}
	if err := validate.Struct(rec); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return &models.ValidationError{Fields: []string{err.Error()}}
		}
		fields := make([]string, 0, len(verrs))
		for _, fe := range verrs {
			fields = append(fields, fe.Namespace()+" ("+fe.Tag()+")")
		}
		return &models.ValidationError{Fields: fields}
	}
	return nil
}

// Validate checks any struct with validate tags, such as rosters and profiles.
func Validate(v any) error {
	if err := validate.Struct(v); err != nil {
		return fmt.Errorf("%w: %v", models.ErrInvalidInput, err)
	}
	return nil
}
