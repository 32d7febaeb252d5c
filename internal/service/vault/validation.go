package vault

import (
	"fmt"
	"regexp"

	"filevault/internal/config"
	"filevault/internal/domain"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

var noSlash = regexp.MustCompile(`^[^/]+$`)

// validateFolderName checks an already normalized folder name
func validateFolderName(name string) error {
	err := validation.Validate(name,
		validation.Required.Error("folder name is required"),
		validation.RuneLength(1, config.MaxFolderNameLength),
		validation.Match(noSlash).Error("folder name cannot contain '/'"),
	)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}
	return nil
}

// validateFolderPath bounds a computed materialized path
func validateFolderPath(path string) error {
	err := validation.Validate(path,
		validation.RuneLength(0, config.MaxFolderPathLength).Error("folder path is too long"),
	)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}
	return nil
}

// validateRequired checks the identifiers every request carries
func validateRequired(fields map[string]string) error {
	errs := validation.Errors{}
	for name, value := range fields {
		if err := validation.Validate(value, validation.Required); err != nil {
			errs[name] = err
		}
	}
	if err := errs.Filter(); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}
	return nil
}

// validateRevisionNo checks a user-supplied revision number
func validateRevisionNo(no int) error {
	err := validation.Validate(no,
		validation.Required.Error("revision number must be at least 1"),
		validation.Min(1).Error("revision number must be at least 1"),
	)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}
	return nil
}
