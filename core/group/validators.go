package group

import (
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	"github.com/trezcool/aula/core"
)

var (
	selectionTag  = "selection"
	selectionText = "must be one of: add, remove"
)

// InitValidators registers the group validators.
func InitValidators(validate *validator.Validate, translator ut.Translator) {
	_ = validate.RegisterValidation(selectionTag, selectionValidation)
	core.RegisterCustomTranslation(validate, translator, selectionTag, selectionText)
}

func selectionValidation(fl validator.FieldLevel) bool {
	switch Selection(fl.Field().String()) {
	case SelectToAdd, SelectToRemove:
		return true
	}
	return false
}
