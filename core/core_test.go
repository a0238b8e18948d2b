package core

import (
	"errors"
	"testing"

	"github.com/go-playground/validator/v10"
	pkgerrors "github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
)

func TestContainsFold(t *testing.T) {
	tests := []struct {
		name   string
		term   string
		fields []string
		want   bool
	}{
		{name: "empty term", term: "  ", fields: []string{"Ana"}, want: true},
		{name: "case-insensitive", term: "ANA", fields: []string{"ana perez"}, want: true},
		{name: "second field", term: "7788", fields: []string{"Ana", "44557788"}, want: true},
		{name: "no match", term: "luis", fields: []string{"Ana", "ana@test.pe"}},
		{name: "no fields", term: "x"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ContainsFold(tt.term, tt.fields...); got != tt.want {
				t.Errorf("ContainsFold() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestSortBy(t *testing.T) {
	type row struct{ name, dni string }
	rows := []row{{"b", "2"}, {"a", "3"}, {"B", "1"}, {"a", "1"}}

	SortBy(
		len(rows),
		func(i, j int) { rows[i], rows[j] = rows[j], rows[i] },
		func(i int, field string) string {
			switch field {
			case "name":
				return rows[i].name
			case "dni":
				return rows[i].dni
			}
			return ""
		},
		[]DBOrdering{{Field: "name", Ascending: true}, {Field: "dni", Ascending: false}},
	)
	assert.Equal(t, []row{{"a", "3"}, {"a", "1"}, {"b", "2"}, {"B", "1"}}, rows)
}

func TestDBOrdering_String(t *testing.T) {
	assert.Equal(t, "name ASC", DBOrdering{Field: "name", Ascending: true}.String())
	assert.Equal(t, "email DESC", DBOrdering{Field: "email"}.String())
}

func TestErrorTaxonomy(t *testing.T) {
	verr := NewValidationError(errors.New("duplicate"), FieldError{Field: "student_id", Error: "duplicate"})
	terr := NewTransportError("removing membership", errors.New("connection refused"))

	assert.True(t, IsValidation(pkgerrors.Wrap(verr, "assigning")))
	assert.False(t, IsValidation(terr))
	assert.True(t, IsTransport(pkgerrors.Wrap(terr, "batch")))
	assert.False(t, IsTransport(verr))
	assert.Nil(t, NewTransportError("noop", nil))
	assert.Equal(t, "removing membership: connection refused", terr.Error())
	assert.Equal(t, "roles: invalid", (&ValidationError{Fields: []FieldError{{Field: "roles", Error: "invalid"}}}).Error())
	assert.True(t, IsShutdown(pkgerrors.Wrap(NewShutdownError("bye"), "serving")))
}

func TestInitValidators(t *testing.T) {
	validate := validator.New()
	translator := NewTranslator()
	InitValidators(validate, translator)

	type request struct {
		ID    string `json:"student_id" validate:"notblank"`
		Which string `json:"which" validate:"required,oneof=add remove"`
	}

	tests := []struct {
		name    string
		req     request
		wantErr map[string]string
	}{
		{name: "valid", req: request{ID: "S1", Which: "add"}},
		{
			name:    "blank id & missing which",
			req:     request{ID: "   "},
			wantErr: map[string]string{"student_id": "this field cannot be blank", "which": "this field is required"},
		},
		{
			name:    "bad which",
			req:     request{ID: "S1", Which: "lol"},
			wantErr: map[string]string{"which": "which must be one of: add remove"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validate.Struct(tt.req)
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			var vErrs validator.ValidationErrors
			if !errors.As(err, &vErrs) {
				t.Fatalf("validate.Struct() error = %v, want ValidationErrors", err)
			}
			got := make(map[string]string, len(vErrs))
			for _, fe := range vErrs {
				got[fe.Field()] = fe.Translate(translator)
			}
			assert.Equal(t, tt.wantErr, got)
		})
	}
}
