package validator

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

type sample struct {
	Name  string `json:"name" validate:"required,max=5"`
	Kind  string `form:"kind" validate:"omitempty,oneof=a b"`
	Inner struct {
		Count int `validate:"min=1"`
	}
}

func TestValidate_ReportsWireNames(t *testing.T) {
	s := sample{Name: "toolong", Kind: "c"}
	s.Inner.Count = 0

	errs := Validate(s)

	assert.Equal(t, "max", errs["name"])
	assert.Equal(t, "oneof", errs["kind"])
	assert.Equal(t, "min", errs["Count"])
}

func TestValidate_OK(t *testing.T) {
	s := sample{Name: "ok"}
	s.Inner.Count = 2
	assert.Nil(t, Validate(s))
}

func TestValidate_NonStruct(t *testing.T) {
	errs := Validate(42)
	assert.NotEmpty(t, errs)
}
