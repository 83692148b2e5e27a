package errors

import (
	stderrors "errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMissingColumnsCarriesFields(t *testing.T) {
	err := MissingColumns([]string{"pressure", "temperature"})

	assert.Equal(t, CodeMissingColumns, err.Code)
	assert.Equal(t, []string{"pressure", "temperature"}, err.Fields)
	assert.Equal(t, "Missing required columns: pressure, temperature", err.Error())
}

func TestGetCodeThroughWrapping(t *testing.T) {
	tests := []struct {
		name string
		err  error
		code string
	}{
		{"plain app error", NotFound("Dataset"), CodeNotFound},
		{"fmt wrapped", fmt.Errorf("loading: %w", NotFound("Dataset")), CodeNotFound},
		{"Wrap keeps code", Wrap(InvalidFormat("bad csv", nil), "parse upload"), CodeInvalidFormat},
		{"Wrap of foreign error", Wrap(stderrors.New("boom"), "oops"), CodeInternalError},
		{"foreign error", stderrors.New("boom"), "UNKNOWN"},
		{"WithCode overrides", WithCode(CodeConflict, stderrors.New("dup")), CodeConflict},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.code, GetCode(tt.err))
		})
	}
}

func TestGetFieldsThroughWrapping(t *testing.T) {
	err := Wrapf(MissingColumns([]string{"temperature"}), "ingest %s", "plant.csv")

	assert.True(t, Is(err, CodeMissingColumns))
	assert.Equal(t, []string{"temperature"}, GetFields(err))
	assert.Nil(t, GetFields(NotFound("Dataset")))
}

func TestPersistenceFailureUnwraps(t *testing.T) {
	cause := stderrors.New("connection reset")
	err := PersistenceFailure("insert records", cause)

	assert.True(t, stderrors.Is(err, cause))
	assert.Contains(t, err.Error(), "connection reset")
	assert.True(t, IsAppError(fmt.Errorf("outer: %w", err)))
}

func TestWrapNil(t *testing.T) {
	assert.Nil(t, Wrap(nil, "nothing"))
	assert.Nil(t, Wrapf(nil, "nothing %d", 1))
	assert.Nil(t, WithCode(CodeConflict, nil))
}
