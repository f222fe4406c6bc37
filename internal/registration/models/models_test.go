package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "serviapp/pkg/domain-errors"
)

func TestStatus_CanTransitionTo(t *testing.T) {
	tests := []struct {
		from, to Status
		want     bool
	}{
		{StatusPending, StatusContacted, true},
		{StatusPending, StatusApproved, true},
		{StatusPending, StatusRejected, true},
		{StatusContacted, StatusApproved, true},
		{StatusContacted, StatusRejected, true},
		{StatusContacted, StatusPending, false},
		{StatusApproved, StatusContacted, false},
		{StatusApproved, StatusRejected, false},
		{StatusRejected, StatusApproved, false},
		{StatusRejected, StatusPending, false},
		{StatusPending, StatusPending, false},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.from.CanTransitionTo(tt.to), "%s -> %s", tt.from, tt.to)
	}
}

func TestStatus_Terminal(t *testing.T) {
	assert.False(t, StatusPending.IsTerminal())
	assert.False(t, StatusContacted.IsTerminal())
	assert.True(t, StatusApproved.IsTerminal())
	assert.True(t, StatusRejected.IsTerminal())
}

func validSubmit() SubmitRequest {
	return SubmitRequest{
		Name:     "Juan Pérez",
		Phone:    "0991234567",
		Services: []string{"plomeria"},
	}
}

func TestSubmitRequest_Validate(t *testing.T) {
	t.Run("minimal valid request", func(t *testing.T) {
		assert.NoError(t, validSubmit().Validate())
	})

	t.Run("missing name", func(t *testing.T) {
		req := validSubmit()
		req.Name = "  "
		err := req.Validate()
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeBadRequest))
	})

	t.Run("phone too short", func(t *testing.T) {
		req := validSubmit()
		req.Phone = "12345"
		assert.Error(t, req.Validate())
	})

	t.Run("empty services", func(t *testing.T) {
		req := validSubmit()
		req.Services = nil
		assert.Error(t, req.Validate())
	})

	t.Run("empty areas are fine", func(t *testing.T) {
		req := validSubmit()
		req.Areas = nil
		assert.NoError(t, req.Validate())
	})

	t.Run("malformed email", func(t *testing.T) {
		req := validSubmit()
		req.Email = "not-an-email"
		assert.Error(t, req.Validate())
	})

	t.Run("three references rejected", func(t *testing.T) {
		req := validSubmit()
		req.References = []ReferenceContact{
			{Name: "A", Phone: "0990000001"},
			{Name: "B", Phone: "0990000002"},
			{Name: "C", Phone: "0990000003"},
		}
		assert.Error(t, req.Validate())
	})

	t.Run("reference without phone rejected", func(t *testing.T) {
		req := validSubmit()
		req.References = []ReferenceContact{{Name: "A"}}
		assert.Error(t, req.Validate())
	})
}
