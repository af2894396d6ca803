package api_test

import (
	"errors"
	"fmt"
	"syscall"
	"testing"

	"github.com/momentics/hioload-reactor/api"
	"github.com/stretchr/testify/assert"
)

func TestError_IsMatchesOnCode(t *testing.T) {
	err := api.NewError(api.ErrCodeDuplicateRegistration, "device is already added to this agent").WithContext("fd", 3)
	assert.ErrorIs(t, err, api.ErrDuplicateRegistration)
	assert.NotErrorIs(t, err, api.ErrLogic)

	wrapped := fmt.Errorf("register: %w", err)
	assert.ErrorIs(t, wrapped, api.ErrDuplicateRegistration)
}

func TestError_ConfigurationCodesMatchEachOther(t *testing.T) {
	assert.ErrorIs(t, api.NewError(api.ErrCodeInvalidArgument, "bad host"), api.ErrConfiguration)
	assert.ErrorIs(t, api.NewError(api.ErrCodeConfiguration, "zero lambda"), api.ErrInvalidArgument)
	assert.NotErrorIs(t, api.NewError(api.ErrCodeConfiguration, "zero lambda"), api.ErrFatalIO)
}

func TestError_UnwrapReachesCause(t *testing.T) {
	err := api.WrapError(api.ErrCodeFatalIO, "readiness wait", syscall.EINTR)
	assert.ErrorIs(t, err, api.ErrFatalIO)
	assert.ErrorIs(t, err, syscall.EINTR)
	assert.Equal(t, "readiness wait: interrupted system call", err.Error())

	var target *api.Error
	assert.True(t, errors.As(fmt.Errorf("run: %w", err), &target))
	assert.Equal(t, api.ErrCodeFatalIO, target.Code)
}

func TestError_MessageIncludesContext(t *testing.T) {
	err := api.NewError(api.ErrCodeLogic, "agent is already running").WithContext("fd", 4)
	assert.Contains(t, err.Error(), "agent is already running")
	assert.Contains(t, err.Error(), "fd:4")
	assert.Equal(t, "logic error", api.ErrCodeLogic.String())
}
