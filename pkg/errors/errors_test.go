// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Quadrel Contributors

package errors_test

import (
	stderrors "errors"
	"fmt"
	"testing"

	quadrelerr "github.com/quadrel-dev/quadrel/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ---------------------------------------------------------------------------
// New / Errorf
// ---------------------------------------------------------------------------

func TestNewIncludesCodeAndFields(t *testing.T) {
	err := quadrelerr.New(
		quadrelerr.CodeStoreSchemaRenameFailure,
		"renaming table",
		quadrelerr.FieldTable("arc_triple"),
		quadrelerr.FieldStore("arc"),
	)

	require.Error(t, err)
	assert.Equal(t, quadrelerr.CodeStoreSchemaRenameFailure, quadrelerr.CodeOf(err))
	assert.True(t, quadrelerr.HasCode(err, quadrelerr.CodeStoreSchemaRenameFailure))

	fields := quadrelerr.FieldsOf(err)
	assert.Equal(t, "arc_triple", fields["table"])
	assert.Equal(t, "arc", fields["store"])
}

func TestNewWithNoFields(t *testing.T) {
	err := quadrelerr.New(quadrelerr.CodeBackendConnectFailure, "connection lost")
	require.Error(t, err)
	assert.Equal(t, quadrelerr.CodeBackendConnectFailure, quadrelerr.CodeOf(err))
	assert.Contains(t, err.Error(), "connection lost")
}

func TestErrorfWrapsInnerError(t *testing.T) {
	inner := stderrors.New("disk full")
	err := quadrelerr.Errorf(quadrelerr.CodeBackendExecFailure, "write failed: %w", inner)
	require.Error(t, err)
	assert.ErrorIs(t, err, inner)
	assert.Equal(t, quadrelerr.CodeBackendExecFailure, quadrelerr.CodeOf(err))
}

// ---------------------------------------------------------------------------
// Wrap / Wrapf / With
// ---------------------------------------------------------------------------

func TestWrapPreservesWrappedErrorAndCode(t *testing.T) {
	root := stderrors.New("no such table")
	err := quadrelerr.Wrap(root, quadrelerr.CodeStoreSchemaNotReady, "probing setting table",
		quadrelerr.FieldTable("arc_setting"))

	require.Error(t, err)
	assert.ErrorIs(t, err, root)
	assert.True(t, quadrelerr.IsNotFound(err))
	assert.Equal(t, "arc_setting", quadrelerr.FieldsOf(err)["table"])
}

func TestWrapNilReturnsNil(t *testing.T) {
	assert.NoError(t, quadrelerr.Wrap(nil, quadrelerr.CodeInternalFailure, "ignored"))
	assert.NoError(t, quadrelerr.Wrapf(nil, quadrelerr.CodeInternalFailure, "ignored %s", "arg"))
	assert.NoError(t, quadrelerr.With(nil, quadrelerr.FieldTrigger("x")))
}

func TestWithOnPlainErrorDefaultsToInternalCode(t *testing.T) {
	enriched := quadrelerr.With(stderrors.New("something broke"), quadrelerr.FieldTrigger("querylog"))

	require.Error(t, enriched)
	assert.Equal(t, quadrelerr.CodeInternalFailure, quadrelerr.CodeOf(enriched))
	assert.Equal(t, "querylog", quadrelerr.FieldsOf(enriched)["trigger"])
}

func TestCodeOfReturnsInnermostCodedError(t *testing.T) {
	inner := quadrelerr.New(quadrelerr.CodeBackendQueryFailure, "db")
	outer := quadrelerr.Wrap(inner, quadrelerr.CodeQueryExecutionFailure, "handler")
	assert.Equal(t, quadrelerr.CodeBackendQueryFailure, quadrelerr.CodeOf(outer))
}

func TestErrorIsWithWrappedChain(t *testing.T) {
	sentinel := stderrors.New("root cause")
	outer := quadrelerr.Wrap(fmt.Errorf("mid: %w", sentinel), quadrelerr.CodeInternalFailure, "handler")
	assert.ErrorIs(t, outer, sentinel)
}

// ---------------------------------------------------------------------------
// Classification helpers
// ---------------------------------------------------------------------------

func TestClassification(t *testing.T) {
	tests := []struct {
		name  string
		code  quadrelerr.Code
		check func(error) bool
	}{
		{name: "unsupported query type", code: quadrelerr.CodeQueryTypeUnsupported, check: quadrelerr.IsUnsupported},
		{name: "unsupported backend", code: quadrelerr.CodeBackendUnsupported, check: quadrelerr.IsUnsupported},
		{name: "handler not found", code: quadrelerr.CodeQueryHandlerNotFound, check: quadrelerr.IsNotFound},
		{name: "lock timeout", code: quadrelerr.CodeStoreLockTimeout, check: quadrelerr.IsTimeout},
		{name: "parse invalid", code: quadrelerr.CodeQueryParseInvalid, check: quadrelerr.IsInvalidInput},
		{name: "config invalid", code: quadrelerr.CodeConfigValidateInvalidValue, check: quadrelerr.IsInvalidInput},
		{name: "setting decode", code: quadrelerr.CodeStoreSettingInvalid, check: quadrelerr.IsInvalidInput},
		{name: "rename failure", code: quadrelerr.CodeStoreSchemaRenameFailure, check: quadrelerr.IsStructuralFailure},
		{name: "split failure", code: quadrelerr.CodeStoreSchemaSplitFailure, check: quadrelerr.IsStructuralFailure},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.True(t, tt.check(quadrelerr.New(tt.code, "boom")))
		})
	}
}

func TestClassificationNegativeCases(t *testing.T) {
	for _, err := range []error{nil, stderrors.New("plain"), quadrelerr.New(quadrelerr.CodeBackendExecFailure, "x")} {
		assert.False(t, quadrelerr.IsNotFound(err))
		assert.False(t, quadrelerr.IsInvalidInput(err))
		assert.False(t, quadrelerr.IsUnsupported(err))
		assert.False(t, quadrelerr.IsTimeout(err))
		assert.False(t, quadrelerr.IsStructuralFailure(err))
	}
}

func TestFieldsWithEmptyKeyAreIgnored(t *testing.T) {
	err := quadrelerr.New(quadrelerr.CodeInternalFailure, "oops",
		quadrelerr.Field("", "should-be-dropped"),
		quadrelerr.FieldPredicate("http://p"),
	)
	fields := quadrelerr.FieldsOf(err)
	assert.Equal(t, "http://p", fields["predicate"])
	assert.NotContains(t, fields, "")
}

func TestJoinCombinesErrors(t *testing.T) {
	a := stderrors.New("first")
	b := stderrors.New("second")
	joined := quadrelerr.Join(a, b)

	require.Error(t, joined)
	assert.ErrorIs(t, joined, a)
	assert.ErrorIs(t, joined, b)
	assert.Equal(t, quadrelerr.CodeInternalFailure, quadrelerr.CodeOf(joined))
	assert.NoError(t, quadrelerr.Join(nil, nil))
}
