// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Quadrel Contributors

package errors

import (
	stderrors "errors"
	"fmt"
	"strings"

	"github.com/samber/oops"
)

// Code is the machine-readable identifier for an error.
type Code string

const (
	CodeBackendConnectFailure     Code = "backend.connect.failure"
	CodeBackendUnsupported        Code = "backend.registry.unsupported"
	CodeBackendExecFailure        Code = "backend.exec.failure"
	CodeBackendQueryFailure       Code = "backend.query.failure"

	CodeStoreSchemaIncompatible     Code = "store.schema.incompatible"
	CodeStoreSchemaCreateFailure    Code = "store.schema.create.failure"
	CodeStoreSchemaDropFailure      Code = "store.schema.drop.failure"
	CodeStoreSchemaResetFailure     Code = "store.schema.reset.failure"
	CodeStoreSchemaRenameFailure    Code = "store.schema.rename.failure"
	CodeStoreSchemaReplicateFailure Code = "store.schema.replicate.failure"
	CodeStoreSchemaSplitFailure     Code = "store.schema.split.failure"
	CodeStoreSchemaExtendFailure    Code = "store.schema.extend.failure"
	CodeStoreSchemaNotReady         Code = "store.schema.not_found"
	CodeStoreLifecycleInvalid       Code = "store.lifecycle.transition.invalid"
	CodeStoreLockTimeout            Code = "store.lock.timeout"
	CodeStoreSettingFailure         Code = "store.setting.failure"
	CodeStoreSettingInvalid         Code = "store.setting.decode.invalid_format"
	CodeStoreDictionaryFailure      Code = "store.dictionary.failure"
	CodeStoreTripleFailure          Code = "store.triple.failure"
	CodeStoreMaintenanceFailure     Code = "store.maintenance.failure"
	CodeStoreInvalidInput           Code = "store.invalid_input"

	CodeQueryTypeUnsupported  Code = "query.type.unsupported"
	CodeQueryParseInvalid     Code = "query.parse.invalid"
	CodeQueryHandlerNotFound  Code = "query.handler.not_found"
	CodeQueryExecutionFailure Code = "query.execution.failure"

	CodeTriggerBindingsInvalid Code = "trigger.bindings.invalid_format"
	CodeTriggerRunFailure      Code = "trigger.run.failure"
	CodeTriggerNotFound        Code = "trigger.registry.not_found"

	CodeDumpWriteFailure Code = "dump.write.failure"

	CodeConfigLoadReadFailure      Code = "config.load.read.failure"
	CodeConfigValidateInvalidValue Code = "config.validate.invalid_value"

	CodeCLISetupFailure Code = "cli.setup.failure"
	CodeCLIInputInvalid Code = "cli.input.invalid"

	CodeInternalFailure Code = "internal.failure"
)

// Attr is a structured key/value context attached to an error.
type Attr struct {
	Key   string
	Value any
}

// FieldValue creates a structured error field.
func FieldValue(key string, value any) Attr {
	return Attr{Key: key, Value: value}
}

// Field is kept as the primary helper for terse callsites.
func Field(key string, value any) Attr {
	return FieldValue(key, value)
}

func FieldTable(value string) Attr {
	return Field("table", value)
}

func FieldStore(value string) Attr {
	return Field("store", value)
}

func FieldPredicate(value string) Attr {
	return Field("predicate", value)
}

func FieldQueryType(value string) Attr {
	return Field("query_type", value)
}

func FieldTrigger(value string) Attr {
	return Field("trigger", value)
}

func New(code Code, msg string, fields ...Attr) error {
	return oops.Code(code).With(flatten(fields)...).New(msg)
}

func Errorf(code Code, format string, args ...any) error {
	return oops.Code(code).Errorf(format, args...)
}

func Wrap(err error, code Code, msg string, fields ...Attr) error {
	if err == nil {
		return nil
	}

	return oops.Code(code).With(flatten(fields)...).Wrapf(err, "%s", msg)
}

func Wrapf(err error, code Code, format string, args ...any) error {
	if err == nil {
		return nil
	}

	return oops.Code(code).Wrapf(err, format, args...)
}

// With adds structured fields to an existing error chain.
func With(err error, fields ...Attr) error {
	if err == nil {
		return nil
	}

	code := CodeOf(err)
	if code == "" {
		code = CodeInternalFailure
	}

	return oops.Code(code).With(flatten(fields)...).Wrap(err)
}

func CodeOf(err error) Code {
	if err == nil {
		return ""
	}

	oopsErr, ok := oops.AsOops(err)
	if !ok {
		return ""
	}

	if code, ok := oopsErr.Code().(Code); ok {
		return code
	}

	if code, ok := oopsErr.Code().(string); ok {
		return Code(code)
	}

	return Code(fmt.Sprintf("%v", oopsErr.Code()))
}

func FieldsOf(err error) map[string]any {
	if err == nil {
		return nil
	}

	oopsErr, ok := oops.AsOops(err)
	if !ok {
		return nil
	}

	return oopsErr.Context()
}

func HasCode(err error, code Code) bool {
	if err == nil {
		return false
	}
	return CodeOf(err) == code
}

func IsNotFound(err error) bool {
	return reason(CodeOf(err)) == "not_found"
}

func IsInvalidInput(err error) bool {
	r := reason(CodeOf(err))
	return r == "invalid" || r == "invalid_input" || r == "invalid_value" || r == "invalid_format"
}

func IsUnsupported(err error) bool {
	return reason(CodeOf(err)) == "unsupported"
}

func IsTimeout(err error) bool {
	return reason(CodeOf(err)) == "timeout"
}

// IsStructuralFailure reports whether err came from a failed DDL step.
func IsStructuralFailure(err error) bool {
	code := string(CodeOf(err))
	return strings.HasPrefix(code, "store.schema.") && reason(CodeOf(err)) == "failure"
}

func Join(errs ...error) error {
	joined := stderrors.Join(errs...)
	if joined == nil {
		return nil
	}
	return oops.Code(CodeInternalFailure).Wrap(joined)
}

func flatten(fields []Attr) []any {
	pairs := make([]any, 0, len(fields)*2)
	for _, field := range fields {
		if field.Key == "" {
			continue
		}
		pairs = append(pairs, field.Key, field.Value)
	}
	return pairs
}

func reason(code Code) string {
	if code == "" {
		return ""
	}

	raw := string(code)
	idx := strings.LastIndex(raw, ".")
	if idx == -1 || idx == len(raw)-1 {
		return raw
	}
	return raw[idx+1:]
}
