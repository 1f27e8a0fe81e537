package middleware

import (
	"errors"
	"fmt"
	"maps"
	"os"
	"reflect"
	"slices"
	"strings"
)

// ValidatorFunc checks a parsed run before its action executes. Use it for
// checks the option table cannot express: files on disk, options that are
// only required together, ranges.
type ValidatorFunc func(ctx Context) error

// NamedValidator pairs a ValidatorFunc with the name used in errors.
type NamedValidator struct {
	Name string
	Fn   ValidatorFunc
}

// Validator runs the validators registered with WithCustomValidators, in
// name order.
func Validator(options ...MiddlewareOption) Middleware {
	return ValidatorWithCustom(newConfig(options).CustomValidators)
}

// ValidatorWithCustom runs validators in name order before the action.
func ValidatorWithCustom(validators map[string]ValidatorFunc) Middleware {
	named := make([]NamedValidator, 0, len(validators))
	for _, name := range slices.Sorted(maps.Keys(validators)) {
		named = append(named, NamedValidator{Name: name, Fn: validators[name]})
	}
	return Validate(named...)
}

// Validate runs validators in the given order and stops at the first
// failure. Errors that are not already a *ValidationError are wrapped with
// the validator's name as Field.
//
//	prog.Use(middleware.Validate(
//	    middleware.Custom("port_range", checkPort),
//	    middleware.File("config"),
//	))
func Validate(validators ...NamedValidator) Middleware {
	validators = slices.DeleteFunc(slices.Clone(validators), func(v NamedValidator) bool {
		return v.Name == "" || v.Fn == nil
	})
	return func(next ActionFunc) ActionFunc {
		return func(ctx Context) error {
			for _, v := range validators {
				if err := v.Fn(ctx); err != nil {
					var vErr *ValidationError
					if errors.As(err, &vErr) {
						return vErr
					}
					return &ValidationError{Field: v.Name, Message: "validation failed", Cause: err}
				}
			}
			return next(ctx)
		}
	}
}

func Custom(name string, fn ValidatorFunc) NamedValidator {
	return NamedValidator{Name: name, Fn: fn}
}

// File checks that the string values under dests name existing files.
func File(dests ...string) NamedValidator {
	return NamedValidator{Name: "file_exists", Fn: FileExists(dests...)}
}

// Dir checks that the string values under dests name existing directories.
func Dir(dests ...string) NamedValidator {
	return NamedValidator{Name: "directory_exists", Fn: DirectoryExists(dests...)}
}

// Required fails when any of dests was not given a value.
func Required(dests ...string) NamedValidator {
	return NamedValidator{Name: "required", Fn: ConditionalRequired(func(Context) error { return nil }, dests...)}
}

// ConditionalRequired requires dests whenever condition returns nil.
func ConditionalRequired(condition ValidatorFunc, dests ...string) ValidatorFunc {
	return func(ctx Context) error {
		if condition(ctx) != nil {
			return nil
		}
		var missing []string
		for _, dest := range dests {
			if !present(ctx, dest) {
				missing = append(missing, dest)
			}
		}
		if len(missing) > 0 {
			list := strings.Join(missing, ", ")
			return &ValidationError{Field: list, Message: "required options missing: " + list}
		}
		return nil
	}
}

// MutuallyExclusive fails when more than one of dests has a value.
func MutuallyExclusive(dests ...string) ValidatorFunc {
	return func(ctx Context) error {
		var set []string
		for _, dest := range dests {
			if present(ctx, dest) {
				set = append(set, dest)
			}
		}
		if len(set) > 1 {
			list := strings.Join(set, ", ")
			return &ValidationError{Field: list, Message: "options cannot be used together: " + list}
		}
		return nil
	}
}

func FileExists(dests ...string) ValidatorFunc {
	return pathValidator("file", dests, func(info os.FileInfo, path string) error {
		if info.IsDir() {
			return fmt.Errorf("%s is a directory", path)
		}
		return nil
	})
}

func DirectoryExists(dests ...string) ValidatorFunc {
	return pathValidator("directory", dests, func(info os.FileInfo, path string) error {
		if !info.IsDir() {
			return fmt.Errorf("%s is not a directory", path)
		}
		return nil
	})
}

func pathValidator(kind string, dests []string, check func(os.FileInfo, string) error) ValidatorFunc {
	return func(ctx Context) error {
		for _, dest := range dests {
			path, ok := ctx.String(dest)
			if !ok || path == "" {
				continue
			}
			info, err := os.Stat(path)
			if err == nil {
				err = check(info, path)
			}
			if err != nil {
				return &ValidationError{
					Field:   dest,
					Value:   path,
					Message: fmt.Sprintf("%s validation failed for '%s'", kind, dest),
					Cause:   err,
				}
			}
		}
		return nil
	}
}

// present reports whether dest holds a non-zero value. False and 0 count as
// absent, as do empty lists.
func present(ctx Context, dest string) bool {
	v, ok := ctx.Lookup(dest)
	if !ok || v == nil {
		return false
	}
	return !reflect.ValueOf(v).IsZero() && !isEmptyList(v)
}

func isEmptyList(v any) bool {
	rv := reflect.ValueOf(v)
	return rv.Kind() == reflect.Slice && rv.Len() == 0
}

// WithCustomValidators adds validators for Validator.
func WithCustomValidators(validators map[string]ValidatorFunc) MiddlewareOption {
	return func(config *MiddlewareConfig) {
		maps.Copy(config.CustomValidators, validators)
	}
}
