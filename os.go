package paymentsengine

import (
	"errors"
	"fmt"
	"os"
	"reflect"
	"strconv"
	"strings"
)

// ErrNotPointer indicates SetConfigFromEnvVars was given something other
// than a pointer to a struct.
var ErrNotPointer = errors.New("target must be a pointer to a struct")

// GetenvOrDefault returns the value of the environment variable key, or
// defaultValue when the variable is unset or blank.
func GetenvOrDefault(key, defaultValue string) string {
	if value, ok := os.LookupEnv(key); ok && strings.TrimSpace(value) != "" {
		return value
	}

	return defaultValue
}

// GetenvBoolOrDefault returns the boolean value of the environment
// variable key, or defaultValue when the variable is unset, blank, or
// not a valid boolean.
func GetenvBoolOrDefault(key string, defaultValue bool) bool {
	value, ok := os.LookupEnv(key)
	if !ok || strings.TrimSpace(value) == "" {
		return defaultValue
	}

	parsed, err := strconv.ParseBool(strings.TrimSpace(value))
	if err != nil {
		return defaultValue
	}

	return parsed
}

// GetenvIntOrDefault returns the integer value of the environment
// variable key, or defaultValue when the variable is unset, blank, or
// not a valid integer.
func GetenvIntOrDefault(key string, defaultValue int64) int64 {
	value, ok := os.LookupEnv(key)
	if !ok || strings.TrimSpace(value) == "" {
		return defaultValue
	}

	parsed, err := strconv.ParseInt(strings.TrimSpace(value), 10, 64)
	if err != nil {
		return defaultValue
	}

	return parsed
}

// SetConfigFromEnvVars fills target's fields from the environment using
// the `env` struct tag. Supported field kinds are string, bool, and
// int64; a field keeps its current value when its variable is unset, so
// pre-populated structs act as their own defaults. Fields without a tag
// are left untouched.
func SetConfigFromEnvVars(target any) error {
	value := reflect.ValueOf(target)
	if value.Kind() != reflect.Pointer || value.IsNil() {
		return ErrNotPointer
	}

	value = value.Elem()
	if value.Kind() != reflect.Struct {
		return ErrNotPointer
	}

	structType := value.Type()

	for i := 0; i < structType.NumField(); i++ {
		field := structType.Field(i)

		key, ok := field.Tag.Lookup("env")
		if !ok || key == "" || !value.Field(i).CanSet() {
			continue
		}

		switch field.Type.Kind() {
		case reflect.String:
			value.Field(i).SetString(GetenvOrDefault(key, value.Field(i).String()))
		case reflect.Bool:
			value.Field(i).SetBool(GetenvBoolOrDefault(key, value.Field(i).Bool()))
		case reflect.Int64:
			value.Field(i).SetInt(GetenvIntOrDefault(key, value.Field(i).Int()))
		default:
			return fmt.Errorf("unsupported field type %s for env tag %q", field.Type, key)
		}
	}

	return nil
}
