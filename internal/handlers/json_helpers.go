package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"reflect"
	"strconv"
	"strings"
	"time"

	"offrecord/internal/apperr"
)

// JSONResponse sends a JSON response and ensures slices are never null
//
// Nil slices encode as "null", which breaks frontends expecting arrays.
// Always use this function instead of json.NewEncoder(w).Encode().
func JSONResponse(w http.ResponseWriter, status int, data interface{}) {
	normalized := normalizeSlices(data)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(normalized); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

// ErrorResponse writes the error with its mapped status and public message
func ErrorResponse(w http.ResponseWriter, err error) {
	status := apperr.HTTPStatus(err)
	if status >= 500 {
		slog.Error("request failed", "error", err)
	}
	JSONResponse(w, status, map[string]string{"error": apperr.PublicMessage(err)})
}

// pathID parses the named numeric path value of the request
func pathID(r *http.Request, name string) (uint, error) {
	raw := r.PathValue(name)
	id, err := strconv.ParseUint(raw, 10, 32)
	if err != nil || id == 0 {
		return 0, apperr.Validation("invalid %s", strings.ReplaceAll(name, "_", " "))
	}
	return uint(id), nil
}

// normalizeSlices recursively ensures all nil slices become empty slices
func normalizeSlices(data interface{}) interface{} {
	if data == nil {
		return data
	}

	v := reflect.ValueOf(data)

	switch v.Kind() {
	case reflect.Ptr:
		if v.IsNil() {
			return data
		}
		elem := v.Elem()
		if elem.Type() == reflect.TypeOf(time.Time{}) {
			return data
		}
		normalized := normalizeSlices(elem.Interface())
		result := reflect.New(elem.Type())
		result.Elem().Set(reflect.ValueOf(normalized))
		return result.Interface()

	case reflect.Slice:
		if v.IsNil() {
			return reflect.MakeSlice(v.Type(), 0, 0).Interface()
		}
		result := reflect.MakeSlice(v.Type(), v.Len(), v.Cap())
		for i := 0; i < v.Len(); i++ {
			normalized := normalizeSlices(v.Index(i).Interface())
			result.Index(i).Set(reflect.ValueOf(normalized))
		}
		return result.Interface()

	case reflect.Struct:
		if v.Type() == reflect.TypeOf(time.Time{}) {
			return data
		}
		result := reflect.New(v.Type()).Elem()
		for i := 0; i < v.NumField(); i++ {
			field := v.Field(i)
			if !field.CanInterface() || !result.Field(i).CanSet() {
				continue
			}
			switch field.Kind() {
			case reflect.Slice, reflect.Ptr, reflect.Struct:
				normalized := normalizeSlices(field.Interface())
				result.Field(i).Set(reflect.ValueOf(normalized))
			default:
				result.Field(i).Set(field)
			}
		}
		return result.Interface()
	}

	return data
}
