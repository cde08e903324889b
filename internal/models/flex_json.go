package models

import (
	"encoding/json"
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"sync"
)

// fieldMaps caches JSON tag -> struct field index mappings per type.
var fieldMaps sync.Map // map[reflect.Type]map[string]int

func jsonFieldMap(t reflect.Type) map[string]int {
	if m, ok := fieldMaps.Load(t); ok {
		return m.(map[string]int)
	}
	m := make(map[string]int, t.NumField())
	for i := 0; i < t.NumField(); i++ {
		tag := t.Field(i).Tag.Get("json")
		if tag == "" || tag == "-" {
			continue
		}
		m[strings.Split(tag, ",")[0]] = i
	}
	fieldMaps.Store(t, m)
	return m
}

// flexUnmarshal decodes data into dst (a pointer to an alias struct type with
// no UnmarshalJSON of its own). Older app builds send every number as a
// quoted string, so fields that fail native decoding are coerced from strings.
func flexUnmarshal(data []byte, dst any) error {
	// Fast path: everything already has the right type.
	if err := json.Unmarshal(data, dst); err == nil {
		return nil
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("flex unmarshal: %w", err)
	}

	v := reflect.ValueOf(dst).Elem()
	fieldMap := jsonFieldMap(v.Type())

	for key, rawVal := range raw {
		idx, ok := fieldMap[key]
		if !ok {
			continue
		}
		fv := v.Field(idx)
		if !fv.CanSet() {
			continue
		}

		ptr := reflect.New(fv.Type())
		if err := json.Unmarshal(rawVal, ptr.Interface()); err == nil {
			fv.Set(ptr.Elem())
			continue
		}

		if len(rawVal) > 1 && rawVal[0] == '"' {
			var s string
			if err := json.Unmarshal(rawVal, &s); err != nil || s == "" {
				continue
			}
			coerceStringToField(fv, s)
		}
	}
	return nil
}

// coerceStringToField converts a string value to the field's native type.
func coerceStringToField(fv reflect.Value, s string) {
	switch fv.Kind() {
	case reflect.Float32, reflect.Float64:
		if n, err := strconv.ParseFloat(s, 64); err == nil {
			fv.SetFloat(n)
		}
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		// "3.0" still counts as 3
		if n, err := strconv.ParseFloat(s, 64); err == nil {
			fv.SetInt(int64(n))
		}
	case reflect.Bool:
		if b, err := strconv.ParseBool(s); err == nil {
			fv.SetBool(b)
		}
	case reflect.String:
		fv.SetString(s)
	}
}

func (e *AtBatEvent) UnmarshalJSON(data []byte) error {
	type alias AtBatEvent
	return flexUnmarshal(data, (*alias)(e))
}

func (p *PitchingRecord) UnmarshalJSON(data []byte) error {
	type alias PitchingRecord
	return flexUnmarshal(data, (*alias)(p))
}

func (f *FieldingRecord) UnmarshalJSON(data []byte) error {
	type alias FieldingRecord
	return flexUnmarshal(data, (*alias)(f))
}

// UnmarshalJSON accepts string-encoded numbers and normalizes the game type,
// so "公式戦" and "official" land on the same categories.
func (g *GameRecord) UnmarshalJSON(data []byte) error {
	type alias GameRecord
	if err := flexUnmarshal(data, (*alias)(g)); err != nil {
		return err
	}
	g.GameType = ParseGameType(string(g.GameType))
	return nil
}
