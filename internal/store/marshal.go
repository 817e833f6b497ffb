package store

import (
	"encoding/json"
	"fmt"

	"github.com/roach88/mealy/internal/ir"
	"github.com/roach88/mealy/internal/model"
)

// marshalPath converts actions to a JSON array of canonical action objects.
func marshalPath(path []model.Action) (string, error) {
	arr := make(ir.IRArray, len(path))
	for i, a := range path {
		arr[i] = a.Canonical()
	}
	data, err := ir.MarshalCanonical(arr)
	if err != nil {
		return "", fmt.Errorf("marshal path: %w", err)
	}
	return string(data), nil
}

// unmarshalPath parses a stored path. Actions stay in IR form until a
// model decodes them.
func unmarshalPath(data string) ([]ir.IRObject, error) {
	var arr ir.IRArray
	if err := json.Unmarshal([]byte(data), &arr); err != nil {
		return nil, fmt.Errorf("unmarshal path: %w", err)
	}
	out := make([]ir.IRObject, len(arr))
	for i, v := range arr {
		obj, ok := v.(ir.IRObject)
		if !ok {
			return nil, fmt.Errorf("unmarshal path: step %d is not an object", i+1)
		}
		out[i] = obj
	}
	return out, nil
}

func marshalStrings(v []string) (string, error) {
	if v == nil {
		v = []string{}
	}
	data, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("marshal strings: %w", err)
	}
	return string(data), nil
}

func unmarshalStrings(data string) ([]string, error) {
	var v []string
	if err := json.Unmarshal([]byte(data), &v); err != nil {
		return nil, fmt.Errorf("unmarshal strings: %w", err)
	}
	return v, nil
}

func marshalProperties(props []PropertyRecord) (string, error) {
	if props == nil {
		props = []PropertyRecord{}
	}
	data, err := json.Marshal(props)
	if err != nil {
		return "", fmt.Errorf("marshal properties: %w", err)
	}
	return string(data), nil
}

func unmarshalProperties(data string) ([]PropertyRecord, error) {
	var props []PropertyRecord
	if err := json.Unmarshal([]byte(data), &props); err != nil {
		return nil, fmt.Errorf("unmarshal properties: %w", err)
	}
	return props, nil
}
