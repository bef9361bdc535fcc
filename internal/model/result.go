package model

import (
	"encoding/json"
	"fmt"
)

// Result is the two-case envelope used by the record store: {"ok": value} or {"err": message}.
type Result[T any] struct {
	Value  T
	Err    string
	failed bool
}

// Ok wraps a successful value.
func Ok[T any](v T) Result[T] { return Result[T]{Value: v} }

// Fail wraps a store-provided error message.
func Fail[T any](msg string) Result[T] { return Result[T]{Err: msg, failed: true} }

// Failed reports whether the envelope carries an error.
func (r Result[T]) Failed() bool { return r.failed }

func (r Result[T]) MarshalJSON() ([]byte, error) {
	if r.failed {
		return json.Marshal(map[string]string{"err": r.Err})
	}
	return json.Marshal(map[string]T{"ok": r.Value})
}

func (r *Result[T]) UnmarshalJSON(data []byte) error {
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(data, &obj); err != nil {
		return fmt.Errorf("decode result: %w", err)
	}
	if msg, ok := obj["err"]; ok {
		var s string
		if err := json.Unmarshal(msg, &s); err != nil {
			return fmt.Errorf("decode result err: %w", err)
		}
		*r = Fail[T](s)
		return nil
	}
	payload, ok := obj["ok"]
	if !ok {
		return fmt.Errorf("decode result: neither ok nor err present")
	}
	var v T
	if err := json.Unmarshal(payload, &v); err != nil {
		return fmt.Errorf("decode result ok: %w", err)
	}
	*r = Ok(v)
	return nil
}

// Unit is the empty success value of edit and delete.
type Unit struct{}

func (Unit) MarshalJSON() ([]byte, error) { return []byte("null"), nil }

func (*Unit) UnmarshalJSON([]byte) error { return nil }
