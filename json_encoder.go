package eventstore

import (
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
)

// ErrEventNotRegistered is returned by Decode for a type name the encoder
// was not constructed with (and there is no fallback)
var ErrEventNotRegistered = errors.New("event not registered")

// NewJSONEncoder constructs json encoder for the provided event types
func NewJSONEncoder(evts ...any) *JSONEncoder {
	enc := JSONEncoder{
		types: make(map[string]reflect.Type),
	}

	for _, evt := range evts {
		t := reflect.TypeOf(evt)
		enc.types[t.Name()] = t
	}

	return &enc
}

// JSONEncoder provides default json Encoder implementation
// It will marshal and unmarshal events to/from json and store the type name
type JSONEncoder struct {
	types    map[string]reflect.Type
	fallback func(*EncodedEvt) (any, error)
}

// WithFallback makes Decode hand unregistered types to fn instead of
// failing with ErrEventNotRegistered
func (e *JSONEncoder) WithFallback(fn func(*EncodedEvt) (any, error)) *JSONEncoder {
	e.fallback = fn

	return e
}

// Encode marshals incoming event to it's json representation
func (e *JSONEncoder) Encode(evt any) (*EncodedEvt, error) {
	if evt == nil {
		return nil, fmt.Errorf("cannot encode nil event")
	}

	data, err := json.Marshal(evt)
	if err != nil {
		return nil, err
	}

	t := reflect.TypeOf(evt)

	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}

	return &EncodedEvt{
		Type: t.Name(),
		Data: string(data),
	}, nil
}

// Decode unmarshals incoming event to it's corresponding go type
func (e *JSONEncoder) Decode(evt *EncodedEvt) (any, error) {
	t, ok := e.types[evt.Type]
	if !ok {
		if e.fallback != nil {
			return e.fallback(evt)
		}

		return nil, fmt.Errorf("%w: %s", ErrEventNotRegistered, evt.Type)
	}

	v := reflect.New(t)

	err := json.Unmarshal([]byte(evt.Data), v.Interface())
	if err != nil {
		return nil, err
	}

	return v.Elem().Interface(), nil
}
