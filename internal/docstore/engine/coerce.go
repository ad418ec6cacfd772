package engine

import (
	"fmt"
	"reflect"
	"time"

	"github.com/spf13/cast"

	"github.com/ChangJoo-Park/json-api/internal/docstore"
)

// coerce converts v to the declared type of f and applies its setter.
func coerce(f *docstore.Field, v interface{}) (interface{}, error) {
	if v == nil {
		return nil, nil
	}

	var out interface{}
	if f.Array {
		items, err := toList(v)
		if err != nil {
			return nil, fmt.Errorf("%w: %s expects a list: %v", docstore.ErrCast, f.Path, err)
		}
		list := make([]interface{}, len(items))
		for i, item := range items {
			c, err := coerceScalar(f.Type, item)
			if err != nil {
				return nil, fmt.Errorf("%w: %s[%d]: %v", docstore.ErrCast, f.Path, i, err)
			}
			list[i] = c
		}
		out = list
	} else {
		c, err := coerceScalar(f.Type, v)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %v", docstore.ErrCast, f.Path, err)
		}
		out = c
	}

	if f.Set != nil {
		out = f.Set(out)
	}
	return out, nil
}

// coerceElement converts one list element of f.
func coerceElement(f *docstore.Field, v interface{}) (interface{}, error) {
	c, err := coerceScalar(f.Type, v)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", docstore.ErrCast, f.Path, err)
	}
	return c, nil
}

func coerceScalar(t docstore.BaseType, v interface{}) (interface{}, error) {
	if v == nil {
		return nil, nil
	}

	switch t {
	case docstore.TypeString:
		return cast.ToStringE(v)
	case docstore.TypeNumber:
		return cast.ToFloat64E(v)
	case docstore.TypeBoolean:
		return cast.ToBoolE(v)
	case docstore.TypeDate:
		tm, err := cast.ToTimeE(v)
		if err != nil {
			return nil, err
		}
		return tm.UTC(), nil
	case docstore.TypeObjectID:
		// A populated document stands for its id.
		if m, ok := v.(map[string]interface{}); ok {
			v = m[docstore.IDKey]
		}
		return cast.ToStringE(v)
	default:
		return v, nil
	}
}

func toList(v interface{}) ([]interface{}, error) {
	if list, ok := v.([]interface{}); ok {
		return list, nil
	}

	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return nil, fmt.Errorf("unable to cast %#v of type %T to a list", v, v)
	}
	list := make([]interface{}, rv.Len())
	for i := range list {
		list[i] = rv.Index(i).Interface()
	}
	return list, nil
}

func toVersion(v interface{}) int {
	n, err := cast.ToIntE(v)
	if err != nil {
		return 0
	}
	return n
}

// compareValues orders two stored values. Values of different kinds are
// ordered by kind: nil, numbers, strings, booleans, times, everything else.
func compareValues(a, b interface{}) int {
	ra, rb := kindRank(a), kindRank(b)
	if ra != rb {
		return ra - rb
	}

	switch av := a.(type) {
	case nil:
		return 0
	case float64:
		bv := b.(float64)
		switch {
		case av < bv:
			return -1
		case av > bv:
			return 1
		}
		return 0
	case string:
		bv := b.(string)
		switch {
		case av < bv:
			return -1
		case av > bv:
			return 1
		}
		return 0
	case bool:
		bv := b.(bool)
		switch {
		case av == bv:
			return 0
		case !av:
			return -1
		}
		return 1
	case time.Time:
		return av.Compare(b.(time.Time))
	default:
		as, bs := fmt.Sprint(a), fmt.Sprint(b)
		switch {
		case as < bs:
			return -1
		case as > bs:
			return 1
		}
		return 0
	}
}

func kindRank(v interface{}) int {
	switch v.(type) {
	case nil:
		return 0
	case float64:
		return 1
	case string:
		return 2
	case bool:
		return 3
	case time.Time:
		return 4
	default:
		return 5
	}
}

func valuesEqual(a, b interface{}) bool {
	if kindRank(a) == 5 || kindRank(b) == 5 {
		return reflect.DeepEqual(a, b)
	}
	return compareValues(a, b) == 0
}
