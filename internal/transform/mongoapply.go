package transform

import (
	"strconv"
	"strings"

	"github.com/brinkdb/snapctl/internal/column"
	"go.mongodb.org/mongo-driver/bson"
)

// MongoSet resolves transformers by dotted document path, supporting a
// wildcard array segment "$[]" that applies to every element of an array.
// The wildcard is matched only as the last segment ("tags.$[]"); a path
// that continues after it ("tags.$[].name") matches nothing.
// A transformer set computes its wildcard keys once up front; recursion
// through a document uses that set to decide whether to treat an array slot
// as the wildcard path or the positional path, matching spec §4.4.
type MongoSet struct {
	byPath    map[string]Transformer
	wildcards map[string]Transformer
}

// NewMongoSet indexes transformers by their ColumnName() interpreted as a
// dotted document path (e.g. "profile.email" or "tags.$[]").
func NewMongoSet(transformers ...Transformer) *MongoSet {
	m := &MongoSet{byPath: map[string]Transformer{}, wildcards: map[string]Transformer{}}
	for _, t := range transformers {
		path := t.ColumnName()
		if strings.Contains(path, "$[]") {
			m.wildcards[path] = t
		} else {
			m.byPath[path] = t
		}
	}
	return m
}

// ApplyDocument walks doc and applies every registered transformer whose
// path matches, returning a new document. ObjectId, DateTime, Timestamp,
// and Binary values are preserved untouched, regardless of any matching
// transformer, since they carry no transformer-addressable column kind.
func (m *MongoSet) ApplyDocument(doc bson.D) bson.D {
	return m.walk(doc, "")
}

func (m *MongoSet) walk(doc bson.D, prefix string) bson.D {
	out := make(bson.D, 0, len(doc))
	for _, elem := range doc {
		path := elem.Key
		if prefix != "" {
			path = prefix + "." + elem.Key
		}
		out = append(out, bson.E{Key: elem.Key, Value: m.walkValue(elem.Value, path)})
	}
	return out
}

func (m *MongoSet) walkValue(value interface{}, path string) interface{} {
	if a, ok := value.(bson.A); ok {
		value = []interface{}(a)
	}
	switch v := value.(type) {
	case bson.D:
		return m.walk(v, path)
	case []interface{}:
		wildcardPath := path + ".$[]"
		if t, ok := m.wildcards[wildcardPath]; ok {
			out := make([]interface{}, len(v))
			for i, elem := range v {
				out[i] = m.transformScalar(t, elem)
			}
			return out
		}
		out := make([]interface{}, len(v))
		for i, elem := range v {
			out[i] = m.walkValue(elem, path+"."+strconv.Itoa(i))
		}
		return out
	default:
		if t, ok := m.byPath[path]; ok {
			return m.transformScalar(t, value)
		}
		return value
	}
}

// transformScalar converts a raw BSON leaf value to the column.Column
// variant the transformer interface expects, runs the transformer, and
// converts back. Non-transformable BSON types (ObjectId, DateTime,
// Timestamp, Binary, ...) pass through untouched.
func (m *MongoSet) transformScalar(t Transformer, value interface{}) interface{} {
	switch v := value.(type) {
	case string:
		out := t.Transform(column.String("", v))
		if out.Kind == column.StringValue {
			return out.Str
		}
		return v
	case int32:
		out := t.Transform(column.Number("", int64(v)))
		if out.Kind == column.NumberValue {
			return int32(out.Int)
		}
		return v
	case int64:
		out := t.Transform(column.Number("", v))
		if out.Kind == column.NumberValue {
			return out.Int
		}
		return v
	case float64:
		out := t.Transform(column.Float("", v))
		if out.Kind == column.FloatNumberValue {
			return out.Float
		}
		return v
	case nil:
		out := t.Transform(column.None(""))
		_ = out
		return nil
	default:
		// ObjectId, primitive.DateTime, primitive.Timestamp, primitive.Binary, etc.
		return value
	}
}
