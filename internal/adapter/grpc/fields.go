package grpc

import (
	"fmt"
	"math"
	"strconv"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/simaogato/tradesense-backend/internal/domain"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
)

// stringField returns the string value of name, or "" when absent
func stringField(fields map[string]*structpb.Value, name string) string {
	if v, ok := fields[name]; ok {
		return v.GetStringValue()
	}
	return ""
}

func boolField(fields map[string]*structpb.Value, name string) bool {
	if v, ok := fields[name]; ok {
		return v.GetBoolValue()
	}
	return false
}

// uuidField parses a required UUID
func uuidField(fields map[string]*structpb.Value, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(stringField(fields, name))
	if err != nil {
		return uuid.Nil, status.Errorf(codes.InvalidArgument, "invalid %s format: %v", name, err)
	}
	return id, nil
}

// decimalField parses a required amount sent as a decimal string or a number.
// Strings are preferred since they keep every digit.
func decimalField(fields map[string]*structpb.Value, name string) (decimal.Decimal, error) {
	v, ok := fields[name]
	if !ok {
		return decimal.Zero, status.Errorf(codes.InvalidArgument, "%s is required", name)
	}

	switch kind := v.GetKind().(type) {
	case *structpb.Value_StringValue:
		d, err := decimal.NewFromString(kind.StringValue)
		if err != nil {
			return decimal.Zero, status.Errorf(codes.InvalidArgument, "invalid %s format: %v", name, err)
		}
		return d, nil
	case *structpb.Value_NumberValue:
		f := kind.NumberValue
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return decimal.Zero, mapError(fmt.Errorf("%s: %w", name, domain.ErrNonFinite))
		}
		return decimal.NewFromFloat(f), nil
	default:
		return decimal.Zero, status.Errorf(codes.InvalidArgument, "%s must be a string or a number", name)
	}
}

// floatField parses a required number, also accepted as a numeric string.
// NaN and infinities are returned as is for the domain to reject.
func floatField(fields map[string]*structpb.Value, name string) (float64, error) {
	v, ok := fields[name]
	if !ok {
		return 0, status.Errorf(codes.InvalidArgument, "%s is required", name)
	}

	switch kind := v.GetKind().(type) {
	case *structpb.Value_NumberValue:
		return kind.NumberValue, nil
	case *structpb.Value_StringValue:
		f, err := strconv.ParseFloat(kind.StringValue, 64)
		if err != nil {
			return 0, status.Errorf(codes.InvalidArgument, "invalid %s format: %v", name, err)
		}
		return f, nil
	default:
		return 0, status.Errorf(codes.InvalidArgument, "%s must be a number", name)
	}
}

// maxExactInt is the largest integer a JSON number carries exactly
const maxExactInt = 1 << 53

// intField parses an optional integer, returning def when absent
func intField(fields map[string]*structpb.Value, name string, def int) (int, error) {
	v, ok := fields[name]
	if !ok {
		return def, nil
	}

	switch kind := v.GetKind().(type) {
	case *structpb.Value_NumberValue:
		f := kind.NumberValue
		if f != math.Trunc(f) || math.Abs(f) > maxExactInt {
			return 0, status.Errorf(codes.InvalidArgument, "%s must be an integer", name)
		}
		return int(f), nil
	case *structpb.Value_StringValue:
		n, err := strconv.Atoi(kind.StringValue)
		if err != nil {
			return 0, status.Errorf(codes.InvalidArgument, "%s must be an integer", name)
		}
		return n, nil
	default:
		return 0, status.Errorf(codes.InvalidArgument, "%s must be an integer", name)
	}
}

// newStruct builds a response message, mapping conversion failures to Internal
func newStruct(fields map[string]interface{}) (*structpb.Struct, error) {
	out, err := structpb.NewStruct(fields)
	if err != nil {
		return nil, status.Errorf(codes.Internal, "failed to encode response: %v", err)
	}
	return out, nil
}
