package core

import (
	"errors"
	"fmt"
	"net/url"
	"reflect"
	"strings"

	"github.com/spf13/cast"

	"examhub/dispatch/core/domain/service"
)

// ErrMissingPathParameter matches any *MissingPathParameterError via errors.Is.
var ErrMissingPathParameter = errors.New("missing path parameters")

// MissingPathParameterError lists every '{name}' token of a template that
// had no value. It signals a bug at the call site, not a runtime condition.
type MissingPathParameterError struct {
	Template string
	Missing  []string
}

func (e *MissingPathParameterError) Error() string {
	return fmt.Sprintf("missing path parameters for %s: %s", e.Template, strings.Join(e.Missing, ", "))
}

// Is makes errors.Is(err, ErrMissingPathParameter) true.
func (e *MissingPathParameterError) Is(target error) bool {
	return target == ErrMissingPathParameter
}

// BuildURL joins the service base address with path and appends the encoded
// query, if any. A query already present on path is kept.
func BuildURL(svc *service.Descriptor, path string, query map[string]any) string {
	return appendQuery(svc.URLFor(path), query)
}

// SubstitutePathParams replaces each '{name}' token of template with the
// string form of params[name]. All missing names are reported together;
// a nil value counts as missing.
func SubstitutePathParams(template string, params map[string]any) (string, error) {
	var missing []string
	seen := make(map[string]bool)
	for _, name := range ParamNames(template) {
		if seen[name] {
			continue
		}
		seen[name] = true
		if v, ok := params[name]; !ok || v == nil {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return "", &MissingPathParameterError{Template: template, Missing: missing}
	}

	path := paramToken.ReplaceAllStringFunc(template, func(token string) string {
		name := token[1 : len(token)-1]
		return url.PathEscape(stringify(params[name]))
	})
	return path, nil
}

// EncodeQuery encodes query parameters with keys sorted. Nil values are
// skipped and slices become repeated keys.
func EncodeQuery(query map[string]any) string {
	values := url.Values{}
	for key, v := range query {
		if v == nil {
			continue
		}
		rv := reflect.ValueOf(v)
		if (rv.Kind() == reflect.Slice || rv.Kind() == reflect.Array) && rv.Type().Elem().Kind() != reflect.Uint8 {
			for i := 0; i < rv.Len(); i++ {
				values.Add(key, stringify(rv.Index(i).Interface()))
			}
			continue
		}
		values.Add(key, stringify(v))
	}
	return values.Encode()
}

func appendQuery(rawURL string, query map[string]any) string {
	encoded := EncodeQuery(query)
	if encoded == "" {
		return rawURL
	}
	if strings.Contains(rawURL, "?") {
		return rawURL + "&" + encoded
	}
	return rawURL + "?" + encoded
}

func stringify(v any) string {
	s, err := cast.ToStringE(v)
	if err != nil {
		return fmt.Sprint(v)
	}
	return s
}
