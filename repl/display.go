package repl

import (
	"fmt"
	"sort"
	"strings"

	"github.com/funvibe/funbit/pkg/funbit"
)

// FormatBytes renders encoded data as space-separated hex octets.
func FormatBytes(data []byte) string {
	if len(data) == 0 {
		return "(empty)"
	}
	parts := make([]string, len(data))
	for i, b := range data {
		parts[i] = fmt.Sprintf("%02x", b)
	}
	return strings.Join(parts, " ")
}

// FormatBitstring renders encoded data in Erlang-style <<...>> notation
// with the total bit length appended.
func FormatBitstring(data []byte) string {
	bs := funbit.NewBitStringFromBytes(data)
	if bs == nil || bs.Length() == 0 {
		return "<<>> (0 bits)"
	}
	bytes := bs.ToBytes()
	parts := make([]string, len(bytes))
	for i, b := range bytes {
		parts[i] = fmt.Sprintf("%d", b)
	}
	return fmt.Sprintf("<<%s>> (%d bits)", strings.Join(parts, ","), bs.Length())
}

// FormatValue renders a decoded value tree for display. Maps are printed
// with sorted keys so the output is stable.
func FormatValue(value interface{}) string {
	switch v := value.(type) {
	case nil:
		return "nil"
	case string:
		return fmt.Sprintf("%q", v)
	case []byte:
		return fmt.Sprintf("bin(%s)", FormatBytes(v))
	case []interface{}:
		parts := make([]string, len(v))
		for i, elem := range v {
			parts[i] = FormatValue(elem)
		}
		return "[" + strings.Join(parts, ", ") + "]"
	case map[string]interface{}:
		keys := make([]string, 0, len(v))
		for k := range v {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		parts := make([]string, 0, len(keys))
		for _, k := range keys {
			parts = append(parts, fmt.Sprintf("%q: %s", k, FormatValue(v[k])))
		}
		return "{" + strings.Join(parts, ", ") + "}"
	case float64:
		return fmt.Sprintf("%g", v)
	default:
		return fmt.Sprintf("%v", v)
	}
}
