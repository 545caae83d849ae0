package prevalence

import (
	"encoding/json"
	"strconv"
)

// countKeys are the object fields that may carry a device count, in lookup order.
var countKeys = []string{"device_count", "count", "total", "devices_count"}

// ExtractDeviceCount reads a device count from a count query's resources.
// Resources may be a list or a single object; the first element may be a
// bare number or an object carrying one of the count keys. Anything else
// counts as zero.
func ExtractDeviceCount(resources json.RawMessage) int {
	if len(resources) == 0 {
		return 0
	}

	var first json.RawMessage
	var list []json.RawMessage
	if err := json.Unmarshal(resources, &list); err == nil {
		if len(list) == 0 {
			return 0
		}
		first = list[0]
	} else {
		first = resources
	}

	var n json.Number
	if err := json.Unmarshal(first, &n); err == nil {
		return numberToInt(n)
	}

	var obj map[string]json.RawMessage
	if err := json.Unmarshal(first, &obj); err != nil {
		return 0
	}
	for _, key := range countKeys {
		raw, ok := obj[key]
		if !ok {
			continue
		}
		var v json.Number
		if err := json.Unmarshal(raw, &v); err == nil {
			return numberToInt(v)
		}
		var s string
		if err := json.Unmarshal(raw, &s); err == nil {
			if i, err := strconv.Atoi(s); err == nil {
				return i
			}
		}
		return 0
	}
	return 0
}

func numberToInt(n json.Number) int {
	if i, err := n.Int64(); err == nil {
		return int(i)
	}
	if f, err := n.Float64(); err == nil {
		return int(f)
	}
	return 0
}
