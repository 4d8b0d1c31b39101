package domain

// Task statuses drive which board column a task is rendered in.
const (
	StatusTodo       = "todo"
	StatusInProgress = "inprogress"
	StatusDone       = "done"
)

const (
	PriorityLow    = "Low"
	PriorityMedium = "Medium"
	PriorityHigh   = "High"
)

const (
	CategoryBug         = "Bug"
	CategoryFeature     = "Feature"
	CategoryEnhancement = "Enhancement"
)

var (
	ValidStatuses   = []string{StatusTodo, StatusInProgress, StatusDone}
	ValidPriorities = []string{PriorityLow, PriorityMedium, PriorityHigh}
	ValidCategories = []string{CategoryBug, CategoryFeature, CategoryEnhancement}
)

// AllowedTaskFields are the only keys a mutation payload may touch on a
// stored task. Anything else is silently ignored.
var AllowedTaskFields = []string{"title", "description", "status", "priority", "category", "attachments"}

// Attachment is an opaque image record. URL carries a self-contained data
// URL, not a network reference.
type Attachment struct {
	Name string `json:"name"`
	URL  string `json:"url"`
}

// Task represents a single board item.
type Task struct {
	ID          string       `json:"id"`
	Title       string       `json:"title"`
	Description string       `json:"description"`
	Status      string       `json:"status"`
	Priority    string       `json:"priority"`
	Category    string       `json:"category"`
	Attachments []Attachment `json:"attachments"`
}

func contains(allowed []string, v string) bool {
	for _, a := range allowed {
		if a == v {
			return true
		}
	}
	return false
}

// truthy mirrors the loose presence checks of the original wire protocol:
// null, false, zero and the empty string do not count as a supplied value.
func truthy(v any) bool {
	switch t := v.(type) {
	case nil:
		return false
	case string:
		return t != ""
	case bool:
		return t
	case float64:
		return t != 0
	default:
		return true
	}
}

// validateShape checks a mutation payload against the task schema and
// returns a human-readable message for the first violation, or "".
// Create requires a title; update excuses only an absent title, a present
// but invalid one is still rejected with the same message.
func validateShape(payload map[string]any, requireTitle bool) string {
	if payload == nil {
		return "Invalid payload"
	}
	if v, present := payload["title"]; present {
		if s, ok := v.(string); !ok || s == "" {
			return "Missing or invalid 'title'"
		}
	} else if requireTitle {
		return "Missing or invalid 'title'"
	}
	if v, ok := payload["status"]; ok && truthy(v) {
		if s, isStr := v.(string); !isStr || !contains(ValidStatuses, s) {
			return "Invalid 'status'"
		}
	}
	if v, ok := payload["priority"]; ok && truthy(v) {
		if s, isStr := v.(string); !isStr || !contains(ValidPriorities, s) {
			return "Invalid 'priority'"
		}
	}
	if v, ok := payload["category"]; ok && truthy(v) {
		if s, isStr := v.(string); !isStr || !contains(ValidCategories, s) {
			return "Invalid 'category'"
		}
	}
	if v, ok := payload["attachments"]; ok && truthy(v) {
		if _, isList := v.([]any); !isList {
			return "Invalid 'attachments'"
		}
	}
	return ""
}

// ApplyFields merges the allowed keys present in payload into t. Values
// whose type does not match the target field are ignored.
func ApplyFields(t *Task, payload map[string]any, allowed []string) {
	for _, key := range allowed {
		v, ok := payload[key]
		if !ok {
			continue
		}
		switch key {
		case "title":
			if s, ok := v.(string); ok {
				t.Title = s
			}
		case "description":
			if s, ok := v.(string); ok {
				t.Description = s
			}
		case "status":
			if s, ok := v.(string); ok {
				t.Status = s
			}
		case "priority":
			if s, ok := v.(string); ok {
				t.Priority = s
			}
		case "category":
			if s, ok := v.(string); ok {
				t.Category = s
			}
		case "attachments":
			if atts, ok := attachmentsFromAny(v); ok {
				t.Attachments = atts
			}
		}
	}
}

func attachmentsFromAny(v any) ([]Attachment, bool) {
	items, ok := v.([]any)
	if !ok {
		return nil, false
	}
	atts := make([]Attachment, 0, len(items))
	for _, item := range items {
		m, ok := item.(map[string]any)
		if !ok {
			continue
		}
		var a Attachment
		if s, ok := m["name"].(string); ok {
			a.Name = s
		}
		if s, ok := m["url"].(string); ok {
			a.URL = s
		}
		atts = append(atts, a)
	}
	return atts, true
}

func stringOr(payload map[string]any, key, fallback string) string {
	if s, ok := payload[key].(string); ok {
		return s
	}
	return fallback
}

func enumOr(payload map[string]any, key string, allowed []string, fallback string) string {
	if s, ok := payload[key].(string); ok && contains(allowed, s) {
		return s
	}
	return fallback
}
