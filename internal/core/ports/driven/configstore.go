package driven

// ConfigStore persists user settings under dotted keys such as "llm.provider".
// Values keep their decoded type (string, int64, float64 or bool); callers
// coerce them.
type ConfigStore interface {
	Get(key string) (any, bool)

	// Set stores value and persists it before returning.
	Set(key string, value any) error
}
