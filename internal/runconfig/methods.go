package runconfig

import (
	"fmt"

	"mibisweep/internal/services"
)

// Method identifies one slide background removal method understood by the
// imaging tool. The vocabulary is fixed; anything else is a fatal
// configuration error caught before any process is launched.
type Method string

const (
	MethodEvents     Method = "events"
	MethodAu         Method = "Au"
	MethodTa         Method = "Ta"
	MethodAutoEvents Method = "autoevents"
	MethodAutoAu     Method = "autoAu"
	MethodAutoTa     Method = "autoTa"
)

// Methods lists the full vocabulary in canonical order.
func Methods() []Method {
	return []Method{MethodEvents, MethodAu, MethodTa, MethodAutoEvents, MethodAutoAu, MethodAutoTa}
}

// ParseMethod validates a removal method name. Matching is exact: the tool's
// config keys are case sensitive, so "au" is not a spelling of "Au".
func ParseMethod(name string) (Method, error) {
	for _, m := range Methods() {
		if string(m) == name {
			return m, nil
		}
	}
	return "", services.Wrap(services.ErrConfiguration, "runconfig", "parse method",
		fmt.Sprintf("invalid background removal method %q", name), nil)
}

// ParseMethods validates a list of removal method names.
func ParseMethods(names []string) ([]Method, error) {
	methods := make([]Method, 0, len(names))
	for _, name := range names {
		m, err := ParseMethod(name)
		if err != nil {
			return nil, err
		}
		methods = append(methods, m)
	}
	return methods, nil
}

// channelCode maps a method to the isotope or event code used in the tool's
// config key namespace (gold is mass 197, tantalum is mass 181).
func (m Method) channelCode() string {
	switch m {
	case MethodEvents, MethodAutoEvents:
		return codeEvents
	case MethodAu, MethodAutoAu:
		return codeAu
	case MethodTa, MethodAutoTa:
		return codeTa
	}
	return ""
}

// auto reports whether the method selects automatic threshold estimation.
func (m Method) auto() bool {
	switch m {
	case MethodAutoEvents, MethodAutoAu, MethodAutoTa:
		return true
	}
	return false
}
