// Package scenario defines interaction scripts and synthesizes them from an
// analysis: a base journey, an optional auth flow, one CRUD walk per model
// and a navigation sanity pass.
package scenario

import (
	"errors"
	"fmt"
	"strings"

	"github.com/v0xg/appscout/internal/model"
)

// Action is a single step verb understood by the executor.
type Action string

const (
	ActionGoto           Action = "goto"
	ActionClick          Action = "click"
	ActionFill           Action = "fill"
	ActionWait           Action = "wait"
	ActionScreenshot     Action = "screenshot"
	ActionCheckNoErrors  Action = "checkNoErrors"
	ActionTestNavigation Action = "testNavigation"
)

// Type classifies a scenario.
type Type string

const (
	TypeJourney Type = "user-journey"
	TypeAuth    Type = "auth"
	TypeCRUD    Type = "crud"
)

// Step is one action with its action-specific arguments. Timeout is in
// milliseconds; for wait it is the pause itself.
type Step struct {
	Action   Action `json:"action"`
	Selector string `json:"selector,omitempty"`
	Value    string `json:"value,omitempty"`
	Timeout  int    `json:"timeout,omitempty"`
	Expected string `json:"expected,omitempty"`
}

// Scenario is an ordered, independently pass/fail-able script.
type Scenario struct {
	Name  string `json:"name"`
	Type  Type   `json:"type"`
	Steps []Step `json:"steps"`
}

// ErrInvalidStep reports a step missing an argument its action needs.
var ErrInvalidStep = errors.New("invalid step")

// Validate checks that the step carries what its action requires.
func (s Step) Validate() error {
	switch s.Action {
	case ActionGoto:
		if s.Value == "" {
			return fmt.Errorf("%w: goto needs a value", ErrInvalidStep)
		}
	case ActionClick:
		if s.Selector == "" {
			return fmt.Errorf("%w: click needs a selector", ErrInvalidStep)
		}
	case ActionFill:
		if s.Selector == "" {
			return fmt.Errorf("%w: fill needs a selector", ErrInvalidStep)
		}
	case ActionWait:
		if s.Timeout < 0 {
			return fmt.Errorf("%w: negative wait", ErrInvalidStep)
		}
	case ActionScreenshot, ActionCheckNoErrors, ActionTestNavigation:
	default:
		return fmt.Errorf("%w: unknown action %q", ErrInvalidStep, s.Action)
	}
	return nil
}

// Validate checks every step of the scenario.
func (s Scenario) Validate() error {
	if strings.TrimSpace(s.Name) == "" {
		return fmt.Errorf("%w: scenario without a name", ErrInvalidStep)
	}
	for i, st := range s.Steps {
		if err := st.Validate(); err != nil {
			return fmt.Errorf("scenario %q step %d: %w", s.Name, i+1, err)
		}
	}
	return nil
}

// Selectors used by the synthesized scenarios.
const (
	LoginLinkSelector  = `a[href*="login"], a[href*="signin"], [data-testid*="login"]`
	EmailInputSelector = `input[type="email"], input[name="email"]`
	PasswordSelector   = `input[type="password"]`
	SubmitSelector     = `button[type="submit"], input[type="submit"]`
	CreateSelector     = `a[href*="new"], a[href*="create"], button[data-testid*="create"], [data-action="create"]`
)

// Synthetic credentials for the auth scenario.
const (
	TestEmail    = "test@example.com"
	TestPassword = "password123"
)

const (
	settleMillis = 2000
	actionMillis = 1000
)

var sampleValues = map[model.FieldType]string{
	model.TypeString:  "Test Value",
	model.TypeNumber:  "123",
	model.TypeEmail:   "test@example.com",
	model.TypeDate:    "2024-01-01",
	model.TypeBoolean: "true",
	model.TypeURL:     "https://example.com",
}

// SampleValue is the synthetic input typed into a control for t.
func SampleValue(t model.FieldType) string {
	if v, ok := sampleValues[t]; ok {
		return v
	}
	return "Test Value"
}

// FieldSelector targets the form control bound to a field name.
func FieldSelector(field string) string {
	return fmt.Sprintf(`input[name="%[1]s"], textarea[name="%[1]s"], select[name="%[1]s"]`, field)
}

// Synthesize builds the scenario list. The output depends only on its
// inputs, in order.
func Synthesize(models []model.DataModel, features []model.AppFeature) []Scenario {
	out := []Scenario{journey()}

	for _, f := range features {
		if f.Type == model.FeatureAuth {
			out = append(out, auth())
			break
		}
	}
	for _, m := range models {
		out = append(out, crud(m))
	}
	return append(out, navigation())
}

func journey() Scenario {
	return Scenario{
		Name: "Full user journey",
		Type: TypeJourney,
		Steps: []Step{
			{Action: ActionGoto, Value: "/"},
			{Action: ActionWait, Timeout: settleMillis},
			{Action: ActionScreenshot, Value: "homepage"},
			{Action: ActionCheckNoErrors},
		},
	}
}

func auth() Scenario {
	return Scenario{
		Name: "Authentication flow",
		Type: TypeAuth,
		Steps: []Step{
			{Action: ActionGoto, Value: "/"},
			{Action: ActionClick, Selector: LoginLinkSelector},
			{Action: ActionFill, Selector: EmailInputSelector, Value: TestEmail},
			{Action: ActionFill, Selector: PasswordSelector, Value: TestPassword},
			{Action: ActionClick, Selector: SubmitSelector},
			{Action: ActionWait, Timeout: settleMillis},
			{Action: ActionCheckNoErrors},
		},
	}
}

func crud(m model.DataModel) Scenario {
	lower := strings.ToLower(m.Name)
	steps := []Step{
		{Action: ActionGoto, Value: "/"},
		{Action: ActionClick, Selector: fmt.Sprintf(`a[href*="%s"]`, lower)},
		{Action: ActionWait, Timeout: actionMillis},
		{Action: ActionCheckNoErrors},
		{Action: ActionClick, Selector: CreateSelector},
	}
	for _, f := range m.Fields {
		steps = append(steps, Step{
			Action:   ActionFill,
			Selector: FieldSelector(f.Name),
			Value:    SampleValue(f.Type),
		})
	}
	steps = append(steps,
		Step{Action: ActionClick, Selector: SubmitSelector},
		Step{Action: ActionWait, Timeout: actionMillis},
		Step{Action: ActionCheckNoErrors},
	)
	return Scenario{Name: m.Name + " CRUD operations", Type: TypeCRUD, Steps: steps}
}

func navigation() Scenario {
	return Scenario{
		Name: "Navigation sanity",
		Type: TypeJourney,
		Steps: []Step{
			{Action: ActionGoto, Value: "/"},
			{Action: ActionTestNavigation},
		},
	}
}
