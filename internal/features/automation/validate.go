package automation

import (
	"fmt"

	"go-chms/pkg/condition"

	"github.com/robfig/cron/v3"
)

// Validate rejects a config before it can reach storage. fieldTypes is the
// member field catalog; every condition leaf must reference a cataloged field
// with the matching declared type.
func Validate(cfg *AutomationConfig, fieldTypes map[string]condition.FieldType) error {
	if cfg.Name == "" {
		return fmt.Errorf("automation name is required")
	}
	if !cfg.Type.Valid() {
		return fmt.Errorf("unknown automation type %q", cfg.Type)
	}
	if cfg.TemplateID == "" {
		return fmt.Errorf("template_id is required")
	}
	if len(cfg.Channels) == 0 {
		return fmt.Errorf("at least one delivery channel is required")
	}
	for _, ch := range cfg.Channels {
		if !ch.Valid() {
			return fmt.Errorf("unknown channel %q", ch)
		}
	}

	switch cfg.TriggerType {
	case TriggerTimeBased:
		if cfg.Schedule == "" {
			return fmt.Errorf("time-based automations require a schedule")
		}
		if _, err := cron.ParseStandard(cfg.Schedule); err != nil {
			return fmt.Errorf("invalid cron expression %q: %w", cfg.Schedule, err)
		}
		if cfg.TriggerConfig != nil {
			return fmt.Errorf("time-based automations carry no trigger config")
		}

	case TriggerEventBased:
		if cfg.Schedule != "" {
			return fmt.Errorf("event-based automations carry no schedule")
		}
		if cfg.TriggerConfig == nil || cfg.TriggerConfig.Event == nil {
			return fmt.Errorf("event-based automations require an event trigger config")
		}
		if cfg.TriggerConfig.Condition != nil {
			return fmt.Errorf("trigger config variant does not match trigger type")
		}
		ev := cfg.TriggerConfig.Event
		if !ev.EventType.Valid() {
			return fmt.Errorf("unknown event type %q", ev.EventType)
		}
		if ev.DelayMinutes < 0 {
			return fmt.Errorf("delay must not be negative")
		}
		if ev.MaxOccurrences != nil && *ev.MaxOccurrences < 1 {
			return fmt.Errorf("max_occurrences must be at least 1")
		}
		if err := validateConditions(ev.Conditions, fieldTypes); err != nil {
			return err
		}

	case TriggerConditionBased:
		if cfg.Schedule != "" {
			return fmt.Errorf("condition-based automations carry no schedule")
		}
		if cfg.TriggerConfig == nil || cfg.TriggerConfig.Condition == nil {
			return fmt.Errorf("condition-based automations require a condition trigger config")
		}
		if cfg.TriggerConfig.Event != nil {
			return fmt.Errorf("trigger config variant does not match trigger type")
		}
		cc := cfg.TriggerConfig.Condition
		if cc.Conditions == nil {
			return fmt.Errorf("condition-based automations require conditions")
		}
		if _, err := cron.ParseStandard(cc.CheckInterval); err != nil {
			return fmt.Errorf("invalid check interval %q: %w", cc.CheckInterval, err)
		}
		if cc.DelayMinutes < 0 {
			return fmt.Errorf("delay must not be negative")
		}
		if err := validateConditions(cc.Conditions, fieldTypes); err != nil {
			return err
		}

	default:
		return fmt.Errorf("unknown trigger type %q", cfg.TriggerType)
	}

	return nil
}

func validateConditions(g *condition.Group, fieldTypes map[string]condition.FieldType) error {
	if g == nil {
		return nil
	}
	if err := condition.ValidateGroup(g); err != nil {
		return err
	}
	return checkCatalog(g, fieldTypes)
}

func checkCatalog(g *condition.Group, fieldTypes map[string]condition.FieldType) error {
	for i := range g.Conditions {
		node := &g.Conditions[i]
		if node.Group != nil {
			if err := checkCatalog(node.Group, fieldTypes); err != nil {
				return err
			}
			continue
		}
		leaf := node.Leaf
		declared, ok := fieldTypes[leaf.Field]
		if !ok {
			return fmt.Errorf("field %q is not in the field catalog", leaf.Field)
		}
		if declared != leaf.FieldType {
			return fmt.Errorf("field %q is %s, condition declares %s", leaf.Field, declared, leaf.FieldType)
		}
	}
	return nil
}
