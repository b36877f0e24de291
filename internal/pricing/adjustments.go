package pricing

import (
	"fmt"

	"github.com/reclaimtech/buyback-backend/pkg/enums"
	pkgerrors "github.com/reclaimtech/buyback-backend/pkg/errors"
	"github.com/reclaimtech/buyback-backend/pkg/types"
)

// BuildAdjustments resolves questionnaire inputs against the product's
// pricing configuration into the fixed evaluation order: questions, then
// defects, then accessories. Within each category the configuration order
// wins, so the result is deterministic for a given config and input set.
func BuildAdjustments(cfg types.PricingConfig, answers types.JSONMap, defects, accessories []string) ([]Adjustment, error) {
	adjustments := make([]Adjustment, 0, len(cfg.Questions)+len(defects)+len(accessories))

	for _, question := range cfg.Questions {
		rawAnswer, answered := answers[question.Key]
		if !answered {
			if question.Required {
				return nil, pkgerrors.New(pkgerrors.CodeValidation,
					fmt.Sprintf("answer required for question %q", question.Key))
			}
			continue
		}
		answer, ok := rawAnswer.(string)
		if !ok {
			return nil, pkgerrors.New(pkgerrors.CodeValidation,
				fmt.Sprintf("answer for question %q must be an option key", question.Key))
		}
		option, found := findOption(question.Options, answer)
		if !found {
			return nil, pkgerrors.New(pkgerrors.CodeValidation,
				fmt.Sprintf("unknown option %q for question %q", answer, question.Key))
		}
		adjustments = append(adjustments, Adjustment{
			Label: option.Label,
			Kind:  enums.BreakdownKindQuestion,
			Delta: option.Delta,
		})
	}

	defectSet, err := keySet(defects, defectKeys(cfg.Defects), "defect")
	if err != nil {
		return nil, err
	}
	for _, defect := range cfg.Defects {
		if _, selected := defectSet[defect.Key]; !selected {
			continue
		}
		adjustments = append(adjustments, Adjustment{
			Label: defect.Label,
			Kind:  enums.BreakdownKindDefect,
			Delta: defect.Delta,
		})
	}

	accessorySet, err := keySet(accessories, accessoryKeys(cfg.Accessories), "accessory")
	if err != nil {
		return nil, err
	}
	for _, accessory := range cfg.Accessories {
		if _, selected := accessorySet[accessory.Key]; !selected {
			continue
		}
		adjustments = append(adjustments, Adjustment{
			Label: accessory.Label,
			Kind:  enums.BreakdownKindAccessory,
			Delta: accessory.Delta,
		})
	}

	return adjustments, nil
}

func findOption(options []types.QuestionOption, key string) (types.QuestionOption, bool) {
	for _, option := range options {
		if option.Key == key {
			return option, true
		}
	}
	return types.QuestionOption{}, false
}

func defectKeys(defects []types.DefectOption) map[string]struct{} {
	known := make(map[string]struct{}, len(defects))
	for _, defect := range defects {
		known[defect.Key] = struct{}{}
	}
	return known
}

func accessoryKeys(accessories []types.AccessoryOption) map[string]struct{} {
	known := make(map[string]struct{}, len(accessories))
	for _, accessory := range accessories {
		known[accessory.Key] = struct{}{}
	}
	return known
}

// keySet validates the selected keys against the configured set and returns
// them deduplicated.
func keySet(selected []string, known map[string]struct{}, kind string) (map[string]struct{}, error) {
	result := make(map[string]struct{}, len(selected))
	for _, key := range selected {
		if _, ok := known[key]; !ok {
			return nil, pkgerrors.New(pkgerrors.CodeValidation,
				fmt.Sprintf("unknown %s key %q", kind, key))
		}
		result[key] = struct{}{}
	}
	return result, nil
}
