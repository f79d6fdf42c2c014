package supervisor

import (
	"errors"

	"github.com/cmeth990/kgctl/pkg/validation"
)

// cloneWorkingNotes returns a shallow copy so node functions never mutate
// the caller's state.WorkingNotes map in place (AgentState is passed by
// value, but its maps are still shared references).
func cloneWorkingNotes(notes map[string]interface{}) map[string]interface{} {
	out := make(map[string]interface{}, len(notes)+1)
	for k, v := range notes {
		out[k] = v
	}
	return out
}

func extractorOutputFrom(notes map[string]interface{}) (validation.ExtractorOutput, error) {
	out, ok := notes["extractor_output"].(validation.ExtractorOutput)
	if !ok {
		return validation.ExtractorOutput{}, errors.New("supervisor: no extractor output in working_notes")
	}
	return out, nil
}

func linkerOutputFrom(notes map[string]interface{}) (validation.LinkerOutput, error) {
	out, ok := notes["linker_output"].(validation.LinkerOutput)
	if !ok {
		return validation.LinkerOutput{}, errors.New("supervisor: no linker output in working_notes")
	}
	return out, nil
}
