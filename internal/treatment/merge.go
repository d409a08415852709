package treatment

// The merge helpers implement the partial-update convention shared by every
// Update* convenience method: fetch the existing entity, overlay only the
// fields the patch supplies, persist the merged copy. The merge never mutates
// its input.

func mergeTreatment(existing Treatment, req UpdateTreatmentRequest) Treatment {
	merged := existing
	if req.PatientID != nil {
		merged.PatientID = *req.PatientID
	}
	if req.EyeCondition != nil {
		merged.EyeCondition = *req.EyeCondition
	}
	if req.Name != nil {
		merged.Name = *req.Name
	}
	if req.Description != nil {
		merged.Description = *req.Description
	}
	return merged
}

func mergeBlock(existing TreatmentBlock, req UpdateTreatmentBlockRequest) TreatmentBlock {
	merged := existing
	if req.TreatmentID != nil {
		merged.TreatmentID = *req.TreatmentID
	}
	if req.BeginningDate != nil {
		merged.BeginningDate = *req.BeginningDate
	}
	if req.DurationDays != nil {
		merged.DurationDays = *req.DurationDays
	}
	if req.Iterations != nil {
		merged.Iterations = *req.Iterations
	}
	return merged
}

func mergeActivity(existing TherapeuticActivity, req UpdateActivityRequest) TherapeuticActivity {
	merged := existing
	if req.TreatmentBlockID != nil {
		merged.TreatmentBlockID = *req.TreatmentBlockID
	}
	if req.Name != nil {
		merged.Name = *req.Name
	}
	if req.Description != nil {
		merged.Description = *req.Description
	}
	if req.DayOfBlock != nil {
		merged.DayOfBlock = *req.DayOfBlock
	}
	if req.BeginningHour != nil {
		merged.BeginningHour = *req.BeginningHour
	}
	if req.EndHour != nil {
		merged.EndHour = *req.EndHour
	}
	return merged
}
