package usecase

import (
	"fmt"
	"math"
	"sort"

	"github.com/Puru1375/ai-smart-internship-allocation/internal/apperror"
	"github.com/Puru1375/ai-smart-internship-allocation/internal/dto"
	"github.com/Puru1375/ai-smart-internship-allocation/internal/model"
	"github.com/Puru1375/ai-smart-internship-allocation/internal/util"
)

// MaxQuota is the largest reserved-category fraction a run may request.
const MaxQuota = 0.5

// ValidateQuota rejects fractions outside [0, MaxQuota]. Values are never clamped.
func ValidateQuota(quota float64) error {
	if math.IsNaN(quota) || math.IsInf(quota, 0) || quota < 0 || quota > MaxQuota {
		return apperror.New(apperror.KindValidation, fmt.Sprintf("quota must be between 0 and %g", MaxQuota)).
			WithDetails(map[string]any{"quota": quota, "max": MaxQuota})
	}
	return nil
}

// BuildOptimizeRequest turns repository snapshots into the optimizer input.
// Output is ordered by id so identical snapshots give identical requests.
func BuildOptimizeRequest(applicants []model.Applicant, internships []model.Internship, quota float64) (dto.OptimizeRequest, error) {
	if len(applicants) == 0 || len(internships) == 0 {
		return dto.OptimizeRequest{}, apperror.New(apperror.KindInsufficientData, "allocation needs at least one applicant and one internship").
			WithDetails(map[string]any{"applicants": len(applicants), "internships": len(internships)})
	}
	if err := ValidateQuota(quota); err != nil {
		return dto.OptimizeRequest{}, err
	}

	students := make([]dto.OptimizerStudent, 0, len(applicants))
	for _, a := range applicants {
		students = append(students, studentFor(a))
	}
	sort.Slice(students, func(i, j int) bool { return students[i].ID < students[j].ID })

	jobs := make([]dto.OptimizerInternship, 0, len(internships))
	for _, in := range internships {
		jobs = append(jobs, dto.OptimizerInternship{
			ID:             in.ID,
			RequiredSkills: util.NormalizeSkills(in.RequiredSkills),
			Capacity:       max(in.Capacity, 0),
		})
	}
	sort.Slice(jobs, func(i, j int) bool { return jobs[i].ID < jobs[j].ID })

	return dto.OptimizeRequest{
		Students:         students,
		Internships:      jobs,
		MinCategoryQuota: quota,
	}, nil
}

func studentFor(a model.Applicant) dto.OptimizerStudent {
	s := dto.OptimizerStudent{
		ID:       a.ID,
		Skills:   util.NormalizeSkills(a.Skills),
		Category: a.Category(),
	}
	if a.District != nil {
		s.District = *a.District
	}
	if a.PreferLocal != nil {
		s.PreferLocal = *a.PreferLocal
	}
	return s
}

// BuildGapRequest packages one applicant's skills with the full catalogue.
func BuildGapRequest(skills []string, internships []model.Internship) dto.GapRequest {
	jobs := make([]dto.GapInternship, 0, len(internships))
	for _, in := range internships {
		gi := dto.GapInternship{
			ID:             in.ID,
			RequiredSkills: util.NormalizeSkills(in.RequiredSkills),
			Capacity:       max(in.Capacity, 0),
		}
		if in.Location != nil {
			gi.Location = *in.Location
		}
		jobs = append(jobs, gi)
	}
	sort.Slice(jobs, func(i, j int) bool { return jobs[i].ID < jobs[j].ID })
	return dto.GapRequest{
		StudentSkills: util.NormalizeSkills(skills),
		Internships:   jobs,
	}
}
