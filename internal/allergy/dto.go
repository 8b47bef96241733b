// AngelaMos | 2026
// dto.go

package allergy

type AddAllergyRequest struct {
	Name string `json:"name" validate:"required,max=100"`
}

type AllergyResponse struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

func ToAllergyResponse(a *Allergy) AllergyResponse {
	return AllergyResponse{ID: a.ID, Name: a.Name}
}

func ToAllergyResponseList(allergies []Allergy) []AllergyResponse {
	out := make([]AllergyResponse, 0, len(allergies))
	for i := range allergies {
		out = append(out, ToAllergyResponse(&allergies[i]))
	}
	return out
}
