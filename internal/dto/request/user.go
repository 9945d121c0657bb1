package request

// UpdateProfileRequest is a partial update; nil fields are left unchanged.
type UpdateProfileRequest struct {
	Name     *string `json:"name,omitempty" validate:"omitempty,notblank,max=100"`
	Email    *string `json:"email,omitempty" validate:"omitempty,email,max=254"`
	Phone    *string `json:"phone,omitempty" validate:"omitempty,min=7,max=20"`
	Address  *string `json:"address,omitempty" validate:"omitempty,max=500"`
	Location *string `json:"location,omitempty" validate:"omitempty,max=200"`
}

// IsEmpty reports whether no field was supplied.
func (r *UpdateProfileRequest) IsEmpty() bool {
	return r.Name == nil && r.Email == nil && r.Phone == nil && r.Address == nil && r.Location == nil
}
