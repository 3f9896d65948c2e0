package entities

import (
	"strings"

	"camrental/internal/errs"
	"camrental/internal/model"
)

// UnitRequest registers or updates one physical camera in the registry.
type UnitRequest struct {
	Model  string `json:"model"`
	Serial string `json:"serial"`
	Notes  string `json:"notes"`
}

func (r UnitRequest) ToModel() (model.Unit, error) {
	m := strings.TrimSpace(r.Model)
	s := strings.TrimSpace(r.Serial)
	if m == "" {
		return model.Unit{}, &errs.ValidationError{Field: "model", Reason: "required"}
	}
	if s == "" {
		return model.Unit{}, &errs.ValidationError{Field: "serial", Reason: "required"}
	}
	return model.Unit{
		UnitRef: model.UnitRef{Model: m, Serial: s},
		Notes:   r.Notes,
	}, nil
}

// UnitResponse carries a registry record plus the degradation warning when
// the write only landed locally.
type UnitResponse struct {
	model.Unit
	Warning string `json:"warning,omitempty"`
}

func NewUnitResponse(u model.Unit, warn *errs.Warning) UnitResponse {
	resp := UnitResponse{Unit: u}
	if warn != nil {
		resp.Warning = warn.Error()
	}
	return resp
}

// HealthResponse reports liveness, remote reachability and dataset sizes.
type HealthResponse struct {
	Status        string `json:"status"`
	Remote        string `json:"remote"`
	Bookings      int    `json:"bookings"`
	Confirmations int    `json:"confirmations"`
	Units         int    `json:"units"`
}
