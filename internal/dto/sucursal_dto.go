package dto

type CrearSucursalRequest struct {
	Nombre    string  `json:"nombre"    validate:"required,min=2,max=100"`
	Direccion *string `json:"direccion" validate:"omitempty,max=200"`
}

type ActualizarSucursalRequest struct {
	Nombre    string  `json:"nombre"    validate:"omitempty,min=2,max=100"`
	Direccion *string `json:"direccion" validate:"omitempty,max=200"`
}

type SucursalResponse struct {
	ID        string  `json:"id"`
	Nombre    string  `json:"nombre"`
	Direccion *string `json:"direccion"`
	Activo    bool    `json:"activo"`
}
